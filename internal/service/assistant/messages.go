package assistant

const (
	welcomeText         = "Hi, I'm Kitty, your health assistant. Ask me about your recent tests or for recommendations."
	docTypePromptText   = "Which type of record would you like recommendations for?"
	noRecordsText       = "I couldn't find any records yet. Once you add one I can go through it with you."
	recentOneText       = "Here is your most recent record."
	recentManyText      = "Here are your %d most recent records."
	greetingText        = "Hello! How can I help you with your health records today?"
	fallbackText        = "Sorry, I didn't understand that. You can ask for recommendations or your recent tests."
	fetchFailedText     = "Sorry, I couldn't reach your records right now. Please try again in a moment."
	recommendedText     = "Here is what I found in your %s records:"
	noRecommendedText   = "I don't have any recommendations for your %s records yet."
	tipsText            = "Here are a few health tips:"
	viewRecordText      = "Opening your record."
	viewMissingText     = "I couldn't tell which record you meant. Please pick one from the list first."
	reminderText        = "Let's set up a reminder for this record."
	reminderMissingText = "I couldn't tell which record to set a reminder for. Please pick one from the list first."
)

// Navigation routes handed to the client.
const (
	ViewRecordPath  = "/records/view"
	NewReminderPath = "/reminders/new"
)
