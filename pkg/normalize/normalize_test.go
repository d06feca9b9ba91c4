package normalize

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestText(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"empty", "", ""},
		{"whitespace only", " \t\n ", ""},
		{"lower cases", "Blood TEST", "blood test"},
		{"keeps parentheses", "Glucose (mg/dL)", "glucose (mg dl)"},
		{"strips punctuation", "X-Ray!!", "x ray"},
		{"collapses runs", "  hemoglobin \t\t  low  ", "hemoglobin low"},
		{"keeps digits", "ECG 12-lead", "ecg 12 lead"},
		{"drops non ascii letters", "café", "caf"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Text(tt.in))
		})
	}
}

func TestTextIsIdempotent(t *testing.T) {
	in := "What should I do about my Blood-Test?"
	once := Text(in)
	assert.Equal(t, once, Text(once))
}

func TestWords(t *testing.T) {
	assert.Nil(t, Words("  "))
	assert.Equal(t, []string{"heart", "rate"}, Words("Heart Rate"))
	assert.Equal(t, "glucose", FirstWord("Glucose (mg/dL)"))
	assert.Equal(t, "", FirstWord("!!"))
}
