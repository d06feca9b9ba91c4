package httputil

import (
	stderrors "errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"

	"github.com/jwalitptl/health-assistant/pkg/errors"
)

// Response wraps all API responses
type Response struct {
	Success bool        `json:"success"`
	Data    interface{} `json:"data,omitempty"`
	Error   *Error      `json:"error,omitempty"`
}

// Error represents API error
type Error struct {
	Code      int          `json:"code"`
	Message   string       `json:"message"`
	RequestID string       `json:"request_id,omitempty"`
	Fields    []FieldError `json:"fields,omitempty"`
}

// FieldError describes one failed validation rule.
type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// RespondWithSuccess sends a success response
func RespondWithSuccess(c *gin.Context, data interface{}) {
	c.JSON(http.StatusOK, Response{
		Success: true,
		Data:    data,
	})
}

// RespondWithCreated sends a 201 success response
func RespondWithCreated(c *gin.Context, data interface{}) {
	c.JSON(http.StatusCreated, Response{
		Success: true,
		Data:    data,
	})
}

// RespondWithError sends an error response. Validation failures become a
// 400 listing the failing fields. Other errors that are not AppErrors are
// reported as internal errors without leaking their message.
func RespondWithError(c *gin.Context, err error) {
	var verrs validator.ValidationErrors
	if stderrors.As(err, &verrs) {
		RespondWithValidation(c, ValidationFields(verrs))
		return
	}

	statusCode := http.StatusInternalServerError
	message := "Internal server error"

	if appErr, ok := errors.As(err); ok {
		statusCode = appErr.HTTPStatus()
		message = appErr.Message
	}

	RespondWithStatus(c, statusCode, message)
}

// RespondWithStatus aborts the request with a plain error message.
func RespondWithStatus(c *gin.Context, statusCode int, message string) {
	c.AbortWithStatusJSON(statusCode, Response{
		Success: false,
		Error: &Error{
			Code:      statusCode,
			Message:   message,
			RequestID: c.GetString("request_id"),
		},
	})
}

// RespondWithValidation aborts with a 400 listing the failing fields.
func RespondWithValidation(c *gin.Context, fields []FieldError) {
	c.AbortWithStatusJSON(http.StatusBadRequest, Response{
		Success: false,
		Error: &Error{
			Code:      http.StatusBadRequest,
			Message:   "validation failed",
			RequestID: c.GetString("request_id"),
			Fields:    fields,
		},
	})
}

// ValidationFields lists each failed rule by field and tag.
func ValidationFields(verrs validator.ValidationErrors) []FieldError {
	fields := make([]FieldError, 0, len(verrs))
	for _, fe := range verrs {
		fields = append(fields, FieldError{
			Field:   fe.Field(),
			Message: "Field failed on the '" + fe.Tag() + "' rule",
		})
	}
	return fields
}

// BindError classifies a binding failure. Validation failures pass through
// untouched so the validation middleware can report them per field;
// anything else is a malformed request.
func BindError(err error) error {
	var verrs validator.ValidationErrors
	if stderrors.As(err, &verrs) {
		return err
	}
	return errors.BadRequest("invalid request", err)
}
