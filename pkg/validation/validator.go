package validation

import (
	"errors"
	"fmt"
	"unicode"
	"unicode/utf8"

	"github.com/Payphone-Digital/auth-service/internal/constants"
	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
)

// RegisterCustomRules adds the service's own tags to v.
func RegisterCustomRules(v *validator.Validate) error {
	if err := v.RegisterValidation("password", validatePassword); err != nil {
		return fmt.Errorf("register password rule: %w", err)
	}
	return nil
}

// RegisterWithGin installs the custom rules on gin's binding validator so
// ShouldBindJSON enforces them.
func RegisterWithGin() error {
	v, ok := binding.Validator.Engine().(*validator.Validate)
	if !ok {
		return errors.New("gin binding engine is not go-playground/validator")
	}
	return RegisterCustomRules(v)
}

// validatePassword wants 8 to 128 characters with at least one letter and
// one digit.
func validatePassword(fl validator.FieldLevel) bool {
	value := fl.Field().String()

	n := utf8.RuneCountInString(value)
	if n < constants.MinPasswordLength || n > constants.MaxPasswordLength {
		return false
	}

	var hasLetter, hasDigit bool
	for _, r := range value {
		switch {
		case unicode.IsLetter(r):
			hasLetter = true
		case unicode.IsDigit(r):
			hasDigit = true
		}
	}
	return hasLetter && hasDigit
}

// Messages turns validator errors into client-facing field messages. Errors
// of any other type give nil.
func Messages(err error) []string {
	var validationErrors validator.ValidationErrors
	if !errors.As(err, &validationErrors) {
		return nil
	}

	messages := make([]string, 0, len(validationErrors))
	for _, e := range validationErrors {
		if fieldMessages := CustomMessage(e.Field()); fieldMessages != nil {
			if msg, exists := fieldMessages[e.Tag()]; exists {
				messages = append(messages, msg)
				continue
			}
		}
		messages = append(messages, DefaultMessage(e.Field(), e.Tag()))
	}
	return messages
}
