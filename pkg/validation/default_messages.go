package validation

import (
	"fmt"
	"strings"
)

func DefaultMessage(field, tag string) string {
	field = strings.ToLower(field)

	switch tag {
	case "required":
		return fmt.Sprintf("%s is required", field)
	case "email":
		return fmt.Sprintf("%s must be a valid email address", field)
	case "url":
		return fmt.Sprintf("%s must be a valid URL", field)
	case "min":
		return fmt.Sprintf("%s is shorter than the minimum length", field)
	case "max":
		return fmt.Sprintf("%s exceeds the maximum length", field)
	case "len":
		return fmt.Sprintf("%s must have the exact length", field)
	case "eqfield":
		return fmt.Sprintf("%s must match its confirmation field", field)
	case "oneof":
		return fmt.Sprintf("%s must be one of the allowed values", field)
	case "password":
		return fmt.Sprintf("%s must be 8 to 128 characters and contain a letter and a digit", field)
	default:
		return fmt.Sprintf("%s is invalid", field)
	}
}
