package validation

func CustomMessage(field string) map[string]string {
	var customValidationMessages = map[string]map[string]string{
		"Email": {
			"required": "email is required",
			"email":    "email is not a valid address",
			"max":      "email must be at most 255 characters",
		},
		"Password": {
			"required": "password is required",
			"password": "password must be 8 to 128 characters and contain a letter and a digit",
		},
		"NewPassword": {
			"required": "new_password is required",
			"password": "new_password must be 8 to 128 characters and contain a letter and a digit",
		},
		"CurrentPassword": {
			"required": "current_password is required",
		},
		"ConfirmPassword": {
			"required": "confirm_password is required",
			"eqfield":  "confirm_password must match new_password",
		},
		"Name": {
			"min": "name must be at least 2 characters",
			"max": "name must be at most 50 characters",
		},
	}
	return customValidationMessages[field]
}
