package constants

// Password length limits, in characters
const (
	MinPasswordLength = 8
	MaxPasswordLength = 128
)
