package constants

// HTTP Header Names
const (
	HeaderContentType   = "Content-Type"
	HeaderAuthorization = "Authorization"
	HeaderUserAgent     = "User-Agent"
	HeaderXRequestID    = "X-Request-ID"
	HeaderRetryAfter    = "Retry-After"
)

// Authorization scheme
const BearerScheme = "Bearer"

// HTTP Content Types
const (
	ContentTypeJSON = "application/json"
)

// Common HTTP Error Messages
const (
	MsgUnauthorized       = "Unauthorized"
	MsgForbidden          = "Access denied!"
	MsgNotFound           = "Resource not found"
	MsgBadRequest         = "Invalid request format"
	MsgValidationFailed   = "Validation failed"
	MsgInternalError      = "Internal server error"
	MsgServiceUnavailable = "Service temporarily unavailable"
	MsgTooManyRequests    = "Rate limit exceeded"
)

// HTTP Success Messages
const (
	MsgSignedUp        = "Signed up successfully!"
	MsgSignedIn        = "Signed in successfully!"
	MsgTokensRefreshed = "Tokens refreshed successfully!"
	MsgLoggedOut       = "Logged out successfully!"
	MsgUsersRetrieved  = "Retrieved users successfully!"
	MsgUserFound       = "User found successfully!"
	MsgUserUpdated     = "User updated successfully!"
	MsgPasswordUpdated = "Password updated successfully!"
	MsgUserRemoved     = "User removed successfully!"
)
