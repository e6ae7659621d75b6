package constants

// Application Information
const (
	AppName    = "Auth Service"
	AppVersion = "1.0.0"
)

// Environment Types
const (
	EnvDevelopment = "development"
	EnvStaging     = "staging"
	EnvProduction  = "production"
)

// Default Application Settings
const (
	DefaultPort        = "8080"
	DefaultEnvironment = EnvDevelopment
)

// Cache Key Prefixes
const (
	CacheKeyPrefix        = "auth:"
	CacheKeyRevokedAccess = CacheKeyPrefix + "revoked:access:"
)

// Gin context keys set by the auth middleware
const (
	GinKeyUserID       = "user_id"
	GinKeyEmail        = "email"
	GinKeyClaims       = "claims"
	GinKeyRefreshToken = "refresh_token"
)
