// tavle/config/config.go
package config

const (
	AppVersion = "0.4.0"

	// Form & Post Limits
	MaxUserNameLen = 50
	MaxSubjectLen  = 100
	MaxPostTextLen = 8000

	// File Upload Limits
	MaxFileSize = 15 * 1024 * 1024 // 15MB
	MaxWidth    = 8000
	MaxHeight   = 8000

	// Session
	SessionCookieName = "tavle_session"
	SessionMaxAge     = 30 * 24 * 3600 // seconds

	// bcrypt cost for user password hashes.
	PasswordHashCost = 12

	// Rate Limiting Defaults
	DefaultRateLimitEvery  = "10s"
	DefaultRateLimitBurst  = 5
	DefaultRateLimitPrune  = "1h"
	DefaultRateLimitExpire = "24h"
)
