package server

import "time"

// HTTP error messages for middleware responses
const (
	ErrMsgUnauthorized    = "Unauthorized"
	ErrMsgTooManyRequests = "Too Many Requests"
)

// Security alert message templates
const (
	SecurityAlertFailedAuth = "SECURITY ALERT: Multiple failed authentication attempts"
	SecurityAlertHighRate   = "SECURITY ALERT: Blocking high request rate"
)

// Log messages for server lifecycle and request handling
const (
	LogMsgServerStarting   = "Server starting"
	LogMsgRequestStarted   = "Request started"
	LogMsgRequestCompleted = "Request completed"
	LogMsgRequestHeaders   = "Request headers"
	LogMsgAuthFailed       = "Authentication failed"
	LogMsgAdminAuthOff     = "Admin routes disabled: Quick Auth is not configured"
	LogMsgBadTrustedProxy  = "Ignoring invalid trusted proxy entries"
)

// HTTP header names
const (
	HeaderAuthorization  = "Authorization"
	HeaderForwardedFor   = "X-Forwarded-For"
	HeaderContentType    = "X-Content-Type-Options"
	HeaderFrameOptions   = "X-Frame-Options"
	HeaderReferrerPolicy = "Referrer-Policy"
	HeaderCacheControl   = "Cache-Control"
	HeaderRetryAfter     = "Retry-After"
	HeaderRequestID      = "X-Request-ID"
)

// BearerScheme is the Authorization scheme for both the cron secret and Quick Auth tokens
const BearerScheme = "Bearer"

// Security header values
const (
	HeaderValueNoSniff    = "nosniff"
	HeaderValueDeny       = "DENY"
	HeaderValueNoReferrer = "no-referrer"
	HeaderValueNoStore    = "no-store"
)

// Per-IP request accounting
const (
	DetectorWindow          = 5 * time.Minute
	DetectorMaxRequests     = 1000
	DetectorFailedAuthAlert = 5
)

// Request limits
const (
	MaxRequestBodyBytes = 1 << 20
	MaxRequestIDLength  = 128
	ReadHeaderTimeout   = 5 * time.Second
)

// Paths skipped by request logging
var QuietPaths = []string{
	"/healthz",
	"/readyz",
	"/metrics",
}

// Header redaction marker
const (
	RedactedValue = "[REDACTED]"
)
