package logger

// Log level string values
const (
	LogLevelDebug   = "debug"
	LogLevelInfo    = "info"
	LogLevelWarn    = "warn"
	LogLevelWarning = "warning"
	LogLevelError   = "error"
)

// Log format string values
const (
	LogFormatJSON = "json"
	LogFormatText = "text"
)

// Log attribute keys
const (
	AttrKeyService     = "service"
	AttrKeyVersion     = "version"
	AttrKeyEnvironment = "environment"
	AttrKeyRequestID   = "request_id"
)

// RedactedValue replaces the value of any attribute whose key is in SensitiveKeys
const RedactedValue = "[REDACTED]"

// SensitiveKeys are attribute keys never written to the log, matched case-insensitively
var SensitiveKeys = []string{
	"authorization",
	"cron_secret",
	"operator_private_key",
	"private_key",
	"password",
	"db_password",
	"token",
}
