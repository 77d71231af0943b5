package config

import (
	"fmt"
	"os"
	"strings"
)

// RequiredEnvVars lists all environment variables that must be set
var RequiredEnvVars = []string{
	"ENV_SCHEMA_VERSION",
	"DB_USER",
	"DB_PASSWORD",
	"DB_HOST",
	"DB_PORT",
	"DB_NAME",
	"CRON_SECRET",
}

// ValidateEnv checks that all required environment variables are set
// and that the schema version matches expectations
func ValidateEnv() error {
	schemaVersion := os.Getenv("ENV_SCHEMA_VERSION")
	if schemaVersion == "" {
		return fmt.Errorf("ENV_SCHEMA_VERSION is not set - please update your .env file to include this field (expected: %s)", ExpectedEnvSchemaVersion)
	}

	if schemaVersion != ExpectedEnvSchemaVersion {
		return fmt.Errorf("ENV_SCHEMA_VERSION mismatch: expected %s, got %s - your .env file may be outdated", ExpectedEnvSchemaVersion, schemaVersion)
	}

	if missing := unset(os.Getenv, RequiredEnvVars...); len(missing) > 0 {
		return fmt.Errorf("missing required environment variables: %s", strings.Join(missing, ", "))
	}

	return nil
}

// MinCronSecretLength is the shortest cron secret accepted without a warning
const MinCronSecretLength = 32

// envWarning reports a non-fatal configuration problem, or "" when there is none
type envWarning func(getenv func(string) string) string

var envWarnings = []envWarning{
	func(getenv func(string) string) string {
		if getenv("DB_PASSWORD") == ExampleDBPassword {
			return "DB_PASSWORD appears to be using the example value - please use a secure password"
		}
		return ""
	},
	func(getenv func(string) string) string {
		switch secret := getenv("CRON_SECRET"); {
		case secret == ExampleCronSecret:
			return "CRON_SECRET appears to be using the example value - generate a secure key with: openssl rand -hex 32"
		case len(secret) < MinCronSecretLength:
			return fmt.Sprintf("CRON_SECRET is shorter than %d characters", MinCronSecretLength)
		}
		return ""
	},
	func(getenv func(string) string) string {
		if getenv("CHAIN_RPC_URL") == "" {
			return "CHAIN_RPC_URL is not set - on-chain prize publication is disabled"
		}
		if missing := unset(getenv, "PRIZE_CONTRACT_ADDRESS", "OPERATOR_PRIVATE_KEY"); len(missing) > 0 {
			return "CHAIN_RPC_URL is set but " + strings.Join(missing, ", ") + " is not - on-chain prize publication is disabled"
		}
		return ""
	},
	func(getenv func(string) string) string {
		missing := unset(getenv, "AUTH_AUDIENCE", "AUTH_PUBLIC_KEY", "ADMIN_FIDS")
		if len(missing) > 0 && len(missing) < 3 {
			return "admin API is partially configured (missing " + strings.Join(missing, ", ") + ") - admin routes are disabled"
		}
		return ""
	},
}

func unset(getenv func(string) string, keys ...string) []string {
	var missing []string
	for _, k := range keys {
		if getenv(k) == "" {
			missing = append(missing, k)
		}
	}
	return missing
}

// ValidateEnvWithWarnings runs ValidateEnv and then reports non-fatal issues
// such as example values or half-configured integrations
func ValidateEnvWithWarnings() ([]string, error) {
	if err := ValidateEnv(); err != nil {
		return nil, err
	}

	var warnings []string
	for _, check := range envWarnings {
		if w := check(os.Getenv); w != "" {
			warnings = append(warnings, w)
		}
	}
	return warnings, nil
}
