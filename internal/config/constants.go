package config

// ExpectedEnvSchemaVersion is the schema version that the application expects
const ExpectedEnvSchemaVersion = "1.0"

// Environment names
const (
	EnvDev         = "dev"
	EnvDevelopment = "development"
	EnvProduction  = "prod"
)

// Example values shipped in .env.example that must never reach production
const (
	ExampleDBPassword = "change_this_secure_password"
	ExampleCronSecret = "generate_with_openssl_rand_hex_32"
)
