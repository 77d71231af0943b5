package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

// Config holds the application configuration
type Config struct {
	Environment string `env:"ENVIRONMENT" envDefault:"dev"`
	Version     string `env:"VERSION" envDefault:"dev"`
	ServiceName string `env:"SERVICE_NAME" envDefault:"triviacast"`
	Port        int    `env:"PORT" envDefault:"8080"`
	LogLevel    string `env:"LOG_LEVEL" envDefault:"info"`
	LogFormat   string `env:"LOG_FORMAT" envDefault:"text"`
	LogDir      string `env:"LOG_DIR"` // also write session log files here when set

	DBUser        string        `env:"DB_USER" envDefault:"postgres"`
	DBPassword    string        `env:"DB_PASSWORD" envDefault:"postgres"`
	DBHost        string        `env:"DB_HOST" envDefault:"localhost"`
	DBPort        string        `env:"DB_PORT" envDefault:"5432"`
	DBName        string        `env:"DB_NAME" envDefault:"triviacast"`
	DBMaxConns    int           `env:"DB_MAX_CONNS" envDefault:"10"`
	DBMaxConnIdle time.Duration `env:"DB_MAX_CONN_IDLE" envDefault:"5m"`
	DBMaxConnLife time.Duration `env:"DB_MAX_CONN_LIFE" envDefault:"1h"`

	// CronSecret authenticates the scheduled sweep and the real-time service trigger.
	CronSecret     string   `env:"CRON_SECRET"`
	TrustedProxies []string `env:"TRUSTED_PROXIES" envSeparator:","`

	// Admin Quick Auth verification
	AuthIssuer    string  `env:"AUTH_ISSUER" envDefault:"https://auth.farcaster.xyz"`
	AuthAudience  string  `env:"AUTH_AUDIENCE"`
	AuthPublicKey string  `env:"AUTH_PUBLIC_KEY"` // base64 Ed25519 public key
	AdminFIDs     []int64 `env:"ADMIN_FIDS" envSeparator:","`

	// Lifecycle
	DefaultPrizeCurve     []int         `env:"PRIZE_CURVE_DEFAULT" envSeparator:"," envDefault:"5000,3000,2000"`
	FinalizeTimeout       time.Duration `env:"FINALIZE_TIMEOUT" envDefault:"30s"`
	PublishClaimLease     time.Duration `env:"PUBLISH_CLAIM_LEASE" envDefault:"10m"`
	SweepInterval         time.Duration `env:"SWEEP_INTERVAL" envDefault:"0s"`
	SweepBatchSize        int           `env:"SWEEP_BATCH_SIZE" envDefault:"25"`
	StatusCacheSize       int           `env:"STATUS_CACHE_SIZE" envDefault:"1024"`
	StatusCacheTTL        time.Duration `env:"STATUS_CACHE_TTL" envDefault:"1m"`
	NotifyAllParticipants bool          `env:"NOTIFY_ALL_PARTICIPANTS" envDefault:"false"`

	// Chain
	ChainRPCURL        string `env:"CHAIN_RPC_URL"`
	ChainID            int64  `env:"CHAIN_ID" envDefault:"8453"`
	PrizeContract      string `env:"PRIZE_CONTRACT_ADDRESS"`
	OperatorPrivateKey string `env:"OPERATOR_PRIVATE_KEY"`
	TokenSymbol        string `env:"TOKEN_SYMBOL" envDefault:"USDC"`
	TokenDecimals      int    `env:"TOKEN_DECIMALS" envDefault:"6"`

	// Notifications
	AppURL              string        `env:"APP_URL" envDefault:"https://triviacast.xyz"`
	NotifyWorkers       int           `env:"NOTIFY_WORKERS" envDefault:"4"`
	NotifyQueueSize     int           `env:"NOTIFY_QUEUE_SIZE" envDefault:"256"`
	NotifyMaxElapsed    time.Duration `env:"NOTIFY_MAX_ELAPSED" envDefault:"2m"`
	DiscordWebhookURL   string        `env:"DISCORD_WEBHOOK_URL"`
	EventMaxRetries     int           `env:"EVENT_MAX_RETRIES" envDefault:"3"`
	EventRetryDelay     time.Duration `env:"EVENT_RETRY_DELAY" envDefault:"2s"`
	EventDeadLetterPath string        `env:"EVENT_DEAD_LETTER_PATH" envDefault:"logs/deadletter.jsonl"`
}

// Load loads the configuration from environment variables
func Load() (*Config, error) {
	// Load .env file if it exists, but don't fail if it doesn't (could be real env vars)
	_ = godotenv.Load()

	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("failed to parse environment: %w", err)
	}

	if cfg.CronSecret == "" {
		return nil, fmt.Errorf("CRON_SECRET environment variable must be set for security")
	}
	if cfg.FinalizeTimeout <= 0 {
		return nil, fmt.Errorf("FINALIZE_TIMEOUT must be positive, got %s", cfg.FinalizeTimeout)
	}
	if cfg.SweepBatchSize <= 0 {
		return nil, fmt.Errorf("SWEEP_BATCH_SIZE must be positive, got %d", cfg.SweepBatchSize)
	}

	return cfg, nil
}

// GetDBConnString returns the PostgreSQL connection string
func (c *Config) GetDBConnString() string {
	return fmt.Sprintf("postgres://%s:%s@%s:%s/%s?sslmode=disable",
		c.DBUser,
		c.DBPassword,
		c.DBHost,
		c.DBPort,
		c.DBName,
	)
}

// IsDevelopment reports whether the app runs in a dev environment
func (c *Config) IsDevelopment() bool {
	e := strings.ToLower(c.Environment)
	return e == EnvDev || e == EnvDevelopment
}

// ChainEnabled reports whether on-chain prize distribution is configured
func (c *Config) ChainEnabled() bool {
	return c.ChainRPCURL != "" && c.PrizeContract != "" && c.OperatorPrivateKey != ""
}

// AdminAuthEnabled reports whether admin Quick Auth verification is configured
func (c *Config) AdminAuthEnabled() bool {
	return c.AuthPublicKey != "" && c.AuthAudience != ""
}
