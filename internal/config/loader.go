package config

import (
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/joho/godotenv"
)

// Load reads a TOML configuration file at path, merges it on top of the
// built-in defaults, applies CARDMARKET_* environment variable overrides,
// and returns the final Config. The returned Config has NOT been
// validated; the caller should invoke Config.Validate() after Load.
func Load(path string) (*Config, error) {
	cfg := Defaults()

	if _, err := toml.DecodeFile(path, &cfg); err != nil {
		return nil, err
	}

	// Load .env file if present (silently ignore if missing).
	_ = godotenv.Load()

	applyEnvOverrides(&cfg)

	return &cfg, nil
}

// applyEnvOverrides reads well-known CARDMARKET_* environment variables
// and overwrites the corresponding Config fields when a variable is set
// (i.e. not empty). This lets operators inject secrets at deploy time
// without touching the TOML file.
func applyEnvOverrides(cfg *Config) {
	// ── Postgres ──
	setStr(&cfg.Postgres.DSN, "CARDMARKET_POSTGRES_DSN")
	setStr(&cfg.Postgres.Host, "CARDMARKET_POSTGRES_HOST")
	setInt(&cfg.Postgres.Port, "CARDMARKET_POSTGRES_PORT")
	setStr(&cfg.Postgres.Database, "CARDMARKET_POSTGRES_DATABASE")
	setStr(&cfg.Postgres.User, "CARDMARKET_POSTGRES_USER")
	setStr(&cfg.Postgres.Password, "CARDMARKET_POSTGRES_PASSWORD")
	setStr(&cfg.Postgres.SSLMode, "CARDMARKET_POSTGRES_SSL_MODE")
	setInt(&cfg.Postgres.PoolMaxConns, "CARDMARKET_POSTGRES_POOL_MAX_CONNS")
	setInt(&cfg.Postgres.PoolMinConns, "CARDMARKET_POSTGRES_POOL_MIN_CONNS")
	setBool(&cfg.Postgres.RunMigrations, "CARDMARKET_POSTGRES_RUN_MIGRATIONS")

	// ── Redis ──
	setStr(&cfg.Redis.Addr, "CARDMARKET_REDIS_ADDR")
	setStr(&cfg.Redis.Password, "CARDMARKET_REDIS_PASSWORD")
	setInt(&cfg.Redis.DB, "CARDMARKET_REDIS_DB")
	setInt(&cfg.Redis.PoolSize, "CARDMARKET_REDIS_POOL_SIZE")
	setInt(&cfg.Redis.MaxRetries, "CARDMARKET_REDIS_MAX_RETRIES")
	setBool(&cfg.Redis.TLSEnabled, "CARDMARKET_REDIS_TLS_ENABLED")

	// ── S3 ──
	setBool(&cfg.S3.Enabled, "CARDMARKET_S3_ENABLED")
	setStr(&cfg.S3.Endpoint, "CARDMARKET_S3_ENDPOINT")
	setStr(&cfg.S3.Region, "CARDMARKET_S3_REGION")
	setStr(&cfg.S3.Bucket, "CARDMARKET_S3_BUCKET")
	setStr(&cfg.S3.AccessKey, "CARDMARKET_S3_ACCESS_KEY")
	setStr(&cfg.S3.SecretKey, "CARDMARKET_S3_SECRET_KEY")
	setBool(&cfg.S3.UseSSL, "CARDMARKET_S3_USE_SSL")
	setBool(&cfg.S3.ForcePathStyle, "CARDMARKET_S3_FORCE_PATH_STYLE")

	// ── Server ──
	setInt(&cfg.Server.Port, "CARDMARKET_SERVER_PORT")
	setStringSlice(&cfg.Server.CORSOrigins, "CARDMARKET_SERVER_CORS_ORIGINS")
	setStr(&cfg.Server.APIKey, "CARDMARKET_SERVER_API_KEY")
	setInt(&cfg.Server.RateLimit, "CARDMARKET_SERVER_RATE_LIMIT")
	setDuration(&cfg.Server.RateWindow, "CARDMARKET_SERVER_RATE_WINDOW")

	// ── Admin ──
	setStr(&cfg.Admin.Authority, "CARDMARKET_ADMIN_AUTHORITY")
	setStr(&cfg.Admin.Key, "CARDMARKET_ADMIN_KEY")
	setStr(&cfg.Admin.Secret, "CARDMARKET_ADMIN_SECRET")
	setStr(&cfg.Admin.EncryptedSecretPath, "CARDMARKET_ADMIN_ENCRYPTED_SECRET_PATH")
	setStr(&cfg.Admin.SecretPassword, "CARDMARKET_ADMIN_SECRET_PASSWORD")

	// ── Chests ──
	setUint64(&cfg.Chests.CommonCost, "CARDMARKET_CHESTS_COMMON_COST")
	setUint64(&cfg.Chests.RareCost, "CARDMARKET_CHESTS_RARE_COST")
	setUint64(&cfg.Chests.LegendaryCost, "CARDMARKET_CHESTS_LEGENDARY_COST")

	// ── Worker ──
	setDuration(&cfg.Worker.ExpirySweepInterval, "CARDMARKET_WORKER_EXPIRY_SWEEP_INTERVAL")
	setInt(&cfg.Worker.ExpirySweepBatch, "CARDMARKET_WORKER_EXPIRY_SWEEP_BATCH")
	setDuration(&cfg.Worker.ArchiveInterval, "CARDMARKET_WORKER_ARCHIVE_INTERVAL")
	setInt(&cfg.Worker.ArchiveRetentionDays, "CARDMARKET_WORKER_ARCHIVE_RETENTION_DAYS")

	// ── Notify ──
	setStr(&cfg.Notify.TelegramToken, "CARDMARKET_NOTIFY_TELEGRAM_TOKEN")
	setStr(&cfg.Notify.TelegramChatID, "CARDMARKET_NOTIFY_TELEGRAM_CHAT_ID")
	setStr(&cfg.Notify.DiscordWebhookURL, "CARDMARKET_NOTIFY_DISCORD_WEBHOOK_URL")
	setStringSlice(&cfg.Notify.Events, "CARDMARKET_NOTIFY_EVENTS")

	// ── Top-level ──
	setStr(&cfg.Mode, "CARDMARKET_MODE")
	setStr(&cfg.LogLevel, "CARDMARKET_LOG_LEVEL")
}

// ---------------------------------------------------------------------------
// Typed env-var helpers. Each only mutates the target when the environment
// variable is present and non-empty.
// ---------------------------------------------------------------------------

func setStr(dst *string, key string) {
	if v := os.Getenv(key); v != "" {
		*dst = v
	}
}

func setInt(dst *int, key string) {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			*dst = n
		}
	}
}

func setUint64(dst *uint64, key string) {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.ParseUint(v, 10, 64); err == nil {
			*dst = n
		}
	}
}

func setBool(dst *bool, key string) {
	if v := os.Getenv(key); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			*dst = b
		}
	}
}

func setDuration(dst *duration, key string) {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			dst.Duration = d
		}
	}
}

func setStringSlice(dst *[]string, key string) {
	if v := os.Getenv(key); v != "" {
		parts := strings.Split(v, ",")
		cleaned := make([]string, 0, len(parts))
		for _, p := range parts {
			p = strings.TrimSpace(p)
			if p != "" {
				cleaned = append(cleaned, p)
			}
		}
		if len(cleaned) > 0 {
			*dst = cleaned
		}
	}
}
