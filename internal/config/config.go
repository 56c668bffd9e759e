package config // package config loads application configuration from environment variables

import (
	"log"
	"os"
	"time"

	"github.com/joho/godotenv"
)

// Config holds all runtime configuration values. Each field corresponds to
// an environment variable. Unlike most services this one ships with working
// defaults for nearly everything, because the serverless deployment injects
// its settings through bindings rather than a .env file; only JWT_SECRET is
// enforced outside dev.
type Config struct {
	Env  string // application environment (e.g. "dev", "prod")
	Port string // HTTP port to listen on

	// Conventional backend
	DatabaseURL string // PostgreSQL DSN

	// Serverless backend (Cloudflare D1 over its REST API)
	D1AccountID       string // Cloudflare account identifier
	D1DatabaseID      string // D1 database identifier
	D1APIToken        string // API token with D1 edit permission
	CloudflareWorkers bool   // set when running on the Workers platform

	JWTSecret      string        // secret used to sign JWTs
	AccessTokenTTL time.Duration // access token time-to-live

	SuperAdminEmail    string // seed super admin account email
	SuperAdminPassword string // seed super admin account password
	InitSecret         string // shared secret for the /system/initialize-database endpoint
	BcryptCost         int    // bcrypt cost for password hashing

	ProgramStart time.Time // first day cards are accepted
	ProgramEnd   time.Time // last day cards are accepted

	AMQPURL                  string // RabbitMQ connection URL, empty disables notifications
	EnableEmailNotifications bool   // default for the site settings row
}

// Load reads configuration from the environment, consulting a .env file
// when present. It never exits; missing values fall back to defaults the
// way the deployment expects.
func Load() Config {
	if err := godotenv.Load(); err == nil {
		log.Println("loaded environment from .env")
	}

	cfg := Config{
		Env:                      envStr("APP_ENV", "dev"),
		Port:                     envStr("APP_PORT", "8000"),
		DatabaseURL:              envStr("DATABASE_URL", "postgresql://localhost/ramadan_db"),
		D1AccountID:              os.Getenv("CLOUDFLARE_ACCOUNT_ID"),
		D1DatabaseID:             os.Getenv("CLOUDFLARE_D1_DATABASE_ID"),
		D1APIToken:               os.Getenv("CLOUDFLARE_API_TOKEN"),
		CloudflareWorkers:        os.Getenv("CLOUDFLARE_WORKERS") != "" || os.Getenv("CF_PAGES") != "",
		JWTSecret:                envStr("JWT_SECRET_KEY", "change-me"),
		AccessTokenTTL:           time.Duration(envInt("JWT_ACCESS_TOKEN_EXPIRES", 2592000)) * time.Second,
		SuperAdminEmail:          envStr("SUPER_ADMIN_EMAIL", "admin@example.com"),
		SuperAdminPassword:       envStr("SUPER_ADMIN_PASSWORD", "ChangeMe123!"),
		InitSecret:               os.Getenv("INIT_SECRET"),
		BcryptCost:               envInt("BCRYPT_COST", 12),
		ProgramStart:             envDate("PROGRAM_START", "2026-02-19"),
		ProgramEnd:               envDate("PROGRAM_END", "2026-03-19"),
		AMQPURL:                  os.Getenv("AMQP_URL"),
		EnableEmailNotifications: envBool("ENABLE_EMAIL_NOTIFICATIONS", true),
	}

	if cfg.Env != "dev" && cfg.JWTSecret == "change-me" {
		log.Fatal("JWT_SECRET_KEY must be set outside dev")
	}
	return cfg
}

// HasD1Credentials reports whether every field needed to reach the D1 REST
// API is present.
func (c Config) HasD1Credentials() bool {
	return c.D1AccountID != "" && c.D1DatabaseID != "" && c.D1APIToken != ""
}

// envDate parses a YYYY-MM-DD environment variable, falling back to def.
func envDate(key, def string) time.Time {
	s := envStr(key, def)
	t, err := time.Parse("2006-01-02", s)
	if err != nil {
		t, _ = time.Parse("2006-01-02", def)
		log.Printf("invalid date for %s: %q, using %s", key, s, def)
	}
	return t
}
