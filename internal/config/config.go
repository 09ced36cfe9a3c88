package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	Env         string
	ListenAddr  string
	DatabaseURL string
	SQLitePath  string
	TursoURL    string
	TursoToken  string

	RecheckWorkers  int
	RecheckInterval time.Duration
	UpstreamTimeout time.Duration
	UpstreamRetries int

	HIBPAPIKey       string
	HIBPUserAgent    string
	DemoBreachesPath string

	EmailUser     string
	EmailPass     string
	SMTPAddr      string
	ResendAPIKey  string
	AlertFromName string

	AAIAPIKey string
	AAIModel  string
	NATSURL   string
}

// IsProduction reports whether APP_ENV selects production logging.
func (c Config) IsProduction() bool {
	return strings.EqualFold(c.Env, "production") || strings.EqualFold(c.Env, "prod")
}

func getenv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

// Load reads the environment, after applying any .env file. The returned error
// is a warning listing unset optional secrets; the Config is always usable.
func Load() (Config, error) {
	_ = godotenv.Load()

	cfg := Config{
		Env:         getenv("APP_ENV", "development"),
		ListenAddr:  getenv("LISTEN_ADDR", ":8080"),
		DatabaseURL: os.Getenv("DATABASE_URL"),
		SQLitePath:  getenv("SQLITE_PATH", "data/monitor.db"),
		TursoURL:    os.Getenv("TURSO_DATABASE_URL"),
		TursoToken:  os.Getenv("TURSO_AUTH_TOKEN"),

		RecheckWorkers:  getenvInt("RECHECK_WORKERS", 4),
		RecheckInterval: getenvDuration("RECHECK_INTERVAL", 0),
		UpstreamTimeout: getenvDuration("UPSTREAM_TIMEOUT", 10*time.Second),
		UpstreamRetries: getenvInt("UPSTREAM_RETRIES", 2),

		HIBPAPIKey:       os.Getenv("HIBP_API_KEY"),
		HIBPUserAgent:    getenv("HIBP_USER_AGENT", "breachmonitor"),
		DemoBreachesPath: os.Getenv("DEMO_BREACHES_PATH"),

		EmailUser:     os.Getenv("EMAIL_USER"),
		EmailPass:     os.Getenv("EMAIL_PASS"),
		SMTPAddr:      getenv("SMTP_ADDR", "smtp.gmail.com:465"),
		ResendAPIKey:  os.Getenv("RESEND_API_KEY"),
		AlertFromName: getenv("ALERT_FROM_NAME", "Dark Web Breach Monitor"),

		AAIAPIKey: os.Getenv("AAI_API_KEY"),
		AAIModel:  os.Getenv("AAI_MODEL"),
		NATSURL:   os.Getenv("NATS_URL"),
	}
	if cfg.RecheckWorkers < 1 {
		cfg.RecheckWorkers = 1
	}
	if cfg.UpstreamRetries < 0 {
		cfg.UpstreamRetries = 0
	}

	var missing []string
	if cfg.HIBPAPIKey == "" {
		missing = append(missing, "HIBP_API_KEY (demo breach source in use)")
	}
	if cfg.EmailUser == "" || (cfg.EmailPass == "" && cfg.ResendAPIKey == "") {
		missing = append(missing, "EMAIL_USER/EMAIL_PASS or RESEND_API_KEY (email alerts disabled)")
	}
	if cfg.AAIAPIKey == "" {
		missing = append(missing, "AAI_API_KEY (AI summaries disabled)")
	}
	if len(missing) > 0 {
		// Not fatal; callers log and continue.
		return cfg, fmt.Errorf("optional configuration not set: %s", strings.Join(missing, "; "))
	}
	return cfg, nil
}

func getenvInt(key string, def int) int {
	if v := os.Getenv(key); v != "" {
		var out int
		_, err := fmt.Sscanf(v, "%d", &out)
		if err == nil {
			return out
		}
	}
	return def
}

// getenvDuration accepts Go duration strings ("90s", "1h") or bare seconds.
func getenvDuration(key string, def time.Duration) time.Duration {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	if d, err := time.ParseDuration(v); err == nil {
		return d
	}
	var secs int
	if _, err := fmt.Sscanf(v, "%d", &secs); err == nil {
		return time.Duration(secs) * time.Second
	}
	return def
}
