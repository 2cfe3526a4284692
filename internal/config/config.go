package config

import (
	"net/http"
	"os"
	"strconv"
	"strings"
	"time"
)

// Config holds all runtime settings, populated from the environment.
type Config struct {
	Addr    string
	DataDir string

	JWTSecret  string
	UserSecret string

	SessionTTL     time.Duration
	CookieSecure   bool
	CookieSameSite http.SameSite

	FrontendOrigin string
	RedisAddr      string
	AuditDBPath    string

	ResendKey       string
	EmailFrom       string
	EmailRecipients []string

	AdminUsername string
	AdminPassword string

	RateLimitPerSecond float64
	CSRFKey            string
}

// New builds a Config from the environment with development defaults.
// Secrets default to obviously unsafe values so a missing .env is noticeable
// in logs but does not block local runs.
func New() Config {
	return Config{
		Addr:    getEnv("ADDR", ":8080"),
		DataDir: getEnv("DATA_DIR", "./data"),

		JWTSecret:  getEnv("JWT_SECRET", "dev-jwt-secret"),
		UserSecret: getEnv("USER_SECRET", "dev-user-secret"),

		SessionTTL:     time.Duration(getEnvInt("SESSION_TTL_MINUTES", 60)) * time.Minute,
		CookieSecure:   getEnvBool("COOKIE_SECURE", false),
		CookieSameSite: parseSameSite(getEnv("COOKIE_SAMESITE", "lax")),

		FrontendOrigin: getEnv("FRONTEND_ORIGIN", "http://localhost:5173"),
		RedisAddr:      getEnv("REDIS_ADDR", ""),
		AuditDBPath:    getEnv("AUDIT_DB_PATH", "./data/audit.db"),

		ResendKey:       getEnv("RESEND_KEY", ""),
		EmailFrom:       getEnv("NOTICE_EMAIL_FROM", "SQL Console <noreply@example.com>"),
		EmailRecipients: splitList(getEnv("NOTICE_EMAIL_RECIPIENTS", "")),

		AdminUsername: getEnv("ADMIN_USERNAME", "admin"),
		AdminPassword: getEnv("ADMIN_PASSWORD", "admin"),

		RateLimitPerSecond: getEnvFloat("RATE_LIMIT_PER_SECOND", 10),
		CSRFKey:            getEnv("CSRF_KEY", "dev-csrf-key-0123456789abcdef01"),
	}
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return fallback
}

func getEnvFloat(key string, fallback float64) float64 {
	if v := os.Getenv(key); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			return f
		}
	}
	return fallback
}

func getEnvBool(key string, fallback bool) bool {
	if v := os.Getenv(key); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			return b
		}
	}
	return fallback
}

func splitList(v string) []string {
	if v == "" {
		return nil
	}
	parts := strings.Split(v, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

func parseSameSite(v string) http.SameSite {
	switch strings.ToLower(v) {
	case "strict":
		return http.SameSiteStrictMode
	case "none":
		return http.SameSiteNoneMode
	default:
		return http.SameSiteLaxMode
	}
}
