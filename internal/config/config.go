package config

import (
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"

	"github.com/assess-hub/assesshub-backend/internal/storage"
)

type Mode string

const (
	ModeOffline Mode = "offline"
	ModeOnline  Mode = "online"
)

type Config struct {
	Mode     Mode
	HTTPAddr string

	MongoURI    string
	MongoDBName string

	AuditDriver string // sqlite|postgres
	AuditDSN    string

	BlobBasePath string

	AuthSecret        string
	AllowLegacyTokens bool
	AllowRoleFallback bool

	SubmissionCap int

	CORSOrigins []string
}

// FromEnv loads .env if present, then reads the environment. The Mongo URI default
// is a placeholder on purpose: the persistence selector treats it as "durable store
// not configured".
func FromEnv() Config {
	_ = godotenv.Load()

	mode := Mode(os.Getenv("MODE"))
	if mode == "" {
		mode = ModeOffline
	}
	return Config{
		Mode:     mode,
		HTTPAddr: envOr("HTTP_ADDR", ":8080"),

		MongoURI:    envOr("MONGO_URI", storage.PlaceholderMongoURI),
		MongoDBName: envOr("MONGO_DB", "assesshub"),

		AuditDriver: envOr("AUDIT_DRIVER", "sqlite"),
		AuditDSN:    envOr("AUDIT_DSN", ""),

		BlobBasePath: envOr("BLOB_BASE_PATH", "./data"),

		AuthSecret:        envOr("AUTH_HMAC_SECRET", "supersecret-dev-key"),
		AllowLegacyTokens: envBool("AUTH_ALLOW_LEGACY", mode == ModeOffline),
		AllowRoleFallback: envBool("AUTH_ROLE_FALLBACK", mode == ModeOffline),

		SubmissionCap: envInt("SUBMISSION_CAP", 100),

		CORSOrigins: csvOr("CORS_ORIGINS", "http://localhost:3000"),
	}
}

func envOr(k, def string) string {
	v := os.Getenv(k)
	if v == "" {
		return def
	}
	return v
}

func envBool(k string, def bool) bool {
	switch os.Getenv(k) {
	case "1", "true", "TRUE", "yes", "YES":
		return true
	case "0", "false", "FALSE", "no", "NO":
		return false
	default:
		return def
	}
}

func envInt(k string, def int) int {
	if v, err := strconv.Atoi(os.Getenv(k)); err == nil && v > 0 {
		return v
	}
	return def
}

func csvOr(k, def string) []string {
	v := envOr(k, def)
	parts := strings.Split(v, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if s := strings.TrimSpace(p); s != "" {
			out = append(out, s)
		}
	}
	return out
}
