package config

import (
	"fmt"
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/sngm3741/store-audit-services/api/internal/audit/domain"
)

// Checklist sources.
const (
	ChecklistSourceMongo = "mongo"
	ChecklistSourceFile  = "file"
)

// JWTConfig defines issuer/secret pair for auth verification.
type JWTConfig struct {
	Issuer string
	Secret []byte
}

// Config holds runtime configuration shared across the application.
type Config struct {
	Addr                         string
	MongoURI                     string
	MongoDatabase                string
	AuditCollection              string
	ScoreCollection              string
	SectionEvaluationCollection  string
	ChecklistCollection          string
	StoreCollection              string
	UserCollection               string
	FailedNotificationCollection string
	Timeout                      time.Duration
	RequestTimeout               time.Duration
	WriteTimeout                 time.Duration
	Timezone                     string
	ServerLog                    *log.Logger
	JWT                          JWTConfig
	JWTAudience                  string
	ChecklistSource              string
	ChecklistDir                 string
	Policy                       domain.Policy
	MessengerEndpoint            string
	MessengerDestination         string
	MessengerTimeout             time.Duration
	AllowedOrigins               []string
}

// Load reads environment variables and returns a fully populated Config.
func Load() Config {
	cfg, err := FromEnv()
	if err != nil {
		log.Fatal(err)
	}
	cfg.ServerLog.Printf("loaded config: checklistSource=%q frescosSection=%d messengerEndpoint=%q", cfg.ChecklistSource, cfg.Policy.FrescosSectionID, cfg.MessengerEndpoint)
	return cfg
}

// FromEnv is Load without the fatal exit, so misconfiguration can be tested.
func FromEnv() (Config, error) {
	secret := strings.TrimSpace(os.Getenv("AUTH_JWT_SECRET"))
	if secret == "" {
		return Config{}, fmt.Errorf("AUTH_JWT_SECRET must be configured")
	}

	source := strings.ToLower(envOrDefault("CHECKLIST_SOURCE", ChecklistSourceMongo))
	if source != ChecklistSourceMongo && source != ChecklistSourceFile {
		return Config{}, fmt.Errorf("CHECKLIST_SOURCE must be %q or %q, got %q", ChecklistSourceMongo, ChecklistSourceFile, source)
	}

	policy := domain.DefaultPolicy()
	if raw := strings.TrimSpace(os.Getenv("FRESCOS_SECTION_ID")); raw != "" {
		id, err := strconv.Atoi(raw)
		if err != nil || id <= 0 {
			return Config{}, fmt.Errorf("FRESCOS_SECTION_ID must be a positive integer, got %q", raw)
		}
		policy.FrescosSectionID = id
	}
	if raw := parseList("ADERENTE_CRITERIA", nil); raw != nil {
		ids := make([]int, 0, len(raw))
		for _, part := range raw {
			id, err := strconv.Atoi(part)
			if err != nil || id <= 0 {
				return Config{}, fmt.Errorf("ADERENTE_CRITERIA contains an invalid id: %q", part)
			}
			ids = append(ids, id)
		}
		policy.AderenteCriteria = ids
	}

	return Config{
		Addr:                         envOrDefault("HTTP_ADDR", ":8080"),
		MongoURI:                     envOrDefault("MONGO_URI", "mongodb://mongo:27017"),
		MongoDatabase:                envOrDefault("MONGO_DB", "store-audit"),
		AuditCollection:              envOrDefault("AUDIT_COLLECTION", "audits"),
		ScoreCollection:              envOrDefault("AUDIT_SCORE_COLLECTION", "audit_scores"),
		SectionEvaluationCollection:  envOrDefault("SECTION_EVALUATION_COLLECTION", "section_evaluations"),
		ChecklistCollection:          envOrDefault("CHECKLIST_COLLECTION", "checklists"),
		StoreCollection:              envOrDefault("STORE_COLLECTION", "stores"),
		UserCollection:               envOrDefault("USER_COLLECTION", "users"),
		FailedNotificationCollection: envOrDefault("FAILED_NOTIFICATION_COLLECTION", "failed_notifications"),
		Timeout:                      durationOrDefault("MONGO_CONNECT_TIMEOUT", 10*time.Second),
		RequestTimeout:               durationOrDefault("REQUEST_TIMEOUT", 5*time.Second),
		WriteTimeout:                 durationOrDefault("WRITE_TIMEOUT", 5*time.Second),
		Timezone:                     envOrDefault("TIMEZONE", "Europe/Lisbon"),
		ServerLog:                    log.New(os.Stdout, "[store-audit-api] ", log.LstdFlags|log.Lshortfile),
		JWT: JWTConfig{
			Issuer: envOrDefault("AUTH_JWT_ISSUER", "store-audit-auth"),
			Secret: []byte(secret),
		},
		JWTAudience:          strings.TrimSpace(os.Getenv("AUTH_JWT_AUDIENCE")),
		ChecklistSource:      source,
		ChecklistDir:         envOrDefault("CHECKLIST_DIR", "./checklists"),
		Policy:               policy,
		MessengerEndpoint:    strings.TrimRight(strings.TrimSpace(os.Getenv("MESSENGER_GATEWAY_URL")), "/"),
		MessengerDestination: envOrDefault("MESSENGER_GATEWAY_DESTINATION", "toast"),
		MessengerTimeout:     durationOrDefault("MESSENGER_GATEWAY_TIMEOUT", 3*time.Second),
		AllowedOrigins:       parseList("API_ALLOWED_ORIGINS", []string{"*"}),
	}, nil
}

func envOrDefault(key, fallback string) string {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		return v
	}
	return fallback
}

func durationOrDefault(key string, fallback time.Duration) time.Duration {
	if raw := strings.TrimSpace(os.Getenv(key)); raw != "" {
		if parsed, err := time.ParseDuration(raw); err == nil && parsed > 0 {
			return parsed
		}
	}
	return fallback
}

func parseList(key string, fallback []string) []string {
	raw := strings.TrimSpace(os.Getenv(key))
	if raw == "" {
		return fallback
	}

	parts := strings.Split(raw, ",")
	values := make([]string, 0, len(parts))
	for _, part := range parts {
		part = strings.TrimSpace(part)
		if part != "" {
			values = append(values, part)
		}
	}

	if len(values) == 0 {
		return fallback
	}
	return values
}
