package config

import (
	"reflect"
	"testing"
	"time"
)

func TestFromEnvDefaults(t *testing.T) {
	t.Setenv("AUTH_JWT_SECRET", "s3cret")

	cfg, err := FromEnv()
	if err != nil {
		t.Fatalf("FromEnv() error: %v", err)
	}
	if cfg.Addr != ":8080" || cfg.MongoDatabase != "store-audit" {
		t.Errorf("addr = %q db = %q", cfg.Addr, cfg.MongoDatabase)
	}
	if cfg.ScoreCollection != "audit_scores" || cfg.SectionEvaluationCollection != "section_evaluations" {
		t.Errorf("collections = %q, %q", cfg.ScoreCollection, cfg.SectionEvaluationCollection)
	}
	if cfg.ChecklistSource != ChecklistSourceMongo {
		t.Errorf("checklist source = %q", cfg.ChecklistSource)
	}
	if cfg.Policy.FrescosSectionID != 3 || len(cfg.Policy.AderenteCriteria) != 6 {
		t.Errorf("policy = %+v", cfg.Policy)
	}
	if cfg.RequestTimeout != 5*time.Second || cfg.MessengerTimeout != 3*time.Second {
		t.Errorf("timeouts = %v, %v", cfg.RequestTimeout, cfg.MessengerTimeout)
	}
	if cfg.JWT.Issuer != "store-audit-auth" || string(cfg.JWT.Secret) != "s3cret" {
		t.Errorf("jwt = %+v", cfg.JWT)
	}
	if cfg.MessengerEndpoint != "" {
		t.Errorf("messenger endpoint = %q, want empty", cfg.MessengerEndpoint)
	}
}

func TestFromEnvOverrides(t *testing.T) {
	t.Setenv("AUTH_JWT_SECRET", "s3cret")
	t.Setenv("CHECKLIST_SOURCE", "FILE")
	t.Setenv("FRESCOS_SECTION_ID", "7")
	t.Setenv("ADERENTE_CRITERIA", "1, 2,3")
	t.Setenv("API_ALLOWED_ORIGINS", "https://a.pt, https://b.pt")
	t.Setenv("MESSENGER_GATEWAY_URL", "http://gw:3000/")
	t.Setenv("REQUEST_TIMEOUT", "nonsense")

	cfg, err := FromEnv()
	if err != nil {
		t.Fatalf("FromEnv() error: %v", err)
	}
	if cfg.ChecklistSource != ChecklistSourceFile {
		t.Errorf("checklist source = %q", cfg.ChecklistSource)
	}
	if cfg.Policy.FrescosSectionID != 7 || !reflect.DeepEqual(cfg.Policy.AderenteCriteria, []int{1, 2, 3}) {
		t.Errorf("policy = %+v", cfg.Policy)
	}
	if !reflect.DeepEqual(cfg.AllowedOrigins, []string{"https://a.pt", "https://b.pt"}) {
		t.Errorf("origins = %v", cfg.AllowedOrigins)
	}
	if cfg.MessengerEndpoint != "http://gw:3000" {
		t.Errorf("messenger endpoint = %q", cfg.MessengerEndpoint)
	}
	if cfg.RequestTimeout != 5*time.Second {
		t.Errorf("invalid duration should fall back, got %v", cfg.RequestTimeout)
	}
}

func TestFromEnvErrors(t *testing.T) {
	tests := []struct {
		name string
		env  map[string]string
	}{
		{name: "missing secret", env: map[string]string{}},
		{name: "unknown source", env: map[string]string{"AUTH_JWT_SECRET": "x", "CHECKLIST_SOURCE": "s3"}},
		{name: "bad frescos id", env: map[string]string{"AUTH_JWT_SECRET": "x", "FRESCOS_SECTION_ID": "tres"}},
		{name: "bad aderente id", env: map[string]string{"AUTH_JWT_SECRET": "x", "ADERENTE_CRITERIA": "1,x"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Setenv("AUTH_JWT_SECRET", "")
			for k, v := range tt.env {
				t.Setenv(k, v)
			}
			if _, err := FromEnv(); err == nil {
				t.Error("FromEnv() expected error")
			}
		})
	}
}
