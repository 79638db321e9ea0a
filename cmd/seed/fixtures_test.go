package main

import (
	"math/rand"
	"reflect"
	"testing"

	"github.com/sngm3741/store-audit-services/api/internal/audit/domain"
)

func TestGenerateFixtures(t *testing.T) {
	opts := fixtureOptions{storeCount: 4, checklistID: 7, aderenteVisits: 1}
	set := generateFixtures(rand.New(rand.NewSource(42)), opts)

	if len(set.users) != 9 {
		t.Fatalf("users = %d, want 9", len(set.users))
	}
	if len(set.stores) != 4 {
		t.Fatalf("stores = %d, want 4", len(set.stores))
	}

	aderenteVisits := 0
	for i, fixture := range set.stores {
		audit := fixture.audit
		if audit.Status != domain.StatusNew || audit.ChecklistID != 7 || audit.CreatedBy != "tl-1" {
			t.Errorf("audit %d = %+v", i, audit)
		}
		if fixture.store.AderenteID == "" || fixture.store.AderenteID == audit.DotUserID {
			t.Errorf("store %d aderente = %q, dot = %q", i, fixture.store.AderenteID, audit.DotUserID)
		}
		if audit.VisitSource == domain.VisitAderente {
			aderenteVisits++
		}
	}
	if aderenteVisits != 1 {
		t.Errorf("aderente visits = %d, want 1", aderenteVisits)
	}

	again := generateFixtures(rand.New(rand.NewSource(42)), opts)
	if !reflect.DeepEqual(set, again) {
		t.Error("same seed should generate the same fixtures")
	}
}

func TestParseEnvLine(t *testing.T) {
	tests := []struct {
		line      string
		key, val  string
		wantFound bool
	}{
		{line: "MONGO_DB=audit", key: "MONGO_DB", val: "audit", wantFound: true},
		{line: `export MONGO_URI="mongodb://x:27017"`, key: "MONGO_URI", val: "mongodb://x:27017", wantFound: true},
		{line: "# comment"},
		{line: ""},
		{line: "NOEQUALS"},
	}
	for _, tt := range tests {
		key, val, ok := parseEnvLine(tt.line)
		if ok != tt.wantFound || key != tt.key || val != tt.val {
			t.Errorf("parseEnvLine(%q) = %q, %q, %v", tt.line, key, val, ok)
		}
	}
}
