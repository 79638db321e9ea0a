package domain

import (
	"errors"
	"testing"
	"time"
)

func TestStatusTransitions(t *testing.T) {
	tests := []struct {
		from, to Status
		want     bool
	}{
		{StatusNew, StatusInProgress, true},
		{StatusNew, StatusSubmitted, true},
		{StatusInProgress, StatusInProgress, true},
		{StatusInProgress, StatusSubmitted, true},
		{StatusInProgress, StatusCancelled, true},
		{StatusNew, StatusReplaced, true},
		{StatusSubmitted, StatusEnded, true},
		{StatusEnded, StatusClosed, true},
		{StatusSubmitted, StatusInProgress, false},
		{StatusEnded, StatusSubmitted, false},
		{StatusClosed, StatusInProgress, false},
		{StatusCancelled, StatusInProgress, false},
		{StatusReplaced, StatusSubmitted, false},
		{StatusNew, StatusEnded, false},
	}
	for _, tt := range tests {
		if got := tt.from.CanTransitionTo(tt.to); got != tt.want {
			t.Errorf("%s -> %s = %v, want %v", tt.from, tt.to, got, tt.want)
		}
	}
}

func TestParseStatus(t *testing.T) {
	for _, in := range []string{"submitted", "3", " SUBMITTED "} {
		got, err := ParseStatus(in)
		if err != nil || got != StatusSubmitted {
			t.Errorf("ParseStatus(%q) = %v, %v", in, got, err)
		}
	}
	if _, err := StatusFromCode(9); err == nil {
		t.Error("StatusFromCode(9) expected error")
	}
}

func TestAuditTransition(t *testing.T) {
	now := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)
	audit := Audit{ID: "a1", Status: StatusInProgress}

	change, err := audit.Transition(StatusSubmitted, 66.6, now)
	if err != nil {
		t.Fatalf("Transition() error: %v", err)
	}
	if change.FinalScore != 67 || change.DtEnd == nil || !change.DtEnd.Equal(now) {
		t.Errorf("unexpected change: %+v", change)
	}
	audit.Apply(change, now)
	if audit.Status != StatusSubmitted || audit.FinalScore == nil || *audit.FinalScore != 67 {
		t.Errorf("Apply() left audit %+v", audit)
	}

	_, err = audit.Transition(StatusInProgress, 0, now)
	if !errors.Is(err, ErrInvalidTransition) {
		t.Errorf("expected ErrInvalidTransition, got %v", err)
	}
	if _, err := audit.Refresh(0); !errors.Is(err, ErrInvalidTransition) {
		t.Errorf("Refresh on submitted audit: %v", err)
	}
}

func TestPermissions(t *testing.T) {
	owner := Actor{ID: "dot-1", Role: RoleDOT}
	other := Actor{ID: "dot-2", Role: RoleDOT}
	leader := Actor{ID: "tl-1", Role: RoleTeamLeader}
	admin := Actor{ID: "adm", Role: RoleAdmin}
	aderente := Actor{ID: "ad-1", Role: RoleAderente}
	otherAderente := Actor{ID: "ad-2", Role: RoleAderente}
	amont := Actor{ID: "am-1", Role: RoleAmont}

	audit := Audit{ID: "a1", DotUserID: "dot-1", CreatedBy: "tl-1", Status: StatusInProgress}

	tests := []struct {
		name   string
		status Status
		actor  Actor
		want   Permissions
	}{
		{"owner in progress", StatusInProgress, owner, Permissions{Edit: true, Submit: true}},
		{"other dot in progress", StatusInProgress, other, Permissions{}},
		{"creator leader in progress", StatusInProgress, leader, Permissions{Edit: true, Delete: true}},
		{"admin in progress", StatusInProgress, admin, Permissions{Edit: true, Delete: true}},
		{"owner after submit", StatusSubmitted, owner, Permissions{}},
		{"aderente submitted", StatusSubmitted, aderente, Permissions{Approve: true}},
		{"foreign aderente submitted", StatusSubmitted, otherAderente, Permissions{}},
		{"leader submitted", StatusSubmitted, leader, Permissions{Approve: true}},
		{"amont ended", StatusEnded, amont, Permissions{Close: true}},
		{"aderente ended", StatusEnded, aderente, Permissions{Close: true}},
		{"leader ended", StatusEnded, leader, Permissions{}},
		{"admin closed", StatusClosed, admin, Permissions{}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			a := audit
			a.Status = tt.status
			if got := PermissionsFor(a, "ad-1", tt.actor); got != tt.want {
				t.Errorf("PermissionsFor() = %+v, want %+v", got, tt.want)
			}
		})
	}
}

func TestOwnerFallsBackToCreator(t *testing.T) {
	audit := Audit{CreatedBy: "dot-9", Status: StatusNew}
	if !CanSubmit(audit.OwnerID(), audit.Status, Actor{ID: "dot-9", Role: RoleDOT}) {
		t.Error("creator should own an audit without a DOT user")
	}
}
