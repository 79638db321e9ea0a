package application

import (
	"context"
	"errors"
	"testing"

	"github.com/sngm3741/store-audit-services/api/internal/audit/domain"
)

var (
	dotOwner   = domain.Actor{ID: "dot-1", Role: domain.RoleDOT}
	dotOther   = domain.Actor{ID: "dot-2", Role: domain.RoleDOT}
	teamLeader = domain.Actor{ID: "tl-9", Role: domain.RoleTeamLeader}
	aderente   = domain.Actor{ID: "ad-1", Role: domain.RoleAderente}
	amont      = domain.Actor{ID: "am-1", Role: domain.RoleAmont}
)

func newTestService(t *testing.T) (AuditService, *memoryStore, *recordingNotifier) {
	t.Helper()
	m := newMemoryStore()
	seed(m)
	notifier := &recordingNotifier{}
	return NewAuditService(m.config(notifier)), m, notifier
}

func TestAuditServiceEditGate(t *testing.T) {
	svc, _, _ := newTestService(t)
	ctx := context.Background()

	tests := []struct {
		name    string
		actor   domain.Actor
		wantErr error
	}{
		{name: "owner", actor: dotOwner},
		{name: "elevated", actor: teamLeader},
		{name: "other dot", actor: dotOther, wantErr: ErrForbidden},
		{name: "aderente", actor: aderente, wantErr: ErrForbidden},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.SetScore(ctx, tt.actor, SetScoreCommand{AuditID: "a2", CriterionID: 301, Value: intPtr(1)})
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("SetScore() = %v, want %v", err, tt.wantErr)
			}
		})
	}
}

func TestAuditServiceLifecycle(t *testing.T) {
	svc, m, notifier := newTestService(t)
	ctx := context.Background()

	if _, err := svc.SetScore(ctx, dotOwner, SetScoreCommand{AuditID: "a1", CriterionID: 101, Value: intPtr(1)}); err != nil {
		t.Fatal(err)
	}
	if _, err := svc.SetScore(ctx, dotOwner, SetScoreCommand{AuditID: "a1", CriterionID: 102, Value: intPtr(0)}); err != nil {
		t.Fatal(err)
	}
	if _, err := svc.Submit(ctx, teamLeader, "a1"); !errors.Is(err, ErrForbidden) {
		t.Errorf("Submit by non-owner = %v, want ErrForbidden", err)
	}

	_, err := svc.Submit(ctx, dotOwner, "a1")
	var validation *ValidationError
	if !errors.As(err, &validation) {
		t.Fatalf("Submit() = %v, want ValidationError", err)
	}
	if notifier.count(NotifyWarning) != 1 {
		t.Errorf("warnings = %d, want 1", notifier.count(NotifyWarning))
	}

	if _, err := svc.AppendPhoto(ctx, dotOwner, PhotoCommand{AuditID: "a1", CriterionID: 102, Photo: "p.jpg"}); err != nil {
		t.Fatal(err)
	}
	audit, err := svc.Submit(ctx, dotOwner, "a1")
	if err != nil {
		t.Fatalf("Submit() error: %v", err)
	}
	if audit.Status != domain.StatusSubmitted || *audit.FinalScore != 50 {
		t.Errorf("submitted = %+v", audit)
	}
	if _, err := svc.Submit(ctx, dotOwner, "a1"); !errors.Is(err, domain.ErrInvalidTransition) {
		t.Errorf("second Submit() = %v, want ErrInvalidTransition", err)
	}

	if _, err := svc.Close(ctx, amont, "a1"); !errors.Is(err, domain.ErrInvalidTransition) {
		t.Errorf("Close before approve = %v", err)
	}
	if _, err := svc.Approve(ctx, dotOwner, "a1"); !errors.Is(err, ErrForbidden) {
		t.Errorf("Approve by DOT = %v, want ErrForbidden", err)
	}
	if audit, err = svc.Approve(ctx, aderente, "a1"); err != nil || audit.Status != domain.StatusEnded {
		t.Fatalf("Approve() = %+v, %v", audit, err)
	}
	if audit, err = svc.Close(ctx, amont, "a1"); err != nil || audit.Status != domain.StatusClosed {
		t.Fatalf("Close() = %+v, %v", audit, err)
	}
	if stored := m.storedAudit("a1"); stored.Status != domain.StatusClosed || *stored.FinalScore != 50 {
		t.Errorf("stored = %+v", stored)
	}
}

func TestAuditServiceDelete(t *testing.T) {
	svc, m, _ := newTestService(t)
	ctx := context.Background()

	if _, err := svc.SetScore(ctx, dotOwner, SetScoreCommand{AuditID: "a2", CriterionID: 301, Value: intPtr(1)}); err != nil {
		t.Fatal(err)
	}
	if err := svc.Delete(ctx, dotOwner, "a2"); !errors.Is(err, ErrForbidden) {
		t.Errorf("Delete by DOT = %v, want ErrForbidden", err)
	}
	if err := svc.Delete(ctx, teamLeader, "a2"); err != nil {
		t.Fatalf("Delete() error: %v", err)
	}
	if _, ok := m.storedScore("a2", 301); ok {
		t.Error("scores should be deleted with the audit")
	}
	if _, err := svc.View(ctx, teamLeader, "a2"); !errors.Is(err, ErrAuditNotFound) {
		t.Errorf("View deleted audit = %v", err)
	}
}

func TestAuditServiceCancelAndReplace(t *testing.T) {
	svc, m, _ := newTestService(t)
	ctx := context.Background()

	if _, err := svc.Cancel(ctx, dotOwner, "a1"); !errors.Is(err, ErrForbidden) {
		t.Errorf("Cancel by DOT = %v", err)
	}
	if _, err := svc.Replace(ctx, teamLeader, "a1", "missing"); !errors.Is(err, ErrInvalidInput) {
		t.Errorf("Replace with unknown audit = %v", err)
	}
	audit, err := svc.Replace(ctx, teamLeader, "a1", "a2")
	if err != nil {
		t.Fatalf("Replace() error: %v", err)
	}
	if audit.Status != domain.StatusReplaced || audit.ReplacedBy != "a2" {
		t.Errorf("replaced = %+v", audit)
	}
	if stored := m.storedAudit("a1"); stored.ReplacedBy != "a2" {
		t.Errorf("stored replacedBy = %q", stored.ReplacedBy)
	}
	if _, err := svc.Cancel(ctx, teamLeader, "a1"); !errors.Is(err, domain.ErrInvalidTransition) {
		t.Errorf("Cancel replaced audit = %v", err)
	}
}

func TestAuditServiceViewAndProgress(t *testing.T) {
	svc, _, _ := newTestService(t)
	ctx := context.Background()

	comments := "  Loja arrumada  "
	audit, err := svc.SaveProgress(ctx, dotOwner, SaveProgressCommand{AuditID: "a2", AuditorComments: &comments})
	if err != nil {
		t.Fatalf("SaveProgress() error: %v", err)
	}
	if audit.AuditorComments != "Loja arrumada" || audit.Status != domain.StatusInProgress {
		t.Errorf("progress = %+v", audit)
	}

	view, err := svc.View(ctx, dotOwner, "a2")
	if err != nil {
		t.Fatalf("View() error: %v", err)
	}
	if !view.Permissions.Edit || !view.Permissions.Submit || view.Permissions.Delete {
		t.Errorf("permissions = %+v", view.Permissions)
	}
	if view.Store == nil || view.Store.AderenteID != "ad-1" {
		t.Errorf("store = %+v", view.Store)
	}
	if len(view.Summary.Sections) != 1 || len(view.Summary.Sections[0].Subsections) != 2 {
		t.Errorf("summary = %+v", view.Summary)
	}

	if _, err := svc.SaveSectionEvaluation(ctx, dotOwner, SaveSectionEvaluationCommand{AuditID: "a2", SectionKey: "bad"}); !errors.Is(err, ErrInvalidInput) {
		t.Errorf("bad key = %v", err)
	}
}
