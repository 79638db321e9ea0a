package application

import (
	"context"
	"errors"
	"reflect"
	"testing"

	"github.com/sngm3741/store-audit-services/api/internal/audit/domain"
)

func openTestSession(t *testing.T, m *memoryStore, notifier Notifier, auditID string) *Session {
	t.Helper()
	sess, err := OpenSession(context.Background(), m.config(notifier), auditID, "dot-1")
	if err != nil {
		t.Fatalf("OpenSession() error: %v", err)
	}
	t.Cleanup(sess.Close)
	return sess
}

func TestSessionFirstScoreStartsAuditOnce(t *testing.T) {
	m := newMemoryStore()
	seed(m)
	sess := openTestSession(t, m, &recordingNotifier{}, "a1")
	ctx := context.Background()

	if _, err := sess.SetScore(101, intPtr(1)); err != nil {
		t.Fatalf("SetScore() error: %v", err)
	}
	if _, err := sess.SetScore(102, intPtr(0)); err != nil {
		t.Fatalf("SetScore() error: %v", err)
	}
	if err := sess.Flush(ctx); err != nil {
		t.Fatalf("Flush() error: %v", err)
	}

	if got := sess.Audit().Status; got != domain.StatusInProgress {
		t.Errorf("status = %s, want IN_PROGRESS", got)
	}
	if len(m.changes) != 1 || m.changes[0].Status != domain.StatusInProgress {
		t.Errorf("header changes = %+v, want a single IN_PROGRESS change", m.changes)
	}
	if stored := m.storedAudit("a1"); stored.Status != domain.StatusInProgress {
		t.Errorf("stored status = %s", stored.Status)
	}
}

func TestSessionLastWriteWins(t *testing.T) {
	m := newMemoryStore()
	seed(m)
	sess := openTestSession(t, m, &recordingNotifier{}, "a2")

	for i := 0; i < 50; i++ {
		if _, err := sess.SetScore(301, intPtr(i%2)); err != nil {
			t.Fatalf("SetScore() error: %v", err)
		}
	}
	if _, err := sess.SetScore(301, intPtr(1)); err != nil {
		t.Fatalf("SetScore() error: %v", err)
	}
	if err := sess.Flush(context.Background()); err != nil {
		t.Fatalf("Flush() error: %v", err)
	}

	row, ok := m.storedScore("a2", 301)
	if !ok || !row.Score.IsOK() {
		t.Errorf("stored row = %+v, want OK", row)
	}
	if sess.Saving(301) {
		t.Error("Saving(301) should be false after flush")
	}
}

func TestSessionFailedSaveKeepsLocalValue(t *testing.T) {
	m := newMemoryStore()
	seed(m)
	notifier := &recordingNotifier{}
	sess := openTestSession(t, m, notifier, "a2")
	ctx := context.Background()

	m.failScores(errors.New("connection reset"))
	if _, err := sess.SetScore(301, intPtr(0)); err != nil {
		t.Fatalf("SetScore() error: %v", err)
	}
	err := sess.Flush(ctx)
	if !errors.Is(err, ErrUnsavedChanges) {
		t.Fatalf("Flush() = %v, want ErrUnsavedChanges", err)
	}
	var unsaved *UnsavedError
	if !errors.As(err, &unsaved) || !reflect.DeepEqual(unsaved.Criteria, []int{301}) {
		t.Errorf("unsaved = %+v", unsaved)
	}
	if notifier.count(NotifyError) != 1 {
		t.Errorf("error notifications = %d, want 1", notifier.count(NotifyError))
	}

	scores := sess.Scores()
	if len(scores) != 1 || !scores[0].Score.IsKO() {
		t.Errorf("local ledger = %+v, want KO retained", scores)
	}
	if _, err := sess.Submit(ctx); !errors.Is(err, ErrUnsavedChanges) {
		t.Errorf("Submit() with unsaved changes = %v", err)
	}

	m.failScores(nil)
	if err := sess.RetryFailed(ctx); err != nil {
		t.Fatalf("RetryFailed() error: %v", err)
	}
	if row, ok := m.storedScore("a2", 301); !ok || !row.Score.IsKO() {
		t.Errorf("stored row after retry = %+v", row)
	}
}

func TestSessionScoreValidation(t *testing.T) {
	m := newMemoryStore()
	seed(m)
	sess := openTestSession(t, m, &recordingNotifier{}, "a1")

	tests := []struct {
		name        string
		criterionID int
		value       *int
		wantErr     error
	}{
		{name: "ok/ko out of range", criterionID: 101, value: intPtr(3), wantErr: ErrInvalidInput},
		{name: "numeric on text criterion", criterionID: 103, value: intPtr(1), wantErr: ErrNotRatingCriterion},
		{name: "unknown criterion scored as OK/KO", criterionID: 999, value: intPtr(0)},
		{name: "clear", criterionID: 101, value: nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			row, err := sess.SetScore(tt.criterionID, tt.value)
			if tt.wantErr != nil {
				if !errors.Is(err, tt.wantErr) {
					t.Fatalf("SetScore() = %v, want %v", err, tt.wantErr)
				}
				return
			}
			if err != nil {
				t.Fatalf("SetScore() error: %v", err)
			}
			if row.EvaluationType != domain.EvaluationOKKO {
				t.Errorf("evaluation type = %s", row.EvaluationType)
			}
		})
	}
}

func TestSessionSubmitRequiresKOPhotos(t *testing.T) {
	m := newMemoryStore()
	seed(m)
	sess := openTestSession(t, m, &recordingNotifier{}, "a1")
	ctx := context.Background()

	if _, err := sess.SetScore(101, intPtr(1)); err != nil {
		t.Fatal(err)
	}
	if _, err := sess.SetScore(102, intPtr(0)); err != nil {
		t.Fatal(err)
	}

	_, err := sess.Submit(ctx)
	var validation *ValidationError
	if !errors.As(err, &validation) {
		t.Fatalf("Submit() = %v, want ValidationError", err)
	}
	if !reflect.DeepEqual(validation.CriterionIDs, []int{102}) {
		t.Errorf("offending criteria = %v, want [102]", validation.CriterionIDs)
	}
	if got := sess.Audit().Status; got != domain.StatusInProgress {
		t.Errorf("status after refused submit = %s", got)
	}

	if _, err := sess.AppendPhoto(102, "https://cdn.example/ko.jpg"); err != nil {
		t.Fatal(err)
	}
	audit, err := sess.Submit(ctx)
	if err != nil {
		t.Fatalf("Submit() error: %v", err)
	}
	if audit.Status != domain.StatusSubmitted || audit.FinalScore == nil || *audit.FinalScore != 50 {
		t.Errorf("submitted audit = %+v", audit)
	}
	if audit.DtEnd == nil {
		t.Error("dtend not stamped")
	}
	stored := m.storedAudit("a1")
	if stored.Status != domain.StatusSubmitted || stored.FinalScore == nil || *stored.FinalScore != 50 {
		t.Errorf("stored audit = %+v", stored)
	}
	if _, err := sess.SetScore(101, intPtr(0)); !errors.Is(err, ErrAuditLocked) {
		t.Errorf("SetScore after submit = %v, want ErrAuditLocked", err)
	}
}

func TestSessionAllOKSubmitsAtHundred(t *testing.T) {
	m := newMemoryStore()
	seed(m)
	sess := openTestSession(t, m, &recordingNotifier{}, "a1")

	for _, id := range []int{101, 102} {
		if _, err := sess.SetScore(id, intPtr(1)); err != nil {
			t.Fatal(err)
		}
	}
	summary := sess.Summary()
	if summary.Sections[0].Percentage != 100 || summary.Sections[0].Rating != 5 {
		t.Errorf("section result = %+v", summary.Sections[0])
	}
	audit, err := sess.Submit(context.Background())
	if err != nil {
		t.Fatalf("Submit() error: %v", err)
	}
	if *audit.FinalScore != 100 {
		t.Errorf("final score = %d, want 100", *audit.FinalScore)
	}
}

func TestSessionSaveSectionEvaluation(t *testing.T) {
	m := newMemoryStore()
	seed(m)
	sess := openTestSession(t, m, &recordingNotifier{}, "a2")
	ctx := context.Background()

	key := domain.Subsection(domain.DefaultFrescosSectionID, "3.1")
	input := domain.ActionPlanInput{ActionPlan: "Rever câmaras"}

	evaluation, err := sess.SaveSectionEvaluation(key, input, "dot-1")
	if err != nil {
		t.Fatalf("SaveSectionEvaluation() error: %v", err)
	}
	if evaluation.Rating != nil {
		t.Errorf("rating = %d, want nil with nothing scored", *evaluation.Rating)
	}
	if evaluation.Responsible != "Ana Aderente" || evaluation.AderenteID != "ad-1" {
		t.Errorf("responsible = %q aderente = %q", evaluation.Responsible, evaluation.AderenteID)
	}

	if _, err := sess.SetScore(301, intPtr(1)); err != nil {
		t.Fatal(err)
	}
	if _, err := sess.SetScore(302, intPtr(0)); err != nil {
		t.Fatal(err)
	}
	input.Responsible = "Chefe de loja"
	evaluation, err = sess.SaveSectionEvaluation(key, input, "tl-1")
	if err != nil {
		t.Fatal(err)
	}
	if evaluation.Rating == nil || *evaluation.Rating != 3 {
		t.Errorf("rating = %v, want 3", evaluation.Rating)
	}
	if evaluation.CreatedBy != "dot-1" {
		t.Errorf("created by = %q, want first author kept", evaluation.CreatedBy)
	}
	if err := sess.Flush(ctx); err != nil {
		t.Fatal(err)
	}
	if got := len(m.evaluations["a2"]); got != 1 {
		t.Errorf("stored evaluations = %d, want 1", got)
	}

	if _, err := sess.SaveSectionEvaluation(domain.WholeSection(3), input, "dot-1"); !errors.Is(err, ErrSectionNotFound) {
		t.Errorf("whole FRESCOS key = %v, want ErrSectionNotFound", err)
	}
}

func TestSessionSubmitRefreshesStaleSectionRatings(t *testing.T) {
	m := newMemoryStore()
	seed(m)
	sess := openTestSession(t, m, &recordingNotifier{}, "a2")
	ctx := context.Background()

	key := domain.Subsection(domain.DefaultFrescosSectionID, "3.2")
	if _, err := sess.SaveSectionEvaluation(key, domain.ActionPlanInput{}, "dot-1"); err != nil {
		t.Fatal(err)
	}
	if _, err := sess.SetScore(311, intPtr(1)); err != nil {
		t.Fatal(err)
	}
	if _, err := sess.Submit(ctx); err != nil {
		t.Fatalf("Submit() error: %v", err)
	}
	stored := m.evaluations["a2"][key.String()]
	if stored.Rating == nil || *stored.Rating != 5 {
		t.Errorf("stored rating = %v, want 5", stored.Rating)
	}
}

func TestOpenSessionUnknownAudit(t *testing.T) {
	m := newMemoryStore()
	seed(m)
	_, err := OpenSession(context.Background(), m.config(nil), "missing", "dot-1")
	if !errors.Is(err, ErrAuditNotFound) {
		t.Errorf("OpenSession() = %v, want ErrAuditNotFound", err)
	}
}
