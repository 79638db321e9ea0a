package application

import (
	"context"
	"sync"
	"time"

	"github.com/sngm3741/store-audit-services/api/internal/audit/domain"
)

type memoryStore struct {
	mu          sync.Mutex
	audits      map[string]domain.Audit
	changes     []domain.AuditChange
	scores      map[string]map[int]domain.AuditScore
	scoreSaves  int
	scoreErr    error
	evaluations map[string]map[string]domain.SectionEvaluation
	checklists  map[int]domain.Checklist
	stores      map[string]domain.Store
	users       map[string]domain.User
}

func newMemoryStore() *memoryStore {
	return &memoryStore{
		audits:      make(map[string]domain.Audit),
		scores:      make(map[string]map[int]domain.AuditScore),
		evaluations: make(map[string]map[string]domain.SectionEvaluation),
		checklists:  make(map[int]domain.Checklist),
		stores:      make(map[string]domain.Store),
		users:       make(map[string]domain.User),
	}
}

func (m *memoryStore) failScores(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.scoreErr = err
}

func (m *memoryStore) storedScore(auditID string, criterionID int) (domain.AuditScore, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	row, ok := m.scores[auditID][criterionID]
	return row, ok
}

func (m *memoryStore) storedAudit(id string) domain.Audit {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.audits[id]
}

func (m *memoryStore) config(notifier Notifier) SessionConfig {
	return SessionConfig{
		Audits:      fakeAudits{m},
		Scores:      fakeScores{m},
		Evaluations: fakeEvaluations{m},
		Checklists:  fakeChecklists{m},
		Directory:   fakeDirectory{m},
		Notifier:    notifier,
		Policy:      domain.DefaultPolicy(),
		Now: func() time.Time {
			return time.Date(2026, 5, 4, 9, 30, 0, 0, time.UTC)
		},
	}
}

type fakeAudits struct{ *memoryStore }

func (f fakeAudits) FindByID(_ context.Context, id string) (*domain.Audit, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	audit, ok := f.audits[id]
	if !ok {
		return nil, ErrAuditNotFound
	}
	return &audit, nil
}

func (f fakeAudits) ApplyChange(_ context.Context, id string, change domain.AuditChange) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	audit, ok := f.audits[id]
	if !ok {
		return ErrAuditNotFound
	}
	audit.Apply(change, time.Now())
	f.audits[id] = audit
	f.changes = append(f.changes, change)
	return nil
}

func (f fakeAudits) Delete(_ context.Context, id string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.audits, id)
	return nil
}

type fakeScores struct{ *memoryStore }

func (f fakeScores) FindByAudit(_ context.Context, auditID string) ([]domain.AuditScore, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []domain.AuditScore
	for _, row := range f.scores[auditID] {
		out = append(out, row)
	}
	return out, nil
}

func (f fakeScores) Save(_ context.Context, score domain.AuditScore) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.scoreErr != nil {
		return f.scoreErr
	}
	if f.scores[score.AuditID] == nil {
		f.scores[score.AuditID] = make(map[int]domain.AuditScore)
	}
	f.scores[score.AuditID][score.CriterionID] = score
	f.scoreSaves++
	return nil
}

func (f fakeScores) DeleteByAudit(_ context.Context, auditID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.scores, auditID)
	return nil
}

type fakeEvaluations struct{ *memoryStore }

func (f fakeEvaluations) FindByAudit(_ context.Context, auditID string) ([]domain.SectionEvaluation, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []domain.SectionEvaluation
	for _, evaluation := range f.evaluations[auditID] {
		out = append(out, evaluation)
	}
	return out, nil
}

func (f fakeEvaluations) Save(_ context.Context, evaluation domain.SectionEvaluation) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.evaluations[evaluation.AuditID] == nil {
		f.evaluations[evaluation.AuditID] = make(map[string]domain.SectionEvaluation)
	}
	f.evaluations[evaluation.AuditID][evaluation.Key.String()] = evaluation
	return nil
}

func (f fakeEvaluations) DeleteByAudit(_ context.Context, auditID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.evaluations, auditID)
	return nil
}

type fakeChecklists struct{ *memoryStore }

func (f fakeChecklists) Checklist(_ context.Context, id int) (*domain.Checklist, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	checklist, ok := f.checklists[id]
	if !ok {
		return nil, ErrChecklistNotFound
	}
	return &checklist, nil
}

type fakeDirectory struct{ *memoryStore }

func (f fakeDirectory) StoreByID(_ context.Context, id string) (*domain.Store, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	store, ok := f.stores[id]
	if !ok {
		return nil, ErrStoreNotFound
	}
	return &store, nil
}

func (f fakeDirectory) UserByID(_ context.Context, id string) (*domain.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	user, ok := f.users[id]
	if !ok {
		return nil, ErrUserNotFound
	}
	return &user, nil
}

type recordingNotifier struct {
	mu    sync.Mutex
	notes []Notification
}

func (r *recordingNotifier) Notify(_ context.Context, n Notification) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.notes = append(r.notes, n)
}

func (r *recordingNotifier) count(kind NotificationKind) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	n := 0
	for _, note := range r.notes {
		if note.Kind == kind {
			n++
		}
	}
	return n
}

func intPtr(v int) *int { return &v }

// seed registers a two-criterion checklist, a FRESCOS checklist and one NEW
// audit on each.
func seed(m *memoryStore) {
	m.checklists[1] = domain.Checklist{
		ID:   1,
		Name: "Loja",
		Sections: []domain.Section{{
			ID:   1,
			Name: "Higiene",
			Items: []domain.Item{{ID: 10, Name: "Chão", Criteria: []domain.Criterion{
				{ID: 101, Name: "Limpo", Kind: domain.KindRating, EvaluationType: domain.EvaluationOKKO},
				{ID: 102, Name: "Seco", Kind: domain.KindRating, EvaluationType: domain.EvaluationOKKO},
				{ID: 103, Name: "Notas", Kind: domain.KindText},
			}}},
		}},
	}
	m.checklists[2] = domain.Checklist{
		ID:   2,
		Name: "Frescos",
		Sections: []domain.Section{{
			ID:   domain.DefaultFrescosSectionID,
			Name: "Frescos",
			Items: []domain.Item{
				{ID: 30, Name: "3.1 Talho", Criteria: []domain.Criterion{
					{ID: 301, Kind: domain.KindRating, EvaluationType: domain.EvaluationOKKO},
					{ID: 302, Kind: domain.KindRating, EvaluationType: domain.EvaluationOKKO},
				}},
				{ID: 31, Name: "3.2 Peixaria", Criteria: []domain.Criterion{
					{ID: 311, Kind: domain.KindRating, EvaluationType: domain.EvaluationOKKO},
				}},
			},
		}},
	}
	m.stores["s1"] = domain.Store{ID: "s1", Name: "Loja 1", AderenteID: "ad-1"}
	m.users["ad-1"] = domain.User{ID: "ad-1", Name: "Ana Aderente", Role: domain.RoleAderente}

	m.audits["a1"] = domain.Audit{ID: "a1", StoreID: "s1", ChecklistID: 1, DotUserID: "dot-1", CreatedBy: "tl-1", Status: domain.StatusNew, VisitSource: domain.VisitDOT}
	m.audits["a2"] = domain.Audit{ID: "a2", StoreID: "s1", ChecklistID: 2, DotUserID: "dot-1", CreatedBy: "tl-1", Status: domain.StatusInProgress, VisitSource: domain.VisitDOT}
}
