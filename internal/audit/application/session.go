package application

import (
	"context"
	"errors"
	"fmt"
	"log"
	"sort"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/sngm3741/store-audit-services/api/internal/audit/domain"
)

const defaultWriteTimeout = 5 * time.Second

// SessionConfig wires a Session to its collaborators.
type SessionConfig struct {
	Audits       AuditRepository
	Scores       ScoreRepository
	Evaluations  SectionEvaluationRepository
	Checklists   ChecklistProvider
	Directory    Directory
	Notifier     Notifier
	Logger       *log.Logger
	Policy       domain.Policy
	WriteTimeout time.Duration
	Now          func() time.Time
}

type writeKind int

const (
	writeScore writeKind = iota
	writeSection
	writeAudit
)

type writeKey struct {
	kind      writeKind
	criterion int
	section   string
}

type writeOp struct {
	key writeKey
	run func(ctx context.Context) error
}

// Session is the in-memory working copy of one audit. Edits apply locally at
// once and are persisted in submission order by a single background writer,
// so the last write for a row always wins. A failed write keeps the local
// value and is reported through the Notifier.
type Session struct {
	cfg     SessionConfig
	actorID string

	// sendMu orders enqueues and keeps flushes from racing new writes.
	sendMu sync.Mutex

	mu           sync.Mutex
	audit        domain.Audit
	checklist    domain.Checklist
	groups       domain.GroupIndex
	store        *domain.Store
	aderenteName string
	scores       domain.ScoreIndex
	evaluations  map[string]domain.SectionEvaluation
	pending      map[writeKey]int
	failed       map[writeKey]error
	closed       bool

	queue    chan writeOp
	inflight sync.WaitGroup
	done     chan struct{}
	writeCtx context.Context
}

// OpenSession loads an audit with its checklist, ledger, section evaluations
// and store, then starts the background writer. Callers must Close it.
func OpenSession(ctx context.Context, cfg SessionConfig, auditID, actorID string) (*Session, error) {
	if cfg.Now == nil {
		cfg.Now = time.Now
	}
	if cfg.WriteTimeout <= 0 {
		cfg.WriteTimeout = defaultWriteTimeout
	}
	if cfg.Notifier == nil {
		cfg.Notifier = LogNotifier{Logger: cfg.Logger}
	}

	audit, err := cfg.Audits.FindByID(ctx, auditID)
	if err != nil {
		return nil, err
	}

	var (
		checklist    *domain.Checklist
		rows         []domain.AuditScore
		evaluations  []domain.SectionEvaluation
		store        *domain.Store
		aderenteName string
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		checklist, err = cfg.Checklists.Checklist(gctx, audit.ChecklistID)
		return err
	})
	g.Go(func() error {
		var err error
		rows, err = cfg.Scores.FindByAudit(gctx, audit.ID)
		return err
	})
	g.Go(func() error {
		var err error
		evaluations, err = cfg.Evaluations.FindByAudit(gctx, audit.ID)
		return err
	})
	g.Go(func() error {
		if cfg.Directory == nil || audit.StoreID == "" {
			return nil
		}
		found, err := cfg.Directory.StoreByID(gctx, audit.StoreID)
		if errors.Is(err, ErrStoreNotFound) {
			logf(cfg.Logger, "audit %s: store %s not found in directory", audit.ID, audit.StoreID)
			return nil
		}
		if err != nil {
			return err
		}
		store = found
		aderenteName = found.AderenteName
		if aderenteName == "" && found.AderenteID != "" {
			user, err := cfg.Directory.UserByID(gctx, found.AderenteID)
			switch {
			case errors.Is(err, ErrUserNotFound):
			case err != nil:
				return err
			default:
				aderenteName = user.Name
			}
		}
		return nil
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	s := &Session{
		cfg:          cfg,
		actorID:      actorID,
		audit:        *audit,
		checklist:    *checklist,
		groups:       domain.GroupChecklist(*checklist, cfg.Policy),
		store:        store,
		aderenteName: aderenteName,
		scores:       domain.IndexScores(rows),
		evaluations:  make(map[string]domain.SectionEvaluation, len(evaluations)),
		pending:      make(map[writeKey]int),
		failed:       make(map[writeKey]error),
		queue:        make(chan writeOp, 64),
		done:         make(chan struct{}),
		writeCtx:     context.WithoutCancel(ctx),
	}
	for _, evaluation := range evaluations {
		s.evaluations[evaluation.Key.String()] = evaluation
	}
	go s.run()
	return s, nil
}

func (s *Session) run() {
	defer close(s.done)
	for op := range s.queue {
		ctx, cancel := context.WithTimeout(s.writeCtx, s.cfg.WriteTimeout)
		err := op.run(ctx)
		cancel()
		s.finish(op.key, err)
		s.inflight.Done()
	}
}

func (s *Session) finish(key writeKey, err error) {
	s.mu.Lock()
	if s.pending[key]--; s.pending[key] <= 0 {
		delete(s.pending, key)
	}
	if err != nil {
		s.failed[key] = err
	} else {
		delete(s.failed, key)
	}
	auditID := s.audit.ID
	s.mu.Unlock()

	if err == nil {
		return
	}
	logf(s.cfg.Logger, "audit %s: save failed (%s): %v", auditID, key, err)
	s.notify(NotifyError, failureMessage(key))
}

func (k writeKey) String() string {
	switch k.kind {
	case writeScore:
		return fmt.Sprintf("criterion %d", k.criterion)
	case writeSection:
		return "section " + k.section
	default:
		return "audit header"
	}
}

func failureMessage(key writeKey) string {
	switch key.kind {
	case writeScore:
		return fmt.Sprintf("Erro ao guardar a pontuação do critério %d. A alteração foi mantida localmente.", key.criterion)
	case writeSection:
		return fmt.Sprintf("Erro ao guardar a avaliação da secção %s.", key.section)
	default:
		return "Erro ao guardar a auditoria."
	}
}

func (s *Session) notify(kind NotificationKind, message string) {
	s.cfg.Notifier.Notify(s.writeCtx, Notification{
		AuditID: s.audit.ID,
		UserID:  s.actorID,
		Message: message,
		Kind:    kind,
	})
}

// track registers a pending write. Caller holds mu.
func (s *Session) track(key writeKey, run func(ctx context.Context) error) writeOp {
	s.pending[key]++
	s.inflight.Add(1)
	return writeOp{key: key, run: run}
}

// send hands ops to the writer. Caller holds sendMu but not mu.
func (s *Session) send(ops []writeOp) {
	for _, op := range ops {
		s.queue <- op
	}
}

func (s *Session) scoreOp(criterionID int) writeOp {
	row := s.scores[criterionID]
	return s.track(writeKey{kind: writeScore, criterion: criterionID}, func(ctx context.Context) error {
		return s.cfg.Scores.Save(ctx, row)
	})
}

func (s *Session) sectionOp(key string) writeOp {
	evaluation := s.evaluations[key]
	return s.track(writeKey{kind: writeSection, section: key}, func(ctx context.Context) error {
		return s.cfg.Evaluations.Save(ctx, evaluation)
	})
}

func (s *Session) auditOp() writeOp {
	change := headerOf(s.audit)
	id := s.audit.ID
	return s.track(writeKey{kind: writeAudit}, func(ctx context.Context) error {
		return s.cfg.Audits.ApplyChange(ctx, id, change)
	})
}

func headerOf(a domain.Audit) domain.AuditChange {
	comments := a.AuditorComments
	change := domain.AuditChange{
		Status:          a.Status,
		DtEnd:           a.DtEnd,
		AuditorComments: &comments,
		ReplacedBy:      a.ReplacedBy,
	}
	if a.FinalScore != nil {
		change.FinalScore = *a.FinalScore
	}
	return change
}

func (s *Session) total() float64 {
	return domain.TotalScore(s.checklist, s.scores, s.audit.VisitSource, s.cfg.Policy)
}

// edit runs mutate under mu against an editable audit and sends the writes it
// returns.
func (s *Session) edit(mutate func() ([]writeOp, error)) error {
	s.sendMu.Lock()
	defer s.sendMu.Unlock()

	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return ErrSessionClosed
	}
	if !s.audit.Status.IsEditable() {
		s.mu.Unlock()
		return ErrAuditLocked
	}
	ops, err := mutate()
	s.mu.Unlock()
	if err != nil {
		return err
	}
	s.send(ops)
	return nil
}

func (s *Session) resolve(criterionID int) domain.Resolution {
	res := domain.ResolveEvaluationType(s.checklist, criterionID)
	if !res.Found {
		logf(s.cfg.Logger, "audit %s: criterion %d not in checklist %d, scoring as %s",
			s.audit.ID, criterionID, s.checklist.ID, res.Type)
	}
	return res
}

func (s *Session) row(criterionID int, evalType domain.EvaluationType) domain.AuditScore {
	row, ok := s.scores[criterionID]
	if !ok {
		row = domain.NewAuditScore(s.audit.ID, criterionID, evalType)
	}
	row.EvaluationType = evalType
	return row
}

// SetScore records a value for a criterion. The first score written on a NEW
// audit moves it to IN_PROGRESS.
func (s *Session) SetScore(criterionID int, value *int) (domain.AuditScore, error) {
	var saved domain.AuditScore
	err := s.edit(func() ([]writeOp, error) {
		res := s.resolve(criterionID)
		if res.Kind != domain.KindRating && value != nil {
			return nil, fmt.Errorf("%w: %d", ErrNotRatingCriterion, criterionID)
		}
		score, err := domain.NewScore(res.Type, value)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrInvalidInput, err)
		}
		previous, had := s.scores[criterionID]
		saved = s.row(criterionID, res.Type).WithScore(res.Type, score)
		s.scores[criterionID] = saved

		started := s.audit.Status == domain.StatusNew
		if started {
			now := s.cfg.Now()
			change, err := s.audit.Transition(domain.StatusInProgress, s.total(), now)
			if err != nil {
				if had {
					s.scores[criterionID] = previous
				} else {
					delete(s.scores, criterionID)
				}
				return nil, err
			}
			s.audit.Apply(change, now)
		}
		ops := []writeOp{s.scoreOp(criterionID)}
		if started {
			ops = append(ops, s.auditOp())
		}
		return ops, nil
	})
	return saved, err
}

// SetComment records the free-text comment of a criterion.
func (s *Session) SetComment(criterionID int, comment string) (domain.AuditScore, error) {
	return s.updateRow(criterionID, func(row *domain.AuditScore) {
		row.Comment = comment
	})
}

// AppendPhoto attaches a photo reference to a criterion.
func (s *Session) AppendPhoto(criterionID int, photo string) (domain.AuditScore, error) {
	return s.updateRow(criterionID, func(row *domain.AuditScore) {
		row.Photos = row.Photos.Append(photo)
	})
}

// RemovePhoto detaches a photo reference from a criterion.
func (s *Session) RemovePhoto(criterionID int, photo string) (domain.AuditScore, error) {
	return s.updateRow(criterionID, func(row *domain.AuditScore) {
		row.Photos = row.Photos.Remove(photo)
	})
}

func (s *Session) updateRow(criterionID int, apply func(*domain.AuditScore)) (domain.AuditScore, error) {
	var saved domain.AuditScore
	err := s.edit(func() ([]writeOp, error) {
		res := s.resolve(criterionID)
		row := s.row(criterionID, res.Type)
		apply(&row)
		s.scores[criterionID] = row
		saved = row
		return []writeOp{s.scoreOp(criterionID)}, nil
	})
	return saved, err
}

// SaveSectionEvaluation upserts the action plan of one group, recomputing its
// rating from the current ledger. An empty responsible defaults to the
// store's Aderente.
func (s *Session) SaveSectionEvaluation(key domain.SectionKey, input domain.ActionPlanInput, createdBy string) (domain.SectionEvaluation, error) {
	var saved domain.SectionEvaluation
	err := s.edit(func() ([]writeOp, error) {
		group, ok := s.groups.Find(key)
		if !ok {
			return nil, fmt.Errorf("%w: %s", ErrSectionNotFound, key)
		}
		responsible := input.Responsible
		if responsible == "" {
			responsible = s.aderenteName
		}
		existing, had := s.evaluations[key.String()]
		if had && existing.CreatedBy != "" {
			createdBy = existing.CreatedBy
		}
		saved = domain.SectionEvaluation{
			AuditID:     s.audit.ID,
			Key:         group.Key,
			Rating:      domain.GroupRating(group.Items, s.scores),
			ActionPlan:  input.ActionPlan,
			Responsible: responsible,
			DueDate:     input.DueDate,
			StoreID:     s.audit.StoreID,
			CreatedBy:   createdBy,
			UpdatedAt:   s.cfg.Now(),
		}
		if s.store != nil {
			saved.AderenteID = s.store.AderenteID
		}
		s.evaluations[key.String()] = saved
		return []writeOp{s.sectionOp(key.String())}, nil
	})
	return saved, err
}

// staleSectionOps re-saves evaluations whose stored rating no longer matches
// the ledger. Caller holds mu.
func (s *Session) staleSectionOps() []writeOp {
	var ops []writeOp
	for _, group := range s.groups.Ordered {
		key := group.Key.String()
		evaluation, ok := s.evaluations[key]
		if !ok {
			continue
		}
		rating := domain.GroupRating(group.Items, s.scores)
		if sameRating(rating, evaluation.Rating) {
			continue
		}
		evaluation.Rating = rating
		evaluation.UpdatedAt = s.cfg.Now()
		s.evaluations[key] = evaluation
		ops = append(ops, s.sectionOp(key))
	}
	return ops
}

func sameRating(a, b *int) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	return *a == *b
}

// Flush waits for every queued write and reports rows whose last save failed.
func (s *Session) Flush(ctx context.Context) error {
	s.sendMu.Lock()
	defer s.sendMu.Unlock()
	return s.flush(ctx)
}

// flush requires sendMu.
func (s *Session) flush(ctx context.Context) error {
	drained := make(chan struct{})
	go func() {
		s.inflight.Wait()
		close(drained)
	}()
	select {
	case <-drained:
	case <-ctx.Done():
		return &UnsavedError{Cause: ctx.Err()}
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.failed) == 0 {
		return nil
	}
	unsaved := &UnsavedError{}
	for key, err := range s.failed {
		switch key.kind {
		case writeScore:
			unsaved.Criteria = append(unsaved.Criteria, key.criterion)
		case writeSection:
			unsaved.Sections = append(unsaved.Sections, key.section)
		default:
			unsaved.Audit = true
		}
		unsaved.Cause = err
	}
	sort.Ints(unsaved.Criteria)
	sort.Strings(unsaved.Sections)
	return unsaved
}

// RetryFailed re-queues the current local value of every failed row and
// waits for the outcome.
func (s *Session) RetryFailed(ctx context.Context) error {
	s.sendMu.Lock()
	defer s.sendMu.Unlock()

	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return ErrSessionClosed
	}
	var ops []writeOp
	for key := range s.failed {
		switch key.kind {
		case writeScore:
			ops = append(ops, s.scoreOp(key.criterion))
		case writeSection:
			ops = append(ops, s.sectionOp(key.section))
		default:
			ops = append(ops, s.auditOp())
		}
	}
	s.mu.Unlock()

	s.send(ops)
	return s.flush(ctx)
}

// Saving reports whether a write for the criterion is still in flight.
func (s *Session) Saving(criterionID int) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.pending[writeKey{kind: writeScore, criterion: criterionID}] > 0
}

// SaveProgress flushes pending writes and persists the recomputed final score
// and, when given, the auditor's comments. The status does not move.
func (s *Session) SaveProgress(ctx context.Context, comments *string) (domain.Audit, error) {
	s.sendMu.Lock()
	defer s.sendMu.Unlock()

	if err := s.flush(ctx); err != nil {
		return domain.Audit{}, err
	}
	s.mu.Lock()
	change, err := s.audit.Refresh(s.total())
	s.mu.Unlock()
	if err != nil {
		return domain.Audit{}, err
	}
	change.AuditorComments = comments
	return s.commit(ctx, change)
}

// Submit flushes pending writes, refuses KO criteria without photos, brings
// section ratings up to date and moves the audit to SUBMITTED.
func (s *Session) Submit(ctx context.Context) (domain.Audit, error) {
	s.sendMu.Lock()
	defer s.sendMu.Unlock()

	s.mu.Lock()
	status := s.audit.Status
	s.mu.Unlock()
	if !status.CanTransitionTo(domain.StatusSubmitted) {
		return domain.Audit{}, &domain.TransitionError{From: status, To: domain.StatusSubmitted}
	}

	if err := s.flush(ctx); err != nil {
		return domain.Audit{}, err
	}

	s.mu.Lock()
	rows := make([]domain.AuditScore, 0, len(s.scores))
	for _, row := range s.scores {
		rows = append(rows, row)
	}
	missing := domain.MissingKOPhotos(rows)
	var ops []writeOp
	if len(missing) == 0 {
		ops = s.staleSectionOps()
	}
	s.mu.Unlock()

	if len(missing) > 0 {
		s.notify(NotifyWarning, fmt.Sprintf("Existem %d critérios KO sem fotografia.", len(missing)))
		return domain.Audit{}, &ValidationError{CriterionIDs: missing}
	}
	if len(ops) > 0 {
		s.send(ops)
		if err := s.flush(ctx); err != nil {
			return domain.Audit{}, err
		}
	}
	return s.transition(ctx, domain.StatusSubmitted, nil)
}

// Transition moves the audit along the lifecycle with a fresh final score.
// amend may adjust the change before it is persisted.
func (s *Session) Transition(ctx context.Context, next domain.Status, amend func(*domain.AuditChange)) (domain.Audit, error) {
	s.sendMu.Lock()
	defer s.sendMu.Unlock()

	if err := s.flush(ctx); err != nil {
		return domain.Audit{}, err
	}
	return s.transition(ctx, next, amend)
}

// transition requires sendMu and an empty queue.
func (s *Session) transition(ctx context.Context, next domain.Status, amend func(*domain.AuditChange)) (domain.Audit, error) {
	s.mu.Lock()
	change, err := s.audit.Transition(next, s.total(), s.cfg.Now())
	s.mu.Unlock()
	if err != nil {
		return domain.Audit{}, err
	}
	if amend != nil {
		amend(&change)
	}
	return s.commit(ctx, change)
}

// commit persists a header change synchronously and applies it locally only
// once the store accepted it.
func (s *Session) commit(ctx context.Context, change domain.AuditChange) (domain.Audit, error) {
	s.mu.Lock()
	id := s.audit.ID
	s.mu.Unlock()

	if err := s.cfg.Audits.ApplyChange(ctx, id, change); err != nil {
		logf(s.cfg.Logger, "audit %s: persist %s failed: %v", id, change.Status, err)
		s.notify(NotifyError, "Erro ao guardar a auditoria.")
		return domain.Audit{}, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.audit.Apply(change, s.cfg.Now())
	return s.audit, nil
}

// Close stops the writer after draining the queue. It is safe to call twice.
func (s *Session) Close() {
	s.sendMu.Lock()
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		s.sendMu.Unlock()
		return
	}
	s.closed = true
	s.mu.Unlock()
	close(s.queue)
	s.sendMu.Unlock()
	<-s.done
}

func (s *Session) Audit() domain.Audit {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.audit
}

func (s *Session) Checklist() domain.Checklist {
	return s.checklist
}

func (s *Session) Store() *domain.Store {
	return s.store
}

// StoreAderenteID is empty when the store is unknown to the directory.
func (s *Session) StoreAderenteID() string {
	if s.store == nil {
		return ""
	}
	return s.store.AderenteID
}

// Scores lists ledger rows in checklist order; rows for criteria no longer in
// the checklist follow in ascending id order.
func (s *Session) Scores() []domain.AuditScore {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]domain.AuditScore, 0, len(s.scores))
	seen := make(map[int]bool, len(s.scores))
	for _, id := range s.checklist.CriterionIDs() {
		if row, ok := s.scores[id]; ok {
			out = append(out, row)
			seen[id] = true
		}
	}
	var orphans []int
	for id := range s.scores {
		if !seen[id] {
			orphans = append(orphans, id)
		}
	}
	sort.Ints(orphans)
	for _, id := range orphans {
		out = append(out, s.scores[id])
	}
	return out
}

// Evaluations lists section evaluations in checklist group order.
func (s *Session) Evaluations() []domain.SectionEvaluation {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]domain.SectionEvaluation, 0, len(s.evaluations))
	seen := make(map[string]bool, len(s.evaluations))
	for _, group := range s.groups.Ordered {
		key := group.Key.String()
		if evaluation, ok := s.evaluations[key]; ok {
			out = append(out, evaluation)
			seen[key] = true
		}
	}
	var orphans []string
	for key := range s.evaluations {
		if !seen[key] {
			orphans = append(orphans, key)
		}
	}
	sort.Strings(orphans)
	for _, key := range orphans {
		out = append(out, s.evaluations[key])
	}
	return out
}

// Summary aggregates the current ledger.
func (s *Session) Summary() domain.Summary {
	rows := s.Scores()
	s.mu.Lock()
	source := s.audit.VisitSource
	s.mu.Unlock()
	return domain.Summarize(s.checklist, rows, source, s.cfg.Policy)
}

func logf(logger *log.Logger, format string, args ...any) {
	if logger != nil {
		logger.Printf(format, args...)
	}
}
