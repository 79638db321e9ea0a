package domain

import (
	"fmt"
	"strings"
	"time"
)

// VisitSource tells which scoring formula applies to an audit.
type VisitSource string

const (
	VisitDOT      VisitSource = "DOT_AUDIT"
	VisitAderente VisitSource = "ADERENTE_VISIT"
)

// NewVisitSource normalises a stored source. Empty means a DOT audit.
func NewVisitSource(value string) (VisitSource, error) {
	switch strings.ToUpper(strings.TrimSpace(value)) {
	case "", string(VisitDOT):
		return VisitDOT, nil
	case string(VisitAderente):
		return VisitAderente, nil
	}
	return "", fmt.Errorf("invalid visit source: %s", value)
}

// Audit is the aggregate root owning its scores and section evaluations.
type Audit struct {
	ID              string
	StoreID         string
	ChecklistID     int
	DotUserID       string
	CreatedBy       string
	Status          Status
	DtStart         time.Time
	DtEnd           *time.Time
	AuditorComments string
	FinalScore      *int
	VisitSource     VisitSource
	ReplacedBy      string
	UpdatedAt       time.Time
}

// OwnerID is the designated executor: the DOT user, else the creator.
func (a Audit) OwnerID() string {
	if id := strings.TrimSpace(a.DotUserID); id != "" {
		return id
	}
	return strings.TrimSpace(a.CreatedBy)
}

// AuditChange is written as one unit so that status and final score never
// diverge.
type AuditChange struct {
	Status          Status
	FinalScore      int
	DtEnd           *time.Time
	AuditorComments *string
	ReplacedBy      string
}

// Transition computes the change moving the audit to next with the freshly
// computed total. Submission stamps dtend.
func (a Audit) Transition(next Status, total float64, now time.Time) (AuditChange, error) {
	if !a.Status.CanTransitionTo(next) {
		return AuditChange{}, &TransitionError{From: a.Status, To: next}
	}
	change := AuditChange{
		Status:     next,
		FinalScore: RoundScore(total),
		DtEnd:      a.DtEnd,
		ReplacedBy: a.ReplacedBy,
	}
	if next == StatusSubmitted {
		end := now
		change.DtEnd = &end
	}
	return change, nil
}

// Apply mutates the in-memory audit with a persisted change.
func (a *Audit) Apply(change AuditChange, now time.Time) {
	a.Status = change.Status
	score := change.FinalScore
	a.FinalScore = &score
	a.DtEnd = change.DtEnd
	if change.AuditorComments != nil {
		a.AuditorComments = *change.AuditorComments
	}
	if change.ReplacedBy != "" {
		a.ReplacedBy = change.ReplacedBy
	}
	a.UpdatedAt = now
}

// Refresh recomputes the final score of an editable audit without moving it.
func (a Audit) Refresh(total float64) (AuditChange, error) {
	if !a.Status.IsEditable() {
		return AuditChange{}, &TransitionError{From: a.Status, To: a.Status}
	}
	return AuditChange{
		Status:     a.Status,
		FinalScore: RoundScore(total),
		DtEnd:      a.DtEnd,
		ReplacedBy: a.ReplacedBy,
	}, nil
}
