package domain

import (
	"fmt"
	"strings"
)

type scoreState uint8

const (
	stateUnscored scoreState = iota
	stateOKKO
	stateScale
)

// Score is the value recorded for one criterion: unscored, OK/KO, or a 1..5
// rating. Storage keeps a single nullable integer; use Value and
// ScoreFromStored at that boundary only.
type Score struct {
	state scoreState
	ok    bool
	scale int
}

// Unscored is the zero Score.
func Unscored() Score { return Score{} }

// OK is a passed OK/KO criterion.
func OK() Score { return Score{state: stateOKKO, ok: true} }

// KO is a failed OK/KO criterion.
func KO() Score { return Score{state: stateOKKO, ok: false} }

// Scale builds a 1..5 rating.
func Scale(value int) (Score, error) {
	if value < 1 || value > 5 {
		return Score{}, fmt.Errorf("rating must be between 1 and 5, got %d", value)
	}
	return Score{state: stateScale, scale: value}, nil
}

// NewScore validates a wire value against the criterion's evaluation type.
func NewScore(evalType EvaluationType, value *int) (Score, error) {
	if value == nil {
		return Unscored(), nil
	}
	switch evalType {
	case EvaluationScale:
		return Scale(*value)
	default:
		switch *value {
		case 1:
			return OK(), nil
		case 0:
			return KO(), nil
		}
		return Score{}, fmt.Errorf("OK/KO value must be 0 or 1, got %d", *value)
	}
}

// ScoreFromStored decodes a persisted value leniently. Values that do not fit
// the evaluation type (a 0 on a 1..5 criterion, for instance) read as unscored.
func ScoreFromStored(evalType EvaluationType, value *int) Score {
	score, err := NewScore(evalType, value)
	if err != nil {
		return Unscored()
	}
	return score
}

// IsScored reports whether a value has been recorded.
func (s Score) IsScored() bool { return s.state != stateUnscored }

// IsKO reports a failed OK/KO criterion.
func (s Score) IsKO() bool { return s.state == stateOKKO && !s.ok }

// IsOK reports a passed OK/KO criterion.
func (s Score) IsOK() bool { return s.state == stateOKKO && s.ok }

// Rating returns the 1..5 value of a scale score.
func (s Score) Rating() (int, bool) {
	if s.state != stateScale {
		return 0, false
	}
	return s.scale, true
}

// Value converts to the shared numeric representation: 1=OK, 0=KO, 1..5 for
// scale ratings, nil when unscored.
func (s Score) Value() *int {
	var v int
	switch s.state {
	case stateOKKO:
		if s.ok {
			v = 1
		}
	case stateScale:
		v = s.scale
	default:
		return nil
	}
	return &v
}

func (s Score) String() string {
	switch s.state {
	case stateOKKO:
		if s.ok {
			return "OK"
		}
		return "KO"
	case stateScale:
		return fmt.Sprintf("%d/5", s.scale)
	}
	return "-"
}

// AuditScore is the ledger row for one (audit, criterion) pair.
type AuditScore struct {
	AuditID        string
	CriterionID    int
	Score          Score
	Comment        string
	Photos         PhotoList
	EvaluationType EvaluationType
	RequiresPhoto  bool
}

// NewAuditScore seeds an empty row.
func NewAuditScore(auditID string, criterionID int, evalType EvaluationType) AuditScore {
	return AuditScore{
		AuditID:        auditID,
		CriterionID:    criterionID,
		EvaluationType: evalType,
	}
}

// WithScore records a value, refreshing the evaluation type and the
// requires-photo flag.
func (s AuditScore) WithScore(evalType EvaluationType, score Score) AuditScore {
	s.Score = score
	s.EvaluationType = evalType
	v := score.Value()
	s.RequiresPhoto = v != nil && *v == 0
	return s
}

// MissingKOPhoto reports a KO that still has no supporting photo.
func (s AuditScore) MissingKOPhoto() bool {
	return s.EvaluationType == EvaluationOKKO && s.Score.IsKO() && len(s.Photos) == 0
}

// PhotoList holds photo references (URLs or storage paths) attached to a score.
type PhotoList []string

// NewPhoto trims and validates a single photo reference.
func NewPhoto(value string) (string, error) {
	trimmed := strings.TrimSpace(value)
	if trimmed == "" {
		return "", fmt.Errorf("photo reference is required")
	}
	return trimmed, nil
}

// Append adds a reference unless it is already present.
func (l PhotoList) Append(photo string) PhotoList {
	for _, existing := range l {
		if existing == photo {
			return l
		}
	}
	out := make(PhotoList, 0, len(l)+1)
	out = append(out, l...)
	return append(out, photo)
}

// Remove drops every occurrence of the reference.
func (l PhotoList) Remove(photo string) PhotoList {
	out := make(PhotoList, 0, len(l))
	for _, existing := range l {
		if existing != photo {
			out = append(out, existing)
		}
	}
	return out
}

func (l PhotoList) Strings() []string {
	return append([]string{}, l...)
}
