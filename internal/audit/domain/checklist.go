package domain

import (
	"fmt"
	"strings"
)

// CriterionKind tells how a criterion is answered.
type CriterionKind string

const (
	KindRating   CriterionKind = "rating"
	KindText     CriterionKind = "text"
	KindDropdown CriterionKind = "dropdown"
)

// NewCriterionKind normalises a kind read from storage or YAML. Empty means rating.
func NewCriterionKind(value string) (CriterionKind, error) {
	switch strings.ToLower(strings.TrimSpace(value)) {
	case "", "rating":
		return KindRating, nil
	case "text":
		return KindText, nil
	case "dropdown":
		return KindDropdown, nil
	}
	return "", fmt.Errorf("invalid criterion kind: %s", value)
}

// EvaluationType is the scoring semantics of a rating criterion.
type EvaluationType string

const (
	EvaluationOKKO  EvaluationType = "OK_KO"
	EvaluationScale EvaluationType = "SCALE_1_5"
)

// NewEvaluationType normalises an evaluation type. Empty means OK_KO.
func NewEvaluationType(value string) (EvaluationType, error) {
	switch strings.ToUpper(strings.TrimSpace(value)) {
	case "", "OK_KO":
		return EvaluationOKKO, nil
	case "SCALE_1_5":
		return EvaluationScale, nil
	}
	return "", fmt.Errorf("invalid evaluation type: %s", value)
}

func (t EvaluationType) String() string {
	return string(t)
}

// Checklist is the read-only definition an audit is executed against.
type Checklist struct {
	ID         int
	Name       string
	TargetRole Role
	Sections   []Section
}

// Section groups items of one audit domain (hygiene, safety, promo...).
type Section struct {
	ID          int
	Name        string
	OrderIndex  int
	IsMandatory bool
	Items       []Item
}

// Item is a question group inside a section. Inside the FRESCOS section the
// name may start with a "N.M " subsection prefix.
type Item struct {
	ID       int
	Name     string
	Criteria []Criterion
}

// Criterion is the unit that receives a score. IDs are unique across checklists.
type Criterion struct {
	ID                int
	Name              string
	Weight            float64
	Kind              CriterionKind
	EvaluationType    EvaluationType
	RequiresPhotoOnKO bool
}

// IsRating reports whether the criterion takes part in score aggregation.
func (c Criterion) IsRating() bool {
	return c.Kind == KindRating || c.Kind == ""
}

// FindCriterion walks sections, items and criteria depth-first.
func (c Checklist) FindCriterion(criterionID int) (Criterion, bool) {
	for _, section := range c.Sections {
		for _, item := range section.Items {
			for _, criterion := range item.Criteria {
				if criterion.ID == criterionID {
					return criterion, true
				}
			}
		}
	}
	return Criterion{}, false
}

// FindSection returns the section with the given id.
func (c Checklist) FindSection(sectionID int) (Section, bool) {
	for _, section := range c.Sections {
		if section.ID == sectionID {
			return section, true
		}
	}
	return Section{}, false
}

// CriterionIDs lists every criterion id in checklist order.
func (c Checklist) CriterionIDs() []int {
	ids := make([]int, 0)
	for _, section := range c.Sections {
		for _, item := range section.Items {
			for _, criterion := range item.Criteria {
				ids = append(ids, criterion.ID)
			}
		}
	}
	return ids
}

// Validate checks structural invariants of a checklist definition.
func (c Checklist) Validate() error {
	if c.ID <= 0 {
		return fmt.Errorf("checklist id must be positive")
	}
	if strings.TrimSpace(c.Name) == "" {
		return fmt.Errorf("checklist %d: name is required", c.ID)
	}
	sections := make(map[int]struct{})
	criteria := make(map[int]struct{})
	for _, section := range c.Sections {
		if _, ok := sections[section.ID]; ok {
			return fmt.Errorf("checklist %d: duplicate section id %d", c.ID, section.ID)
		}
		sections[section.ID] = struct{}{}
		for _, item := range section.Items {
			for _, criterion := range item.Criteria {
				if _, ok := criteria[criterion.ID]; ok {
					return fmt.Errorf("checklist %d: duplicate criterion id %d", c.ID, criterion.ID)
				}
				criteria[criterion.ID] = struct{}{}
			}
		}
	}
	return nil
}

// Resolution is the outcome of an evaluation-type lookup.
type Resolution struct {
	Type  EvaluationType
	Found bool
	Kind  CriterionKind
}

// ResolveEvaluationType returns the scoring semantics of a criterion. Unknown
// criteria resolve to OK_KO with Found=false so callers can log a diagnostic;
// checklists may be edited while audits against them are still open.
func ResolveEvaluationType(checklist Checklist, criterionID int) Resolution {
	criterion, ok := checklist.FindCriterion(criterionID)
	if !ok {
		return Resolution{Type: EvaluationOKKO, Found: false, Kind: KindRating}
	}
	kind := criterion.Kind
	if kind == "" {
		kind = KindRating
	}
	evalType := criterion.EvaluationType
	if evalType == "" {
		evalType = EvaluationOKKO
	}
	return Resolution{Type: evalType, Found: true, Kind: kind}
}
