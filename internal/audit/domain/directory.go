package domain

import (
	"fmt"
	"strings"
	"time"
)

// MaxActionPlanRunes limits free text typed into an action plan.
const MaxActionPlanRunes = 2000

// Store is the directory view of a store: enough to resolve its Aderente.
type Store struct {
	ID           string
	Name         string
	Code         string
	AderenteID   string
	AderenteName string
}

// User is the directory view of a platform user.
type User struct {
	ID   string
	Name string
	Role Role
}

// ActionPlanInput is what the user typed for one section key.
type ActionPlanInput struct {
	ActionPlan  string
	Responsible string
	DueDate     *time.Time
}

// NewActionPlanInput trims and bounds the free-text fields.
func NewActionPlanInput(plan, responsible string, dueDate *time.Time) (ActionPlanInput, error) {
	plan = strings.TrimSpace(plan)
	if len([]rune(plan)) > MaxActionPlanRunes {
		return ActionPlanInput{}, fmt.Errorf("action plan must be <= %d characters", MaxActionPlanRunes)
	}
	responsible = strings.TrimSpace(responsible)
	if len([]rune(responsible)) > 200 {
		return ActionPlanInput{}, fmt.Errorf("responsible must be <= 200 characters")
	}
	return ActionPlanInput{ActionPlan: plan, Responsible: responsible, DueDate: dueDate}, nil
}

// NewComment bounds a criterion comment.
func NewComment(value string) (string, error) {
	trimmed := strings.TrimSpace(value)
	if len([]rune(trimmed)) > MaxActionPlanRunes {
		return "", fmt.Errorf("comment must be <= %d characters", MaxActionPlanRunes)
	}
	return trimmed, nil
}
