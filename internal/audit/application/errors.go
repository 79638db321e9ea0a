package application

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

var (
	ErrAuditNotFound      = errors.New("audit not found")
	ErrChecklistNotFound  = errors.New("checklist not found")
	ErrStoreNotFound      = errors.New("store not found")
	ErrUserNotFound       = errors.New("user not found")
	ErrSectionNotFound    = errors.New("section not found in checklist")
	ErrNotRatingCriterion = errors.New("criterion does not take a numeric score")
	ErrInvalidInput       = errors.New("invalid input")
	ErrAuditLocked        = errors.New("audit is no longer editable")
	ErrForbidden          = errors.New("operation not permitted for this user")
	ErrUnsavedChanges     = errors.New("audit has unsaved changes")
	ErrSessionClosed      = errors.New("audit session is closed")
)

// ValidationError blocks submission: these OK/KO criteria are KO without a photo.
type ValidationError struct {
	CriterionIDs []int
}

func (e *ValidationError) Error() string {
	parts := make([]string, 0, len(e.CriterionIDs))
	for _, id := range e.CriterionIDs {
		parts = append(parts, strconv.Itoa(id))
	}
	return fmt.Sprintf("KO criteria without photo: %s", strings.Join(parts, ", "))
}

// UnsavedError lists the rows whose last save failed.
type UnsavedError struct {
	Criteria []int
	Sections []string
	Audit    bool
	Cause    error
}

func (e *UnsavedError) Error() string {
	msg := fmt.Sprintf("unsaved changes: %d scores, %d section evaluations", len(e.Criteria), len(e.Sections))
	if e.Audit {
		msg += ", audit header"
	}
	if e.Cause != nil {
		msg += ": " + e.Cause.Error()
	}
	return msg
}

func (e *UnsavedError) Is(target error) bool {
	return target == ErrUnsavedChanges
}

func (e *UnsavedError) Unwrap() error {
	return e.Cause
}
