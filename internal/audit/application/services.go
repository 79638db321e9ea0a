package application

import (
	"context"
	"time"

	"github.com/sngm3741/store-audit-services/api/internal/audit/domain"
)

// AuditRepository persists the audit header.
type AuditRepository interface {
	FindByID(ctx context.Context, id string) (*domain.Audit, error)
	// ApplyChange writes status, final score, dtend and the optional fields of
	// change in a single update.
	ApplyChange(ctx context.Context, id string, change domain.AuditChange) error
	Delete(ctx context.Context, id string) error
}

// ScoreRepository persists ledger rows, upserting on (auditId, criterionId).
type ScoreRepository interface {
	FindByAudit(ctx context.Context, auditID string) ([]domain.AuditScore, error)
	Save(ctx context.Context, score domain.AuditScore) error
	DeleteByAudit(ctx context.Context, auditID string) error
}

// SectionEvaluationRepository persists action plans, upserting on
// (auditId, sectionKey).
type SectionEvaluationRepository interface {
	FindByAudit(ctx context.Context, auditID string) ([]domain.SectionEvaluation, error)
	Save(ctx context.Context, evaluation domain.SectionEvaluation) error
	DeleteByAudit(ctx context.Context, auditID string) error
}

// ChecklistProvider serves read-only checklist definitions.
type ChecklistProvider interface {
	Checklist(ctx context.Context, id int) (*domain.Checklist, error)
}

// Directory resolves stores and users managed outside the audit engine.
type Directory interface {
	StoreByID(ctx context.Context, id string) (*domain.Store, error)
	UserByID(ctx context.Context, id string) (*domain.User, error)
}

// AuditService is the audit execution use-case boundary. Every mutating
// method consults the permission gate first.
type AuditService interface {
	View(ctx context.Context, actor domain.Actor, auditID string) (*AuditView, error)
	Permissions(ctx context.Context, actor domain.Actor, auditID string) (domain.Permissions, error)
	SetScore(ctx context.Context, actor domain.Actor, cmd SetScoreCommand) (*domain.AuditScore, error)
	SetComment(ctx context.Context, actor domain.Actor, cmd SetCommentCommand) (*domain.AuditScore, error)
	AppendPhoto(ctx context.Context, actor domain.Actor, cmd PhotoCommand) (*domain.AuditScore, error)
	RemovePhoto(ctx context.Context, actor domain.Actor, cmd PhotoCommand) (*domain.AuditScore, error)
	SaveSectionEvaluation(ctx context.Context, actor domain.Actor, cmd SaveSectionEvaluationCommand) (*domain.SectionEvaluation, error)
	SaveProgress(ctx context.Context, actor domain.Actor, cmd SaveProgressCommand) (*domain.Audit, error)
	Submit(ctx context.Context, actor domain.Actor, auditID string) (*domain.Audit, error)
	Approve(ctx context.Context, actor domain.Actor, auditID string) (*domain.Audit, error)
	Close(ctx context.Context, actor domain.Actor, auditID string) (*domain.Audit, error)
	Cancel(ctx context.Context, actor domain.Actor, auditID string) (*domain.Audit, error)
	Replace(ctx context.Context, actor domain.Actor, auditID, replacedBy string) (*domain.Audit, error)
	Delete(ctx context.Context, actor domain.Actor, auditID string) error
}

// SetScoreCommand records a criterion value in its wire form.
type SetScoreCommand struct {
	AuditID     string
	CriterionID int
	Value       *int
}

// SetCommentCommand records a criterion comment.
type SetCommentCommand struct {
	AuditID     string
	CriterionID int
	Comment     string
}

// PhotoCommand attaches or detaches a photo reference.
type PhotoCommand struct {
	AuditID     string
	CriterionID int
	Photo       string
}

// SaveSectionEvaluationCommand carries the action-plan fields for one key.
type SaveSectionEvaluationCommand struct {
	AuditID     string
	SectionKey  string
	ActionPlan  string
	Responsible string
	DueDate     *time.Time
}

// SaveProgressCommand optionally updates the auditor's general comments.
type SaveProgressCommand struct {
	AuditID         string
	AuditorComments *string
}

// AuditView is everything a client needs to render an audit.
type AuditView struct {
	Audit       domain.Audit
	Checklist   domain.Checklist
	Store       *domain.Store
	Scores      []domain.AuditScore
	Evaluations []domain.SectionEvaluation
	Summary     domain.Summary
	Permissions domain.Permissions
}
