package application

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/sngm3741/store-audit-services/api/internal/audit/domain"
)

type auditService struct {
	cfg SessionConfig
}

// NewAuditService builds the audit use cases on top of per-request sessions.
func NewAuditService(cfg SessionConfig) AuditService {
	return &auditService{cfg: cfg}
}

func (s *auditService) open(ctx context.Context, actor domain.Actor, auditID string) (*Session, error) {
	auditID = strings.TrimSpace(auditID)
	if auditID == "" {
		return nil, fmt.Errorf("%w: audit id is required", ErrInvalidInput)
	}
	return OpenSession(ctx, s.cfg, auditID, actor.ID)
}

func editGate(sess *Session, actor domain.Actor) error {
	audit := sess.Audit()
	if !audit.Status.IsEditable() {
		return ErrAuditLocked
	}
	if !domain.CanEdit(audit.Status, audit.OwnerID(), audit.CreatedBy, actor) {
		return ErrForbidden
	}
	return nil
}

// transitionGate prefers the lifecycle error over the permission error so
// callers learn why an action is unavailable.
func transitionGate(from, to domain.Status, allowed bool) error {
	if !from.CanTransitionTo(to) {
		return &domain.TransitionError{From: from, To: to}
	}
	if !allowed {
		return ErrForbidden
	}
	return nil
}

func (s *auditService) View(ctx context.Context, actor domain.Actor, auditID string) (*AuditView, error) {
	sess, err := s.open(ctx, actor, auditID)
	if err != nil {
		return nil, err
	}
	defer sess.Close()

	audit := sess.Audit()
	return &AuditView{
		Audit:       audit,
		Checklist:   sess.Checklist(),
		Store:       sess.Store(),
		Scores:      sess.Scores(),
		Evaluations: sess.Evaluations(),
		Summary:     sess.Summary(),
		Permissions: domain.PermissionsFor(audit, sess.StoreAderenteID(), actor),
	}, nil
}

func (s *auditService) Permissions(ctx context.Context, actor domain.Actor, auditID string) (domain.Permissions, error) {
	sess, err := s.open(ctx, actor, auditID)
	if err != nil {
		return domain.Permissions{}, err
	}
	defer sess.Close()
	return domain.PermissionsFor(sess.Audit(), sess.StoreAderenteID(), actor), nil
}

func (s *auditService) SetScore(ctx context.Context, actor domain.Actor, cmd SetScoreCommand) (*domain.AuditScore, error) {
	return s.editScore(ctx, actor, cmd.AuditID, func(sess *Session) (domain.AuditScore, error) {
		return sess.SetScore(cmd.CriterionID, cmd.Value)
	})
}

func (s *auditService) SetComment(ctx context.Context, actor domain.Actor, cmd SetCommentCommand) (*domain.AuditScore, error) {
	comment, err := domain.NewComment(cmd.Comment)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidInput, err)
	}
	return s.editScore(ctx, actor, cmd.AuditID, func(sess *Session) (domain.AuditScore, error) {
		return sess.SetComment(cmd.CriterionID, comment)
	})
}

func (s *auditService) AppendPhoto(ctx context.Context, actor domain.Actor, cmd PhotoCommand) (*domain.AuditScore, error) {
	photo, err := domain.NewPhoto(cmd.Photo)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidInput, err)
	}
	return s.editScore(ctx, actor, cmd.AuditID, func(sess *Session) (domain.AuditScore, error) {
		return sess.AppendPhoto(cmd.CriterionID, photo)
	})
}

func (s *auditService) RemovePhoto(ctx context.Context, actor domain.Actor, cmd PhotoCommand) (*domain.AuditScore, error) {
	photo, err := domain.NewPhoto(cmd.Photo)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidInput, err)
	}
	return s.editScore(ctx, actor, cmd.AuditID, func(sess *Session) (domain.AuditScore, error) {
		return sess.RemovePhoto(cmd.CriterionID, photo)
	})
}

// editScore applies one ledger edit and waits for it to be persisted. On a
// failed save the row is still returned together with the error.
func (s *auditService) editScore(ctx context.Context, actor domain.Actor, auditID string, apply func(*Session) (domain.AuditScore, error)) (*domain.AuditScore, error) {
	sess, err := s.open(ctx, actor, auditID)
	if err != nil {
		return nil, err
	}
	defer sess.Close()

	if err := editGate(sess, actor); err != nil {
		return nil, err
	}
	row, err := apply(sess)
	if err != nil {
		return nil, err
	}
	if err := sess.Flush(ctx); err != nil {
		return &row, err
	}
	return &row, nil
}

func (s *auditService) SaveSectionEvaluation(ctx context.Context, actor domain.Actor, cmd SaveSectionEvaluationCommand) (*domain.SectionEvaluation, error) {
	key, err := domain.ParseSectionKey(cmd.SectionKey)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidInput, err)
	}
	input, err := domain.NewActionPlanInput(cmd.ActionPlan, cmd.Responsible, cmd.DueDate)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidInput, err)
	}

	sess, err := s.open(ctx, actor, cmd.AuditID)
	if err != nil {
		return nil, err
	}
	defer sess.Close()

	if err := editGate(sess, actor); err != nil {
		return nil, err
	}
	evaluation, err := sess.SaveSectionEvaluation(key, input, actor.ID)
	if err != nil {
		return nil, err
	}
	if err := sess.Flush(ctx); err != nil {
		return &evaluation, err
	}
	sess.notify(NotifySuccess, "Avaliação da secção guardada.")
	return &evaluation, nil
}

func (s *auditService) SaveProgress(ctx context.Context, actor domain.Actor, cmd SaveProgressCommand) (*domain.Audit, error) {
	var comments *string
	if cmd.AuditorComments != nil {
		trimmed, err := domain.NewComment(*cmd.AuditorComments)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrInvalidInput, err)
		}
		comments = &trimmed
	}

	sess, err := s.open(ctx, actor, cmd.AuditID)
	if err != nil {
		return nil, err
	}
	defer sess.Close()

	if err := editGate(sess, actor); err != nil {
		return nil, err
	}
	audit, err := sess.SaveProgress(ctx, comments)
	if err != nil {
		return nil, err
	}
	sess.notify(NotifySuccess, "Progresso guardado.")
	return &audit, nil
}

func (s *auditService) Submit(ctx context.Context, actor domain.Actor, auditID string) (*domain.Audit, error) {
	sess, err := s.open(ctx, actor, auditID)
	if err != nil {
		return nil, err
	}
	defer sess.Close()

	current := sess.Audit()
	allowed := domain.CanSubmit(current.OwnerID(), current.Status, actor)
	if err := transitionGate(current.Status, domain.StatusSubmitted, allowed); err != nil {
		return nil, err
	}
	audit, err := sess.Submit(ctx)
	if err != nil {
		return nil, err
	}
	sess.notify(NotifySuccess, "Auditoria submetida com sucesso.")
	return &audit, nil
}

func (s *auditService) Approve(ctx context.Context, actor domain.Actor, auditID string) (*domain.Audit, error) {
	return s.move(ctx, actor, auditID, domain.StatusEnded, func(sess *Session, a domain.Audit) bool {
		return domain.CanApprove(a.Status, sess.StoreAderenteID(), actor)
	}, nil, "Auditoria aprovada.")
}

func (s *auditService) Close(ctx context.Context, actor domain.Actor, auditID string) (*domain.Audit, error) {
	return s.move(ctx, actor, auditID, domain.StatusClosed, func(sess *Session, a domain.Audit) bool {
		return domain.CanClose(a.Status, sess.StoreAderenteID(), actor)
	}, nil, "Auditoria fechada.")
}

func (s *auditService) Cancel(ctx context.Context, actor domain.Actor, auditID string) (*domain.Audit, error) {
	return s.move(ctx, actor, auditID, domain.StatusCancelled, func(_ *Session, a domain.Audit) bool {
		return domain.CanDelete(a.Status, actor)
	}, nil, "Auditoria cancelada.")
}

func (s *auditService) Replace(ctx context.Context, actor domain.Actor, auditID, replacedBy string) (*domain.Audit, error) {
	replacedBy = strings.TrimSpace(replacedBy)
	if replacedBy == "" || replacedBy == strings.TrimSpace(auditID) {
		return nil, fmt.Errorf("%w: a different replacement audit is required", ErrInvalidInput)
	}
	if _, err := s.cfg.Audits.FindByID(ctx, replacedBy); err != nil {
		if errors.Is(err, ErrAuditNotFound) {
			return nil, fmt.Errorf("%w: replacement audit %s not found", ErrInvalidInput, replacedBy)
		}
		return nil, err
	}
	return s.move(ctx, actor, auditID, domain.StatusReplaced, func(_ *Session, a domain.Audit) bool {
		return domain.CanDelete(a.Status, actor)
	}, func(change *domain.AuditChange) {
		change.ReplacedBy = replacedBy
	}, "Auditoria substituída.")
}

func (s *auditService) move(
	ctx context.Context,
	actor domain.Actor,
	auditID string,
	next domain.Status,
	allowed func(*Session, domain.Audit) bool,
	amend func(*domain.AuditChange),
	message string,
) (*domain.Audit, error) {
	sess, err := s.open(ctx, actor, auditID)
	if err != nil {
		return nil, err
	}
	defer sess.Close()

	current := sess.Audit()
	if err := transitionGate(current.Status, next, allowed(sess, current)); err != nil {
		return nil, err
	}
	audit, err := sess.Transition(ctx, next, amend)
	if err != nil {
		return nil, err
	}
	sess.notify(NotifySuccess, message)
	return &audit, nil
}

// Delete removes an unsubmitted audit together with its ledger and section
// evaluations.
func (s *auditService) Delete(ctx context.Context, actor domain.Actor, auditID string) error {
	auditID = strings.TrimSpace(auditID)
	if auditID == "" {
		return fmt.Errorf("%w: audit id is required", ErrInvalidInput)
	}
	audit, err := s.cfg.Audits.FindByID(ctx, auditID)
	if err != nil {
		return err
	}
	if !audit.Status.IsEditable() {
		return ErrAuditLocked
	}
	if !domain.CanDelete(audit.Status, actor) {
		return ErrForbidden
	}

	if err := s.cfg.Evaluations.DeleteByAudit(ctx, auditID); err != nil {
		return err
	}
	if err := s.cfg.Scores.DeleteByAudit(ctx, auditID); err != nil {
		return err
	}
	if err := s.cfg.Audits.Delete(ctx, auditID); err != nil {
		return err
	}
	logf(s.cfg.Logger, "audit %s deleted by %s", auditID, actor.ID)
	return nil
}
