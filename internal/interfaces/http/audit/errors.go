package audit

import (
	"errors"
	"net/http"

	"github.com/sngm3741/store-audit-services/api/internal/audit/application"
	"github.com/sngm3741/store-audit-services/api/internal/audit/domain"
	"github.com/sngm3741/store-audit-services/api/internal/interfaces/http/common"
)

func (h *Handler) writeError(w http.ResponseWriter, err error) {
	status, body := h.errorResponse(err)
	common.WriteJSON(h.logger, w, status, body)
}

// errorResponse maps application errors onto a status and a JSON body.
func (h *Handler) errorResponse(err error) (int, map[string]any) {
	var validation *application.ValidationError
	switch {
	case errors.As(err, &validation):
		return http.StatusUnprocessableEntity, map[string]any{
			"error":       "Existem critérios KO sem fotografia.",
			"criteriaIds": validation.CriterionIDs,
		}
	case errors.Is(err, application.ErrAuditNotFound):
		return http.StatusNotFound, map[string]any{"error": "auditoria não encontrada"}
	case errors.Is(err, application.ErrChecklistNotFound):
		return http.StatusNotFound, map[string]any{"error": "checklist não encontrada"}
	case errors.Is(err, application.ErrForbidden):
		return http.StatusForbidden, map[string]any{"error": "sem permissão para esta operação"}
	case errors.Is(err, domain.ErrInvalidTransition):
		return http.StatusConflict, map[string]any{"error": err.Error()}
	case errors.Is(err, application.ErrAuditLocked):
		return http.StatusConflict, map[string]any{"error": "a auditoria já não pode ser editada"}
	case errors.Is(err, application.ErrInvalidInput),
		errors.Is(err, application.ErrNotRatingCriterion),
		errors.Is(err, application.ErrSectionNotFound):
		return http.StatusBadRequest, map[string]any{"error": err.Error()}
	case errors.Is(err, application.ErrUnsavedChanges):
		h.logf("unsaved changes: %v", err)
		return http.StatusServiceUnavailable, map[string]any{"error": "Existem alterações por guardar. Tente novamente."}
	default:
		h.logf("audit request failed: %v", err)
		return http.StatusInternalServerError, map[string]any{"error": "erro interno"}
	}
}

func (h *Handler) logf(format string, args ...any) {
	if h.logger != nil {
		h.logger.Printf(format, args...)
	}
}
