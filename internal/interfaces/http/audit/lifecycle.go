package audit

import (
	"context"
	"net/http"

	"github.com/sngm3741/store-audit-services/api/internal/audit/application"
	"github.com/sngm3741/store-audit-services/api/internal/audit/domain"
	"github.com/sngm3741/store-audit-services/api/internal/interfaces/http/common"
)

type transitionFunc func(ctx context.Context, actor domain.Actor, auditID string) (*domain.Audit, error)

func (h *Handler) transitionHandler(move transitionFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		actor, auditID, ok := h.request(w, r)
		if !ok {
			return
		}
		ctx, cancel := h.requestContext(r)
		defer cancel()

		audit, err := move(ctx, actor, auditID)
		h.writeAudit(w, audit, err)
	}
}

func (h *Handler) progressHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		actor, auditID, ok := h.request(w, r)
		if !ok {
			return
		}
		var req progressRequest
		if !h.decode(w, r, &req, true) {
			return
		}
		ctx, cancel := h.requestContext(r)
		defer cancel()

		audit, err := h.service.SaveProgress(ctx, actor, application.SaveProgressCommand{
			AuditID:         auditID,
			AuditorComments: req.AuditorComments,
		})
		h.writeAudit(w, audit, err)
	}
}

func (h *Handler) replaceHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		actor, auditID, ok := h.request(w, r)
		if !ok {
			return
		}
		var req replaceRequest
		if !h.decode(w, r, &req, false) {
			return
		}
		ctx, cancel := h.requestContext(r)
		defer cancel()

		audit, err := h.service.Replace(ctx, actor, auditID, req.ReplacedBy)
		h.writeAudit(w, audit, err)
	}
}

func (h *Handler) writeAudit(w http.ResponseWriter, audit *domain.Audit, err error) {
	if err != nil {
		h.writeError(w, err)
		return
	}
	common.WriteJSON(h.logger, w, http.StatusOK, toAuditResponse(*audit))
}
