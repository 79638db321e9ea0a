package audit

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/sngm3741/store-audit-services/api/internal/audit/application"
	"github.com/sngm3741/store-audit-services/api/internal/audit/domain"
	"github.com/sngm3741/store-audit-services/api/internal/interfaces/http/common"
)

func (h *Handler) scoreHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		actor, auditID, ok := h.request(w, r)
		if !ok {
			return
		}
		criterionID, ok := h.criterionID(w, r)
		if !ok {
			return
		}
		var req scoreRequest
		if !h.decode(w, r, &req, false) {
			return
		}
		ctx, cancel := h.requestContext(r)
		defer cancel()

		row, err := h.service.SetScore(ctx, actor, application.SetScoreCommand{
			AuditID:     auditID,
			CriterionID: criterionID,
			Value:       req.Value,
		})
		h.writeScore(w, row, err)
	}
}

func (h *Handler) commentHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		actor, auditID, ok := h.request(w, r)
		if !ok {
			return
		}
		criterionID, ok := h.criterionID(w, r)
		if !ok {
			return
		}
		var req commentRequest
		if !h.decode(w, r, &req, false) {
			return
		}
		ctx, cancel := h.requestContext(r)
		defer cancel()

		row, err := h.service.SetComment(ctx, actor, application.SetCommentCommand{
			AuditID:     auditID,
			CriterionID: criterionID,
			Comment:     req.Comment,
		})
		h.writeScore(w, row, err)
	}
}

func (h *Handler) photoHandler(attach bool) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		actor, auditID, ok := h.request(w, r)
		if !ok {
			return
		}
		criterionID, ok := h.criterionID(w, r)
		if !ok {
			return
		}
		var req photoRequest
		if !h.decode(w, r, &req, false) {
			return
		}
		ctx, cancel := h.requestContext(r)
		defer cancel()

		cmd := application.PhotoCommand{AuditID: auditID, CriterionID: criterionID, Photo: req.URL}
		var (
			row *domain.AuditScore
			err error
		)
		if attach {
			row, err = h.service.AppendPhoto(ctx, actor, cmd)
		} else {
			row, err = h.service.RemovePhoto(ctx, actor, cmd)
		}
		h.writeScore(w, row, err)
	}
}

// writeScore answers a ledger edit. A failed save still carries the local row
// so the client can keep showing it next to the error.
func (h *Handler) writeScore(w http.ResponseWriter, row *domain.AuditScore, err error) {
	if err != nil {
		if row != nil {
			status, body := h.errorResponse(err)
			body["score"] = toScoreResponse(*row)
			common.WriteJSON(h.logger, w, status, body)
			return
		}
		h.writeError(w, err)
		return
	}
	common.WriteJSON(h.logger, w, http.StatusOK, toScoreResponse(*row))
}

func (h *Handler) sectionEvaluationHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		actor, auditID, ok := h.request(w, r)
		if !ok {
			return
		}
		var req sectionEvaluationRequest
		if !h.decode(w, r, &req, false) {
			return
		}
		dueDate, err := common.ParseDate(req.DueDate, h.location)
		if err != nil {
			common.WriteError(h.logger, w, http.StatusBadRequest, "dueDate inválida")
			return
		}
		ctx, cancel := h.requestContext(r)
		defer cancel()

		evaluation, err := h.service.SaveSectionEvaluation(ctx, actor, application.SaveSectionEvaluationCommand{
			AuditID:     auditID,
			SectionKey:  chi.URLParam(r, "sectionKey"),
			ActionPlan:  req.ActionPlan,
			Responsible: req.Responsible,
			DueDate:     dueDate,
		})
		if err != nil {
			if evaluation != nil {
				status, body := h.errorResponse(err)
				body["evaluation"] = toSectionEvaluationResponse(*evaluation)
				common.WriteJSON(h.logger, w, status, body)
				return
			}
			h.writeError(w, err)
			return
		}
		common.WriteJSON(h.logger, w, http.StatusOK, toSectionEvaluationResponse(*evaluation))
	}
}
