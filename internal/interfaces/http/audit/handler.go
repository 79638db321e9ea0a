package audit

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/sngm3741/store-audit-services/api/internal/audit/application"
	"github.com/sngm3741/store-audit-services/api/internal/audit/domain"
	"github.com/sngm3741/store-audit-services/api/internal/interfaces/http/common"
)

const defaultTimeout = 5 * time.Second

// Handler wires audit execution endpoints to the application service.
type Handler struct {
	logger   *log.Logger
	service  application.AuditService
	location *time.Location
	timeout  time.Duration
}

// Config provides dependencies for Handler.
type Config struct {
	Logger   *log.Logger
	Service  application.AuditService
	Location *time.Location
	Timeout  time.Duration
}

// NewHandler constructs an audit HTTP handler set.
func NewHandler(cfg Config) *Handler {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	location := cfg.Location
	if location == nil {
		location = time.UTC
	}
	return &Handler{
		logger:   cfg.Logger,
		service:  cfg.Service,
		location: location,
		timeout:  timeout,
	}
}

// Register mounts audit routes onto router. Callers put the auth middleware
// in front.
func (h *Handler) Register(r chi.Router) {
	r.Get("/{id}", h.viewHandler())
	r.Delete("/{id}", h.deleteHandler())
	r.Get("/{id}/permissions", h.permissionsHandler())

	r.Put("/{id}/scores/{criterionId}", h.scoreHandler())
	r.Put("/{id}/scores/{criterionId}/comment", h.commentHandler())
	r.Post("/{id}/scores/{criterionId}/photos", h.photoHandler(true))
	r.Delete("/{id}/scores/{criterionId}/photos", h.photoHandler(false))
	r.Put("/{id}/sections/{sectionKey}/evaluation", h.sectionEvaluationHandler())

	r.Post("/{id}/progress", h.progressHandler())
	r.Post("/{id}/submit", h.transitionHandler(h.service.Submit))
	r.Post("/{id}/approve", h.transitionHandler(h.service.Approve))
	r.Post("/{id}/close", h.transitionHandler(h.service.Close))
	r.Post("/{id}/cancel", h.transitionHandler(h.service.Cancel))
	r.Post("/{id}/replace", h.replaceHandler())
}

// request extracts the common parts of every audit route. It writes the
// error response itself and reports ok=false when the handler must stop.
func (h *Handler) request(w http.ResponseWriter, r *http.Request) (domain.Actor, string, bool) {
	user, ok := common.UserFromContext(r.Context())
	if !ok {
		common.WriteError(h.logger, w, http.StatusUnauthorized, "autenticação necessária")
		return domain.Actor{}, "", false
	}
	auditID := strings.TrimSpace(chi.URLParam(r, "id"))
	if auditID == "" {
		common.WriteError(h.logger, w, http.StatusBadRequest, "id da auditoria em falta")
		return domain.Actor{}, "", false
	}
	return user.Actor(), auditID, true
}

func (h *Handler) criterionID(w http.ResponseWriter, r *http.Request) (int, bool) {
	id, ok := common.ParsePositiveInt(chi.URLParam(r, "criterionId"), 0)
	if !ok {
		common.WriteError(h.logger, w, http.StatusBadRequest, "criterionId inválido")
		return 0, false
	}
	return id, true
}

// decode reads a bounded JSON body. An empty body leaves dst untouched when
// allowEmpty is set.
func (h *Handler) decode(w http.ResponseWriter, r *http.Request, dst any, allowEmpty bool) bool {
	err := json.NewDecoder(io.LimitReader(r.Body, common.MaxRequestBody)).Decode(dst)
	if err == nil || (allowEmpty && errors.Is(err, io.EOF)) {
		return true
	}
	common.WriteError(h.logger, w, http.StatusBadRequest, "JSON inválido")
	return false
}

func (h *Handler) requestContext(r *http.Request) (context.Context, context.CancelFunc) {
	return context.WithTimeout(r.Context(), h.timeout)
}

func (h *Handler) viewHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		actor, auditID, ok := h.request(w, r)
		if !ok {
			return
		}
		ctx, cancel := h.requestContext(r)
		defer cancel()

		view, err := h.service.View(ctx, actor, auditID)
		if err != nil {
			h.writeError(w, err)
			return
		}
		common.WriteJSON(h.logger, w, http.StatusOK, toAuditViewResponse(*view))
	}
}

func (h *Handler) permissionsHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		actor, auditID, ok := h.request(w, r)
		if !ok {
			return
		}
		ctx, cancel := h.requestContext(r)
		defer cancel()

		permissions, err := h.service.Permissions(ctx, actor, auditID)
		if err != nil {
			h.writeError(w, err)
			return
		}
		common.WriteJSON(h.logger, w, http.StatusOK, toPermissionsResponse(permissions))
	}
}

func (h *Handler) deleteHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		actor, auditID, ok := h.request(w, r)
		if !ok {
			return
		}
		ctx, cancel := h.requestContext(r)
		defer cancel()

		if err := h.service.Delete(ctx, actor, auditID); err != nil {
			h.writeError(w, err)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}
