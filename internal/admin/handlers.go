package admin

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"rentals/internal/adminaction"
	"rentals/internal/api"
	"rentals/internal/property"
	"rentals/internal/request"
)

// Handlers serve /admin. Routes must sit behind api.RequireAdmin.
type Handlers struct {
	Requests   request.Store
	Properties property.Store
	Moderator  Moderator
	Log        *slog.Logger
}

type OverrideRequest struct {
	Reason string `json:"reason" validate:"max=500"`
}

func (h Handlers) ListRequests(w http.ResponseWriter, r *http.Request) {
	items, err := h.Requests.ListAll(r.Context())
	if err != nil {
		h.internal(w, "list requests", err)
		return
	}
	api.WriteJSON(w, http.StatusOK, items)
}

func (h Handlers) DeleteRequest(w http.ResponseWriter, r *http.Request) {
	id, reason, actor, ok := h.override(w, r)
	if !ok {
		return
	}
	if err := h.Moderator.DeleteRequest(r.Context(), id, actor, reason); err != nil {
		h.writeError(w, "delete request", err)
		return
	}
	h.Log.Info("admin deleted request", slog.String("request_id", id), slog.String("actor", actor))
	w.WriteHeader(http.StatusNoContent)
}

func (h Handlers) ListProperties(w http.ResponseWriter, r *http.Request) {
	items, err := h.Properties.ListAll(r.Context())
	if err != nil {
		h.internal(w, "list properties", err)
		return
	}
	api.WriteJSON(w, http.StatusOK, items)
}

func (h Handlers) DeactivateProperty(w http.ResponseWriter, r *http.Request) {
	h.setPropertyStatus(w, r, property.StatusInactive, adminaction.ActionDeactivateProperty)
}

func (h Handlers) RejectProperty(w http.ResponseWriter, r *http.Request) {
	h.setPropertyStatus(w, r, property.StatusRejected, adminaction.ActionRejectProperty)
}

func (h Handlers) setPropertyStatus(w http.ResponseWriter, r *http.Request, to property.Status, action adminaction.ActionType) {
	id, reason, actor, ok := h.override(w, r)
	if !ok {
		return
	}
	p, err := h.Moderator.SetPropertyStatus(r.Context(), id, to, action, actor, reason)
	if err != nil {
		h.writeError(w, string(action), err)
		return
	}
	h.Log.Info("admin changed property status",
		slog.String("property_id", id),
		slog.String("status", string(to)),
		slog.String("actor", actor),
	)
	api.WriteJSON(w, http.StatusOK, p)
}

func (h Handlers) DeleteProperty(w http.ResponseWriter, r *http.Request) {
	id, reason, actor, ok := h.override(w, r)
	if !ok {
		return
	}
	if err := h.Moderator.DeleteProperty(r.Context(), id, actor, reason); err != nil {
		h.writeError(w, "delete property", err)
		return
	}
	h.Log.Info("admin deleted property", slog.String("property_id", id), slog.String("actor", actor))
	w.WriteHeader(http.StatusNoContent)
}

// override reads the target id and the optional {reason} body.
func (h Handlers) override(w http.ResponseWriter, r *http.Request) (id, reason, actor string, ok bool) {
	s := api.SessionFromContext(r.Context())
	if !s.IsAdmin() {
		api.WriteError(w, http.StatusForbidden, "FORBIDDEN", "admin role required")
		return "", "", "", false
	}

	id = chi.URLParam(r, "id")
	if id == "" {
		api.WriteError(w, http.StatusBadRequest, "VALIDATION_FAILED", "missing id")
		return "", "", "", false
	}

	var req OverrideRequest
	if r.Body != nil && r.ContentLength != 0 {
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			api.WriteError(w, http.StatusBadRequest, "VALIDATION_FAILED", "invalid json")
			return "", "", "", false
		}
		if fields := api.Validate(req); fields != nil {
			api.WriteValidationError(w, fields)
			return "", "", "", false
		}
	}
	return id, req.Reason, s.UserID, true
}

func (h Handlers) writeError(w http.ResponseWriter, op string, err error) {
	if errors.Is(err, property.ErrNotFound) {
		api.WriteError(w, http.StatusNotFound, "NOT_FOUND", "property not found")
		return
	}
	if errors.Is(err, request.ErrNotFound) {
		api.WriteError(w, http.StatusNotFound, "NOT_FOUND", "request not found")
		return
	}
	h.internal(w, op, err)
}

func (h Handlers) internal(w http.ResponseWriter, op string, err error) {
	h.Log.Error("admin operation failed", slog.String("op", op), slog.Any("error", err))
	api.WriteError(w, http.StatusInternalServerError, "INTERNAL", "internal error")
}
