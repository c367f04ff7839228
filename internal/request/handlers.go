package request

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	"rentals/internal/api"
	"rentals/internal/property"
)

type Handlers struct {
	Manager *Manager
	Log     *slog.Logger
}

// CreateRequestBody is the POST /requests payload. Dates accept YYYY-MM-DD or RFC 3339.
type CreateRequestBody struct {
	PropertyID          string `json:"propertyId" validate:"required"`
	UserID              string `json:"userId" validate:"required"`
	CheckInDate         string `json:"checkInDate"`
	CheckOutDate        string `json:"checkOutDate"`
	ExpectedArrivalTime string `json:"expectedArrivalTime" validate:"max=64"`
	NumberOfGuests      int    `json:"numberOfGuests" validate:"gt=0"`
	AdditionalNotes     string `json:"additionalNotes" validate:"max=2000"`
}

func (h Handlers) Create(w http.ResponseWriter, r *http.Request) {
	s := api.SessionFromContext(r.Context())
	if s == nil {
		api.WriteError(w, http.StatusUnauthorized, "UNAUTHORIZED", "missing session")
		return
	}

	var body CreateRequestBody
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		api.WriteError(w, http.StatusBadRequest, "VALIDATION_FAILED", "invalid json")
		return
	}
	if fields := api.Validate(body); fields != nil {
		api.WriteValidationError(w, fields)
		return
	}
	if body.UserID != s.UserID && !s.IsAdmin() {
		api.WriteError(w, http.StatusForbidden, "FORBIDDEN", "cannot create requests for another user")
		return
	}

	checkIn, err := optionalDate(body.CheckInDate)
	if err != nil {
		api.WriteValidationError(w, map[string]string{"checkInDate": "date"})
		return
	}
	checkOut, err := optionalDate(body.CheckOutDate)
	if err != nil {
		api.WriteValidationError(w, map[string]string{"checkOutDate": "date"})
		return
	}
	if checkIn != nil && checkOut != nil && checkOut.Before(*checkIn) {
		api.WriteError(w, http.StatusBadRequest, "VALIDATION_FAILED", "checkOutDate must not be before checkInDate")
		return
	}

	created, err := h.Manager.Create(r.Context(), CreateInput{
		PropertyID:          strings.TrimSpace(body.PropertyID),
		UserID:              body.UserID,
		CheckInDate:         checkIn,
		CheckOutDate:        checkOut,
		ExpectedArrivalTime: strings.TrimSpace(body.ExpectedArrivalTime),
		NumberOfGuests:      body.NumberOfGuests,
		AdditionalNotes:     body.AdditionalNotes,
	}, s.UserID)
	if err != nil {
		h.writeDomainError(w, err)
		return
	}
	api.WriteJSON(w, http.StatusCreated, created)
}

func (h Handlers) ListByUser(w http.ResponseWriter, r *http.Request) {
	userID := chi.URLParam(r, "userId")
	if !h.selfOrAdmin(w, r, userID) {
		return
	}
	items, err := h.Manager.ListByRequester(r.Context(), userID)
	if err != nil {
		h.writeDomainError(w, err)
		return
	}
	api.WriteJSON(w, http.StatusOK, items)
}

func (h Handlers) ListByHost(w http.ResponseWriter, r *http.Request) {
	hostID := chi.URLParam(r, "hostId")
	if !h.selfOrAdmin(w, r, hostID) {
		return
	}
	items, err := h.Manager.ListByHost(r.Context(), hostID)
	if err != nil {
		h.writeDomainError(w, err)
		return
	}
	api.WriteJSON(w, http.StatusOK, items)
}

func (h Handlers) Get(w http.ResponseWriter, r *http.Request) {
	br, ok := h.loadVisible(w, r)
	if !ok {
		return
	}
	api.WriteJSON(w, http.StatusOK, br)
}

func (h Handlers) Events(w http.ResponseWriter, r *http.Request) {
	br, ok := h.loadVisible(w, r)
	if !ok {
		return
	}
	evs, err := h.Manager.Events(r.Context(), br.ID)
	if err != nil {
		h.writeDomainError(w, err)
		return
	}
	api.WriteJSON(w, http.StatusOK, evs)
}

func (h Handlers) Approve(w http.ResponseWriter, r *http.Request) {
	h.transition(w, r, ActionApprove)
}

func (h Handlers) Reject(w http.ResponseWriter, r *http.Request) {
	h.transition(w, r, ActionReject)
}

func (h Handlers) Cancel(w http.ResponseWriter, r *http.Request) {
	h.transition(w, r, ActionCancel)
}

func (h Handlers) transition(w http.ResponseWriter, r *http.Request, a Action) {
	s := api.SessionFromContext(r.Context())
	if s == nil {
		api.WriteError(w, http.StatusUnauthorized, "UNAUTHORIZED", "missing session")
		return
	}

	id := chi.URLParam(r, "id")
	br, err := h.Manager.Get(r.Context(), id)
	if err != nil {
		h.writeDomainError(w, err)
		return
	}
	if !mayTransition(s, br, a) {
		api.WriteError(w, http.StatusForbidden, "FORBIDDEN", "not allowed to "+string(a)+" this request")
		return
	}

	if _, err := h.Manager.transition(r.Context(), id, a, s.UserID); err != nil {
		h.writeDomainError(w, err)
		return
	}
	api.WriteMessage(w, http.StatusOK, "Request "+a.Past()+" successfully")
}

// mayTransition: hosts (and admins) decide, only the requester cancels.
func mayTransition(s *api.Session, br *BookingRequest, a Action) bool {
	switch a {
	case ActionApprove, ActionReject:
		return s.UserID == br.HostID || s.IsAdmin()
	case ActionCancel:
		return s.UserID == br.UserID
	}
	return false
}

func (h Handlers) loadVisible(w http.ResponseWriter, r *http.Request) (*BookingRequest, bool) {
	s := api.SessionFromContext(r.Context())
	if s == nil {
		api.WriteError(w, http.StatusUnauthorized, "UNAUTHORIZED", "missing session")
		return nil, false
	}
	br, err := h.Manager.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		h.writeDomainError(w, err)
		return nil, false
	}
	if s.UserID != br.UserID && s.UserID != br.HostID && !s.IsAdmin() {
		api.WriteError(w, http.StatusForbidden, "FORBIDDEN", "not a participant of this request")
		return nil, false
	}
	return br, true
}

func (h Handlers) selfOrAdmin(w http.ResponseWriter, r *http.Request, userID string) bool {
	s := api.SessionFromContext(r.Context())
	if s == nil {
		api.WriteError(w, http.StatusUnauthorized, "UNAUTHORIZED", "missing session")
		return false
	}
	if s.UserID != userID && !s.IsAdmin() {
		api.WriteError(w, http.StatusForbidden, "FORBIDDEN", "cannot list requests of another user")
		return false
	}
	return true
}

type domainErrorBody struct {
	api.APIError
	Capacity int    `json:"capacity,omitempty"`
	Bound    string `json:"bound,omitempty"`
}

// writeDomainError maps the lifecycle error kinds to HTTP. Anything that is not
// a *Error is an infrastructure failure and is logged, not echoed.
func (h Handlers) writeDomainError(w http.ResponseWriter, err error) {
	var de *Error
	if !errors.As(err, &de) {
		h.Log.Error("request operation failed", slog.Any("error", err))
		api.WriteError(w, http.StatusInternalServerError, "INTERNAL", "internal error")
		return
	}

	status := http.StatusBadRequest
	if de.Kind == KindNotFound {
		status = http.StatusNotFound
	}
	api.WriteJSON(w, status, domainErrorBody{
		APIError: api.APIError{Code: de.Kind.String(), Message: de.Error()},
		Capacity: de.Capacity,
		Bound:    de.Bound,
	})
}

func optionalDate(s string) (*time.Time, error) {
	if strings.TrimSpace(s) == "" {
		return nil, nil
	}
	t, err := property.ParseDate(s)
	if err != nil {
		return nil, err
	}
	return &t, nil
}
