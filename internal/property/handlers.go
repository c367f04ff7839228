package property

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"rentals/internal/api"
)

type Handlers struct {
	Properties Store
	Log        *slog.Logger
	Now        func() time.Time
}

type CreatePropertyRequest struct {
	Title       string          `json:"title" validate:"required,max=200"`
	Location    string          `json:"location" validate:"required"`
	City        string          `json:"city"`
	Country     string          `json:"country"`
	Price       decimal.Decimal `json:"price"`
	Description string          `json:"description" validate:"required"`
	Features    []string        `json:"features"`
	Images      []string        `json:"images"`
	Capacity    int             `json:"capacity" validate:"gte=1"`
	Rooms       int             `json:"rooms" validate:"gte=0"`
	Status      string          `json:"status" validate:"omitempty,oneof=available unavailable maintenance"`
	ExpireDate  string          `json:"expireDate"`
}

func (h Handlers) Create(w http.ResponseWriter, r *http.Request) {
	s := api.SessionFromContext(r.Context())
	if s == nil {
		api.WriteError(w, http.StatusUnauthorized, "UNAUTHORIZED", "missing session")
		return
	}

	var req CreatePropertyRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		api.WriteError(w, http.StatusBadRequest, "VALIDATION_FAILED", "invalid json")
		return
	}
	if fields := api.Validate(req); fields != nil {
		api.WriteValidationError(w, fields)
		return
	}
	if !req.Price.GreaterThan(decimal.Zero) {
		api.WriteValidationError(w, map[string]string{"price": "gt"})
		return
	}
	var expire *time.Time
	if strings.TrimSpace(req.ExpireDate) != "" {
		t, err := ParseDate(req.ExpireDate)
		if err != nil {
			api.WriteValidationError(w, map[string]string{"expireDate": "date"})
			return
		}
		expire = &t
	}

	status := StatusAvailable
	if req.Status != "" {
		status = Status(req.Status)
	}

	p := &Property{
		ID:            uuid.NewString(),
		Title:         strings.TrimSpace(req.Title),
		Location:      strings.TrimSpace(req.Location),
		City:          req.City,
		Country:       req.Country,
		PricePerNight: req.Price.Round(currencyScale),
		Description:   req.Description,
		Features:      nonNil(req.Features),
		Images:        nonNil(req.Images),
		Capacity:      req.Capacity,
		Rooms:         req.Rooms,
		Status:        status,
		ExpireDate:    expire,
		UserID:        s.UserID,
		CreatedDate:   h.now(),
	}
	if err := h.Properties.Create(r.Context(), p); err != nil {
		h.Log.Error("create property failed", slog.String("owner_id", s.UserID), slog.Any("error", err))
		api.WriteError(w, http.StatusInternalServerError, "INTERNAL", "internal error")
		return
	}

	h.Log.Info("property created", slog.String("property_id", p.ID), slog.String("owner_id", p.UserID))
	api.WriteJSON(w, http.StatusCreated, p)
}

func (h Handlers) Get(w http.ResponseWriter, r *http.Request) {
	p, ok := h.load(w, r)
	if !ok {
		return
	}
	api.WriteJSON(w, http.StatusOK, p)
}

func (h Handlers) ListByOwner(w http.ResponseWriter, r *http.Request) {
	userID := chi.URLParam(r, "userId")
	items, err := h.Properties.ListByOwner(r.Context(), userID)
	if err != nil {
		h.Log.Error("list properties failed", slog.String("owner_id", userID), slog.Any("error", err))
		api.WriteError(w, http.StatusInternalServerError, "INTERNAL", "internal error")
		return
	}
	api.WriteJSON(w, http.StatusOK, items)
}

// UpdatePropertyRequest replaces the editable fields of a listing.
// Images is the complete ordered list of image references to keep.
type UpdatePropertyRequest struct {
	Title       string          `json:"title" validate:"required,max=200"`
	Location    string          `json:"location" validate:"required"`
	Price       decimal.Decimal `json:"price"`
	Description string          `json:"description" validate:"required"`
	Features    []string        `json:"features" validate:"max=50,dive,required"`
	Images      []string        `json:"images" validate:"max=20,dive,required"`
}

func (h Handlers) Update(w http.ResponseWriter, r *http.Request) {
	s := api.SessionFromContext(r.Context())
	if s == nil {
		api.WriteError(w, http.StatusUnauthorized, "UNAUTHORIZED", "missing session")
		return
	}

	var req UpdatePropertyRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		api.WriteError(w, http.StatusBadRequest, "VALIDATION_FAILED", "invalid json")
		return
	}
	if fields := api.Validate(req); fields != nil {
		api.WriteValidationError(w, fields)
		return
	}
	if !req.Price.GreaterThan(decimal.Zero) {
		api.WriteValidationError(w, map[string]string{"price": "gt"})
		return
	}

	p, ok := h.load(w, r)
	if !ok {
		return
	}
	if p.UserID != s.UserID && !s.IsAdmin() {
		api.WriteError(w, http.StatusForbidden, "FORBIDDEN", "only the owner can edit this property")
		return
	}

	updated, err := h.Properties.Update(r.Context(), p.ID, Edit{
		Title:         strings.TrimSpace(req.Title),
		Location:      strings.TrimSpace(req.Location),
		PricePerNight: req.Price.Round(currencyScale),
		Description:   req.Description,
		Features:      nonNil(req.Features),
		Images:        nonNil(req.Images),
	})
	if err != nil {
		h.writeStoreError(w, p.ID, err)
		return
	}
	h.Log.Info("property updated", slog.String("property_id", p.ID), slog.String("actor", s.UserID))
	api.WriteJSON(w, http.StatusOK, updated)
}

type SetStatusRequest struct {
	Status string `json:"status" validate:"required"`
}

// SetStatus lets a host take their own listing on or off the market.
func (h Handlers) SetStatus(w http.ResponseWriter, r *http.Request) {
	s := api.SessionFromContext(r.Context())
	if s == nil {
		api.WriteError(w, http.StatusUnauthorized, "UNAUTHORIZED", "missing session")
		return
	}

	var req SetStatusRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		api.WriteError(w, http.StatusBadRequest, "VALIDATION_FAILED", "invalid json")
		return
	}
	next, err := ParseStatus(req.Status)
	if err != nil || !next.OwnerSettable() {
		api.WriteError(w, http.StatusBadRequest, "VALIDATION_FAILED", "invalid status")
		return
	}

	p, ok := h.load(w, r)
	if !ok {
		return
	}
	if p.UserID != s.UserID && !s.IsAdmin() {
		api.WriteError(w, http.StatusForbidden, "FORBIDDEN", "only the owner can change this property")
		return
	}
	// Moderation outcomes stick until an admin lifts them.
	if p.Status == StatusRejected || p.Status == StatusInactive {
		api.WriteError(w, http.StatusConflict, "PROPERTY_MODERATED", "property is "+string(p.Status))
		return
	}

	updated, err := h.Properties.UpdateStatus(r.Context(), p.ID, next)
	if err != nil {
		h.writeStoreError(w, p.ID, err)
		return
	}
	h.Log.Info("property status changed",
		slog.String("property_id", p.ID),
		slog.String("from", string(p.Status)),
		slog.String("to", string(next)),
		slog.String("actor", s.UserID),
	)
	api.WriteJSON(w, http.StatusOK, updated)
}

// Quote prices a stay: GET /properties/{id}/quote?checkIn=2025-01-05&checkOut=2025-01-08
func (h Handlers) Quote(w http.ResponseWriter, r *http.Request) {
	checkIn, err1 := ParseDate(r.URL.Query().Get("checkIn"))
	checkOut, err2 := ParseDate(r.URL.Query().Get("checkOut"))
	if err1 != nil || err2 != nil {
		api.WriteError(w, http.StatusBadRequest, "VALIDATION_FAILED", "checkIn and checkOut must be dates (YYYY-MM-DD or RFC 3339)")
		return
	}

	p, ok := h.load(w, r)
	if !ok {
		return
	}
	q, err := QuoteStay(p.PricePerNight, checkIn, checkOut)
	if err != nil {
		var ve ValidationError
		if errors.As(err, &ve) {
			api.WriteError(w, http.StatusBadRequest, ve.Code, ve.Message)
			return
		}
		api.WriteError(w, http.StatusInternalServerError, "INTERNAL", "internal error")
		return
	}
	api.WriteJSON(w, http.StatusOK, q)
}

// ParseDate accepts a calendar date or an RFC 3339 timestamp.
func ParseDate(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	if t, err := time.Parse("2006-01-02", s); err == nil {
		return t, nil
	}
	return time.Parse(time.RFC3339, s)
}

func (h Handlers) load(w http.ResponseWriter, r *http.Request) (*Property, bool) {
	id := chi.URLParam(r, "id")
	if id == "" {
		api.WriteError(w, http.StatusBadRequest, "VALIDATION_FAILED", "missing id")
		return nil, false
	}
	p, err := h.Properties.Get(r.Context(), id)
	if err != nil {
		h.writeStoreError(w, id, err)
		return nil, false
	}
	return p, true
}

func (h Handlers) writeStoreError(w http.ResponseWriter, id string, err error) {
	if errors.Is(err, ErrNotFound) {
		api.WriteError(w, http.StatusNotFound, "NOT_FOUND", "property not found")
		return
	}
	h.Log.Error("property store failed", slog.String("property_id", id), slog.Any("error", err))
	api.WriteError(w, http.StatusInternalServerError, "INTERNAL", "internal error")
}

func (h Handlers) now() time.Time {
	if h.Now != nil {
		return h.Now().UTC()
	}
	return time.Now().UTC()
}
