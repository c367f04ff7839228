package request

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"rentals/internal/api"
	"rentals/internal/property"
)

func testServer(t *testing.T, props ...property.Property) (http.Handler, *Manager) {
	t.Helper()
	m, _ := newTestManager(t, props...)
	h := Handlers{Manager: m, Log: slog.New(slog.NewTextHandler(io.Discard, nil))}

	r := chi.NewRouter()
	r.Use(func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if id := r.Header.Get("X-User-ID"); id != "" {
				s := &api.Session{UserID: id, Role: r.Header.Get("X-User-Role")}
				r = r.WithContext(api.WithSession(r.Context(), s))
			}
			next.ServeHTTP(w, r)
		})
	})
	r.Post("/requests", h.Create)
	r.Get("/requests/user/{userId}", h.ListByUser)
	r.Get("/requests/host/{hostId}", h.ListByHost)
	r.Get("/requests/{id}", h.Get)
	r.Get("/requests/{id}/events", h.Events)
	r.Put("/requests/{id}/approve", h.Approve)
	r.Put("/requests/{id}/reject", h.Reject)
	r.Put("/requests/{id}/cancel", h.Cancel)
	return r, m
}

func call(h http.Handler, method, path, user, role, body string) *httptest.ResponseRecorder {
	var rd io.Reader
	if body != "" {
		rd = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, path, rd)
	if user != "" {
		req.Header.Set("X-User-ID", user)
	}
	if role != "" {
		req.Header.Set("X-User-Role", role)
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func decodeMessage(t *testing.T, rec *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var out map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out), rec.Body.String())
	return out
}

var cabin = property.Property{ID: "p1", Title: "Cabin", UserID: "host", Capacity: 4, Status: property.StatusAvailable}

func TestHandlers_CreateAndApprove(t *testing.T) {
	h, _ := testServer(t, cabin)

	rec := call(h, http.MethodPost, "/requests", "guest", "",
		`{"propertyId":"p1","userId":"guest","numberOfGuests":2,"checkInDate":"2025-02-01","expectedArrivalTime":"14:00"}`)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	var created BookingRequest
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &created))
	assert.Equal(t, StatusPending, created.Status)
	assert.Equal(t, "host", created.HostID)
	require.NotNil(t, created.CheckInDate)

	rec = call(h, http.MethodPut, "/requests/"+created.ID+"/approve", "guest", "", "")
	assert.Equal(t, http.StatusForbidden, rec.Code, "requester cannot approve")

	rec = call(h, http.MethodPut, "/requests/"+created.ID+"/approve", "host", "", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "Request approved successfully", decodeMessage(t, rec)["message"])

	rec = call(h, http.MethodPut, "/requests/"+created.ID+"/reject", "host", "", "")
	require.Equal(t, http.StatusBadRequest, rec.Code)
	body := decodeMessage(t, rec)
	assert.Equal(t, "only pending requests can be rejected", body["message"])
	assert.Equal(t, "INVALID_TRANSITION", body["code"])

	rec = call(h, http.MethodGet, "/requests/"+created.ID+"/events", "guest", "", "")
	require.Equal(t, http.StatusOK, rec.Code)
	var evs []map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &evs))
	assert.Len(t, evs, 2)
}

func TestHandlers_CreateFailures(t *testing.T) {
	h, _ := testServer(t, cabin)

	rec := call(h, http.MethodPost, "/requests", "guest", "", `{"propertyId":"p1","userId":"guest","numberOfGuests":5}`)
	require.Equal(t, http.StatusBadRequest, rec.Code)
	body := decodeMessage(t, rec)
	assert.Equal(t, "number of guests exceeds property capacity (4)", body["message"])
	assert.EqualValues(t, 4, body["capacity"])

	rec = call(h, http.MethodPost, "/requests", "guest", "", `{"propertyId":"nope","userId":"guest","numberOfGuests":1}`)
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = call(h, http.MethodPost, "/requests", "guest", "", `{"propertyId":"p1","userId":"guest","numberOfGuests":0}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "numberOfGuests")

	rec = call(h, http.MethodPost, "/requests", "guest", "", `{"propertyId":"p1","userId":"guest","numberOfGuests":1,"checkInDate":"tomorrow"}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = call(h, http.MethodPost, "/requests", "guest", "", `{"propertyId":"p1","userId":"guest","numberOfGuests":1,"checkInDate":"2025-02-05","checkOutDate":"2025-02-01"}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = call(h, http.MethodPost, "/requests", "guest", "", `{"propertyId":"p1","userId":"someone-else","numberOfGuests":1}`)
	assert.Equal(t, http.StatusForbidden, rec.Code)

	rec = call(h, http.MethodPost, "/requests", "admin-1", "admin", `{"propertyId":"p1","userId":"someone-else","numberOfGuests":1}`)
	assert.Equal(t, http.StatusCreated, rec.Code)

	rec = call(h, http.MethodPost, "/requests", "", "", `{"propertyId":"p1","userId":"guest","numberOfGuests":1}`)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestHandlers_CancelIsRequesterOnly(t *testing.T) {
	h, m := testServer(t, cabin)
	r, err := m.Create(context.Background(), CreateInput{PropertyID: "p1", UserID: "guest", NumberOfGuests: 1}, "guest")
	require.NoError(t, err)

	rec := call(h, http.MethodPut, "/requests/"+r.ID+"/cancel", "host", "", "")
	assert.Equal(t, http.StatusForbidden, rec.Code)

	rec = call(h, http.MethodPut, "/requests/"+r.ID+"/cancel", "guest", "", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "Request cancelled successfully", decodeMessage(t, rec)["message"])

	rec = call(h, http.MethodPut, "/requests/missing/cancel", "guest", "", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestHandlers_Lists(t *testing.T) {
	h, m := testServer(t, cabin)
	_, err := m.Create(context.Background(), CreateInput{PropertyID: "p1", UserID: "guest", NumberOfGuests: 1}, "guest")
	require.NoError(t, err)

	rec := call(h, http.MethodGet, "/requests/user/guest", "guest", "", "")
	require.Equal(t, http.StatusOK, rec.Code)
	var list []BookingRequest
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &list))
	assert.Len(t, list, 1)

	rec = call(h, http.MethodGet, "/requests/host/host", "host", "", "")
	require.Equal(t, http.StatusOK, rec.Code)
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &list))
	assert.Len(t, list, 1)

	rec = call(h, http.MethodGet, "/requests/user/guest", "intruder", "", "")
	assert.Equal(t, http.StatusForbidden, rec.Code)

	rec = call(h, http.MethodGet, "/requests/host/host", "admin-1", "admin", "")
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestHandlers_GetVisibility(t *testing.T) {
	h, m := testServer(t, cabin)
	r, err := m.Create(context.Background(), CreateInput{PropertyID: "p1", UserID: "guest", NumberOfGuests: 1}, "guest")
	require.NoError(t, err)

	assert.Equal(t, http.StatusOK, call(h, http.MethodGet, "/requests/"+r.ID, "host", "", "").Code)
	assert.Equal(t, http.StatusOK, call(h, http.MethodGet, "/requests/"+r.ID, "guest", "", "").Code)
	assert.Equal(t, http.StatusForbidden, call(h, http.MethodGet, "/requests/"+r.ID, "other", "", "").Code)
	assert.Equal(t, http.StatusNotFound, call(h, http.MethodGet, "/requests/nope", "guest", "", "").Code)
}
