package httpapi

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/jackc/pgx/v5/pgxpool"

	"rentals/internal/admin"
	"rentals/internal/api"
	"rentals/internal/notify"
	"rentals/internal/property"
	"rentals/internal/request"
	"rentals/pkg/config"
)

type Dependencies struct {
	Cfg config.Config
	Log *slog.Logger

	Properties property.Store
	Requests   request.Store
	Moderator  admin.Moderator
	Notifier   notify.Publisher

	// Now overrides the clock in tests.
	Now func() time.Time
}

// PostgresStores wires the pgx-backed stores onto deps.
func PostgresStores(deps Dependencies, pool *pgxpool.Pool) Dependencies {
	deps.Properties = property.NewRepository(pool)
	deps.Requests = request.NewRepository(pool)
	deps.Moderator = admin.PgModerator{DB: pool}
	return deps
}

// MemoryStores wires in-process stores onto deps. Data is lost on restart.
func MemoryStores(deps Dependencies) Dependencies {
	props := property.NewMemoryStore()
	reqs := request.NewMemoryStore()
	deps.Properties = props
	deps.Requests = reqs
	deps.Moderator = &admin.MemoryModerator{Requests: reqs, Properties: props}
	return deps
}

func NewRouter(deps Dependencies) http.Handler {
	if deps.Log == nil {
		deps.Log = slog.Default()
	}
	if deps.Notifier == nil {
		deps.Notifier = notify.LogPublisher{Log: deps.Log}
	}

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(api.AccessLog(deps.Log))

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})

	manager := &request.Manager{
		Requests:          deps.Requests,
		Properties:        deps.Properties,
		Notifier:          deps.Notifier,
		Log:               deps.Log,
		Now:               deps.Now,
		ForbidSelfBooking: deps.Cfg.Booking.ForbidSelfBooking,
	}
	requestHandlers := request.Handlers{Manager: manager, Log: deps.Log}
	propertyHandlers := property.Handlers{Properties: deps.Properties, Log: deps.Log, Now: deps.Now}
	adminHandlers := admin.Handlers{
		Requests:   deps.Requests,
		Properties: deps.Properties,
		Moderator:  deps.Moderator,
		Log:        deps.Log,
	}

	r.Route("/api", func(r chi.Router) {
		// The SPA is served from another origin; preflight must pass before auth.
		r.Use(api.CORSMiddleware(api.CORSOptions{
			AllowedOrigins: deps.Cfg.AllowedOrigins,
			AllowedHeaders: []string{"Content-Type", "Authorization", "X-User-ID", "X-User-Role"},
			MaxAgeSeconds:  600,
		}))
		r.Use(api.SessionAuth(deps.Cfg))

		r.Route("/properties", func(r chi.Router) {
			r.Post("/", propertyHandlers.Create)
			r.Get("/user/{userId}", propertyHandlers.ListByOwner)
			r.Get("/{id}", propertyHandlers.Get)
			r.Put("/{id}", propertyHandlers.Update)
			r.Get("/{id}/quote", propertyHandlers.Quote)
			r.Put("/{id}/status", propertyHandlers.SetStatus)
		})

		r.Route("/requests", func(r chi.Router) {
			r.Post("/", requestHandlers.Create)
			r.Get("/user/{userId}", requestHandlers.ListByUser)
			r.Get("/host/{hostId}", requestHandlers.ListByHost)
			r.Get("/{id}", requestHandlers.Get)
			r.Get("/{id}/events", requestHandlers.Events)
			r.Put("/{id}/approve", requestHandlers.Approve)
			r.Put("/{id}/reject", requestHandlers.Reject)
			r.Put("/{id}/cancel", requestHandlers.Cancel)
		})

		r.Route("/admin", func(r chi.Router) {
			r.Use(api.RequireAdmin)
			r.Get("/requests", adminHandlers.ListRequests)
			r.Delete("/requests/{id}", adminHandlers.DeleteRequest)
			r.Get("/properties", adminHandlers.ListProperties)
			r.Put("/properties/{id}/deactivate", adminHandlers.DeactivateProperty)
			r.Put("/properties/{id}/reject", adminHandlers.RejectProperty)
			r.Delete("/properties/{id}", adminHandlers.DeleteProperty)
		})
	})

	return r
}
