// Package server is the JSON HTTP API over workout sessions, history,
// analytics, the exercise catalog, routines and imports.
package server

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"tailscale.com/client/tailscale/apitype"

	"github.com/meltforce/ironlog/internal/analytics"
	"github.com/meltforce/ironlog/internal/catalog"
	"github.com/meltforce/ironlog/internal/dashboard"
	"github.com/meltforce/ironlog/internal/history"
	"github.com/meltforce/ironlog/internal/ingest"
	"github.com/meltforce/ironlog/internal/metrics"
	"github.com/meltforce/ironlog/internal/models"
	"github.com/meltforce/ironlog/internal/routine"
	"github.com/meltforce/ironlog/internal/session"
	"github.com/meltforce/ironlog/internal/storage"
)

// Store is the part of the database the handlers read directly.
type Store interface {
	UserResolver
	GetDataStats(ctx context.Context, userID int) (*storage.DataStats, error)
	ListPersonalRecords(ctx context.Context, userID int) ([]models.PersonalRecordRow, error)
	InsertImportLog(ctx context.Context, log storage.ImportLog) (int64, error)
	ListImportLogs(ctx context.Context, userID, limit int) ([]storage.ImportLog, error)
}

// Deps are the services the Server routes to. Metrics and Importer may be nil.
type Deps struct {
	Store     Store
	Sessions  *session.Registry
	History   *history.Service
	Catalog   *catalog.Catalog
	Routines  *routine.Service
	Dashboard *dashboard.Service
	Cache     *analytics.Cache
	Importer  ingest.Provider
	Metrics   *metrics.Manager
	APIKey    string
	Now       func() time.Time
	Log       *slog.Logger
}

// Server holds dependencies for HTTP handlers.
type Server struct {
	Deps
	whois  WhoIser
	router chi.Router
}

// New creates a new Server with all routes configured.
func New(deps Deps) *Server {
	if deps.Now == nil {
		deps.Now = time.Now
	}
	if deps.Log == nil {
		deps.Log = slog.Default()
	}
	s := &Server{Deps: deps, router: chi.NewRouter()}
	s.routes()
	return s
}

// ServeHTTP implements http.Handler.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

// SetTailscale switches identity resolution from the dev user to tailnet WhoIs.
func (s *Server) SetTailscale(whois WhoIser) {
	s.whois = whois
}

// Mount attaches h under pattern, outside the /api/v1 identity and API key checks.
func (s *Server) Mount(pattern string, h http.Handler) {
	s.router.Mount(pattern, h)
}

// MountIdentified attaches h under pattern behind identity resolution, so
// UserID works inside h.
func (s *Server) MountIdentified(pattern string, h http.Handler) {
	s.router.Mount(pattern, s.identity(h))
}

// UserID returns the caller resolved by identity middleware.
func UserID(r *http.Request) int {
	return userIDFromContext(r)
}

func (s *Server) identity(next http.Handler) http.Handler {
	dev := DevIdentity(next)
	tailnet := TailscaleIdentity(whoisFunc(func(ctx context.Context, addr string) (*apitype.WhoIsResponse, error) {
		return s.whois.WhoIs(ctx, addr)
	}), s.Store, s.Log)(next)
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if s.whois == nil {
			dev.ServeHTTP(w, r)
			return
		}
		tailnet.ServeHTTP(w, r)
	})
}

func (s *Server) routes() {
	s.router.Use(PanicRecovery(s.Log, s.Metrics))
	s.router.Use(RequestLogging(s.Log))
	s.router.Use(RequestMetrics(s.Metrics))
	s.router.Use(CORS)

	s.router.Get("/healthz", s.handleHealth)

	s.router.Route("/api/v1", func(r chi.Router) {
		r.Use(s.identity)
		r.Use(APIKeyAuth(s.APIKey))

		r.Get("/me", s.handleMe)

		r.Route("/session", func(r chi.Router) {
			r.Get("/", s.handleGetSession)
			r.Patch("/", s.handleRenameSession)
			r.Post("/start", s.handleStartSession)
			r.Post("/start-routine", s.handleStartRoutine)
			r.Post("/finish", s.handleFinishSession)
			r.Post("/cancel", s.handleCancelSession)
			r.Post("/exercises", s.handleAddExercise)
			r.Delete("/exercises/{id}", s.handleRemoveExercise)
			r.Post("/exercises/{id}/sets", s.handleAddSet)
			r.Patch("/exercises/{id}/sets/{setID}", s.handleUpdateSet)
			r.Delete("/exercises/{id}/sets/{setID}", s.handleRemoveSet)
			r.Post("/exercises/{id}/sets/{setID}/complete", s.handleCompleteSet)
		})

		r.Get("/workouts", s.handleListWorkouts)
		r.Get("/workouts/{id}", s.handleGetWorkout)
		r.Get("/workouts/{id}/insights", s.handleWorkoutInsights)
		r.Patch("/workouts/{id}", s.handleRenameWorkout)
		r.Delete("/workouts/{id}", s.handleDeleteWorkout)

		r.Get("/charts/{type}", s.handleChart)
		r.Get("/graph-types", s.handleGraphTypes)
		r.Get("/dashboard", s.handleDashboard)
		r.Post("/dashboard/graphs", s.handleAddGraph)
		r.Patch("/dashboard/graphs/{id}", s.handleUpdateGraph)
		r.Delete("/dashboard/graphs/{id}", s.handleRemoveGraph)
		r.Put("/dashboard/order", s.handleReorderGraphs)

		r.Get("/exercises", s.handleListExercises)
		r.Post("/exercises", s.handleAddExerciseToCatalog)

		r.Get("/routines", s.handleListRoutines)
		r.Post("/routines", s.handleCreateRoutine)
		r.Get("/routines/{id}", s.handleGetRoutine)
		r.Patch("/routines/{id}", s.handleUpdateRoutine)
		r.Delete("/routines/{id}", s.handleDeleteRoutine)
		r.Post("/routines/{id}/duplicate", s.handleDuplicateRoutine)

		r.Get("/records", s.handleRecords)
		r.Get("/stats", s.handleStats)
		r.Post("/import/alpha", s.handleAlphaImport)
	})
}
