// Package api serves a read-mostly HTTP facade over configured Commserves:
// browse clients down to subclients, toggle activity and start backups.
package api

import (
	"context"
	"net/http"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog"

	"github.com/commvault-ps/cvpysdk-sub001/internal/commcell"
	"github.com/commvault-ps/cvpysdk-sub001/internal/models"
	"github.com/commvault-ps/cvpysdk-sub001/internal/telemetry"
)

// ConnectFunc logs in to a Commserve and returns its object model.
type ConnectFunc func(ctx context.Context, conn *models.Connection) (*commcell.Commcell, error)

// Server holds shared state for all API handlers.
type Server struct {
	Connections *models.ConnectionStore
	Connect     ConnectFunc
	Metrics     *telemetry.Metrics
	Log         zerolog.Logger

	mu       sync.Mutex
	sessions map[string]*liveSession
}

// liveSession serializes requests against one Commcell; entities are not
// safe for concurrent use.
type liveSession struct {
	mu sync.Mutex
	cc *commcell.Commcell
}

// NewRouter builds the chi router with all API routes and the metrics endpoint.
func NewRouter(s *Server) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(s.requestLogger)
	r.Use(middleware.Recoverer)
	r.Use(corsMiddleware)

	r.Route("/api", func(r chi.Router) {
		r.Get("/connections", s.ListConnections)
		r.Delete("/connections/{conn}", s.DeleteConnection)
		r.Post("/connections/{conn}/test", s.TestConnection)
		r.Post("/connections/{conn}/refresh", s.RefreshConnection)

		r.Route("/connections/{conn}", func(r chi.Router) {
			r.Get("/clients", s.ListClients)
			r.Get("/clients/{client}", s.GetClient)
			r.Get("/clients/{client}/agents", s.ListAgents)

			r.Route("/clients/{client}/agents/{agent}", func(r chi.Router) {
				r.Get("/", s.GetAgent)
				r.Post("/activity/{activity}", s.SetAgentActivity)
				r.Get("/instances", s.ListInstances)
				r.Get("/backupsets", s.ListBackupsets)
				r.Get("/backupsets/{backupset}/subclients", s.ListSubclients)
				r.Get("/backupsets/{backupset}/subclients/{subclient}", s.GetSubclient)
				r.Post("/backupsets/{backupset}/subclients/{subclient}/backup", s.RunBackup)
			})

			r.Get("/credentials", s.ListCredentials)
			r.Get("/schedules", s.ListSchedules)
			r.Get("/jobs/{id}", s.GetJob)
		})
	})

	r.Method(http.MethodGet, "/metrics", s.Metrics.Handler())

	return r
}

// requestLogger logs each served request at debug.
func (s *Server) requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		start := time.Now()
		next.ServeHTTP(ww, r)
		s.Log.Debug().
			Str("method", r.Method).
			Str("path", r.URL.Path).
			Int("status", ww.Status()).
			Dur("elapsed", time.Since(start)).
			Str("request_id", middleware.GetReqID(r.Context())).
			Msg("api request")
	})
}

func corsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, DELETE, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")
		if r.Method == "OPTIONS" {
			w.WriteHeader(http.StatusNoContent)
			return
		}
		next.ServeHTTP(w, r)
	})
}
