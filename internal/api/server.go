package api

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/Trojanhorse7/VeGate/internal/storage"
	"github.com/Trojanhorse7/VeGate/pkg/bridge"
)

// Bridger is the slice of the bridge client the API uses.
type Bridger interface {
	CreateTx(ctx context.Context, params bridge.TxParams) (*bridge.CreateTxResult, error)
	Quote(ctx context.Context, params bridge.TxParams) (*bridge.FeeAndQuota, error)
	GetStatus(ctx context.Context, txHash string) (*bridge.Status, error)
}

// Server holds the HTTP handlers and their dependencies.
type Server struct {
	storage *storage.Storage
	bridge  Bridger
	log     *slog.Logger

	// publicBaseURL is the origin embedded in payment QR codes.
	publicBaseURL string
}

// NewServer creates a Server. publicBaseURL may be empty, in which case the
// QR package default is used.
func NewServer(store *storage.Storage, br Bridger, publicBaseURL string, log *slog.Logger) *Server {
	return &Server{
		storage:       store,
		bridge:        br,
		log:           log,
		publicBaseURL: publicBaseURL,
	}
}

// Router assembles the chi router with logging and metrics middleware.
func (s *Server) Router() http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(60 * time.Second))
	r.Use(s.requestLogger)
	r.Use(metricsMiddleware)

	r.Get("/healthz", s.handleHealth)
	r.Handle("/metrics", promhttp.Handler())

	r.Route("/api/v1", func(r chi.Router) {
		r.Post("/bills", s.handleCreateBill)
		r.Get("/bills/{billID}", s.handleGetBill)
		r.Get("/bills/by-short/{shortID}", s.handleGetBillByShort)
		r.Post("/bills/{billID}/pay", s.handlePayBill)

		r.Get("/payments/history", s.handleHistory)
		r.Get("/users/{wallet}", s.handleGetUser)

		r.Post("/bridge/create", s.handleBridgeCreate)
		r.Get("/bridge/quote", s.handleBridgeQuote)
		r.Post("/bridge/track", s.handleBridgeTrack)
		r.Get("/bridge/status/{txHash}", s.handleBridgeStatus)
	})

	return r
}

func (s *Server) requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(rec, r)

		s.log.Info("http request",
			"method", r.Method,
			"path", r.URL.Path,
			"status", rec.status,
			"duration", time.Since(start),
			"remote", r.RemoteAddr,
		)
	})
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	respond(w, http.StatusOK, map[string]interface{}{"status": "ok"})
}
