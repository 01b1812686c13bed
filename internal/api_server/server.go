package apiserver

import (
	"context"
	"errors"
	"net"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/go-chi/render"
	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"

	"github.com/careerlink/portal-engine/internal/auth"
	"github.com/careerlink/portal-engine/internal/catalog"
	"github.com/careerlink/portal-engine/internal/config"
	handlers "github.com/careerlink/portal-engine/internal/handlers/v1"
	"github.com/careerlink/portal-engine/internal/service"
	"github.com/careerlink/portal-engine/internal/stats"
	"github.com/careerlink/portal-engine/internal/store"
	"github.com/careerlink/portal-engine/internal/triage"
	"github.com/careerlink/portal-engine/internal/workflow"
	"github.com/careerlink/portal-engine/pkg/metrics"
	"github.com/careerlink/portal-engine/pkg/middleware"
)

const (
	gracefulShutdownTimeout = 5 * time.Second
)

// NewServices wires the service layer. docs may be nil, in which case document
// references are not checked against storage.
func NewServices(cfg *config.Config, s store.Store, c *catalog.Catalog, notifier service.Notifier, docs service.DocumentChecker) (handlers.Services, error) {
	thresholds := triage.Thresholds{
		MediumAfter: cfg.Service.Triage.MediumAfter,
		HighAfter:   cfg.Service.Triage.HighAfter,
	}
	if err := thresholds.Validate(); err != nil {
		return handlers.Services{}, err
	}
	scorer := triage.NewScorer(c, thresholds)

	verificationEngine := workflow.NewVerificationEngine(c)
	verifications := service.NewVerificationService(s, verificationEngine, notifier)
	if docs != nil {
		verifications = verifications.WithDocumentChecker(docs)
	}

	return handlers.Services{
		Accounts:      service.NewAccountService(s, verificationEngine),
		Postings:      service.NewPostingService(s),
		Verifications: verifications,
		Applications:  service.NewApplicationService(s, workflow.NewApplicationEngine(), notifier),
		Triage:        service.NewTriageService(s, scorer),
		Statistics:    service.NewStatisticsService(s, c, scorer, stats.Options{RecentWindow: cfg.Service.Triage.RecentWindow}),
	}, nil
}

type Server struct {
	cfg      *config.Config
	services handlers.Services
	listener net.Listener
}

// New returns a new instance of the portal api server.
func New(
	cfg *config.Config,
	services handlers.Services,
	listener net.Listener,
) *Server {
	return &Server{
		cfg:      cfg,
		services: services,
		listener: listener,
	}
}

func (s *Server) Run(ctx context.Context) error {
	zap.S().Named("api_server").Info("Initializing API server")

	authenticator, err := auth.NewAuthenticator(s.cfg.Service.Auth)
	if err != nil {
		return err
	}

	router := chi.NewRouter()

	metricMiddleware := metrics.NewMiddleware("api_server", s.cfg.Service.LatencyBuckets)
	if err := metricMiddleware.Register(prometheus.DefaultRegisterer); err != nil {
		return err
	}

	router.Use(
		middleware.GatewayRewrite(s.cfg.Service.GatewayPrefix),
		metricMiddleware.Handler,
		cors.Handler(cors.Options{
			AllowedOrigins:   s.cfg.Service.AllowedOrigins,
			AllowedMethods:   []string{"GET", "PUT", "POST", "DELETE", "HEAD", "OPTIONS"},
			AllowedHeaders:   []string{"*"},
			ExposedHeaders:   []string{"ETag", "X-Request-Id"},
			AllowCredentials: true,
			MaxAge:           300,
		}),
		middleware.RequestID,
		middleware.Logger(),
		chiMiddleware.Recoverer,
	)

	router.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		render.JSON(w, r, map[string]string{"status": "ok"})
	})

	router.Group(func(r chi.Router) {
		r.Use(authenticator.Authenticator)
		handlers.NewServiceHandler(s.services).Routes(r)
	})

	srv := http.Server{Addr: s.cfg.Service.Address, Handler: router}

	go func() {
		<-ctx.Done()
		zap.S().Named("api_server").Infof("Shutdown signal received: %s", ctx.Err())
		ctxTimeout, cancel := context.WithTimeout(context.Background(), gracefulShutdownTimeout)
		defer cancel()

		srv.SetKeepAlivesEnabled(false)
		_ = srv.Shutdown(ctxTimeout)
		zap.S().Named("api_server").Info("api server terminated")
	}()

	zap.S().Named("api_server").Infof("Listening on %s...", s.listener.Addr().String())
	if err := srv.Serve(s.listener); err != nil && !errors.Is(err, net.ErrClosed) && !errors.Is(err, http.ErrServerClosed) {
		return err
	}

	return nil
}
