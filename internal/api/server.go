package api

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/limbo/lumi/internal/service"
	"github.com/limbo/lumi/pkg/metrics"
)

type Server struct {
	mx              *chi.Mux
	userService     service.UserServiceI
	trackingService service.TrackingServiceI
	summaryService  service.SummaryServiceI
	jwtService      JWTServiceI
	metrics         *metrics.Collector
	corsOrigins     []string
	breaker         CircuitBreakerConfig
}

type ServicesList struct {
	UserService     service.UserServiceI
	TrackingService service.TrackingServiceI
	SummaryService  service.SummaryServiceI
	JwtService      JWTServiceI
	// Optional, /metrics is not served without it
	Metrics *metrics.Collector
	// Defaults to any origin
	CORSOrigins []string
	// Zero value means DefaultCircuitBreakerConfig
	Breaker CircuitBreakerConfig
}

func New(servicesOptions *ServicesList) *Server {
	s := &Server{
		mx:              chi.NewMux(),
		userService:     servicesOptions.UserService,
		trackingService: servicesOptions.TrackingService,
		summaryService:  servicesOptions.SummaryService,
		jwtService:      servicesOptions.JwtService,
		metrics:         servicesOptions.Metrics,
		corsOrigins:     servicesOptions.CORSOrigins,
		breaker:         servicesOptions.Breaker,
	}
	if len(s.corsOrigins) == 0 {
		s.corsOrigins = []string{"*"}
	}
	if s.breaker.Name == "" {
		s.breaker = DefaultCircuitBreakerConfig("api")
	}
	s.routes()
	return s
}

func (s *Server) routes() {
	s.mx.Use(middleware.Recoverer)
	s.mx.Use(cors.Handler(cors.Options{
		AllowedOrigins: s.corsOrigins,
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowedHeaders: []string{"Authorization", "Content-Type"},
		ExposedHeaders: []string{"X-Request-ID"},
		MaxAge:         600,
	}))
	s.mx.Use(s.RequestIDMiddleware, s.SettingUpLoggerMiddleware)
	if s.metrics != nil {
		s.mx.Use(s.metrics.Middleware)
		s.mx.Method(http.MethodGet, "/metrics", s.metrics.Handler())
	}
	s.mx.Get("/health", s.Health)

	s.mx.Route("/api/v1", func(r chi.Router) {
		r.Use(CircuitBreaker(s.breaker))
		r.Post("/auth/signup", s.Register)
		r.Post("/auth/login", s.Login)
		r.Group(func(r chi.Router) {
			r.Use(s.AuthMiddleware, s.LoggerExtensionMiddleware)
			r.Post("/users/profile", s.UpsertProfile)
			r.Get("/users/{userId}", s.GetUser)
			r.Post("/hydration/{userId}", s.AddWater)
			r.Get("/hydration/{userId}", s.GetHistory)
			r.Get("/hydration/{userId}/{date}", s.GetRecord)
			r.Post("/nutrition/{userId}", s.RecordMeal)
			r.Get("/summary/{userId}", s.GetSummary)
			r.Get("/streak/{userId}", s.GetStreak)
		})
	})
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.mx.ServeHTTP(w, r)
}

// Router exposes the mux for adapters such as the Lambda proxy.
func (s *Server) Router() *chi.Mux {
	return s.mx
}

// Run serves on address until ctx is cancelled, then drains in-flight
// requests for up to ten seconds.
func (s *Server) Run(ctx context.Context, address string) error {
	srv := &http.Server{
		Addr:              address,
		Handler:           s.mx,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      15 * time.Second,
		IdleTimeout:       60 * time.Second,
	}
	errCh := make(chan error, 1)
	go func() {
		slog.Info("server started", slog.String("address", address))
		errCh <- srv.ListenAndServe()
	}()
	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}
	if err := <-errCh; err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}
