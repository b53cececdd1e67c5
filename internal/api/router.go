package api

import (
	"log/slog"
	"net/http"

	_ "loan-engine/docs"
	"loan-engine/internal/api/handler"
	mw "loan-engine/internal/api/middleware"
	"loan-engine/internal/config"
	"loan-engine/internal/domain/customer"
	"loan-engine/internal/domain/eligibility"
	"loan-engine/internal/domain/loan"
	"loan-engine/internal/ingestion"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/traceid"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	httpSwagger "github.com/swaggo/http-swagger/v2"
)

// Services are the domain entry points exposed over HTTP.
type Services struct {
	Customers   customer.CustomerService
	Eligibility eligibility.Service
	Loans       loan.LoanService
	Ingestion   ingestion.Service
}

func SetupRouter(rateLimiter *mw.RateLimiterMiddleware, svc Services, cfg *config.Config, logger *slog.Logger) *chi.Mux {
	router := chi.NewRouter()

	setupMiddleware(router, rateLimiter, cfg, logger)
	setupMetricsEndpoint(router, cfg, logger)
	setupLoanRoutes(router, svc, logger)
	setupIngestionRoutes(router, svc.Ingestion, cfg, logger)
	router.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"status":"ok"}`))
	})
	setupSwaggerEndpoint(router, logger)

	return router
}

func setupMiddleware(router *chi.Mux, rateLimiter *mw.RateLimiterMiddleware, cfg *config.Config, logger *slog.Logger) {
	router.Use(middleware.RequestID)
	router.Use(middleware.RealIP)
	router.Use(traceid.Middleware)
	router.Use(mw.StructuredLogger(logger))
	router.Use(middleware.Recoverer)
	router.Use(middleware.Compress(5))
	if cfg.Server.RequestTimeout > 0 {
		router.Use(middleware.Timeout(cfg.Server.RequestTimeout))
	}
	if rateLimiter != nil {
		router.Use(rateLimiter.Middleware)
	}
	router.Use(mw.MetricsMiddleware())
}

func setupMetricsEndpoint(router *chi.Mux, cfg *config.Config, logger *slog.Logger) {
	metricsPath := cfg.Metrics.Path
	if metricsPath == "" {
		metricsPath = "/metrics"
	}
	logger.Info("Setting up Prometheus metrics endpoint", "path", metricsPath)
	router.Handle(metricsPath, promhttp.Handler())
}

func setupSwaggerEndpoint(router *chi.Mux, logger *slog.Logger) {
	logger.Info("Setting up Swagger UI endpoint", "path", "/swagger/")
	router.Get("/swagger/*", httpSwagger.WrapHandler)
	router.Get("/swagger", func(w http.ResponseWriter, r *http.Request) {
		http.Redirect(w, r, "/swagger/index.html", http.StatusMovedPermanently)
	})
}

func setupLoanRoutes(router *chi.Mux, svc Services, logger *slog.Logger) {
	customerHandler := handler.NewCustomerHandler(svc.Customers, logger)
	loanHandler := handler.NewLoanHandler(svc.Eligibility, svc.Loans, logger)

	router.Post("/register", customerHandler.Register)
	router.Post("/check-eligibility", loanHandler.CheckEligibility)
	router.Post("/create-loan", loanHandler.CreateLoan)
	router.Get("/loan/{loanID}", loanHandler.GetLoan)
	router.Get("/loans/{customerID}", loanHandler.ListCustomerLoans)
}

func setupIngestionRoutes(router *chi.Mux, svc ingestion.Service, cfg *config.Config, logger *slog.Logger) {
	if cfg.Server.Auth.OperatorKey != "" {
		authHandler := handler.NewAuthHandler(cfg.Server.Auth, logger)
		router.Route("/auth", func(r chi.Router) {
			r.Post("/token", authHandler.GenerateBearerToken)
		})
	} else {
		logger.Warn("No operator key configured; token endpoint disabled")
	}

	if svc == nil {
		logger.Warn("Ingestion service not configured; ingestion routes disabled")
		return
	}
	ingestionHandler := handler.NewIngestionHandler(svc, cfg.Ingestion.UploadDir, logger)
	router.Route("/ingestion", func(r chi.Router) {
		r.Use(mw.AuthMiddleware(cfg.Server.Auth, logger))
		r.Post("/jobs", ingestionHandler.SubmitJob)
		r.Get("/jobs/{jobID}", ingestionHandler.GetJob)
	})
}
