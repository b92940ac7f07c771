package main

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/go-chi/httprate"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/phrazzld/tourbook-api/internal/api"
	apiMiddleware "github.com/phrazzld/tourbook-api/internal/api/middleware"
	"github.com/phrazzld/tourbook-api/internal/api/shared"
	"github.com/phrazzld/tourbook-api/internal/config"
	"github.com/phrazzld/tourbook-api/internal/domain"
	"github.com/phrazzld/tourbook-api/internal/metrics"
	"github.com/phrazzld/tourbook-api/internal/platform/ratelimit"
	"github.com/phrazzld/tourbook-api/internal/query"
	"github.com/phrazzld/tourbook-api/internal/service"
	"github.com/phrazzld/tourbook-api/internal/store"
)

const healthTimeout = 2 * time.Second

// routes is everything the router needs. It is assembled from the
// application in production and from mocks in tests.
type routes struct {
	config  *config.Config
	logger  *slog.Logger
	tours   service.TourService
	reviews service.ReviewService
	users   service.UserService
	auth    service.AuthService
	health  store.Pinger
	// limitCounter is nil for in-process rate limit counts.
	limitCounter httprate.LimitCounter
}

// newRouter creates the application router with all routes and middleware.
func newRouter(rt routes) http.Handler {
	cfg := rt.config
	prod := cfg.Server.IsProduction()

	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(apiMiddleware.TraceMiddleware(rt.logger))
	r.Use(apiMiddleware.SecurityHeaders(prod))
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   cfg.CORS.AllowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		ExposedHeaders:   []string{apiMiddleware.TraceHeader},
		AllowCredentials: true,
		MaxAge:           300,
	}))
	r.Use(apiMiddleware.ErrorMode(!prod))
	if !prod {
		r.Use(middleware.Logger)
	}
	r.Use(middleware.Recoverer)
	r.Use(metrics.Middleware)
	if cfg.Server.RequestTimeout > 0 {
		r.Use(middleware.Timeout(cfg.Server.RequestTimeout))
	}

	r.NotFound(api.HandleRouteNotFound)
	r.MethodNotAllowed(api.HandleMethodNotAllowed)

	r.Get("/health", healthHandler(rt.health))
	r.Handle("/metrics", promhttp.Handler())

	queryOpts := query.Options{
		DefaultLimit: cfg.Query.DefaultLimit,
		MaxLimit:     cfg.Query.MaxLimit,
	}
	tourHandler := api.NewTourHandler(rt.tours, queryOpts, rt.logger)
	reviewHandler := api.NewReviewHandler(rt.reviews, queryOpts, rt.logger)
	userHandler := api.NewUserHandler(rt.users, queryOpts, rt.logger)
	authHandler := api.NewAuthHandler(rt.auth, api.AuthHandlerConfig{
		SecureCookies:  prod,
		CookieLifetime: time.Duration(cfg.Auth.CookieExpiresDays) * 24 * time.Hour,
		BaseURL:        cfg.Server.BaseURL,
	}, rt.logger)
	authMiddleware := apiMiddleware.NewAuthMiddleware(rt.auth, api.HandleAPIError)
	protect := authMiddleware.Authenticate
	restrictTo := authMiddleware.Authorize

	reviewRoutes := func(r chi.Router) {
		r.Use(protect)
		r.Get("/", reviewHandler.ListReviews)
		r.With(restrictTo(domain.RoleUser)).Post("/", reviewHandler.CreateReview)
		r.Get("/{id}", reviewHandler.GetReview)
		r.With(restrictTo(domain.RoleUser, domain.RoleAdmin)).Patch("/{id}", reviewHandler.UpdateReview)
		r.With(restrictTo(domain.RoleUser, domain.RoleAdmin)).Delete("/{id}", reviewHandler.DeleteReview)
	}

	r.Route("/api", func(r chi.Router) {
		r.Use(ratelimit.Middleware(cfg.RateLimit, rt.limitCounter, api.HandleRateLimited))
		r.Use(apiMiddleware.BodyLimit(cfg.Server.BodyLimitBytes))

		r.Route("/v1/tours", func(r chi.Router) {
			r.With(api.AliasTopTours).Get("/top-5-cheap", tourHandler.ListTours)
			r.Get("/tour-stats", tourHandler.TourStats)
			r.With(protect, restrictTo(domain.RoleAdmin, domain.RoleLeadGuide, domain.RoleGuide)).
				Get("/monthly-plan/{year}", tourHandler.MonthlyPlan)
			r.Get("/tours-within/{distance}/center/{latlng}/unit/{unit}", tourHandler.ToursWithin)
			r.Get("/distances/{latlng}/unit/{unit}", tourHandler.Distances)

			r.Get("/", tourHandler.ListTours)
			r.With(protect, restrictTo(domain.RoleAdmin, domain.RoleLeadGuide)).Post("/", tourHandler.CreateTour)
			r.Get("/{id}", tourHandler.GetTour)
			r.With(protect, restrictTo(domain.RoleAdmin, domain.RoleLeadGuide)).Patch("/{id}", tourHandler.UpdateTour)
			r.With(protect, restrictTo(domain.RoleAdmin, domain.RoleLeadGuide)).Delete("/{id}", tourHandler.DeleteTour)

			r.Route("/{tourId}/reviews", reviewRoutes)
		})

		r.Route("/v1/reviews", reviewRoutes)

		r.Route("/v1/users", func(r chi.Router) {
			r.Post("/signup", authHandler.Signup)
			r.Post("/login", authHandler.Login)
			r.Get("/logout", authHandler.Logout)
			r.Post("/forgotPassword", authHandler.ForgotPassword)
			r.Patch("/resetPassword/{token}", authHandler.ResetPassword)

			r.Group(func(r chi.Router) {
				r.Use(protect)
				r.Patch("/updateMyPassword", authHandler.UpdatePassword)
				r.Get("/me", userHandler.GetMe)
				r.Patch("/updateMe", userHandler.UpdateMe)
				r.Delete("/deleteMe", userHandler.DeleteMe)

				r.Group(func(r chi.Router) {
					r.Use(restrictTo(domain.RoleAdmin))
					r.Get("/", userHandler.ListUsers)
					r.Post("/", userHandler.CreateUser)
					r.Get("/{id}", userHandler.GetUser)
					r.Patch("/{id}", userHandler.UpdateUser)
					r.Delete("/{id}", userHandler.DeleteUser)
				})
			})
		})
	})

	return r
}

// healthHandler reports 200 while the database answers pings.
func healthHandler(db store.Pinger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), healthTimeout)
		defer cancel()

		if err := db.Ping(ctx); err != nil {
			shared.RespondWithErrorAndLog(w, r, http.StatusServiceUnavailable, "Database unavailable.", err)
			return
		}
		shared.RespondWithJSON(w, r, http.StatusOK, map[string]string{"status": "ok"})
	}
}
