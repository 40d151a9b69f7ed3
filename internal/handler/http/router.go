package http

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/linernotes/linernotes/pkg/health"
	"github.com/linernotes/linernotes/pkg/middleware"
)

// ServiceName labels HTTP metrics and spans.
const ServiceName = "linernotes"

// Services groups the operations the router exposes.
type Services struct {
	Feed      FeedReader
	Reviews   ReviewStore
	Comments  CommentThreads
	Reactions Reactions
	Follows   FollowGraph
	Profiles  ProfileReader
	Library   AlbumLibrary
	Counters  SweepRunner
}

// RouterConfig holds the HTTP surface settings.
type RouterConfig struct {
	CORS              middleware.CORSConfig
	RateLimit         middleware.RateLimitConfig
	PprofAllowedCIDRs []string
	FeedMaxPageSize   int
}

// NewRouter creates a chi router with all linernotes routes registered.
func NewRouter(
	svc Services,
	validateToken middleware.TokenValidator,
	healthHandler *health.Handler,
	logger *slog.Logger,
	cfg RouterConfig,
) http.Handler {
	r := chi.NewRouter()

	// Global middleware
	r.Use(middleware.CORS(cfg.CORS))
	r.Use(middleware.Recovery(logger))
	r.Use(middleware.RequestLogging(logger))
	r.Use(middleware.Tracing(ServiceName))
	r.Use(middleware.PrometheusMetrics(ServiceName))

	// Health check endpoints
	r.Get("/health/live", healthHandler.LivenessHandler())
	r.Get("/health/ready", healthHandler.ReadinessHandler())
	r.Handle("/metrics", promhttp.Handler())

	middleware.RegisterPprof(r, cfg.PprofAllowedCIDRs, logger)

	feedHandler := NewFeedHandler(svc.Feed, cfg.FeedMaxPageSize, logger)
	reviewHandler := NewReviewHandler(svc.Reviews, logger)
	commentHandler := NewCommentHandler(svc.Comments, logger)
	likeHandler := NewLikeHandler(svc.Reactions, logger)
	userHandler := NewUserHandler(svc.Profiles, svc.Follows, logger)
	libraryHandler := NewLibraryHandler(svc.Library, logger)
	adminHandler := NewAdminHandler(svc.Counters, logger)

	r.Route("/api/v1", func(r chi.Router) {
		r.Use(ContentTypeJSON)
		// Every response may carry viewer-specific like and follow state.
		r.Use(middleware.CacheControl("private, no-cache"))

		// Anonymous readers are allowed; a bearer token adds viewer state.
		r.Group(func(r chi.Router) {
			r.Use(middleware.OptionalAuth(validateToken))
			r.Use(middleware.RequestLogger(logger))

			r.Get("/reviews/{id}", reviewHandler.Get)
			r.Get("/reviews/{id}/comments", commentHandler.List)
			r.Get("/albums/{albumId}/reviews", reviewHandler.ListByAlbum)
			r.Get("/users/{id}", userHandler.GetProfile)
			r.Get("/users/{id}/reviews", reviewHandler.ListByUser)
		})

		r.Group(func(r chi.Router) {
			r.Use(middleware.Auth(validateToken))
			r.Use(middleware.RequestLogger(logger))
			r.Use(middleware.RateLimit(cfg.RateLimit, logger))

			r.Get("/feed", feedHandler.Get)

			r.Post("/reviews", reviewHandler.Create)
			r.Delete("/reviews/{id}", reviewHandler.Delete)
			r.Post("/reviews/{id}/comments", commentHandler.Post)

			r.Put("/likes/{targetType}/{targetId}", likeHandler.Like)
			r.Delete("/likes/{targetType}/{targetId}", likeHandler.Unlike)

			r.Put("/users/{id}/follow", userHandler.Follow)
			r.Delete("/users/{id}/follow", userHandler.Unfollow)

			r.Get("/library", libraryHandler.List)
			r.Get("/library/{albumId}", libraryHandler.Get)
			r.Put("/library/{albumId}", libraryHandler.Save)
			r.Delete("/library/{albumId}", libraryHandler.Remove)

			r.With(middleware.RequireRole(middleware.RoleAdmin)).
				Post("/admin/counters/reconcile", adminHandler.ReconcileCounters)
		})
	})

	return r
}
