// Package api provides the HTTP API server and handlers for the Grimoire
// book catalog.
package api

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"github.com/grimoireapp/grimoire-server/internal/ratelimit"
	"github.com/grimoireapp/grimoire-server/internal/service"
	"github.com/grimoireapp/grimoire-server/internal/validation"
)

// Server holds dependencies for HTTP handlers.
type Server struct {
	authService   *service.AuthService
	bookService   *service.BookService
	ratingService *service.RatingService
	validator     *validation.Validator
	ratingLimiter *ratelimit.KeyedRateLimiter
	imagesDir     string
	router        *chi.Mux
	logger        *slog.Logger
}

// NewServer creates a new HTTP server with all routes configured. imagesDir
// is the directory stored cover assets are served from.
func NewServer(authService *service.AuthService, bookService *service.BookService, ratingService *service.RatingService, imagesDir string, logger *slog.Logger) *Server {
	s := &Server{
		authService:   authService,
		bookService:   bookService,
		ratingService: ratingService,
		validator:     validation.New(),
		ratingLimiter: ratelimit.New(ratingsPerMinute/60.0, ratingBurst),
		imagesDir:     imagesDir,
		router:        chi.NewRouter(),
		logger:        logger,
	}

	s.setupMiddleware()
	s.setupRoutes()

	return s
}

const (
	ratingsPerMinute = 20
	ratingBurst      = 5
)

// ServeHTTP implements http.Handler.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

// setupMiddleware configures the middleware stack.
func (s *Server) setupMiddleware() {
	s.router.Use(middleware.RequestID)
	s.router.Use(middleware.RealIP)
	s.router.Use(middleware.Logger)
	s.router.Use(middleware.Recoverer)
	s.router.Use(middleware.Compress(5))
	s.router.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"*"},
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		AllowCredentials: false,
		MaxAge:           int((5 * time.Minute).Seconds()),
	}))
}

// setupRoutes configures all HTTP routes.
func (s *Server) setupRoutes() {
	s.router.Get("/health", s.handleHealthCheck)

	s.router.Route("/api", func(r chi.Router) {
		// Auth endpoints (public).
		r.Route("/auth", func(r chi.Router) {
			r.Post("/signup", s.handleSignup)
			r.Post("/login", s.handleLogin)
		})

		r.Route("/books", func(r chi.Router) {
			// Reads are public.
			r.Get("/", s.handleListBooks)
			r.Get("/bestrating", s.handleBestRating)
			r.Get("/{id}", s.handleGetBook)

			// Mutations require auth.
			r.Group(func(r chi.Router) {
				r.Use(s.requireAuth)
				r.Post("/", s.handleCreateBook)
				r.Put("/{id}", s.handleUpdateBook)
				r.Delete("/{id}", s.handleDeleteBook)
				r.With(s.rateLimitByUser).Post("/{id}/rating", s.handleRateBook)
			})
		})
	})

	// Optimized cover assets, served straight off disk.
	s.router.Handle("/images/*", http.StripPrefix("/images/", http.FileServer(http.Dir(s.imagesDir))))
}
