package server

import (
	"context"
	"log"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/causaview/causaview/internal/content"
	"github.com/causaview/causaview/internal/database"
	"github.com/causaview/causaview/internal/geoip"
	"github.com/causaview/causaview/internal/ratelimit"
	"github.com/causaview/causaview/internal/viewer"
)

type Pinger interface {
	Ping(ctx context.Context) error
}

type Config struct {
	DB               database.DBTX
	Pinger           Pinger
	Feeds            content.BundleLoader
	Sessions         *viewer.Registry
	GeoResolver      *geoip.Resolver
	BaseURL          string
	HMACSecret       string
	S3PublicEndpoint string
	StrictRender     bool
}

type Server struct {
	router         chi.Router
	pinger         Pinger
	contentHandler *content.Handler
}

func New(cfg Config) *Server {
	r := chi.NewRouter()
	r.Use(slogMiddleware)
	r.Use(middleware.Recoverer)
	r.Use(securityHeaders(SecurityConfig{
		BaseURL:         cfg.BaseURL,
		StorageEndpoint: cfg.S3PublicEndpoint,
	}))

	s := &Server{router: r, pinger: cfg.Pinger}

	if cfg.DB != nil {
		if cfg.HMACSecret == "" {
			log.Fatal("HMAC_SECRET is required; set the environment variable")
		}

		baseURL := cfg.BaseURL
		if baseURL == "" {
			baseURL = "http://localhost:8080"
		}

		sessions := cfg.Sessions
		if sessions == nil {
			sessions = viewer.NewRegistry(viewer.DefaultSessionTTL)
		}

		secureCookies := strings.HasPrefix(baseURL, "https://")
		s.contentHandler = content.NewHandler(cfg.DB, cfg.Feeds, sessions,
			cfg.GeoResolver, cfg.HMACSecret, secureCookies, cfg.StrictRender)
	}

	s.routes()
	return s
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

func (s *Server) routes() {
	s.router.Get("/api/health", s.handleHealth)

	if s.contentHandler == nil {
		return
	}

	catalogLimiter := ratelimit.NewLimiter(5, 20)
	s.router.Route("/api", func(r chi.Router) {
		r.With(catalogLimiter.Middleware).Get("/languages", s.contentHandler.Languages)
		r.With(catalogLimiter.Middleware).Get("/catalog/{language}", s.contentHandler.Catalog)
		r.With(catalogLimiter.Middleware).Get("/view/{language}/{video}", s.contentHandler.View)
		r.With(catalogLimiter.Middleware).Get("/view/{language}/{video}/stats", s.contentHandler.Stats)

		// Password attempts get the tight budget.
		unlockLimiter := ratelimit.NewLimiter(0.5, 5)
		r.With(unlockLimiter.Middleware).Post("/view/{language}/{video}/unlock", s.contentHandler.Unlock)

		// The event stream ticks with playback, several times a second.
		eventLimiter := ratelimit.NewLimiter(30, 60)
		r.Route("/sessions", func(r chi.Router) {
			r.With(catalogLimiter.Middleware).Post("/", s.contentHandler.CreateSession)
			r.With(eventLimiter.Middleware).Get("/{sessionID}", s.contentHandler.GetSession)
			r.With(eventLimiter.Middleware).Post("/{sessionID}/events", s.contentHandler.SessionEvent)
		})
	})

	// Every page load registers a viewer session, so the page route
	// carries a budget of its own.
	pageLimiter := ratelimit.NewLimiter(2, 10)
	s.router.With(pageLimiter.Middleware).Get("/view/{language}/{video}", s.contentHandler.ViewerPage)
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	if s.pinger != nil {
		if err := s.pinger.Ping(r.Context()); err != nil {
			w.WriteHeader(http.StatusServiceUnavailable)
			_, _ = w.Write([]byte(`{"status":"unhealthy","error":"database unreachable"}`))
			return
		}
	}
	_, _ = w.Write([]byte(`{"status":"ok"}`))
}
