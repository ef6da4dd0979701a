package server

import (
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"

	"git.home.luguber.info/inful/shopassist/internal/logfields"
	"git.home.luguber.info/inful/shopassist/internal/metrics"
	"git.home.luguber.info/inful/shopassist/internal/observability"
)

// Routes builds the router.
func (s *Server) Routes() http.Handler {
	r := chi.NewRouter()

	r.Use(chimw.RequestID)
	r.Use(chimw.RealIP)
	r.Use(s.requestLogger)
	r.Use(chimw.Recoverer)
	r.Use(s.corsMiddleware)

	r.Get("/metrics", metrics.HTTPHandler(s.registry).ServeHTTP)

	r.Route("/api", func(r chi.Router) {
		r.Get("/health", s.handleHealth)
		r.Post("/search", s.handleSearch)
		r.Post("/chat", s.handleChat)

		r.Route("/wishlist", func(r chi.Router) {
			r.Get("/", s.handleWishlistList)
			r.Post("/", s.handleWishlistToggle)
			r.Delete("/{id}", s.handleWishlistRemove)
		})
		r.Route("/reviews", func(r chi.Router) {
			r.Get("/", s.handleReviewList)
			r.Post("/", s.handleReviewAdd)
			r.Delete("/{id}", s.handleReviewRemove)
		})
		r.Route("/queries", func(r chi.Router) {
			r.Get("/", s.handleQueryList)
			r.Post("/", s.handleQueryToggle)
			r.Delete("/{id}", s.handleQueryRemove)
		})
		r.Route("/chats", func(r chi.Router) {
			r.Get("/", s.handleChatList)
			r.Get("/{id}", s.handleChatGet)
			r.Delete("/{id}", s.handleChatDelete)
		})
	})

	return r
}

// requestLogger logs each request, threads the chi request id into the
// log context, and scopes a span over the handler.
func (s *Server) requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ctx := observability.WithRequestID(r.Context(), chimw.GetReqID(r.Context()))
		ctx, span := s.tracer.StartAPISpan(ctx, r.Method, r.URL.Path)
		wrapped := chimw.NewWrapResponseWriter(w, r.ProtoMajor)

		next.ServeHTTP(wrapped, r.WithContext(ctx))

		span.SetAttribute("http.status", wrapped.Status())
		span.End()

		s.logger.InfoContext(ctx, "HTTP request",
			logfields.Method(r.Method),
			logfields.Path(r.URL.Path),
			logfields.Status(wrapped.Status()),
			slog.Duration("duration", time.Since(start)),
			logfields.UserAgent(r.UserAgent()),
			logfields.RemoteAddr(r.RemoteAddr))
	})
}

// corsMiddleware allows the configured origins. An empty list or "*"
// allows everyone, matching the original proxy's policy.
func (s *Server) corsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		origin := r.Header.Get("Origin")
		if origin != "" && s.originAllowed(origin) {
			w.Header().Set("Access-Control-Allow-Origin", allowOriginValue(s.cfg.AllowedOrigins, origin))
			w.Header().Set("Access-Control-Allow-Methods", "GET, POST, DELETE, OPTIONS")
			w.Header().Set("Access-Control-Allow-Headers", strings.Join([]string{
				"Content-Type", "x-amazon-access-key", "x-amazon-secret-key", "x-amazon-partner-tag",
			}, ", "))
		}
		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusNoContent)
			return
		}
		next.ServeHTTP(w, r)
	})
}

func (s *Server) originAllowed(origin string) bool {
	if len(s.cfg.AllowedOrigins) == 0 {
		return true
	}
	for _, allowed := range s.cfg.AllowedOrigins {
		if allowed == "*" || strings.EqualFold(allowed, origin) {
			return true
		}
	}
	return false
}

func allowOriginValue(allowed []string, origin string) string {
	if len(allowed) == 0 {
		return "*"
	}
	for _, a := range allowed {
		if a == "*" {
			return "*"
		}
	}
	return origin
}
