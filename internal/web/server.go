// Package web provides the HTTP server and handlers for the CSV staging UI.
package web

import (
	"context"
	"embed"
	"io/fs"
	"log/slog"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/JonMunkholm/CsvCombine/internal/config"
	"github.com/JonMunkholm/CsvCombine/internal/core"
	mw "github.com/JonMunkholm/CsvCombine/internal/web/middleware"
	"github.com/dustin/go-humanize"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
)

//go:embed static
var staticFiles embed.FS

// Server is the HTTP server for the CSV staging application.
type Server struct {
	cfg     *config.Config
	service *core.Service
	flash   *flashCodec
	router  *chi.Mux
	server  *http.Server

	// Precomputed dashboard labels, stable for the process lifetime.
	accept       string
	extensions   string
	maxFileLabel string
}

// NewServer creates a new Server instance wired to the given service.
func NewServer(service *core.Service, cfg *config.Config) *Server {
	s := &Server{
		cfg:     cfg,
		service: service,
		flash:   newFlashCodec(cfg.Security.SecretKey),
		router:  chi.NewRouter(),
	}

	dotted := make([]string, len(cfg.Upload.AllowedExtensions))
	for i, ext := range cfg.Upload.AllowedExtensions {
		dotted[i] = "." + ext
	}
	s.accept = strings.Join(dotted, ",")
	s.extensions = strings.Join(dotted, ", ")
	s.maxFileLabel = humanize.IBytes(uint64(cfg.Upload.MaxFileSize))

	s.setupMiddleware()
	s.setupRoutes()
	return s
}

// setupMiddleware configures middleware for all routes.
func (s *Server) setupMiddleware() {
	s.router.Use(middleware.RequestID)
	s.router.Use(mw.TrustedRealIP(s.cfg.Security.TrustedProxies))
	s.router.Use(mw.Logger)
	s.router.Use(middleware.Recoverer)
	s.router.Use(middleware.Compress(5))
	s.router.Use(middleware.Timeout(s.cfg.Server.RequestTimeout))

	// Security hardening
	s.router.Use(s.securityHeaders)

	if s.cfg.Rate.Enabled {
		limiter := newRateLimiter(s.cfg.Rate.RequestsPerMinute, s.cfg.Rate.Burst)
		s.router.Use(limiter.middleware)
	}
}

// setupRoutes configures all HTTP routes.
func (s *Server) setupRoutes() {
	staticFS, err := fs.Sub(staticFiles, "static")
	if err != nil {
		panic(err)
	}
	s.router.Handle("/static/*", http.StripPrefix("/static/", http.FileServer(http.FS(staticFS))))

	s.router.Get("/", s.handleDashboard)
	s.router.Post("/upload", s.handleUpload)
	s.router.Post("/remove/{filename}", s.handleRemove)
	s.router.Post("/combine", s.handleCombine)
	s.router.Get("/healthz", s.handleHealthz)
}

// Start begins listening on the configured address. It blocks until the
// server stops.
func (s *Server) Start() error {
	s.server = &http.Server{
		Addr:         s.cfg.Server.Addr(),
		Handler:      s.router,
		ReadTimeout:  s.cfg.Server.ReadTimeout,
		WriteTimeout: s.cfg.Server.WriteTimeout,
		IdleTimeout:  s.cfg.Server.IdleTimeout,
	}

	slog.Info("starting server", "addr", s.server.Addr)
	return s.server.ListenAndServe()
}

// Shutdown gracefully stops the server.
func (s *Server) Shutdown(ctx context.Context) error {
	if s.server == nil {
		return nil
	}
	return s.server.Shutdown(ctx)
}

// Router returns the underlying chi router for testing.
func (s *Server) Router() *chi.Mux {
	return s.router
}

// securityHeaders adds security headers to all responses.
func (s *Server) securityHeaders(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		// Prevent MIME type sniffing
		w.Header().Set("X-Content-Type-Options", "nosniff")

		// Prevent clickjacking
		w.Header().Set("X-Frame-Options", "DENY")

		// XSS protection (legacy but still useful for older browsers)
		w.Header().Set("X-XSS-Protection", "1; mode=block")

		// The UI ships no scripts and one external stylesheet, so the
		// policy can stay tight.
		if s.cfg.Security.EnableCSP {
			w.Header().Set("Content-Security-Policy", "default-src 'self'; style-src 'self'; img-src 'self' data:; form-action 'self'")
		}

		// Control referrer information
		w.Header().Set("Referrer-Policy", "strict-origin-when-cross-origin")

		next.ServeHTTP(w, r)
	})
}

// rateLimiter is a token bucket limiter per client IP. Each bucket
// holds burst tokens and refills continuously at ratePerMin tokens per
// minute.
type rateLimiter struct {
	mu         sync.Mutex
	visitors   map[string]*visitor
	ratePerMin int
	burst      int
}

type visitor struct {
	tokens   float64
	lastSeen time.Time
}

// newRateLimiter creates a rate limiter with the given refill rate and
// bucket size.
func newRateLimiter(ratePerMin, burst int) *rateLimiter {
	rl := &rateLimiter{
		visitors:   make(map[string]*visitor),
		ratePerMin: ratePerMin,
		burst:      burst,
	}
	// Start cleanup goroutine
	go rl.cleanup()
	return rl
}

// cleanup removes visitor entries idle long enough to have refilled.
func (rl *rateLimiter) cleanup() {
	for {
		time.Sleep(time.Minute)
		rl.mu.Lock()
		for ip, v := range rl.visitors {
			if time.Since(v.lastSeen) > 3*time.Minute {
				delete(rl.visitors, ip)
			}
		}
		rl.mu.Unlock()
	}
}

// allow consumes a token for ip, refilling lazily from elapsed time.
func (rl *rateLimiter) allow(ip string) bool {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	now := time.Now()
	v, ok := rl.visitors[ip]
	if !ok {
		rl.visitors[ip] = &visitor{tokens: float64(rl.burst) - 1, lastSeen: now}
		return true
	}

	v.tokens += now.Sub(v.lastSeen).Minutes() * float64(rl.ratePerMin)
	if v.tokens > float64(rl.burst) {
		v.tokens = float64(rl.burst)
	}
	v.lastSeen = now

	if v.tokens < 1 {
		return false
	}
	v.tokens--
	return true
}

// middleware returns an HTTP middleware that rate limits by IP.
func (rl *rateLimiter) middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ip := r.RemoteAddr
		// Use X-Real-IP when the RealIP middleware resolved it
		if realIP := r.Header.Get("X-Real-IP"); realIP != "" {
			ip = realIP
		}

		if !rl.allow(ip) {
			w.Header().Set("Retry-After", "60")
			writeJSON(w, http.StatusTooManyRequests, ErrorResponse{
				Error:   "rate limit exceeded",
				Message: "Too many requests",
				Action:  "Wait a minute before trying again",
				Code:    "REQ429",
			})
			return
		}

		next.ServeHTTP(w, r)
	})
}
