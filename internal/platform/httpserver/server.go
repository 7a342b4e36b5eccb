package httpserver

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net"
	"net/http"
	"strconv"
	"strings"
	"time"

	entitlement "fanvault/contexts/content-access/entitlement-service"
	authorization "fanvault/contexts/identity-access/authorization-service"
	onboarding "fanvault/contexts/identity-access/onboarding-service"
	"fanvault/internal/platform/ratelimit"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	httpSwagger "github.com/swaggo/http-swagger"

	_ "fanvault/internal/platform/httpserver/docs"
)

const (
	defaultRequestTimeout = 30 * time.Second
	healthCheckTimeout    = 2 * time.Second
)

// HealthCheck is one backing dependency reported by /health.
type HealthCheck struct {
	Name  string
	Check func(context.Context) error
}

// Options carries the modules and HTTP policy the server is built from.
type Options struct {
	Addr                 string
	Onboarding           onboarding.Module
	Authorization        authorization.Module
	Entitlement          entitlement.Module
	Limiter              ratelimit.Limiter
	CookieSecure         bool
	InternalBillingToken string
	CORSOrigins          []string
	RequestTimeout       time.Duration
	HealthChecks         []HealthCheck
	Logger               *slog.Logger
}

type Server struct {
	mux           *chi.Mux
	http          *http.Server
	logger        *slog.Logger
	addr          string
	onboarding    onboarding.Module
	authorization authorization.Module
	entitlement   entitlement.Module
	limiter       ratelimit.Limiter
	cookieSecure  bool
	billingToken  string
	healthChecks  []HealthCheck
}

func New(opts Options) *Server {
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	addr := opts.Addr
	if addr == "" {
		addr = ":8080"
	}
	timeout := opts.RequestTimeout
	if timeout <= 0 {
		timeout = defaultRequestTimeout
	}
	limiter := opts.Limiter
	if limiter == nil {
		limiter = ratelimit.NewMemoryLimiter(20, time.Minute)
	}

	s := &Server{
		mux:           chi.NewRouter(),
		logger:        logger,
		addr:          addr,
		onboarding:    opts.Onboarding,
		authorization: opts.Authorization,
		entitlement:   opts.Entitlement,
		limiter:       limiter,
		cookieSecure:  opts.CookieSecure,
		billingToken:  strings.TrimSpace(opts.InternalBillingToken),
		healthChecks:  opts.HealthChecks,
	}

	s.mux.Use(middleware.RequestID)
	s.mux.Use(middleware.RealIP)
	s.mux.Use(s.accessLog)
	s.mux.Use(middleware.Recoverer)
	s.mux.Use(middleware.Timeout(timeout))
	s.mux.Use(cors.Handler(cors.Options{
		AllowedOrigins:   corsOrigins(opts.CORSOrigins),
		AllowedMethods:   []string{"GET", "POST", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "Idempotency-Key", csrfHeaderName},
		ExposedHeaders:   []string{"Retry-After", "X-Request-Id"},
		AllowCredentials: true,
		MaxAge:           300,
	}))
	s.registerRoutes()

	s.http = &http.Server{
		Addr:              addr,
		Handler:           s.mux,
		ReadHeaderTimeout: 10 * time.Second,
	}
	return s
}

// Handler exposes the routed handler for embedding and tests.
func (s *Server) Handler() http.Handler {
	return s.mux
}

// Start blocks until the listener fails or Shutdown is called. A clean
// shutdown returns nil.
func (s *Server) Start() error {
	s.logger.Info("http server starting",
		"event", "http_server_starting",
		"module", "internal/platform/httpserver",
		"layer", "platform",
		"addr", s.addr,
	)
	if err := s.http.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

func (s *Server) Shutdown(ctx context.Context) error {
	s.logger.Info("http server stopping",
		"event", "http_server_stopping",
		"module", "internal/platform/httpserver",
		"layer", "platform",
	)
	return s.http.Shutdown(ctx)
}

func (s *Server) registerRoutes() {
	s.mux.Get("/health", s.handleHealth)
	s.mux.Get("/swagger/*", httpSwagger.Handler(
		httpSwagger.URL("/swagger/doc.json"),
	))

	s.mux.Post("/auth/register", s.handleRegister)
	s.mux.Post("/auth/verify-email", s.handleVerifyEmail)
	s.mux.Post("/auth/login", s.handleLogin)
	s.mux.Post("/auth/logout", s.handleLogout)
	s.mux.Get("/auth/me", s.handleMe)

	s.mux.Post("/kyc/session", s.handleCreateKYCSession)
	s.mux.Get("/kyc/status", s.handleKYCStatus)
	s.mux.Post("/kyc/complete", s.handleCompleteKYCSession)

	s.mux.Route("/admin", func(r chi.Router) {
		r.Post("/force-verify-email", s.handleForceVerifyEmail)
		r.Post("/force-state", s.handleForceState)
		r.Post("/force-role", s.handleForceRole)
		r.Post("/creators/{creator_id}/action", s.handleCreatorAction)
		r.Get("/users", s.handleListUsers)
		r.Get("/audit", s.handleListAudit)
	})

	s.mux.Post("/posts", s.handleCreatePost)
	s.mux.Get("/posts/{post_id}", s.handleGetPost)
	s.mux.Patch("/posts/{post_id}", s.handleUpdatePost)
	s.mux.Get("/vault/posts", s.handleVault)
	s.mux.Post("/media/uploads", s.handleRegisterUpload)
	s.mux.Get("/feed", s.handleFeed)
	s.mux.Get("/creators/{handle}/posts", s.handleCreatorPosts)
	s.mux.Post("/creators/{handle}/follow", s.handleFollow)
	s.mux.Delete("/creators/{handle}/follow", s.handleUnfollow)
	s.mux.Get("/ppv/posts/{post_id}/status", s.handlePPVStatus)
	s.mux.Post("/ppv/posts/{post_id}/create-intent", s.handleCreateIntent)

	s.mux.Route("/internal/billing", func(r chi.Router) {
		r.Use(s.requireBillingToken)
		r.Post("/subscriptions", s.handleIngestSubscription)
		r.Post("/purchases", s.handleIngestPurchase)
	})

	s.registerTestBypassRoutes()

	s.mux.NotFound(func(w http.ResponseWriter, _ *http.Request) {
		writeError(w, http.StatusNotFound, "not_found", "endpoint not found")
	})
	s.mux.MethodNotAllowed(func(w http.ResponseWriter, _ *http.Request) {
		writeError(w, http.StatusMethodNotAllowed, "method_not_allowed", "method not allowed")
	})
}

// healthResponse reports "ok" or "degraded"; Checks holds only failures.
type healthResponse struct {
	Status string            `json:"status"`
	Checks map[string]string `json:"checks,omitempty"`
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	resp := healthResponse{Status: "ok"}
	for _, check := range s.healthChecks {
		ctx, cancel := context.WithTimeout(r.Context(), healthCheckTimeout)
		err := check.Check(ctx)
		cancel()
		if err == nil {
			continue
		}
		if resp.Checks == nil {
			resp.Checks = make(map[string]string)
		}
		resp.Checks[check.Name] = err.Error()
		s.logger.Warn("health check failed",
			"event", "http_health_check_failed",
			"module", "internal/platform/httpserver",
			"layer", "platform",
			"check", check.Name,
			"error", err.Error(),
		)
	}
	if len(resp.Checks) > 0 {
		resp.Status = "degraded"
		writeJSON(w, http.StatusServiceUnavailable, resp)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) accessLog(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		started := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)
		s.logger.Info("http request",
			"event", "http_request_completed",
			"module", "internal/platform/httpserver",
			"layer", "platform",
			"method", r.Method,
			"path", r.URL.Path,
			"status", ww.Status(),
			"duration_ms", time.Since(started).Milliseconds(),
			"request_id", middleware.GetReqID(r.Context()),
		)
	})
}

// throttle applies the per-IP fixed window for scope. Limiter failures are
// logged and the request proceeds.
func (s *Server) throttle(w http.ResponseWriter, r *http.Request, scope string) bool {
	allowed, retryAfter, err := s.limiter.Allow(r.Context(), scope+":"+resolveClientIP(r))
	if err != nil {
		s.logger.Warn("rate limiter unavailable",
			"event", "http_rate_limiter_unavailable",
			"module", "internal/platform/httpserver",
			"layer", "platform",
			"scope", scope,
			"error", err.Error(),
		)
		return true
	}
	if !allowed {
		setRetryAfter(w, retryAfter)
		writeError(w, http.StatusTooManyRequests, "rate_limited", "too many requests")
		return false
	}
	return true
}

func (s *Server) requireBillingToken(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if s.billingToken == "" || !constantTimeEqual(r.Header.Get("X-Internal-Token"), s.billingToken) {
			writeError(w, http.StatusUnauthorized, "unauthenticated", "internal token required")
			return
		}
		next.ServeHTTP(w, r)
	})
}

// decodeJSON reads one JSON object. An empty body leaves dst untouched when
// allowEmpty is set.
func decodeJSON(w http.ResponseWriter, r *http.Request, dst any, allowEmpty bool) bool {
	decoder := json.NewDecoder(http.MaxBytesReader(w, r.Body, 1<<20))
	if err := decoder.Decode(dst); err != nil {
		if allowEmpty && errors.Is(err, io.EOF) {
			return true
		}
		writeError(w, http.StatusBadRequest, "invalid_json", "request body must be valid JSON")
		return false
	}
	return true
}

func parseLimit(w http.ResponseWriter, r *http.Request) (int, bool) {
	raw := strings.TrimSpace(r.URL.Query().Get("limit"))
	if raw == "" {
		return 0, true
	}
	limit, err := strconv.Atoi(raw)
	if err != nil || limit < 0 || limit > 100 {
		writeError(w, http.StatusBadRequest, "invalid_limit", "limit must be an integer between 0 and 100")
		return 0, false
	}
	return limit, true
}

type errorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

func writeError(w http.ResponseWriter, status int, code string, message string) {
	writeJSON(w, status, errorResponse{Code: code, Message: message})
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

func setRetryAfter(w http.ResponseWriter, after time.Duration) {
	seconds := int(after.Round(time.Second) / time.Second)
	if seconds < 1 {
		seconds = 1
	}
	w.Header().Set("Retry-After", strconv.Itoa(seconds))
}

// resolveClientIP expects RealIP to have already rewritten RemoteAddr.
func resolveClientIP(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}

func corsOrigins(origins []string) []string {
	if len(origins) == 0 {
		return []string{"http://localhost:*"}
	}
	return origins
}
