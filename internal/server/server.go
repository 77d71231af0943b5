package server

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	httpSwagger "github.com/swaggo/http-swagger"

	"github.com/osse101/TriviaCast_Go/internal/config"
	"github.com/osse101/TriviaCast_Go/internal/database"
	"github.com/osse101/TriviaCast_Go/internal/handler"
	"github.com/osse101/TriviaCast_Go/internal/lifecycle"
	"github.com/osse101/TriviaCast_Go/internal/logger"
	"github.com/osse101/TriviaCast_Go/internal/metrics"
)

type Server struct {
	httpServer *http.Server
}

// NewServer creates a new Server instance. Admin routes are only mounted when
// adminVerifier is non-nil.
func NewServer(cfg *config.Config, dbPool database.Pool, lifecycleService lifecycle.Service, adminVerifier *QuickAuthVerifier) *Server {
	return &Server{
		httpServer: &http.Server{
			Addr:              fmt.Sprintf(":%d", cfg.Port),
			Handler:           NewRouter(cfg, dbPool, lifecycleService, adminVerifier),
			ReadHeaderTimeout: ReadHeaderTimeout,
		},
	}
}

// NewRouter builds the HTTP routes and middleware stack
func NewRouter(cfg *config.Config, dbPool database.Pool, lifecycleService lifecycle.Service, adminVerifier *QuickAuthVerifier) http.Handler {
	proxies, err := ParseTrustedProxies(cfg.TrustedProxies)
	if err != nil {
		slog.Warn(LogMsgBadTrustedProxy, "error", err)
	}
	detector := NewSuspiciousActivityDetector()

	r := chi.NewRouter()

	// outermost first
	r.Use(middleware.Recoverer)
	r.Use(SecurityHeadersMiddleware())
	r.Use(SecurityLoggingMiddleware(proxies, detector))
	r.Use(RequestSizeLimitMiddleware(MaxRequestBodyBytes))
	r.Use(metrics.Middleware)
	r.Use(loggingMiddleware(proxies))

	r.Get("/healthz", handler.HandleHealthz())
	r.Get("/readyz", handler.HandleReadyz(dbPool))
	r.Get("/version", handler.HandleVersion(cfg.ServiceName, cfg.Version))
	r.Handle("/metrics", promhttp.Handler())

	lifecycleHandler := handler.NewLifecycleHandler(lifecycleService, cfg.FinalizeTimeout, cfg.SweepBatchSize)

	r.Route("/api/v1", func(r chi.Router) {
		// Shared-secret triggers: scheduled sweep and real-time game end
		r.Group(func(r chi.Router) {
			r.Use(AuthMiddleware(cfg.CronSecret, proxies, detector))
			r.Post("/cron/finalize", lifecycleHandler.HandleSweep)
			r.Post("/games/{id}/finalize", lifecycleHandler.HandleFinalizeGame)
		})

		if adminVerifier == nil {
			slog.Warn(LogMsgAdminAuthOff)
			return
		}

		r.Route("/admin/games/{id}", func(r chi.Router) {
			r.Use(AdminAuthMiddleware(adminVerifier, proxies, detector))
			r.Get("/status", lifecycleHandler.HandleGetStatus)
			r.Get("/preview", lifecycleHandler.HandlePreviewRanking)
			r.Post("/rank", lifecycleHandler.HandleRankGame)
			r.Post("/publish", lifecycleHandler.HandlePublishResults)
		})
	})

	r.Get("/swagger/*", httpSwagger.WrapHandler)

	return r
}

// statusRecorder captures the first status code written
type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (rw *statusRecorder) WriteHeader(code int) {
	if rw.status == 0 {
		rw.status = code
	}
	rw.ResponseWriter.WriteHeader(code)
}

func (rw *statusRecorder) Write(b []byte) (int, error) {
	if rw.status == 0 {
		rw.status = http.StatusOK
	}
	return rw.ResponseWriter.Write(b)
}

func (rw *statusRecorder) code() int {
	if rw.status == 0 {
		return http.StatusOK
	}
	return rw.status
}

// loggingMiddleware tags each request with an ID (reusing X-Request-ID when the
// caller sent one) and logs start and completion
func loggingMiddleware(proxies TrustedProxies) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if isQuietPath(r.URL.Path) {
				next.ServeHTTP(w, r)
				return
			}
			start := time.Now()

			requestID := strings.TrimSpace(r.Header.Get(HeaderRequestID))
			if requestID == "" || len(requestID) > MaxRequestIDLength {
				requestID = logger.GenerateRequestID()
			}
			w.Header().Set(HeaderRequestID, requestID)

			ctx := logger.WithRequestID(r.Context(), requestID)
			r = r.WithContext(ctx)
			log := logger.FromContext(ctx)

			log.Info(LogMsgRequestStarted,
				"method", r.Method,
				"path", r.URL.Path,
				"ip", proxies.ClientIP(r),
				"user_agent", r.UserAgent())
			log.Debug(LogMsgRequestHeaders, "headers", redactHeaders(r.Header))

			rw := &statusRecorder{ResponseWriter: w}
			next.ServeHTTP(rw, r)

			status := rw.code()
			level := slog.LevelInfo
			switch {
			case status >= http.StatusInternalServerError:
				level = slog.LevelError
			case status >= http.StatusBadRequest:
				level = slog.LevelWarn
			}
			log.Log(ctx, level, LogMsgRequestCompleted,
				"method", r.Method,
				"path", r.URL.Path,
				"status", status,
				"duration_ms", time.Since(start).Milliseconds())
		})
	}
}

func redactHeaders(h http.Header) http.Header {
	out := make(http.Header, len(h))
	for k, v := range h {
		if strings.EqualFold(k, HeaderAuthorization) {
			out[k] = []string{RedactedValue}
			continue
		}
		out[k] = v
	}
	return out
}

func isQuietPath(path string) bool {
	for _, p := range QuietPaths {
		if strings.HasPrefix(path, p) {
			return true
		}
	}
	return false
}

// Start starts the server
func (s *Server) Start() error {
	slog.Info(LogMsgServerStarting, "addr", s.httpServer.Addr)
	return s.httpServer.ListenAndServe()
}

// Stop stops the server gracefully
func (s *Server) Stop(ctx context.Context) error {
	return s.httpServer.Shutdown(ctx)
}
