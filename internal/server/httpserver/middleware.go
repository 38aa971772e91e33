package httpserver

import (
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"strings"
	"time"

	"github.com/oklog/ulid/v2"

	"github.com/yndnr/govmesh-go/internal/core/domain"
	"github.com/yndnr/govmesh-go/internal/core/service"
	"github.com/yndnr/govmesh-go/internal/server/httpserver/handler"
	"github.com/yndnr/govmesh-go/internal/telemetry/logger"
	"github.com/yndnr/govmesh-go/internal/telemetry/metric"
)

// Header names understood by the server.
const (
	HeaderRequestID = "X-Request-ID"
	HeaderPrincipal = "X-Principal"
	HeaderAdminKey  = "X-Admin-Key"
)

// Middleware wraps an http.Handler with additional functionality.
type Middleware func(http.Handler) http.Handler

// Chain chains multiple middlewares together. The first middleware is the
// outermost.
func Chain(h http.Handler, middlewares ...Middleware) http.Handler {
	for i := len(middlewares) - 1; i >= 0; i-- {
		h = middlewares[i](h)
	}
	return h
}

// RequestID assigns each request an ID, reusing a client supplied
// X-Request-ID, and stores it in the request context.
func RequestID() Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			requestID := r.Header.Get(HeaderRequestID)
			if requestID == "" || len(requestID) > 128 {
				requestID = "req-" + ulid.Make().String()
			}
			w.Header().Set(HeaderRequestID, requestID)

			ctx := logger.WithRequestID(r.Context(), requestID)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// Recover turns a panic into GM-SYS-5000.
func Recover(log *slog.Logger) Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			defer func() {
				if rec := recover(); rec != nil {
					log.Error("panic recovered",
						"request_id", logger.RequestIDFromContext(r.Context()),
						"error", rec,
						"path", r.URL.Path,
					)
					handler.WriteError(w, r, nil, domain.ErrInternalServer)
				}
			}()

			next.ServeHTTP(w, r)
		})
	}
}

// RateLimit throttles each client IP through limiter.
func RateLimit(limiter *service.RateLimiterRegistry, metrics *metric.Registry) Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if !limiter.Allow(getClientIP(r)) {
				if metrics != nil {
					metrics.IncRateLimited()
				}
				w.Header().Set("Retry-After", "1")
				handler.WriteError(w, r, nil, domain.ErrRateLimited)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// Principal reads the caller identity from X-Principal. The authentication
// layer in front of the server is trusted to have set it.
func Principal(metrics *metric.Registry) Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			p := domain.Address(strings.TrimSpace(r.Header.Get(HeaderPrincipal)))
			if p == "" {
				authFailure(metrics, "principal_missing")
				handler.WriteError(w, r, nil, domain.ErrPrincipalMissing)
				return
			}
			if err := domain.ValidateAddress("principal", p); err != nil {
				authFailure(metrics, "principal_invalid")
				handler.WriteError(w, r, nil, err)
				return
			}
			ctx := logger.WithPrincipal(handler.WithPrincipal(r.Context(), p), string(p))
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// AdminAuth verifies X-Admin-Key. Admin routes answer GM-AUTH-4030 when no
// admin key hash is configured.
func AdminAuth(auth *service.AdminAuth, metrics *metric.Registry, log *slog.Logger) Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if err := auth.Verify(r.Header.Get(HeaderAdminKey)); err != nil {
				reason := "admin_key_invalid"
				if !auth.Enabled() {
					reason = "admin_disabled"
				}
				authFailure(metrics, reason)
				log.Warn("admin request rejected",
					"request_id", logger.RequestIDFromContext(r.Context()),
					"reason", reason,
					"client_ip", getClientIP(r),
					"path", r.URL.Path,
				)
				handler.WriteError(w, r, nil, err)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

func authFailure(metrics *metric.Registry, reason string) {
	if metrics != nil {
		metrics.IncAuthFailure(reason)
	}
}

// Audit logs each request and records it in metrics under its route
// pattern.
func Audit(log *slog.Logger, metrics *metric.Registry) Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			wrapped := &responseWriter{ResponseWriter: w, statusCode: http.StatusOK}

			next.ServeHTTP(wrapped, r)

			duration := time.Since(start)
			route := r.Pattern
			if route == "" {
				route = "unmatched"
			}
			if metrics != nil {
				metrics.RecordRequest(r.Method, route, wrapped.statusCode, duration)
			}

			attrs := []any{
				"request_id", logger.RequestIDFromContext(r.Context()),
				"method", r.Method,
				"path", r.URL.Path,
				"status", wrapped.statusCode,
				"duration_ms", duration.Milliseconds(),
				"client_ip", getClientIP(r),
			}
			if p, ok := handler.PrincipalFromContext(r.Context()); ok {
				attrs = append(attrs, "principal", string(p))
			}
			if code := wrapped.Header().Get("X-Error-Code"); code != "" {
				attrs = append(attrs, "error_code", code)
			}

			switch {
			case wrapped.statusCode >= 500:
				log.Error("request completed with error", attrs...)
			case wrapped.statusCode >= 400:
				log.Warn("request completed with client error", attrs...)
			default:
				log.Debug("request completed", attrs...)
			}
		})
	}
}

// NetworkACL restricts access to the listed IPs and CIDR blocks. An empty
// list allows everyone. Invalid entries are skipped with a warning.
func NetworkACL(allowList []string, log *slog.Logger) Middleware {
	var (
		networks  []*net.IPNet
		singleIPs []net.IP
	)
	for _, entry := range allowList {
		if strings.Contains(entry, "/") {
			_, ipNet, err := net.ParseCIDR(entry)
			if err != nil {
				log.Warn("invalid CIDR in allowlist", "entry", entry, "error", err)
				continue
			}
			networks = append(networks, ipNet)
			continue
		}
		ip := net.ParseIP(entry)
		if ip == nil {
			log.Warn("invalid IP in allowlist", "entry", entry)
			continue
		}
		singleIPs = append(singleIPs, ip)
	}

	allowed := func(ip net.IP) bool {
		for _, a := range singleIPs {
			if a.Equal(ip) {
				return true
			}
		}
		for _, n := range networks {
			if n.Contains(ip) {
				return true
			}
		}
		return false
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if len(networks) == 0 && len(singleIPs) == 0 {
				next.ServeHTTP(w, r)
				return
			}

			clientIP := getClientIP(r)
			ip := net.ParseIP(clientIP)
			if ip == nil || !allowed(ip) {
				log.Warn("request denied by network ACL",
					"client_ip", clientIP,
					"path", r.URL.Path,
				)
				handler.WriteError(w, r, nil, domain.ErrPermissionDenied.WithDetails(fmt.Sprintf("address %s not in allowlist", clientIP)))
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// CORS adds Cross-Origin Resource Sharing headers for allowedOrigins.
// "*" allows any origin.
func CORS(allowedOrigins []string) Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			origin := r.Header.Get("Origin")

			allowed := false
			for _, o := range allowedOrigins {
				if o == "*" || o == origin {
					allowed = true
					break
				}
			}

			if allowed && origin != "" {
				w.Header().Set("Access-Control-Allow-Origin", origin)
				w.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, OPTIONS")
				w.Header().Set("Access-Control-Allow-Headers", "Content-Type, X-Principal, X-Admin-Key, X-Request-ID")
				w.Header().Set("Access-Control-Max-Age", "86400")
				w.Header().Add("Vary", "Origin")
			}

			if r.Method == http.MethodOptions {
				w.WriteHeader(http.StatusNoContent)
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

// responseWriter wraps http.ResponseWriter to capture status code.
type responseWriter struct {
	http.ResponseWriter
	statusCode  int
	wroteHeader bool
}

func (w *responseWriter) WriteHeader(code int) {
	if !w.wroteHeader {
		w.statusCode = code
		w.wroteHeader = true
	}
	w.ResponseWriter.WriteHeader(code)
}

// Unwrap lets http.ResponseController reach the underlying writer.
func (w *responseWriter) Unwrap() http.ResponseWriter {
	return w.ResponseWriter
}

// getClientIP extracts the client IP from the request.
func getClientIP(r *http.Request) string {
	if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
		parts := strings.Split(xff, ",")
		return strings.TrimSpace(parts[0])
	}
	if xri := r.Header.Get("X-Real-IP"); xri != "" {
		return xri
	}

	// net.SplitHostPort handles IPv6 addresses like [::1]:8080
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
