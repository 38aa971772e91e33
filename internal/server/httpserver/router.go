package httpserver

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/yndnr/govmesh-go/internal/core/domain"
	"github.com/yndnr/govmesh-go/internal/core/service"
	"github.com/yndnr/govmesh-go/internal/server/httpserver/handler"
	"github.com/yndnr/govmesh-go/internal/telemetry/metric"
)

// RouterConfig holds configuration for the HTTP router.
type RouterConfig struct {
	// Governor serves every governance call.
	Governor *service.Governor

	// Admin verifies X-Admin-Key. Nil disables the admin API.
	Admin *service.AdminAuth

	// Limiter throttles per client IP. Nil disables rate limiting.
	Limiter *service.RateLimiterRegistry

	// Metrics backs /metrics and the request counters. Nil disables both.
	Metrics *metric.Registry

	// Events exposes recent events over the API when set.
	Events *service.MemorySink

	// Ready is the readiness probe behind /ready.
	Ready func(context.Context) error

	// AdminAllowList is the IP/CIDR allowlist for the admin API
	// (empty = no restriction).
	AdminAllowList []string

	// CORSOrigins is the list of allowed CORS origins (empty = CORS off).
	CORSOrigins []string

	Logger *slog.Logger
}

// NewRouter creates the HTTP router with all routes and middleware.
//
// Every route gets RequestID, Recover, Audit and the rate limiter. Mutating
// routes add Principal; admin routes add NetworkACL and AdminAuth.
func NewRouter(cfg *RouterConfig) http.Handler {
	log := cfg.Logger
	if log == nil {
		log = slog.Default()
	}
	admin := cfg.Admin
	if admin == nil {
		admin = service.NewAdminAuth("")
	}

	var opts []handler.Option
	if cfg.Events != nil {
		opts = append(opts, handler.WithEvents(cfg.Events))
	}
	if cfg.Ready != nil {
		opts = append(opts, handler.WithReadiness(cfg.Ready))
	}
	h := handler.New(cfg.Governor, log, opts...)

	base := []Middleware{RequestID(), Recover(log)}
	if len(cfg.CORSOrigins) > 0 {
		base = append(base, CORS(cfg.CORSOrigins))
	}
	base = append(base, Audit(log, cfg.Metrics))
	if cfg.Limiter != nil {
		base = append(base, RateLimit(cfg.Limiter, cfg.Metrics))
	}

	scoped := map[handler.Scope][]Middleware{
		handler.ScopePublic:    base,
		handler.ScopePrincipal: append(clone(base), Principal(cfg.Metrics)),
		handler.ScopeAdmin: append(clone(base),
			NetworkACL(cfg.AdminAllowList, log),
			AdminAuth(admin, cfg.Metrics, log),
		),
	}

	mux := http.NewServeMux()
	for _, route := range h.Routes() {
		mux.Handle(route.Pattern, Chain(route.Handler, scoped[route.Scope]...))
	}

	if cfg.Metrics != nil {
		mux.Handle("GET /metrics", Chain(cfg.Metrics.Handler(), RequestID(), Recover(log)))
	}

	// Unknown paths still get the envelope.
	mux.Handle("/", Chain(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		handler.WriteError(w, r, nil, domain.ErrRouteNotFound.WithDetailsf("%s %s", r.Method, r.URL.Path))
	}), base...))

	return mux
}

func clone(ms []Middleware) []Middleware {
	return append([]Middleware(nil), ms...)
}
