package handler

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/yndnr/govmesh-go/internal/core/domain"
	"github.com/yndnr/govmesh-go/internal/core/service"
	"github.com/yndnr/govmesh-go/internal/telemetry/logger"
)

// maxBodyBytes caps request bodies. No GovMesh request comes close.
const maxBodyBytes = 1 << 20

// Scope tells the router which middleware guards a route.
type Scope int

const (
	// ScopePublic routes are readable by anyone.
	ScopePublic Scope = iota
	// ScopePrincipal routes mutate state on behalf of X-Principal.
	ScopePrincipal
	// ScopeAdmin routes require a valid X-Admin-Key.
	ScopeAdmin
)

// Route binds a method pattern to a handler.
type Route struct {
	Pattern string
	Scope   Scope
	Handler http.HandlerFunc
}

// Handler serves the GovMesh API.
type Handler struct {
	gov    *service.Governor
	events *service.MemorySink
	ready  func(context.Context) error
	logger *slog.Logger
}

// Option configures a Handler.
type Option func(*Handler)

// WithEvents exposes the recent events kept by sink.
func WithEvents(sink *service.MemorySink) Option {
	return func(h *Handler) { h.events = sink }
}

// WithReadiness sets the probe behind GET /ready.
func WithReadiness(fn func(context.Context) error) Option {
	return func(h *Handler) { h.ready = fn }
}

// New creates a Handler over gov.
func New(gov *service.Governor, log *slog.Logger, opts ...Option) *Handler {
	if log == nil {
		log = slog.Default()
	}
	h := &Handler{gov: gov, logger: log}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

// Routes returns every API route. /metrics is mounted by the router.
func (h *Handler) Routes() []Route {
	return []Route{
		// Probes
		{"GET /health", ScopePublic, h.handleHealth},
		{"GET /ready", ScopePublic, h.handleReady},
		{"GET /v1/clock", ScopePublic, h.handleClock},

		// Organizations
		{"POST /v1/orgs", ScopePrincipal, h.handleCreateOrganization},
		{"GET /v1/orgs/{org}", ScopePublic, h.handleGetOrganization},
		{"POST /v1/orgs/{org}/owner", ScopePrincipal, h.handleChangeOwner},
		{"POST /v1/orgs/{org}/hook", ScopePrincipal, h.handleSetHook},
		{"POST /v1/orgs/{org}/token", ScopePrincipal, h.handleIssueToken},
		{"POST /v1/orgs/{org}/destroy", ScopePrincipal, h.handleDestroyOrganization},
		{"GET /v1/orgs/{org}/events", ScopePublic, h.handleOrganizationEvents},

		// Configuration
		{"PUT /v1/orgs/{org}/configuration", ScopePrincipal, h.handleSetConfiguration},
		{"POST /v1/orgs/{org}/configuration", ScopePrincipal, h.handleSetConfiguration},
		{"GET /v1/orgs/{org}/configuration", ScopePublic, h.handleGetConfiguration},
		{"POST /v1/orgs/{org}/configuration/remove", ScopePrincipal, h.handleRemoveConfiguration},

		// Proposals
		{"POST /v1/orgs/{org}/proposals", ScopePrincipal, h.handleCreateProposal},
		{"GET /v1/orgs/{org}/proposals", ScopePublic, h.handleActiveProposals},
		{"POST /v1/orgs/{org}/proposals/{id}/metadata", ScopePrincipal, h.handleSetMetadata},
		{"POST /v1/orgs/{org}/proposals/{id}/votes", ScopePrincipal, h.handleVote},
		{"POST /v1/orgs/{org}/proposals/{id}/fault", ScopePrincipal, h.handleFaultProposal},
		{"POST /v1/orgs/{org}/proposals/{id}/finalize", ScopePublic, h.handleFinalizeProposal},
		{"GET /v1/proposals/{id}", ScopePublic, h.handleArchivedProposal},
		{"GET /v1/proposals/{id}/metadata", ScopePublic, h.handleGetMetadata},
		{"GET /v1/proposals/{id}/votes/{voter}", ScopePublic, h.handleVoteOf},
		{"POST /v1/proposals/{id}/implemented", ScopePrincipal, h.handleMarkImplemented},

		// Ledger
		{"GET /v1/tokens/{token}", ScopePublic, h.handleGetToken},
		{"POST /v1/tokens/{token}/owner", ScopePrincipal, h.handleSetTokenOwner},
		{"POST /v1/tokens/{token}/mint", ScopePrincipal, h.handleMint},
		{"POST /v1/tokens/{token}/transfer", ScopePrincipal, h.handleTransfer},
		{"POST /v1/tokens/{token}/transfer-from", ScopePrincipal, h.handleTransferFrom},
		{"POST /v1/tokens/{token}/allowance/increase", ScopePrincipal, h.handleIncreaseAllowance},
		{"POST /v1/tokens/{token}/allowance/decrease", ScopePrincipal, h.handleDecreaseAllowance},
		{"GET /v1/tokens/{token}/accounts/{account}", ScopePublic, h.handleBalanceOf},
		{"GET /v1/tokens/{token}/accounts/{account}/allowances/{spender}", ScopePublic, h.handleAllowance},
		{"GET /v1/tokens/{token}/accounts/{account}/balance-at/{time}", ScopePublic, h.handleBalanceAsOf},
		{"GET /v1/tokens/{token}/accounts/{account}/checkpoints", ScopePublic, h.handleCheckpoints},
		{"GET /v1/tokens/{token}/accounts/{account}/checkpoints/{index}", ScopePublic, h.handleCheckpointAt},

		// Administration
		{"GET /admin/v1/status", ScopeAdmin, h.handleAdminStatus},
		{"GET /admin/v1/orgs", ScopeAdmin, h.handleListOrganizations},
		{"GET /admin/v1/events", ScopeAdmin, h.handleAllEvents},
		{"POST /admin/v1/clock/advance", ScopeAdmin, h.handleAdvanceClock},
		{"GET /admin/v1/backup", ScopeAdmin, h.handleBackup},
	}
}

// writeJSON writes a JSON response with standard envelope format.
func (h *Handler) writeJSON(w http.ResponseWriter, r *http.Request, status int, data any) {
	reqID := requestID(r)
	response := NewResponse(reqID, data)

	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("X-Request-ID", reqID)
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(response); err != nil {
		h.logger.Error("failed to encode response", "error", err)
	}
}

// WriteError writes err in the standard envelope. Errors that are not
// domain errors are logged and reported as GM-SYS-5000.
func WriteError(w http.ResponseWriter, r *http.Request, log *slog.Logger, err error) {
	var de *domain.DomainError
	if !errors.As(err, &de) {
		if log != nil {
			log.Error("internal error", "error", err, "request_id", requestID(r))
		}
		de = domain.ErrInternalServer
	}

	var details any
	if de.Details != "" {
		details = de.Details
	}
	reqID := requestID(r)
	response := NewErrorResponse(reqID, de.Code, de.Message, details)

	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("X-Error-Code", de.Code)
	w.Header().Set("X-Request-ID", reqID)
	w.WriteHeader(StatusFromCode(de.Code))
	_ = json.NewEncoder(w).Encode(response)
}

func (h *Handler) writeError(w http.ResponseWriter, r *http.Request, err error) {
	WriteError(w, r, h.logger, err)
}

// StatusFromCode maps GM-<AREA>-<NNNN> to the HTTP status in the first
// three digits of NNNN.
func StatusFromCode(code string) int {
	n := len(code)
	if n < 4 {
		return http.StatusInternalServerError
	}
	status, err := strconv.Atoi(code[n-4 : n-1])
	if err != nil || status < 400 || status > 599 {
		return http.StatusInternalServerError
	}
	return status
}

// requestID prefers the ID assigned by the RequestID middleware.
func requestID(r *http.Request) string {
	if id := logger.RequestIDFromContext(r.Context()); id != "" {
		return id
	}
	return r.Header.Get("X-Request-ID")
}

// decode reads a JSON body into v, rejecting unknown fields.
func decode(w http.ResponseWriter, r *http.Request, v any) error {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		return domain.ErrBadRequest.WithDetailsf("invalid request body: %v", err)
	}
	return nil
}

// caller returns the principal set by the router.
func caller(r *http.Request) (domain.Address, error) {
	p, ok := PrincipalFromContext(r.Context())
	if !ok {
		return "", domain.ErrPrincipalMissing
	}
	return p, nil
}

func pathAddress(r *http.Request, name string) domain.Address {
	return domain.Address(r.PathValue(name))
}

// pathUint32 parses a numeric path segment such as a proposal id.
func pathUint32(r *http.Request, name string) (uint32, error) {
	v, err := strconv.ParseUint(r.PathValue(name), 10, 32)
	if err != nil {
		return 0, domain.ErrInvalidArgument.WithDetailsf("%s: %q is not an unsigned 32-bit integer", name, r.PathValue(name))
	}
	return uint32(v), nil
}

// queryLimit parses ?limit=, defaulting to def.
func queryLimit(r *http.Request, def int) (int, error) {
	v := r.URL.Query().Get("limit")
	if v == "" {
		return def, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil || n < 0 {
		return 0, domain.ErrInvalidArgument.WithDetailsf("limit: %q is not a non-negative integer", v)
	}
	return n, nil
}

func requireAmount(field string, a *domain.Amount) (domain.Amount, error) {
	if a == nil {
		return domain.Amount{}, domain.ErrMissingArgument.WithDetails(field)
	}
	return *a, nil
}
