package handler

import (
	"context"

	"github.com/yndnr/govmesh-go/internal/core/domain"
)

type contextKey string

const principalKey contextKey = "principal"

// WithPrincipal stores the authenticated caller in ctx.
func WithPrincipal(ctx context.Context, p domain.Address) context.Context {
	return context.WithValue(ctx, principalKey, p)
}

// PrincipalFromContext returns the caller stored by WithPrincipal.
func PrincipalFromContext(ctx context.Context) (domain.Address, bool) {
	p, ok := ctx.Value(principalKey).(domain.Address)
	return p, ok && p != ""
}
