// Package httpserver provides the HTTP/HTTPS server for GovMesh.
//
// This package exposes service.Governor over stdlib net/http:
//
//   - Organization endpoints: /v1/orgs, /v1/orgs/{org}/...
//   - Proposal endpoints: /v1/orgs/{org}/proposals, /v1/proposals/{id}
//   - Ledger endpoints: /v1/tokens/{token}/...
//   - Admin endpoints: /admin/v1/*
//   - Health endpoints: /health, /ready, /metrics
//
// Middleware:
//
//   - RequestID, Recover and Audit on every route
//   - RateLimit per client IP
//   - Principal on mutating routes (X-Principal header)
//   - NetworkACL and AdminAuth on admin routes (X-Admin-Key header)
package httpserver
