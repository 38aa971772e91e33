package handler

import (
	"time"

	"github.com/yndnr/govmesh-go/internal/core/domain"
	"github.com/yndnr/govmesh-go/internal/storage/kv"
)

// Response is the standard API response envelope.
// All JSON responses use this format (except /metrics which uses Prometheus
// format and /admin/v1/backup which streams raw bytes).
type Response struct {
	Code      string `json:"code"`
	Message   string `json:"message"`
	RequestID string `json:"request_id"`
	Timestamp int64  `json:"timestamp"`
	Data      any    `json:"data,omitempty"`
	Details   any    `json:"details,omitempty"`
}

// NewResponse creates a success response.
func NewResponse(requestID string, data any) *Response {
	return &Response{
		Code:      "OK",
		Message:   "Success",
		RequestID: requestID,
		Timestamp: time.Now().UnixMilli(),
		Data:      data,
	}
}

// NewErrorResponse creates an error response.
func NewErrorResponse(requestID, code, message string, details any) *Response {
	return &Response{
		Code:      code,
		Message:   message,
		RequestID: requestID,
		Timestamp: time.Now().UnixMilli(),
		Details:   details,
	}
}

// CreateOrganizationRequest is the request body for POST /v1/orgs.
type CreateOrganizationRequest struct {
	ID   domain.Address `json:"id"`
	Name string         `json:"name,omitempty"`
}

// ChangeOwnerRequest is the request body for the owner routes of
// organizations and tokens.
type ChangeOwnerRequest struct {
	Owner domain.Address `json:"owner"`
}

// SetHookRequest is the request body for POST /v1/orgs/{org}/hook.
// An empty hook clears it.
type SetHookRequest struct {
	Hook domain.Address `json:"hook"`
}

// IssueTokenRequest is the request body for POST /v1/orgs/{org}/token.
type IssueTokenRequest struct {
	Address domain.Address `json:"address"`
	Symbol  string         `json:"symbol"`
	Name    string         `json:"name"`
}

// CreateProposalResponse is the response body for
// POST /v1/orgs/{org}/proposals.
type CreateProposalResponse struct {
	ID uint32 `json:"id"`
}

// VoteRequest is the request body for POST /v1/orgs/{org}/proposals/{id}/votes.
type VoteRequest struct {
	InFavor *bool `json:"in_favor"`
}

// FaultRequest is the request body for POST /v1/orgs/{org}/proposals/{id}/fault.
type FaultRequest struct {
	Reason string `json:"reason"`
}

// VoteOfResponse is the response body for GET /v1/proposals/{id}/votes/{voter}.
type VoteOfResponse struct {
	Voter   domain.Address `json:"voter"`
	Voted   bool           `json:"voted"`
	InFavor bool           `json:"in_favor"`
	Power   *domain.Amount `json:"power,omitempty"`
}

// TransferRequest is the request body for the mint and transfer routes.
// From is only read by transfer-from.
type TransferRequest struct {
	From   domain.Address `json:"from,omitempty"`
	To     domain.Address `json:"to"`
	Amount *domain.Amount `json:"amount"`
}

// AllowanceRequest is the request body for the allowance routes.
type AllowanceRequest struct {
	Spender domain.Address `json:"spender"`
	Amount  *domain.Amount `json:"amount"`
}

// BalanceResponse is the response body for the balance routes.
type BalanceResponse struct {
	Token   domain.Address `json:"token"`
	Account domain.Address `json:"account"`
	Balance domain.Amount  `json:"balance"`
	AsOf    *uint32        `json:"as_of,omitempty"`
}

// AllowanceResponse is the response body for
// GET /v1/tokens/{token}/accounts/{account}/allowances/{spender}.
type AllowanceResponse struct {
	Token     domain.Address `json:"token"`
	Owner     domain.Address `json:"owner"`
	Spender   domain.Address `json:"spender"`
	Allowance domain.Amount  `json:"allowance"`
}

// CheckpointsResponse is the response body for
// GET /v1/tokens/{token}/accounts/{account}/checkpoints.
type CheckpointsResponse struct {
	Token       domain.Address `json:"token"`
	Account     domain.Address `json:"account"`
	Count       uint32         `json:"count"`
	Checkpoints domain.Series  `json:"checkpoints"`
}

// ClockResponse is the response body for the clock routes.
type ClockResponse struct {
	Now uint32 `json:"now"`
}

// AdvanceClockRequest is the request body for POST /admin/v1/clock/advance.
type AdvanceClockRequest struct {
	Delta uint32 `json:"delta"`
}

// StatusResponse is the response body for GET /admin/v1/status.
type StatusResponse struct {
	Version string    `json:"version"`
	Now     uint32    `json:"now"`
	Store   *kv.Stats `json:"store"`
}
