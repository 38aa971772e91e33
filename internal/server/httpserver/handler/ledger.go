package handler

import (
	"context"
	"net/http"

	"github.com/yndnr/govmesh-go/internal/core/domain"
)

// handleGetToken handles GET /v1/tokens/{token}.
func (h *Handler) handleGetToken(w http.ResponseWriter, r *http.Request) {
	info, err := h.gov.Token(r.Context(), pathAddress(r, "token"))
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	h.writeJSON(w, r, http.StatusOK, info)
}

// handleSetTokenOwner handles POST /v1/tokens/{token}/owner.
func (h *Handler) handleSetTokenOwner(w http.ResponseWriter, r *http.Request) {
	who, err := caller(r)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	var req ChangeOwnerRequest
	if err := decode(w, r, &req); err != nil {
		h.writeError(w, r, err)
		return
	}

	info, err := h.gov.SetTokenOwner(r.Context(), who, pathAddress(r, "token"), req.Owner)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	h.writeJSON(w, r, http.StatusOK, info)
}

// transfer serves the mint and transfer routes, which share a body and a
// response shape. The response is the recipient balance.
func (h *Handler) transfer(w http.ResponseWriter, r *http.Request, fn func(ctx context.Context, who, token domain.Address, req TransferRequest, amount domain.Amount) error) {
	who, err := caller(r)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	var req TransferRequest
	if err := decode(w, r, &req); err != nil {
		h.writeError(w, r, err)
		return
	}
	amount, err := requireAmount("amount", req.Amount)
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	token := pathAddress(r, "token")
	if err := fn(r.Context(), who, token, req, amount); err != nil {
		h.writeError(w, r, err)
		return
	}
	h.writeBalance(w, r, token, req.To)
}

// handleMint handles POST /v1/tokens/{token}/mint.
func (h *Handler) handleMint(w http.ResponseWriter, r *http.Request) {
	h.transfer(w, r, func(ctx context.Context, who, token domain.Address, req TransferRequest, amount domain.Amount) error {
		return h.gov.Mint(ctx, who, token, req.To, amount)
	})
}

// handleTransfer handles POST /v1/tokens/{token}/transfer.
func (h *Handler) handleTransfer(w http.ResponseWriter, r *http.Request) {
	h.transfer(w, r, func(ctx context.Context, who, token domain.Address, req TransferRequest, amount domain.Amount) error {
		return h.gov.Transfer(ctx, who, token, req.To, amount)
	})
}

// handleTransferFrom handles POST /v1/tokens/{token}/transfer-from.
func (h *Handler) handleTransferFrom(w http.ResponseWriter, r *http.Request) {
	h.transfer(w, r, func(ctx context.Context, who, token domain.Address, req TransferRequest, amount domain.Amount) error {
		return h.gov.TransferFrom(ctx, who, token, req.From, req.To, amount)
	})
}

type allowanceFunc func(ctx context.Context, caller, token, spender domain.Address, amount domain.Amount) error

func (h *Handler) allowance(w http.ResponseWriter, r *http.Request, fn allowanceFunc) {
	who, err := caller(r)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	var req AllowanceRequest
	if err := decode(w, r, &req); err != nil {
		h.writeError(w, r, err)
		return
	}
	amount, err := requireAmount("amount", req.Amount)
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	token := pathAddress(r, "token")
	if err := fn(r.Context(), who, token, req.Spender, amount); err != nil {
		h.writeError(w, r, err)
		return
	}
	current, err := h.gov.Allowance(r.Context(), token, who, req.Spender)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	h.writeJSON(w, r, http.StatusOK, AllowanceResponse{
		Token:     token,
		Owner:     who,
		Spender:   req.Spender,
		Allowance: current,
	})
}

// handleIncreaseAllowance handles POST /v1/tokens/{token}/allowance/increase.
func (h *Handler) handleIncreaseAllowance(w http.ResponseWriter, r *http.Request) {
	h.allowance(w, r, h.gov.IncreaseAllowance)
}

// handleDecreaseAllowance handles POST /v1/tokens/{token}/allowance/decrease.
func (h *Handler) handleDecreaseAllowance(w http.ResponseWriter, r *http.Request) {
	h.allowance(w, r, h.gov.DecreaseAllowance)
}

// handleBalanceOf handles GET /v1/tokens/{token}/accounts/{account}.
func (h *Handler) handleBalanceOf(w http.ResponseWriter, r *http.Request) {
	h.writeBalance(w, r, pathAddress(r, "token"), pathAddress(r, "account"))
}

func (h *Handler) writeBalance(w http.ResponseWriter, r *http.Request, token, account domain.Address) {
	bal, err := h.gov.BalanceOf(r.Context(), token, account)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	h.writeJSON(w, r, http.StatusOK, BalanceResponse{Token: token, Account: account, Balance: bal})
}

// handleAllowance handles
// GET /v1/tokens/{token}/accounts/{account}/allowances/{spender}.
func (h *Handler) handleAllowance(w http.ResponseWriter, r *http.Request) {
	token, owner, spender := pathAddress(r, "token"), pathAddress(r, "account"), pathAddress(r, "spender")
	a, err := h.gov.Allowance(r.Context(), token, owner, spender)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	h.writeJSON(w, r, http.StatusOK, AllowanceResponse{Token: token, Owner: owner, Spender: spender, Allowance: a})
}

// handleBalanceAsOf handles
// GET /v1/tokens/{token}/accounts/{account}/balance-at/{time}.
func (h *Handler) handleBalanceAsOf(w http.ResponseWriter, r *http.Request) {
	at, err := pathUint32(r, "time")
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	token, account := pathAddress(r, "token"), pathAddress(r, "account")
	bal, err := h.gov.BalanceAsOf(r.Context(), token, account, at)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	h.writeJSON(w, r, http.StatusOK, BalanceResponse{Token: token, Account: account, Balance: bal, AsOf: &at})
}

// handleCheckpoints handles GET /v1/tokens/{token}/accounts/{account}/checkpoints.
func (h *Handler) handleCheckpoints(w http.ResponseWriter, r *http.Request) {
	token, account := pathAddress(r, "token"), pathAddress(r, "account")
	series, err := h.gov.Checkpoints(r.Context(), token, account)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	if series == nil {
		series = domain.Series{}
	}
	h.writeJSON(w, r, http.StatusOK, CheckpointsResponse{
		Token:       token,
		Account:     account,
		Count:       uint32(series.Len()),
		Checkpoints: series,
	})
}

// handleCheckpointAt handles
// GET /v1/tokens/{token}/accounts/{account}/checkpoints/{index}.
func (h *Handler) handleCheckpointAt(w http.ResponseWriter, r *http.Request) {
	index, err := pathUint32(r, "index")
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	cp, err := h.gov.CheckpointAt(r.Context(), pathAddress(r, "token"), pathAddress(r, "account"), index)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	h.writeJSON(w, r, http.StatusOK, cp)
}
