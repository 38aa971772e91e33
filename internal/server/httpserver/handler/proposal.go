package handler

import (
	"net/http"

	"github.com/yndnr/govmesh-go/internal/core/domain"
)

// handleCreateProposal handles POST /v1/orgs/{org}/proposals.
func (h *Handler) handleCreateProposal(w http.ResponseWriter, r *http.Request) {
	who, err := caller(r)
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	id, err := h.gov.CreateProposal(r.Context(), who, pathAddress(r, "org"))
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	h.writeJSON(w, r, http.StatusCreated, CreateProposalResponse{ID: id})
}

// handleActiveProposals handles GET /v1/orgs/{org}/proposals.
func (h *Handler) handleActiveProposals(w http.ResponseWriter, r *http.Request) {
	active, err := h.gov.ActiveProposals(r.Context(), pathAddress(r, "org"))
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	if active == nil {
		active = []domain.ActiveProposal{}
	}
	h.writeJSON(w, r, http.StatusOK, active)
}

// handleSetMetadata handles POST /v1/orgs/{org}/proposals/{id}/metadata.
func (h *Handler) handleSetMetadata(w http.ResponseWriter, r *http.Request) {
	who, err := caller(r)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	id, err := pathUint32(r, "id")
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	var meta domain.Metadata
	if err := decode(w, r, &meta); err != nil {
		h.writeError(w, r, err)
		return
	}

	if err := h.gov.SetMetadata(r.Context(), who, pathAddress(r, "org"), id, meta); err != nil {
		h.writeError(w, r, err)
		return
	}
	h.writeJSON(w, r, http.StatusOK, meta)
}

// handleGetMetadata handles GET /v1/proposals/{id}/metadata.
func (h *Handler) handleGetMetadata(w http.ResponseWriter, r *http.Request) {
	id, err := pathUint32(r, "id")
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	meta, err := h.gov.GetMetadata(r.Context(), id)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	h.writeJSON(w, r, http.StatusOK, meta)
}

// handleArchivedProposal handles GET /v1/proposals/{id}.
func (h *Handler) handleArchivedProposal(w http.ResponseWriter, r *http.Request) {
	id, err := pathUint32(r, "id")
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	p, err := h.gov.ArchivedProposal(r.Context(), id)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	h.writeJSON(w, r, http.StatusOK, p)
}

// handleVote handles POST /v1/orgs/{org}/proposals/{id}/votes.
func (h *Handler) handleVote(w http.ResponseWriter, r *http.Request) {
	who, err := caller(r)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	id, err := pathUint32(r, "id")
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	var req VoteRequest
	if err := decode(w, r, &req); err != nil {
		h.writeError(w, r, err)
		return
	}
	if req.InFavor == nil {
		h.writeError(w, r, domain.ErrMissingArgument.WithDetails("in_favor"))
		return
	}

	res, err := h.gov.Vote(r.Context(), who, pathAddress(r, "org"), id, *req.InFavor)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	h.writeJSON(w, r, http.StatusOK, res)
}

// handleVoteOf handles GET /v1/proposals/{id}/votes/{voter}.
func (h *Handler) handleVoteOf(w http.ResponseWriter, r *http.Request) {
	id, err := pathUint32(r, "id")
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	voter := pathAddress(r, "voter")
	rec, found, err := h.gov.VoteOf(r.Context(), id, voter)
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	resp := VoteOfResponse{Voter: voter, Voted: found}
	if found {
		resp.InFavor = rec.InFavor
		resp.Power = &rec.Power
	}
	h.writeJSON(w, r, http.StatusOK, resp)
}

// handleFaultProposal handles POST /v1/orgs/{org}/proposals/{id}/fault.
func (h *Handler) handleFaultProposal(w http.ResponseWriter, r *http.Request) {
	who, err := caller(r)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	id, err := pathUint32(r, "id")
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	var req FaultRequest
	if err := decode(w, r, &req); err != nil {
		h.writeError(w, r, err)
		return
	}

	p, err := h.gov.FaultProposal(r.Context(), who, pathAddress(r, "org"), id, req.Reason)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	h.writeJSON(w, r, http.StatusOK, p)
}

// handleFinalizeProposal handles POST /v1/orgs/{org}/proposals/{id}/finalize.
// Anyone may finalize once the voting period is over.
func (h *Handler) handleFinalizeProposal(w http.ResponseWriter, r *http.Request) {
	id, err := pathUint32(r, "id")
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	p, err := h.gov.FinalizeProposal(r.Context(), pathAddress(r, "org"), id)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	h.writeJSON(w, r, http.StatusOK, p)
}

// handleMarkImplemented handles POST /v1/proposals/{id}/implemented.
func (h *Handler) handleMarkImplemented(w http.ResponseWriter, r *http.Request) {
	who, err := caller(r)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	id, err := pathUint32(r, "id")
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	p, err := h.gov.MarkImplemented(r.Context(), who, id)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	h.writeJSON(w, r, http.StatusOK, p)
}
