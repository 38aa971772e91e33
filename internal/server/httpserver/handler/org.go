package handler

import (
	"net/http"

	"github.com/yndnr/govmesh-go/internal/core/domain"
)

// defaultEventLimit bounds GET .../events when no limit is given.
const defaultEventLimit = 100

// handleCreateOrganization handles POST /v1/orgs.
func (h *Handler) handleCreateOrganization(w http.ResponseWriter, r *http.Request) {
	who, err := caller(r)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	var req CreateOrganizationRequest
	if err := decode(w, r, &req); err != nil {
		h.writeError(w, r, err)
		return
	}

	org, err := h.gov.CreateOrganization(r.Context(), who, req.ID, req.Name)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	h.writeJSON(w, r, http.StatusCreated, org)
}

// handleGetOrganization handles GET /v1/orgs/{org}.
func (h *Handler) handleGetOrganization(w http.ResponseWriter, r *http.Request) {
	org, err := h.gov.Organization(r.Context(), pathAddress(r, "org"))
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	h.writeJSON(w, r, http.StatusOK, org)
}

// handleChangeOwner handles POST /v1/orgs/{org}/owner.
func (h *Handler) handleChangeOwner(w http.ResponseWriter, r *http.Request) {
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

	org, err := h.gov.ChangeOwner(r.Context(), who, pathAddress(r, "org"), req.Owner)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	h.writeJSON(w, r, http.StatusOK, org)
}

// handleSetHook handles POST /v1/orgs/{org}/hook.
func (h *Handler) handleSetHook(w http.ResponseWriter, r *http.Request) {
	who, err := caller(r)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	var req SetHookRequest
	if err := decode(w, r, &req); err != nil {
		h.writeError(w, r, err)
		return
	}

	org, err := h.gov.SetHook(r.Context(), who, pathAddress(r, "org"), req.Hook)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	h.writeJSON(w, r, http.StatusOK, org)
}

// handleIssueToken handles POST /v1/orgs/{org}/token.
func (h *Handler) handleIssueToken(w http.ResponseWriter, r *http.Request) {
	who, err := caller(r)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	var req IssueTokenRequest
	if err := decode(w, r, &req); err != nil {
		h.writeError(w, r, err)
		return
	}

	info, err := h.gov.IssueToken(r.Context(), who, pathAddress(r, "org"), domain.TokenInfo{
		Address: req.Address,
		Symbol:  req.Symbol,
		Name:    req.Name,
	})
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	h.writeJSON(w, r, http.StatusCreated, info)
}

// handleDestroyOrganization handles POST /v1/orgs/{org}/destroy.
func (h *Handler) handleDestroyOrganization(w http.ResponseWriter, r *http.Request) {
	who, err := caller(r)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	org := pathAddress(r, "org")
	if err := h.gov.DestroyOrganization(r.Context(), who, org); err != nil {
		h.writeError(w, r, err)
		return
	}
	h.writeJSON(w, r, http.StatusOK, map[string]any{"id": org, "destroyed": true})
}

// handleOrganizationEvents handles GET /v1/orgs/{org}/events.
func (h *Handler) handleOrganizationEvents(w http.ResponseWriter, r *http.Request) {
	h.writeEvents(w, r, pathAddress(r, "org"))
}

// handleSetConfiguration handles PUT and POST /v1/orgs/{org}/configuration.
func (h *Handler) handleSetConfiguration(w http.ResponseWriter, r *http.Request) {
	who, err := caller(r)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	var cfg domain.Configuration
	if err := decode(w, r, &cfg); err != nil {
		h.writeError(w, r, err)
		return
	}

	stored, err := h.gov.SetConfiguration(r.Context(), who, pathAddress(r, "org"), cfg)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	h.writeJSON(w, r, http.StatusOK, stored)
}

// handleGetConfiguration handles GET /v1/orgs/{org}/configuration.
func (h *Handler) handleGetConfiguration(w http.ResponseWriter, r *http.Request) {
	cfg, err := h.gov.GetConfiguration(r.Context(), pathAddress(r, "org"))
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	h.writeJSON(w, r, http.StatusOK, cfg)
}

// handleRemoveConfiguration handles POST /v1/orgs/{org}/configuration/remove.
func (h *Handler) handleRemoveConfiguration(w http.ResponseWriter, r *http.Request) {
	who, err := caller(r)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	org := pathAddress(r, "org")
	if err := h.gov.RemoveConfiguration(r.Context(), who, org); err != nil {
		h.writeError(w, r, err)
		return
	}
	h.writeJSON(w, r, http.StatusOK, map[string]any{"id": org, "removed": true})
}

// writeEvents serves the tail of the in-memory event buffer, filtered by
// org when it is non-empty.
func (h *Handler) writeEvents(w http.ResponseWriter, r *http.Request, org domain.Address) {
	if h.events == nil {
		h.writeError(w, r, domain.ErrServiceUnavailable.WithDetails("event buffer disabled"))
		return
	}
	limit, err := queryLimit(r, defaultEventLimit)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	h.writeJSON(w, r, http.StatusOK, h.events.Recent(org, limit))
}
