package handler

import (
	"fmt"
	"net/http"

	"github.com/yndnr/govmesh-go/internal/core/domain"
	"github.com/yndnr/govmesh-go/internal/infra/buildinfo"
)

// handleAdminStatus handles GET /admin/v1/status.
func (h *Handler) handleAdminStatus(w http.ResponseWriter, r *http.Request) {
	stats, err := h.gov.StoreStats(r.Context())
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	h.writeJSON(w, r, http.StatusOK, StatusResponse{
		Version: buildinfo.String(),
		Now:     h.gov.Now(),
		Store:   stats,
	})
}

// handleListOrganizations handles GET /admin/v1/orgs.
func (h *Handler) handleListOrganizations(w http.ResponseWriter, r *http.Request) {
	orgs, err := h.gov.Organizations(r.Context())
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	if orgs == nil {
		orgs = []domain.Organization{}
	}
	h.writeJSON(w, r, http.StatusOK, orgs)
}

// handleAllEvents handles GET /admin/v1/events.
func (h *Handler) handleAllEvents(w http.ResponseWriter, r *http.Request) {
	h.writeEvents(w, r, domain.Address(r.URL.Query().Get("org")))
}

// handleAdvanceClock handles POST /admin/v1/clock/advance.
func (h *Handler) handleAdvanceClock(w http.ResponseWriter, r *http.Request) {
	var req AdvanceClockRequest
	if err := decode(w, r, &req); err != nil {
		h.writeError(w, r, err)
		return
	}
	now, err := h.gov.AdvanceClock(r.Context(), req.Delta)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	h.logger.Info("clock advanced", "delta", req.Delta, "now", now, "request_id", requestID(r))
	h.writeJSON(w, r, http.StatusOK, ClockResponse{Now: now})
}

// handleBackup handles GET /admin/v1/backup. The dump is streamed, so a
// failure after the first byte can only be logged.
func (h *Handler) handleBackup(w http.ResponseWriter, r *http.Request) {
	cw := &countingWriter{w: w}
	w.Header().Set("Content-Type", "application/octet-stream")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=govmesh-%d.backup", h.gov.Now()))
	w.Header().Set("X-Request-ID", requestID(r))

	if err := h.gov.Backup(r.Context(), cw); err != nil {
		if cw.n == 0 {
			w.Header().Del("Content-Disposition")
			h.writeError(w, r, err)
			return
		}
		h.logger.Error("backup aborted", "error", err, "bytes", cw.n, "request_id", requestID(r))
		return
	}
	h.logger.Info("backup streamed", "bytes", cw.n, "request_id", requestID(r))
}

type countingWriter struct {
	w http.ResponseWriter
	n int64
}

func (c *countingWriter) Write(p []byte) (int, error) {
	n, err := c.w.Write(p)
	c.n += int64(n)
	return n, err
}
