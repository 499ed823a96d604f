package api

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"dashboard-sync-service/internal/dashboard"
	"dashboard-sync-service/internal/logger"
	"dashboard-sync-service/internal/rbac"
	"dashboard-sync-service/internal/sync"
)

var pageSources = map[rbac.Page]string{
	rbac.PageCybersecurity: sync.SourceIncidents,
	rbac.PageDataScience:   sync.SourceDatasets,
	rbac.PageITOperations:  sync.SourceTickets,
}

func sourcePage(source string) (rbac.Page, bool) {
	for p, s := range pageSources {
		if s == source {
			return p, true
		}
	}
	return "", false
}

// syncResult is a sync outcome as reported over HTTP.
type syncResult struct {
	*sync.Outcome
	Error string `json:"error,omitempty"`
}

func newSyncResult(out *sync.Outcome) *syncResult {
	if out == nil {
		return nil
	}
	return &syncResult{Outcome: out, Error: out.Summary()}
}

type dashboardResponse struct {
	Page    rbac.Page   `json:"page"`
	Sync    *syncResult `json:"sync,omitempty"`
	Summary any         `json:"summary"`
}

// Dashboard syncs the page's source if its file changed, then returns the
// page aggregates. A failed sync is reported alongside the previous data.
func (h *Handler) Dashboard(w http.ResponseWriter, r *http.Request) {
	page, ok := rbac.ParsePage(chi.URLParam(r, "page"))
	if !ok {
		writeError(w, http.StatusNotFound, "unknown dashboard")
		return
	}
	sess := sessionFrom(r)
	if !h.enforcer.CanView(sess.Role, page) {
		writeError(w, http.StatusForbidden, "access denied")
		return
	}

	slaDays := 0
	if page == rbac.PageITOperations {
		if v := r.URL.Query().Get("sla_days"); v != "" {
			n, err := strconv.Atoi(v)
			if err != nil {
				writeError(w, http.StatusBadRequest, "sla_days must be an integer")
				return
			}
			slaDays = n
		}
	}

	ctx := r.Context()
	resp := dashboardResponse{Page: page}
	if h.cfg.Sync.SyncOnView {
		out, err := h.syncManager.SyncIfChanged(ctx, pageSources[page])
		switch {
		case errors.Is(err, sync.ErrSourceUnknown):
		case err != nil:
			logger.Log.Error("Sync on view failed", zap.String("page", string(page)), zap.Error(err))
		}
		if out != nil && out.Status != sync.StatusSkipped {
			resp.Sync = newSyncResult(out)
		}
	}

	switch page {
	case rbac.PageCybersecurity:
		incidents, err := h.store.ListIncidents(ctx)
		if err != nil {
			h.internalError(w, "list incidents", err)
			return
		}
		resp.Summary = dashboard.Cyber(incidents)
	case rbac.PageDataScience:
		datasets, err := h.store.ListDatasets(ctx)
		if err != nil {
			h.internalError(w, "list datasets", err)
			return
		}
		resp.Summary = dashboard.DataScience(datasets)
	case rbac.PageITOperations:
		tickets, err := h.store.ListTickets(ctx)
		if err != nil {
			h.internalError(w, "list tickets", err)
			return
		}
		sum, err := dashboard.IT(tickets, slaDays)
		if err != nil {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		resp.Summary = sum
	}

	writeJSON(w, http.StatusOK, resp)
}

func (h *Handler) internalError(w http.ResponseWriter, op string, err error) {
	logger.Log.Error("Request failed", zap.String("op", op), zap.Error(err))
	writeError(w, http.StatusInternalServerError, op+" failed")
}
