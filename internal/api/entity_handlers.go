package api

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"

	"dashboard-sync-service/internal/store"
)

func idParam(w http.ResponseWriter, r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil || id <= 0 {
		writeError(w, http.StatusBadRequest, "invalid id")
		return 0, false
	}
	return id, true
}

type statusUpdate struct {
	Status string `json:"status"`
}

func (u statusUpdate) valid() bool {
	return strings.TrimSpace(u.Status) != ""
}

// ListIncidents returns every incident, or only those of ?type=.
func (h *Handler) ListIncidents(w http.ResponseWriter, r *http.Request) {
	var (
		incidents []store.Incident
		err       error
	)
	if t := r.URL.Query().Get("type"); t != "" {
		incidents, err = h.store.ListIncidentsByType(r.Context(), t)
	} else {
		incidents, err = h.store.ListIncidents(r.Context())
	}
	if err != nil {
		h.internalError(w, "list incidents", err)
		return
	}
	writeJSON(w, http.StatusOK, incidents)
}

func (h *Handler) UpdateIncidentStatus(w http.ResponseWriter, r *http.Request) {
	id, ok := idParam(w, r)
	if !ok {
		return
	}
	var req statusUpdate
	if err := decode(w, r, &req); err != nil || !req.valid() {
		writeError(w, http.StatusBadRequest, "status is required")
		return
	}

	inc, err := h.store.GetIncident(r.Context(), id)
	if err != nil {
		h.internalError(w, "get incident", err)
		return
	}
	if inc == nil {
		writeError(w, http.StatusNotFound, "incident not found")
		return
	}
	inc.Status = strings.TrimSpace(req.Status)
	if err := h.store.SaveIncident(r.Context(), inc); err != nil {
		h.internalError(w, "save incident", err)
		return
	}
	writeJSON(w, http.StatusOK, inc)
}

func (h *Handler) DeleteIncident(w http.ResponseWriter, r *http.Request) {
	id, ok := idParam(w, r)
	if !ok {
		return
	}
	if err := h.store.DeleteIncident(r.Context(), id); err != nil {
		h.internalError(w, "delete incident", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// ListDatasets returns every dataset, or only those from ?source=.
func (h *Handler) ListDatasets(w http.ResponseWriter, r *http.Request) {
	var (
		datasets []store.Dataset
		err      error
	)
	if src := r.URL.Query().Get("source"); src != "" {
		datasets, err = h.store.ListDatasetsBySource(r.Context(), src)
	} else {
		datasets, err = h.store.ListDatasets(r.Context())
	}
	if err != nil {
		h.internalError(w, "list datasets", err)
		return
	}
	writeJSON(w, http.StatusOK, datasets)
}

func (h *Handler) UpdateDatasetSize(w http.ResponseWriter, r *http.Request) {
	id, ok := idParam(w, r)
	if !ok {
		return
	}
	var req struct {
		SizeMB *float64 `json:"size_mb"`
	}
	if err := decode(w, r, &req); err != nil || req.SizeMB == nil || *req.SizeMB < 0 {
		writeError(w, http.StatusBadRequest, "size_mb must be a non-negative number")
		return
	}

	ds, err := h.store.GetDataset(r.Context(), id)
	if err != nil {
		h.internalError(w, "get dataset", err)
		return
	}
	if ds == nil {
		writeError(w, http.StatusNotFound, "dataset not found")
		return
	}
	ds.SizeMB = *req.SizeMB
	if err := h.store.SaveDataset(r.Context(), ds); err != nil {
		h.internalError(w, "save dataset", err)
		return
	}
	writeJSON(w, http.StatusOK, ds)
}

func (h *Handler) DeleteDataset(w http.ResponseWriter, r *http.Request) {
	id, ok := idParam(w, r)
	if !ok {
		return
	}
	if err := h.store.DeleteDataset(r.Context(), id); err != nil {
		h.internalError(w, "delete dataset", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) ListTickets(w http.ResponseWriter, r *http.Request) {
	tickets, err := h.store.ListTickets(r.Context())
	if err != nil {
		h.internalError(w, "list tickets", err)
		return
	}
	writeJSON(w, http.StatusOK, tickets)
}

func (h *Handler) UpdateTicketStatus(w http.ResponseWriter, r *http.Request) {
	id, ok := idParam(w, r)
	if !ok {
		return
	}
	var req statusUpdate
	if err := decode(w, r, &req); err != nil || !req.valid() {
		writeError(w, http.StatusBadRequest, "status is required")
		return
	}

	t, err := h.store.GetTicket(r.Context(), id)
	if err != nil {
		h.internalError(w, "get ticket", err)
		return
	}
	if t == nil {
		writeError(w, http.StatusNotFound, "ticket not found")
		return
	}
	t.Status = strings.TrimSpace(req.Status)
	if err := h.store.SaveTicket(r.Context(), t); err != nil {
		h.internalError(w, "save ticket", err)
		return
	}
	writeJSON(w, http.StatusOK, t)
}

func (h *Handler) DeleteTicket(w http.ResponseWriter, r *http.Request) {
	id, ok := idParam(w, r)
	if !ok {
		return
	}
	if err := h.store.DeleteTicket(r.Context(), id); err != nil {
		h.internalError(w, "delete ticket", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
