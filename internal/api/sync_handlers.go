package api

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"dashboard-sync-service/internal/store"
	"dashboard-sync-service/internal/sync"
)

const maxHistoryLimit = 500

// TriggerSync runs one source now. ?force=true ignores the watermark.
func (h *Handler) TriggerSync(w http.ResponseWriter, r *http.Request) {
	source := chi.URLParam(r, "source")
	page, ok := sourcePage(source)
	if !ok {
		writeError(w, http.StatusNotFound, "unknown sync source")
		return
	}
	if !h.enforcer.CanView(sessionFrom(r).Role, page) {
		writeError(w, http.StatusForbidden, "access denied")
		return
	}
	force, _ := strconv.ParseBool(r.URL.Query().Get("force"))

	out, err := h.syncManager.SyncSource(r.Context(), source, force)
	switch {
	case errors.Is(err, sync.ErrSourceUnknown):
		writeError(w, http.StatusNotFound, "sync source not configured")
		return
	case err != nil:
		h.internalError(w, "sync", err)
		return
	}
	writeJSON(w, http.StatusOK, newSyncResult(out))
}

func (h *Handler) GetSyncStatus(w http.ResponseWriter, r *http.Request) {
	sources, err := h.syncManager.Status(r.Context())
	if err != nil {
		h.internalError(w, "sync status", err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"status":  h.syncManager.GetStatus(),
		"sources": sources,
	})
}

type historyEntry struct {
	*store.SyncHistory
	CompletedAt *time.Time `json:"completed_at,omitempty"`
	Error       string     `json:"error,omitempty"`
}

func (h *Handler) GetSyncHistory(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	limit, offset := 50, 0
	if v := q.Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n <= 0 {
			writeError(w, http.StatusBadRequest, "limit must be a positive integer")
			return
		}
		limit = min(n, maxHistoryLimit)
	}
	if v := q.Get("offset"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 0 {
			writeError(w, http.StatusBadRequest, "offset must be a non-negative integer")
			return
		}
		offset = n
	}

	history, err := h.syncManager.History(r.Context(), q.Get("source"), limit, offset)
	if errors.Is(err, sync.ErrSourceUnknown) {
		writeError(w, http.StatusNotFound, "unknown sync source")
		return
	}
	if err != nil {
		h.internalError(w, "sync history", err)
		return
	}

	entries := make([]historyEntry, 0, len(history))
	for _, hist := range history {
		e := historyEntry{SyncHistory: hist, Error: hist.ErrorMessage.String}
		if hist.CompletedAt.Valid {
			t := hist.CompletedAt.Time
			e.CompletedAt = &t
		}
		entries = append(entries, e)
	}
	writeJSON(w, http.StatusOK, entries)
}
