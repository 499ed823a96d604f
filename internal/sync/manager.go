package sync

import (
	"context"
	"database/sql"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"dashboard-sync-service/internal/config"
	"dashboard-sync-service/internal/logger"
	"dashboard-sync-service/internal/store"
)

// Manager owns the configured sources and serialises every run against them.
// Watermarks live in the store, never in the manager.
type Manager struct {
	cfg     config.SyncConfig
	store   store.Store
	engine  *Engine
	sources map[string]Source
	order   []string
	mu      sync.Mutex
}

func NewManager(cfg *config.Config, st store.Store) *Manager {
	m := &Manager{
		cfg:     cfg.Sync,
		store:   st,
		engine:  NewEngine(st, cfg.Sync),
		sources: make(map[string]Source),
	}
	m.register(IncidentSchema, cfg.Sources.Incidents)
	m.register(DatasetSchema, cfg.Sources.Datasets)
	m.register(TicketSchema, cfg.Sources.Tickets)
	return m
}

func (m *Manager) register(s Schema, path string) {
	if path == "" {
		logger.Log.Warn("No file configured for source, skipping", zap.String("source", s.Name))
		return
	}
	m.sources[s.Name] = Source{Schema: s, Path: path}
	m.order = append(m.order, s.Name)
}

// Sources returns the registered sources in registration order.
func (m *Manager) Sources() []Source {
	out := make([]Source, 0, len(m.order))
	for _, name := range m.order {
		out = append(out, m.sources[name])
	}
	return out
}

func (m *Manager) Source(name string) (Source, bool) {
	s, ok := m.sources[name]
	return s, ok
}

// SyncIfChanged reconciles the source only when its file moved past the
// stored watermark.
func (m *Manager) SyncIfChanged(ctx context.Context, name string) (*Outcome, error) {
	return m.SyncSource(ctx, name, false)
}

// SyncSource runs the engine for one source and persists its watermark and
// history. Runs never overlap.
func (m *Manager) SyncSource(ctx context.Context, name string, force bool) (*Outcome, error) {
	src, ok := m.sources[name]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrSourceUnknown, name)
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	state, err := m.store.GetSyncState(ctx, name)
	if err != nil {
		return nil, fmt.Errorf("load sync state for %s: %w", name, err)
	}
	wm := Watermark{}
	if state != nil {
		wm.ModTime = state.Watermark()
		wm.Checksum = state.Checksum
	}

	out := m.engine.Run(ctx, src, wm, force)
	if out.Status == StatusSkipped && !out.Advance {
		logger.Log.Debug("Sync skipped", zap.String("source", name), zap.String("reason", out.Reason))
		return out, nil
	}

	m.log(out)

	if out.Status != StatusSkipped {
		if err := m.recordHistory(ctx, out); err != nil {
			logger.Log.Error("Failed to record sync history", zap.String("source", name), zap.Error(err))
		}
	}

	if state == nil {
		state = &store.SyncState{SourceName: name}
	}
	state.SourcePath = src.Path
	state.Status = string(out.Status)
	if out.Status != StatusSkipped {
		state.RowsSynced = out.Counts.Applied()
		state.ErrorMessage = nullString(out.Summary())
	}
	if out.Advance {
		state.SetWatermark(out.ModTime)
		state.Checksum = out.Checksum
	}
	if err := m.store.UpdateSyncState(ctx, state); err != nil {
		return out, fmt.Errorf("persist sync state for %s: %w", name, err)
	}
	return out, nil
}

// SyncAll checks every source in turn. A failing source does not stop the
// others.
func (m *Manager) SyncAll(ctx context.Context) []*Outcome {
	outcomes := make([]*Outcome, 0, len(m.order))
	for _, name := range m.order {
		out, err := m.SyncIfChanged(ctx, name)
		if err != nil {
			logger.Log.Error("Sync failed", zap.String("source", name), zap.Error(err))
		}
		if out != nil {
			outcomes = append(outcomes, out)
		}
	}
	return outcomes
}

func (m *Manager) log(out *Outcome) {
	fields := []zap.Field{
		zap.String("source", out.Source),
		zap.String("status", string(out.Status)),
		zap.Int64("inserted", out.Counts.Inserted),
		zap.Int64("updated", out.Counts.Updated),
		zap.Int64("deleted", out.Counts.Deleted),
		zap.Int64("pruned", out.Counts.Pruned),
		zap.Int("row_errors", len(out.Errors)),
		zap.Bool("watermark_advanced", out.Advance),
		zap.Duration("duration", out.Duration),
	}
	switch out.Status {
	case StatusFailed:
		logger.Log.Error("Sync failed", append(fields, zap.Error(out.Err))...)
	case StatusPartial:
		logger.Log.Warn("Sync completed with row errors", append(fields, zap.String("first_error", out.Summary()))...)
	default:
		logger.Log.Info("Sync completed", append(fields, zap.String("reason", out.Reason))...)
	}
}

func (m *Manager) recordHistory(ctx context.Context, out *Outcome) error {
	return m.store.CreateSyncHistory(ctx, &store.SyncHistory{
		ID:           uuid.New().String(),
		SourceName:   out.Source,
		StartedAt:    out.StartedAt.UTC(),
		CompletedAt:  sql.NullTime{Time: out.StartedAt.Add(out.Duration).UTC(), Valid: true},
		RowsApplied:  out.Counts.Applied(),
		RowsFailed:   int64(len(out.Errors)),
		RowsPruned:   out.Counts.Pruned,
		Status:       string(out.Status),
		ErrorMessage: nullString(out.Summary()),
	})
}

// SourceStatus is the externally visible state of one source.
type SourceStatus struct {
	Source     string     `json:"source"`
	Path       string     `json:"path"`
	Policy     string     `json:"policy"`
	Status     string     `json:"status"`
	Watermark  *time.Time `json:"watermark,omitempty"`
	RowsSynced int64      `json:"rows_synced"`
	Error      string     `json:"error,omitempty"`
	UpdatedAt  *time.Time `json:"updated_at,omitempty"`
}

func (m *Manager) Status(ctx context.Context) ([]SourceStatus, error) {
	out := make([]SourceStatus, 0, len(m.order))
	for _, src := range m.Sources() {
		st := SourceStatus{
			Source: src.Name(),
			Path:   src.Path,
			Policy: src.Schema.Policy.String(),
			Status: "never_synced",
		}
		state, err := m.store.GetSyncState(ctx, src.Name())
		if err != nil {
			return nil, err
		}
		if state != nil {
			st.Status = state.Status
			st.Watermark = state.Watermark()
			st.RowsSynced = state.RowsSynced
			st.Error = state.ErrorMessage.String
			updated := state.UpdatedAt
			st.UpdatedAt = &updated
		}
		out = append(out, st)
	}
	return out, nil
}

func (m *Manager) History(ctx context.Context, source string, limit, offset int) ([]*store.SyncHistory, error) {
	if source != "" {
		if _, ok := m.sources[source]; !ok {
			return nil, fmt.Errorf("%w: %q", ErrSourceUnknown, source)
		}
	}
	return m.store.GetSyncHistory(ctx, source, limit, offset)
}

// GetStatus reports "running" while a sync holds the manager, else "idle".
func (m *Manager) GetStatus() string {
	if m.mu.TryLock() {
		m.mu.Unlock()
		return "idle"
	}
	return "running"
}

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}
