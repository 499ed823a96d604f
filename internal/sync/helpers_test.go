package sync

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"dashboard-sync-service/internal/config"
	"dashboard-sync-service/internal/database"
	"dashboard-sync-service/internal/store"
)

func newTestStore(t *testing.T) *store.SQLStore {
	t.Helper()
	db, err := database.NewDatabase(config.DatabaseConfig{
		Driver: "sqlite",
		Path:   filepath.Join(t.TempDir(), "test.db"),
	})
	if err != nil {
		t.Fatalf("open database: %v", err)
	}
	if err := db.Migrate(context.Background()); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	st := store.NewSQLStore(db)
	t.Cleanup(func() { st.Close() })
	return st
}

func writeCSV(t *testing.T, path, content string, mod time.Time) {
	t.Helper()
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write %s: %v", path, err)
	}
	if err := os.Chtimes(path, mod, mod); err != nil {
		t.Fatalf("chtimes %s: %v", path, err)
	}
}

func defaultSyncConfig() config.SyncConfig {
	return config.SyncConfig{
		StrictWatermark: true,
		MissingTokens:   DefaultMissingTokens,
	}
}

// recordingTables counts mutating statements and can fail the n-th insert.
type recordingTables struct {
	store.Tables
	mutations    int
	inserts      int
	failOnInsert int
}

func (r *recordingTables) Writer() store.TableWriter {
	return &recordingWriter{TableWriter: r.Tables.Writer(), r: r}
}

func (r *recordingTables) WithinTx(ctx context.Context, fn func(w store.TableWriter) error) error {
	return r.Tables.WithinTx(ctx, func(w store.TableWriter) error {
		return fn(&recordingWriter{TableWriter: w, r: r})
	})
}

type recordingWriter struct {
	store.TableWriter
	r *recordingTables
}

var errInjected = errors.New("injected insert failure")

func (w *recordingWriter) DeleteAll(ctx context.Context, table string) (int64, error) {
	w.r.mutations++
	return w.TableWriter.DeleteAll(ctx, table)
}

func (w *recordingWriter) Insert(ctx context.Context, table string, id *int64, cols []string, vals []any) (int64, error) {
	w.r.mutations++
	w.r.inserts++
	if w.r.failOnInsert > 0 && w.r.inserts == w.r.failOnInsert {
		return 0, errInjected
	}
	return w.TableWriter.Insert(ctx, table, id, cols, vals)
}

func (w *recordingWriter) Update(ctx context.Context, table string, id int64, cols []string, vals []any) error {
	w.r.mutations++
	return w.TableWriter.Update(ctx, table, id, cols, vals)
}

func (w *recordingWriter) Delete(ctx context.Context, table string, id int64) (int64, error) {
	w.r.mutations++
	return w.TableWriter.Delete(ctx, table, id)
}

func (w *recordingWriter) DeleteExcept(ctx context.Context, table string, keep []int64) (int64, error) {
	w.r.mutations++
	return w.TableWriter.DeleteExcept(ctx, table, keep)
}

func strPtr(s string) *string { return &s }

func idPtr(id int64) *int64 { return &id }
