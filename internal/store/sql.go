package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jmoiron/sqlx"

	"dashboard-sync-service/internal/database"
)

// SQLStore implements Store on any of the supported SQL dialects.
type SQLStore struct {
	db *database.Database
}

func NewSQLStore(db *database.Database) *SQLStore {
	return &SQLStore{db: db}
}

func (s *SQLStore) Close() error {
	return s.db.Close()
}

func (s *SQLStore) q(query string) string {
	return s.db.DB.Rebind(query)
}

func (s *SQLStore) GetSyncState(ctx context.Context, source string) (*SyncState, error) {
	query := `SELECT source_name, source_path, watermark_ns, checksum, rows_synced, status, error_message, updated_at
			  FROM sync_state WHERE source_name = ?`

	var state SyncState
	err := s.db.DB.GetContext(ctx, &state, s.q(query), source)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &state, nil
}

func (s *SQLStore) UpdateSyncState(ctx context.Context, state *SyncState) error {
	state.UpdatedAt = time.Now().UTC()

	var n int
	if err := s.db.DB.GetContext(ctx, &n, s.q(`SELECT COUNT(*) FROM sync_state WHERE source_name = ?`), state.SourceName); err != nil {
		return err
	}

	if n > 0 {
		query := `UPDATE sync_state SET source_path = ?, watermark_ns = ?, checksum = ?, rows_synced = ?, status = ?, error_message = ?, updated_at = ?
				  WHERE source_name = ?`
		_, err := s.db.DB.ExecContext(ctx, s.q(query),
			state.SourcePath,
			state.WatermarkNS,
			state.Checksum,
			state.RowsSynced,
			state.Status,
			state.ErrorMessage,
			state.UpdatedAt,
			state.SourceName,
		)
		return err
	}

	query := `INSERT INTO sync_state (source_name, source_path, watermark_ns, checksum, rows_synced, status, error_message, updated_at)
			  VALUES (?, ?, ?, ?, ?, ?, ?, ?)`
	_, err := s.db.DB.ExecContext(ctx, s.q(query),
		state.SourceName,
		state.SourcePath,
		state.WatermarkNS,
		state.Checksum,
		state.RowsSynced,
		state.Status,
		state.ErrorMessage,
		state.UpdatedAt,
	)
	return err
}

func (s *SQLStore) CreateSyncHistory(ctx context.Context, history *SyncHistory) error {
	query := `INSERT INTO sync_history (id, source_name, started_at, completed_at, rows_applied, rows_failed, rows_pruned, status, error_message)
			  VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`

	_, err := s.db.DB.ExecContext(ctx, s.q(query),
		history.ID,
		history.SourceName,
		history.StartedAt,
		history.CompletedAt,
		history.RowsApplied,
		history.RowsFailed,
		history.RowsPruned,
		history.Status,
		history.ErrorMessage,
	)
	return err
}

func (s *SQLStore) GetSyncHistory(ctx context.Context, source string, limit, offset int) ([]*SyncHistory, error) {
	if limit <= 0 {
		limit = 50
	}
	query := `SELECT id, source_name, started_at, completed_at, rows_applied, rows_failed, rows_pruned, status, error_message FROM sync_history`
	var args []any
	if source != "" {
		query += ` WHERE source_name = ?`
		args = append(args, source)
	}
	query += ` ORDER BY started_at DESC LIMIT ? OFFSET ?`
	args = append(args, limit, offset)

	var history []*SyncHistory
	if err := s.db.DB.SelectContext(ctx, &history, s.q(query), args...); err != nil {
		return nil, err
	}
	return history, nil
}

// Incidents are listed chronologically; undated incidents sort last.
func (s *SQLStore) ListIncidents(ctx context.Context) ([]Incident, error) {
	var res []Incident
	err := s.db.DB.SelectContext(ctx, &res, `SELECT id, type, severity, status, reported_date, resolved_date
		FROM cyber_incidents ORDER BY reported_date IS NULL, reported_date, id`)
	return res, err
}

func (s *SQLStore) ListIncidentsByType(ctx context.Context, incidentType string) ([]Incident, error) {
	var res []Incident
	err := s.db.DB.SelectContext(ctx, &res, s.q(`SELECT id, type, severity, status, reported_date, resolved_date
		FROM cyber_incidents WHERE type = ? ORDER BY reported_date IS NULL, reported_date, id`), incidentType)
	return res, err
}

func (s *SQLStore) GetIncident(ctx context.Context, id int64) (*Incident, error) {
	var inc Incident
	err := s.db.DB.GetContext(ctx, &inc, s.q(`SELECT id, type, severity, status, reported_date, resolved_date FROM cyber_incidents WHERE id = ?`), id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &inc, nil
}

func (s *SQLStore) SaveIncident(ctx context.Context, incident *Incident) error {
	return s.save(ctx, IncidentsTable, &incident.ID, IncidentColumns, incident.values())
}

func (s *SQLStore) DeleteIncident(ctx context.Context, id int64) error {
	_, err := s.Writer().Delete(ctx, IncidentsTable, id)
	return err
}

func (s *SQLStore) ListDatasets(ctx context.Context) ([]Dataset, error) {
	var res []Dataset
	err := s.db.DB.SelectContext(ctx, &res, `SELECT id, dataset_name, source, size_mb, row_count, upload_date FROM datasets ORDER BY id`)
	return res, err
}

func (s *SQLStore) ListDatasetsBySource(ctx context.Context, source string) ([]Dataset, error) {
	var res []Dataset
	err := s.db.DB.SelectContext(ctx, &res, s.q(`SELECT id, dataset_name, source, size_mb, row_count, upload_date FROM datasets WHERE source = ? ORDER BY id`), source)
	return res, err
}

func (s *SQLStore) GetDataset(ctx context.Context, id int64) (*Dataset, error) {
	var ds Dataset
	err := s.db.DB.GetContext(ctx, &ds, s.q(`SELECT id, dataset_name, source, size_mb, row_count, upload_date FROM datasets WHERE id = ?`), id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &ds, nil
}

func (s *SQLStore) SaveDataset(ctx context.Context, dataset *Dataset) error {
	return s.save(ctx, DatasetsTable, &dataset.ID, DatasetColumns, dataset.values())
}

func (s *SQLStore) DeleteDataset(ctx context.Context, id int64) error {
	_, err := s.Writer().Delete(ctx, DatasetsTable, id)
	return err
}

func (s *SQLStore) ListTickets(ctx context.Context) ([]Ticket, error) {
	var res []Ticket
	err := s.db.DB.SelectContext(ctx, &res, `SELECT id, staff, status, category, opened_date, closed_date FROM it_tickets ORDER BY id`)
	return res, err
}

func (s *SQLStore) GetTicket(ctx context.Context, id int64) (*Ticket, error) {
	var t Ticket
	err := s.db.DB.GetContext(ctx, &t, s.q(`SELECT id, staff, status, category, opened_date, closed_date FROM it_tickets WHERE id = ?`), id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &t, nil
}

func (s *SQLStore) SaveTicket(ctx context.Context, ticket *Ticket) error {
	return s.save(ctx, TicketsTable, &ticket.ID, TicketColumns, ticket.values())
}

func (s *SQLStore) DeleteTicket(ctx context.Context, id int64) error {
	_, err := s.Writer().Delete(ctx, TicketsTable, id)
	return err
}

func (s *SQLStore) CreateUser(ctx context.Context, user *User) error {
	id, err := s.db.InsertReturningID(ctx, s.db.DB,
		`INSERT INTO users (username, password_hash, role) VALUES (?, ?, ?)`,
		user.Username, user.PasswordHash, user.Role)
	if err != nil {
		return err
	}
	user.ID = id
	return nil
}

// GetUserByUsername matches exactly; MySQL's default collation folds case,
// so the final comparison happens here.
func (s *SQLStore) GetUserByUsername(ctx context.Context, username string) (*User, error) {
	var candidates []User
	if err := s.db.DB.SelectContext(ctx, &candidates, s.q(`SELECT id, username, password_hash, role FROM users WHERE username = ?`), username); err != nil {
		return nil, err
	}
	for i := range candidates {
		if candidates[i].Username == username {
			return &candidates[i], nil
		}
	}
	return nil, nil
}

func (s *SQLStore) ListUsers(ctx context.Context) ([]User, error) {
	var res []User
	err := s.db.DB.SelectContext(ctx, &res, `SELECT id, username, password_hash, role FROM users ORDER BY id`)
	return res, err
}

func (s *SQLStore) DeleteUser(ctx context.Context, id int64) error {
	_, err := s.Writer().Delete(ctx, UsersTable, id)
	return err
}

// save inserts when *id is 0 and fills it in; otherwise it overwrites the row
// at *id, inserting it under that id when absent.
func (s *SQLStore) save(ctx context.Context, table string, id *int64, cols []string, vals []any) error {
	w := s.Writer()
	if *id == 0 {
		newID, err := w.Insert(ctx, table, nil, cols, vals)
		if err != nil {
			return err
		}
		*id = newID
		return nil
	}
	exists, err := w.Exists(ctx, table, *id)
	if err != nil {
		return err
	}
	if exists {
		return w.Update(ctx, table, *id, cols, vals)
	}
	if _, err := w.Insert(ctx, table, id, cols, vals); err != nil {
		return err
	}
	return w.ResyncIDs(ctx, table)
}

func (s *SQLStore) Writer() TableWriter {
	return &rowWriter{db: s.db, ex: s.db.DB}
}

func (s *SQLStore) WithinTx(ctx context.Context, fn func(w TableWriter) error) error {
	return s.db.ExecTx(ctx, func(tx *sqlx.Tx) error {
		return fn(&rowWriter{db: s.db, ex: tx})
	})
}

type rowWriter struct {
	db *database.Database
	ex sqlx.ExtContext
}

func placeholders(n int) string {
	return strings.TrimSuffix(strings.Repeat("?, ", n), ", ")
}

func (w *rowWriter) DeleteAll(ctx context.Context, table string) (int64, error) {
	res, err := w.ex.ExecContext(ctx, fmt.Sprintf("DELETE FROM %s", table))
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

func (w *rowWriter) Insert(ctx context.Context, table string, id *int64, cols []string, vals []any) (int64, error) {
	if id != nil {
		cols = append([]string{"id"}, cols...)
		vals = append([]any{*id}, vals...)
	}
	query := fmt.Sprintf("INSERT INTO %s (%s) VALUES (%s)", table, strings.Join(cols, ", "), placeholders(len(cols)))
	if id == nil {
		return w.db.InsertReturningID(ctx, w.ex, query, vals...)
	}
	if _, err := w.ex.ExecContext(ctx, w.ex.Rebind(query), vals...); err != nil {
		return 0, err
	}
	return *id, nil
}

func (w *rowWriter) Exists(ctx context.Context, table string, id int64) (bool, error) {
	var n int
	query := fmt.Sprintf("SELECT COUNT(*) FROM %s WHERE id = ?", table)
	if err := sqlx.GetContext(ctx, w.ex, &n, w.ex.Rebind(query), id); err != nil {
		return false, err
	}
	return n > 0, nil
}

func (w *rowWriter) Update(ctx context.Context, table string, id int64, cols []string, vals []any) error {
	sets := make([]string, len(cols))
	for i, c := range cols {
		sets[i] = c + " = ?"
	}
	query := fmt.Sprintf("UPDATE %s SET %s WHERE id = ?", table, strings.Join(sets, ", "))
	args := append(append([]any{}, vals...), id)
	_, err := w.ex.ExecContext(ctx, w.ex.Rebind(query), args...)
	return err
}

func (w *rowWriter) Delete(ctx context.Context, table string, id int64) (int64, error) {
	res, err := w.ex.ExecContext(ctx, w.ex.Rebind(fmt.Sprintf("DELETE FROM %s WHERE id = ?", table)), id)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

// DeleteExcept removes every row whose id is not in keep. An empty keep set
// is refused rather than treated as "delete everything".
func (w *rowWriter) DeleteExcept(ctx context.Context, table string, keep []int64) (int64, error) {
	if len(keep) == 0 {
		return 0, errors.New("DeleteExcept requires at least one id to keep")
	}
	query, args, err := sqlx.In(fmt.Sprintf("DELETE FROM %s WHERE id NOT IN (?)", table), keep)
	if err != nil {
		return 0, err
	}
	res, err := w.ex.ExecContext(ctx, w.ex.Rebind(query), args...)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

func (w *rowWriter) ResyncIDs(ctx context.Context, table string) error {
	return w.db.ResyncSequence(ctx, w.ex, table)
}
