package store

import (
	"context"
)

type Store interface {
	// Sync State
	GetSyncState(ctx context.Context, source string) (*SyncState, error)
	UpdateSyncState(ctx context.Context, state *SyncState) error

	// History
	CreateSyncHistory(ctx context.Context, history *SyncHistory) error
	GetSyncHistory(ctx context.Context, source string, limit, offset int) ([]*SyncHistory, error)

	// Incidents
	ListIncidents(ctx context.Context) ([]Incident, error)
	ListIncidentsByType(ctx context.Context, incidentType string) ([]Incident, error)
	GetIncident(ctx context.Context, id int64) (*Incident, error)
	SaveIncident(ctx context.Context, incident *Incident) error
	DeleteIncident(ctx context.Context, id int64) error

	// Datasets
	ListDatasets(ctx context.Context) ([]Dataset, error)
	ListDatasetsBySource(ctx context.Context, source string) ([]Dataset, error)
	GetDataset(ctx context.Context, id int64) (*Dataset, error)
	SaveDataset(ctx context.Context, dataset *Dataset) error
	DeleteDataset(ctx context.Context, id int64) error

	// Tickets
	ListTickets(ctx context.Context) ([]Ticket, error)
	GetTicket(ctx context.Context, id int64) (*Ticket, error)
	SaveTicket(ctx context.Context, ticket *Ticket) error
	DeleteTicket(ctx context.Context, id int64) error

	// Users
	CreateUser(ctx context.Context, user *User) error
	GetUserByUsername(ctx context.Context, username string) (*User, error)
	ListUsers(ctx context.Context) ([]User, error)
	DeleteUser(ctx context.Context, id int64) error

	Tables

	// General
	Close() error
}

// TableWriter is the row-level surface the reconciler writes through. Table
// and column names come from static schemas, never from input.
type TableWriter interface {
	DeleteAll(ctx context.Context, table string) (int64, error)
	Insert(ctx context.Context, table string, id *int64, cols []string, vals []any) (int64, error)
	Exists(ctx context.Context, table string, id int64) (bool, error)
	Update(ctx context.Context, table string, id int64, cols []string, vals []any) error
	Delete(ctx context.Context, table string, id int64) (int64, error)
	DeleteExcept(ctx context.Context, table string, keep []int64) (int64, error)
	ResyncIDs(ctx context.Context, table string) error
}

// Tables hands out writers, either autocommitting or bound to one transaction.
type Tables interface {
	Writer() TableWriter
	WithinTx(ctx context.Context, fn func(w TableWriter) error) error
}
