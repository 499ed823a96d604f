package store

import (
	"database/sql"
	"fmt"
	"strings"
	"time"
)

const (
	IncidentsTable = "cyber_incidents"
	DatasetsTable  = "datasets"
	TicketsTable   = "it_tickets"
	UsersTable     = "users"
)

var (
	IncidentColumns = []string{"type", "severity", "status", "reported_date", "resolved_date"}
	DatasetColumns  = []string{"dataset_name", "source", "size_mb", "row_count", "upload_date"}
	TicketColumns   = []string{"staff", "status", "category", "opened_date", "closed_date"}
)

// Incident is a cybersecurity incident. ID 0 means not yet stored.
type Incident struct {
	ID           int64   `db:"id" json:"id"`
	Type         string  `db:"type" json:"type"`
	Severity     string  `db:"severity" json:"severity"`
	Status       string  `db:"status" json:"status"`
	ReportedDate *string `db:"reported_date" json:"reported_date"`
	ResolvedDate *string `db:"resolved_date" json:"resolved_date"`
}

func (i Incident) values() []any {
	return []any{i.Type, i.Severity, i.Status, i.ReportedDate, i.ResolvedDate}
}

// ResolutionDays is the number of whole days between report and resolution.
func (i Incident) ResolutionDays() (int, bool) {
	return daysBetween(i.ReportedDate, i.ResolvedDate)
}

type Dataset struct {
	ID         int64   `db:"id" json:"id"`
	Name       string  `db:"dataset_name" json:"dataset_name"`
	Source     string  `db:"source" json:"source"`
	SizeMB     float64 `db:"size_mb" json:"size_mb"`
	Rows       int64   `db:"row_count" json:"rows"`
	UploadDate *string `db:"upload_date" json:"upload_date"`
}

func (d Dataset) values() []any {
	return []any{d.Name, d.Source, d.SizeMB, d.Rows, d.UploadDate}
}

// SizeCategory buckets a dataset for governance decisions.
func (d Dataset) SizeCategory() string {
	switch {
	case d.SizeMB < 100:
		return "Small"
	case d.SizeMB < 1000:
		return "Medium"
	default:
		return "Large"
	}
}

// IsArchiveCandidate flags large datasets with comparatively few rows.
func (d Dataset) IsArchiveCandidate() bool {
	return d.SizeMB > 1000 && d.Rows < 100000
}

type Ticket struct {
	ID         int64   `db:"id" json:"id"`
	Staff      string  `db:"staff" json:"staff"`
	Status     string  `db:"status" json:"status"`
	Category   string  `db:"category" json:"category"`
	OpenedDate *string `db:"opened_date" json:"opened_date"`
	ClosedDate *string `db:"closed_date" json:"closed_date"`
}

func (t Ticket) values() []any {
	return []any{t.Staff, t.Status, t.Category, t.OpenedDate, t.ClosedDate}
}

func (t Ticket) ResolutionDays() (int, bool) {
	return daysBetween(t.OpenedDate, t.ClosedDate)
}

type User struct {
	ID           int64  `db:"id" json:"id"`
	Username     string `db:"username" json:"username"`
	PasswordHash string `db:"password_hash" json:"-"`
	Role         string `db:"role" json:"role"`
}

// SyncState is the per-source watermark row.
type SyncState struct {
	SourceName   string         `db:"source_name"`
	SourcePath   string         `db:"source_path"`
	WatermarkNS  sql.NullInt64  `db:"watermark_ns"`
	Checksum     string         `db:"checksum"`
	RowsSynced   int64          `db:"rows_synced"`
	Status       string         `db:"status"`
	ErrorMessage sql.NullString `db:"error_message"`
	UpdatedAt    time.Time      `db:"updated_at"`
}

// Watermark returns the recorded source modification time, if any.
func (s *SyncState) Watermark() *time.Time {
	if s == nil || !s.WatermarkNS.Valid {
		return nil
	}
	t := time.Unix(0, s.WatermarkNS.Int64)
	return &t
}

func (s *SyncState) SetWatermark(t time.Time) {
	s.WatermarkNS = sql.NullInt64{Int64: t.UnixNano(), Valid: true}
}

type SyncHistory struct {
	ID           string         `db:"id" json:"id"`
	SourceName   string         `db:"source_name" json:"source"`
	StartedAt    time.Time      `db:"started_at" json:"started_at"`
	CompletedAt  sql.NullTime   `db:"completed_at" json:"-"`
	RowsApplied  int64          `db:"rows_applied" json:"rows_applied"`
	RowsFailed   int64          `db:"rows_failed" json:"rows_failed"`
	RowsPruned   int64          `db:"rows_pruned" json:"rows_pruned"`
	Status       string         `db:"status" json:"status"`
	ErrorMessage sql.NullString `db:"error_message" json:"-"`
}

// Month-first slash dates come before day-first dotted/dashed ones, the same
// preference the CSV exports were written with.
var dateLayouts = []string{
	"2006-01-02",
	"2006-01-02 15:04:05",
	"2006-01-02T15:04:05",
	time.RFC3339,
	"2006-01-02 15:04",
	"2006/01/02",
	"2006/01/02 15:04:05",
	"1/2/2006",
	"1/2/2006 15:04",
	"1/2/2006 15:04:05",
	"02-01-2006",
	"02-01-2006 15:04:05",
	"02.01.2006",
	"2 Jan 2006",
	"02-Jan-2006",
	"Jan 2, 2006",
	"January 2, 2006",
}

// ParseDate accepts the date shapes found in the source CSV exports.
// Fractional seconds after the seconds field are accepted by every layout.
func ParseDate(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	var firstErr error
	for _, layout := range dateLayouts {
		t, err := time.Parse(layout, s)
		if err == nil {
			return t, nil
		}
		if firstErr == nil {
			firstErr = err
		}
	}
	return time.Time{}, fmt.Errorf("unrecognised date %q: %w", s, firstErr)
}

// CanonicalDate rewrites s as "2006-01-02", or "2006-01-02 15:04:05" when it
// carries a time of day, so stored dates sort as text.
func CanonicalDate(s string) (string, error) {
	t, err := ParseDate(s)
	if err != nil {
		return "", err
	}
	if t.Hour() == 0 && t.Minute() == 0 && t.Second() == 0 && t.Nanosecond() == 0 {
		return t.Format("2006-01-02"), nil
	}
	return t.Format("2006-01-02 15:04:05"), nil
}

func daysBetween(from, to *string) (int, bool) {
	if from == nil || to == nil {
		return 0, false
	}
	start, err := ParseDate(*from)
	if err != nil {
		return 0, false
	}
	end, err := ParseDate(*to)
	if err != nil {
		return 0, false
	}
	return int(end.Sub(start).Hours() / 24), true
}
