package sync

import (
	"fmt"
	"time"
)

// Policy selects how a batch is applied to its table.
type Policy int

const (
	// ReplaceAll empties the table and reinserts the batch in one transaction.
	ReplaceAll Policy = iota
	// UpsertWithPrune merges by id, then deletes rows whose id left the file.
	UpsertWithPrune
)

func (p Policy) String() string {
	switch p {
	case ReplaceAll:
		return "replace_all"
	case UpsertWithPrune:
		return "upsert_with_prune"
	default:
		return fmt.Sprintf("policy(%d)", int(p))
	}
}

type Status string

const (
	StatusOK      Status = "ok"
	StatusPartial Status = "partial"
	StatusFailed  Status = "failed"
	StatusSkipped Status = "skipped"
)

// RowError is a failure isolated to one data row. Ordinal is the 0-based
// position of the row below the header.
type RowError struct {
	Ordinal int    `json:"row"`
	Message string `json:"message"`
}

func (e RowError) Error() string {
	return fmt.Sprintf("row %d: %s", e.Ordinal, e.Message)
}

// Counts reports what a reconciliation did to the table.
type Counts struct {
	Inserted int64 `json:"inserted"`
	Updated  int64 `json:"updated"`
	Deleted  int64 `json:"deleted"`
	Pruned   int64 `json:"pruned"`
}

// Applied is the number of batch records written.
func (c Counts) Applied() int64 {
	return c.Inserted + c.Updated
}

// Outcome is the result of one engine run against one source.
type Outcome struct {
	Source   string     `json:"source"`
	Status   Status     `json:"status"`
	Reason   string     `json:"reason,omitempty"`
	Counts   Counts     `json:"counts"`
	Errors   []RowError `json:"errors,omitempty"`
	Err      error      `json:"-"`
	ModTime  time.Time  `json:"mod_time"`
	Checksum string     `json:"-"`

	// Advance reports whether the caller should persist ModTime as the new
	// watermark.
	Advance bool `json:"advance"`

	StartedAt time.Time     `json:"started_at"`
	Duration  time.Duration `json:"duration"`
}

// FileEvent is emitted by the watcher when a source file is written.
type FileEvent struct {
	Source string
	Path   string
	At     time.Time
}

func (e FileEvent) String() string {
	return fmt.Sprintf("[%s] %s", e.Source, e.Path)
}
