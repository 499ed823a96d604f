package sync

import (
	"context"
	"errors"
	"fmt"
	"os"
	"sort"
	"time"

	"dashboard-sync-service/internal/config"
	"dashboard-sync-service/internal/store"
)

// Source binds a schema to the CSV file that feeds it.
type Source struct {
	Schema Schema
	Path   string
}

func (s Source) Name() string {
	return s.Schema.Name
}

// Watermark is what the caller remembers about the last applied file.
type Watermark struct {
	ModTime  *time.Time
	Checksum string
}

// Engine runs one reconciliation from (file, watermark) to (table, outcome).
// It holds no per-source state.
type Engine struct {
	tables        store.Tables
	normalizer    *Normalizer
	strict        bool
	skipUnchanged bool
	now           func() time.Time
}

func NewEngine(tables store.Tables, cfg config.SyncConfig) *Engine {
	return &Engine{
		tables:        tables,
		normalizer:    NewNormalizer(cfg.MissingTokens),
		strict:        cfg.StrictWatermark,
		skipUnchanged: cfg.SkipUnchangedContent,
		now:           time.Now,
	}
}

// Run checks src against wm and reconciles it when the file moved on. force
// ignores both the modification time and the checksum.
func (e *Engine) Run(ctx context.Context, src Source, wm Watermark, force bool) *Outcome {
	out := &Outcome{Source: src.Name(), StartedAt: e.now()}
	defer func() { out.Duration = e.now().Sub(out.StartedAt) }()

	since := wm.ModTime
	if force {
		since = nil
	}
	change, err := DetectChange(src.Path, since)
	if err != nil {
		return out.fail(err)
	}
	out.ModTime = change.ModTime
	if change.Missing {
		out.Status, out.Reason = StatusSkipped, "source file missing"
		return out
	}
	if !change.Changed {
		out.Status, out.Reason = StatusSkipped, "unchanged"
		return out
	}

	data, err := os.ReadFile(src.Path)
	if err != nil {
		return out.fail(fmt.Errorf("read %s: %w", src.Path, err))
	}
	out.Checksum = contentChecksum(data)
	if e.skipUnchanged && !force && wm.Checksum != "" && wm.Checksum == out.Checksum {
		out.Status, out.Reason = StatusSkipped, "content unchanged"
		out.Advance = true
		return out
	}

	rows, err := parseCSV(data)
	if err != nil {
		return out.fail(fmt.Errorf("parse %s: %w", src.Path, err))
	}

	var (
		records = make([]Record, 0, len(rows))
		retain  []int64
	)
	for _, row := range rows {
		rec, rowErr := e.normalizer.Normalize(src.Schema, row)
		if rowErr != nil {
			out.Errors = append(out.Errors, *rowErr)
			if rec.ID != nil {
				retain = append(retain, *rec.ID)
			}
			continue
		}
		records = append(records, rec)
	}
	records = Deduplicate(records)

	counts, applyErrs, err := Reconcile(ctx, e.tables, src.Schema, records, retain)
	out.Counts = counts
	out.Errors = append(out.Errors, applyErrs...)
	sort.SliceStable(out.Errors, func(i, j int) bool { return out.Errors[i].Ordinal < out.Errors[j].Ordinal })
	if err != nil {
		return out.fail(err)
	}

	// Rejected rows fail the same way until the file changes, so only write
	// failures hold the watermark back in strict mode.
	if len(out.Errors) > 0 {
		out.Status = StatusPartial
		out.Advance = !e.strict || len(applyErrs) == 0
		return out
	}
	out.Status = StatusOK
	out.Advance = true
	return out
}

func (o *Outcome) fail(err error) *Outcome {
	o.Status = StatusFailed
	o.Err = err
	o.Advance = false
	return o
}

// Summary renders the outcome's failure in one line, or "" for a clean run.
func (o *Outcome) Summary() string {
	switch {
	case o.Err != nil:
		return o.Err.Error()
	case len(o.Errors) == 1:
		return o.Errors[0].Error()
	case len(o.Errors) > 1:
		return fmt.Sprintf("%d rows failed; first: %s", len(o.Errors), o.Errors[0].Error())
	default:
		return ""
	}
}

var ErrSourceUnknown = errors.New("unknown sync source")
