package sync

import (
	"context"
	"fmt"
	"sort"

	"dashboard-sync-service/internal/store"
)

// Reconcile applies records to the schema's table under the schema's policy.
// retain lists ids of rows that are in the file but were rejected; they are
// kept out of the prune. Row errors are only possible for UpsertWithPrune; a
// non-nil error means the batch as a whole failed.
func Reconcile(ctx context.Context, tables store.Tables, s Schema, records []Record, retain []int64) (Counts, []RowError, error) {
	switch s.Policy {
	case ReplaceAll:
		c, err := replaceAll(ctx, tables, s, records)
		return c, nil, err
	case UpsertWithPrune:
		return upsertWithPrune(ctx, tables, s, records, retain)
	default:
		return Counts{}, nil, fmt.Errorf("unknown policy %s", s.Policy)
	}
}

// withIDFirst orders records carrying an id ahead of id-less ones so that
// store-assigned ids are handed out after every explicit id is taken.
func withIDFirst(records []Record) []Record {
	out := make([]Record, len(records))
	copy(out, records)
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].ID != nil && out[j].ID == nil
	})
	return out
}

func replaceAll(ctx context.Context, tables store.Tables, s Schema, records []Record) (Counts, error) {
	cols := s.Columns()
	ordered := withIDFirst(records)

	var c Counts
	err := tables.WithinTx(ctx, func(w store.TableWriter) error {
		n, err := w.DeleteAll(ctx, s.Table)
		if err != nil {
			return fmt.Errorf("clear %s: %w", s.Table, err)
		}
		c.Deleted = n

		resynced := false
		for _, r := range ordered {
			if r.ID == nil && !resynced {
				if err := w.ResyncIDs(ctx, s.Table); err != nil {
					return fmt.Errorf("resync ids: %w", err)
				}
				resynced = true
			}
			if _, err := w.Insert(ctx, s.Table, r.ID, cols, r.Values); err != nil {
				return fmt.Errorf("insert row %d: %w", r.Ordinal, err)
			}
			c.Inserted++
		}
		if !resynced {
			return w.ResyncIDs(ctx, s.Table)
		}
		return nil
	})
	if err != nil {
		return Counts{}, err
	}
	return c, nil
}

func upsertWithPrune(ctx context.Context, tables store.Tables, s Schema, records []Record, retain []int64) (Counts, []RowError, error) {
	cols := s.Columns()
	w := tables.Writer()

	var (
		c        Counts
		errs     []RowError
		explicit bool
	)
	keep := append([]int64(nil), retain...)
	for _, r := range records {
		if r.ID != nil {
			keep = append(keep, *r.ID)
		}
	}

	resynced := false
	for _, r := range withIDFirst(records) {
		if r.ID == nil {
			if explicit && !resynced {
				if err := w.ResyncIDs(ctx, s.Table); err != nil {
					return c, errs, fmt.Errorf("resync ids: %w", err)
				}
				resynced = true
			}
			if _, err := w.Insert(ctx, s.Table, nil, cols, r.Values); err != nil {
				errs = append(errs, RowError{Ordinal: r.Ordinal, Message: err.Error()})
				continue
			}
			c.Inserted++
			continue
		}

		exists, err := w.Exists(ctx, s.Table, *r.ID)
		if err != nil {
			errs = append(errs, RowError{Ordinal: r.Ordinal, Message: err.Error()})
			continue
		}
		if exists {
			if err := w.Update(ctx, s.Table, *r.ID, cols, r.Values); err != nil {
				errs = append(errs, RowError{Ordinal: r.Ordinal, Message: err.Error()})
				continue
			}
			c.Updated++
			continue
		}
		if _, err := w.Insert(ctx, s.Table, r.ID, cols, r.Values); err != nil {
			errs = append(errs, RowError{Ordinal: r.Ordinal, Message: err.Error()})
			continue
		}
		c.Inserted++
		explicit = true
	}
	if explicit && !resynced {
		if err := w.ResyncIDs(ctx, s.Table); err != nil {
			return c, errs, fmt.Errorf("resync ids: %w", err)
		}
	}

	// Ids of rows that failed still count as present in the file, so their
	// stored versions survive the prune.
	if len(keep) > 0 {
		n, err := w.DeleteExcept(ctx, s.Table, keep)
		if err != nil {
			return c, errs, fmt.Errorf("prune %s: %w", s.Table, err)
		}
		c.Pruned = n
	}

	sort.SliceStable(errs, func(i, j int) bool { return errs[i].Ordinal < errs[j].Ordinal })
	return c, errs, nil
}
