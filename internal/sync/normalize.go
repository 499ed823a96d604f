package sync

import (
	"fmt"
	"math"
	"strconv"
	"strings"

	"dashboard-sync-service/internal/store"
)

// Record is a normalised row ready to be written. Values line up with the
// schema's Fields.
type Record struct {
	Ordinal int
	ID      *int64
	Values  []any
}

// DefaultMissingTokens are the date placeholders treated as no value.
var DefaultMissingTokens = []string{"", "na", "n/a", "nan"}

// Normalizer turns raw CSV rows into records for a schema.
type Normalizer struct {
	missing map[string]struct{}
}

// NewNormalizer builds a normalizer; tokens are matched case-insensitively
// after trimming. Nil tokens select DefaultMissingTokens.
func NewNormalizer(tokens []string) *Normalizer {
	if tokens == nil {
		tokens = DefaultMissingTokens
	}
	n := &Normalizer{missing: make(map[string]struct{}, len(tokens)+1)}
	n.missing[""] = struct{}{}
	for _, t := range tokens {
		n.missing[strings.ToLower(strings.TrimSpace(t))] = struct{}{}
	}
	return n
}

func (n *Normalizer) isMissing(v string) bool {
	_, ok := n.missing[strings.ToLower(strings.TrimSpace(v))]
	return ok
}

// Normalize maps row onto s. A non-nil RowError means the row is rejected;
// the returned record then carries only Ordinal and ID. Only a row wider than
// the header is rejected.
func (n *Normalizer) Normalize(s Schema, row RawRow) (Record, *RowError) {
	rec := Record{Ordinal: row.Ordinal}
	if raw, ok := lookup(row.Values, s.IDAliases); ok {
		rec.ID = coerceID(raw)
	}
	if row.Overflow > 0 {
		return rec, &RowError{
			Ordinal: row.Ordinal,
			Message: fmt.Sprintf("row has %d more field(s) than the header", row.Overflow),
		}
	}

	rec.Values = make([]any, len(s.Fields))

	for i, f := range s.Fields {
		raw, _ := lookup(row.Values, f.Aliases)
		switch f.Kind {
		case KindDate:
			if n.isMissing(raw) {
				rec.Values[i] = (*string)(nil)
				continue
			}
			// Unrecognised dates are kept verbatim; views skip what they cannot parse.
			v := strings.TrimSpace(raw)
			if canon, err := store.CanonicalDate(v); err == nil {
				v = canon
			}
			rec.Values[i] = &v
		case KindFloat:
			rec.Values[i] = parseFloat(raw)
		case KindInt:
			rec.Values[i] = parseInt(raw)
		default:
			rec.Values[i] = strings.TrimSpace(raw)
		}
	}
	return rec, nil
}

func lookup(values map[string]string, aliases []string) (string, bool) {
	for _, a := range aliases {
		if v, ok := values[a]; ok {
			return v, true
		}
	}
	return "", false
}

// coerceID accepts integral numbers in integer or float notation; anything
// else yields no id.
func coerceID(raw string) *int64 {
	v := strings.TrimSpace(raw)
	if v == "" {
		return nil
	}
	if id, err := strconv.ParseInt(v, 10, 64); err == nil {
		return &id
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil || math.IsNaN(f) || math.IsInf(f, 0) || f != math.Trunc(f) {
		return nil
	}
	if f < math.MinInt64 || f >= math.MaxInt64 {
		return nil
	}
	id := int64(f)
	return &id
}

func parseFloat(raw string) float64 {
	f, err := strconv.ParseFloat(strings.TrimSpace(raw), 64)
	if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
		return 0
	}
	return f
}

func parseInt(raw string) int64 {
	v := strings.TrimSpace(raw)
	if i, err := strconv.ParseInt(v, 10, 64); err == nil {
		return i
	}
	f := parseFloat(v)
	if f < math.MinInt64 || f >= math.MaxInt64 {
		return 0
	}
	return int64(f)
}
