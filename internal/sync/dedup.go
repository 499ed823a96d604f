package sync

import (
	"fmt"
	"strconv"
	"strings"
)

// Deduplicate collapses repeated records. When any record carries an id, the
// batch is keyed by id: the last occurrence's values win but keep the slot of
// the first occurrence, and id-less records pass through untouched. Without
// any ids, records equal in every field collapse to their first occurrence.
func Deduplicate(records []Record) []Record {
	hasID := false
	for _, r := range records {
		if r.ID != nil {
			hasID = true
			break
		}
	}

	out := make([]Record, 0, len(records))
	if hasID {
		pos := make(map[int64]int, len(records))
		for _, r := range records {
			if r.ID == nil {
				out = append(out, r)
				continue
			}
			if i, ok := pos[*r.ID]; ok {
				out[i] = r
				continue
			}
			pos[*r.ID] = len(out)
			out = append(out, r)
		}
		return out
	}

	seen := make(map[string]struct{}, len(records))
	for _, r := range records {
		k := r.key()
		if _, ok := seen[k]; ok {
			continue
		}
		seen[k] = struct{}{}
		out = append(out, r)
	}
	return out
}

func (r Record) key() string {
	var b strings.Builder
	for _, v := range r.Values {
		switch x := v.(type) {
		case string:
			b.WriteString(strconv.Quote(x))
		case *string:
			if x == nil {
				b.WriteString("null")
			} else {
				b.WriteString(strconv.Quote(*x))
			}
		default:
			fmt.Fprintf(&b, "%v", x)
		}
		b.WriteByte(',')
	}
	return b.String()
}
