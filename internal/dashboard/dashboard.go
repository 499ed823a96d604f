// Package dashboard computes the aggregates behind the three role dashboards.
// Every function here is pure over store records.
package dashboard

import (
	"sort"
	"time"

	"dashboard-sync-service/internal/store"
)

const (
	Monthly = "monthly"
	Daily   = "daily"
)

type Count struct {
	Label string `json:"label"`
	Count int    `json:"count"`
}

type Point struct {
	Bucket string `json:"bucket"`
	Count  int    `json:"count"`
}

type SeriesPoint struct {
	Bucket string `json:"bucket"`
	Series string `json:"series"`
	Count  int    `json:"count"`
}

// countBy tallies labels, most frequent first, ties by label.
func countBy(labels []string) []Count {
	m := make(map[string]int)
	for _, l := range labels {
		m[l]++
	}
	out := make([]Count, 0, len(m))
	for l, n := range m {
		out = append(out, Count{Label: l, Count: n})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Count != out[j].Count {
			return out[i].Count > out[j].Count
		}
		return out[i].Label < out[j].Label
	})
	return out
}

func monthKey(t time.Time) string { return t.Format("2006-01") }
func dayKey(t time.Time) string { return t.Format("2006-01-02") }

// granularity picks monthly buckets unless the dates span fewer than two
// months, in which case days are used.
func granularity(dates []time.Time) (string, func(time.Time) string) {
	months := make(map[string]struct{})
	for _, d := range dates {
		months[monthKey(d)] = struct{}{}
	}
	if len(months) < 2 {
		return Daily, dayKey
	}
	return Monthly, monthKey
}

func series(dates []time.Time, key func(time.Time) string) []Point {
	m := make(map[string]int)
	for _, d := range dates {
		m[key(d)]++
	}
	out := make([]Point, 0, len(m))
	for b, n := range m {
		out = append(out, Point{Bucket: b, Count: n})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Bucket < out[j].Bucket })
	return out
}

func multiSeries(dates []time.Time, names []string, key func(time.Time) string) []SeriesPoint {
	type k struct{ bucket, series string }
	m := make(map[k]int)
	for i, d := range dates {
		m[k{key(d), names[i]}]++
	}
	out := make([]SeriesPoint, 0, len(m))
	for kk, n := range m {
		out = append(out, SeriesPoint{Bucket: kk.bucket, Series: kk.series, Count: n})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Bucket != out[j].Bucket {
			return out[i].Bucket < out[j].Bucket
		}
		return out[i].Series < out[j].Series
	})
	return out
}

func parseOptional(s *string) (time.Time, bool) {
	if s == nil {
		return time.Time{}, false
	}
	t, err := store.ParseDate(*s)
	if err != nil {
		return time.Time{}, false
	}
	return t, true
}
