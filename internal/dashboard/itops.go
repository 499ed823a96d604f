package dashboard

import (
	"errors"
	"math"
	"sort"
	"time"

	"dashboard-sync-service/internal/store"
)

const (
	DefaultSLADays = 7
	MinSLADays     = 1
	MaxSLADays     = 90

	histogramBins = 30
)

var ErrSLAOutOfRange = errors.New("sla days must be between 1 and 90")

type StatusResolution struct {
	Status   string   `json:"status"`
	Tickets  int      `json:"tickets"`
	Resolved int      `json:"resolved"`
	AvgDays  *float64 `json:"avg_days"`
}

type HistogramBin struct {
	From  int `json:"from"`
	To    int `json:"to"`
	Count int `json:"count"`
}

type Percentiles struct {
	P50 float64 `json:"p50"`
	P75 float64 `json:"p75"`
	P90 float64 `json:"p90"`
}

type ITSummary struct {
	Total                 int                `json:"total"`
	AvgResolutionByStatus []StatusResolution `json:"avg_resolution_by_status"`
	PerStaff              []Count            `json:"per_staff"`
	OpenedPerMonth        []Point            `json:"opened_per_month"`
	Histogram             []HistogramBin     `json:"histogram"`
	SLADays               int                `json:"sla_days"`
	SLACompliance         *float64           `json:"sla_compliance"`
	Percentiles           *Percentiles       `json:"percentiles"`
	Tickets               []store.Ticket     `json:"tickets"`
}

// IT summarises tickets. slaDays 0 selects DefaultSLADays.
func IT(tickets []store.Ticket, slaDays int) (ITSummary, error) {
	if slaDays == 0 {
		slaDays = DefaultSLADays
	}
	if slaDays < MinSLADays || slaDays > MaxSLADays {
		return ITSummary{}, ErrSLAOutOfRange
	}

	sum := ITSummary{Total: len(tickets), SLADays: slaDays, Tickets: tickets}

	type agg struct {
		tickets, resolved, days int
	}
	byStatus := make(map[string]*agg)
	var (
		staff    []string
		opened   []time.Time
		resolved []float64
	)
	for _, t := range tickets {
		a := byStatus[t.Status]
		if a == nil {
			a = &agg{}
			byStatus[t.Status] = a
		}
		a.tickets++
		staff = append(staff, t.Staff)
		if d, ok := parseOptional(t.OpenedDate); ok {
			opened = append(opened, d)
		}
		if days, ok := t.ResolutionDays(); ok {
			a.resolved++
			a.days += days
			resolved = append(resolved, float64(days))
		}
	}

	for status, a := range byStatus {
		sr := StatusResolution{Status: status, Tickets: a.tickets, Resolved: a.resolved}
		if a.resolved > 0 {
			avg := float64(a.days) / float64(a.resolved)
			sr.AvgDays = &avg
		}
		sum.AvgResolutionByStatus = append(sum.AvgResolutionByStatus, sr)
	}
	sort.Slice(sum.AvgResolutionByStatus, func(i, j int) bool {
		return sum.AvgResolutionByStatus[i].Status < sum.AvgResolutionByStatus[j].Status
	})

	sum.PerStaff = countBy(staff)
	sum.OpenedPerMonth = series(opened, monthKey)

	if len(resolved) == 0 {
		return sum, nil
	}
	sort.Float64s(resolved)

	within := 0
	for _, d := range resolved {
		if d <= float64(slaDays) {
			within++
		}
	}
	rate := float64(within) / float64(len(resolved))
	sum.SLACompliance = &rate

	sum.Percentiles = &Percentiles{
		P50: Quantile(resolved, 0.5),
		P75: Quantile(resolved, 0.75),
		P90: Quantile(resolved, 0.9),
	}
	sum.Histogram = histogram(resolved)
	return sum, nil
}

// Quantile interpolates linearly between the closest ranks of sorted.
func Quantile(sorted []float64, q float64) float64 {
	if len(sorted) == 0 {
		return 0
	}
	pos := q * float64(len(sorted)-1)
	lo := int(math.Floor(pos))
	hi := int(math.Ceil(pos))
	if lo == hi {
		return sorted[lo]
	}
	return sorted[lo] + (sorted[hi]-sorted[lo])*(pos-float64(lo))
}

// histogram buckets whole-day values into at most histogramBins bins of
// equal integer width.
func histogram(sorted []float64) []HistogramBin {
	lo, hi := int(sorted[0]), int(sorted[len(sorted)-1])
	span := hi - lo + 1
	width := (span + histogramBins - 1) / histogramBins
	if width < 1 {
		width = 1
	}
	n := (span + width - 1) / width

	bins := make([]HistogramBin, n)
	for i := range bins {
		bins[i] = HistogramBin{From: lo + i*width, To: lo + (i+1)*width - 1}
	}
	for _, v := range sorted {
		bins[(int(v)-lo)/width].Count++
	}
	return bins
}
