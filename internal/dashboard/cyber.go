package dashboard

import (
	"strings"
	"time"

	"dashboard-sync-service/internal/store"
)

const topTypes = 5

type IncidentResolution struct {
	ID   int64 `json:"id"`
	Days int   `json:"days"`
}

type CyberSummary struct {
	Total    int `json:"total"`
	Critical int `json:"critical"`
	Open     int `json:"open"`

	Granularity      string        `json:"granularity"`
	OverTime         []Point       `json:"over_time"`
	SeverityOverTime []SeriesPoint `json:"severity_over_time"`

	TopTypes         []string      `json:"top_types"`
	TrendGranularity string        `json:"trend_granularity"`
	TopTypeTrends    []SeriesPoint `json:"top_type_trends"`

	ByStatus   []Count              `json:"by_status"`
	BySeverity []Count              `json:"by_severity"`
	ByType     []Count              `json:"by_type"`
	Resolution []IncidentResolution `json:"resolution"`

	Incidents []store.Incident `json:"incidents"`
}

// Cyber summarises incidents. Time series only use incidents with a
// parseable reported date.
func Cyber(incidents []store.Incident) CyberSummary {
	sum := CyberSummary{
		Total:     len(incidents),
		Incidents: incidents,
	}

	var (
		dates      []time.Time
		severities []string
		types      []string
		statuses   []string
		allSev     []string
		allTypes   []string
	)
	for _, inc := range incidents {
		if strings.EqualFold(inc.Severity, "critical") {
			sum.Critical++
		}
		if strings.EqualFold(inc.Status, "open") {
			sum.Open++
		}
		statuses = append(statuses, inc.Status)
		allSev = append(allSev, inc.Severity)
		allTypes = append(allTypes, inc.Type)

		if days, ok := inc.ResolutionDays(); ok {
			sum.Resolution = append(sum.Resolution, IncidentResolution{ID: inc.ID, Days: days})
		}
		if d, ok := parseOptional(inc.ReportedDate); ok {
			dates = append(dates, d)
			severities = append(severities, inc.Severity)
			types = append(types, inc.Type)
		}
	}

	sum.ByStatus = countBy(statuses)
	sum.BySeverity = countBy(allSev)
	sum.ByType = countBy(allTypes)

	if len(dates) == 0 {
		return sum
	}

	var key func(time.Time) string
	sum.Granularity, key = granularity(dates)
	sum.OverTime = series(dates, key)
	sum.SeverityOverTime = multiSeries(dates, severities, key)

	ranked := countBy(types)
	top := make(map[string]bool)
	for i := 0; i < len(ranked) && i < topTypes; i++ {
		sum.TopTypes = append(sum.TopTypes, ranked[i].Label)
		top[ranked[i].Label] = true
	}
	var topDates []time.Time
	var topNames []string
	for i, d := range dates {
		if top[types[i]] {
			topDates = append(topDates, d)
			topNames = append(topNames, types[i])
		}
	}
	var trendKey func(time.Time) string
	sum.TrendGranularity, trendKey = granularity(topDates)
	sum.TopTypeTrends = multiSeries(topDates, topNames, trendKey)
	return sum
}
