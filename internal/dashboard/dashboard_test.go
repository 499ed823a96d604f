package dashboard

import (
	"errors"
	"math"
	"testing"

	"dashboard-sync-service/internal/store"
)

func sp(s string) *string { return &s }

func TestCyberMonthly(t *testing.T) {
	incidents := []store.Incident{
		{ID: 1, Type: "Phishing", Severity: "Critical", Status: "Open", ReportedDate: sp("2024-01-05")},
		{ID: 2, Type: "Phishing", Severity: "High", Status: "Resolved", ReportedDate: sp("2024-01-20"), ResolvedDate: sp("2024-01-23")},
		{ID: 3, Type: "Malware", Severity: "critical", Status: "open", ReportedDate: sp("2024-02-02")},
		{ID: 4, Type: "DDoS", Severity: "Low", Status: "Closed"},
	}
	sum := Cyber(incidents)

	if sum.Total != 4 || sum.Critical != 2 || sum.Open != 2 {
		t.Errorf("kpis = %d/%d/%d", sum.Total, sum.Critical, sum.Open)
	}
	if sum.Granularity != Monthly {
		t.Errorf("granularity = %s", sum.Granularity)
	}
	if len(sum.OverTime) != 2 || sum.OverTime[0] != (Point{"2024-01", 2}) || sum.OverTime[1] != (Point{"2024-02", 1}) {
		t.Errorf("over time = %+v", sum.OverTime)
	}
	if sum.ByType[0] != (Count{"Phishing", 2}) {
		t.Errorf("by type = %+v", sum.ByType)
	}
	if len(sum.Resolution) != 1 || sum.Resolution[0] != (IncidentResolution{ID: 2, Days: 3}) {
		t.Errorf("resolution = %+v", sum.Resolution)
	}
	if len(sum.TopTypes) != 2 {
		t.Errorf("top types = %v", sum.TopTypes)
	}
}

func TestCyberDailyFallback(t *testing.T) {
	incidents := []store.Incident{
		{ID: 1, Type: "A", Severity: "Low", ReportedDate: sp("2024-03-01")},
		{ID: 2, Type: "A", Severity: "Low", ReportedDate: sp("2024-03-01")},
		{ID: 3, Type: "B", Severity: "High", ReportedDate: sp("2024-03-04")},
	}
	sum := Cyber(incidents)
	if sum.Granularity != Daily {
		t.Fatalf("granularity = %s, want daily", sum.Granularity)
	}
	if len(sum.OverTime) != 2 || sum.OverTime[0].Bucket != "2024-03-01" || sum.OverTime[0].Count != 2 {
		t.Errorf("over time = %+v", sum.OverTime)
	}
	if len(sum.SeverityOverTime) != 2 {
		t.Errorf("severity over time = %+v", sum.SeverityOverTime)
	}
}

func TestCyberTopFiveTypes(t *testing.T) {
	var incidents []store.Incident
	for i, typ := range []string{"A", "A", "B", "B", "C", "C", "D", "D", "E", "E", "F"} {
		incidents = append(incidents, store.Incident{ID: int64(i + 1), Type: typ, ReportedDate: sp("2024-01-01")})
	}
	sum := Cyber(incidents)
	if len(sum.TopTypes) != 5 {
		t.Fatalf("top types = %v", sum.TopTypes)
	}
	for _, p := range sum.TopTypeTrends {
		if p.Series == "F" {
			t.Error("sixth type leaked into trends")
		}
	}
}

func TestCyberEmpty(t *testing.T) {
	sum := Cyber(nil)
	if sum.Total != 0 || sum.OverTime != nil || sum.Granularity != "" {
		t.Errorf("summary = %+v", sum)
	}
}

func TestDataScience(t *testing.T) {
	datasets := []store.Dataset{
		{ID: 1, Name: "small", Source: "crm", SizeMB: 50, Rows: 1000},
		{ID: 2, Name: "medium", Source: "crm", SizeMB: 500, Rows: 1000},
		{ID: 3, Name: "huge-thin", Source: "erp", SizeMB: 1500, Rows: 500},
		{ID: 4, Name: "huge-wide", Source: "erp", SizeMB: 1500, Rows: 200000},
	}
	sum := DataScience(datasets)

	if sum.TotalSizeMB != 3550 {
		t.Errorf("total size = %v", sum.TotalSizeMB)
	}
	if len(sum.SizeBySource) != 2 || sum.SizeBySource[0] != (SourceSize{"crm", 550}) || sum.SizeBySource[1] != (SourceSize{"erp", 3000}) {
		t.Errorf("size by source = %+v", sum.SizeBySource)
	}
	if len(sum.ArchiveCandidates) != 1 || sum.ArchiveCandidates[0].ID != 3 {
		t.Errorf("archive candidates = %+v", sum.ArchiveCandidates)
	}
	want := []string{"Small", "Medium", "Large", "Large"}
	for i, d := range sum.Datasets {
		if d.SizeCategory != want[i] {
			t.Errorf("dataset %d category = %s, want %s", d.ID, d.SizeCategory, want[i])
		}
	}
}

func TestSizeCategoryBoundaries(t *testing.T) {
	tests := map[float64]string{99.9: "Small", 100: "Medium", 999.9: "Medium", 1000: "Large"}
	for size, want := range tests {
		if got := (store.Dataset{SizeMB: size}).SizeCategory(); got != want {
			t.Errorf("SizeCategory(%v) = %s, want %s", size, got, want)
		}
	}
	if (store.Dataset{SizeMB: 1000, Rows: 10}).IsArchiveCandidate() {
		t.Error("exactly 1000 MB is not an archive candidate")
	}
}

func TestIT(t *testing.T) {
	tickets := []store.Ticket{
		{ID: 1, Staff: "ann", Status: "Closed", OpenedDate: sp("2024-01-01"), ClosedDate: sp("2024-01-03")},
		{ID: 2, Staff: "ann", Status: "Closed", OpenedDate: sp("2024-01-10"), ClosedDate: sp("2024-01-20")},
		{ID: 3, Staff: "bob", Status: "Resolved", OpenedDate: sp("2024-02-01"), ClosedDate: sp("2024-02-05")},
		{ID: 4, Staff: "bob", Status: "Open", OpenedDate: sp("2024-02-07")},
		{ID: 5, Staff: "cat", Status: "Open"},
	}
	sum, err := IT(tickets, 0)
	if err != nil {
		t.Fatal(err)
	}
	if sum.SLADays != DefaultSLADays {
		t.Errorf("sla days = %d", sum.SLADays)
	}
	if sum.SLACompliance == nil || math.Abs(*sum.SLACompliance-2.0/3.0) > 1e-9 {
		t.Errorf("sla compliance = %v", sum.SLACompliance)
	}

	if len(sum.AvgResolutionByStatus) != 3 {
		t.Fatalf("by status = %+v", sum.AvgResolutionByStatus)
	}
	closed := sum.AvgResolutionByStatus[0]
	if closed.Status != "Closed" || closed.AvgDays == nil || *closed.AvgDays != 6 {
		t.Errorf("closed = %+v", closed)
	}
	if open := sum.AvgResolutionByStatus[1]; open.Status != "Open" || open.AvgDays != nil || open.Tickets != 2 {
		t.Errorf("open = %+v", open)
	}

	if sum.PerStaff[0].Count != 2 || sum.PerStaff[2] != (Count{"cat", 1}) {
		t.Errorf("per staff = %+v", sum.PerStaff)
	}
	if len(sum.OpenedPerMonth) != 2 || sum.OpenedPerMonth[1] != (Point{"2024-02", 2}) {
		t.Errorf("opened per month = %+v", sum.OpenedPerMonth)
	}

	// resolution days sorted: 2, 4, 10
	if p := sum.Percentiles; p == nil || p.P50 != 4 || p.P75 != 7 || math.Abs(p.P90-8.8) > 1e-9 {
		t.Errorf("percentiles = %+v", sum.Percentiles)
	}

	total := 0
	for _, b := range sum.Histogram {
		total += b.Count
	}
	if total != 3 || sum.Histogram[0].From != 2 {
		t.Errorf("histogram = %+v", sum.Histogram)
	}
}

func TestITSLARange(t *testing.T) {
	for _, days := range []int{-1, 91} {
		if _, err := IT(nil, days); !errors.Is(err, ErrSLAOutOfRange) {
			t.Errorf("IT(sla=%d) err = %v", days, err)
		}
	}
	sum, err := IT(nil, 30)
	if err != nil || sum.SLACompliance != nil || sum.Percentiles != nil {
		t.Errorf("empty summary = %+v, %v", sum, err)
	}
}

func TestHistogramWideRange(t *testing.T) {
	values := []float64{0, 59, 100}
	bins := histogram(values)
	if len(bins) > histogramBins {
		t.Fatalf("bins = %d", len(bins))
	}
	if last := bins[len(bins)-1]; last.To < 100 || last.Count != 1 {
		t.Errorf("last bin = %+v", last)
	}
}

func TestQuantile(t *testing.T) {
	v := []float64{1, 2, 3, 4}
	if got := Quantile(v, 0.5); got != 2.5 {
		t.Errorf("median = %v", got)
	}
	if got := Quantile([]float64{5}, 0.9); got != 5 {
		t.Errorf("single = %v", got)
	}
	if got := Quantile(nil, 0.5); got != 0 {
		t.Errorf("empty = %v", got)
	}
}
