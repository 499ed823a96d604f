package dashboard

import (
	"sort"

	"dashboard-sync-service/internal/store"
)

type DatasetView struct {
	store.Dataset
	SizeCategory     string `json:"size_category"`
	ArchiveCandidate bool   `json:"archive_candidate"`
}

type SourceSize struct {
	Source string  `json:"source"`
	SizeMB float64 `json:"size_mb"`
}

type SizePoint struct {
	Name   string  `json:"name"`
	Source string  `json:"source"`
	Rows   int64   `json:"rows"`
	SizeMB float64 `json:"size_mb"`
}

type DataScienceSummary struct {
	Total             int           `json:"total"`
	TotalSizeMB       float64       `json:"total_size_mb"`
	SizeBySource      []SourceSize  `json:"size_by_source"`
	SizeVsRows        []SizePoint   `json:"size_vs_rows"`
	ByCategory        []Count       `json:"by_category"`
	ArchiveCandidates []DatasetView `json:"archive_candidates"`
	Datasets          []DatasetView `json:"datasets"`
}

func DataScience(datasets []store.Dataset) DataScienceSummary {
	sum := DataScienceSummary{Total: len(datasets)}

	bySource := make(map[string]float64)
	var categories []string
	for _, d := range datasets {
		view := DatasetView{Dataset: d, SizeCategory: d.SizeCategory(), ArchiveCandidate: d.IsArchiveCandidate()}
		sum.Datasets = append(sum.Datasets, view)
		if view.ArchiveCandidate {
			sum.ArchiveCandidates = append(sum.ArchiveCandidates, view)
		}
		categories = append(categories, view.SizeCategory)

		sum.TotalSizeMB += d.SizeMB
		bySource[d.Source] += d.SizeMB
		sum.SizeVsRows = append(sum.SizeVsRows, SizePoint{Name: d.Name, Source: d.Source, Rows: d.Rows, SizeMB: d.SizeMB})
	}

	for src, size := range bySource {
		sum.SizeBySource = append(sum.SizeBySource, SourceSize{Source: src, SizeMB: size})
	}
	sort.Slice(sum.SizeBySource, func(i, j int) bool { return sum.SizeBySource[i].Source < sum.SizeBySource[j].Source })
	sum.ByCategory = countBy(categories)
	return sum
}
