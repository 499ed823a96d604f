package sync

import (
	"dashboard-sync-service/internal/store"
)

// Kind is the coercion applied to a CSV field.
type Kind int

const (
	KindString Kind = iota
	KindDate
	KindFloat
	KindInt
)

// Field maps one table column onto the CSV header names that may carry it.
// The first alias present in the header wins.
type Field struct {
	Column  string
	Aliases []string
	Kind    Kind
}

// Schema describes one CSV source: its table, id aliases, column mapping and
// reconciliation policy.
type Schema struct {
	Name      string
	Table     string
	Policy    Policy
	IDAliases []string
	Fields    []Field
}

func (s Schema) Columns() []string {
	cols := make([]string, len(s.Fields))
	for i, f := range s.Fields {
		cols[i] = f.Column
	}
	return cols
}

const (
	SourceIncidents = "incidents"
	SourceDatasets  = "datasets"
	SourceTickets   = "tickets"
)

var IncidentSchema = Schema{
	Name:      SourceIncidents,
	Table:     store.IncidentsTable,
	Policy:    ReplaceAll,
	IDAliases: []string{"id", "incident_id"},
	Fields: []Field{
		{Column: "type", Aliases: []string{"type", "category", "incident_type"}},
		{Column: "severity", Aliases: []string{"severity"}},
		{Column: "status", Aliases: []string{"status"}},
		{Column: "reported_date", Aliases: []string{"reported_date", "date_reported"}, Kind: KindDate},
		{Column: "resolved_date", Aliases: []string{"resolved_date", "date_resolved"}, Kind: KindDate},
	},
}

var DatasetSchema = Schema{
	Name:      SourceDatasets,
	Table:     store.DatasetsTable,
	Policy:    UpsertWithPrune,
	IDAliases: []string{"id", "dataset_id"},
	Fields: []Field{
		{Column: "dataset_name", Aliases: []string{"dataset_name", "name"}},
		{Column: "source", Aliases: []string{"source"}},
		{Column: "size_mb", Aliases: []string{"size_mb", "size"}, Kind: KindFloat},
		{Column: "row_count", Aliases: []string{"rows", "row_count"}, Kind: KindInt},
		{Column: "upload_date", Aliases: []string{"upload_date", "uploaded"}, Kind: KindDate},
	},
}

var TicketSchema = Schema{
	Name:      SourceTickets,
	Table:     store.TicketsTable,
	Policy:    UpsertWithPrune,
	IDAliases: []string{"id", "ticket_id"},
	Fields: []Field{
		{Column: "staff", Aliases: []string{"staff", "assigned_to"}},
		{Column: "status", Aliases: []string{"status"}},
		{Column: "category", Aliases: []string{"category"}},
		{Column: "opened_date", Aliases: []string{"opened_date", "created_date"}, Kind: KindDate},
		{Column: "closed_date", Aliases: []string{"closed_date", "resolved_date"}, Kind: KindDate},
	},
}
