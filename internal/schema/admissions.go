package schema

// DataTable describes the per-round table of seat allotment rows.
var DataTable = TableSpec{
	Name: "data",
	Columns: []ColumnSpec{
		{Name: "institute", Type: ColumnText, Required: true},
		{Name: "branch", Type: ColumnText},
		{Name: "quota", Type: ColumnText, Required: true},
		{Name: "seatType", Type: ColumnText, Required: true},
		{Name: "gender", Type: ColumnText, Required: true},
		{Name: "orank", Type: ColumnInteger, Required: true},
		{Name: "crank", Type: ColumnInteger, Required: true},
	},
}

// InstitutesTable describes the institute classification table.
var InstitutesTable = TableSpec{
	Name: "institutes",
	Columns: []ColumnSpec{
		{Name: "institute", Type: ColumnText, Required: true},
		{Name: "instituteType", Type: ColumnText, Required: true},
	},
}

// Partition columns present only in the shared postgres tables.
var (
	YearColumn  = ColumnSpec{Name: "year", Type: ColumnInteger, Required: true}
	RoundColumn = ColumnSpec{Name: "round", Type: ColumnInteger, Required: true}
)

// Partitioned returns a copy of t with the year and round columns added.
func Partitioned(t TableSpec) TableSpec {
	cols := make([]ColumnSpec, 0, len(t.Columns)+2)
	cols = append(cols, t.Columns...)
	cols = append(cols, YearColumn, RoundColumn)
	return TableSpec{Name: t.Name, Columns: cols}
}
