package gtfs

// Reconcile intersects a record's fields with the destination table's
// accepted columns. Unknown fields are dropped and empty strings become
// nil so the store writes NULL instead of "". Key columns are the
// exception: they stay "" because empty means wildcard in the fare rule
// tables and key columns are NOT NULL in the store. The import batch tag
// is in every accepted set and passes through untouched.
func Reconcile(record Record, spec *TableSpec) Record {
	out := make(Record, len(record))
	for col, val := range record {
		if !spec.Accepts(col) {
			continue
		}
		if s, ok := val.(string); ok && s == "" && !spec.IsKeyColumn(col) {
			out[col] = nil
			continue
		}
		out[col] = val
	}
	return out
}

// UsableColumns returns the file's header columns that the destination
// schema accepts, in the spec's column order. The import tracking column
// is bound by the loader, not carried here. An empty result means the
// whole table is skipped for this import.
func UsableColumns(header []string, spec *TableSpec) []string {
	present := make(map[string]bool, len(header))
	for _, h := range header {
		present[h] = true
	}

	var cols []string
	for _, c := range spec.Columns {
		if present[c] {
			cols = append(cols, c)
		}
	}
	return cols
}

// HasKeyColumns reports whether every required key column of the table
// appears in cols. Without them the upsert has no conflict target, so the
// importer rejects the file up front rather than letting the store fail
// row by row. Optional key columns may be absent; they default to "" in
// the store.
func HasKeyColumns(cols []string, spec *TableSpec) bool {
	present := make(map[string]bool, len(cols))
	for _, c := range cols {
		present[c] = true
	}
	for _, k := range spec.KeyColumns {
		if !present[k] && !spec.IsOptionalKey(k) {
			return false
		}
	}
	return true
}

// RowValues projects a reconciled record onto cols, yielding the value
// slice the loader binds for one row.
func RowValues(record Record, cols []string) []any {
	vals := make([]any, len(cols))
	for i, c := range cols {
		vals[i] = record[c]
	}
	return vals
}
