package gtfs

// TableSpec describes one recognized GTFS table: its text file name, the
// destination SQL table, the natural key, and the column set the
// destination schema accepts. Specs are static and read-only.
type TableSpec struct {
	File       string
	Name       string
	SQLName    string
	KeyColumns []string
	// OptionalKeys marks key columns a feed may omit or leave empty.
	// Empty means wildcard in the fare rule tables; such columns default
	// to "" in the store rather than failing the file.
	OptionalKeys []string
	Columns      []string

	accepted    map[string]bool
	optionalKey map[string]bool
}

// ImportBatchColumn tags every imported row with the batch that wrote it.
// It is part of every accepted column set so the reconciler passes it
// through, but it is never exported.
const ImportBatchColumn = "import_batch_id"

// tableSpecs lists the recognized tables in dependency-friendly order:
// referenced tables load before the tables referencing them, which keeps
// the foreign-key violation rate down on ordinary feeds. Export uses the
// same order.
var tableSpecs = []TableSpec{
	{
		File:       "agency.txt",
		Name:       "agency",
		SQLName:    "gtfs_agency",
		KeyColumns: []string{"agency_id"},
		Columns: []string{
			"agency_id", "agency_name", "agency_url", "agency_timezone",
			"agency_lang", "agency_phone", "agency_fare_url", "agency_email",
		},
	},
	{
		File:       "calendar.txt",
		Name:       "calendar",
		SQLName:    "gtfs_calendar",
		KeyColumns: []string{"service_id"},
		Columns: []string{
			"service_id", "monday", "tuesday", "wednesday", "thursday",
			"friday", "saturday", "sunday", "start_date", "end_date",
		},
	},
	{
		File:       "shapes.txt",
		Name:       "shapes",
		SQLName:    "gtfs_shapes",
		KeyColumns: []string{"shape_id", "shape_pt_sequence"},
		Columns: []string{
			"shape_id", "shape_pt_lat", "shape_pt_lon", "shape_pt_sequence",
			"shape_dist_traveled",
		},
	},
	{
		File:       "stops.txt",
		Name:       "stops",
		SQLName:    "gtfs_stops",
		KeyColumns: []string{"stop_id"},
		Columns: []string{
			"stop_id", "stop_code", "stop_name", "stop_desc", "stop_lat",
			"stop_lon", "zone_id", "stop_url", "location_type",
			"parent_station", "stop_timezone", "wheelchair_boarding",
			"level_id", "platform_code",
		},
	},
	{
		File:       "routes.txt",
		Name:       "routes",
		SQLName:    "gtfs_routes",
		KeyColumns: []string{"route_id"},
		Columns: []string{
			"route_id", "agency_id", "route_short_name", "route_long_name",
			"route_desc", "route_type", "route_url", "route_color",
			"route_text_color", "route_sort_order", "network_id",
			"continuous_pickup", "continuous_drop_off",
		},
	},
	{
		File:       "trips.txt",
		Name:       "trips",
		SQLName:    "gtfs_trips",
		KeyColumns: []string{"trip_id"},
		Columns: []string{
			"trip_id", "route_id", "service_id", "trip_headsign",
			"trip_short_name", "direction_id", "block_id", "shape_id",
			"wheelchair_accessible", "bikes_allowed",
		},
	},
	{
		File:       "stop_times.txt",
		Name:       "stop_times",
		SQLName:    "gtfs_stop_times",
		KeyColumns: []string{"trip_id", "stop_sequence"},
		Columns: []string{
			"trip_id", "arrival_time", "departure_time", "stop_id",
			"stop_sequence", "stop_headsign", "pickup_type", "drop_off_type",
			"continuous_pickup", "continuous_drop_off",
			"shape_dist_traveled", "timepoint",
		},
	},
	{
		File:       "areas.txt",
		Name:       "areas",
		SQLName:    "gtfs_areas",
		KeyColumns: []string{"area_id"},
		Columns:    []string{"area_id", "area_name"},
	},
	{
		File:       "networks.txt",
		Name:       "networks",
		SQLName:    "gtfs_networks",
		KeyColumns: []string{"network_id"},
		Columns:    []string{"network_id", "network_name"},
	},
	{
		File:       "rider_categories.txt",
		Name:       "rider_categories",
		SQLName:    "gtfs_rider_categories",
		KeyColumns: []string{"rider_category_id"},
		Columns: []string{
			"rider_category_id", "rider_category_name",
			"is_default_fare_category", "eligibility_url",
		},
	},
	{
		File:       "fare_media.txt",
		Name:       "fare_media",
		SQLName:    "gtfs_fare_media",
		KeyColumns: []string{"fare_media_id"},
		Columns:    []string{"fare_media_id", "fare_media_name", "fare_media_type"},
	},
	{
		File:       "fare_products.txt",
		Name:       "fare_products",
		SQLName:    "gtfs_fare_products",
		KeyColumns: []string{"fare_product_id"},
		Columns: []string{
			"fare_product_id", "fare_product_name", "fare_media_id",
			"rider_category_id", "amount", "currency",
		},
	},
	{
		File:         "fare_leg_rules.txt",
		Name:         "fare_leg_rules",
		SQLName:      "gtfs_fare_leg_rules",
		KeyColumns:   []string{"network_id", "from_area_id", "to_area_id", "fare_product_id"},
		OptionalKeys: []string{"network_id", "from_area_id", "to_area_id"},
		Columns: []string{
			"leg_group_id", "network_id", "from_area_id", "to_area_id",
			"from_timeframe_group_id", "to_timeframe_group_id",
			"fare_product_id", "rule_priority",
		},
	},
	{
		File:         "fare_transfer_rules.txt",
		Name:         "fare_transfer_rules",
		SQLName:      "gtfs_fare_transfer_rules",
		KeyColumns:   []string{"from_leg_group_id", "to_leg_group_id", "fare_product_id"},
		OptionalKeys: []string{"from_leg_group_id", "to_leg_group_id", "fare_product_id"},
		Columns: []string{
			"from_leg_group_id", "to_leg_group_id", "transfer_count",
			"duration_limit", "duration_limit_type", "fare_transfer_type",
			"fare_product_id",
		},
	},
}

var specsByFile = func() map[string]*TableSpec {
	m := make(map[string]*TableSpec, len(tableSpecs))
	for i := range tableSpecs {
		spec := &tableSpecs[i]
		spec.accepted = make(map[string]bool, len(spec.Columns)+1)
		for _, c := range spec.Columns {
			spec.accepted[c] = true
		}
		spec.accepted[ImportBatchColumn] = true
		spec.optionalKey = make(map[string]bool, len(spec.OptionalKeys))
		for _, k := range spec.OptionalKeys {
			spec.optionalKey[k] = true
		}
		m[spec.File] = spec
	}
	return m
}()

// Describe looks up the spec for a feed file name. ok is false for files
// that do not correspond to a known GTFS table; such files are skipped by
// the importer, not treated as errors.
func Describe(fileName string) (*TableSpec, bool) {
	spec, ok := specsByFile[fileName]
	return spec, ok
}

// Tables returns all recognized table specs in load/export order.
func Tables() []*TableSpec {
	out := make([]*TableSpec, 0, len(tableSpecs))
	for i := range tableSpecs {
		out = append(out, specsByFile[tableSpecs[i].File])
	}
	return out
}

// Accepts reports whether the destination schema accepts the column.
func (s *TableSpec) Accepts(column string) bool {
	return s.accepted[column]
}

// AcceptedColumns returns the accepted column set, including the import
// tracking column.
func (s *TableSpec) AcceptedColumns() map[string]bool {
	return s.accepted
}

// IsKeyColumn reports whether the column is part of the table's natural key.
func (s *TableSpec) IsKeyColumn(column string) bool {
	for _, k := range s.KeyColumns {
		if k == column {
			return true
		}
	}
	return false
}

// IsOptionalKey reports whether the key column may be absent or empty.
func (s *TableSpec) IsOptionalKey(column string) bool {
	return s.optionalKey[column]
}

// RequiredKeyColumns returns the key columns a file must carry.
func (s *TableSpec) RequiredKeyColumns() []string {
	var cols []string
	for _, k := range s.KeyColumns {
		if !s.optionalKey[k] {
			cols = append(cols, k)
		}
	}
	return cols
}

// ExportColumns returns the columns serialized on export: the accepted
// GTFS columns without internal bookkeeping.
func (s *TableSpec) ExportColumns() []string {
	return s.Columns
}
