package gtfs

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBuildUpsertSQL(t *testing.T) {
	spec, ok := Describe("stops.txt")
	require.True(t, ok)

	sql := buildUpsertSQL(spec, []string{"stop_id", "stop_name", "stop_lat"})

	assert.Equal(t,
		"INSERT INTO gtfs_stops (owner_id, project_id, import_batch_id, stop_id, stop_name, stop_lat) "+
			"VALUES ($1, $2, $3, $4, $5, $6) "+
			"ON CONFLICT (owner_id, project_id, stop_id) "+
			"DO UPDATE SET import_batch_id = EXCLUDED.import_batch_id, "+
			"stop_name = EXCLUDED.stop_name, stop_lat = EXCLUDED.stop_lat",
		sql,
	)
}

func TestBuildUpsertSQLCompositeKey(t *testing.T) {
	spec, ok := Describe("stop_times.txt")
	require.True(t, ok)

	sql := buildUpsertSQL(spec, []string{"trip_id", "stop_sequence", "stop_id", "arrival_time"})

	assert.Contains(t, sql, "ON CONFLICT (owner_id, project_id, trip_id, stop_sequence)")
	// Key columns never appear in the update list.
	assert.NotContains(t, sql, "trip_id = EXCLUDED.trip_id")
	assert.NotContains(t, sql, "stop_sequence = EXCLUDED.stop_sequence")
	assert.Contains(t, sql, "stop_id = EXCLUDED.stop_id")
	assert.Contains(t, sql, "arrival_time = EXCLUDED.arrival_time")
}

func TestBuildUpsertSQLKeyOnlyColumns(t *testing.T) {
	spec, ok := Describe("areas.txt")
	require.True(t, ok)

	sql := buildUpsertSQL(spec, []string{"area_id"})

	// With nothing but the key present, only the batch tag is refreshed.
	assert.Contains(t, sql, "DO UPDATE SET import_batch_id = EXCLUDED.import_batch_id")
	assert.NotContains(t, sql, "area_id = EXCLUDED.area_id")
}
