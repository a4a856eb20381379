package gtfs

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestReconcile(t *testing.T) {
	spec, ok := Describe("stops.txt")
	require.True(t, ok)

	rec := Record{
		"stop_id":         "S1",
		"stop_name":       "Central Station",
		"stop_desc":       "",
		"editor_note":     "internal only",
		ImportBatchColumn: int64(7),
	}

	out := Reconcile(rec, spec)

	assert.Equal(t, "S1", out["stop_id"])
	assert.Equal(t, "Central Station", out["stop_name"])
	assert.NotContains(t, out, "editor_note")

	// Empty strings become NULL, not "".
	val, present := out["stop_desc"]
	assert.True(t, present)
	assert.Nil(t, val)

	assert.Equal(t, int64(7), out[ImportBatchColumn])
}

func TestReconcileKeepsEmptyKeyColumns(t *testing.T) {
	spec, ok := Describe("fare_leg_rules.txt")
	require.True(t, ok)

	// An empty key value means wildcard, so it must stay "" and not
	// become NULL against a NOT NULL key column.
	out := Reconcile(Record{
		"network_id":      "",
		"from_area_id":    "",
		"leg_group_id":    "",
		"fare_product_id": "FP1",
	}, spec)

	assert.Equal(t, "", out["network_id"])
	assert.Equal(t, "", out["from_area_id"])
	assert.Equal(t, "FP1", out["fare_product_id"])
	assert.Nil(t, out["leg_group_id"])
}

func TestUsableColumns(t *testing.T) {
	spec, ok := Describe("stops.txt")
	require.True(t, ok)

	tests := []struct {
		name   string
		header []string
		want   []string
	}{
		{
			name:   "subset in spec order",
			header: []string{"stop_name", "stop_id", "stop_lat"},
			want:   []string{"stop_id", "stop_name", "stop_lat"},
		},
		{
			name:   "unknown columns dropped",
			header: []string{"stop_id", "editor_note"},
			want:   []string{"stop_id"},
		},
		{
			name:   "nothing usable",
			header: []string{"foo", "bar"},
			want:   nil,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, UsableColumns(tt.header, spec))
		})
	}
}

func TestHasKeyColumns(t *testing.T) {
	stopTimes, ok := Describe("stop_times.txt")
	require.True(t, ok)

	assert.True(t, HasKeyColumns([]string{"trip_id", "stop_id", "stop_sequence"}, stopTimes))
	assert.False(t, HasKeyColumns([]string{"trip_id", "stop_id"}, stopTimes))
	assert.False(t, HasKeyColumns(nil, stopTimes))
}

func TestHasKeyColumnsOptionalKeys(t *testing.T) {
	legRules, ok := Describe("fare_leg_rules.txt")
	require.True(t, ok)

	// Area and network columns are wildcards when absent; only
	// fare_product_id is required.
	assert.True(t, HasKeyColumns([]string{"leg_group_id", "fare_product_id"}, legRules))
	assert.True(t, HasKeyColumns([]string{"network_id", "fare_product_id"}, legRules))
	assert.False(t, HasKeyColumns([]string{"network_id", "from_area_id", "to_area_id"}, legRules))

	transferRules, ok := Describe("fare_transfer_rules.txt")
	require.True(t, ok)
	assert.True(t, HasKeyColumns([]string{"transfer_count"}, transferRules))
}

func TestRowValues(t *testing.T) {
	rec := Record{"a": "1", "b": nil, "c": "3"}
	assert.Equal(t, []any{"3", "1", nil}, RowValues(rec, []string{"c", "a", "b"}))
}
