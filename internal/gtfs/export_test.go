package gtfs

import (
	"archive/zip"
	"bytes"
	"context"
	"encoding/csv"
	"io"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func readArchive(t *testing.T, data []byte) map[string][][]string {
	t.Helper()

	zr, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	require.NoError(t, err)

	out := make(map[string][][]string, len(zr.File))
	for _, f := range zr.File {
		rc, err := f.Open()
		require.NoError(t, err)
		content, err := io.ReadAll(rc)
		rc.Close()
		require.NoError(t, err)

		records, err := csv.NewReader(bytes.NewReader(content)).ReadAll()
		require.NoError(t, err)
		out[f.Name] = records
	}
	return out
}

func importFeed(t *testing.T, store Store, ownerID, projectID string, files map[string]string) {
	t.Helper()
	imp := newTestImporter(store, t.TempDir())
	summary, err := imp.Run(context.Background(), ownerID, projectID, writeFeedZip(t, files), "feed.zip")
	require.NoError(t, err)
	require.True(t, summary.Succeeded())
}

func TestExportOmitsEmptyTables(t *testing.T) {
	store := newMemStore()
	importFeed(t, store, "owner-1", "proj-1", map[string]string{
		"stops.txt": "stop_id,stop_name\nS1,Central Station\n",
	})

	name, data, err := Export(context.Background(), store, "owner-1", "proj-1")
	require.NoError(t, err)
	assert.Equal(t, "proj-1", name)

	tables := readArchive(t, data)
	assert.Contains(t, tables, "stops.txt")
	assert.NotContains(t, tables, "routes.txt")
	assert.NotContains(t, tables, "fare_products.txt")
}

func TestExportScopesToOwnerAndProject(t *testing.T) {
	store := newMemStore()
	importFeed(t, store, "owner-1", "proj-1", map[string]string{
		"stops.txt": "stop_id,stop_name\nS1,First Project Stop\n",
	})
	// Second project reuses the same stop id; rows must not bleed across.
	importFeed(t, store, "owner-1", "proj-2", map[string]string{
		"stops.txt": "stop_id,stop_name\nS1,Second Project Stop\nS2,Extra Stop\n",
	})

	_, data, err := Export(context.Background(), store, "owner-1", "proj-1")
	require.NoError(t, err)

	rows := readArchive(t, data)["stops.txt"]
	require.Len(t, rows, 2, "header plus one data row")

	header := rows[0]
	nameIdx := -1
	for i, c := range header {
		if c == "stop_name" {
			nameIdx = i
		}
	}
	require.GreaterOrEqual(t, nameIdx, 0)
	assert.Equal(t, "First Project Stop", rows[1][nameIdx])
}

func TestExportNeverWritesBatchColumn(t *testing.T) {
	store := newMemStore()
	importFeed(t, store, "owner-1", "proj-1", map[string]string{
		"stops.txt": "stop_id,stop_name\nS1,Central Station\n",
	})

	_, data, err := Export(context.Background(), store, "owner-1", "proj-1")
	require.NoError(t, err)

	header := readArchive(t, data)["stops.txt"][0]
	assert.NotContains(t, header, ImportBatchColumn)
}

func TestExportUnknownProject(t *testing.T) {
	_, _, err := Export(context.Background(), newMemStore(), "owner-1", "nope")
	assert.ErrorIs(t, err, ErrProjectNotFound)
}

func TestExportImportRoundTrip(t *testing.T) {
	first := newMemStore()
	importFeed(t, first, "owner-1", "proj-1", smallFeed())

	_, data, err := Export(context.Background(), first, "owner-1", "proj-1")
	require.NoError(t, err)

	// Feed the export back into a fresh store; the data must survive
	// unchanged.
	exported := readArchive(t, data)
	files := make(map[string]string, len(exported))
	for name, records := range exported {
		var buf bytes.Buffer
		require.NoError(t, csv.NewWriter(&buf).WriteAll(records))
		files[name] = buf.String()
	}

	second := newMemStore()
	importFeed(t, second, "owner-1", "proj-1", files)

	_, again, err := Export(context.Background(), second, "owner-1", "proj-1")
	require.NoError(t, err)

	assert.Equal(t, exported, readArchive(t, again))
}

func TestFormatValue(t *testing.T) {
	tests := []struct {
		name string
		in   any
		want string
	}{
		{"nil", nil, ""},
		{"string", "hello", "hello"},
		{"bytes", []byte("raw"), "raw"},
		{"int64", int64(42), "42"},
		{"int", 7, "7"},
		{"float64", 41.8781, "41.8781"},
		{"float64 no exponent", 1234567.0, "1234567"},
		{"float32", float32(2.5), "2.5"},
		{"bool true", true, "1"},
		{"bool false", false, "0"},
		{"date", time.Date(2026, 8, 29, 0, 0, 0, 0, time.UTC), "20260829"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, formatValue(tt.in))
		})
	}
}
