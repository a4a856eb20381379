package gtfs

import (
	"archive/zip"
	"bytes"
	"context"
	"encoding/csv"
	"fmt"
	"strconv"
	"time"
)

// Export serializes all of a project's GTFS tables into one ZIP archive.
// Rows are scoped to the owner/project pair and internal bookkeeping
// columns are never written. Tables with no rows are left out of the
// archive entirely so exported feeds stay minimal. Returns the project's
// display name for the download filename alongside the archive bytes.
func Export(ctx context.Context, store Store, ownerID, projectID string) (string, []byte, error) {
	name, err := store.ProjectName(ctx, ownerID, projectID)
	if err != nil {
		return "", nil, err
	}

	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)

	for _, spec := range Tables() {
		cols, rows, err := store.FetchTable(ctx, ownerID, projectID, spec)
		if err != nil {
			return "", nil, err
		}
		if len(rows) == 0 {
			continue
		}

		entry, err := zw.Create(spec.File)
		if err != nil {
			return "", nil, fmt.Errorf("creating archive entry %s: %w", spec.File, err)
		}
		if err := writeTable(entry, cols, rows); err != nil {
			return "", nil, fmt.Errorf("serializing %s: %w", spec.File, err)
		}
	}

	if err := zw.Close(); err != nil {
		return "", nil, fmt.Errorf("finalizing archive: %w", err)
	}

	return name, buf.Bytes(), nil
}

func writeTable(w interface{ Write([]byte) (int, error) }, cols []string, rows [][]any) error {
	cw := csv.NewWriter(w)

	if err := cw.Write(cols); err != nil {
		return err
	}

	record := make([]string, len(cols))
	for _, row := range rows {
		for i := range cols {
			if i < len(row) {
				record[i] = formatValue(row[i])
			} else {
				record[i] = ""
			}
		}
		if err := cw.Write(record); err != nil {
			return err
		}
	}

	cw.Flush()
	return cw.Error()
}

// formatValue renders a store value as GTFS text. NULL becomes the empty
// string; numeric types round-trip without exponent notation.
func formatValue(v any) string {
	switch val := v.(type) {
	case nil:
		return ""
	case string:
		return val
	case []byte:
		return string(val)
	case int64:
		return strconv.FormatInt(val, 10)
	case int:
		return strconv.Itoa(val)
	case float64:
		return strconv.FormatFloat(val, 'f', -1, 64)
	case float32:
		return strconv.FormatFloat(float64(val), 'f', -1, 32)
	case bool:
		if val {
			return "1"
		}
		return "0"
	case time.Time:
		return val.Format("20060102")
	default:
		return fmt.Sprintf("%v", val)
	}
}
