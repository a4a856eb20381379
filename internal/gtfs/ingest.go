package gtfs

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
)

// Record maps column names to scalar values for one data row. Values are
// strings as read from the file until the reconciler rewrites empties to
// nil; the batch tag is an int64.
type Record map[string]any

// TableFile is the result of ingesting one delimited text file: the header
// columns in file order, one record per well-formed data row, and a count
// of rows dropped for being malformed.
type TableFile struct {
	Header    []string
	Records   []Record
	Malformed int
}

// IngestFile reads a delimited GTFS text file into records tagged with the
// import batch id. A missing or empty header row is a fatal parse error
// for this file only. Rows the CSV parser rejects, and rows whose field
// count does not match the header, are skipped and counted, never
// aborting the rest of the file. I/O failures underneath the parser fail
// the file.
func IngestFile(path string, batchID int64) (*TableFile, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening %s: %w", path, err)
	}
	defer f.Close()

	return ingest(f, batchID)
}

func ingest(r io.Reader, batchID int64) (*TableFile, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1
	reader.LazyQuotes = true
	reader.TrimLeadingSpace = true

	header, err := reader.Read()
	if err != nil {
		return nil, fmt.Errorf("reading header: %w", err)
	}

	columns := make([]string, 0, len(header))
	for i, h := range header {
		h = strings.TrimSpace(h)
		if i == 0 {
			// Strip a UTF-8 BOM if the feed carries one.
			h = strings.TrimPrefix(h, "\ufeff")
		}
		columns = append(columns, h)
	}
	if len(columns) == 0 || (len(columns) == 1 && columns[0] == "") {
		return nil, fmt.Errorf("reading header: no columns")
	}

	table := &TableFile{Header: columns}

	for {
		row, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			var parseErr *csv.ParseError
			if !errors.As(err, &parseErr) {
				// Not a bad row but a failing reader; it would return
				// the same error on every retry.
				return nil, fmt.Errorf("reading rows: %w", err)
			}
			table.Malformed++
			continue
		}
		if len(row) != len(columns) {
			table.Malformed++
			continue
		}

		record := make(Record, len(columns)+1)
		for i, col := range columns {
			if col == "" {
				continue
			}
			record[col] = strings.TrimSpace(row[i])
		}
		record[ImportBatchColumn] = batchID
		table.Records = append(table.Records, record)
	}

	return table, nil
}
