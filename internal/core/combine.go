package core

// combine.go merges every staged file into one CSV document. The pipeline
// has two phases: produce (list, read, parse, header-check, serialize) is
// all-or-nothing with zero mutation on any failure; cleanup (deleting the
// sources) runs only after produce succeeded and is best effort.

import (
	"bytes"
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"slices"
	"unicode/utf8"

	"github.com/JonMunkholm/CsvCombine/internal/logging"
)

// Combiner merges the staging area's files under a single header.
type Combiner struct {
	store Store
}

// NewCombiner returns a Combiner over the given store.
func NewCombiner(store Store) *Combiner {
	return &Combiner{store: store}
}

// Combine runs the merge pipeline.
//
// The header of the first file with at least one data row becomes the
// reference header; every later file must match it exactly (same names,
// same order, same count). Empty and header-only files are skipped with a
// warning, never aborting the run, but they are still deleted afterwards.
// Header mismatches, malformed CSV, non-UTF-8 content, and files that
// vanish between listing and reading abort the whole run with nothing
// deleted.
func (c *Combiner) Combine(ctx context.Context) (*CombineOutput, error) {
	logger := logging.FromContext(ctx)

	listing, err := c.store.List()
	if err != nil {
		return nil, err
	}
	if len(listing) == 0 {
		return nil, ErrNoFiles
	}

	// Read everything before parsing anything. A file deleted after the
	// listing aborts the run; silently combining a partial set would hide
	// data loss.
	contents := make([][]byte, len(listing))
	for i, f := range listing {
		data, err := c.store.ReadAll(f.Name)
		if err != nil {
			if errors.Is(err, ErrNotFound) {
				return nil, &FileVanishedError{Name: f.Name}
			}
			return nil, err
		}
		contents[i] = data
	}

	var (
		header  []string
		rows    [][]string
		skipped []string
		parsed  int
	)

	for i, f := range listing {
		data := contents[i]
		if len(data) == 0 {
			logger.Warn("skipping empty file", "file", f.Name)
			skipped = append(skipped, f.Name)
			continue
		}

		records, err := parseCSV(data)
		if err != nil {
			return nil, &ParseError{Name: f.Name, Err: err}
		}
		if len(records) <= 1 {
			// No data rows. Header-only files are skipped like empty ones
			// and never supply the reference header.
			logger.Warn("skipping file with no data rows", "file", f.Name)
			skipped = append(skipped, f.Name)
			continue
		}

		if header == nil {
			header = records[0]
		} else if !slices.Equal(records[0], header) {
			return nil, &HeaderMismatchError{Name: f.Name, Want: header, Got: records[0]}
		}

		rows = append(rows, records[1:]...)
		parsed++
	}

	if parsed == 0 {
		return nil, ErrNoValidData
	}

	data, err := writeCSV(header, rows)
	if err != nil {
		return nil, err
	}

	// Produce succeeded; everything listed at the start is cleared out,
	// including the skipped files. Failures here are warned and swallowed.
	for _, f := range listing {
		if err := c.store.Remove(f.Name); err != nil {
			logger.Warn("could not delete staged file after combine", "file", f.Name, "error", err)
		}
	}

	logger.Info("combine produced output",
		"files", parsed, "rows", len(rows), "skipped", len(skipped), "bytes", len(data))

	return &CombineOutput{
		Filename:  CombinedFilename,
		Data:      data,
		FileCount: parsed,
		RowCount:  len(rows),
		Skipped:   skipped,
	}, nil
}

var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

// stripBOM drops a leading UTF-8 byte order mark. Windows tools routinely
// prepend one, and it would otherwise end up inside the first header name.
func stripBOM(data []byte) []byte {
	return bytes.TrimPrefix(data, utf8BOM)
}

// parseCSV decodes records with strict field counts: the first record fixes
// the expected width and ragged rows are errors. Fields are raw strings;
// empty strings survive verbatim.
func parseCSV(data []byte) ([][]string, error) {
	data = stripBOM(data)
	if !utf8.Valid(data) {
		return nil, ErrInvalidEncoding
	}
	r := csv.NewReader(bytes.NewReader(data))
	return r.ReadAll()
}

// writeCSV serializes the header and rows with standard CSV quoting.
func writeCSV(header []string, rows [][]string) ([]byte, error) {
	var buf bytes.Buffer
	w := csv.NewWriter(&buf)

	if err := w.Write(header); err != nil {
		return nil, fmt.Errorf("serialize header: %w", err)
	}
	if err := w.WriteAll(rows); err != nil {
		return nil, fmt.Errorf("serialize rows: %w", err)
	}

	return buf.Bytes(), nil
}
