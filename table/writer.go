// Package table appends quote rows to an xlsx workbook.
package table

import (
	"os"
	"path/filepath"
	"slices"

	"github.com/pkg/errors"
	"github.com/xuri/excelize/v2"
	"go.uber.org/zap"

	"stockcrawler/quote"
)

var (
	// ErrSchemaMismatch is returned when an existing table has a different header.
	ErrSchemaMismatch = errors.New("table header does not match schema")
	// ErrRowWidth is returned when a row does not have one value per column.
	ErrRowWidth = errors.New("row width does not match schema")
)

// Outcome tells what Persist did to the destination.
type Outcome int

const (
	Skipped Outcome = iota
	Created
	Appended
)

func (o Outcome) String() string {
	switch o {
	case Created:
		return "created"
	case Appended:
		return "appended"
	default:
		return "skipped"
	}
}

// Result describes one Persist call.
type Result struct {
	Outcome Outcome
	Rows    int
	Path    string
}

// Writer persists rows of one schema to a single workbook file.
type Writer struct {
	path   string
	schema quote.Schema
	logger *zap.Logger
}

// NewWriter creates a writer for the workbook at path.
func NewWriter(path string, schema quote.Schema, logger *zap.Logger) *Writer {
	return &Writer{path: path, schema: schema, logger: logger}
}

// Persist writes rows after the last occupied row of the first sheet,
// creating the workbook with a header row when it does not exist yet.
// Nothing is written if any row or the existing header disagrees with the schema.
func (w *Writer) Persist(rows []quote.Row) (Result, error) {
	result := Result{Path: w.path}
	if len(rows) == 0 {
		return result, nil
	}
	for i, row := range rows {
		if len(row) != w.schema.Width() {
			return result, errors.Wrapf(ErrRowWidth, "row %d has %d values, want %d", i, len(row), w.schema.Width())
		}
	}

	f, created, err := w.open()
	if err != nil {
		return result, err
	}
	defer f.Close()

	sheet := f.GetSheetList()[0]
	existing, err := f.GetRows(sheet)
	if err != nil {
		return result, errors.Wrapf(err, "failed to read sheet %s", sheet)
	}

	next := len(existing) + 1
	if len(existing) == 0 {
		if err := setRow(f, sheet, next, w.schema.Headers()); err != nil {
			return result, err
		}
		next++
	} else if !slices.Equal(trimTrailing(existing[0]), w.schema.Headers()) {
		return result, errors.Wrapf(ErrSchemaMismatch, "%s has header %v", w.path, existing[0])
	}

	for _, row := range rows {
		if err := setRow(f, sheet, next, row); err != nil {
			return result, err
		}
		next++
	}

	if err := w.save(f); err != nil {
		return result, err
	}

	result.Rows = len(rows)
	result.Outcome = Appended
	if created {
		result.Outcome = Created
	}
	w.logger.Info("Persisted rows",
		zap.String("path", w.path),
		zap.String("outcome", result.Outcome.String()),
		zap.Int("rows", result.Rows),
		zap.Int("last_row", next-1),
	)
	return result, nil
}

func (w *Writer) open() (*excelize.File, bool, error) {
	if _, err := os.Stat(w.path); err != nil {
		if os.IsNotExist(err) {
			return excelize.NewFile(), true, nil
		}
		return nil, false, errors.Wrapf(err, "failed to stat %s", w.path)
	}
	f, err := excelize.OpenFile(w.path)
	if err != nil {
		return nil, false, errors.Wrapf(err, "failed to open %s", w.path)
	}
	return f, false, nil
}

// save writes the workbook next to the target and renames it into place.
// The replaced file keeps its permission bits; a new file gets 0644.
func (w *Writer) save(f *excelize.File) error {
	mode := os.FileMode(0o644)
	if info, err := os.Stat(w.path); err == nil {
		mode = info.Mode().Perm()
	}

	tmp, err := os.CreateTemp(filepath.Dir(w.path), "."+filepath.Base(w.path)+"-*")
	if err != nil {
		return errors.Wrap(err, "failed to create temporary workbook")
	}
	defer os.Remove(tmp.Name())

	if err := tmp.Chmod(mode); err != nil {
		tmp.Close()
		return errors.Wrapf(err, "failed to set mode on %s", tmp.Name())
	}

	if _, err := f.WriteTo(tmp); err != nil {
		tmp.Close()
		return errors.Wrapf(err, "failed to write %s", tmp.Name())
	}
	if err := tmp.Close(); err != nil {
		return errors.Wrapf(err, "failed to close %s", tmp.Name())
	}
	if err := os.Rename(tmp.Name(), w.path); err != nil {
		return errors.Wrapf(err, "failed to replace %s", w.path)
	}
	return nil
}

func setRow(f *excelize.File, sheet string, rowNum int, values []string) error {
	cell, err := excelize.CoordinatesToCellName(1, rowNum)
	if err != nil {
		return errors.Wrap(err, "failed to address row")
	}
	cells := make([]interface{}, len(values))
	for i, v := range values {
		cells[i] = v
	}
	if err := f.SetSheetRow(sheet, cell, &cells); err != nil {
		return errors.Wrapf(err, "failed to write row %d", rowNum)
	}
	return nil
}

func trimTrailing(row []string) []string {
	for len(row) > 0 && row[len(row)-1] == "" {
		row = row[:len(row)-1]
	}
	return row
}
