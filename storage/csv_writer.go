package storage

import (
	"context"
	"encoding/csv"
	"os"
	"path/filepath"
	"strconv"

	"zap-scraper/models"
)

// CSVWriter writes a run's records to a single CSV file.
type CSVWriter struct {
	path string
}

func NewCSVWriter(path string) *CSVWriter {
	return &CSVWriter{path: path}
}

func (c *CSVWriter) Path() string {
	return c.path
}

func (c *CSVWriter) Write(_ context.Context, result *models.RunResult) error {
	return WriteRecords(result.Records, c.path)
}

func (c *CSVWriter) Close() error {
	return nil
}

// WriteRecords writes the header and one row per record to path. The data
// goes to a temporary file in the same directory which is renamed over path
// only once fully synced, so path is either replaced or left untouched.
func WriteRecords(records []models.ListingRecord, path string) (err error) {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return &WriteError{Path: path, Op: "mkdir", Err: err}
	}

	tmp, err := os.CreateTemp(dir, "."+filepath.Base(path)+".*.tmp")
	if err != nil {
		return &WriteError{Path: path, Op: "create", Err: err}
	}
	defer func() {
		if err != nil {
			_ = tmp.Close()
			_ = os.Remove(tmp.Name())
		}
	}()

	w := csv.NewWriter(tmp)
	if err := w.Write(models.Columns); err != nil {
		return &WriteError{Path: path, Op: "write", Err: err}
	}
	for _, r := range records {
		if err := w.Write(row(r)); err != nil {
			return &WriteError{Path: path, Op: "write", Err: err}
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return &WriteError{Path: path, Op: "write", Err: err}
	}

	if err := tmp.Chmod(0o644); err != nil {
		return &WriteError{Path: path, Op: "chmod", Err: err}
	}
	if err := tmp.Sync(); err != nil {
		return &WriteError{Path: path, Op: "sync", Err: err}
	}
	if err := tmp.Close(); err != nil {
		return &WriteError{Path: path, Op: "close", Err: err}
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		return &WriteError{Path: path, Op: "rename", Err: err}
	}
	return nil
}

// row renders r in models.Columns order.
func row(r models.ListingRecord) []string {
	return []string{
		formatFloat(r.Price),
		formatFloat(r.CondominiumFee),
		formatFloat(r.PropertyTaxFee),
		formatFloat(r.FloorSizeSqm),
		strconv.Itoa(r.Bedrooms),
		strconv.Itoa(r.Bathrooms),
		strconv.Itoa(r.ParkingSpaces),
		r.Address,
		r.Title,
		r.Link,
		r.PublisherName,
		r.ListingID,
		r.UnitTypesCell(),
	}
}

func formatFloat(f float64) string {
	return strconv.FormatFloat(f, 'f', -1, 64)
}
