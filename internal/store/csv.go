package store

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/i474232898/air-quality-predict/internal/airquality"
)

var (
	// ErrNotFound is returned when an input artifact does not exist yet.
	ErrNotFound = errors.New("input not found")
	// ErrMalformed is returned when an input artifact cannot be parsed.
	ErrMalformed = errors.New("malformed input")
)

var rawHeader = []string{"datetime", "value", "location", "unit"}

// RawFile is the raw measurement CSV written by the collector.
type RawFile struct {
	Path string
}

// SaveMeasurements overwrites the file with ms.
func (f RawFile) SaveMeasurements(_ context.Context, ms []airquality.Measurement) error {
	return writeCSV(f.Path, rawHeader, len(ms), func(i int) []string {
		m := ms[i]
		return []string{
			m.Timestamp.UTC().Format(time.RFC3339),
			formatFloat(m.Value),
			m.Location,
			m.Unit,
		}
	})
}

// LoadMeasurements reads every measurement in the file.
func (f RawFile) LoadMeasurements(_ context.Context) ([]airquality.Measurement, error) {
	records, err := readCSV(f.Path, rawHeader)
	if err != nil {
		return nil, err
	}

	ms := make([]airquality.Measurement, 0, len(records))
	for i, rec := range records {
		line := i + 2
		ts, err := time.Parse(time.RFC3339, rec[0])
		if err != nil {
			return nil, fmt.Errorf("%w: %s line %d: datetime: %v", ErrMalformed, f.Path, line, err)
		}
		v, err := strconv.ParseFloat(rec[1], 64)
		if err != nil {
			return nil, fmt.Errorf("%w: %s line %d: value: %v", ErrMalformed, f.Path, line, err)
		}
		ms = append(ms, airquality.Measurement{
			Timestamp: ts.UTC(),
			Value:     v,
			Location:  rec[2],
			Unit:      rec[3],
		})
	}
	return ms, nil
}

func featureHeader() []string {
	h := make([]string, 0, len(airquality.FeatureColumns)+2)
	h = append(h, "date")
	h = append(h, airquality.FeatureColumns...)
	return append(h, airquality.TargetColumn)
}

// FeatureFile is the processed feature table written by the preprocessor.
type FeatureFile struct {
	Path string
}

// Save overwrites the file with rows.
func (f FeatureFile) Save(rows []airquality.FeatureRow) error {
	return writeCSV(f.Path, featureHeader(), len(rows), func(i int) []string {
		r := rows[i]
		rec := make([]string, 0, len(airquality.FeatureColumns)+2)
		rec = append(rec, r.Date.Format(time.DateOnly))
		for _, v := range r.Features() {
			rec = append(rec, formatFloat(v))
		}
		return append(rec, formatFloat(r.PM25NextDay))
	})
}

// Load reads all feature rows in file order.
func (f FeatureFile) Load() ([]airquality.FeatureRow, error) {
	records, err := readCSV(f.Path, featureHeader())
	if err != nil {
		return nil, err
	}

	rows := make([]airquality.FeatureRow, 0, len(records))
	for i, rec := range records {
		line := i + 2
		date, err := time.Parse(time.DateOnly, rec[0])
		if err != nil {
			return nil, fmt.Errorf("%w: %s line %d: date: %v", ErrMalformed, f.Path, line, err)
		}

		vals := make([]float64, len(rec)-1)
		for j, s := range rec[1:] {
			v, err := strconv.ParseFloat(s, 64)
			if err != nil {
				return nil, fmt.Errorf("%w: %s line %d: %s: %v", ErrMalformed, f.Path, line, featureHeader()[j+1], err)
			}
			vals[j] = v
		}

		rows = append(rows, airquality.FeatureRow{
			Date:        date,
			PM25:        vals[0],
			Lag1:        vals[1],
			Lag2:        vals[2],
			Lag7:        vals[3],
			Rolling3:    vals[4],
			Rolling7:    vals[5],
			DayOfWeek:   int(vals[6]),
			Month:       int(vals[7]),
			PM25NextDay: vals[8],
		})
	}
	return rows, nil
}

// writeCSV replaces path atomically: rows go to a temp file in the same directory,
// which is renamed over path only after a successful flush.
func writeCSV(path string, header []string, n int, record func(i int) []string) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("mkdir %s: %w", dir, err)
	}

	tmp, err := os.CreateTemp(dir, filepath.Base(path)+".*.tmp")
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}
	defer os.Remove(tmp.Name())

	w := csv.NewWriter(tmp)
	if err := w.Write(header); err != nil {
		tmp.Close()
		return fmt.Errorf("write %s: %w", path, err)
	}
	for i := 0; i < n; i++ {
		if err := w.Write(record(i)); err != nil {
			tmp.Close()
			return fmt.Errorf("write %s: %w", path, err)
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		tmp.Close()
		return fmt.Errorf("write %s: %w", path, err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close %s: %w", path, err)
	}
	return os.Rename(tmp.Name(), path)
}

func readCSV(path string, header []string) ([][]string, error) {
	fh, err := os.Open(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("%w: %w", ErrNotFound, err)
		}
		return nil, err
	}
	defer fh.Close()

	r := csv.NewReader(fh)
	r.FieldsPerRecord = len(header)

	got, err := r.Read()
	if err == io.EOF {
		return nil, fmt.Errorf("%w: %s is empty", ErrMalformed, path)
	}
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrMalformed, path, err)
	}
	for i := range header {
		if got[i] != header[i] {
			return nil, fmt.Errorf("%w: %s: column %d is %q, want %q", ErrMalformed, path, i+1, got[i], header[i])
		}
	}

	records, err := r.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrMalformed, path, err)
	}
	return records, nil
}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
