// Package dataset reads measurement tables into an immutable models.Dataset.
//
// Loading is all-or-nothing: the first row that fails to parse rejects the
// whole file, with an error naming the line and column.
package dataset

import (
	"bytes"
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/rewired-gh/bodyweight-dash/internal/config"

	"github.com/rewired-gh/bodyweight-dash/internal/logger"
	"github.com/rewired-gh/bodyweight-dash/internal/models"
	"github.com/rewired-gh/bodyweight-dash/internal/remote"
)

// ErrMissingColumn is returned when a configured column is absent from the header.
var ErrMissingColumn = errors.New("missing column")

// Columns names the header cells holding each measurement field.
type Columns struct {
	Subject string
	Group   string
	Date    string
	Weight  string
}

// DefaultColumns matches the BodyWeightMaster spreadsheet export.
var DefaultColumns = Columns{Subject: "NAME", Group: "POS", Date: "DATE", Weight: "WEIGHT"}

// DefaultDateLayouts are tried in order when no layouts are configured.
var DefaultDateLayouts = []string{"2006-01-02", "1/2/2006", "2006-01-02 15:04:05", time.RFC3339}

// Fetcher downloads a remote dataset.
type Fetcher interface {
	Fetch(ctx context.Context, url string) ([]byte, error)
}

// Loader parses CSV measurement tables.
type Loader struct {
	columns Columns
	layouts []string
	fetcher Fetcher
}

// NewLoader creates a Loader. fetcher may be nil if only local files are read.
func NewLoader(columns Columns, layouts []string, fetcher Fetcher) *Loader {
	if len(layouts) == 0 {
		layouts = DefaultDateLayouts
	}
	return &Loader{columns: columns, layouts: layouts, fetcher: fetcher}
}

// NewLoaderFromConfig builds a Loader whose remote reads go through a
// retrying HTTP client.
func NewLoaderFromConfig(cfg config.DatasetConfig) *Loader {
	columns := Columns{
		Subject: cfg.Columns.Subject,
		Group:   cfg.Columns.Group,
		Date:    cfg.Columns.Date,
		Weight:  cfg.Columns.Weight,
	}
	client := remote.NewClient(cfg.FetchTimeout, cfg.MaxRetries, cfg.RetryDelayBase)
	return NewLoader(columns, cfg.DateLayouts, client)
}

// IsRemote reports whether path should be fetched over HTTP.
func IsRemote(path string) bool {
	return strings.HasPrefix(path, "http://") || strings.HasPrefix(path, "https://")
}

// Load reads the CSV at path, which may be a local file or an http(s) URL.
func (l *Loader) Load(ctx context.Context, path string) (*models.Dataset, error) {
	if IsRemote(path) {
		if l.fetcher == nil {
			return nil, fmt.Errorf("no fetcher configured for remote dataset %s", path)
		}
		body, err := l.fetcher.Fetch(ctx, path)
		if err != nil {
			return nil, fmt.Errorf("failed to fetch dataset: %w", err)
		}
		return l.Parse(bytes.NewReader(body), path)
	}

	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open dataset: %w", err)
	}
	defer f.Close()

	return l.Parse(f, path)
}

// Parse reads a CSV table with a header row.
func (l *Loader) Parse(r io.Reader, source string) (*models.Dataset, error) {
	records, err := l.ReadMeasurements(r)
	if err != nil {
		return nil, err
	}
	ds := models.NewDataset(uuid.NewString(), source, records)
	logger.Info("Loaded %d measurements (%d subjects, %d groups) from %s",
		ds.Len(), len(ds.Subjects()), len(ds.Groups()), source)
	return ds, nil
}

// ReadMeasurements parses all rows without wrapping them in a Dataset.
func (l *Loader) ReadMeasurements(r io.Reader) ([]models.Measurement, error) {
	reader := csv.NewReader(r)
	reader.TrimLeadingSpace = true

	header, err := reader.Read()
	if err == io.EOF {
		return nil, fmt.Errorf("dataset has no header row")
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read header: %w", err)
	}

	idx, err := l.columnIndex(header)
	if err != nil {
		return nil, err
	}

	var records []models.Measurement
	for {
		row, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("failed to read dataset: %w", err)
		}
		line, _ := reader.FieldPos(0)

		m, err := l.parseRow(row, idx)
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", line, err)
		}
		records = append(records, m)
	}

	return records, nil
}

type columnIndex struct {
	subject, group, date, weight int
}

func (l *Loader) columnIndex(header []string) (columnIndex, error) {
	positions := make(map[string]int, len(header))
	for i, name := range header {
		name = strings.TrimPrefix(name, "\ufeff")
		positions[strings.ToUpper(strings.TrimSpace(name))] = i
	}

	find := func(name string) (int, error) {
		i, ok := positions[strings.ToUpper(strings.TrimSpace(name))]
		if !ok {
			return 0, fmt.Errorf("%w: %q", ErrMissingColumn, name)
		}
		return i, nil
	}

	var idx columnIndex
	var err error
	if idx.subject, err = find(l.columns.Subject); err != nil {
		return idx, err
	}
	if idx.group, err = find(l.columns.Group); err != nil {
		return idx, err
	}
	if idx.date, err = find(l.columns.Date); err != nil {
		return idx, err
	}
	if idx.weight, err = find(l.columns.Weight); err != nil {
		return idx, err
	}
	return idx, nil
}

func (l *Loader) parseRow(row []string, idx columnIndex) (models.Measurement, error) {
	date, err := l.ParseDate(row[idx.date])
	if err != nil {
		return models.Measurement{}, fmt.Errorf("column %s: %w", l.columns.Date, err)
	}

	weight, err := strconv.ParseFloat(strings.TrimSpace(row[idx.weight]), 64)
	if err != nil {
		return models.Measurement{}, fmt.Errorf("column %s: invalid weight %q", l.columns.Weight, row[idx.weight])
	}

	m := models.Measurement{
		Subject: strings.TrimSpace(row[idx.subject]),
		Group:   strings.TrimSpace(row[idx.group]),
		Date:    date,
		Weight:  weight,
	}
	if err := m.Validate(); err != nil {
		return models.Measurement{}, fmt.Errorf("invalid measurement: %w", err)
	}
	return m, nil
}

// ParseDate tries each configured layout and returns the calendar date.
func (l *Loader) ParseDate(value string) (time.Time, error) {
	value = strings.TrimSpace(value)
	for _, layout := range l.layouts {
		if t, err := time.Parse(layout, value); err == nil {
			return models.CalendarDate(t), nil
		}
	}
	return time.Time{}, fmt.Errorf("unparseable date %q", value)
}
