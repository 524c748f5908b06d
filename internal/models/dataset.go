package models

import (
	"sort"
	"time"
)

// Dataset is the ordered, read-only set of measurements loaded at startup.
// Nothing mutates a Dataset after NewDataset returns.
type Dataset struct {
	ID       string
	Source   string
	LoadedAt time.Time
	records  []Measurement
}

// NewDataset copies records into a new Dataset.
func NewDataset(id, source string, records []Measurement) *Dataset {
	owned := make([]Measurement, len(records))
	copy(owned, records)
	return &Dataset{
		ID:       id,
		Source:   source,
		LoadedAt: time.Now(),
		records:  owned,
	}
}

// Records returns the measurements in load order. Callers must not modify the slice.
func (d *Dataset) Records() []Measurement {
	if d == nil {
		return nil
	}
	return d.records
}

// Len returns the number of measurements.
func (d *Dataset) Len() int {
	if d == nil {
		return 0
	}
	return len(d.records)
}

// Subjects returns the distinct subject ids, sorted.
func (d *Dataset) Subjects() []string {
	return d.distinct(func(m Measurement) string { return m.Subject })
}

// Groups returns the distinct group ids, sorted.
func (d *Dataset) Groups() []string {
	return d.distinct(func(m Measurement) string { return m.Group })
}

// Values returns the distinct values of the field that mode filters on.
func (d *Dataset) Values(mode Mode) []string {
	if mode == ModeGroup {
		return d.Groups()
	}
	return d.Subjects()
}

func (d *Dataset) distinct(key func(Measurement) string) []string {
	seen := make(map[string]struct{})
	values := make([]string, 0)
	for _, m := range d.Records() {
		k := key(m)
		if _, ok := seen[k]; ok {
			continue
		}
		seen[k] = struct{}{}
		values = append(values, k)
	}
	sort.Strings(values)
	return values
}
