// Package models defines the core domain entities for the bodyweight dashboard.
// These models represent weight measurements, the loaded dataset, the filter that
// selects a view of it, and the aggregates and chart description derived from it.
//
// Terminology (matching the source spreadsheet):
//   - Subject: an individual whose weight is tracked (column "NAME").
//   - Group: a categorical grouping of subjects, e.g. a playing position (column "POS").
package models

import (
	"errors"
	"math"
	"time"
)

// Measurement is a single body-weight reading for a subject on a calendar date.
type Measurement struct {
	Subject string    `json:"subject"`
	Group   string    `json:"group"`
	Date    time.Time `json:"date"` // Calendar date, midnight UTC
	Weight  float64   `json:"weight"`
}

// Validate checks that the measurement can be aggregated.
// Weight positivity is deliberately not enforced; rows are assumed clean.
func (m *Measurement) Validate() error {
	if m.Subject == "" {
		return errors.New("subject must not be empty")
	}
	if m.Date.IsZero() {
		return errors.New("date must be set")
	}
	if math.IsNaN(m.Weight) || math.IsInf(m.Weight, 0) {
		return errors.New("weight must be a finite number")
	}
	return nil
}

// CalendarDate truncates t to midnight UTC of its own calendar day.
func CalendarDate(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

// MonthStart returns the first day of t's calendar month at midnight UTC.
func MonthStart(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), 1, 0, 0, 0, 0, time.UTC)
}
