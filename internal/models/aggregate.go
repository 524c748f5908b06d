package models

import "time"

// DailyAggregate is the mean weight over all matching records on one calendar date.
type DailyAggregate struct {
	Date       time.Time `json:"date"`
	MeanWeight float64   `json:"mean_weight"`
	Count      int       `json:"count"`
}

// MonthlyAggregate is the mean weight over all matching records in one calendar month.
type MonthlyAggregate struct {
	YearMonth  string    `json:"year_month"` // "2006-01"
	Start      time.Time `json:"month_start"`
	MeanWeight float64   `json:"mean_weight"`
	Count      int       `json:"count"`
}

// Aggregates bundles both aggregate series for one filter.
type Aggregates struct {
	Filter  Filter             `json:"filter"`
	Daily   []DailyAggregate   `json:"daily"`
	Monthly []MonthlyAggregate `json:"monthly"`
}
