// Package trend turns a dataset and a filter into daily and monthly weight
// averages and a layered chart description:
//
//	faint daily trace per month  +  bold 30-day segment at each monthly mean
//
// Everything here is a pure function of its inputs. Aggregates are recomputed
// on every call; nothing is cached between filters.
package trend

import (
	"sort"
	"time"

	"gonum.org/v1/gonum/stat"

	"github.com/rewired-gh/bodyweight-dash/internal/models"
)

// Select returns the records visible under f, in dataset order.
// An unresolved filter selects nothing.
func Select(ds *models.Dataset, f models.Filter) []models.Measurement {
	if !f.Resolved() {
		return nil
	}
	var subset []models.Measurement
	for _, m := range ds.Records() {
		if f.Matches(m) {
			subset = append(subset, m)
		}
	}
	return subset
}

// bucket collects the weights that fall into one day or month.
type bucket struct {
	key     time.Time
	weights []float64
}

// groupBy buckets weights by key and returns the buckets in ascending key order.
func groupBy(records []models.Measurement, key func(time.Time) time.Time) []bucket {
	index := make(map[time.Time]int)
	var buckets []bucket
	for _, m := range records {
		k := key(m.Date)
		i, ok := index[k]
		if !ok {
			i = len(buckets)
			index[k] = i
			buckets = append(buckets, bucket{key: k})
		}
		buckets[i].weights = append(buckets[i].weights, m.Weight)
	}
	sort.Slice(buckets, func(i, j int) bool {
		return buckets[i].key.Before(buckets[j].key)
	})
	return buckets
}

// DailyAverages returns one mean per distinct calendar date, ascending by date.
func DailyAverages(records []models.Measurement) []models.DailyAggregate {
	buckets := groupBy(records, models.CalendarDate)
	daily := make([]models.DailyAggregate, 0, len(buckets))
	for _, b := range buckets {
		daily = append(daily, models.DailyAggregate{
			Date:       b.key,
			MeanWeight: stat.Mean(b.weights, nil),
			Count:      len(b.weights),
		})
	}
	return daily
}

// MonthlyAverages returns one mean per distinct calendar month, in chronological order.
func MonthlyAverages(records []models.Measurement) []models.MonthlyAggregate {
	buckets := groupBy(records, models.MonthStart)
	monthly := make([]models.MonthlyAggregate, 0, len(buckets))
	for _, b := range buckets {
		monthly = append(monthly, models.MonthlyAggregate{
			YearMonth:  b.key.Format("2006-01"),
			Start:      b.key,
			MeanWeight: stat.Mean(b.weights, nil),
			Count:      len(b.weights),
		})
	}
	return monthly
}

// PartitionByMonth splits daily points into one segment per month. Month i
// takes the points in [start_i, start_i+1); the last month takes everything
// from its start onward. Both inputs must be sorted ascending.
func PartitionByMonth(daily []models.DailyAggregate, monthly []models.MonthlyAggregate) [][]models.DailyAggregate {
	segments := make([][]models.DailyAggregate, len(monthly))
	for i, month := range monthly {
		var segment []models.DailyAggregate
		for _, d := range daily {
			if d.Date.Before(month.Start) {
				continue
			}
			if i < len(monthly)-1 && !d.Date.Before(monthly[i+1].Start) {
				break
			}
			segment = append(segment, d)
		}
		segments[i] = segment
	}
	return segments
}
