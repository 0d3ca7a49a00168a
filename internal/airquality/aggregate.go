package airquality

import (
	"math"
	"sort"
	"time"

	"gonum.org/v1/gonum/stat"
)

// Round1 rounds to one decimal place, half to even.
func Round1(v float64) float64 {
	return math.RoundToEven(v*10) / 10
}

// AggregateDaily groups measurements by UTC calendar day and averages them.
// The result is sorted by date ascending; days without readings are absent.
func AggregateDaily(ms []Measurement) []DailyAggregate {
	if len(ms) == 0 {
		return nil
	}

	byDay := make(map[time.Time][]float64)
	for _, m := range ms {
		ts := m.Timestamp.UTC()
		day := time.Date(ts.Year(), ts.Month(), ts.Day(), 0, 0, 0, 0, time.UTC)
		byDay[day] = append(byDay[day], m.Value)
	}

	days := make([]time.Time, 0, len(byDay))
	for d := range byDay {
		days = append(days, d)
	}
	sort.Slice(days, func(i, j int) bool { return days[i].Before(days[j]) })

	daily := make([]DailyAggregate, 0, len(days))
	for _, d := range days {
		daily = append(daily, DailyAggregate{
			Date: d,
			PM25: Round1(stat.Mean(byDay[d], nil)),
		})
	}
	return daily
}
