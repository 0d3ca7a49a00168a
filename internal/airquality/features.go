package airquality

import (
	"fmt"
	"time"

	"gonum.org/v1/gonum/stat"
)

// Lookback is the number of prior days a row needs before every feature is defined.
const Lookback = 7

// weekdayIndex maps time.Weekday to a Monday-first index (0=Monday, 6=Sunday).
func weekdayIndex(d time.Weekday) int {
	return (int(d) + 6) % 7
}

// BuildFeatures turns a chronologically sorted daily series into feature rows.
//
// Lags and rolling windows are positional over the series. Rows without
// Lookback prior days, and the final day (no next-day label), are dropped.
func BuildFeatures(daily []DailyAggregate) []FeatureRow {
	if len(daily) <= Lookback {
		return nil
	}

	values := make([]float64, len(daily))
	for i, d := range daily {
		values[i] = d.PM25
	}

	rows := make([]FeatureRow, 0, len(daily)-Lookback-1)
	for i := Lookback; i < len(daily)-1; i++ {
		tomorrow := daily[i].Date.AddDate(0, 0, 1)
		rows = append(rows, FeatureRow{
			Date:        daily[i].Date,
			PM25:        values[i],
			Lag1:        values[i-1],
			Lag2:        values[i-2],
			Lag7:        values[i-7],
			Rolling3:    Round1(stat.Mean(values[i-2:i+1], nil)),
			Rolling7:    Round1(stat.Mean(values[i-6:i+1], nil)),
			DayOfWeek:   weekdayIndex(tomorrow.Weekday()),
			Month:       int(tomorrow.Month()),
			PM25NextDay: values[i+1],
		})
	}
	return rows
}

// Preprocess runs daily aggregation and feature construction over raw measurements.
func Preprocess(ms []Measurement) ([]FeatureRow, error) {
	daily := AggregateDaily(ms)
	rows := BuildFeatures(daily)
	if len(rows) == 0 {
		return nil, fmt.Errorf("%w: %d daily aggregates, need at least %d",
			ErrInsufficientHistory, len(daily), Lookback+2)
	}
	return rows, nil
}
