package airquality

import (
	"time"
)

// DefaultUnit is the concentration unit for PM2.5 across the pipeline.
const DefaultUnit = "µg/m³"

// Location represents the place the pipeline collects and predicts for.
// City/Country must be provided; coordinates are optional.
type Location struct {
	City    string   `json:"city"`
	Country string   `json:"country"`
	Lat     *float64 `json:"lat,omitempty"`
	Lon     *float64 `json:"lon,omitempty"`
}

// Key returns a canonical string key for this location.
func (l Location) Key() string {
	return l.City + ":" + l.Country
}

// HasCoordinates reports whether both latitude and longitude are known.
func (l Location) HasCoordinates() bool {
	return l.Lat != nil && l.Lon != nil
}

// Measurement is a single raw PM2.5 reading.
type Measurement struct {
	Timestamp time.Time `json:"datetime" db:"observed_at"` // always UTC
	Value     float64   `json:"value" db:"value"`
	Location  string    `json:"location" db:"location"`
	Unit      string    `json:"unit" db:"unit"`
}

// DailyAggregate is the mean PM2.5 for one UTC calendar day.
type DailyAggregate struct {
	Date time.Time `json:"date"`
	PM25 float64   `json:"pm25"`
}

// FeatureRow is one model-ready sample: today's features and tomorrow's PM2.5.
type FeatureRow struct {
	Date        time.Time `json:"date"`
	PM25        float64   `json:"pm25"`
	Lag1        float64   `json:"pm25_lag_1"`
	Lag2        float64   `json:"pm25_lag_2"`
	Lag7        float64   `json:"pm25_lag_7"`
	Rolling3    float64   `json:"pm25_rolling_3"`
	Rolling7    float64   `json:"pm25_rolling_7"`
	DayOfWeek   int       `json:"day_of_week"` // of the predicted day, 0=Monday
	Month       int       `json:"month"`       // of the predicted day, 1-12
	PM25NextDay float64   `json:"pm25_next_day"`
}

// FeatureColumns is the column order the model is trained on and the API must match.
var FeatureColumns = []string{
	"pm25",
	"pm25_lag_1",
	"pm25_lag_2",
	"pm25_lag_7",
	"pm25_rolling_3",
	"pm25_rolling_7",
	"day_of_week",
	"month",
}

// TargetColumn is the label column of the feature table.
const TargetColumn = "pm25_next_day"

// Features returns the row's features in FeatureColumns order.
func (r FeatureRow) Features() []float64 {
	return []float64{
		r.PM25,
		r.Lag1,
		r.Lag2,
		r.Lag7,
		r.Rolling3,
		r.Rolling7,
		float64(r.DayOfWeek),
		float64(r.Month),
	}
}
