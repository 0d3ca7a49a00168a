package airquality

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"time"
)

// Collector orchestrates a measurement source and the sinks that persist its output.
type Collector struct {
	source   Source
	fallback Source
	sinks    []Sink
	logger   *slog.Logger
}

// CollectorOption customizes a Collector.
type CollectorOption func(*Collector)

// WithFallback makes Collect use src when the primary source fails.
func WithFallback(src Source) CollectorOption {
	return func(c *Collector) { c.fallback = src }
}

// WithLogger sets the collector's logger.
func WithLogger(l *slog.Logger) CollectorOption {
	return func(c *Collector) { c.logger = l }
}

// NewCollector creates a new Collector.
func NewCollector(source Source, sinks []Sink, opts ...CollectorOption) *Collector {
	c := &Collector{
		source: source,
		sinks:  sinks,
		logger: slog.Default(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Collect fetches measurements for loc in [from, to], sorts them by time,
// and writes them to every sink. It returns the number of measurements written.
func (c *Collector) Collect(ctx context.Context, loc Location, from, to time.Time) (int, error) {
	if c.source == nil {
		return 0, fmt.Errorf("no measurement source configured")
	}
	if len(c.sinks) == 0 {
		return 0, fmt.Errorf("no measurement sinks configured")
	}

	c.logger.Info("collecting measurements",
		"source", c.source.Name(),
		"location", loc.Key(),
		"from", from.Format(time.DateOnly),
		"to", to.Format(time.DateOnly),
	)

	ms, err := c.source.Fetch(ctx, loc, from, to)
	if err == nil && len(ms) == 0 {
		err = ErrNoMeasurements
	}
	if err != nil {
		if c.fallback == nil {
			return 0, fmt.Errorf("%s: %w", c.source.Name(), err)
		}
		c.logger.Warn("source failed; falling back",
			"source", c.source.Name(),
			"fallback", c.fallback.Name(),
			"err", err,
		)
		ms, err = c.fallback.Fetch(ctx, loc, from, to)
		if err != nil {
			return 0, fmt.Errorf("%s: %w", c.fallback.Name(), err)
		}
		if len(ms) == 0 {
			return 0, fmt.Errorf("%s: %w", c.fallback.Name(), ErrNoMeasurements)
		}
	}

	sort.SliceStable(ms, func(i, j int) bool { return ms[i].Timestamp.Before(ms[j].Timestamp) })

	for _, sink := range c.sinks {
		if err := sink.SaveMeasurements(ctx, ms); err != nil {
			return 0, fmt.Errorf("save measurements: %w", err)
		}
	}

	c.logger.Info("measurements collected", "count", len(ms), "location", loc.Key())
	return len(ms), nil
}
