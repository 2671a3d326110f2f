package observability

import (
	"fmt"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// GridCollector bundles Prometheus metrics for a grid build and provides a
// ready-to-serve /metrics handler. Long builds run for hours, so operators
// can watch tile throughput and driver latency while the build is in flight.
type GridCollector struct {
	gatherer prometheus.Gatherer

	TilesComputed   prometheus.Counter
	RowsCompleted   prometheus.Counter
	ComputeFailures prometheus.Counter
	DriverDurations prometheus.Histogram

	GridRows    prometheus.Gauge
	GridPoints  prometheus.Gauge
	MaskRegions prometheus.Gauge
}

// NewGridCollector registers grid-build Prometheus metrics against the
// provided registerer, defaulting to the global Prometheus registry when nil.
func NewGridCollector(reg prometheus.Registerer) (*GridCollector, error) {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	gatherer := prometheus.DefaultGatherer
	if g, ok := reg.(prometheus.Gatherer); ok {
		gatherer = g
	}

	tiles, err := registerCounter(reg, prometheus.NewCounter(prometheus.CounterOpts{
		Name: "muf_grid_tiles_computed_total",
		Help: "Total number of grid tiles computed by the driver.",
	}), "muf_grid_tiles_computed_total")
	if err != nil {
		return nil, err
	}
	rows, err := registerCounter(reg, prometheus.NewCounter(prometheus.CounterOpts{
		Name: "muf_grid_rows_completed_total",
		Help: "Total number of completed latitude rows.",
	}), "muf_grid_rows_completed_total")
	if err != nil {
		return nil, err
	}
	failures, err := registerCounter(reg, prometheus.NewCounter(prometheus.CounterOpts{
		Name: "muf_grid_compute_failures_total",
		Help: "Total number of failed driver invocations.",
	}), "muf_grid_compute_failures_total")
	if err != nil {
		return nil, err
	}

	durations := prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "muf_grid_driver_duration_seconds",
		Help:    "Wall-clock latency of a single driver invocation in seconds.",
		Buckets: []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30, 60},
	})
	durations, err = registerHistogram(reg, durations, "muf_grid_driver_duration_seconds")
	if err != nil {
		return nil, err
	}

	gridRows, err := registerGauge(reg, prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "muf_grid_rows",
		Help: "Number of latitude rows in the current coordinate map.",
	}), "muf_grid_rows")
	if err != nil {
		return nil, err
	}
	gridPoints, err := registerGauge(reg, prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "muf_grid_points",
		Help: "Number of sample points in the current coordinate map.",
	}), "muf_grid_points")
	if err != nil {
		return nil, err
	}
	maskRegions, err := registerGauge(reg, prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "muf_grid_mask_regions",
		Help: "Number of mask regions applied to the current build.",
	}), "muf_grid_mask_regions")
	if err != nil {
		return nil, err
	}

	return &GridCollector{
		gatherer:        gatherer,
		TilesComputed:   tiles,
		RowsCompleted:   rows,
		ComputeFailures: failures,
		DriverDurations: durations,
		GridRows:        gridRows,
		GridPoints:      gridPoints,
		MaskRegions:     maskRegions,
	}, nil
}

// ObserveTile records one successful driver invocation and its latency.
func (c *GridCollector) ObserveTile(elapsed time.Duration) {
	if c == nil {
		return
	}
	if c.TilesComputed != nil {
		c.TilesComputed.Inc()
	}
	if c.DriverDurations != nil {
		c.DriverDurations.Observe(elapsed.Seconds())
	}
}

// ObserveRow records one completed latitude row.
func (c *GridCollector) ObserveRow() {
	if c == nil || c.RowsCompleted == nil {
		return
	}
	c.RowsCompleted.Inc()
}

// ObserveFailure records a failed driver invocation.
func (c *GridCollector) ObserveFailure() {
	if c == nil || c.ComputeFailures == nil {
		return
	}
	c.ComputeFailures.Inc()
}

// SetGridDimensions publishes the size of the coordinate map about to be
// built, plus the number of mask regions that shaped it.
func (c *GridCollector) SetGridDimensions(rows, points, maskRegions int) {
	if c == nil {
		return
	}
	if c.GridRows != nil {
		c.GridRows.Set(float64(rows))
	}
	if c.GridPoints != nil {
		c.GridPoints.Set(float64(points))
	}
	if c.MaskRegions != nil {
		c.MaskRegions.Set(float64(maskRegions))
	}
}

// Handler exposes a ready-to-use /metrics handler.
func (c *GridCollector) Handler() http.Handler {
	gatherer := c.gatherer
	if gatherer == nil {
		gatherer = prometheus.DefaultGatherer
	}
	return promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{})
}

func registerCounter(reg prometheus.Registerer, counter prometheus.Counter, name string) (prometheus.Counter, error) {
	if err := reg.Register(counter); err != nil {
		if are, ok := err.(prometheus.AlreadyRegisteredError); ok {
			if existing, ok := are.ExistingCollector.(prometheus.Counter); ok {
				return existing, nil
			}
			return nil, fmt.Errorf("collector %s already registered with incompatible type", name)
		}
		return nil, err
	}
	return counter, nil
}

func registerHistogram(reg prometheus.Registerer, hist prometheus.Histogram, name string) (prometheus.Histogram, error) {
	if err := reg.Register(hist); err != nil {
		if are, ok := err.(prometheus.AlreadyRegisteredError); ok {
			if existing, ok := are.ExistingCollector.(prometheus.Histogram); ok {
				return existing, nil
			}
			return nil, fmt.Errorf("collector %s already registered with incompatible type", name)
		}
		return nil, err
	}
	return hist, nil
}

func registerGauge(reg prometheus.Registerer, gauge prometheus.Gauge, name string) (prometheus.Gauge, error) {
	if err := reg.Register(gauge); err != nil {
		if are, ok := err.(prometheus.AlreadyRegisteredError); ok {
			if existing, ok := are.ExistingCollector.(prometheus.Gauge); ok {
				return existing, nil
			}
			return nil, fmt.Errorf("collector %s already registered with incompatible type", name)
		}
		return nil, err
	}
	return gauge, nil
}
