package grid

import (
	"context"
	"errors"
	"math"
	"os"
	"sync"
	"time"

	"github.com/signalsfoundry/muf-grid/internal/logging"
	"github.com/signalsfoundry/muf-grid/internal/observability"
	"github.com/signalsfoundry/muf-grid/mask"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"golang.org/x/sync/errgroup"
)

// Tile is one computed grid cell. Coordinates are rounded to 6 decimals so
// output is stable regardless of how the coordinate map was accumulated.
type Tile struct {
	Lat float64   `json:"lat"`
	Lon float64   `json:"lon"`
	Muf MufSample `json:"muf"`
}

// Builder fans the coordinate map out to the point-compute gateway, one
// latitude row per task.
type Builder struct {
	// Compute evaluates a single coordinate. Required.
	Compute PointCompute
	// Workers is the resolved worker count; must be >= 1.
	Workers int
	// SpawnProbe, when set and Workers > 1, is invoked once before parallel
	// dispatch to verify the environment allows spawning worker subprocesses.
	// A permission error demotes the build to a single worker instead of
	// failing it. Leave nil for in-process compute implementations.
	SpawnProbe func() error
	// Log receives per-row progress. Nil disables progress reporting.
	Log logging.Logger
	// Metrics, when set, receives tile/row counters and driver latency.
	Metrics *observability.GridCollector
}

// Build computes every point in the coordinate map and returns the tiles in
// row order, ascending longitudes within each row. The first compute failure
// cancels the remaining rows and aborts the build; no partial result is
// returned.
func (b *Builder) Build(ctx context.Context, ts TimestampFields, coords mask.CoordinateMap) ([]Tile, error) {
	tracer := otel.Tracer("muf-grid/builder")
	ctx, span := tracer.Start(ctx, "grid.Build")
	span.SetAttributes(
		attribute.Int("grid.rows", len(coords)),
		attribute.Int("grid.points", coords.Points()),
		attribute.Int("grid.workers", b.Workers),
	)
	defer span.End()

	workers := b.Workers
	if workers < 1 {
		workers = 1
	}

	if workers > 1 && b.SpawnProbe != nil {
		if err := b.SpawnProbe(); errors.Is(err, os.ErrPermission) {
			b.logInfo(ctx, "parallel execution unavailable; falling back to single worker",
				logging.String("error", err.Error()))
			workers = 1
		}
		// Other probe failures are ignored here; a genuinely broken driver
		// surfaces with full diagnostics on the first real compute call.
	}

	total := coords.Points()
	if workers == 1 {
		return b.buildSerial(ctx, ts, coords, total)
	}
	return b.buildParallel(ctx, ts, coords, total, workers)
}

func (b *Builder) buildSerial(ctx context.Context, ts TimestampFields, coords mask.CoordinateMap, total int) ([]Tile, error) {
	tiles := make([]Tile, 0, total)
	completed := 0
	for _, row := range coords {
		rowTiles, err := b.computeRow(ctx, ts, row)
		if err != nil {
			return nil, err
		}
		tiles = append(tiles, rowTiles...)
		completed += len(rowTiles)
		b.rowDone(ctx, row.Lat, completed, total, 1)
	}
	return tiles, nil
}

func (b *Builder) buildParallel(ctx context.Context, ts TimestampFields, coords mask.CoordinateMap, total, workers int) ([]Tile, error) {
	rowResults := make([][]Tile, len(coords))

	var mu sync.Mutex
	completed := 0

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)
	for i, row := range coords {
		g.Go(func() error {
			rowTiles, err := b.computeRow(ctx, ts, row)
			if err != nil {
				return err
			}
			rowResults[i] = rowTiles

			mu.Lock()
			completed += len(rowTiles)
			done := completed
			mu.Unlock()
			b.rowDone(ctx, row.Lat, done, total, workers)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	tiles := make([]Tile, 0, total)
	for _, rowTiles := range rowResults {
		tiles = append(tiles, rowTiles...)
	}
	return tiles, nil
}

// computeRow evaluates one latitude row, recording its longitudes in
// ascending order.
func (b *Builder) computeRow(ctx context.Context, ts TimestampFields, row mask.Row) ([]Tile, error) {
	tiles := make([]Tile, 0, len(row.Lons))
	for _, lon := range row.Lons {
		start := time.Now()
		sample, err := b.Compute.Compute(ctx, ts, row.Lat, lon)
		if err != nil {
			b.Metrics.ObserveFailure()
			return nil, err
		}
		b.Metrics.ObserveTile(time.Since(start))
		tiles = append(tiles, Tile{
			Lat: round6(row.Lat),
			Lon: round6(lon),
			Muf: sample,
		})
	}
	return tiles, nil
}

func (b *Builder) rowDone(ctx context.Context, lat float64, completed, total, workers int) {
	b.Metrics.ObserveRow()
	b.logInfo(ctx, "computed latitude row",
		logging.Float64("lat", lat),
		logging.Int("completed", completed),
		logging.Int("total", total),
		logging.Int("workers", workers),
	)
}

func (b *Builder) logInfo(ctx context.Context, msg string, fields ...logging.Field) {
	if b.Log == nil {
		return
	}
	b.Log.Info(ctx, msg, fields...)
}

func round6(v float64) float64 {
	return math.Round(v*1e6) / 1e6
}
