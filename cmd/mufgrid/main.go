// Command mufgrid materializes a worldwide MUF grid JSON by fanning the
// external IRI MUF driver out across an adaptive-resolution coordinate grid.
package main

import (
	"context"
	"flag"
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"github.com/signalsfoundry/muf-grid/grid"
	"github.com/signalsfoundry/muf-grid/internal/logging"
	"github.com/signalsfoundry/muf-grid/internal/observability"
	"github.com/signalsfoundry/muf-grid/mask"
)

func main() {
	os.Exit(run(os.Args[1:]))
}

func run(args []string) int {
	fs := flag.NewFlagSet("mufgrid", flag.ExitOnError)
	driverPath := fs.String("driver", "", "Path to the compiled iri_muf_driver executable")
	step := fs.Float64("step", 2.0, "Grid resolution in degrees")
	latMin := fs.Float64("lat-min", -90.0, "Minimum latitude")
	latMax := fs.Float64("lat-max", 90.0, "Maximum latitude")
	lonMin := fs.Float64("lon-min", -180.0, "Minimum longitude")
	lonMax := fs.Float64("lon-max", 180.0, "Maximum longitude")
	output := fs.String("output", "solar_muf_grid.json", "Destination file for the grid JSON")
	maskPath := fs.String("mask", "", "Optional JSON mask describing regional sampling steps")
	driverCwd := fs.String("driver-cwd", "", "Working directory for the driver (defaults to alongside the Fortran data files)")
	timestamp := fs.String("timestamp", "", "UTC timestamp in ISO-8601 (default: now)")
	quiet := fs.Bool("quiet", false, "Suppress progress logging")
	workersArg := fs.String("workers", "1", "Number of parallel workers (integer or 'auto')")
	metricsAddr := fs.String("metrics-addr", "", "Optional HTTP address for Prometheus /metrics during the build")
	_ = fs.Parse(args)

	log := logging.NewFromEnv()
	if *quiet {
		log = logging.Noop()
	}
	ctx := context.Background()

	if *driverPath == "" {
		fmt.Fprintln(os.Stderr, "mufgrid: -driver is required")
		return 2
	}
	if _, err := os.Stat(*driverPath); err != nil {
		fmt.Fprintf(os.Stderr, "Driver executable not found at %s\n", *driverPath)
		return 2
	}

	workers, err := grid.ResolveWorkers(*workersArg)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return 2
	}

	whenUTC, err := grid.ResolveTimestamp(*timestamp)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return 2
	}

	var maskCfg *mask.Config
	if *maskPath != "" {
		maskCfg, err = mask.Load(*maskPath)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Failed to load mask %s: %v\n", *maskPath, err)
			return 2
		}
	}

	driverDir := *driverCwd
	if driverDir == "" {
		driverDir = defaultDriverDir(*driverPath)
	}

	shutdown, err := observability.InitTracing(ctx, observability.TracingConfigFromEnv(), log)
	if err != nil {
		log.Warn(ctx, "tracing init failed", logging.String("error", err.Error()))
	} else {
		defer observability.ShutdownWithTimeout(ctx, shutdown, log)
	}

	var collector *observability.GridCollector
	if *metricsAddr != "" {
		collector, err = observability.NewGridCollector(nil)
		if err != nil {
			log.Error(ctx, "failed to initialise metrics collector", logging.String("error", err.Error()))
			return 1
		}
		metricsSrv := serveMetrics(*metricsAddr, collector, log)
		defer func() {
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			_ = metricsSrv.Shutdown(shutdownCtx)
		}()
	}

	bounds := mask.Bounds{LatMin: *latMin, LatMax: *latMax, LonMin: *lonMin, LonMax: *lonMax}
	coords := mask.BuildCoordinateMap(bounds, *step, maskCfg)
	steps := maskCfg.StepsSummary(*step)
	if collector != nil {
		regionCount := 0
		if maskCfg != nil {
			regionCount = len(maskCfg.Regions)
		}
		collector.SetGridDimensions(len(coords), coords.Points(), regionCount)
	}

	log.Info(ctx, "building MUF grid",
		logging.String("timestamp", whenUTC.Format(time.RFC3339)),
		logging.Float64("lat_min", bounds.LatMin),
		logging.Float64("lat_max", bounds.LatMax),
		logging.Float64("lon_min", bounds.LonMin),
		logging.Float64("lon_max", bounds.LonMax),
		logging.Int("workers", workers),
		logging.Any("steps", steps),
		logging.String("mask", *maskPath),
	)

	gateway := &grid.DriverGateway{Path: *driverPath, Dir: driverDir}
	builder := &grid.Builder{
		Compute:    gateway,
		Workers:    workers,
		SpawnProbe: gateway.SpawnProbe,
		Log:        log,
		Metrics:    collector,
	}

	tiles, err := builder.Build(ctx, grid.FieldsFromTime(whenUTC), coords)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return 1
	}

	payload := grid.NewPayload(time.Now().UTC(), whenUTC, *step, tiles, maskCfg)
	if err := grid.WriteAtomic(*output, payload); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return 1
	}

	log.Info(ctx, "wrote grid",
		logging.Int("tiles", len(tiles)),
		logging.String("output", *output),
	)
	return 0
}

// defaultDriverDir resolves the driver working directory: the iri_driver data
// directory beside the executable when present, otherwise the executable's
// own directory.
func defaultDriverDir(driverPath string) string {
	dir := filepath.Dir(driverPath)
	candidate := filepath.Join(dir, "iri_driver")
	if info, err := os.Stat(candidate); err == nil && info.IsDir() {
		return candidate
	}
	return dir
}

func serveMetrics(addr string, collector *observability.GridCollector, log logging.Logger) *http.Server {
	mux := http.NewServeMux()
	mux.Handle("/metrics", collector.Handler())

	srv := &http.Server{
		Addr:    addr,
		Handler: mux,
	}

	go func() {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Warn(context.Background(), "metrics server exited", logging.String("error", err.Error()))
		}
	}()

	log.Info(context.Background(), "serving Prometheus metrics", logging.String("addr", addr))
	return srv
}
