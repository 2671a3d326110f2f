// Command landmask generates a MUF resolution mask from a Natural Earth land
// shapefile: land cells sample fine, open ocean samples coarse.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"

	"github.com/signalsfoundry/muf-grid/internal/logging"
	"github.com/signalsfoundry/muf-grid/landmask"
	"github.com/signalsfoundry/muf-grid/mask"
)

func main() {
	os.Exit(run(os.Args[1:]))
}

func run(args []string) int {
	fs := flag.NewFlagSet("landmask", flag.ExitOnError)
	output := fs.String("output", "land_mask_generated.json", "Destination mask JSON")
	defaultStep := fs.Float64("default-step", 5.0, "Fallback sampling step in degrees for non-land tiles")
	landStep := fs.Float64("land-step", 1.0, "Sampling step to apply on land tiles")
	latMin := fs.Int("lat-min", -90, "Minimum latitude to evaluate")
	latMax := fs.Int("lat-max", 90, "Maximum latitude to evaluate (exclusive upper bound)")
	lonMin := fs.Int("lon-min", -180, "Minimum longitude to evaluate")
	lonMax := fs.Int("lon-max", 180, "Maximum longitude to evaluate (exclusive upper bound)")
	verbose := fs.Bool("verbose", false, "Print progress while marching through the grid")
	_ = fs.Parse(args)

	if fs.NArg() != 1 {
		fmt.Fprintln(os.Stderr, "usage: landmask [flags] <natural-earth-land.shp>")
		return 2
	}
	shapefilePath := fs.Arg(0)

	if *defaultStep <= 0 || *landStep <= 0 {
		fmt.Fprintln(os.Stderr, "landmask: steps must be positive")
		return 2
	}
	if *latMin >= *latMax || *lonMin >= *lonMax {
		fmt.Fprintln(os.Stderr, "landmask: scan bounds must be non-empty")
		return 2
	}

	log := logging.Noop()
	if *verbose {
		log = logging.NewFromEnv()
	}
	ctx := context.Background()

	shapes, err := landmask.LoadShapes(shapefilePath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return 2
	}
	log.Info(ctx, "loaded shapes",
		logging.Int("shapes", len(shapes)),
		logging.String("shapefile", shapefilePath),
	)

	cells := landmask.ScanLandCells(ctx, shapes, *latMin, *latMax, *lonMin, *lonMax, log)
	log.Info(ctx, "identified land cells",
		logging.Int("cells", len(cells)),
		logging.Float64("land_step", *landStep),
	)

	cfg := landmask.BuildMask(cells, *defaultStep, *landStep)
	if err := mask.Save(*output, cfg); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return 1
	}
	log.Info(ctx, "wrote mask", logging.String("output", *output))
	return 0
}
