// Command maskquery inspects the effective sampling step a mask assigns to a
// single coordinate.
package main

import (
	"flag"
	"fmt"
	"os"
	"strings"

	"github.com/signalsfoundry/muf-grid/mask"
)

func main() {
	os.Exit(run(os.Args[1:]))
}

func run(args []string) int {
	fs := flag.NewFlagSet("maskquery", flag.ExitOnError)
	lat := fs.Float64("lat", 0, "Latitude in degrees")
	lon := fs.Float64("lon", 0, "Longitude in degrees")
	fallbackStep := fs.Float64("fallback-step", 2.0, "Fallback step when no mask regions apply")
	_ = fs.Parse(args)

	if fs.NArg() != 1 {
		fmt.Fprintln(os.Stderr, "usage: maskquery [flags] <mask.json>")
		return 2
	}

	cfg, err := mask.Load(fs.Arg(0))
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load mask: %v\n", err)
		return 2
	}

	step := cfg.ApplyStep(*lat, *lon, *fallbackStep)
	hits := cfg.RegionsFor(*lat, *lon)
	regionText := "none"
	if len(hits) > 0 {
		regionText = strings.Join(hits, ", ")
	}
	fmt.Printf("lat=%+.2f°, lon=%+.2f° -> step %.2f° (regions: %s)\n", *lat, *lon, step, regionText)
	return 0
}
