package mask

import (
	"fmt"
	"math"
	"sort"
)

// Bounds is the overall lat/lon box a grid build sweeps.
type Bounds struct {
	LatMin float64
	LatMax float64
	LonMin float64
	LonMax float64
}

// Row holds the ascending, duplicate-free longitudes sampled at one latitude.
type Row struct {
	Lat  float64
	Lons []float64
}

// CoordinateMap is the concrete set of sample points for a run, grouped by
// latitude in ascending order. It is built once from the bounds and mask and
// is read-only afterwards, so it can be shared across workers.
type CoordinateMap []Row

// Points returns the total number of sample points across all rows.
func (m CoordinateMap) Points() int {
	total := 0
	for _, row := range m {
		total += len(row.Lons)
	}
	return total
}

// coordEpsilon absorbs accumulated floating-point error so inclusive ranges
// keep their final endpoint.
const coordEpsilon = 1e-9

// round6 pins coordinates to 6 decimals. Region grids and the base grid must
// land on identical values for the overlay union to de-duplicate.
func round6(v float64) float64 {
	return math.Round(v*1e6) / 1e6
}

// inclusiveRange yields start, start+step, ... through stop, both endpoints
// included. Steps must be validated positive before reaching here; a
// non-positive step is a programming error.
func inclusiveRange(start, stop, step float64) []float64 {
	if step <= 0 {
		panic(fmt.Sprintf("mask: inclusiveRange step must be positive, got %v", step))
	}
	var values []float64
	for current := start; current <= stop+coordEpsilon; current += step {
		values = append(values, round6(current))
	}
	return values
}

// BuildCoordinateMap derives the sample points for a build. It first sweeps
// the whole bounds at the base step (the mask default when a mask is
// supplied, the fallback otherwise), then overlays every mask region's own
// grid clipped to the bounds. The overlay is additive, not a partition: a
// location inside both a fine region and the base sweep keeps points from
// both resolutions. A nil mask is valid.
func BuildCoordinateMap(b Bounds, fallbackStep float64, cfg *Config) CoordinateMap {
	latToLons := make(map[float64]map[float64]struct{})

	addCells := func(latMin, latMax, lonMin, lonMax, step float64) {
		latStart := math.Max(b.LatMin, latMin)
		latStop := math.Min(b.LatMax, latMax)
		lonStart := math.Max(b.LonMin, lonMin)
		lonStop := math.Min(b.LonMax, lonMax)
		if latStart > latStop || lonStart > lonStop {
			return
		}
		for _, lat := range inclusiveRange(latStart, latStop, step) {
			lons := latToLons[lat]
			if lons == nil {
				lons = make(map[float64]struct{})
				latToLons[lat] = lons
			}
			for _, lon := range inclusiveRange(lonStart, lonStop, step) {
				lons[lon] = struct{}{}
			}
		}
	}

	baseStep := fallbackStep
	if cfg != nil {
		baseStep = cfg.DefaultStep
	}
	addCells(b.LatMin, b.LatMax, b.LonMin, b.LonMax, baseStep)

	if cfg != nil {
		for _, region := range cfg.Regions {
			addCells(region.LatMin, region.LatMax, region.LonMin, region.LonMax, region.Step)
		}
	}

	coords := make(CoordinateMap, 0, len(latToLons))
	for lat, lonSet := range latToLons {
		lons := make([]float64, 0, len(lonSet))
		for lon := range lonSet {
			lons = append(lons, lon)
		}
		sort.Float64s(lons)
		coords = append(coords, Row{Lat: lat, Lons: lons})
	}
	sort.Slice(coords, func(i, j int) bool { return coords[i].Lat < coords[j].Lat })
	return coords
}
