package landmask

import (
	"context"
	"fmt"
	"sort"

	"github.com/ctessum/geom"
	"github.com/signalsfoundry/muf-grid/internal/logging"
	"github.com/signalsfoundry/muf-grid/mask"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
)

// Cell is one whole-degree grid cell classified as land.
type Cell struct {
	Lat int
	Lon int
}

// Contains reports whether the point lies inside the shape: inside at least
// one non-hole ring and not unset by a containing hole ring. Rings are
// evaluated in source order; a hole's containment clears the accumulated
// inside state.
func (s Shape) Contains(lon, lat float64) bool {
	if b := s.Bounds; b != nil {
		if lon < b.Min.X || lon > b.Max.X || lat < b.Min.Y || lat > b.Max.Y {
			return false
		}
	}
	inside := false
	for _, ring := range s.Rings {
		if pointInRing(lon, lat, ring.Points) {
			if ring.IsHole {
				inside = false
				continue
			}
			inside = true
		}
	}
	return inside
}

// pointInRing is a standard ray cast: count crossings of a horizontal ray
// from the point toward +lon.
func pointInRing(lon, lat float64, ring []geom.Point) bool {
	inside := false
	j := len(ring) - 1
	for i := 0; i < len(ring); i++ {
		xi, yi := ring[i].X, ring[i].Y
		xj, yj := ring[j].X, ring[j].Y
		dy := yj - yi
		if dy == 0 {
			dy = 1e-12
		}
		if (yi > lat) != (yj > lat) && lon < (xj-xi)*(lat-yi)/dy+xi {
			inside = !inside
		}
		j = i
	}
	return inside
}

// ScanLandCells marches a whole-degree grid across the requested range,
// exclusive upper bounds, testing each cell's centre against all shapes.
// The scan is single-threaded and compute-bound; progress is reported per
// latitude row.
func ScanLandCells(ctx context.Context, shapes []Shape, latMin, latMax, lonMin, lonMax int, log logging.Logger) []Cell {
	if log == nil {
		log = logging.Noop()
	}
	tracer := otel.Tracer("muf-grid/landmask")
	ctx, span := tracer.Start(ctx, "landmask.Scan")
	span.SetAttributes(
		attribute.Int("scan.rows", latMax-latMin),
		attribute.Int("scan.shapes", len(shapes)),
	)
	defer span.End()

	var cells []Cell
	totalRows := latMax - latMin
	for idx, lat := 0, latMin; lat < latMax; idx, lat = idx+1, lat+1 {
		latCenter := float64(lat) + 0.5
		log.Info(ctx, "scanning latitude",
			logging.Int("lat", lat),
			logging.Float64("percent", 100.0*float64(idx)/float64(totalRows)),
		)
		for lon := lonMin; lon < lonMax; lon++ {
			lonCenter := float64(lon) + 0.5
			for _, shape := range shapes {
				if shape.Contains(lonCenter, latCenter) {
					cells = append(cells, Cell{Lat: lat, Lon: lon})
					break
				}
			}
		}
	}
	return cells
}

// BuildMask emits a mask descriptor with one fine-step region per land cell
// and the coarse default step everywhere else. Regions come out in
// deterministic (lat, lon) order.
func BuildMask(cells []Cell, defaultStep, landStep float64) *mask.Config {
	regions := make([]mask.Region, 0, len(cells))
	for _, cell := range cells {
		regions = append(regions, mask.Region{
			Name:   fmt.Sprintf("land_cell_%+03d_%+04d", cell.Lat, cell.Lon),
			LatMin: float64(cell.Lat),
			LatMax: float64(cell.Lat),
			LonMin: float64(cell.Lon),
			LonMax: float64(cell.Lon),
			Step:   landStep,
		})
	}
	sort.Slice(regions, func(i, j int) bool {
		if regions[i].LatMin != regions[j].LatMin {
			return regions[i].LatMin < regions[j].LatMin
		}
		return regions[i].LonMin < regions[j].LonMin
	})
	return &mask.Config{DefaultStep: defaultStep, Regions: regions}
}
