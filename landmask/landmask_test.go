package landmask

import (
	"context"
	"reflect"
	"testing"

	"github.com/ctessum/geom"
	"github.com/signalsfoundry/muf-grid/mask"
)

// clockwise (negative signed area) – a solid exterior ring per the Natural
// Earth winding convention.
func solidRect(minX, minY, maxX, maxY float64) []geom.Point {
	return []geom.Point{
		{X: minX, Y: minY},
		{X: minX, Y: maxY},
		{X: maxX, Y: maxY},
		{X: maxX, Y: minY},
		{X: minX, Y: minY},
	}
}

// counter-clockwise (positive signed area) – a hole.
func holeRect(minX, minY, maxX, maxY float64) []geom.Point {
	return []geom.Point{
		{X: minX, Y: minY},
		{X: maxX, Y: minY},
		{X: maxX, Y: maxY},
		{X: minX, Y: maxY},
		{X: minX, Y: minY},
	}
}

func boundsFor(minX, minY, maxX, maxY float64) *geom.Bounds {
	return &geom.Bounds{Min: geom.Point{X: minX, Y: minY}, Max: geom.Point{X: maxX, Y: maxY}}
}

func TestSignedAreaSign(t *testing.T) {
	if area := signedArea(solidRect(0, 0, 10, 10)); area >= 0 {
		t.Fatalf("clockwise ring area = %v, want negative", area)
	}
	if area := signedArea(holeRect(2, 2, 6, 6)); area <= 0 {
		t.Fatalf("counter-clockwise ring area = %v, want positive", area)
	}
}

func TestShapeFromPolygonClassifiesHoles(t *testing.T) {
	poly := geom.Polygon{solidRect(0, 0, 10, 10), holeRect(2, 2, 6, 6)}
	shape := shapeFromPolygon(poly)
	if len(shape.Rings) != 2 {
		t.Fatalf("rings = %d, want 2", len(shape.Rings))
	}
	if shape.Rings[0].IsHole {
		t.Fatalf("outer ring misclassified as hole")
	}
	if !shape.Rings[1].IsHole {
		t.Fatalf("inner ring not classified as hole")
	}
}

func TestShapeFromPolygonClosesOpenRings(t *testing.T) {
	open := solidRect(0, 0, 4, 4)
	open = open[:len(open)-1]
	shape := shapeFromPolygon(geom.Polygon{open})
	ring := shape.Rings[0].Points
	if ring[0] != ring[len(ring)-1] {
		t.Fatalf("ring not closed: first %v, last %v", ring[0], ring[len(ring)-1])
	}
}

func TestContainsCentroidOfRectangle(t *testing.T) {
	shape := Shape{
		Bounds: boundsFor(0, 0, 10, 10),
		Rings:  []Ring{{Points: solidRect(0, 0, 10, 10)}},
	}
	if !shape.Contains(5, 5) {
		t.Fatalf("centroid should be inside")
	}
	if shape.Contains(11, 5) || shape.Contains(5, -1) {
		t.Fatalf("points outside the bbox should be rejected")
	}
}

func TestContainsHoleUnsetsInside(t *testing.T) {
	shape := Shape{
		Bounds: boundsFor(0, 0, 10, 10),
		Rings: []Ring{
			{Points: solidRect(0, 0, 10, 10)},
			{Points: holeRect(2, 2, 6, 6), IsHole: true},
		},
	}
	if shape.Contains(4, 4) {
		t.Fatalf("point inside the hole should be outside the shape")
	}
	if !shape.Contains(1, 1) {
		t.Fatalf("point in the solid part should be inside")
	}
	if !shape.Contains(8, 8) {
		t.Fatalf("point past the hole should be inside")
	}
}

func TestScanLandCells(t *testing.T) {
	// One 2°×2° land square covering lon/lat 0..2.
	shape := Shape{
		Bounds: boundsFor(0, 0, 2, 2),
		Rings:  []Ring{{Points: solidRect(0, 0, 2, 2)}},
	}

	cells := ScanLandCells(context.Background(), []Shape{shape}, -3, 3, -3, 3, nil)
	want := []Cell{
		{Lat: 0, Lon: 0}, {Lat: 0, Lon: 1},
		{Lat: 1, Lon: 0}, {Lat: 1, Lon: 1},
	}
	if !reflect.DeepEqual(cells, want) {
		t.Fatalf("cells = %v, want %v", cells, want)
	}
}

func TestScanLandCellsHonoursExclusiveUpperBounds(t *testing.T) {
	shape := Shape{
		Bounds: boundsFor(-180, -90, 180, 90),
		Rings:  []Ring{{Points: solidRect(-180, -90, 180, 90)}},
	}
	cells := ScanLandCells(context.Background(), []Shape{shape}, 0, 2, 0, 3, nil)
	if len(cells) != 6 {
		t.Fatalf("cells = %d, want 2 rows × 3 cols = 6", len(cells))
	}
}

func TestBuildMaskEmitsSortedDegenerateRegions(t *testing.T) {
	cells := []Cell{{Lat: 5, Lon: -120}, {Lat: -3, Lon: 7}, {Lat: 5, Lon: -121}}
	cfg := BuildMask(cells, 5.0, 1.0)

	if cfg.DefaultStep != 5.0 {
		t.Fatalf("DefaultStep = %v, want 5.0", cfg.DefaultStep)
	}
	wantNames := []string{"land_cell_-03_+007", "land_cell_+05_-121", "land_cell_+05_-120"}
	if len(cfg.Regions) != len(wantNames) {
		t.Fatalf("regions = %d, want %d", len(cfg.Regions), len(wantNames))
	}
	for i, region := range cfg.Regions {
		if region.Name != wantNames[i] {
			t.Fatalf("region %d = %q, want %q", i, region.Name, wantNames[i])
		}
		if region.Step != 1.0 {
			t.Fatalf("region %d step = %v, want 1.0", i, region.Step)
		}
		if region.LatMin != region.LatMax || region.LonMin != region.LonMax {
			t.Fatalf("region %d should pin a single whole-degree cell: %+v", i, region)
		}
	}
}

func TestBuildMaskRoundTripsThroughMaskCodec(t *testing.T) {
	cfg := BuildMask([]Cell{{Lat: 0, Lon: 0}}, 5.0, 1.0)
	coords := mask.BuildCoordinateMap(mask.Bounds{LatMin: -1, LatMax: 1, LonMin: -1, LonMax: 1}, 5.0, cfg)
	// The land cell at (0,0) injects its fine point on top of the coarse sweep.
	found := false
	for _, row := range coords {
		if row.Lat == 0 {
			for _, lon := range row.Lons {
				if lon == 0 {
					found = true
				}
			}
		}
	}
	if !found {
		t.Fatalf("generated mask did not contribute its land cell to the coordinate map")
	}
}
