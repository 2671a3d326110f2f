// Package landmask derives an adaptive-resolution mask from vector land
// polygons: every 1°×1° cell whose centre falls on land gets its own
// fine-step region, everything else keeps a coarse default step.
package landmask

import (
	"fmt"

	"github.com/ctessum/geom"
	"github.com/ctessum/geom/encoding/shp"
)

// Ring is one closed polygon boundary. A hole subtracts from, rather than
// adds to, the enclosing shape's interior.
type Ring struct {
	Points []geom.Point
	IsHole bool
}

// Shape is one land polygon: a bounding box for cheap rejection plus its
// rings in source order.
type Shape struct {
	Bounds *geom.Bounds
	Rings  []Ring
}

// LoadShapes reads all polygon records from a Natural Earth shapefile.
// Malformed or non-polygonal records abort the load; the generator has no
// recovery path for bad geometry.
func LoadShapes(path string) ([]Shape, error) {
	dec, err := shp.NewDecoder(path)
	if err != nil {
		return nil, fmt.Errorf("landmask: open shapefile %s: %w", path, err)
	}
	defer dec.Close()

	var shapes []Shape
	for {
		g, _, more := dec.DecodeRowFields()
		if !more {
			break
		}
		switch poly := g.(type) {
		case geom.Polygon:
			shapes = append(shapes, shapeFromPolygon(poly))
		case geom.MultiPolygon:
			for _, p := range poly {
				shapes = append(shapes, shapeFromPolygon(p))
			}
		default:
			return nil, fmt.Errorf("landmask: unsupported geometry type %T in %s", g, path)
		}
	}
	if err := dec.Error(); err != nil {
		return nil, fmt.Errorf("landmask: read shapefile %s: %w", path, err)
	}
	return shapes, nil
}

// shapeFromPolygon closes each ring and classifies it by winding. Natural
// Earth winds outer rings clockwise, giving them negative signed area, so a
// positive area marks a hole.
func shapeFromPolygon(poly geom.Polygon) Shape {
	shape := Shape{Bounds: poly.Bounds()}
	for _, part := range poly {
		if len(part) == 0 {
			continue
		}
		ring := make([]geom.Point, len(part))
		copy(ring, part)
		if ring[0] != ring[len(ring)-1] {
			ring = append(ring, ring[0])
		}
		shape.Rings = append(shape.Rings, Ring{
			Points: ring,
			IsHole: signedArea(ring) > 0,
		})
	}
	return shape
}

// signedArea computes twice-halved shoelace area over a closed ring.
func signedArea(ring []geom.Point) float64 {
	area := 0.0
	for i := 0; i < len(ring)-1; i++ {
		area += ring[i].X*ring[i+1].Y - ring[i+1].X*ring[i].Y
	}
	return area / 2.0
}
