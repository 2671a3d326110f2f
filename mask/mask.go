// Package mask models the adaptive-resolution sampling policy for MUF grid
// builds. A mask assigns preferred sampling steps (in degrees) to named
// axis-aligned latitude/longitude boxes, plus a default step for everywhere
// else. The format is intentionally simple so masks can be authored and
// reviewed in plain text without visual tooling.
package mask

import "sort"

// Region is an axis-aligned lat/lon box with a preferred sampling step.
type Region struct {
	Name   string
	LatMin float64
	LatMax float64
	LonMin float64
	LonMax float64
	Step   float64
}

// Contains reports whether the point lies inside the region, bounds inclusive.
func (r Region) Contains(lat, lon float64) bool {
	return r.LatMin <= lat && lat <= r.LatMax &&
		r.LonMin <= lon && lon <= r.LonMax
}

// Config is the resolution policy for one grid build. It is loaded once per
// run and never mutated afterwards; regions keep their file order and may
// overlap each other.
type Config struct {
	DefaultStep float64
	Regions     []Region
}

// Steps returns the distinct step values in use (default plus all region
// steps), de-duplicated and ascending. This feeds the steps_deg report in the
// grid payload; it plays no role in coordinate generation.
func (c *Config) Steps() []float64 {
	seen := map[float64]bool{c.DefaultStep: true}
	for _, region := range c.Regions {
		seen[region.Step] = true
	}
	steps := make([]float64, 0, len(seen))
	for step := range seen {
		steps = append(steps, step)
	}
	sort.Float64s(steps)
	return steps
}

// StepsSummary returns the distinct steps for a build, collapsing to the
// fallback step when no mask is in play. A nil receiver is valid.
func (c *Config) StepsSummary(fallbackStep float64) []float64 {
	if c == nil {
		return []float64{fallbackStep}
	}
	return c.Steps()
}

// ApplyStep returns the effective sampling step at a coordinate: the minimum
// step among all regions containing the point, the mask default when none
// match, and the fallback when there is no mask. A nil receiver is valid.
//
// Grid construction never calls this; it exists for diagnostic queries.
func (c *Config) ApplyStep(lat, lon, fallbackStep float64) float64 {
	if c == nil {
		return fallbackStep
	}
	step := c.DefaultStep
	for _, region := range c.Regions {
		if region.Contains(lat, lon) && region.Step < step {
			step = region.Step
		}
	}
	return step
}

// RegionsFor returns the names of all regions containing the point, in region
// order. A nil receiver is valid and yields no names.
func (c *Config) RegionsFor(lat, lon float64) []string {
	if c == nil {
		return nil
	}
	var hits []string
	for _, region := range c.Regions {
		if region.Contains(lat, lon) {
			hits = append(hits, region.Name)
		}
	}
	return hits
}
