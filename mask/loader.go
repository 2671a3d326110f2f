package mask

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
)

// internal JSON shapes – keep them unexported so we’re free to evolve them.
// Pointer fields distinguish "missing" from zero so validation can name the
// offending region rather than silently defaulting.
type maskJSON struct {
	DefaultStep *float64          `json:"default_step"`
	Regions     []json.RawMessage `json:"regions"`
}

type regionJSON struct {
	Name   *string  `json:"name"`
	LatMin *float64 `json:"lat_min"`
	LatMax *float64 `json:"lat_max"`
	LonMin *float64 `json:"lon_min"`
	LonMax *float64 `json:"lon_max"`
	Step   *float64 `json:"step"`
}

// Decode reads a mask configuration from r, validating that default_step is a
// positive number and that every region carries a name, numeric bounds, and a
// positive step. Validation failures are returned as errors identifying the
// region index; Decode never panics on malformed input.
func Decode(r io.Reader) (*Config, error) {
	var payload maskJSON
	dec := json.NewDecoder(r)
	if err := dec.Decode(&payload); err != nil {
		return nil, fmt.Errorf("mask: decode failed: %w", err)
	}

	if payload.DefaultStep == nil {
		return nil, fmt.Errorf("mask: must define numeric 'default_step'")
	}
	if *payload.DefaultStep <= 0 {
		return nil, fmt.Errorf("mask: 'default_step' must be positive, got %v", *payload.DefaultStep)
	}

	cfg := &Config{
		DefaultStep: *payload.DefaultStep,
		Regions:     make([]Region, 0, len(payload.Regions)),
	}
	for index, raw := range payload.Regions {
		var entry regionJSON
		if err := json.Unmarshal(raw, &entry); err != nil {
			return nil, fmt.Errorf("mask: invalid region at index %d: %w", index, err)
		}
		region, err := regionFromJSON(entry)
		if err != nil {
			return nil, fmt.Errorf("mask: invalid region at index %d: %w", index, err)
		}
		cfg.Regions = append(cfg.Regions, region)
	}
	return cfg, nil
}

func regionFromJSON(entry regionJSON) (Region, error) {
	if entry.Name == nil {
		return Region{}, fmt.Errorf("missing 'name'")
	}
	fields := map[string]*float64{
		"lat_min": entry.LatMin,
		"lat_max": entry.LatMax,
		"lon_min": entry.LonMin,
		"lon_max": entry.LonMax,
		"step":    entry.Step,
	}
	for _, key := range []string{"lat_min", "lat_max", "lon_min", "lon_max", "step"} {
		if fields[key] == nil {
			return Region{}, fmt.Errorf("missing numeric '%s'", key)
		}
	}
	if *entry.Step <= 0 {
		return Region{}, fmt.Errorf("'step' must be positive, got %v", *entry.Step)
	}
	return Region{
		Name:   *entry.Name,
		LatMin: *entry.LatMin,
		LatMax: *entry.LatMax,
		LonMin: *entry.LonMin,
		LonMax: *entry.LonMax,
		Step:   *entry.Step,
	}, nil
}

// Load reads and validates a mask configuration from a file.
func Load(path string) (*Config, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("mask: open %s: %w", path, err)
	}
	defer f.Close()
	return Decode(f)
}

type regionOutJSON struct {
	Name   string  `json:"name"`
	LatMin float64 `json:"lat_min"`
	LatMax float64 `json:"lat_max"`
	LonMin float64 `json:"lon_min"`
	LonMax float64 `json:"lon_max"`
	Step   float64 `json:"step"`
}

// Encode writes the mask file format: a numeric default_step and the regions
// in their original order. Decode(Encode(cfg)) reproduces cfg exactly.
func Encode(w io.Writer, cfg *Config) error {
	regions := make([]regionOutJSON, 0, len(cfg.Regions))
	for _, region := range cfg.Regions {
		regions = append(regions, regionOutJSON{
			Name:   region.Name,
			LatMin: region.LatMin,
			LatMax: region.LatMax,
			LonMin: region.LonMin,
			LonMax: region.LonMax,
			Step:   region.Step,
		})
	}
	payload := struct {
		DefaultStep float64         `json:"default_step"`
		Regions     []regionOutJSON `json:"regions"`
	}{DefaultStep: cfg.DefaultStep, Regions: regions}

	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(payload); err != nil {
		return fmt.Errorf("mask: encode failed: %w", err)
	}
	return nil
}

// Save writes the mask to path, creating parent directories as needed.
func Save(path string, cfg *Config) error {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("mask: create %s: %w", dir, err)
		}
	}
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("mask: create %s: %w", path, err)
	}
	if err := Encode(f, cfg); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}
