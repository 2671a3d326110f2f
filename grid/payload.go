package grid

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/signalsfoundry/muf-grid/mask"
)

// MaskSummary is the small mask descriptor echoed into the payload when a
// mask shaped the build.
type MaskSummary struct {
	DefaultStep float64 `json:"default_step"`
	RegionCount int     `json:"region_count"`
}

// Payload is the canonical MUF grid artifact. CellDeg deliberately reports
// only the nominal fallback/default step, a single representative value,
// even when mask regions produced finer points; StepsDeg carries the full
// set of distinct steps in play.
type Payload struct {
	Updated         string       `json:"updated"`
	CellDeg         float64      `json:"cell_deg"`
	SourceTimestamp string       `json:"source_timestamp"`
	Tiles           []Tile       `json:"tiles"`
	StepsDeg        []float64    `json:"steps_deg"`
	MaskSummary     *MaskSummary `json:"mask_summary,omitempty"`
}

// NewPayload assembles the output artifact from completed tiles. Tiles are
// recorded in whatever order the builder produced them.
func NewPayload(generated, source time.Time, cellDeg float64, tiles []Tile, cfg *mask.Config) Payload {
	payload := Payload{
		Updated:         generated.UTC().Format(time.RFC3339Nano),
		CellDeg:         cellDeg,
		SourceTimestamp: source.UTC().Format(time.RFC3339Nano),
		Tiles:           tiles,
		StepsDeg:        cfg.StepsSummary(cellDeg),
	}
	if cfg != nil {
		payload.MaskSummary = &MaskSummary{
			DefaultStep: cfg.DefaultStep,
			RegionCount: len(cfg.Regions),
		}
	}
	return payload
}

// WriteAtomic serializes the payload to a temporary file beside the
// destination and renames it into place, so a crash mid-write never leaves a
// corrupt destination file. Parent directories are created as needed.
func WriteAtomic(path string, payload Payload) error {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("grid: create %s: %w", dir, err)
		}
	}

	data, err := json.MarshalIndent(payload, "", "  ")
	if err != nil {
		return fmt.Errorf("grid: marshal payload: %w", err)
	}
	data = append(data, '\n')

	tmpPath := path + ".tmp"
	if err := os.WriteFile(tmpPath, data, 0o644); err != nil {
		return fmt.Errorf("grid: write %s: %w", tmpPath, err)
	}
	if err := os.Rename(tmpPath, path); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("grid: rename %s: %w", tmpPath, err)
	}
	return nil
}
