package grid

import (
	"encoding/json"
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"testing"
	"time"

	"github.com/signalsfoundry/muf-grid/mask"
)

func samplePtr(v float64) *float64 { return &v }

func TestNewPayloadWithoutMask(t *testing.T) {
	generated := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)
	source := time.Date(2024, 3, 1, 6, 0, 0, 0, time.UTC)
	tiles := []Tile{{Lat: 0, Lon: 0, Muf: MufSample{NVIS: samplePtr(7.1)}}}

	payload := NewPayload(generated, source, 2.0, tiles, nil)
	if payload.CellDeg != 2.0 {
		t.Fatalf("CellDeg = %v, want 2.0", payload.CellDeg)
	}
	if !reflect.DeepEqual(payload.StepsDeg, []float64{2.0}) {
		t.Fatalf("StepsDeg = %v, want [2]", payload.StepsDeg)
	}
	if payload.MaskSummary != nil {
		t.Fatalf("MaskSummary should be absent without a mask")
	}
	if payload.SourceTimestamp != "2024-03-01T06:00:00Z" {
		t.Fatalf("SourceTimestamp = %q", payload.SourceTimestamp)
	}
}

func TestNewPayloadWithMaskKeepsNominalCellDeg(t *testing.T) {
	cfg := &mask.Config{
		DefaultStep: 5.0,
		Regions: []mask.Region{
			{Name: "fine", LatMin: 0, LatMax: 1, LonMin: 0, LonMax: 1, Step: 0.5},
			{Name: "finer", LatMin: 0, LatMax: 1, LonMin: 0, LonMax: 1, Step: 0.25},
		},
	}
	payload := NewPayload(time.Now(), time.Now(), 5.0, nil, cfg)

	// cell_deg stays the nominal default even though regions sample finer.
	if payload.CellDeg != 5.0 {
		t.Fatalf("CellDeg = %v, want 5.0", payload.CellDeg)
	}
	if !reflect.DeepEqual(payload.StepsDeg, []float64{0.25, 0.5, 5.0}) {
		t.Fatalf("StepsDeg = %v", payload.StepsDeg)
	}
	if payload.MaskSummary == nil || payload.MaskSummary.DefaultStep != 5.0 || payload.MaskSummary.RegionCount != 2 {
		t.Fatalf("MaskSummary = %+v", payload.MaskSummary)
	}
}

func TestWriteAtomicRoundTrip(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "nested", "grid.json")

	payload := NewPayload(
		time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC),
		time.Date(2024, 3, 1, 6, 0, 0, 0, time.UTC),
		2.0,
		[]Tile{
			{Lat: -2, Lon: 0, Muf: MufSample{NVIS: samplePtr(7.1), Regional: samplePtr(14.0)}},
			{Lat: 0, Lon: 0, Muf: MufSample{}},
		},
		nil,
	)
	if err := WriteAtomic(path, payload); err != nil {
		t.Fatalf("WriteAtomic: %v", err)
	}

	if _, err := os.Stat(path + ".tmp"); !os.IsNotExist(err) {
		t.Fatalf("temporary file left behind")
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read back: %v", err)
	}
	if !strings.HasSuffix(string(data), "\n") {
		t.Fatalf("payload should end with a newline")
	}

	var got Payload
	if err := json.Unmarshal(data, &got); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if !reflect.DeepEqual(got, payload) {
		t.Fatalf("round trip mismatch:\ngot  %+v\nwant %+v", got, payload)
	}
}

func TestWriteAtomicNullBandsSerializeAsNull(t *testing.T) {
	path := filepath.Join(t.TempDir(), "grid.json")
	payload := NewPayload(time.Now(), time.Now(), 2.0, []Tile{{Lat: 0, Lon: 0, Muf: MufSample{DX: samplePtr(21.0)}}}, nil)
	if err := WriteAtomic(path, payload); err != nil {
		t.Fatalf("WriteAtomic: %v", err)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read back: %v", err)
	}
	if !strings.Contains(string(data), `"nvis": null`) {
		t.Fatalf("missing null band in output:\n%s", data)
	}
}
