// Package grid fans a grid of coordinates out to an external per-point MUF
// driver and assembles the results into the canonical grid payload.
package grid

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"os/exec"
	"strconv"
	"strings"
)

// MufSample carries the per-band MUF values for one coordinate. Bands the
// driver could not evaluate come back as nil and serialize as JSON null.
type MufSample struct {
	NVIS     *float64 `json:"nvis"`
	Regional *float64 `json:"regional"`
	DX       *float64 `json:"dx"`
}

// TimestampFields is the UTC instant the driver is evaluated at, in the
// positional-argument form the driver expects.
type TimestampFields struct {
	Year  int
	Month int
	Day   int
	Hour  float64 // fractional UTC hour
}

// PointCompute evaluates the MUF metric at a single coordinate. Implementations
// must be safe for concurrent use by independent workers; the builder holds no
// lock around calls.
type PointCompute interface {
	Compute(ctx context.Context, ts TimestampFields, lat, lon float64) (MufSample, error)
}

// ComputeError reports a failed driver invocation: either a non-zero exit
// (ExitCode >= 0, Detail holds captured stderr) or unparseable output
// (ExitCode < 0, Detail holds the raw stdout). A single ComputeError aborts
// the entire run; no per-point retry is attempted.
type ComputeError struct {
	Lat      float64
	Lon      float64
	ExitCode int
	Detail   string
	Err      error
}

func (e *ComputeError) Error() string {
	if e.ExitCode >= 0 {
		return fmt.Sprintf("driver failed for lat=%v, lon=%v with code %d: %s",
			e.Lat, e.Lon, e.ExitCode, e.Detail)
	}
	return fmt.Sprintf("failed to parse driver JSON for lat=%v, lon=%v: %v; output was: %s",
		e.Lat, e.Lon, e.Err, e.Detail)
}

func (e *ComputeError) Unwrap() error { return e.Err }

// driver stdout shape: {"muf": {"nvis": {"muf_mhz": n}, ...}}.
type driverBand struct {
	MufMHz *float64 `json:"muf_mhz"`
}

type driverPayload struct {
	Muf struct {
		Nvis     driverBand `json:"nvis"`
		Regional driverBand `json:"regional"`
		DXSecant driverBand `json:"dx_secant"`
	} `json:"muf"`
}

// DriverGateway invokes the external MUF driver executable once per
// coordinate, passing year, month, day, fractional UTC hour, latitude, and
// longitude as positional arguments and reading one JSON document from its
// stdout. The gateway is stateless; concurrent calls are independent.
//
// No timeout is applied: a hung driver blocks its worker indefinitely.
type DriverGateway struct {
	// Path is the driver executable.
	Path string
	// Dir is the working directory for the driver; the Fortran data files
	// are resolved relative to it. Empty inherits the caller's directory.
	Dir string
}

// Compute runs the driver for one coordinate.
func (g *DriverGateway) Compute(ctx context.Context, ts TimestampFields, lat, lon float64) (MufSample, error) {
	args := []string{
		strconv.Itoa(ts.Year),
		strconv.Itoa(ts.Month),
		strconv.Itoa(ts.Day),
		fmt.Sprintf("%.6f", ts.Hour),
		fmt.Sprintf("%.6f", lat),
		fmt.Sprintf("%.6f", lon),
	}

	cmd := exec.CommandContext(ctx, g.Path, args...)
	cmd.Dir = g.Dir
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		if exitErr, ok := err.(*exec.ExitError); ok {
			return MufSample{}, &ComputeError{
				Lat:      lat,
				Lon:      lon,
				ExitCode: exitErr.ExitCode(),
				Detail:   strings.TrimSpace(stderr.String()),
				Err:      err,
			}
		}
		// Start failures (missing binary, denied spawn) keep their original
		// error chain so callers can inspect the cause.
		return MufSample{}, fmt.Errorf("grid: start driver %s: %w", g.Path, err)
	}

	var payload driverPayload
	if err := json.Unmarshal(stdout.Bytes(), &payload); err != nil {
		return MufSample{}, &ComputeError{
			Lat:      lat,
			Lon:      lon,
			ExitCode: -1,
			Detail:   stdout.String(),
			Err:      err,
		}
	}

	return MufSample{
		NVIS:     payload.Muf.Nvis.MufMHz,
		Regional: payload.Muf.Regional.MufMHz,
		DX:       payload.Muf.DXSecant.MufMHz,
	}, nil
}

// SpawnProbe checks whether the environment permits spawning the driver as a
// subprocess. It starts the driver with no arguments and discards the result;
// only the ability to fork/exec matters, not the driver's exit status.
func (g *DriverGateway) SpawnProbe() error {
	cmd := exec.Command(g.Path)
	if err := cmd.Start(); err != nil {
		return err
	}
	_ = cmd.Wait()
	return nil
}
