package main

import (
	"os"
	"path/filepath"
	"testing"
)

func TestDefaultDriverDirPrefersDataDirectory(t *testing.T) {
	dir := t.TempDir()
	driver := filepath.Join(dir, "iri_muf_driver")
	if err := os.WriteFile(driver, []byte("#!/bin/sh\n"), 0o755); err != nil {
		t.Fatalf("write driver: %v", err)
	}

	if got := defaultDriverDir(driver); got != dir {
		t.Fatalf("defaultDriverDir = %q, want driver dir %q", got, dir)
	}

	dataDir := filepath.Join(dir, "iri_driver")
	if err := os.Mkdir(dataDir, 0o755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}
	if got := defaultDriverDir(driver); got != dataDir {
		t.Fatalf("defaultDriverDir = %q, want data dir %q", got, dataDir)
	}
}

func TestRunRejectsBadArguments(t *testing.T) {
	if code := run([]string{}); code != 2 {
		t.Fatalf("missing -driver: exit = %d, want 2", code)
	}

	dir := t.TempDir()
	driver := filepath.Join(dir, "iri_muf_driver")
	if err := os.WriteFile(driver, []byte("#!/bin/sh\n"), 0o755); err != nil {
		t.Fatalf("write driver: %v", err)
	}

	if code := run([]string{"-driver", filepath.Join(dir, "absent")}); code != 2 {
		t.Fatalf("missing executable: exit = %d, want 2", code)
	}
	if code := run([]string{"-driver", driver, "-workers", "zero"}); code != 2 {
		t.Fatalf("bad workers: exit = %d, want 2", code)
	}
	if code := run([]string{"-driver", driver, "-timestamp", "not-a-time"}); code != 2 {
		t.Fatalf("bad timestamp: exit = %d, want 2", code)
	}
	if code := run([]string{"-driver", driver, "-mask", filepath.Join(dir, "absent.json")}); code != 2 {
		t.Fatalf("unreadable mask: exit = %d, want 2", code)
	}
}

func TestRunEndToEndWithStubDriver(t *testing.T) {
	dir := t.TempDir()
	driver := filepath.Join(dir, "iri_muf_driver")
	script := "#!/bin/sh\necho '{\"muf\": {\"nvis\": {\"muf_mhz\": 7.0}, \"regional\": {\"muf_mhz\": 14.0}, \"dx_secant\": {\"muf_mhz\": 21.0}}}'\n"
	if err := os.WriteFile(driver, []byte(script), 0o755); err != nil {
		t.Fatalf("write driver: %v", err)
	}
	output := filepath.Join(dir, "grid.json")

	code := run([]string{
		"-driver", driver,
		"-step", "2.0",
		"-lat-min", "-2", "-lat-max", "2",
		"-lon-min", "-2", "-lon-max", "2",
		"-timestamp", "2024-03-01T12:00:00Z",
		"-output", output,
		"-quiet",
	})
	if code != 0 {
		t.Fatalf("run exit = %d, want 0", code)
	}
	if _, err := os.Stat(output); err != nil {
		t.Fatalf("output not written: %v", err)
	}
}
