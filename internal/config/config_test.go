package config

import (
	"os"
	"path/filepath"
	"testing"
)

func unsetForTest(t *testing.T, keys ...string) {
	t.Helper()
	for _, k := range keys {
		old, had := os.LookupEnv(k)
		_ = os.Unsetenv(k)
		t.Cleanup(func() {
			if had {
				_ = os.Setenv(k, old)
			} else {
				_ = os.Unsetenv(k)
			}
		})
	}
}

func TestLoad_ReadsDotEnv(t *testing.T) {
	cwd, err := os.Getwd()
	if err != nil {
		t.Fatal(err)
	}
	defer func() { _ = os.Chdir(cwd) }()

	d := t.TempDir()
	if err := os.WriteFile(filepath.Join(d, ".env"), []byte("MOCKGEN_OUTPUT_DIR=/tmp/mock-out\nMOCKGEN_LOG_LEVEL=debug\nMOCKGEN_CHUNK_SIZE=250\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	if err := os.Chdir(d); err != nil {
		t.Fatal(err)
	}

	unsetForTest(t, "MOCKGEN_OUTPUT_DIR", "MOCKGEN_LOG_LEVEL", "MOCKGEN_CHUNK_SIZE")

	cfg := Load()
	if cfg.OutputDir != "/tmp/mock-out" {
		t.Fatalf("expected MOCKGEN_OUTPUT_DIR from .env, got %q", cfg.OutputDir)
	}
	if cfg.LogLevel != "debug" {
		t.Fatalf("expected MOCKGEN_LOG_LEVEL from .env, got %q", cfg.LogLevel)
	}
	if cfg.ChunkSize != 250 {
		t.Fatalf("expected chunk size 250, got %d", cfg.ChunkSize)
	}
}

func TestLoad_Defaults(t *testing.T) {
	cwd, err := os.Getwd()
	if err != nil {
		t.Fatal(err)
	}
	defer func() { _ = os.Chdir(cwd) }()
	if err := os.Chdir(t.TempDir()); err != nil {
		t.Fatal(err)
	}

	unsetForTest(t, "MOCKGEN_CHUNK_SIZE", "MOCKGEN_CHUNK_THRESHOLD", "MOCKGEN_REUSE_CAP", "MOCKGEN_OPEN_ENDED")
	if err := os.Setenv("MOCKGEN_REUSE_CAP", "not-a-number"); err != nil {
		t.Fatal(err)
	}

	cfg := Load()
	if cfg.ChunkSize != 5000 || cfg.ChunkThreshold != 5000 {
		t.Fatalf("unexpected chunk defaults: %d/%d", cfg.ChunkSize, cfg.ChunkThreshold)
	}
	if cfg.ReuseCap != 2 {
		t.Fatalf("expected invalid reuse cap to fall back to 2, got %d", cfg.ReuseCap)
	}
	if cfg.OpenEnded != "4712-12-31" {
		t.Fatalf("unexpected open-ended sentinel: %q", cfg.OpenEnded)
	}
}
