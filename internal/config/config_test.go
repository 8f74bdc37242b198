package config

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
)

func useTempPath(t *testing.T) {
	t.Helper()
	orig := Path
	t.Cleanup(func() { Path = orig })
	Path = filepath.Join(t.TempDir(), "config.json")
}

func TestLoad_Default(t *testing.T) {
	useTempPath(t)

	cfg := Load()
	if cfg != Default() {
		t.Errorf("Load() = %+v, want defaults %+v", cfg, Default())
	}
	if _, err := os.Stat(Path); os.IsNotExist(err) {
		t.Error("Load should create default config file")
	}
}

func TestLoad_ExistingFile(t *testing.T) {
	useTempPath(t)

	custom := Config{AlphaThreshold: 10, BitDepth: 8, Workers: 2, Output: "out"}
	data, _ := json.MarshalIndent(custom, "", "  ")
	os.WriteFile(Path, data, 0600)

	if cfg := Load(); cfg != custom {
		t.Errorf("Load() = %+v, want %+v", cfg, custom)
	}
}

func TestLoad_PartialFile(t *testing.T) {
	useTempPath(t)
	os.WriteFile(Path, []byte(`{"workers": 8}`), 0600)

	cfg := Load()
	if cfg.Workers != 8 {
		t.Errorf("Workers = %d, want 8", cfg.Workers)
	}
	if cfg.AlphaThreshold != 127 {
		t.Errorf("AlphaThreshold = %d, want 127 (default)", cfg.AlphaThreshold)
	}
}

func TestLoad_InvalidValues(t *testing.T) {
	useTempPath(t)
	os.WriteFile(Path, []byte(`{"alpha_threshold": 300, "bit_depth": 3, "workers": -1}`), 0600)

	if cfg := Load(); cfg != Default() {
		t.Errorf("Load() = %+v, want defaults for every invalid field", cfg)
	}
}

func TestLoad_InvalidJSON(t *testing.T) {
	useTempPath(t)
	os.WriteFile(Path, []byte(`{broken`), 0600)

	if cfg := Load(); cfg != Default() {
		t.Errorf("Load() = %+v, want defaults on parse error", cfg)
	}
}

func TestSave(t *testing.T) {
	useTempPath(t)

	cfg := Default()
	cfg.Workers = 16
	if err := Save(cfg); err != nil {
		t.Fatalf("Save() error: %v", err)
	}
	data, err := os.ReadFile(Path)
	if err != nil {
		t.Fatalf("read saved config: %v", err)
	}
	var loaded Config
	json.Unmarshal(data, &loaded)
	if loaded.Workers != 16 {
		t.Errorf("Workers = %d, want 16", loaded.Workers)
	}
}

func TestWriteFileSecure_Permissions(t *testing.T) {
	path := filepath.Join(t.TempDir(), "sub", "file.txt")
	if err := writeFileSecure(path, []byte("test")); err != nil {
		t.Fatalf("writeFileSecure() error: %v", err)
	}
	info, err := os.Stat(path)
	if err != nil {
		t.Fatalf("stat: %v", err)
	}
	if perm := info.Mode().Perm(); perm != 0600 {
		t.Errorf("file permissions = %o, want 0600", perm)
	}
}

func TestApply_Priority(t *testing.T) {
	t.Setenv("ICOUTILS_ALPHA_THRESHOLD", "50")
	t.Setenv("ICOUTILS_WORKERS", "3")
	t.Setenv("ICOUTILS_OUTPUT", "env-dir")

	cfg := Default()
	Apply(&cfg, Overrides{Workers: 9})
	if cfg.AlphaThreshold != 50 {
		t.Errorf("AlphaThreshold = %d, want 50 from env", cfg.AlphaThreshold)
	}
	if cfg.Workers != 9 {
		t.Errorf("Workers = %d, want 9 from flag", cfg.Workers)
	}
	if cfg.Output != "env-dir" {
		t.Errorf("Output = %q, want env-dir", cfg.Output)
	}

	Apply(&cfg, Overrides{AlphaThreshold: 0, AlphaThresholdSet: true, Output: "flag-dir"})
	if cfg.AlphaThreshold != 0 {
		t.Errorf("AlphaThreshold = %d, want explicit 0 from flag", cfg.AlphaThreshold)
	}
	if cfg.Output != "flag-dir" {
		t.Errorf("Output = %q, want flag-dir", cfg.Output)
	}
}

func TestApply_Invalid(t *testing.T) {
	t.Setenv("ICOUTILS_BIT_DEPTH", "12")
	t.Setenv("ICOUTILS_WORKERS", "many")

	cfg := Default()
	Apply(&cfg, Overrides{AlphaThreshold: 999, AlphaThresholdSet: true})
	if cfg != Default() {
		t.Errorf("Apply with invalid values = %+v, want defaults", cfg)
	}

	Apply(&cfg, Overrides{BitDepth: 32, BitDepthSet: true})
	if cfg.BitDepth != 32 {
		t.Errorf("BitDepth = %d, want 32", cfg.BitDepth)
	}
}
