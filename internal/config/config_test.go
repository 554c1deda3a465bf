package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestDefaultIsValid(t *testing.T) {
	dir := t.TempDir()
	cfg := Default(dir)
	if err := cfg.Validate(); err != nil {
		t.Fatalf("Default config should validate: %v", err)
	}
	if cfg.Index.AutosaveEveryAppends != 1000 {
		t.Errorf("expected default autosave cadence of 1000, got %d", cfg.Index.AutosaveEveryAppends)
	}
	if cfg.Pipeline.ChannelCapacity != 10 {
		t.Errorf("expected default channel capacity of 10, got %d", cfg.Pipeline.ChannelCapacity)
	}
}

func TestValidateRejectsMissingRoot(t *testing.T) {
	cfg := Default(t.TempDir())
	cfg.Project.Root = ""
	if err := cfg.Validate(); err == nil {
		t.Error("expected an error for empty project root")
	}
}

func TestValidateRejectsNonexistentRoot(t *testing.T) {
	cfg := Default(t.TempDir())
	cfg.Project.Root = filepath.Join(cfg.Project.Root, "does-not-exist")
	if err := cfg.Validate(); err == nil {
		t.Error("expected an error for a nonexistent project root")
	}
}

func TestLoadKDLMissingFileReturnsDefaults(t *testing.T) {
	dir := t.TempDir()
	cfg, err := LoadKDL(dir)
	if err != nil {
		t.Fatalf("LoadKDL with no config file should not error: %v", err)
	}
	if cfg.Index.AutosaveEveryAppends != 1000 {
		t.Errorf("expected fallback to defaults, got autosave=%d", cfg.Index.AutosaveEveryAppends)
	}
}

func TestLoadKDLParsesOverrides(t *testing.T) {
	dir := t.TempDir()
	kdl := `
index {
	autosave_every_appends 50
	max_file_size 2048
	follow_symlinks true
}
pipeline {
	channel_capacity 20
	indexer_workers 8
}
exclude "vendor/**" "*.tmp"
`
	if err := os.WriteFile(filepath.Join(dir, kdlFileName), []byte(kdl), 0644); err != nil {
		t.Fatalf("writing test config: %v", err)
	}

	cfg, err := LoadKDL(dir)
	if err != nil {
		t.Fatalf("LoadKDL: %v", err)
	}
	if cfg.Index.AutosaveEveryAppends != 50 {
		t.Errorf("expected autosave_every_appends=50, got %d", cfg.Index.AutosaveEveryAppends)
	}
	if cfg.Index.MaxFileSize != 2048 {
		t.Errorf("expected max_file_size=2048, got %d", cfg.Index.MaxFileSize)
	}
	if !cfg.Index.FollowSymlinks {
		t.Error("expected follow_symlinks=true")
	}
	if cfg.Pipeline.ChannelCapacity != 20 || cfg.Pipeline.IndexerWorkers != 8 {
		t.Errorf("unexpected pipeline overrides: %+v", cfg.Pipeline)
	}
	found := false
	for _, p := range cfg.Index.Exclude {
		if p == "vendor/**" {
			found = true
		}
	}
	if !found {
		t.Errorf("expected exclude list to contain vendor/**, got %v", cfg.Index.Exclude)
	}
}

func TestStoredPaths(t *testing.T) {
	cfg := Default(t.TempDir())
	cfg.Index.StorePath = "/tmp/x.idx"
	if cfg.StoredPath() != "/tmp/x.idx.stored" {
		t.Errorf("unexpected stored path: %s", cfg.StoredPath())
	}
	if cfg.TmpStoredPath() != "/tmp/x.idx.tmp_stored" {
		t.Errorf("unexpected tmp stored path: %s", cfg.TmpStoredPath())
	}
}
