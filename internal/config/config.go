// Package config holds lciindex's configuration surface: project root,
// ingestion limits, pipeline tuning and persisted-path overrides. The
// layering (defaults -> KDL file -> CLI flags) follows the teacher's
// internal/config package.
package config

import (
	"fmt"
	"os"
	"path/filepath"
)

// Config is the full, validated configuration for one index.
type Config struct {
	Version int
	Project Project
	Index   Index
	Pipeline Pipeline
}

// Project describes the directory tree being indexed.
type Project struct {
	Root string // absolute path to the walked root
	Name string
}

// Index tunes the ingestion/autosave behaviour of the facade and walker
// (spec §4.5, §4.6).
type Index struct {
	AutosaveEveryAppends int    // primary autosave trigger; 0 disables the counter heuristic
	AutosaveIntervalMs   int64  // secondary walltime heuristic; 0 disables it
	MaxFileSize          int64  // bytes; validated (> 0) but not passed to the pipeline: the loader reads files of any size
	FollowSymlinks        bool
	Exclude               []string // doublestar patterns, matched root-relative
	StorePath             string   // defaults to <root>/.lciindex
	WatchDebounceMs       int64    // debounce window for the `watch` REPL command
}

// Pipeline tunes the ingestion DAG's channel sizing (spec §4.6).
type Pipeline struct {
	ChannelCapacity int
	IndexerWorkers  int
}

// Default returns the baseline configuration for root, with every
// Open Question from spec §9 resolved to its documented default:
// autosave every 1000 appends, no-compaction removal, bounded channels
// of capacity 10.
func Default(root string) *Config {
	abs, err := filepath.Abs(root)
	if err != nil {
		abs = root
	}
	return &Config{
		Version: 1,
		Project: Project{Root: abs, Name: filepath.Base(abs)},
		Index: Index{
			AutosaveEveryAppends: 1000,
			AutosaveIntervalMs:   0,
			MaxFileSize:          10 * 1024 * 1024,
			FollowSymlinks:       false,
			Exclude:              []string{".git/**", "node_modules/**", ".lciindex*"},
			StorePath:            filepath.Join(abs, ".lciindex"),
			WatchDebounceMs:      300,
		},
		Pipeline: Pipeline{
			ChannelCapacity: 10,
			IndexerWorkers:  4,
		},
	}
}

// Validate checks the configuration is internally consistent, mirroring
// the teacher's internal/config validator pattern (config/validator.go).
func (c *Config) Validate() error {
	if c.Project.Root == "" {
		return fmt.Errorf("config: project.root must not be empty")
	}
	if info, err := os.Stat(c.Project.Root); err != nil || !info.IsDir() {
		return fmt.Errorf("config: project.root %q is not a directory", c.Project.Root)
	}
	if c.Index.AutosaveEveryAppends < 0 {
		return fmt.Errorf("config: index.autosave_every_appends must be >= 0")
	}
	if c.Index.AutosaveIntervalMs < 0 {
		return fmt.Errorf("config: index.autosave_interval_ms must be >= 0")
	}
	if c.Index.MaxFileSize <= 0 {
		return fmt.Errorf("config: index.max_file_size must be > 0")
	}
	if c.Pipeline.ChannelCapacity <= 0 {
		return fmt.Errorf("config: pipeline.channel_capacity must be > 0")
	}
	if c.Pipeline.IndexerWorkers <= 0 {
		return fmt.Errorf("config: pipeline.indexer_workers must be > 0")
	}
	return nil
}

// StoredPath returns the "<index>.stored" path (spec §6 persisted paths).
func (c *Config) StoredPath() string { return c.Index.StorePath + ".stored" }

// TmpStoredPath returns the "<index>.tmp_stored" path (spec §6).
func (c *Config) TmpStoredPath() string { return c.Index.StorePath + ".tmp_stored" }
