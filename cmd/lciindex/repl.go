package main

import (
	"bufio"
	"fmt"
	"os"
	"sort"
	"strings"
	"time"

	"github.com/hbollon/go-edlib"
	"github.com/urfave/cli/v2"

	"github.com/standardbeagle/lciindex/internal/config"
	"github.com/standardbeagle/lciindex/internal/debug"
	indexpkg "github.com/standardbeagle/lciindex/internal/index"
	"github.com/standardbeagle/lciindex/internal/pipeline"
)

// knownCommands is used both for the `help` listing and for fuzzy "did you
// mean" hints on unrecognised input, mirroring the command grammar of the
// original Rust REPL (src/cmds.rs: index, find, files, delete, stats
// base/debug, store, help/?).
var knownCommands = []string{"index", "find", "files", "delete", "stats", "store", "watch", "unwatch", "help", "?"}

func runREPL(c *cli.Context) error {
	if c.Bool("debug") {
		debug.EnableDebug = "true"
	}

	cfg, err := loadConfigWithOverrides(c)
	if err != nil {
		return err
	}

	facade, err := openOrCreateFacade(cfg)
	if err != nil {
		return err
	}
	defer facade.Close()
	facade.SetAutosaveEvery(cfg.Index.AutosaveEveryAppends)

	excludes := append([]string{}, cfg.Index.Exclude...)
	pl := pipeline.New(facade, cfg.StoredPath(), cfg.TmpStoredPath(), excludes,
		cfg.Pipeline.ChannelCapacity, cfg.Pipeline.IndexerWorkers)
	pl.Start()
	sess := &session{cfg: cfg, facade: facade, pl: pl}
	defer sess.stopWatch()
	defer func() {
		pl.Quit()
		pl.Wait()
	}()

	stopAutosaveTicker := startAutosaveTicker(pl, cfg.Index.AutosaveIntervalMs)
	defer stopAutosaveTicker()

	fmt.Printf("lciindex %s — indexing %s\n", cfg.Project.Name, cfg.Project.Root)
	fmt.Println("type `help` or `?` for commands")

	scanner := bufio.NewScanner(os.Stdin)
	for {
		fmt.Print("> ")
		if !scanner.Scan() {
			break
		}
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		if !sess.dispatch(line) {
			break
		}
	}
	return nil
}

// session holds the REPL's mutable state across commands: the facade,
// pipeline, and an optional live watcher started by `watch`.
type session struct {
	cfg     *config.Config
	facade  *indexpkg.Facade
	pl      *pipeline.Pipeline
	watcher *pipeline.Watcher
}

func (s *session) stopWatch() {
	if s.watcher != nil {
		_ = s.watcher.Stop()
		s.watcher = nil
	}
}

// startAutosaveTicker wires the spec §9 secondary walltime autosave
// trigger: if intervalMs > 0, a background ticker requests an autosave
// on that cadence regardless of the append-count heuristic. Returns a
// stop function that is a no-op when the walltime heuristic is disabled.
func startAutosaveTicker(pl *pipeline.Pipeline, intervalMs int64) func() {
	if intervalMs <= 0 {
		return func() {}
	}
	ticker := time.NewTicker(time.Duration(intervalMs) * time.Millisecond)
	done := make(chan struct{})
	go func() {
		for {
			select {
			case <-ticker.C:
				pl.AutoSave()
			case <-done:
				return
			}
		}
	}()
	return func() {
		ticker.Stop()
		close(done)
	}
}

func openOrCreateFacade(cfg *config.Config) (*indexpkg.Facade, error) {
	if _, err := os.Stat(cfg.Index.StorePath); err == nil {
		return indexpkg.Open(cfg.Index.StorePath)
	}
	return indexpkg.Create(cfg.Index.StorePath)
}

// dispatch runs one REPL line; it returns false when the REPL should
// exit.
func (s *session) dispatch(line string) bool {
	fields := strings.Fields(line)
	cmd, args := fields[0], fields[1:]

	switch cmd {
	case "index":
		s.pl.WalkTree(s.cfg.Project.Root)
		fmt.Println("walking", s.cfg.Project.Root)
	case "find":
		if len(args) == 0 {
			fmt.Println("usage: find <pattern>...")
			return true
		}
		names, err := s.facade.Find(args)
		if err != nil {
			fmt.Println("error:", err)
			return true
		}
		printNames(names)
	case "files":
		if len(args) != 1 {
			fmt.Println("usage: files <pattern>")
			return true
		}
		printNames(s.facade.FindFile(args[0]))
	case "delete":
		if len(args) != 1 {
			fmt.Println("usage: delete <pattern>")
			return true
		}
		for _, name := range s.facade.FindFile(args[0]) {
			s.pl.DeleteFile(name)
		}
	case "stats":
		runStats(args, s.facade)
	case "store":
		s.pl.AutoSave()
		fmt.Println("autosave requested")
	case "watch":
		s.startWatch()
	case "unwatch":
		if s.watcher == nil {
			fmt.Println("not watching")
			return true
		}
		s.stopWatch()
		fmt.Println("watch stopped")
	case "help", "?":
		printHelp()
	case "quit", "exit":
		return false
	default:
		printUnknownCommandHint(cmd)
	}
	return true
}

// startWatch begins live re-indexing, submitting an initial WalkTree so
// `watch` alone (without a prior `index`) still indexes the current tree.
func (s *session) startWatch() {
	if s.watcher != nil {
		fmt.Println("already watching")
		return
	}
	w, err := pipeline.NewWatcher(s.pl, s.cfg.Project.Root, s.cfg.Index.Exclude,
		time.Duration(s.cfg.Index.WatchDebounceMs)*time.Millisecond)
	if err != nil {
		fmt.Println("watch: failed to start:", err)
		return
	}
	if err := w.Start(); err != nil {
		fmt.Println("watch: failed to start:", err)
		return
	}
	s.watcher = w
	s.pl.WalkTree(s.cfg.Project.Root)
	fmt.Println("watching", s.cfg.Project.Root, "for changes")
}

func runStats(args []string, facade *indexpkg.Facade) {
	if len(args) == 0 {
		fmt.Println("usage: stats base|debug")
		return
	}
	switch args[0] {
	case "base":
		names := facade.IterFileNames()
		fmt.Printf("files: %d\n", len(names))
		fmt.Printf("words: %d\n", facade.WordCount())
	case "debug":
		fmt.Printf("debug enabled: %v, at %s\n", debug.IsDebugEnabled(), time.Now().Format(time.RFC3339))
	default:
		fmt.Println("usage: stats base|debug")
	}
}

func printNames(names []string) {
	if len(names) == 0 {
		fmt.Println("(no matches)")
		return
	}
	sort.Strings(names)
	for _, n := range names {
		fmt.Println(n)
	}
}

func printHelp() {
	fmt.Println(`commands:
  index             walk and index the project root
  find <pattern>... intersect files matching every wildcard word pattern
  files <pattern>   list indexed file names matching a wildcard pattern
  delete <pattern>  remove matching file entries from the index
  stats base        print file/word counts
  stats debug       print internal diagnostics
  store             force an immediate autosave
  watch             watch the project root and re-index changes live
  unwatch           stop a running watch
  help, ?           show this message`)
}

// printUnknownCommandHint offers a "did you mean" suggestion using
// Jaro-Winkler similarity against the known command set (grounded on the
// teacher's semantic.FuzzyMatcher, internal/semantic/fuzzy_matcher.go).
func printUnknownCommandHint(cmd string) {
	best, bestScore := "", 0.0
	for _, known := range knownCommands {
		score, err := edlib.StringsSimilarity(cmd, known, edlib.JaroWinkler)
		if err != nil {
			continue
		}
		if float64(score) > bestScore {
			best, bestScore = known, float64(score)
		}
	}
	if bestScore > 0.7 {
		fmt.Printf("unknown command %q — did you mean %q?\n", cmd, best)
		return
	}
	fmt.Printf("unknown command %q, type `help` for a list\n", cmd)
}
