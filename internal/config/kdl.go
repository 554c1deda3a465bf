package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	kdl "github.com/sblinch/kdl-go"
	"github.com/sblinch/kdl-go/document"
)

// kdlFileName is the project-local config file name, mirroring the
// teacher's .lci.kdl convention.
const kdlFileName = ".lciindex.kdl"

// LoadKDL loads <projectRoot>/.lciindex.kdl over Default(projectRoot). A
// missing file is not an error: the caller gets the defaults.
func LoadKDL(projectRoot string) (*Config, error) {
	path := filepath.Join(projectRoot, kdlFileName)
	content, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		cfg := Default(projectRoot)
		cfg.Index.Exclude = append(cfg.Index.Exclude, DetectBuildExcludes(cfg.Project.Root)...)
		return cfg, nil
	}
	if err != nil {
		return nil, fmt.Errorf("config: reading %s: %w", path, err)
	}

	cfg := Default(projectRoot)
	doc, err := kdl.Parse(strings.NewReader(string(content)))
	if err != nil {
		return nil, fmt.Errorf("config: parsing %s: %w", path, err)
	}

	for _, n := range doc.Nodes {
		switch nodeName(n) {
		case "project":
			for _, cn := range n.Children {
				assignSimpleString(cn, "root", func(v string) {
					if filepath.IsAbs(v) {
						cfg.Project.Root = v
					} else {
						cfg.Project.Root = filepath.Clean(filepath.Join(projectRoot, v))
					}
				})
				assignSimpleString(cn, "name", func(v string) { cfg.Project.Name = v })
			}
		case "index":
			for _, cn := range n.Children {
				switch nodeName(cn) {
				case "autosave_every_appends":
					if v, ok := firstIntArg(cn); ok {
						cfg.Index.AutosaveEveryAppends = v
					}
				case "autosave_interval_ms":
					if v, ok := firstIntArg(cn); ok {
						cfg.Index.AutosaveIntervalMs = int64(v)
					}
				case "max_file_size":
					if v, ok := firstIntArg(cn); ok {
						cfg.Index.MaxFileSize = int64(v)
					}
				case "follow_symlinks":
					if b, ok := firstBoolArg(cn); ok {
						cfg.Index.FollowSymlinks = b
					}
				case "store_path":
					if s, ok := firstStringArg(cn); ok {
						cfg.Index.StorePath = s
					}
				case "watch_debounce_ms":
					if v, ok := firstIntArg(cn); ok {
						cfg.Index.WatchDebounceMs = int64(v)
					}
				}
			}
		case "pipeline":
			for _, cn := range n.Children {
				switch nodeName(cn) {
				case "channel_capacity":
					if v, ok := firstIntArg(cn); ok {
						cfg.Pipeline.ChannelCapacity = v
					}
				case "indexer_workers":
					if v, ok := firstIntArg(cn); ok {
						cfg.Pipeline.IndexerWorkers = v
					}
				}
			}
		case "exclude":
			if patterns := collectStringArgs(n); len(patterns) > 0 {
				cfg.Index.Exclude = patterns
			}
		}
	}

	cfg.Index.Exclude = append(cfg.Index.Exclude, DetectBuildExcludes(cfg.Project.Root)...)
	return cfg, nil
}

func nodeName(n *document.Node) string {
	if n == nil || n.Name == nil {
		return ""
	}
	return n.Name.NodeNameString()
}

func firstIntArg(n *document.Node) (int, bool) {
	if len(n.Arguments) == 0 {
		return 0, false
	}
	switch v := n.Arguments[0].Value.(type) {
	case int64:
		return int(v), true
	case float64:
		return int(v), true
	default:
		return 0, false
	}
}

func firstStringArg(n *document.Node) (string, bool) {
	if len(n.Arguments) == 0 {
		return "", false
	}
	s, ok := n.Arguments[0].Value.(string)
	return s, ok
}

func firstBoolArg(n *document.Node) (bool, bool) {
	if len(n.Arguments) == 0 {
		return false, false
	}
	b, ok := n.Arguments[0].Value.(bool)
	return b, ok
}

func collectStringArgs(n *document.Node) []string {
	if n == nil {
		return nil
	}
	out := make([]string, 0, len(n.Arguments))
	for _, a := range n.Arguments {
		if s, ok := a.Value.(string); ok {
			out = append(out, s)
		}
	}
	if len(out) == 0 && len(n.Children) > 0 {
		out = make([]string, 0, len(n.Children))
		for _, child := range n.Children {
			if s, ok := firstStringArg(child); ok {
				out = append(out, s)
			} else if child.Name != nil {
				if s, ok := child.Name.Value.(string); ok {
					out = append(out, s)
				}
			}
		}
	}
	return out
}

func assignSimpleString(n *document.Node, target string, set func(string)) {
	if nodeName(n) == target {
		if s, ok := firstStringArg(n); ok {
			set(s)
		}
	}
}
