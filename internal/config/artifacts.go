package config

import (
	"os"
	"path/filepath"

	"github.com/pelletier/go-toml/v2"
)

// DetectBuildExcludes inspects language-specific manifests at root and
// returns doublestar exclude patterns for their build-output directories,
// adapted from the teacher's BuildArtifactDetector (config/build_artifact_detector.go)
// but trimmed to what this indexer needs: directories to never walk,
// not build-script introspection.
func DetectBuildExcludes(root string) []string {
	var patterns []string
	patterns = append(patterns, detectNodeExcludes(root)...)
	patterns = append(patterns, detectRustExcludes(root)...)
	patterns = append(patterns, detectPythonExcludes(root)...)
	patterns = append(patterns, detectJavaExcludes(root)...)
	return patterns
}

func detectNodeExcludes(root string) []string {
	if _, err := os.Stat(filepath.Join(root, "package.json")); err != nil {
		return nil
	}
	return []string{"node_modules/**", "dist/**", "build/**", ".next/**"}
}

func detectRustExcludes(root string) []string {
	path := filepath.Join(root, "Cargo.toml")
	data, err := os.ReadFile(path)
	if err != nil {
		return nil
	}
	var cargo struct {
		Package struct {
			Name string `toml:"name"`
		} `toml:"package"`
	}
	if toml.Unmarshal(data, &cargo) != nil {
		return []string{"target/**"}
	}
	return []string{"target/**"}
}

func detectPythonExcludes(root string) []string {
	pyproject := filepath.Join(root, "pyproject.toml")
	setupPy := filepath.Join(root, "setup.py")
	if _, err := os.Stat(pyproject); err == nil {
		data, rerr := os.ReadFile(pyproject)
		if rerr == nil {
			var proj map[string]any
			_ = toml.Unmarshal(data, &proj)
		}
		return []string{"__pycache__/**", "*.egg-info/**", ".venv/**"}
	}
	if _, err := os.Stat(setupPy); err == nil {
		return []string{"__pycache__/**", "*.egg-info/**", "build/**", "dist/**"}
	}
	return nil
}

func detectJavaExcludes(root string) []string {
	var patterns []string
	if _, err := os.Stat(filepath.Join(root, "pom.xml")); err == nil {
		patterns = append(patterns, "target/**")
	}
	if _, err := os.Stat(filepath.Join(root, "build.gradle")); err == nil {
		patterns = append(patterns, "build/**")
	}
	return patterns
}
