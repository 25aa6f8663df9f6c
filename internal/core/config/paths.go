package config

import (
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"evmc/internal/core/config/helpers"

	"github.com/gobwas/glob"
)

const cultureToken = "$(Culture)"

// ResolvedPaths holds every artifact path made absolute against the
// directory of the config file.
type ResolvedPaths struct {
	BaseDir        string
	OutputDir      string
	Header         string
	Source         string
	MessageTable   string
	EventTemplate  string
	ResourceScript string
	History        string
}

// ResolvePaths fills empty artifact paths from the base name. Source stays
// empty unless configured; only generators that emit a source file use it.
func ResolvePaths(cfg *Config, baseDir string) (ResolvedPaths, error) {
	if strings.TrimSpace(baseDir) == "" {
		return ResolvedPaths{}, fmt.Errorf("base directory must not be empty")
	}
	outDir := ResolveRelative(baseDir, cfg.Output.OutputDir)
	base := cfg.Output.BaseName
	pick := func(value, fallback string) string {
		if strings.TrimSpace(value) == "" {
			return filepath.Join(outDir, fallback)
		}
		return ResolveRelative(outDir, value)
	}
	resolved := ResolvedPaths{
		BaseDir:        filepath.Clean(baseDir),
		OutputDir:      outDir,
		Header:         pick(cfg.Output.Header, base+".h"),
		MessageTable:   pick(cfg.Output.MessageTable, base+".msg.bin"),
		EventTemplate:  pick(cfg.Output.EventTemplate, base+".wevt.bin"),
		ResourceScript: pick(cfg.Output.ResourceScript, base+".rc"),
		History:        ResolveRelative(baseDir, cfg.History.Path),
	}
	if strings.TrimSpace(cfg.Output.Source) != "" {
		resolved.Source = ResolveRelative(outDir, cfg.Output.Source)
	}
	return resolved, nil
}

func ResolveRelative(base, value string) string {
	raw := strings.TrimSpace(value)
	if raw == "" {
		return filepath.Clean(base)
	}
	if filepath.IsAbs(raw) {
		return filepath.Clean(raw)
	}
	return filepath.Clean(filepath.Join(base, raw))
}

// ExpandInputs turns the configured inputs into a list of files in input
// order. Plain paths are kept even when missing so that the parser reports
// them. Glob matches are added in lexical order.
func ExpandInputs(inputs, exclude []string, baseDir string) ([]string, error) {
	excludes := make([]glob.Glob, 0, len(exclude))
	for _, pattern := range exclude {
		g, err := glob.Compile(filepath.ToSlash(ResolveRelative(baseDir, pattern)), '/')
		if err != nil {
			return nil, fmt.Errorf("invalid exclude pattern %q: %w", pattern, err)
		}
		excludes = append(excludes, g)
	}
	excluded := func(path string) bool {
		slashed := filepath.ToSlash(path)
		for _, g := range excludes {
			if g.Match(slashed) {
				return true
			}
		}
		return false
	}

	seen := make(map[string]bool)
	var out []string
	add := func(path string) {
		if seen[path] || excluded(path) {
			return
		}
		seen[path] = true
		out = append(out, path)
	}

	for _, input := range inputs {
		if !helpers.HasWildcard(input) {
			add(ResolveRelative(baseDir, input))
			continue
		}
		pattern := ResolveRelative(baseDir, input)
		g, err := glob.Compile(filepath.ToSlash(pattern), '/')
		if err != nil {
			return nil, fmt.Errorf("invalid input pattern %q: %w", input, err)
		}
		root := filepath.Dir(helpers.WildcardPrefix(pattern) + "x")
		err = filepath.WalkDir(root, func(path string, d fs.DirEntry, walkErr error) error {
			if walkErr != nil {
				if os.IsNotExist(walkErr) {
					return nil
				}
				return walkErr
			}
			if d.IsDir() {
				return nil
			}
			if g.Match(filepath.ToSlash(path)) {
				add(filepath.Clean(path))
			}
			return nil
		})
		if err != nil {
			return nil, fmt.Errorf("expand input pattern %q: %w", input, err)
		}
	}
	return out, nil
}
