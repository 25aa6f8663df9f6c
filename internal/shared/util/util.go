package util

import (
	"io/fs"
	"os"
	"path"
	"path/filepath"
	"strings"
)

// NormalizePatternPath cleans and normalizes paths for matcher/pattern usage.
func NormalizePatternPath(s string) string {
	trimmed := strings.TrimSpace(strings.ReplaceAll(s, "\\", "/"))
	clean := path.Clean(trimmed)
	if clean == "." {
		return ""
	}
	return strings.TrimPrefix(clean, "./")
}

func ensureParent(path string) error {
	dir := filepath.Dir(path)
	if dir != "" && dir != "." {
		return os.MkdirAll(dir, 0o755)
	}
	return nil
}

// WriteFileWithDirs creates parent directories (0755) and writes the file with perm.
func WriteFileWithDirs(path string, data []byte, perm fs.FileMode) error {
	if err := ensureParent(path); err != nil {
		return err
	}
	return os.WriteFile(path, data, perm)
}

// CreateWithDirs creates parent directories (0755) and truncates or creates
// the file for writing. The caller closes it.
func CreateWithDirs(path string) (*os.File, error) {
	if err := ensureParent(path); err != nil {
		return nil, err
	}
	return os.Create(path)
}
