package util

import (
	"io"
	"os"
	"path/filepath"
	"testing"
)

func TestNormalizePatternPath(t *testing.T) {
	t.Parallel()

	cases := []struct {
		name     string
		input    string
		expected string
	}{
		{name: "Empty", input: "", expected: ""},
		{name: "Dot", input: ".", expected: ""},
		{name: "Trim", input: "  ./foo/bar  ", expected: "foo/bar"},
		{name: "Relative", input: "foo/../bar", expected: "bar"},
		{name: "Backslash", input: `gen\events.h`, expected: "gen/events.h"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			if got := NormalizePatternPath(tc.input); got != tc.expected {
				t.Fatalf("expected %q, got %q", tc.expected, got)
			}
		})
	}
}

func TestWriteFileWithDirs(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "nested", "dir", "events.h")
	if err := WriteFileWithDirs(path, []byte("x"), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	if string(data) != "x" {
		t.Fatalf("unexpected content %q", data)
	}
}

func TestCreateWithDirs(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "out", "events.rc")
	f, err := CreateWithDirs(path)
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if _, err := io.WriteString(f, "rc"); err != nil {
		t.Fatal(err)
	}
	if err := f.Close(); err != nil {
		t.Fatal(err)
	}
	if info, err := os.Stat(path); err != nil || info.Size() != 2 {
		t.Fatalf("expected 2-byte file, got %v %v", info, err)
	}
}

func TestCreateWithDirsParentIsFile(t *testing.T) {
	t.Parallel()

	blocker := filepath.Join(t.TempDir(), "blocker")
	if err := os.WriteFile(blocker, nil, 0o644); err != nil {
		t.Fatal(err)
	}
	if _, err := CreateWithDirs(filepath.Join(blocker, "events.bin")); err == nil {
		t.Fatal("expected error when a parent path component is a file")
	}
}
