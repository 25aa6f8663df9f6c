package history

import (
	"context"
	"database/sql"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
)

func TestStore_OpenInitializesSchemaAndSaveLoad(t *testing.T) {
	ctx := context.Background()
	store, err := Open(filepath.Join(t.TempDir(), "history.db"))
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	defer store.Close()

	base := time.Date(2026, 2, 13, 10, 0, 0, 0, time.UTC)
	first := Run{
		ID:        uuid.New(),
		StartedAt: base,
		Duration:  1500 * time.Millisecond,
		Inputs:    []string{"a.man", "b.man"},
		ExitCode:  0,
		Warnings:  2,
		Artifacts: []Artifact{{Kind: "header", Path: "out/events.h"}, {Kind: "msgtable", Path: "out/msg.bin", Err: "permission denied"}},
	}
	second := Run{
		ID:        uuid.New(),
		StartedAt: base.Add(2 * time.Hour),
		Inputs:    []string{"a.man"},
		ExitCode:  2,
		Errors:    3,
	}
	if err := store.SaveRun(ctx, first); err != nil {
		t.Fatalf("save first run: %v", err)
	}
	if err := store.SaveRun(ctx, second); err != nil {
		t.Fatalf("save second run: %v", err)
	}

	got, err := store.LoadRuns(ctx, base.Add(time.Hour), 0)
	if err != nil {
		t.Fatalf("load runs: %v", err)
	}
	if len(got) != 1 || got[0].ID != second.ID || got[0].Errors != 3 {
		t.Fatalf("unexpected runs after since filter: %+v", got)
	}

	all, err := store.LoadRuns(ctx, time.Time{}, 0)
	if err != nil {
		t.Fatalf("load all runs: %v", err)
	}
	if len(all) != 2 || all[0].ID != first.ID {
		t.Fatalf("expected oldest first, got %+v", all)
	}
	if all[0].Duration != first.Duration || len(all[0].Inputs) != 2 {
		t.Fatalf("expected duration and inputs to roundtrip, got %+v", all[0])
	}
	if len(all[0].Artifacts) != 2 || all[0].Artifacts[1].Written() {
		t.Fatalf("expected failed artifact to roundtrip, got %+v", all[0].Artifacts)
	}
	if all[1].Inputs[0] != "a.man" || len(all[1].Artifacts) != 0 {
		t.Fatalf("unexpected second run: %+v", all[1])
	}
}

func TestStore_SaveRunReplacesArtifacts(t *testing.T) {
	ctx := context.Background()
	store, err := Open(filepath.Join(t.TempDir(), "history.db"))
	if err != nil {
		t.Fatal(err)
	}
	defer store.Close()

	run := Run{ID: uuid.New(), Artifacts: []Artifact{{Kind: "a", Path: "1"}, {Kind: "b", Path: "2"}}}
	if err := store.SaveRun(ctx, run); err != nil {
		t.Fatal(err)
	}
	run.Artifacts = run.Artifacts[:1]
	run.ExitCode = 1
	if err := store.SaveRun(ctx, run); err != nil {
		t.Fatal(err)
	}
	runs, err := store.LoadRuns(ctx, time.Time{}, 0)
	if err != nil {
		t.Fatal(err)
	}
	if len(runs) != 1 || runs[0].ExitCode != 1 || len(runs[0].Artifacts) != 1 {
		t.Fatalf("expected upserted run, got %+v", runs)
	}
}

func TestStore_LoadRunsLimitKeepsMostRecent(t *testing.T) {
	ctx := context.Background()
	store, err := Open(filepath.Join(t.TempDir(), "history.db"))
	if err != nil {
		t.Fatal(err)
	}
	defer store.Close()

	base := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)
	for i := range 5 {
		if err := store.SaveRun(ctx, Run{StartedAt: base.Add(time.Duration(i) * time.Minute), ExitCode: i}); err != nil {
			t.Fatal(err)
		}
	}
	runs, err := store.LoadRuns(ctx, time.Time{}, 2)
	if err != nil {
		t.Fatal(err)
	}
	if len(runs) != 2 || runs[0].ExitCode != 3 || runs[1].ExitCode != 4 {
		t.Fatalf("unexpected limited runs: %+v", runs)
	}
}

func TestStore_OpenRejectsDirectoryPath(t *testing.T) {
	_, err := Open(t.TempDir())
	if err == nil {
		t.Fatal("expected open error for directory path")
	}
	if !strings.Contains(err.Error(), "is a directory") {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestStore_OpenCorruptDBPath(t *testing.T) {
	path := filepath.Join(t.TempDir(), "history.db")
	if err := os.WriteFile(path, []byte("this is not sqlite"), 0o644); err != nil {
		t.Fatal(err)
	}
	_, err := Open(path)
	if err == nil {
		t.Fatal("expected sqlite open error")
	}
	lower := strings.ToLower(err.Error())
	if !strings.Contains(lower, "not a database") && !strings.Contains(lower, "schema") {
		t.Fatalf("expected schema/open error, got: %v", err)
	}
}

func TestEnsureSchema_DetectsNewerVersionDrift(t *testing.T) {
	path := filepath.Join(t.TempDir(), "history.db")
	store, err := Open(path)
	if err != nil {
		t.Fatal(err)
	}
	defer store.Close()

	if _, err := store.db.Exec(`INSERT OR REPLACE INTO schema_migrations(version) VALUES (?)`, SchemaVersion+1); err != nil {
		t.Fatal(err)
	}

	db, err := sql.Open(driverName, "file:"+path)
	if err != nil {
		t.Fatal(err)
	}
	defer db.Close()
	err = EnsureSchema(db)
	if err == nil {
		t.Fatal("expected drift error")
	}
	if !strings.Contains(err.Error(), "newer than supported") {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestSummarize(t *testing.T) {
	base := time.Date(2026, 2, 13, 10, 0, 0, 0, time.UTC)
	s := Summarize([]Run{
		{StartedAt: base, ExitCode: 0},
		{StartedAt: base.Add(time.Hour), ExitCode: 1, Artifacts: []Artifact{{Err: "x"}, {}}},
		{StartedAt: base.Add(30 * time.Minute), ExitCode: 2},
	})
	if s.Runs != 3 || s.Succeeded != 1 || s.Failed != 2 || s.ArtifactsFailed != 1 {
		t.Fatalf("unexpected summary: %+v", s)
	}
	if !s.LastRun.Equal(base.Add(time.Hour)) {
		t.Fatalf("unexpected last run: %v", s.LastRun)
	}
}

func TestIsCorruptError(t *testing.T) {
	if !IsCorruptError(errors.New("database disk image is malformed")) {
		t.Fatal("expected malformed sqlite message to be treated as corrupt")
	}
}
