package history

import (
	"time"

	"github.com/google/uuid"
)

const SchemaVersion = 1

// Run is the record of one compiler invocation.
type Run struct {
	ID        uuid.UUID
	StartedAt time.Time
	Duration  time.Duration
	Inputs    []string
	ExitCode  int
	Errors    int
	Warnings  int
	Artifacts []Artifact
}

// Artifact is one output the run tried to produce. Err is empty when the
// file was written.
type Artifact struct {
	Kind string
	Path string
	Err  string
}

func (a Artifact) Written() bool { return a.Err == "" }

// Summary aggregates a window of runs.
type Summary struct {
	Runs            int
	Succeeded       int
	Failed          int
	ArtifactsFailed int
	LastRun         time.Time
}

func Summarize(runs []Run) Summary {
	var s Summary
	for _, r := range runs {
		s.Runs++
		if r.ExitCode == 0 {
			s.Succeeded++
		} else {
			s.Failed++
		}
		for _, a := range r.Artifacts {
			if !a.Written() {
				s.ArtifactsFailed++
			}
		}
		if r.StartedAt.After(s.LastRun) {
			s.LastRun = r.StartedAt
		}
	}
	return s
}
