package diag

import (
	"bytes"
	"strings"
	"testing"
)

func TestEngine_CountsOnlyErrors(t *testing.T) {
	var c Collector
	e := NewEngine(&c)

	e.Warnf(Location{}, "careful")
	e.Notef(Location{}, "fyi")
	if e.ErrorCount() != 0 {
		t.Fatalf("expected 0 errors, got %d", e.ErrorCount())
	}

	e.Errorf(Location{File: "a.man", Line: 3, Column: 5}, "bad value %d", 7)
	if e.ErrorCount() != 1 {
		t.Fatalf("expected 1 error, got %d", e.ErrorCount())
	}
	if e.Count(Warning) != 1 || e.Count(Note) != 1 {
		t.Errorf("unexpected counts: warnings=%d notes=%d", e.Count(Warning), e.Count(Note))
	}

	got := c.Diagnostics()
	if len(got) != 3 {
		t.Fatalf("expected 3 diagnostics, got %d", len(got))
	}
	if got[2].Message != "bad value 7" {
		t.Errorf("expected eager formatting, got %q", got[2].Message)
	}
	if got[2].String() != "a.man(3,5): error: bad value 7" {
		t.Errorf("unexpected rendering %q", got[2].String())
	}
}

func TestEngine_IgnoredIsNotForwarded(t *testing.T) {
	var c Collector
	e := NewEngine(&c)
	e.Report(Ignored, Location{}, "hidden")
	if len(c.Diagnostics()) != 0 {
		t.Error("expected ignored diagnostic to be dropped")
	}
}

func TestEngine_MessageWithoutArgsIsVerbatim(t *testing.T) {
	var c Collector
	e := NewEngine(&c)
	e.Report(Error, Location{}, "100% broken")
	if c.Diagnostics()[0].Message != "100% broken" {
		t.Errorf("got %q", c.Diagnostics()[0].Message)
	}
}

func TestEngine_WarningsAsErrors(t *testing.T) {
	e := NewEngine(nil)
	e.SetWarningsAsErrors(true)
	e.Warnf(Location{}, "missing translation")
	if e.ErrorCount() != 1 {
		t.Errorf("expected warning promoted to error, got %d errors", e.ErrorCount())
	}
}

func TestErrorTrap(t *testing.T) {
	e := NewEngine(nil)
	e.Errorf(Location{}, "before")

	trap := e.Trap()
	if trap.ErrorOccurred() {
		t.Fatal("trap must not see errors reported before it was taken")
	}
	e.Warnf(Location{}, "only a warning")
	if trap.ErrorOccurred() {
		t.Fatal("warnings must not trip the trap")
	}
	e.Errorf(Location{}, "after")
	e.Errorf(Location{}, "after again")
	if !trap.ErrorOccurred() || trap.NewErrors() != 2 {
		t.Errorf("expected 2 new errors, got %d", trap.NewErrors())
	}

	var zero ErrorTrap
	if zero.ErrorOccurred() {
		t.Error("zero trap must report no errors")
	}
}

func TestConsolePrinter_Plain(t *testing.T) {
	var buf bytes.Buffer
	e := NewEngine(NewConsolePrinter(&buf, false))
	e.Errorf(Location{}, "no input files")
	e.Warnf(Location{File: "x.man", Line: 2}, "missing string")

	out := buf.String()
	if !strings.Contains(out, "error: no input files\n") {
		t.Errorf("unexpected output %q", out)
	}
	if !strings.Contains(out, "x.man(2): warning: missing string\n") {
		t.Errorf("unexpected output %q", out)
	}
}

func TestMulti(t *testing.T) {
	var a, b Collector
	e := NewEngine(Multi{&a, nil, &b})
	e.Infof(Location{}, "hello")
	if len(a.Diagnostics()) != 1 || len(b.Diagnostics()) != 1 {
		t.Error("expected diagnostic delivered to both consumers")
	}
}
