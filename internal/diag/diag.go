// Package diag is the diagnostics sink shared by every compiler phase.
//
// Diagnostics are formatted eagerly, counted by severity and forwarded to a
// pluggable Consumer. Control flow between phases never relies on panics:
// callers take an ErrorTrap before a phase and ask it afterwards whether the
// phase reported any error.
package diag

import (
	"fmt"
	"strconv"
	"strings"
)

type Severity int

const (
	Ignored Severity = iota
	Note
	Info
	Warning
	Error
)

func (s Severity) String() string {
	switch s {
	case Ignored:
		return "ignored"
	case Note:
		return "note"
	case Info:
		return "info"
	case Warning:
		return "warning"
	case Error:
		return "error"
	default:
		return "severity(" + strconv.Itoa(int(s)) + ")"
	}
}

// Location points into a source document. The zero value means "no location".
type Location struct {
	File   string
	Line   int
	Column int
}

func (l Location) IsZero() bool {
	return l.File == "" && l.Line == 0 && l.Column == 0
}

// String renders the location in the canonical build-tool form file(line,col).
func (l Location) String() string {
	if l.IsZero() {
		return ""
	}
	var b strings.Builder
	b.WriteString(l.File)
	if l.Line > 0 {
		b.WriteString("(")
		b.WriteString(strconv.Itoa(l.Line))
		if l.Column > 0 {
			b.WriteString(",")
			b.WriteString(strconv.Itoa(l.Column))
		}
		b.WriteString(")")
	}
	return b.String()
}

type Diagnostic struct {
	Severity Severity
	Location Location
	Message  string
}

func (d Diagnostic) String() string {
	if d.Location.IsZero() {
		return fmt.Sprintf("%s: %s", d.Severity, d.Message)
	}
	return fmt.Sprintf("%s: %s: %s", d.Location, d.Severity, d.Message)
}

// Consumer receives every diagnostic that is not Ignored.
type Consumer interface {
	Consume(d Diagnostic)
}

type ConsumerFunc func(d Diagnostic)

func (f ConsumerFunc) Consume(d Diagnostic) { f(d) }

// Reporter is the write side of the engine, accepted by every component
// that reports diagnostics.
type Reporter interface {
	Report(sev Severity, loc Location, format string, args ...any)
}

type Engine struct {
	consumer         Consumer
	counts           [Error + 1]int
	warningsAsErrors bool
}

func NewEngine(consumer Consumer) *Engine {
	return &Engine{consumer: consumer}
}

// SetWarningsAsErrors promotes every later Warning to Error.
func (e *Engine) SetWarningsAsErrors(enabled bool) {
	e.warningsAsErrors = enabled
}

func (e *Engine) SetConsumer(consumer Consumer) {
	e.consumer = consumer
}

// Report formats and forwards one diagnostic. With no args the message is
// used verbatim so that user text containing '%' survives.
func (e *Engine) Report(sev Severity, loc Location, format string, args ...any) {
	if sev == Warning && e.warningsAsErrors {
		sev = Error
	}
	msg := format
	if len(args) > 0 {
		msg = fmt.Sprintf(format, args...)
	}
	if sev >= Ignored && sev <= Error {
		e.counts[sev]++
	}
	if sev == Ignored || e.consumer == nil {
		return
	}
	e.consumer.Consume(Diagnostic{Severity: sev, Location: loc, Message: msg})
}

func (e *Engine) Errorf(loc Location, format string, args ...any) {
	e.Report(Error, loc, format, args...)
}

func (e *Engine) Warnf(loc Location, format string, args ...any) {
	e.Report(Warning, loc, format, args...)
}

func (e *Engine) Notef(loc Location, format string, args ...any) {
	e.Report(Note, loc, format, args...)
}

func (e *Engine) Infof(loc Location, format string, args ...any) {
	e.Report(Info, loc, format, args...)
}

func (e *Engine) ErrorCount() int {
	return e.counts[Error]
}

func (e *Engine) Count(sev Severity) int {
	if sev < Ignored || sev > Error {
		return 0
	}
	return e.counts[sev]
}

// Trap snapshots the current error count.
func (e *Engine) Trap() ErrorTrap {
	return ErrorTrap{engine: e, snapshot: e.ErrorCount()}
}

// ErrorTrap answers whether any error was reported since it was taken.
type ErrorTrap struct {
	engine   *Engine
	snapshot int
}

func (t ErrorTrap) ErrorOccurred() bool {
	return t.NewErrors() > 0
}

func (t ErrorTrap) NewErrors() int {
	if t.engine == nil {
		return 0
	}
	return t.engine.ErrorCount() - t.snapshot
}
