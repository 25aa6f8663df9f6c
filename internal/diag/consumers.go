package diag

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"sync"

	"github.com/charmbracelet/lipgloss"
)

// Collector keeps every diagnostic in memory.
type Collector struct {
	mu    sync.Mutex
	items []Diagnostic
}

func (c *Collector) Consume(d Diagnostic) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.items = append(c.items, d)
}

func (c *Collector) Diagnostics() []Diagnostic {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]Diagnostic, len(c.items))
	copy(out, c.items)
	return out
}

// BySeverity returns the collected diagnostics of one severity in report order.
func (c *Collector) BySeverity(sev Severity) []Diagnostic {
	c.mu.Lock()
	defer c.mu.Unlock()
	var out []Diagnostic
	for _, d := range c.items {
		if d.Severity == sev {
			out = append(out, d)
		}
	}
	return out
}

var (
	errorStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#F87171")).
			Bold(true)

	warningStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#FBBF24")).
			Bold(true)

	noteStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#3B82F6"))

	locationStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#64748B"))
)

// ConsolePrinter writes diagnostics in the file(line,col): severity: message
// form. Colors are applied only when Color is set.
type ConsolePrinter struct {
	Out   io.Writer
	Color bool
}

func NewConsolePrinter(out io.Writer, color bool) *ConsolePrinter {
	return &ConsolePrinter{Out: out, Color: color}
}

func (p *ConsolePrinter) Consume(d Diagnostic) {
	if p.Out == nil {
		return
	}
	if !p.Color {
		fmt.Fprintln(p.Out, d.String())
		return
	}
	sev := d.Severity.String()
	switch d.Severity {
	case Error:
		sev = errorStyle.Render(sev)
	case Warning:
		sev = warningStyle.Render(sev)
	default:
		sev = noteStyle.Render(sev)
	}
	if d.Location.IsZero() {
		fmt.Fprintf(p.Out, "%s: %s\n", sev, d.Message)
		return
	}
	fmt.Fprintf(p.Out, "%s: %s: %s\n", locationStyle.Render(d.Location.String()), sev, d.Message)
}

// SlogSink bridges diagnostics into a structured logger, e.g. for build logs.
type SlogSink struct {
	Logger *slog.Logger
}

func (s SlogSink) Consume(d Diagnostic) {
	logger := s.Logger
	if logger == nil {
		logger = slog.Default()
	}
	level := slog.LevelInfo
	switch d.Severity {
	case Error:
		level = slog.LevelError
	case Warning:
		level = slog.LevelWarn
	case Note:
		level = slog.LevelDebug
	}
	attrs := []any{"severity", d.Severity.String()}
	if !d.Location.IsZero() {
		attrs = append(attrs, "file", d.Location.File, "line", d.Location.Line, "column", d.Location.Column)
	}
	logger.Log(context.Background(), level, d.Message, attrs...)
}

// Multi fans one diagnostic out to several consumers.
type Multi []Consumer

func (m Multi) Consume(d Diagnostic) {
	for _, c := range m {
		if c != nil {
			c.Consume(d)
		}
	}
}
