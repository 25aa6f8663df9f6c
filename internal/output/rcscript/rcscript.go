// Package rcscript writes the resource script that binds message tables and
// the event template into a binary.
package rcscript

import (
	"bufio"
	"fmt"
	"io"
	"sort"
	"strings"

	"evmc/internal/locale"
)

// MessageTable names the message-table file of one culture.
type MessageTable struct {
	Culture string
	LangID  locale.LangID
	File    string
}

// Write emits one LANGUAGE statement per message table, sorted by primary
// then sub language id, followed by the event template statement. An empty
// templateFile omits the template statement.
func Write(w io.Writer, tables []MessageTable, templateFile string) error {
	sorted := make([]MessageTable, len(tables))
	copy(sorted, tables)
	sort.SliceStable(sorted, func(i, j int) bool { return sorted[i].LangID.Less(sorted[j].LangID) })

	bw := bufio.NewWriter(w)
	fmt.Fprintln(bw, "#pragma code_page(65001)")
	for _, t := range sorted {
		fmt.Fprintf(bw, "LANGUAGE 0x%X,0x%X\n", t.LangID.Primary, t.LangID.Sub)
		fmt.Fprintf(bw, "1 11 %s\n", quote(t.File))
	}
	if templateFile != "" {
		fmt.Fprintf(bw, "1 WEVT_TEMPLATE %s\n", quote(templateFile))
	}
	return bw.Flush()
}

// quote escapes a path for a resource-script string literal.
func quote(path string) string {
	return `"` + strings.ReplaceAll(strings.ReplaceAll(path, `\`, `\\`), `"`, `""`) + `"`
}
