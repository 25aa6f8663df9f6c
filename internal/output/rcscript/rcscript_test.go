package rcscript

import (
	"bytes"
	"testing"

	"evmc/internal/locale"
)

func TestWrite_SortsByLanguage(t *testing.T) {
	tables := []MessageTable{
		{Culture: "en-GB", LangID: locale.LangID{Primary: 0x09, Sub: 0x02}, File: "app.en-GB.bin"},
		{Culture: "en-US", LangID: locale.LangID{Primary: 0x09, Sub: 0x01}, File: "app.bin"},
		{Culture: "de-DE", LangID: locale.LangID{Primary: 0x07, Sub: 0x01}, File: `out\app.de-DE.bin`},
	}
	var buf bytes.Buffer
	if err := Write(&buf, tables, "appTEMP.bin"); err != nil {
		t.Fatalf("write: %v", err)
	}

	want := "#pragma code_page(65001)\n" +
		"LANGUAGE 0x7,0x1\n" +
		"1 11 \"out\\\\app.de-DE.bin\"\n" +
		"LANGUAGE 0x9,0x1\n" +
		"1 11 \"app.bin\"\n" +
		"LANGUAGE 0x9,0x2\n" +
		"1 11 \"app.en-GB.bin\"\n" +
		"1 WEVT_TEMPLATE \"appTEMP.bin\"\n"
	if buf.String() != want {
		t.Errorf("unexpected script:\n%s\nwant:\n%s", buf.String(), want)
	}
}

func TestWrite_NoTemplate(t *testing.T) {
	var buf bytes.Buffer
	if err := Write(&buf, nil, ""); err != nil {
		t.Fatalf("write: %v", err)
	}
	if buf.String() != "#pragma code_page(65001)\n" {
		t.Errorf("unexpected script %q", buf.String())
	}
}
