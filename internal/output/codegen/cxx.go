package codegen

import (
	"fmt"
	"text/template"

	"evmc/internal/core/ports"
	"evmc/internal/manifest"
)

const cxxHeader = `// This file was generated by evmc. Do not edit.
#pragma once

#include <windows.h>
#include <evntprov.h>
#include <cstring>
#include <cwchar>

namespace {{.EtwNamespace}} {

struct ProviderHandle
{
    GUID const Id;
    REGHANDLE Handle = 0;
};

{{.NoInlineAttr}} ULONG Register(ProviderHandle& provider);
{{.NoInlineAttr}} ULONG Unregister(ProviderHandle& provider);

} // namespace {{.EtwNamespace}}

namespace {{.Namespace}} {
{{range $p := .Providers}}
extern {{$.EtwNamespace}}::ProviderHandle {{$p.Symbol}}Provider;

{{- range $p.Events}}

EXTERN_C __declspec(selectany) EVENT_DESCRIPTOR const {{.Symbol}}Desc = {{"{"}}{{.Descriptor}}{{"}"}};

{{$.InlineAttr}} ULONG {{$.Prefix}}{{.Symbol}}(
{{- range $i, $a := .Args}}{{if $i}}, {{end}}{{$a.Type}} {{$a.Name}}{{if isSized $a}}, ULONG {{$a.Name}}_size{{end}}{{end}})
{
{{- if .Args}}
    EVENT_DATA_DESCRIPTOR data[{{len .Args}}];
{{- range $i, $a := .Args}}
    EventDataDescCreate(&data[{{$i}}], {{$a.Data}}, {{$a.Length}});
{{- end}}
    return EventWrite({{$p.Symbol}}Provider.Handle, &{{.Symbol}}Desc, {{len .Args}}, data);
{{- else}}
    return EventWriteTransfer({{$p.Symbol}}Provider.Handle, &{{.Symbol}}Desc, nullptr, nullptr, 0, nullptr);
{{- end}}
}
{{- end}}
{{end}}
} // namespace {{.Namespace}}
`

const cxxSource = `// This file was generated by evmc. Do not edit.
#include "{{.BaseName}}.h"

namespace {{.EtwNamespace}} {

ULONG Register(ProviderHandle& provider)
{
    return EventRegister(&provider.Id, nullptr, nullptr, &provider.Handle);
}

ULONG Unregister(ProviderHandle& provider)
{
    ULONG result = EventUnregister(provider.Handle);
    provider.Handle = 0;
    return result;
}

} // namespace {{.EtwNamespace}}

namespace {{.Namespace}} {
{{range .Providers}}
{{$.EtwNamespace}}::ProviderHandle {{.Symbol}}Provider{ {{.GUIDInit}} };
{{- end}}

} // namespace {{.Namespace}}
`

var funcs = template.FuncMap{
	"isSized": func(a argView) bool { return a.Length == a.Name+"_size" },
}

var (
	cxxHeaderTemplate = template.Must(template.New("cxx.h").Funcs(funcs).Parse(cxxHeader))
	cxxSourceTemplate = template.Must(template.New("cxx.cpp").Funcs(funcs).Parse(cxxSource))
)

// CxxGenerator writes a C++ header with one inline write function per event
// and a source file holding the provider handles.
type CxxGenerator struct{}

func (CxxGenerator) Name() string { return "cxx" }

func (CxxGenerator) Description() string {
	return "C++ header and source with typed event write functions"
}

type cxxData struct {
	Namespace    string
	EtwNamespace string
	InlineAttr   string
	NoInlineAttr string
	Prefix       string
	BaseName     string
	Providers    []providerView
}

func (CxxGenerator) Generate(m *manifest.EventManifest, opts ports.CodegenOptions, out ports.CodeOutputs) error {
	data := cxxData{
		Namespace:    nonEmpty(opts.Namespace, "etw"),
		EtwNamespace: nonEmpty(opts.EtwNamespace, "etw_internal"),
		InlineAttr:   nonEmpty(opts.InlineAttr, "__forceinline"),
		NoInlineAttr: nonEmpty(opts.NoInlineAttr, "__declspec(noinline)"),
		BaseName:     nonEmpty(opts.BaseName, "events"),
		Providers:    buildProviders(m),
	}
	if opts.UsePrefix {
		data.Prefix = opts.LogCallPrefix
	}
	if err := cxxHeaderTemplate.Execute(out.Header, data); err != nil {
		return fmt.Errorf("header: %w", err)
	}
	if out.Source == nil {
		return nil
	}
	if err := cxxSourceTemplate.Execute(out.Source, data); err != nil {
		return fmt.Errorf("source: %w", err)
	}
	return nil
}

func nonEmpty(v, fallback string) string {
	if v == "" {
		return fallback
	}
	return v
}
