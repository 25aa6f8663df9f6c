package codegen

import (
	"text/template"

	"evmc/internal/core/ports"
	"evmc/internal/manifest"
)

const mcHeader = `//**********************************************************************
//* This file was generated by evmc. Do not edit.
//**********************************************************************
#pragma once

#include <wmistr.h>
#include <evntrace.h>
#include <evntprov.h>
{{range .Providers}}
//+
// Provider {{.Name}}
//+
EXTERN_C __declspec(selectany) const GUID {{.Symbol}} = {{.GUIDInit}};
{{- if .Channels}}

// Channels
{{- range .Channels}}
#define {{.Symbol}} {{.Value}}
{{- end}}
{{- end}}
{{- if .Levels}}

// Levels
{{- range .Levels}}
#define {{.Symbol}} {{.Value}}
{{- end}}
{{- end}}
{{- if .Opcodes}}

// Opcodes
{{- range .Opcodes}}
#define {{.Symbol}} {{.Value}}
{{- end}}
{{- end}}
{{- if .Tasks}}

// Tasks
{{- range .Tasks}}
#define {{.Symbol}} {{.Value}}
{{- end}}
{{- end}}
{{- if .Keywords}}

// Keywords
{{- range .Keywords}}
#define {{.Symbol}} {{.Value}}
{{- end}}
{{- end}}
{{- if .Events}}

// Event Descriptors
{{- range .Events}}
EXTERN_C __declspec(selectany) const EVENT_DESCRIPTOR {{.Symbol}} = {{"{"}}{{.Descriptor}}{{"}"}};
#define {{.Symbol}}_value 0x{{printf "%x" .Value}}
{{- end}}
{{- end}}
{{- if .Messages}}

// Message Identifiers
{{- range .Messages}}
#define {{.Symbol}} {{.Value}}
{{- end}}
{{- end}}
{{end}}`

var mcTemplate = template.Must(template.New("mc").Parse(mcHeader))

// MCGenerator writes a C header with the constants mc.exe -um would produce.
type MCGenerator struct{}

func (MCGenerator) Name() string { return "mc" }

func (MCGenerator) Description() string {
	return "C header with GUIDs, event descriptors and message identifiers"
}

func (MCGenerator) Generate(m *manifest.EventManifest, _ ports.CodegenOptions, out ports.CodeOutputs) error {
	return mcTemplate.Execute(out.Header, struct{ Providers []providerView }{buildProviders(m)})
}
