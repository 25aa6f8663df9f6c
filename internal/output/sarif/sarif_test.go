package sarif

import (
	"encoding/json"
	"path/filepath"
	"strings"
	"testing"

	"evmc/internal/diag"
)

func decode(t *testing.T, data []byte) sarifReport {
	t.Helper()
	var report sarifReport
	if err := json.Unmarshal(data, &report); err != nil {
		t.Fatalf("output is not valid JSON: %v", err)
	}
	return report
}

func TestGenerate_Empty(t *testing.T) {
	data, err := Generate("", nil)
	if err != nil {
		t.Fatalf("Generate returned error: %v", err)
	}
	report := decode(t, data)
	if report.Schema != sarifSchema {
		t.Errorf("$schema = %q, want %q", report.Schema, sarifSchema)
	}
	if report.Version != sarifVersion {
		t.Errorf("version = %q, want %q", report.Version, sarifVersion)
	}
	if len(report.Runs) != 1 {
		t.Fatalf("len(runs) = %d, want 1", len(report.Runs))
	}
	if len(report.Runs[0].Results) != 0 || len(report.Runs[0].Tool.Driver.Rules) != 0 {
		t.Errorf("expected no results and no rules, got %+v", report.Runs[0])
	}
}

func TestGenerate_ManifestErrorUsesRelativeURI(t *testing.T) {
	root := filepath.FromSlash("/project")
	diags := []diag.Diagnostic{{
		Severity: diag.Error,
		Location: diag.Location{File: filepath.Join(root, "manifests", "app.man"), Line: 42, Column: 5},
		Message:  "Unknown level 'Custom' referenced by event 'Start'.",
	}}
	data, err := Generate(root, diags)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	results := decode(t, data).Runs[0].Results
	if len(results) != 1 {
		t.Fatalf("expected 1 result, got %d", len(results))
	}
	r := results[0]
	if r.RuleID != ruleIDManifestError || r.Level != "error" {
		t.Errorf("ruleId/level = %q/%q, want %q/error", r.RuleID, r.Level, ruleIDManifestError)
	}
	if len(r.Locations) != 1 {
		t.Fatal("expected a location")
	}
	uri := r.Locations[0].PhysicalLocation.ArtifactLocation.URI
	if uri != "manifests/app.man" {
		t.Errorf("URI = %q, want manifests/app.man", uri)
	}
	region := r.Locations[0].PhysicalLocation.Region
	if region == nil || region.StartLine != 42 || region.StartColumn != 5 {
		t.Errorf("region = %+v, want 42:5", region)
	}
}

func TestGenerate_RulesFollowSeverities(t *testing.T) {
	diags := []diag.Diagnostic{
		{Severity: diag.Error, Message: "Failed to write header 'out/a.h': permission denied"},
		{Severity: diag.Note, Message: "Available generators: cxx, mc."},
		{Severity: diag.Warning, Location: diag.Location{File: "a.man", Line: 3}, Message: "String 'X' is missing from resources for culture 'de-DE'."},
		{Severity: diag.Ignored, Message: "dropped"},
	}
	data, err := Generate("", diags)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	run := decode(t, data).Runs[0]

	var got []string
	for _, r := range run.Results {
		got = append(got, r.RuleID+":"+r.Level)
	}
	want := "EVMC003:error EVMC004:note EVMC002:warning"
	if strings.Join(got, " ") != want {
		t.Errorf("results = %v, want %s", got, want)
	}
	if len(run.Results[0].Locations) != 0 {
		t.Error("compiler errors have no location")
	}

	var ids []string
	for _, rule := range run.Tool.Driver.Rules {
		ids = append(ids, rule.ID)
	}
	if strings.Join(ids, ",") != "EVMC002,EVMC003,EVMC004" {
		t.Errorf("rules = %v", ids)
	}
	if run.Tool.Driver.Name != "evmc" {
		t.Errorf("driver name = %q", run.Tool.Driver.Name)
	}
}
