// Package sarif exports compiler diagnostics as a SARIF v2.1.0 log for code
// scanning integrations.
package sarif

import (
	"encoding/json"
	"path/filepath"

	"evmc/internal/diag"
	"evmc/internal/shared/version"
)

const (
	sarifSchema  = "https://schemastore.azurewebsites.net/schemas/json/sarif-2.1.0-rtm.5.json"
	sarifVersion = "2.1.0"

	ruleIDManifestError   = "EVMC001"
	ruleIDManifestWarning = "EVMC002"
	ruleIDCompilerError   = "EVMC003"
	ruleIDNote            = "EVMC004"
)

type sarifReport struct {
	Schema  string     `json:"$schema"`
	Version string     `json:"version"`
	Runs    []sarifRun `json:"runs"`
}

type sarifRun struct {
	Tool    sarifTool     `json:"tool"`
	Results []sarifResult `json:"results"`
}

type sarifTool struct {
	Driver sarifDriver `json:"driver"`
}

type sarifDriver struct {
	Name    string      `json:"name"`
	Version string      `json:"version"`
	Rules   []sarifRule `json:"rules"`
}

type sarifRule struct {
	ID               string                 `json:"id"`
	Name             string                 `json:"name"`
	ShortDescription sarifMessage           `json:"shortDescription"`
	DefaultConfig    sarifRuleDefaultConfig `json:"defaultConfiguration"`
}

type sarifRuleDefaultConfig struct {
	Level string `json:"level"`
}

type sarifResult struct {
	RuleID    string          `json:"ruleId"`
	Level     string          `json:"level"`
	Message   sarifMessage    `json:"message"`
	Locations []sarifLocation `json:"locations,omitempty"`
}

type sarifMessage struct {
	Text string `json:"text"`
}

type sarifLocation struct {
	PhysicalLocation sarifPhysicalLocation `json:"physicalLocation"`
}

type sarifPhysicalLocation struct {
	ArtifactLocation sarifArtifactLocation `json:"artifactLocation"`
	Region           *sarifRegion          `json:"region,omitempty"`
}

type sarifArtifactLocation struct {
	URI       string `json:"uri"`
	URIBaseID string `json:"uriBaseId"`
}

type sarifRegion struct {
	StartLine   int `json:"startLine,omitempty"`
	StartColumn int `json:"startColumn,omitempty"`
}

var rules = map[string]sarifRule{
	ruleIDManifestError: {
		ID:               ruleIDManifestError,
		Name:             "ManifestError",
		ShortDescription: sarifMessage{Text: "The manifest violates a compiler rule."},
		DefaultConfig:    sarifRuleDefaultConfig{Level: "error"},
	},
	ruleIDManifestWarning: {
		ID:               ruleIDManifestWarning,
		Name:             "ManifestWarning",
		ShortDescription: sarifMessage{Text: "The manifest compiles but likely contains a mistake."},
		DefaultConfig:    sarifRuleDefaultConfig{Level: "warning"},
	},
	ruleIDCompilerError: {
		ID:               ruleIDCompilerError,
		Name:             "CompilerError",
		ShortDescription: sarifMessage{Text: "The compiler could not read an input or write an artifact."},
		DefaultConfig:    sarifRuleDefaultConfig{Level: "error"},
	},
	ruleIDNote: {
		ID:               ruleIDNote,
		Name:             "Note",
		ShortDescription: sarifMessage{Text: "Additional information about another result."},
		DefaultConfig:    sarifRuleDefaultConfig{Level: "note"},
	},
}

// ruleOrder fixes the order of the rules array.
var ruleOrder = []string{ruleIDManifestError, ruleIDManifestWarning, ruleIDCompilerError, ruleIDNote}

// Generate builds a SARIF document from diagnostics. File URIs are made
// relative to projectRoot so that reports are safe to share. Ignored
// diagnostics are dropped.
func Generate(projectRoot string, diagnostics []diag.Diagnostic) ([]byte, error) {
	used := make(map[string]bool)
	results := make([]sarifResult, 0, len(diagnostics))
	for _, d := range diagnostics {
		if d.Severity == diag.Ignored {
			continue
		}
		ruleID := ruleFor(d)
		used[ruleID] = true
		result := sarifResult{
			RuleID:  ruleID,
			Level:   levelFor(d.Severity),
			Message: sarifMessage{Text: d.Message},
		}
		if d.Location.File != "" {
			loc := sarifLocation{
				PhysicalLocation: sarifPhysicalLocation{
					ArtifactLocation: sarifArtifactLocation{
						URI:       relativeURI(projectRoot, d.Location.File),
						URIBaseID: "%SRCROOT%",
					},
				},
			}
			if d.Location.Line > 0 {
				loc.PhysicalLocation.Region = &sarifRegion{
					StartLine:   d.Location.Line,
					StartColumn: d.Location.Column,
				}
			}
			result.Locations = []sarifLocation{loc}
		}
		results = append(results, result)
	}

	driverRules := make([]sarifRule, 0, len(used))
	for _, id := range ruleOrder {
		if used[id] {
			driverRules = append(driverRules, rules[id])
		}
	}

	report := sarifReport{
		Schema:  sarifSchema,
		Version: sarifVersion,
		Runs: []sarifRun{
			{
				Tool: sarifTool{
					Driver: sarifDriver{
						Name:    "evmc",
						Version: version.Version,
						Rules:   driverRules,
					},
				},
				Results: results,
			},
		},
	}
	return json.MarshalIndent(report, "", "  ")
}

// ruleFor separates findings in a manifest, which carry a location, from
// failures of the compiler itself.
func ruleFor(d diag.Diagnostic) string {
	switch d.Severity {
	case diag.Error:
		if d.Location.IsZero() {
			return ruleIDCompilerError
		}
		return ruleIDManifestError
	case diag.Warning:
		return ruleIDManifestWarning
	default:
		return ruleIDNote
	}
}

func levelFor(sev diag.Severity) string {
	switch sev {
	case diag.Error:
		return "error"
	case diag.Warning:
		return "warning"
	default:
		return "note"
	}
}

// relativeURI converts an absolute file path to a forward-slash relative URI
// anchored at projectRoot.
func relativeURI(projectRoot, filePath string) string {
	if projectRoot != "" && filepath.IsAbs(filePath) {
		rel, err := filepath.Rel(projectRoot, filePath)
		if err == nil {
			filePath = rel
		}
	}
	return filepath.ToSlash(filePath)
}
