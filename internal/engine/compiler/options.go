package compiler

import (
	"path/filepath"
	"strings"

	"evmc/internal/core/ports"
)

// CultureToken in the message-table path is replaced by each culture name.
const CultureToken = "$(Culture)"

type ExitCode int

const (
	Success   ExitCode = 0
	Error     ExitCode = 1
	UserError ExitCode = 2
)

func (c ExitCode) String() string {
	switch c {
	case Success:
		return "success"
	case Error:
		return "error"
	case UserError:
		return "user error"
	default:
		return "unknown"
	}
}

// Options configure one run. An empty artifact path skips that artifact.
type Options struct {
	Inputs []string
	// MergeInputs accepts several inputs and merges them. Without it
	// exactly one input is required.
	MergeInputs bool

	BaseName           string
	HeaderFile         string
	SourceFile         string
	MessageTableFile   string
	EventTemplateFile  string
	ResourceScriptFile string

	Generator string
	Codegen   ports.CodegenOptions
}

// messageTablePath names the message table of one culture. Without the
// culture token the primary set uses the pattern as is and the others get
// ".<culture>" before the extension.
func messageTablePath(pattern, culture string, primary bool) string {
	if strings.Contains(pattern, CultureToken) {
		return strings.ReplaceAll(pattern, CultureToken, culture)
	}
	if primary {
		return pattern
	}
	ext := filepath.Ext(pattern)
	return strings.TrimSuffix(pattern, ext) + "." + culture + ext
}

// relativeTo makes target relative to the directory of from when possible,
// as resource compilers resolve names against the script's directory.
func relativeTo(from, target string) string {
	rel, err := filepath.Rel(filepath.Dir(from), target)
	if err != nil {
		return target
	}
	return rel
}
