package cliapp

import (
	"fmt"
	"io"

	"evmc/internal/core/config"
	"evmc/internal/output/codegen"
	"evmc/internal/shared/version"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
)

// globalOptions are the persistent flags shared by every command.
type globalOptions struct {
	configPath string
	verbose    bool
	noColor    bool
	logFormat  string
}

// compileFlags override the matching config fields when set.
type compileFlags struct {
	merge            bool
	generator        string
	outputDir        string
	baseName         string
	schema           string
	warningsAsErrors bool
	history          bool
	sarif            string
}

// StatusError carries a process exit code out of a command.
type StatusError struct {
	Status     string
	StatusCode int
}

func (e StatusError) Error() string {
	return fmt.Sprintf("Status: %s, Code: %d", e.Status, e.StatusCode)
}

func newRootCommand(stdout, stderr io.Writer) *cobra.Command {
	opts := &globalOptions{}
	root := &cobra.Command{
		Use:           "evmc",
		Short:         "Compile event manifests into message tables, templates and headers",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.SetOut(stdout)
	root.SetErr(stderr)

	flags := root.PersistentFlags()
	flags.StringVarP(&opts.configPath, "config", "c", config.DefaultFile, "Path to config file")
	flags.BoolVarP(&opts.verbose, "verbose", "v", false, "Enable verbose logging")
	flags.BoolVar(&opts.noColor, "no-color", false, "Disable colored diagnostics")
	flags.StringVar(&opts.logFormat, "diagnostics", "text", "Diagnostics format: text or log")

	root.AddCommand(
		newCompileCommand(opts),
		newValidateCommand(opts),
		newWatchCommand(opts),
		newGeneratorsCommand(),
		newHistoryCommand(opts),
		newVersionCommand(),
	)
	return root
}

func addCompileFlags(flags *pflag.FlagSet, cf *compileFlags) {
	flags.BoolVar(&cf.merge, "merge", false, "Merge several input manifests into one")
	flags.StringVarP(&cf.generator, "generator", "g", "", "Code generator (see 'evmc generators')")
	flags.StringVarP(&cf.outputDir, "output-dir", "o", "", "Directory for generated files")
	flags.StringVar(&cf.baseName, "base-name", "", "Base name of generated files")
	flags.StringVar(&cf.schema, "schema", "", "XSD schema each input is validated against")
	flags.BoolVar(&cf.warningsAsErrors, "warnings-as-errors", false, "Treat warnings as errors")
	flags.BoolVar(&cf.history, "history", false, "Record the run in the compile history")
	flags.StringVar(&cf.sarif, "sarif", "", "Write diagnostics as a SARIF log to this file")
}

func newCompileCommand(opts *globalOptions) *cobra.Command {
	cf := &compileFlags{}
	cmd := &cobra.Command{
		Use:   "compile [MANIFEST]...",
		Short: "Compile manifests and write all artifacts",
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := newSession(cmd, opts, cf, args)
			if err != nil {
				return err
			}
			defer s.close()
			return s.status(s.compile(cmd.Context(), false))
		},
	}
	addCompileFlags(cmd.Flags(), cf)
	return cmd
}

func newValidateCommand(opts *globalOptions) *cobra.Command {
	cf := &compileFlags{}
	cmd := &cobra.Command{
		Use:   "validate [MANIFEST]...",
		Short: "Check manifests without writing any files",
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := newSession(cmd, opts, cf, args)
			if err != nil {
				return err
			}
			defer s.close()
			return s.status(s.compile(cmd.Context(), true))
		},
	}
	addCompileFlags(cmd.Flags(), cf)
	return cmd
}

func newWatchCommand(opts *globalOptions) *cobra.Command {
	cf := &compileFlags{}
	cmd := &cobra.Command{
		Use:   "watch [MANIFEST]...",
		Short: "Recompile whenever an input or the config file changes",
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := newSession(cmd, opts, cf, args)
			if err != nil {
				return err
			}
			defer s.close()
			return s.watch(cmd.Context())
		},
	}
	addCompileFlags(cmd.Flags(), cf)
	return cmd
}

func newGeneratorsCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "generators",
		Short: "List the available code generators",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			registry := codegen.DefaultRegistry()
			for _, name := range registry.Names() {
				g, _ := registry.Lookup(name)
				fmt.Fprintf(cmd.OutOrStdout(), "%-8s %s\n", name, g.Description())
			}
			return nil
		},
	}
}

func newVersionCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the version",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "evmc v%s\n", version.Version)
		},
	}
}
