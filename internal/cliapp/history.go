package cliapp

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"evmc/internal/core/config"
	"evmc/internal/data/history"

	"github.com/spf13/cobra"
)

func newHistoryCommand(opts *globalOptions) *cobra.Command {
	var (
		since time.Duration
		limit int
	)
	cmd := &cobra.Command{
		Use:   "history",
		Short: "Show recent compile runs",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			configureLogging(cmd.ErrOrStderr(), opts.verbose)
			cfg, file, err := loadConfig(opts.configPath, cmd.Flags().Changed("config"))
			if err != nil {
				return fmt.Errorf("load config: %w", err)
			}
			config.ApplyEnvOverrides(cfg)
			baseDir, err := os.Getwd()
			if err != nil {
				return err
			}
			if file != "" {
				baseDir = filepath.Dir(file)
			}

			store, err := history.Open(config.ResolveRelative(baseDir, cfg.History.Path))
			if err != nil {
				return err
			}
			defer store.Close()

			var from time.Time
			if since > 0 {
				from = time.Now().Add(-since)
			}
			runs, err := store.LoadRuns(cmd.Context(), from, limit)
			if err != nil {
				return err
			}
			printRuns(cmd.OutOrStdout(), runs)
			return nil
		},
	}
	cmd.Flags().DurationVar(&since, "since", 0, "Only show runs started within this duration")
	cmd.Flags().IntVarP(&limit, "limit", "n", 20, "Maximum number of runs to show (0 for all)")
	return cmd
}

func printRuns(w io.Writer, runs []history.Run) {
	if len(runs) == 0 {
		fmt.Fprintln(w, "No compile runs recorded.")
		return
	}
	for _, r := range runs {
		fmt.Fprintf(w, "%s  %-10s  exit=%d errors=%d warnings=%d  %s\n",
			r.StartedAt.Local().Format(time.DateTime),
			r.Duration.Round(time.Millisecond),
			r.ExitCode, r.Errors, r.Warnings,
			strings.Join(baseNames(r.Inputs), ", "))
		for _, a := range r.Artifacts {
			if !a.Written() {
				fmt.Fprintf(w, "    failed %s %s: %s\n", a.Kind, a.Path, a.Err)
			}
		}
	}
	sum := history.Summarize(runs)
	fmt.Fprintf(w, "\n%d runs, %d succeeded, %d failed, %d artifacts failed\n",
		sum.Runs, sum.Succeeded, sum.Failed, sum.ArtifactsFailed)
}

func baseNames(paths []string) []string {
	out := make([]string, len(paths))
	for i, p := range paths {
		out[i] = filepath.Base(p)
	}
	return out
}
