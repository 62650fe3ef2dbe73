package main

import (
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/spf13/cobra"

	"audioextract/internal/config"
	"audioextract/internal/history"
	"audioextract/internal/manifest"
)

func newHistoryCommand(ctx *commandContext) *cobra.Command {
	var limit int
	var asJSON bool

	historyCmd := &cobra.Command{
		Use:   "history",
		Short: "List recent extraction runs",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withHistory(ctx, func(store *history.Store) error {
				runs, err := store.ListRuns(cmd.Context(), limit)
				if err != nil {
					return err
				}
				if asJSON {
					return writeJSON(cmd, runs)
				}
				if len(runs) == 0 {
					fmt.Fprintln(cmd.OutOrStdout(), "No runs recorded")
					return nil
				}
				fmt.Fprintln(cmd.OutOrStdout(), renderRuns(runs))
				return nil
			})
		},
	}
	historyCmd.Flags().IntVarP(&limit, "limit", "n", 20, "Number of runs to show (0 for all)")
	historyCmd.Flags().BoolVar(&asJSON, "json", false, "Print runs as JSON")

	historyCmd.AddCommand(newHistoryShowCommand(ctx))
	historyCmd.AddCommand(newHistoryRetryCommand(ctx))
	historyCmd.AddCommand(newHistoryPruneCommand(ctx))
	return historyCmd
}

func withHistory(ctx *commandContext, fn func(*history.Store) error) error {
	cfg, err := ctx.ensureConfig()
	if err != nil {
		return err
	}
	store, err := history.Open(cfg.Paths.HistoryDB)
	if err != nil {
		return fmt.Errorf("open history: %w", err)
	}
	defer store.Close()
	return fn(store)
}

func renderRuns(runs []history.Run) string {
	rows := make([][]string, 0, len(runs))
	for _, run := range runs {
		status := "done"
		switch {
		case run.InProgress():
			status = "incomplete"
		case run.Cancelled:
			status = "cancelled"
		}
		rows = append(rows, []string{
			shortID(run.ID),
			run.Started.Local().Format("2006-01-02 15:04"),
			strconv.Itoa(run.RequestedTrack),
			strconv.Itoa(run.Total),
			strconv.Itoa(run.OK),
			strconv.Itoa(run.Failed),
			status,
		})
	}
	return renderTable(
		[]string{"Run", "Started", "Track", "Files", "OK", "Failed", "Status"},
		rows,
		[]columnAlignment{alignLeft, alignLeft, alignRight, alignRight, alignRight, alignRight, alignLeft},
	)
}

func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}

func newHistoryShowCommand(ctx *commandContext) *cobra.Command {
	var asJSON bool
	cmd := &cobra.Command{
		Use:   "show <run>",
		Short: "Show the per-file outcomes of a run (id or unique prefix)",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withHistory(ctx, func(store *history.Store) error {
				run, err := store.FindRun(cmd.Context(), args[0])
				if err != nil {
					return err
				}
				results, err := store.Results(cmd.Context(), run.ID)
				if err != nil {
					return err
				}
				if asJSON {
					return writeJSON(cmd, struct {
						Run     history.Run
						Results []history.FileResult
					}{run, results})
				}

				out := cmd.OutOrStdout()
				fmt.Fprintf(out, "Run %s started %s\n", run.ID, run.Started.Local().Format(time.RFC1123))
				fmt.Fprintf(out, "Requested track #%d, %d ok, %d failed, cancelled: %s\n",
					run.RequestedTrack, run.OK, run.Failed, yesNo(run.Cancelled))
				if run.SessionLog != "" {
					fmt.Fprintf(out, "Session log: %s\n", run.SessionLog)
				}
				rows := make([][]string, 0, len(results))
				for _, r := range results {
					detail := r.Artifact
					if r.Status != history.StatusSucceeded {
						detail = r.Reason
					}
					rows = append(rows, []string{strconv.Itoa(r.Index + 1), r.DisplayName, r.Status, dash(r.Codec), detail})
				}
				fmt.Fprintln(out, renderTable(
					[]string{"#", "Input", "Status", "Codec", "Output / Reason"},
					rows,
					[]columnAlignment{alignRight},
				))
				return nil
			})
		},
	}
	cmd.Flags().BoolVar(&asJSON, "json", false, "Print the run as JSON")
	return cmd
}

func newHistoryRetryCommand(ctx *commandContext) *cobra.Command {
	var outPath string
	cmd := &cobra.Command{
		Use:   "retry <run>",
		Short: "Write a manifest with the failed inputs of a run",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if outPath == "" {
				return errors.New("--out is required")
			}
			target, err := config.ExpandPath(outPath)
			if err != nil {
				return err
			}
			return withHistory(ctx, func(store *history.Store) error {
				run, err := store.FindRun(cmd.Context(), args[0])
				if err != nil {
					return err
				}
				results, err := store.Results(cmd.Context(), run.ID)
				if err != nil {
					return err
				}
				var failed []string
				for _, r := range results {
					if r.Status != history.StatusSucceeded {
						failed = append(failed, r.Input)
					}
				}
				if len(failed) == 0 {
					fmt.Fprintln(cmd.OutOrStdout(), "No failed inputs in this run")
					return nil
				}
				track := run.RequestedTrack
				if err := manifest.Save(&manifest.Manifest{Track: &track, Inputs: failed}, target); err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Wrote %d input(s) to %s\nRun: audioextract extract --manifest %s\n", len(failed), target, target)
				return nil
			})
		},
	}
	cmd.Flags().StringVarP(&outPath, "out", "o", "", "Manifest file to write")
	return cmd
}

func newHistoryPruneCommand(ctx *commandContext) *cobra.Command {
	var olderThan time.Duration
	cmd := &cobra.Command{
		Use:   "prune",
		Short: "Delete runs older than --older-than",
		RunE: func(cmd *cobra.Command, args []string) error {
			if olderThan <= 0 {
				return errors.New("--older-than must be positive")
			}
			return withHistory(ctx, func(store *history.Store) error {
				removed, err := store.Prune(cmd.Context(), time.Now().Add(-olderThan))
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Removed %d run(s)\n", removed)
				return nil
			})
		},
	}
	cmd.Flags().DurationVar(&olderThan, "older-than", 30*24*time.Hour, "Age threshold")
	return cmd
}
