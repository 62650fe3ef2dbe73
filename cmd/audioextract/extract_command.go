package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"audioextract/internal/config"
	"audioextract/internal/destination"
	"audioextract/internal/extract"
	"audioextract/internal/history"
	"audioextract/internal/inputs"
	"audioextract/internal/logging"
	"audioextract/internal/manifest"
	"audioextract/internal/notifications"
	"audioextract/internal/preflight"
	"audioextract/internal/prober"
	"audioextract/internal/staging"
	"audioextract/internal/transcode"
)

type extractOptions struct {
	track        int
	manifestPath string
	template     string
	destRoot     string
	subfolder    string
	noNotify     bool
	skipChecks   bool
}

func newExtractCommand(ctx *commandContext) *cobra.Command {
	var opts extractOptions

	cmd := &cobra.Command{
		Use:   "extract [inputs...]",
		Short: "Extract one audio track from each input",
		Long: `Copies one audio track out of every input without re-encoding.

Inputs are local paths, file:// URLs or http(s) URLs. Inputs listed in a
--manifest file are processed after those given on the command line. The
output container follows the track's codec (aac -> .m4a, opus -> .opus, ...)
and files are never overwritten.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			var explicit *int
			if cmd.Flags().Changed("track") {
				if opts.track < 0 {
					return fmt.Errorf("--track must be >= 0, got %d", opts.track)
				}
				explicit = &opts.track
			}
			return runExtract(cmd, ctx, opts, args, explicit)
		},
	}

	cmd.Flags().IntVarP(&opts.track, "track", "t", 0, "Audio track index (0-based among audio tracks)")
	cmd.Flags().StringVarP(&opts.manifestPath, "manifest", "m", "", "YAML manifest with additional inputs")
	cmd.Flags().StringVar(&opts.template, "template", "", "Override naming.template")
	cmd.Flags().StringVar(&opts.destRoot, "dest", "", "Write under this directory instead of destination.root")
	cmd.Flags().StringVar(&opts.subfolder, "subfolder", "", "Override destination.subfolder")
	cmd.Flags().BoolVar(&opts.noNotify, "no-notify", false, "Disable notifications for this run")
	cmd.Flags().BoolVar(&opts.skipChecks, "skip-checks", false, "Skip the ffmpeg/ffprobe and directory checks")
	return cmd
}

func runExtract(cmd *cobra.Command, ctx *commandContext, opts extractOptions, args []string, explicit *int) error {
	cfg, err := ctx.ensureConfig()
	if err != nil {
		return err
	}
	applyExtractOverrides(cfg, opts)
	if err := cfg.Validate(); err != nil {
		return err
	}

	refs := absoluteRefs(inputs.Refs(args))
	explicitSource := "flag"
	if opts.manifestPath != "" {
		path, err := config.ExpandPath(opts.manifestPath)
		if err != nil {
			return err
		}
		m, err := manifest.Load(path)
		if err != nil {
			return err
		}
		refs = append(refs, m.Refs()...)
		if explicit == nil && m.Track != nil {
			explicit = m.Track
			explicitSource = "manifest"
		}
	}
	if len(refs) == 0 {
		return errors.New("no inputs given (pass paths or --manifest)")
	}

	logger, err := ctx.ensureLogger()
	if err != nil {
		return err
	}
	runCtx := cmd.Context()
	if runCtx == nil {
		runCtx = context.Background()
	}

	if !opts.skipChecks {
		if summary := preflight.Summarize(preflight.RunAll(runCtx, cfg)); summary != "" {
			return fmt.Errorf("preflight failed: %s (run `audioextract doctor` for details)", summary)
		}
	}
	runMaintenance(runCtx, cfg, logger)

	store, err := history.Open(cfg.Paths.HistoryDB)
	if err != nil {
		logging.WarnWithContext(logger, "history unavailable", "history_open_failed",
			logging.Error(err),
			logging.String(logging.FieldErrorHint, "check paths.history_db"),
			logging.String(logging.FieldImpact, "this run is not recorded and track preferences are ignored"),
		)
		store = nil
	} else {
		defer store.Close()
	}

	probe := prober.New(prober.Options{
		FFprobe: cfg.FFprobeBinary(),
		Timeout: cfg.ProbeTimeout(),
		Logger:  logger,
	})

	resolver := trackResolver{
		mode:        cfg.Tracks.Mode,
		stagingDir:  cfg.Paths.StagingDir,
		store:       store,
		prober:      probe,
		prompter:    defaultPrompter,
		interactive: interactive(cmd.InOrStdin(), cmd.OutOrStdout()),
		logger:      logger,
	}
	choice, err := resolver.resolve(runCtx, refs, explicit, explicitSource)
	if err != nil {
		return err
	}

	runID := uuid.NewString()
	policy := destination.PolicyFromConfig(cfg)
	writer := destination.New(policy, logger)

	var observers extract.MultiObserver
	if store != nil {
		if err := store.BeginRun(runCtx, history.Run{ID: runID, Started: time.Now(), RequestedTrack: choice.Index, Total: len(refs)}); err != nil {
			logging.WarnWithContext(logger, "history write failed", "history_write_failed", logging.Error(err))
		} else {
			observers = append(observers, &historyObserver{
				ctx:    context.WithoutCancel(runCtx),
				store:  store,
				runID:  runID,
				total:  len(refs),
				logger: logger,
			})
		}
	}
	var notifier *notifications.Observer
	if svc := notifications.NewService(cfg); !opts.noNotify && notifications.Enabled(svc) {
		notifier = notifications.NewObserver(svc, notifications.SettingsFromConfig(cfg), logger)
		observers = append(observers, notifier)
	}

	orch := extract.New(extract.Dependencies{
		Prober:      probe,
		Transcoder:  transcode.NewRunner(cfg.FFmpegBinary(), logger),
		Destination: writer,
		SessionLogs: writer.Area("logs"),
		Observer:    observers,
		Logger:      logger,
		NewRunID:    func() string { return runID },
	}, extract.OptionsFromConfig(cfg))

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "Extracting track #%d (%s) from %d file(s) into %s\n",
		choice.Index, choice.Source, len(refs), policy.Describe())

	renderer := newProgressRenderer(out, isTerminal(out))
	for event := range orch.Start(runCtx, extract.Job{Inputs: refs, TrackIndex: choice.Index}) {
		renderer.Handle(event)
	}
	if notifier != nil {
		notifier.Close()
	}

	if len(renderer.results) > 0 {
		fmt.Fprintln(out, summaryTable(renderer.results))
	}
	done := renderer.done
	switch {
	case done == nil:
		return errors.New("extraction ended without a summary")
	case done.Cancelled:
		return context.Canceled
	case done.Failed > 0:
		return fmt.Errorf("%d of %d file(s) failed", done.Failed, len(refs))
	}
	return nil
}

func applyExtractOverrides(cfg *config.Config, opts extractOptions) {
	if t := strings.TrimSpace(opts.template); t != "" {
		cfg.Naming.Template = t
	}
	if root := strings.TrimSpace(opts.destRoot); root != "" {
		if expanded, err := config.ExpandPath(root); err == nil {
			root = expanded
		}
		cfg.Destination.Root = root
	}
	if sub := strings.TrimSpace(opts.subfolder); sub != "" {
		cfg.Destination.Subfolder = sub
	}
}

// absoluteRefs anchors relative local paths to the working directory so
// history and retry manifests stay valid from anywhere.
func absoluteRefs(refs []inputs.Ref) []inputs.Ref {
	for i, ref := range refs {
		if strings.Contains(string(ref), "://") {
			continue
		}
		if abs, err := filepath.Abs(string(ref)); err == nil {
			refs[i] = inputs.Ref(abs)
		}
	}
	return refs
}

// runMaintenance removes stale staging runs and expired log files.
func runMaintenance(ctx context.Context, cfg *config.Config, logger *slog.Logger) {
	cleaned := staging.CleanStale(ctx, cfg.Paths.StagingDir, cfg.StaleStagingAge(), logger)
	for _, failure := range cleaned.Errors {
		logging.WarnWithContext(logger, "stale staging cleanup failed", "staging_cleanup_failed",
			logging.String("path", failure.Path),
			logging.Error(failure.Error),
			logging.String(logging.FieldImpact, "disk space is not reclaimed"),
		)
	}
	logging.PruneOldFiles(logger, cfg.Logging.RetentionDays, cfg.Paths.LogDir, logging.LogFilePattern)
}
