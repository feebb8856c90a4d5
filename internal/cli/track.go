package cli

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"

	ghchk "github.com/yasuyuky/gh-chk"
	"github.com/yasuyuky/gh-chk/credentials"
	"github.com/yasuyuky/gh-chk/internal/metrics"
	"github.com/yasuyuky/gh-chk/store"
	"github.com/yasuyuky/gh-chk/timeline"
	"github.com/yasuyuky/gh-chk/types"
)

// Output formats.
const (
	FormatText = "text"
	FormatJSON = "json"
)

type trackFlags struct {
	workers     int
	rps         float64
	store       string
	dryRun      bool
	history     bool
	format      string
	mockFile    string
	metricsFile string
	noColor     bool
}

func (a *App) newTrackCommand(g *globalFlags) *cobra.Command {
	f := &trackFlags{}

	cmd := &cobra.Command{
		Use:     "track-assignees [flags] <owner/repo#number>... | <owner/repo> <number>",
		Aliases: []string{"track"},
		Short:   "Track assignees of issues or pull requests",
		Long: `Track assignees of issues or pull requests.

For every item the assignee set is rebuilt from the item's timeline, compared
with the snapshot stored by the previous run, and the new snapshot is stored.
The first run of an item records a baseline.

Examples:
  gh-chk track-assignees octo/hello#42 octo/hello#43
  gh-chk track octo/hello 42 --history
  gh-chk track octo/hello#42 --store sqlite://$HOME/.local/share/gh-chk.db -f json`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.runTrack(cmd, g, f, args)
		},
	}

	fl := cmd.Flags()
	fl.IntVar(&f.workers, "workers", 0, "items tracked concurrently (default 4)")
	fl.Float64Var(&f.rps, "rps", 0, "shared API request budget per second (default 10)")
	fl.StringVar(&f.store, "store", "", "snapshot store: directory, file://, sqlite://, postgres://, nats://, memory:")
	fl.BoolVar(&f.dryRun, "dry-run", false, "report changes without storing snapshots")
	fl.BoolVar(&f.history, "history", false, "print every assignment event and the peak assignee count")
	fl.StringVarP(&f.format, "format", "f", FormatText, "output format: text or json")
	fl.StringVar(&f.mockFile, "mock-file", a.Getenv(timeline.MockFileEnv), "serve timelines from a canned response file (env "+timeline.MockFileEnv+")")
	fl.StringVar(&f.metricsFile, "metrics-file", "", "write Prometheus metrics in textfile format to this path")
	fl.BoolVar(&f.noColor, "no-color", false, "disable colored output")

	return cmd
}

func (a *App) runTrack(cmd *cobra.Command, g *globalFlags, f *trackFlags, args []string) error {
	ctx := cmd.Context()

	if f.format != FormatText && f.format != FormatJSON {
		return fmt.Errorf("unknown output format %q (want %q or %q)", f.format, FormatText, FormatJSON)
	}

	refs, err := parseRefs(args)
	if err != nil {
		return err
	}

	log, err := a.newLogger(g)
	if err != nil {
		return err
	}

	cfg, err := a.loadConfig(g)
	if err != nil {
		return err
	}
	applyTrackFlags(cmd, f, &cfg)

	registry := prometheus.NewRegistry()
	var collector types.MetricsCollector = metrics.NewNop()
	if f.metricsFile != "" {
		collector = metrics.NewPrometheus(registry, "")
	}

	var src types.EventSource
	if f.mockFile != "" {
		log.Info("serving timelines from file", "path", f.mockFile)
		src = timeline.NewFileSource(f.mockFile)
	} else {
		creds, err := credentials.Resolve(a.Getenv, credentials.WithLogger(log))
		if err != nil {
			return err
		}
		client, err := ghchk.NewTimelineClient(&cfg, creds,
			timeline.WithLogger(log),
			timeline.WithMetrics(collector),
		)
		if err != nil {
			return err
		}
		src = client
	}

	storeURI := cfg.Store
	if storeURI == "" {
		storeURI = a.defaultStorePath()
	}
	st, err := store.Open(ctx, storeURI, store.WithLogger(log))
	if err != nil {
		return fmt.Errorf("open snapshot store: %w", err)
	}
	defer func() {
		if err := st.Close(); err != nil {
			log.Warn("closing snapshot store", "error", err)
		}
	}()

	tracker, err := ghchk.NewTracker(&cfg, src, st,
		ghchk.WithLogger(log),
		ghchk.WithMetrics(collector),
	)
	if err != nil {
		return err
	}

	report := tracker.Run(ctx, refs)

	switch f.format {
	case FormatJSON:
		err = writeJSON(a.Out, report)
	default:
		err = newTextReporter(a.Out, a.Color && !f.noColor).Write(report)
	}
	if err != nil {
		return fmt.Errorf("write report: %w", err)
	}

	if f.metricsFile != "" {
		if err := prometheus.WriteToTextfile(f.metricsFile, registry); err != nil {
			return fmt.Errorf("write metrics: %w", err)
		}
	}

	return report.Err()
}

// applyTrackFlags overlays explicitly set flags on the file configuration.
func applyTrackFlags(cmd *cobra.Command, f *trackFlags, cfg *ghchk.Config) {
	fl := cmd.Flags()
	if fl.Changed("workers") {
		cfg.Workers = f.workers
	}
	if fl.Changed("rps") {
		cfg.RequestsPerSecond = f.rps
		if cfg.Burst < int(f.rps) {
			cfg.Burst = max(1, int(f.rps))
		}
	}
	if fl.Changed("store") {
		cfg.Store = f.store
	}
	if fl.Changed("dry-run") {
		cfg.DryRun = f.dryRun
	}
	if fl.Changed("history") {
		cfg.IncludeHistory = f.history
	}
}

// parseRefs accepts either item refs ("owner/repo#42", "owner/repo/42") or
// the two-argument form "owner/repo 42".
func parseRefs(args []string) ([]ghchk.ItemRef, error) {
	if len(args) == 2 && !strings.ContainsAny(args[0], "#") && strings.Count(args[0], "/") == 1 {
		if _, err := strconv.Atoi(args[1]); err == nil {
			ref, err := ghchk.ParseItemRef(args[0] + "#" + args[1])
			if err != nil {
				return nil, err
			}

			return []ghchk.ItemRef{ref}, nil
		}
	}

	refs := make([]ghchk.ItemRef, 0, len(args))
	for _, arg := range args {
		ref, err := ghchk.ParseItemRef(arg)
		if err != nil {
			return nil, err
		}
		refs = append(refs, ref)
	}

	return refs, nil
}
