package ghchk

import (
	"context"
	"fmt"
	"slices"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/yasuyuky/gh-chk/internal/diff"
	"github.com/yasuyuky/gh-chk/internal/history"
	"github.com/yasuyuky/gh-chk/internal/hooks"
	"github.com/yasuyuky/gh-chk/internal/logger"
	"github.com/yasuyuky/gh-chk/internal/metrics"
	"github.com/yasuyuky/gh-chk/types"
)

// Tracker reconstructs, diffs and persists the assignee sets of many items.
//
// Items are processed by a bounded pool of workers. Each item runs through
// its own state machine and fails in isolation: an error on one item never
// aborts its siblings. The only state shared between items is the event
// source (and its rate limiter) and the snapshot store.
type Tracker struct {
	cfg     Config
	source  EventSource
	store   SnapshotStore
	hooks   Hooks
	metrics MetricsCollector
	logger  Logger
	now     func() time.Time
}

// NewTracker creates a new Tracker with the provided configuration.
//
// Returns a concrete *Tracker struct following the "accept interfaces, return structs" principle.
//
// Parameters:
//   - cfg: Run configuration (zero fields are filled with defaults)
//   - source: Timeline source (timeline.Client, timeline.FileSource, source.Static)
//   - st: Snapshot store (see store.Open)
//   - opts: Optional configuration (hooks, metrics, logger, clock)
//
// Returns:
//   - *Tracker: Initialized tracker
//   - error: ErrInvalidConfig, ErrEventSourceRequired or ErrSnapshotStoreRequired
//
// Example:
//
//	cfg := ghchk.DefaultConfig()
//	client, _ := ghchk.NewTimelineClient(&cfg, creds)
//	st, _ := store.Open(ctx, "sqlite:///var/lib/gh-chk/snapshots.db")
//	tracker, err := ghchk.NewTracker(&cfg, client, st)
//	report := tracker.Run(ctx, refs)
//	os.Exit(report.ExitCode())
func NewTracker(cfg *Config, source EventSource, st SnapshotStore, opts ...Option) (*Tracker, error) {
	if cfg == nil {
		return nil, ErrInvalidConfig
	}
	if source == nil {
		return nil, ErrEventSourceRequired
	}
	if st == nil {
		return nil, ErrSnapshotStoreRequired
	}

	SetDefaults(cfg)
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidConfig, err)
	}

	options := &trackerOptions{}
	for _, opt := range opts {
		opt(options)
	}

	metricsCollector := options.metrics
	if metricsCollector == nil {
		metricsCollector = metrics.NewNop()
	}

	loggerInstance := options.logger
	if loggerInstance == nil {
		loggerInstance = logger.NewNop()
	}

	cfg.ValidateWithWarnings(loggerInstance)

	clock := options.clock
	if clock == nil {
		clock = time.Now
	}

	return &Tracker{
		cfg:     *cfg,
		source:  source,
		store:   st,
		hooks:   hooks.Merge(options.hooks),
		metrics: metricsCollector,
		logger:  loggerInstance,
		now:     clock,
	}, nil
}

// Run tracks every item and blocks until all of them reach a terminal state.
//
// Duplicate refs are tracked once. Report.Results follows the order of the
// first occurrence of each ref. When ctx is cancelled, items not yet started
// are reported Failed with the context error and in-flight fetches abort
// without saving.
func (t *Tracker) Run(ctx context.Context, refs []ItemRef) *Report {
	refs = uniqueRefs(refs)
	report := &Report{
		RunID:     uuid.NewString(),
		StartedAt: t.now(),
		DryRun:    t.cfg.DryRun,
		Results:   make([]Result, len(refs)),
	}

	t.logger.Info("tracking run started", "run_id", report.RunID, "items", len(refs), "workers", t.cfg.Workers)

	for r := range t.pipeline(ctx, report.RunID, refs) {
		report.Results[r.index] = r.result
	}
	report.FinishedAt = t.now()

	t.logger.Info("tracking run finished",
		"run_id", report.RunID,
		"succeeded", report.Succeeded(),
		"failed", report.Failed(),
		"duration", report.FinishedAt.Sub(report.StartedAt),
	)

	return report
}

// Stream tracks every item and delivers results in completion order.
//
// The channel is closed once every item has a result. It is buffered for the
// whole run, so a caller that stops reading early does not block workers.
func (t *Tracker) Stream(ctx context.Context, refs []ItemRef) <-chan Result {
	refs = uniqueRefs(refs)
	out := make(chan Result, len(refs))
	runID := uuid.NewString()

	go func() {
		defer close(out)
		for r := range t.pipeline(ctx, runID, refs) {
			out <- r.result
		}
	}()

	return out
}

type job struct {
	index int
	ref   ItemRef
}

type indexedResult struct {
	index  int
	result Result
}

// pipeline fans refs out to the worker pool and fans results back in over a
// single channel that is closed when every ref has a result.
func (t *Tracker) pipeline(ctx context.Context, runID string, refs []ItemRef) <-chan indexedResult {
	jobs := make(chan job)
	results := make(chan indexedResult, len(refs))

	var wg sync.WaitGroup
	for range min(t.cfg.Workers, len(refs)) {
		wg.Go(func() {
			for j := range jobs {
				results <- indexedResult{index: j.index, result: t.track(ctx, runID, j.ref)}
			}
		})
	}

	go func() {
		defer func() {
			close(jobs)
			wg.Wait()
			close(results)
		}()

		for i, ref := range refs {
			select {
			case jobs <- job{index: i, ref: ref}:
			case <-ctx.Done():
				for k := i; k < len(refs); k++ {
					results <- indexedResult{index: k, result: t.abandon(ctx, runID, refs[k])}
				}

				return
			}
		}
	}()

	return results
}

// abandon reports an item that was never handed to a worker.
func (t *Tracker) abandon(ctx context.Context, runID string, ref ItemRef) Result {
	run := t.newItemRun(ctx, runID, ref)
	return run.fail(ctx.Err())
}

// track runs the per-item state machine:
// Pending → Fetching → Reconstructing → Diffing → [Persisting] → Succeeded,
// with Failed reachable from every non-terminal state.
func (t *Tracker) track(ctx context.Context, runID string, ref ItemRef) Result {
	run := t.newItemRun(ctx, runID, ref)
	ctx = run.ctx

	if err := ctx.Err(); err != nil {
		return run.fail(err)
	}

	run.transition(ItemFetching)
	folder := history.NewFolder(t.cfg.IncludeHistory)
	it := t.source.Events(ref)
	for it.Next(ctx) {
		folder.Apply(it.Event())
	}
	if err := it.Err(); err != nil {
		return run.fail(err)
	}
	run.result.Title = it.Title()
	fetchedAt := t.now().UTC()

	run.transition(ItemReconstructing)
	state := folder.State(fetchedAt)
	run.result.Current = state.Current
	run.result.AsOf = state.AsOf
	run.result.History = folder.History()

	run.transition(ItemDiffing)
	previous, err := t.loadSnapshot(ctx, ref)
	if err != nil {
		return run.fail(err)
	}
	d := diff.Compute(previous, state)
	run.result.Diff = &d

	if !t.cfg.DryRun {
		run.transition(ItemPersisting)
		if err := t.saveSnapshot(ctx, types.NewSnapshot(ref, state, fetchedAt)); err != nil {
			return run.fail(err)
		}
	}

	t.metrics.RecordAssigneeChanges(d.Added.Len(), d.Removed.Len(), d.IsBaseline)

	return run.succeed()
}

func (t *Tracker) loadSnapshot(ctx context.Context, ref ItemRef) (*Snapshot, error) {
	start := t.now()
	snap, err := t.store.Load(ctx, ref)
	t.metrics.RecordSnapshotOperation("load", err == nil, t.now().Sub(start).Seconds())
	if err != nil {
		return nil, fmt.Errorf("load snapshot: %w", err)
	}

	return snap, nil
}

func (t *Tracker) saveSnapshot(ctx context.Context, snap Snapshot) error {
	start := t.now()
	err := t.store.Save(ctx, snap)
	t.metrics.RecordSnapshotOperation("save", err == nil, t.now().Sub(start).Seconds())
	if err != nil {
		return fmt.Errorf("save snapshot: %w", err)
	}

	return nil
}

// itemRun carries the state of one item through the state machine. It is
// owned by a single worker goroutine.
type itemRun struct {
	t      *Tracker
	ctx    context.Context
	runID  string
	start  time.Time
	state  ItemState
	result Result

	mu sync.Mutex
}

func (t *Tracker) newItemRun(ctx context.Context, runID string, ref ItemRef) *itemRun {
	run := &itemRun{
		t:      t,
		runID:  runID,
		start:  t.now(),
		state:  ItemPending,
		result: Result{Ref: ref, State: ItemPending},
	}
	run.ctx = types.ContextWithWarningHandler(ctx, run.warn)

	return run
}

// warn collects a warning raised by the source or the store for this item.
func (r *itemRun) warn(w Warning) {
	if w.Item == (ItemRef{}) {
		w.Item = r.result.Ref
	}

	r.mu.Lock()
	r.result.Warnings = append(r.result.Warnings, w)
	r.mu.Unlock()

	r.t.logger.Warn("item warning",
		"run_id", r.runID,
		"item", w.Item.String(),
		"source", w.Source,
		"message", w.Message,
		"error", w.Err,
	)

	if err := r.t.hooks.OnWarning(r.ctx, w); err != nil {
		r.t.logger.Error("warning hook error", "item", w.Item.String(), "error", err)
	}
}

// transition moves the item to a new state and triggers hooks.
func (r *itemRun) transition(to ItemState) {
	from := r.state
	if !from.CanTransitionTo(to) {
		r.t.logger.Error("invalid item state transition attempted",
			"item", r.result.Ref.String(),
			"from", from.String(),
			"to", to.String(),
		)

		return
	}

	r.state = to
	r.result.State = to

	r.t.logger.Debug("item state transition",
		"run_id", r.runID,
		"item", r.result.Ref.String(),
		"from", from.String(),
		"to", to.String(),
	)

	r.t.metrics.RecordItemStateTransition(from, to)

	// Hooks run on the worker goroutine so they observe transitions in order.
	if err := r.t.hooks.OnItemStateChanged(r.ctx, r.result.Ref, from, to); err != nil {
		r.t.logger.Error("state change hook error", "item", r.result.Ref.String(), "from", from, "to", to, "error", err)
	}
}

func (r *itemRun) fail(err error) Result {
	r.result.Err = err
	r.result.Current = nil
	r.result.Diff = nil
	r.result.History = nil
	r.transition(ItemFailed)

	return r.finish()
}

func (r *itemRun) succeed() Result {
	r.transition(ItemSucceeded)
	return r.finish()
}

func (r *itemRun) finish() Result {
	r.result.Duration = r.t.now().Sub(r.start)

	kind := types.ErrKindUnknown
	if r.result.Err != nil {
		kind = types.KindOf(r.result.Err)
	}
	r.t.metrics.RecordItemResult(r.result.State, kind, r.result.Duration.Seconds())

	r.mu.Lock()
	r.result.Warnings = slices.Clone(r.result.Warnings)
	result := r.result
	r.mu.Unlock()

	if result.Err != nil {
		r.t.logger.Warn("item failed",
			"run_id", r.runID,
			"item", result.Ref.String(),
			"state", result.State.String(),
			"kind", kind.String(),
			"duration", result.Duration,
			"error", result.Err,
		)
	} else {
		r.t.logger.Info("item tracked",
			"run_id", r.runID,
			"item", result.Ref.String(),
			"state", result.State.String(),
			"baseline", result.Diff.IsBaseline,
			"added", result.Diff.Added.Len(),
			"removed", result.Diff.Removed.Len(),
			"duration", result.Duration,
		)
	}

	if err := r.t.hooks.OnResult(r.ctx, result); err != nil {
		r.t.logger.Error("result hook error", "item", result.Ref.String(), "error", err)
	}

	return result
}

// uniqueRefs drops repeated refs, keeping the first occurrence.
func uniqueRefs(refs []ItemRef) []ItemRef {
	seen := make(map[ItemRef]struct{}, len(refs))
	out := make([]ItemRef, 0, len(refs))
	for _, ref := range refs {
		if _, ok := seen[ref]; ok {
			continue
		}
		seen[ref] = struct{}{}
		out = append(out, ref)
	}

	return out
}
