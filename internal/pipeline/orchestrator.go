package pipeline

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/sync/errgroup"
	"golang.org/x/time/rate"

	"brokersum/internal/blobstore"
	"brokersum/internal/cache"
	appconfig "brokersum/internal/config"
	"brokersum/internal/exporter"
	"brokersum/internal/infrastructure"
	"brokersum/internal/summary"
	"brokersum/internal/tickdata"
)

// Config holds orchestrator settings.
type Config struct {
	InputPrefix       string
	TradeTypes        []tickdata.TradeType
	BatchSize         int
	MaxConcurrency    int
	OverlapMultiplier float64
	MarketOpenCutoff  string
	HeapLimitBytes    uint64
	ListRatePerSec    float64
	Retry             blobstore.RetryConfig
}

// ConfigFromApp maps the application pipeline configuration onto
// orchestrator settings.
func ConfigFromApp(cfg appconfig.PipelineConfig) Config {
	return Config{
		InputPrefix:       cfg.InputPrefix,
		TradeTypes:        tickdata.TradeTypes(),
		BatchSize:         cfg.BatchSize,
		MaxConcurrency:    cfg.MaxConcurrency,
		OverlapMultiplier: cfg.OverlapMultiplier,
		MarketOpenCutoff:  cfg.MarketOpenCutoff,
		HeapLimitBytes:    uint64(cfg.HeapLimitMB) << 20,
		ListRatePerSec:    cfg.ListRatePerSec,
		Retry: blobstore.RetryConfig{
			MaxAttempts:  cfg.RetryMaxAttempts,
			InitialDelay: cfg.RetryInitialDelay,
			MaxDelay:     cfg.RetryMaxDelay,
			Multiplier:   2.0,
		},
	}
}

// Orchestrator drives discovery, pre-counting, and bounded-concurrency
// batch processing of business days.
type Orchestrator struct {
	store   blobstore.Store
	cache   *cache.Cache
	parser  *tickdata.Parser
	engine  *summary.Engine
	writer  *exporter.Writer
	checker *exporter.Checker
	sink    Sink
	logger  *slog.Logger
	metrics *infrastructure.Metrics
	tracer  trace.Tracer
	limiter *rate.Limiter
	cfg     Config

	stopped atomic.Bool
}

// New creates an orchestrator. A nil sink falls back to slog reporting and
// a nil metrics to an unregistered set.
func New(store blobstore.Store, contentCache *cache.Cache, sink Sink, logger *slog.Logger, metrics *infrastructure.Metrics, cfg Config) *Orchestrator {
	if logger == nil {
		logger = slog.Default()
	}
	if sink == nil {
		sink = NewSlogSink(logger)
	}
	if metrics == nil {
		metrics = infrastructure.NewTestMetrics()
	}
	if cfg.BatchSize < 1 {
		cfg.BatchSize = 1
	}
	if cfg.MaxConcurrency < 1 {
		cfg.MaxConcurrency = 1
	}
	if len(cfg.TradeTypes) == 0 {
		cfg.TradeTypes = tickdata.TradeTypes()
	}
	if cfg.OverlapMultiplier <= 0 {
		cfg.OverlapMultiplier = 1
	}
	if cfg.ListRatePerSec <= 0 {
		cfg.ListRatePerSec = 10
	}

	return &Orchestrator{
		store:   store,
		cache:   contentCache,
		parser:  tickdata.NewParser(logger),
		engine:  summary.NewEngine(logger, cfg.MarketOpenCutoff),
		writer:  exporter.NewWriter(store, logger),
		checker: exporter.NewChecker(store, logger),
		sink:    sink,
		logger:  logger,
		metrics: metrics,
		tracer:  otel.Tracer(infrastructure.TracerName),
		limiter: rate.NewLimiter(rate.Limit(cfg.ListRatePerSec), int(cfg.ListRatePerSec)+1),
		cfg:     cfg,
	}
}

// Stop requests an advisory stop. It is checked between batches; in-flight
// days finish normally.
func (o *Orchestrator) Stop() {
	o.stopped.Store(true)
}

// Run executes one full pipeline pass. The summary is always populated;
// the error is non-nil only for setup failures.
func (o *Orchestrator) Run(ctx context.Context) (RunSummary, error) {
	runID := uuid.NewString()
	started := time.Now()

	ctx, span := o.tracer.Start(ctx, "pipeline.run",
		trace.WithAttributes(attribute.String("run.id", runID)))
	defer span.End()

	result := RunSummary{RunID: runID}
	o.logger.InfoContext(ctx, "pipeline run starting",
		slog.String("run_id", runID),
		slog.String("input_prefix", o.cfg.InputPrefix))

	tasks, err := o.discover(ctx, &result)
	if err != nil {
		result.Elapsed = time.Since(started)
		span.RecordError(err)
		span.SetStatus(codes.Error, "setup failed")
		o.sink.MarkFailed(ctx, err.Error())
		return result, NewSetupError(fmt.Sprintf("list input prefix %s", o.cfg.InputPrefix), err)
	}

	estimated := o.precount(ctx, tasks)
	span.SetAttributes(
		attribute.Int("days.pending", len(tasks)),
		attribute.Int("work.estimated", estimated),
	)

	for _, task := range tasks {
		o.cache.AddActiveDay(task.day)
	}
	// Cleanup always runs, success or not.
	defer func() {
		for _, task := range tasks {
			o.cache.RemoveActiveDay(task.day)
		}
	}()

	tracker := NewTracker(o.sink, estimated)
	o.processBatches(ctx, tasks, tracker, &result)

	result.Elapsed = time.Since(started)
	o.sink.MarkCompleted(ctx, result)
	return result, nil
}

// discover lists candidate day files, newest first, and drops days whose
// outputs are already complete for every trade type.
func (o *Orchestrator) discover(ctx context.Context, result *RunSummary) ([]dayTask, error) {
	if err := o.limiter.Wait(ctx); err != nil {
		return nil, err
	}
	keys, err := blobstore.Do(ctx, o.cfg.Retry, blobstore.IsRetryable, func(ctx context.Context) ([]string, error) {
		return o.store.List(ctx, o.cfg.InputPrefix, 0)
	})
	if err != nil {
		return nil, err
	}

	// One export object per day directory; keep the first key seen.
	byDay := make(map[string]string)
	for _, key := range keys {
		rest := strings.TrimPrefix(key, o.cfg.InputPrefix)
		day, _, found := strings.Cut(rest, "/")
		if !found || day == "" {
			continue
		}
		if _, ok := byDay[day]; !ok {
			byDay[day] = key
		}
	}

	days := make([]string, 0, len(byDay))
	for day := range byDay {
		days = append(days, day)
	}
	sort.Sort(sort.Reverse(sort.StringSlice(days)))

	var tasks []dayTask
	for _, day := range days {
		complete, err := o.checker.DayComplete(ctx, day, o.cfg.TradeTypes)
		if err != nil {
			// A failed completeness probe is not fatal; process the day and
			// rely on the pre-write existence check.
			o.logger.WarnContext(ctx, "completeness check failed, keeping day in work list",
				slog.String("day", day),
				slog.String("error", err.Error()))
		}
		if complete {
			result.SkippedCount++
			o.metrics.DaysSkipped.Inc()
			continue
		}
		tasks = append(tasks, dayTask{day: day, key: byDay[day]})
	}

	o.logger.InfoContext(ctx, "discovery finished",
		slog.Int("candidate_days", len(days)),
		slog.Int("pending_days", len(tasks)),
		slog.Int("skipped_days", result.SkippedCount))
	return tasks, nil
}

// precount estimates total work units (entities x trade types, scaled by
// the overlap multiplier) before any day is marked active, so estimate
// fetches may still warm the cache.
func (o *Orchestrator) precount(ctx context.Context, tasks []dayTask) int {
	total := 0
	for _, task := range tasks {
		if err := o.limiter.Wait(ctx); err != nil {
			break
		}
		content, ok := o.cache.GetForCount(ctx, task.key, task.day)
		if !ok {
			continue
		}
		stocks := len(tickdata.UniqueStocks(o.parser.ParseDay(content)))
		total += int(float64(stocks*len(o.cfg.TradeTypes)) * o.cfg.OverlapMultiplier)
	}
	if total < len(tasks) {
		// Floor the estimate so the percentage stays meaningful when day
		// files are unreadable during pre-count.
		total = len(tasks)
	}
	return total
}

// processBatches partitions the work list into fixed-size batches and runs
// each under the concurrency ceiling. The stop request is honored between
// batches only.
func (o *Orchestrator) processBatches(ctx context.Context, tasks []dayTask, tracker *Tracker, result *RunSummary) {
	var mu sync.Mutex

	for start := 0; start < len(tasks); start += o.cfg.BatchSize {
		if o.stopped.Load() {
			o.logger.InfoContext(ctx, "stop requested, halting before next batch",
				slog.Int("remaining_days", len(tasks)-start))
			return
		}
		if infrastructure.RelieveHeapPressure(o.logger, o.cfg.HeapLimitBytes) {
			o.metrics.ForcedGCs.Inc()
		}

		end := start + o.cfg.BatchSize
		if end > len(tasks) {
			end = len(tasks)
		}
		batch := tasks[start:end]

		g, gctx := errgroup.WithContext(ctx)
		g.SetLimit(o.cfg.MaxConcurrency)
		for _, task := range batch {
			task := task
			g.Go(func() error {
				files, err := o.processDay(gctx, task, tracker)

				mu.Lock()
				defer mu.Unlock()
				result.FilesCreated += files
				if err != nil {
					result.ErrorCount++
					o.metrics.DayErrors.Inc()
					o.logger.ErrorContext(gctx, "day processing failed",
						slog.String("day", task.day),
						slog.String("error", err.Error()))
					return nil
				}
				result.ProcessedCount++
				o.metrics.DaysProcessed.Inc()
				return nil
			})
		}
		// Failures are isolated per day; the group never returns an error.
		_ = g.Wait()
	}
}

// processDay aggregates one business day across all trade types and both
// pivots, writing one artifact per entity.
func (o *Orchestrator) processDay(ctx context.Context, task dayTask, tracker *Tracker) (int, error) {
	ctx, span := o.tracer.Start(ctx, "pipeline.day",
		trace.WithAttributes(attribute.String("day", task.day)))
	defer span.End()

	content, ok := o.cache.Get(ctx, task.key)
	if !ok {
		err := fmt.Errorf("day file %s not available", task.key)
		span.RecordError(err)
		return 0, NewDayError(task.day, err)
	}

	records := o.parser.ParseDay(content)
	if len(records) == 0 {
		// Malformed or empty export: logged, not an error.
		o.logger.WarnContext(ctx, "day file yielded no records",
			slog.String("day", task.day))
		return 0, nil
	}

	filesCreated := 0
	var firstErr error
	for _, tradeType := range o.cfg.TradeTypes {
		complete, err := o.checker.TypeComplete(ctx, tradeType, task.day)
		if err != nil {
			if firstErr == nil {
				firstErr = err
			}
			continue
		}
		if complete {
			o.logger.DebugContext(ctx, "trade type already produced, skipping",
				slog.String("day", task.day),
				slog.String("trade_type", string(tradeType)))
			continue
		}

		subset := tickdata.FilterByType(records, tradeType)
		if len(subset) == 0 {
			continue
		}

		for _, pivot := range summary.Pivots() {
			positions := o.engine.Aggregate(subset, pivot)

			entities := make([]string, 0, len(positions))
			for entity := range positions {
				entities = append(entities, entity)
			}
			sort.Strings(entities)

			for _, entity := range entities {
				rows := positions[entity]
				rendered := make([][]string, 0, len(rows))
				for _, row := range rows {
					rendered = append(rendered, row.Row())
				}

				key := exporter.OutputKey(pivot, tradeType, task.day, entity)
				created, err := o.writer.WriteRows(ctx, key, summary.Columns(), rendered)
				if err != nil {
					if firstErr == nil {
						firstErr = err
					}
					continue
				}
				if created {
					filesCreated++
					o.metrics.FilesCreated.Inc()
				}
				tracker.Add(ctx, 1, fmt.Sprintf("%s %s/%s %s", task.day, pivot, tradeType, entity))
			}
		}
	}

	if firstErr != nil {
		span.RecordError(firstErr)
		return filesCreated, NewDayError(task.day, firstErr)
	}

	o.logger.InfoContext(ctx, "day processed",
		slog.String("day", task.day),
		slog.Int("record_count", len(records)),
		slog.Int("files_created", filesCreated))
	return filesCreated, nil
}
