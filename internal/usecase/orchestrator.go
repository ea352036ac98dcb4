package usecase

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/user/profile-extractor/internal/entity"
	"github.com/user/profile-extractor/internal/repository"
	"github.com/user/profile-extractor/pkg/metrics"
	"github.com/user/profile-extractor/pkg/utils"
)

var phaseLabels = map[entity.Phase]string{
	entity.PhaseStarting:   "Initializing analysis",
	entity.PhaseCrawling:   "Crawling website",
	entity.PhaseAnalyzing:  "Analyzing content",
	entity.PhaseExtracting: "Extracting structured data",
	entity.PhaseCompleted:  "Analysis complete",
	entity.PhaseError:      "Analysis failed",
}

// OrchestratorConfig holds the service-wide crawl settings a request cannot
// override.
type OrchestratorConfig struct {
	BatchSize        int
	BatchPause       time.Duration
	MaxPages         int
	SettleDelay      time.Duration
	UserAgent        string
	ExtractionMethod string
}

// Orchestrator runs the crawl, analyze and extract phases for one request
// as a state machine and reports every transition to an EventSink.
type Orchestrator struct {
	fetchers  repository.FetcherFactory
	extractor repository.ExtractionService
	robots    repository.RobotsPolicy
	links     *LinkExtractor
	cfg       OrchestratorConfig
	logger    *zap.Logger

	newRunID func() string
	pause    func(ctx context.Context, d time.Duration) error
}

// NewOrchestrator wires the pipeline. robots may be nil, in which case
// robots.txt is never consulted.
func NewOrchestrator(
	fetchers repository.FetcherFactory,
	extractor repository.ExtractionService,
	robots repository.RobotsPolicy,
	cfg OrchestratorConfig,
	logger *zap.Logger,
) *Orchestrator {
	if cfg.BatchSize <= 0 {
		cfg.BatchSize = defaultBatchSize
	}
	if cfg.BatchPause < 0 {
		cfg.BatchPause = defaultBatchPause
	}
	return &Orchestrator{
		fetchers:  fetchers,
		extractor: extractor,
		robots:    robots,
		links:     NewLinkExtractor(),
		cfg:       cfg,
		logger:    logger,
		newRunID:  uuid.NewString,
		pause:     sleepContext,
	}
}

// analysisRun is the state of one Run call.
type analysisRun struct {
	id           string
	phase        entity.Phase
	phaseStarted time.Time
	pagesCrawled int
	sink         EventSink
	logger       *zap.Logger
}

func (r *analysisRun) event(t entity.EventType) entity.ProgressEvent {
	return entity.ProgressEvent{
		Type:              t,
		RunID:             r.id,
		Phase:             r.phase,
		PagesCrawled:      r.pagesCrawled,
		CurrentPhaseLabel: phaseLabels[r.phase],
		Timestamp:         time.Now().UTC(),
	}
}

// enter moves the run to next and emits its progress event. mutate may
// decorate the event.
func (r *analysisRun) enter(ctx context.Context, next entity.Phase, mutate func(*entity.ProgressEvent)) error {
	if !r.phase.CanTransitionTo(next) {
		return fmt.Errorf("illegal phase transition %q -> %q", r.phase, next)
	}
	r.leavePhase()
	r.phase = next
	r.phaseStarted = time.Now()

	ev := r.event(entity.EventProgress)
	if mutate != nil {
		mutate(&ev)
	}
	r.sink.Emit(ctx, ev)
	r.logger.Info("analysis phase", zap.String("run_id", r.id), zap.String("phase", string(next)))
	return nil
}

func (r *analysisRun) leavePhase() {
	if r.phase != entity.PhaseIdle && !r.phaseStarted.IsZero() {
		metrics.PhaseDuration.WithLabelValues(string(r.phase)).Observe(time.Since(r.phaseStarted).Seconds())
	}
}

// fail moves the run to the error phase, emits the terminal error event and
// returns the error for the caller.
func (r *analysisRun) fail(ctx context.Context, err error) error {
	failed := r.phase
	if r.phase.CanTransitionTo(entity.PhaseError) {
		r.leavePhase()
		r.phase = entity.PhaseError
	}

	ev := r.event(entity.EventError)
	ev.Error = err.Error()
	ev.Message = fmt.Sprintf("%s failed", failed)
	r.sink.Emit(ctx, ev)

	metrics.AnalysisRunsTotal.WithLabelValues(string(entity.PhaseError)).Inc()
	r.logger.Error("analysis failed",
		zap.String("run_id", r.id),
		zap.String("phase", string(failed)),
		zap.Int("pages_crawled", r.pagesCrawled),
		zap.Error(err),
	)
	return &RunError{RunID: r.id, Phase: failed, PagesCrawled: r.pagesCrawled, Err: err}
}

// Run executes one analysis. On failure the returned error is a *RunError
// wrapping the cause, and the last event emitted is of type error.
func (o *Orchestrator) Run(ctx context.Context, req entity.AnalysisRequest, sink EventSink) (*entity.AnalysisResult, error) {
	if sink == nil {
		sink = discardSink{}
	}
	run := &analysisRun{
		id:     o.newRunID(),
		phase:  entity.PhaseIdle,
		sink:   sink,
		logger: o.logger,
	}
	started := time.Now()

	if err := run.enter(ctx, entity.PhaseStarting, func(ev *entity.ProgressEvent) {
		ev.Message = "Analyzing " + req.WebsiteURL
	}); err != nil {
		return nil, run.fail(ctx, err)
	}
	if err := validateRequest(req); err != nil {
		return nil, run.fail(ctx, err)
	}

	fetcher, err := o.fetchers.NewFetcher(ctx, entity.FetchOptions{
		UserAgent:       firstNonEmpty(req.UserAgent, o.cfg.UserAgent),
		Timeout:         req.Timeout,
		SettleDelay:     o.cfg.SettleDelay,
		FollowRedirects: req.FollowRedirects,
		IncludeImages:   req.Sections.Images,
	})
	if err != nil {
		return nil, run.fail(ctx, fmt.Errorf("start browser: %w", err))
	}
	defer func() {
		if cerr := fetcher.Close(); cerr != nil {
			o.logger.Warn("closing page fetcher", zap.String("run_id", run.id), zap.Error(cerr))
		}
	}()

	if err := run.enter(ctx, entity.PhaseCrawling, nil); err != nil {
		return nil, run.fail(ctx, err)
	}

	engine := NewCrawlEngine(fetcher, o.links, o.robots, o.logger.With(zap.String("run_id", run.id)))
	engine.pause = o.pause
	report, err := engine.Crawl(ctx, req.WebsiteURL, CrawlOptions{
		MaxDepth:      req.MaxDepth,
		BatchSize:     o.cfg.BatchSize,
		BatchPause:    o.cfg.BatchPause,
		MaxPages:      o.cfg.MaxPages,
		UserAgent:     firstNonEmpty(req.UserAgent, o.cfg.UserAgent),
		RespectRobots: req.RespectRobotsTxt,
	}, func(page *entity.CrawledPage, crawled, discovered int) {
		run.pagesCrawled = crawled
		ev := run.event(entity.EventLog)
		total := discovered
		ev.TotalPages = &total
		ev.Message = fmt.Sprintf("Crawled %s", page.URL)
		sink.Emit(ctx, ev)
	})
	if err != nil {
		return nil, run.fail(ctx, err)
	}
	run.pagesCrawled = len(report.Pages)
	if ctx.Err() != nil {
		return nil, run.fail(ctx, ctx.Err())
	}
	if len(report.Pages) == 0 {
		return nil, run.fail(ctx, ErrNoContent)
	}
	crawlTime := time.Since(started)

	if err := run.enter(ctx, entity.PhaseAnalyzing, func(ev *entity.ProgressEvent) {
		total := len(report.Pages)
		ev.TotalPages = &total
	}); err != nil {
		return nil, run.fail(ctx, err)
	}
	raw, err := o.extractor.Analyze(ctx, Aggregate(report.Pages), BuildInstruction(req.Sections))
	if err != nil {
		return nil, run.fail(ctx, err)
	}

	if err := run.enter(ctx, entity.PhaseExtracting, nil); err != nil {
		return nil, run.fail(ctx, err)
	}
	outcome, err := NewValidator(req.Sections).Validate(raw)
	if err != nil {
		return nil, run.fail(ctx, err)
	}

	record := *outcome.ExtractedData
	if record.Website == "" {
		record.Website = req.WebsiteURL
	}
	record.Metadata = &entity.RecordMetadata{
		ScrapedAt:        time.Now().UTC(),
		DataQuality:      outcome.DataQuality,
		ExtractionMethod: o.cfg.ExtractionMethod,
		SourceURL:        req.WebsiteURL,
	}

	result := &entity.AnalysisResult{
		RunID:   run.id,
		Record:  &record,
		Outcome: outcome,
		Metadata: entity.RunMetadata{
			CrawlTimeMs:   crawlTime.Milliseconds(),
			PagesAnalyzed: len(report.Pages),
			Confidence:    outcome.Confidence,
			DataExtracted: ExtractedFields(outcome.ExtractedData),
			Errors:        errorStrings(report.Errors),
		},
	}

	if err := run.enter(ctx, entity.PhaseCompleted, func(ev *entity.ProgressEvent) {
		ev.PartialData = &record
	}); err != nil {
		return nil, run.fail(ctx, err)
	}

	complete := run.event(entity.EventComplete)
	complete.Result = result
	sink.Emit(ctx, complete)

	metrics.AnalysisRunsTotal.WithLabelValues(string(entity.PhaseCompleted)).Inc()
	o.logger.Info("analysis completed",
		zap.String("run_id", run.id),
		zap.String("website", req.WebsiteURL),
		zap.Int("pages", len(report.Pages)),
		zap.Int("confidence", outcome.Confidence),
		zap.String("quality", string(outcome.DataQuality)),
	)
	return result, nil
}

func validateRequest(req entity.AnalysisRequest) error {
	if _, err := utils.CanonicalURL(req.WebsiteURL); err != nil {
		return fmt.Errorf("invalid website URL %q: %w", req.WebsiteURL, err)
	}
	if req.MaxDepth < 0 {
		return fmt.Errorf("invalid max depth %d", req.MaxDepth)
	}
	return nil
}

func errorStrings(errs []error) []string {
	out := make([]string, 0, len(errs))
	for _, err := range errs {
		out = append(out, err.Error())
	}
	return out
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
