package usecase

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/user/profile-extractor/internal/entity"
	"github.com/user/profile-extractor/internal/repository"
)

type fakeFactory struct {
	site *fakeSite
	err  error
	opts entity.FetchOptions
}

func (f *fakeFactory) NewFetcher(_ context.Context, opts entity.FetchOptions) (repository.PageFetcher, error) {
	f.opts = opts
	if f.err != nil {
		return nil, f.err
	}
	return f.site, nil
}

type fakeExtractor struct {
	answer      string
	err         error
	corpus      string
	instruction string
	calls       int
}

func (f *fakeExtractor) Analyze(_ context.Context, corpus, instruction string) (string, error) {
	f.calls++
	f.corpus = corpus
	f.instruction = instruction
	return f.answer, f.err
}

type eventLog struct {
	events []entity.ProgressEvent
}

func (l *eventLog) Emit(_ context.Context, ev entity.ProgressEvent) {
	l.events = append(l.events, ev)
}

func (l *eventLog) progressPhases() []entity.Phase {
	var phases []entity.Phase
	for _, ev := range l.events {
		if ev.Type == entity.EventProgress {
			phases = append(phases, ev.Phase)
		}
	}
	return phases
}

func (l *eventLog) last() entity.ProgressEvent {
	return l.events[len(l.events)-1]
}

func testSite() *fakeSite {
	return newFakeSite(map[string][]string{
		"https://firm.test/":      {"https://firm.test/about", "https://firm.test/work"},
		"https://firm.test/about": {"https://firm.test/"},
	})
}

func newTestOrchestrator(factory *fakeFactory, extractor *fakeExtractor) *Orchestrator {
	o := NewOrchestrator(factory, extractor, nil, OrchestratorConfig{
		BatchSize:        3,
		BatchPause:       time.Second,
		UserAgent:        "test-agent",
		ExtractionMethod: "test-model",
	}, zap.NewNop())
	o.newRunID = func() string { return "run-1" }
	o.pause = func(context.Context, time.Duration) error { return nil }
	return o
}

func TestOrchestrator_Success(t *testing.T) {
	factory := &fakeFactory{site: testSite()}
	extractor := &fakeExtractor{answer: `Here it is: {"name": "Studio Nord", "projects": [{"name": "Villa A"}]}`}
	o := newTestOrchestrator(factory, extractor)
	log := &eventLog{}

	result, err := o.Run(context.Background(), entity.NewAnalysisRequest("https://firm.test/"), log)
	require.NoError(t, err)

	assert.Equal(t, []entity.Phase{
		entity.PhaseStarting, entity.PhaseCrawling, entity.PhaseAnalyzing, entity.PhaseExtracting, entity.PhaseCompleted,
	}, log.progressPhases())

	final := log.last()
	assert.Equal(t, entity.EventComplete, final.Type)
	assert.Same(t, result, final.Result)

	assert.Equal(t, "run-1", result.RunID)
	assert.Equal(t, "Studio Nord", result.Record.Name)
	assert.Equal(t, "https://firm.test/", result.Record.Website)
	require.NotNil(t, result.Record.Metadata)
	assert.Equal(t, "test-model", result.Record.Metadata.ExtractionMethod)
	assert.Equal(t, "https://firm.test/", result.Record.Metadata.SourceURL)
	assert.Nil(t, result.Outcome.ExtractedData.Metadata, "outcome stays as validated")
	assert.Equal(t, 3, result.Metadata.PagesAnalyzed)
	assert.Equal(t, []string{"name", "projects"}, result.Metadata.DataExtracted)
	assert.Equal(t, 20, result.Metadata.Confidence)

	assert.Equal(t, 1, extractor.calls)
	assert.Contains(t, extractor.corpus, "=== MAIN PAGE: Page https://firm.test/ (https://firm.test/) ===")
	assert.Equal(t, BuildInstruction(entity.AllSections()), extractor.instruction)
	assert.Equal(t, "test-agent", factory.opts.UserAgent)
	assert.Equal(t, 1, factory.site.closed)
}

func TestOrchestrator_CrawlEmitsLogEvents(t *testing.T) {
	o := newTestOrchestrator(&fakeFactory{site: testSite()}, &fakeExtractor{answer: `{"name": "x"}`})
	log := &eventLog{}

	_, err := o.Run(context.Background(), entity.NewAnalysisRequest("https://firm.test/"), log)
	require.NoError(t, err)

	var counts []int
	for _, ev := range log.events {
		if ev.Type == entity.EventLog {
			assert.Equal(t, entity.PhaseCrawling, ev.Phase)
			require.NotNil(t, ev.TotalPages)
			counts = append(counts, ev.PagesCrawled)
		}
	}
	assert.Equal(t, []int{1, 2, 3}, counts)
}

func TestOrchestrator_ServiceErrorKeepsPagesCrawled(t *testing.T) {
	factory := &fakeFactory{site: testSite()}
	serviceErr := &repository.ServiceError{StatusCode: 500, Body: `{"error":"overloaded"}`}
	o := newTestOrchestrator(factory, &fakeExtractor{err: serviceErr})
	log := &eventLog{}

	result, err := o.Run(context.Background(), entity.NewAnalysisRequest("https://firm.test/"), log)
	require.Error(t, err)
	assert.Nil(t, result)

	var runErr *RunError
	require.True(t, errors.As(err, &runErr))
	assert.Equal(t, entity.PhaseAnalyzing, runErr.Phase)
	assert.Equal(t, 3, runErr.PagesCrawled)

	var svcErr *repository.ServiceError
	require.True(t, errors.As(err, &svcErr))
	assert.Equal(t, 500, svcErr.StatusCode)

	final := log.last()
	assert.Equal(t, entity.EventError, final.Type)
	assert.Equal(t, entity.PhaseError, final.Phase)
	assert.Equal(t, 3, final.PagesCrawled)
	assert.Contains(t, final.Error, "status 500")
	assert.NotContains(t, log.progressPhases(), entity.PhaseExtracting)
	assert.Equal(t, 1, factory.site.closed)
}

func TestOrchestrator_ParseError(t *testing.T) {
	factory := &fakeFactory{site: testSite()}
	o := newTestOrchestrator(factory, &fakeExtractor{answer: "Sorry, I cannot help with that."})
	log := &eventLog{}

	_, err := o.Run(context.Background(), entity.NewAnalysisRequest("https://firm.test/"), log)

	var parseErr *ParseError
	require.True(t, errors.As(err, &parseErr))
	var runErr *RunError
	require.True(t, errors.As(err, &runErr))
	assert.Equal(t, entity.PhaseExtracting, runErr.Phase)
	assert.Equal(t, entity.EventError, log.last().Type)
	assert.NotContains(t, log.progressPhases(), entity.PhaseCompleted)
	assert.Equal(t, 1, factory.site.closed)
}

func TestOrchestrator_NoPagesCrawled(t *testing.T) {
	site := testSite()
	site.failing["https://firm.test/"] = repository.ErrNavigationFailed
	extractor := &fakeExtractor{answer: "{}"}
	o := newTestOrchestrator(&fakeFactory{site: site}, extractor)
	log := &eventLog{}

	_, err := o.Run(context.Background(), entity.NewAnalysisRequest("https://firm.test/"), log)

	assert.ErrorIs(t, err, ErrNoContent)
	assert.Zero(t, extractor.calls)
	assert.Equal(t, 1, site.closed)
	assert.Equal(t, 0, log.last().PagesCrawled)
}

func TestOrchestrator_InvalidRequest(t *testing.T) {
	factory := &fakeFactory{site: testSite()}
	o := newTestOrchestrator(factory, &fakeExtractor{})
	log := &eventLog{}

	_, err := o.Run(context.Background(), entity.NewAnalysisRequest("firm dot test"), log)
	require.Error(t, err)

	assert.Equal(t, []entity.Phase{entity.PhaseStarting}, log.progressPhases())
	assert.Equal(t, entity.EventError, log.last().Type)
	assert.Empty(t, factory.site.fetched)
	assert.Zero(t, factory.site.closed, "no fetcher was created")
}

func TestOrchestrator_FetcherStartFailure(t *testing.T) {
	o := newTestOrchestrator(&fakeFactory{err: errors.New("chrome not found")}, &fakeExtractor{})
	log := &eventLog{}

	_, err := o.Run(context.Background(), entity.NewAnalysisRequest("https://firm.test/"), log)

	var runErr *RunError
	require.True(t, errors.As(err, &runErr))
	assert.Equal(t, entity.PhaseStarting, runErr.Phase)
	assert.Contains(t, log.last().Error, "chrome not found")
}

func TestOrchestrator_NilSink(t *testing.T) {
	o := newTestOrchestrator(&fakeFactory{site: testSite()}, &fakeExtractor{answer: `{"name": "x"}`})
	_, err := o.Run(context.Background(), entity.NewAnalysisRequest("https://firm.test/"), nil)
	assert.NoError(t, err)
}

type fakePublisher struct {
	published []entity.ProgressEvent
	err       error
}

func (p *fakePublisher) Publish(_ context.Context, ev entity.ProgressEvent) error {
	p.published = append(p.published, ev)
	return p.err
}

func (p *fakePublisher) History(context.Context, string) ([]entity.ProgressEvent, error) {
	return p.published, nil
}

func TestMultiSink_FansOutInOrder(t *testing.T) {
	log := &eventLog{}
	pub := &fakePublisher{err: errors.New("redis down")}
	sink := MultiSink{log, NewPublishingSink(pub, zap.NewNop()), nil}

	o := newTestOrchestrator(&fakeFactory{site: testSite()}, &fakeExtractor{answer: `{"name": "x"}`})
	_, err := o.Run(context.Background(), entity.NewAnalysisRequest("https://firm.test/"), sink)
	require.NoError(t, err)

	assert.Equal(t, log.events, pub.published)
}
