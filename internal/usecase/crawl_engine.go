package usecase

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/user/profile-extractor/internal/entity"
	"github.com/user/profile-extractor/internal/repository"
	"github.com/user/profile-extractor/pkg/metrics"
	"github.com/user/profile-extractor/pkg/utils"
)

const (
	defaultBatchSize  = 3
	defaultBatchPause = time.Second
)

// CrawlOptions bounds one crawl.
type CrawlOptions struct {
	MaxDepth      int
	BatchSize     int           // concurrent fetches per batch
	BatchPause    time.Duration // pause between two batches of the same depth
	MaxPages      int           // 0 means unlimited
	UserAgent     string
	RespectRobots bool
}

// CrawlObserver is told about every page that was fetched successfully.
// crawled is the number of pages kept so far, discovered the number of
// URLs enqueued so far (seed included). It runs on the crawling goroutine.
type CrawlObserver func(page *entity.CrawledPage, crawled, discovered int)

// CrawlReport is the outcome of a crawl. Pages are in discovery order.
type CrawlReport struct {
	Pages      []*entity.CrawledPage
	Errors     []error
	Discovered int
}

// CrawlEngine performs a breadth-first, depth-limited crawl of one site.
type CrawlEngine struct {
	fetcher repository.PageFetcher
	links   *LinkExtractor
	robots  repository.RobotsPolicy
	logger  *zap.Logger
	pause   func(ctx context.Context, d time.Duration) error
}

// NewCrawlEngine creates an engine over fetcher. robots may be nil.
func NewCrawlEngine(fetcher repository.PageFetcher, links *LinkExtractor, robots repository.RobotsPolicy, logger *zap.Logger) *CrawlEngine {
	return &CrawlEngine{
		fetcher: fetcher,
		links:   links,
		robots:  robots,
		logger:  logger,
		pause:   sleepContext,
	}
}

// crawlRun is the state of a single Crawl call. Only the coordinating
// goroutine touches it.
type crawlRun struct {
	seed    string
	opts    CrawlOptions
	visited map[string]struct{}
	report  CrawlReport
}

// markVisited adds the canonical form of rawURL to the visited set and
// reports whether it was new.
func (r *crawlRun) markVisited(rawURL string) bool {
	canonical, err := utils.CanonicalURL(rawURL)
	if err != nil {
		return false
	}
	if _, seen := r.visited[canonical]; seen {
		return false
	}
	r.visited[canonical] = struct{}{}
	return true
}

func (r *crawlRun) budgetLeft() int {
	if r.opts.MaxPages <= 0 {
		return -1
	}
	return r.opts.MaxPages - len(r.report.Pages)
}

type fetchResult struct {
	page *entity.CrawledPage
	err  error
}

// Crawl fetches seedURL and follows its internal links level by level up to
// opts.MaxDepth. Single-page failures are collected in the report and never
// abort the crawl; the only error returned is for an unusable seed.
func (e *CrawlEngine) Crawl(ctx context.Context, seedURL string, opts CrawlOptions, observe CrawlObserver) (*CrawlReport, error) {
	if opts.BatchSize <= 0 {
		opts.BatchSize = defaultBatchSize
	}
	if opts.MaxDepth < 0 {
		opts.MaxDepth = 0
	}
	if _, err := utils.CanonicalURL(seedURL); err != nil {
		return nil, fmt.Errorf("invalid seed URL: %w", err)
	}

	run := &crawlRun{
		seed:    seedURL,
		opts:    opts,
		visited: make(map[string]struct{}),
	}
	run.markVisited(seedURL)
	run.report.Discovered = 1

	level := []entity.CrawlTarget{{URL: seedURL, Depth: 0}}
	for depth := 0; len(level) > 0 && depth <= opts.MaxDepth; depth++ {
		e.logger.Info("crawling depth level",
			zap.Int("depth", depth),
			zap.Int("targets", len(level)),
		)
		next, stop := e.crawlLevel(ctx, run, level, observe)
		if stop {
			break
		}
		level = next
	}

	e.logger.Info("crawl finished",
		zap.String("seed", seedURL),
		zap.Int("pages", len(run.report.Pages)),
		zap.Int("failures", len(run.report.Errors)),
	)
	return &run.report, nil
}

// crawlLevel fetches every target of one depth in fixed-width batches and
// returns the next level's targets. stop is true when the crawl must end
// early (page budget exhausted or context cancelled).
func (e *CrawlEngine) crawlLevel(ctx context.Context, run *crawlRun, level []entity.CrawlTarget, observe CrawlObserver) (next []entity.CrawlTarget, stop bool) {
	for start := 0; start < len(level); start += run.opts.BatchSize {
		if start > 0 {
			if err := e.pause(ctx, run.opts.BatchPause); err != nil {
				return nil, true
			}
		}
		if ctx.Err() != nil {
			return nil, true
		}

		end := min(start+run.opts.BatchSize, len(level))
		batch := level[start:end]
		if left := run.budgetLeft(); left >= 0 {
			if left == 0 {
				return nil, true
			}
			batch = batch[:min(len(batch), left)]
		}

		results := e.fetchBatch(ctx, batch)
		for i, res := range results {
			target := batch[i]
			if res.err != nil {
				e.recordFailure(run, target, res.err)
				continue
			}
			page := res.page
			// A redirect may land on a URL we have not seen yet.
			run.markVisited(page.URL)
			if page.IsEmpty() {
				metrics.PagesFetchedTotal.WithLabelValues("empty", "").Inc()
				e.logger.Debug("page has no content, skipping", zap.String("url", target.URL))
				continue
			}
			run.report.Pages = append(run.report.Pages, page)
			metrics.PagesFetchedTotal.WithLabelValues("success", "").Inc()

			if target.Depth < run.opts.MaxDepth {
				next = append(next, e.enqueueLinks(ctx, run, page, target.Depth+1)...)
			}
			if observe != nil {
				observe(page, len(run.report.Pages), run.report.Discovered)
			}
		}
	}
	return next, false
}

// fetchBatch fetches all targets concurrently and returns results in the
// same order as targets, regardless of completion order.
func (e *CrawlEngine) fetchBatch(ctx context.Context, targets []entity.CrawlTarget) []fetchResult {
	results := make([]fetchResult, len(targets))

	var g errgroup.Group
	for i, target := range targets {
		g.Go(func() error {
			started := time.Now()
			page, err := e.fetcher.Fetch(ctx, target)
			metrics.PageFetchDuration.Observe(time.Since(started).Seconds())
			if err == nil && page == nil {
				err = &repository.FetchError{URL: target.URL, Err: repository.ErrExtractionFailed}
			}
			results[i] = fetchResult{page: page, err: err}
			return nil
		})
	}
	_ = g.Wait()

	return results
}

func (e *CrawlEngine) enqueueLinks(ctx context.Context, run *crawlRun, page *entity.CrawledPage, depth int) []entity.CrawlTarget {
	var targets []entity.CrawlTarget
	for _, link := range e.links.Extract(page, run.seed) {
		canonical, err := utils.CanonicalURL(link)
		if err != nil {
			continue
		}
		if _, seen := run.visited[canonical]; seen {
			continue
		}
		if run.opts.RespectRobots && e.robots != nil {
			allowed, err := e.robots.Allowed(ctx, link, run.opts.UserAgent)
			if err != nil {
				e.logger.Debug("robots.txt check failed, allowing", zap.String("url", link), zap.Error(err))
			}
			if !allowed {
				e.logger.Debug("skipping URL disallowed by robots.txt", zap.String("url", link))
				continue
			}
		}
		run.visited[canonical] = struct{}{}
		run.report.Discovered++
		targets = append(targets, entity.CrawlTarget{URL: link, Depth: depth})
	}
	return targets
}

func (e *CrawlEngine) recordFailure(run *crawlRun, target entity.CrawlTarget, err error) {
	var fetchErr *repository.FetchError
	if !errors.As(err, &fetchErr) {
		fetchErr = &repository.FetchError{URL: target.URL, Err: err}
	}
	metrics.PagesFetchedTotal.WithLabelValues("failure", fetchErr.Kind()).Inc()
	e.logger.Warn("page fetch failed, skipping",
		zap.String("url", target.URL),
		zap.Int("depth", target.Depth),
		zap.Error(err),
	)
	run.report.Errors = append(run.report.Errors, fetchErr)
}

func sleepContext(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
