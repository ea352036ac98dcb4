package chromedp_crawler

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/chromedp/cdproto/network"
	"github.com/chromedp/chromedp"
	"go.uber.org/zap"

	"github.com/user/profile-extractor/internal/entity"
	"github.com/user/profile-extractor/internal/repository"
	"github.com/user/profile-extractor/pkg/utils"
)

const (
	defaultPageTimeout = 30 * time.Second
	acceptHeader       = "text/html,application/xhtml+xml,application/xml;q=0.9,image/avif,image/webp,*/*;q=0.8"
	acceptLanguage     = "en-US,en;q=0.9"
)

// Launcher starts one headless browser per analysis run.
type Launcher struct {
	headless bool
	logger   *zap.Logger
}

// NewLauncher creates a fetcher factory backed by a local Chrome.
func NewLauncher(headless bool, logger *zap.Logger) *Launcher {
	return &Launcher{headless: headless, logger: logger}
}

// NewFetcher launches a browser configured by opts. The caller owns the
// returned fetcher and must Close it.
func (l *Launcher) NewFetcher(ctx context.Context, opts entity.FetchOptions) (repository.PageFetcher, error) {
	if opts.Timeout <= 0 {
		opts.Timeout = defaultPageTimeout
	}

	allocOpts := append(chromedp.DefaultExecAllocatorOptions[:],
		chromedp.Flag("headless", l.headless),
		chromedp.Flag("disable-gpu", true),
		chromedp.Flag("no-sandbox", true),
		chromedp.Flag("disable-dev-shm-usage", true),
	)
	if opts.UserAgent != "" {
		allocOpts = append(allocOpts, chromedp.UserAgent(opts.UserAgent))
	}

	allocCtx, allocCancel := chromedp.NewExecAllocator(ctx, allocOpts...)
	browserCtx, browserCancel := chromedp.NewContext(allocCtx, chromedp.WithLogf(l.logger.Sugar().Debugf))

	// Run with no actions starts the browser.
	if err := chromedp.Run(browserCtx); err != nil {
		browserCancel()
		allocCancel()
		return nil, fmt.Errorf("failed to launch browser: %w", err)
	}

	l.logger.Debug("browser launched", zap.Bool("headless", l.headless))
	return &BrowserFetcher{
		browserCtx:    browserCtx,
		browserCancel: browserCancel,
		allocCancel:   allocCancel,
		opts:          opts,
		logger:        l.logger,
	}, nil
}

// BrowserFetcher fetches pages in tabs of one browser. Fetch is safe for
// concurrent use.
type BrowserFetcher struct {
	browserCtx    context.Context
	browserCancel context.CancelFunc
	allocCancel   context.CancelFunc
	opts          entity.FetchOptions
	logger        *zap.Logger
	closeOnce     sync.Once
	closeErr      error
}

// Fetch renders target in a fresh tab. On failure it returns a page with
// only URL and depth set, together with a *repository.FetchError.
func (f *BrowserFetcher) Fetch(ctx context.Context, target entity.CrawlTarget) (*entity.CrawledPage, error) {
	empty := &entity.CrawledPage{URL: target.URL, Depth: target.Depth, FetchedAt: time.Now()}

	tabCtx, closeTab := chromedp.NewContext(f.browserCtx)
	defer closeTab()
	tabCtx, cancel := context.WithTimeout(tabCtx, f.opts.Timeout)
	defer cancel()
	stop := context.AfterFunc(ctx, cancel)
	defer stop()

	domReady := newDOMReadyWatcher()
	chromedp.ListenTarget(tabCtx, domReady.handle)

	var location, markup string
	err := chromedp.Run(tabCtx,
		network.Enable(),
		network.SetExtraHTTPHeaders(network.Headers{
			"Accept":          acceptHeader,
			"Accept-Language": acceptLanguage,
		}),
		navigateDOMReady(target.URL, domReady),
		chromedp.WaitReady("body", chromedp.ByQuery),
		chromedp.Sleep(f.opts.SettleDelay),
		chromedp.Location(&location),
		chromedp.OuterHTML("html", &markup, chromedp.ByQuery),
	)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) || errors.Is(tabCtx.Err(), context.DeadlineExceeded) {
			err = fmt.Errorf("%w: %w", repository.ErrNavigationTimeout, err)
		} else {
			err = fmt.Errorf("%w: %w", repository.ErrNavigationFailed, err)
		}
		return empty, &repository.FetchError{URL: target.URL, Err: err}
	}

	pageURL := target.URL
	if location != "" {
		if !f.opts.FollowRedirects && !sameDocument(location, target.URL) {
			return empty, &repository.FetchError{
				URL: target.URL,
				Err: fmt.Errorf("%w: landed on %s", repository.ErrRedirectBlocked, location),
			}
		}
		pageURL = location
	}

	page, err := ExtractContent(pageURL, markup)
	if err != nil {
		return empty, &repository.FetchError{URL: target.URL, Err: fmt.Errorf("%w: %w", repository.ErrExtractionFailed, err)}
	}
	page.RawMarkup = markup
	page.Depth = target.Depth
	page.FetchedAt = time.Now()
	if !f.opts.IncludeImages {
		page.Images = nil
	}

	f.logger.Debug("page fetched",
		zap.String("url", pageURL),
		zap.Int("depth", target.Depth),
		zap.Int("links", len(page.Links)),
		zap.Int("text_length", len(page.TextContent)),
	)
	return page, nil
}

// Close shuts the browser down. It is safe to call more than once.
func (f *BrowserFetcher) Close() error {
	f.closeOnce.Do(func() {
		f.closeErr = chromedp.Cancel(f.browserCtx)
		f.browserCancel()
		f.allocCancel()
		if errors.Is(f.closeErr, context.Canceled) {
			f.closeErr = nil
		}
	})
	return f.closeErr
}

func sameDocument(a, b string) bool {
	ca, errA := utils.CanonicalURL(a)
	cb, errB := utils.CanonicalURL(b)
	return errA == nil && errB == nil && ca == cb
}
