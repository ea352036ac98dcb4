package chromedp_crawler

import (
	"context"
	"fmt"
	"sync"

	"github.com/chromedp/cdproto/cdp"
	"github.com/chromedp/cdproto/page"
	"github.com/chromedp/chromedp"
)

const lifecycleDOMContentLoaded = "DOMContentLoaded"

// domReadyWatcher records which loaders have reached DOMContentLoaded.
// Events arrive on chromedp's event goroutine, possibly before the
// navigation that owns the loader has returned.
type domReadyWatcher struct {
	mu     sync.Mutex
	ready  map[cdp.LoaderID]bool
	notify chan struct{}
}

func newDOMReadyWatcher() *domReadyWatcher {
	return &domReadyWatcher{
		ready:  make(map[cdp.LoaderID]bool),
		notify: make(chan struct{}, 1),
	}
}

// handle is a chromedp target listener. It must not block.
func (w *domReadyWatcher) handle(ev any) {
	lc, ok := ev.(*page.EventLifecycleEvent)
	if !ok || lc.Name != lifecycleDOMContentLoaded {
		return
	}
	w.mu.Lock()
	w.ready[lc.LoaderID] = true
	w.mu.Unlock()

	select {
	case w.notify <- struct{}{}:
	default:
	}
}

func (w *domReadyWatcher) isReady(loaderID cdp.LoaderID) bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.ready[loaderID]
}

// wait blocks until loaderID's document is parsed or ctx is done.
func (w *domReadyWatcher) wait(ctx context.Context, loaderID cdp.LoaderID) error {
	for !w.isReady(loaderID) {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-w.notify:
		}
	}
	return nil
}

// navigateDOMReady navigates the tab and returns once the new document's
// DOM is parsed. Unlike chromedp.Navigate it does not wait for the load
// event, so stalled images or third-party scripts cannot hold it up.
func navigateDOMReady(urlstr string, w *domReadyWatcher) chromedp.Action {
	return chromedp.ActionFunc(func(ctx context.Context) error {
		_, loaderID, errorText, _, err := page.Navigate(urlstr).Do(ctx)
		switch {
		case err != nil:
			return err
		case errorText != "":
			return fmt.Errorf("page load error %s", errorText)
		case loaderID == "":
			// Same-document navigation; nothing new to parse.
			return nil
		}
		return w.wait(ctx, loaderID)
	})
}
