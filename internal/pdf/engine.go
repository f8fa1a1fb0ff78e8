package pdf

import (
	"context"
	"errors"
	"time"

	"github.com/chromedp/cdproto/page"
	"github.com/chromedp/chromedp"

	"github.com/diewo77/billing-core/internal/apperr"
)

// A4 at 0.5in margins on all sides, backgrounds preserved.
const (
	paperWidthInches  = 8.27
	paperHeightInches = 11.69
	marginInches      = 0.5

	defaultTimeout = 30 * time.Second
)

// Engine converts a rendered HTML document into a paginated PDF byte
// stream. Implementations own the rendering process for the duration of
// one call and must release it on every exit path.
type Engine interface {
	RenderPDF(ctx context.Context, html string) ([]byte, error)
}

// ChromeEngine drives a headless Chrome instance through the DevTools
// protocol. Every call launches its own browser subprocess; nothing is
// pooled or shared, trading throughput for isolation and guaranteed
// cleanup.
type ChromeEngine struct {
	// Timeout bounds content load and PDF extraction; zero means the
	// default of 30s.
	Timeout time.Duration
}

func (e *ChromeEngine) RenderPDF(ctx context.Context, html string) ([]byte, error) {
	timeout := e.Timeout
	if timeout <= 0 {
		timeout = defaultTimeout
	}

	// The deferred cancels tear the browser subprocess down on success,
	// timeout, and crash alike. This is the resource-lifetime contract of
	// the whole pipeline; do not hoist these into a shared instance.
	allocCtx, cancelAlloc := chromedp.NewExecAllocator(ctx, chromedp.DefaultExecAllocatorOptions[:]...)
	defer cancelAlloc()
	browserCtx, cancelBrowser := chromedp.NewContext(allocCtx)
	defer cancelBrowser()
	runCtx, cancelRun := context.WithTimeout(browserCtx, timeout)
	defer cancelRun()

	var buf []byte
	err := chromedp.Run(runCtx,
		chromedp.Navigate("about:blank"),
		// Load the document as content, not by URL.
		chromedp.ActionFunc(func(ctx context.Context) error {
			frameTree, err := page.GetFrameTree().Do(ctx)
			if err != nil {
				return err
			}
			return page.SetDocumentContent(frameTree.Frame.ID, html).Do(ctx)
		}),
		chromedp.WaitReady("body", chromedp.ByQuery),
		chromedp.ActionFunc(func(ctx context.Context) error {
			var err error
			buf, _, err = page.PrintToPDF().
				WithPrintBackground(true).
				WithPaperWidth(paperWidthInches).
				WithPaperHeight(paperHeightInches).
				WithMarginTop(marginInches).
				WithMarginBottom(marginInches).
				WithMarginLeft(marginInches).
				WithMarginRight(marginInches).
				Do(ctx)
			return err
		}),
	)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			return nil, apperr.Wrap(err, apperr.KindRender,
				"rendering engine timed out after %s", timeout)
		}
		return nil, apperr.Wrap(err, apperr.KindRender, "rendering engine failed")
	}
	return buf, nil
}
