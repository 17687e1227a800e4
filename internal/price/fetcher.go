package price

import (
	"context"
	"os"
	"time"

	"github.com/chromedp/chromedp"
	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"

	"ticket-price-tracker/internal/types"
)

// TicketListSelector matches price-bearing rows once the ticket list has rendered.
const TicketListSelector = `ul[role="menu"] [data-price], [data-qa="ticket-list"] [data-price]`

// collectCandidatesJS returns every [data-price] element together with the
// closest enclosing anchor. An empty link is filled in by Extract.
const collectCandidatesJS = `Array.from(document.querySelectorAll('[data-price]')).map(el => {
	const anchor = el.closest('a');
	return {price: el.getAttribute('data-price') || '', link: anchor ? anchor.href : ''};
})`

// FetcherConfig configures the browser fetcher
type FetcherConfig struct {
	// NavigationTimeout bounds loading the page, Timeout bounds waiting
	// for the ticket list once it has loaded.
	NavigationTimeout time.Duration
	Timeout           time.Duration
	Headless          bool
	NoSandbox         bool
	DebugHTMLPath     string
}

// dumpGrace is the time left for capturing the page after the list wait expired.
const dumpGrace = 5 * time.Second

// BrowserFetcher renders ticket pages in headless Chrome.
type BrowserFetcher struct {
	Config FetcherConfig
}

// NewBrowserFetcher creates a fetcher. Navigation defaults to 30 seconds
// and the ticket list wait to 25 seconds.
func NewBrowserFetcher(c FetcherConfig) *BrowserFetcher {
	if c.NavigationTimeout <= 0 {
		c.NavigationTimeout = 30 * time.Second
	}
	if c.Timeout <= 0 {
		c.Timeout = 25 * time.Second
	}
	return &BrowserFetcher{Config: c}
}

// FetchQuote renders url and returns its cheapest listed price. Every
// failure is logged and reported as ok == false. The whole call, browser
// start and teardown included, is bounded by the configured timeouts.
func (f *BrowserFetcher) FetchQuote(ctx context.Context, url string) (types.Quote, bool) {
	ctx, cancel := context.WithTimeout(ctx, f.Config.NavigationTimeout+f.Config.Timeout+dumpGrace)
	defer cancel()

	opts := append(chromedp.DefaultExecAllocatorOptions[:], chromedp.Flag("headless", f.Config.Headless))
	if f.Config.NoSandbox {
		opts = append(opts, chromedp.NoSandbox)
	}
	allocCtx, cancelAlloc := chromedp.NewExecAllocator(ctx, opts...)
	defer cancelAlloc()

	tabCtx, cancelTab := chromedp.NewContext(allocCtx)
	defer cancelTab()

	logger := log.WithField("url", url)

	// The first Run starts the browser; it must not carry the navigation deadline.
	if err := chromedp.Run(tabCtx); err != nil {
		logger.Errorf("could not start browser: %v", err)
		return types.Quote{}, false
	}

	if err := f.navigate(tabCtx, url); err != nil {
		logger.Errorf("could not open ticket page: %v", err)
		return types.Quote{}, false
	}

	candidates, pageURL, err := f.collect(tabCtx)
	if err != nil {
		logger.Errorf("could not find ticket prices: %v", err)
		f.dumpPage(tabCtx)
		return types.Quote{}, false
	}
	if pageURL == "" {
		pageURL = url
	}

	quote, ok := Extract(candidates, pageURL)
	logger.WithFields(log.Fields{
		"candidates": len(candidates),
		"found":      ok,
	}).Debug("ticket page scraped")
	return quote, ok
}

func (f *BrowserFetcher) navigate(tabCtx context.Context, url string) error {
	navCtx, cancel := context.WithTimeout(tabCtx, f.Config.NavigationTimeout)
	defer cancel()

	return errors.Wrap(chromedp.Run(navCtx, chromedp.Navigate(url)), "navigation")
}

func (f *BrowserFetcher) collect(tabCtx context.Context) ([]types.Candidate, string, error) {
	waitCtx, cancel := context.WithTimeout(tabCtx, f.Config.Timeout)
	defer cancel()

	if err := chromedp.Run(waitCtx, chromedp.WaitReady(TicketListSelector, chromedp.ByQuery)); err != nil {
		return nil, "", errors.Wrap(err, "waiting for ticket list")
	}

	var (
		candidates []types.Candidate
		location   string
	)
	err := chromedp.Run(tabCtx,
		chromedp.Evaluate(collectCandidatesJS, &candidates),
		chromedp.Location(&location),
	)
	if err != nil {
		return nil, "", errors.Wrap(err, "reading price elements")
	}
	return candidates, location, nil
}

// dumpPage saves the rendered page so selector changes can be diagnosed offline.
func (f *BrowserFetcher) dumpPage(tabCtx context.Context) {
	if f.Config.DebugHTMLPath == "" {
		return
	}

	var html string
	if err := chromedp.Run(tabCtx, chromedp.OuterHTML("html", &html, chromedp.ByQuery)); err != nil {
		log.Errorf("could not capture page for debugging: %v", err)
		return
	}
	if err := os.WriteFile(f.Config.DebugHTMLPath, []byte(html), 0o644); err != nil {
		log.Errorf("could not write %s: %v", f.Config.DebugHTMLPath, err)
		return
	}
	log.Warnf("page HTML dumped to %s", f.Config.DebugHTMLPath)
}
