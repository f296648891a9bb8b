package browser

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/launcher"
	"github.com/go-rod/stealth"

	"jobwatch-go/internal/providers/common"
)

type Config struct {
	// RemoteURL is the DevTools WebSocket URL of an already running Chrome.
	// Empty launches a local headless Chrome for every fetch.
	RemoteURL string
	Selector  string
	// Wait bounds how long the page may take to render the first listing.
	Wait time.Duration
	// NavigationTimeout bounds page load. Default: 30s.
	NavigationTimeout time.Duration
}

func (c *Config) defaults() {
	if c.Selector == "" {
		c.Selector = common.DefaultSelector
	}
	if c.Wait <= 0 {
		c.Wait = 10 * time.Second
	}
	if c.NavigationTimeout <= 0 {
		c.NavigationTimeout = 30 * time.Second
	}
}

// Fetcher renders the target in Chrome, waits for the listing selector and
// extracts titles from the rendered DOM.
type Fetcher struct {
	cfg Config
}

func NewFetcher(cfg Config) *Fetcher {
	cfg.defaults()
	return &Fetcher{cfg: cfg}
}

func (f *Fetcher) Source() string {
	return "browser"
}

func (f *Fetcher) Fetch(ctx context.Context, target string) ([]string, error) {
	b, cleanup, err := f.connect()
	if err != nil {
		return nil, err
	}
	defer cleanup()

	page, err := stealth.Page(b)
	if err != nil {
		return nil, fmt.Errorf("browser: create tab: %w", err)
	}
	defer page.Close()

	navCtx, cancel := context.WithTimeout(ctx, f.cfg.NavigationTimeout)
	defer cancel()

	if err := page.Context(navCtx).Navigate(target); err != nil {
		return nil, fmt.Errorf("browser: navigate %s: %w", target, err)
	}
	if err := page.Context(navCtx).WaitLoad(); err != nil {
		log.Printf("[browser] wait load: %v", err)
	}

	waitCtx, cancelWait := context.WithTimeout(ctx, f.cfg.Wait)
	defer cancelWait()

	if _, err := page.Context(waitCtx).Element(f.cfg.Selector); err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			return nil, fmt.Errorf("browser: no %q element within %s", f.cfg.Selector, f.cfg.Wait)
		}
		return nil, fmt.Errorf("browser: wait for %q: %w", f.cfg.Selector, err)
	}

	html, err := page.Context(ctx).HTML()
	if err != nil {
		return nil, fmt.Errorf("browser: get DOM: %w", err)
	}

	return common.ParseListings(strings.NewReader(html), f.cfg.Selector)
}

func (f *Fetcher) connect() (*rod.Browser, func(), error) {
	wsURL := f.cfg.RemoteURL
	var lnch *launcher.Launcher
	if wsURL == "" {
		lnch = launcher.New().
			Headless(true).
			Set("disable-blink-features", "AutomationControlled")
		u, err := lnch.Launch()
		if err != nil {
			return nil, nil, fmt.Errorf("browser: launch: %w", err)
		}
		wsURL = u
	}

	b := rod.New().ControlURL(wsURL)
	if err := b.Connect(); err != nil {
		if lnch != nil {
			lnch.Kill()
		}
		return nil, nil, fmt.Errorf("browser: connect: %w", err)
	}

	cleanup := func() {
		if lnch == nil {
			return
		}
		if err := b.Close(); err != nil {
			log.Printf("[browser] close: %v", err)
		}
		lnch.Kill()
		lnch.Cleanup()
	}
	return b, cleanup, nil
}
