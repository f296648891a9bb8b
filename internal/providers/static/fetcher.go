package static

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"jobwatch-go/internal/providers/common"
)

// PagePlaceholder in a target URL is replaced by the page number when more
// than one page is fetched.
const PagePlaceholder = "{page}"

const pageLimit = 4

// Fetcher downloads server-rendered listing pages and extracts titles with
// a CSS selector.
type Fetcher struct {
	client   *http.Client
	selector string
	pages    int
	timeout  time.Duration
}

func NewFetcher(client *http.Client, selector string, pages int, timeout time.Duration) *Fetcher {
	if pages < 1 {
		pages = 1
	}
	if timeout <= 0 {
		timeout = 15 * time.Second
	}
	return &Fetcher{client: client, selector: selector, pages: pages, timeout: timeout}
}

func (f *Fetcher) Source() string {
	return "http"
}

// Fetch returns titles in page order. A failure on any page fails the whole
// fetch so a partial listing is never mistaken for removals.
func (f *Fetcher) Fetch(ctx context.Context, target string) ([]string, error) {
	if f.pages == 1 || !strings.Contains(target, PagePlaceholder) {
		return f.fetchPage(ctx, pageURL(target, 1))
	}

	first, err := f.fetchPage(ctx, pageURL(target, 1))
	if err != nil {
		log.Printf("[http] failed on page 1: %v", err)
		return nil, err
	}
	log.Printf("[http] page 1/%d found %d items", f.pages, len(first))

	byPage := make([][]string, f.pages)
	byPage[0] = first

	group, gctx := errgroup.WithContext(ctx)
	group.SetLimit(pageLimit)

	var mu sync.Mutex
	for page := 2; page <= f.pages; page++ {
		page := page
		group.Go(func() error {
			titles, err := f.fetchPage(gctx, pageURL(target, page))
			if err != nil {
				log.Printf("[http] failed on page %d: %v", page, err)
				return fmt.Errorf("page %d: %w", page, err)
			}
			log.Printf("[http] page %d/%d found %d items", page, f.pages, len(titles))
			mu.Lock()
			byPage[page-1] = titles
			mu.Unlock()
			return nil
		})
	}
	if err := group.Wait(); err != nil {
		return nil, err
	}

	var titles []string
	for _, p := range byPage {
		titles = append(titles, p...)
	}
	return titles, nil
}

func (f *Fetcher) fetchPage(ctx context.Context, url string) ([]string, error) {
	reqCtx, cancel := context.WithTimeout(ctx, f.timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(reqCtx, http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("User-Agent", common.UserAgent)

	resp, err := f.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("unexpected status: %d", resp.StatusCode)
	}

	return common.ParseListings(resp.Body, f.selector)
}

func pageURL(target string, page int) string {
	return strings.ReplaceAll(target, PagePlaceholder, strconv.Itoa(page))
}
