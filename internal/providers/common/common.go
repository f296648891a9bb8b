package common

import (
	"fmt"
	"io"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

const (
	DefaultSelector = ".jss-g13"
	UserAgent       = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36"
)

// ExtractListings returns the trimmed text of every element matching
// selector, in document order. Blank matches are dropped.
func ExtractListings(doc *goquery.Document, selector string) []string {
	if selector == "" {
		selector = DefaultSelector
	}
	var titles []string
	doc.Find(selector).Each(func(_ int, s *goquery.Selection) {
		if text := collapseSpace(s.Text()); text != "" {
			titles = append(titles, text)
		}
	})
	return titles
}

func ParseListings(r io.Reader, selector string) ([]string, error) {
	doc, err := goquery.NewDocumentFromReader(r)
	if err != nil {
		return nil, fmt.Errorf("html parse error: %w", err)
	}
	return ExtractListings(doc, selector), nil
}

// collapseSpace joins text split across nested inline elements.
func collapseSpace(text string) string {
	return strings.Join(strings.Fields(text), " ")
}
