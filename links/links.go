// Package links extracts anchor hrefs from raw HTML.
package links

import (
	"net/url"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

// ExtractAnchors parses the raw HTML and returns the absolute href of every
// anchor, in document order. Relative hrefs are resolved against baseURL,
// fragments are stripped, non-http(s) schemes are dropped, and duplicates
// are removed.
func ExtractAnchors(rawHTML string, baseURL string) []string {
	base, err := url.Parse(baseURL)
	if err != nil {
		return nil
	}

	doc, err := goquery.NewDocumentFromReader(strings.NewReader(rawHTML))
	if err != nil {
		return nil
	}

	var anchors []string
	seen := make(map[string]struct{})
	doc.Find("a[href]").Each(func(_ int, s *goquery.Selection) {
		href, exists := s.Attr("href")
		if !exists || href == "" {
			return
		}

		resolved, err := base.Parse(href)
		if err != nil {
			return
		}

		// Skip javascript:, mailto:, tel: etc.
		if resolved.Scheme != "http" && resolved.Scheme != "https" {
			return
		}

		// Truncate anchors (eg. example.com/page#section).
		resolved.Fragment = ""

		absURL := resolved.String()
		if _, ok := seen[absURL]; ok {
			return
		}
		seen[absURL] = struct{}{}

		anchors = append(anchors, absURL)
	})

	return anchors
}
