package parse

import (
	"fmt"
	"net/url"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"crawly/pkg/utils"
)

// ExtractLinks returns the href value of every anchor element in the
// document, in document order. Duplicates are kept; deduplication is the
// visited registry's job, not the extractor's.
func ExtractLinks(content string) ([]string, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(content))
	if err != nil {
		return nil, fmt.Errorf("%w: HTML document: %w", utils.ErrParsing, err)
	}

	var links []string
	doc.Find("a[href]").Each(func(_ int, sel *goquery.Selection) {
		href, _ := sel.Attr("href")
		href = strings.TrimSpace(href)
		if href != "" {
			links = append(links, href)
		}
	})
	return links, nil
}

// ResolveLink resolves href against base and reports whether the result is
// crawlable. Unparseable references and non-HTTP(S) schemes (mailto:,
// javascript:, tel:) are rejected.
func ResolveLink(base *url.URL, href string) (*url.URL, bool) {
	resolved, err := base.Parse(href)
	if err != nil {
		return nil, false
	}
	if resolved.Scheme != "http" && resolved.Scheme != "https" {
		return nil, false
	}
	if resolved.Hostname() == "" {
		return nil, false
	}
	return resolved, true
}
