package content

import (
	"context"
	"fmt"
	"log"
	"net/url"
	"regexp"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

var trailingPageNum = regexp.MustCompile(`(\d+)/?\s*$`)

// PagerTemplate derives a page-URL template from a listing's pager
// control. It takes the first link under pagerSelector and strips its
// trailing page-number token, returning a template with a %d slot. The
// second return is false when the document has no usable pager, i.e. the
// listing fits on one page.
func PagerTemplate(doc *goquery.Document, pagerSelector string) (string, bool) {
	href, ok := doc.Find(pagerSelector).First().Attr("href")
	if !ok || href == "" {
		return "", false
	}
	loc := trailingPageNum.FindStringIndex(href)
	if loc == nil {
		return "", false
	}
	return href[:loc[0]] + "%d", true
}

// WalkPages visits every page of a paginated listing. The first page is
// already fetched by the caller; subsequent page URLs are built from
// template, never taken from the pager's own links. Before fetching page
// n, the previous page's document must contain a hyperlink referencing
// page n's URL fragment; the walk stops as soon as that link is absent.
// Sites render "last page" markers too inconsistently to rely on.
//
// A transient fetch failure ends the walk but keeps what was already
// visited; a visit error on one page is logged and does not abort the
// remaining pages.
func WalkPages(ctx context.Context, fetcher *Fetcher, firstDoc *goquery.Document, template string, visit func(*goquery.Document) error) error {
	if err := visit(firstDoc); err != nil {
		return err
	}
	doc := firstDoc
	for page := 2; ; page++ {
		if err := ctx.Err(); err != nil {
			return err
		}
		pageURL := fmt.Sprintf(template, page)
		if !linksTo(doc, pageURL) {
			return nil
		}
		next, err := fetcher.Document(ctx, pageURL)
		if err != nil {
			log.Printf("page walk stopped at %s: %v", pageURL, err)
			return nil
		}
		if err := visit(next); err != nil {
			log.Printf("failed to parse listing page %s: %v", pageURL, err)
		}
		doc = next
	}
}

// linksTo reports whether the document hyperlinks to the given URL,
// matching on the path-relative fragment so absolute and relative hrefs
// both count.
func linksTo(doc *goquery.Document, pageURL string) bool {
	fragment := pageURL
	if u, err := url.Parse(pageURL); err == nil && u.Path != "" {
		fragment = u.Path
		if u.RawQuery != "" {
			fragment += "?" + u.RawQuery
		}
	}
	found := false
	doc.Find("a[href]").EachWithBreak(func(_ int, sel *goquery.Selection) bool {
		href, _ := sel.Attr("href")
		if strings.Contains(href, fragment) {
			found = true
			return false
		}
		return true
	})
	return found
}
