package content

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/PuerkitoBio/goquery"
)

func docFromString(t *testing.T, html string) *goquery.Document {
	t.Helper()
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		t.Fatalf("failed to parse html: %v", err)
	}
	return doc
}

func TestPagerTemplate(t *testing.T) {
	doc := docFromString(t, `<div class="pager"><a href="/series/abc/chapters/2">2</a></div>`)
	template, ok := PagerTemplate(doc, ".pager a")
	if !ok {
		t.Fatalf("expected a pager template")
	}
	if template != "/series/abc/chapters/%d" {
		t.Fatalf("unexpected template %q", template)
	}

	// Trailing slash variant.
	doc = docFromString(t, `<div class="pager"><a href="/list/2/">2</a></div>`)
	template, ok = PagerTemplate(doc, ".pager a")
	if !ok || template != "/list/%d" {
		t.Fatalf("unexpected template %q (ok=%v)", template, ok)
	}
}

func TestPagerTemplateAbsent(t *testing.T) {
	doc := docFromString(t, `<div>no pager here</div>`)
	if _, ok := PagerTemplate(doc, ".pager a"); ok {
		t.Fatalf("single-page listing should yield no template")
	}

	// A pager link without a trailing page number is unusable.
	doc = docFromString(t, `<div class="pager"><a href="/series/abc">next</a></div>`)
	if _, ok := PagerTemplate(doc, ".pager a"); ok {
		t.Fatalf("link without page number should yield no template")
	}
}

func TestWalkPagesFollowsVerifiedLinks(t *testing.T) {
	var requests []string
	mux := http.NewServeMux()
	mux.HandleFunc("/list/", func(w http.ResponseWriter, r *http.Request) {
		requests = append(requests, r.URL.Path)
		switch r.URL.Path {
		case "/list/2":
			fmt.Fprint(w, `<span class="row">two</span><a href="/list/3">3</a>`)
		case "/list/3":
			fmt.Fprint(w, `<span class="row">three</span>`)
		default:
			http.NotFound(w, r)
		}
	})
	ts := httptest.NewServer(mux)
	defer ts.Close()

	firstDoc := docFromString(t, `<span class="row">one</span><a href="/list/2">2</a>`)
	fetcher := NewFetcher(0)

	var visited []string
	err := WalkPages(context.Background(), fetcher, firstDoc, ts.URL+"/list/%d", func(doc *goquery.Document) error {
		visited = append(visited, doc.Find(".row").Text())
		return nil
	})
	if err != nil {
		t.Fatalf("failed to walk pages: %v", err)
	}

	if len(visited) != 3 || visited[0] != "one" || visited[2] != "three" {
		t.Fatalf("unexpected visit order %v", visited)
	}
	// Page 3 links to no page 4, so no fourth request happens.
	if len(requests) != 2 {
		t.Fatalf("expected 2 fetches, got %v", requests)
	}
}

func TestWalkPagesStopsOnFetchFailure(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "boom", http.StatusInternalServerError)
	}))
	defer ts.Close()

	firstDoc := docFromString(t, `<span class="row">one</span><a href="/list/2">2</a>`)
	fetcher := NewFetcher(0)

	var visited []string
	err := WalkPages(context.Background(), fetcher, firstDoc, ts.URL+"/list/%d", func(doc *goquery.Document) error {
		visited = append(visited, doc.Find(".row").Text())
		return nil
	})
	if err != nil {
		t.Fatalf("a transient failure should not surface: %v", err)
	}
	if len(visited) != 1 {
		t.Fatalf("expected only the first page kept, got %v", visited)
	}
}

func TestWalkPagesCancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	firstDoc := docFromString(t, `<a href="/list/2">2</a>`)
	visits := 0
	err := WalkPages(ctx, NewFetcher(0), firstDoc, "/list/%d", func(doc *goquery.Document) error {
		visits++
		return nil
	})
	if err == nil {
		t.Fatalf("cancelled walk should return the context error")
	}
	// The already fetched first page is still visited.
	if visits != 1 {
		t.Fatalf("expected 1 visit, got %d", visits)
	}
}

func TestLinksToMatchesAbsoluteAndRelative(t *testing.T) {
	doc := docFromString(t, `<a href="https://site.example/list/2?order=new">next</a>`)
	if !linksTo(doc, "https://site.example/list/2?order=new") {
		t.Fatalf("absolute link should match")
	}
	if !linksTo(doc, "/list/2?order=new") {
		t.Fatalf("relative form should match the absolute href")
	}
	if linksTo(doc, "/list/3") {
		t.Fatalf("unexpected match for missing page")
	}
}
