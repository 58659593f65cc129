package plugins

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/xgi/houdoku-sub000/content"
	"github.com/xgi/houdoku-sub000/model"
)

func testVault(ts *httptest.Server) *ComicVault {
	return &ComicVault{fetcher: content.NewFetcher(0), apiURL: ts.URL}
}

func TestComicVaultSearch(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/v1/search" || r.URL.Query().Get("q") != "vinland" {
			http.NotFound(w, r)
			return
		}
		fmt.Fprint(w, `{"results":[
			{"slug":"vinland-saga","title":"Vinland Saga","cover_url":"https://cdn.example/vs.jpg","last_chapter":200,"description":"Vikings."}
		]}`)
	}))
	defer ts.Close()

	results, err := testVault(ts).Search(context.Background(), "vinland")
	if err != nil {
		t.Fatalf("failed to search: %v", err)
	}
	if len(results) != 1 {
		t.Fatalf("expected 1 result, got %d", len(results))
	}
	r := results[0]
	if r.Source != "vinland-saga" || r.CoverURL != "https://cdn.example/vs.jpg" {
		t.Fatalf("unexpected result %+v", r)
	}
}

func TestComicVaultSeriesFull(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/v1/comic/vinland-saga", func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{
			"slug":"vinland-saga","title":"Vinland Saga","author":"Makoto Yukimura",
			"status":"ongoing","lang":"en","genres":["Action"],"views":9000,
			"cover_url":"https://cdn.example/vs.jpg",
			"latest_chapters":[{"slug":"vs-200","chap":"200","lang":"en"}]
		}`)
	})
	mux.HandleFunc("/v1/comic/vinland-saga/chapters", func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Query().Get("page") {
		case "1":
			fmt.Fprint(w, `{"data":[{"slug":"vs-2","chap":"2","title":"Two","lang":"en","published_at":"2020-01-02T00:00:00Z"}],"page":1,"last_page":2}`)
		case "2":
			fmt.Fprint(w, `{"data":[{"slug":"vs-1","chap":"1","title":"One","lang":"en"}],"page":2,"last_page":2}`)
		default:
			http.NotFound(w, r)
		}
	})
	ts := httptest.NewServer(mux)
	defer ts.Close()

	series, err := testVault(ts).Series(context.Background(), "vinland-saga", false)
	if err != nil {
		t.Fatalf("failed to load series: %v", err)
	}
	meta := series.Metadata()
	if meta.Author != "Makoto Yukimura" || meta.Status != model.StatusOngoing {
		t.Fatalf("unexpected metadata %q / %q", meta.Author, meta.Status)
	}
	if series.NumChapters() != 2 {
		t.Fatalf("expected chapters from both API pages, got %d", series.NumChapters())
	}
	if series.Chapters()[0].ChapterNum != 2 {
		t.Fatalf("chapters should be sorted descending, got %v first", series.Chapters()[0].ChapterNum)
	}
}

func TestComicVaultSeriesQuick(t *testing.T) {
	var chapterListHits int
	mux := http.NewServeMux()
	mux.HandleFunc("/v1/comic/vinland-saga", func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"slug":"vinland-saga","title":"Vinland Saga",
			"latest_chapters":[{"slug":"vs-200","chap":"200.5","lang":"en"}]}`)
	})
	mux.HandleFunc("/v1/comic/vinland-saga/chapters", func(w http.ResponseWriter, r *http.Request) {
		chapterListHits++
		fmt.Fprint(w, `{"data":[],"page":1,"last_page":1}`)
	})
	ts := httptest.NewServer(mux)
	defer ts.Close()

	series, err := testVault(ts).Series(context.Background(), "vinland-saga", true)
	if err != nil {
		t.Fatalf("failed to load series: %v", err)
	}
	if chapterListHits != 0 {
		t.Fatalf("quick load must not hit the chapter endpoint")
	}
	if series.NumChapters() != 1 || series.Chapters()[0].ChapterNum != 200.5 {
		t.Fatalf("expected the inline latest chapter, got %d", series.NumChapters())
	}
}

func TestComicVaultSeriesNotFound(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{}`)
	}))
	defer ts.Close()

	if _, err := testVault(ts).Series(context.Background(), "missing", true); err == nil {
		t.Fatalf("empty comic record should be an error")
	}
}

func TestComicVaultImage(t *testing.T) {
	var cdnHits []string
	mux := http.NewServeMux()
	mux.HandleFunc("/v1/chapter/vs-1", func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprintf(w, `{"page_count":8,"image_base":"%s/cdn/vs-1","image_ext":"jpg"}`, "http://"+r.Host)
	})
	mux.HandleFunc("/cdn/vs-1/", func(w http.ResponseWriter, r *http.Request) {
		cdnHits = append(cdnHits, r.URL.Path)
		w.Write([]byte("jpgbytes"))
	})
	ts := httptest.NewServer(mux)
	defer ts.Close()

	vault := testVault(ts)
	chapter := model.NewChapter("One", "vs-1", 1)

	img, err := vault.Image(context.Background(), chapter, 0)
	if err != nil {
		t.Fatalf("failed to load page: %v", err)
	}
	if img.Ext != "jpg" || string(img.Data) != "jpgbytes" {
		t.Fatalf("unexpected image %+v", img)
	}
	if !chapter.Sized() || chapter.PageCount() != 8 {
		t.Fatalf("chapter should be sized to 8, got %d", chapter.PageCount())
	}

	if _, err := vault.Image(context.Background(), chapter, 7); err != nil {
		t.Fatalf("failed to load last page: %v", err)
	}
	if len(cdnHits) != 2 || cdnHits[1] != "/cdn/vs-1/8.jpg" {
		t.Fatalf("unexpected CDN hits %v", cdnHits)
	}

	// Past the discovered count is a caller bug, not a fetch.
	if _, err := vault.Image(context.Background(), chapter, 8); err == nil {
		t.Fatalf("out-of-range page should fail")
	}
}

func TestTruncateKeepsRunesIntact(t *testing.T) {
	if got := truncate("short", 80); got != "short" {
		t.Fatalf("short strings must pass through, got %q", got)
	}
	long := strings.Repeat("漫", 100)
	got := truncate(long, 80)
	if !utf8.ValidString(got) {
		t.Fatalf("truncation split a rune: %q", got)
	}
	if got != strings.Repeat("漫", 80)+"…" {
		t.Fatalf("unexpected truncation %q", got)
	}
}

func TestComicVaultChaptersOnPage(t *testing.T) {
	vault := &ComicVault{}
	_, err := vault.ChaptersOnPage(context.Background(), nil, nil)
	if !errors.Is(err, content.ErrNotImplemented) {
		t.Fatalf("expected ErrNotImplemented, got %v", err)
	}
}
