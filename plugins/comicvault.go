package plugins

import (
	"context"
	"fmt"
	"net/url"
	"time"

	"github.com/PuerkitoBio/goquery"

	"github.com/xgi/houdoku-sub000/content"
	"github.com/xgi/houdoku-sub000/model"
)

// ComicVaultID is the stable plugin identifier persisted with series.
const ComicVaultID = 2

// ComicVault talks to the comicvault JSON API. Unlike the scraped
// sources, its page-list endpoint reports the full page count in one
// request, so sizing happens on the first image fetch without a reader
// page round trip.
type ComicVault struct {
	fetcher *content.Fetcher
	apiURL  string
}

// NewComicVault returns the comicvault.to adapter.
func NewComicVault(fetcher *content.Fetcher) *ComicVault {
	return &ComicVault{fetcher: fetcher, apiURL: "https://api.comicvault.to"}
}

func (c *ComicVault) ID() int         { return ComicVaultID }
func (c *ComicVault) Name() string    { return "ComicVault" }
func (c *ComicVault) BaseURL() string { return "https://comicvault.to" }

type cvSearchResponse struct {
	Results []struct {
		Slug        string  `json:"slug"`
		Title       string  `json:"title"`
		CoverURL    string  `json:"cover_url"`
		LastChapter float64 `json:"last_chapter"`
		Description string  `json:"description"`
	} `json:"results"`
}

type cvComic struct {
	Slug        string   `json:"slug"`
	Title       string   `json:"title"`
	Author      string   `json:"author"`
	Artist      string   `json:"artist"`
	Status      string   `json:"status"`
	Language    string   `json:"lang"`
	Description string   `json:"description"`
	AltTitles   []string `json:"alt_titles"`
	Genres      []string `json:"genres"`
	Views       int      `json:"views"`
	Follows     int      `json:"follows"`
	Rating      float64  `json:"rating"`
	RatingCount int      `json:"rating_count"`
	CoverURL    string   `json:"cover_url"`
	// Latest releases shipped inline with the comic, for quick loads.
	LatestChapters []cvChapter `json:"latest_chapters"`
}

type cvChapter struct {
	Slug        string  `json:"slug"`
	Chap        float64 `json:"chap,string"`
	Vol         int     `json:"vol"`
	Title       string  `json:"title"`
	Lang        string  `json:"lang"`
	Group       string  `json:"group"`
	Views       int     `json:"views"`
	PublishedAt string  `json:"published_at"`
}

type cvChapterList struct {
	Data     []cvChapter `json:"data"`
	Page     int         `json:"page"`
	LastPage int         `json:"last_page"`
}

type cvPageList struct {
	PageCount int    `json:"page_count"`
	ImageBase string `json:"image_base"`
	ImageExt  string `json:"image_ext"`
}

// Search queries the search endpoint; the API links covers directly so
// no lazy cover lookup is needed for these results.
func (c *ComicVault) Search(ctx context.Context, query string) ([]content.SearchResult, error) {
	var resp cvSearchResponse
	searchURL := fmt.Sprintf("%s/v1/search?q=%s", c.apiURL, url.QueryEscape(query))
	if err := c.fetcher.GetJSON(ctx, searchURL, nil, &resp); err != nil {
		return nil, fmt.Errorf("failed to search comicvault: %w", err)
	}
	results := make([]content.SearchResult, 0, len(resp.Results))
	for _, r := range resp.Results {
		results = append(results, content.SearchResult{
			ContentSourceID: ComicVaultID,
			Source:          r.Slug,
			CoverURL:        r.CoverURL,
			Title:           r.Title,
			Details:         fmt.Sprintf("Latest: Ch. %g | %s", r.LastChapter, truncate(r.Description, 80)),
		})
	}
	return results, nil
}

// Series loads the comic record. Quick mode derives chapters from the
// latest-releases block inside the same response; full mode pages
// through the chapter endpoint.
func (c *ComicVault) Series(ctx context.Context, source string, quick bool) (*model.Series, error) {
	comic, err := c.comic(ctx, source)
	if err != nil {
		return nil, err
	}
	series := model.NewSeries(comic.Title, source, ComicVaultID, model.SeriesMetadata{
		Language:    comic.Language,
		Author:      comic.Author,
		Artist:      comic.Artist,
		Status:      parseStatus(comic.Status),
		AltNames:    comic.AltTitles,
		Description: comic.Description,
		Views:       comic.Views,
		Follows:     comic.Follows,
		Rating:      comic.Rating,
		RatingVotes: comic.RatingCount,
		Genres:      comic.Genres,
	})
	if comic.CoverURL != "" {
		series.SetCover(&model.Image{URL: comic.CoverURL})
	}

	var chapters []*model.Chapter
	if quick {
		chapters = c.convertChapters(comic.LatestChapters)
	} else {
		chapters, err = c.Chapters(ctx, series)
		if err != nil {
			return nil, err
		}
	}
	series.SetChapters(chapters)
	return series, nil
}

// Chapters pages through the chapter-list endpoint until its reported
// last page. A failed page is skipped, not fatal.
func (c *ComicVault) Chapters(ctx context.Context, series *model.Series) ([]*model.Chapter, error) {
	var all []*model.Chapter
	lastPage := 1
	for page := 1; page <= lastPage; page++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		var resp cvChapterList
		listURL := fmt.Sprintf("%s/v1/comic/%s/chapters?page=%d", c.apiURL, series.Source, page)
		if err := c.fetcher.GetJSON(ctx, listURL, nil, &resp); err != nil {
			if page == 1 {
				return nil, fmt.Errorf("failed to list chapters for %s: %w", series.Title, err)
			}
			continue
		}
		if resp.LastPage > lastPage {
			lastPage = resp.LastPage
		}
		all = append(all, c.convertChapters(resp.Data)...)
	}
	return all, nil
}

// ChaptersOnPage is an HTML-listing operation; this source is API-only.
func (c *ComicVault) ChaptersOnPage(context.Context, *model.Series, *goquery.Document) ([]*model.Chapter, error) {
	return nil, content.ErrNotImplemented
}

// Cover resolves the comic's cover URL and fetches it.
func (c *ComicVault) Cover(ctx context.Context, source string) (*model.Image, error) {
	comic, err := c.comic(ctx, source)
	if err != nil {
		return nil, err
	}
	if comic.CoverURL == "" {
		return nil, fmt.Errorf("no cover for %s", source)
	}
	return c.fetcher.Image(ctx, comic.CoverURL, c.BaseURL())
}

// Image resolves one page. The first call fetches the page list, sizes
// the chapter, and caches the CDN template; later calls are one request.
func (c *ComicVault) Image(ctx context.Context, chapter *model.Chapter, page int) (*model.Image, error) {
	template := chapter.ImageTemplate()
	if template == "" || !chapter.Sized() {
		var resp cvPageList
		pagesURL := fmt.Sprintf("%s/v1/chapter/%s", c.apiURL, chapter.Source)
		if err := c.fetcher.GetJSON(ctx, pagesURL, nil, &resp); err != nil {
			return nil, fmt.Errorf("failed to list pages for %s: %w", chapter.Title, err)
		}
		if resp.PageCount < 1 || resp.ImageBase == "" {
			return nil, fmt.Errorf("empty page list for %s", chapter.Title)
		}
		chapter.EnsurePageCount(resp.PageCount)
		ext := resp.ImageExt
		if ext == "" {
			ext = "png"
		}
		template = fmt.Sprintf("%s/%%d.%s", resp.ImageBase, ext)
		chapter.SetImageTemplate(template)
	}
	if page < 0 || page >= chapter.PageCount() {
		return nil, fmt.Errorf("page %d out of range for %s", page+1, chapter.Title)
	}
	return c.fetcher.Image(ctx, fmt.Sprintf(template, page+1), c.BaseURL())
}

func (c *ComicVault) comic(ctx context.Context, source string) (*cvComic, error) {
	var comic cvComic
	comicURL := fmt.Sprintf("%s/v1/comic/%s", c.apiURL, source)
	if err := c.fetcher.GetJSON(ctx, comicURL, nil, &comic); err != nil {
		return nil, fmt.Errorf("failed to load comic %s: %w", source, err)
	}
	if comic.Title == "" {
		return nil, fmt.Errorf("comic %s not found", source)
	}
	return &comic, nil
}

func (c *ComicVault) convertChapters(rows []cvChapter) []*model.Chapter {
	chapters := make([]*model.Chapter, 0, len(rows))
	for _, row := range rows {
		ch := model.NewChapter(row.Title, row.Slug, row.Chap)
		ch.VolumeNum = row.Vol
		ch.Language = model.NormalizeLanguage(row.Lang)
		ch.Group = row.Group
		ch.Views = row.Views
		if row.PublishedAt != "" {
			if t, err := time.Parse(time.RFC3339, row.PublishedAt); err == nil {
				ch.PublishedAt = t
			}
		}
		chapters = append(chapters, ch)
	}
	return chapters
}

// truncate cuts on rune boundaries so a multi-byte description is never
// split mid-sequence.
func truncate(s string, max int) string {
	runes := []rune(s)
	if len(runes) <= max {
		return s
	}
	return string(runes[:max]) + "…"
}
