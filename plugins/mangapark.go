package plugins

import (
	"context"
	"fmt"
	"net/url"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"

	"github.com/xgi/houdoku-sub000/content"
	"github.com/xgi/houdoku-sub000/model"
)

// MangaParkID is the stable plugin identifier persisted with series.
const MangaParkID = 1

var (
	chapterNumRe = regexp.MustCompile(`(?i)(?:ch(?:apter)?\.?\s*)([0-9]+(?:\.[0-9]+)?)`)
	volumeNumRe  = regexp.MustCompile(`(?i)(?:vol(?:ume)?\.?\s*)([0-9]+)`)
	pageCountRe  = regexp.MustCompile(`(\d+)\s*(?:/|of)\s*(\d+)`)
	lastNumRe    = regexp.MustCompile(`(\d+)(?:\.\w+)?$`)
	votesRe      = regexp.MustCompile(`\((\d+)`)
)

// MangaPark scrapes mangapark.net. The chapter listing paginates, so
// full discovery goes through the verified page walk; the reader page
// discloses the page count, so chapters are sized on the first image
// fetch.
type MangaPark struct {
	fetcher *content.Fetcher
	baseURL string
}

// NewMangaPark returns the mangapark.net adapter.
func NewMangaPark(fetcher *content.Fetcher) *MangaPark {
	return &MangaPark{fetcher: fetcher, baseURL: "https://mangapark.net"}
}

func (m *MangaPark) ID() int         { return MangaParkID }
func (m *MangaPark) Name() string    { return "MangaPark" }
func (m *MangaPark) BaseURL() string { return m.baseURL }

// Search parses the site's search listing. Only the data present on the
// listing itself is returned; full series parsing stays out of here.
func (m *MangaPark) Search(ctx context.Context, query string) ([]content.SearchResult, error) {
	searchURL := fmt.Sprintf("%s/search?word=%s", m.baseURL, url.QueryEscape(query))
	doc, err := m.fetcher.Document(ctx, searchURL)
	if err != nil {
		return nil, fmt.Errorf("failed to search mangapark: %w", err)
	}

	var results []content.SearchResult
	doc.Find(".item").Each(func(_ int, sel *goquery.Selection) {
		titleSel := sel.Find("a.cover")
		source, _ := titleSel.Attr("href")
		title := strings.TrimSpace(titleSel.AttrOr("title", ""))
		if title == "" {
			title = strings.TrimSpace(sel.Find(".title a").Text())
		}
		if source == "" || title == "" {
			return
		}
		cover, _ := sel.Find("img").Attr("src")
		details := strings.TrimSpace(sel.Find(".genres").Text())
		if latest := strings.TrimSpace(sel.Find(".visited").First().Text()); latest != "" {
			if details != "" {
				details += " | "
			}
			details += latest
		}
		results = append(results, content.SearchResult{
			ContentSourceID: MangaParkID,
			Source:          source,
			CoverURL:        absoluteURL(m.baseURL, cover),
			Title:           title,
			Details:         details,
		})
	})
	return results, nil
}

// Series parses a series page. Quick mode keeps the chapter list to what
// the single response shows; otherwise the paginated listing is walked
// in full.
func (m *MangaPark) Series(ctx context.Context, source string, quick bool) (*model.Series, error) {
	doc, err := m.fetcher.Document(ctx, absoluteURL(m.baseURL, source))
	if err != nil {
		return nil, fmt.Errorf("failed to load series %s: %w", source, err)
	}
	if doc.Find(".blocked-notice").Length() > 0 {
		return nil, &content.UnavailableError{Message: strings.TrimSpace(doc.Find(".blocked-notice").Text())}
	}

	title := strings.TrimSpace(doc.Find("h2.manga-name").First().Text())
	if title == "" {
		return nil, fmt.Errorf("no title found on series page %s", source)
	}

	meta := model.SeriesMetadata{
		Description: strings.TrimSpace(doc.Find(".summary .content").Text()),
	}
	doc.Find(".attr-list .attr").Each(func(_ int, sel *goquery.Selection) {
		label := strings.ToLower(strings.TrimSpace(sel.Find("b").Text()))
		value := strings.TrimSpace(sel.Find("span").Text())
		switch {
		case strings.HasPrefix(label, "author"):
			meta.Author = value
		case strings.HasPrefix(label, "artist"):
			meta.Artist = value
		case strings.HasPrefix(label, "language"):
			meta.Language = value
		case strings.HasPrefix(label, "status"):
			meta.Status = parseStatus(value)
		case strings.HasPrefix(label, "alternative"):
			meta.AltNames = splitTrim(value, ";")
		case strings.HasPrefix(label, "genre"):
			meta.Genres = splitTrim(value, ",")
		case strings.HasPrefix(label, "views"):
			meta.Views = parseCount(value)
		case strings.HasPrefix(label, "follows"):
			meta.Follows = parseCount(value)
		case strings.HasPrefix(label, "rating"):
			meta.Rating, meta.RatingVotes = parseRating(value)
		}
	})

	series := model.NewSeries(title, source, MangaParkID, meta)
	if coverURL, ok := doc.Find(".manga-cover img").Attr("src"); ok {
		series.SetCover(&model.Image{URL: absoluteURL(m.baseURL, coverURL)})
	}

	var chapters []*model.Chapter
	if quick {
		chapters, err = m.ChaptersOnPage(ctx, series, doc)
	} else {
		chapters, err = m.chaptersFromListing(ctx, series, doc)
	}
	if err != nil {
		return nil, err
	}
	series.SetChapters(chapters)
	return series, nil
}

// Chapters walks the full, possibly paginated chapter listing.
func (m *MangaPark) Chapters(ctx context.Context, series *model.Series) ([]*model.Chapter, error) {
	doc, err := m.fetcher.Document(ctx, absoluteURL(m.baseURL, series.Source))
	if err != nil {
		return nil, fmt.Errorf("failed to load chapter listing for %s: %w", series.Title, err)
	}
	return m.chaptersFromListing(ctx, series, doc)
}

func (m *MangaPark) chaptersFromListing(ctx context.Context, series *model.Series, doc *goquery.Document) ([]*model.Chapter, error) {
	template, ok := content.PagerTemplate(doc, ".pager a")
	if !ok {
		return m.ChaptersOnPage(ctx, series, doc)
	}
	var chapters []*model.Chapter
	err := content.WalkPages(ctx, m.fetcher, doc, absoluteURL(m.baseURL, template), func(page *goquery.Document) error {
		parsed, err := m.ChaptersOnPage(ctx, series, page)
		if err != nil {
			return err
		}
		// no de-duplication: a chapter listed twice may be two scanlations
		chapters = append(chapters, parsed...)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return chapters, nil
}

// ChaptersOnPage parses the chapter rows present on one listing page.
func (m *MangaPark) ChaptersOnPage(_ context.Context, _ *model.Series, doc *goquery.Document) ([]*model.Chapter, error) {
	var chapters []*model.Chapter
	doc.Find(".chapter-list li").Each(func(_ int, sel *goquery.Selection) {
		link := sel.Find("a.chapter-link")
		source, _ := link.Attr("href")
		if source == "" {
			return
		}
		text := strings.TrimSpace(link.Text())
		ch := model.NewChapter(text, source, parseChapterNum(text))
		if match := volumeNumRe.FindStringSubmatch(text); match != nil {
			ch.VolumeNum, _ = strconv.Atoi(match[1])
		}
		ch.Language = model.NormalizeLanguage(sel.AttrOr("data-lang", "en"))
		ch.Group = strings.TrimSpace(sel.Find(".group").Text())
		ch.Views = parseCount(sel.Find(".views").Text())
		if stamp := sel.Find("time").AttrOr("datetime", ""); stamp != "" {
			if t, err := time.Parse(time.RFC3339, stamp); err == nil {
				ch.PublishedAt = t
			}
		}
		chapters = append(chapters, ch)
	})
	return chapters, nil
}

// Cover re-fetches the series page to resolve a cover that the search
// listing did not link directly.
func (m *MangaPark) Cover(ctx context.Context, source string) (*model.Image, error) {
	doc, err := m.fetcher.Document(ctx, absoluteURL(m.baseURL, source))
	if err != nil {
		return nil, err
	}
	coverURL, ok := doc.Find(".manga-cover img").Attr("src")
	if !ok {
		return nil, fmt.Errorf("no cover found for %s", source)
	}
	return m.fetcher.Image(ctx, absoluteURL(m.baseURL, coverURL), m.baseURL)
}

// Image resolves one page. The first fetch for a chapter goes through
// the reader page to learn the page count and the CDN URL pattern; once
// a template is cached, later pages are a single image request.
func (m *MangaPark) Image(ctx context.Context, chapter *model.Chapter, page int) (*model.Image, error) {
	if template := chapter.ImageTemplate(); template != "" && chapter.Sized() {
		return m.fetcher.Image(ctx, fmt.Sprintf(template, page+1), m.baseURL)
	}

	readerURL := fmt.Sprintf("%s/%d", absoluteURL(m.baseURL, chapter.Source), page+1)
	doc, err := m.fetcher.Document(ctx, readerURL)
	if err != nil {
		return nil, fmt.Errorf("failed to load reader page for %s: %w", chapter.Title, err)
	}
	if doc.Find(".blocked-notice").Length() > 0 {
		return nil, &content.UnavailableError{Message: strings.TrimSpace(doc.Find(".blocked-notice").Text())}
	}

	if count, ok := parsePageCount(doc); ok {
		chapter.EnsurePageCount(count)
	}

	imgURL, ok := doc.Find("img.reader-image").Attr("src")
	if !ok {
		return nil, fmt.Errorf("no page image on reader page for %s", chapter.Title)
	}
	imgURL = absoluteURL(m.baseURL, imgURL)

	if template, ok := imageTemplate(imgURL, page+1); ok {
		chapter.SetImageTemplate(template)
	}
	return m.fetcher.Image(ctx, imgURL, m.baseURL)
}

// parsePageCount reads the site's own "n / total" indicator, falling
// back to the page-select option count.
func parsePageCount(doc *goquery.Document) (int, bool) {
	indicator := strings.TrimSpace(doc.Find(".page-indicator").Text())
	if match := pageCountRe.FindStringSubmatch(indicator); match != nil {
		if count, err := strconv.Atoi(match[2]); err == nil && count > 0 {
			return count, true
		}
	}
	if options := doc.Find("select.page-select option").Length(); options > 0 {
		return options, true
	}
	return 0, false
}

// imageTemplate turns a concrete page URL into a %d template when the
// URL embeds the page number as its trailing numeric token.
func imageTemplate(imgURL string, page int) (string, bool) {
	loc := lastNumRe.FindStringSubmatchIndex(imgURL)
	if loc == nil {
		return "", false
	}
	if imgURL[loc[2]:loc[3]] != strconv.Itoa(page) {
		return "", false
	}
	return imgURL[:loc[2]] + "%d" + imgURL[loc[3]:], true
}

func parseChapterNum(text string) float64 {
	if match := chapterNumRe.FindStringSubmatch(text); match != nil {
		if num, err := strconv.ParseFloat(match[1], 64); err == nil {
			return num
		}
	}
	return 0
}

func parseStatus(value string) model.SeriesStatus {
	switch strings.ToLower(strings.TrimSpace(value)) {
	case "ongoing", "releasing":
		return model.StatusOngoing
	case "completed", "finished":
		return model.StatusCompleted
	case "hiatus", "on hiatus":
		return model.StatusHiatus
	case "cancelled", "canceled":
		return model.StatusCancelled
	default:
		return model.StatusUnknown
	}
}

func parseRating(value string) (float64, int) {
	fields := strings.Fields(value)
	if len(fields) == 0 {
		return 0, 0
	}
	rating, _ := strconv.ParseFloat(fields[0], 64)
	votes := 0
	if match := votesRe.FindStringSubmatch(value); match != nil {
		votes, _ = strconv.Atoi(match[1])
	}
	return rating, votes
}

func parseCount(value string) int {
	value = strings.ToLower(strings.TrimSpace(value))
	value = strings.ReplaceAll(value, ",", "")
	multiplier := 1.0
	switch {
	case strings.HasSuffix(value, "k"):
		multiplier = 1_000
		value = strings.TrimSuffix(value, "k")
	case strings.HasSuffix(value, "m"):
		multiplier = 1_000_000
		value = strings.TrimSuffix(value, "m")
	}
	num, err := strconv.ParseFloat(value, 64)
	if err != nil {
		return 0
	}
	return int(num * multiplier)
}

func splitTrim(value, sep string) []string {
	var out []string
	for _, part := range strings.Split(value, sep) {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

func absoluteURL(base, href string) string {
	if href == "" || strings.HasPrefix(href, "http") {
		return href
	}
	return base + "/" + strings.TrimPrefix(href, "/")
}
