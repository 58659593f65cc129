package model

import (
	"strings"
	"sync"
	"time"

	"golang.org/x/text/language"
)

// Chapter is one release of a Series. The page slice starts with a single
// sentinel slot because most sites only disclose the page count on the
// reader page itself; EnsurePageCount performs the one-time reallocation
// once a source has discovered the real count.
type Chapter struct {
	Series *Series

	Title       string
	Source      string
	ChapterNum  float64
	VolumeNum   int
	Language    string
	Group       string
	Views       int
	PublishedAt time.Time
	Read        bool

	mu             sync.Mutex
	images         []*Image
	sized          bool
	currentPageNum int
	imageTemplate  string
}

// NewChapter returns a chapter with an unsized page array (length 1).
func NewChapter(title, source string, chapterNum float64) *Chapter {
	return &Chapter{
		Title:      title,
		Source:     source,
		ChapterNum: chapterNum,
		images:     make([]*Image, 1),
	}
}

// NormalizeLanguage canonicalizes a site-reported language tag ("EN",
// "pt-br", ...) into its BCP-47 form. Unparseable tags are kept as-is.
func NormalizeLanguage(tag string) string {
	tag = strings.TrimSpace(tag)
	if tag == "" {
		return tag
	}
	parsed, err := language.Parse(tag)
	if err != nil {
		return tag
	}
	return parsed.String()
}

// PageCount returns the current length of the page array. Before sizing
// this is the sentinel value 1.
func (c *Chapter) PageCount() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.images)
}

// Sized reports whether the true page count has been discovered.
func (c *Chapter) Sized() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.sized
}

// EnsurePageCount transitions the page array from its unsized sentinel to
// the discovered count. The transition happens at most once; pages set
// before the transition are carried over, and later calls with a different
// count are ignored. Counts below 1 are rejected.
func (c *Chapter) EnsurePageCount(count int) {
	if count < 1 {
		return
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.sized {
		return
	}
	resized := make([]*Image, count)
	copy(resized, c.images)
	c.images = resized
	c.sized = true
	c.currentPageNum = clampPage(c.currentPageNum, count)
}

// SetPageImage stores the image for a zero-based page slot. Out-of-range
// slots are dropped rather than grown: sizing is EnsurePageCount's job.
func (c *Chapter) SetPageImage(page int, img *Image) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if page < 0 || page >= len(c.images) {
		return
	}
	c.images[page] = img
}

// PageImage returns the image in a zero-based page slot, or nil if the
// slot is out of range or not yet fetched.
func (c *Chapter) PageImage(page int) *Image {
	c.mu.Lock()
	defer c.mu.Unlock()
	if page < 0 || page >= len(c.images) {
		return nil
	}
	return c.images[page]
}

// CurrentPageNum returns the zero-based reading position.
func (c *Chapter) CurrentPageNum() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.currentPageNum
}

// SpecificPage moves the reading position to the one-based page n,
// clamped into [0, pageCount-1].
func (c *Chapter) SpecificPage(n int) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.currentPageNum = clampPage(n-1, len(c.images))
}

// DeltaPage moves the reading position by delta pages, with the same
// clamping as SpecificPage.
func (c *Chapter) DeltaPage(delta int) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.currentPageNum = clampPage(c.currentPageNum+delta, len(c.images))
}

// ClearImages frees all fetched pages and resets the chapter to its
// unsized state, position 0. Used when the reader closes a chapter.
func (c *Chapter) ClearImages() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.images = make([]*Image, 1)
	c.sized = false
	c.currentPageNum = 0
	c.imageTemplate = ""
}

// ImageTemplate returns the cached image URL template discovered on the
// first page fetch, or "" if none has been cached.
func (c *Chapter) ImageTemplate() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.imageTemplate
}

// SetImageTemplate caches an image URL template for subsequent single
// request page fetches. The cache lives and dies with the chapter.
func (c *Chapter) SetImageTemplate(template string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.imageTemplate = template
}

func clampPage(n, count int) int {
	if count < 1 {
		count = 1
	}
	if n < 0 {
		return 0
	}
	if n > count-1 {
		return count - 1
	}
	return n
}
