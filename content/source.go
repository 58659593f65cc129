// Package content defines the capability contracts every site adapter
// implements, plus the shared fetching and pagination machinery they
// build on. Adapters normalize heterogeneous external sites into the
// domain model; everything above this package is site-agnostic.
package content

import (
	"context"

	"github.com/PuerkitoBio/goquery"

	"github.com/xgi/houdoku-sub000/model"
)

// SearchResult is the loosely-structured row a source returns from a
// cheap search: enough to display and to load the full series later.
// CoverURL may be empty, in which case the caller falls back to Cover.
type SearchResult struct {
	ContentSourceID int
	Source          string
	CoverURL        string
	Title           string
	Details         string
}

// ContentSource adapts one external site. Implementations identify
// themselves with a stable ID and must be safe for concurrent use: the
// loader runs their operations from independent goroutines.
//
// Any operation may fail with a plain (transient) error, with
// ErrNotImplemented for a capability the site adapter lacks, or with
// *UnavailableError when the site blocks the content.
type ContentSource interface {
	// ID is the stable plugin identifier referenced by persisted series.
	ID() int
	Name() string
	BaseURL() string

	// Search runs a cheap query. It must not perform full series parsing;
	// covers are fetched lazily afterward, one at a time.
	Search(ctx context.Context, query string) ([]SearchResult, error)

	// Series fetches and parses a series page. With quick set, the chapter
	// list is derived from the single series-page response; otherwise the
	// adapter may issue extra requests for the complete paginated list.
	// Either way chapters are installed via Series.SetChapters.
	Series(ctx context.Context, source string, quick bool) (*model.Series, error)

	// Chapters performs full, possibly multi-request chapter discovery.
	Chapters(ctx context.Context, series *model.Series) ([]*model.Chapter, error)

	// ChaptersOnPage parses only the chapters present on one already
	// fetched document; completeness is not guaranteed. API-backed sources
	// without an HTML listing return ErrNotImplemented.
	ChaptersOnPage(ctx context.Context, series *model.Series, doc *goquery.Document) ([]*model.Chapter, error)

	// Cover resolves a cover image for a search result that carried no
	// direct cover URL.
	Cover(ctx context.Context, source string) (*model.Image, error)

	// Image resolves one zero-based page of a chapter. The first call for
	// a chapter discovers the true page count from the site's own reader
	// response and sizes the chapter via EnsurePageCount before returning.
	Image(ctx context.Context, chapter *model.Chapter, page int) (*model.Image, error)
}

// InfoSource augments series with artwork from a metadata site not tied
// to any content source.
type InfoSource interface {
	ID() int
	Name() string

	// Banner looks up banner art for a series title, nil when the site
	// knows nothing under that title.
	Banner(ctx context.Context, title string) (*model.Image, error)
}

// Tracker syncs reading progress against an external list service.
// Operations other than AuthURL and Authenticate fail with
// *NotAuthenticatedError until a token has been obtained.
type Tracker interface {
	ID() int
	Name() string

	// AuthURL is the URL the user visits to obtain an access code.
	AuthURL() string
	// Authenticate exchanges the user-supplied code for a token.
	Authenticate(ctx context.Context, code string) error
	IsAuthenticated() bool

	// Search finds candidate tracker entries for a series title.
	Search(ctx context.Context, title string) ([]model.Track, error)
	// GetTrack reads the user's list entry for a tracker series ID,
	// nil when the series is not on the user's list yet.
	GetTrack(ctx context.Context, seriesID string) (*model.Track, error)
	// UpdateProgress writes the chapters-read count and returns the
	// resulting entry.
	UpdateProgress(ctx context.Context, track model.Track) (*model.Track, error)
	// UpdateStatus writes the reading status and returns the resulting
	// entry.
	UpdateStatus(ctx context.Context, track model.Track) (*model.Track, error)
}
