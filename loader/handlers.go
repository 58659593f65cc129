package loader

import (
	"github.com/xgi/houdoku-sub000/content"
	"github.com/xgi/houdoku-sub000/model"
)

// The handler interfaces are the loader's only view of the consumers.
// Every hook must be safe to call from a background goroutine; consumers
// typically forward into their own event loop. No-op implementations are
// provided for consumers that only care about part of a contract.

// LibraryHandler receives library-view updates.
type LibraryHandler interface {
	SetLoading(loading bool)
	AddSeries(series *model.Series)
	RefreshSeries(series *model.Series)
	ShowError(message string)
}

// SearchHandler receives search-view updates. SetResultCover is invoked
// once per result as covers resolve, after SetResults delivered the rows.
type SearchHandler interface {
	SetLoading(loading bool)
	SetResults(results []content.SearchResult)
	SetResultCover(index int, img *model.Image)
	ShowError(message string)
}

// SeriesHandler receives series-view updates (reloads, banner art).
type SeriesHandler interface {
	SetLoading(loading bool)
	RefreshSeries(series *model.Series)
	SetBanner(series *model.Series, img *model.Image)
	ShowError(message string)
}

// ReaderHandler receives reader-view updates. CurrentChapter and
// CurrentPage are the staleness checks performed at write-back time: a
// page image is only pushed when the chapter is still displayed and the
// page still selected.
type ReaderHandler interface {
	CurrentChapter() *model.Chapter
	CurrentPage() int
	SetLoading(loading bool)
	SetImage(page int, img *model.Image)
	ShowError(message string)
}

// TrackerHandler receives tracker-panel updates. RequireAuth fires when
// an operation ran without valid credentials; the consumer must prompt
// for re-authentication rather than drop the user's update.
type TrackerHandler interface {
	SetTrack(trackerID int, track *model.Track)
	RequireAuth(trackerID int)
	ShowError(message string)
}

// NoopLibraryHandler discards library updates.
type NoopLibraryHandler struct{}

func (NoopLibraryHandler) SetLoading(bool)              {}
func (NoopLibraryHandler) AddSeries(*model.Series)      {}
func (NoopLibraryHandler) RefreshSeries(*model.Series)  {}
func (NoopLibraryHandler) ShowError(string)             {}

// NoopSearchHandler discards search updates.
type NoopSearchHandler struct{}

func (NoopSearchHandler) SetLoading(bool)                     {}
func (NoopSearchHandler) SetResults([]content.SearchResult)   {}
func (NoopSearchHandler) SetResultCover(int, *model.Image)    {}
func (NoopSearchHandler) ShowError(string)                    {}

// NoopSeriesHandler discards series-view updates.
type NoopSeriesHandler struct{}

func (NoopSeriesHandler) SetLoading(bool)                       {}
func (NoopSeriesHandler) RefreshSeries(*model.Series)           {}
func (NoopSeriesHandler) SetBanner(*model.Series, *model.Image) {}
func (NoopSeriesHandler) ShowError(string)                      {}

// NoopTrackerHandler discards tracker updates.
type NoopTrackerHandler struct{}

func (NoopTrackerHandler) SetTrack(int, *model.Track) {}
func (NoopTrackerHandler) RequireAuth(int)            {}
func (NoopTrackerHandler) ShowError(string)           {}
