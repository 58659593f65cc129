package ui

import (
	"sync"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/xgi/houdoku-sub000/content"
	"github.com/xgi/houdoku-sub000/model"
)

// Messages pushed into the program by loader callbacks.
type (
	errMsg struct {
		view string
		text string
	}

	loadingMsg struct {
		view    string
		loading bool
	}

	seriesAddedMsg struct {
		series *model.Series
	}

	seriesRefreshedMsg struct {
		series *model.Series
	}

	bannerMsg struct {
		series *model.Series
		image  *model.Image
	}

	searchResultsMsg struct {
		results []content.SearchResult
	}

	searchCoverMsg struct {
		index int
		image *model.Image
	}

	pageImageMsg struct {
		page  int
		image *model.Image
	}

	trackMsg struct {
		trackerID int
		track     *model.Track
	}

	requireAuthMsg struct {
		trackerID int
	}
)

const (
	viewLibrary = "library"
	viewSearch  = "search"
	viewSeries  = "series"
	viewReader  = "reader"
)

// bridge forwards loader callbacks into the bubbletea event loop. A single
// instance backs every handler interface the loader exposes.
type bridge struct {
	program *tea.Program
	reader  *readerState
}

func newBridge() *bridge {
	return &bridge{reader: &readerState{}}
}

func (b *bridge) SetProgram(p *tea.Program) {
	b.program = p
}

func (b *bridge) send(msg tea.Msg) {
	if b.program != nil {
		b.program.Send(msg)
	}
}

// LibraryHandler

type libraryBridge struct{ *bridge }

func (b libraryBridge) SetLoading(loading bool) {
	b.send(loadingMsg{view: viewLibrary, loading: loading})
}

func (b libraryBridge) AddSeries(series *model.Series) {
	b.send(seriesAddedMsg{series: series})
}

func (b libraryBridge) RefreshSeries(series *model.Series) {
	b.send(seriesRefreshedMsg{series: series})
}

func (b libraryBridge) ShowError(text string) {
	b.send(errMsg{view: viewLibrary, text: text})
}

// SearchHandler

type searchBridge struct{ *bridge }

func (b searchBridge) SetLoading(loading bool) {
	b.send(loadingMsg{view: viewSearch, loading: loading})
}

func (b searchBridge) SetResults(results []content.SearchResult) {
	b.send(searchResultsMsg{results: results})
}

func (b searchBridge) SetResultCover(index int, image *model.Image) {
	b.send(searchCoverMsg{index: index, image: image})
}

func (b searchBridge) ShowError(text string) {
	b.send(errMsg{view: viewSearch, text: text})
}

// SeriesHandler

type seriesBridge struct{ *bridge }

func (b seriesBridge) SetLoading(loading bool) {
	b.send(loadingMsg{view: viewSeries, loading: loading})
}

func (b seriesBridge) RefreshSeries(series *model.Series) {
	b.send(seriesRefreshedMsg{series: series})
}

func (b seriesBridge) SetBanner(series *model.Series, image *model.Image) {
	b.send(bannerMsg{series: series, image: image})
}

func (b seriesBridge) ShowError(text string) {
	b.send(errMsg{view: viewSeries, text: text})
}

// ReaderHandler. CurrentChapter and CurrentPage are read from loader
// goroutines, so the live position sits behind its own lock rather than
// inside the bubbletea model.

type readerState struct {
	mu      sync.Mutex
	chapter *model.Chapter
	page    int
}

func (r *readerState) set(chapter *model.Chapter, page int) {
	r.mu.Lock()
	r.chapter = chapter
	r.page = page
	r.mu.Unlock()
}

func (r *readerState) get() (*model.Chapter, int) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.chapter, r.page
}

type readerBridge struct{ *bridge }

func (b readerBridge) CurrentChapter() *model.Chapter {
	chapter, _ := b.reader.get()
	return chapter
}

func (b readerBridge) CurrentPage() int {
	_, page := b.reader.get()
	return page
}

func (b readerBridge) SetLoading(loading bool) {
	b.send(loadingMsg{view: viewReader, loading: loading})
}

func (b readerBridge) SetImage(page int, image *model.Image) {
	b.send(pageImageMsg{page: page, image: image})
}

func (b readerBridge) ShowError(text string) {
	b.send(errMsg{view: viewReader, text: text})
}

// TrackerHandler

type trackerBridge struct{ *bridge }

func (b trackerBridge) SetTrack(trackerID int, track *model.Track) {
	b.send(trackMsg{trackerID: trackerID, track: track})
}

func (b trackerBridge) RequireAuth(trackerID int) {
	b.send(requireAuthMsg{trackerID: trackerID})
}

func (b trackerBridge) ShowError(text string) {
	b.send(errMsg{view: viewSeries, text: text})
}
