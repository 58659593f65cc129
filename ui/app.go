package ui

import (
	"fmt"
	"os"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/xgi/houdoku-sub000/loader"
	"github.com/xgi/houdoku-sub000/model"
	"github.com/xgi/houdoku-sub000/plugins"
	"github.com/xgi/houdoku-sub000/store"
	"github.com/xgi/houdoku-sub000/utils"
)

type AppState int

const (
	StateLibrary AppState = iota
	StateSearch
	StateSeries
	StateReader
)

type AppModel struct {
	state   AppState
	loader  *loader.Loader
	library *model.Library
	manager *plugins.Manager
	bridge  *bridge
	dataDir string

	libraryUI LibraryModel
	searchUI  SearchModel
	seriesUI  SeriesModel
	readerUI  ReaderModel
}

func NewAppModel(ld *loader.Loader, lib *model.Library, mgr *plugins.Manager, b *bridge, dataDir string) AppModel {
	return AppModel{
		state:     StateLibrary,
		loader:    ld,
		library:   lib,
		manager:   mgr,
		bridge:    b,
		dataDir:   dataDir,
		libraryUI: NewLibraryModel(lib),
		searchUI:  NewSearchModel(mgr.ContentSources()),
		seriesUI:  NewSeriesModel(),
		readerUI:  NewReaderModel(),
	}
}

func (m AppModel) Init() tea.Cmd { return nil }

func (m AppModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	if keyMsg, ok := msg.(tea.KeyMsg); ok && keyMsg.String() == "ctrl+c" {
		return m.quit()
	}

	if size, ok := msg.(tea.WindowSizeMsg); ok {
		m.libraryUI.SetSize(size.Width, size.Height)
		m.searchUI.SetSize(size.Width, size.Height)
		m.seriesUI.SetSize(size.Width, size.Height)
		m.readerUI.SetSize(size.Width, size.Height)
	}

	// Loader callbacks arrive as messages regardless of the active state.
	switch tm := msg.(type) {
	case loadingMsg:
		m.applyLoading(tm)
	case errMsg:
		m.applyError(tm)
	case seriesAddedMsg:
		m.searchUI.loading = false
		m.libraryUI.Refresh()
		m.state = StateLibrary
	case seriesRefreshedMsg:
		m.libraryUI.loading = false
		m.libraryUI.Refresh()
		if m.seriesUI.series == tm.series {
			m.seriesUI.Refresh()
		}
	case bannerMsg:
		if m.seriesUI.series == tm.series {
			m.seriesUI.banner = tm.image
		}
	case searchResultsMsg:
		m.searchUI.SetResults(tm.results)
	case searchCoverMsg:
		m.searchUI.SetCover(tm.index, tm.image)
	case pageImageMsg:
		m.readerUI.SetImage(tm.page, tm.image)
	case trackMsg:
		m.seriesUI.SetTrack(tm.trackerID, tm.track)
	case requireAuthMsg:
		m.seriesUI.PromptAuth(tm.trackerID, m.manager.Tracker(tm.trackerID))
	}

	switch m.state {
	case StateLibrary:
		return m.handleStateLibrary(msg)
	case StateSearch:
		return m.handleStateSearch(msg)
	case StateSeries:
		return m.handleStateSeries(msg)
	case StateReader:
		return m.handleStateReader(msg)
	default:
		return m, nil
	}
}

func (m AppModel) View() string {
	switch m.state {
	case StateLibrary:
		return m.libraryUI.View()
	case StateSearch:
		return m.searchUI.View()
	case StateSeries:
		return m.seriesUI.View()
	case StateReader:
		return m.readerUI.View()
	default:
		return ""
	}
}

func (m *AppModel) applyLoading(msg loadingMsg) {
	switch msg.view {
	case viewLibrary:
		m.libraryUI.loading = msg.loading
	case viewSearch:
		m.searchUI.loading = msg.loading
	case viewSeries:
		m.seriesUI.loading = msg.loading
	case viewReader:
		m.readerUI.loading = msg.loading
	}
}

func (m *AppModel) applyError(msg errMsg) {
	switch msg.view {
	case viewLibrary:
		m.libraryUI.status = msg.text
		m.libraryUI.loading = false
		// An add submitted from the search view fails back here too.
		m.searchUI.loading = false
	case viewSearch:
		m.searchUI.status = msg.text
		m.searchUI.loading = false
	case viewSeries:
		m.seriesUI.status = msg.text
		m.seriesUI.loading = false
	case viewReader:
		m.readerUI.status = msg.text
		m.readerUI.loading = false
	}
}

func (m AppModel) handleStateLibrary(msg tea.Msg) (tea.Model, tea.Cmd) {
	if keyMsg, ok := msg.(tea.KeyMsg); ok {
		// A pending removal swallows everything except its answer.
		if m.libraryUI.confirmRemove != nil {
			switch keyMsg.String() {
			case "y":
				m.library.RemoveSeries(m.libraryUI.confirmRemove)
				m.libraryUI.confirmRemove = nil
				m.libraryUI.Refresh()
			default:
				m.libraryUI.confirmRemove = nil
			}
			return m, nil
		}

		switch keyMsg.String() {
		case "q":
			return m.quit()
		case "/", "s":
			m.state = StateSearch
			m.searchUI.FocusInput()
			return m, nil
		case "tab":
			m.libraryUI.NextTab()
			return m, nil
		case "shift+tab":
			m.libraryUI.PrevTab()
			return m, nil
		case "d":
			if series := m.libraryUI.Selected(); series != nil {
				m.libraryUI.confirmRemove = series
			}
			return m, nil
		case "r":
			if series := m.libraryUI.Selected(); series != nil {
				if m.loader.ReloadSeries(series, false, seriesBridge{m.bridge}) {
					m.libraryUI.loading = true
				}
			}
			return m, nil
		case "enter":
			if series := m.libraryUI.Selected(); series != nil {
				m.openSeries(series)
			}
			return m, nil
		}
	}

	var cmd tea.Cmd
	m.libraryUI, cmd = m.libraryUI.Update(msg)
	return m, cmd
}

func (m AppModel) handleStateSearch(msg tea.Msg) (tea.Model, tea.Cmd) {
	if keyMsg, ok := msg.(tea.KeyMsg); ok {
		switch keyMsg.String() {
		case "esc":
			if m.searchUI.input.Focused() {
				m.searchUI.input.Blur()
				return m, nil
			}
			m.loader.StopPrefix(loader.PrefixSearch)
			m.state = StateLibrary
			m.libraryUI.Refresh()
			return m, nil
		case "tab":
			m.searchUI.NextSource()
			return m, nil
		case "/":
			if !m.searchUI.input.Focused() {
				m.searchUI.FocusInput()
				return m, nil
			}
		case "enter":
			if m.searchUI.input.Focused() {
				query := m.searchUI.Query()
				if query != "" {
					m.searchUI.input.Blur()
					m.searchUI.Clear()
					m.loader.StopPrefix(loader.PrefixSearch)
					if m.loader.Search(m.searchUI.SourceID(), query, searchBridge{m.bridge}) {
						m.searchUI.loading = true
					}
				}
				return m, nil
			}
			if result, ok := m.searchUI.Selected(); ok {
				if m.loader.LoadSeries(result.ContentSourceID, result.Source, false, libraryBridge{m.bridge}) {
					m.searchUI.loading = true
				}
			}
			return m, nil
		}
	}

	var cmd tea.Cmd
	m.searchUI, cmd = m.searchUI.Update(msg)
	return m, cmd
}

func (m AppModel) handleStateSeries(msg tea.Msg) (tea.Model, tea.Cmd) {
	if keyMsg, ok := msg.(tea.KeyMsg); ok {
		if m.seriesUI.authPrompt != nil {
			var cmd tea.Cmd
			m.seriesUI, cmd = m.seriesUI.UpdateAuthPrompt(keyMsg, m.loader, trackerBridge{m.bridge})
			return m, cmd
		}

		switch keyMsg.String() {
		case "esc":
			m.loader.StopPrefix(loader.PrefixReload)
			m.loader.StopPrefix(loader.PrefixBanner)
			m.state = StateLibrary
			m.libraryUI.Refresh()
			return m, nil
		case "r":
			if m.loader.ReloadSeries(m.seriesUI.series, false, seriesBridge{m.bridge}) {
				m.seriesUI.loading = true
			}
			return m, nil
		case "t":
			m.loader.LoadSeriesTracker(plugins.AniListID, m.seriesUI.series, trackerBridge{m.bridge})
			return m, nil
		case "u":
			// Push the highest read chapter number to the tracker.
			if num := highestRead(m.seriesUI.series); num > 0 {
				m.loader.UpdateChaptersRead(plugins.AniListID, m.seriesUI.series, num, trackerBridge{m.bridge})
			}
			return m, nil
		case "m":
			if chapter := m.seriesUI.Selected(); chapter != nil {
				chapter.Read = !chapter.Read
				m.seriesUI.Refresh()
			}
			return m, nil
		case "enter":
			if chapter := m.seriesUI.Selected(); chapter != nil {
				m.openReader(chapter)
			}
			return m, nil
		}
	}

	var cmd tea.Cmd
	m.seriesUI, cmd = m.seriesUI.Update(msg)
	return m, cmd
}

func (m AppModel) handleStateReader(msg tea.Msg) (tea.Model, tea.Cmd) {
	if keyMsg, ok := msg.(tea.KeyMsg); ok {
		chapter := m.readerUI.chapter
		if keyMsg.String() == "esc" {
			m.closeReader()
			return m, nil
		}
		if chapter == nil {
			return m, nil
		}
		switch keyMsg.String() {
		case "left", "h":
			m.turnPage(chapter, -1)
			return m, nil
		case "right", "l", " ":
			m.turnPage(chapter, 1)
			return m, nil
		case "n":
			if next := chapter.Series.SmartNextChapter(chapter); next != nil {
				m.switchChapter(chapter, next)
			}
			return m, nil
		case "p":
			if prev := chapter.Series.SmartPreviousChapter(chapter); prev != nil {
				m.switchChapter(chapter, prev)
			}
			return m, nil
		}
	}
	return m, nil
}

func (m *AppModel) openSeries(series *model.Series) {
	m.seriesUI.SetSeries(series)
	m.state = StateSeries
	if series.Banner() == nil {
		m.loader.LoadBanner(plugins.KitsuID, series, seriesBridge{m.bridge})
	}
}

func (m *AppModel) openReader(chapter *model.Chapter) {
	m.readerUI.SetChapter(chapter)
	m.state = StateReader
	page := chapter.CurrentPageNum()
	m.bridge.reader.set(chapter, page)
	m.loader.LoadPage(chapter, page, preloadBudget(), readerBridge{m.bridge})
}

func (m *AppModel) closeReader() {
	m.loader.StopPrefix(loader.PrefixPage)
	if chapter := m.readerUI.chapter; chapter != nil {
		markReadIfFinished(chapter)
		chapter.ClearImages()
	}
	m.bridge.reader.set(nil, 0)
	m.readerUI.chapter = nil
	m.seriesUI.Refresh()
	m.state = StateSeries
}

func (m *AppModel) turnPage(chapter *model.Chapter, delta int) {
	if chapter == nil {
		return
	}
	before := chapter.CurrentPageNum()
	chapter.DeltaPage(delta)
	page := chapter.CurrentPageNum()
	if page == before {
		return
	}
	m.bridge.reader.set(chapter, page)
	m.readerUI.page = page
	m.readerUI.loading = chapter.PageImage(page) == nil
	m.loader.LoadPage(chapter, page, preloadBudget(), readerBridge{m.bridge})
}

func (m *AppModel) switchChapter(from, to *model.Chapter) {
	m.loader.StopPrefix(loader.PrefixPage)
	markReadIfFinished(from)
	from.ClearImages()
	m.readerUI.SetChapter(to)
	page := to.CurrentPageNum()
	m.bridge.reader.set(to, page)
	m.loader.LoadPage(to, page, preloadBudget(), readerBridge{m.bridge})
}

func (m AppModel) quit() (tea.Model, tea.Cmd) {
	m.loader.StopAll()
	if err := store.SaveLibrary(m.dataDir, m.library); err != nil {
		fmt.Fprintf(os.Stderr, "failed to save library: %v\n", err)
	}
	return m, tea.Quit
}

// preloadBudget maps the configured preload amount onto the loader's
// contract, where the whole-chapter setting is a sentinel.
func preloadBudget() int {
	amount := utils.AppConfig.Reader.PreloadAmount
	if amount == 0 {
		return loader.PreloadUnbounded
	}
	return amount
}

// markReadIfFinished flags a chapter read once its last page was viewed.
func markReadIfFinished(chapter *model.Chapter) {
	if chapter.Sized() && chapter.CurrentPageNum() >= chapter.PageCount()-1 {
		chapter.Read = true
	}
}

func highestRead(series *model.Series) int {
	num := 0
	for _, chapter := range series.Chapters() {
		if chapter.Read && int(chapter.ChapterNum) > num {
			num = int(chapter.ChapterNum)
		}
	}
	return num
}

func RunApp(ld *loader.Loader, lib *model.Library, mgr *plugins.Manager, dataDir string) error {
	b := newBridge()
	app := NewAppModel(ld, lib, mgr, b, dataDir)

	p := tea.NewProgram(app, tea.WithAltScreen())
	b.SetProgram(p)
	if _, err := p.Run(); err != nil {
		return fmt.Errorf("failed to run program: %v", err)
	}
	return nil
}
