package ui

import (
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/bubbles/list"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/muesli/reflow/wordwrap"

	"github.com/xgi/houdoku-sub000/content"
	"github.com/xgi/houdoku-sub000/loader"
	"github.com/xgi/houdoku-sub000/model"
	"github.com/xgi/houdoku-sub000/utils"
)

type chapterItem struct {
	chapter *model.Chapter
}

func (i chapterItem) FilterValue() string { return i.chapter.Title }

type ChapterDelegate struct{}

func (d *ChapterDelegate) Height() int  { return 1 }
func (d *ChapterDelegate) Spacing() int { return 0 }

func (d *ChapterDelegate) Update(msg tea.Msg, m *list.Model) tea.Cmd { return nil }

func (d *ChapterDelegate) Render(w io.Writer, m list.Model, index int, item list.Item) {
	i, ok := item.(chapterItem)
	if !ok {
		return
	}

	read := " "
	if i.chapter.Read {
		read = "*"
	}
	line := fmt.Sprintf("[%s] Ch. %g", read, i.chapter.ChapterNum)
	if i.chapter.Title != "" {
		line += " " + i.chapter.Title
	}
	if i.chapter.Group != "" {
		line += fmt.Sprintf(" (%s)", i.chapter.Group)
	}
	if i.chapter.Language != "" {
		line += " [" + i.chapter.Language + "]"
	}

	if index == m.Index() {
		fmt.Fprint(w, SelectedTitleStyle.Render(line))
		return
	}
	fmt.Fprint(w, NormalTitleStyle.Render(line))
}

// authPromptState captures an in-flight tracker re-authentication: the
// user visits the URL, pastes the code, and the token job resumes.
type authPromptState struct {
	trackerID int
	url       string
	input     textinput.Model
}

type SeriesModel struct {
	series  *model.Series
	banner  *model.Image
	list    list.Model
	width   int
	height  int
	loading bool
	status  string

	tracks     map[int]*model.Track
	authPrompt *authPromptState
}

func NewSeriesModel() SeriesModel {
	l := list.New([]list.Item{}, &ChapterDelegate{}, 0, 0)
	l.SetShowTitle(false)
	l.SetShowStatusBar(false)
	l.SetShowHelp(false)
	l.SetFilteringEnabled(false)

	return SeriesModel{
		list:   l,
		tracks: make(map[int]*model.Track),
	}
}

func (m *SeriesModel) SetSeries(series *model.Series) {
	m.series = series
	m.banner = series.Banner()
	m.status = ""
	m.tracks = make(map[int]*model.Track)
	m.authPrompt = nil
	m.Refresh()
}

// Refresh rebuilds the chapter rows, preferring the configured language
// when the series carries translations.
func (m *SeriesModel) Refresh() {
	if m.series == nil {
		return
	}
	preferred := model.NormalizeLanguage(utils.AppConfig.Reader.PreferredLanguage)

	items := []list.Item{}
	for _, chapter := range m.series.Chapters() {
		if preferred != "" && chapter.Language != "" && chapter.Language != preferred {
			continue
		}
		items = append(items, chapterItem{chapter: chapter})
	}
	// Nothing in the preferred language: show everything.
	if len(items) == 0 {
		for _, chapter := range m.series.Chapters() {
			items = append(items, chapterItem{chapter: chapter})
		}
	}
	m.list.SetItems(items)
}

func (m *SeriesModel) Selected() *model.Chapter {
	item := m.list.SelectedItem()
	if i, ok := item.(chapterItem); ok {
		return i.chapter
	}
	return nil
}

func (m *SeriesModel) SetTrack(trackerID int, track *model.Track) {
	m.tracks[trackerID] = track
}

func (m *SeriesModel) PromptAuth(trackerID int, tracker content.Tracker) {
	if tracker == nil {
		return
	}
	input := textinput.New()
	input.Placeholder = "paste access token..."
	input.PromptStyle = PromptStyle
	input.Focus()

	url := tracker.AuthURL()
	m.authPrompt = &authPromptState{trackerID: trackerID, url: url, input: input}

	// Best effort; the URL stays visible either way.
	_ = utils.OpenInBrowser(url)
}

// UpdateAuthPrompt consumes keys while the re-auth prompt is open.
func (m SeriesModel) UpdateAuthPrompt(msg tea.KeyMsg, ld *loader.Loader, h loader.TrackerHandler) (SeriesModel, tea.Cmd) {
	switch msg.String() {
	case "esc":
		m.authPrompt = nil
		return m, nil
	case "enter":
		code := strings.TrimSpace(m.authPrompt.input.Value())
		trackerID := m.authPrompt.trackerID
		m.authPrompt = nil
		if code != "" {
			ld.GenerateOAuthToken(trackerID, code, h)
		}
		return m, nil
	}

	var cmd tea.Cmd
	m.authPrompt.input, cmd = m.authPrompt.input.Update(msg)
	return m, cmd
}

func (m *SeriesModel) SetSize(width, height int) {
	m.width = width
	m.height = height
	listWidth := width
	if listWidth > ListMaxWidth {
		listWidth = ListMaxWidth
	}
	m.list.SetSize(listWidth, height-12)
}

func (m SeriesModel) Update(msg tea.Msg) (SeriesModel, tea.Cmd) {
	var cmd tea.Cmd
	m.list, cmd = m.list.Update(msg)
	return m, cmd
}

func (m SeriesModel) View() string {
	if m.series == nil {
		return ""
	}
	var b strings.Builder

	b.WriteString(TitleBarStyle.Render(m.series.Title))
	b.WriteString("\n")
	b.WriteString(StatusMutedStyle.Render(m.headerLine()))
	b.WriteString("\n")
	if description := m.series.Metadata().Description; description != "" {
		width := m.width - 8
		if width > ListMaxWidth {
			width = ListMaxWidth
		}
		desc := wordwrap.String(description, width)
		lines := strings.Split(desc, "\n")
		if len(lines) > 3 {
			lines = lines[:3]
		}
		b.WriteString(StatusMutedStyle.Render(strings.Join(lines, "\n")))
		b.WriteString("\n")
	}
	b.WriteString(ListStyle.Render(m.list.View()))
	b.WriteString("\n")

	switch {
	case m.authPrompt != nil:
		b.WriteString(StatusStyle.Render(
			fmt.Sprintf("authorize at %s then paste the token:", m.authPrompt.url)))
		b.WriteString("\n")
		b.WriteString(ListStyle.Render(m.authPrompt.input.View()))
	case m.loading:
		b.WriteString(StatusStyle.Render("loading..."))
	case m.status != "":
		b.WriteString(ErrorStyle.Render(m.status))
	default:
		b.WriteString(StatusMutedStyle.Render(
			"enter: read | r: reload | m: toggle read | t: tracker | u: sync progress | esc: back"))
	}
	return b.String()
}

func (m SeriesModel) headerLine() string {
	meta := m.series.Metadata()
	parts := []string{}
	if meta.Author != "" {
		parts = append(parts, meta.Author)
	}
	if meta.Status != "" {
		parts = append(parts, string(meta.Status))
	}
	parts = append(parts, fmt.Sprintf("%d chapters", m.series.NumChapters()))
	if m.banner != nil && !m.banner.Empty() {
		parts = append(parts, fmt.Sprintf("banner %dKB", len(m.banner.Data)/1024))
	}
	for trackerID, track := range m.tracks {
		if track == nil {
			parts = append(parts, fmt.Sprintf("tracker %d: not listed", trackerID))
			continue
		}
		parts = append(parts, fmt.Sprintf("tracker %d: %s, %d read", trackerID, track.Status, track.Progress))
	}
	return strings.Join(parts, " | ")
}
