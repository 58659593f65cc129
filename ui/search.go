package ui

import (
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/bubbles/list"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/xgi/houdoku-sub000/content"
	"github.com/xgi/houdoku-sub000/model"
)

type resultItem struct {
	result content.SearchResult
	cover  *model.Image
}

func (i resultItem) FilterValue() string { return i.result.Title }

type ResultDelegate struct{}

func (d *ResultDelegate) Height() int  { return 2 }
func (d *ResultDelegate) Spacing() int { return 1 }

func (d *ResultDelegate) Update(msg tea.Msg, m *list.Model) tea.Cmd { return nil }

func (d *ResultDelegate) Render(w io.Writer, m list.Model, index int, item list.Item) {
	i, ok := item.(resultItem)
	if !ok {
		return
	}

	title := i.result.Title
	desc := i.result.Details
	if desc == "" {
		desc = i.result.Source
	}
	if i.cover != nil && !i.cover.Empty() {
		desc += fmt.Sprintf(" [cover %dKB]", len(i.cover.Data)/1024)
	}

	if index == m.Index() {
		fmt.Fprintf(w, "%s\n%s",
			SelectedTitleStyle.Render(title),
			SelectedDescStyle.Render(desc))
		return
	}
	fmt.Fprintf(w, "%s\n%s",
		NormalTitleStyle.Render(title),
		NormalDescStyle.Render(desc))
}

type SearchModel struct {
	sources   []content.ContentSource
	sourceIdx int
	input     textinput.Model
	list      list.Model
	width     int
	height    int
	loading   bool
	status    string
}

func NewSearchModel(sources []content.ContentSource) SearchModel {
	input := textinput.New()
	input.Placeholder = "search..."
	input.PromptStyle = PromptStyle
	input.CharLimit = 100

	l := list.New([]list.Item{}, &ResultDelegate{}, 0, 0)
	l.SetShowTitle(false)
	l.SetShowStatusBar(false)
	l.SetShowHelp(false)
	l.SetFilteringEnabled(false)

	return SearchModel{
		sources: sources,
		input:   input,
		list:    l,
	}
}

func (m *SearchModel) FocusInput() {
	m.input.Focus()
}

func (m *SearchModel) Query() string {
	return strings.TrimSpace(m.input.Value())
}

func (m *SearchModel) SourceID() int {
	return m.sources[m.sourceIdx].ID()
}

func (m *SearchModel) NextSource() {
	if len(m.sources) > 0 {
		m.sourceIdx = (m.sourceIdx + 1) % len(m.sources)
	}
}

func (m *SearchModel) Clear() {
	m.status = ""
	m.list.SetItems([]list.Item{})
}

func (m *SearchModel) SetResults(results []content.SearchResult) {
	items := make([]list.Item, 0, len(results))
	for _, result := range results {
		items = append(items, resultItem{result: result})
	}
	m.list.SetItems(items)
}

// SetCover attaches a lazily fetched cover to the result row it belongs
// to. Rows are index-stable for the lifetime of one query.
func (m *SearchModel) SetCover(index int, image *model.Image) {
	items := m.list.Items()
	if index < 0 || index >= len(items) {
		return
	}
	if i, ok := items[index].(resultItem); ok {
		i.cover = image
		m.list.SetItem(index, i)
	}
}

func (m *SearchModel) Selected() (content.SearchResult, bool) {
	item := m.list.SelectedItem()
	if i, ok := item.(resultItem); ok {
		return i.result, true
	}
	return content.SearchResult{}, false
}

func (m *SearchModel) SetSize(width, height int) {
	m.width = width
	m.height = height
	listWidth := width
	if listWidth > ListMaxWidth {
		listWidth = ListMaxWidth
	}
	m.list.SetSize(listWidth, height-8)
	m.input.Width = listWidth - 8
}

func (m SearchModel) Update(msg tea.Msg) (SearchModel, tea.Cmd) {
	var cmds []tea.Cmd
	var cmd tea.Cmd

	if m.input.Focused() {
		m.input, cmd = m.input.Update(msg)
		cmds = append(cmds, cmd)
	} else {
		m.list, cmd = m.list.Update(msg)
		cmds = append(cmds, cmd)
	}
	return m, tea.Batch(cmds...)
}

func (m SearchModel) View() string {
	var b strings.Builder

	source := m.sources[m.sourceIdx]
	b.WriteString(TitleBarStyle.Render(fmt.Sprintf("Search: %s", source.Name())))
	b.WriteString("\n")
	b.WriteString(ListStyle.Render(m.input.View()))
	b.WriteString("\n")
	b.WriteString(ListStyle.Render(m.list.View()))
	b.WriteString("\n")

	switch {
	case m.loading:
		b.WriteString(StatusStyle.Render("searching..."))
	case m.status != "":
		b.WriteString(ErrorStyle.Render(m.status))
	default:
		b.WriteString(StatusMutedStyle.Render(
			"enter: search/add | tab: source | /: edit query | esc: back"))
	}
	return b.String()
}
