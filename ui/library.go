package ui

import (
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/bubbles/list"
	tea "github.com/charmbracelet/bubbletea"
	gloss "github.com/charmbracelet/lipgloss"

	"github.com/xgi/houdoku-sub000/model"
)

type seriesItem struct {
	series *model.Series
}

func (i seriesItem) FilterValue() string { return i.series.Title }

type SeriesDelegate struct{}

func (d *SeriesDelegate) Height() int  { return 2 }
func (d *SeriesDelegate) Spacing() int { return 1 }

func (d *SeriesDelegate) Update(msg tea.Msg, m *list.Model) tea.Cmd { return nil }

func (d *SeriesDelegate) Render(w io.Writer, m list.Model, index int, item list.Item) {
	i, ok := item.(seriesItem)
	if !ok {
		return
	}

	title := i.series.Title
	desc := seriesDesc(i.series)

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

func seriesDesc(s *model.Series) string {
	unread := 0
	for _, chapter := range s.Chapters() {
		if !chapter.Read {
			unread++
		}
	}
	desc := fmt.Sprintf("%d chapters", s.NumChapters())
	if s.NumHighestChapter() > 0 {
		desc = fmt.Sprintf("%d chapters, latest %d", s.NumChapters(), s.NumHighestChapter())
	}
	if unread > 0 {
		desc += fmt.Sprintf(", %d unread", unread)
	}
	if status := s.Metadata().Status; status != "" && status != model.StatusUnknown {
		desc += " | " + string(status)
	}
	return desc
}

type LibraryModel struct {
	library   *model.Library
	list      list.Model
	activeTab int
	width     int
	height    int
	loading   bool
	status    string

	// confirmRemove holds the series pending a y/n removal answer.
	confirmRemove *model.Series
}

func NewLibraryModel(library *model.Library) LibraryModel {
	l := list.New([]list.Item{}, &SeriesDelegate{}, 0, 0)
	l.SetShowTitle(false)
	l.SetShowStatusBar(false)
	l.SetShowHelp(false)
	l.SetFilteringEnabled(false)

	m := LibraryModel{
		library: library,
		list:    l,
	}
	m.Refresh()
	return m
}

// tabs returns the root category followed by its direct children.
func (m *LibraryModel) tabs() []*model.Category {
	root := m.library.Root
	return append([]*model.Category{root}, root.Children()...)
}

func (m *LibraryModel) activeCategory() *model.Category {
	tabs := m.tabs()
	if m.activeTab >= len(tabs) {
		m.activeTab = 0
	}
	return tabs[m.activeTab]
}

func (m *LibraryModel) NextTab() {
	m.activeTab = (m.activeTab + 1) % len(m.tabs())
	m.Refresh()
}

func (m *LibraryModel) PrevTab() {
	tabs := len(m.tabs())
	m.activeTab = (m.activeTab - 1 + tabs) % tabs
	m.Refresh()
}

// Refresh rebuilds the visible rows from the library, filtered to the
// active category tab.
func (m *LibraryModel) Refresh() {
	m.library.RecalculateOccurrences()
	category := m.activeCategory()
	all := category.Equals(m.library.Root)

	items := []list.Item{}
	for _, series := range m.library.Series() {
		if all || m.inCategory(series, category) {
			items = append(items, seriesItem{series: series})
		}
	}
	m.list.SetItems(items)
}

// inCategory reports whether a series belongs to the category or any
// of its descendants.
func (m *LibraryModel) inCategory(series *model.Series, category *model.Category) bool {
	for _, name := range series.Categories {
		found := category.RecursiveFindSubcategory(name)
		if found != nil {
			return true
		}
	}
	return false
}

func (m *LibraryModel) Selected() *model.Series {
	item := m.list.SelectedItem()
	if item == nil {
		return nil
	}
	if i, ok := item.(seriesItem); ok {
		return i.series
	}
	return nil
}

func (m *LibraryModel) SetSize(width, height int) {
	m.width = width
	m.height = height
	listWidth := width
	if listWidth > ListMaxWidth {
		listWidth = ListMaxWidth
	}
	m.list.SetSize(listWidth, height-6)
}

func (m LibraryModel) Update(msg tea.Msg) (LibraryModel, tea.Cmd) {
	var cmd tea.Cmd
	m.list, cmd = m.list.Update(msg)
	return m, cmd
}

func (m LibraryModel) View() string {
	var b strings.Builder

	b.WriteString(m.renderTabs())
	b.WriteString("\n")
	b.WriteString(ListStyle.Render(m.list.View()))
	b.WriteString("\n")

	switch {
	case m.confirmRemove != nil:
		b.WriteString(ErrorStyle.Render(
			fmt.Sprintf("remove %q from library? (y/n)", m.confirmRemove.Title)))
	case m.loading:
		b.WriteString(StatusStyle.Render("loading..."))
	case m.status != "":
		b.WriteString(ErrorStyle.Render(m.status))
	default:
		b.WriteString(StatusMutedStyle.Render(
			"enter: open | /: search | tab: category | r: reload | d: remove | q: quit"))
	}
	return b.String()
}

func (m LibraryModel) renderTabs() string {
	tabs := m.tabs()
	rendered := make([]string, 0, len(tabs))
	for i, category := range tabs {
		label := fmt.Sprintf("%s (%d)", category.Name, category.Occurrences())
		if i == m.activeTab {
			rendered = append(rendered, ActiveTabStyle.Render(label))
		} else {
			rendered = append(rendered, InactiveTabStyle.Render(label))
		}
	}
	return gloss.JoinHorizontal(gloss.Top, rendered...)
}
