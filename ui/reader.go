package ui

import (
	"fmt"
	"strings"

	"github.com/mattn/go-runewidth"

	"github.com/xgi/houdoku-sub000/model"
)

// ReaderModel renders one chapter page at a time. Terminal cells cannot
// show the raster itself, so the view reports the page position plus the
// fetched image's size and location, which is enough to drive and test
// the paging pipeline end to end.
type ReaderModel struct {
	chapter *model.Chapter
	page    int
	width   int
	height  int
	loading bool
	status  string
}

func NewReaderModel() ReaderModel {
	return ReaderModel{}
}

func (m *ReaderModel) SetChapter(chapter *model.Chapter) {
	m.chapter = chapter
	m.page = chapter.CurrentPageNum()
	m.status = ""
	m.loading = chapter.PageImage(m.page) == nil
}

// SetImage is the write-back from a page job. Images for pages other
// than the displayed one are preloads and already live on the chapter.
func (m *ReaderModel) SetImage(page int, image *model.Image) {
	if m.chapter == nil || page != m.chapter.CurrentPageNum() {
		return
	}
	m.page = page
	m.loading = false
}

func (m *ReaderModel) SetSize(width, height int) {
	m.width = width
	m.height = height
}

func (m ReaderModel) View() string {
	if m.chapter == nil {
		return ""
	}
	var b strings.Builder

	title := fmt.Sprintf("Ch. %g", m.chapter.ChapterNum)
	if m.chapter.Title != "" {
		title += " " + m.chapter.Title
	}
	if m.chapter.Series != nil {
		title = m.chapter.Series.Title + " | " + title
	}
	if m.width > 8 {
		title = runewidth.Truncate(title, m.width-8, "...")
	}
	b.WriteString(TitleBarStyle.Render(title))
	b.WriteString("\n")

	page := m.chapter.CurrentPageNum()
	position := fmt.Sprintf("page %d", page+1)
	if m.chapter.Sized() {
		position = fmt.Sprintf("page %d / %d", page+1, m.chapter.PageCount())
	}
	b.WriteString(StatusStyle.Render(position))
	b.WriteString("\n")

	switch {
	case m.status != "":
		b.WriteString(ErrorStyle.Render(m.status))
	case m.loading:
		b.WriteString(ReaderLoadingStyle.Render("loading page..."))
	default:
		image := m.chapter.PageImage(page)
		if image == nil || image.Empty() {
			b.WriteString(ReaderLoadingStyle.Render("loading page..."))
		} else {
			b.WriteString(ReaderPageStyle.Render(
				fmt.Sprintf("[%s image, %dKB]\n%s", image.Ext, len(image.Data)/1024, image.URL)))
		}
	}
	b.WriteString("\n")
	b.WriteString(StatusMutedStyle.Render(
		"left/right: page | n: next chapter | p: previous chapter | esc: back"))
	return b.String()
}
