package model

import (
	"math"
	"sort"
	"sync"
)

// SeriesStatus is the publication status reported by a content source.
type SeriesStatus string

const (
	StatusOngoing   SeriesStatus = "Ongoing"
	StatusCompleted SeriesStatus = "Completed"
	StatusHiatus    SeriesStatus = "Hiatus"
	StatusCancelled SeriesStatus = "Cancelled"
	StatusUnknown   SeriesStatus = "Unknown"
)

// SeriesMetadata enumerates every recognized mutable field of a series
// page parse. Sources fill what they have; zero values mean "not
// reported" and overwrite on reload like any other value.
type SeriesMetadata struct {
	Language    string
	Author      string
	Artist      string
	Status      SeriesStatus
	AltNames    []string
	Description string
	Views       int
	Follows     int
	Rating      float64
	RatingVotes int
	Genres      []string
}

// Series is one comic on one content source. Title, Source and
// ContentSourceID identify it for its whole lifetime and are never
// reassigned; everything else is overwritten in place on reload so the
// object identity consumers hold on to survives. Reloads and banner
// loads run on background goroutines, so all mutable state sits behind
// the mutex and is reached through accessors.
type Series struct {
	Title           string
	Source          string
	ContentSourceID int

	// Categories holds the user-assigned library category names.
	Categories []string

	mu                sync.Mutex
	meta              SeriesMetadata
	cover             *Image
	banner            *Image
	trackerIDs        map[int]string
	chapters          []*Chapter
	numChapters       int
	numHighestChapter int
}

// NewSeries builds a series from the identity triple plus parsed metadata.
func NewSeries(title, source string, contentSourceID int, meta SeriesMetadata) *Series {
	s := &Series{
		Title:           title,
		Source:          source,
		ContentSourceID: contentSourceID,
		trackerIDs:      make(map[int]string),
	}
	s.ApplyMetadata(meta)
	return s
}

// TrackerID returns the external series ID assigned by a tracker.
func (s *Series) TrackerID(trackerID int) (string, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	id, ok := s.trackerIDs[trackerID]
	return id, ok
}

// SetTrackerID records which series a tracker maps this one to.
func (s *Series) SetTrackerID(trackerID int, seriesID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.trackerIDs == nil {
		s.trackerIDs = make(map[int]string)
	}
	s.trackerIDs[trackerID] = seriesID
}

// TrackerIDs returns a copy of the tracker assignment map.
func (s *Series) TrackerIDs() map[int]string {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make(map[int]string, len(s.trackerIDs))
	for k, v := range s.trackerIDs {
		out[k] = v
	}
	return out
}

// CopyFrom overwrites this series' mutable state from a freshly parsed
// one, keeping the object identity (and the consumer references bound to
// it) intact. Categories and tracker assignments are local state and are
// not touched.
func (s *Series) CopyFrom(fresh *Series) {
	s.ApplyMetadata(fresh.Metadata())
	if cover := fresh.Cover(); cover != nil {
		s.SetCover(cover)
	}
	s.SetChapters(fresh.Chapters())
}

// ApplyMetadata overwrites all mutable metadata fields from a reload.
func (s *Series) ApplyMetadata(meta SeriesMetadata) {
	meta.Language = NormalizeLanguage(meta.Language)
	if meta.Status == "" {
		meta.Status = StatusUnknown
	}
	s.mu.Lock()
	s.meta = meta
	s.mu.Unlock()
}

// Metadata returns a snapshot of the mutable metadata. The slices inside
// are replaced wholesale on reload, never mutated, so the snapshot is
// safe to read without further locking.
func (s *Series) Metadata() SeriesMetadata {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.meta
}

// Cover is display state and never persisted.
func (s *Series) Cover() *Image {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.cover
}

func (s *Series) SetCover(img *Image) {
	s.mu.Lock()
	s.cover = img
	s.mu.Unlock()
}

// Banner is display state and never persisted.
func (s *Series) Banner() *Image {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.banner
}

func (s *Series) SetBanner(img *Image) {
	s.mu.Lock()
	s.banner = img
	s.mu.Unlock()
}

// SetChapters replaces the chapter list. It is the only chapter mutator:
// it sorts descending by chapter number, points every chapter back at the
// series, and recomputes the derived counters.
func (s *Series) SetChapters(chapters []*Chapter) {
	sorted := make([]*Chapter, len(chapters))
	copy(sorted, chapters)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].ChapterNum > sorted[j].ChapterNum
	})
	for _, ch := range sorted {
		ch.Series = s
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.chapters = sorted
	s.numChapters = len(sorted)
	if len(sorted) == 0 {
		s.numHighestChapter = 0
	} else {
		s.numHighestChapter = int(math.Floor(sorted[0].ChapterNum))
	}
}

// Chapters returns the chapter list, sorted descending by number.
func (s *Series) Chapters() []*Chapter {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.chapters
}

// NumChapters is the derived chapter count.
func (s *Series) NumChapters() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.numChapters
}

// NumHighestChapter is the floor of the highest chapter number, 0 when
// the list is empty.
func (s *Series) NumHighestChapter() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.numHighestChapter
}

// SmartNextChapter returns the chapter following ch among chapters in
// ch's language, or nil at the end of that filtered sequence.
func (s *Series) SmartNextChapter(ch *Chapter) *Chapter {
	filtered, idx := s.sameLanguage(ch)
	if idx <= 0 {
		return nil
	}
	// chapters are sorted descending, so "next" is the previous index
	return filtered[idx-1]
}

// SmartPreviousChapter returns the chapter preceding ch among chapters in
// ch's language, or nil at the start of that filtered sequence.
func (s *Series) SmartPreviousChapter(ch *Chapter) *Chapter {
	filtered, idx := s.sameLanguage(ch)
	if idx < 0 || idx >= len(filtered)-1 {
		return nil
	}
	return filtered[idx+1]
}

func (s *Series) sameLanguage(ch *Chapter) ([]*Chapter, int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var filtered []*Chapter
	idx := -1
	for _, c := range s.chapters {
		if c.Language != ch.Language {
			continue
		}
		if c == ch {
			idx = len(filtered)
		}
		filtered = append(filtered, c)
	}
	return filtered, idx
}

// HasCategory reports whether the series is assigned the named category,
// case-insensitively.
func (s *Series) HasCategory(name string) bool {
	for _, c := range s.Categories {
		if FoldEqual(c, name) {
			return true
		}
	}
	return false
}
