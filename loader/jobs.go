package loader

import (
	"context"
	"errors"
	"log"

	"github.com/xgi/houdoku-sub000/content"
	"github.com/xgi/houdoku-sub000/model"
)

// LoadSeries fetches a series and adds it to the library. Returns false
// when an identical load is already running.
func (l *Loader) LoadSeries(sourceID int, source string, quick bool, h LibraryHandler) bool {
	return l.start(seriesKey(sourceID, source), func(ctx context.Context) {
		src := l.registry.ContentSource(sourceID)
		if src == nil {
			h.ShowError("content source is no longer available")
			h.SetLoading(false)
			return
		}
		series, err := src.Series(ctx, source, quick)
		if err != nil {
			l.surfaceError("load series", err, h.ShowError)
			h.SetLoading(false)
			return
		}
		if ctx.Err() != nil {
			return
		}
		l.library.AddSeries(series)
		h.AddSeries(series)
		h.SetLoading(false)
	})
}

// ReloadSeries refreshes an existing series in place, preserving its
// object identity so consumer references stay valid.
func (l *Loader) ReloadSeries(series *model.Series, quick bool, h SeriesHandler) bool {
	return l.start(reloadKey(series.ContentSourceID, series.Source), func(ctx context.Context) {
		src := l.registry.ContentSource(series.ContentSourceID)
		if src == nil {
			h.ShowError("content source is no longer available")
			h.SetLoading(false)
			return
		}
		fresh, err := src.Series(ctx, series.Source, quick)
		if err != nil {
			l.surfaceError("reload series", err, h.ShowError)
			h.SetLoading(false)
			return
		}
		if ctx.Err() != nil {
			return
		}
		series.CopyFrom(fresh)
		l.library.RecalculateOccurrences()
		h.RefreshSeries(series)
		h.SetLoading(false)
	})
}

// LoadPage resolves one chapter page and, when the page is still the one
// on screen, pushes it to the reader. preload is the remaining lookahead
// budget: each successful load submits the next page with the budget
// decremented until it reaches zero or the chapter ends.
// PreloadUnbounded preloads the rest of the chapter.
func (l *Loader) LoadPage(chapter *model.Chapter, page, preload int, h ReaderHandler) bool {
	if chapter.Series == nil {
		return false
	}
	sourceID := chapter.Series.ContentSourceID
	return l.start(pageKey(sourceID, chapter.Source, page), func(ctx context.Context) {
		src := l.registry.ContentSource(sourceID)
		if src == nil {
			h.ShowError("content source is no longer available")
			h.SetLoading(false)
			return
		}
		img, err := src.Image(ctx, chapter, page)
		if err != nil {
			l.surfaceError("load page", err, h.ShowError)
			h.SetLoading(false)
			return
		}
		if ctx.Err() != nil {
			return
		}
		chapter.SetPageImage(page, img)
		if h.CurrentChapter() == chapter && h.CurrentPage() == page {
			h.SetImage(page, img)
			h.SetLoading(false)
		}

		// preload recursion, bounded by budget and chapter end
		if ctx.Err() != nil || preload == 0 {
			return
		}
		next := page + 1
		if next >= chapter.PageCount() {
			return
		}
		budget := preload
		if budget != PreloadUnbounded {
			budget--
		}
		l.LoadPage(chapter, next, budget, h)
	})
}

// Search runs a query against one content source, then resolves result
// covers one at a time; a failed cover is logged and skipped so the rest
// of the batch still fills in.
func (l *Loader) Search(sourceID int, query string, h SearchHandler) bool {
	return l.start(searchKey(sourceID, query), func(ctx context.Context) {
		src := l.registry.ContentSource(sourceID)
		if src == nil {
			h.ShowError("content source is no longer available")
			h.SetLoading(false)
			return
		}
		results, err := src.Search(ctx, query)
		if err != nil {
			l.surfaceError("search", err, h.ShowError)
			h.SetLoading(false)
			return
		}
		if ctx.Err() != nil {
			return
		}
		h.SetResults(results)
		h.SetLoading(false)

		for i, result := range results {
			if ctx.Err() != nil {
				return
			}
			var img *model.Image
			var coverErr error
			if result.CoverURL != "" {
				img, coverErr = l.fetcher.Image(ctx, result.CoverURL, src.BaseURL())
			} else {
				img, coverErr = src.Cover(ctx, result.Source)
			}
			if coverErr != nil {
				if !errors.Is(coverErr, content.ErrNotImplemented) {
					log.Printf("failed to load cover for %q: %v", result.Title, coverErr)
				}
				continue
			}
			if ctx.Err() != nil {
				return
			}
			h.SetResultCover(i, img)
		}
	})
}

// LoadBanner fetches banner art for a series from an info source.
func (l *Loader) LoadBanner(infoID int, series *model.Series, h SeriesHandler) bool {
	return l.start(bannerKey(infoID, series.Title), func(ctx context.Context) {
		info := l.registry.InfoSource(infoID)
		if info == nil {
			return
		}
		img, err := info.Banner(ctx, series.Title)
		if err != nil {
			l.surfaceError("load banner", err, func(string) {})
			return
		}
		if ctx.Err() != nil || img == nil {
			return
		}
		series.SetBanner(img)
		h.SetBanner(series, img)
	})
}

// LoadSeriesTracker matches a series against a tracker (when no mapping
// exists yet) and loads the user's list entry.
func (l *Loader) LoadSeriesTracker(trackerID int, series *model.Series, h TrackerHandler) bool {
	return l.start(trackerKey("load", trackerID, series.Source), func(ctx context.Context) {
		tracker := l.registry.Tracker(trackerID)
		if tracker == nil {
			return
		}
		seriesID, ok := series.TrackerID(trackerID)
		if !ok {
			candidates, err := tracker.Search(ctx, series.Title)
			if err != nil {
				l.trackerError(trackerID, err, h)
				return
			}
			if len(candidates) == 0 {
				h.SetTrack(trackerID, nil)
				return
			}
			seriesID = candidates[0].SeriesID
			if ctx.Err() != nil {
				return
			}
			series.SetTrackerID(trackerID, seriesID)
		}
		l.loadTrack(ctx, tracker, trackerID, seriesID, h)
	})
}

// LoadChaptersRead reads the chapters-read count for an already matched
// series.
func (l *Loader) LoadChaptersRead(trackerID int, series *model.Series, h TrackerHandler) bool {
	return l.start(trackerKey("read", trackerID, series.Source), func(ctx context.Context) {
		tracker := l.registry.Tracker(trackerID)
		if tracker == nil {
			return
		}
		seriesID, ok := series.TrackerID(trackerID)
		if !ok {
			h.SetTrack(trackerID, nil)
			return
		}
		l.loadTrack(ctx, tracker, trackerID, seriesID, h)
	})
}

// UpdateChaptersRead writes a new chapters-read count to the tracker.
func (l *Loader) UpdateChaptersRead(trackerID int, series *model.Series, num int, h TrackerHandler) bool {
	return l.start(trackerKey("update", trackerID, series.Source), func(ctx context.Context) {
		tracker := l.registry.Tracker(trackerID)
		if tracker == nil {
			return
		}
		seriesID, ok := series.TrackerID(trackerID)
		if !ok {
			return
		}
		track, err := tracker.UpdateProgress(ctx, model.Track{SeriesID: seriesID, Progress: num})
		if err != nil {
			l.trackerError(trackerID, err, h)
			return
		}
		if ctx.Err() != nil {
			return
		}
		h.SetTrack(trackerID, track)
	})
}

// UpdateSeriesTracker assigns a tracker series ID picked by the user and
// loads the matching entry.
func (l *Loader) UpdateSeriesTracker(trackerID int, series *model.Series, trackerSeriesID string, h TrackerHandler) bool {
	return l.start(trackerKey("assign", trackerID, series.Source), func(ctx context.Context) {
		tracker := l.registry.Tracker(trackerID)
		if tracker == nil {
			return
		}
		series.SetTrackerID(trackerID, trackerSeriesID)
		l.loadTrack(ctx, tracker, trackerID, trackerSeriesID, h)
	})
}

// UpdateStatus writes a new reading status to the tracker.
func (l *Loader) UpdateStatus(trackerID int, series *model.Series, status model.TrackStatus, h TrackerHandler) bool {
	return l.start(trackerKey("status", trackerID, series.Source), func(ctx context.Context) {
		tracker := l.registry.Tracker(trackerID)
		if tracker == nil {
			return
		}
		seriesID, ok := series.TrackerID(trackerID)
		if !ok {
			return
		}
		track, err := tracker.UpdateStatus(ctx, model.Track{SeriesID: seriesID, Status: status})
		if err != nil {
			l.trackerError(trackerID, err, h)
			return
		}
		if ctx.Err() != nil {
			return
		}
		h.SetTrack(trackerID, track)
	})
}

// GenerateOAuthToken exchanges a user-supplied code for tracker
// credentials.
func (l *Loader) GenerateOAuthToken(trackerID int, code string, h TrackerHandler) bool {
	return l.start(trackerAuthKey(trackerID), func(ctx context.Context) {
		tracker := l.registry.Tracker(trackerID)
		if tracker == nil {
			return
		}
		if err := tracker.Authenticate(ctx, code); err != nil {
			l.trackerError(trackerID, err, h)
			return
		}
	})
}

func (l *Loader) loadTrack(ctx context.Context, tracker content.Tracker, trackerID int, seriesID string, h TrackerHandler) {
	track, err := tracker.GetTrack(ctx, seriesID)
	if err != nil {
		l.trackerError(trackerID, err, h)
		return
	}
	if ctx.Err() != nil {
		return
	}
	h.SetTrack(trackerID, track)
}

// surfaceError maps the error taxonomy onto the consumer hooks:
// blocked-content messages are shown verbatim, capability gaps are
// silent no-ops, everything else is a logged transient failure.
func (l *Loader) surfaceError(op string, err error, show func(string)) {
	if message, ok := content.IsUnavailable(err); ok {
		show(message)
		return
	}
	if errors.Is(err, content.ErrNotImplemented) {
		return
	}
	log.Printf("failed to %s: %v", op, err)
	show(err.Error())
}

func (l *Loader) trackerError(trackerID int, err error, h TrackerHandler) {
	if content.IsNotAuthenticated(err) {
		h.RequireAuth(trackerID)
		return
	}
	log.Printf("tracker operation failed: %v", err)
	h.ShowError(err.Error())
}
