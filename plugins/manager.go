// Package plugins holds the registry plus the bundled site adapters,
// tracker and info source. One file per site, flat, so a new adapter is
// one new file and one line in NewManager.
package plugins

import (
	"github.com/xgi/houdoku-sub000/content"
)

// Manager is the process-wide, read-only-after-construction registry of
// plugin instances. Lookups are linear scans over single-digit slices; a
// miss returns nil, which callers treat as "source no longer available"
// rather than an error.
type Manager struct {
	contentSources []content.ContentSource
	infoSources    []content.InfoSource
	trackers       []content.Tracker
}

// NewManager registers the bundled plugins against a shared fetcher.
func NewManager(fetcher *content.Fetcher) *Manager {
	return &Manager{
		contentSources: []content.ContentSource{
			NewMangaPark(fetcher),
			NewComicVault(fetcher),
		},
		infoSources: []content.InfoSource{
			NewKitsu(fetcher),
		},
		trackers: []content.Tracker{
			NewAniList(fetcher),
		},
	}
}

// ContentSource resolves a content source by ID, nil on miss.
func (m *Manager) ContentSource(id int) content.ContentSource {
	for _, s := range m.contentSources {
		if s.ID() == id {
			return s
		}
	}
	return nil
}

// InfoSource resolves an info source by ID, nil on miss.
func (m *Manager) InfoSource(id int) content.InfoSource {
	for _, s := range m.infoSources {
		if s.ID() == id {
			return s
		}
	}
	return nil
}

// Tracker resolves a tracker by ID, nil on miss.
func (m *Manager) Tracker(id int) content.Tracker {
	for _, t := range m.trackers {
		if t.ID() == id {
			return t
		}
	}
	return nil
}

// ContentSources returns all registered content sources in order.
func (m *Manager) ContentSources() []content.ContentSource { return m.contentSources }

// InfoSources returns all registered info sources in order.
func (m *Manager) InfoSources() []content.InfoSource { return m.infoSources }

// Trackers returns all registered trackers in order.
func (m *Manager) Trackers() []content.Tracker { return m.trackers }
