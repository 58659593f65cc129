package model

import "sync"

// Library owns the category tree and the ordered series collection.
type Library struct {
	Root *Category

	mu     sync.Mutex
	series []*Series
}

// NewLibrary returns an empty library with the implicit root category.
func NewLibrary() *Library {
	return &Library{Root: NewRootCategory()}
}

// Series returns the series collection in insertion order.
func (l *Library) Series() []*Series {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.series
}

// AddSeries appends a series and recounts category occurrences. A series
// already present (same source locator and content source) is not added
// twice.
func (l *Library) AddSeries(s *Series) bool {
	l.mu.Lock()
	for _, existing := range l.series {
		if existing.Source == s.Source && existing.ContentSourceID == s.ContentSourceID {
			l.mu.Unlock()
			return false
		}
	}
	l.series = append(l.series, s)
	l.mu.Unlock()
	l.RecalculateOccurrences()
	return true
}

// RemoveSeries drops a series from the collection and recounts.
func (l *Library) RemoveSeries(s *Series) bool {
	l.mu.Lock()
	removed := false
	for i, existing := range l.series {
		if existing == s {
			l.series = append(l.series[:i], l.series[i+1:]...)
			removed = true
			break
		}
	}
	l.mu.Unlock()
	if removed {
		l.RecalculateOccurrences()
	}
	return removed
}

// FindSeries locates a series by its identity pair, nil when absent.
func (l *Library) FindSeries(contentSourceID int, source string) *Series {
	l.mu.Lock()
	defer l.mu.Unlock()
	for _, s := range l.series {
		if s.ContentSourceID == contentSourceID && s.Source == source {
			return s
		}
	}
	return nil
}

// RecalculateOccurrences recounts every category's series total in one
// pass. The pass is idempotent and touches no series state: the root
// always equals the series count, every other node counts the series
// whose category list matches it or any of its descendants.
func (l *Library) RecalculateOccurrences() {
	l.mu.Lock()
	series := make([]*Series, len(l.series))
	copy(series, l.series)
	l.mu.Unlock()

	var recount func(c *Category)
	recount = func(c *Category) {
		if c.parent == nil {
			c.occurrences.Store(int64(len(series)))
		} else {
			n := 0
			for _, s := range series {
				if c.matches(s) {
					n++
				}
			}
			c.occurrences.Store(int64(n))
		}
		for _, child := range c.children {
			recount(child)
		}
	}
	recount(l.Root)
}
