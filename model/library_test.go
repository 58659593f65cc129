package model

import (
	"testing"
)

func makeSeries(title, source string, categories ...string) *Series {
	s := NewSeries(title, source, 1, SeriesMetadata{})
	s.Categories = categories
	return s
}

func TestAddSeriesRejectsDuplicates(t *testing.T) {
	lib := NewLibrary()
	if !lib.AddSeries(makeSeries("A", "/s/a")) {
		t.Fatalf("first add should succeed")
	}
	if lib.AddSeries(makeSeries("A again", "/s/a")) {
		t.Fatalf("duplicate identity should be rejected")
	}

	// Same locator on a different source is a distinct series.
	other := makeSeries("A elsewhere", "/s/a")
	other.ContentSourceID = 2
	if !lib.AddSeries(other) {
		t.Fatalf("same locator on another source should be accepted")
	}
	if len(lib.Series()) != 2 {
		t.Fatalf("expected 2 series, got %d", len(lib.Series()))
	}
}

func TestRemoveSeries(t *testing.T) {
	lib := NewLibrary()
	s := makeSeries("A", "/s/a")
	lib.AddSeries(s)

	if !lib.RemoveSeries(s) {
		t.Fatalf("removal should succeed")
	}
	if lib.RemoveSeries(s) {
		t.Fatalf("second removal should report not found")
	}
	if lib.Root.Occurrences() != 0 {
		t.Fatalf("root occurrences should drop to 0, got %d", lib.Root.Occurrences())
	}
}

func TestFindSeries(t *testing.T) {
	lib := NewLibrary()
	s := makeSeries("A", "/s/a")
	lib.AddSeries(s)

	if found := lib.FindSeries(1, "/s/a"); found != s {
		t.Fatalf("expected to find the added series")
	}
	if found := lib.FindSeries(2, "/s/a"); found != nil {
		t.Fatalf("unexpected match on another source")
	}
}

func TestRecalculateOccurrences(t *testing.T) {
	lib := NewLibrary()
	action := NewCategory("Action", "")
	shounen := NewCategory("Shounen", "")
	drama := NewCategory("Drama", "")
	if err := lib.Root.AddChild(action); err != nil {
		t.Fatalf("failed to add category: %v", err)
	}
	if err := action.AddChild(shounen); err != nil {
		t.Fatalf("failed to add category: %v", err)
	}
	if err := lib.Root.AddChild(drama); err != nil {
		t.Fatalf("failed to add category: %v", err)
	}

	lib.AddSeries(makeSeries("A", "/s/a", "action"))
	lib.AddSeries(makeSeries("B", "/s/b", "Shounen"))
	lib.AddSeries(makeSeries("C", "/s/c"))

	if got := lib.Root.Occurrences(); got != 3 {
		t.Fatalf("root should count every series, got %d", got)
	}
	// Action counts its own tag and its descendant's.
	if got := action.Occurrences(); got != 2 {
		t.Fatalf("expected 2 under Action, got %d", got)
	}
	if got := shounen.Occurrences(); got != 1 {
		t.Fatalf("expected 1 under Shounen, got %d", got)
	}
	if got := drama.Occurrences(); got != 0 {
		t.Fatalf("expected Drama empty, got %d", got)
	}

	// Idempotent.
	lib.RecalculateOccurrences()
	if got := action.Occurrences(); got != 2 {
		t.Fatalf("recount changed a stable total, got %d", got)
	}
}
