// Package store persists the library as a JSON file. Covers, banners
// and category occurrence counts are display state and stay out of the
// file; everything else round-trips.
package store

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/xgi/houdoku-sub000/model"
)

const libraryFileName = "library.json"

type libraryRec struct {
	SavedAt    string        `json:"saved_at"`
	Categories []categoryRec `json:"categories"`
	Series     []seriesRec   `json:"series"`
}

type categoryRec struct {
	Name     string        `json:"name"`
	Color    string        `json:"color,omitempty"`
	Children []categoryRec `json:"children,omitempty"`
}

type seriesRec struct {
	Title           string         `json:"title"`
	Source          string         `json:"source"`
	ContentSourceID int            `json:"content_source_id"`
	Language        string         `json:"language,omitempty"`
	Author          string         `json:"author,omitempty"`
	Artist          string         `json:"artist,omitempty"`
	Status          string         `json:"status,omitempty"`
	AltNames        []string       `json:"alt_names,omitempty"`
	Description     string         `json:"description,omitempty"`
	Views           int            `json:"views,omitempty"`
	Follows         int            `json:"follows,omitempty"`
	Rating          float64        `json:"rating,omitempty"`
	RatingVotes     int            `json:"rating_votes,omitempty"`
	Genres          []string       `json:"genres,omitempty"`
	Categories      []string       `json:"categories,omitempty"`
	TrackerIDs      map[int]string `json:"tracker_ids,omitempty"`
	Chapters        []chapterRec   `json:"chapters"`
}

type chapterRec struct {
	Title       string  `json:"title"`
	Source      string  `json:"source"`
	ChapterNum  float64 `json:"chapter_num"`
	VolumeNum   int     `json:"volume_num,omitempty"`
	Language    string  `json:"language,omitempty"`
	Group       string  `json:"group,omitempty"`
	Views       int     `json:"views,omitempty"`
	PublishedAt string  `json:"published_at,omitempty"`
	Read        bool    `json:"read,omitempty"`
}

// SaveLibrary writes the library to dir/library.json, creating dir as
// needed.
func SaveLibrary(dir string, library *model.Library) error {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create data dir: %w", err)
	}
	rec := libraryRec{SavedAt: time.Now().Format(time.RFC3339)}
	for _, child := range library.Root.Children() {
		rec.Categories = append(rec.Categories, encodeCategory(child))
	}
	for _, s := range library.Series() {
		rec.Series = append(rec.Series, encodeSeries(s))
	}

	data, err := json.MarshalIndent(rec, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(filepath.Join(dir, libraryFileName), data, 0644)
}

// LoadLibrary reads dir/library.json. A missing file is not an error:
// it yields a fresh empty library.
func LoadLibrary(dir string) (*model.Library, error) {
	data, err := os.ReadFile(filepath.Join(dir, libraryFileName))
	if errors.Is(err, os.ErrNotExist) {
		return model.NewLibrary(), nil
	}
	if err != nil {
		return nil, err
	}
	var rec libraryRec
	if err := json.Unmarshal(data, &rec); err != nil {
		return nil, fmt.Errorf("failed to parse library file: %w", err)
	}

	library := model.NewLibrary()
	for _, c := range rec.Categories {
		if err := decodeCategory(library.Root, c); err != nil {
			return nil, err
		}
	}
	for _, s := range rec.Series {
		library.AddSeries(decodeSeries(s))
	}
	library.RecalculateOccurrences()
	return library, nil
}

func encodeCategory(c *model.Category) categoryRec {
	rec := categoryRec{Name: c.Name, Color: c.Color}
	for _, child := range c.Children() {
		rec.Children = append(rec.Children, encodeCategory(child))
	}
	return rec
}

func decodeCategory(parent *model.Category, rec categoryRec) error {
	node := model.NewCategory(rec.Name, rec.Color)
	if err := parent.AddChild(node); err != nil {
		return fmt.Errorf("failed to restore category tree: %w", err)
	}
	for _, child := range rec.Children {
		if err := decodeCategory(node, child); err != nil {
			return err
		}
	}
	return nil
}

func encodeSeries(s *model.Series) seriesRec {
	meta := s.Metadata()
	rec := seriesRec{
		Title:           s.Title,
		Source:          s.Source,
		ContentSourceID: s.ContentSourceID,
		Language:        meta.Language,
		Author:          meta.Author,
		Artist:          meta.Artist,
		Status:          string(meta.Status),
		AltNames:        meta.AltNames,
		Description:     meta.Description,
		Views:           meta.Views,
		Follows:         meta.Follows,
		Rating:          meta.Rating,
		RatingVotes:     meta.RatingVotes,
		Genres:          meta.Genres,
		Categories:      s.Categories,
		TrackerIDs:      s.TrackerIDs(),
	}
	for _, ch := range s.Chapters() {
		cr := chapterRec{
			Title:      ch.Title,
			Source:     ch.Source,
			ChapterNum: ch.ChapterNum,
			VolumeNum:  ch.VolumeNum,
			Language:   ch.Language,
			Group:      ch.Group,
			Views:      ch.Views,
			Read:       ch.Read,
		}
		if !ch.PublishedAt.IsZero() {
			cr.PublishedAt = ch.PublishedAt.Format(time.RFC3339)
		}
		rec.Chapters = append(rec.Chapters, cr)
	}
	return rec
}

func decodeSeries(rec seriesRec) *model.Series {
	s := model.NewSeries(rec.Title, rec.Source, rec.ContentSourceID, model.SeriesMetadata{
		Language:    rec.Language,
		Author:      rec.Author,
		Artist:      rec.Artist,
		Status:      model.SeriesStatus(rec.Status),
		AltNames:    rec.AltNames,
		Description: rec.Description,
		Views:       rec.Views,
		Follows:     rec.Follows,
		Rating:      rec.Rating,
		RatingVotes: rec.RatingVotes,
		Genres:      rec.Genres,
	})
	s.Categories = rec.Categories
	for trackerID, seriesID := range rec.TrackerIDs {
		s.SetTrackerID(trackerID, seriesID)
	}
	chapters := make([]*model.Chapter, 0, len(rec.Chapters))
	for _, cr := range rec.Chapters {
		ch := model.NewChapter(cr.Title, cr.Source, cr.ChapterNum)
		ch.VolumeNum = cr.VolumeNum
		ch.Language = cr.Language
		ch.Group = cr.Group
		ch.Views = cr.Views
		ch.Read = cr.Read
		if cr.PublishedAt != "" {
			if t, err := time.Parse(time.RFC3339, cr.PublishedAt); err == nil {
				ch.PublishedAt = t
			}
		}
		chapters = append(chapters, ch)
	}
	s.SetChapters(chapters)
	return s
}
