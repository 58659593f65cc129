package plugins

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"strings"
	"testing"

	"github.com/xgi/houdoku-sub000/content"
	"github.com/xgi/houdoku-sub000/model"
)

type rtFunc func(*http.Request) (*http.Response, error)

func (f rtFunc) RoundTrip(r *http.Request) (*http.Response, error) { return f(r) }

func jsonResponse(body string) *http.Response {
	return &http.Response{
		StatusCode: http.StatusOK,
		Header:     http.Header{"Content-Type": []string{"application/json"}},
		Body:       io.NopCloser(strings.NewReader(body)),
	}
}

func anilistWith(t *testing.T, handler func(query string, variables map[string]any) string) *AniList {
	t.Helper()
	fetcher := content.NewFetcher(0)
	fetcher.SetBaseTransport(rtFunc(func(r *http.Request) (*http.Response, error) {
		var req anilistRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Fatalf("failed to decode graphql request: %v", err)
		}
		return jsonResponse(handler(req.Query, req.Variables)), nil
	}))
	return NewAniList(fetcher)
}

func TestAnilistAuthenticate(t *testing.T) {
	a := anilistWith(t, func(query string, _ map[string]any) string {
		if !strings.Contains(query, "Viewer") {
			t.Fatalf("unexpected query %q", query)
		}
		return `{"data":{"Viewer":{"id":4242}}}`
	})

	if a.IsAuthenticated() {
		t.Fatalf("fresh tracker should not be authenticated")
	}
	if err := a.Authenticate(context.Background(), "  token  "); err != nil {
		t.Fatalf("failed to authenticate: %v", err)
	}
	if !a.IsAuthenticated() {
		t.Fatalf("tracker should be authenticated after token validation")
	}
}

func TestAnilistAuthenticateRejectsEmptyCode(t *testing.T) {
	a := NewAniList(content.NewFetcher(0))
	err := a.Authenticate(context.Background(), "   ")
	if !content.IsNotAuthenticated(err) {
		t.Fatalf("expected a not-authenticated error, got %v", err)
	}
}

func TestAnilistRequiresTokenForReads(t *testing.T) {
	a := NewAniList(content.NewFetcher(0))
	_, err := a.GetTrack(context.Background(), "30002")
	if !content.IsNotAuthenticated(err) {
		t.Fatalf("expected a not-authenticated error, got %v", err)
	}
	_, err = a.Search(context.Background(), "berserk")
	if !content.IsNotAuthenticated(err) {
		t.Fatalf("expected a not-authenticated error, got %v", err)
	}
}

func TestAnilistGetTrack(t *testing.T) {
	a := anilistWith(t, func(query string, variables map[string]any) string {
		if strings.Contains(query, "Viewer") {
			return `{"data":{"Viewer":{"id":4242}}}`
		}
		// The schema declares $mediaId: Int, so the variable must arrive
		// as a JSON number, never the stored string.
		if variables["mediaId"] != float64(30002) {
			t.Fatalf("unexpected mediaId %v (%T)", variables["mediaId"], variables["mediaId"])
		}
		return `{"data":{"MediaList":{"id":99,"status":"CURRENT","progress":120,
			"media":{"title":{"romaji":"Berserk"}}}}}`
	})
	if err := a.Authenticate(context.Background(), "token"); err != nil {
		t.Fatalf("failed to authenticate: %v", err)
	}

	track, err := a.GetTrack(context.Background(), "30002")
	if err != nil {
		t.Fatalf("failed to get track: %v", err)
	}
	if track == nil || track.Progress != 120 || track.Status != model.TrackReading {
		t.Fatalf("unexpected track %+v", track)
	}
	if track.ListID != "99" || track.Title != "Berserk" {
		t.Fatalf("unexpected track identity %+v", track)
	}
}

func TestAnilistGetTrackAbsent(t *testing.T) {
	a := anilistWith(t, func(query string, _ map[string]any) string {
		if strings.Contains(query, "Viewer") {
			return `{"data":{"Viewer":{"id":4242}}}`
		}
		return `{"data":{"MediaList":null}}`
	})
	if err := a.Authenticate(context.Background(), "token"); err != nil {
		t.Fatalf("failed to authenticate: %v", err)
	}

	track, err := a.GetTrack(context.Background(), "30002")
	if err != nil {
		t.Fatalf("absent entry should not be an error: %v", err)
	}
	if track != nil {
		t.Fatalf("expected nil track for an unlisted series, got %+v", track)
	}
}

func TestAnilistUpdateProgress(t *testing.T) {
	a := anilistWith(t, func(query string, variables map[string]any) string {
		if strings.Contains(query, "Viewer") {
			return `{"data":{"Viewer":{"id":4242}}}`
		}
		if !strings.Contains(query, "SaveMediaListEntry") {
			t.Fatalf("unexpected query %q", query)
		}
		if variables["mediaId"] != float64(30002) {
			t.Fatalf("unexpected mediaId %v (%T)", variables["mediaId"], variables["mediaId"])
		}
		return `{"data":{"SaveMediaListEntry":{"id":99,"status":"CURRENT","progress":121}}}`
	})
	if err := a.Authenticate(context.Background(), "token"); err != nil {
		t.Fatalf("failed to authenticate: %v", err)
	}

	track, err := a.UpdateProgress(context.Background(), model.Track{SeriesID: "30002", Progress: 121})
	if err != nil {
		t.Fatalf("failed to update progress: %v", err)
	}
	if track.Progress != 121 || track.Status != model.TrackReading {
		t.Fatalf("unexpected saved entry %+v", track)
	}
}

func TestAnilistRejectsNonNumericMediaID(t *testing.T) {
	a := anilistWith(t, func(query string, _ map[string]any) string {
		if strings.Contains(query, "Viewer") {
			return `{"data":{"Viewer":{"id":4242}}}`
		}
		t.Fatalf("no request should be issued for a corrupt media id")
		return ""
	})
	if err := a.Authenticate(context.Background(), "token"); err != nil {
		t.Fatalf("failed to authenticate: %v", err)
	}

	if _, err := a.GetTrack(context.Background(), "not-a-number"); err == nil {
		t.Fatalf("expected an error for a non-numeric media id")
	}
	if _, err := a.UpdateProgress(context.Background(), model.Track{SeriesID: "abc", Progress: 1}); err == nil {
		t.Fatalf("expected an error for a non-numeric media id")
	}
}

func TestAnilistStatusMapping(t *testing.T) {
	cases := []struct {
		remote string
		local  model.TrackStatus
	}{
		{"CURRENT", model.TrackReading},
		{"REPEATING", model.TrackReading},
		{"COMPLETED", model.TrackCompleted},
		{"PAUSED", model.TrackPaused},
		{"DROPPED", model.TrackDropped},
		{"PLANNING", model.TrackPlanning},
	}
	for _, c := range cases {
		if got := fromAnilistStatus(c.remote); got != c.local {
			t.Fatalf("fromAnilistStatus(%q) = %q, want %q", c.remote, got, c.local)
		}
	}
	if toAnilistStatus(model.TrackReading) != "CURRENT" {
		t.Fatalf("round trip for the reading status broke")
	}
	if toAnilistStatus(model.TrackPlanning) != "PLANNING" {
		t.Fatalf("round trip for the planning status broke")
	}
}

func TestManagerLookups(t *testing.T) {
	m := NewManager(content.NewFetcher(0))

	if src := m.ContentSource(MangaParkID); src == nil || src.Name() != "MangaPark" {
		t.Fatalf("failed to resolve mangapark")
	}
	if src := m.ContentSource(ComicVaultID); src == nil || src.Name() != "ComicVault" {
		t.Fatalf("failed to resolve comicvault")
	}
	if m.ContentSource(999) != nil {
		t.Fatalf("unknown content source should resolve to nil")
	}
	if info := m.InfoSource(KitsuID); info == nil || info.Name() != "Kitsu" {
		t.Fatalf("failed to resolve kitsu")
	}
	if tracker := m.Tracker(AniListID); tracker == nil || tracker.Name() != "AniList" {
		t.Fatalf("failed to resolve anilist")
	}
	if m.Tracker(MangaParkID) != nil {
		t.Fatalf("tracker namespace must not overlap content sources")
	}
}
