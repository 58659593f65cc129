package plugins

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"sync"

	"github.com/google/uuid"

	"github.com/xgi/houdoku-sub000/content"
	"github.com/xgi/houdoku-sub000/model"
)

// AniListID is the stable tracker plugin identifier.
const AniListID = 101

const (
	anilistGraphQL  = "https://graphql.anilist.co"
	anilistClientID = "4171"
)

// AniList syncs reading progress with anilist.co over its GraphQL API.
// Authentication is the paste-the-token flow: the user opens AuthURL,
// approves, and hands the resulting access token to Authenticate.
type AniList struct {
	fetcher *content.Fetcher

	mu     sync.Mutex
	token  string
	userID int
}

// NewAniList returns the AniList tracker.
func NewAniList(fetcher *content.Fetcher) *AniList {
	return &AniList{fetcher: fetcher}
}

func (a *AniList) ID() int      { return AniListID }
func (a *AniList) Name() string { return "AniList" }

// AuthURL builds the authorize URL with a fresh state nonce.
func (a *AniList) AuthURL() string {
	return fmt.Sprintf(
		"https://anilist.co/api/v2/oauth/authorize?client_id=%s&response_type=token&state=%s",
		anilistClientID, uuid.NewString(),
	)
}

type anilistRequest struct {
	Query     string         `json:"query"`
	Variables map[string]any `json:"variables"`
}

// Authenticate stores the user-supplied access token and validates it by
// resolving the viewer's user ID.
func (a *AniList) Authenticate(ctx context.Context, code string) error {
	code = strings.TrimSpace(code)
	if code == "" {
		return &content.NotAuthenticatedError{Tracker: a.Name()}
	}

	var resp struct {
		Data struct {
			Viewer struct {
				ID int `json:"id"`
			} `json:"Viewer"`
		} `json:"data"`
	}
	err := a.fetcher.PostJSON(ctx, anilistGraphQL, map[string]string{
		"Authorization": "Bearer " + code,
	}, anilistRequest{Query: `query { Viewer { id } }`}, &resp)
	if err != nil {
		return fmt.Errorf("failed to validate anilist token: %w", err)
	}
	if resp.Data.Viewer.ID == 0 {
		return &content.NotAuthenticatedError{Tracker: a.Name()}
	}

	a.mu.Lock()
	a.token = code
	a.userID = resp.Data.Viewer.ID
	a.mu.Unlock()
	return nil
}

// IsAuthenticated reports whether a validated token is held.
func (a *AniList) IsAuthenticated() bool {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.token != "" && a.userID != 0
}

// Search finds candidate manga entries for a title.
func (a *AniList) Search(ctx context.Context, title string) ([]model.Track, error) {
	headers, _, err := a.credentials()
	if err != nil {
		return nil, err
	}
	var resp struct {
		Data struct {
			Page struct {
				Media []struct {
					ID    int `json:"id"`
					Title struct {
						Romaji string `json:"romaji"`
					} `json:"title"`
				} `json:"media"`
			} `json:"Page"`
		} `json:"data"`
	}
	query := `query ($search: String) {
		Page (perPage: 5) {
			media (search: $search, type: MANGA) { id title { romaji } }
		}
	}`
	err = a.fetcher.PostJSON(ctx, anilistGraphQL, headers, anilistRequest{
		Query:     query,
		Variables: map[string]any{"search": title},
	}, &resp)
	if err != nil {
		return nil, fmt.Errorf("failed to search anilist: %w", err)
	}
	tracks := make([]model.Track, 0, len(resp.Data.Page.Media))
	for _, media := range resp.Data.Page.Media {
		tracks = append(tracks, model.Track{
			SeriesID: fmt.Sprint(media.ID),
			Title:    media.Title.Romaji,
		})
	}
	return tracks, nil
}

// GetTrack reads the viewer's list entry for a media ID, nil when the
// series is not on the list.
func (a *AniList) GetTrack(ctx context.Context, seriesID string) (*model.Track, error) {
	headers, userID, err := a.credentials()
	if err != nil {
		return nil, err
	}
	mediaID, err := mediaIDOf(seriesID)
	if err != nil {
		return nil, err
	}
	var resp struct {
		Data struct {
			MediaList *struct {
				ID       int    `json:"id"`
				Status   string `json:"status"`
				Progress int    `json:"progress"`
				Media    struct {
					Title struct {
						Romaji string `json:"romaji"`
					} `json:"title"`
				} `json:"media"`
			} `json:"MediaList"`
		} `json:"data"`
	}
	query := `query ($mediaId: Int, $userId: Int) {
		MediaList (mediaId: $mediaId, userId: $userId) {
			id status progress media { title { romaji } }
		}
	}`
	err = a.fetcher.PostJSON(ctx, anilistGraphQL, headers, anilistRequest{
		Query:     query,
		Variables: map[string]any{"mediaId": mediaID, "userId": userID},
	}, &resp)
	if err != nil {
		if strings.Contains(err.Error(), "Not Found") {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to read anilist entry: %w", err)
	}
	entry := resp.Data.MediaList
	if entry == nil {
		return nil, nil
	}
	return &model.Track{
		SeriesID: seriesID,
		ListID:   fmt.Sprint(entry.ID),
		Title:    entry.Media.Title.Romaji,
		Progress: entry.Progress,
		Status:   fromAnilistStatus(entry.Status),
	}, nil
}

// UpdateProgress writes the chapters-read count.
func (a *AniList) UpdateProgress(ctx context.Context, track model.Track) (*model.Track, error) {
	mediaID, err := mediaIDOf(track.SeriesID)
	if err != nil {
		return nil, err
	}
	return a.saveEntry(ctx, track, map[string]any{
		"mediaId":  mediaID,
		"progress": track.Progress,
	})
}

// UpdateStatus writes the reading status.
func (a *AniList) UpdateStatus(ctx context.Context, track model.Track) (*model.Track, error) {
	mediaID, err := mediaIDOf(track.SeriesID)
	if err != nil {
		return nil, err
	}
	return a.saveEntry(ctx, track, map[string]any{
		"mediaId": mediaID,
		"status":  toAnilistStatus(track.Status),
	})
}

func (a *AniList) saveEntry(ctx context.Context, track model.Track, variables map[string]any) (*model.Track, error) {
	headers, _, err := a.credentials()
	if err != nil {
		return nil, err
	}
	var resp struct {
		Data struct {
			SaveMediaListEntry struct {
				ID       int    `json:"id"`
				Status   string `json:"status"`
				Progress int    `json:"progress"`
			} `json:"SaveMediaListEntry"`
		} `json:"data"`
	}
	query := `mutation ($mediaId: Int, $progress: Int, $status: MediaListStatus) {
		SaveMediaListEntry (mediaId: $mediaId, progress: $progress, status: $status) {
			id status progress
		}
	}`
	err = a.fetcher.PostJSON(ctx, anilistGraphQL, headers, anilistRequest{
		Query:     query,
		Variables: variables,
	}, &resp)
	if err != nil {
		return nil, fmt.Errorf("failed to update anilist entry: %w", err)
	}
	saved := resp.Data.SaveMediaListEntry
	return &model.Track{
		SeriesID: track.SeriesID,
		ListID:   fmt.Sprint(saved.ID),
		Title:    track.Title,
		Progress: saved.Progress,
		Status:   fromAnilistStatus(saved.Status),
	}, nil
}

// mediaIDOf converts a stored tracker series ID to the numeric media ID
// the GraphQL schema declares ($mediaId: Int). AniList media IDs are
// always numeric; anything else is a corrupt assignment.
func mediaIDOf(seriesID string) (int, error) {
	mediaID, err := strconv.Atoi(seriesID)
	if err != nil {
		return 0, fmt.Errorf("invalid anilist media id %q: %w", seriesID, err)
	}
	return mediaID, nil
}

func (a *AniList) credentials() (map[string]string, int, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.token == "" || a.userID == 0 {
		return nil, 0, &content.NotAuthenticatedError{Tracker: a.Name()}
	}
	return map[string]string{"Authorization": "Bearer " + a.token}, a.userID, nil
}

func fromAnilistStatus(status string) model.TrackStatus {
	switch status {
	case "CURRENT", "REPEATING":
		return model.TrackReading
	case "COMPLETED":
		return model.TrackCompleted
	case "PAUSED":
		return model.TrackPaused
	case "DROPPED":
		return model.TrackDropped
	case "PLANNING":
		return model.TrackPlanning
	default:
		return model.TrackReading
	}
}

func toAnilistStatus(status model.TrackStatus) string {
	switch status {
	case model.TrackCompleted:
		return "COMPLETED"
	case model.TrackPaused:
		return "PAUSED"
	case model.TrackDropped:
		return "DROPPED"
	case model.TrackPlanning:
		return "PLANNING"
	default:
		return "CURRENT"
	}
}
