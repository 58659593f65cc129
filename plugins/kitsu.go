package plugins

import (
	"context"
	"fmt"
	"net/url"

	"github.com/xgi/houdoku-sub000/content"
	"github.com/xgi/houdoku-sub000/model"
)

// KitsuID is the stable info-source plugin identifier.
const KitsuID = 201

// Kitsu looks up banner art on kitsu.io, which indexes manga by title
// independently of any content source.
type Kitsu struct {
	fetcher *content.Fetcher
	apiURL  string
}

// NewKitsu returns the kitsu.io info source.
func NewKitsu(fetcher *content.Fetcher) *Kitsu {
	return &Kitsu{fetcher: fetcher, apiURL: "https://kitsu.io/api/edge"}
}

func (k *Kitsu) ID() int      { return KitsuID }
func (k *Kitsu) Name() string { return "Kitsu" }

type kitsuSearchResponse struct {
	Data []struct {
		Attributes struct {
			CoverImage struct {
				Original string `json:"original"`
			} `json:"coverImage"`
		} `json:"attributes"`
	} `json:"data"`
}

// Banner resolves banner art for a title. A title kitsu does not know
// yields nil, nil; the caller displays nothing.
func (k *Kitsu) Banner(ctx context.Context, title string) (*model.Image, error) {
	var resp kitsuSearchResponse
	searchURL := fmt.Sprintf("%s/manga?filter[text]=%s&page[limit]=1", k.apiURL, url.QueryEscape(title))
	if err := k.fetcher.GetJSON(ctx, searchURL, map[string]string{
		"Accept": "application/vnd.api+json",
	}, &resp); err != nil {
		return nil, fmt.Errorf("failed to search kitsu: %w", err)
	}
	if len(resp.Data) == 0 || resp.Data[0].Attributes.CoverImage.Original == "" {
		return nil, nil
	}
	return k.fetcher.Image(ctx, resp.Data[0].Attributes.CoverImage.Original, "")
}
