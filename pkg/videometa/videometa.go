package videometa

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"regexp"
	"time"
)

var (
	ErrNotFound    = errors.New("video not found")
	ErrRateLimited = errors.New("metadata provider rate limited")

	ErrVideoNotEmbeddable = errors.New("video is not embeddable")
)

type VideoData struct {
	SourceID     string `json:"source_id"`
	Title        string `json:"title"`
	AuthorName   string `json:"author_name"`
	ThumbnailURL string `json:"thumbnail_url"`
	DurationSec  int    `json:"duration_sec"`
}

var sourceIDPatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?:youtube\.com/watch\?(?:.*&)?v=|youtu\.be/|youtube\.com/embed/|youtube\.com/v/)([^&\s?]+)`),
	regexp.MustCompile(`youtube\.com/shorts/([^&\s?]+)`),
}

// ExtractSourceID pulls the 11-character video identifier out of the usual
// watch/short-link/embed url shapes. A bare identifier is accepted as-is.
func ExtractSourceID(rawURL string) (string, error) {
	for _, pattern := range sourceIDPatterns {
		if match := pattern.FindStringSubmatch(rawURL); match != nil {
			return match[1], nil
		}
	}

	if len(rawURL) == 11 && !regexp.MustCompile(`[/?&\s]`).MatchString(rawURL) {
		return rawURL, nil
	}

	return "", ErrNotFound
}

type Resolver struct {
	client *http.Client
}

func NewResolver() *Resolver {
	return &Resolver{
		client: &http.Client{Timeout: 10 * time.Second},
	}
}

// Resolve fetches title, author and thumbnail via the oembed endpoint and
// falls back to scraping the watch page when the video is not embeddable.
// Duration only comes from the page scrape, so the oembed path does a scrape
// for it as well.
func (r *Resolver) Resolve(ctx context.Context, sourceID string) (*VideoData, error) {
	videoData, err := r.getWithEmbed(ctx, sourceID)
	if err != nil {
		if !errors.Is(err, ErrVideoNotEmbeddable) {
			return nil, fmt.Errorf("failed to get video data with embed: %w", err)
		}

		videoData, err = r.getFromPage(ctx, sourceID)
		if err != nil {
			return nil, fmt.Errorf("failed to get video data from page: %w", err)
		}
	}

	if videoData.DurationSec == 0 {
		if pageData, err := r.getFromPage(ctx, sourceID); err == nil {
			videoData.DurationSec = pageData.DurationSec
		}
	}

	videoData.SourceID = sourceID

	return videoData, nil
}

func (r *Resolver) getWithEmbed(ctx context.Context, sourceID string) (*VideoData, error) {
	embedURL := "https://www.youtube.com/oembed?format=json&url=" +
		url.QueryEscape("https://www.youtube.com/watch?v="+sourceID)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, embedURL, nil)
	if err != nil {
		return nil, err
	}

	resp, err := r.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	switch resp.StatusCode {
	case http.StatusOK:
	case http.StatusNotFound:
		return nil, ErrNotFound
	case http.StatusTooManyRequests:
		return nil, ErrRateLimited
	case http.StatusUnauthorized, http.StatusForbidden:
		return nil, ErrVideoNotEmbeddable
	default:
		return nil, fmt.Errorf("oembed returned status %d", resp.StatusCode)
	}

	var videoData VideoData
	if err := json.NewDecoder(resp.Body).Decode(&videoData); err != nil {
		return nil, err
	}

	if videoData.ThumbnailURL == "" {
		videoData.ThumbnailURL = fmt.Sprintf("https://i.ytimg.com/vi/%s/hqdefault.jpg", sourceID)
	}

	return &videoData, nil
}
