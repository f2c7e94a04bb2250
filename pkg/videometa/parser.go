package videometa

import (
	"context"
	"fmt"
	"net/http"
	"regexp"
	"strconv"

	"golang.org/x/net/html"
)

func (r *Resolver) getFromPage(ctx context.Context, sourceID string) (*VideoData, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, "https://youtu.be/"+sourceID, nil)
	if err != nil {
		return nil, err
	}

	resp, err := r.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusTooManyRequests {
		return nil, ErrRateLimited
	}
	if resp.StatusCode != http.StatusOK {
		return nil, ErrNotFound
	}

	doc, err := html.Parse(resp.Body)
	if err != nil {
		return nil, err
	}

	var videoData VideoData
	videoData.Title = getTitle(doc)
	videoData.ThumbnailURL = fmt.Sprintf("https://i.ytimg.com/vi/%s/hqdefault.jpg", sourceID)
	videoData.AuthorName = getLinkContent(doc)
	videoData.DurationSec = ParseISODuration(getMetaContent(doc, "duration"))

	if videoData.Title == "" {
		return nil, ErrNotFound
	}

	return &videoData, nil
}

func getTitle(n *html.Node) string {
	if n.Type == html.ElementNode && n.Data == "title" && n.FirstChild != nil {
		return n.FirstChild.Data
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if title := getTitle(c); title != "" {
			return title
		}
	}
	return ""
}

func getLinkContent(n *html.Node) string {
	if n.Type == html.ElementNode && n.Data == "link" {
		for _, attr := range n.Attr {
			if attr.Key == "itemprop" && attr.Val == "name" {
				for _, attr := range n.Attr {
					if attr.Key == "content" {
						return attr.Val
					}
				}
			}
		}
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if content := getLinkContent(c); content != "" {
			return content
		}
	}
	return ""
}

func getMetaContent(n *html.Node, itemprop string) string {
	if n.Type == html.ElementNode && n.Data == "meta" {
		var prop, content string
		for _, attr := range n.Attr {
			switch attr.Key {
			case "itemprop":
				prop = attr.Val
			case "content":
				content = attr.Val
			}
		}
		if prop == itemprop {
			return content
		}
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if content := getMetaContent(c, itemprop); content != "" {
			return content
		}
	}
	return ""
}

var isoDurationRe = regexp.MustCompile(`PT(?:(\d+)H)?(?:(\d+)M)?(?:(\d+)S)?`)

// ParseISODuration converts an ISO 8601 duration like PT4M13S to seconds.
// Malformed input yields 0.
func ParseISODuration(isoDuration string) int {
	match := isoDurationRe.FindStringSubmatch(isoDuration)
	if match == nil {
		return 0
	}

	hours, _ := strconv.Atoi(match[1])
	minutes, _ := strconv.Atoi(match[2])
	seconds, _ := strconv.Atoi(match[3])

	return hours*3600 + minutes*60 + seconds
}
