package youtube

import (
	"fmt"
	"net/url"
	"regexp"
	"strings"

	"github.com/MimeLyc/yt-transcript-extractor/internal/apperr"
)

type URLKind string

const (
	KindVideo    URLKind = "video"
	KindPlaylist URLKind = "playlist"
	KindChannel  URLKind = "channel"
)

// hostMarkers are the substrings that identify a YouTube URL.
var hostMarkers = []string{"youtube.com", "youtu.be"}

// ExtractionRequest is one validated form submission.
type ExtractionRequest struct {
	URLs []string `json:"urls"`
	Type URLKind  `json:"type"`
}

// ParseKind parses a declared kind. An empty string means video.
func ParseKind(s string) (URLKind, error) {
	switch URLKind(strings.ToLower(strings.TrimSpace(s))) {
	case "", KindVideo:
		return KindVideo, nil
	case KindPlaylist:
		return KindPlaylist, nil
	case KindChannel:
		return KindChannel, nil
	default:
		return "", apperr.New(apperr.ErrValidation, fmt.Sprintf("unknown url type %q", s)).
			WithContext("type", s)
	}
}

// Validate splits raw input into lines and accepts it when every non-empty
// line carries a YouTube host marker. kind is taken as declared by the caller.
func Validate(raw string, kind URLKind) (ExtractionRequest, error) {
	lines := strings.Split(raw, "\n")
	urls := make([]string, 0, len(lines))
	for _, line := range lines {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		urls = append(urls, line)
	}

	if len(urls) == 0 {
		return ExtractionRequest{}, apperr.New(apperr.ErrEmptyInput, "no YouTube URL entered")
	}

	for _, u := range urls {
		if !IsYouTubeURL(u) {
			return ExtractionRequest{}, apperr.New(apperr.ErrInvalidURL, "not a YouTube URL").
				WithContext("url", u)
		}
	}

	return ExtractionRequest{URLs: urls, Type: kind}, nil
}

func IsYouTubeURL(s string) bool {
	for _, marker := range hostMarkers {
		if strings.Contains(s, marker) {
			return true
		}
	}
	return false
}

var channelPathPrefixes = []string{"/channel/", "/c/", "/user/", "/@"}

// Classify guesses the kind from the URL shape. Validate never uses it.
func Classify(raw string) URLKind {
	u, err := url.Parse(strings.TrimSpace(raw))
	if err != nil {
		return KindVideo
	}
	if u.Query().Get("v") != "" || strings.Contains(u.Host, "youtu.be") {
		return KindVideo
	}
	if u.Query().Get("list") != "" || strings.HasPrefix(u.Path, "/playlist") {
		return KindPlaylist
	}
	for _, prefix := range channelPathPrefixes {
		if strings.HasPrefix(u.Path, prefix) {
			return KindChannel
		}
	}
	return KindVideo
}

var videoIDPatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?:v=|youtu\.be/)([A-Za-z0-9_-]{11})`),
	regexp.MustCompile(`/(?:shorts|embed|live)/([A-Za-z0-9_-]{11})`),
}

// VideoID extracts the 11 character video id from a watch, short-link,
// shorts or embed URL.
func VideoID(raw string) (string, bool) {
	for _, re := range videoIDPatterns {
		if m := re.FindStringSubmatch(raw); len(m) == 2 {
			return m[1], true
		}
	}
	return "", false
}
