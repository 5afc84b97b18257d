package remote

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/MimeLyc/yt-transcript-extractor/internal/transcript"
)

// URLRequest is the body of both /transcript and /summarize.
type URLRequest struct {
	URL string `json:"url"`
}

// TranscriptResponse is the decoded /transcript reply. Segments is always
// populated regardless of which shape the service sent.
type TranscriptResponse struct {
	VideoID  string
	Title    string
	Segments []transcript.Segment
}

type rawTranscriptResponse struct {
	VideoID    string          `json:"video_id"`
	Title      string          `json:"title,omitempty"`
	Transcript json.RawMessage `json:"transcript"`
}

type rawSegment struct {
	Text     string   `json:"text"`
	Start    *float64 `json:"start"`
	Duration *float64 `json:"duration"`
}

// SummaryResponse is the decoded /summarize reply.
type SummaryResponse struct {
	VideoID string `json:"video_id,omitempty"`
	Summary string `json:"summary"`
}

// decodeTranscript reconciles the two transcript shapes: a flat string
// becomes one untimed segment per line, an array keeps its timing.
func decodeTranscript(body []byte) (*TranscriptResponse, error) {
	var raw rawTranscriptResponse
	if err := json.Unmarshal(body, &raw); err != nil {
		return nil, fmt.Errorf("failed to parse response: %w", err)
	}

	ret := &TranscriptResponse{
		VideoID: raw.VideoID,
		Title:   strings.TrimSpace(raw.Title),
	}

	payload := bytes.TrimSpace(raw.Transcript)
	if len(payload) == 0 || bytes.Equal(payload, []byte("null")) {
		return nil, fmt.Errorf("response has no transcript")
	}

	switch payload[0] {
	case '"':
		var text string
		if err := json.Unmarshal(payload, &text); err != nil {
			return nil, fmt.Errorf("failed to parse transcript text: %w", err)
		}
		for _, line := range strings.Split(text, "\n") {
			ret.Segments = append(ret.Segments, transcript.Segment{Text: line})
		}
	case '[':
		var segments []rawSegment
		if err := json.Unmarshal(payload, &segments); err != nil {
			return nil, fmt.Errorf("failed to parse transcript segments: %w", err)
		}
		ret.Segments = make([]transcript.Segment, 0, len(segments))
		for _, seg := range segments {
			s := transcript.Segment{Text: seg.Text}
			if seg.Start != nil && seg.Duration != nil {
				s.Start = *seg.Start
				s.Duration = *seg.Duration
				s.HasTiming = true
			}
			ret.Segments = append(ret.Segments, s)
		}
	default:
		return nil, fmt.Errorf("unexpected transcript shape: %.20s", string(payload))
	}

	return ret, nil
}
