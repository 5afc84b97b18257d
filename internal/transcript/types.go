package transcript

import "time"

// Segment is one timed chunk of transcript text. Start and Duration are in seconds.
type Segment struct {
	Text     string  `json:"text"`
	Start    float64 `json:"start"`
	Duration float64 `json:"duration"`

	// HasTiming is false when the service returned flat text and Start/Duration are zero.
	HasTiming bool `json:"-"`
}

func (s Segment) StartTime() time.Duration {
	return secondsToDuration(s.Start)
}

func (s Segment) EndTime() time.Duration {
	return secondsToDuration(s.Start + s.Duration)
}

func secondsToDuration(sec float64) time.Duration {
	return time.Duration(sec * float64(time.Second)).Round(time.Millisecond)
}

// Transcript is a retrieved transcript owned by a session's result set.
type Transcript struct {
	ID       string    `json:"id"`
	Title    string    `json:"title"`
	Content  []Segment `json:"content"`
	URL      string    `json:"url"`
	Language string    `json:"language,omitempty"`
}

// FilterSettings are applied at render and export time and never mutate a Transcript.
type FilterSettings struct {
	RemoveTimestamps    bool `json:"remove_timestamps"`
	RemoveSpeakerLabels bool `json:"remove_speaker_labels"`
}

// Texts returns segment texts in order.
func Texts(segments []Segment) []string {
	ret := make([]string, 0, len(segments))
	for _, seg := range segments {
		ret = append(ret, seg.Text)
	}
	return ret
}
