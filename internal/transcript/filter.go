package transcript

import (
	"regexp"
	"strings"
)

var (
	// A bracketed HH:MM:SS marker plus one optional whitespace character.
	// Line breaks are never consumed so line counts survive filtering.
	timestampRE = regexp.MustCompile(`\[\d{2}:\d{2}:\d{2}\][ \t\f\v\r]?`)
	speakerRE   = regexp.MustCompile(`Speaker \d+:[ \t\f\v\r]?`)
)

// Filter flattens segments into one text block, one segment per line, and
// applies the enabled filters to the joined text.
func Filter(segments []Segment, settings FilterSettings) string {
	return FilterText(strings.Join(Texts(segments), "\n"), settings)
}

// FilterText applies the enabled filters to already flattened text.
func FilterText(text string, settings FilterSettings) string {
	if !settings.RemoveTimestamps && !settings.RemoveSpeakerLabels {
		return text
	}

	// Removing one marker can splice its neighbours into a new match, so
	// repeat until nothing changes.
	for {
		next := text
		if settings.RemoveTimestamps {
			next = timestampRE.ReplaceAllString(next, "")
		}
		if settings.RemoveSpeakerLabels {
			next = speakerRE.ReplaceAllString(next, "")
		}
		if next == text {
			return next
		}
		text = next
	}
}

// FilterSegments is the structural variant of Filter: each segment's text is
// filtered on its own and segments left empty are dropped. Timing is kept.
func FilterSegments(segments []Segment, settings FilterSettings) []Segment {
	ret := make([]Segment, 0, len(segments))
	for _, seg := range segments {
		seg.Text = FilterText(seg.Text, settings)
		if strings.TrimSpace(seg.Text) == "" {
			continue
		}
		ret = append(ret, seg)
	}
	return ret
}
