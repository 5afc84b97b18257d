package transcript

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

var allSettings = []FilterSettings{
	{},
	{RemoveTimestamps: true},
	{RemoveSpeakerLabels: true},
	{RemoveTimestamps: true, RemoveSpeakerLabels: true},
}

func segs(texts ...string) []Segment {
	ret := make([]Segment, 0, len(texts))
	for _, text := range texts {
		ret = append(ret, Segment{Text: text})
	}
	return ret
}

func TestFilter_BothFilters(t *testing.T) {
	got := Filter(segs("[00:00:01] Speaker 1: Hello"), FilterSettings{
		RemoveTimestamps:    true,
		RemoveSpeakerLabels: true,
	})
	assert.Equal(t, "Hello", got)
}

func TestFilter_NoFiltersJoinsWithNewlines(t *testing.T) {
	got := Filter([]Segment{
		{Text: "[00:00:01] a", Start: 1, Duration: 2},
		{Text: "Speaker 2: b", Start: 3, Duration: 1},
	}, FilterSettings{})
	assert.Equal(t, "[00:00:01] a\nSpeaker 2: b", got)
}

func TestFilter_OnlyTimestamps(t *testing.T) {
	got := Filter(segs("[01:02:03] Speaker 1: hi", "mid [00:00:09]text"), FilterSettings{RemoveTimestamps: true})
	assert.Equal(t, "Speaker 1: hi\nmid text", got)
}

func TestFilter_MarkerOnlySegmentBecomesEmptyLine(t *testing.T) {
	got := Filter(segs("first", "[00:00:05] ", "Speaker 3:", "last"), FilterSettings{
		RemoveTimestamps:    true,
		RemoveSpeakerLabels: true,
	})
	assert.Equal(t, "first\n\n\nlast", got)
	assert.Len(t, strings.Split(got, "\n"), 4)
}

func TestFilter_DoesNotTouchNonMatchingBrackets(t *testing.T) {
	got := Filter(segs("[1:02:03] keep", "[music]", "Speaker: keep"), FilterSettings{
		RemoveTimestamps:    true,
		RemoveSpeakerLabels: true,
	})
	assert.Equal(t, "[1:02:03] keep\n[music]\nSpeaker: keep", got)
}

func TestFilter_Idempotent(t *testing.T) {
	inputs := [][]Segment{
		segs("[00:00:01] Speaker 1: Hello", "plain"),
		segs("[0[00:00:01] 0:00:02] nested"),
		segs("SpeSpeaker 1: aker 2: spliced"),
		segs("[00:0Speaker 4: 0:01] cross"),
		segs("", "[00:00:01]", "Speaker 10:  double space"),
	}

	for _, in := range inputs {
		for _, cfg := range allSettings {
			once := Filter(in, cfg)
			twice := FilterText(once, cfg)
			assert.Equal(t, once, twice, "input %q settings %+v", Texts(in), cfg)
		}
	}
}

func TestFilter_SplicedMarkersAreRemoved(t *testing.T) {
	got := Filter(segs("[00:0Speaker 4: 0:01] cross"), FilterSettings{
		RemoveTimestamps:    true,
		RemoveSpeakerLabels: true,
	})
	assert.Equal(t, "cross", got)
}

func TestFilterSegments_DropsEmptyKeepsTiming(t *testing.T) {
	in := []Segment{
		{Text: "[00:00:01]", Start: 1, Duration: 1, HasTiming: true},
		{Text: "Speaker 1: Hi", Start: 2, Duration: 1.5, HasTiming: true},
	}
	got := FilterSegments(in, FilterSettings{RemoveTimestamps: true, RemoveSpeakerLabels: true})

	assert.Equal(t, []Segment{{Text: "Hi", Start: 2, Duration: 1.5, HasTiming: true}}, got)
	assert.Equal(t, "[00:00:01]", in[0].Text)
}

func TestSegment_Times(t *testing.T) {
	seg := Segment{Start: 61.25, Duration: 2.5}
	assert.Equal(t, 61*time.Second+250*time.Millisecond, seg.StartTime())
	assert.Equal(t, 63*time.Second+750*time.Millisecond, seg.EndTime())
}
