package subtitle

import (
	"bytes"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/text/language"
)

func TestReadSRTBytes(t *testing.T) {
	data := []byte("1\n00:00:01,000 --> 00:00:02,000\nHello\n\n2\n00:00:03,000 --> 00:00:04,500\nWorld\n")

	file, err := ReadSRTBytes(data, "embedded://sample")
	require.NoError(t, err)
	require.Len(t, file.Lines, 2)
	assert.Equal(t, "Hello", file.Lines[0].Text)
	assert.Equal(t, "World", file.Lines[1].Text)
	assert.Equal(t, 4500*time.Millisecond, file.Lines[1].EndTime)
	assert.Equal(t, "SRT", file.Format)
	assert.Equal(t, "embedded://sample", file.Path)
}

func TestReadSRTBytes_InvalidTiming(t *testing.T) {
	_, err := ReadSRTBytes([]byte("1\n00:00:01 -> 00:00:02\nHello\n"), "")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to parse time")
}

func TestWriter_RoundTrip(t *testing.T) {
	in := &File{Lines: []Line{
		{Index: 1, StartTime: 0, EndTime: time.Minute, Text: "first"},
		{Index: 2, StartTime: time.Hour + 2*time.Minute + 3*time.Second + 45*time.Millisecond, EndTime: 2 * time.Hour, Text: "second"},
	}}

	var buf bytes.Buffer
	require.NoError(t, NewWriter().Write(&buf, in))
	assert.Equal(t,
		"1\n00:00:00,000 --> 00:01:00,000\nfirst\n\n2\n01:02:03,045 --> 02:00:00,000\nsecond\n\n",
		buf.String())

	out, err := ReadSRTBytes(buf.Bytes(), "")
	require.NoError(t, err)
	require.Len(t, out.Lines, 2)
	assert.Equal(t, in.Lines[1].StartTime, out.Lines[1].StartTime)
	assert.Equal(t, "second", out.Lines[1].Text)
}

func TestWriter_NilFile(t *testing.T) {
	var buf bytes.Buffer
	assert.Error(t, NewWriter().Write(&buf, nil))
}

func TestFormatDuration(t *testing.T) {
	assert.Equal(t, "00:00:00,000", FormatDuration(-time.Second))
	assert.Equal(t, "00:09:00,000", FormatDuration(9*time.Minute))
	assert.Equal(t, "00:10:00,000", FormatDuration(10*time.Minute))
	assert.Equal(t, "25:00:01,001", FormatDuration(25*time.Hour+time.Second+time.Millisecond))
}

func TestDetectLanguage(t *testing.T) {
	texts := []string{
		"Hello, world!",
		"こんにちは、世界!",
		"こんにちは、世界!",
		"Привет, мир!",
	}
	assert.Equal(t, language.Japanese, DetectLanguage(texts))
	assert.Equal(t, language.Und, DetectLanguage(nil))
	assert.Equal(t, language.Und, DetectLanguage([]string{"", "  "}))
}
