package youtube

import (
	"testing"

	"github.com/MimeLyc/yt-transcript-extractor/internal/apperr"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidate_SingleVideo(t *testing.T) {
	req, err := Validate("https://www.youtube.com/watch?v=abc\n", KindVideo)
	require.NoError(t, err)

	assert.Equal(t, []string{"https://www.youtube.com/watch?v=abc"}, req.URLs)
	assert.Equal(t, KindVideo, req.Type)
}

func TestValidate_TrimsAndKeepsOrder(t *testing.T) {
	raw := "  https://youtu.be/first  \n\n\t\nhttps://www.youtube.com/watch?v=second\r\nhttps://m.youtube.com/watch?v=third"

	req, err := Validate(raw, KindPlaylist)
	require.NoError(t, err)

	assert.Equal(t, []string{
		"https://youtu.be/first",
		"https://www.youtube.com/watch?v=second",
		"https://m.youtube.com/watch?v=third",
	}, req.URLs)
	assert.Equal(t, KindPlaylist, req.Type)
}

func TestValidate_EmptyInput(t *testing.T) {
	for _, raw := range []string{"", "   ", "\n\n", " \t \n  "} {
		_, err := Validate(raw, KindVideo)
		require.Error(t, err)
		assert.True(t, apperr.IsErrorType(err, apperr.ErrEmptyInput), "input %q", raw)
	}
}

func TestValidate_InvalidURL(t *testing.T) {
	_, err := Validate("not a url", KindVideo)
	require.Error(t, err)
	assert.True(t, apperr.IsErrorType(err, apperr.ErrInvalidURL))

	_, err = Validate("https://youtu.be/ok\nhttps://vimeo.com/123", KindVideo)
	require.Error(t, err)
	assert.True(t, apperr.IsErrorType(err, apperr.ErrInvalidURL))
	assert.Contains(t, err.Error(), "vimeo.com/123")
}

func TestValidate_DoesNotCrossCheckKind(t *testing.T) {
	req, err := Validate("https://www.youtube.com/@somechannel", KindVideo)
	require.NoError(t, err)
	assert.Equal(t, KindVideo, req.Type)
	assert.Equal(t, KindChannel, Classify(req.URLs[0]))
}

func TestParseKind(t *testing.T) {
	kind, err := ParseKind("")
	require.NoError(t, err)
	assert.Equal(t, KindVideo, kind)

	kind, err = ParseKind(" Playlist ")
	require.NoError(t, err)
	assert.Equal(t, KindPlaylist, kind)

	_, err = ParseKind("podcast")
	assert.True(t, apperr.IsErrorType(err, apperr.ErrValidation))
}

func TestClassify(t *testing.T) {
	tests := []struct {
		url  string
		want URLKind
	}{
		{"https://www.youtube.com/watch?v=dQw4w9WgXcQ", KindVideo},
		{"https://www.youtube.com/watch?v=dQw4w9WgXcQ&list=PL123", KindVideo},
		{"https://youtu.be/dQw4w9WgXcQ", KindVideo},
		{"https://www.youtube.com/playlist?list=PL123", KindPlaylist},
		{"https://www.youtube.com/channel/UC123", KindChannel},
		{"https://www.youtube.com/@handle", KindChannel},
		{"https://www.youtube.com/user/legacy", KindChannel},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, Classify(tt.url), tt.url)
	}
}

func TestVideoID(t *testing.T) {
	tests := []struct {
		url    string
		want   string
		wantOK bool
	}{
		{"https://www.youtube.com/watch?v=dQw4w9WgXcQ", "dQw4w9WgXcQ", true},
		{"https://youtu.be/dQw4w9WgXcQ?t=42", "dQw4w9WgXcQ", true},
		{"https://www.youtube.com/shorts/abcdefghijk", "abcdefghijk", true},
		{"https://www.youtube.com/embed/abc_def-123", "abc_def-123", true},
		{"https://www.youtube.com/watch?v=short", "", false},
		{"https://www.youtube.com/@handle", "", false},
	}
	for _, tt := range tests {
		got, ok := VideoID(tt.url)
		assert.Equal(t, tt.wantOK, ok, tt.url)
		assert.Equal(t, tt.want, got, tt.url)
	}
}
