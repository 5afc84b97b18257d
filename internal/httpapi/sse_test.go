package httpapi

import (
	"bufio"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/MimeLyc/yt-transcript-extractor/internal/service"
)

func readEvent(t *testing.T, reader *bufio.Reader) (event string, data string) {
	t.Helper()
	for {
		line, err := reader.ReadString('\n')
		require.NoError(t, err)
		line = strings.TrimRight(line, "\n")
		switch {
		case line == "":
			if data != "" || event != "" {
				return event, data
			}
		case strings.HasPrefix(line, "event: "):
			event = strings.TrimPrefix(line, "event: ")
		case strings.HasPrefix(line, "data: "):
			data = strings.TrimPrefix(line, "data: ")
		}
	}
}

func TestServer_SessionStream(t *testing.T) {
	env := newTestEnv(t, WithStreamInterval(20*time.Millisecond))
	id := env.createSession(t)

	ts := httptest.NewServer(env.server.Handler())
	t.Cleanup(ts.Close)

	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, ts.URL+"/api/sessions/"+id+"/stream", nil)
	require.NoError(t, err)

	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "text/event-stream", resp.Header.Get("Content-Type"))

	reader := bufio.NewReader(resp.Body)
	_, data := readEvent(t, reader)

	var progress service.ProgressState
	require.NoError(t, json.Unmarshal([]byte(data), &progress))
	assert.False(t, progress.IsProcessing)
	assert.Equal(t, "0 seconds", progress.EstimatedTimeRemaining)

	env.sessions.Delete(id)
	for {
		event, _ := readEvent(t, reader)
		if event == "expired" {
			break
		}
	}
}

func TestServer_SessionStreamUnknownSession(t *testing.T) {
	env := newTestEnv(t)
	rec := env.do(http.MethodGet, "/api/sessions/nope/stream", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}
