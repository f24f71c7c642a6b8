package server

import (
	"bufio"
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/SAQLAINAP/Architectural-AI-Gemini/internal/jobs"
	"github.com/SAQLAINAP/Architectural-AI-Gemini/internal/progress"
)

type sseFrame struct {
	Type  progress.EventType `json:"type"`
	JobID string             `json:"jobId"`
	Data  map[string]any     `json:"data"`
}

// readFrames consumes an SSE body until a terminal frame or EOF,
// ignoring comment (heartbeat) lines.
func readFrames(t *testing.T, resp *http.Response) []sseFrame {
	t.Helper()
	var frames []sseFrame
	scanner := bufio.NewScanner(resp.Body)
	scanner.Buffer(make([]byte, 64*1024), 4*1024*1024)
	for scanner.Scan() {
		line := scanner.Text()
		if line == "" || strings.HasPrefix(line, ":") {
			continue
		}
		payload, ok := strings.CutPrefix(line, "data: ")
		require.True(t, ok, "unexpected SSE line %q", line)
		var frame sseFrame
		require.NoError(t, json.Unmarshal([]byte(payload), &frame))
		frames = append(frames, frame)
		if frame.Type.Terminal() {
			break
		}
	}
	return frames
}

func TestStream_FullRunThenReconnect(t *testing.T) {
	runner := &fakeRunner{
		plan:   goodPlan(),
		delay:  50 * time.Millisecond,
		events: []progress.EventType{progress.EventIterationStart, progress.EventScoreUpdate},
	}
	srv, _, _ := newTestServer(t, runner, nil)
	ts := httptest.NewServer(srv.Handler())
	defer ts.Close()

	resp, err := http.Post(ts.URL+"/api/generate", "application/json", validBody(t))
	require.NoError(t, err)
	defer resp.Body.Close()
	var accepted generateResponse
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&accepted))

	// The runner's 50 ms delay keeps the job running while we attach.
	stream, err := http.Get(ts.URL + accepted.StreamURL)
	require.NoError(t, err)
	defer stream.Body.Close()
	require.Equal(t, http.StatusOK, stream.StatusCode)
	assert.Equal(t, "text/event-stream", stream.Header.Get("Content-Type"))

	first := readFrames(t, stream)
	require.NotEmpty(t, first)
	assert.Equal(t, progress.EventConnected, first[0].Type)
	last := first[len(first)-1]
	require.Equal(t, progress.EventCompleted, last.Type)
	firstPayload, err := json.Marshal(last.Data)
	require.NoError(t, err)

	// Reconnect: connected plus a single synthesized terminal replay.
	replay, err := http.Get(ts.URL + accepted.StreamURL)
	require.NoError(t, err)
	defer replay.Body.Close()
	frames := readFrames(t, replay)
	require.Len(t, frames, 2)
	assert.Equal(t, progress.EventConnected, frames[0].Type)
	require.Equal(t, progress.EventCompleted, frames[1].Type)

	replayPayload, err := json.Marshal(frames[1].Data)
	require.NoError(t, err)
	assert.True(t, bytes.Equal(firstPayload, replayPayload), "replayed terminal payload differs from original")
}

func TestStream_UnknownJob(t *testing.T) {
	srv, _, _ := newTestServer(t, &fakeRunner{plan: goodPlan()}, nil)
	ts := httptest.NewServer(srv.Handler())
	defer ts.Close()

	resp, err := http.Get(ts.URL + "/api/generate/nope/stream")
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestStream_HeartbeatComments(t *testing.T) {
	runner := &fakeRunner{block: make(chan struct{}), plan: goodPlan()}
	srv, store, _ := newTestServer(t, runner, func(c *Config) {
		c.HeartbeatInterval = 20 * time.Millisecond
	})
	ts := httptest.NewServer(srv.Handler())
	defer ts.Close()

	resp, err := http.Post(ts.URL+"/api/generate", "application/json", validBody(t))
	require.NoError(t, err)
	defer resp.Body.Close()
	var accepted generateResponse
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&accepted))
	waitForStatus(t, store, accepted.JobID, jobs.StatusRunning)

	stream, err := http.Get(ts.URL + accepted.StreamURL)
	require.NoError(t, err)
	defer stream.Body.Close()

	scanner := bufio.NewScanner(stream.Body)
	sawPing := false
	deadline := time.Now().Add(2 * time.Second)
	for scanner.Scan() && time.Now().Before(deadline) {
		if strings.HasPrefix(scanner.Text(), ": ping") {
			sawPing = true
			break
		}
	}
	close(runner.block)
	assert.True(t, sawPing, "no heartbeat comment frame observed")
}
