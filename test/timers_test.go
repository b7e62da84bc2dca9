package test

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/2beens/intervaltimer/internal/cues"
	"github.com/2beens/intervaltimer/internal/history"
	"github.com/2beens/intervaltimer/internal/session"
	"github.com/2beens/intervaltimer/internal/timer"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const shortWorkout = `{"config":{"workSeconds":2,"restSeconds":1,"rounds":2,"sets":1}}`

func decodeBody[T any](t require.TestingT, resp *http.Response) T {
	defer resp.Body.Close()
	var v T
	respBytes, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	require.NoError(t, json.Unmarshal(respBytes, &v), string(respBytes))
	return v
}

func (s *IntegrationTestSuite) createTimer(ctx context.Context, body string) session.View {
	resp := s.doRequest(ctx, "POST", "/timers", body, nil)
	s.Require().Equal(http.StatusCreated, resp.StatusCode)
	return decodeBody[session.View](s.T(), resp)
}

func (s *IntegrationTestSuite) TestTimers_Lifecycle() {
	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Second)
	defer cancel()
	t := s.T()

	view := s.createTimer(ctx, shortWorkout)
	assert.Equal(t, timer.PhaseReady, view.State.Phase)
	assert.Equal(t, timer.Config{WorkSeconds: 2, RestSeconds: 1, Rounds: 2, Sets: 1}, view.Config)

	// pause before start is a no-op
	resp := s.doRequest(ctx, "POST", "/timers/"+view.ID+"/pause", "", nil)
	paused := decodeBody[session.View](t, resp)
	assert.Equal(t, timer.PhaseReady, paused.State.Phase)
	assert.False(t, paused.State.Running)

	resp = s.doRequest(ctx, "POST", "/timers/"+view.ID+"/start", "", nil)
	started := decodeBody[session.View](t, resp)
	assert.Equal(t, timer.PhaseWork, started.State.Phase)
	assert.True(t, started.State.Running)

	require.Eventually(t, func() bool {
		resp := s.doRequest(ctx, "GET", "/timers/"+view.ID, "", nil)
		current := decodeBody[session.View](t, resp)
		return current.State.Phase == timer.PhaseComplete
	}, 10*time.Second, 50*time.Millisecond)

	resp = s.doRequest(ctx, "POST", "/timers/"+view.ID+"/reset", "", nil)
	reset := decodeBody[session.View](t, resp)
	assert.Equal(t, timer.PhaseReady, reset.State.Phase)
	assert.Equal(t, 0, reset.Progress.ElapsedSeconds)

	resp = s.doRequest(ctx, "DELETE", "/timers/"+view.ID, "", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	resp.Body.Close()

	resp = s.doRequest(ctx, "GET", "/timers/"+view.ID, "", nil)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	resp.Body.Close()
}

func (s *IntegrationTestSuite) TestTimers_InvalidConfig() {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	t := s.T()

	resp := s.doRequest(ctx, "POST", "/timers", `{"config":{"workSeconds":0,"restSeconds":10,"rounds":0,"sets":1}}`, nil)
	require.Equal(t, http.StatusBadRequest, resp.StatusCode)
	body := decodeBody[struct {
		Error  string            `json:"error"`
		Fields map[string]string `json:"fields"`
	}](t, resp)
	assert.Contains(t, body.Fields, "workSeconds")
	assert.Contains(t, body.Fields, "rounds")
	assert.NotContains(t, body.Fields, "restSeconds")

	resp = s.doRequest(ctx, "POST", "/timers", `{"preset":"no-such-preset"}`, nil)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	resp.Body.Close()
}

func (s *IntegrationTestSuite) TestTimers_CueStreamAndRedis() {
	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Second)
	defer cancel()
	t := s.T()

	view := s.createTimer(ctx, shortWorkout)

	// redis subscription first, published cues are not buffered
	sub := s.redisClient.Subscribe(ctx, s.config.CueChannelPrefix+view.ID)
	defer sub.Close()
	_, err := sub.Receive(ctx)
	require.NoError(t, err)
	redisMessages := sub.Channel()

	streamReq, err := http.NewRequestWithContext(ctx, "GET", fmt.Sprintf("%s/timers/%s/cues", serverEndpoint, view.ID), nil)
	require.NoError(t, err)
	streamResp, err := http.DefaultClient.Do(streamReq)
	require.NoError(t, err)
	defer streamResp.Body.Close()
	require.Equal(t, http.StatusOK, streamResp.StatusCode)
	assert.Equal(t, "text/event-stream", streamResp.Header.Get("Content-Type"))

	events := readEvents(streamResp.Body)
	first := <-events
	require.Equal(t, "state", first.name)

	resp := s.doRequest(ctx, "POST", "/timers/"+view.ID+"/start", "", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	resp.Body.Close()

	var streamed []timer.Cue
	for ev := range events {
		var cue timer.Cue
		require.NoError(t, json.Unmarshal([]byte(ev.data), &cue))
		assert.Equal(t, ev.name, cue.Type.String())
		streamed = append(streamed, cue)
		if cue.Type == timer.CueWorkoutComplete {
			break
		}
	}
	require.NotEmpty(t, streamed)
	assert.Equal(t, timer.CuePhaseStarted, streamed[0].Type)
	assert.Equal(t, timer.PhaseWork, streamed[0].Phase)
	assert.Equal(t, timer.CueWorkoutComplete, streamed[len(streamed)-1].Type)

	var published []cues.Message
	for len(published) < len(streamed) {
		select {
		case msg := <-redisMessages:
			var m cues.Message
			require.NoError(t, json.Unmarshal([]byte(msg.Payload), &m))
			published = append(published, m)
		case <-ctx.Done():
			t.Fatalf("redis cues missing, got %d of %d", len(published), len(streamed))
		}
	}
	for i, m := range published {
		assert.Equal(t, view.ID, m.SessionID)
		assert.Equal(t, streamed[i].Type, m.Cue.Type)
	}

	// both history events land in postgres
	require.Eventually(t, func() bool {
		resp := s.doRequest(ctx, "GET", "/history/page/1/size/10?session="+view.ID, "", nil)
		list := decodeBody[history.ListResponse](t, resp)
		return list.Total == 2
	}, 10*time.Second, 50*time.Millisecond)

	var finishedTotal string
	err = s.DB.QueryRowContext(ctx,
		`SELECT data->>'totalSeconds' FROM workout_event WHERE session_id = $1 AND type = $2`,
		view.ID, history.EventTypeWorkoutFinished.String(),
	).Scan(&finishedTotal)
	require.NoError(t, err)
	assert.Equal(t, "6", finishedTotal)
}

type sseEvent struct {
	name string
	data string
}

// readEvents parses a server-sent events stream until it ends.
func readEvents(body io.Reader) <-chan sseEvent {
	events := make(chan sseEvent, 32)
	go func() {
		defer close(events)
		scanner := bufio.NewScanner(body)
		var current sseEvent
		for scanner.Scan() {
			line := scanner.Text()
			switch {
			case strings.HasPrefix(line, "event: "):
				current.name = strings.TrimPrefix(line, "event: ")
			case strings.HasPrefix(line, "data: "):
				current.data = strings.TrimPrefix(line, "data: ")
			case line == "" && current.name != "":
				events <- current
				current = sseEvent{}
			}
		}
	}()
	return events
}
