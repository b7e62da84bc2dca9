package test

import (
	"context"
	"net/http"
	"time"

	"github.com/2beens/intervaltimer/internal/middleware"
	"github.com/2beens/intervaltimer/internal/presets"
	"github.com/2beens/intervaltimer/internal/timer"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type presetsList struct {
	Presets []presets.Preset `json:"presets"`
	Total   int              `json:"total"`
}

func (s *IntegrationTestSuite) TestPresets() {
	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Second)
	defer cancel()
	t := s.T()
	admin := map[string]string{middleware.AdminTokenHeader: testAdminToken}

	resp := s.doRequest(ctx, "GET", "/presets", "", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	list := decodeBody[presetsList](t, resp)
	builtInCount := len(presets.BuiltIns())
	assert.Equal(t, builtInCount, list.Total)

	newPreset := `{"name":"legs-day","description":"long sets","config":{"workSeconds":45,"restSeconds":15,"rounds":6,"sets":3}}`

	// writes need the admin token
	resp = s.doRequest(ctx, "POST", "/presets", newPreset, nil)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	resp.Body.Close()
	resp = s.doRequest(ctx, "POST", "/presets", newPreset, map[string]string{middleware.AdminTokenHeader: "wrong"})
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	resp.Body.Close()

	resp = s.doRequest(ctx, "POST", "/presets", newPreset, admin)
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	added := decodeBody[presets.Preset](t, resp)
	assert.Equal(t, "legs-day", added.Name)
	assert.False(t, added.BuiltIn)

	resp = s.doRequest(ctx, "POST", "/presets", newPreset, admin)
	assert.Equal(t, http.StatusConflict, resp.StatusCode)
	resp.Body.Close()

	resp = s.doRequest(ctx, "POST", "/presets", `{"name":"tabata","config":{"workSeconds":1,"restSeconds":1,"rounds":1,"sets":1}}`, admin)
	assert.Equal(t, http.StatusConflict, resp.StatusCode)
	resp.Body.Close()

	var rows int
	require.NoError(t, s.DB.QueryRowContext(ctx, `SELECT COUNT(*) FROM timer_preset WHERE name = $1`, "legs-day").Scan(&rows))
	assert.Equal(t, 1, rows)

	resp = s.doRequest(ctx, "GET", "/presets/legs-day", "", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	got := decodeBody[presets.Preset](t, resp)
	assert.Equal(t, timer.Config{WorkSeconds: 45, RestSeconds: 15, Rounds: 6, Sets: 3}, got.Config)

	// a timer can be built from the stored preset
	view := s.createTimer(ctx, `{"preset":"legs-day"}`)
	assert.Equal(t, "legs-day", view.Preset)
	assert.Equal(t, got.Config, view.Config)

	resp = s.doRequest(ctx, "PUT", "/timers/"+view.ID, `{"preset":"tabata"}`, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	reconfigured := decodeBody[struct {
		Preset string       `json:"preset"`
		Config timer.Config `json:"config"`
	}](t, resp)
	assert.Equal(t, "tabata", reconfigured.Preset)
	assert.Equal(t, timer.Config{WorkSeconds: 20, RestSeconds: 10, Rounds: 8, Sets: 1}, reconfigured.Config)

	resp = s.doRequest(ctx, "GET", "/presets", "", nil)
	list = decodeBody[presetsList](t, resp)
	assert.Equal(t, builtInCount+1, list.Total)

	resp = s.doRequest(ctx, "DELETE", "/presets/legs-day", "", admin)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	resp.Body.Close()

	resp = s.doRequest(ctx, "GET", "/presets/legs-day", "", nil)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	resp.Body.Close()

	resp = s.doRequest(ctx, "DELETE", "/presets/tabata", "", admin)
	assert.Equal(t, http.StatusConflict, resp.StatusCode)
	resp.Body.Close()
}
