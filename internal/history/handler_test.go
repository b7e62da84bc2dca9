package history_test

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/2beens/intervaltimer/internal/history"

	"github.com/gorilla/mux"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"
)

func newHistoryRouter(t *testing.T) (*mux.Router, *MockhistoryRepo) {
	t.Helper()
	ctrl := gomock.NewController(t)
	repo := NewMockhistoryRepo(ctrl)
	r := mux.NewRouter()
	history.NewHandler(repo).SetupRoutes(r)
	return r, repo
}

func TestHandler_HandleList(t *testing.T) {
	r, repo := newHistoryRouter(t)

	ts := time.Date(2024, 5, 1, 7, 30, 0, 0, time.UTC)
	repo.EXPECT().
		List(gomock.Any(), history.ListParams{SessionID: "s-1", Page: 2, Size: 10}).
		Return([]*history.Event{
			{ID: 11, SessionID: "s-1", Type: history.EventTypeWorkoutFinished, Timestamp: ts, Data: map[string]string{}},
		}, nil)
	repo.EXPECT().Count(gomock.Any(), "s-1").Return(11, nil)

	rr := httptest.NewRecorder()
	r.ServeHTTP(rr, httptest.NewRequest("GET", "/history/page/2/size/10?session=s-1", nil))
	require.Equal(t, http.StatusOK, rr.Code)

	var resp history.ListResponse
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &resp))
	assert.Equal(t, 11, resp.Total)
	require.Len(t, resp.Events, 1)
	assert.Equal(t, history.EventTypeWorkoutFinished, resp.Events[0].Type)
	assert.Equal(t, ts, resp.Events[0].Timestamp)
}

func TestHandler_HandleList_Empty(t *testing.T) {
	r, repo := newHistoryRouter(t)
	repo.EXPECT().List(gomock.Any(), gomock.Any()).Return(nil, nil)
	repo.EXPECT().Count(gomock.Any(), "").Return(0, nil)

	rr := httptest.NewRecorder()
	r.ServeHTTP(rr, httptest.NewRequest("GET", "/history/page/1/size/5", nil))
	require.Equal(t, http.StatusOK, rr.Code)
	assert.JSONEq(t, `{"events":[],"total":0}`, rr.Body.String())
}

func TestHandler_HandleList_BadParams(t *testing.T) {
	r, _ := newHistoryRouter(t)

	for _, path := range []string{
		"/history/page/0/size/5",
		"/history/page/x/size/5",
		"/history/page/1/size/0",
		"/history/page/1/size/1000",
	} {
		rr := httptest.NewRecorder()
		r.ServeHTTP(rr, httptest.NewRequest("GET", path, nil))
		assert.Equal(t, http.StatusBadRequest, rr.Code, path)
	}
}

func TestHandler_HandleList_RepoError(t *testing.T) {
	r, repo := newHistoryRouter(t)
	repo.EXPECT().List(gomock.Any(), gomock.Any()).Return(nil, errors.New("db down"))

	rr := httptest.NewRecorder()
	r.ServeHTTP(rr, httptest.NewRequest("GET", "/history/page/1/size/5", nil))
	assert.Equal(t, http.StatusInternalServerError, rr.Code)
}
