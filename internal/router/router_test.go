package router

import (
	"bytes"
	"compress/gzip"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-resty/resty/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/patric-chuzhbe/fitlog/internal/db/memorystorage"
	"github.com/patric-chuzhbe/fitlog/internal/ipchecker"
	"github.com/patric-chuzhbe/fitlog/internal/logger"
	"github.com/patric-chuzhbe/fitlog/internal/models"
	"github.com/patric-chuzhbe/fitlog/internal/service"
)

func newTestServer(t *testing.T, trustedSubnet string) *httptest.Server {
	t.Helper()

	err := logger.Init("debug")
	require.NoError(t, err)

	theStorage, err := memorystorage.New()
	require.NoError(t, err)

	theIPChecker, err := ipchecker.New(trustedSubnet)
	require.NoError(t, err)

	server := httptest.NewServer(New(service.New(theStorage), theIPChecker))
	t.Cleanup(server.Close)

	return server
}

func createUser(t *testing.T, serverURL, username string) models.UserView {
	t.Helper()

	resp, err := resty.New().R().
		SetFormData(map[string]string{"username": username}).
		Post(serverURL + "/api/users")
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, resp.StatusCode())

	var usr models.UserView
	require.NoError(t, json.Unmarshal(resp.Body(), &usr))
	require.NotEmpty(t, usr.ID)

	return usr
}

func TestPostAPIUsers(t *testing.T) {
	server := newTestServer(t, "")

	usr := createUser(t, server.URL, "alice")
	assert.Equal(t, "alice", usr.Username)

	again := createUser(t, server.URL, "alice")
	assert.Equal(t, usr.ID, again.ID, "repeated creates with the same username should return the same record")

	resp, err := resty.New().R().
		SetFormData(map[string]string{}).
		Post(server.URL + "/api/users")
	require.NoError(t, err)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode())

	var errResp models.ErrorResponse
	require.NoError(t, json.Unmarshal(resp.Body(), &errResp))
	assert.Equal(t, "username is required", errResp.Error)
}

func TestGetAPIUsers(t *testing.T) {
	server := newTestServer(t, "")

	alice := createUser(t, server.URL, "alice")
	bob := createUser(t, server.URL, "bob")

	resp, err := resty.New().R().Get(server.URL + "/api/users")
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, resp.StatusCode())

	var users []models.UserView
	require.NoError(t, json.Unmarshal(resp.Body(), &users))
	require.Len(t, users, 2)
	assert.Equal(t, alice, users[0])
	assert.Equal(t, bob, users[1])
}

func TestPostAPIUserExercises(t *testing.T) {
	server := newTestServer(t, "")

	alice := createUser(t, server.URL, "alice")

	resp, err := resty.New().R().
		SetFormData(map[string]string{
			"description": "run",
			"duration":    "30",
			"date":        "2023-05-01",
		}).
		Post(server.URL + "/api/users/" + alice.ID + "/exercises")
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, resp.StatusCode())

	var view models.ExerciseView
	require.NoError(t, json.Unmarshal(resp.Body(), &view))
	assert.Equal(
		t,
		models.ExerciseView{
			ID:          alice.ID,
			Username:    "alice",
			Description: "run",
			Duration:    30,
			Date:        "Mon May 01 2023",
		},
		view,
	)

	resp, err = resty.New().R().
		SetFormData(map[string]string{"duration": "30"}).
		Post(server.URL + "/api/users/" + alice.ID + "/exercises")
	require.NoError(t, err)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode())

	resp, err = resty.New().R().
		SetFormData(map[string]string{
			"description": "run",
			"duration":    "a while",
		}).
		Post(server.URL + "/api/users/" + alice.ID + "/exercises")
	require.NoError(t, err)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode())

	resp, err = resty.New().R().
		SetFormData(map[string]string{
			"description": "run",
			"duration":    "30",
		}).
		Post(server.URL + "/api/users/no-such-user/exercises")
	require.NoError(t, err)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode())
}

func TestGetAPIUserLogs(t *testing.T) {
	server := newTestServer(t, "")

	alice := createUser(t, server.URL, "alice")

	for _, day := range []string{"2023-01-15", "2023-02-20", "2023-03-25", "2023-04-30", "2024-01-01"} {
		resp, err := resty.New().R().
			SetFormData(map[string]string{
				"description": "run",
				"duration":    "30",
				"date":        day,
			}).
			Post(server.URL + "/api/users/" + alice.ID + "/exercises")
		require.NoError(t, err)
		require.Equal(t, http.StatusOK, resp.StatusCode())
	}

	resp, err := resty.New().R().Get(server.URL + "/api/users/" + alice.ID + "/logs")
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, resp.StatusCode())

	var logView models.LogView
	require.NoError(t, json.Unmarshal(resp.Body(), &logView))
	assert.Equal(t, "alice", logView.Username)
	assert.Equal(t, alice.ID, logView.ID)
	assert.Equal(t, 5, logView.Count)
	require.Len(t, logView.Log, 5)
	assert.Equal(
		t,
		models.LogEntry{
			Description: "run",
			Duration:    30,
			Date:        "Sun Jan 15 2023",
		},
		logView.Log[0],
	)

	resp, err = resty.New().R().
		SetQueryParam("limit", "2").
		Get(server.URL + "/api/users/" + alice.ID + "/logs")
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, resp.StatusCode())

	require.NoError(t, json.Unmarshal(resp.Body(), &logView))
	assert.Equal(t, 2, logView.Count)
	assert.Len(t, logView.Log, 2)

	resp, err = resty.New().R().
		SetQueryParams(map[string]string{
			"from": "2023-01-01",
			"to":   "2023-12-31",
		}).
		Get(server.URL + "/api/users/" + alice.ID + "/logs")
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, resp.StatusCode())

	require.NoError(t, json.Unmarshal(resp.Body(), &logView))
	assert.Equal(t, 4, logView.Count, "exercises outside the inclusive range should be excluded")

	resp, err = resty.New().R().Get(server.URL + "/api/users/no-such-user/logs")
	require.NoError(t, err)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode())
}

func TestPostAPIUsersForGzippedRequest(t *testing.T) {
	server := newTestServer(t, "")

	var buf bytes.Buffer
	gzipWriter := gzip.NewWriter(&buf)
	_, err := gzipWriter.Write([]byte("username=zoe"))
	require.NoError(t, err)
	require.NoError(t, gzipWriter.Close())

	resp, err := resty.New().R().
		SetHeader("Content-Type", "application/x-www-form-urlencoded").
		SetHeader("Content-Encoding", "gzip").
		SetBody(buf.Bytes()).
		Post(server.URL + "/api/users")
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, resp.StatusCode())

	var usr models.UserView
	require.NoError(t, json.Unmarshal(resp.Body(), &usr))
	assert.Equal(t, "zoe", usr.Username)
}

func TestGetPing(t *testing.T) {
	server := newTestServer(t, "")

	resp, err := resty.New().R().Get(server.URL + "/ping")
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode())
}

func TestGetAPIInternalStats(t *testing.T) {
	server := newTestServer(t, "127.0.0.0/8")

	alice := createUser(t, server.URL, "alice")

	resp, err := resty.New().R().
		SetFormData(map[string]string{
			"description": "run",
			"duration":    "30",
		}).
		Post(server.URL + "/api/users/" + alice.ID + "/exercises")
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, resp.StatusCode())

	resp, err = resty.New().R().
		SetHeader("X-Real-IP", "127.0.0.1").
		Get(server.URL + "/api/internal/stats")
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, resp.StatusCode())

	var stats models.InternalStatsResponse
	require.NoError(t, json.Unmarshal(resp.Body(), &stats))
	assert.Equal(t, int64(1), stats.Users)
	assert.Equal(t, int64(1), stats.Exercises)

	resp, err = resty.New().R().
		SetHeader("X-Real-IP", "10.1.2.3").
		Get(server.URL + "/api/internal/stats")
	require.NoError(t, err)
	assert.Equal(t, http.StatusForbidden, resp.StatusCode())
}

func TestGetAPIInternalStatsWithoutTrustedSubnet(t *testing.T) {
	server := newTestServer(t, "")

	resp, err := resty.New().R().
		SetHeader("X-Real-IP", "127.0.0.1").
		Get(server.URL + "/api/internal/stats")
	require.NoError(t, err)
	assert.Equal(t, http.StatusForbidden, resp.StatusCode())
}
