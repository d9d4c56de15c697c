package server

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"rubricon/internal/rubric"
	"rubricon/internal/storage"
)

func testServer(t *testing.T) *httptest.Server {
	t.Helper()
	store, err := storage.NewSQLiteStore(filepath.Join(t.TempDir(), "tasks.db"))
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })

	srv := New(rubric.NewAnalyzer(nil, nil, nil), store, nil)
	ts := httptest.NewServer(srv.Handler())
	t.Cleanup(ts.Close)
	return ts
}

func postJSON(t *testing.T, url string, body any) *http.Response {
	t.Helper()
	payload, err := json.Marshal(body)
	require.NoError(t, err)
	resp, err := http.Post(url, "application/json", bytes.NewReader(payload))
	require.NoError(t, err)
	return resp
}

func decodeBody[T any](t *testing.T, resp *http.Response) T {
	t.Helper()
	defer resp.Body.Close()
	var v T
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&v))
	return v
}

// waitForTask polls status until the task leaves the pending/processing
// states.
func waitForTask(t *testing.T, baseURL, id string) statusResponse {
	t.Helper()
	deadline := time.Now().Add(5 * time.Second)
	for time.Now().Before(deadline) {
		resp, err := http.Get(baseURL + "/status/" + id)
		require.NoError(t, err)
		status := decodeBody[statusResponse](t, resp)
		if status.Status == storage.StatusCompleted || status.Status == storage.StatusFailed {
			return status
		}
		time.Sleep(10 * time.Millisecond)
	}
	t.Fatalf("task %s never finished", id)
	return statusResponse{}
}

func TestAnalyzeEndToEnd(t *testing.T) {
	ts := testServer(t)

	resp := postJSON(t, ts.URL+"/analyze", analyzeRequest{
		Filename: "rubric.txt",
		Text:     "1. History Taking (10 points)\nExamples: ask about symptoms, ask about duration",
	})
	require.Equal(t, http.StatusAccepted, resp.StatusCode)
	accepted := decodeBody[analyzeResponse](t, resp)
	require.NotEmpty(t, accepted.TaskID)

	status := waitForTask(t, ts.URL, accepted.TaskID)
	require.Equal(t, storage.StatusCompleted, status.Status)
	assert.Equal(t, "rubric.txt", status.Filename)
	require.NotNil(t, status.Result)
	require.Len(t, status.Result.Sections, 1)
	assert.Equal(t, "History Taking", status.Result.Sections[0].Name)
	assert.Equal(t, 10, status.Result.TotalPoints)

	dl, err := http.Get(ts.URL + "/download-yaml/" + accepted.TaskID)
	require.NoError(t, err)
	defer dl.Body.Close()
	require.Equal(t, http.StatusOK, dl.StatusCode)
	assert.Equal(t, "application/x-yaml", dl.Header.Get("Content-Type"))

	doc, err := io.ReadAll(dl.Body)
	require.NoError(t, err)
	assert.Contains(t, string(doc), "History_Taking: Did the doctor perform history taking?")
}

func TestAnalyzeRejectsEmptyInput(t *testing.T) {
	ts := testServer(t)

	resp := postJSON(t, ts.URL+"/analyze", analyzeRequest{Text: "   "})
	defer resp.Body.Close()
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestGeneratePrompt(t *testing.T) {
	ts := testServer(t)

	resp := postJSON(t, ts.URL+"/generate-prompt", generatePromptRequest{
		Criteria: []rubric.Item{{Name: "Hand Hygiene", Examples: []string{"washes hands"}}},
	})
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	doc, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	assert.Contains(t, string(doc), "Hand_Hygiene: Did the doctor perform hand hygiene?")
	assert.Contains(t, string(doc), "Verbalization examples: washes hands")
}

func TestGeneratePromptRejectsEmptyCriteria(t *testing.T) {
	ts := testServer(t)

	resp := postJSON(t, ts.URL+"/generate-prompt", generatePromptRequest{})
	defer resp.Body.Close()
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestUpdateYAML(t *testing.T) {
	ts := testServer(t)

	resp := postJSON(t, ts.URL+"/analyze", analyzeRequest{Text: "1. History Taking (10 points)"})
	accepted := decodeBody[analyzeResponse](t, resp)
	waitForTask(t, ts.URL, accepted.TaskID)

	edited := "key: edited\nsystem_message: |\n  hi\nuser_message: |\n  hello\n"
	up := postJSON(t, ts.URL+"/update-yaml/"+accepted.TaskID, updateYAMLRequest{YAML: edited})
	defer up.Body.Close()
	require.Equal(t, http.StatusOK, up.StatusCode)

	dl, err := http.Get(ts.URL + "/download-yaml/" + accepted.TaskID)
	require.NoError(t, err)
	defer dl.Body.Close()
	doc, err := io.ReadAll(dl.Body)
	require.NoError(t, err)
	assert.Equal(t, edited, string(doc))
}

func TestUpdateYAMLRejectsInvalidDocuments(t *testing.T) {
	ts := testServer(t)

	resp := postJSON(t, ts.URL+"/analyze", analyzeRequest{Text: "1. History Taking (10 points)"})
	accepted := decodeBody[analyzeResponse](t, resp)
	waitForTask(t, ts.URL, accepted.TaskID)

	up := postJSON(t, ts.URL+"/update-yaml/"+accepted.TaskID, updateYAMLRequest{YAML: "key: [broken"})
	defer up.Body.Close()
	assert.Equal(t, http.StatusBadRequest, up.StatusCode)
}

func TestTaskNotFound(t *testing.T) {
	ts := testServer(t)

	resp, err := http.Get(ts.URL + "/status/5f3a4bb2-70f5-4f29-9f2c-000000000000")
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)

	resp, err = http.Get(ts.URL + "/status/not-a-uuid")
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestHealth(t *testing.T) {
	ts := testServer(t)

	resp, err := http.Get(ts.URL + "/health")
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	assert.True(t, strings.Contains(string(body), `"ok"`))
}
