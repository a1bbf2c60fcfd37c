package httpapi

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"scanattend/internal/attendance"
	"scanattend/internal/snapshot"
)

func newTestRouter(t *testing.T) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)

	store, err := snapshot.NewFileStore(filepath.Join(t.TempDir(), "participants.json"))
	require.NoError(t, err)
	registry := attendance.NewRegistry(store, nil)
	svc := attendance.NewService(registry, nil, nil, nil)

	r := gin.New()
	New(svc, nil).Mount(r)
	return r
}

func doJSON(t *testing.T, r *gin.Engine, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func registerBody(entryID string) map[string]string {
	return map[string]string{
		"entryId":       entryID,
		"name":          "Asha",
		"batch":         "2024",
		"branch":        "CSE",
		"course":        "BTech",
		"phone":         "9999999999",
		"guardianPhone": "8888888888",
	}
}

func TestRegister_OK(t *testing.T) {
	r := newTestRouter(t)

	w := doJSON(t, r, http.MethodPost, "/register", registerBody("E1"))
	require.Equal(t, http.StatusOK, w.Code)

	var resp struct {
		Message string            `json:"message"`
		Record  attendance.Record `json:"record"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, "Registration successful", resp.Message)
	assert.Equal(t, "E1", resp.Record.EntryID)
	assert.Equal(t, 1, resp.Record.ScanCount)
	assert.Equal(t, attendance.StatusRegistered, resp.Record.LastStatus)
}

func TestRegister_BadPhoneIs400(t *testing.T) {
	r := newTestRouter(t)

	body := registerBody("E2")
	body["phone"] = "123"
	w := doJSON(t, r, http.MethodPost, "/register", body)
	require.Equal(t, http.StatusBadRequest, w.Code)

	// The failed registration left no trace.
	w = doJSON(t, r, http.MethodGet, "/participants", nil)
	var list []attendance.Record
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &list))
	assert.Empty(t, list)
}

func TestRegister_DuplicateIs400(t *testing.T) {
	r := newTestRouter(t)

	require.Equal(t, http.StatusOK, doJSON(t, r, http.MethodPost, "/register", registerBody("E1")).Code)
	w := doJSON(t, r, http.MethodPost, "/register", registerBody("E1"))
	require.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), "already registered")
}

func TestRegister_MissingFieldsIs400(t *testing.T) {
	r := newTestRouter(t)
	w := doJSON(t, r, http.MethodPost, "/register", map[string]string{"entryId": "E1"})
	require.Equal(t, http.StatusBadRequest, w.Code)
}

func TestScan_TogglesThroughStatuses(t *testing.T) {
	r := newTestRouter(t)
	require.Equal(t, http.StatusOK, doJSON(t, r, http.MethodPost, "/register", registerBody("E1")).Code)

	want := []struct {
		count  int
		status attendance.Status
	}{
		{2, attendance.StatusCheckedIn},
		{3, attendance.StatusCheckedOut},
		{4, attendance.StatusCheckedIn},
	}
	for _, step := range want {
		w := doJSON(t, r, http.MethodPost, "/scan", map[string]string{"entryId": "E1"})
		require.Equal(t, http.StatusOK, w.Code)

		var resp struct {
			Message string            `json:"message"`
			Record  attendance.Record `json:"record"`
		}
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
		assert.Equal(t, step.count, resp.Record.ScanCount)
		assert.Equal(t, step.status, resp.Record.LastStatus)
		assert.Contains(t, resp.Message, string(step.status))
	}
}

func TestScan_UnknownEntryIs404(t *testing.T) {
	r := newTestRouter(t)
	w := doJSON(t, r, http.MethodPost, "/scan", map[string]string{"entryId": "ghost"})
	require.Equal(t, http.StatusNotFound, w.Code)
	assert.Contains(t, w.Body.String(), "not registered")
}

func TestParticipants_ListsAll(t *testing.T) {
	r := newTestRouter(t)
	require.Equal(t, http.StatusOK, doJSON(t, r, http.MethodPost, "/register", registerBody("E1")).Code)
	require.Equal(t, http.StatusOK, doJSON(t, r, http.MethodPost, "/register", registerBody("E2")).Code)

	w := doJSON(t, r, http.MethodGet, "/participants", nil)
	require.Equal(t, http.StatusOK, w.Code)

	var list []attendance.Record
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &list))
	require.Len(t, list, 2)
	assert.Equal(t, "E1", list[0].EntryID)
	assert.Equal(t, "E2", list[1].EntryID)
}

func TestHealthz(t *testing.T) {
	r := newTestRouter(t)
	w := doJSON(t, r, http.MethodGet, "/healthz", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"status":"ok"`)
}
