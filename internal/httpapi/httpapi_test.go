package httpapi

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"

	"github.com/cuemap/cuemap/internal/tenant"
)

func newTestServer(t *testing.T, readOnly bool) (*gin.Engine, *Server) {
	t.Helper()
	gin.SetMode(gin.TestMode)
	s := &Server{
		Tenant:   tenant.New(t.TempDir(), false),
		ReadOnly: readOnly,
	}
	r := gin.New()
	MountRoutes(r, s, func(c *gin.Context) { c.Next() })
	return r, s
}

func doJSON(r *gin.Engine, method, path string, body any) *httptest.ResponseRecorder {
	var buf bytes.Buffer
	if body != nil {
		_ = json.NewEncoder(&buf).Encode(body)
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestHandleRoot(t *testing.T) {
	r, _ := newTestServer(t, false)
	w := doJSON(r, http.MethodGet, "/", nil)
	require.Equal(t, http.StatusOK, w.Code)
	var body map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	require.Equal(t, "cuemap", body["name"])
}

func TestCreateAndGetMemory(t *testing.T) {
	r, _ := newTestServer(t, false)

	w := doJSON(r, http.MethodPost, "/memories", map[string]any{
		"content": "remember this",
		"cues":    []string{"topic:go"},
	})
	require.Equal(t, http.StatusOK, w.Code)
	var created map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &created))
	require.Equal(t, "stored", created["status"])
	id, ok := created["id"].(string)
	require.True(t, ok)
	require.NotEmpty(t, id)

	w = doJSON(r, http.MethodGet, "/memories/"+id, nil)
	require.Equal(t, http.StatusOK, w.Code)
	var mem map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &mem))
	require.Equal(t, "remember this", mem["content"])
}

func TestGetMemory_NotFound(t *testing.T) {
	r, _ := newTestServer(t, false)
	w := doJSON(r, http.MethodGet, "/memories/nope", nil)
	require.Equal(t, http.StatusNotFound, w.Code)
}

func TestRecall_FindsStoredMemory(t *testing.T) {
	r, _ := newTestServer(t, false)
	doJSON(r, http.MethodPost, "/memories", map[string]any{
		"content": "go is great",
		"cues":    []string{"topic:go"},
	})

	w := doJSON(r, http.MethodPost, "/recall", map[string]any{
		"cues": []string{"topic:go"},
	})
	require.Equal(t, http.StatusOK, w.Code)
	var body map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	results, ok := body["results"].([]any)
	require.True(t, ok)
	require.Len(t, results, 1)
}

func TestReinforce_UnknownMemoryReturnsNotFound(t *testing.T) {
	r, _ := newTestServer(t, false)
	w := doJSON(r, http.MethodPatch, "/memories/missing/reinforce", map[string]any{
		"cues": []string{"topic:go"},
	})
	require.Equal(t, http.StatusOK, w.Code)
	var body map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	require.Equal(t, "not_found", body["status"])
}

func TestReadOnlyGuard_RejectsMutations(t *testing.T) {
	r, _ := newTestServer(t, true)
	w := doJSON(r, http.MethodPost, "/memories", map[string]any{
		"content": "blocked",
		"cues":    []string{"topic:go"},
	})
	require.Equal(t, http.StatusForbidden, w.Code)
}

func TestListAndDeleteProjects(t *testing.T) {
	r, s := newTestServer(t, false)
	_, err := s.Tenant.GetOrCreate("")
	require.NoError(t, err)

	w := doJSON(r, http.MethodGet, "/projects", nil)
	require.Equal(t, http.StatusOK, w.Code)
	var body map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	projects, ok := body["projects"].([]any)
	require.True(t, ok)
	require.Contains(t, projects, tenant.DefaultProjectID)

	w = doJSON(r, http.MethodDelete, "/projects/"+tenant.DefaultProjectID, nil)
	require.Equal(t, http.StatusOK, w.Code)
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	require.Equal(t, "deleted", body["status"])
}
