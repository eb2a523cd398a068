package routes

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/AtRiskMedia/storyreader-go/internal/application/container"
	"github.com/AtRiskMedia/storyreader-go/internal/infrastructure/database/dbtest"
	"github.com/AtRiskMedia/storyreader-go/internal/infrastructure/observability/logging"
	"github.com/AtRiskMedia/storyreader-go/internal/infrastructure/observability/metrics"
	"github.com/AtRiskMedia/storyreader-go/internal/infrastructure/observability/performance"
	"github.com/AtRiskMedia/storyreader-go/internal/presentation/http/middleware"
	"github.com/AtRiskMedia/storyreader-go/pkg/config"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testPassword = "letmein"

type api struct {
	t      *testing.T
	router *gin.Engine
	token  string
}

func newAPI(t *testing.T) *api {
	t.Helper()
	gin.SetMode(gin.TestMode)

	previous := config.AdminPassword
	config.AdminPassword = testPassword
	t.Cleanup(func() { config.AdminPassword = previous })

	c, err := container.NewContainer(dbtest.Open(t), logging.NewDiscardLogger(),
		performance.NewTracker(nil), metrics.NewMetrics(), container.Integrations{})
	require.NoError(t, err)

	return &api{t: t, router: SetupRoutes(c)}
}

func (a *api) do(method, path, session string, body any) *httptest.ResponseRecorder {
	a.t.Helper()

	var reader *bytes.Reader
	if body != nil {
		data, err := json.Marshal(body)
		require.NoError(a.t, err)
		reader = bytes.NewReader(data)
	} else {
		reader = bytes.NewReader(nil)
	}

	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	if session != "" {
		req.Header.Set(middleware.SessionHeader, session)
	}
	if a.token != "" {
		req.Header.Set("Authorization", "Bearer "+a.token)
	}
	w := httptest.NewRecorder()
	a.router.ServeHTTP(w, req)
	return w
}

func decode(t *testing.T, w *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var out map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &out), w.Body.String())
	return out
}

func (a *api) login() {
	a.t.Helper()
	w := a.do(http.MethodPost, "/api/v1/auth/login", "", map[string]string{"password": testPassword})
	require.Equal(a.t, http.StatusOK, w.Code, w.Body.String())
	a.token = decode(a.t, w)["token"].(string)
}

// seed creates one story with one chapter holding the given number of pages and
// returns the story id and page ids.
func (a *api) seed(pages int) (string, []string) {
	a.t.Helper()

	w := a.do(http.MethodPost, "/api/v1/stories", "", map[string]string{"title": "Harbor Lights", "description": "A quiet port"})
	require.Equal(a.t, http.StatusCreated, w.Code, w.Body.String())
	storyID := decode(a.t, w)["story"].(map[string]any)["id"].(string)

	w = a.do(http.MethodPost, "/api/v1/stories/"+storyID+"/chapters", "", map[string]string{"title": "Arrival"})
	require.Equal(a.t, http.StatusCreated, w.Code, w.Body.String())
	chapterID := decode(a.t, w)["chapter"].(map[string]any)["id"].(string)

	var ids []string
	for i := 0; i < pages; i++ {
		w = a.do(http.MethodPost, "/api/v1/chapters/"+chapterID+"/pages", "", map[string]string{"title": "Page", "content": "The tide rolled in."})
		require.Equal(a.t, http.StatusCreated, w.Code, w.Body.String())
		ids = append(ids, decode(a.t, w)["page"].(map[string]any)["id"].(string))
	}
	return storyID, ids
}

func TestAuthoringRequiresAdmin(t *testing.T) {
	a := newAPI(t)

	w := a.do(http.MethodPost, "/api/v1/stories", "", map[string]string{"title": "Sneaky"})
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w = a.do(http.MethodPost, "/api/v1/auth/login", "", map[string]string{"password": "wrong"})
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	a.login()
	status := decode(t, a.do(http.MethodGet, "/api/v1/auth/status", "", nil))
	assert.Equal(t, true, status["isAdmin"])

	w = a.do(http.MethodPost, "/api/v1/stories", "", map[string]string{"title": "Allowed"})
	assert.Equal(t, http.StatusCreated, w.Code)
}

func TestReadingFlow(t *testing.T) {
	a := newAPI(t)
	a.login()
	storyID, pages := a.seed(2)
	a.token = ""

	w := a.do(http.MethodGet, "/api/v1/stories", "", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.EqualValues(t, 1, decode(t, w)["count"])

	w = a.do(http.MethodGet, "/api/v1/pages/"+pages[0]+"/next", "", nil)
	require.Equal(t, http.StatusOK, w.Code)
	next := decode(t, w)
	assert.Equal(t, pages[1], next["page"].(map[string]any)["id"])
	assert.Equal(t, false, next["endOfStory"])

	w = a.do(http.MethodGet, "/api/v1/pages/"+pages[1]+"/next", "", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, true, decode(t, w)["endOfStory"])

	w = a.do(http.MethodGet, "/api/v1/pages/"+pages[0], "session_reader", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, storyID, decode(t, w)["storyId"])

	w = a.do(http.MethodGet, "/api/v1/pages/missing", "", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = a.do(http.MethodGet, "/api/v1/pages/missing/like", "session_reader", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = a.do(http.MethodGet, "/api/v1/stories/missing/like", "", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestLikesAndComments(t *testing.T) {
	a := newAPI(t)
	a.login()
	_, pages := a.seed(1)
	a.token = ""
	page := "/api/v1/pages/" + pages[0]

	w := a.do(http.MethodPost, page+"/like", "", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "session", decode(t, w)["field"])

	for _, session := range []string{"session_one", "session_two"} {
		w = a.do(http.MethodPost, page+"/like", session, nil)
		require.Equal(t, http.StatusOK, w.Code)
	}
	state := decode(t, a.do(http.MethodGet, page+"/like", "session_one", nil))
	assert.EqualValues(t, 2, state["count"])
	assert.Equal(t, true, state["liked"])

	w = a.do(http.MethodPost, page+"/comments", "", map[string]string{"userName": "", "content": "hi"})
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "userName", decode(t, w)["field"])

	w = a.do(http.MethodPost, page+"/comments", "", map[string]string{"userName": "Ana", "content": "Lovely"})
	require.Equal(t, http.StatusCreated, w.Code)
	commentID := decode(t, w)["comment"].(map[string]any)["id"].(string)

	w = a.do(http.MethodPost, page+"/comments", "", map[string]any{"userName": "Bo", "content": "Agreed", "parentCommentId": commentID})
	require.Equal(t, http.StatusCreated, w.Code)

	listing := decode(t, a.do(http.MethodGet, page+"/comments", "", nil))
	assert.EqualValues(t, 1, listing["count"])
	root := listing["comments"].([]any)[0].(map[string]any)
	assert.Len(t, root["replies"], 1)

	w = a.do(http.MethodGet, "/api/v1/comments/"+commentID+"/replies", "", nil)
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestProgressEndpoints(t *testing.T) {
	a := newAPI(t)
	a.login()
	storyID, pages := a.seed(2)
	a.token = ""
	path := "/api/v1/stories/" + storyID + "/progress"

	w := a.do(http.MethodGet, path, "session_p", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = a.do(http.MethodPut, path, "session_p", map[string]any{"pageId": pages[1], "seq": 4})
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, true, decode(t, w)["applied"])

	w = a.do(http.MethodPut, path, "session_p", map[string]any{"pageId": pages[0], "seq": 2})
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, false, decode(t, w)["applied"])

	w = a.do(http.MethodPut, path, "session_p", map[string]any{"pageId": pages[0]})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	stored := decode(t, a.do(http.MethodGet, path, "session_p", nil))
	assert.Equal(t, pages[1], stored["pageId"])
}

func TestOptionalIntegrationsReportUnavailable(t *testing.T) {
	a := newAPI(t)

	w := a.do(http.MethodPost, "/api/v1/contact", "", map[string]string{"name": "Dana", "email": "dana@example.com", "message": "Hello"})
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)

	settings := decode(t, a.do(http.MethodGet, "/api/v1/settings", "", nil))
	assert.Equal(t, false, settings["contactEnabled"])
	assert.Equal(t, []any{"text", "html"}, settings["importFormats"])
}

func TestSessionAndHealth(t *testing.T) {
	a := newAPI(t)

	w := a.do(http.MethodPost, "/api/v1/session", "", nil)
	require.Equal(t, http.StatusCreated, w.Code)
	assert.Contains(t, decode(t, w)["sessionId"], "session_")

	w = a.do(http.MethodPost, "/api/v1/session", "session_mine", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "session_mine", decode(t, w)["sessionId"])

	w = a.do(http.MethodGet, "/api/v1/health", "", nil)
	require.Equal(t, http.StatusOK, w.Code)
	health := decode(t, w)
	assert.Equal(t, "ok", health["database"])
	assert.Equal(t, []any{}, health["alerts"])
	assert.Contains(t, health["operations"], "completedOperations")
	assert.Contains(t, health, "cache")

	w = a.do(http.MethodGet, "/metrics", "", nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "http_requests_total")
}
