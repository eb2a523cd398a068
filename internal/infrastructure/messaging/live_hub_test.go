package messaging

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/AtRiskMedia/storyreader-go/internal/domain/entities/engagement"
	"github.com/AtRiskMedia/storyreader-go/internal/infrastructure/observability/logging"
	"github.com/AtRiskMedia/storyreader-go/internal/infrastructure/observability/metrics"
	"github.com/gorilla/websocket"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
)

type hubFixture struct {
	hub     *LiveHub
	metrics *metrics.Metrics
	server  *httptest.Server
	cancel  context.CancelFunc
}

func newHubFixture(t *testing.T) *hubFixture {
	t.Helper()
	m := metrics.NewMetrics()
	hub := NewLiveHub(time.Second, 50*time.Millisecond, m, logging.NewDiscardLogger())
	ctx, cancel := context.WithCancel(context.Background())
	go hub.Run(ctx)

	upgrader := websocket.Upgrader{}
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		hub.Serve(conn, r.URL.Query().Get("story"), r.URL.Query().Get("session"))
	}))

	return &hubFixture{hub: hub, metrics: m, server: server, cancel: cancel}
}

func (f *hubFixture) stop() {
	f.cancel()
	<-f.hub.Done()
	f.server.Close()
}

func (f *hubFixture) dial(t *testing.T, storyID string) *websocket.Conn {
	t.Helper()
	url := "ws" + strings.TrimPrefix(f.server.URL, "http") + "/?story=" + storyID + "&session=session_test"
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	return conn
}

func TestPublishReachesOnlyTheStoryRoom(t *testing.T) {
	defer goleak.VerifyNone(t)
	f := newHubFixture(t)
	defer f.stop()

	reader := f.dial(t, "story-a")
	defer reader.Close()
	other := f.dial(t, "story-b")
	defer other.Close()

	require.Eventually(t, func() bool {
		return f.hub.RoomSize("story-a") == 1 && f.hub.RoomSize("story-b") == 1
	}, time.Second, 10*time.Millisecond)
	assert.Equal(t, 2.0, testutil.ToFloat64(f.metrics.LiveConnections))

	f.hub.Publish(engagement.LiveEvent{
		Type:       engagement.EventLikeToggled,
		StoryID:    "story-a",
		TargetType: engagement.TargetPage,
		TargetID:   "page-1",
		Likes:      &engagement.LikeState{TargetType: engagement.TargetPage, TargetID: "page-1", Count: 3},
	})

	require.NoError(t, reader.SetReadDeadline(time.Now().Add(time.Second)))
	var event engagement.LiveEvent
	require.NoError(t, reader.ReadJSON(&event))
	assert.Equal(t, engagement.EventLikeToggled, event.Type)
	assert.Equal(t, "page-1", event.TargetID)
	require.NotNil(t, event.Likes)
	assert.Equal(t, 3, event.Likes.Count)

	// The other room only sees pings, which the client answers transparently.
	require.NoError(t, other.SetReadDeadline(time.Now().Add(150*time.Millisecond)))
	_, _, err := other.ReadMessage()
	require.Error(t, err)
	var netErr interface{ Timeout() bool }
	if assert.ErrorAs(t, err, &netErr) {
		assert.True(t, netErr.Timeout())
	}
}

func TestClientDisconnectLeavesRoom(t *testing.T) {
	defer goleak.VerifyNone(t)
	f := newHubFixture(t)
	defer f.stop()

	conn := f.dial(t, "story-a")
	require.Eventually(t, func() bool { return f.hub.RoomSize("story-a") == 1 }, time.Second, 10*time.Millisecond)

	require.NoError(t, conn.WriteMessage(websocket.CloseMessage,
		websocket.FormatCloseMessage(websocket.CloseNormalClosure, "")))
	conn.Close()

	require.Eventually(t, func() bool { return f.hub.RoomSize("story-a") == 0 }, time.Second, 10*time.Millisecond)
	assert.Equal(t, 0.0, testutil.ToFloat64(f.metrics.LiveConnections))
}

func TestHubShutdownClosesClients(t *testing.T) {
	defer goleak.VerifyNone(t)
	f := newHubFixture(t)

	conn := f.dial(t, "story-a")
	defer conn.Close()
	require.Eventually(t, func() bool { return f.hub.RoomSize("story-a") == 1 }, time.Second, 10*time.Millisecond)

	f.stop()

	require.NoError(t, conn.SetReadDeadline(time.Now().Add(time.Second)))
	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			break
		}
	}
	assert.Equal(t, 0, f.hub.RoomSize("story-a"))

	// Publishing after shutdown is a no-op.
	f.hub.Publish(engagement.LiveEvent{Type: engagement.EventCommentPosted, StoryID: "story-a"})
}

func TestPublishEncodesCommentEvents(t *testing.T) {
	event := engagement.LiveEvent{
		Type:    engagement.EventCommentPosted,
		StoryID: "s",
		Comment: &engagement.Comment{ID: "c1", UserName: "Ada", Content: "hi"},
	}
	payload, err := json.Marshal(event)
	require.NoError(t, err)
	assert.Contains(t, string(payload), `"type":"comment_posted"`)
	assert.NotContains(t, string(payload), `"likes"`)
}
