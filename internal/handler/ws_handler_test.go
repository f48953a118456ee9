package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/openfloor/qna-service/internal/config"
	"github.com/openfloor/qna-service/internal/domain"
	"github.com/openfloor/qna-service/internal/hub"
	"github.com/openfloor/qna-service/internal/repository"
	"github.com/openfloor/qna-service/internal/service"
)

func testWSConfig() config.WebSocketConfig {
	return config.WebSocketConfig{
		ReadBufferSize:  1024,
		WriteBufferSize: 1024,
		SendBufferSize:  64,
		MaxMessageSize:  4096,
		WriteWait:       5 * time.Second,
		PongWait:        30 * time.Second,
		PingInterval:    25 * time.Second,
	}
}

func setupWSServer(t *testing.T) (*httptest.Server, service.QuestionService) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	repo := repository.NewMemoryQuestionRepository()
	h := hub.NewHub()
	svc := service.NewQuestionService(repo, h, nil, 0, "Anonymous")

	r := gin.New()
	NewHandler(svc).RegisterRoutes(r)
	NewWSHandler(h, svc, testWSConfig()).RegisterRoutes(r)

	srv := httptest.NewServer(r)
	t.Cleanup(srv.Close)
	return srv, svc
}

func dialWS(t *testing.T, srv *httptest.Server, role string) *websocket.Conn {
	t.Helper()

	url := "ws" + strings.TrimPrefix(srv.URL, "http") + "/ws"
	if role != "" {
		url += "?role=" + role
	}
	conn, resp, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	if resp != nil {
		resp.Body.Close()
	}
	t.Cleanup(func() { conn.Close() })
	return conn
}

type wsEnvelope struct {
	Type     string                    `json:"type"`
	ID       string                    `json:"id"`
	Question *domain.QuestionResponse  `json:"question"`
	Approved []domain.QuestionResponse `json:"approved"`
	Pending  []domain.QuestionResponse `json:"pending"`
	Code     string                    `json:"code"`
}

func readEnvelope(t *testing.T, conn *websocket.Conn) wsEnvelope {
	t.Helper()
	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	_, data, err := conn.ReadMessage()
	require.NoError(t, err)

	var env wsEnvelope
	require.NoError(t, json.Unmarshal(data, &env))
	return env
}

func assertNoMessage(t *testing.T, conn *websocket.Conn) {
	t.Helper()
	conn.SetReadDeadline(time.Now().Add(200 * time.Millisecond))
	_, data, err := conn.ReadMessage()
	if err == nil {
		t.Fatalf("expected no message, got: %s", data)
	}
	assert.True(t, strings.Contains(err.Error(), "timeout") || strings.Contains(err.Error(), "deadline"),
		"expected a read timeout, got: %v", err)
}

func TestWebSocketSnapshotOnConnect(t *testing.T) {
	srv, svc := setupWSServer(t)
	ctx := context.Background()

	approved, err := svc.Submit(ctx, "already answered", "Ana")
	require.NoError(t, err)
	_, err = svc.SetStatus(ctx, approved.ID, domain.StatusApproved)
	require.NoError(t, err)

	pending, err := svc.Submit(ctx, "still waiting", "Ben")
	require.NoError(t, err)

	t.Run("public sees only approved", func(t *testing.T) {
		conn := dialWS(t, srv, "")
		snap := readEnvelope(t, conn)
		require.Equal(t, domain.MsgTypeSnapshot, snap.Type)
		require.Len(t, snap.Approved, 1)
		assert.Equal(t, approved.ID, snap.Approved[0].ID)
		assert.Empty(t, snap.Pending)
	})

	t.Run("moderator also sees pending", func(t *testing.T) {
		conn := dialWS(t, srv, "moderator")
		snap := readEnvelope(t, conn)
		require.Equal(t, domain.MsgTypeSnapshot, snap.Type)
		require.Len(t, snap.Approved, 1)
		require.Len(t, snap.Pending, 1)
		assert.Equal(t, pending.ID, snap.Pending[0].ID)
	})
}

func TestWebSocketSubmitReachesModeratorsOnly(t *testing.T) {
	srv, _ := setupWSServer(t)

	public := dialWS(t, srv, "public")
	moderator := dialWS(t, srv, "moderator")
	readEnvelope(t, public)    // snapshot
	readEnvelope(t, moderator) // snapshot

	payload, _ := json.Marshal(map[string]string{
		"type": domain.MsgTypeSubmitQuestion,
		"text": "will this show up?",
	})
	require.NoError(t, public.WriteMessage(websocket.TextMessage, payload))

	event := readEnvelope(t, moderator)
	assert.Equal(t, domain.EventQuestionSubmitted, event.Type)
	require.NotNil(t, event.Question)
	assert.Equal(t, "will this show up?", event.Question.Text)
	assert.Equal(t, "Anonymous", event.Question.Author)

	assertNoMessage(t, public)
}

func TestWebSocketApproveBroadcastsToEveryone(t *testing.T) {
	srv, svc := setupWSServer(t)

	q, err := svc.Submit(context.Background(), "approve over ws", "Ana")
	require.NoError(t, err)

	public := dialWS(t, srv, "public")
	moderator := dialWS(t, srv, "moderator")
	readEnvelope(t, public)
	readEnvelope(t, moderator)

	payload, _ := json.Marshal(map[string]string{
		"type":   domain.MsgTypeSetStatus,
		"id":     q.ID,
		"status": "approved",
	})
	require.NoError(t, moderator.WriteMessage(websocket.TextMessage, payload))

	for name, conn := range map[string]*websocket.Conn{"public": public, "moderator": moderator} {
		event := readEnvelope(t, conn)
		assert.Equal(t, domain.EventQuestionApproved, event.Type, "%s connection", name)
		require.NotNil(t, event.Question, "%s connection", name)
		assert.Equal(t, q.ID, event.Question.ID)
		assert.Equal(t, domain.StatusApproved, event.Question.Status)
	}
}

func TestWebSocketModeratorCommandsAreGated(t *testing.T) {
	srv, svc := setupWSServer(t)

	q, err := svc.Submit(context.Background(), "untouchable", "Ana")
	require.NoError(t, err)

	public := dialWS(t, srv, "public")
	readEnvelope(t, public)

	payload, _ := json.Marshal(map[string]string{
		"type":   domain.MsgTypeSetStatus,
		"id":     q.ID,
		"status": "approved",
	})
	require.NoError(t, public.WriteMessage(websocket.TextMessage, payload))

	errMsg := readEnvelope(t, public)
	assert.Equal(t, domain.MsgTypeError, errMsg.Type)
	assert.Equal(t, domain.ErrCodeForbidden, errMsg.Code)

	current, err := svc.ListPending(context.Background())
	require.NoError(t, err)
	require.Len(t, current, 1)
	assert.Equal(t, domain.StatusPending, current[0].Status)
}

func TestWebSocketCommandErrorsArePrivate(t *testing.T) {
	srv, _ := setupWSServer(t)

	moderator := dialWS(t, srv, "moderator")
	other := dialWS(t, srv, "moderator")
	readEnvelope(t, moderator)
	readEnvelope(t, other)

	payload, _ := json.Marshal(map[string]string{
		"type":   domain.MsgTypeSetStatus,
		"id":     "no-such-question",
		"status": "approved",
	})
	require.NoError(t, moderator.WriteMessage(websocket.TextMessage, payload))

	errMsg := readEnvelope(t, moderator)
	assert.Equal(t, domain.MsgTypeError, errMsg.Type)
	assert.Equal(t, domain.ErrCodeNotFound, errMsg.Code)

	assertNoMessage(t, other)
}

func TestWebSocketUnknownRoleRejected(t *testing.T) {
	srv, _ := setupWSServer(t)

	url := "ws" + strings.TrimPrefix(srv.URL, "http") + "/ws?role=admin"
	conn, resp, err := websocket.DefaultDialer.Dial(url, nil)
	require.Error(t, err)
	if conn != nil {
		conn.Close()
	}
	require.NotNil(t, resp)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestWebSocketPing(t *testing.T) {
	srv, _ := setupWSServer(t)

	conn := dialWS(t, srv, "public")
	readEnvelope(t, conn)

	payload, _ := json.Marshal(map[string]string{"type": domain.MsgTypePing})
	require.NoError(t, conn.WriteMessage(websocket.TextMessage, payload))

	pong := readEnvelope(t, conn)
	assert.Equal(t, domain.MsgTypePong, pong.Type)
}
