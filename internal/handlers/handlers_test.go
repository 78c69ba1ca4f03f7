package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/coder/websocket"
	"github.com/google/uuid"
	"github.com/jason-s-yu/judgement/internal/auth"
	"github.com/jason-s-yu/judgement/internal/cache"
	"github.com/jason-s-yu/judgement/internal/connection"
	"github.com/jason-s-yu/judgement/internal/database"
	"github.com/jason-s-yu/judgement/internal/room"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestServer(t *testing.T) (*Server, http.Handler) {
	t.Helper()
	logger := logrus.New()
	logger.SetLevel(logrus.WarnLevel)
	signer, err := auth.NewSigner(time.Hour)
	require.NoError(t, err)
	dir := database.NewMemoryDirectory()
	s := &Server{
		Dir:    dir,
		Rooms:  room.NewManager(dir, connection.NewRegistry(), cache.NopActionLog{}, room.DefaultGameFactory, logger),
		Signer: signer,
		Logger: logger,
	}
	return s, s.NewRouter()
}

type ensureResponse struct {
	Player struct {
		ID   uuid.UUID `json:"id"`
		Name *string   `json:"name"`
	} `json:"player"`
	Token string `json:"token"`
}

func ensurePlayer(t *testing.T, h http.Handler, token string) ensureResponse {
	t.Helper()
	req := httptest.NewRequest(http.MethodPut, "/player/ensure", nil)
	if token != "" {
		req.AddCookie(&http.Cookie{Name: authCookieName, Value: token})
	}
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	var resp ensureResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	return resp
}

func TestEnsurePlayerCreatesAndReuses(t *testing.T) {
	_, h := newTestServer(t)

	first := ensurePlayer(t, h, "")
	assert.NotEqual(t, uuid.Nil, first.Player.ID)
	assert.Nil(t, first.Player.Name)
	assert.NotEmpty(t, first.Token)

	again := ensurePlayer(t, h, first.Token)
	assert.Equal(t, first.Player.ID, again.Player.ID)

	// A token for a player the directory never saw yields a fresh player.
	s, h2 := newTestServer(t)
	stray, err := s.Signer.CreateJWT(uuid.New())
	require.NoError(t, err)
	fresh := ensurePlayer(t, h2, stray)
	assert.NotEqual(t, uuid.Nil, fresh.Player.ID)
}

func TestEnsurePlayerSetsCookie(t *testing.T) {
	_, h := newTestServer(t)
	req := httptest.NewRequest(http.MethodPut, "/player/ensure", nil)
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)

	var found bool
	for _, c := range w.Result().Cookies() {
		if c.Name == authCookieName {
			found = true
			assert.NotEmpty(t, c.Value)
			assert.True(t, c.HttpOnly)
		}
	}
	assert.True(t, found)
}

func TestSetPlayerName(t *testing.T) {
	_, h := newTestServer(t)
	p := ensurePlayer(t, h, "")

	req := httptest.NewRequest(http.MethodPut, "/player/name", strings.NewReader(`{"name":"  Ada  "}`))
	req.Header.Set("Authorization", "Bearer "+p.Token)
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	req = httptest.NewRequest(http.MethodGet, "/player", nil)
	req.AddCookie(&http.Cookie{Name: authCookieName, Value: p.Token})
	w = httptest.NewRecorder()
	h.ServeHTTP(w, req)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"name":"Ada"`)

	req = httptest.NewRequest(http.MethodPut, "/player/name", strings.NewReader(`{"name":""}`))
	req.Header.Set("Authorization", "Bearer "+p.Token)
	w = httptest.NewRecorder()
	h.ServeHTTP(w, req)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestPlayerRoutesRequireAuth(t *testing.T) {
	_, h := newTestServer(t)

	for _, tc := range []struct{ method, path string }{
		{http.MethodGet, "/player"},
		{http.MethodPut, "/player/name"},
		{http.MethodPost, "/rooms"},
	} {
		req := httptest.NewRequest(tc.method, tc.path, strings.NewReader(`{}`))
		req.Header.Set("Authorization", "Bearer not-a-token")
		w := httptest.NewRecorder()
		h.ServeHTTP(w, req)
		assert.Equal(t, http.StatusUnauthorized, w.Code, tc.path)
	}
}

func TestRoomRoutes(t *testing.T) {
	_, h := newTestServer(t)
	p := ensurePlayer(t, h, "")

	req := httptest.NewRequest(http.MethodPost, "/rooms", nil)
	req.Header.Set("Authorization", "Bearer "+p.Token)
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	var created struct {
		ID string `json:"id"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &created))
	require.Len(t, created.ID, 4)

	w = httptest.NewRecorder()
	h.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/rooms/"+created.ID+"/exists", nil))
	assert.JSONEq(t, `{"exists":true}`, w.Body.String())

	w = httptest.NewRecorder()
	h.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/rooms/"+strings.ToLower(created.ID), nil))
	require.Equal(t, http.StatusOK, w.Code)
	var snap room.Snapshot
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &snap))
	assert.Equal(t, created.ID, snap.ID)
	assert.Empty(t, snap.OrderedPlayerIDs)

	w = httptest.NewRecorder()
	h.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/rooms/ZZZZ", nil))
	if created.ID != "ZZZZ" {
		assert.Equal(t, http.StatusNotFound, w.Code)
	}
}

func TestHealthz(t *testing.T) {
	_, h := newTestServer(t)
	w := httptest.NewRecorder()
	h.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	assert.Equal(t, http.StatusOK, w.Code)
}

type wsMessage struct {
	Type string          `json:"type"`
	Data json.RawMessage `json:"data"`
}

func dial(t *testing.T, ctx context.Context, srv *httptest.Server, token string) *websocket.Conn {
	t.Helper()
	header := http.Header{}
	if token != "" {
		header.Set("Cookie", authCookieName+"="+token)
	}
	c, _, err := websocket.Dial(ctx, "ws"+strings.TrimPrefix(srv.URL, "http")+"/ws", &websocket.DialOptions{
		Subprotocols: []string{Subprotocol},
		HTTPHeader:   header,
	})
	require.NoError(t, err)
	return c
}

func readUntil(t *testing.T, ctx context.Context, c *websocket.Conn, typ string) wsMessage {
	t.Helper()
	for {
		_, data, err := c.Read(ctx)
		require.NoError(t, err)
		var msg wsMessage
		require.NoError(t, json.Unmarshal(data, &msg))
		if msg.Type == typ {
			return msg
		}
	}
}

func TestWebSocketJoinRoom(t *testing.T) {
	s, h := newTestServer(t)
	srv := httptest.NewServer(h)
	defer srv.Close()

	p := ensurePlayer(t, h, "")
	code, err := s.Rooms.CreateRoom(context.Background())
	require.NoError(t, err)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	c := dial(t, ctx, srv, p.Token)
	defer c.Close(websocket.StatusNormalClosure, "")

	join, _ := json.Marshal(map[string]any{"type": "join_room", "data": map[string]string{"roomId": code}})
	require.NoError(t, c.Write(ctx, websocket.MessageText, join))

	msg := readUntil(t, ctx, c, "room")
	var snap room.Snapshot
	require.NoError(t, json.Unmarshal(msg.Data, &snap))
	assert.Equal(t, code, snap.ID)
	assert.Equal(t, []uuid.UUID{p.Player.ID}, snap.OrderedPlayerIDs)

	require.NoError(t, c.Write(ctx, websocket.MessageText, []byte(`{"type":"dance"}`)))
	msg = readUntil(t, ctx, c, "invalid_input")
	assert.Contains(t, string(msg.Data), "unknown event type")
}

func TestWebSocketRejectsBadToken(t *testing.T) {
	_, h := newTestServer(t)
	srv := httptest.NewServer(h)
	defer srv.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	c := dial(t, ctx, srv, "garbage")
	_, _, err := c.Read(ctx)
	require.Error(t, err)
	assert.Equal(t, websocket.StatusCode(InvalidAuthTokenError), websocket.CloseStatus(err))
}
