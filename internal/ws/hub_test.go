package ws

import (
	"encoding/json"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"crypto_invest/internal/service"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHubNotifyReachesOnlyTargetUser(t *testing.T) {
	hub := NewHub()
	alice, bob := uuid.New(), uuid.New()

	a1 := NewClient(alice, nil, hub)
	a2 := NewClient(alice, nil, hub)
	b := NewClient(bob, nil, hub)
	hub.register(a1)
	hub.register(a2)
	hub.register(b)
	require.Equal(t, 2, hub.Online(alice))

	hub.Notify(alice, "deposit.approved", map[string]string{"amount": "50"})

	for _, c := range []*Client{a1, a2} {
		select {
		case raw := <-c.Send:
			var m Message
			require.NoError(t, json.Unmarshal(raw, &m))
			assert.Equal(t, "deposit.approved", m.Type)
		default:
			t.Fatal("expected a queued message")
		}
	}
	assert.Empty(t, b.Send)
}

func TestHubNotifyDropsWhenBufferFull(t *testing.T) {
	hub := NewHub()
	userID := uuid.New()
	c := NewClient(userID, nil, hub)
	hub.register(c)

	for i := 0; i < sendBuffer+10; i++ {
		hub.Notify(userID, "tick", i)
	}
	assert.Len(t, c.Send, sendBuffer)
}

func TestHubUnregisterClosesSend(t *testing.T) {
	hub := NewHub()
	userID := uuid.New()
	c := NewClient(userID, nil, hub)
	hub.register(c)

	hub.unregister(c)
	hub.unregister(c) // second call is a no-op

	_, open := <-c.Send
	assert.False(t, open)
	assert.Zero(t, hub.Online(userID))

	hub.Notify(userID, "ignored", nil)
}

func TestHandleWS_ReadyPingAndNotify(t *testing.T) {
	gin.SetMode(gin.TestMode)
	tokens := service.NewJWTManager("ws-secret", time.Hour)
	hub := NewHub()

	r := gin.New()
	r.GET("/ws", HandleWS(hub, tokens, ""))
	srv := httptest.NewServer(r)
	defer srv.Close()

	userID := uuid.New()
	token, err := tokens.Generate(userID, false)
	require.NoError(t, err)

	url := "ws" + strings.TrimPrefix(srv.URL, "http") + "/ws?token=" + token
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	defer conn.Close()

	read := func() Message {
		_ = conn.SetReadDeadline(time.Now().Add(2 * time.Second))
		var m Message
		require.NoError(t, conn.ReadJSON(&m))
		return m
	}

	assert.Equal(t, MsgReady, read().Type)

	require.NoError(t, conn.WriteJSON(map[string]string{"type": MsgPing}))
	assert.Equal(t, MsgPong, read().Type)

	require.Eventually(t, func() bool { return hub.Online(userID) == 1 }, time.Second, 10*time.Millisecond)
	hub.Notify(userID, "investment.approved", nil)
	assert.Equal(t, "investment.approved", read().Type)
}

func TestHandleWS_RejectsBadToken(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.GET("/ws", HandleWS(NewHub(), service.NewJWTManager("ws-secret", time.Hour), ""))
	srv := httptest.NewServer(r)
	defer srv.Close()

	url := "ws" + strings.TrimPrefix(srv.URL, "http") + "/ws?token=bogus"
	_, resp, err := websocket.DefaultDialer.Dial(url, nil)
	require.Error(t, err)
	require.NotNil(t, resp)
	assert.Equal(t, 401, resp.StatusCode)
}
