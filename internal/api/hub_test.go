package api

import (
	"context"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ringroad/pkg/narration"
)

func dial(t *testing.T, srv *httptest.Server) *websocket.Conn {
	t.Helper()
	url := "ws" + strings.TrimPrefix(srv.URL, "http")
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })
	_ = conn.SetReadDeadline(time.Now().Add(5 * time.Second))
	return conn
}

func TestHub_ConnectAndBroadcast(t *testing.T) {
	hub := NewHub()
	hub.OnConnect = func() []any {
		return []any{Envelope{Type: EventSnapshot, Data: map[string]int{"count": 13}}}
	}
	srv := httptest.NewServer(hub)
	defer srv.Close()
	defer hub.CloseAll()

	conn := dial(t, srv)

	var hello Envelope
	require.NoError(t, conn.ReadJSON(&hello))
	assert.Equal(t, EventSnapshot, hello.Type)

	require.Eventually(t, func() bool { return hub.ClientCount() == 1 }, 2*time.Second, 10*time.Millisecond)

	hub.Broadcast(Envelope{Type: EventCelebrate, Data: 3})
	var msg Envelope
	require.NoError(t, conn.ReadJSON(&msg))
	assert.Equal(t, EventCelebrate, msg.Type)
	assert.EqualValues(t, 3, msg.Data)

	conn.Close()
	require.Eventually(t, func() bool { return hub.ClientCount() == 0 }, 2*time.Second, 10*time.Millisecond)
}

func TestHub_LargeSnapshotAndEarlyBroadcast(t *testing.T) {
	hub := NewHub()
	n := 3 * sendBuffer
	hub.OnConnect = func() []any {
		// Anything broadcast while the snapshot is built must still arrive.
		hub.Broadcast(Envelope{Type: EventCelebrate, Data: 1})
		out := make([]any, n)
		for i := range out {
			out[i] = Envelope{Type: EventSnapshot, Data: i}
		}
		return out
	}
	srv := httptest.NewServer(hub)
	defer srv.Close()
	defer hub.CloseAll()

	conn := dial(t, srv)

	var first Envelope
	require.NoError(t, conn.ReadJSON(&first))
	assert.Equal(t, EventCelebrate, first.Type)

	for i := 0; i < n; i++ {
		var msg Envelope
		require.NoError(t, conn.ReadJSON(&msg))
		require.Equal(t, EventSnapshot, msg.Type)
		assert.EqualValues(t, i, msg.Data)
	}
	assert.Equal(t, 1, hub.ClientCount())
}

func TestHub_NarrationRoundTrip(t *testing.T) {
	hub := NewHub()
	remote := narration.NewRemote(hub)
	hub.OnMessage = func(clientID string, msg ClientMessage) {
		if msg.Type == narration.TypeNarrationDone {
			remote.Complete(msg.Token)
		}
	}
	srv := httptest.NewServer(hub)
	defer srv.Close()
	defer hub.CloseAll()

	// No renderer yet
	require.ErrorIs(t, remote.Speak(context.Background(), "hello", func() {}), narration.ErrUnsupported)

	conn := dial(t, srv)
	require.Eventually(t, func() bool { return hub.ClientCount() == 1 }, 2*time.Second, 10*time.Millisecond)

	done := make(chan struct{})
	require.NoError(t, remote.Speak(context.Background(), "Welcome to Gullfoss", func() { close(done) }))

	var msg narration.Message
	require.NoError(t, conn.ReadJSON(&msg))
	require.Equal(t, narration.TypeNarrate, msg.Type)
	require.NotNil(t, msg.Narration)
	assert.Equal(t, "Welcome to Gullfoss", msg.Narration.Text)

	require.NoError(t, conn.WriteJSON(ClientMessage{Type: narration.TypeNarrationDone, Token: msg.Narration.Token}))

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("narration completion not delivered")
	}
	assert.Equal(t, 0, remote.Pending())
}
