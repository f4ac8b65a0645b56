package chainrpc

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHeadWatcherInvokesCallbackPerHead(t *testing.T) {
	upgrader := websocket.Upgrader{}

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		require.NoError(t, err)
		defer conn.Close()

		var req rpcRequest
		require.NoError(t, conn.ReadJSON(&req))
		require.Equal(t, "eth_subscribe", req.Method)

		// Subscription ack, then two heads.
		require.NoError(t, conn.WriteJSON(map[string]interface{}{
			"jsonrpc": "2.0", "id": req.ID, "result": "0xsub1",
		}))
		for i := 0; i < 2; i++ {
			require.NoError(t, conn.WriteJSON(map[string]interface{}{
				"jsonrpc": "2.0",
				"method":  "eth_subscription",
				"params":  map[string]interface{}{"subscription": "0xsub1", "result": map[string]string{}},
			}))
		}
		// Hold the connection open until the client hangs up.
		_, _, _ = conn.ReadMessage()
	}))
	defer srv.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	heads := make(chan struct{}, 4)
	watcher := NewHeadWatcher("ws"+strings.TrimPrefix(srv.URL, "http"), nil)

	done := make(chan error, 1)
	go func() {
		done <- watcher.Run(ctx, func() { heads <- struct{}{} })
	}()

	for i := 0; i < 2; i++ {
		select {
		case <-heads:
		case <-time.After(2 * time.Second):
			t.Fatal("head callback never fired")
		}
	}

	cancel()
	select {
	case err := <-done:
		assert.ErrorIs(t, err, context.Canceled)
	case <-time.After(2 * time.Second):
		t.Fatal("watcher did not stop on cancel")
	}
}

func TestHeadWatcherSurfacesRefusal(t *testing.T) {
	upgrader := websocket.Upgrader{}

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		require.NoError(t, err)
		defer conn.Close()

		var req rpcRequest
		require.NoError(t, conn.ReadJSON(&req))
		require.NoError(t, conn.WriteJSON(map[string]interface{}{
			"jsonrpc": "2.0", "id": req.ID,
			"error": map[string]interface{}{"code": -32601, "message": "subscriptions not supported"},
		}))
	}))
	defer srv.Close()

	watcher := NewHeadWatcher("ws"+strings.TrimPrefix(srv.URL, "http"), nil)
	err := watcher.Run(context.Background(), func() {})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "subscriptions not supported")
}
