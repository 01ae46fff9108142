package main

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Concurrent unserialized writes make gorilla/websocket panic, so having
// many goroutines push through the same client and land every message
// proves the per-connection lock works.
func TestWsClientSerializesConcurrentWrites(t *testing.T) {
	const writers = 8
	const perWriter = 8

	received := make(chan string, writers*perWriter)
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		defer conn.Close()
		for {
			_, msg, err := conn.ReadMessage()
			if err != nil {
				return
			}
			received <- string(msg)
		}
	}))
	defer server.Close()

	url := "ws" + strings.TrimPrefix(server.URL, "http")
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	defer conn.Close()

	client := &wsClient{conn: conn}

	var wg sync.WaitGroup
	for i := 0; i < writers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < perWriter; j++ {
				assert.NoError(t, client.send([]byte(`{"fields":{}}`)))
			}
		}()
	}
	wg.Wait()

	for i := 0; i < writers*perWriter; i++ {
		assert.Equal(t, `{"fields":{}}`, <-received)
	}
}

func TestAddRemoveWebSocketClient(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		conn.ReadMessage()
		conn.Close()
	}))
	defer server.Close()

	url := "ws" + strings.TrimPrefix(server.URL, "http")
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)

	client := AddWebSocketClient(conn)
	wsClientsMutex.RLock()
	assert.True(t, wsClients[client])
	wsClientsMutex.RUnlock()

	RemoveWebSocketClient(client)
	wsClientsMutex.RLock()
	assert.False(t, wsClients[client])
	wsClientsMutex.RUnlock()
}
