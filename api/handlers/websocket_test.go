package handlers

import (
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/require"

	"github.com/kalsim-labs/kalsim/communication"
)

func TestWebSocketClientReapedOnDisconnect(t *testing.T) {
	gin.SetMode(gin.TestMode)
	router := gin.New()
	router.GET("/ws", HandleWebSocket)

	server := httptest.NewServer(router)
	defer server.Close()

	manager := communication.GetWSManager()
	baseline := manager.ClientCount()

	url := "ws" + strings.TrimPrefix(server.URL, "http") + "/ws"
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)

	require.Eventually(t, func() bool {
		return manager.ClientCount() == baseline+1
	}, time.Second, 10*time.Millisecond, "client should register after the upgrade")

	require.NoError(t, conn.Close())

	require.Eventually(t, func() bool {
		return manager.ClientCount() == baseline
	}, time.Second, 10*time.Millisecond, "client should unregister when the connection drops")
}
