package controllers

import (
	"net/http"

	"github.com/bytedance/sonic"
	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/moyoez/edi-client/api/models"
	"github.com/moyoez/edi-client/notify"
	"github.com/moyoez/edi-client/tool"
	"github.com/moyoez/edi-client/types"
)

var notifyWSUpgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool {
		return true // OnlyAllowLocal middleware already restricts to localhost
	},
}

// HandleNotifyWS upgrades the request to WebSocket and registers the connection with the hub.
// The first message is the current dashboard snapshot.
func HandleNotifyWS(app *models.App, hub *notify.Hub) gin.HandlerFunc {
	return func(c *gin.Context) {
		conn, err := notifyWSUpgrader.Upgrade(c.Writer, c.Request, nil)
		if err != nil {
			return
		}
		defer func() {
			if err := conn.Close(); err != nil {
				tool.DefaultLogger.Errorf("Failed to close WebSocket connection: %v", err)
			}
		}()

		payload, err := sonic.Marshal(&types.Notification{
			Type: types.NotifyTypeWorkflow,
			Data: map[string]any{"snapshot": app.Snapshot()},
		})
		if err != nil {
			tool.DefaultLogger.Errorf("Failed to encode snapshot: %v", err)
			return
		}
		if err := conn.WriteMessage(websocket.TextMessage, payload); err != nil {
			return
		}

		hub.Register(conn)
		defer hub.Unregister(conn)

		// Read loop to detect client close and keep connection alive
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				break
			}
		}
	}
}
