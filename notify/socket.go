package notify

import (
	"encoding/binary"
	"fmt"
	"io"
	"net"
	"os"
	"time"

	"github.com/bytedance/sonic"
	"github.com/moyoez/edi-client/tool"
	"github.com/moyoez/edi-client/types"
)

// MaxSocketPayload bounds one notification written to the unix socket.
const MaxSocketPayload = 32 * 1024

// UnixSocketTimeout is the timeout for Unix socket operations
var UnixSocketTimeout = 3 * time.Second

// SendNotification writes one length-prefixed JSON notification to the desktop
// notifier listening on socketPath and waits for its acknowledgement.
func SendNotification(notification *types.Notification, socketPath string) error {
	if socketPath == "" {
		return nil
	}
	if _, err := os.Stat(socketPath); os.IsNotExist(err) {
		return fmt.Errorf("unix socket not found: %s (is the notifier running?)", socketPath)
	}

	payload := []byte("{}")
	if notification != nil {
		var err error
		payload, err = sonic.Marshal(notification)
		if err != nil {
			return fmt.Errorf("failed to serialize notification data: %v", err)
		}
	}
	if len(payload) > MaxSocketPayload {
		return fmt.Errorf("notification payload too large: %d bytes (max %d)", len(payload), MaxSocketPayload)
	}

	conn, err := net.DialTimeout("unix", socketPath, UnixSocketTimeout)
	if err != nil {
		return fmt.Errorf("failed to connect to Unix socket %s: %v", socketPath, err)
	}
	defer func() {
		if err := conn.Close(); err != nil {
			tool.DefaultLogger.Errorf("Failed to close Unix socket connection: %v", err)
		}
	}()

	if err := conn.SetDeadline(time.Now().Add(UnixSocketTimeout)); err != nil {
		tool.DefaultLogger.Errorf("Failed to set deadline: %v", err)
	}

	// 4 byte little-endian length prefix, then the payload
	lengthBuf := make([]byte, 4)
	binary.LittleEndian.PutUint32(lengthBuf, uint32(len(payload)))
	if _, err := conn.Write(append(lengthBuf, payload...)); err != nil {
		return fmt.Errorf("failed to write to Unix socket: %v", err)
	}

	buf := make([]byte, 4096)
	n, err := conn.Read(buf)
	if err != nil && err != io.EOF {
		return fmt.Errorf("failed to read response from Unix socket: %v", err)
	}
	if n > 0 {
		var response map[string]any
		if err := sonic.Unmarshal(buf[:n], &response); err == nil {
			if errMsg, ok := response["error"].(string); ok && errMsg != "" {
				return fmt.Errorf("notifier returned error: %s", errMsg)
			}
		}
	}
	if notification != nil {
		tool.DefaultLogger.Debugf("[UnixSocket] Notification sent: %s - %s", notification.Type, notification.Title)
	}
	return nil
}
