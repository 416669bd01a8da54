package notify

import (
	"github.com/moyoez/edi-client/tool"
	"github.com/moyoez/edi-client/types"
)

// Dispatcher fans state changes out to WebSocket observers and, for
// finished submissions and downloads, to the desktop notifier socket.
type Dispatcher struct {
	hub        *Hub
	socketPath string
}

func NewDispatcher(hub *Hub, socketPath string) *Dispatcher {
	return &Dispatcher{hub: hub, socketPath: socketPath}
}

func (d *Dispatcher) Hub() *Hub {
	return d.hub
}

// Publish broadcasts n. Socket delivery runs in the background and only logs failures.
func (d *Dispatcher) Publish(n *types.Notification) {
	if n == nil {
		return
	}
	if d.hub != nil {
		d.hub.Broadcast(n)
	}
	if d.socketPath == "" || !wantsDesktop(n) {
		return
	}
	go func() {
		if err := SendNotification(n, d.socketPath); err != nil {
			tool.DefaultLogger.Debugf("[Notify] Failed to forward %s notification: %v", n.Type, err)
		}
	}()
}

// StatusNotification wraps a status channel message in the broadcast envelope.
func StatusNotification(s types.StatusNotification) *types.Notification {
	title := "Status"
	switch s.Kind {
	case types.StatusSuccess:
		title = "Success"
	case types.StatusError:
		title = "Error"
	case types.StatusLoading:
		title = "Processing"
	}
	return &types.Notification{
		Type:    types.NotifyTypeStatus,
		Title:   title,
		Message: s.Message,
		Data:    map[string]any{"status": s},
	}
}

func wantsDesktop(n *types.Notification) bool {
	if n.Type != types.NotifyTypeStatus {
		return false
	}
	s, ok := n.Data["status"].(types.StatusNotification)
	return ok && (s.Kind == types.StatusSuccess || s.Kind == types.StatusError)
}
