package types

const (
	NotifyTypeSession  = "session"
	NotifyTypeStatus   = "status"
	NotifyTypeWorkflow = "workflow"
	NotifyTypeLiveness = "liveness"
	NotifyTypeAlert    = "alert"
)

// Notification is the envelope pushed to WebSocket observers and the desktop notifier.
type Notification struct {
	Type    string         `json:"type,omitempty"`
	Title   string         `json:"title,omitempty"`
	Message string         `json:"message,omitempty"`
	Data    map[string]any `json:"data,omitempty"`
}
