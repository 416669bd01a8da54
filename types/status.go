package types

import "time"

type StatusKind string

const (
	StatusNone    StatusKind = ""
	StatusLoading StatusKind = "loading"
	StatusSuccess StatusKind = "success"
	StatusError   StatusKind = "error"
)

// StatusNotification is the single live message of the status channel.
type StatusNotification struct {
	ID        string     `json:"id,omitempty"`
	Kind      StatusKind `json:"kind"`
	Message   string     `json:"message"`
	CreatedAt time.Time  `json:"createdAt,omitempty"`
}

// Empty reports whether nothing should be shown.
func (n StatusNotification) Empty() bool {
	return n.Kind == StatusNone || n.Message == ""
}

type LivenessState string

const (
	LivenessChecking LivenessState = "checking"
	LivenessUp       LivenessState = "up"
	LivenessDown     LivenessState = "down"
)

// LivenessSignal is replaced wholesale on every probe.
type LivenessSignal struct {
	State     LivenessState `json:"state"`
	CheckedAt time.Time     `json:"checkedAt,omitempty"`
	Detail    string        `json:"detail,omitempty"`
}

// ActivityLogEntry is one line of the per-user activity log kept by the service.
type ActivityLogEntry struct {
	Timestamp string         `json:"timestamp"`
	User      string         `json:"user"`
	Action    string         `json:"action"`
	Details   map[string]any `json:"details"`
}

type UserLogsResponse struct {
	Logs []ActivityLogEntry `json:"logs"`
}
