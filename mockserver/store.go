package mockserver

import (
	"sync"
	"time"

	"github.com/moyoez/edi-client/types"
)

// MaxLogEntries is how many activity entries /user-logs returns.
const MaxLogEntries = 50

// store keeps generated EDI files and per-user activity in memory.
type store struct {
	mu    sync.RWMutex
	files map[string][]byte
	logs  map[string][]types.ActivityLogEntry
}

func newStore() *store {
	return &store{
		files: make(map[string][]byte),
		logs:  make(map[string][]types.ActivityLogEntry),
	}
}

func (s *store) putFile(name string, content []byte) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.files[name] = content
}

func (s *store) file(name string) ([]byte, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	content, ok := s.files[name]
	return content, ok
}

func (s *store) record(user, action string, details map[string]any, at time.Time) {
	if details == nil {
		details = map[string]any{}
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	entries := append(s.logs[user], types.ActivityLogEntry{
		Timestamp: at.Format(time.RFC3339),
		User:      user,
		Action:    action,
		Details:   details,
	})
	if len(entries) > MaxLogEntries {
		entries = entries[len(entries)-MaxLogEntries:]
	}
	s.logs[user] = entries
}

func (s *store) recent(user string) []types.ActivityLogEntry {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]types.ActivityLogEntry{}, s.logs[user]...)
}
