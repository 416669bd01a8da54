package models

import (
	"github.com/moyoez/edi-client/monitor"
	"github.com/moyoez/edi-client/notify"
	"github.com/moyoez/edi-client/session"
	"github.com/moyoez/edi-client/types"
	"github.com/moyoez/edi-client/workflow"
)

// App bundles the client components the local API drives.
type App struct {
	Session    *session.Store
	Workflow   *workflow.Workflow
	Monitor    *monitor.Monitor
	Dispatcher *notify.Dispatcher
}

// Snapshot is the full dashboard state as seen by a rendering layer.
func (a *App) Snapshot() types.DashboardSnapshot {
	snap := a.Workflow.Snapshot()
	snap.Session = a.Session.Current()
	snap.View = snap.Session.View().String()
	if a.Monitor != nil {
		snap.Liveness = a.Monitor.Signal()
	}
	return snap
}

// Hub returns the WebSocket hub, or nil when notifications are not wired.
func (a *App) Hub() *notify.Hub {
	if a.Dispatcher == nil {
		return nil
	}
	return a.Dispatcher.Hub()
}
