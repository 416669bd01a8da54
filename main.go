package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/moyoez/edi-client/api"
	"github.com/moyoez/edi-client/api/models"
	"github.com/moyoez/edi-client/monitor"
	"github.com/moyoez/edi-client/notify"
	"github.com/moyoez/edi-client/session"
	"github.com/moyoez/edi-client/tool"
	"github.com/moyoez/edi-client/transfer"
	"github.com/moyoez/edi-client/types"
	"github.com/moyoez/edi-client/workflow"
)

func main() {
	cfg := tool.SetFlags()

	// initialize logger
	tool.InitLogger()
	tool.SetLogMode(cfg.Log)

	appCfg, err := tool.LoadConfig(cfg.UseConfigPath)
	if err != nil {
		tool.DefaultLogger.Fatalf("%v", err)
	}
	tool.ApplyFlags(&appCfg, cfg)
	if err := tool.ValidateBaseURL(appCfg.BaseURL); err != nil {
		tool.DefaultLogger.Fatalf("%v", err)
	}
	tool.DefaultLogger.Infof("Conversion service: %s", appCfg.BaseURL)

	client := transfer.NewClient(appCfg.BaseURL, tool.NewHTTPClient())
	store := session.NewStore(client, client.BaseURL())
	status := notify.NewChannel(tool.SystemClock)
	dispatcher := notify.NewDispatcher(notify.NewHub(), appCfg.NotifySocket)
	flow := workflow.New(store, client, status, workflow.Options{
		Clock:       tool.SystemClock,
		DownloadDir: appCfg.DownloadFolder,
	})
	liveness := monitor.New(client, monitor.Options{
		Clock: tool.SystemClock,
		Host:  tool.HostFromURL(appCfg.BaseURL),
	})
	app := &models.App{
		Session:    store,
		Workflow:   flow,
		Monitor:    liveness,
		Dispatcher: dispatcher,
	}

	status.OnChange(func(n types.StatusNotification) {
		dispatcher.Publish(notify.StatusNotification(n))
	})
	flow.OnChange(func() {
		dispatcher.Publish(&types.Notification{
			Type: types.NotifyTypeWorkflow,
			Data: map[string]any{"snapshot": app.Snapshot()},
		})
	})
	liveness.OnChange(func(sig types.LivenessSignal) {
		dispatcher.Publish(&types.Notification{
			Type:    types.NotifyTypeLiveness,
			Message: string(sig.State),
			Data:    map[string]any{"liveness": sig},
		})
	})
	// The dashboard exists only while logged in: login starts the monitor,
	// logout stops it and drops every dashboard field.
	store.OnChange(func(sess types.Session) {
		if sess.IsAuthenticated {
			tool.DefaultLogger.Infof("Logged in as %s", sess.UserName)
			liveness.Start()
		} else {
			liveness.Stop()
			flow.Discard()
		}
		dispatcher.Publish(&types.Notification{
			Type:    types.NotifyTypeSession,
			Message: sess.View().String(),
			Data:    map[string]any{"session": sess},
		})
	})

	apiServer := api.NewServer(appCfg.ListenPort, appCfg.WebOutPath, app)
	go func() {
		if err := apiServer.Start(); err != nil {
			tool.DefaultLogger.Fatalf("API server startup failed: %v", err)
		}
	}()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	<-ctx.Done()

	tool.DefaultLogger.Info("Shutting down")
	liveness.Stop()
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := apiServer.Shutdown(shutdownCtx); err != nil {
		tool.DefaultLogger.Errorf("API server shutdown: %v", err)
	}
}
