package api

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/charmbracelet/log"
	"github.com/gin-gonic/gin"
	"github.com/moyoez/edi-client/api/controllers"
	"github.com/moyoez/edi-client/api/middlewares"
	"github.com/moyoez/edi-client/api/models"
	"github.com/moyoez/edi-client/tool"
)

// Server is the local HTTP API a rendering layer uses to observe and drive the client.
type Server struct {
	port       int
	webOutPath string
	app        *models.App
	engine     *gin.Engine
	server     *http.Server
	mu         sync.RWMutex
}

// NewServer creates the API server. webOutPath, when it names a directory,
// is served as a single-page web UI at /.
func NewServer(port int, webOutPath string, app *models.App) *Server {
	return &Server{
		port:       port,
		webOutPath: webOutPath,
		app:        app,
	}
}

// Engine builds the route table. Exposed for tests.
func (s *Server) Engine() *gin.Engine {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.engine == nil {
		s.engine = s.setupRoutes()
	}
	return s.engine
}

func (s *Server) setupRoutes() *gin.Engine {
	if tool.DefaultLogger.GetLevel() == log.DebugLevel {
		gin.SetMode(gin.DebugMode)
	} else {
		gin.SetMode(gin.ReleaseMode)
	}
	engine := gin.New()
	engine.Use(gin.Logger(), gin.Recovery())
	engine.Use(middlewares.AllowAllCORS())
	engine.MaxMultipartMemory = controllers.MaxUploadBytes

	sessionCtrl := controllers.NewSessionController(s.app)
	dashboardCtrl := controllers.NewDashboardController(s.app)
	livenessCtrl := controllers.NewLivenessController(s.app)
	artifactCtrl := controllers.NewArtifactController(s.app)

	self := engine.Group("/api/self/v1", middlewares.OnlyAllowLocal)
	{
		self.GET("/state", sessionCtrl.HandleState)     // Full dashboard snapshot
		self.GET("/options", sessionCtrl.HandleOptions) // Companies, EDI types, demo accounts
		self.POST("/login", sessionCtrl.HandleLogin)
		self.POST("/logout", sessionCtrl.HandleLogout)
		self.POST("/file", dashboardCtrl.HandleSelectFile) // multipart "file" or {"path"}
		self.PUT("/params", dashboardCtrl.HandleSetParams)
		self.PUT("/dates", dashboardCtrl.HandleSetDates)
		self.POST("/generate", dashboardCtrl.HandleGenerate)
		self.POST("/download", dashboardCtrl.HandleDownload)
		self.POST("/close-modal", dashboardCtrl.HandleCloseModal)
		self.POST("/reset", dashboardCtrl.HandleReset)
		self.GET("/liveness", livenessCtrl.HandleGet)
		self.POST("/liveness/check", livenessCtrl.HandleCheckNow)
		self.GET("/artifacts", artifactCtrl.HandleRecent)
		self.GET("/artifact-qr", artifactCtrl.HandleQRCode) // PNG, ?filename=&size=200x200
		self.GET("/user-logs", artifactCtrl.HandleUserLogs)
		if hub := s.app.Hub(); hub != nil {
			self.GET("/notify-ws", controllers.HandleNotifyWS(s.app, hub))
		}
	}

	if info, err := os.Stat(s.webOutPath); s.webOutPath != "" && err == nil && info.IsDir() {
		root := s.webOutPath
		fileServer := http.FileServer(http.Dir(root))
		engine.NoRoute(gin.WrapF(func(w http.ResponseWriter, r *http.Request) {
			path := strings.TrimPrefix(r.URL.Path, "/")
			// Static assets are served as is; anything else falls back to index.html
			// so client-side routes survive a reload.
			if ext := filepath.Ext(path); ext != "" && ext != ".html" {
				fileServer.ServeHTTP(w, r)
				return
			}
			http.ServeFile(w, r, filepath.Join(root, "index.html"))
		}))
		tool.DefaultLogger.Infof("[Server] Serving web UI from %s", root)
	}

	return engine
}

// Start listens on localhost until Shutdown.
func (s *Server) Start() error {
	engine := s.Engine()

	s.mu.Lock()
	s.server = &http.Server{
		Addr:    fmt.Sprintf("127.0.0.1:%d", s.port),
		Handler: engine,
	}
	srv := s.server
	s.mu.Unlock()

	tool.DefaultLogger.Infof("Starting API server on http://%s", srv.Addr)
	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return err
	}
	return nil
}

// Shutdown stops accepting requests and waits for in-flight ones.
func (s *Server) Shutdown(ctx context.Context) error {
	s.mu.RLock()
	srv := s.server
	s.mu.RUnlock()
	if srv == nil {
		return nil
	}
	return srv.Shutdown(ctx)
}
