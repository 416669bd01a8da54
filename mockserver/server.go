// Package mockserver is an in-memory stand-in for the Excel-to-EDI conversion
// service. It speaks the same HTTP contract as the real backend.
package mockserver

import (
	"fmt"
	"io"
	"net/http"
	"path"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/moyoez/edi-client/tool"
	"github.com/moyoez/edi-client/types"
)

const userKey = "mockserver.user"

type Options struct {
	Secret string
	Users  map[string]DemoUser
	Now    func() time.Time
}

// Server handles /login, /health, /upload-and-process, /download-edi and /user-logs.
type Server struct {
	secret string
	users  map[string]DemoUser
	now    func() time.Time
	store  *store
	engine *gin.Engine
}

func New(opts Options) *Server {
	if opts.Secret == "" {
		opts.Secret = "edi-mockd-secret"
	}
	if opts.Users == nil {
		opts.Users = DefaultUsers
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	s := &Server{
		secret: opts.Secret,
		users:  opts.Users,
		now:    opts.Now,
		store:  newStore(),
	}
	s.engine = s.setupRoutes()
	return s
}

// Handler returns the gin engine for use with http.Server or httptest.
func (s *Server) Handler() http.Handler {
	return s.engine
}

// Run listens on addr until the listener fails.
func (s *Server) Run(addr string) error {
	tool.DefaultLogger.Infof("Starting mock conversion service on %s", addr)
	return s.engine.Run(addr)
}

func (s *Server) setupRoutes() *gin.Engine {
	engine := gin.New()
	engine.Use(gin.Recovery())
	engine.POST("/login", s.handleLogin)
	engine.GET("/health", s.handleHealth)
	authed := engine.Group("/", s.requireBearer)
	{
		authed.POST("/upload-and-process", s.handleUploadAndProcess)
		authed.GET("/download-edi/:filename", s.handleDownload)
		authed.GET("/user-logs", s.handleUserLogs)
	}
	return engine
}

func detail(msg string) gin.H {
	return gin.H{"detail": msg}
}

// missingField mimics the list-shaped validation detail of the real service.
func missingField(name string) gin.H {
	return gin.H{"detail": []gin.H{{
		"loc":  []string{"body", name},
		"msg":  "Field required",
		"type": "missing",
	}}}
}

func (s *Server) requireBearer(c *gin.Context) {
	header := c.GetHeader("Authorization")
	token, ok := strings.CutPrefix(header, "Bearer ")
	if !ok || token == "" {
		c.AbortWithStatusJSON(http.StatusForbidden, detail("Not authenticated"))
		return
	}
	claims, err := validateToken(s.secret, token, s.now())
	if err != nil {
		c.AbortWithStatusJSON(http.StatusUnauthorized, detail(err.Error()))
		return
	}
	if _, known := s.users[claims.Email]; !known {
		c.AbortWithStatusJSON(http.StatusUnauthorized, detail(errInvalidToken.Error()))
		return
	}
	c.Set(userKey, claims.Email)
	c.Next()
}

func (s *Server) handleLogin(c *gin.Context) {
	var request types.Credentials
	if err := c.ShouldBindJSON(&request); err != nil {
		c.JSON(http.StatusUnprocessableEntity, missingField("email"))
		return
	}
	user, ok := s.users[request.Email]
	if !ok || user.Password != request.Password {
		c.JSON(http.StatusUnauthorized, detail("Invalid credentials"))
		return
	}
	token, err := generateToken(s.secret, request.Email, s.now())
	if err != nil {
		tool.DefaultLogger.Errorf("mockserver: sign token: %v", err)
		c.JSON(http.StatusInternalServerError, detail("Failed to issue token"))
		return
	}
	s.store.record(request.Email, "LOGIN", map[string]any{"success": true}, s.now())
	c.JSON(http.StatusOK, types.LoginResponse{Token: token, UserName: user.Name})
}

func (s *Server) handleHealth(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "healthy", "timestamp": s.now().Format(time.RFC3339)})
}

func (s *Server) handleUploadAndProcess(c *gin.Context) {
	user := c.GetString(userKey)
	header, err := c.FormFile("file")
	if err != nil {
		c.JSON(http.StatusUnprocessableEntity, missingField("file"))
		return
	}
	company := types.Company(c.PostForm("make_company"))
	docType := types.DocType(c.PostForm("edi_type"))
	switch {
	case company == "":
		c.JSON(http.StatusUnprocessableEntity, missingField("make_company"))
		return
	case docType == "":
		c.JSON(http.StatusUnprocessableEntity, missingField("edi_type"))
		return
	}
	if !strings.HasSuffix(header.Filename, ".xlsx") && !strings.HasSuffix(header.Filename, ".xls") {
		c.JSON(http.StatusBadRequest, detail("Only Excel files (.xlsx, .xls) are allowed"))
		return
	}
	if !company.Valid() {
		c.JSON(http.StatusUnprocessableEntity, detail("Invalid company"))
		return
	}
	if !docType.Valid() {
		c.JSON(http.StatusUnprocessableEntity, detail("Invalid EDI type"))
		return
	}
	startDate, endDate := c.PostForm("start_date"), c.PostForm("end_date")
	for field, v := range map[string]string{"start_date": startDate, "end_date": endDate} {
		if v == "" {
			continue
		}
		if _, err := time.Parse(types.DateLayout, v); err != nil {
			c.JSON(http.StatusUnprocessableEntity, detail(fmt.Sprintf("Invalid %s: %s", field, v)))
			return
		}
	}

	src, err := header.Open()
	if err != nil {
		c.JSON(http.StatusInternalServerError, detail(err.Error()))
		return
	}
	size, err := io.Copy(io.Discard, src)
	_ = src.Close()
	if err != nil {
		s.store.record(user, "ERROR", map[string]any{"error": err.Error()}, s.now())
		c.JSON(http.StatusInternalServerError, detail(err.Error()))
		return
	}

	now := s.now()
	s.store.record(user, "FILE_UPLOADED", map[string]any{
		"filename":   header.Filename,
		"size":       size,
		"request_id": c.GetHeader("X-Request-ID"),
	}, now)
	s.store.record(user, "PROCESSING_STARTED", map[string]any{
		"make_company": company,
		"edi_type":     docType,
		"start_date":   startDate,
		"end_date":     endDate,
	}, now)

	filename := fmt.Sprintf("%s_%s_%s.edi", company, docType, now.Format("20060102_150405"))
	s.store.putFile(filename, []byte(renderEnvelope(company, docType, size, now)))
	s.store.record(user, "EDI_GENERATED", map[string]any{"edi_filename": filename}, now)

	c.JSON(http.StatusOK, types.ProcessResponse{
		Message:     "EDI file generated successfully",
		EdiFilename: filename,
	})
}

func (s *Server) handleDownload(c *gin.Context) {
	filename := path.Base(c.Param("filename"))
	content, ok := s.store.file(filename)
	if !ok {
		c.JSON(http.StatusNotFound, detail("EDI file not found"))
		return
	}
	s.store.record(c.GetString(userKey), "FILE_DOWNLOADED", map[string]any{"filename": filename}, s.now())
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))
	c.Data(http.StatusOK, "application/octet-stream", content)
}

func (s *Server) handleUserLogs(c *gin.Context) {
	c.JSON(http.StatusOK, types.UserLogsResponse{Logs: s.store.recent(c.GetString(userKey))})
}
