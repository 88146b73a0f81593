// internal/server/server.go
package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/ThinkInAIXYZ/go-mcp/protocol"
	"github.com/ThinkInAIXYZ/go-mcp/server"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"nutrition-meter/internal/config"
	"nutrition-meter/internal/models"
	"nutrition-meter/internal/storage"
	"nutrition-meter/internal/tracker"
)

const shutdownTimeout = 10 * time.Second

var serverInfo = protocol.Implementation{
	Name:    "nutrition-meter",
	Version: "1.0.0",
}

type TrackerServer struct {
	server     *server.Server
	httpServer *http.Server
	router     *gin.Engine
	storage    *storage.SQLiteStorage
	config     config.Config
	log        *slog.Logger
	tools      map[string]tool

	// mu serialises actions on the session in dispatch order.
	mu        sync.Mutex
	session   *tracker.Session
	sessionID string
}

func NewTrackerServer(cfg config.Config, log *slog.Logger) (*TrackerServer, error) {
	stor, err := storage.NewSQLiteStorage(cfg.JournalDSN)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize storage: %w", err)
	}

	mcpServer, err := server.NewServer(
		nil, // transport is handled by the gin router
		server.WithServerInfo(serverInfo),
	)
	if err != nil {
		stor.Close()
		return nil, fmt.Errorf("failed to create MCP server: %w", err)
	}

	s := newTrackerServer(cfg, stor, log)
	s.server = mcpServer
	return s, nil
}

func newTrackerServer(cfg config.Config, stor *storage.SQLiteStorage, log *slog.Logger) *TrackerServer {
	s := &TrackerServer{
		storage:   stor,
		config:    cfg,
		log:       log,
		session:   tracker.NewSession(),
		sessionID: uuid.NewString(),
	}
	s.registerTools()

	router := gin.New()
	router.Use(gin.Recovery(), corsMiddleware())
	router.POST("/", s.handleToolCall)
	router.OPTIONS("/", func(c *gin.Context) { c.Status(http.StatusNoContent) })
	router.GET("/tools", s.handleListTools)
	router.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"status":     "ok",
			"name":       serverInfo.Name,
			"version":    serverInfo.Version,
			"session_id": s.sessionID,
		})
	})
	s.router = router

	s.httpServer = &http.Server{
		Addr:    cfg.Addr(),
		Handler: router,
	}
	return s
}

func corsMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Writer.Header().Set("Access-Control-Allow-Origin", "*")
		c.Writer.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
		c.Writer.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")
		c.Next()
	}
}

func (s *TrackerServer) handleToolCall(c *gin.Context) {
	var request protocol.CallToolRequest
	if err := c.ShouldBindJSON(&request); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": fmt.Sprintf("Invalid JSON: %v", err)})
		return
	}

	result, err := s.callTool(&request)
	switch {
	case errors.Is(err, errUnknownTool):
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
		return
	case errors.Is(err, errInvalidParams),
		errors.Is(err, tracker.ErrUnknownField),
		errors.Is(err, tracker.ErrInvalidMetric):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	case err != nil:
		s.log.Error("tool call failed", "tool", request.Name, "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, result)
}

func (s *TrackerServer) handleListTools(c *gin.Context) {
	list := make([]gin.H, 0, len(s.tools))
	for _, name := range toolOrder {
		list = append(list, gin.H{"name": name, "description": s.tools[name].description})
	}
	c.JSON(http.StatusOK, gin.H{"tools": list})
}

// callTool runs one action against the session and journals it.
func (s *TrackerServer) callTool(req *protocol.CallToolRequest) (*protocol.CallToolResult, error) {
	t, ok := s.tools[req.Name]
	if !ok {
		return nil, fmt.Errorf("%w: %s", errUnknownTool, req.Name)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	out, err := t.handle(req)
	accepted := err == nil
	if errors.Is(err, tracker.ErrInvalidInput) {
		// rejected input is reported through the view's error flag
		out, err = s.session.View(), nil
	}

	if t.mutates {
		s.journal(req, accepted)
	}
	if err != nil {
		return nil, err
	}

	s.log.Debug("tool call", "tool", req.Name, "accepted", accepted)
	return s.createJSONResponse(out)
}

func (s *TrackerServer) journal(req *protocol.CallToolRequest, accepted bool) {
	args, err := json.Marshal(req.Arguments)
	if err != nil || req.Arguments == nil {
		args = []byte("{}")
	}

	entry := &models.ActionEntry{
		SessionID: s.sessionID,
		Action:    req.Name,
		Arguments: string(args),
		Accepted:  accepted,
	}
	if err := s.storage.RecordAction(entry); err != nil {
		s.log.Warn("failed to journal action", "tool", req.Name, "error", err)
	}
}

func (s *TrackerServer) Start(ctx context.Context) error {
	s.log.Info("starting nutrition meter server", "addr", s.httpServer.Addr, "session_id", s.sessionID)
	if err := s.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return err
	}
	return nil
}

func (s *TrackerServer) Stop() error {
	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	var err error
	if s.httpServer != nil {
		err = s.httpServer.Shutdown(ctx)
	}
	if s.storage != nil {
		if cerr := s.storage.Close(); cerr != nil && err == nil {
			err = cerr
		}
	}
	return err
}

func (s *TrackerServer) createJSONResponse(data interface{}) (*protocol.CallToolResult, error) {
	jsonBytes, err := json.Marshal(data)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal response: %w", err)
	}

	return &protocol.CallToolResult{
		Content: []protocol.Content{
			protocol.TextContent{
				Type: "text",
				Text: string(jsonBytes),
			},
		},
	}, nil
}
