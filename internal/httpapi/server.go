// Package httpapi exposes the hub over HTTP: server status, chat dispatch,
// and runtime config upload.
package httpapi

import (
	"io"
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/7divs7/mcp-hub/internal/config"
	"github.com/7divs7/mcp-hub/internal/dispatch"
	"github.com/7divs7/mcp-hub/internal/registry"
	"github.com/7divs7/mcp-hub/internal/schema"
	"github.com/7divs7/mcp-hub/internal/shared/llmutils"
	"github.com/7divs7/mcp-hub/internal/supervisor"
)

// ProviderFactory builds the model capability for one chat request. Injected
// so tests can substitute a fake provider.
type ProviderFactory func(provider, model string) (schema.LLMProvider, error)

// Server carries the handler dependencies.
type Server struct {
	sup         *supervisor.Supervisor
	reg         *registry.Registry
	newProvider ProviderFactory
	timeouts    config.Timeouts
	serversPath string // where uploaded server configs are persisted
}

func New(sup *supervisor.Supervisor, reg *registry.Registry, newProvider ProviderFactory, timeouts config.Timeouts, serversPath string) *Server {
	return &Server{
		sup:         sup,
		reg:         reg,
		newProvider: newProvider,
		timeouts:    timeouts,
		serversPath: serversPath,
	}
}

// Router builds the gin engine with all hub routes.
func (s *Server) Router() *gin.Engine {
	engine := gin.New()
	engine.Use(gin.Recovery())

	engine.GET("/servers", s.handleServers)
	engine.POST("/chat", s.handleChat)
	engine.POST("/upload-config", s.handleUploadConfig)
	engine.GET("/ws/servers", s.handleServersWS)
	return engine
}

// handleServers reports the current server set and per-server status.
func (s *Server) handleServers(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"servers": s.sup.ListActive()})
}

// ChatRequest is the body of POST /chat.
type ChatRequest struct {
	Messages []schema.ChatTurn `json:"messages" binding:"required"`
	Provider string            `json:"provider" binding:"required"`
	Model    string            `json:"model" binding:"required"`
}

// handleChat runs one two-phase dispatch and returns the assistant reply in
// chat-completion shape. Dispatch failures surface as a 500 error body, never
// a crash.
func (s *Server) handleChat(c *gin.Context) {
	var req ChatRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request: " + err.Error()})
		return
	}

	provider, err := s.newProvider(req.Provider, req.Model)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	d := dispatch.New(s.reg, s.sup, provider, s.timeouts)
	result, err := d.Process(c.Request.Context(), req.Messages)
	if err != nil {
		slog.Error("dispatch failed", "provider", req.Provider, "model", req.Model, "err", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	display, _ := llmutils.Normalize(result.Text)
	content := llmutils.StripReasoning(display)

	c.JSON(http.StatusOK, gin.H{
		"choices": []gin.H{
			{"message": gin.H{"role": "assistant", "content": content}},
		},
		"tool_used": result.ToolUsed,
	})
}

// handleUploadConfig accepts raw YAML bytes, persists them, and starts the
// listed servers. The active set grows additively: servers absent from the
// upload are left untouched. The response carries a per-name status map that
// may mix successes and failures.
func (s *Server) handleUploadConfig(c *gin.Context) {
	raw, err := io.ReadAll(c.Request.Body)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	specs, err := config.ParseServers(raw)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	if err := config.SaveServers(s.serversPath, raw); err != nil {
		// The upload still takes effect for this process lifetime.
		slog.Warn("persist uploaded config", "path", s.serversPath, "err", err)
	}

	slog.Info("starting servers from upload", "count", len(specs))
	report := s.sup.StartAll(c.Request.Context(), specs)
	c.JSON(http.StatusOK, gin.H{"servers": report})
}
