// In file: internal/server/server.go

// Package server exposes the weather agents over HTTP. It shares the
// orchestrator and variant catalogue with the console front end.
package server

import (
	"context"
	"errors"
	"log"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/dileep-u-k/weather-agents/internal/agent"
	"github.com/dileep-u-k/weather-agents/internal/evaluation"
	"github.com/dileep-u-k/weather-agents/internal/llm"
)

// RequestIDHeader carries the id assigned to every API request.
const RequestIDHeader = "X-Request-ID"

const shutdownTimeout = 10 * time.Second

// ChatRequest asks one agent variant a single question.
type ChatRequest struct {
	Agent string `json:"agent" binding:"required"`
	Query string `json:"query" binding:"required"`
}

// ChatResponse is the answer of one variant.
type ChatResponse struct {
	Agent     string    `json:"agent"`
	Response  string    `json:"response"`
	ToolCalls int       `json:"tool_calls"`
	Usage     llm.Usage `json:"usage"`
	LatencyMS int64     `json:"latency_ms"`
	Error     string    `json:"error,omitempty"`
}

// CompareRequest runs one question through every variant.
type CompareRequest struct {
	Query string `json:"query" binding:"required"`
}

// CompareResponse holds one ChatResponse per variant, in catalogue order.
type CompareResponse struct {
	RequestID string         `json:"request_id"`
	Query     string         `json:"query"`
	Results   []ChatResponse `json:"results"`
}

// AgentInfo describes a variant and the tools it may call.
type AgentInfo struct {
	ID    string   `json:"id"`
	Name  string   `json:"name"`
	Tools []string `json:"tools"`
}

// Handler serves the agent API.
type Handler struct {
	orch     *agent.Orchestrator
	variants *agent.Variants
}

func NewHandler(orch *agent.Orchestrator, variants *agent.Variants) *Handler {
	return &Handler{orch: orch, variants: variants}
}

// HandleChat runs one orchestrator cycle on a fresh conversation.
func (h *Handler) HandleChat(c *gin.Context) {
	var req ChatRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request: " + err.Error()})
		return
	}
	id, err := agent.ParseVariantID(req.Agent)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	variant, ok := h.variants.Get(id)
	if !ok {
		c.JSON(http.StatusBadRequest, gin.H{"error": "unknown agent: " + req.Agent})
		return
	}

	log.Printf("--- New Request (ID: %s, Agent: %s, Query: '%.30s...') ---", c.GetString(RequestIDHeader), variant.ID, req.Query)

	history := append(agent.NewConversation(variant), llm.Message{Role: llm.RoleUser, Content: req.Query})
	out, stats, err := h.orch.Process(c.Request.Context(), variant, history)
	if err != nil {
		c.JSON(http.StatusBadGateway, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, ChatResponse{
		Agent:     string(variant.ID),
		Response:  out[len(out)-1].Content,
		ToolCalls: stats.ToolCalls,
		Usage:     stats.Usage,
		LatencyMS: stats.Latency.Milliseconds(),
	})
}

// HandleCompare runs every variant on the same query. Per-variant failures
// are reported in the result instead of failing the request.
func (h *Handler) HandleCompare(c *gin.Context) {
	var req CompareRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request: " + err.Error()})
		return
	}

	results := evaluation.RunAll(c.Request.Context(), h.orch, h.variants.All(), req.Query)
	resp := CompareResponse{RequestID: c.GetString(RequestIDHeader), Query: req.Query}
	for _, r := range results {
		item := ChatResponse{
			Agent:     string(r.Variant.ID),
			Response:  r.Response,
			ToolCalls: r.Stats.ToolCalls,
			Usage:     r.Stats.Usage,
			LatencyMS: r.Stats.Latency.Milliseconds(),
		}
		if r.Err != nil {
			item.Error = r.Err.Error()
		}
		resp.Results = append(resp.Results, item)
	}
	c.JSON(http.StatusOK, resp)
}

// HandleAgents lists the variants.
func (h *Handler) HandleAgents(c *gin.Context) {
	var agents []AgentInfo
	for _, v := range h.variants.All() {
		agents = append(agents, AgentInfo{ID: string(v.ID), Name: v.Name, Tools: v.Tools.Names()})
	}
	c.JSON(http.StatusOK, gin.H{"agents": agents})
}

// requestID tags each request with an id, reusing one sent by the client.
func requestID() gin.HandlerFunc {
	return func(c *gin.Context) {
		id := c.GetHeader(RequestIDHeader)
		if id == "" {
			id = uuid.NewString()
		}
		c.Set(RequestIDHeader, id)
		c.Header(RequestIDHeader, id)
		c.Next()
	}
}

// NewEngine wires the routes.
func NewEngine(h *Handler) *gin.Engine {
	engine := gin.New()
	engine.Use(gin.Logger(), gin.Recovery(), requestID())

	engine.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	v1 := engine.Group("/api/v1")
	{
		v1.GET("/agents", h.HandleAgents)
		v1.POST("/chat", h.HandleChat)
		v1.POST("/compare", h.HandleCompare)
	}
	return engine
}

// Run serves handler on addr until ctx is cancelled, then shuts down
// gracefully.
func Run(ctx context.Context, addr string, handler http.Handler) error {
	srv := &http.Server{Addr: addr, Handler: handler}

	errCh := make(chan error, 1)
	go func() {
		log.Printf("👂 Weather agents API is listening on http://localhost%s", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	log.Println("🛑 Shutting down server...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}
	log.Println("👋 Server exited gracefully.")
	return nil
}
