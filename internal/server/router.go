package server

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/scanpipe/scanpipe/internal/pipeline"
	"github.com/scanpipe/scanpipe/internal/record"
)

// Router exposes the pipeline over HTTP. The decoder delivers payload events
// to POST {basePath}/scan; the remaining endpoints serve the surrounding
// application.
// Endpoints:
//
//	POST {basePath}/scan     body: {"payload": "..."}
//	GET  {basePath}/history  history JSON, newest-first
//	GET  {basePath}/export   flat-text export (text/plain)
//	POST {basePath}/clear
//	GET  {basePath}/status
//
// basePath may be empty or start with '/'; no trailing slash.
type Router struct {
	ctrl     *pipeline.Controller
	basePath string
}

// NewRouter constructs a new Router with configurable basePath.
// Example basePath: "/api" results in /api/scan, /api/history, ...
func NewRouter(ctrl *pipeline.Controller, basePath string) *Router {
	return &Router{ctrl: ctrl, basePath: sanitizeBase(basePath)}
}

// Handler returns an http.Handler powered by gin that can be mounted in any server/mux.
func (r *Router) Handler() http.Handler {
	g := gin.New()
	g.Use(gin.Recovery())
	group := g.Group(r.basePath)
	group.POST("/scan", r.handleScan)
	group.GET("/history", r.handleHistory)
	group.GET("/export", r.handleExport)
	group.POST("/clear", r.handleClear)
	group.GET("/status", r.handleStatus)
	return g
}

// NewServer starts a standalone HTTP server on addr using this router.
// Close the returned server to shut it down.
func NewServer(addr, basePath string, ctrl *pipeline.Controller) (*http.Server, error) {
	r := NewRouter(ctrl, basePath)
	server := &http.Server{
		Addr:              addr,
		Handler:           r.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      15 * time.Second,
		IdleTimeout:       60 * time.Second,
	}
	go func() { _ = server.ListenAndServe() }()
	return server, nil
}

// --- Handlers ---

type errorResp struct {
	Error string `json:"error"`
}

type okResp struct {
	OK bool `json:"ok"`
}

type scanReq struct {
	Payload string `json:"payload"`
}

type scanResp struct {
	Accepted bool        `json:"accepted"`
	Record   interface{} `json:"record,omitempty"`
}

type statusResp struct {
	State   string `json:"state"`
	Records int    `json:"records"`
}

func (r *Router) handleScan(c *gin.Context) {
	var req scanReq
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, errorResp{Error: "invalid JSON: " + err.Error()})
		return
	}
	rec, accepted, err := r.ctrl.OnPayload(c.Request.Context(), req.Payload)
	if err != nil {
		c.JSON(http.StatusInternalServerError, errorResp{Error: err.Error()})
		return
	}
	if !accepted {
		// Drop while busy is not an error, just a no-op.
		c.JSON(http.StatusOK, scanResp{Accepted: false})
		return
	}
	c.JSON(http.StatusOK, scanResp{Accepted: true, Record: rec})
}

func (r *Router) handleHistory(c *gin.Context) {
	h := r.ctrl.History()
	if h == nil {
		h = record.History{}
	}
	c.JSON(http.StatusOK, h)
}

func (r *Router) handleExport(c *gin.Context) {
	c.String(http.StatusOK, r.ctrl.Export())
}

func (r *Router) handleClear(c *gin.Context) {
	if err := r.ctrl.Clear(c.Request.Context()); err != nil {
		c.JSON(http.StatusInternalServerError, errorResp{Error: err.Error()})
		return
	}
	c.JSON(http.StatusOK, okResp{OK: true})
}

func (r *Router) handleStatus(c *gin.Context) {
	h := r.ctrl.History()
	c.JSON(http.StatusOK, statusResp{State: r.ctrl.State().String(), Records: len(h)})
}
