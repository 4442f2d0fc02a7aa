package server

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/scanpipe/scanpipe/internal/pipeline"
	"github.com/scanpipe/scanpipe/internal/record"
)

// MountEcho registers the pipeline routes on an existing echo instance so the
// pipeline can be embedded in an echo application instead of the standalone
// gin server.
func MountEcho(e *echo.Echo, basePath string, ctrl *pipeline.Controller) {
	g := e.Group(sanitizeBase(basePath))
	g.POST("/scan", func(c echo.Context) error {
		var req scanReq
		if err := c.Bind(&req); err != nil {
			return c.JSON(http.StatusBadRequest, errorResp{Error: "invalid JSON: " + err.Error()})
		}
		rec, accepted, err := ctrl.OnPayload(c.Request().Context(), req.Payload)
		if err != nil {
			return c.JSON(http.StatusInternalServerError, errorResp{Error: err.Error()})
		}
		if !accepted {
			return c.JSON(http.StatusOK, scanResp{Accepted: false})
		}
		return c.JSON(http.StatusOK, scanResp{Accepted: true, Record: rec})
	})
	g.GET("/history", func(c echo.Context) error {
		h := ctrl.History()
		if h == nil {
			h = record.History{}
		}
		return c.JSON(http.StatusOK, h)
	})
	g.GET("/export", func(c echo.Context) error {
		return c.String(http.StatusOK, ctrl.Export())
	})
	g.POST("/clear", func(c echo.Context) error {
		if err := ctrl.Clear(c.Request().Context()); err != nil {
			return c.JSON(http.StatusInternalServerError, errorResp{Error: err.Error()})
		}
		return c.JSON(http.StatusOK, okResp{OK: true})
	})
	g.GET("/status", func(c echo.Context) error {
		return c.JSON(http.StatusOK, statusResp{State: ctrl.State().String(), Records: len(ctrl.History())})
	})
}
