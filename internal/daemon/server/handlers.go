package server

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/neustart-io/neustart/internal/daemon/app"
	"github.com/neustart-io/neustart/internal/daemon/registry"
	"github.com/neustart-io/neustart/internal/daemon/supervisor"
	"github.com/neustart-io/neustart/internal/models"
)

type handlers struct {
	sup    *supervisor.Supervisor
	logger *zap.Logger
}

// statusFor maps domain errors to HTTP status codes.
func statusFor(err error) int {
	switch {
	case errors.Is(err, registry.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, registry.ErrConflict), errors.Is(err, app.ErrAlreadyRunning):
		return http.StatusConflict
	case errors.Is(err, registry.ErrInvalidID), errors.Is(err, supervisor.ErrInvalidDefinition):
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}

func (h *handlers) fail(c *gin.Context, err error) {
	status := statusFor(err)
	if status == http.StatusInternalServerError {
		h.logger.Error("Request failed",
			zap.String("path", c.Request.URL.Path),
			zap.Error(err))
	}
	c.JSON(status, gin.H{"error": err.Error()})
}

func (h *handlers) listApps(c *gin.Context) {
	c.JSON(http.StatusOK, models.AppList{Apps: h.sup.Snapshots()})
}

func (h *handlers) getApp(c *gin.Context) {
	snap, err := h.sup.Snapshot(c.Param("id"))
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, snap)
}

func (h *handlers) getDefinition(c *gin.Context) {
	def, err := h.sup.Definition(c.Param("id"))
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, def)
}

func (h *handlers) addApp(c *gin.Context) {
	var req models.AppRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body: " + err.Error()})
		return
	}

	def := req.Apply(h.sup.NewDefinition(req.Executable()))
	snap, err := h.sup.AddApp(c.Request.Context(), def)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusCreated, snap)
}

func (h *handlers) updateApp(c *gin.Context) {
	id := c.Param("id")
	current, err := h.sup.Definition(id)
	if err != nil {
		h.fail(c, err)
		return
	}

	var req models.AppRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body: " + err.Error()})
		return
	}

	snap, err := h.sup.UpdateApp(id, req.Apply(current))
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, snap)
}

func (h *handlers) renameApp(c *gin.Context) {
	var req models.RenameRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body: " + err.Error()})
		return
	}

	snap, err := h.sup.RenameApp(c.Param("id"), req.NewID)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, snap)
}

func (h *handlers) removeApp(c *gin.Context) {
	if err := h.sup.RemoveApp(c.Request.Context(), c.Param("id")); err != nil {
		h.fail(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *handlers) startApp(c *gin.Context) {
	snap, err := h.sup.StartApp(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, snap)
}

func (h *handlers) stopApp(c *gin.Context) {
	snap, err := h.sup.StopApp(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, snap)
}

func (h *handlers) toggleEnabled(c *gin.Context) {
	snap, err := h.sup.ToggleEnabled(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, snap)
}

func (h *handlers) toggleHidden(c *gin.Context) {
	snap, err := h.sup.ToggleHidden(c.Param("id"))
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, snap)
}

func (h *handlers) machine(c *gin.Context) {
	c.JSON(http.StatusOK, h.sup.Machine())
}
