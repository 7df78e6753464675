package http

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/GriffinCanCode/localbrowser/internal/domain/location"
	"github.com/GriffinCanCode/localbrowser/internal/domain/state"
	"github.com/GriffinCanCode/localbrowser/internal/shared/types"
	"github.com/GriffinCanCode/localbrowser/internal/shared/utils"
)

// ListState lists the stored panel ids
func (h *Handlers) ListState(c *gin.Context) {
	ctx := c.Request.Context()

	ids, err := h.store.List(ctx)
	if err != nil {
		h.logger.Error("Failed to list state", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"success": false, "error": err.Error()})
		return
	}
	stats, err := h.store.Stats(ctx)
	if err != nil {
		h.logger.Error("Failed to read state stats", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"success": false, "error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"ids":   ids,
		"stats": stats,
	})
}

// GetState returns a panel's stored location
func (h *Handlers) GetState(c *gin.Context) {
	panelID := c.Param("id")

	loc, ok, err := h.store.Fetch(c.Request.Context(), panelID)
	if err != nil {
		h.stateError(c, err)
		return
	}
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{"success": false, "error": "no stored location"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"id":    panelID,
		"entry": state.ToEntry(loc),
		"url":   h.codec.Encode(loc),
	})
}

// PutState stores a panel's location
func (h *Handlers) PutState(c *gin.Context) {
	panelID := c.Param("id")

	var entry types.StateEntry
	if err := c.ShouldBindJSON(&entry); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "error": "invalid state entry"})
		return
	}

	if err := utils.ValidateStateEntry(entry); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "error": err.Error()})
		return
	}

	loc := state.FromEntry(entry)
	if err := h.store.Save(c.Request.Context(), panelID, loc); err != nil {
		h.stateError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"url":     h.codec.Encode(loc),
	})
}

// DeleteState removes a panel's location
func (h *Handlers) DeleteState(c *gin.Context) {
	if err := h.store.Remove(c.Request.Context(), c.Param("id")); err != nil {
		h.stateError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true})
}

func (h *Handlers) stateError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, state.ErrInvalidID), errors.Is(err, state.ErrUnselected), errors.Is(err, location.ErrInvalidPort):
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "error": err.Error()})
	default:
		h.logger.Error("State store operation failed", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"success": false, "error": "state store unavailable"})
	}
}
