package handlers

import (
	"net/http"
	"strconv"

	"inmobiliaria-api/internal/models"

	"github.com/gin-gonic/gin"
)

// Store is the subset of the database layer the admin endpoints need. Both
// store backends satisfy it.
type Store interface {
	GetStats() (*models.DashboardStats, error)
	GetRecentProperties(limit int) ([]models.Property, error)
}

// AdminHandler handles dashboard-related requests
type AdminHandler struct {
	store Store
}

// NewAdminHandler creates a new admin handler
func NewAdminHandler(store Store) *AdminHandler {
	return &AdminHandler{store: store}
}

// GetStats returns the dashboard counts
func (h *AdminHandler) GetStats(c *gin.Context) {
	stats, err := h.store.GetStats()
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, stats)
}

// GetRecentActivity returns the most recently created properties
func (h *AdminHandler) GetRecentActivity(c *gin.Context) {
	limitStr := c.DefaultQuery("limit", "50")
	limit, err := strconv.Atoi(limitStr)
	if err != nil || limit <= 0 {
		limit = 50
	}

	properties, err := h.store.GetRecentProperties(limit)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"properties": properties,
		"count":      len(properties),
	})
}
