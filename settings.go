package main

import (
	"log"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
)

// Settings handler functions. The settings table is keyed by type; the only
// type today is the shared account balance record.

type settingsRequest struct {
	SharedAccountBalance *float64 `json:"sharedAccountBalance"`
}

// @Summary Get settings
// @Description Retrieve the shared account settings, or a zero-balance default when none have been saved
// @Tags settings
// @Produce json
// @Success 200 {object} Settings "Current settings"
// @Failure 500 {object} map[string]interface{} "Internal server error"
// @Router /api/settings [get]
func getSettings(c *gin.Context) {
	settings, err := store.GetSettings(c.Request.Context())
	if err != nil {
		log.Printf("Error fetching settings: %v", err)
		statusCode, message := handleStoreError(err)
		c.JSON(statusCode, gin.H{"error": message})
		return
	}

	if settings == nil {
		settings = &Settings{
			Type:                 settingsTypeSharedAccount,
			SharedAccountBalance: 0,
			UpdatedAt:            time.Now().UTC(),
		}
	}
	c.JSON(http.StatusOK, settings)
}

// @Summary Update settings
// @Description Upsert the shared account balance. The balance must be a non-negative number.
// @Tags settings
// @Accept json
// @Produce json
// @Param settings body settingsRequest true "New balance"
// @Success 200 {object} Settings "Saved settings"
// @Failure 400 {object} map[string]interface{} "Invalid balance"
// @Failure 500 {object} map[string]interface{} "Internal server error"
// @Router /api/settings [put]
func updateSettings(c *gin.Context) {
	var request settingsRequest
	if err := c.ShouldBindJSON(&request); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body"})
		return
	}

	if request.SharedAccountBalance == nil || *request.SharedAccountBalance < 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Shared account balance must be a non-negative number"})
		return
	}

	settings := Settings{
		Type:                 settingsTypeSharedAccount,
		SharedAccountBalance: roundAmount(*request.SharedAccountBalance),
		UpdatedAt:            time.Now().UTC(),
	}

	if err := store.UpsertSettings(c.Request.Context(), &settings); err != nil {
		log.Printf("Error saving settings: %v", err)
		statusCode, message := handleStoreError(err)
		c.JSON(statusCode, gin.H{"error": message})
		return
	}

	c.JSON(http.StatusOK, settings)
}
