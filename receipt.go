package main

import (
	"errors"
	"log"
	"net/http"

	"github.com/gin-gonic/gin"
)

// Receipt scan handler. Wires the vision chain, the text extractor and the
// conversion table into one endpoint.

var vision visionClient

type receiptRequest struct {
	Image string `json:"image"`
}

// @Summary Scan receipt image
// @Description Analyze a base64 receipt image, extract store name and total, and apply the conversion table
// @Tags receipt
// @Accept json
// @Produce json
// @Param receipt body receiptRequest true "Base64 data URL of the receipt image"
// @Success 200 {object} map[string]interface{} "Extracted data, prefill, used model and raw model response"
// @Failure 400 {object} map[string]interface{} "Missing image"
// @Failure 401 {object} map[string]interface{} "Invalid API key"
// @Failure 429 {object} map[string]interface{} "Rate limit exceeded"
// @Failure 503 {object} map[string]interface{} "All vision models failed"
// @Failure 500 {object} map[string]interface{} "Processing error"
// @Router /api/receipt [post]
func processReceipt(c *gin.Context) {
	var request receiptRequest
	if err := c.ShouldBindJSON(&request); err != nil || request.Image == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "No image provided"})
		return
	}

	if vision == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{
			"error": "Receipt scanning is not configured",
			"code":  "ALL_MODELS_FAILED",
		})
		return
	}

	result, err := vision.AnalyzeImage(c.Request.Context(), request.Image)
	if err != nil {
		respondVisionError(c, err)
		return
	}

	data := extractReceiptData(result.Text)
	prefill := applyConversion(c, data)

	c.JSON(http.StatusOK, gin.H{
		"success":     true,
		"data":        data,
		"prefill":     prefill,
		"usedModel":   result.UsedModel,
		"rawResponse": result.Text,
	})
}

// respondVisionError maps chain failures onto the status codes and error
// codes the frontend distinguishes.
func respondVisionError(c *gin.Context, err error) {
	log.Printf("Receipt analysis failed: %v", err)

	var exhausted *allModelsFailedError
	if errors.As(err, &exhausted) {
		switch {
		case errors.Is(exhausted.lastErr, errInvalidAPIKey):
			c.JSON(http.StatusUnauthorized, gin.H{
				"error": "Invalid API key",
				"code":  "INVALID_API_KEY",
			})
			return
		case errors.Is(exhausted.lastErr, errRateLimited):
			c.JSON(http.StatusTooManyRequests, gin.H{
				"error": "Rate limit exceeded. Please try again later.",
				"code":  "RATE_LIMIT_EXCEEDED",
			})
			return
		}
		body := gin.H{
			"error": "All vision models failed to process the receipt",
			"code":  "ALL_MODELS_FAILED",
		}
		if exhausted.lastErr != nil {
			body["lastError"] = exhausted.lastErr.Error()
		}
		c.JSON(http.StatusServiceUnavailable, body)
		return
	}

	switch {
	case errors.Is(err, errRateLimited):
		c.JSON(http.StatusTooManyRequests, gin.H{
			"error": "Rate limit exceeded. Please try again later.",
			"code":  "RATE_LIMIT_EXCEEDED",
		})
	case errors.Is(err, errInvalidAPIKey):
		c.JSON(http.StatusUnauthorized, gin.H{
			"error": "Invalid API key",
			"code":  "INVALID_API_KEY",
		})
	default:
		c.JSON(http.StatusInternalServerError, gin.H{
			"error": "Error processing receipt",
			"code":  "PROCESSING_ERROR",
		})
	}
}
