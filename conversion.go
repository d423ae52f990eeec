package main

import (
	"log"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
)

// Conversion table: maps raw scanned store names onto canonical store names
// and categories. Matching is case-insensitive substring containment in
// either direction, so "SUPER EDEKA 24/7" matches the entry "edeka".

const (
	autoConvertedNote = "Auto-converted from receipt scan"
	addedFromScanNote = "Added from receipt scan"
)

// matchConversionEntry picks the best entry for a scanned store name.
// Precedence on multiple hits: exact (case-insensitive) match first, then
// the longest id_name, then the lowest id for a stable result.
func matchConversionEntry(entries []ConversionEntry, scannedName string) *ConversionEntry {
	query := strings.ToLower(strings.TrimSpace(scannedName))
	if query == "" {
		return nil
	}

	var best *ConversionEntry
	for i := range entries {
		entry := &entries[i]
		idName := strings.ToLower(strings.TrimSpace(entry.IDName))
		if idName == "" {
			continue
		}
		if idName != query && !strings.Contains(query, idName) && !strings.Contains(idName, query) {
			continue
		}
		if best == nil || betterConversionMatch(entry, best, query) {
			best = entry
		}
	}
	return best
}

func betterConversionMatch(candidate, current *ConversionEntry, query string) bool {
	candidateExact := strings.EqualFold(strings.TrimSpace(candidate.IDName), query)
	currentExact := strings.EqualFold(strings.TrimSpace(current.IDName), query)
	if candidateExact != currentExact {
		return candidateExact
	}
	if len(candidate.IDName) != len(current.IDName) {
		return len(candidate.IDName) > len(current.IDName)
	}
	return candidate.ID < current.ID
}

// applyConversion turns extracted receipt data into the prefill the frontend
// drops into the expense form. Lookup failures degrade to pass-through: a
// scan should never fail because the conversion table was unreachable.
func applyConversion(c *gin.Context, data ReceiptData) ReceiptPrefill {
	prefill := ReceiptPrefill{
		StoreName:   data.StoreName,
		Amount:      strconv.FormatFloat(data.TotalAmount, 'f', -1, 64),
		Description: addedFromScanNote,
	}

	entries, err := store.ListConversionEntries(c.Request.Context())
	if err != nil {
		log.Printf("Error fetching conversion entries, passing scan through: %v", err)
		return prefill
	}

	match := matchConversionEntry(entries, data.StoreName)
	if match == nil {
		return prefill
	}

	prefill.StoreName = match.StoreName
	prefill.Category = match.Category
	prefill.Description = autoConvertedNote
	return prefill
}

// Conversion table handler functions

// @Summary Get conversion entries
// @Description List all conversion entries, or look up the single best match for an id_name query
// @Tags conversion
// @Produce json
// @Param id_name query string false "Store name to match (case-insensitive substring)"
// @Success 200 {object} map[string]interface{} "Entries array, or a single entry (null when nothing matches)"
// @Failure 500 {object} map[string]interface{} "Internal server error"
// @Router /api/conversion [get]
func getConversionEntries(c *gin.Context) {
	entries, err := store.ListConversionEntries(c.Request.Context())
	if err != nil {
		log.Printf("Error fetching conversion entries: %v", err)
		statusCode, message := handleStoreError(err)
		c.JSON(statusCode, gin.H{"error": message})
		return
	}

	// A lookup query resolves to the one best entry, with the same matching
	// and tie-break rules the receipt scan uses.
	if query := c.Query("id_name"); query != "" {
		c.JSON(http.StatusOK, gin.H{"entry": matchConversionEntry(entries, query)})
		return
	}

	if entries == nil {
		entries = []ConversionEntry{}
	}
	c.JSON(http.StatusOK, gin.H{"entries": entries})
}

type conversionRequest struct {
	IDName    string `json:"id_name"`
	StoreName string `json:"store_name"`
	Category  string `json:"category"`
	Comment   string `json:"comment"`
}

func (r *conversionRequest) validate() (string, bool) {
	if strings.TrimSpace(r.IDName) == "" {
		return "id_name is required", false
	}
	if strings.TrimSpace(r.StoreName) == "" {
		return "store_name is required", false
	}
	if strings.TrimSpace(r.Category) == "" {
		return "category is required", false
	}
	if !isValidCategory(r.Category) {
		return "Invalid category", false
	}
	return "", true
}

// @Summary Create conversion entry
// @Description Add a new store name conversion. The id_name is normalized to lowercase.
// @Tags conversion
// @Accept json
// @Produce json
// @Param entry body conversionRequest true "Conversion entry"
// @Success 201 {object} ConversionEntry "Created entry"
// @Failure 400 {object} map[string]interface{} "Missing fields"
// @Failure 500 {object} map[string]interface{} "Internal server error"
// @Router /api/conversion [post]
func createConversionEntry(c *gin.Context) {
	var request conversionRequest
	if err := c.ShouldBindJSON(&request); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body"})
		return
	}
	if message, ok := request.validate(); !ok {
		c.JSON(http.StatusBadRequest, gin.H{"error": message})
		return
	}

	entry := ConversionEntry{
		IDName:    strings.ToLower(strings.TrimSpace(request.IDName)),
		StoreName: strings.TrimSpace(request.StoreName),
		Category:  request.Category,
		Comment:   strings.TrimSpace(request.Comment),
	}

	if err := store.CreateConversionEntry(c.Request.Context(), &entry); err != nil {
		log.Printf("Error creating conversion entry: %v", err)
		statusCode, message := handleStoreError(err)
		c.JSON(statusCode, gin.H{"error": message})
		return
	}

	c.JSON(http.StatusCreated, entry)
}

// @Summary Update conversion entry
// @Description Replace an existing conversion entry by id
// @Tags conversion
// @Accept json
// @Produce json
// @Param id query int true "Entry ID"
// @Param entry body conversionRequest true "New entry values"
// @Success 200 {object} ConversionEntry "Updated entry"
// @Failure 400 {object} map[string]interface{} "Missing or malformed fields"
// @Failure 404 {object} map[string]interface{} "Entry not found"
// @Failure 500 {object} map[string]interface{} "Internal server error"
// @Router /api/conversion [put]
func updateConversionEntry(c *gin.Context) {
	id, ok := conversionIDParam(c)
	if !ok {
		return
	}

	var request conversionRequest
	if err := c.ShouldBindJSON(&request); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body"})
		return
	}
	if message, ok := request.validate(); !ok {
		c.JSON(http.StatusBadRequest, gin.H{"error": message})
		return
	}

	entry := ConversionEntry{
		ID:        id,
		IDName:    strings.ToLower(strings.TrimSpace(request.IDName)),
		StoreName: strings.TrimSpace(request.StoreName),
		Category:  request.Category,
		Comment:   strings.TrimSpace(request.Comment),
	}

	updated, err := store.UpdateConversionEntry(c.Request.Context(), &entry)
	if err != nil {
		log.Printf("Error updating conversion entry %d: %v", id, err)
		statusCode, message := handleStoreError(err)
		c.JSON(statusCode, gin.H{"error": message})
		return
	}
	if !updated {
		c.JSON(http.StatusNotFound, gin.H{"error": "Conversion entry not found"})
		return
	}

	c.JSON(http.StatusOK, entry)
}

// @Summary Delete conversion entry
// @Description Delete a conversion entry by id
// @Tags conversion
// @Produce json
// @Param id query int true "Entry ID"
// @Success 200 {object} map[string]interface{} "Deletion confirmation"
// @Failure 400 {object} map[string]interface{} "Missing or malformed id"
// @Failure 404 {object} map[string]interface{} "Entry not found"
// @Failure 500 {object} map[string]interface{} "Internal server error"
// @Router /api/conversion [delete]
func deleteConversionEntry(c *gin.Context) {
	id, ok := conversionIDParam(c)
	if !ok {
		return
	}

	deleted, err := store.DeleteConversionEntry(c.Request.Context(), id)
	if err != nil {
		log.Printf("Error deleting conversion entry %d: %v", id, err)
		statusCode, message := handleStoreError(err)
		c.JSON(statusCode, gin.H{"error": message})
		return
	}
	if !deleted {
		c.JSON(http.StatusNotFound, gin.H{"error": "Conversion entry not found"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"success": true})
}

func conversionIDParam(c *gin.Context) (int64, bool) {
	idParam := c.Query("id")
	if idParam == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Entry ID is required"})
		return 0, false
	}
	id, err := strconv.ParseInt(idParam, 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid entry ID"})
		return 0, false
	}
	return id, true
}
