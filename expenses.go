package main

import (
	"log"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
)

// Expense handler functions

// @Summary Get all expenses
// @Description Retrieve all expenses sorted newest first
// @Tags expenses
// @Produce json
// @Success 200 {object} map[string]interface{} "Object with expenses array"
// @Failure 500 {object} map[string]interface{} "Internal server error"
// @Router /api/expenses [get]
func getExpenses(c *gin.Context) {
	expenses, err := store.ListExpenses(c.Request.Context())
	if err != nil {
		log.Printf("Error fetching expenses: %v", err)
		statusCode, message := handleStoreError(err)
		c.JSON(statusCode, gin.H{"error": message})
		return
	}

	// Optional month filtering: an explicit ?month=YYYY-MM, or ?months=N for
	// the N most recent months with data. Filtered views sort by date, the
	// unfiltered list keeps the plain newest-first id order.
	if month := c.Query("month"); month != "" {
		expenses = filterByMonth(expenses, month)
		sortExpenses(expenses)
	} else if monthsParam := c.Query("months"); monthsParam != "" {
		n, err := strconv.Atoi(monthsParam)
		if err != nil || n < 0 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid months parameter"})
			return
		}
		expenses = filterRecentMonths(expenses, n)
		sortExpenses(expenses)
	}

	if expenses == nil {
		expenses = []Expense{}
	}
	c.JSON(http.StatusOK, gin.H{"expenses": expenses})
}

// @Summary Create expense
// @Description Record a new expense. Validation failures list every violated rule.
// @Tags expenses
// @Accept json
// @Produce json
// @Param expense body ExpenseRequest true "Expense data"
// @Success 201 {object} map[string]interface{} "Created expense"
// @Failure 400 {object} map[string]interface{} "Validation errors"
// @Failure 500 {object} map[string]interface{} "Internal server error"
// @Router /api/expenses [post]
func createExpense(c *gin.Context) {
	var request ExpenseRequest
	if err := c.ShouldBindJSON(&request); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body"})
		return
	}

	if violations := validateExpenseRequest(request); len(violations) > 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": strings.Join(violations, "; ")})
		return
	}

	date := strings.TrimSpace(request.Date)
	if date == "" {
		date = formatExpenseDate(time.Now())
	}

	description := truncateRunes(strings.TrimSpace(request.Description), maxDescriptionLength)

	expense := Expense{
		ID:          nextExpenseID(),
		Description: description,
		Amount:      roundAmount(request.Amount),
		Category:    request.Category,
		Person:      request.Person,
		StoreName:   strings.TrimSpace(request.StoreName),
		Date:        date,
		CreatedAt:   time.Now().UTC(),
	}

	if err := store.CreateExpense(c.Request.Context(), &expense); err != nil {
		log.Printf("Error inserting expense: %v", err)
		statusCode, message := handleStoreError(err)
		c.JSON(statusCode, gin.H{"error": message})
		return
	}

	c.JSON(http.StatusCreated, gin.H{"expense": expense})
}

// @Summary Delete expense
// @Description Delete a single expense by its id query parameter
// @Tags expenses
// @Produce json
// @Param id query int true "Expense ID"
// @Success 200 {object} map[string]interface{} "Deletion confirmation"
// @Failure 400 {object} map[string]interface{} "Missing or malformed id"
// @Failure 404 {object} map[string]interface{} "Expense not found"
// @Failure 500 {object} map[string]interface{} "Internal server error"
// @Router /api/expenses [delete]
func deleteExpense(c *gin.Context) {
	idParam := c.Query("id")
	if idParam == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Expense ID is required"})
		return
	}

	id, err := strconv.ParseInt(idParam, 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid expense ID"})
		return
	}

	deleted, err := store.DeleteExpense(c.Request.Context(), id)
	if err != nil {
		log.Printf("Error deleting expense %d: %v", id, err)
		statusCode, message := handleStoreError(err)
		c.JSON(statusCode, gin.H{"error": message})
		return
	}
	if !deleted {
		c.JSON(http.StatusNotFound, gin.H{"error": "Expense not found"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"success": true})
}

// @Summary Delete all expenses
// @Description Clear every expense. Deletions are best-effort per record.
// @Tags expenses
// @Produce json
// @Success 200 {object} map[string]interface{} "Counts of deleted and failed records"
// @Failure 500 {object} map[string]interface{} "Internal server error"
// @Router /api/expenses/all [delete]
func clearAllExpenses(c *gin.Context) {
	expenses, err := store.ListExpenses(c.Request.Context())
	if err != nil {
		log.Printf("Error fetching expenses for clear: %v", err)
		statusCode, message := handleStoreError(err)
		c.JSON(statusCode, gin.H{"error": message})
		return
	}

	deleted := 0
	failed := 0
	for _, expense := range expenses {
		ok, err := store.DeleteExpense(c.Request.Context(), expense.ID)
		if err != nil || !ok {
			if err != nil {
				log.Printf("Error deleting expense %d during clear: %v", expense.ID, err)
			}
			failed++
			continue
		}
		deleted++
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"deleted": deleted,
		"failed":  failed,
	})
}
