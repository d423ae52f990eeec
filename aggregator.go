package main

import (
	"log"
	"net/http"
	"sort"
	"time"

	"github.com/gin-gonic/gin"
)

// Month-bucketed aggregation over the expense list. Dates are stored as
// DD/MM/YYYY strings; month keys are "YYYY-MM" so lexicographic order is
// chronological order.

// availableMonths returns the distinct month keys present in the expenses,
// newest first. Expenses with unparseable dates are skipped.
func availableMonths(expenses []Expense) []string {
	seen := make(map[string]bool)
	months := make([]string, 0)
	for _, e := range expenses {
		key := monthKey(e.Date)
		if key == "" || seen[key] {
			continue
		}
		seen[key] = true
		months = append(months, key)
	}
	sort.Sort(sort.Reverse(sort.StringSlice(months)))
	return months
}

// filterByMonth keeps only the expenses belonging to the given month key.
func filterByMonth(expenses []Expense, month string) []Expense {
	filtered := make([]Expense, 0)
	for _, e := range expenses {
		if monthKey(e.Date) == month {
			filtered = append(filtered, e)
		}
	}
	return filtered
}

// filterRecentMonths keeps expenses from the n most recent months present in
// the data. n is clamped to the number of available months.
func filterRecentMonths(expenses []Expense, n int) []Expense {
	months := availableMonths(expenses)
	if n > len(months) {
		n = len(months)
	}
	if n <= 0 {
		return []Expense{}
	}

	keep := make(map[string]bool, n)
	for _, m := range months[:n] {
		keep[m] = true
	}

	filtered := make([]Expense, 0)
	for _, e := range expenses {
		if keep[monthKey(e.Date)] {
			filtered = append(filtered, e)
		}
	}
	return filtered
}

// sortExpenses orders newest date first; ties on the same day break by id
// descending so the most recently recorded expense comes first. Unparseable
// dates sort last.
func sortExpenses(expenses []Expense) {
	sort.SliceStable(expenses, func(i, j int) bool {
		di, okI := parseExpenseDate(expenses[i].Date)
		dj, okJ := parseExpenseDate(expenses[j].Date)
		if okI != okJ {
			return okI
		}
		if okI && !di.Equal(dj) {
			return di.After(dj)
		}
		return expenses[i].ID > expenses[j].ID
	})
}

func parseExpenseDate(date string) (time.Time, bool) {
	t, err := time.Parse(expenseDateLayout, date)
	if err != nil {
		return time.Time{}, false
	}
	return t, true
}

// computeTotals sums amounts per person over the given expenses.
func computeTotals(expenses []Expense) MonthlyTotals {
	var totals MonthlyTotals
	for _, e := range expenses {
		switch e.Person {
		case personAna:
			totals.AnaTotal += e.Amount
		case personHusband:
			totals.EidoTotal += e.Amount
		}
		totals.MonthTotal += e.Amount
	}
	totals.AnaTotal = roundAmount(totals.AnaTotal)
	totals.EidoTotal = roundAmount(totals.EidoTotal)
	totals.MonthTotal = roundAmount(totals.MonthTotal)
	return totals
}

// buildSummary assembles the per-month report: totals per person and the
// shared account balance after this month's spending. The remaining balance
// keeps its sign so an overdrawn account shows as negative.
func buildSummary(expenses []Expense, month string, sharedAccountBalance float64) Summary {
	monthExpenses := filterByMonth(expenses, month)
	totals := computeTotals(monthExpenses)
	return Summary{
		Month:                month,
		Totals:               totals,
		ExpenseCount:         len(monthExpenses),
		SharedAccountBalance: roundAmount(sharedAccountBalance),
		RemainingBalance:     roundAmount(sharedAccountBalance - totals.MonthTotal),
	}
}

// Aggregation handler functions

// @Summary Get monthly summary
// @Description Per-month totals for each person plus the remaining shared account balance. Defaults to the most recent month with data.
// @Tags summary
// @Produce json
// @Param month query string false "Month key in YYYY-MM format"
// @Success 200 {object} Summary "Monthly summary"
// @Failure 500 {object} map[string]interface{} "Internal server error"
// @Router /api/summary [get]
func getSummary(c *gin.Context) {
	expenses, err := store.ListExpenses(c.Request.Context())
	if err != nil {
		log.Printf("Error fetching expenses for summary: %v", err)
		statusCode, message := handleStoreError(err)
		c.JSON(statusCode, gin.H{"error": message})
		return
	}

	month := c.Query("month")
	if month == "" {
		if months := availableMonths(expenses); len(months) > 0 {
			month = months[0]
		}
	}

	var balance float64
	if settings, err := store.GetSettings(c.Request.Context()); err != nil {
		log.Printf("Error fetching settings for summary: %v", err)
	} else if settings != nil {
		balance = settings.SharedAccountBalance
	}

	c.JSON(http.StatusOK, buildSummary(expenses, month, balance))
}

// @Summary Get available months
// @Description Distinct months that have expenses, newest first
// @Tags summary
// @Produce json
// @Success 200 {object} map[string]interface{} "Object with months array"
// @Failure 500 {object} map[string]interface{} "Internal server error"
// @Router /api/months [get]
func getMonths(c *gin.Context) {
	expenses, err := store.ListExpenses(c.Request.Context())
	if err != nil {
		log.Printf("Error fetching expenses for months: %v", err)
		statusCode, message := handleStoreError(err)
		c.JSON(statusCode, gin.H{"error": message})
		return
	}

	c.JSON(http.StatusOK, gin.H{"months": availableMonths(expenses)})
}
