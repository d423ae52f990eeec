package main

import (
	"fmt"
	"log"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/xuri/excelize/v2"
)

// Excel export: a three-sheet workbook with the raw expense rows, a summary
// sheet and a per-category breakdown.

const (
	sheetExpenses  = "Expenses"
	sheetSummary   = "Summary"
	sheetBreakdown = "Category Breakdown"

	amountHeader = "Amount (₪)"
)

type categoryRollup struct {
	total     float64
	count     int
	anaTotal  float64
	eidoTotal float64
}

// exportWorkbook builds the report for the given expenses. The caller has
// already filtered and sorted them.
func exportWorkbook(expenses []Expense, sharedAccountBalance float64) (*excelize.File, error) {
	f := excelize.NewFile()
	if err := f.SetSheetName("Sheet1", sheetExpenses); err != nil {
		return nil, err
	}

	if err := writeExpensesSheet(f, expenses); err != nil {
		return nil, err
	}
	totals := computeTotals(expenses)
	if err := writeSummarySheet(f, totals, len(expenses), sharedAccountBalance); err != nil {
		return nil, err
	}
	if err := writeBreakdownSheet(f, expenses); err != nil {
		return nil, err
	}
	return f, nil
}

func writeExpensesSheet(f *excelize.File, expenses []Expense) error {
	headers := []string{"Date", "Store Name", "Category", "Person", amountHeader, "Description"}
	for i, h := range headers {
		cell, _ := excelize.CoordinatesToCellName(i+1, 1)
		if err := f.SetCellValue(sheetExpenses, cell, h); err != nil {
			return err
		}
	}

	for row, e := range expenses {
		values := []interface{}{
			e.Date,
			e.StoreName,
			e.Category,
			displayPerson(e.Person),
			e.Amount,
			e.Description,
		}
		for col, v := range values {
			cell, _ := excelize.CoordinatesToCellName(col+1, row+2)
			if err := f.SetCellValue(sheetExpenses, cell, v); err != nil {
				return err
			}
		}
	}

	widths := []float64{12, 20, 15, 10, 12, 30}
	for i, w := range widths {
		col, _ := excelize.ColumnNumberToName(i + 1)
		if err := f.SetColWidth(sheetExpenses, col, col, w); err != nil {
			return err
		}
	}
	return nil
}

func writeSummarySheet(f *excelize.File, totals MonthlyTotals, expenseCount int, sharedAccountBalance float64) error {
	if _, err := f.NewSheet(sheetSummary); err != nil {
		return err
	}

	rows := [][]interface{}{
		{"Category", amountHeader},
		{"Ana Total", totals.AnaTotal},
		{"Eido Total", totals.EidoTotal},
		{"Total Expenses", totals.MonthTotal},
		{"Number of Expenses", expenseCount},
		{"Shared Account Balance", roundAmount(sharedAccountBalance)},
		{"Remaining Balance", roundAmount(sharedAccountBalance - totals.MonthTotal)},
		{"Export Date", time.Now().Format("2006-01-02")},
	}
	for r, row := range rows {
		for col, v := range row {
			cell, _ := excelize.CoordinatesToCellName(col+1, r+1)
			if err := f.SetCellValue(sheetSummary, cell, v); err != nil {
				return err
			}
		}
	}

	if err := f.SetColWidth(sheetSummary, "A", "A", 25); err != nil {
		return err
	}
	return f.SetColWidth(sheetSummary, "B", "B", 15)
}

func writeBreakdownSheet(f *excelize.File, expenses []Expense) error {
	if _, err := f.NewSheet(sheetBreakdown); err != nil {
		return err
	}

	rollups := make(map[string]*categoryRollup)
	for _, e := range expenses {
		r, ok := rollups[e.Category]
		if !ok {
			r = &categoryRollup{}
			rollups[e.Category] = r
		}
		r.total += e.Amount
		r.count++
		switch e.Person {
		case personAna:
			r.anaTotal += e.Amount
		case personHusband:
			r.eidoTotal += e.Amount
		}
	}

	headers := []string{"Category", "Total Amount (₪)", "Number of Expenses", "Ana Amount (₪)", "Eido Amount (₪)"}
	for i, h := range headers {
		cell, _ := excelize.CoordinatesToCellName(i+1, 1)
		if err := f.SetCellValue(sheetBreakdown, cell, h); err != nil {
			return err
		}
	}

	row := 2
	// Keep the predefined category order so reports are comparable.
	for _, category := range validCategories {
		r, ok := rollups[category]
		if !ok {
			continue
		}
		values := []interface{}{
			category,
			roundAmount(r.total),
			r.count,
			roundAmount(r.anaTotal),
			roundAmount(r.eidoTotal),
		}
		for col, v := range values {
			cell, _ := excelize.CoordinatesToCellName(col+1, row)
			if err := f.SetCellValue(sheetBreakdown, cell, v); err != nil {
				return err
			}
		}
		row++
	}

	widths := []float64{15, 15, 18, 15, 15}
	for i, w := range widths {
		col, _ := excelize.ColumnNumberToName(i + 1)
		if err := f.SetColWidth(sheetBreakdown, col, col, w); err != nil {
			return err
		}
	}
	return nil
}

// @Summary Export expenses to Excel
// @Description Download an xlsx report with expense rows, summary and category breakdown. Optionally filtered to one month.
// @Tags export
// @Produce application/vnd.openxmlformats-officedocument.spreadsheetml.sheet
// @Param month query string false "Month key in YYYY-MM format"
// @Success 200 {file} binary "Excel workbook"
// @Failure 500 {object} map[string]interface{} "Internal server error"
// @Router /api/export [get]
func exportExpenses(c *gin.Context) {
	expenses, err := store.ListExpenses(c.Request.Context())
	if err != nil {
		log.Printf("Error fetching expenses for export: %v", err)
		statusCode, message := handleStoreError(err)
		c.JSON(statusCode, gin.H{"error": message})
		return
	}

	if month := c.Query("month"); month != "" {
		expenses = filterByMonth(expenses, month)
	}
	sortExpenses(expenses)

	var balance float64
	if settings, err := store.GetSettings(c.Request.Context()); err != nil {
		log.Printf("Error fetching settings for export: %v", err)
	} else if settings != nil {
		balance = settings.SharedAccountBalance
	}

	f, err := exportWorkbook(expenses, balance)
	if err != nil {
		log.Printf("Error building export workbook: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Error generating export"})
		return
	}

	filename := fmt.Sprintf("expenses-report-%s.xlsx", time.Now().Format("2006-01-02"))
	c.Header("Content-Disposition", fmt.Sprintf(`attachment; filename="%s"`, filename))
	c.Header("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")

	if err := f.Write(c.Writer); err != nil {
		log.Printf("Error writing export workbook: %v", err)
	}
}
