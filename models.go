package main

import (
	"math"
	"strings"
	"sync"
	"time"
	"unicode/utf8"
)

// Expense represents one recorded purchase
type Expense struct {
	ID          int64     `json:"id"`
	Description string    `json:"description"`
	Amount      float64   `json:"amount"`
	Category    string    `json:"category"`
	Person      string    `json:"person"`
	StoreName   string    `json:"storeName"`
	Date        string    `json:"date"` // DD/MM/YYYY
	CreatedAt   time.Time `json:"createdAt"`
}

// ExpenseRequest is the POST /api/expenses body
type ExpenseRequest struct {
	Description string  `json:"description"`
	Amount      float64 `json:"amount"`
	Category    string  `json:"category"`
	Person      string  `json:"person"`
	StoreName   string  `json:"storeName"`
	Date        string  `json:"date"`
}

// ConversionEntry maps a raw/noisy store identifier to a canonical
// display name and category
type ConversionEntry struct {
	ID        int64  `json:"id"`
	IDName    string `json:"id_name"`
	StoreName string `json:"store_name"`
	Category  string `json:"category"`
	Comment   string `json:"comment"`
}

// Settings is the singleton shared-account document
type Settings struct {
	Type                 string    `json:"type"`
	SharedAccountBalance float64   `json:"sharedAccountBalance"`
	UpdatedAt            time.Time `json:"updatedAt"`
}

const settingsTypeSharedAccount = "sharedAccount"

// ReceiptData is the structured result of a receipt scan
type ReceiptData struct {
	StoreName   string  `json:"storeName"`
	TotalAmount float64 `json:"totalAmount"`
}

// ReceiptPrefill is what the expense form is pre-filled with after a scan.
// Amount is a string because it lands in a text input on the client.
type ReceiptPrefill struct {
	StoreName   string `json:"storeName"`
	Amount      string `json:"amount"`
	Category    string `json:"category,omitempty"`
	Description string `json:"description"`
}

// MonthlyTotals holds per-person sums and the grand total for one expense set
type MonthlyTotals struct {
	AnaTotal   float64 `json:"anaTotal"`
	EidoTotal  float64 `json:"eidoTotal"`
	MonthTotal float64 `json:"monthTotal"`
}

// Summary is the dashboard aggregate for a month bucket
type Summary struct {
	Month                string        `json:"month"`
	Totals               MonthlyTotals `json:"totals"`
	ExpenseCount         int           `json:"expenseCount"`
	SharedAccountBalance float64       `json:"sharedAccountBalance"`
	RemainingBalance     float64       `json:"remainingBalance"`
}

const (
	personAna     = "ana"
	personHusband = "husband"

	// Husband is displayed as "Eido" everywhere user-facing
	husbandDisplayName = "Eido"
)

const (
	maxAmount            = 999999
	maxStoreNameLength   = 100
	maxDescriptionLength = 500
	expenseDateLayout    = "02/01/2006"
)

var validCategories = []string{
	"groceries", "food", "bills", "entertainment", "transport",
	"shopping", "utilities", "healthcare", "other",
}

var validPersons = []string{personAna, personHusband}

func isValidCategory(category string) bool {
	for _, c := range validCategories {
		if c == category {
			return true
		}
	}
	return false
}

func isValidPerson(person string) bool {
	for _, p := range validPersons {
		if p == person {
			return true
		}
	}
	return false
}

// validateExpenseRequest collects every violation so the client can show
// them all at once
func validateExpenseRequest(req ExpenseRequest) []string {
	var errors []string

	if req.Amount <= 0 || req.Amount > maxAmount {
		errors = append(errors, "Amount must be a positive number less than 1,000,000")
	}

	// Length limits count characters, not bytes: store names are often
	// Hebrew and would otherwise hit the limit at a third of the length.
	storeName := strings.TrimSpace(req.StoreName)
	if nameLen := utf8.RuneCountInString(storeName); nameLen < 1 || nameLen > maxStoreNameLength {
		errors = append(errors, "Store name must be between 1-100 characters")
	}

	if utf8.RuneCountInString(req.Description) > maxDescriptionLength {
		errors = append(errors, "Description cannot exceed 500 characters")
	}

	if !isValidCategory(req.Category) {
		errors = append(errors, "Invalid category")
	}

	if !isValidPerson(req.Person) {
		errors = append(errors, "Invalid person")
	}

	if req.Date != "" {
		if _, err := time.Parse(expenseDateLayout, req.Date); err != nil {
			errors = append(errors, "Date must be in DD/MM/YYYY format")
		}
	}

	return errors
}

// roundAmount rounds to 2 decimal places, half away from zero, so negative
// balances round the same distance as positive ones
func roundAmount(amount float64) float64 {
	return math.Round(amount*100) / 100
}

// truncateRunes cuts s to at most n characters without splitting a rune
func truncateRunes(s string, n int) string {
	if utf8.RuneCountInString(s) <= n {
		return s
	}
	return string([]rune(s)[:n])
}

// formatExpenseDate renders a time as the stored DD/MM/YYYY literal
func formatExpenseDate(t time.Time) string {
	return t.Format(expenseDateLayout)
}

// displayPerson maps the stored person enum to the display name
func displayPerson(person string) string {
	if person == personHusband {
		return husbandDisplayName
	}
	return person
}

// Expense IDs are creation timestamps in Unix milliseconds. The generator
// forces strict monotonicity so two expenses created in the same millisecond
// still sort by insertion order.
var (
	expenseIDMu   sync.Mutex
	lastExpenseID int64
)

func nextExpenseID() int64 {
	expenseIDMu.Lock()
	defer expenseIDMu.Unlock()

	id := time.Now().UnixMilli()
	if id <= lastExpenseID {
		id = lastExpenseID + 1
	}
	lastExpenseID = id
	return id
}

// monthKey derives the "YYYY-MM" bucket key from a stored DD/MM/YYYY date.
// Returns "" for dates that do not follow the layout.
func monthKey(date string) string {
	parts := strings.Split(date, "/")
	if len(parts) != 3 || parts[1] == "" || parts[2] == "" {
		return ""
	}
	month := parts[1]
	if len(month) == 1 {
		month = "0" + month
	}
	return parts[2] + "-" + month
}
