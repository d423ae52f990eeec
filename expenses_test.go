package main

import (
	"bytes"
	"net/http"
	"strings"
	"testing"
)

// TestGetExpenses tests the GET /api/expenses endpoint
func TestGetExpenses(t *testing.T) {
	resetTestStore()

	t.Run("should return empty list when no expenses exist", func(t *testing.T) {
		resp := makeRequest("GET", "/api/expenses", nil)

		assertStatusCode(t, http.StatusOK, resp.Code)

		var result struct {
			Expenses []Expense `json:"expenses"`
		}
		assertNoError(t, parseJSONResponse(resp, &result))

		if len(result.Expenses) != 0 {
			t.Errorf("Expected empty list, got %d expenses", len(result.Expenses))
		}
	})

	t.Run("should return expenses newest first", func(t *testing.T) {
		first := createTestExpense(t, "Edeka", "groceries", personAna, "10/01/2024", 25.50)
		second := createTestExpense(t, "Shell", "transport", personHusband, "11/01/2024", 60.00)

		resp := makeRequest("GET", "/api/expenses", nil)

		assertStatusCode(t, http.StatusOK, resp.Code)

		var result struct {
			Expenses []Expense `json:"expenses"`
		}
		assertNoError(t, parseJSONResponse(resp, &result))

		if len(result.Expenses) != 2 {
			t.Fatalf("Expected 2 expenses, got %d", len(result.Expenses))
		}
		if result.Expenses[0].ID != second.ID {
			t.Errorf("Expected newest expense first, got id %d", result.Expenses[0].ID)
		}
		if result.Expenses[1].ID != first.ID {
			t.Errorf("Expected oldest expense last, got id %d", result.Expenses[1].ID)
		}
	})

	t.Run("should filter by explicit month", func(t *testing.T) {
		resetTestStore()
		createTestExpense(t, "Edeka", "groceries", personAna, "10/01/2024", 25.50)
		createTestExpense(t, "Shell", "transport", personHusband, "11/02/2024", 60.00)

		resp := makeRequest("GET", "/api/expenses?month=2024-01", nil)
		assertStatusCode(t, http.StatusOK, resp.Code)

		var result struct {
			Expenses []Expense `json:"expenses"`
		}
		assertNoError(t, parseJSONResponse(resp, &result))
		if len(result.Expenses) != 1 || result.Expenses[0].StoreName != "Edeka" {
			t.Errorf("Expected only the January expense, got %+v", result.Expenses)
		}
	})

	t.Run("should filter to the most recent months", func(t *testing.T) {
		resetTestStore()
		createTestExpense(t, "Edeka", "groceries", personAna, "10/01/2024", 25.50)
		createTestExpense(t, "Shell", "transport", personHusband, "11/02/2024", 60.00)
		createTestExpense(t, "Rewe", "groceries", personAna, "05/03/2024", 12.00)

		resp := makeRequest("GET", "/api/expenses?months=2", nil)
		assertStatusCode(t, http.StatusOK, resp.Code)

		var result struct {
			Expenses []Expense `json:"expenses"`
		}
		assertNoError(t, parseJSONResponse(resp, &result))
		if len(result.Expenses) != 2 {
			t.Fatalf("Expected 2 expenses from the 2 newest months, got %d", len(result.Expenses))
		}
		if result.Expenses[0].StoreName != "Rewe" {
			t.Errorf("Expected newest-date expense first, got %q", result.Expenses[0].StoreName)
		}
	})

	t.Run("should reject a malformed months parameter", func(t *testing.T) {
		resp := makeRequest("GET", "/api/expenses?months=lots", nil)
		assertStatusCode(t, http.StatusBadRequest, resp.Code)
	})
}

// TestCreateExpense tests the POST /api/expenses endpoint
func TestCreateExpense(t *testing.T) {
	resetTestStore()

	t.Run("should create a valid expense", func(t *testing.T) {
		body := bytes.NewBufferString(`{
			"amount": 42.999,
			"category": "groceries",
			"person": "ana",
			"storeName": "  Edeka  ",
			"date": "15/03/2024",
			"description": "weekly shop"
		}`)

		resp := makeRequest("POST", "/api/expenses", body)
		assertStatusCode(t, http.StatusCreated, resp.Code)

		var result struct {
			Expense Expense `json:"expense"`
		}
		assertNoError(t, parseJSONResponse(resp, &result))

		if result.Expense.ID == 0 {
			t.Error("Expected a generated expense id")
		}
		if result.Expense.StoreName != "Edeka" {
			t.Errorf("Expected trimmed store name, got %q", result.Expense.StoreName)
		}
		if result.Expense.Amount != 43.0 {
			t.Errorf("Expected amount rounded to 43, got %f", result.Expense.Amount)
		}
	})

	t.Run("should default date to today when omitted", func(t *testing.T) {
		body := bytes.NewBufferString(`{
			"amount": 10,
			"category": "food",
			"person": "husband",
			"storeName": "Cafe"
		}`)

		resp := makeRequest("POST", "/api/expenses", body)
		assertStatusCode(t, http.StatusCreated, resp.Code)

		var result struct {
			Expense Expense `json:"expense"`
		}
		assertNoError(t, parseJSONResponse(resp, &result))

		if result.Expense.Date == "" {
			t.Error("Expected a defaulted date")
		}
		if monthKey(result.Expense.Date) == "" {
			t.Errorf("Expected DD/MM/YYYY date, got %q", result.Expense.Date)
		}
	})

	t.Run("should reject non-positive amount", func(t *testing.T) {
		body := bytes.NewBufferString(`{
			"amount": 0,
			"category": "groceries",
			"person": "ana",
			"storeName": "Edeka"
		}`)

		resp := makeRequest("POST", "/api/expenses", body)
		assertStatusCode(t, http.StatusBadRequest, resp.Code)

		var result map[string]string
		assertNoError(t, parseJSONResponse(resp, &result))
		if !strings.Contains(result["error"], "Amount must be a positive number") {
			t.Errorf("Expected amount violation, got %q", result["error"])
		}
	})

	t.Run("should list every violation at once", func(t *testing.T) {
		body := bytes.NewBufferString(`{
			"amount": -5,
			"category": "snacks",
			"person": "someone",
			"storeName": ""
		}`)

		resp := makeRequest("POST", "/api/expenses", body)
		assertStatusCode(t, http.StatusBadRequest, resp.Code)

		var result map[string]string
		assertNoError(t, parseJSONResponse(resp, &result))

		for _, expected := range []string{
			"Amount must be a positive number less than 1,000,000",
			"Store name must be between 1-100 characters",
			"Invalid category",
			"Invalid person",
		} {
			if !strings.Contains(result["error"], expected) {
				t.Errorf("Expected violation %q in %q", expected, result["error"])
			}
		}
	})
}

// TestDeleteExpense tests the DELETE /api/expenses endpoint
func TestDeleteExpense(t *testing.T) {
	resetTestStore()

	t.Run("should require id parameter", func(t *testing.T) {
		resp := makeRequest("DELETE", "/api/expenses", nil)
		assertStatusCode(t, http.StatusBadRequest, resp.Code)
	})

	t.Run("should reject non-numeric id", func(t *testing.T) {
		resp := makeRequest("DELETE", "/api/expenses?id=abc", nil)
		assertStatusCode(t, http.StatusBadRequest, resp.Code)
	})

	t.Run("should return 404 for missing expense", func(t *testing.T) {
		resp := makeRequest("DELETE", "/api/expenses?id=12345", nil)
		assertStatusCode(t, http.StatusNotFound, resp.Code)
	})

	t.Run("should delete an existing expense", func(t *testing.T) {
		expense := createTestExpense(t, "Edeka", "groceries", personAna, "10/01/2024", 12.00)

		resp := makeRequest("DELETE", "/api/expenses?id="+formatID(expense.ID), nil)
		assertStatusCode(t, http.StatusOK, resp.Code)

		var result map[string]bool
		assertNoError(t, parseJSONResponse(resp, &result))
		if !result["success"] {
			t.Error("Expected success true")
		}

		resp = makeRequest("DELETE", "/api/expenses?id="+formatID(expense.ID), nil)
		assertStatusCode(t, http.StatusNotFound, resp.Code)
	})
}

// TestClearAllExpenses tests the DELETE /api/expenses/all endpoint
func TestClearAllExpenses(t *testing.T) {
	resetTestStore()

	createTestExpense(t, "Edeka", "groceries", personAna, "10/01/2024", 12.00)
	createTestExpense(t, "Shell", "transport", personHusband, "11/01/2024", 50.00)

	resp := makeRequest("DELETE", "/api/expenses/all", nil)
	assertStatusCode(t, http.StatusOK, resp.Code)

	var result struct {
		Success bool `json:"success"`
		Deleted int  `json:"deleted"`
		Failed  int  `json:"failed"`
	}
	assertNoError(t, parseJSONResponse(resp, &result))
	if result.Deleted != 2 || result.Failed != 0 {
		t.Errorf("Expected 2 deleted and 0 failed, got %d/%d", result.Deleted, result.Failed)
	}

	resp = makeRequest("GET", "/api/expenses", nil)
	var list struct {
		Expenses []Expense `json:"expenses"`
	}
	assertNoError(t, parseJSONResponse(resp, &list))
	if len(list.Expenses) != 0 {
		t.Errorf("Expected no expenses after clear, got %d", len(list.Expenses))
	}
}
