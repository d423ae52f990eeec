package main

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestExtractReceiptDataJSON(t *testing.T) {
	t.Run("plain JSON object", func(t *testing.T) {
		data := extractReceiptData(`{"storeName": "Edeka", "totalAmount": 42.50}`)
		assert.Equal(t, "Edeka", data.StoreName)
		assert.Equal(t, 42.50, data.TotalAmount)
	})

	t.Run("JSON wrapped in prose", func(t *testing.T) {
		data := extractReceiptData(`Based on the receipt: {"storeName": "Walmart", "totalAmount": 12.5}`)
		assert.Equal(t, "Walmart", data.StoreName)
		assert.Equal(t, 12.5, data.TotalAmount)
	})

	t.Run("JSON in markdown code fence", func(t *testing.T) {
		data := extractReceiptData("```json\n{\"storeName\": \"Aldi\", \"totalAmount\": 17.80}\n```")
		assert.Equal(t, "Aldi", data.StoreName)
		assert.Equal(t, 17.80, data.TotalAmount)
	})

	t.Run("string amount is coerced", func(t *testing.T) {
		data := extractReceiptData(`{"storeName": "Walmart", "totalAmount": "12.50"}`)
		assert.Equal(t, "Walmart", data.StoreName)
		assert.Equal(t, 12.5, data.TotalAmount)
	})

	t.Run("missing totalAmount key falls back to regex", func(t *testing.T) {
		// The object parses but lacks totalAmount, so the fallback chain
		// runs on the whole text.
		data := extractReceiptData(`{"storeName": "Lidl"} Total: 9.99`)
		assert.Equal(t, 9.99, data.TotalAmount)
	})

	t.Run("malformed JSON falls back to regex", func(t *testing.T) {
		data := extractReceiptData(`{"storeName": "Lidl", "totalAmount": } Store: Lidl, Total: 5.00`)
		assert.Equal(t, "Lidl", data.StoreName)
		assert.Equal(t, 5.00, data.TotalAmount)
	})
}

func TestExtractReceiptDataFallback(t *testing.T) {
	t.Run("labeled store and total lines", func(t *testing.T) {
		data := extractReceiptData("Store: Super Edeka\nTotal: 23.45")
		assert.Equal(t, "Super Edeka", data.StoreName)
		assert.Equal(t, 23.45, data.TotalAmount)
	})

	t.Run("maximum wins within the first matching amount pattern", func(t *testing.T) {
		// No total/amount keyword, so the generic decimal pattern collects
		// every figure and the largest is taken as the total.
		data := extractReceiptData("Subtotal ₪30.00 Mwst ₪5.50 GESAMT ₪45.50")
		assert.Equal(t, 45.50, data.TotalAmount)
	})

	t.Run("currency symbol amounts", func(t *testing.T) {
		data := extractReceiptData("Merchant: Cafe\nBezahlt € 8")
		assert.Equal(t, "Cafe", data.StoreName)
		assert.Equal(t, 8.0, data.TotalAmount)
	})

	t.Run("no usable text defaults to Unknown and zero", func(t *testing.T) {
		data := extractReceiptData("completely unreadable text")
		assert.Equal(t, "Unknown", data.StoreName)
		assert.Equal(t, 0.0, data.TotalAmount)
	})

	t.Run("empty input", func(t *testing.T) {
		data := extractReceiptData("")
		assert.Equal(t, "Unknown", data.StoreName)
		assert.Equal(t, 0.0, data.TotalAmount)
	})
}

func TestNormalizeReceiptData(t *testing.T) {
	t.Run("negative amount clamps to zero", func(t *testing.T) {
		data := normalizeReceiptData("Shop", -5.0)
		assert.Equal(t, 0.0, data.TotalAmount)
	})

	t.Run("amount above limit clamps to zero", func(t *testing.T) {
		data := normalizeReceiptData("Shop", 1000000.0)
		assert.Equal(t, 0.0, data.TotalAmount)
	})

	t.Run("unparseable string amount becomes zero", func(t *testing.T) {
		data := normalizeReceiptData("Shop", "a lot")
		assert.Equal(t, 0.0, data.TotalAmount)
	})

	t.Run("NaN string amount becomes zero", func(t *testing.T) {
		// ParseFloat accepts "NaN" without error and NaN slips through
		// plain < and > comparisons, so it needs its own guard.
		data := extractReceiptData(`{"storeName": "Shop", "totalAmount": "NaN"}`)
		assert.Equal(t, 0.0, data.TotalAmount)
		assert.GreaterOrEqual(t, data.TotalAmount, 0.0)
		assert.LessOrEqual(t, data.TotalAmount, float64(maxAmount))
	})

	t.Run("infinite string amount becomes zero", func(t *testing.T) {
		data := normalizeReceiptData("Shop", "+Inf")
		assert.Equal(t, 0.0, data.TotalAmount)
	})

	t.Run("hebrew store name within the character limit is kept", func(t *testing.T) {
		name := strings.Repeat("א", 100)
		data := normalizeReceiptData(name, 10.0)
		assert.Equal(t, name, data.StoreName)
	})

	t.Run("non-string store name becomes Unknown", func(t *testing.T) {
		data := normalizeReceiptData(42.0, 10.0)
		assert.Equal(t, "Unknown", data.StoreName)
	})

	t.Run("overlong store name becomes Unknown", func(t *testing.T) {
		long := make([]byte, 150)
		for i := range long {
			long[i] = 'x'
		}
		data := normalizeReceiptData(string(long), 10.0)
		assert.Equal(t, "Unknown", data.StoreName)
	})

	t.Run("whitespace-only store name becomes Unknown", func(t *testing.T) {
		data := normalizeReceiptData("   ", 10.0)
		assert.Equal(t, "Unknown", data.StoreName)
	})

	t.Run("amount is rounded to two decimals", func(t *testing.T) {
		data := normalizeReceiptData("Shop", 12.345)
		assert.Equal(t, 12.35, data.TotalAmount)
	})
}
