package main

import (
	"encoding/json"
	"math"
	"regexp"
	"strconv"
	"strings"
	"unicode/utf8"
)

// Receipt text extraction.
//
// Vision models wrap their answer in prose, code fences, or emit no JSON at
// all, so parsing runs in two stages: a structured JSON-first path, then an
// ordered regex fallback chain with explicit first-match-wins precedence.
// This function never fails; the worst case is {"Unknown", 0}.

const unknownStoreName = "Unknown"

var codeFencePattern = regexp.MustCompile("```json\n?|```\n?")

// First brace-delimited object in the response. Deliberately non-nesting:
// model answers put the object at the top level.
var jsonObjectPattern = regexp.MustCompile(`\{[^}]*\}`)

// Store-name fallback patterns, most specific first. The first pattern whose
// capture is non-empty wins.
var storeNamePatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?i)\b(?:store|shop|business|merchant)\b\W*[:\-]?\s*([^\n\r,]+)`),
	regexp.MustCompile(`(?i)\b(?:name|business name)\b\W*[:\-]?\s*([^\n\r,]+)`),
	regexp.MustCompile(`(?i)"storeName"\W*[:\-]?\s*"([^"]+)"`),
	regexp.MustCompile(`(?i)\bstore\b\W*([A-Za-z\s]+)`),
}

// Amount fallback patterns: labeled keyword forms first, then generic
// decimals, then currency-prefixed forms. Within the first pattern that
// produces any positive numeric match, the maximum value wins — receipts
// list item prices, subtotals and tax, and the printed total is normally the
// largest figure. Known limitation: a printed value larger than the total
// (tip suggestion, loyalty points) gets picked instead.
var amountPatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?i)\b(?:total|amount|sum|price)\b\W*[:\-]?\s*(\d+(?:\.\d{1,2})?)`),
	regexp.MustCompile(`(?i)"totalAmount"\W*[:\-]?\s*(\d+(?:\.\d{1,2})?)`),
	regexp.MustCompile(`\d+\.\d{2}`),
	regexp.MustCompile(`₪\s*(\d+(?:\.\d{2})?)`),
	regexp.MustCompile(`\$\s*(\d+(?:\.\d{2})?)`),
	regexp.MustCompile(`€\s*(\d+(?:\.\d{2})?)`),
}

var nonNumericChars = regexp.MustCompile(`[^\d.]`)

// extractReceiptData converts a raw model answer into structured receipt data
func extractReceiptData(responseText string) ReceiptData {
	if storeName, totalAmount, ok := extractFromJSON(responseText); ok {
		return normalizeReceiptData(storeName, totalAmount)
	}
	return normalizeReceiptData(
		extractStoreNameFallback(responseText),
		extractAmountFallback(responseText),
	)
}

// extractFromJSON attempts the structured path: strip markdown fences, find
// the first brace-delimited object, and require both keys to be present.
func extractFromJSON(responseText string) (interface{}, interface{}, bool) {
	cleaned := codeFencePattern.ReplaceAllString(strings.TrimSpace(responseText), "")

	jsonCandidate := jsonObjectPattern.FindString(cleaned)
	if jsonCandidate == "" {
		return nil, nil, false
	}

	var parsed map[string]interface{}
	if err := json.Unmarshal([]byte(jsonCandidate), &parsed); err != nil {
		return nil, nil, false
	}

	storeName, hasStore := parsed["storeName"]
	totalAmount, hasAmount := parsed["totalAmount"]
	if !hasStore || !hasAmount {
		return nil, nil, false
	}

	return storeName, totalAmount, true
}

func extractStoreNameFallback(responseText string) string {
	for _, pattern := range storeNamePatterns {
		match := pattern.FindStringSubmatch(responseText)
		if len(match) < 2 {
			continue
		}
		name := strings.TrimSpace(match[1])
		if name == "" {
			continue
		}
		name = strings.NewReplacer(`'`, "", `"`, "").Replace(name)
		return truncateRunes(name, maxStoreNameLength)
	}
	return unknownStoreName
}

func extractAmountFallback(responseText string) float64 {
	for _, pattern := range amountPatterns {
		matches := pattern.FindAllStringSubmatch(responseText, -1)
		if len(matches) == 0 {
			continue
		}

		var numbers []float64
		for _, match := range matches {
			candidate := match[0]
			if len(match) > 1 && match[1] != "" {
				candidate = match[1]
			}
			num, err := strconv.ParseFloat(nonNumericChars.ReplaceAllString(candidate, ""), 64)
			if err != nil || num <= 0 {
				continue
			}
			numbers = append(numbers, num)
		}
		if len(numbers) == 0 {
			continue
		}

		max := numbers[0]
		for _, n := range numbers[1:] {
			if n > max {
				max = n
			}
		}
		return max
	}
	return 0
}

// normalizeReceiptData applies the final validation and cleanup: coerce
// string amounts, clamp out-of-bounds values to 0, and fall back to
// "Unknown" for unusable store names.
func normalizeReceiptData(storeName, totalAmount interface{}) ReceiptData {
	var amount float64
	switch v := totalAmount.(type) {
	case float64:
		amount = v
	case string:
		// ParseFloat accepts "NaN" and "Inf" without error, so the guard
		// below must handle them explicitly.
		parsed, err := strconv.ParseFloat(strings.TrimSpace(v), 64)
		if err == nil {
			amount = parsed
		}
	}
	if math.IsNaN(amount) || math.IsInf(amount, 0) || amount < 0 || amount > maxAmount {
		amount = 0
	}

	name, ok := storeName.(string)
	if !ok || utf8.RuneCountInString(name) > maxStoreNameLength {
		name = unknownStoreName
	}
	name = strings.TrimSpace(name)
	if name == "" {
		name = unknownStoreName
	}

	return ReceiptData{
		StoreName:   name,
		TotalAmount: roundAmount(amount),
	}
}
