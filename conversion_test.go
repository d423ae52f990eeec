package main

import (
	"bytes"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMatchConversionEntry(t *testing.T) {
	entries := []ConversionEntry{
		{ID: 1, IDName: "edeka", StoreName: "Edeka", Category: "groceries"},
		{ID: 2, IDName: "edeka city", StoreName: "Edeka City", Category: "groceries"},
		{ID: 3, IDName: "shell", StoreName: "Shell", Category: "transport"},
	}

	t.Run("case-insensitive containment match", func(t *testing.T) {
		match := matchConversionEntry(entries, "SUPER EDEKA 24/7")
		require.NotNil(t, match)
		assert.Equal(t, "Edeka", match.StoreName)
	})

	t.Run("exact match beats longer substring match", func(t *testing.T) {
		match := matchConversionEntry(entries, "Edeka")
		require.NotNil(t, match)
		assert.Equal(t, int64(1), match.ID)
	})

	t.Run("longest id_name wins among substring matches", func(t *testing.T) {
		match := matchConversionEntry(entries, "EDEKA CITY Hbf")
		require.NotNil(t, match)
		assert.Equal(t, int64(2), match.ID)
	})

	t.Run("no match returns nil", func(t *testing.T) {
		assert.Nil(t, matchConversionEntry(entries, "Rewe"))
	})

	t.Run("empty query returns nil", func(t *testing.T) {
		assert.Nil(t, matchConversionEntry(entries, "   "))
	})
}

func TestConversionEndpoints(t *testing.T) {
	resetTestStore()

	t.Run("should reject entry with missing fields", func(t *testing.T) {
		body := bytes.NewBufferString(`{"id_name": "edeka"}`)
		resp := makeRequest("POST", "/api/conversion", body)
		assertStatusCode(t, http.StatusBadRequest, resp.Code)
	})

	t.Run("should reject entry with unknown category", func(t *testing.T) {
		body := bytes.NewBufferString(`{"id_name": "edeka", "store_name": "Edeka", "category": "snacks"}`)
		resp := makeRequest("POST", "/api/conversion", body)
		assertStatusCode(t, http.StatusBadRequest, resp.Code)
	})

	t.Run("should create entry with lowercased id_name", func(t *testing.T) {
		body := bytes.NewBufferString(`{"id_name": "EDEKA", "store_name": "Edeka", "category": "groceries"}`)
		resp := makeRequest("POST", "/api/conversion", body)
		assertStatusCode(t, http.StatusCreated, resp.Code)

		var entry ConversionEntry
		assertNoError(t, parseJSONResponse(resp, &entry))
		assert.Equal(t, "edeka", entry.IDName)
		assert.NotZero(t, entry.ID)
	})

	t.Run("should look up the single best entry by id_name", func(t *testing.T) {
		createTestConversionEntry(t, "shell", "Shell", "transport")

		resp := makeRequest("GET", "/api/conversion?id_name=SHELL%20STATION%2042", nil)
		assertStatusCode(t, http.StatusOK, resp.Code)

		var result struct {
			Entry *ConversionEntry `json:"entry"`
		}
		assertNoError(t, parseJSONResponse(resp, &result))
		require.NotNil(t, result.Entry)
		assert.Equal(t, "Shell", result.Entry.StoreName)
	})

	t.Run("should return a null entry when nothing matches", func(t *testing.T) {
		resp := makeRequest("GET", "/api/conversion?id_name=nonexistent", nil)
		assertStatusCode(t, http.StatusOK, resp.Code)

		var result struct {
			Entry *ConversionEntry `json:"entry"`
		}
		assertNoError(t, parseJSONResponse(resp, &result))
		assert.Nil(t, result.Entry)
	})

	t.Run("should update existing entry", func(t *testing.T) {
		entry := createTestConversionEntry(t, "rewe", "Rewe", "groceries")

		body := bytes.NewBufferString(`{"id_name": "rewe", "store_name": "REWE Markt", "category": "groceries"}`)
		resp := makeRequest("PUT", "/api/conversion?id="+formatID(entry.ID), body)
		assertStatusCode(t, http.StatusOK, resp.Code)

		var updated ConversionEntry
		assertNoError(t, parseJSONResponse(resp, &updated))
		assert.Equal(t, "REWE Markt", updated.StoreName)
	})

	t.Run("should return 404 when updating missing entry", func(t *testing.T) {
		body := bytes.NewBufferString(`{"id_name": "x", "store_name": "X", "category": "other"}`)
		resp := makeRequest("PUT", "/api/conversion?id=99999", body)
		assertStatusCode(t, http.StatusNotFound, resp.Code)
	})

	t.Run("should delete entry and report missing ones", func(t *testing.T) {
		entry := createTestConversionEntry(t, "aldi", "Aldi", "groceries")

		resp := makeRequest("DELETE", "/api/conversion?id="+formatID(entry.ID), nil)
		assertStatusCode(t, http.StatusOK, resp.Code)

		resp = makeRequest("DELETE", "/api/conversion?id="+formatID(entry.ID), nil)
		assertStatusCode(t, http.StatusNotFound, resp.Code)
	})

	t.Run("should reject missing id parameter", func(t *testing.T) {
		resp := makeRequest("DELETE", "/api/conversion", nil)
		assertStatusCode(t, http.StatusBadRequest, resp.Code)
	})
}
