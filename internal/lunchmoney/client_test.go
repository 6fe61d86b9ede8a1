package lunchmoney

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInsertTransactionsSendsFlags(t *testing.T) {
	var captured map[string]any

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodPost, r.Method)
		require.Equal(t, "/transactions", r.URL.Path)
		assert.Equal(t, "Bearer lm-token", r.Header.Get("Authorization"))
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))

		require.NoError(t, json.NewDecoder(r.Body).Decode(&captured))
		fmt.Fprint(w, `{"ids":[1]}`)
	}))
	defer server.Close()

	client := NewClient("lm-token", WithBaseURL(server.URL))

	err := client.InsertTransactions(context.Background(), []Transaction{{
		Payee:      "Coffee shop",
		Amount:     "-25.5",
		Date:       "2024-01-15",
		ExternalID: "txn-456",
		Currency:   "aud",
		Status:     StatusUncleared,
	}})
	require.NoError(t, err)

	assert.Equal(t, true, captured["debit_as_negative"])
	assert.Equal(t, true, captured["apply_rules"])
	assert.Equal(t, true, captured["check_for_recurring"])

	txns, ok := captured["transactions"].([]any)
	require.True(t, ok)
	require.Len(t, txns, 1)

	txn := txns[0].(map[string]any)
	assert.Equal(t, "txn-456", txn["external_id"])
	assert.Equal(t, "-25.5", txn["amount"])
	assert.Equal(t, "uncleared", txn["status"])
	// Unset ids must not appear in the payload at all.
	assert.NotContains(t, txn, "asset_id")
	assert.NotContains(t, txn, "category_id")
}

func TestInsertTransactionsErrorCarriesBody(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnprocessableEntity)
		fmt.Fprint(w, `{"error":"bad transaction"}`)
	}))
	defer server.Close()

	client := NewClient("lm-token", WithBaseURL(server.URL))

	err := client.InsertTransactions(context.Background(), []Transaction{{ExternalID: "txn-x"}})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "422")
	assert.Contains(t, err.Error(), "bad transaction")
}

func TestCreateAsset(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/assets", r.URL.Path)

		var req map[string]any
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, "cash", req["type_name"])
		assert.Equal(t, "Spending", req["name"])

		fmt.Fprint(w, `{"asset_id":42}`)
	}))
	defer server.Close()

	client := NewClient("lm-token", WithBaseURL(server.URL))

	id, err := client.CreateAsset(context.Background(), CreateAssetRequest{
		TypeName: "cash",
		Name:     "Spending",
		Balance:  100.5,
		Currency: "aud",
	})
	require.NoError(t, err)
	assert.Equal(t, 42, id)
}

func TestListAssetsAndCategories(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/assets":
			fmt.Fprint(w, `{"assets":[{"id":1,"name":"Spending","type_name":"cash"}]}`)
		case "/categories":
			fmt.Fprint(w, `{"categories":[{"id":2,"name":"Takeaway","description":"Synced from Up Bank"}]}`)
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	}))
	defer server.Close()

	client := NewClient("lm-token", WithBaseURL(server.URL))

	assets, err := client.ListAssets(context.Background())
	require.NoError(t, err)
	require.Len(t, assets, 1)
	assert.Equal(t, "Spending", assets[0].Name)

	categories, err := client.ListCategories(context.Background())
	require.NoError(t, err)
	require.Len(t, categories, 1)
	assert.Equal(t, 2, categories[0].ID)
}

func TestCreateCategory(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req map[string]any
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, "Takeaway", req["name"])
		fmt.Fprint(w, `{"category_id":7}`)
	}))
	defer server.Close()

	client := NewClient("lm-token", WithBaseURL(server.URL))

	id, err := client.CreateCategory(context.Background(), CreateCategoryRequest{Name: "Takeaway", Description: "Synced from Up Bank"})
	require.NoError(t, err)
	assert.Equal(t, 7, id)
}
