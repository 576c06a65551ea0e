package validator

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

func TestAPIClient_FetchSchema(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/api/v1/schemas/brand_schema.json":
			w.Header().Set("Content-Type", "application/json")
			w.Write([]byte(`{"type": "object", "required": ["id"]}`))
		default:
			w.WriteHeader(404)
		}
	}))
	defer srv.Close()

	client := NewAPIClient(srv.URL, 5*time.Second)

	doc, err := client.FetchSchema(context.Background(), "brand")
	if err != nil {
		t.Fatalf("fetch schema: %v", err)
	}
	obj, ok := doc.(map[string]any)
	if !ok || obj["type"] != "object" {
		t.Fatalf("unexpected schema doc: %v", doc)
	}

	if _, err := client.FetchSchema(context.Background(), "missing"); err == nil {
		t.Fatal("expected error for 404 schema")
	}
}

func TestAPIClient_FetchStoreIndex(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/v1/stores/index.json" {
			w.WriteHeader(404)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"stores": [{"id": "amazon", "name": "Amazon"}, {"id": "prusa"}]}`))
	}))
	defer srv.Close()

	client := NewAPIClient(srv.URL, 5*time.Second)
	ids, err := client.FetchStoreIndex(context.Background())
	if err != nil {
		t.Fatalf("fetch store index: %v", err)
	}
	if len(ids) != 2 || ids[0] != "amazon" || ids[1] != "prusa" {
		t.Fatalf("unexpected ids: %v", ids)
	}
}

func TestAPIClient_FetchStoreIndex_ServerError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(500)
	}))
	defer srv.Close()

	client := NewAPIClient(srv.URL, 5*time.Second)
	if _, err := client.FetchStoreIndex(context.Background()); err == nil {
		t.Fatal("expected error for 500 response")
	}
}
