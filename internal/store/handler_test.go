package store

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http/httptest"
	"testing"

	"github.com/gofiber/fiber/v2"
)

type fakeRunLister struct {
	runs      []map[string]any
	err       error
	lastLimit int
}

func (f *fakeRunLister) RecentRuns(ctx context.Context, limit int) ([]map[string]any, error) {
	f.lastLimit = limit
	return f.runs, f.err
}

func listRuns(t *testing.T, lister RunLister, url string) (int, map[string]any) {
	t.Helper()
	app := fiber.New()
	RegisterRoutes(app, NewAuditHandler(lister))

	resp, err := app.Test(httptest.NewRequest("GET", url, nil), -1)
	if err != nil {
		t.Fatalf("request failed: %v", err)
	}
	defer resp.Body.Close()
	raw, _ := io.ReadAll(resp.Body)
	var decoded map[string]any
	_ = json.Unmarshal(raw, &decoded)
	return resp.StatusCode, decoded
}

func TestAuditHandler_List(t *testing.T) {
	lister := &fakeRunLister{runs: []map[string]any{
		{"id": "val_2", "is_valid": true, "error_count": 0, "warning_count": 1},
		{"id": "val_1", "is_valid": false, "error_count": 2, "warning_count": 0},
	}}

	status, body := listRuns(t, lister, "/api/_audit/runs?limit=2")
	if status != 200 {
		t.Fatalf("expected 200, got %d: %v", status, body)
	}
	if lister.lastLimit != 2 {
		t.Fatalf("expected limit 2 passed through, got %d", lister.lastLimit)
	}
	data := body["data"].([]any)
	if len(data) != 2 {
		t.Fatalf("expected 2 runs, got %v", data)
	}
	first := data[0].(map[string]any)
	if first["id"] != "val_2" {
		t.Fatalf("expected newest run first, got %v", first)
	}
}

func TestAuditHandler_Empty(t *testing.T) {
	status, body := listRuns(t, &fakeRunLister{}, "/api/_audit/runs")
	if status != 200 {
		t.Fatalf("expected 200, got %d", status)
	}
	data, ok := body["data"].([]any)
	if !ok || len(data) != 0 {
		t.Fatalf("expected empty array, got %v", body["data"])
	}
}

func TestAuditHandler_QueryError(t *testing.T) {
	lister := &fakeRunLister{err: errors.New("connection lost")}
	status, _ := listRuns(t, lister, "/api/_audit/runs")
	if status != 500 {
		t.Fatalf("expected 500 on query failure, got %d", status)
	}
}
