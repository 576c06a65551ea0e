package validator

import (
	"context"
	"encoding/json"
	"errors"
	"reflect"
	"strings"
	"testing"

	"filadb-validator/internal/job"
)

func newTestOrchestrator(fetcher *fakeFetcher) *Orchestrator {
	return NewOrchestrator(
		NewSchemaCache(fetcher, 0, nil),
		NewStoreIDCache(fetcher, 0, nil),
	)
}

// runSync runs a batch against a fresh job and returns its terminal
// snapshot and result.
func runSync(t *testing.T, o *Orchestrator, changes []any, images map[string]any) (job.View, *ValidationResult) {
	t.Helper()
	j := job.NewStore(10).Create()
	o.Run(context.Background(), j, changes, images)

	view := j.Snapshot()
	if view.Status == job.StatusRunning {
		t.Fatal("expected run to reach a terminal status")
	}
	result, _ := view.Result.(*ValidationResult)
	return view, result
}

func change(entityType, operation, path string, data map[string]any) map[string]any {
	c := map[string]any{
		"entity": map[string]any{
			"type": entityType,
			"path": path,
		},
		"operation": operation,
	}
	if data != nil {
		c["data"] = data
	}
	return c
}

func TestRun_ValidBrandCreate(t *testing.T) {
	o := newTestOrchestrator(&fakeFetcher{schemas: testSchemas(), storeIDs: []string{"amazon"}})

	view, result := runSync(t, o, []any{
		change("brand", "create", "brands/Prusament", map[string]any{
			"id":      "Prusament",
			"name":    "Prusament",
			"website": "https://prusament.com",
		}),
	}, nil)

	if view.Status != job.StatusComplete {
		t.Fatalf("expected complete, got %s", view.Status)
	}
	if result == nil {
		t.Fatal("expected a result on the terminal event")
	}
	if !result.IsValid || result.ErrorCount != 0 {
		t.Fatalf("expected valid result, got %+v", result)
	}
}

func TestRun_UnknownEntityType(t *testing.T) {
	o := newTestOrchestrator(&fakeFetcher{schemas: testSchemas()})

	view, result := runSync(t, o, []any{
		change("spool", "create", "brands/X", map[string]any{"id": "X"}),
	}, nil)

	if view.Status != job.StatusComplete {
		t.Fatalf("expected run to complete despite bad input, got %s", view.Status)
	}
	if result.ErrorCount != 1 {
		t.Fatalf("expected exactly one error, got %+v", result)
	}
	if result.Errors[0].Category != CategoryInput {
		t.Fatalf("expected Input category, got %s", result.Errors[0].Category)
	}
}

func TestRun_FolderNameMismatch(t *testing.T) {
	o := newTestOrchestrator(&fakeFetcher{schemas: testSchemas()})

	path := "brands/X/materials/PLA/filaments/Basic/variants/Jade White"
	_, result := runSync(t, o, []any{
		change("variant", "update", path, map[string]any{
			"id": "Galaxy Black", "color_name": "Jade White", "color_hex": "#FFFFFF",
		}),
	}, nil)

	folderErrs := 0
	for _, e := range result.Errors {
		if e.Category == CategoryFolderNames {
			folderErrs++
		}
	}
	if folderErrs != 1 {
		t.Fatalf("expected exactly one Folder Names error, got %+v", result.Errors)
	}
}

func TestRun_GTINAndStoreIDs(t *testing.T) {
	o := newTestOrchestrator(&fakeFetcher{schemas: testSchemas(), storeIDs: []string{"amazon"}})

	path := "brands/X/materials/PLA/filaments/Basic/variants/Black"
	_, result := runSync(t, o, []any{
		change("variant", "update", path, map[string]any{
			"id": "Black", "color_name": "Black", "color_hex": "#000000",
			"sizes": []any{
				map[string]any{
					"gtin":           "12345678", // bad check digit
					"article_number": "PRT-001",
					"purchase_links": []any{
						map[string]any{"store_id": "not-a-store"},
					},
				},
			},
		}),
	}, nil)

	var gtin, storeIDs []ValidationError
	for _, e := range result.Errors {
		switch e.Category {
		case CategoryGTIN:
			gtin = append(gtin, e)
		case CategoryStoreIDs:
			storeIDs = append(storeIDs, e)
		}
	}
	if len(gtin) != 1 || !strings.Contains(gtin[0].Message, "Size 1") {
		t.Fatalf("expected one GTIN error referencing size 1, got %v", gtin)
	}
	if gtin[0].Path != path+"/sizes" {
		t.Fatalf("expected /sizes path suffix, got %q", gtin[0].Path)
	}
	if len(storeIDs) != 1 || !strings.Contains(storeIDs[0].Message, "not-a-store") {
		t.Fatalf("expected one Store IDs error, got %v", storeIDs)
	}
}

func TestRun_StoreCreatedInBatchIsKnown(t *testing.T) {
	o := newTestOrchestrator(&fakeFetcher{schemas: testSchemas(), storeIDs: []string{"amazon"}})

	path := "brands/X/materials/PLA/filaments/Basic/variants/Black"
	_, result := runSync(t, o, []any{
		change("store", "create", "stores/newstore", map[string]any{
			"id": "newstore", "name": "New Store",
		}),
		change("variant", "update", path, map[string]any{
			"id": "Black", "color_name": "Black", "color_hex": "#000000",
			"sizes": []any{
				map[string]any{
					"article_number": "A1",
					"purchase_links": []any{map[string]any{"store_id": "newstore"}},
				},
			},
		}),
	}, nil)

	for _, e := range result.Errors {
		if e.Category == CategoryStoreIDs {
			t.Fatalf("expected in-batch store to be known, got %v", e)
		}
	}
}

func TestRun_StoreIndexUnavailableSkipsChecks(t *testing.T) {
	fetcher := &fakeFetcher{schemas: testSchemas(), storeErr: errors.New("index down")}
	o := newTestOrchestrator(fetcher)

	path := "brands/X/materials/PLA/filaments/Basic/variants/Black"
	view, result := runSync(t, o, []any{
		change("variant", "update", path, map[string]any{
			"id": "Black", "color_name": "Black", "color_hex": "#000000",
			"sizes": []any{
				map[string]any{
					"article_number": "A1",
					"purchase_links": []any{map[string]any{"store_id": "whatever"}},
				},
			},
		}),
	}, nil)

	if view.Status != job.StatusComplete {
		t.Fatalf("expected degraded run to complete, got %s", view.Status)
	}
	for _, e := range result.Errors {
		if e.Category == CategoryStoreIDs {
			t.Fatalf("expected store ID checks to be skipped, got %v", e)
		}
	}
}

func TestRun_Images(t *testing.T) {
	o := newTestOrchestrator(&fakeFetcher{schemas: testSchemas()})

	_, result := runSync(t, o, []any{}, map[string]any{
		"logo.png": map[string]any{
			"mime_type": "image/png",
			"data":      pngPayload(400, 300),
		},
		"other.png": map[string]any{
			"mime_type": "image/png",
			"data":      "@@@",
		},
	})

	var notSquare, badBase64 bool
	for _, e := range result.Errors {
		if e.Category != CategoryImages {
			t.Fatalf("expected only Images errors, got %v", e)
		}
		if strings.Contains(e.Message, "not square") {
			notSquare = true
		}
		if strings.Contains(e.Message, "base64") {
			badBase64 = true
		}
	}
	if !notSquare || !badBase64 {
		t.Fatalf("expected not-square and base64 errors, got %+v", result.Errors)
	}
}

func TestRun_OversizedBatchIsFatal(t *testing.T) {
	fetcher := &fakeFetcher{schemas: testSchemas()}
	o := newTestOrchestrator(fetcher)

	changes := make([]any, MaxBatchSize+1)
	for i := range changes {
		changes[i] = change("brand", "create", "brands/X", map[string]any{"id": "X", "name": "X"})
	}

	view, _ := runSync(t, o, changes, nil)
	if view.Status != job.StatusError {
		t.Fatalf("expected error status, got %s", view.Status)
	}
	if schemaCalls, _ := fetcher.calls(); schemaCalls != 0 {
		t.Fatalf("expected no schema fetches for oversized batch, got %d", schemaCalls)
	}
}

func TestRun_NilChangesIsFatal(t *testing.T) {
	view, _ := runSync(t, newTestOrchestrator(&fakeFetcher{schemas: testSchemas()}), nil, nil)
	if view.Status != job.StatusError {
		t.Fatalf("expected error status for non-array changes, got %s", view.Status)
	}
}

func TestRun_SchemaFetchFailureIsFatal(t *testing.T) {
	fetcher := &fakeFetcher{schemaErr: errors.New("upstream 500")}
	view, _ := runSync(t, newTestOrchestrator(fetcher), []any{
		change("brand", "create", "brands/X", map[string]any{"id": "X", "name": "X"}),
	}, nil)
	if view.Status != job.StatusError {
		t.Fatalf("expected schema fetch failure to abort, got %s", view.Status)
	}
	if len(view.Events) == 0 || view.Events[len(view.Events)-1].Type != job.EventError {
		t.Fatalf("expected terminal error event, got %v", view.Events)
	}
}

func TestRun_PathTraversalRejected(t *testing.T) {
	_, result := runSync(t, newTestOrchestrator(&fakeFetcher{schemas: testSchemas()}), []any{
		change("brand", "update", "brands/../secrets", map[string]any{"id": "secrets", "name": "x"}),
	}, nil)
	if result.ErrorCount != 1 || result.Errors[0].Category != CategoryPath {
		t.Fatalf("expected one Path error, got %+v", result)
	}
}

func TestRun_SanitizesPrototypePollution(t *testing.T) {
	// A __proto__ key in data must be stripped, surfacing at most an
	// additional-property schema error never a crash or pollution of
	// the validation itself.
	_, result := runSync(t, newTestOrchestrator(&fakeFetcher{schemas: testSchemas()}), []any{
		change("brand", "create", "brands/X", map[string]any{
			"id": "X", "name": "X", "__proto__": map[string]any{"polluted": true},
		}),
	}, nil)
	if !result.IsValid {
		t.Fatalf("expected sanitized payload to validate, got %+v", result)
	}
}

func TestRun_AdvisoriesAreWarnings(t *testing.T) {
	_, result := runSync(t, newTestOrchestrator(&fakeFetcher{schemas: testSchemas()}), []any{
		change("brand", "create", "brands/X", map[string]any{"id": "X", "name": "X"}),
	}, nil)

	if !result.IsValid {
		t.Fatalf("expected warnings not to block validity, got %+v", result)
	}
	if result.WarningCount == 0 {
		t.Fatal("expected a Data Quality warning for the missing website")
	}
	for _, e := range result.Errors {
		if e.Category == CategoryDataQuality && e.Level != LevelWarning {
			t.Fatalf("advisories must be warnings, got %v", e)
		}
	}
}

func TestRun_Idempotent(t *testing.T) {
	o := newTestOrchestrator(&fakeFetcher{schemas: testSchemas(), storeIDs: []string{"amazon"}})
	batch := []any{
		change("brand", "create", "brands/X", map[string]any{"id": "Y", "name": "X"}),
		change("variant", "update", "brands/X/materials/PLA/filaments/B/variants/C", map[string]any{
			"id": "C", "color_name": "C", "color_hex": "#123456",
			"sizes": []any{map[string]any{"gtin": "12345678", "article_number": "A"}},
		}),
	}

	_, first := runSync(t, o, batch, nil)
	_, second := runSync(t, o, batch, nil)

	a, _ := json.Marshal(first)
	b, _ := json.Marshal(second)
	if !reflect.DeepEqual(a, b) {
		t.Fatalf("expected identical results, got\n%s\n%s", a, b)
	}
}

func TestRun_ProgressEvents(t *testing.T) {
	o := newTestOrchestrator(&fakeFetcher{schemas: testSchemas()})
	view, _ := runSync(t, o, []any{
		change("brand", "create", "brands/X", map[string]any{"id": "X", "name": "X"}),
	}, map[string]any{
		"logo.svg": map[string]any{
			"mime_type": "image/svg+xml",
			"data":      "PHN2Zy8+", // <svg/>
		},
	})

	var steps []string
	for _, ev := range view.Events {
		if ev.Type != job.EventProgress {
			continue
		}
		data := ev.Data.(map[string]any)
		steps = append(steps, data["step"].(string))
	}
	want := []string{"fetching-schemas", "validating-paths", "validating-data", "validating-images"}
	if !reflect.DeepEqual(steps, want) {
		t.Fatalf("expected steps %v, got %v", want, steps)
	}
	if view.Events[len(view.Events)-1].Type != job.EventComplete {
		t.Fatal("expected terminal complete event")
	}
}
