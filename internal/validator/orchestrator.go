package validator

import (
	"context"
	"fmt"
	"log"

	"filadb-validator/internal/instrument"
)

// MaxBatchSize caps how many changes one run will accept. A hard
// resource-exhaustion guard: oversized batches are rejected before any
// per-item work happens.
const MaxBatchSize = 500

// Sink is the channel by which a run reports progress and its terminal
// outcome. Supplied by the caller; the orchestrator never reads it
// back. Every run ends in exactly one Complete or Fail call.
type Sink interface {
	ID() string
	PushEvent(eventType string, data any)
	Complete(result any)
	Fail(message string)
}

// AuditSink optionally records terminal results for later inspection.
type AuditSink interface {
	RecordResult(ctx context.Context, runID string, result *ValidationResult) error
}

// Orchestrator drives one validation run: schema-backed data checks,
// path and folder-name integrity, GTIN and store cross-references, and
// image policy, accumulating findings across the whole batch.
type Orchestrator struct {
	schemas *SchemaCache
	stores  *StoreIDCache
	audit   AuditSink
}

func NewOrchestrator(schemas *SchemaCache, stores *StoreIDCache) *Orchestrator {
	return &Orchestrator{schemas: schemas, stores: stores}
}

// SetAudit attaches an optional terminal-result recorder.
func (o *Orchestrator) SetAudit(audit AuditSink) { o.audit = audit }

// identity fields injected by the editor's upstream layers for
// navigation; they are not part of the canonical schemas and are
// stripped before schema validation.
var injectedIdentityFields = []string{"brand_id", "material_id", "filament_id", "variant_id"}

// dataChange is a structurally-valid create/update carrying a payload.
type dataChange struct {
	entityType EntityType
	path       string
	data       map[string]any
}

// progress event payloads name the step being entered.
func progressStep(step string) map[string]any {
	return map[string]any{"step": step}
}

// Run executes one validation run to a terminal event. It never
// panics out: unexpected failures become a generic error event.
func (o *Orchestrator) Run(ctx context.Context, sink Sink, changes []any, images map[string]any) {
	defer func() {
		if r := recover(); r != nil {
			log.Printf("ERROR: validation run %s panicked: %v", sink.ID(), r)
			sink.Fail("internal validation error")
		}
	}()

	ctx, span := instrument.GetInstrumenter(ctx).StartSpan(ctx, "validator", "orchestrator", "validation.run")
	defer span.End()
	span.SetMetadata("run_id", sink.ID())
	span.SetMetadata("changes", len(changes))

	if changes == nil {
		span.SetStatus("error")
		sink.Fail("changes must be an array")
		return
	}
	if len(changes) > MaxBatchSize {
		span.SetStatus("error")
		sink.Fail(fmt.Sprintf("batch too large: %d changes (maximum %d)", len(changes), MaxBatchSize))
		return
	}

	// Schemas are load-bearing for everything downstream; a fetch
	// failure here aborts the run.
	sink.PushEvent("progress", progressStep("fetching-schemas"))
	if err := o.schemas.RefreshAll(ctx); err != nil {
		log.Printf("ERROR: run %s: %v", sink.ID(), err)
		span.SetStatus("error")
		sink.Fail(fmt.Sprintf("failed to fetch schemas: %v", err))
		return
	}

	// The store index is best-effort: without it, store-ID checks are
	// skipped rather than failing the run.
	var knownStores map[string]bool
	if o.stores != nil {
		set, err := o.stores.Get(ctx)
		if err != nil {
			log.Printf("WARN: run %s: store index unavailable, skipping store ID checks: %v", sink.ID(), err)
		} else {
			knownStores = set
		}
	}

	var findings []ValidationError
	var dataChanges []dataChange
	createdStores := map[string]bool{}

	sink.PushEvent("progress", progressStep("validating-paths"))
	for i, raw := range changes {
		inputErr := func(msg string) {
			findings = append(findings, ValidationError{
				Category: CategoryInput,
				Level:    LevelError,
				Message:  fmt.Sprintf("Change %d: %s", i+1, msg),
			})
		}

		change := SanitizeObject(raw)
		if change == nil {
			inputErr("not an object")
			continue
		}
		entity := SanitizeObject(change["entity"])
		if entity == nil {
			inputErr("missing entity")
			continue
		}

		entityType, _ := entity["type"].(string)
		if !KnownEntityType(entityType) {
			inputErr(fmt.Sprintf("unknown entity type %q", entityType))
			continue
		}
		operation, _ := change["operation"].(string)
		if !KnownOperation(operation) {
			inputErr(fmt.Sprintf("unknown operation %q", operation))
			continue
		}

		path, _ := entity["path"].(string)
		if ve := ValidatePath(EntityType(entityType), path); ve != nil {
			findings = append(findings, *ve)
			continue
		}

		if EntityType(entityType) == EntityStore && ChangeOperation(operation) == OpCreate {
			if id, ok := entity["id"].(string); ok && id != "" {
				createdStores[id] = true
			}
			if data := SanitizeObject(change["data"]); data != nil {
				if id, ok := data["id"].(string); ok && id != "" {
					createdStores[id] = true
				}
			}
		}

		if ChangeOperation(operation) == OpDelete {
			continue
		}
		data := SanitizeObject(change["data"])
		if len(data) == 0 {
			continue
		}
		dataChanges = append(dataChanges, dataChange{
			entityType: EntityType(entityType),
			path:       path,
			data:       data,
		})
	}

	sink.PushEvent("progress", progressStep("validating-data"))
	for _, dc := range dataChanges {
		findings = append(findings, o.validateData(ctx, dc, knownStores, createdStores)...)
	}

	if len(images) > 0 {
		sink.PushEvent("progress", progressStep("validating-images"))
		findings = append(findings, ValidateImages(images)...)
	}

	result := BuildResult(findings)
	span.SetMetadata("error_count", result.ErrorCount)
	span.SetMetadata("warning_count", result.WarningCount)
	span.SetStatus("ok")

	if o.audit != nil {
		if err := o.audit.RecordResult(ctx, sink.ID(), result); err != nil {
			log.Printf("WARN: run %s: record result: %v", sink.ID(), err)
		}
	}
	sink.Complete(result)
}

// validateData runs schema, folder-name, sizes and advisory checks for
// one data change.
func (o *Orchestrator) validateData(ctx context.Context, dc dataChange, knownStores, createdStores map[string]bool) []ValidationError {
	var findings []ValidationError

	data := make(map[string]any, len(dc.data))
	for k, v := range dc.data {
		data[k] = v
	}
	for _, field := range injectedIdentityFields {
		delete(data, field)
	}

	// A variant's sizes array is validated on its own against the
	// dedicated sizes schema, under the entity path plus /sizes.
	if dc.entityType == EntityVariant {
		rawSizes, has := data["sizes"]
		delete(data, "sizes")
		if has {
			sizesPath := dc.path + "/sizes"
			sizesSchema, err := o.schemas.Validator(ctx, SchemaSizes)
			if err != nil {
				findings = append(findings, ValidationError{
					Category: CategorySchema,
					Level:    LevelError,
					Message:  fmt.Sprintf("Could not compile sizes schema: %v", err),
					Path:     sizesPath,
				})
			} else {
				findings = append(findings, SchemaFindings(sizesSchema, rawSizes, sizesPath)...)
			}
			if sizes, ok := rawSizes.([]any); ok {
				findings = append(findings, CheckSizes(sizes, sizesPath, knownStores, createdStores)...)
				findings = append(findings, sizeAdvisories(sizes, sizesPath)...)
			}
		}
	}

	schema, err := o.schemas.Validator(ctx, string(dc.entityType))
	if err != nil {
		findings = append(findings, ValidationError{
			Category: CategorySchema,
			Level:    LevelError,
			Message:  fmt.Sprintf("Could not compile %s schema: %v", dc.entityType, err),
			Path:     dc.path,
		})
	} else {
		findings = append(findings, SchemaFindings(schema, data, dc.path)...)
	}

	if ve := ValidateFolderName(dc.entityType, dc.path, data); ve != nil {
		findings = append(findings, *ve)
	}

	findings = append(findings, EvaluateAdvisories(dc.entityType, data, dc.path)...)
	return findings
}

func sizeAdvisories(sizes []any, path string) []ValidationError {
	objs := make([]map[string]any, 0, len(sizes))
	for _, raw := range sizes {
		if obj := SanitizeObject(raw); obj != nil {
			objs = append(objs, obj)
		}
	}
	return EvaluateSizeAdvisories(objs, path)
}
