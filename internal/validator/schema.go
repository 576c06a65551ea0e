package validator

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/santhosh-tekuri/jsonschema/v6"
	"github.com/santhosh-tekuri/jsonschema/v6/kind"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

// CacheTTL is how long fetched schemas and the store index stay fresh.
const CacheTTL = 30 * time.Minute

// SchemaNames is the closed set of schemas the dataset publishes.
const (
	SchemaBrand         = "brand"
	SchemaMaterial      = "material"
	SchemaFilament      = "filament"
	SchemaVariant       = "variant"
	SchemaStore         = "store"
	SchemaSizes         = "sizes"
	SchemaMaterialTypes = "material_types"
)

// AllSchemaNames lists every schema refreshed at the start of a run.
var AllSchemaNames = []string{
	SchemaBrand, SchemaMaterial, SchemaFilament, SchemaVariant,
	SchemaStore, SchemaSizes, SchemaMaterialTypes,
}

// schemaRegistryBase is the canonical URI prefix schemas are registered
// under. The material schema's $ref to the shared material_types schema
// resolves as a sibling of this base, independent of the upstream host.
const schemaRegistryBase = "https://schemas.filadb.local/"

type schemaEntry struct {
	doc       any
	fetchedAt time.Time
}

// SchemaCache holds fetched schema documents with a TTL. Refresh is
// idempotent (same name, equivalent document), so concurrent runs may
// race to refresh a key; the worst case is a redundant fetch.
type SchemaCache struct {
	mu      sync.RWMutex
	fetcher Fetcher
	ttl     time.Duration
	now     func() time.Time
	entries map[string]schemaEntry
}

// NewSchemaCache creates a cache backed by the given fetcher. now may
// be nil, defaulting to time.Now; tests inject a fake clock.
func NewSchemaCache(fetcher Fetcher, ttl time.Duration, now func() time.Time) *SchemaCache {
	if now == nil {
		now = time.Now
	}
	if ttl <= 0 {
		ttl = CacheTTL
	}
	return &SchemaCache{
		fetcher: fetcher,
		ttl:     ttl,
		now:     now,
		entries: make(map[string]schemaEntry),
	}
}

// Get returns the schema document for name, refetching when the cached
// entry is missing or stale.
func (c *SchemaCache) Get(ctx context.Context, name string) (any, error) {
	c.mu.RLock()
	entry, ok := c.entries[name]
	c.mu.RUnlock()
	if ok && c.now().Sub(entry.fetchedAt) < c.ttl {
		return entry.doc, nil
	}

	doc, err := c.fetcher.FetchSchema(ctx, name)
	if err != nil {
		return nil, err
	}
	c.mu.Lock()
	c.entries[name] = schemaEntry{doc: doc, fetchedAt: c.now()}
	c.mu.Unlock()
	return doc, nil
}

// RefreshAll fetches every schema concurrently and fails on the first
// error. Schemas are load-bearing for the whole run, so a failure here
// is fatal to the caller.
func (c *SchemaCache) RefreshAll(ctx context.Context) error {
	var wg sync.WaitGroup
	errs := make([]error, len(AllSchemaNames))
	for i, name := range AllSchemaNames {
		wg.Add(1)
		go func(i int, name string) {
			defer wg.Done()
			_, errs[i] = c.Get(ctx, name)
		}(i, name)
	}
	wg.Wait()
	for _, err := range errs {
		if err != nil {
			return err
		}
	}
	return nil
}

// Validator compiles a fresh validator for the named schema. The
// material_types schema is registered alongside so $ref resolution
// inside the material schema succeeds. A fresh compiler per call keeps
// attacker-influenced documents from poisoning shared resolver state.
func (c *SchemaCache) Validator(ctx context.Context, name string) (*jsonschema.Schema, error) {
	doc, err := c.Get(ctx, name)
	if err != nil {
		return nil, err
	}
	typesDoc, err := c.Get(ctx, SchemaMaterialTypes)
	if err != nil {
		return nil, err
	}

	compiler := jsonschema.NewCompiler()
	typesURL := schemaRegistryBase + SchemaMaterialTypes + "_schema.json"
	if err := compiler.AddResource(typesURL, typesDoc); err != nil {
		return nil, fmt.Errorf("register %s schema: %w", SchemaMaterialTypes, err)
	}
	targetURL := schemaRegistryBase + name + "_schema.json"
	if err := compiler.AddResource(targetURL, doc); err != nil {
		return nil, fmt.Errorf("register %s schema: %w", name, err)
	}

	schema, err := compiler.Compile(targetURL)
	if err != nil {
		return nil, fmt.Errorf("compile %s schema: %w", name, err)
	}
	return schema, nil
}

// StoreIDCache holds the set of store IDs known upstream, with the
// same TTL discipline as the schema cache.
type StoreIDCache struct {
	mu        sync.RWMutex
	fetcher   Fetcher
	ttl       time.Duration
	now       func() time.Time
	ids       map[string]bool
	fetchedAt time.Time
}

func NewStoreIDCache(fetcher Fetcher, ttl time.Duration, now func() time.Time) *StoreIDCache {
	if now == nil {
		now = time.Now
	}
	if ttl <= 0 {
		ttl = CacheTTL
	}
	return &StoreIDCache{fetcher: fetcher, ttl: ttl, now: now}
}

// Get returns the known store-ID set, refetching when stale.
func (c *StoreIDCache) Get(ctx context.Context) (map[string]bool, error) {
	c.mu.RLock()
	ids, fetchedAt := c.ids, c.fetchedAt
	c.mu.RUnlock()
	if ids != nil && c.now().Sub(fetchedAt) < c.ttl {
		return ids, nil
	}

	list, err := c.fetcher.FetchStoreIndex(ctx)
	if err != nil {
		return nil, err
	}
	set := make(map[string]bool, len(list))
	for _, id := range list {
		set[id] = true
	}
	c.mu.Lock()
	c.ids = set
	c.fetchedAt = c.now()
	c.mu.Unlock()
	return set, nil
}

// enumListLimit caps how many allowed values an enum violation message
// spells out before falling back to a generic message.
const enumListLimit = 10

var englishPrinter = message.NewPrinter(language.English)

// SchemaFindings validates data against a compiled schema and maps the
// engine's violation tree to flat findings. Each finding's path is the
// entity path plus the JSON-pointer location of the violation.
func SchemaFindings(schema *jsonschema.Schema, data any, entityPath string) []ValidationError {
	err := schema.Validate(data)
	if err == nil {
		return nil
	}
	verr, ok := err.(*jsonschema.ValidationError)
	if !ok {
		return []ValidationError{{
			Category: CategorySchema,
			Level:    LevelError,
			Message:  err.Error(),
			Path:     entityPath,
		}}
	}

	var findings []ValidationError
	collectSchemaLeaves(verr, entityPath, &findings)
	return findings
}

func collectSchemaLeaves(verr *jsonschema.ValidationError, entityPath string, out *[]ValidationError) {
	if len(verr.Causes) > 0 {
		for _, cause := range verr.Causes {
			collectSchemaLeaves(cause, entityPath, out)
		}
		return
	}

	location := "/" + strings.Join(verr.InstanceLocation, "/")
	if location == "/" {
		location = ""
	}

	var msg string
	switch k := verr.ErrorKind.(type) {
	case *kind.AdditionalProperties:
		msg = fmt.Sprintf("Additional property not allowed: %s", strings.Join(k.Properties, ", "))
	case *kind.Required:
		msg = fmt.Sprintf("Missing required property: %s", strings.Join(k.Missing, ", "))
	case *kind.Enum:
		if len(k.Want) <= enumListLimit {
			parts := make([]string, len(k.Want))
			for i, v := range k.Want {
				parts[i] = fmt.Sprintf("%v", v)
			}
			msg = fmt.Sprintf("Value must be one of: %s", strings.Join(parts, ", "))
		} else {
			msg = "Value is not one of the allowed values"
		}
	default:
		msg = verr.ErrorKind.LocalizedString(englishPrinter)
	}

	if location != "" {
		msg = location + ": " + msg
	}
	*out = append(*out, ValidationError{
		Category: CategorySchema,
		Level:    LevelError,
		Message:  msg,
		Path:     entityPath,
	})
}
