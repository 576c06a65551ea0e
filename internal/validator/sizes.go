package validator

import "fmt"

// CheckSizes runs the checksum and cross-reference rules over a
// variant's sizes array. knownStores is the upstream store-ID set;
// nil means the index could not be fetched and store-ID checks are
// skipped for this run. createdStores holds store IDs being created in
// the same batch, which purchase links may already reference.
// Entries the schema will reject (non-objects) are skipped here.
func CheckSizes(sizes []any, path string, knownStores, createdStores map[string]bool) []ValidationError {
	var findings []ValidationError

	for i, raw := range sizes {
		size := SanitizeObject(raw)
		if size == nil {
			continue
		}

		// The dataset has carried the barcode under both keys over
		// time; validate whichever is present.
		for _, key := range []string{"gtin", "ean"} {
			code, ok := size[key].(string)
			if !ok || code == "" {
				continue
			}
			if !IsValidGTIN(code) {
				findings = append(findings, ValidationError{
					Category: CategoryGTIN,
					Level:    LevelError,
					Message:  fmt.Sprintf("Size %d: invalid %s check digit in %q", i+1, key, code),
					Path:     path,
				})
			}
		}

		if knownStores == nil {
			continue
		}
		links, _ := size["purchase_links"].([]any)
		for j, rawLink := range links {
			link := SanitizeObject(rawLink)
			if link == nil {
				continue
			}
			storeID, ok := link["store_id"].(string)
			if !ok || storeID == "" {
				continue
			}
			if !knownStores[storeID] && !createdStores[storeID] {
				findings = append(findings, ValidationError{
					Category: CategoryStoreIDs,
					Level:    LevelError,
					Message:  fmt.Sprintf("Size %d, purchase link %d: unknown store ID %q", i+1, j+1, storeID),
					Path:     path,
				})
			}
		}
	}
	return findings
}
