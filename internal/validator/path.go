package validator

import (
	"fmt"
	"regexp"
	"strings"
)

// EntityType identifies one of the dataset's hierarchical record types.
type EntityType string

const (
	EntityStore    EntityType = "store"
	EntityBrand    EntityType = "brand"
	EntityMaterial EntityType = "material"
	EntityFilament EntityType = "filament"
	EntityVariant  EntityType = "variant"
)

// ChangeOperation is the proposed mutation kind.
type ChangeOperation string

const (
	OpCreate ChangeOperation = "create"
	OpUpdate ChangeOperation = "update"
	OpDelete ChangeOperation = "delete"
)

// KnownEntityType reports whether t is one of the allowed entity types.
func KnownEntityType(t string) bool {
	switch EntityType(t) {
	case EntityStore, EntityBrand, EntityMaterial, EntityFilament, EntityVariant:
		return true
	}
	return false
}

// KnownOperation reports whether op is one of create/update/delete.
func KnownOperation(op string) bool {
	switch ChangeOperation(op) {
	case OpCreate, OpUpdate, OpDelete:
		return true
	}
	return false
}

// safeSegment blocks traversal and injection: segments must start with
// an alphanumeric and may only use characters that occur in real brand,
// material and color folder names. ".." can never match.
var safeSegment = regexp.MustCompile(`^[A-Za-z0-9][A-Za-z0-9 ._+()'&-]*$`)

// pathShapes maps each entity type to its expected path layout: the
// literal collection segments with "" marking id positions.
var pathShapes = map[EntityType][]string{
	EntityStore:    {"stores", ""},
	EntityBrand:    {"brands", ""},
	EntityMaterial: {"brands", "", "materials", ""},
	EntityFilament: {"brands", "", "materials", "", "filaments", ""},
	EntityVariant:  {"brands", "", "materials", "", "filaments", "", "variants", ""},
}

// idSegmentIndex is the path segment that must equal the entity's own
// id: the trailing id position for each type.
var idSegmentIndex = map[EntityType]int{
	EntityStore:    1,
	EntityBrand:    1,
	EntityMaterial: 3,
	EntityFilament: 5,
	EntityVariant:  7,
}

// ValidatePath checks that path has the segment shape required for the
// entity type and that every segment is safe. Findings are reported
// under the Path category.
func ValidatePath(entityType EntityType, path string) *ValidationError {
	shape, ok := pathShapes[entityType]
	if !ok {
		return &ValidationError{
			Category: CategoryPath,
			Level:    LevelError,
			Message:  fmt.Sprintf("Unknown entity type: %s", entityType),
			Path:     path,
		}
	}

	segments := strings.Split(path, "/")
	if len(segments) != len(shape) {
		return &ValidationError{
			Category: CategoryPath,
			Level:    LevelError,
			Message:  fmt.Sprintf("Invalid path for %s: expected %d segments, got %d", entityType, len(shape), len(segments)),
			Path:     path,
		}
	}

	for i, seg := range segments {
		if !safeSegment.MatchString(seg) {
			return &ValidationError{
				Category: CategoryPath,
				Level:    LevelError,
				Message:  fmt.Sprintf("Invalid path segment at position %d", i),
				Path:     path,
			}
		}
		if shape[i] != "" && seg != shape[i] {
			return &ValidationError{
				Category: CategoryPath,
				Level:    LevelError,
				Message:  fmt.Sprintf("Invalid path for %s: segment %d must be %q", entityType, i, shape[i]),
				Path:     path,
			}
		}
	}
	return nil
}

// ValidateFolderName checks that the id declared inside the entity's
// data matches the id segment of its path. A missing or non-string id
// is left for schema validation to flag; only a present, mismatching
// id is a folder-naming violation.
func ValidateFolderName(entityType EntityType, path string, data map[string]any) *ValidationError {
	idx, ok := idSegmentIndex[entityType]
	if !ok {
		return nil
	}
	segments := strings.Split(path, "/")
	if idx >= len(segments) {
		return nil
	}

	id, ok := data["id"].(string)
	if !ok || id == "" {
		return nil
	}
	if id != segments[idx] {
		return &ValidationError{
			Category: CategoryFolderNames,
			Level:    LevelError,
			Message:  fmt.Sprintf("Folder name %q does not match id %q", segments[idx], id),
			Path:     path,
		}
	}
	return nil
}
