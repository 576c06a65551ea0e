package validator

import "testing"

func TestValidatePath_Shapes(t *testing.T) {
	good := map[EntityType]string{
		EntityStore:    "stores/amazon",
		EntityBrand:    "brands/Bambu Lab",
		EntityMaterial: "brands/Bambu Lab/materials/PLA",
		EntityFilament: "brands/Bambu Lab/materials/PLA/filaments/PLA Basic",
		EntityVariant:  "brands/Bambu Lab/materials/PLA/filaments/PLA Basic/variants/Jade White",
	}
	for typ, path := range good {
		if ve := ValidatePath(typ, path); ve != nil {
			t.Fatalf("expected %s path %q to pass, got %v", typ, path, ve)
		}
	}
}

func TestValidatePath_WrongSegmentCount(t *testing.T) {
	ve := ValidatePath(EntityBrand, "brands/Prusament/materials/PLA")
	if ve == nil {
		t.Fatal("expected error for brand path with 4 segments")
	}
	if ve.Category != CategoryPath {
		t.Fatalf("expected Path category, got %s", ve.Category)
	}

	if ve := ValidatePath(EntityVariant, "brands/Prusament"); ve == nil {
		t.Fatal("expected error for variant path with 2 segments")
	}
}

func TestValidatePath_WrongLiteralSegment(t *testing.T) {
	if ve := ValidatePath(EntityBrand, "stores/Prusament"); ve == nil {
		t.Fatal("expected error for brand path under stores/")
	}
	if ve := ValidatePath(EntityMaterial, "brands/Prusament/filaments/PLA"); ve == nil {
		t.Fatal("expected error for material path without materials/ segment")
	}
}

func TestValidatePath_Traversal(t *testing.T) {
	bad := []string{
		"brands/..",
		"brands/../../etc",
		"brands/.hidden",
		"brands/a;rm -rf",
		"brands/",
		"brands/foo\\bar",
	}
	for _, path := range bad {
		if ve := ValidatePath(EntityBrand, path); ve == nil {
			t.Fatalf("expected traversal path %q to fail", path)
		}
	}
}

func TestValidateFolderName(t *testing.T) {
	path := "brands/Prusament/materials/PLA"
	if ve := ValidateFolderName(EntityMaterial, path, map[string]any{"id": "PLA"}); ve != nil {
		t.Fatalf("expected match to pass, got %v", ve)
	}

	ve := ValidateFolderName(EntityMaterial, path, map[string]any{"id": "PETG"})
	if ve == nil {
		t.Fatal("expected mismatch to fail")
	}
	if ve.Category != CategoryFolderNames {
		t.Fatalf("expected Folder Names category, got %s", ve.Category)
	}
}

func TestValidateFolderName_MissingIDNotFlagged(t *testing.T) {
	// A missing id is the schema's required-check to report.
	if ve := ValidateFolderName(EntityBrand, "brands/Prusament", map[string]any{}); ve != nil {
		t.Fatalf("expected missing id to be skipped, got %v", ve)
	}
	if ve := ValidateFolderName(EntityBrand, "brands/Prusament", map[string]any{"id": 42}); ve != nil {
		t.Fatalf("expected non-string id to be skipped, got %v", ve)
	}
}

func TestSanitizeObject(t *testing.T) {
	out := SanitizeObject(map[string]any{
		"id":          "x",
		"__proto__":   map[string]any{"polluted": true},
		"constructor": "bad",
		"prototype":   "bad",
	})
	if out == nil {
		t.Fatal("expected object to sanitize")
	}
	if len(out) != 1 || out["id"] != "x" {
		t.Fatalf("expected only id to survive, got %v", out)
	}

	if SanitizeObject([]any{"a"}) != nil {
		t.Fatal("expected array to yield nil")
	}
	if SanitizeObject("str") != nil {
		t.Fatal("expected scalar to yield nil")
	}
	if SanitizeObject(nil) != nil {
		t.Fatal("expected nil to yield nil")
	}
}
