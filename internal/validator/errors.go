package validator

// Level classifies a finding. Warnings are advisory and never affect
// the validity of a submission.
type Level string

const (
	LevelError   Level = "ERROR"
	LevelWarning Level = "WARNING"
)

// Finding categories. These names surface verbatim in the editor UI,
// so they are part of the API contract.
const (
	CategorySchema      = "JSON Schema"
	CategoryFolderNames = "Folder Names"
	CategoryPath        = "Path"
	CategoryInput       = "Input"
	CategoryImages      = "Images"
	CategoryGTIN        = "GTIN"
	CategoryStoreIDs    = "Store IDs"
	CategoryDataQuality = "Data Quality"
)

// ValidationError is a single finding against one change or image.
// Immutable once created.
type ValidationError struct {
	Category string `json:"category"`
	Level    Level  `json:"level"`
	Message  string `json:"message"`
	Path     string `json:"path,omitempty"`
}

// ValidationResult is the terminal outcome of one validation run.
// is_valid depends on errors only; warnings never block a submission.
type ValidationResult struct {
	IsValid      bool              `json:"is_valid"`
	ErrorCount   int               `json:"error_count"`
	WarningCount int               `json:"warning_count"`
	Errors       []ValidationError `json:"errors"`
}

// BuildResult computes counts over accumulated findings. Findings keep
// their submission order.
func BuildResult(findings []ValidationError) *ValidationResult {
	if findings == nil {
		findings = []ValidationError{}
	}
	res := &ValidationResult{Errors: findings}
	for _, f := range findings {
		if f.Level == LevelWarning {
			res.WarningCount++
		} else {
			res.ErrorCount++
		}
	}
	res.IsValid = res.ErrorCount == 0
	return res
}
