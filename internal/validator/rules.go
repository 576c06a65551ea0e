package validator

import (
	"fmt"
	"log"
	"sync"

	"github.com/expr-lang/expr"
	"github.com/expr-lang/expr/vm"
)

// AdvisoryRule is a data-quality check expressed as an expr-lang
// expression over a record environment. A rule that evaluates to true
// is violated and produces a WARNING; advisories never block a
// submission.
type AdvisoryRule struct {
	Entity     EntityType
	Scope      string // "entity" or "size"
	Expression string
	Message    string

	once     sync.Once
	compiled *vm.Program
}

// Built-in advisories. The dataset tolerates these gaps, but the
// editor surfaces them so contributors fill them in over time.
var advisoryRules = []*AdvisoryRule{
	{
		Entity:     EntityBrand,
		Scope:      "entity",
		Expression: `record.website == nil || record.website == ""`,
		Message:    "Brand has no website",
	},
	{
		Entity:     EntityStore,
		Scope:      "entity",
		Expression: `record.website == nil || record.website == ""`,
		Message:    "Store has no website",
	},
	{
		Entity:     EntityVariant,
		Scope:      "size",
		Expression: `record.article_number == nil || record.article_number == ""`,
		Message:    "Size has no article_number",
	},
}

func (r *AdvisoryRule) program() (*vm.Program, error) {
	var err error
	r.once.Do(func() {
		r.compiled, err = expr.Compile(r.Expression, expr.AsBool())
	})
	if err != nil {
		return nil, fmt.Errorf("compile advisory rule: %w", err)
	}
	if r.compiled == nil {
		return nil, fmt.Errorf("advisory rule failed to compile: %s", r.Expression)
	}
	return r.compiled, nil
}

// evaluate runs the rule against a record. Evaluation errors are
// logged and swallowed: a broken advisory must never fail validation.
func (r *AdvisoryRule) evaluate(record map[string]any) bool {
	prog, err := r.program()
	if err != nil {
		log.Printf("WARN: %v", err)
		return false
	}
	out, err := expr.Run(prog, map[string]any{"record": record})
	if err != nil {
		log.Printf("WARN: run advisory rule: %v", err)
		return false
	}
	violated, _ := out.(bool)
	return violated
}

// EvaluateAdvisories runs entity-scoped advisories for one entity's
// data, returning Data Quality warnings.
func EvaluateAdvisories(entityType EntityType, data map[string]any, path string) []ValidationError {
	var warns []ValidationError
	for _, rule := range advisoryRules {
		if rule.Entity != entityType || rule.Scope != "entity" {
			continue
		}
		if rule.evaluate(data) {
			warns = append(warns, ValidationError{
				Category: CategoryDataQuality,
				Level:    LevelWarning,
				Message:  rule.Message,
				Path:     path,
			})
		}
	}
	return warns
}

// EvaluateSizeAdvisories runs size-scoped advisories against each
// entry of a variant's sizes array.
func EvaluateSizeAdvisories(sizes []map[string]any, path string) []ValidationError {
	var warns []ValidationError
	for i, size := range sizes {
		for _, rule := range advisoryRules {
			if rule.Entity != EntityVariant || rule.Scope != "size" {
				continue
			}
			if rule.evaluate(size) {
				warns = append(warns, ValidationError{
					Category: CategoryDataQuality,
					Level:    LevelWarning,
					Message:  fmt.Sprintf("Size %d: %s", i+1, rule.Message),
					Path:     path,
				})
			}
		}
	}
	return warns
}
