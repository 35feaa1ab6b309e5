package schema

import (
	"fmt"
	"strings"

	"adscope/domain/analysis"
	"adscope/domain/core"
)

// Error enumerates every schema violation found in a candidate payload,
// not just the first, so callers can log complete diagnostics.
type Error struct {
	Stage      analysis.Stage
	Violations []string
}

func (e *Error) Error() string {
	return fmt.Sprintf("stage %s payload invalid: %s", e.Stage, strings.Join(e.Violations, "; "))
}

// Unwrap lets errors.Is match core.ErrSchema.
func (e *Error) Unwrap() error { return core.ErrSchema }

// Validate checks a parsed JSON tree against the stage's contract. The
// payload is returned to the caller unchanged on success (validation is
// side-effect free); on failure every violation is reported in one Error.
func Validate(stage analysis.Stage, tree map[string]any) error {
	obj, err := For(stage)
	if err != nil {
		return err
	}

	violations := validateObject("", obj, tree)
	if len(violations) > 0 {
		return &Error{Stage: stage, Violations: violations}
	}
	return nil
}

func validateObject(path string, obj *Object, tree map[string]any) []string {
	var violations []string

	for _, field := range obj.Fields {
		fieldPath := field.Name
		if path != "" {
			fieldPath = path + "." + field.Name
		}

		value, present := tree[field.Name]
		if !present || value == nil {
			if field.Required {
				violations = append(violations, fmt.Sprintf("%s: missing required field", fieldPath))
			}
			continue
		}

		violations = append(violations, validateValue(fieldPath, field, value)...)
	}

	return violations
}

func validateValue(path string, field Field, value any) []string {
	var violations []string

	switch field.Kind {
	case KindString:
		s, ok := value.(string)
		if !ok {
			return []string{fmt.Sprintf("%s: expected string, got %T", path, value)}
		}
		if field.NonEmpty && strings.TrimSpace(s) == "" {
			violations = append(violations, fmt.Sprintf("%s: must not be empty", path))
		}
		if len(field.Enum) > 0 && !contains(field.Enum, s) {
			violations = append(violations, fmt.Sprintf("%s: %q not in %v", path, s, field.Enum))
		}

	case KindNumber:
		// encoding/json decodes every JSON number as float64
		n, ok := value.(float64)
		if !ok {
			return []string{fmt.Sprintf("%s: expected number, got %T", path, value)}
		}
		if field.Min != nil && n < *field.Min {
			violations = append(violations, fmt.Sprintf("%s: %v below minimum %v", path, n, *field.Min))
		}
		if field.Max != nil && n > *field.Max {
			violations = append(violations, fmt.Sprintf("%s: %v above maximum %v", path, n, *field.Max))
		}

	case KindBool:
		if _, ok := value.(bool); !ok {
			return []string{fmt.Sprintf("%s: expected bool, got %T", path, value)}
		}

	case KindArray:
		arr, ok := value.([]any)
		if !ok {
			return []string{fmt.Sprintf("%s: expected array, got %T", path, value)}
		}
		if field.NonEmpty && len(arr) == 0 {
			violations = append(violations, fmt.Sprintf("%s: must contain at least one element", path))
		}
		if field.Elem != nil {
			for i, el := range arr {
				elPath := fmt.Sprintf("%s[%d]", path, i)
				elObj, ok := el.(map[string]any)
				if !ok {
					violations = append(violations, fmt.Sprintf("%s: expected object, got %T", elPath, el))
					continue
				}
				violations = append(violations, validateObject(elPath, field.Elem, elObj)...)
			}
		}

	case KindObject:
		obj, ok := value.(map[string]any)
		if !ok {
			return []string{fmt.Sprintf("%s: expected object, got %T", path, value)}
		}
		if field.Elem != nil {
			violations = append(violations, validateObject(path, field.Elem, obj)...)
		}

	default:
		violations = append(violations, fmt.Sprintf("%s: unknown schema kind %q", path, field.Kind))
	}

	return violations
}

func contains(set []string, v string) bool {
	for _, s := range set {
		if s == v {
			return true
		}
	}
	return false
}
