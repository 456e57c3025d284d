// =============================================================================
// ANDPAD Invoice Converter - Field Transformation Engine
// =============================================================================
//
// Declarative mappings may attach a chain of transforms to a source column.
// They run in order on the raw cell value before it is assigned to its
// target field, e.g. to upper-case a project code or to translate a
// vendor's unit abbreviations:
//
//	- source: 単位
//	  target: unit
//	  transforms:
//	    - type: lookup
//	      lookup_table: {"ｹｰｽ": "ケース", "ｺ": "個"}
//
// CUSTOMIZATION:
//   - Add new transformation types as cases in ApplyTransformation.
//
// =============================================================================

package extractor

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/ginjaninja78/andpad-invoice-converter/internal/config"
)

var (
	digitsPattern = regexp.MustCompile(`\d+`)
	spacesPattern = regexp.MustCompile(`\s+`)
)

// Transform runs every action in order.
//
// PARAMETERS:
//   - value: The raw cell value.
//   - actions: The transforms configured for the column.
//   - row: The other source values of the row, by column name, for
//     if_empty_use_field.
//
// RETURNS:
//   - The transformed value.
//   - An error naming the failing transform.
func Transform(value string, actions []config.TransformationAction, row map[string]string) (string, error) {
	result := value
	for _, action := range actions {
		var err error
		result, err = ApplyTransformation(result, action, row)
		if err != nil {
			return "", fmt.Errorf("transformation '%s' failed: %w", action.Type, err)
		}
	}
	return result, nil
}

// ApplyTransformation applies a single transformation action.
func ApplyTransformation(value string, action config.TransformationAction, row map[string]string) (string, error) {
	switch action.Type {
	case "trim":
		return strings.TrimSpace(value), nil

	case "uppercase":
		return strings.ToUpper(value), nil

	case "lowercase":
		return strings.ToLower(value), nil

	case "normalize_whitespace":
		// "A  B　C" -> "A B C"
		return strings.TrimSpace(spacesPattern.ReplaceAllString(value, " ")), nil

	case "prepend_string":
		return action.Value + value, nil

	case "append_string":
		return value + action.Value, nil

	case "replace":
		if action.Find == "" {
			return value, nil
		}
		return strings.ReplaceAll(value, action.Find, action.Value), nil

	case "regex_replace":
		if action.Find == "" {
			return value, nil
		}
		re, err := regexp.Compile(action.Find)
		if err != nil {
			return "", fmt.Errorf("invalid regex pattern: %w", err)
		}
		return re.ReplaceAllString(value, action.Value), nil

	case "extract_digits":
		// "No.12-34" -> "1234"
		return strings.Join(digitsPattern.FindAllString(value, -1), ""), nil

	case "lookup":
		// Unknown keys pass through unchanged.
		if replacement, ok := action.LookupTable[value]; ok {
			return replacement, nil
		}
		return value, nil

	case "if_empty_use_default":
		if strings.TrimSpace(value) == "" {
			return action.Value, nil
		}
		return value, nil

	case "if_empty_use_field":
		if strings.TrimSpace(value) == "" {
			if other, ok := row[action.Value]; ok {
				return other, nil
			}
		}
		return value, nil

	default:
		return "", fmt.Errorf("unknown transformation type: %s", action.Type)
	}
}

// ValidateTransforms reports the first unknown type or bad pattern.
func ValidateTransforms(actions []config.TransformationAction) error {
	for _, a := range actions {
		switch a.Type {
		case "trim", "uppercase", "lowercase", "normalize_whitespace",
			"prepend_string", "append_string", "replace", "extract_digits",
			"lookup", "if_empty_use_default", "if_empty_use_field":
		case "regex_replace":
			if _, err := regexp.Compile(a.Find); err != nil {
				return fmt.Errorf("invalid regex pattern %q: %w", a.Find, err)
			}
		default:
			return fmt.Errorf("unknown transformation type: %s", a.Type)
		}
	}
	return nil
}
