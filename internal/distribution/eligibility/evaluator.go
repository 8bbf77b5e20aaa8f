package eligibility

import (
	"strconv"
	"strings"

	nichedomain "github.com/smallbiznis/leadflow/internal/niche/domain"
)

// FieldSpec is the schema slice the evaluator needs for one field key.
type FieldSpec struct {
	Type     nichedomain.FieldType
	Required bool
}

// Schema maps field keys to their spec for one niche.
type Schema map[string]FieldSpec

// SchemaFromFields builds a Schema from a niche's active field definitions.
func SchemaFromFields(fields []nichedomain.NicheField) Schema {
	schema := make(Schema, len(fields))
	for _, field := range fields {
		schema[field.Key] = FieldSpec{Type: field.FieldType, Required: field.Required}
	}
	return schema
}

// Outcome is the verdict for one subscription against one lead.
type Outcome struct {
	Eligible bool
	Reason   string
}

func eligible() Outcome { return Outcome{Eligible: true} }

func ineligible(r string) Outcome { return Outcome{Reason: r} }

// Evaluate checks a lead's submitted values against a subscription's decoded
// rules. All rules must pass. Any panic inside a rule resolves to ineligible;
// the subscription may lose this lead but the distribution run survives.
func Evaluate(values map[string]any, rules []Rule, schema Schema) (outcome Outcome) {
	defer func() {
		if r := recover(); r != nil {
			outcome = ineligible("evaluator panic")
		}
	}()

	if len(rules) == 0 {
		return eligible()
	}

	for _, rule := range rules {
		if _, ok := schema[rule.Field]; !ok {
			return ineligible("rule references unknown field " + rule.Field)
		}

		raw, present := values[rule.Field]
		if !present || isEmptyValue(raw) {
			if rule.Op == OpExists {
				if rule.Expect {
					return ineligible("field " + rule.Field + " absent")
				}
				continue
			}
			return ineligible("field " + rule.Field + " has no value")
		}

		if rule.Op == OpExists {
			if !rule.Expect {
				return ineligible("field " + rule.Field + " present")
			}
			continue
		}

		if out := evaluateRule(rule, raw); !out.Eligible {
			return out
		}
	}

	return eligible()
}

func evaluateRule(rule Rule, raw any) Outcome {
	switch rule.Op {
	case OpEquals:
		if !anyElementEquals(raw, rule.Scalar) {
			return ineligible("field " + rule.Field + " != " + rule.Scalar)
		}
	case OpNotEquals:
		if anyElementEquals(raw, rule.Scalar) {
			return ineligible("field " + rule.Field + " == " + rule.Scalar)
		}
	case OpIn:
		if !anyElementIn(raw, rule.List) {
			return ineligible("field " + rule.Field + " not in allowed set")
		}
	case OpNotIn:
		if anyElementIn(raw, rule.List) {
			return ineligible("field " + rule.Field + " in excluded set")
		}
	case OpContains:
		if !anyElementContains(raw, rule.Scalar) {
			return ineligible("field " + rule.Field + " does not contain " + rule.Scalar)
		}
	case OpGTE:
		n, ok := toNumber(raw)
		if !ok {
			return ineligible("field " + rule.Field + " is not numeric")
		}
		if n < rule.Number {
			return ineligible("field " + rule.Field + " below minimum")
		}
	case OpLTE:
		n, ok := toNumber(raw)
		if !ok {
			return ineligible("field " + rule.Field + " is not numeric")
		}
		if n > rule.Number {
			return ineligible("field " + rule.Field + " above maximum")
		}
	case OpBetween:
		n, ok := toNumber(raw)
		if !ok {
			return ineligible("field " + rule.Field + " is not numeric")
		}
		if n < rule.Min || n > rule.Max {
			return ineligible("field " + rule.Field + " outside range")
		}
	default:
		return ineligible("unsupported operator " + string(rule.Op))
	}
	return eligible()
}

// toStrings flattens a submitted value into canonical string elements.
// Scalars become a single element; lists keep their elements.
func toStrings(raw any) []string {
	switch v := raw.(type) {
	case string:
		return []string{v}
	case bool:
		return []string{strconv.FormatBool(v)}
	case float64:
		return []string{formatNumber(v)}
	case int:
		return []string{strconv.Itoa(v)}
	case int64:
		return []string{strconv.FormatInt(v, 10)}
	case []string:
		return v
	case []any:
		out := make([]string, 0, len(v))
		for _, elem := range v {
			out = append(out, toStrings(elem)...)
		}
		return out
	default:
		return nil
	}
}

func toNumber(raw any) (float64, bool) {
	switch v := raw.(type) {
	case float64:
		return v, true
	case int:
		return float64(v), true
	case int64:
		return float64(v), true
	case string:
		n, err := strconv.ParseFloat(strings.TrimSpace(v), 64)
		return n, err == nil
	default:
		return 0, false
	}
}

func anyElementEquals(raw any, want string) bool {
	for _, elem := range toStrings(raw) {
		if strings.EqualFold(strings.TrimSpace(elem), strings.TrimSpace(want)) {
			return true
		}
	}
	return false
}

func anyElementIn(raw any, set []string) bool {
	for _, elem := range toStrings(raw) {
		for _, allowed := range set {
			if strings.EqualFold(strings.TrimSpace(elem), strings.TrimSpace(allowed)) {
				return true
			}
		}
	}
	return false
}

func anyElementContains(raw any, needle string) bool {
	lowered := strings.ToLower(strings.TrimSpace(needle))
	for _, elem := range toStrings(raw) {
		if strings.Contains(strings.ToLower(elem), lowered) {
			return true
		}
	}
	return false
}

func isEmptyValue(raw any) bool {
	switch v := raw.(type) {
	case nil:
		return true
	case string:
		return strings.TrimSpace(v) == ""
	case []any:
		return len(v) == 0
	case []string:
		return len(v) == 0
	default:
		return false
	}
}
