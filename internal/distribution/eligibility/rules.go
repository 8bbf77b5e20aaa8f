// Package eligibility decides whether a lead's submitted values satisfy a
// subscription's filter rules. Evaluation is fail-safe: anything malformed,
// ambiguous or panicking resolves to ineligible, never to an error escaping
// the package.
package eligibility

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"gorm.io/datatypes"
)

// Operator enumerates the supported rule operators.
type Operator string

const (
	OpEquals    Operator = "equals"
	OpNotEquals Operator = "not_equals"
	OpIn        Operator = "in"
	OpNotIn     Operator = "not_in"
	OpContains  Operator = "contains"
	OpGTE       Operator = "gte"
	OpLTE       Operator = "lte"
	OpBetween   Operator = "between"
	OpExists    Operator = "exists"
)

// Rule is one decoded filter rule. Exactly one payload field is populated,
// determined by Op; DecodeRules validates shape once so the evaluator never
// branches on raw JSON.
type Rule struct {
	Field string
	Op    Operator

	Scalar string   // equals, not_equals, contains
	List   []string // in, not_in
	Number float64  // gte, lte
	Min    float64  // between
	Max    float64  // between
	Expect bool     // exists
}

type rawRule struct {
	Field    string          `json:"field"`
	Operator string          `json:"operator"`
	Value    json.RawMessage `json:"value"`
}

// DecodeRules parses a stored filter-rule document into typed rules. A nil or
// empty document decodes to nil (no filter). Any structural problem returns
// an error; callers treat that as ineligible.
func DecodeRules(doc datatypes.JSON) ([]Rule, error) {
	if len(doc) == 0 {
		return nil, nil
	}
	trimmed := strings.TrimSpace(string(doc))
	if trimmed == "" || trimmed == "null" {
		return nil, nil
	}

	var raws []rawRule
	if err := json.Unmarshal([]byte(trimmed), &raws); err != nil {
		return nil, fmt.Errorf("filter rules are not a list: %w", err)
	}

	rules := make([]Rule, 0, len(raws))
	for i, raw := range raws {
		rule, err := decodeRule(raw)
		if err != nil {
			return nil, fmt.Errorf("rule %d: %w", i, err)
		}
		rules = append(rules, rule)
	}
	return rules, nil
}

func decodeRule(raw rawRule) (Rule, error) {
	field := strings.TrimSpace(raw.Field)
	if field == "" {
		return Rule{}, fmt.Errorf("missing field key")
	}

	op := Operator(strings.ToLower(strings.TrimSpace(raw.Operator)))
	rule := Rule{Field: field, Op: op}

	switch op {
	case OpEquals, OpNotEquals, OpContains:
		scalar, err := decodeScalar(raw.Value)
		if err != nil {
			return Rule{}, err
		}
		rule.Scalar = scalar
	case OpIn, OpNotIn:
		list, err := decodeList(raw.Value)
		if err != nil {
			return Rule{}, err
		}
		if len(list) == 0 {
			return Rule{}, fmt.Errorf("operator %s requires a non-empty list", op)
		}
		rule.List = list
	case OpGTE, OpLTE:
		number, err := decodeNumber(raw.Value)
		if err != nil {
			return Rule{}, err
		}
		rule.Number = number
	case OpBetween:
		min, max, err := decodePair(raw.Value)
		if err != nil {
			return Rule{}, err
		}
		if min > max {
			return Rule{}, fmt.Errorf("between bounds inverted")
		}
		rule.Min, rule.Max = min, max
	case OpExists:
		expect, err := decodeBool(raw.Value)
		if err != nil {
			return Rule{}, err
		}
		rule.Expect = expect
	default:
		return Rule{}, fmt.Errorf("unknown operator %q", raw.Operator)
	}

	return rule, nil
}

func decodeScalar(value json.RawMessage) (string, error) {
	var s string
	if err := json.Unmarshal(value, &s); err == nil {
		return s, nil
	}
	var n float64
	if err := json.Unmarshal(value, &n); err == nil {
		return formatNumber(n), nil
	}
	var b bool
	if err := json.Unmarshal(value, &b); err == nil {
		return strconv.FormatBool(b), nil
	}
	return "", fmt.Errorf("value is not a scalar")
}

func decodeList(value json.RawMessage) ([]string, error) {
	var raws []json.RawMessage
	if err := json.Unmarshal(value, &raws); err != nil {
		return nil, fmt.Errorf("value is not a list")
	}
	out := make([]string, 0, len(raws))
	for _, raw := range raws {
		scalar, err := decodeScalar(raw)
		if err != nil {
			return nil, err
		}
		out = append(out, scalar)
	}
	return out, nil
}

func decodeNumber(value json.RawMessage) (float64, error) {
	var n float64
	if err := json.Unmarshal(value, &n); err == nil {
		return n, nil
	}
	var s string
	if err := json.Unmarshal(value, &s); err == nil {
		parsed, perr := strconv.ParseFloat(strings.TrimSpace(s), 64)
		if perr != nil {
			return 0, fmt.Errorf("value %q is not numeric", s)
		}
		return parsed, nil
	}
	return 0, fmt.Errorf("value is not numeric")
}

func decodePair(value json.RawMessage) (float64, float64, error) {
	var raws []json.RawMessage
	if err := json.Unmarshal(value, &raws); err != nil {
		return 0, 0, fmt.Errorf("between requires a [min, max] pair")
	}
	if len(raws) != 2 {
		return 0, 0, fmt.Errorf("between requires exactly two bounds, got %d", len(raws))
	}
	min, err := decodeNumber(raws[0])
	if err != nil {
		return 0, 0, err
	}
	max, err := decodeNumber(raws[1])
	if err != nil {
		return 0, 0, err
	}
	return min, max, nil
}

func decodeBool(value json.RawMessage) (bool, error) {
	if len(value) == 0 {
		return true, nil
	}
	var b bool
	if err := json.Unmarshal(value, &b); err == nil {
		return b, nil
	}
	var s string
	if err := json.Unmarshal(value, &s); err == nil {
		switch strings.ToLower(strings.TrimSpace(s)) {
		case "true", "1", "yes":
			return true, nil
		case "false", "0", "no":
			return false, nil
		}
	}
	return false, fmt.Errorf("value is not a boolean")
}

func formatNumber(n float64) string {
	return strconv.FormatFloat(n, 'f', -1, 64)
}
