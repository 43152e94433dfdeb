//
//  Copyright © Manetu Inc. All rights reserved.
//

package operator

import (
	"reflect"
	"regexp"
)

// Built-in operator identifiers.
const (
	Eq         = "="
	Neq        = "!="
	Lt         = "<"
	Lte        = "<="
	Gt         = ">"
	Gte        = ">="
	In         = "in"
	NotIn      = "not-in"
	Matches    = "matches"
	NotMatches = "not-matches"
)

func builtins() []Descriptor {
	return []Descriptor{
		{ID: Eq, Evaluate: equal, Negate: Neq, Flip: Eq},
		{ID: Neq, Evaluate: notEqual, Negate: Eq, Flip: Neq},
		{ID: Lt, Evaluate: less, Negate: Gte, Flip: Gt},
		{ID: Lte, Evaluate: lessEqual, Negate: Gt, Flip: Gte},
		{ID: Gt, Evaluate: greater, Negate: Lte, Flip: Lt},
		{ID: Gte, Evaluate: greaterEqual, Negate: Lt, Flip: Lte},
		{ID: In, Evaluate: memberOf, Negate: NotIn, Flip: ""},
		{ID: NotIn, Evaluate: notMemberOf, Negate: In, Flip: ""},
		{ID: Matches, Evaluate: matchesPattern, Negate: NotMatches, Flip: ""},
		{ID: NotMatches, Evaluate: notMatchesPattern, Negate: Matches, Flip: ""},
	}
}

func equal(value, expected interface{}) bool {
	if a, ok := asFloat(value); ok {
		if b, ok := asFloat(expected); ok {
			return a == b
		}
	}
	return reflect.DeepEqual(value, expected)
}

func notEqual(value, expected interface{}) bool { return !equal(value, expected) }

// asFloat coerces ints/floats to float64 for numeric comparison so that a
// document value decoded as int and an expected value decoded as float64
// (or vice versa) still compare correctly.
func asFloat(v interface{}) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case float32:
		return float64(n), true
	case int:
		return float64(n), true
	case int32:
		return float64(n), true
	case int64:
		return float64(n), true
	default:
		return 0, false
	}
}

func compareNumeric(value, expected interface{}) (int, bool) {
	a, aok := asFloat(value)
	b, bok := asFloat(expected)
	if !aok || !bok {
		return 0, false
	}
	switch {
	case a < b:
		return -1, true
	case a > b:
		return 1, true
	default:
		return 0, true
	}
}

func compareString(value, expected interface{}) (int, bool) {
	a, aok := value.(string)
	b, bok := expected.(string)
	if !aok || !bok {
		return 0, false
	}
	switch {
	case a < b:
		return -1, true
	case a > b:
		return 1, true
	default:
		return 0, true
	}
}

func compare(value, expected interface{}) (int, bool) {
	if c, ok := compareNumeric(value, expected); ok {
		return c, true
	}
	return compareString(value, expected)
}

func less(value, expected interface{}) bool {
	c, ok := compare(value, expected)
	return ok && c < 0
}

func lessEqual(value, expected interface{}) bool {
	c, ok := compare(value, expected)
	return ok && c <= 0
}

func greater(value, expected interface{}) bool {
	c, ok := compare(value, expected)
	return ok && c > 0
}

func greaterEqual(value, expected interface{}) bool {
	c, ok := compare(value, expected)
	return ok && c >= 0
}

func toSlice(expected interface{}) ([]interface{}, bool) {
	switch s := expected.(type) {
	case []interface{}:
		return s, true
	case []string:
		out := make([]interface{}, len(s))
		for i, v := range s {
			out[i] = v
		}
		return out, true
	default:
		return nil, false
	}
}

func memberOf(value, expected interface{}) bool {
	set, ok := toSlice(expected)
	if !ok {
		return false
	}
	for _, item := range set {
		if equal(value, item) {
			return true
		}
	}
	return false
}

func notMemberOf(value, expected interface{}) bool { return !memberOf(value, expected) }

func matchesPattern(value, expected interface{}) bool {
	s, ok := value.(string)
	if !ok {
		return false
	}
	pattern, ok := expected.(string)
	if !ok {
		return false
	}
	re, err := regexp.Compile(pattern)
	if err != nil {
		return false
	}
	return re.MatchString(s)
}

func notMatchesPattern(value, expected interface{}) bool { return !matchesPattern(value, expected) }
