// Package logic evaluates the single-antecedent show/hide rules attached to
// questions and the emptiness test used by required-field validation.
package logic

import (
	"math"
	"reflect"
	"strconv"
	"strings"

	"github.com/mbolis/surveyforge/model"
	"github.com/spf13/cast"
)

// ShouldShow reports whether q is visible given the current answers.
func ShouldShow(q model.Question, answers model.Answers) bool {
	rule := q.ConditionalLogic
	if !rule.Enabled {
		return true
	}

	dependent, answered := answers[rule.DependsOn]
	if !answered {
		dependent = nil
	}

	switch rule.Condition {
	case model.Equals:
		return strictEqual(dependent, rule.Value)
	case model.NotEquals:
		return !strictEqual(dependent, rule.Value)
	case model.Contains:
		return contains(dependent, rule.Value)
	case model.NotContains:
		return !contains(dependent, rule.Value)
	case model.GreaterThan:
		// NaN on either side compares false
		return toNumber(dependent) > toNumber(rule.Value)
	case model.LessThan:
		return toNumber(dependent) < toNumber(rule.Value)
	default:
		return true
	}
}

// IsAnswered is the required-field test: strings and lists must be non-empty,
// anything else must be present.
func IsAnswered(v any) bool {
	if v == nil {
		return false
	}
	switch t := v.(type) {
	case string:
		return t != ""
	case []any:
		return len(t) > 0
	case []string:
		return len(t) > 0
	}
	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Slice, reflect.Array:
		return rv.Len() > 0
	case reflect.Pointer, reflect.Map, reflect.Interface:
		return !rv.IsNil()
	}
	return true
}

func strictEqual(a, b any) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	if isNumber(a) && isNumber(b) {
		return cast.ToFloat64(a) == cast.ToFloat64(b)
	}
	ka, kb := reflect.TypeOf(a).Kind(), reflect.TypeOf(b).Kind()
	if ka != kb {
		return false
	}
	switch ka {
	case reflect.Slice, reflect.Map, reflect.Array, reflect.Func, reflect.Pointer:
		// compared by identity, which decoded answers never share
		return false
	}
	return a == b
}

func contains(haystack, needle any) bool {
	switch list := haystack.(type) {
	case []any:
		for _, v := range list {
			if strictEqual(v, needle) {
				return true
			}
		}
		return false
	case []string:
		for _, v := range list {
			if strictEqual(v, needle) {
				return true
			}
		}
		return false
	}
	return strings.Contains(stringify(haystack), stringify(needle))
}

func isNumber(v any) bool {
	switch v.(type) {
	case int, int8, int16, int32, int64,
		uint, uint8, uint16, uint32, uint64,
		float32, float64:
		return true
	}
	return false
}

func stringify(v any) string {
	switch t := v.(type) {
	case nil:
		return "undefined"
	case string:
		return t
	case bool:
		return strconv.FormatBool(t)
	case []any:
		parts := make([]string, len(t))
		for i, e := range t {
			if e != nil {
				parts[i] = stringify(e)
			}
		}
		return strings.Join(parts, ",")
	case []string:
		return strings.Join(t, ",")
	case map[string]any, model.Answers, model.Object:
		return "[object Object]"
	}
	if isNumber(v) {
		return formatNumber(cast.ToFloat64(v))
	}
	return cast.ToString(v)
}

func formatNumber(f float64) string {
	switch {
	case math.IsNaN(f):
		return "NaN"
	case math.IsInf(f, 1):
		return "Infinity"
	case math.IsInf(f, -1):
		return "-Infinity"
	}
	return strconv.FormatFloat(f, 'f', -1, 64)
}

// toNumber mirrors the loose numeric coercion used by the rule editor:
// blank strings are zero, missing values and unparsable text are NaN.
func toNumber(v any) float64 {
	switch t := v.(type) {
	case nil:
		return math.NaN()
	case bool:
		if t {
			return 1
		}
		return 0
	case string:
		s := strings.TrimSpace(t)
		switch s {
		case "":
			return 0
		case "Infinity", "+Infinity":
			return math.Inf(1)
		case "-Infinity":
			return math.Inf(-1)
		}
		if strings.ContainsAny(s, "_nNiI") {
			return math.NaN()
		}
		f, err := strconv.ParseFloat(s, 64)
		if err != nil {
			return math.NaN()
		}
		return f
	case []any:
		switch len(t) {
		case 0:
			return 0
		case 1:
			return toNumber(stringify(t[0]))
		}
		return math.NaN()
	case []string:
		switch len(t) {
		case 0:
			return 0
		case 1:
			return toNumber(t[0])
		}
		return math.NaN()
	}
	f, err := cast.ToFloat64E(v)
	if err != nil {
		return math.NaN()
	}
	return f
}
