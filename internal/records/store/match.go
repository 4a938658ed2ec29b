package store

import (
	"cmp"
	"fmt"
	"strings"
	"time"

	"agristack/internal/records/models"
)

func matches(fields map[string]any, preds []Predicate) bool {
	for _, p := range preds {
		if !matchOne(fields, p) {
			return false
		}
	}
	return true
}

func matchOne(fields map[string]any, p Predicate) bool {
	switch p.Op {
	case OpContainsAny:
		term := strings.ToLower(fmt.Sprint(p.Value))
		for _, f := range p.Fields {
			if v, ok := fields[f].(string); ok && strings.Contains(strings.ToLower(v), term) {
				return true
			}
		}
		return false
	case OpIsNull:
		return fields[p.Field] == nil
	case OpIn:
		for _, want := range p.Values {
			if c, ok := compare(fields[p.Field], want); ok && c == 0 {
				return true
			}
		}
		return false
	}

	got := fields[p.Field]
	if got == nil {
		// SQL semantics: comparisons against NULL are never true.
		return false
	}
	c, ok := compare(got, p.Value)
	if !ok {
		return false
	}
	switch p.Op {
	case OpEq:
		return c == 0
	case OpNeq:
		return c != 0
	case OpGt:
		return c > 0
	case OpGte:
		return c >= 0
	case OpLt:
		return c < 0
	case OpLte:
		return c <= 0
	}
	return false
}

// compare orders two field values. ok is false when they are not comparable.
func compare(a, b any) (int, bool) {
	if a == nil || b == nil {
		return 0, false
	}
	switch av := a.(type) {
	case string:
		return cmp.Compare(av, toString(b)), true
	case bool:
		bv, ok := b.(bool)
		if !ok {
			return 0, false
		}
		switch {
		case av == bv:
			return 0, true
		case !av:
			return -1, true
		default:
			return 1, true
		}
	case int:
		f, ok := toFloat(b)
		return cmp.Compare(float64(av), f), ok
	case float64:
		f, ok := toFloat(b)
		return cmp.Compare(av, f), ok
	case time.Time:
		bt, ok := toTime(b)
		return av.Compare(bt), ok
	case models.Date:
		bt, ok := toTime(b)
		return av.Time().Compare(bt), ok
	}
	return 0, false
}

func toString(v any) string {
	switch x := v.(type) {
	case string:
		return x
	case fmt.Stringer:
		return x.String()
	}
	return fmt.Sprint(v)
}

func toFloat(v any) (float64, bool) {
	switch x := v.(type) {
	case int:
		return float64(x), true
	case int64:
		return float64(x), true
	case float64:
		return x, true
	}
	return 0, false
}

func toTime(v any) (time.Time, bool) {
	switch x := v.(type) {
	case time.Time:
		return x, true
	case models.Date:
		return x.Time(), true
	}
	return time.Time{}, false
}
