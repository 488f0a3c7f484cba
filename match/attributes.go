package match

import (
	"slices"
	"strconv"
	"strings"

	"stylo/ir"
)

// DataProp is the prop holding data-* attributes.
const DataProp = "dataSet"

func lookup(q ir.AttributeQuery, props map[string]any) (any, bool) {
	if q.Source == ir.AttrData {
		data, _ := props[DataProp].(map[string]any)
		v, ok := data[q.Name]
		return v, ok
	}
	v, ok := props[q.Name]
	return v, ok
}

func (m *Matcher) attributeHolds(q ir.AttributeQuery, props map[string]any) bool {
	v, present := lookup(q, props)
	switch q.Op {
	case ir.AttrExists:
		return present && v != nil
	case ir.AttrTruthy:
		return truthy(v)
	case ir.AttrFalsy:
		return !truthy(v)
	case ir.AttrEmpty:
		return empty(v)
	}
	if !present || v == nil {
		return false
	}

	s, ok := text(v)
	if !ok {
		return false
	}
	want := q.Value
	if q.Insensitive {
		s, want = m.fold.String(s), m.fold.String(want)
	}
	switch q.Op {
	case ir.AttrEquals:
		return s == want
	case ir.AttrIncludes:
		return want != "" && slices.Contains(strings.Fields(s), want)
	case ir.AttrDashMatch:
		return s == want || strings.HasPrefix(s, want+"-")
	case ir.AttrPrefix:
		return want != "" && strings.HasPrefix(s, want)
	case ir.AttrSuffix:
		return want != "" && strings.HasSuffix(s, want)
	case ir.AttrSubstring:
		return want != "" && strings.Contains(s, want)
	}
	return false
}

// text converts scalar prop to its attribute form.
func text(v any) (string, bool) {
	switch x := v.(type) {
	case string:
		return x, true
	case bool:
		return strconv.FormatBool(x), true
	case int:
		return strconv.Itoa(x), true
	case float64:
		return strconv.FormatFloat(x, 'f', -1, 64), true
	}
	return "", false
}

func truthy(v any) bool {
	switch x := v.(type) {
	case nil:
		return false
	case bool:
		return x
	case string:
		return x != ""
	case int:
		return x != 0
	case float64:
		return x != 0
	}
	return true
}

func empty(v any) bool {
	switch x := v.(type) {
	case nil:
		return true
	case string:
		return x == ""
	case []any:
		return len(x) == 0
	case map[string]any:
		return len(x) == 0
	}
	return false
}
