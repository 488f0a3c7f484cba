package compiler

import (
	"fmt"

	"github.com/tdewolff/parse/v2/css"

	stylecss "stylo/css"
	"stylo/ir"
	"stylo/shorthand"
)

// Infinite is the iteration count of endless animations.
const Infinite = ir.Infinite

// plainComponent converts a component of transition or animation value:
// times to shorthand.Time, numbers to float64, everything else to text.
func plainComponent(tokens []stylecss.Token) (any, error) {
	t := tokens[0]
	if len(tokens) > 1 {
		if t.TokenType == css.FunctionToken {
			return stylecss.Raw(tokens), nil
		}
		return nil, errUnsupported
	}
	switch t.TokenType {
	case css.NumberToken:
		f, _, err := splitNumber(string(t.Data))
		if err != nil {
			return nil, err
		}
		if f == 0 {
			// unitless zero is a valid time
			return shorthand.Time(0), nil
		}
		return f, nil
	case css.DimensionToken:
		f, unit, err := splitNumber(string(t.Data))
		if err != nil {
			return nil, err
		}
		switch unit {
		case "ms":
			return shorthand.Time(f), nil
		case "s":
			return shorthand.Time(f * 1000), nil
		}
		return nil, fmt.Errorf("%w: unit %q", errUnsupported, unit)
	case css.IdentToken:
		return stylecss.Unescape(string(t.Data)), nil
	case css.StringToken:
		return stylecss.Unquote(t), nil
	}
	return nil, errUnsupported
}

// listItems splits comma separated list into items of plain components.
func listItems(value []stylecss.Token) ([][]any, error) {
	var items [][]any
	for _, part := range stylecss.Split(value, css.CommaToken) {
		var item []any
		for _, c := range components(part) {
			v, err := plainComponent(c)
			if err != nil {
				return nil, err
			}
			item = append(item, v)
		}
		if len(item) == 0 {
			return nil, errUnsupported
		}
		items = append(items, item)
	}
	return items, nil
}

// singles returns list items which must consist of a single component.
func singles(value []stylecss.Token) ([]any, error) {
	items, err := listItems(value)
	if err != nil {
		return nil, err
	}
	out := make([]any, len(items))
	for i, item := range items {
		if len(item) != 1 {
			return nil, errUnsupported
		}
		out[i] = item[0]
	}
	return out, nil
}

func times(values []any) ([]float64, error) {
	out := make([]float64, len(values))
	for i, v := range values {
		t, ok := v.(shorthand.Time)
		if !ok {
			return nil, errUnsupported
		}
		out[i] = float64(t)
	}
	return out, nil
}

func texts(values []any, m shorthand.Matcher) ([]string, error) {
	out := make([]string, len(values))
	for i, v := range values {
		s, ok := v.(string)
		if !ok || (m != nil && !m(v)) {
			return nil, errUnsupported
		}
		out[i] = s
	}
	return out, nil
}
