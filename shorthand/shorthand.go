// Package shorthand holds declarative tables describing how shorthand
// properties split into their longhand fields.
//
// Values handled here are plain: float64 for numbers and lengths, Time for
// durations, string for keywords, colours and percentages, bool for flags.
package shorthand

import (
	"slices"
	"strings"
)

// Time is a duration in milliseconds.
type Time float64

// Matcher reports whether value may fill a field.
type Matcher func(v any) bool

// Field is a single positional argument of a shorthand. Fields without
// default are required unless marked optional.
type Field struct {
	Name     string
	Match    Matcher
	Default  any
	Optional bool
}

// Table describes a shorthand property.
type Table struct {
	Property string
	Fields   []Field
	// Shapes lists alternative argument orders by field name. Arguments may
	// fill a prefix of a shape, the rest gets defaults. When empty,
	// arguments are accepted in any order, each one taking the first
	// unfilled field it matches.
	Shapes [][]string
	// Output converts matched fields to longhand properties.
	Output func(fields map[string]any) map[string]any
}

// Match assigns args to fields. It returns false when args fit no shape.
func (t *Table) Match(args []any) (map[string]any, bool) {
	if len(args) == 0 || len(args) > len(t.Fields) {
		return nil, false
	}
	if len(t.Shapes) == 0 {
		return t.matchAnyOrder(args)
	}
	for _, shape := range t.Shapes {
		if out, ok := t.matchShape(shape, args); ok {
			return out, true
		}
	}
	return nil, false
}

// Expand matches args and converts result to longhands.
func (t *Table) Expand(args []any) (map[string]any, bool) {
	fields, ok := t.Match(args)
	if !ok {
		return nil, false
	}
	if t.Output == nil {
		return fields, true
	}
	return t.Output(fields), true
}

func (t *Table) field(name string) *Field {
	for i := range t.Fields {
		if t.Fields[i].Name == name {
			return &t.Fields[i]
		}
	}
	return nil
}

func (t *Table) matchShape(shape []string, args []any) (map[string]any, bool) {
	if len(args) > len(shape) {
		return nil, false
	}
	out := t.defaults()
	for i, arg := range args {
		f := t.field(shape[i])
		if f == nil || !f.Match(arg) {
			return nil, false
		}
		out[f.Name] = arg
	}
	return out, t.complete(out)
}

func (t *Table) matchAnyOrder(args []any) (map[string]any, bool) {
	out := t.defaults()
	filled := make([]bool, len(t.Fields))
next:
	for _, arg := range args {
		for i, f := range t.Fields {
			if !filled[i] && f.Match(arg) {
				filled[i] = true
				out[f.Name] = arg
				continue next
			}
		}
		return nil, false
	}
	return out, t.complete(out)
}

func (t *Table) complete(out map[string]any) bool {
	for _, f := range t.Fields {
		if _, ok := out[f.Name]; !ok && f.Default == nil && !f.Optional {
			return false
		}
	}
	return true
}

func (t *Table) defaults() map[string]any {
	out := make(map[string]any, len(t.Fields))
	for _, f := range t.Fields {
		if f.Default != nil {
			out[f.Name] = f.Default
		}
	}
	return out
}

var tables = map[string]*Table{}

func register(t *Table) *Table {
	tables[t.Property] = t
	return t
}

// Lookup returns table for property name (camel case) or nil.
func Lookup(property string) *Table {
	return tables[property]
}

// Properties returns names of all known shorthands.
func Properties() []string {
	names := make([]string, 0, len(tables))
	for name := range tables {
		names = append(names, name)
	}
	slices.Sort(names)
	return names
}

// Matchers.

// Number accepts plain numbers.
func Number(v any) bool {
	_, ok := v.(float64)
	return ok
}

// Length accepts numbers and percentages.
func Length(v any) bool {
	switch x := v.(type) {
	case float64:
		return true
	case string:
		return strings.HasSuffix(x, "%")
	}
	return false
}

// Duration accepts times.
func Duration(v any) bool {
	_, ok := v.(Time)
	return ok
}

// Keyword returns matcher accepting listed keywords (case insensitive).
func Keyword(words ...string) Matcher {
	return func(v any) bool {
		s, ok := v.(string)
		if !ok {
			return false
		}
		for _, w := range words {
			if strings.EqualFold(s, w) {
				return true
			}
		}
		return false
	}
}

// AnyOf combines matchers.
func AnyOf(ms ...Matcher) Matcher {
	return func(v any) bool {
		for _, m := range ms {
			if m(v) {
				return true
			}
		}
		return false
	}
}

// Color accepts any string which is not a percentage.
func Color(v any) bool {
	s, ok := v.(string)
	return ok && s != "" && !strings.HasSuffix(s, "%")
}

// Ident accepts any string.
func Ident(v any) bool {
	s, ok := v.(string)
	return ok && s != ""
}

var easingKeywords = Keyword("ease", "ease-in", "ease-out", "ease-in-out", "linear", "step-start", "step-end")

// Easing accepts timing function keywords and serialized timing functions.
func Easing(v any) bool {
	if easingKeywords(v) {
		return true
	}
	s, ok := v.(string)
	return ok && (strings.HasPrefix(s, "cubic-bezier(") || strings.HasPrefix(s, "steps(") || strings.HasPrefix(s, "linear("))
}

// Property accepts property names which cannot be confused with timing
// functions.
func Property(v any) bool {
	return Ident(v) && !Easing(v)
}
