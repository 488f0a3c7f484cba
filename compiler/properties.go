package compiler

import (
	"fmt"
	"strings"

	"github.com/tdewolff/parse/v2/css"

	stylecss "stylo/css"
	"stylo/ir"
	"stylo/shorthand"
)

// output is a single compiled value destined for a key of the target
// wrapper.
type output struct {
	property string // source property, @prop mappings are keyed by it
	key      string
	value    ir.Descriptor
}

// handler converts declaration value. Returned error means the value is not
// supported for otherwise known property.
type handler func(name string, value []stylecss.Token) ([]output, error)

// camel converts property name to camel case: "background-color" becomes
// "backgroundColor".
func camel(name string) string {
	if !strings.Contains(name, "-") {
		return name
	}
	var sb strings.Builder
	upper := false
	for _, r := range strings.TrimPrefix(name, "-") {
		if r == '-' {
			upper = true
			continue
		}
		if upper {
			sb.WriteString(strings.ToUpper(string(r)))
			upper = false
			continue
		}
		sb.WriteRune(r)
	}
	return sb.String()
}

func single(name string, d ir.Descriptor) []output {
	return []output{{property: name, key: camel(name), value: d}}
}

// lengthValue accepts numbers, lengths, percentages, "auto" and dynamic
// values.
func lengthValue(name string, value []stylecss.Token) ([]output, error) {
	d, err := parseValue(value)
	if err != nil {
		return nil, err
	}
	switch v := d.(type) {
	case ir.Number, *ir.Func:
	case ir.String:
		if !strings.HasSuffix(string(v), "%") && v != "auto" {
			return nil, errUnsupported
		}
	default:
		return nil, errUnsupported
	}
	return single(name, d), nil
}

func numberValue(name string, value []stylecss.Token) ([]output, error) {
	d, err := parseValue(value)
	if err != nil {
		return nil, err
	}
	switch d.(type) {
	case ir.Number, *ir.Func:
		return single(name, d), nil
	}
	return nil, errUnsupported
}

// colorValue accepts a single colour component.
func colorValue(name string, value []stylecss.Token) ([]output, error) {
	d, err := parseValue(value)
	if err != nil {
		return nil, err
	}
	switch d.(type) {
	case ir.String, *ir.Func:
		return single(name, d), nil
	}
	return nil, errUnsupported
}

// keywordValue returns handler accepting listed identifiers (or any
// identifier when list is empty).
func keywordValue(words ...string) handler {
	return func(name string, value []stylecss.Token) ([]output, error) {
		d, err := parseValue(value)
		if err != nil {
			return nil, err
		}
		switch v := d.(type) {
		case *ir.Func:
			return single(name, d), nil
		case ir.String:
			if len(words) == 0 {
				return single(name, d), nil
			}
			for _, w := range words {
				if strings.EqualFold(string(v), w) {
					return single(name, ir.String(w)), nil
				}
			}
		}
		return nil, errUnsupported
	}
}

// stringValue keeps value as text: font-weight "700", font-family "Inter".
func stringValue(name string, value []stylecss.Token) ([]output, error) {
	parts := stylecss.Split(value, css.CommaToken)
	d, err := parseValue(parts[0])
	if err != nil {
		return nil, err
	}
	switch v := d.(type) {
	case ir.Number:
		return single(name, ir.String(ir.Format(v))), nil
	case ir.String, *ir.Func:
		return single(name, d), nil
	case ir.List:
		// unquoted multi word family name
		return single(name, ir.String(ir.Format(v))), nil
	}
	return nil, errUnsupported
}

// lineHeight treats unitless numbers as multiples of the font size.
func lineHeight(name string, value []stylecss.Token) ([]output, error) {
	d, err := parseValue(value)
	if err != nil {
		return nil, err
	}
	if len(value) == 1 && value[0].TokenType == css.NumberToken {
		n := d.(ir.Number)
		return single(name, &ir.Func{Kind: ir.FuncEm, Name: "em", Args: []ir.Descriptor{n}, Deferred: true}), nil
	}
	return lengthValue(name, value)
}

func aspectRatio(name string, value []stylecss.Token) ([]output, error) {
	d, err := parseValue(value)
	if err != nil {
		return nil, err
	}
	switch v := d.(type) {
	case ir.Number, *ir.Func:
		return single(name, d), nil
	case ir.String:
		if v == "auto" {
			return single(name, d), nil
		}
	case ir.List:
		if len(v) == 3 && v[1] == ir.String("/") {
			a, aok := v[0].(ir.Number)
			b, bok := v[2].(ir.Number)
			if aok && bok && b != 0 {
				return single(name, a/b), nil
			}
		}
	}
	return nil, errUnsupported
}

// boxValue expands one to four values into sides.
func boxValue(keys [4]string) handler {
	return func(name string, value []stylecss.Token) ([]output, error) {
		var parts []ir.Descriptor
		for _, c := range components(stylecss.Trim(value)) {
			d, err := parseComponent(c)
			if err != nil {
				return nil, err
			}
			parts = append(parts, d)
		}
		var sides [4]ir.Descriptor
		switch len(parts) {
		case 1:
			sides = [4]ir.Descriptor{parts[0], parts[0], parts[0], parts[0]}
		case 2:
			sides = [4]ir.Descriptor{parts[0], parts[1], parts[0], parts[1]}
		case 3:
			sides = [4]ir.Descriptor{parts[0], parts[1], parts[2], parts[1]}
		case 4:
			sides = [4]ir.Descriptor{parts[0], parts[1], parts[2], parts[3]}
		default:
			return nil, errUnsupported
		}
		out := make([]output, 4)
		for i, k := range keys {
			out[i] = output{property: name, key: k, value: sides[i]}
		}
		return out, nil
	}
}

// pairValue expands one or two values: gap, margin-inline.
func pairValue(first, second string) handler {
	return func(name string, value []stylecss.Token) ([]output, error) {
		parts := components(stylecss.Trim(value))
		if len(parts) == 0 || len(parts) > 2 {
			return nil, errUnsupported
		}
		a, err := parseComponent(parts[0])
		if err != nil {
			return nil, err
		}
		b := a
		if len(parts) == 2 {
			if b, err = parseComponent(parts[1]); err != nil {
				return nil, err
			}
		}
		return []output{{property: name, key: first, value: a}, {property: name, key: second, value: b}}, nil
	}
}

// tableValue compiles shorthand described by a table: expanded at compile
// time when static, otherwise left for the runtime.
func tableValue(t *shorthand.Table) handler {
	return func(name string, value []stylecss.Token) ([]output, error) {
		parts := components(stylecss.Trim(value))
		args := make([]ir.Descriptor, 0, len(parts))
		static := true
		for _, c := range parts {
			d, err := parseComponent(c)
			if err != nil {
				return nil, err
			}
			static = static && ir.IsStatic(d)
			args = append(args, d)
		}
		if !static {
			return []output{{property: name, key: t.Property, value: ir.Shorthand(t.Property, args...)}}, nil
		}
		plain := make([]any, len(args))
		for i, a := range args {
			plain[i] = staticPlain(a)
		}
		expanded, ok := t.Expand(plain)
		if !ok {
			return nil, errUnsupported
		}
		out := make([]output, 0, len(expanded))
		for _, k := range sortedKeys(expanded) {
			out = append(out, output{property: name, key: k, value: ir.FromValue(expanded[k])})
		}
		return out, nil
	}
}

func staticPlain(d ir.Descriptor) any {
	switch v := d.(type) {
	case ir.String:
		return string(v)
	case ir.Number:
		return float64(v)
	case ir.Bool:
		return bool(v)
	}
	return ir.Format(d)
}

func transformValue(name string, value []stylecss.Token) ([]output, error) {
	d, err := parseValue(value)
	if err != nil {
		return nil, err
	}
	var list ir.List
	switch v := d.(type) {
	case ir.List:
		list = v
	case *ir.Func:
		list = ir.List{v}
	case ir.String:
		if v == "none" {
			return single(name, ir.List{}), nil
		}
		return nil, errUnsupported
	default:
		return nil, errUnsupported
	}
	for _, e := range list {
		f, ok := e.(*ir.Func)
		if !ok || (f.Kind != ir.FuncTransform && f.Kind != ir.FuncVar) {
			return nil, errUnsupported
		}
	}
	return single(name, list), nil
}

// individualTransform handles translate, rotate and scale properties.
func individualTransform(name string, value []stylecss.Token) ([]output, error) {
	parts := components(stylecss.Trim(value))
	args := make([]ir.Descriptor, 0, len(parts))
	for _, c := range parts {
		d, err := parseComponent(c)
		if err != nil {
			return nil, err
		}
		args = append(args, d)
	}
	if len(args) == 0 || len(args) > 2 {
		return nil, errUnsupported
	}
	f := ir.NewFunc(name, args...)
	return []output{{property: name, key: "transform", value: ir.List{f}}}, nil
}

func containerName(name string, value []stylecss.Token) ([]output, error) {
	var names ir.List
	for _, c := range components(stylecss.Trim(value)) {
		if len(c) != 1 || c[0].TokenType != css.IdentToken {
			return nil, errUnsupported
		}
		names = append(names, ir.String(stylecss.Unescape(string(c[0].Data))))
	}
	if len(names) == 0 {
		return nil, errUnsupported
	}
	return []output{{property: name, key: containerKey, value: names}}, nil
}

func containerType(name string, value []stylecss.Token) ([]output, error) {
	d, err := parseValue(value)
	if err != nil {
		return nil, err
	}
	switch d {
	case ir.String("normal"):
		return nil, nil
	case ir.String("size"), ir.String("inline-size"):
		return []output{{property: name, key: containerKey, value: ir.List{ir.String("")}}}, nil
	}
	return nil, errUnsupported
}

// containerKey is a pseudo key collected into rule containers.
const containerKey = "\x00container"

var (
	lengthProps = []string{
		"width", "height", "min-width", "min-height", "max-width", "max-height",
		"top", "right", "bottom", "left", "start", "end",
		"margin-top", "margin-right", "margin-bottom", "margin-left", "margin-start", "margin-end",
		"padding-top", "padding-right", "padding-bottom", "padding-left", "padding-start", "padding-end",
		"border-width", "border-top-width", "border-right-width", "border-bottom-width", "border-left-width",
		"border-radius", "border-top-left-radius", "border-top-right-radius",
		"border-bottom-left-radius", "border-bottom-right-radius",
		"font-size", "letter-spacing", "row-gap", "column-gap", "flex-basis",
		"outline-width", "outline-offset", "stroke-width",
	}
	colorProps = []string{
		"color", "background-color", "border-color", "border-top-color", "border-right-color",
		"border-bottom-color", "border-left-color", "outline-color", "text-decoration-color",
		"caret-color", "tint-color", "fill", "stroke",
	}
	numberProps = []string{"opacity", "flex-grow", "flex-shrink", "z-index"}
)

var keywordProps = map[string][]string{
	"display":               {"flex", "none", "contents"},
	"position":              {"absolute", "relative", "static"},
	"overflow":              {"visible", "hidden", "scroll"},
	"flex-direction":        {"row", "row-reverse", "column", "column-reverse"},
	"flex-wrap":             {"wrap", "nowrap", "wrap-reverse"},
	"align-items":           {"flex-start", "flex-end", "center", "stretch", "baseline"},
	"align-self":            {"auto", "flex-start", "flex-end", "center", "stretch", "baseline"},
	"align-content":         {"flex-start", "flex-end", "center", "stretch", "space-between", "space-around", "space-evenly"},
	"justify-content":       {"flex-start", "flex-end", "center", "space-between", "space-around", "space-evenly"},
	"text-align":            {"auto", "left", "right", "center", "justify"},
	"text-transform":        {"none", "capitalize", "uppercase", "lowercase"},
	"text-decoration-line":  {"none", "underline", "line-through", "underline line-through"},
	"text-decoration-style": {"solid", "double", "dotted", "dashed"},
	"font-style":            {"normal", "italic"},
	"font-variant":          nil,
	"border-style":          {"solid", "dotted", "dashed"},
	"pointer-events":        {"auto", "none", "box-none", "box-only"},
	"backface-visibility":   {"visible", "hidden"},
	"direction":             {"inherit", "ltr", "rtl"},
	"user-select":           {"auto", "text", "none", "contain", "all"},
	"vertical-align":        {"auto", "top", "bottom", "middle"},
	"object-fit":            {"cover", "contain", "fill", "scale-down", "none"},
	"box-sizing":            {"border-box", "content-box"},
	"mix-blend-mode":        nil,
	"cursor":                {"auto", "pointer"},
}

var handlers = func() map[string]handler {
	m := map[string]handler{}
	for _, p := range lengthProps {
		m[p] = lengthValue
	}
	for _, p := range colorProps {
		m[p] = colorValue
	}
	for _, p := range numberProps {
		m[p] = numberValue
	}
	for p, words := range keywordProps {
		m[p] = keywordValue(words...)
	}
	m["font-family"] = stringValue
	m["font-weight"] = stringValue
	m["line-height"] = lineHeight
	m["aspect-ratio"] = aspectRatio
	m["transform"] = transformValue
	m["translate"] = individualTransform
	m["rotate"] = individualTransform
	m["scale"] = individualTransform
	m["container-name"] = containerName
	m["container-type"] = containerType

	for _, p := range []string{"margin", "padding", "inset", "border-color", "border-width", "border-radius"} {
		keys := shorthand.Longhands(camel(p))
		m[p] = boxValue([4]string(keys))
	}
	for _, p := range []string{"gap", "margin-inline", "margin-block", "padding-inline", "padding-block"} {
		keys := shorthand.Longhands(camel(p))
		m[p] = pairValue(keys[0], keys[1])
	}

	m["border"] = tableValue(shorthand.Border)
	m["flex"] = tableValue(shorthand.Flex)
	m["text-shadow"] = tableValue(shorthand.TextShadow)
	m["box-shadow"] = tableValue(shorthand.BoxShadow)
	m["text-decoration"] = tableValue(shorthand.TextDecoration)
	return m
}()

// compileProperty converts a declaration into outputs.
func compileProperty(decl stylecss.Declaration) ([]output, error) {
	h, ok := handlers[decl.Property]
	if !ok {
		return nil, fmt.Errorf("unknown property %q", decl.Property)
	}
	return h(decl.Property, decl.Value)
}

// known reports whether property is supported, animation and transition
// properties are compiled separately.
func known(property string) bool {
	if _, ok := handlers[property]; ok {
		return true
	}
	return strings.HasPrefix(property, "transition") || strings.HasPrefix(property, "animation")
}
