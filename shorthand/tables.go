package shorthand

import "slices"

// Compile time tables.
var (
	// Transition splits a single item of "transition" list.
	Transition = register(&Table{
		Property: "transition",
		Fields: []Field{
			{Name: "duration", Match: Duration, Default: Time(0)},
			{Name: "delay", Match: Duration, Default: Time(0)},
			{Name: "timingFunction", Match: Easing, Default: "ease"},
			{Name: "property", Match: Property, Default: "all"},
		},
	})

	// Animation splits a single item of "animation" list.
	Animation = register(&Table{
		Property: "animation",
		Fields: []Field{
			{Name: "duration", Match: Duration, Default: Time(0)},
			{Name: "delay", Match: Duration, Default: Time(0)},
			{Name: "iterationCount", Match: AnyOf(Number, Keyword("infinite")), Default: float64(1)},
			{Name: "timingFunction", Match: Easing, Default: "ease"},
			{Name: "direction", Match: Keyword("normal", "reverse", "alternate", "alternate-reverse"), Default: "normal"},
			{Name: "fillMode", Match: Keyword("none", "forwards", "backwards", "both"), Default: "none"},
			{Name: "playState", Match: Keyword("running", "paused"), Default: "running"},
			{Name: "name", Match: Ident, Default: "none"},
		},
	})
)

// Runtime tables, arguments are known only after resolution.
var (
	TextShadow = register(&Table{
		Property: "textShadow",
		Fields: []Field{
			{Name: "offsetX", Match: Number},
			{Name: "offsetY", Match: Number},
			{Name: "blurRadius", Match: Number, Default: float64(0)},
			{Name: "color", Match: Color, Default: "black"},
		},
		Shapes: [][]string{
			{"offsetX", "offsetY", "blurRadius", "color"},
			{"offsetX", "offsetY", "color"},
			{"color", "offsetX", "offsetY", "blurRadius"},
		},
		Output: func(f map[string]any) map[string]any {
			return map[string]any{
				"textShadowOffset": map[string]any{"width": f["offsetX"], "height": f["offsetY"]},
				"textShadowRadius": f["blurRadius"],
				"textShadowColor":  f["color"],
			}
		},
	})

	BoxShadow = register(&Table{
		Property: "boxShadow",
		Fields: []Field{
			{Name: "inset", Match: Keyword("inset"), Optional: true},
			{Name: "offsetX", Match: Number},
			{Name: "offsetY", Match: Number},
			{Name: "blurRadius", Match: Number, Default: float64(0)},
			{Name: "spreadDistance", Match: Number, Default: float64(0)},
			{Name: "color", Match: Color, Default: "black"},
		},
		Output: func(f map[string]any) map[string]any {
			shadow := map[string]any{
				"offsetX":        f["offsetX"],
				"offsetY":        f["offsetY"],
				"blurRadius":     f["blurRadius"],
				"spreadDistance": f["spreadDistance"],
				"color":          f["color"],
			}
			if _, ok := f["inset"]; ok {
				shadow["inset"] = true
			}
			return map[string]any{"boxShadow": []any{shadow}}
		},
	})

	Border = register(&Table{
		Property: "border",
		Fields: []Field{
			{Name: "width", Match: AnyOf(Number, Keyword("thin", "medium", "thick")), Default: float64(0)},
			{Name: "style", Match: Keyword("solid", "dashed", "dotted", "none"), Default: "solid"},
			{Name: "color", Match: Color, Default: "black"},
		},
		Output: func(f map[string]any) map[string]any {
			return map[string]any{
				"borderWidth": borderWidth(f["width"]),
				"borderStyle": f["style"],
				"borderColor": f["color"],
			}
		},
	})

	Flex = register(&Table{
		Property: "flex",
		Fields: []Field{
			{Name: "grow", Match: AnyOf(Number, Keyword("none", "auto")), Default: float64(1)},
			{Name: "shrink", Match: Number, Default: float64(1)},
			{Name: "basis", Match: AnyOf(Length, Keyword("auto", "content")), Default: "0%"},
		},
		Shapes: [][]string{
			{"grow", "shrink", "basis"},
			{"grow", "basis"},
		},
		Output: func(f map[string]any) map[string]any {
			switch f["grow"] {
			case "none":
				return map[string]any{"flexGrow": float64(0), "flexShrink": float64(0), "flexBasis": "auto"}
			case "auto":
				return map[string]any{"flexGrow": float64(1), "flexShrink": float64(1), "flexBasis": "auto"}
			}
			return map[string]any{"flexGrow": f["grow"], "flexShrink": f["shrink"], "flexBasis": f["basis"]}
		},
	})

	TextDecoration = register(&Table{
		Property: "textDecoration",
		Fields: []Field{
			{Name: "line", Match: Keyword("none", "underline", "line-through", "underline line-through"), Default: "none"},
			{Name: "style", Match: Keyword("solid", "double", "dotted", "dashed"), Default: "solid"},
			{Name: "color", Match: Color, Default: "black"},
		},
		Output: func(f map[string]any) map[string]any {
			return map[string]any{
				"textDecorationLine":  f["line"],
				"textDecorationStyle": f["style"],
				"textDecorationColor": f["color"],
			}
		},
	})
)

func borderWidth(v any) any {
	switch v {
	case "thin":
		return float64(1)
	case "medium":
		return float64(3)
	case "thick":
		return float64(5)
	}
	return v
}

// Box and pair shorthands, keyed by camel case name. Values are the keys
// the shorthand is written to, box shorthands in the order their values
// are listed.
var longhands = map[string][]string{
	"margin":        {"marginTop", "marginRight", "marginBottom", "marginLeft"},
	"padding":       {"paddingTop", "paddingRight", "paddingBottom", "paddingLeft"},
	"inset":         {"top", "right", "bottom", "left"},
	"borderColor":   {"borderTopColor", "borderRightColor", "borderBottomColor", "borderLeftColor"},
	"borderWidth":   {"borderTopWidth", "borderRightWidth", "borderBottomWidth", "borderLeftWidth"},
	"borderRadius":  {"borderTopLeftRadius", "borderTopRightRadius", "borderBottomRightRadius", "borderBottomLeftRadius"},
	"gap":           {"rowGap", "columnGap"},
	"marginInline":  {"marginStart", "marginEnd"},
	"marginBlock":   {"marginTop", "marginBottom"},
	"paddingInline": {"paddingStart", "paddingEnd"},
	"paddingBlock":  {"paddingTop", "paddingBottom"},
}

// Longhands returns keys shorthand property (camel case) is written to, nil
// when property is not a box or pair shorthand.
func Longhands(property string) []string {
	return longhands[property]
}

// Covers reports whether writing property sets key, either directly or
// through one of its longhands.
func Covers(property, key string) bool {
	return property == key || slices.Contains(longhands[property], key)
}
