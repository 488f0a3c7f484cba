package ir

import (
	"maps"
	"slices"
	"strconv"
	"strings"
)

// Descriptor is a style value: a scalar, a plain list of descriptors or an
// unresolved function call.
type Descriptor interface {
	isDescriptor()
}

type (
	// String is a literal string value (keywords, colours, "50%", "45deg").
	String string
	// Number is a literal number, lengths are expressed in density
	// independent pixels.
	Number float64
	// Bool is a literal boolean.
	Bool bool
	// List is a plain descriptor list, for example the arguments of a
	// shorthand or a transform list.
	List []Descriptor
)

func (String) isDescriptor() {}
func (Number) isDescriptor() {}
func (Bool) isDescriptor()   {}
func (List) isDescriptor()   {}
func (*Func) isDescriptor()  {}

// FuncKind is the closed set of resolver dispatch keys.
type FuncKind int

const (
	// FuncCSS is any function the runtime does not interpret itself, it is
	// re-serialized as CSS text after its arguments are resolved (rgb(),
	// hsl(), cubic-bezier()...).
	FuncCSS FuncKind = iota
	FuncVar
	FuncCalc
	FuncEm
	FuncRem
	FuncVw
	FuncVh
	FuncVmin
	FuncVmax
	FuncCurrentColor
	FuncHairline
	FuncTransform
	FuncShorthand
)

var funcKindNames = map[string]FuncKind{
	"var":          FuncVar,
	"calc":         FuncCalc,
	"em":           FuncEm,
	"rem":          FuncRem,
	"vw":           FuncVw,
	"vh":           FuncVh,
	"vmin":         FuncVmin,
	"vmax":         FuncVmax,
	"currentcolor": FuncCurrentColor,
	"hairline":     FuncHairline,
}

// TransformFunctions are the transform list entries the runtime understands.
var TransformFunctions = map[string]bool{
	"perspective": true,
	"rotate":      true,
	"rotateX":     true,
	"rotateY":     true,
	"rotateZ":     true,
	"scale":       true,
	"scaleX":      true,
	"scaleY":      true,
	"translate":   true,
	"translateX":  true,
	"translateY":  true,
	"skew":        true,
	"skewX":       true,
	"skewY":       true,
	"matrix":      true,
}

// ShorthandPrefix marks the name of runtime shorthand functions.
const ShorthandPrefix = "@"

// ObjectShorthand is the shorthand building an object from alternating key
// and value arguments.
const ObjectShorthand = "object"

// KindOf classifies a function name.
func KindOf(name string) FuncKind {
	if k, ok := funcKindNames[name]; ok {
		return k
	}
	if TransformFunctions[name] {
		return FuncTransform
	}
	if strings.HasPrefix(name, ShorthandPrefix) {
		return FuncShorthand
	}
	return FuncCSS
}

// Func is an unresolved function call.
type Func struct {
	Kind     FuncKind
	Name     string
	Args     []Descriptor
	Deferred bool
}

// NewFunc creates function descriptor classifying it by name.
func NewFunc(name string, args ...Descriptor) *Func {
	return &Func{Kind: KindOf(name), Name: name, Args: args}
}

// Var is a shortcut for var(--name, fallback?).
func Var(name string, fallback ...Descriptor) *Func {
	return NewFunc("var", append([]Descriptor{String(name)}, fallback...)...)
}

// Shorthand creates runtime shorthand for the property.
func Shorthand(property string, args ...Descriptor) *Func {
	return NewFunc(ShorthandPrefix+property, args...)
}

// Object creates descriptor resolving into a map, args alternate keys and
// values.
func Object(args ...Descriptor) *Func {
	return Shorthand(ObjectShorthand, args...)
}

// ShorthandName returns the property name of a shorthand function.
func (f *Func) ShorthandName() string {
	return strings.TrimPrefix(f.Name, ShorthandPrefix)
}

// Arg returns i-th argument or nil.
func (f *Func) Arg(i int) Descriptor {
	if i < 0 || i >= len(f.Args) {
		return nil
	}
	return f.Args[i]
}

// FromValue converts plain Go value back to descriptor. Maps become object
// shorthands with sorted keys, unsupported values become nil.
func FromValue(v any) Descriptor {
	switch x := v.(type) {
	case string:
		return String(x)
	case float64:
		return Number(x)
	case int:
		return Number(x)
	case bool:
		return Bool(x)
	case []any:
		out := make(List, len(x))
		for i, e := range x {
			out[i] = FromValue(e)
		}
		return out
	case map[string]any:
		args := make([]Descriptor, 0, 2*len(x))
		for _, k := range slices.Sorted(maps.Keys(x)) {
			args = append(args, String(k), FromValue(x[k]))
		}
		return Object(args...)
	}
	return nil
}

// IsStatic reports whether descriptor can be used without runtime resolution.
func IsStatic(d Descriptor) bool {
	switch v := d.(type) {
	case *Func:
		return false
	case List:
		for _, e := range v {
			if !IsStatic(e) {
				return false
			}
		}
	}
	return true
}

// HasDeferred reports whether resolution of descriptor must wait for all
// other declarations of the render.
func HasDeferred(d Descriptor) bool {
	switch v := d.(type) {
	case *Func:
		if v.Deferred {
			return true
		}
		for _, a := range v.Args {
			if HasDeferred(a) {
				return true
			}
		}
	case List:
		for _, e := range v {
			if HasDeferred(e) {
				return true
			}
		}
	}
	return false
}

// Walk calls fn for every descriptor in the tree rooted at d, depth first.
func Walk(d Descriptor, fn func(Descriptor)) {
	if d == nil {
		return
	}
	fn(d)
	switch v := d.(type) {
	case *Func:
		for _, a := range v.Args {
			Walk(a, fn)
		}
	case List:
		for _, e := range v {
			Walk(e, fn)
		}
	}
}

// Format renders descriptor as CSS-like text, used for debugging and for
// FuncCSS re-serialization.
func Format(d Descriptor) string {
	switch v := d.(type) {
	case nil:
		return ""
	case String:
		return string(v)
	case Number:
		return strconv.FormatFloat(float64(v), 'f', -1, 64)
	case Bool:
		return strconv.FormatBool(bool(v))
	case List:
		parts := make([]string, len(v))
		for i, e := range v {
			parts[i] = Format(e)
		}
		return strings.Join(parts, " ")
	case *Func:
		parts := make([]string, len(v.Args))
		for i, a := range v.Args {
			parts[i] = Format(a)
		}
		return v.Name + "(" + strings.Join(parts, ", ") + ")"
	}
	return ""
}

func descriptorPlain(d Descriptor) any {
	switch v := d.(type) {
	case nil:
		return nil
	case String:
		return string(v)
	case Number:
		return float64(v)
	case Bool:
		return bool(v)
	case List:
		out := make([]any, len(v))
		for i, e := range v {
			out[i] = descriptorPlain(e)
		}
		return out
	case *Func:
		out := []any{map[string]any{}, v.Name}
		if len(v.Args) > 0 || v.Deferred {
			args := make([]any, len(v.Args))
			for i, a := range v.Args {
				args[i] = descriptorPlain(a)
			}
			out = append(out, args)
		}
		if v.Deferred {
			out = append(out, float64(1))
		}
		return out
	}
	panic("unknown descriptor type")
}

func isMarker(v any) bool {
	m, ok := v.(map[string]any)
	return ok && len(m) == 0
}

func descriptorFromPlain(v any) (Descriptor, error) {
	switch x := v.(type) {
	case nil:
		return nil, nil
	case string:
		return String(x), nil
	case float64:
		return Number(x), nil
	case bool:
		return Bool(x), nil
	case []any:
		if len(x) >= 2 && isMarker(x[0]) {
			return funcFromPlain(x)
		}
		out := make(List, len(x))
		for i, e := range x {
			d, err := descriptorFromPlain(e)
			if err != nil {
				return nil, err
			}
			out[i] = d
		}
		return out, nil
	}
	return nil, typeError("descriptor", "scalar or list", v)
}

func funcFromPlain(x []any) (*Func, error) {
	name, ok := x[1].(string)
	if !ok {
		return nil, typeError("function name", "string", x[1])
	}
	f := NewFunc(name)
	if len(x) > 2 {
		args, ok := x[2].([]any)
		if !ok {
			return nil, typeError("function arguments", "list", x[2])
		}
		for _, a := range args {
			d, err := descriptorFromPlain(a)
			if err != nil {
				return nil, err
			}
			f.Args = append(f.Args, d)
		}
	}
	if len(x) > 3 {
		flag, _ := x[3].(float64)
		f.Deferred = flag == 1
	}
	return f, nil
}
