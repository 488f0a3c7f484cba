// Package resolve turns descriptors of collected declarations into plain
// values: float64 for numbers and lengths, string for keywords, colours and
// units the host understands, bool, []any and map[string]any.
//
// Cells read while resolving (variables, unit bases, layout sizes) are read
// with tracking, so resolution performed inside an element effect makes the
// element depend on them.
package resolve

import (
	"strconv"
	"strings"

	"go.uber.org/zap"

	"stylo/ir"
	"stylo/registry"
	"stylo/shorthand"
)

// Longhands is the result of a runtime shorthand, its keys are written next
// to the declared key instead of under it.
type Longhands map[string]any

// Scope is everything a declaration value may refer to besides registry
// cells.
type Scope struct {
	Identity *registry.Identity
	// Variables declared by rules matching the element.
	Variables map[string]ir.Descriptor
	// Inherited variables, already resolved by ancestors.
	Inherited map[string]any
	// Style is the style object being built, consulted by em and
	// currentcolor.
	Style map[string]any
	// ParentFontSize is the font size em refers to when the element does
	// not set its own, zero means root font size.
	ParentFontSize float64
}

// Resolver evaluates descriptors within a scope. It caches resolved local
// variables and must not be reused across passes.
type Resolver struct {
	log   *zap.Logger
	reg   *registry.Registry
	scope *Scope

	locals map[string]any
	busy   map[string]bool
}

// New creates resolver for a single pass.
func New(log *zap.Logger, reg *registry.Registry, scope *Scope) *Resolver {
	if log == nil {
		log = zap.NewNop()
	}
	if scope == nil {
		scope = &Scope{}
	}
	return &Resolver{
		log:    log.Named("resolve"),
		reg:    reg,
		scope:  scope,
		locals: make(map[string]any),
		busy:   make(map[string]bool),
	}
}

// Scope returns scope the resolver works in.
func (r *Resolver) Scope() *Scope {
	return r.scope
}

// Resolve evaluates descriptor for the output key property. Nil means the
// value is undefined and nothing must be written.
func (r *Resolver) Resolve(d ir.Descriptor, property string) any {
	switch v := d.(type) {
	case nil:
		return nil
	case ir.String:
		return string(v)
	case ir.Number:
		return float64(v)
	case ir.Bool:
		return bool(v)
	case ir.List:
		return r.list(v, property)
	case *ir.Func:
		return r.function(v, property)
	}
	return nil
}

// list resolves elements left to right, undefined elements are skipped and
// transform functions expanding to several entries are flattened.
func (r *Resolver) list(l ir.List, property string) any {
	out := make([]any, 0, len(l))
	for _, e := range l {
		v := r.Resolve(e, property)
		if v == nil {
			continue
		}
		if items, ok := v.([]any); ok && flattens(e) {
			out = append(out, items...)
			continue
		}
		out = append(out, v)
	}
	return out
}

func flattens(d ir.Descriptor) bool {
	f, ok := d.(*ir.Func)
	return ok && (f.Kind == ir.FuncTransform || f.Kind == ir.FuncVar)
}

func (r *Resolver) function(f *ir.Func, property string) any {
	switch f.Kind {
	case ir.FuncVar:
		return r.variable(f, property)
	case ir.FuncCalc:
		return r.calc(f, property)
	case ir.FuncEm:
		return r.scaled(f, property, r.fontSize(property))
	case ir.FuncRem:
		return r.scaled(f, property, r.reg.Env.Rem.Get())
	case ir.FuncVw:
		return r.scaled(f, property, r.reg.Env.Width.Get()/100)
	case ir.FuncVh:
		return r.scaled(f, property, r.reg.Env.Height.Get()/100)
	case ir.FuncVmin:
		return r.scaled(f, property, min(r.reg.Env.Width.Get(), r.reg.Env.Height.Get())/100)
	case ir.FuncVmax:
		return r.scaled(f, property, max(r.reg.Env.Width.Get(), r.reg.Env.Height.Get())/100)
	case ir.FuncCurrentColor:
		if c, ok := r.scope.Style["color"]; ok {
			return c
		}
		return nil
	case ir.FuncHairline:
		ratio := r.reg.Env.PixelRatio.Get()
		if ratio <= 0 {
			return float64(1)
		}
		return 1 / ratio
	case ir.FuncTransform:
		return r.transform(f, property)
	case ir.FuncShorthand:
		return r.shorthand(f, property)
	}
	return r.css(f, property)
}

// variable looks name up in local, universal, inherited and root scopes in
// that order, then falls back to the second argument.
func (r *Resolver) variable(f *ir.Func, property string) any {
	name, ok := f.Arg(0).(ir.String)
	if !ok {
		return nil
	}
	if v := r.Variable(string(name)); v != nil {
		return v
	}
	return r.Resolve(f.Arg(1), property)
}

// Variable resolves custom property by name, nil when it is not declared
// in any scope.
func (r *Resolver) Variable(name string) any {
	if v, ok := r.local(name); ok {
		return v
	}
	if v := r.theme(r.reg.Universal(name).Get(), name); v != nil {
		return v
	}
	if v, ok := r.scope.Inherited[name]; ok && v != nil {
		return v
	}
	return r.theme(r.reg.Root(name).Get(), name)
}

func (r *Resolver) local(name string) (any, bool) {
	if v, ok := r.locals[name]; ok {
		return v, v != nil
	}
	d, ok := r.scope.Variables[name]
	if !ok || r.busy[name] {
		// undeclared or referencing itself
		return nil, false
	}
	r.busy[name] = true
	v := r.Resolve(d, name)
	delete(r.busy, name)
	r.locals[name] = v
	return v, v != nil
}

func (r *Resolver) theme(tv *ir.ThemeVariable, name string) any {
	d := r.reg.ThemeValue(tv)
	if d == nil || r.busy[name] {
		return nil
	}
	r.busy[name] = true
	defer delete(r.busy, name)
	return r.Resolve(d, name)
}

// Variables resolves every local variable, result is inherited by child
// elements.
func (r *Resolver) Variables() map[string]any {
	out := make(map[string]any, len(r.scope.Variables))
	for name := range r.scope.Variables {
		if v, ok := r.local(name); ok {
			out[name] = v
		}
	}
	return out
}

func (r *Resolver) scaled(f *ir.Func, property string, base float64) any {
	n, ok := r.Resolve(f.Arg(0), property).(float64)
	if !ok {
		return nil
	}
	return n * base
}

// fontSize returns base of em units. Font size itself is relative to the
// parent font size.
func (r *Resolver) fontSize(property string) float64 {
	if property != "fontSize" {
		if fs, ok := r.scope.Style["fontSize"].(float64); ok {
			return fs
		}
	}
	if r.scope.ParentFontSize > 0 {
		return r.scope.ParentFontSize
	}
	return r.reg.Env.Rem.Get()
}

// css re-serializes function the runtime does not interpret once its
// arguments are known: rgb(var(--r), 0, 0) becomes "rgb(255, 0, 0)".
func (r *Resolver) css(f *ir.Func, property string) any {
	args := make([]string, 0, len(f.Args))
	for _, a := range f.Args {
		v := r.Resolve(a, property)
		if v == nil {
			return nil
		}
		args = append(args, Text(v))
	}
	return f.Name + "(" + strings.Join(args, ", ") + ")"
}

// Text formats resolved value as CSS text.
func Text(v any) string {
	switch x := v.(type) {
	case string:
		return x
	case float64:
		return strconv.FormatFloat(x, 'f', -1, 64)
	case bool:
		return strconv.FormatBool(x)
	case []any:
		parts := make([]string, len(x))
		for i, e := range x {
			parts[i] = Text(e)
		}
		return strings.Join(parts, " ")
	}
	return ""
}

func (r *Resolver) shorthand(f *ir.Func, property string) any {
	name := f.ShorthandName()
	if name == ir.ObjectShorthand {
		return r.object(f, property)
	}
	t := shorthand.Lookup(name)
	if t == nil {
		r.log.Debug("Unknown shorthand", zap.String("name", name))
		return nil
	}
	args := make([]any, 0, len(f.Args))
	for _, a := range f.Args {
		v := r.Resolve(a, property)
		if v == nil {
			continue
		}
		if items, ok := v.([]any); ok && flattens(a) {
			// var() holding several components
			args = append(args, items...)
			continue
		}
		args = append(args, v)
	}
	out, ok := t.Expand(args)
	if !ok {
		r.log.Debug("Shorthand arguments do not match", zap.String("name", name), zap.Any("args", args))
		return nil
	}
	return Longhands(out)
}

// object builds map from alternating key and value arguments, undefined
// values are left out.
func (r *Resolver) object(f *ir.Func, property string) any {
	out := make(map[string]any, len(f.Args)/2)
	for i := 0; i+1 < len(f.Args); i += 2 {
		k, ok := f.Args[i].(ir.String)
		if !ok {
			continue
		}
		if v := r.Resolve(f.Args[i+1], string(k)); v != nil {
			out[string(k)] = v
		}
	}
	return out
}
