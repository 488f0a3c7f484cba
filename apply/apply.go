// Package apply writes collected declarations into the props of a rendered
// element.
//
// Declarations of normal rules are applied first, then running animations
// are attached, then important rules are applied, so important rules win
// regardless of their specificity. Declarations which need every other
// value of the pass are resolved last.
package apply

import (
	"maps"
	"slices"

	"go.uber.org/zap"

	"stylo/collect"
	"stylo/ir"
	"stylo/registry"
	"stylo/resolve"
)

// DefaultTarget is the prop style objects are written into.
const DefaultTarget = "style"

// ClassNameProp is the prop holding class names, it is consumed by the
// applier and never passed through.
const ClassNameProp = "className"

// Options control output layout.
type Options struct {
	// Target is the wrapper prop relative declarations are written into.
	Target string
	// NativeStyleToProp moves style keys out of the target wrapper into
	// props, for example SVG fill and stroke. Values are dotted prop paths.
	NativeStyleToProp map[string]string
}

// Output is the result of applying a collection pass.
type Output struct {
	Props       map[string]any
	Transitions []TransitionEffect
	Animations  []AnimationEffect
}

// Applier applies styles of a single element and remembers transitioned
// values between passes.
type Applier struct {
	log  *zap.Logger
	reg  *registry.Registry
	opts Options

	// settled holds last target value of every transitioned style key
	settled map[string]any
}

// New creates applier for a single element.
func New(log *zap.Logger, reg *registry.Registry, opts Options) *Applier {
	if log == nil {
		log = zap.NewNop()
	}
	if opts.Target == "" {
		opts.Target = DefaultTarget
	}
	return &Applier{
		log:     log.Named("apply"),
		reg:     reg,
		opts:    opts,
		settled: make(map[string]any),
	}
}

// Target returns the wrapper prop relative declarations are written into.
func (a *Applier) Target() string {
	return a.opts.Target
}

// placeholder marks value of a deferred declaration until the second pass,
// every deferred declaration writes its own one.
type placeholder struct {
	decl int
}

type deferred struct {
	decl   ir.Declaration
	marker *placeholder
}

// pass is the state of a single Apply call.
type pass struct {
	a        *Applier
	r        *resolve.Resolver
	props    map[string]any
	style    map[string]any
	deferred []deferred
}

// Apply writes declarations of res on top of props. Resolver scope gets
// the style object being built, so that em and currentcolor see values
// written so far.
func (a *Applier) Apply(res *collect.Result, r *resolve.Resolver, props map[string]any) *Output {
	out := maps.Clone(props)
	if out == nil {
		out = make(map[string]any)
	}
	delete(out, ClassNameProp)
	delete(out, a.opts.Target)

	p := &pass{a: a, r: r, props: out, style: make(map[string]any)}
	r.Scope().Style = p.style

	for _, rule := range res.Normal {
		p.rule(rule)
	}
	animations := a.attach(res.Animation, p)
	for _, rule := range res.Important {
		p.rule(rule)
	}
	p.finish()

	transitions := a.transitions(res.Transition, p.style)

	for _, key := range slices.Sorted(maps.Keys(a.opts.NativeStyleToProp)) {
		v, ok := p.style[key]
		if !ok {
			continue
		}
		delete(p.style, key)
		set(out, ir.ParsePath(a.opts.NativeStyleToProp[key]).Keys, v)
	}
	if len(p.style) > 0 {
		out[a.opts.Target] = p.style
	}
	return &Output{Props: out, Transitions: transitions, Animations: animations}
}

func (p *pass) rule(rule *ir.StyleRule) {
	for _, d := range rule.Declarations {
		if d.IsStatic() {
			for _, k := range slices.Sorted(maps.Keys(d.Static)) {
				p.write(ir.RelativePath(k), p.r.Resolve(d.Static[k], k))
			}
			continue
		}
		if d.Deferred || ir.HasDeferred(d.Value) {
			marker := &placeholder{decl: len(p.deferred)}
			p.write(d.Path, marker)
			p.deferred = append(p.deferred, deferred{decl: d, marker: marker})
			continue
		}
		p.write(d.Path, p.r.Resolve(d.Value, d.Path.Last()))
	}
}

// finish resolves deferred declarations whose placeholder was not replaced
// by a later declaration.
func (p *pass) finish() {
	for _, d := range p.deferred {
		root := p.root(d.decl.Path)
		if m, ok := get(root, d.decl.Path.Keys).(*placeholder); !ok || m != d.marker {
			continue
		}
		del(root, d.decl.Path.Keys)
		p.write(d.decl.Path, p.r.Resolve(d.decl.Value, d.decl.Path.Last()))
	}
	p.deferred = nil
}

func (p *pass) root(path ir.Path) map[string]any {
	if path.Absolute {
		return p.props
	}
	return p.style
}

// write stores value at path, shorthand results are spread next to the
// declared key. Undefined values are not written.
func (p *pass) write(path ir.Path, v any) {
	if v == nil || len(path.Keys) == 0 {
		return
	}
	root := p.root(path)
	if lh, ok := v.(resolve.Longhands); ok {
		parent := path.Parent()
		for _, k := range slices.Sorted(maps.Keys(lh)) {
			set(root, parent.Child(k).Keys, lh[k])
		}
		return
	}
	set(root, path.Keys, v)
}

func set(m map[string]any, keys []string, v any) {
	for _, k := range keys[:len(keys)-1] {
		next, ok := m[k].(map[string]any)
		if !ok {
			next = make(map[string]any)
			m[k] = next
		}
		m = next
	}
	m[keys[len(keys)-1]] = v
}

func get(m map[string]any, keys []string) any {
	for _, k := range keys[:len(keys)-1] {
		next, ok := m[k].(map[string]any)
		if !ok {
			return nil
		}
		m = next
	}
	return m[keys[len(keys)-1]]
}

func del(m map[string]any, keys []string) {
	for _, k := range keys[:len(keys)-1] {
		next, ok := m[k].(map[string]any)
		if !ok {
			return
		}
		m = next
	}
	delete(m, keys[len(keys)-1])
}
