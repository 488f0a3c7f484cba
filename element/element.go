// Package element binds styles to a rendered component: the host calls
// Render during its render phase, Commit once the render is committed, the
// interaction setters from event handlers and Unmount when the component
// goes away.
//
// Every render pass runs inside a fresh effect, the previous one is
// detached. When any cell read by the pass changes the effect posts the
// element token (the ID of its identity) to the host queue, the host
// re-renders the element. Elements dropped without Unmount release their
// effect once collected.
package element

import (
	"maps"
	"reflect"
	"runtime"

	"github.com/google/uuid"

	"go.uber.org/zap"

	"stylo/apply"
	"stylo/collect"
	"stylo/match"
	"stylo/reactive"
	"stylo/registry"
	"stylo/resolve"
)

// Context is what an element passes down to its children.
type Context struct {
	// Variables are resolved custom properties visible to children.
	Variables map[string]any
	// Containers maps container names to ancestors, "" is the nearest.
	Containers map[string]*match.Container
	// FontSize is the font size em units of children refer to.
	FontSize float64
}

// Rendered is the result of a render pass.
type Rendered struct {
	Props map[string]any
	Child *Context
	// Epoch of the collection pass which produced props.
	Epoch uint64
}

// Element is the style binding of a single mounted component. It must be
// used from the goroutine owning the registry graph.
type Element struct {
	log *zap.Logger
	reg *registry.Registry
	id  *registry.Identity

	queue     reactive.Queue
	matcher   *match.Matcher
	collector *collect.Collector
	applier   *apply.Applier

	bound   *binding
	ctx     *Context
	props   map[string]any
	last    *Rendered
	pending *apply.Output
	passes  int
}

// binding holds current effect of an element. It is shared with the
// element cleanup and must not reference the element or its identity.
type binding struct {
	graph  *reactive.Graph
	effect *reactive.Effect
}

func (b *binding) release() {
	b.graph.Release(b.effect)
}

// New creates element posting its token to queue whenever it has to be
// rendered again.
func New(log *zap.Logger, reg *registry.Registry, name string, queue reactive.Queue, opts apply.Options) *Element {
	if log == nil {
		log = zap.NewNop()
	}
	log = log.Named("element")
	m := match.New(reg)
	e := &Element{
		log:       log,
		reg:       reg,
		id:        registry.NewIdentity(name),
		queue:     queue,
		matcher:   m,
		collector: collect.New(log, reg, m),
		applier:   apply.New(log, reg, opts),
		bound:     &binding{graph: reg.Graph()},
	}
	runtime.AddCleanup(e, (*binding).release, e.bound)
	return e
}

// Identity returns identity interaction and layout cells are keyed by.
func (e *Element) Identity() *registry.Identity {
	return e.id
}

// Token returns value posted to the queue when element has to be rendered
// again. It does not keep identity alive.
func (e *Element) Token() uuid.UUID {
	return e.id.ID
}

// Passes returns number of render passes which actually recomputed styles.
func (e *Element) Passes() int {
	return e.passes
}

// Render computes props of the element. When nothing the previous pass
// depended on changed, the previous result is returned as is.
func (e *Element) Render(ctx *Context, props map[string]any) *Rendered {
	if ctx == nil {
		ctx = &Context{}
	}
	el := &match.Element{Identity: e.id, Props: props, Containers: ctx.Containers}
	if e.reusable(ctx, props, el) {
		return e.last
	}

	var (
		res    *collect.Result
		out    *apply.Output
		vars   map[string]any
		effect = e.reg.Graph().NewEffect(e.id.ID, e.queue)
	)
	effect.Track(func() {
		className, _ := props[apply.ClassNameProp].(string)
		inline, _ := props[e.applier.Target()].(map[string]any)
		res = e.collector.Collect(el, className, inline)

		r := resolve.New(e.log, e.reg, &resolve.Scope{
			Identity:       e.id,
			Variables:      res.Variables,
			Inherited:      ctx.Variables,
			ParentFontSize: ctx.FontSize,
		})
		out = e.applier.Apply(res, r, props)
		vars = r.Variables()
	})
	if e.bound.effect != nil {
		e.bound.effect.Cleanup()
	}
	e.bound.effect = effect
	e.passes++

	e.ctx, e.props, e.pending = ctx, props, out
	e.last = &Rendered{
		Props: out.Props,
		Child: e.child(ctx, res, out, vars, props),
		Epoch: res.Epoch,
	}
	e.log.Debug("Rendered",
		zap.Stringer("element", e.id),
		zap.Uint64("epoch", res.Epoch),
		zap.Int("dependencies", effect.Len()))
	return e.last
}

func (e *Element) reusable(ctx *Context, props map[string]any, el *match.Element) bool {
	if e.last == nil || e.bound.effect == nil || e.bound.effect.Stale() {
		return false
	}
	if ctx != e.ctx && !reflect.DeepEqual(ctx, e.ctx) {
		return false
	}
	if !reflect.DeepEqual(props, e.props) {
		return false
	}
	return e.matcher.Valid(e.collector.Last().Guards, el)
}

func (e *Element) child(ctx *Context, res *collect.Result, out *apply.Output, vars map[string]any, props map[string]any) *Context {
	child := &Context{
		Variables:  ctx.Variables,
		Containers: ctx.Containers,
		FontSize:   ctx.FontSize,
	}
	if len(vars) > 0 {
		child.Variables = maps.Clone(ctx.Variables)
		if child.Variables == nil {
			child.Variables = make(map[string]any, len(vars))
		}
		maps.Copy(child.Variables, vars)
	}
	if len(res.Containers) > 0 {
		child.Containers = maps.Clone(ctx.Containers)
		if child.Containers == nil {
			child.Containers = make(map[string]*match.Container, len(res.Containers)+1)
		}
		c := &match.Container{Identity: e.id, Props: props}
		child.Containers[""] = c
		for _, name := range res.Containers {
			child.Containers[name] = c
		}
	}
	if style, ok := out.Props[e.applier.Target()].(map[string]any); ok {
		if fs, ok := style["fontSize"].(float64); ok {
			child.FontSize = fs
		}
	}
	return child
}

// Commit hands side effects of the last render to driver. Effects are
// handed over once.
func (e *Element) Commit(d apply.Driver) {
	if e.pending == nil {
		return
	}
	for _, t := range e.pending.Transitions {
		d.Transition(t)
	}
	for _, a := range e.pending.Animations {
		d.Animate(a)
	}
	e.pending = nil
}

// SetHover updates hover state.
func (e *Element) SetHover(v bool) {
	e.reg.Hover(e.id).Set(v)
}

// SetActive updates pressed state.
func (e *Element) SetActive(v bool) {
	e.reg.Active(e.id).Set(v)
}

// SetFocus updates focus state.
func (e *Element) SetFocus(v bool) {
	e.reg.Focus(e.id).Set(v)
}

// SetLayout updates layout size, both values are written in one batch.
func (e *Element) SetLayout(width, height float64) {
	e.reg.Graph().Batch(func() {
		e.reg.Width(e.id).Set(width)
		e.reg.Height(e.id).Set(height)
	})
}

// Unmount detaches the element from every cell. Interaction and layout
// cells are released once the element and its identity are collected.
func (e *Element) Unmount() {
	if e.bound.effect != nil {
		e.bound.effect.Cleanup()
	}
	e.bound.effect, e.last, e.pending = nil, nil, nil
	e.log.Debug("Unmounted", zap.Stringer("element", e.id))
}
