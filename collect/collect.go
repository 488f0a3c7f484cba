// Package collect gathers the rules of a rendered element: it looks up rule
// sets of the element class names, matches their conditions and orders the
// matching rules by specificity.
package collect

import (
	"maps"
	"reflect"
	"slices"
	"strings"

	"go.uber.org/zap"

	"stylo/ir"
	"stylo/match"
	"stylo/reactive"
	"stylo/registry"
)

// Result is the outcome of a collection pass. Slices keep their identity
// while nothing changes, so consumers may compare them cheaply.
type Result struct {
	// Epoch advances whenever any collected set differs from the previous
	// pass.
	Epoch uint64

	Normal    []*ir.StyleRule
	Important []*ir.StyleRule
	// Variables declared by matching rules, later rules win.
	Variables  map[string]ir.Descriptor
	Animation  *ir.Animation
	Transition *ir.Transition
	// Containers lists names the element declares itself a container
	// under, "" when it is an anonymous container.
	Containers []string
	Guards     []match.Guard
}

// Collector keeps the previous result of a single element.
type Collector struct {
	log     *zap.Logger
	reg     *registry.Registry
	matcher *match.Matcher

	last       Result
	inline     map[string]any
	inlineRule *ir.StyleRule
}

// New creates collector for a single element.
func New(log *zap.Logger, reg *registry.Registry, matcher *match.Matcher) *Collector {
	if log == nil {
		log = zap.NewNop()
	}
	return &Collector{log: log.Named("collect"), reg: reg, matcher: matcher}
}

// Last returns result of the previous pass.
func (c *Collector) Last() *Result {
	return &c.last
}

// Classes splits class name attribute, duplicates are dropped.
func Classes(className string) []string {
	var out []string
	for name := range strings.FieldsSeq(className) {
		if !slices.Contains(out, name) {
			out = append(out, name)
		}
	}
	return out
}

// Collect runs a collection pass. Rule cells are read with tracking, so
// when called inside an effect the effect depends on every rule set of the
// element class names. Inline style is treated as a rule of inline
// specificity.
func (c *Collector) Collect(el *match.Element, className string, inline map[string]any) *Result {
	var (
		normal, important []*ir.StyleRule
		guards            []match.Guard
	)
	for _, name := range Classes(className) {
		set := c.reg.Rules(name).Get()
		if set == nil {
			continue
		}
		for _, r := range set.Normal {
			if c.matcher.Match(r, el, &guards) {
				normal = append(normal, r)
			}
		}
		for _, r := range set.Important {
			if c.matcher.Match(r, el, &guards) {
				important = append(important, r)
			}
		}
	}
	if r := c.inlineStyle(inline); r != nil {
		normal = append(normal, r)
	}
	bySpecificity := func(a, b *ir.StyleRule) int { return a.Specificity.Compare(b.Specificity) }
	slices.SortStableFunc(normal, bySpecificity)
	slices.SortStableFunc(important, bySpecificity)

	var (
		vars       map[string]ir.Descriptor
		animation  *ir.Animation
		transition *ir.Transition
		containers []string
	)
	for _, r := range slices.Concat(normal, important) {
		for _, v := range r.Variables {
			if vars == nil {
				vars = make(map[string]ir.Descriptor)
			}
			vars[v.Name] = v.Value
		}
		animation = animation.Merge(r.Animation)
		transition = transition.Merge(r.Transition)
		for _, name := range r.Containers {
			if !slices.Contains(containers, name) {
				containers = append(containers, name)
			}
		}
	}

	next := Result{Epoch: c.last.Epoch}
	changed := false
	keep := func(ch bool) { changed = changed || ch }

	var ch bool
	next.Normal, ch = commit(c.last.Normal, normal, reactive.Identical[*ir.StyleRule])
	keep(ch)
	next.Important, ch = commit(c.last.Important, important, reactive.Identical[*ir.StyleRule])
	keep(ch)
	next.Containers, ch = commit(c.last.Containers, containers, reactive.Identical[string])
	keep(ch)
	next.Guards, ch = commit(c.last.Guards, guards, reactive.Identical[match.Guard])
	keep(ch)
	next.Variables, ch = reactive.Keep(c.last.Variables, vars, func(a, b map[string]ir.Descriptor) bool {
		return maps.EqualFunc(a, b, reactive.Deep[ir.Descriptor])
	})
	keep(ch)
	next.Animation, ch = reactive.Keep(c.last.Animation, animation, reactive.Deep[*ir.Animation])
	keep(ch)
	next.Transition, ch = reactive.Keep(c.last.Transition, transition, reactive.Deep[*ir.Transition])
	keep(ch)

	if changed || c.last.Epoch == 0 {
		next.Epoch++
		c.log.Debug("Collected",
			zap.Stringer("element", el.Identity),
			zap.String("classes", className),
			zap.Int("normal", len(next.Normal)),
			zap.Int("important", len(next.Important)),
			zap.Int("guards", len(next.Guards)),
			zap.Uint64("epoch", next.Epoch))
	}
	c.last = next
	return &c.last
}

func commit[T any](prev, next []T, eq reactive.EqualFunc[T]) ([]T, bool) {
	d := reactive.NewDraft(prev, eq)
	for _, v := range next {
		d.Push(v)
	}
	return d.Commit()
}

// inlineStyle converts inline style object into a rule, the rule is reused
// while the object does not change.
func (c *Collector) inlineStyle(style map[string]any) *ir.StyleRule {
	if len(style) == 0 {
		c.inline, c.inlineRule = nil, nil
		return nil
	}
	if c.inlineRule != nil && reflect.DeepEqual(c.inline, style) {
		return c.inlineRule
	}
	static := make(map[string]ir.Descriptor, len(style))
	var decls []ir.Declaration
	for _, k := range slices.Sorted(maps.Keys(style)) {
		d := ir.FromValue(style[k])
		if d == nil {
			continue
		}
		if ir.IsStatic(d) {
			static[k] = d
			continue
		}
		decls = append(decls, ir.Declaration{Value: d, Path: ir.RelativePath(k)})
	}
	if len(static) > 0 {
		decls = append([]ir.Declaration{{Static: static}}, decls...)
	}
	var spec ir.Specificity
	spec[ir.SpecInline] = 1
	c.inline = maps.Clone(style)
	c.inlineRule = &ir.StyleRule{Specificity: spec, Declarations: decls}
	return c.inlineRule
}
