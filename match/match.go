// Package match evaluates rule conditions of a rendered element against the
// registry cells and the element props.
package match

import (
	"golang.org/x/text/cases"

	"stylo/ir"
	"stylo/reactive"
	"stylo/registry"
)

// Container is an ancestor which declared itself a container.
type Container struct {
	Identity *registry.Identity
	Props    map[string]any
}

// Element is everything conditions may inspect about a rendered component.
type Element struct {
	Identity *registry.Identity
	Props    map[string]any
	// Containers maps inherited container names to ancestors, "" is the
	// nearest one.
	Containers map[string]*Container
}

// GuardKind tells which input a guard observed.
type GuardKind int

const (
	GuardPseudo GuardKind = iota
	GuardMedia
	GuardContainer
	GuardAttribute
)

func (k GuardKind) String() string {
	switch k {
	case GuardPseudo:
		return "pseudo"
	case GuardMedia:
		return "media"
	case GuardContainer:
		return "container"
	case GuardAttribute:
		return "attribute"
	}
	return "unknown"
}

// Guard records the outcome of a single evaluated condition, so that the
// next render can tell whether a previous match is still valid without
// walking rule sets again.
type Guard struct {
	Kind  GuardKind
	Key   string
	Value any

	// condition which produced Value: *ir.Condition, *ir.ContainerQuery,
	// ir.AttributeQuery or pseudo-class name
	cond any
	// identity pseudo-class cell belongs to
	id *registry.Identity
}

// Matcher evaluates conditions. It is bound to a registry and, like the
// registry graph, must be used from a single goroutine.
//
// Media and container conditions are evaluated through derived cells, so an
// observer depends on the outcome of a condition rather than on the
// environment values it reads: resizing within a breakpoint notifies
// nobody.
type Matcher struct {
	reg     *registry.Registry
	fold    cases.Caser
	derived map[any]*reactive.Derived[bool]
}

// New creates matcher reading cells of reg.
func New(reg *registry.Registry) *Matcher {
	return &Matcher{
		reg:     reg,
		fold:    cases.Fold(),
		derived: make(map[any]*reactive.Derived[bool]),
	}
}

// outcome reads derived cell of condition identified by key.
func (m *Matcher) outcome(key any, eval func() bool) bool {
	d, ok := m.derived[key]
	if !ok {
		d = reactive.NewDerived(m.reg.Graph(), eval, nil)
		m.derived[key] = d
	}
	return d.Get()
}

// Match reports whether every condition of rule holds for el, evaluating
// pseudo-classes, media, container queries and attribute queries in that
// order and stopping at the first failure. Every evaluated condition is
// appended to guards when it is not nil.
func (m *Matcher) Match(rule *ir.StyleRule, el *Element, guards *[]Guard) bool {
	if !m.pseudo(rule.Pseudo, el.Identity, "", guards) {
		return false
	}
	for _, c := range rule.Media {
		if !m.media(c, guards) {
			return false
		}
	}
	for _, q := range rule.ContainerQueries {
		if !m.container(q, el, guards) {
			return false
		}
	}
	for _, q := range rule.AttributeQueries {
		if !m.attribute(q, el.Props, "", guards) {
			return false
		}
	}
	return true
}

// Valid re-evaluates guards without registering dependencies and reports
// whether every one of them still observes the same value.
func (m *Matcher) Valid(guards []Guard, el *Element) bool {
	valid := true
	m.reg.Graph().Untracked(func() {
		for _, g := range guards {
			if m.check(g, el) != g.Value {
				valid = false
				return
			}
		}
	})
	return valid
}

func (m *Matcher) check(g Guard, el *Element) any {
	switch g.Kind {
	case GuardPseudo:
		return m.pseudoState(g.cond.(string), g.id)
	case GuardMedia:
		switch c := g.cond.(type) {
		case *ir.Condition:
			return m.eval(c, m.mediaFeature)
		case containerCondition:
			return m.eval(c.query, m.containerFeature(c.id))
		}
	case GuardContainer:
		return el.Containers[g.Key]
	case GuardAttribute:
		q := g.cond.(ir.AttributeQuery)
		props := el.Props
		if g.Key != "" {
			c := el.Containers[g.Key]
			if c == nil {
				return nil
			}
			props = c.Props
		}
		return m.attributeHolds(q, props)
	}
	return nil
}

func record(guards *[]Guard, g Guard) {
	if guards != nil {
		*guards = append(*guards, g)
	}
}

var pseudoNames = [...]string{"hover", "active", "focus"}

func (m *Matcher) pseudo(p *ir.PseudoClasses, id *registry.Identity, container string, guards *[]Guard) bool {
	if p.Empty() {
		return true
	}
	for i, required := range [...]bool{p.Hover, p.Active, p.Focus} {
		if !required {
			continue
		}
		name := pseudoNames[i]
		state := m.pseudoState(name, id)
		record(guards, Guard{Kind: GuardPseudo, Key: container + ":" + name, Value: state, cond: name, id: id})
		if !state {
			return false
		}
	}
	return true
}

func (m *Matcher) pseudoState(name string, id *registry.Identity) bool {
	if id == nil {
		return false
	}
	switch name {
	case "hover":
		return m.reg.Hover(id).Get()
	case "active":
		return m.reg.Active(id).Get()
	case "focus":
		return m.reg.Focus(id).Get()
	}
	return false
}

func (m *Matcher) media(c *ir.Condition, guards *[]Guard) bool {
	ok := m.outcome(c, func() bool { return m.eval(c, m.mediaFeature) })
	record(guards, Guard{Kind: GuardMedia, Key: c.Feature, Value: ok, cond: c})
	return ok
}

// containerCondition binds container query condition to the container it
// was evaluated against.
type containerCondition struct {
	query *ir.Condition
	id    *registry.Identity
}

func (m *Matcher) container(q *ir.ContainerQuery, el *Element, guards *[]Guard) bool {
	c := el.Containers[q.Name]
	record(guards, Guard{Kind: GuardContainer, Key: q.Name, Value: c, cond: q})
	if c == nil {
		return false
	}
	if !m.pseudo(q.Pseudo, c.Identity, q.Name, guards) {
		return false
	}
	if q.Query != nil {
		cc := containerCondition{query: q.Query, id: c.Identity}
		ok := m.outcome(cc, func() bool { return m.eval(cc.query, m.containerFeature(cc.id)) })
		record(guards, Guard{Kind: GuardMedia, Key: q.Name, Value: ok, cond: cc})
		if !ok {
			return false
		}
	}
	for _, a := range q.Attributes {
		if !m.attribute(a, c.Props, q.Name, guards) {
			return false
		}
	}
	return true
}

func (m *Matcher) attribute(q ir.AttributeQuery, props map[string]any, container string, guards *[]Guard) bool {
	ok := m.attributeHolds(q, props)
	record(guards, Guard{Kind: GuardAttribute, Key: container, Value: ok, cond: q})
	return ok
}
