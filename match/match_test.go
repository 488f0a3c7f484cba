package match

import (
	"testing"

	"go.uber.org/zap/zaptest"

	"stylo/ir"
	"stylo/reactive"
	"stylo/registry"
)

func newRegistry(t *testing.T) *registry.Registry {
	t.Helper()
	opts := registry.DefaultOptions()
	opts.Width, opts.Height = 400, 800
	return registry.New(zaptest.NewLogger(t), opts)
}

func TestMatch_Media(t *testing.T) {
	reg := newRegistry(t)
	m := New(reg)
	el := &Element{Identity: registry.NewIdentity("el")}

	tests := []struct {
		name string
		cond *ir.Condition
		want bool
	}{
		{"min width", ir.Compare("width", ir.CmpGe, ir.Number(300)), true},
		{"max width", ir.Compare("width", ir.CmpLe, ir.Number(300)), false},
		{"rem breakpoint", ir.Compare("width", ir.CmpGe, ir.NewFunc("rem", ir.Number(20))), true},
		{"orientation", ir.Compare("orientation", ir.CmpEq, ir.String("portrait")), true},
		{"aspect ratio", ir.Compare("aspect-ratio", ir.CmpLt, ir.Number(1)), true},
		{"scheme", ir.Compare("prefers-color-scheme", ir.CmpEq, ir.String("dark")), false},
		{"not scheme", ir.Not(ir.Compare("prefers-color-scheme", ir.CmpEq, ir.String("dark"))), true},
		{"dir", ir.Compare("dir", ir.CmpEq, ir.String("ltr")), true},
		{"or", ir.Or(ir.Compare("width", ir.CmpLt, ir.Number(100)), ir.Compare("height", ir.CmpGt, ir.Number(700))), true},
		{"and", ir.And(ir.Compare("width", ir.CmpGt, ir.Number(100)), ir.Compare("height", ir.CmpLt, ir.Number(700))), false},
		{"boolean", ir.Compare("width", ir.CmpEq, ir.Bool(true)), true},
		{"print", ir.Compare("type", ir.CmpEq, ir.String("print")), false},
		{"unknown feature", ir.Compare("scan", ir.CmpEq, ir.String("progressive")), false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rule := &ir.StyleRule{Media: []*ir.Condition{tt.cond}}
			if got := m.Match(rule, el, nil); got != tt.want {
				t.Errorf("Match() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestMatch_Attributes(t *testing.T) {
	reg := newRegistry(t)
	m := New(reg)
	props := map[string]any{
		"title":    "Hello World",
		"lang":     "en-US",
		"disabled": true,
		"count":    0.0,
		"children": "",
		DataProp:   map[string]any{"state": "open"},
	}
	el := &Element{Props: props}

	q := func(name string, op ir.AttrOp, value string) ir.AttributeQuery {
		return ir.AttributeQuery{Source: ir.AttrProp, Name: name, Op: op, Value: value}
	}
	tests := []struct {
		name  string
		query ir.AttributeQuery
		want  bool
	}{
		{"exists", q("title", ir.AttrExists, ""), true},
		{"missing", q("alt", ir.AttrExists, ""), false},
		{"truthy", q("disabled", ir.AttrTruthy, ""), true},
		{"falsy zero", q("count", ir.AttrFalsy, ""), true},
		{"empty children", q("children", ir.AttrEmpty, ""), true},
		{"equals", q("lang", ir.AttrEquals, "en-US"), true},
		{"equals case", q("lang", ir.AttrEquals, "EN-us"), false},
		{"equals insensitive", ir.AttributeQuery{Source: ir.AttrProp, Name: "lang", Op: ir.AttrEquals, Value: "EN-us", Insensitive: true}, true},
		{"includes", q("title", ir.AttrIncludes, "World"), true},
		{"includes partial word", q("title", ir.AttrIncludes, "Wor"), false},
		{"dash match", q("lang", ir.AttrDashMatch, "en"), true},
		{"prefix", q("title", ir.AttrPrefix, "Hell"), true},
		{"empty prefix", q("title", ir.AttrPrefix, ""), false},
		{"suffix", q("title", ir.AttrSuffix, "rld"), true},
		{"substring", q("title", ir.AttrSubstring, "o W"), true},
		{"number", q("count", ir.AttrEquals, "0"), true},
		{"data", ir.AttributeQuery{Source: ir.AttrData, Name: "state", Op: ir.AttrEquals, Value: "open"}, true},
		{"data missing", ir.AttributeQuery{Source: ir.AttrData, Name: "size", Op: ir.AttrExists}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rule := &ir.StyleRule{AttributeQueries: []ir.AttributeQuery{tt.query}}
			if got := m.Match(rule, el, nil); got != tt.want {
				t.Errorf("Match() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestMatch_PseudoAndEarlyExit(t *testing.T) {
	reg := newRegistry(t)
	m := New(reg)
	el := &Element{Identity: registry.NewIdentity("button"), Props: map[string]any{"disabled": true}}
	rule := &ir.StyleRule{
		Pseudo:           &ir.PseudoClasses{Hover: true},
		Media:            []*ir.Condition{ir.Compare("width", ir.CmpGe, ir.Number(0))},
		AttributeQueries: []ir.AttributeQuery{{Source: ir.AttrProp, Name: "disabled", Op: ir.AttrTruthy}},
	}

	var guards []Guard
	if m.Match(rule, el, &guards) {
		t.Fatal("rule must not match without hover")
	}
	if len(guards) != 1 || guards[0].Kind != GuardPseudo || guards[0].Value != false {
		t.Fatalf("guards = %+v, want single pseudo guard", guards)
	}

	reg.Hover(el.Identity).Set(true)
	guards = guards[:0]
	if !m.Match(rule, el, &guards) {
		t.Fatal("rule must match while hovered")
	}
	if len(guards) != 3 {
		t.Errorf("got %d guards, want 3", len(guards))
	}
}

func TestMatch_Containers(t *testing.T) {
	reg := newRegistry(t)
	m := New(reg)
	card := &Container{Identity: registry.NewIdentity("card"), Props: map[string]any{DataProp: map[string]any{"size": "lg"}}}
	reg.Width(card.Identity).Set(600)
	reg.Height(card.Identity).Set(300)
	el := &Element{
		Identity:   registry.NewIdentity("title"),
		Containers: map[string]*Container{"": card, "card": card},
	}

	tests := []struct {
		name  string
		query *ir.ContainerQuery
		want  bool
	}{
		{"named exists", &ir.ContainerQuery{Name: "card"}, true},
		{"unknown name", &ir.ContainerQuery{Name: "sidebar"}, false},
		{"nearest width", &ir.ContainerQuery{Query: ir.Compare("width", ir.CmpGe, ir.Number(500))}, true},
		{"height", &ir.ContainerQuery{Name: "card", Query: ir.Compare("height", ir.CmpGe, ir.Number(500))}, false},
		{"aspect ratio reads height", &ir.ContainerQuery{Query: ir.Compare("aspect-ratio", ir.CmpEq, ir.Number(2))}, true},
		{"orientation", &ir.ContainerQuery{Query: ir.Compare("orientation", ir.CmpEq, ir.String("landscape"))}, true},
		{"group hover", &ir.ContainerQuery{Name: "card", Pseudo: &ir.PseudoClasses{Hover: true}}, false},
		{"group attribute", &ir.ContainerQuery{Name: "card", Attributes: []ir.AttributeQuery{{Source: ir.AttrData, Name: "size", Op: ir.AttrEquals, Value: "lg"}}}, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rule := &ir.StyleRule{ContainerQueries: []*ir.ContainerQuery{tt.query}}
			if got := m.Match(rule, el, nil); got != tt.want {
				t.Errorf("Match() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestValid(t *testing.T) {
	reg := newRegistry(t)
	m := New(reg)
	el := &Element{
		Identity: registry.NewIdentity("el"),
		Props:    map[string]any{"title": "a"},
	}
	rule := &ir.StyleRule{
		Media:            []*ir.Condition{ir.Compare("width", ir.CmpGe, ir.Number(300))},
		AttributeQueries: []ir.AttributeQuery{{Source: ir.AttrProp, Name: "title", Op: ir.AttrExists}},
	}
	var guards []Guard
	m.Match(rule, el, &guards)
	if !m.Valid(guards, el) {
		t.Fatal("guards must hold right after matching")
	}

	moved := &Element{Identity: el.Identity, Props: map[string]any{}}
	if m.Valid(guards, moved) {
		t.Error("removing attribute must invalidate guards")
	}

	reg.Env.Width.Set(200)
	if m.Valid(guards, el) {
		t.Error("crossing breakpoint must invalidate guards")
	}
}

func TestMatch_RegistersDependencies(t *testing.T) {
	reg := newRegistry(t)
	m := New(reg)
	q := reactive.NewUpdateQueue()
	el := &Element{Identity: registry.NewIdentity("el")}
	wide := &ir.StyleRule{Media: []*ir.Condition{ir.Compare("width", ir.CmpGe, ir.Number(600))}}
	dark := &ir.StyleRule{Media: []*ir.Condition{ir.Compare("prefers-color-scheme", ir.CmpEq, ir.String("dark"))}}

	e := reg.Graph().NewEffect("wide", q)
	e.Track(func() { m.Match(wide, el, nil) })
	other := reg.Graph().NewEffect("dark", q)
	other.Track(func() { m.Match(dark, el, nil) })

	reg.Env.Width.Set(700)
	if got := q.Drain(); len(got) != 1 || got[0] != "wide" {
		t.Errorf("queue = %v, want [wide]", got)
	}
	if other.Stale() {
		t.Error("unrelated effect invalidated")
	}
}
