package registry

import (
	"testing"

	"go.uber.org/zap/zaptest"

	"stylo/ir"
	"stylo/reactive"
)

func samplePayload() *ir.Payload {
	return &ir.Payload{
		Rules: []ir.RuleSetEntry{
			{Name: "card", Set: &ir.StyleRuleSet{Normal: []*ir.StyleRule{{
				Declarations: []ir.Declaration{{Static: map[string]ir.Descriptor{"padding": ir.Number(8)}}},
			}}}},
			{Name: "title", Set: &ir.StyleRuleSet{Normal: []*ir.StyleRule{{
				Declarations: []ir.Declaration{{Value: ir.Var("--fg"), Path: ir.RelativePath("color")}},
			}}}},
		},
		Root: []ir.ThemeVariable{
			{Name: "--fg", Light: ir.String("black"), Dark: ir.String("white")},
		},
		Flags: map[string]string{"nativewind": "true"},
	}
}

// reader creates effect reading cells in fn and returns queue it posts to.
func reader(r *Registry, token string, fn func()) (*reactive.Effect, *reactive.UpdateQueue) {
	q := reactive.NewUpdateQueue()
	e := r.Graph().NewEffect(token, q)
	e.Track(fn)
	return e, q
}

func TestRegister(t *testing.T) {
	r := New(zaptest.NewLogger(t), DefaultOptions())

	_, q := reader(r, "both", func() {
		r.Rules("card").Get()
		r.Rules("title").Get()
		r.Root("--fg").Get()
	})

	r.Register(samplePayload())
	if got := q.Drain(); len(got) != 1 {
		t.Fatalf("notifications = %v, want single one", got)
	}
	_, notified := r.Graph().Stats()
	if notified != 1 {
		t.Errorf("notified = %d, want 1", notified)
	}

	set := r.Rules("card").Peek()
	if set.Len() != 1 {
		t.Errorf("card rules = %d, want 1", set.Len())
	}
	if got := r.Flag("nativewind"); got != "true" {
		t.Errorf("Flag() = %q", got)
	}
	if got := r.Flag("missing"); got != "" {
		t.Errorf("Flag(missing) = %q", got)
	}
}

func TestRegister_SamePayloadTwice(t *testing.T) {
	r := New(zaptest.NewLogger(t), DefaultOptions())
	r.Register(samplePayload())

	_, q := reader(r, "card", func() { r.Rules("card").Get() })
	r.Register(samplePayload())
	if q.Len() != 0 {
		t.Errorf("identical payload caused %d notifications", q.Len())
	}
}

func TestRegister_Empty(t *testing.T) {
	r := New(zaptest.NewLogger(t), DefaultOptions())
	r.Register(nil)
	r.Register(&ir.Payload{})
	if _, notified := r.Graph().Stats(); notified != 0 {
		t.Errorf("notified = %d", notified)
	}
}

func TestThemeValue(t *testing.T) {
	r := New(zaptest.NewLogger(t), DefaultOptions())
	r.Register(samplePayload())

	v := r.Root("--fg").Peek()
	if got := r.ThemeValue(v); got != ir.String("black") {
		t.Errorf("light = %v", got)
	}
	r.Env.ColorScheme.Set("dark")
	if got := r.ThemeValue(v); got != ir.String("white") {
		t.Errorf("dark = %v", got)
	}
	if got := r.ThemeValue(&ir.ThemeVariable{Name: "--x", Light: ir.Number(1)}); got != ir.Number(1) {
		t.Errorf("dark without variant = %v", got)
	}
	if r.ThemeValue(nil) != nil {
		t.Error("undeclared variable must resolve to nil")
	}
}

func TestRegisterJSON(t *testing.T) {
	r := New(zaptest.NewLogger(t), DefaultOptions())
	data, err := ir.EncodeJSON(samplePayload(), false)
	if err != nil {
		t.Fatalf("EncodeJSON() error = %v", err)
	}
	if err := r.RegisterJSON(data); err != nil {
		t.Fatalf("RegisterJSON() error = %v", err)
	}
	if r.Rules("title").Peek().Len() != 1 {
		t.Error("title not registered")
	}
	if err := r.RegisterJSON([]byte("{")); err == nil {
		t.Error("expected error for malformed payload")
	}
}

func TestRegisterIon(t *testing.T) {
	r := New(zaptest.NewLogger(t), DefaultOptions())
	data, err := ir.EncodeIon(samplePayload())
	if err != nil {
		t.Fatalf("EncodeIon() error = %v", err)
	}
	if err := r.RegisterIon(data); err != nil {
		t.Fatalf("RegisterIon() error = %v", err)
	}
	if r.Root("--fg").Peek() == nil {
		t.Error("root variable not registered")
	}
}

func TestRegisterSheet(t *testing.T) {
	data, err := ir.EncodeJSON(samplePayload(), false)
	if err != nil {
		t.Fatalf("EncodeJSON() error = %v", err)
	}
	ion, err := ir.EncodeIon(samplePayload())
	if err != nil {
		t.Fatalf("EncodeIon() error = %v", err)
	}
	tests := []struct {
		name    string
		sheet   Sheet
		wantErr bool
	}{
		{"json", Sheet{Source: "card.css", Format: "json", Data: data}, false},
		{"ion", Sheet{Source: "card.css", Format: "ion", Data: ion}, false},
		{"unknown format", Sheet{Source: "card.css", Format: "xml", Data: data}, true},
		{"format mismatch", Sheet{Source: "card.css", Format: "json", Data: ion}, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := New(zaptest.NewLogger(t), DefaultOptions())
			err := r.RegisterSheet(tt.sheet)
			if tt.wantErr {
				if err == nil {
					t.Error("expected error")
				}
				return
			}
			if err != nil {
				t.Fatalf("RegisterSheet() error = %v", err)
			}
			if r.Rules("card").Peek() == nil {
				t.Error("card not registered")
			}
		})
	}
}

func TestReset(t *testing.T) {
	r := New(zaptest.NewLogger(t), DefaultOptions())
	r.Register(samplePayload())

	e, q := reader(r, "card", func() { r.Rules("card").Get() })
	r.Reset()
	if q.Len() != 1 || !e.Stale() {
		t.Fatal("reader not notified on reset")
	}
	if r.Rules("card").Peek() != nil {
		t.Error("rules survived reset")
	}
	if r.Flag("nativewind") != "" {
		t.Error("flags survived reset")
	}
}

func TestIdentityCells(t *testing.T) {
	r := New(zaptest.NewLogger(t), DefaultOptions())
	a, b := NewIdentity("a"), NewIdentity("b")

	r.Hover(a).Set(true)
	r.Width(b).Set(120)
	if !r.Hover(a).Peek() || r.Hover(b).Peek() {
		t.Error("hover cells are shared between identities")
	}
	if r.Width(b).Peek() != 120 || r.Width(a).Peek() != 0 {
		t.Error("width cells are shared between identities")
	}
	if r.Tracked() != 2 {
		t.Errorf("Tracked() = %d, want 2", r.Tracked())
	}
	if a.String() == b.String() {
		t.Error("identities must differ")
	}
}

func TestDefault(t *testing.T) {
	if Default() != Default() {
		t.Error("Default() must return the same registry")
	}
	if got := Default().Env.Rem.Peek(); got != 14 {
		t.Errorf("rem = %v", got)
	}
}
