package apply

import (
	"reflect"
	"testing"

	"go.uber.org/zap/zaptest"

	"stylo/collect"
	"stylo/ir"
	"stylo/registry"
	"stylo/resolve"
)

func newApplier(t *testing.T, opts Options) (*registry.Registry, *Applier) {
	t.Helper()
	reg := registry.New(zaptest.NewLogger(t), registry.DefaultOptions())
	return reg, New(zaptest.NewLogger(t), reg, opts)
}

func run(t *testing.T, reg *registry.Registry, a *Applier, res *collect.Result, props map[string]any) *Output {
	t.Helper()
	r := resolve.New(zaptest.NewLogger(t), reg, &resolve.Scope{Variables: res.Variables})
	return a.Apply(res, r, props)
}

func rule(decls ...ir.Declaration) *ir.StyleRule {
	return &ir.StyleRule{Declarations: decls}
}

func tuple(v ir.Descriptor, path string) ir.Declaration {
	return ir.Declaration{Value: v, Path: ir.ParsePath(path)}
}

func TestApply_Layouts(t *testing.T) {
	reg, a := newApplier(t, Options{NativeStyleToProp: map[string]string{"fill": "fill", "stroke": "svg.stroke"}})
	res := &collect.Result{
		Normal: []*ir.StyleRule{rule(
			ir.Declaration{Static: map[string]ir.Descriptor{"color": ir.String("red"), "fill": ir.String("blue")}},
			tuple(ir.String("green"), "stroke"),
			tuple(ir.Number(2), "^numberOfLines"),
			tuple(ir.String("x"), "shadow.color"),
			tuple(ir.Var("--missing"), "width"),
		)},
	}
	out := run(t, reg, a, res, map[string]any{"className": "a", "testID": "t", "style": map[string]any{"color": "black"}})

	want := map[string]any{
		"testID":        "t",
		"numberOfLines": 2.0,
		"fill":          "blue",
		"svg":           map[string]any{"stroke": "green"},
		"style": map[string]any{
			"color":  "red",
			"shadow": map[string]any{"color": "x"},
		},
	}
	if !reflect.DeepEqual(out.Props, want) {
		t.Errorf("props = %#v\nwant %#v", out.Props, want)
	}
}

func TestApply_CustomTarget(t *testing.T) {
	reg, a := newApplier(t, Options{Target: "contentContainerStyle"})
	res := &collect.Result{Normal: []*ir.StyleRule{rule(tuple(ir.Number(4), "padding"))}}
	out := run(t, reg, a, res, nil)
	if !reflect.DeepEqual(out.Props, map[string]any{"contentContainerStyle": map[string]any{"padding": 4.0}}) {
		t.Errorf("props = %v", out.Props)
	}
}

func TestApply_ImportantWins(t *testing.T) {
	reg, a := newApplier(t, Options{})
	res := &collect.Result{
		Normal:    []*ir.StyleRule{rule(tuple(ir.String("red"), "color")), rule(tuple(ir.String("green"), "color"))},
		Important: []*ir.StyleRule{rule(tuple(ir.String("blue"), "color"))},
	}
	out := run(t, reg, a, res, nil)
	if got := out.Props["style"].(map[string]any)["color"]; got != "blue" {
		t.Errorf("color = %v", got)
	}
}

func TestApply_Shorthand(t *testing.T) {
	reg, a := newApplier(t, Options{})
	res := &collect.Result{
		Normal: []*ir.StyleRule{rule(tuple(ir.Shorthand("border", ir.Number(2), ir.Var("--c", ir.String("red"))), "border"))},
	}
	out := run(t, reg, a, res, nil)
	want := map[string]any{"borderWidth": 2.0, "borderStyle": "solid", "borderColor": "red"}
	if got := out.Props["style"]; !reflect.DeepEqual(got, want) {
		t.Errorf("style = %v, want %v", got, want)
	}
}

func TestApply_Deferred(t *testing.T) {
	em := func(n float64) ir.Descriptor {
		return &ir.Func{Kind: ir.FuncEm, Name: "em", Args: []ir.Descriptor{ir.Number(n)}, Deferred: true}
	}
	tests := []struct {
		name string
		res  *collect.Result
		want map[string]any
	}{
		{
			name: "reads value declared later",
			res: &collect.Result{Normal: []*ir.StyleRule{rule(
				ir.Declaration{Value: em(2), Path: ir.RelativePath("width"), Deferred: true},
				tuple(ir.Number(10), "fontSize"),
			)}},
			want: map[string]any{"width": 20.0, "fontSize": 10.0},
		},
		{
			name: "replaced by later declaration",
			res: &collect.Result{Normal: []*ir.StyleRule{rule(
				ir.Declaration{Value: em(2), Path: ir.RelativePath("width"), Deferred: true},
				tuple(ir.Number(5), "width"),
			)}},
			want: map[string]any{"width": 5.0},
		},
		{
			name: "later deferred wins",
			res: &collect.Result{
				Normal:    []*ir.StyleRule{rule(ir.Declaration{Value: em(1), Path: ir.RelativePath("width"), Deferred: true})},
				Important: []*ir.StyleRule{rule(ir.Declaration{Value: em(3), Path: ir.RelativePath("width"), Deferred: true})},
			},
			want: map[string]any{"width": 42.0},
		},
		{
			name: "undefined removes placeholder",
			res: &collect.Result{Normal: []*ir.StyleRule{rule(
				ir.Declaration{Value: ir.Var("--missing"), Path: ir.RelativePath("width"), Deferred: true},
				tuple(ir.Number(1), "height"),
			)}},
			want: map[string]any{"height": 1.0},
		},
		{
			name: "currentcolor",
			res: &collect.Result{Normal: []*ir.StyleRule{rule(
				ir.Declaration{Value: &ir.Func{Kind: ir.FuncCurrentColor, Name: "currentcolor", Deferred: true}, Path: ir.RelativePath("borderColor"), Deferred: true},
				tuple(ir.String("red"), "color"),
			)}},
			want: map[string]any{"borderColor": "red", "color": "red"},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			reg, a := newApplier(t, Options{})
			out := run(t, reg, a, tt.res, nil)
			if got := out.Props["style"]; !reflect.DeepEqual(got, tt.want) {
				t.Errorf("style = %#v, want %#v", got, tt.want)
			}
		})
	}
}

func TestApply_Transitions(t *testing.T) {
	reg, a := newApplier(t, Options{})
	transition := &ir.Transition{Property: []string{"opacity", "color"}, Duration: []float64{100, 200}, TimingFunction: []string{"linear"}}
	pass := func(decls ...ir.Declaration) *Output {
		return run(t, reg, a, &collect.Result{Normal: []*ir.StyleRule{rule(decls...)}, Transition: transition}, nil)
	}

	out := pass(tuple(ir.Number(0.5), "opacity"), tuple(ir.String("red"), "color"), tuple(ir.Number(1), "width"))
	if len(out.Transitions) != 0 {
		t.Fatalf("first assignment transitioned: %+v", out.Transitions)
	}

	out = pass(tuple(ir.Number(0.8), "opacity"), tuple(ir.String("red"), "color"), tuple(ir.Number(2), "width"))
	want := []TransitionEffect{{Property: "opacity", From: 0.5, To: 0.8, Duration: 100, TimingFunction: "linear"}}
	if !reflect.DeepEqual(out.Transitions, want) {
		t.Errorf("transitions = %+v, want %+v", out.Transitions, want)
	}
	style := out.Props["style"].(map[string]any)
	if style["opacity"] != 0.5 || style["width"] != 2.0 {
		t.Errorf("style = %v", style)
	}

	// opacity is no longer declared, it goes back to its default
	out = pass(tuple(ir.String("blue"), "color"))
	want = []TransitionEffect{
		{Property: "color", From: "red", To: "blue", Duration: 200, TimingFunction: "linear"},
		{Property: "opacity", From: 0.8, To: 1.0, Duration: 100, TimingFunction: "linear"},
	}
	if !reflect.DeepEqual(out.Transitions, want) {
		t.Errorf("transitions = %+v, want %+v", out.Transitions, want)
	}

	out = run(t, reg, a, &collect.Result{Normal: []*ir.StyleRule{rule(tuple(ir.String("red"), "color"))}}, nil)
	if len(out.Transitions) != 0 || len(a.settled) != 0 {
		t.Error("removing transition must forget settled values")
	}
}

func TestApply_ShorthandTransitions(t *testing.T) {
	reg, a := newApplier(t, Options{})
	transition := &ir.Transition{Property: []string{"padding"}, Duration: []float64{300}}
	pass := func(decls ...ir.Declaration) *Output {
		return run(t, reg, a, &collect.Result{Normal: []*ir.StyleRule{rule(decls...)}, Transition: transition}, nil)
	}

	pass(tuple(ir.Number(4), "paddingTop"), tuple(ir.Number(4), "paddingLeft"), tuple(ir.String("red"), "color"))
	out := pass(tuple(ir.Number(8), "paddingTop"), tuple(ir.Number(8), "paddingLeft"), tuple(ir.String("blue"), "color"))
	want := []TransitionEffect{
		{Property: "paddingLeft", From: 4.0, To: 8.0, Duration: 300, TimingFunction: "ease"},
		{Property: "paddingTop", From: 4.0, To: 8.0, Duration: 300, TimingFunction: "ease"},
	}
	if !reflect.DeepEqual(out.Transitions, want) {
		t.Errorf("transitions = %+v, want %+v", out.Transitions, want)
	}
	if style := out.Props["style"].(map[string]any); style["color"] != "blue" {
		t.Errorf("color is not covered by padding, style = %v", style)
	}

	// longhand without its own default falls back to default of shorthand
	out = pass(tuple(ir.Number(8), "paddingTop"))
	want = []TransitionEffect{{Property: "paddingLeft", From: 8.0, To: 0.0, Duration: 300, TimingFunction: "ease"}}
	if !reflect.DeepEqual(out.Transitions, want) {
		t.Errorf("transitions = %+v, want %+v", out.Transitions, want)
	}
}

func TestApply_Animations(t *testing.T) {
	reg, a := newApplier(t, Options{})
	kf := &ir.Keyframes{}
	kf.Add("opacity", 0, ir.Number(0), "ease-in")
	kf.Add("opacity", 1, ir.Var("--to", ir.Number(1)), "")
	reg.Register(&ir.Payload{Keyframes: []ir.KeyframesEntry{{Name: "fade", Keyframes: kf}}})

	res := &collect.Result{
		Normal:    []*ir.StyleRule{rule(tuple(ir.Number(0.3), "opacity"))},
		Important: []*ir.StyleRule{rule(tuple(ir.String("red"), "color"))},
		Animation: &ir.Animation{Name: []string{"fade", "missing", "none"}, Duration: []float64{300}, FillMode: []string{"backwards"}},
	}
	out := run(t, reg, a, res, nil)
	if len(out.Animations) != 1 {
		t.Fatalf("animations = %+v", out.Animations)
	}
	want := AnimationEffect{
		Name: "fade", Duration: 300, IterationCount: 1, TimingFunction: "ease",
		Direction: "normal", FillMode: "backwards", PlayState: "running",
		Tracks: []Track{{Property: "opacity", Offsets: []float64{0, 1}, Values: []any{0.0, 1.0}, Easing: []string{"ease-in", ""}}},
	}
	if !reflect.DeepEqual(out.Animations[0], want) {
		t.Errorf("animation = %+v\nwant %+v", out.Animations[0], want)
	}
	if got := out.Props["style"].(map[string]any)["opacity"]; got != 0.0 {
		t.Errorf("opacity = %v, want first frame", got)
	}
}
