package element_test

import (
	"reflect"
	"runtime"
	"testing"
	"time"

	"go.uber.org/zap/zaptest"

	"stylo/apply"
	"stylo/compiler"
	"stylo/element"
	"stylo/reactive"
	"stylo/registry"
)

type fixture struct {
	t     *testing.T
	reg   *registry.Registry
	queue *reactive.UpdateQueue
}

func newFixture(t *testing.T, src string) *fixture {
	t.Helper()
	f := &fixture{
		t:     t,
		reg:   registry.New(zaptest.NewLogger(t), registry.DefaultOptions()),
		queue: reactive.NewUpdateQueue(),
	}
	f.register(src)
	return f
}

func (f *fixture) register(src string) {
	f.t.Helper()
	res, err := compiler.New(zaptest.NewLogger(f.t), compiler.Options{}).Compile([]byte(src), f.t.Name())
	if err != nil {
		f.t.Fatalf("Compile failed: %v", err)
	}
	f.reg.Register(res.Payload)
}

func (f *fixture) element(name string) *element.Element {
	return element.New(zaptest.NewLogger(f.t), f.reg, name, f.queue, apply.Options{})
}

func style(t *testing.T, r *element.Rendered) map[string]any {
	t.Helper()
	s, _ := r.Props[apply.DefaultTarget].(map[string]any)
	return s
}

func TestRender_Cascade(t *testing.T) {
	f := newFixture(t, `.red { color: red } .blue { color: blue }`)

	tests := []struct {
		className string
		want      any
	}{
		{"blue red", "blue"},
		{"red blue", "blue"},
		{"red", "red"},
		{"missing red", "red"},
		{"missing", nil},
	}
	for _, tt := range tests {
		t.Run(tt.className, func(t *testing.T) {
			r := f.element("text").Render(nil, map[string]any{"className": tt.className})
			if got := style(t, r)["color"]; got != tt.want {
				t.Errorf("color = %v, want %v", got, tt.want)
			}
			if _, ok := r.Props["className"]; ok {
				t.Error("className must not be passed through")
			}
		})
	}
}

func TestRender_ImportantOverride(t *testing.T) {
	f := newFixture(t, `.red { color: red } .red:hover { color: red } .blue { color: blue !important }`)
	el := f.element("button")
	props := map[string]any{"className": "blue red"}

	if got := style(t, el.Render(nil, props))["color"]; got != "blue" {
		t.Fatalf("color = %v, want blue", got)
	}

	el.SetHover(true)
	if tokens := f.queue.Drain(); len(tokens) != 1 || tokens[0] != el.Token() {
		t.Fatalf("queue = %v, want element token", tokens)
	}
	if got := style(t, el.Render(nil, props))["color"]; got != "blue" {
		t.Errorf("hovered color = %v, want blue", got)
	}
}

func TestRender_Variables(t *testing.T) {
	f := newFixture(t, `
.missing { width: var(--missing, 10px) }
.set { --set: 5px; width: var(--set, 20px) }
:root { --gap: 4px }
.root { margin-top: var(--gap) }
.parent { --accent: green }
.child { color: var(--accent, black) }
`)
	tests := []struct {
		className string
		key       string
		want      any
	}{
		{"missing", "width", 10.0},
		{"set", "width", 5.0},
		{"root", "marginTop", 4.0},
		{"child", "color", "black"},
	}
	for _, tt := range tests {
		t.Run(tt.className, func(t *testing.T) {
			r := f.element(tt.className).Render(nil, map[string]any{"className": tt.className})
			if got := style(t, r)[tt.key]; got != tt.want {
				t.Errorf("%s = %v, want %v", tt.key, got, tt.want)
			}
		})
	}

	parent := f.element("parent").Render(nil, map[string]any{"className": "parent"})
	child := f.element("child").Render(parent.Child, map[string]any{"className": "child"})
	if got := style(t, child)["color"]; got != "green" {
		t.Errorf("inherited color = %v, want green", got)
	}
}

func TestRender_ReactiveInvalidation(t *testing.T) {
	f := newFixture(t, `@media (min-width: 600px) { .wide { color: red } } .plain { color: blue }`)
	wide, plain := f.element("wide"), f.element("plain")
	wideProps := map[string]any{"className": "wide"}
	plainProps := map[string]any{"className": "plain"}

	if got := style(t, wide.Render(nil, wideProps))["color"]; got != nil {
		t.Fatalf("narrow color = %v", got)
	}
	before := plain.Render(nil, plainProps)

	f.reg.Env.Width.Set(700)
	tokens := f.queue.Drain()
	if len(tokens) != 1 || tokens[0] != wide.Token() {
		t.Fatalf("queue = %v, want only wide element", tokens)
	}
	if got := style(t, wide.Render(nil, wideProps))["color"]; got != "red" {
		t.Errorf("wide color = %v, want red", got)
	}
	if after := plain.Render(nil, plainProps); after != before || plain.Passes() != 1 {
		t.Errorf("unrelated element recomputed, passes = %d", plain.Passes())
	}

	// not crossing the breakpoint again
	f.reg.Env.Width.Set(800)
	if n := f.queue.Len(); n != 0 {
		t.Errorf("width change within breakpoint queued %d renders", n)
	}
}

func TestRender_Deferred(t *testing.T) {
	f := newFixture(t, `.a { width: 2em; font-size: 10px } .b { width: 2em } .t { transform: translateX(50%) }`)

	a := style(t, f.element("a").Render(nil, map[string]any{"className": "a"}))
	if a["width"] != 20.0 {
		t.Errorf("width = %v, want 20", a["width"])
	}

	b := style(t, f.element("b").Render(&element.Context{FontSize: 12}, map[string]any{"className": "b"}))
	if b["width"] != 24.0 {
		t.Errorf("width = %v, want 24 from parent font size", b["width"])
	}

	el := f.element("t")
	el.SetLayout(200, 100)
	s := style(t, el.Render(nil, map[string]any{"className": "t"}))
	want := []any{map[string]any{"translateX": 100.0}}
	if !reflect.DeepEqual(s["transform"], want) {
		t.Errorf("transform = %#v, want %#v", s["transform"], want)
	}
}

func TestRender_ReinjectIdentical(t *testing.T) {
	src := `.a { color: red; padding: 4px } .a:hover { color: blue }`
	f := newFixture(t, src)
	el := f.element("a")
	props := map[string]any{"className": "a"}
	first := el.Render(nil, props)

	f.register(src)
	if n := f.queue.Len(); n != 0 {
		t.Fatalf("re-injection queued %d renders", n)
	}
	if again := el.Render(nil, props); again != first || el.Passes() != 1 {
		t.Errorf("re-injection recomputed styles, passes = %d", el.Passes())
	}

	f.register(`.a { color: green }`)
	if f.queue.Len() != 1 {
		t.Fatal("changed stylesheet must re-render element")
	}
	r := el.Render(nil, props)
	if got := style(t, r)["color"]; got != "green" {
		t.Errorf("color = %v, want green", got)
	}
	if r.Epoch <= first.Epoch {
		t.Errorf("epoch %d did not advance from %d", r.Epoch, first.Epoch)
	}
}

func TestRender_PropsChange(t *testing.T) {
	f := newFixture(t, `.a[disabled] { opacity: 0.5 }`)
	el := f.element("a")

	r := el.Render(nil, map[string]any{"className": "a"})
	if _, ok := style(t, r)["opacity"]; ok {
		t.Fatal("attribute rule applied without attribute")
	}
	r = el.Render(nil, map[string]any{"className": "a", "disabled": true})
	if got := style(t, r)["opacity"]; got != 0.5 {
		t.Errorf("opacity = %v, want 0.5", got)
	}
	if r.Props["disabled"] != true {
		t.Error("props must be passed through")
	}
}

func TestRender_InlineStyle(t *testing.T) {
	f := newFixture(t, `.a { color: red; padding-top: 4px }`)
	r := f.element("a").Render(nil, map[string]any{
		"className": "a",
		"style":     map[string]any{"color": "blue"},
	})
	s := style(t, r)
	if s["color"] != "blue" || s["paddingTop"] != 4.0 {
		t.Errorf("style = %v", s)
	}
}

type recorder struct {
	transitions []apply.TransitionEffect
	animations  []apply.AnimationEffect
}

func (r *recorder) Transition(t apply.TransitionEffect) { r.transitions = append(r.transitions, t) }
func (r *recorder) Animate(a apply.AnimationEffect)     { r.animations = append(r.animations, a) }

func TestCommit_Transition(t *testing.T) {
	f := newFixture(t, `.a { transition: opacity 200ms; opacity: 0.5 } .a:hover { opacity: 1 }`)
	el := f.element("a")
	props := map[string]any{"className": "a"}
	d := &recorder{}

	el.Render(nil, props)
	el.Commit(d)
	if len(d.transitions) != 0 {
		t.Fatalf("first assignment must not transition: %+v", d.transitions)
	}

	el.SetHover(true)
	r := el.Render(nil, props)
	if got := style(t, r)["opacity"]; got != 0.5 {
		t.Errorf("opacity = %v, want previous value until transition runs", got)
	}
	el.Commit(d)
	want := apply.TransitionEffect{Property: "opacity", From: 0.5, To: 1.0, Duration: 200, TimingFunction: "ease"}
	if len(d.transitions) != 1 || !reflect.DeepEqual(d.transitions[0], want) {
		t.Errorf("transitions = %+v, want %+v", d.transitions, want)
	}

	el.Commit(d)
	if len(d.transitions) != 1 {
		t.Error("effects must be handed over once")
	}
}

func TestCommit_Animation(t *testing.T) {
	f := newFixture(t, `
@keyframes fade { from { opacity: 0 } to { opacity: 1 } }
.a { animation: fade 300ms infinite both }
`)
	el := f.element("a")
	r := el.Render(nil, map[string]any{"className": "a"})
	if got := style(t, r)["opacity"]; got != 0.0 {
		t.Errorf("opacity = %v, want first frame", got)
	}
	d := &recorder{}
	el.Commit(d)
	if len(d.animations) != 1 {
		t.Fatalf("animations = %+v", d.animations)
	}
	a := d.animations[0]
	if a.Name != "fade" || a.Duration != 300 || a.IterationCount != -1 || a.FillMode != "both" {
		t.Errorf("animation = %+v", a)
	}
	if len(a.Tracks) != 1 || !reflect.DeepEqual(a.Tracks[0].Values, []any{0.0, 1.0}) {
		t.Errorf("tracks = %+v", a.Tracks)
	}
}

func TestRender_Containers(t *testing.T) {
	f := newFixture(t, `
.card { container-name: card; container-type: inline-size }
@container card (min-width: 400px) { .title { font-size: 20px } }
`)
	card := f.element("card")
	parent := card.Render(nil, map[string]any{"className": "card"})
	if parent.Child.Containers["card"] == nil || parent.Child.Containers[""] == nil {
		t.Fatalf("containers = %v", parent.Child.Containers)
	}

	title := f.element("title")
	props := map[string]any{"className": "title"}
	if _, ok := style(t, title.Render(parent.Child, props))["fontSize"]; ok {
		t.Fatal("container rule applied before layout")
	}
	card.SetLayout(500, 300)
	if tokens := f.queue.Drain(); len(tokens) != 1 || tokens[0] != title.Token() {
		t.Fatalf("queue = %v, want title", tokens)
	}
	if got := style(t, title.Render(parent.Child, props))["fontSize"]; got != 20.0 {
		t.Errorf("fontSize = %v, want 20", got)
	}
}

func TestUnmount(t *testing.T) {
	f := newFixture(t, `.a:hover { color: red }`)
	el := f.element("a")
	el.Render(nil, map[string]any{"className": "a"})

	el.Unmount()
	el.SetHover(true)
	if n := f.queue.Len(); n != 0 {
		t.Errorf("unmounted element queued %d renders", n)
	}
}

func TestDroppedElementsReleaseIdentities(t *testing.T) {
	f := newFixture(t, `.a:hover { color: red }`)

	const n = 50
	func() {
		for range n {
			f.element("a").Render(nil, map[string]any{"className": "a"})
		}
	}()
	if got := f.reg.Tracked(); got != n {
		t.Fatalf("tracked identities = %d, want %d", got, n)
	}

	deadline := time.Now().Add(5 * time.Second)
	for f.reg.Tracked() > 0 && time.Now().Before(deadline) {
		runtime.GC()
		time.Sleep(10 * time.Millisecond)
	}
	if got := f.reg.Tracked(); got != 0 {
		t.Errorf("tracked identities = %d after elements were dropped, want 0", got)
	}

	// released effects are detached by the next render
	live := f.element("a")
	live.Render(nil, map[string]any{"className": "a"})
	live.SetHover(true)
	if tokens := f.queue.Drain(); len(tokens) != 1 || tokens[0] != live.Token() {
		t.Errorf("queue = %v, want live element token only", tokens)
	}
}
