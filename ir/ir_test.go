package ir

import (
	"reflect"
	"sort"
	"testing"
)

func TestSpecificity_Compare(t *testing.T) {
	tests := []struct {
		name string
		a, b Specificity
		want int
	}{
		{"later order wins", Specificity{1, 1}, Specificity{2, 1}, -1},
		{"class count beats order", Specificity{9, 1}, Specificity{1, 2}, -1},
		{"important beats class count", Specificity{1, 5}, Specificity{1, 1, 1}, -1},
		{"inline beats class count", Specificity{9, 9}, Specificity{0, 0, 0, 1}, -1},
		{"important beats inline", Specificity{0, 0, 0, 1}, Specificity{0, 0, 1}, -1},
		{"inline important beats important", Specificity{5, 5, 1}, Specificity{0, 0, 1, 1}, -1},
		{"equal", Specificity{3, 1}, Specificity{3, 1}, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.a.Compare(tt.b); got != tt.want {
				t.Errorf("%v.Compare(%v) = %d, want %d", tt.a, tt.b, got, tt.want)
			}
			if got := tt.b.Compare(tt.a); got != -tt.want {
				t.Errorf("%v.Compare(%v) = %d, want %d", tt.b, tt.a, got, -tt.want)
			}
		})
	}
}

func TestSpecificity_SortIsStable(t *testing.T) {
	rules := []Specificity{{3, 1}, {1, 1, 1}, {2, 2}, {1, 1}}
	sort.SliceStable(rules, func(i, j int) bool { return rules[i].Less(rules[j]) })
	want := []Specificity{{1, 1}, {3, 1}, {2, 2}, {1, 1, 1}}
	if !reflect.DeepEqual(rules, want) {
		t.Errorf("sorted = %v, want %v", rules, want)
	}
}

func TestSpecificity_MissingSlotsAreZero(t *testing.T) {
	s, err := specificityFromPlain([]any{float64(4)})
	if err != nil {
		t.Fatal(err)
	}
	if s != (Specificity{4}) {
		t.Errorf("got %v", s)
	}
	if got := (Specificity{4, 0, 1}).plain(); len(got) != 3 {
		t.Errorf("trailing zeros must be trimmed, got %v", got)
	}
}

func samplePayload() *Payload {
	return &Payload{
		Rules: []RuleSetEntry{{
			Name: "btn",
			Set: &StyleRuleSet{
				Normal: []*StyleRule{{
					Specificity: Specificity{1, 2},
					Declarations: []Declaration{
						{Static: map[string]Descriptor{"color": String("red"), "opacity": Number(0.5)}},
						{Value: Var("--gap", Number(4)), Path: RelativePath("marginTop")},
						{Value: &Func{Kind: FuncEm, Name: "em", Args: []Descriptor{Number(1.5)}, Deferred: true}, Path: AbsolutePath("lineHeight"), Deferred: true},
					},
					Variables:  []Variable{{Name: "--gap", Value: Number(8)}},
					Containers: []string{"card"},
					Media:      []*Condition{And(Compare("width", CmpGe, Number(600)), Not(Compare("dir", CmpEq, String("rtl"))))},
					Pseudo:     &PseudoClasses{Hover: true},
					ContainerQueries: []*ContainerQuery{{
						Name:       "group/card",
						Query:      Compare("width", CmpLt, Number(400)),
						Pseudo:     &PseudoClasses{Active: true},
						Attributes: []AttributeQuery{{Source: AttrData, Name: "state", Op: AttrEquals, Value: "open"}},
					}},
					AttributeQueries: []AttributeQuery{{Source: AttrProp, Name: "title", Op: AttrPrefix, Value: "a", Insensitive: true}},
					Animation:        &Animation{Name: []string{"spin"}, Duration: []float64{1000}},
					Transition:       &Transition{Property: []string{"opacity"}, Duration: []float64{200}},
				}},
				Important: []*StyleRule{{
					Specificity:  Specificity{1, 1, 1},
					Declarations: []Declaration{{Static: map[string]Descriptor{"color": String("blue")}}},
				}},
			},
		}},
		Keyframes: []KeyframesEntry{{
			Name: "spin",
			Keyframes: &Keyframes{Tracks: []*Track{{
				Property: "transform",
				Offsets:  []float64{0, 1},
				Values:   []Descriptor{List{NewFunc("rotate", String("0deg"))}, List{NewFunc("rotate", String("360deg"))}},
				Easing:   []string{"linear", ""},
				Flags:    TrackDynamic,
			}}},
		}},
		Root:      []ThemeVariable{{Name: "--bg", Light: String("white"), Dark: String("black")}},
		Universal: []ThemeVariable{{Name: "--fg", Light: Bool(true)}},
		Flags:     map[string]string{"darkMode": "media"},
	}
}

func TestCodec_JSON(t *testing.T) {
	p := samplePayload()
	data, err := EncodeJSON(p, false)
	if err != nil {
		t.Fatalf("EncodeJSON: %v", err)
	}
	got, err := DecodeJSON(data)
	if err != nil {
		t.Fatalf("DecodeJSON: %v", err)
	}
	if !reflect.DeepEqual(got, p) {
		t.Errorf("decoded payload differs:\n%+v\n%+v", got.Plain(), p.Plain())
	}
	again, _ := EncodeJSON(got, false)
	if string(again) != string(data) {
		t.Errorf("re-encoding changed bytes:\n%s\n%s", data, again)
	}
}

func TestCodec_Ion(t *testing.T) {
	p := samplePayload()
	data, err := EncodeIon(p)
	if err != nil {
		t.Fatalf("EncodeIon: %v", err)
	}
	got, err := DecodeIon(data)
	if err != nil {
		t.Fatalf("DecodeIon: %v", err)
	}
	if !reflect.DeepEqual(got.Plain(), p.Plain()) {
		t.Errorf("decoded payload differs:\n%+v\n%+v", got.Plain(), p.Plain())
	}
	second, _ := EncodeIon(p)
	if string(second) != string(data) {
		t.Error("ion encoding is not deterministic")
	}
}

func TestCodec_EmptyPayload(t *testing.T) {
	p, err := DecodeJSON([]byte(`{}`))
	if err != nil {
		t.Fatalf("DecodeJSON: %v", err)
	}
	if !p.Empty() {
		t.Errorf("expected empty payload, got %+v", p)
	}
}

func TestCodec_Malformed(t *testing.T) {
	tests := []string{
		`[]`,
		`{"s": [["a"]]}`,
		`{"s": [["a", [[{"s": "x"}]]]]}`,
		`{"s": [["a", [[{"d": [["x"]]}]]]]}`,
		`{"s": [["a", [[{"m": [["~", "width", 1]]}]]]]}`,
		`{"k": [["spin", [["opacity", [0, 1], [0]]]]]}`,
		`{"vr": [["--a", []]]}`,
		`{"f": {"x": 1}}`,
	}
	for _, src := range tests {
		if _, err := DecodeJSON([]byte(src)); err == nil {
			t.Errorf("DecodeJSON(%s) must fail", src)
		}
	}
}

func TestDescriptor_Helpers(t *testing.T) {
	d := List{Number(1), Var("--x", &Func{Kind: FuncEm, Name: "em", Args: []Descriptor{Number(2)}, Deferred: true})}
	if IsStatic(d) {
		t.Error("list with var is not static")
	}
	if !HasDeferred(d) {
		t.Error("nested em must be deferred")
	}
	if got := Format(d); got != "1 var(--x, em(2))" {
		t.Errorf("Format = %q", got)
	}
	if KindOf("translateX") != FuncTransform || KindOf("@flex") != FuncShorthand || KindOf("rgb") != FuncCSS {
		t.Error("unexpected function kinds")
	}
	n := 0
	Walk(d, func(Descriptor) { n++ })
	if n != 6 {
		t.Errorf("Walk visited %d nodes, want 6", n)
	}
}

func TestPath(t *testing.T) {
	for _, s := range []string{"color", "style.color", "^fill", "^a.b"} {
		if got := ParsePath(s).String(); got != s {
			t.Errorf("ParsePath(%q).String() = %q", s, got)
		}
	}
	p := ParsePath("^a.b")
	if !p.Absolute || p.Last() != "b" || p.Parent().String() != "^a" || p.Child("c").String() != "^a.b.c" {
		t.Errorf("unexpected path helpers for %v", p)
	}
}
