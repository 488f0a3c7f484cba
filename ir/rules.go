package ir

import (
	"strings"
)

// Path addresses an output property. Relative paths are written inside the
// target wrapper prop (usually "style"), absolute paths start at the props
// root. Serialized form is the dotted key list, absolute paths are prefixed
// with "^".
type Path struct {
	Absolute bool
	Keys     []string
}

// RelativePath creates path inside the target wrapper.
func RelativePath(keys ...string) Path {
	return Path{Keys: keys}
}

// AbsolutePath creates path starting at props root.
func AbsolutePath(keys ...string) Path {
	return Path{Absolute: true, Keys: keys}
}

// ParsePath parses serialized path.
func ParsePath(s string) Path {
	p := Path{}
	if rest, ok := strings.CutPrefix(s, "^"); ok {
		p.Absolute, s = true, rest
	}
	p.Keys = strings.Split(s, ".")
	return p
}

func (p Path) String() string {
	s := strings.Join(p.Keys, ".")
	if p.Absolute {
		return "^" + s
	}
	return s
}

// Last returns the final key of the path.
func (p Path) Last() string {
	if len(p.Keys) == 0 {
		return ""
	}
	return p.Keys[len(p.Keys)-1]
}

// Parent returns path without the final key.
func (p Path) Parent() Path {
	if len(p.Keys) == 0 {
		return p
	}
	return Path{Absolute: p.Absolute, Keys: p.Keys[:len(p.Keys)-1]}
}

// Child returns path extended with keys.
func (p Path) Child(keys ...string) Path {
	out := make([]string, 0, len(p.Keys)+len(keys))
	out = append(append(out, p.Keys...), keys...)
	return Path{Absolute: p.Absolute, Keys: out}
}

// Declaration is either a static object merged verbatim (Static != nil) or a
// tuple [value, path, deferred?] resolved at run time.
type Declaration struct {
	Static   map[string]Descriptor
	Value    Descriptor
	Path     Path
	Deferred bool
}

// IsStatic reports whether declaration is a static object.
func (d Declaration) IsStatic() bool {
	return d.Static != nil
}

func (d Declaration) plain() any {
	if d.Static != nil {
		m := make(map[string]any, len(d.Static))
		for k, v := range d.Static {
			m[k] = descriptorPlain(v)
		}
		return m
	}
	out := []any{descriptorPlain(d.Value), d.Path.String()}
	if d.Deferred {
		out = append(out, float64(1))
	}
	return out
}

func declarationFromPlain(v any) (Declaration, error) {
	switch x := v.(type) {
	case map[string]any:
		d := Declaration{Static: make(map[string]Descriptor, len(x))}
		for k, e := range x {
			val, err := descriptorFromPlain(e)
			if err != nil {
				return d, err
			}
			d.Static[k] = val
		}
		return d, nil
	case []any:
		if len(x) < 2 {
			return Declaration{}, errorf("declaration tuple too short")
		}
		val, err := descriptorFromPlain(x[0])
		if err != nil {
			return Declaration{}, err
		}
		path, ok := x[1].(string)
		if !ok {
			return Declaration{}, typeError("declaration path", "string", x[1])
		}
		d := Declaration{Value: val, Path: ParsePath(path)}
		if len(x) > 2 {
			flag, _ := x[2].(float64)
			d.Deferred = flag == 1
		}
		return d, nil
	}
	return Declaration{}, typeError("declaration", "map or list", v)
}

// Variable is a custom property definition.
type Variable struct {
	Name  string
	Value Descriptor
}

// Infinite is the iteration count of endless animations.
const Infinite = -1

// Animation holds animation-* attributes. Nil fields were not declared and
// do not override fields set by other rules.
type Animation struct {
	Name           []string
	Duration       []float64
	Delay          []float64
	IterationCount []float64
	TimingFunction []string
	Direction      []string
	FillMode       []string
	PlayState      []string
}

// Merge returns copy of a with every declared field of o applied on top.
func (a *Animation) Merge(o *Animation) *Animation {
	if o == nil {
		return a
	}
	r := &Animation{}
	if a != nil {
		*r = *a
	}
	if o.Name != nil {
		r.Name = o.Name
	}
	if o.Duration != nil {
		r.Duration = o.Duration
	}
	if o.Delay != nil {
		r.Delay = o.Delay
	}
	if o.IterationCount != nil {
		r.IterationCount = o.IterationCount
	}
	if o.TimingFunction != nil {
		r.TimingFunction = o.TimingFunction
	}
	if o.Direction != nil {
		r.Direction = o.Direction
	}
	if o.FillMode != nil {
		r.FillMode = o.FillMode
	}
	if o.PlayState != nil {
		r.PlayState = o.PlayState
	}
	return r
}

func (a *Animation) plain() any {
	m := map[string]any{}
	putStrings(m, "n", a.Name)
	putNumbers(m, "d", a.Duration)
	putNumbers(m, "de", a.Delay)
	putNumbers(m, "i", a.IterationCount)
	putStrings(m, "e", a.TimingFunction)
	putStrings(m, "di", a.Direction)
	putStrings(m, "f", a.FillMode)
	putStrings(m, "ps", a.PlayState)
	return m
}

func animationFromPlain(v any) (*Animation, error) {
	m, ok := v.(map[string]any)
	if !ok {
		return nil, typeError("animation", "map", v)
	}
	a := &Animation{}
	var err error
	if a.Name, err = getStrings(m, "n"); err != nil {
		return nil, err
	}
	if a.Duration, err = getNumbers(m, "d"); err != nil {
		return nil, err
	}
	if a.Delay, err = getNumbers(m, "de"); err != nil {
		return nil, err
	}
	if a.IterationCount, err = getNumbers(m, "i"); err != nil {
		return nil, err
	}
	if a.TimingFunction, err = getStrings(m, "e"); err != nil {
		return nil, err
	}
	if a.Direction, err = getStrings(m, "di"); err != nil {
		return nil, err
	}
	if a.FillMode, err = getStrings(m, "f"); err != nil {
		return nil, err
	}
	if a.PlayState, err = getStrings(m, "ps"); err != nil {
		return nil, err
	}
	return a, nil
}

// Transition holds transition-* attributes, merged by field like Animation.
// Property names are output style keys.
type Transition struct {
	Property       []string
	Duration       []float64
	Delay          []float64
	TimingFunction []string
}

// Merge returns copy of t with every declared field of o applied on top.
func (t *Transition) Merge(o *Transition) *Transition {
	if o == nil {
		return t
	}
	r := &Transition{}
	if t != nil {
		*r = *t
	}
	if o.Property != nil {
		r.Property = o.Property
	}
	if o.Duration != nil {
		r.Duration = o.Duration
	}
	if o.Delay != nil {
		r.Delay = o.Delay
	}
	if o.TimingFunction != nil {
		r.TimingFunction = o.TimingFunction
	}
	return r
}

func (t *Transition) plain() any {
	m := map[string]any{}
	putStrings(m, "p", t.Property)
	putNumbers(m, "d", t.Duration)
	putNumbers(m, "de", t.Delay)
	putStrings(m, "e", t.TimingFunction)
	return m
}

func transitionFromPlain(v any) (*Transition, error) {
	m, ok := v.(map[string]any)
	if !ok {
		return nil, typeError("transition", "map", v)
	}
	t := &Transition{}
	var err error
	if t.Property, err = getStrings(m, "p"); err != nil {
		return nil, err
	}
	if t.Duration, err = getNumbers(m, "d"); err != nil {
		return nil, err
	}
	if t.Delay, err = getNumbers(m, "de"); err != nil {
		return nil, err
	}
	if t.TimingFunction, err = getStrings(m, "e"); err != nil {
		return nil, err
	}
	return t, nil
}

// StyleRule is a single compiled rule. All attached conditions must hold for
// its declarations to apply.
type StyleRule struct {
	Specificity      Specificity
	Declarations     []Declaration
	Variables        []Variable
	Containers       []string
	Media            []*Condition
	Pseudo           *PseudoClasses
	ContainerQueries []*ContainerQuery
	AttributeQueries []AttributeQuery
	Animation        *Animation
	Transition       *Transition
}

// HasConditions reports whether rule applies only conditionally.
func (r *StyleRule) HasConditions() bool {
	return len(r.Media) > 0 || !r.Pseudo.Empty() || len(r.ContainerQueries) > 0 || len(r.AttributeQueries) > 0
}

// Empty reports whether rule contributes nothing.
func (r *StyleRule) Empty() bool {
	return len(r.Declarations) == 0 && len(r.Variables) == 0 && len(r.Containers) == 0 &&
		r.Animation == nil && r.Transition == nil
}

func (r *StyleRule) plain() any {
	m := map[string]any{"s": r.Specificity.plain()}
	if len(r.Declarations) > 0 {
		d := make([]any, len(r.Declarations))
		for i, decl := range r.Declarations {
			d[i] = decl.plain()
		}
		m["d"] = d
	}
	if len(r.Variables) > 0 {
		v := make([]any, len(r.Variables))
		for i, vr := range r.Variables {
			v[i] = []any{vr.Name, descriptorPlain(vr.Value)}
		}
		m["v"] = v
	}
	if len(r.Containers) > 0 {
		c := make([]any, len(r.Containers))
		for i, name := range r.Containers {
			c[i] = name
		}
		m["c"] = c
	}
	if len(r.Media) > 0 {
		mq := make([]any, len(r.Media))
		for i, c := range r.Media {
			mq[i] = c.plain()
		}
		m["m"] = mq
	}
	if !r.Pseudo.Empty() {
		m["p"] = r.Pseudo.plain()
	}
	if len(r.ContainerQueries) > 0 {
		cq := make([]any, len(r.ContainerQueries))
		for i, q := range r.ContainerQueries {
			cq[i] = q.plain()
		}
		m["cq"] = cq
	}
	if len(r.AttributeQueries) > 0 {
		aq := make([]any, len(r.AttributeQueries))
		for i, q := range r.AttributeQueries {
			aq[i] = q.plain()
		}
		m["aq"] = aq
	}
	if r.Animation != nil {
		m["a"] = r.Animation.plain()
	}
	if r.Transition != nil {
		m["t"] = r.Transition.plain()
	}
	return m
}

func styleRuleFromPlain(v any) (*StyleRule, error) {
	m, ok := v.(map[string]any)
	if !ok {
		return nil, typeError("style rule", "map", v)
	}
	r := &StyleRule{}
	var err error
	if s, ok := m["s"]; ok {
		if r.Specificity, err = specificityFromPlain(s); err != nil {
			return nil, err
		}
	}
	for _, e := range listOf(m["d"]) {
		d, err := declarationFromPlain(e)
		if err != nil {
			return nil, err
		}
		r.Declarations = append(r.Declarations, d)
	}
	for _, e := range listOf(m["v"]) {
		pair, ok := e.([]any)
		if !ok || len(pair) != 2 {
			return nil, typeError("variable", "pair", e)
		}
		name, ok := pair[0].(string)
		if !ok {
			return nil, typeError("variable name", "string", pair[0])
		}
		val, err := descriptorFromPlain(pair[1])
		if err != nil {
			return nil, err
		}
		r.Variables = append(r.Variables, Variable{Name: name, Value: val})
	}
	if r.Containers, err = getStrings(m, "c"); err != nil {
		return nil, err
	}
	for _, e := range listOf(m["m"]) {
		c, err := conditionFromPlain(e)
		if err != nil {
			return nil, err
		}
		r.Media = append(r.Media, c)
	}
	if p, ok := m["p"]; ok {
		if r.Pseudo, err = pseudoFromPlain(p); err != nil {
			return nil, err
		}
	}
	for _, e := range listOf(m["cq"]) {
		q, err := containerQueryFromPlain(e)
		if err != nil {
			return nil, err
		}
		r.ContainerQueries = append(r.ContainerQueries, q)
	}
	for _, e := range listOf(m["aq"]) {
		q, err := attributeQueryFromPlain(e)
		if err != nil {
			return nil, err
		}
		r.AttributeQueries = append(r.AttributeQueries, q)
	}
	if a, ok := m["a"]; ok {
		if r.Animation, err = animationFromPlain(a); err != nil {
			return nil, err
		}
	}
	if t, ok := m["t"]; ok {
		if r.Transition, err = transitionFromPlain(t); err != nil {
			return nil, err
		}
	}
	return r, nil
}

// StyleRuleSet holds rules of one class name partitioned by importance, both
// in stylesheet order.
type StyleRuleSet struct {
	Normal    []*StyleRule
	Important []*StyleRule
}

// Len returns total number of rules.
func (s *StyleRuleSet) Len() int {
	if s == nil {
		return 0
	}
	return len(s.Normal) + len(s.Important)
}

func (s *StyleRuleSet) plain() any {
	out := []any{rulesPlain(s.Normal)}
	if len(s.Important) > 0 {
		out = append(out, rulesPlain(s.Important))
	}
	return out
}

func rulesPlain(rules []*StyleRule) []any {
	out := make([]any, len(rules))
	for i, r := range rules {
		out[i] = r.plain()
	}
	return out
}

func styleRuleSetFromPlain(v any) (*StyleRuleSet, error) {
	list, ok := v.([]any)
	if !ok || len(list) == 0 || len(list) > 2 {
		return nil, typeError("style rule set", "list of one or two buckets", v)
	}
	s := &StyleRuleSet{}
	for i, bucket := range list {
		for _, e := range listOf(bucket) {
			r, err := styleRuleFromPlain(e)
			if err != nil {
				return nil, err
			}
			if i == 0 {
				s.Normal = append(s.Normal, r)
			} else {
				s.Important = append(s.Important, r)
			}
		}
	}
	return s, nil
}

func listOf(v any) []any {
	l, _ := v.([]any)
	return l
}

func putStrings(m map[string]any, key string, vals []string) {
	if vals == nil {
		return
	}
	out := make([]any, len(vals))
	for i, v := range vals {
		out[i] = v
	}
	m[key] = out
}

func putNumbers(m map[string]any, key string, vals []float64) {
	if vals == nil {
		return
	}
	out := make([]any, len(vals))
	for i, v := range vals {
		out[i] = v
	}
	m[key] = out
}

func getStrings(m map[string]any, key string) ([]string, error) {
	v, ok := m[key]
	if !ok {
		return nil, nil
	}
	list, ok := v.([]any)
	if !ok {
		return nil, typeError(key, "list", v)
	}
	out := make([]string, len(list))
	for i, e := range list {
		s, ok := e.(string)
		if !ok {
			return nil, typeError(key, "string", e)
		}
		out[i] = s
	}
	return out, nil
}

func getNumbers(m map[string]any, key string) ([]float64, error) {
	v, ok := m[key]
	if !ok {
		return nil, nil
	}
	list, ok := v.([]any)
	if !ok {
		return nil, typeError(key, "list", v)
	}
	out := make([]float64, len(list))
	for i, e := range list {
		f, ok := e.(float64)
		if !ok {
			return nil, typeError(key, "number", e)
		}
		out[i] = f
	}
	return out, nil
}
