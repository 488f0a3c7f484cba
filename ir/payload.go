package ir

// RuleSetEntry binds rule set to its class name.
type RuleSetEntry struct {
	Name string
	Set  *StyleRuleSet
}

// KeyframesEntry binds keyframes to animation name.
type KeyframesEntry struct {
	Name      string
	Keyframes *Keyframes
}

// ThemeVariable is a :root or * variable with optional dark variant.
type ThemeVariable struct {
	Name  string
	Light Descriptor
	Dark  Descriptor
}

// Payload is the compiled stylesheet.
type Payload struct {
	Rules     []RuleSetEntry
	Keyframes []KeyframesEntry
	Root      []ThemeVariable
	Universal []ThemeVariable
	Flags     map[string]string
}

// Empty reports whether payload registers nothing.
func (p *Payload) Empty() bool {
	return p == nil || (len(p.Rules) == 0 && len(p.Keyframes) == 0 &&
		len(p.Root) == 0 && len(p.Universal) == 0 && len(p.Flags) == 0)
}

// RuleSet returns rule set registered for class name.
func (p *Payload) RuleSet(name string) *StyleRuleSet {
	for _, e := range p.Rules {
		if e.Name == name {
			return e.Set
		}
	}
	return nil
}

// Plain converts payload into plain data tree.
func (p *Payload) Plain() map[string]any {
	m := map[string]any{}
	if len(p.Rules) > 0 {
		s := make([]any, len(p.Rules))
		for i, e := range p.Rules {
			s[i] = []any{e.Name, e.Set.plain()}
		}
		m["s"] = s
	}
	if len(p.Keyframes) > 0 {
		k := make([]any, len(p.Keyframes))
		for i, e := range p.Keyframes {
			k[i] = []any{e.Name, e.Keyframes.plain()}
		}
		m["k"] = k
	}
	if len(p.Root) > 0 {
		m["vr"] = themePlain(p.Root)
	}
	if len(p.Universal) > 0 {
		m["vu"] = themePlain(p.Universal)
	}
	if len(p.Flags) > 0 {
		f := make(map[string]any, len(p.Flags))
		for k, v := range p.Flags {
			f[k] = v
		}
		m["f"] = f
	}
	return m
}

func themePlain(vars []ThemeVariable) []any {
	out := make([]any, len(vars))
	for i, v := range vars {
		values := []any{descriptorPlain(v.Light)}
		if v.Dark != nil {
			values = append(values, descriptorPlain(v.Dark))
		}
		out[i] = []any{v.Name, values}
	}
	return out
}

// FromPlain converts plain data tree back into payload.
func FromPlain(v any) (*Payload, error) {
	m, ok := v.(map[string]any)
	if !ok {
		return nil, typeError("payload", "map", v)
	}
	p := &Payload{}
	for _, e := range listOf(m["s"]) {
		pair, ok := e.([]any)
		if !ok || len(pair) != 2 {
			return nil, typeError("rule set entry", "pair", e)
		}
		name, ok := pair[0].(string)
		if !ok {
			return nil, typeError("class name", "string", pair[0])
		}
		set, err := styleRuleSetFromPlain(pair[1])
		if err != nil {
			return nil, err
		}
		p.Rules = append(p.Rules, RuleSetEntry{Name: name, Set: set})
	}
	for _, e := range listOf(m["k"]) {
		pair, ok := e.([]any)
		if !ok || len(pair) != 2 {
			return nil, typeError("keyframes entry", "pair", e)
		}
		name, ok := pair[0].(string)
		if !ok {
			return nil, typeError("keyframes name", "string", pair[0])
		}
		kf, err := keyframesFromPlain(pair[1])
		if err != nil {
			return nil, err
		}
		p.Keyframes = append(p.Keyframes, KeyframesEntry{Name: name, Keyframes: kf})
	}
	var err error
	if p.Root, err = themeFromPlain(m["vr"]); err != nil {
		return nil, err
	}
	if p.Universal, err = themeFromPlain(m["vu"]); err != nil {
		return nil, err
	}
	if f, ok := m["f"].(map[string]any); ok {
		p.Flags = make(map[string]string, len(f))
		for k, v := range f {
			s, ok := v.(string)
			if !ok {
				return nil, typeError("flag "+k, "string", v)
			}
			p.Flags[k] = s
		}
	}
	return p, nil
}

func themeFromPlain(v any) ([]ThemeVariable, error) {
	var out []ThemeVariable
	for _, e := range listOf(v) {
		pair, ok := e.([]any)
		if !ok || len(pair) != 2 {
			return nil, typeError("theme variable", "pair", e)
		}
		name, ok := pair[0].(string)
		if !ok {
			return nil, typeError("theme variable name", "string", pair[0])
		}
		values := listOf(pair[1])
		if len(values) == 0 || len(values) > 2 {
			return nil, errorf("theme variable %q expects light and optional dark value", name)
		}
		tv := ThemeVariable{Name: name}
		var err error
		if tv.Light, err = descriptorFromPlain(values[0]); err != nil {
			return nil, err
		}
		if len(values) == 2 {
			if tv.Dark, err = descriptorFromPlain(values[1]); err != nil {
				return nil, err
			}
		}
		out = append(out, tv)
	}
	return out, nil
}
