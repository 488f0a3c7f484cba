package match

import (
	"strings"

	"stylo/ir"
	"stylo/registry"
)

// feature returns current value of a named feature: float64, string or bool.
type feature func(name string) (any, bool)

func (m *Matcher) eval(c *ir.Condition, f feature) bool {
	switch c.Op {
	case ir.CondNot:
		return !m.eval(c.Children[0], f)
	case ir.CondAnd:
		for _, ch := range c.Children {
			if !m.eval(ch, f) {
				return false
			}
		}
		return true
	case ir.CondOr:
		for _, ch := range c.Children {
			if m.eval(ch, f) {
				return true
			}
		}
		return false
	}
	v, ok := f(c.Feature)
	if !ok {
		return false
	}
	return m.compare(v, c.Cmp, c.Value)
}

func (m *Matcher) compare(v any, cmp ir.Comparison, target ir.Descriptor) bool {
	if b, ok := target.(ir.Bool); ok {
		// boolean context: "(width)", "(hover)"
		return truthy(v) == bool(b)
	}
	switch x := v.(type) {
	case float64:
		t, ok := m.number(target)
		if !ok {
			return false
		}
		switch cmp {
		case ir.CmpEq:
			return x == t
		case ir.CmpLt:
			return x < t
		case ir.CmpLe:
			return x <= t
		case ir.CmpGt:
			return x > t
		case ir.CmpGe:
			return x >= t
		}
	case string:
		t, ok := target.(ir.String)
		return ok && cmp == ir.CmpEq && strings.EqualFold(x, string(t))
	}
	return false
}

// number converts query value to pixels, relative units are read from the
// environment.
func (m *Matcher) number(d ir.Descriptor) (float64, bool) {
	switch v := d.(type) {
	case ir.Number:
		return float64(v), true
	case *ir.Func:
		arg, ok := v.Arg(0).(ir.Number)
		if !ok {
			return 0, false
		}
		env := &m.reg.Env
		switch v.Kind {
		case ir.FuncEm, ir.FuncRem:
			return float64(arg) * env.Rem.Get(), true
		case ir.FuncVw:
			return float64(arg) * env.Width.Get() / 100, true
		case ir.FuncVh:
			return float64(arg) * env.Height.Get() / 100, true
		case ir.FuncVmin:
			return float64(arg) * min(env.Width.Get(), env.Height.Get()) / 100, true
		case ir.FuncVmax:
			return float64(arg) * max(env.Width.Get(), env.Height.Get()) / 100, true
		}
	}
	return 0, false
}

func (m *Matcher) mediaFeature(name string) (any, bool) {
	env := &m.reg.Env
	switch name {
	case "width", "device-width":
		return env.Width.Get(), true
	case "height", "device-height":
		return env.Height.Get(), true
	case "orientation":
		return orientation(env.Width.Get(), env.Height.Get()), true
	case "aspect-ratio", "device-aspect-ratio":
		return ratio(env.Width.Get(), env.Height.Get()), true
	case "resolution":
		return env.PixelRatio.Get(), true
	case "prefers-color-scheme":
		return env.ColorScheme.Get(), true
	case "dir":
		return env.Dir.Get(), true
	case "type":
		return "screen", true
	case "color", "hover", "pointer":
		return true, true
	}
	return nil, false
}

func (m *Matcher) containerFeature(id *registry.Identity) feature {
	return func(name string) (any, bool) {
		switch name {
		case "width", "inline-size":
			return m.reg.Width(id).Get(), true
		case "height", "block-size":
			return m.reg.Height(id).Get(), true
		case "aspect-ratio":
			return ratio(m.reg.Width(id).Get(), m.reg.Height(id).Get()), true
		case "orientation":
			return orientation(m.reg.Width(id).Get(), m.reg.Height(id).Get()), true
		}
		return nil, false
	}
}

func orientation(width, height float64) string {
	if height >= width {
		return "portrait"
	}
	return "landscape"
}

func ratio(width, height float64) float64 {
	if height == 0 {
		return 0
	}
	return width / height
}
