package ir

import (
	"fmt"
	"strings"

	"stylo/utils/debug"
)

// String returns a readable tree of the whole payload.
// It exists solely for manual inspection during debugging.
func (p *Payload) String() string {
	if p == nil {
		return "<nil Payload>"
	}

	tw := debug.NewTreeWriter()
	tw.Line(0, "Payload: %d classes, %d keyframes, %d root and %d universal variables",
		len(p.Rules), len(p.Keyframes), len(p.Root), len(p.Universal))

	if len(p.Flags) > 0 {
		tw.Line(1, "Flags")
		debug.Map(tw, 2, p.Flags, func(v string) string { return v })
	}
	for _, e := range p.Rules {
		tw.Line(1, "Class[%q]", e.Name)
		e.Set.dump(tw, 2)
	}
	for _, e := range p.Keyframes {
		tw.Line(1, "Keyframes[%q] tracks[%d]", e.Name, len(e.Keyframes.Tracks))
		for _, t := range e.Keyframes.Tracks {
			values := make([]string, len(t.Values))
			for i, v := range t.Values {
				values[i] = Format(v)
			}
			tw.Line(2, "%s offsets%v values[%s] dynamic[%t]", t.Property, t.Offsets, strings.Join(values, "; "), t.Flags&TrackDynamic != 0)
		}
	}
	dumpTheme(tw, "Root", p.Root)
	dumpTheme(tw, "Universal", p.Universal)
	return tw.String()
}

// String returns a readable tree of the rule set.
func (s *StyleRuleSet) String() string {
	if s == nil {
		return "<nil StyleRuleSet>"
	}
	tw := debug.NewTreeWriter()
	s.dump(tw, 0)
	return tw.String()
}

func (s *StyleRuleSet) dump(tw *debug.TreeWriter, depth int) {
	for _, r := range s.Normal {
		tw.Line(depth, "Rule %v", r.Specificity)
		r.dump(tw, depth+1)
	}
	for _, r := range s.Important {
		tw.Line(depth, "Rule %v !important", r.Specificity)
		r.dump(tw, depth+1)
	}
}

func (r *StyleRule) dump(tw *debug.TreeWriter, depth int) {
	for _, c := range r.Media {
		tw.Line(depth, "@media %s", FormatCondition(c))
	}
	for _, q := range r.ContainerQueries {
		name := q.Name
		if name == "" {
			name = "<nearest>"
		}
		tw.Line(depth, "@container %s %s", name, FormatCondition(q.Query))
	}
	if !r.Pseudo.Empty() {
		tw.Line(depth, "pseudo hover[%t] active[%t] focus[%t]", r.Pseudo.Hover, r.Pseudo.Active, r.Pseudo.Focus)
	}
	for _, a := range r.AttributeQueries {
		tw.Line(depth, "attribute %s:%s %s %q", a.Source, a.Name, a.Op, a.Value)
	}
	if len(r.Containers) > 0 {
		tw.Line(depth, "containers %q", r.Containers)
	}
	for _, v := range r.Variables {
		tw.TextBlock(depth, v.Name, Format(v.Value))
	}
	for _, d := range r.Declarations {
		if d.IsStatic() {
			debug.Map(tw, depth, d.Static, Format)
			continue
		}
		label := d.Path.String()
		if d.Deferred {
			label += " (deferred)"
		}
		tw.TextBlock(depth, label, Format(d.Value))
	}
	if a := r.Animation; a != nil {
		tw.Line(depth, "animation %q duration%v iterations%v", a.Name, a.Duration, a.IterationCount)
	}
	if t := r.Transition; t != nil {
		tw.Line(depth, "transition %q duration%v delay%v", t.Property, t.Duration, t.Delay)
	}
}

func dumpTheme(tw *debug.TreeWriter, label string, vars []ThemeVariable) {
	if len(vars) == 0 {
		return
	}
	tw.Line(1, "%s variables", label)
	for _, v := range vars {
		if v.Dark == nil {
			tw.TextBlock(2, v.Name, Format(v.Light))
			continue
		}
		tw.Line(2, "%s light[%s] dark[%s]", v.Name, Format(v.Light), Format(v.Dark))
	}
}

// FormatCondition renders condition tree as text.
func FormatCondition(c *Condition) string {
	if c == nil {
		return "all"
	}
	switch c.Op {
	case CondNot:
		return "not " + FormatCondition(c.Children[0])
	case CondAnd, CondOr:
		sep := " and "
		if c.Op == CondOr {
			sep = " or "
		}
		parts := make([]string, len(c.Children))
		for i, ch := range c.Children {
			parts[i] = FormatCondition(ch)
		}
		return "(" + strings.Join(parts, sep) + ")"
	}
	return fmt.Sprintf("(%s %s %s)", c.Feature, c.Cmp, Format(c.Value))
}
