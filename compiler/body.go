package compiler

import (
	"errors"
	"strings"

	"github.com/tdewolff/parse/v2/css"
	"go.uber.org/zap"

	stylecss "stylo/css"
	"stylo/ir"
)

// compiledBody is the rule body shared by all selectors of a rule.
type compiledBody struct {
	normal     []ir.Declaration
	important  []ir.Declaration
	variables  []ir.Variable
	containers []string
	animation  *ir.Animation
	transition *ir.Transition
}

// pending is a compiled declaration before grouping.
type pending struct {
	path     ir.Path
	value    ir.Descriptor
	deferred bool
}

// propMapping is the @prop rewrite of property output.
type propMapping struct {
	target  *ir.Path
	delayed bool
}

func (cm *compilation) body(body *stylecss.Body) *compiledBody {
	cb := &compiledBody{}
	mappings := cm.propMappings(body)

	var normal, important []pending
	for _, decl := range body.Declarations {
		if decl.IsCustom() {
			cb.variables = setVariable(cb.variables, decl.Property, variableValue(decl.Value))
			continue
		}
		switch {
		case strings.HasPrefix(decl.Property, "transition"):
			t, err := compileTransition(decl.Property, decl.Value)
			if err != nil {
				cm.reject(decl, err)
				continue
			}
			cb.transition = cb.transition.Merge(t)
			continue
		case strings.HasPrefix(decl.Property, "animation"):
			a, err := compileAnimation(decl.Property, decl.Value)
			if err != nil {
				cm.reject(decl, err)
				continue
			}
			cb.animation = cb.animation.Merge(a)
			continue
		}

		outs, err := compileProperty(decl)
		if err != nil {
			cm.reject(decl, err)
			continue
		}
		for _, out := range outs {
			if out.key == containerKey {
				for _, name := range out.value.(ir.List) {
					cb.containers = appendUnique(cb.containers, string(name.(ir.String)))
				}
				continue
			}
			p := pending{path: ir.RelativePath(out.key), value: out.value, deferred: ir.HasDeferred(out.value)}
			if m, ok := lookupMapping(mappings, out.property); ok {
				if m.target != nil {
					if len(outs) == 1 {
						p.path = *m.target
					} else {
						cm.log.Debug("Ignoring @prop target of shorthand", zap.String("property", decl.Property), zap.Int("line", decl.Line))
					}
				}
				p.deferred = p.deferred || m.delayed
			}
			if decl.Important {
				important = append(important, p)
			} else {
				normal = append(normal, p)
			}
		}
	}
	cb.normal = group(normal)
	cb.important = group(important)
	return cb
}

func (cm *compilation) reject(decl stylecss.Declaration, err error) {
	if !known(decl.Property) {
		cm.warnings.property(decl.Property)
	} else {
		cm.warnings.value(decl.Property, decl.Raw())
	}
	cm.log.Debug("Skipping declaration", zap.String("property", decl.Property), zap.String("value", decl.Raw()), zap.Int("line", decl.Line), zap.Error(err))
}

// variableValue parses custom property value. Values which are not valid
// descriptors are kept as text.
func variableValue(tokens []stylecss.Token) ir.Descriptor {
	d, err := parseValue(tokens)
	if err != nil {
		return ir.String(stylecss.Raw(tokens))
	}
	return d
}

func setVariable(vars []ir.Variable, name string, value ir.Descriptor) []ir.Variable {
	for i := range vars {
		if vars[i].Name == name {
			vars = append(vars[:i], vars[i+1:]...)
			break
		}
	}
	return append(vars, ir.Variable{Name: name, Value: value})
}

func appendUnique(list []string, s string) []string {
	for _, e := range list {
		if e == s {
			return list
		}
	}
	return append(list, s)
}

// group drops overridden declarations and packs runs of static single key
// declarations into static objects.
func group(decls []pending) []ir.Declaration {
	last := make(map[string]int, len(decls))
	for i, d := range decls {
		last[d.path.String()] = i
	}

	var (
		out    []ir.Declaration
		static map[string]ir.Descriptor
	)
	for i, d := range decls {
		if last[d.path.String()] != i {
			continue
		}
		if !d.path.Absolute && len(d.path.Keys) == 1 && !d.deferred && ir.IsStatic(d.value) {
			if static == nil {
				static = make(map[string]ir.Descriptor)
				out = append(out, ir.Declaration{Static: static})
			}
			static[d.path.Keys[0]] = d.value
			continue
		}
		static = nil
		out = append(out, ir.Declaration{Value: d.value, Path: d.path, Deferred: d.deferred})
	}
	return out
}

const propAtRule = "prop"

var errBadMapping = errors.New("bad @prop mapping")

// propMappings collects @prop at-rules of the body: "@prop from: to;",
// "@prop from: to !delayed;", "@prop from: !delayed;" and the block form
// "@prop { from: to; }".
func (cm *compilation) propMappings(body *stylecss.Body) map[string]propMapping {
	var mappings map[string]propMapping
	add := func(from string, value []stylecss.Token, line int) {
		m, err := parseMapping(value)
		if err != nil {
			cm.log.Debug("Skipping @prop", zap.String("property", from), zap.Int("line", line), zap.Error(err))
			return
		}
		if mappings == nil {
			mappings = make(map[string]propMapping)
		}
		mappings[from] = m
	}
	for _, item := range body.Items {
		at := item.AtRule
		if at == nil || at.Name != propAtRule {
			continue
		}
		if at.Body != nil {
			for _, d := range at.Body.Declarations {
				add(d.Property, d.Value, d.Line)
			}
			continue
		}
		from, value, ok := splitMapping(at.Prelude)
		if !ok {
			cm.log.Debug("Skipping malformed @prop", zap.String("prelude", stylecss.Raw(at.Prelude)), zap.Int("line", at.Line))
			continue
		}
		add(from, value, at.Line)
	}
	return mappings
}

func splitMapping(tokens []stylecss.Token) (string, []stylecss.Token, bool) {
	for i, t := range tokens {
		if t.TokenType == css.ColonToken {
			from := stylecss.Trim(tokens[:i])
			if len(from) != 1 || from[0].TokenType != css.IdentToken {
				return "", nil, false
			}
			return strings.ToLower(string(from[0].Data)), tokens[i+1:], true
		}
	}
	return "", nil, false
}

func parseMapping(tokens []stylecss.Token) (propMapping, error) {
	var m propMapping
	tokens = stylecss.Trim(tokens)
	if n := len(tokens); n >= 2 && tokens[n-1].TokenType == css.IdentToken && strings.EqualFold(string(tokens[n-1].Data), "delayed") {
		rest := stylecss.Trim(tokens[:n-1])
		if k := len(rest); k > 0 && rest[k-1].TokenType == css.DelimToken && string(rest[k-1].Data) == "!" {
			m.delayed = true
			tokens = stylecss.Trim(rest[:k-1])
		}
	}
	target := strings.ReplaceAll(stylecss.Raw(tokens), " ", "")
	if target == "" {
		if !m.delayed {
			return m, errBadMapping
		}
		return m, nil
	}
	var path ir.Path
	if rest, ok := strings.CutPrefix(target, "*."); ok {
		path = ir.RelativePath(strings.Split(rest, ".")...)
	} else {
		path = ir.AbsolutePath(strings.Split(target, ".")...)
	}
	for _, k := range path.Keys {
		if k == "" {
			return m, errBadMapping
		}
	}
	m.target = &path
	return m, nil
}

func lookupMapping(mappings map[string]propMapping, property string) (propMapping, bool) {
	if mappings == nil {
		return propMapping{}, false
	}
	if m, ok := mappings[property]; ok {
		return m, true
	}
	m, ok := mappings[camel(property)]
	return m, ok
}
