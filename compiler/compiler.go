// Package compiler turns stylesheet source into the plain data payload the
// runtime registers.
package compiler

import (
	"cmp"
	"fmt"
	"regexp"
	"slices"

	"go.uber.org/zap"

	stylecss "stylo/css"
	"stylo/ir"
	"stylo/selector"
)

// Options controls compilation.
type Options struct {
	// DarkModeClass switches dark variants by class instead of
	// prefers-color-scheme media.
	DarkModeClass string
	// GroupPattern restricts ancestor classes which may form groups.
	GroupPattern *regexp.Regexp
	// PreserveVariables are kept even when nothing in the sheet uses them.
	PreserveVariables []string
}

// Warnings lists declarations which did not make it into the payload.
type Warnings struct {
	Properties []string            // unknown properties
	Values     map[string][]string // rejected values of known properties
}

// Empty reports whether there is nothing to warn about.
func (w *Warnings) Empty() bool {
	return w == nil || (len(w.Properties) == 0 && len(w.Values) == 0)
}

func (w *Warnings) property(name string) {
	if !slices.Contains(w.Properties, name) {
		w.Properties = append(w.Properties, name)
	}
}

func (w *Warnings) value(name, value string) {
	if w.Values == nil {
		w.Values = make(map[string][]string)
	}
	if !slices.Contains(w.Values[name], value) {
		w.Values[name] = append(w.Values[name], value)
	}
}

// Result of compilation.
type Result struct {
	Payload  *ir.Payload
	Warnings *Warnings
}

// Compiler compiles stylesheets.
type Compiler struct {
	log    *zap.Logger
	opts   Options
	parser *stylecss.Parser
}

// New creates compiler.
func New(log *zap.Logger, opts Options) *Compiler {
	if log == nil {
		log = zap.NewNop()
	}
	return &Compiler{
		log:    log.Named("compiler"),
		opts:   opts,
		parser: stylecss.NewParser(log),
	}
}

// Compile parses and compiles stylesheet source. Syntax errors are fatal,
// unsupported selectors and declarations are skipped.
func (c *Compiler) Compile(src []byte, source ...string) (*Result, error) {
	sheet, err := c.parser.Parse(src, source...)
	if err != nil {
		return nil, fmt.Errorf("unable to parse stylesheet: %w", err)
	}
	return c.CompileSheet(sheet), nil
}

// CompileSheet compiles already parsed stylesheet.
func (c *Compiler) CompileSheet(sheet *stylecss.Stylesheet) *Result {
	cm := &compilation{
		log:      c.log,
		opts:     c.opts,
		rules:    make(map[string]*ir.StyleRuleSet),
		groups:   make(map[string]bool),
		root:     make(map[string]*ir.ThemeVariable),
		universe: make(map[string]*ir.ThemeVariable),
		flags:    make(map[string]string),
		preserve: make(map[string]bool),
		warnings: &Warnings{},
	}
	for _, name := range c.opts.PreserveVariables {
		cm.preserve[name] = true
	}

	cm.configure(sheet.Items)
	cm.items(sheet.Items, scope{})
	cm.prune()

	res := &Result{Payload: cm.payload(), Warnings: cm.warnings}
	c.log.Debug("Stylesheet compiled",
		zap.Int("classes", len(res.Payload.Rules)),
		zap.Int("keyframes", len(res.Payload.Keyframes)),
		zap.Int("root", len(res.Payload.Root)),
		zap.Int("universal", len(res.Payload.Universal)),
		zap.Int("unknown", len(res.Warnings.Properties)),
		zap.Int("rejected", len(res.Warnings.Values)))
	return res
}

// scope carries conditions of enclosing at-rules.
type scope struct {
	media      []*ir.Condition
	containers []*ir.ContainerQuery
}

func (s scope) withMedia(c *ir.Condition) scope {
	if c == nil {
		return s
	}
	return scope{media: append(slices.Clip(s.media), c), containers: s.containers}
}

func (s scope) withContainer(q *ir.ContainerQuery) scope {
	return scope{media: s.media, containers: append(slices.Clip(s.containers), q)}
}

var darkScheme = ir.Compare("prefers-color-scheme", ir.CmpEq, ir.String("dark"))

// theme classifies scope for root variables: light, dark, or unusable when
// it carries anything but colour scheme.
func (s scope) theme() (dark bool, ok bool) {
	if len(s.containers) > 0 || len(s.media) > 1 {
		return false, false
	}
	if len(s.media) == 0 {
		return false, true
	}
	m := s.media[0]
	if m.Op != ir.CondCompare || m.Feature != "prefers-color-scheme" || m.Cmp != ir.CmpEq {
		return false, false
	}
	return m.Value == ir.String("dark"), true
}

type compilation struct {
	log  *zap.Logger
	opts Options

	order     int
	rules     map[string]*ir.StyleRuleSet
	ruleOrder []string
	groups    map[string]bool

	keyframes []ir.KeyframesEntry

	root, universe           map[string]*ir.ThemeVariable
	rootOrder, universeOrder []string

	flags    map[string]string
	preserve map[string]bool
	warnings *Warnings
}

func (cm *compilation) items(items []stylecss.Item, sc scope) {
	for _, item := range items {
		switch {
		case item.Rule != nil:
			cm.rule(item.Rule.Selectors, &item.Rule.Body, item.Rule.Line, sc)
		case item.AtRule != nil:
			cm.atRule(item.AtRule, sc)
		}
	}
}

func (cm *compilation) atRule(at *stylecss.AtRule, sc scope) {
	switch at.Name {
	case "media":
		if at.Body == nil {
			return
		}
		cond, err := parseMediaQueryList(at.Prelude)
		if err != nil {
			cm.log.Debug("Skipping unsupported media query", zap.String("query", stylecss.Raw(at.Prelude)), zap.Int("line", at.Line), zap.Error(err))
			return
		}
		cm.items(at.Body.Items, sc.withMedia(cond))
	case "container":
		if at.Body == nil {
			return
		}
		q, err := parseContainerPrelude(at.Prelude)
		if err != nil {
			cm.log.Debug("Skipping unsupported container query", zap.String("query", stylecss.Raw(at.Prelude)), zap.Int("line", at.Line), zap.Error(err))
			return
		}
		cm.items(at.Body.Items, sc.withContainer(q))
	case "keyframes", "-webkit-keyframes":
		cm.keyframesRule(at)
	case configAtRule:
		// already applied
	default:
		cm.log.Debug("Skipping unsupported at-rule", zap.String("name", at.Name), zap.Int("line", at.Line))
	}
}

// rule compiles qualified rule for every supported selector of its list.
func (cm *compilation) rule(selectors [][]stylecss.Token, body *stylecss.Body, line int, sc scope) {
	var sels []*selector.Selector
	for _, tokens := range selectors {
		sel := selector.Normalize(tokens, selector.Options{GroupPattern: cm.opts.GroupPattern, DarkModeClass: cm.opts.DarkModeClass})
		if sel == nil {
			cm.log.Debug("Skipping unsupported selector", zap.String("selector", stylecss.Raw(tokens)), zap.Int("line", line))
			continue
		}
		sels = append(sels, sel)
	}
	if len(sels) > 0 {
		cm.order++
		cb := cm.body(body)
		for _, sel := range sels {
			cm.attach(sel, cb, sc)
		}
	}

	// conditional blocks nested in rule body apply to the same selectors
	for _, item := range body.Items {
		switch {
		case item.AtRule != nil && item.AtRule.Body != nil && (item.AtRule.Name == "media" || item.AtRule.Name == "container"):
			nested := &stylecss.AtRule{
				Name:    item.AtRule.Name,
				Prelude: item.AtRule.Prelude,
				Line:    item.AtRule.Line,
				Body: &stylecss.Body{Items: []stylecss.Item{{Rule: &stylecss.Rule{
					Selectors: selectors,
					Body:      *item.AtRule.Body,
					Line:      item.AtRule.Line,
				}}}},
			}
			cm.atRule(nested, sc)
		case item.Rule != nil:
			cm.log.Debug("Skipping nested rule", zap.String("selector", item.Rule.Raw()), zap.Int("line", item.Rule.Line))
		}
	}
}

// attach adds compiled body to the selector subject.
func (cm *compilation) attach(sel *selector.Selector, cb *compiledBody, sc scope) {
	switch sel.Kind {
	case selector.Root, selector.Universal:
		dark, ok := sc.theme()
		if !ok {
			cm.log.Debug("Skipping conditional theme variables")
			return
		}
		dark = dark || sel.Dark
		table, order := cm.root, &cm.rootOrder
		if sel.Kind == selector.Universal {
			table, order = cm.universe, &cm.universeOrder
		}
		for _, v := range cb.variables {
			tv, exists := table[v.Name]
			if !exists {
				tv = &ir.ThemeVariable{Name: v.Name}
				table[v.Name] = tv
				*order = append(*order, v.Name)
			}
			if dark {
				tv.Dark = v.Value
			} else {
				tv.Light = v.Value
			}
		}
		return
	}

	base := ir.Specificity{ir.SpecOrder: cm.order}.Add(sel.Specificity)
	rule := &ir.StyleRule{
		Specificity:      base,
		Declarations:     cb.normal,
		Variables:        slices.Clone(cb.variables),
		Containers:       cb.containers,
		Media:            slices.Concat(sc.media, sel.Media),
		Pseudo:           sel.Pseudo,
		ContainerQueries: slices.Clone(sc.containers),
		AttributeQueries: sel.Attributes,
		Animation:        cb.animation,
		Transition:       cb.transition,
	}
	for _, g := range sel.Groups {
		rule.ContainerQueries = append(rule.ContainerQueries, &ir.ContainerQuery{Name: g.Name, Pseudo: g.Pseudo, Attributes: g.Attributes})
		cm.groupRule(g.Name)
	}

	set := cm.ruleSet(sel.ClassName)
	if !rule.Empty() {
		set.Normal = append(set.Normal, rule)
	}
	if len(cb.important) > 0 {
		imp := *rule
		imp.Specificity[ir.SpecImportant] = 1
		imp.Declarations = cb.important
		imp.Variables, imp.Containers, imp.Animation, imp.Transition = nil, nil, nil, nil
		set.Important = append(set.Important, &imp)
	}
}

func (cm *compilation) ruleSet(class string) *ir.StyleRuleSet {
	set, ok := cm.rules[class]
	if !ok {
		set = &ir.StyleRuleSet{}
		cm.rules[class] = set
		cm.ruleOrder = append(cm.ruleOrder, class)
	}
	return set
}

// groupRule makes group class a named container.
func (cm *compilation) groupRule(name string) {
	if cm.groups[name] {
		return
	}
	cm.groups[name] = true
	set := cm.ruleSet(name)
	set.Normal = append(set.Normal, &ir.StyleRule{
		Specificity: ir.Specificity{ir.SpecClassName: 1},
		Containers:  []string{name},
	})
}

func (cm *compilation) payload() *ir.Payload {
	p := &ir.Payload{}
	for _, name := range cm.ruleOrder {
		set := cm.rules[name]
		if set.Len() == 0 {
			continue
		}
		p.Rules = append(p.Rules, ir.RuleSetEntry{Name: name, Set: set})
	}
	p.Keyframes = cm.keyframes
	for _, name := range cm.rootOrder {
		if tv, ok := cm.root[name]; ok {
			p.Root = append(p.Root, *tv)
		}
	}
	for _, name := range cm.universeOrder {
		if tv, ok := cm.universe[name]; ok {
			p.Universal = append(p.Universal, *tv)
		}
	}
	if len(cm.flags) > 0 {
		p.Flags = cm.flags
	}
	return p
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	slices.SortFunc(keys, cmp.Compare[string])
	return keys
}
