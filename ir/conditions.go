package ir

// CondOp is the node kind of a boolean condition tree.
type CondOp int

const (
	CondCompare CondOp = iota
	CondNot
	CondAnd
	CondOr
)

// Comparison is the operator of a feature comparison.
type Comparison int

const (
	CmpEq Comparison = iota
	CmpLt
	CmpLe
	CmpGt
	CmpGe
)

var cmpSymbols = [...]string{CmpEq: "=", CmpLt: "<", CmpLe: "<=", CmpGt: ">", CmpGe: ">="}

func (c Comparison) String() string {
	return cmpSymbols[c]
}

// Invert returns comparison with swapped operands: a < b == b > a.
func (c Comparison) Invert() Comparison {
	switch c {
	case CmpLt:
		return CmpGt
	case CmpLe:
		return CmpGe
	case CmpGt:
		return CmpLt
	case CmpGe:
		return CmpLe
	}
	return c
}

// Condition is a recursive boolean condition used by media queries and
// container queries.
type Condition struct {
	Op       CondOp
	Children []*Condition
	Cmp      Comparison
	Feature  string
	Value    Descriptor
}

// Compare creates leaf condition "feature cmp value".
func Compare(feature string, cmp Comparison, value Descriptor) *Condition {
	return &Condition{Op: CondCompare, Feature: feature, Cmp: cmp, Value: value}
}

// Not negates condition.
func Not(c *Condition) *Condition {
	return &Condition{Op: CondNot, Children: []*Condition{c}}
}

// And joins conditions, single condition is returned as is.
func And(cs ...*Condition) *Condition {
	if len(cs) == 1 {
		return cs[0]
	}
	return &Condition{Op: CondAnd, Children: cs}
}

// Or joins alternatives, single condition is returned as is.
func Or(cs ...*Condition) *Condition {
	if len(cs) == 1 {
		return cs[0]
	}
	return &Condition{Op: CondOr, Children: cs}
}

func (c *Condition) plain() any {
	switch c.Op {
	case CondNot:
		return []any{"!", c.Children[0].plain()}
	case CondAnd, CondOr:
		sym := "&"
		if c.Op == CondOr {
			sym = "|"
		}
		out := []any{sym}
		for _, ch := range c.Children {
			out = append(out, ch.plain())
		}
		return out
	}
	return []any{c.Cmp.String(), c.Feature, descriptorPlain(c.Value)}
}

func conditionFromPlain(v any) (*Condition, error) {
	list, ok := v.([]any)
	if !ok || len(list) < 2 {
		return nil, typeError("condition", "list", v)
	}
	op, ok := list[0].(string)
	if !ok {
		return nil, typeError("condition operator", "string", list[0])
	}
	switch op {
	case "!":
		ch, err := conditionFromPlain(list[1])
		if err != nil {
			return nil, err
		}
		return Not(ch), nil
	case "&", "|":
		c := &Condition{Op: CondAnd}
		if op == "|" {
			c.Op = CondOr
		}
		for _, e := range list[1:] {
			ch, err := conditionFromPlain(e)
			if err != nil {
				return nil, err
			}
			c.Children = append(c.Children, ch)
		}
		return c, nil
	}
	for i, sym := range cmpSymbols {
		if sym != op {
			continue
		}
		if len(list) != 3 {
			return nil, errorf("comparison %q expects feature and value", op)
		}
		feature, ok := list[1].(string)
		if !ok {
			return nil, typeError("condition feature", "string", list[1])
		}
		val, err := descriptorFromPlain(list[2])
		if err != nil {
			return nil, err
		}
		return Compare(feature, Comparison(i), val), nil
	}
	return nil, errorf("unknown condition operator %q", op)
}

// PseudoClasses is the set of interaction states a rule requires.
type PseudoClasses struct {
	Hover  bool
	Active bool
	Focus  bool
}

// Empty reports whether no pseudo-class is required.
func (p *PseudoClasses) Empty() bool {
	return p == nil || (!p.Hover && !p.Active && !p.Focus)
}

// Count returns number of required pseudo-classes.
func (p *PseudoClasses) Count() int {
	n := 0
	if p == nil {
		return n
	}
	for _, b := range []bool{p.Hover, p.Active, p.Focus} {
		if b {
			n++
		}
	}
	return n
}

func (p *PseudoClasses) plain() any {
	m := map[string]any{}
	if p.Hover {
		m["h"] = true
	}
	if p.Active {
		m["a"] = true
	}
	if p.Focus {
		m["f"] = true
	}
	return m
}

func pseudoFromPlain(v any) (*PseudoClasses, error) {
	m, ok := v.(map[string]any)
	if !ok {
		return nil, typeError("pseudo classes", "map", v)
	}
	p := &PseudoClasses{}
	p.Hover, _ = m["h"].(bool)
	p.Active, _ = m["a"].(bool)
	p.Focus, _ = m["f"].(bool)
	return p, nil
}

// AttrSource tells where attribute query looks for a value.
type AttrSource string

const (
	// AttrProp inspects component props directly.
	AttrProp AttrSource = "a"
	// AttrData inspects the dataSet prop (data-* attributes).
	AttrData AttrSource = "d"
)

// AttrOp is an attribute query operator.
type AttrOp string

const (
	AttrExists    AttrOp = "?"
	AttrTruthy    AttrOp = "!!"
	AttrFalsy     AttrOp = "!"
	AttrEmpty     AttrOp = "@"
	AttrEquals    AttrOp = "="
	AttrIncludes  AttrOp = "~="
	AttrDashMatch AttrOp = "|="
	AttrPrefix    AttrOp = "^="
	AttrSuffix    AttrOp = "$="
	AttrSubstring AttrOp = "*="
)

// AttributeQuery is a check of a single component prop.
type AttributeQuery struct {
	Source      AttrSource
	Name        string
	Op          AttrOp
	Value       string
	Insensitive bool
}

func (q AttributeQuery) plain() any {
	out := []any{string(q.Source), q.Name, string(q.Op)}
	if q.Value != "" || q.Insensitive {
		out = append(out, q.Value)
	}
	if q.Insensitive {
		out = append(out, "i")
	}
	return out
}

func attributeQueryFromPlain(v any) (AttributeQuery, error) {
	var q AttributeQuery
	list, ok := v.([]any)
	if !ok || len(list) < 3 {
		return q, typeError("attribute query", "list", v)
	}
	strs := make([]string, len(list))
	for i, e := range list {
		s, ok := e.(string)
		if !ok {
			return q, typeError("attribute query element", "string", e)
		}
		strs[i] = s
	}
	q.Source, q.Name, q.Op = AttrSource(strs[0]), strs[1], AttrOp(strs[2])
	if len(strs) > 3 {
		q.Value = strs[3]
	}
	q.Insensitive = len(strs) > 4 && strs[4] == "i"
	return q, nil
}

// ContainerQuery scopes a condition to a named container, or to the nearest
// container when Name is empty.
type ContainerQuery struct {
	Name       string
	Query      *Condition
	Pseudo     *PseudoClasses
	Attributes []AttributeQuery
}

func (q *ContainerQuery) plain() any {
	m := map[string]any{}
	if q.Name != "" {
		m["n"] = q.Name
	}
	if q.Query != nil {
		m["m"] = q.Query.plain()
	}
	if !q.Pseudo.Empty() {
		m["p"] = q.Pseudo.plain()
	}
	if len(q.Attributes) > 0 {
		aq := make([]any, len(q.Attributes))
		for i, a := range q.Attributes {
			aq[i] = a.plain()
		}
		m["a"] = aq
	}
	return m
}

func containerQueryFromPlain(v any) (*ContainerQuery, error) {
	m, ok := v.(map[string]any)
	if !ok {
		return nil, typeError("container query", "map", v)
	}
	q := &ContainerQuery{}
	q.Name, _ = m["n"].(string)
	var err error
	if c, ok := m["m"]; ok {
		if q.Query, err = conditionFromPlain(c); err != nil {
			return nil, err
		}
	}
	if p, ok := m["p"]; ok {
		if q.Pseudo, err = pseudoFromPlain(p); err != nil {
			return nil, err
		}
	}
	if a, ok := m["a"].([]any); ok {
		for _, e := range a {
			aq, err := attributeQueryFromPlain(e)
			if err != nil {
				return nil, err
			}
			q.Attributes = append(q.Attributes, aq)
		}
	}
	return q, nil
}
