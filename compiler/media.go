package compiler

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/tdewolff/parse/v2/css"

	stylecss "stylo/css"
	"stylo/ir"
)

// queryParser parses media and container query conditions. Whitespace is
// dropped up front, "and", "or", "not" and "only" are keywords.
type queryParser struct {
	tokens []stylecss.Token
	pos    int
}

func newQueryParser(tokens []stylecss.Token) *queryParser {
	var filtered []stylecss.Token
	for _, t := range tokens {
		if t.TokenType != css.WhitespaceToken && t.TokenType != css.CommentToken {
			filtered = append(filtered, t)
		}
	}
	return &queryParser{tokens: filtered}
}

func (p *queryParser) peek() (stylecss.Token, bool) {
	if p.pos >= len(p.tokens) {
		return stylecss.Token{}, false
	}
	return p.tokens[p.pos], true
}

func (p *queryParser) keyword(word string) bool {
	t, ok := p.peek()
	if ok && t.TokenType == css.IdentToken && strings.EqualFold(string(t.Data), word) {
		p.pos++
		return true
	}
	return false
}

func (p *queryParser) done() bool {
	return p.pos >= len(p.tokens)
}

// parseMediaQueryList parses @media prelude. Media type "all" and "screen"
// always match, other types never do. Result is nil when query always
// matches.
func parseMediaQueryList(tokens []stylecss.Token) (*ir.Condition, error) {
	var alternatives []*ir.Condition
	for _, query := range stylecss.Split(tokens, css.CommaToken) {
		p := newQueryParser(query)
		c, always, err := p.mediaQuery()
		if err != nil {
			return nil, err
		}
		if !p.done() {
			return nil, fmt.Errorf("%w: trailing tokens in media query %q", errUnsupported, stylecss.Raw(query))
		}
		if always {
			return nil, nil
		}
		alternatives = append(alternatives, c)
	}
	if len(alternatives) == 0 {
		return nil, nil
	}
	return ir.Or(alternatives...), nil
}

// mediaQuery parses "[not|only] type [and condition]" or a bare condition.
func (p *queryParser) mediaQuery() (*ir.Condition, bool, error) {
	t, ok := p.peek()
	if !ok {
		return nil, true, nil
	}
	if t.TokenType == css.LeftParenthesisToken || (t.TokenType == css.IdentToken && strings.EqualFold(string(t.Data), "not") && p.nextIsParen()) {
		c, err := p.condition()
		return c, false, err
	}

	negate := p.keyword("not")
	p.keyword("only")
	t, ok = p.peek()
	if !ok || t.TokenType != css.IdentToken {
		return nil, false, fmt.Errorf("%w: media type expected", errUnsupported)
	}
	p.pos++
	var typeCond *ir.Condition
	switch strings.ToLower(string(t.Data)) {
	case "all", "screen":
	default:
		typeCond = ir.Compare("type", ir.CmpEq, ir.String(strings.ToLower(string(t.Data))))
	}

	var parts []*ir.Condition
	if typeCond != nil {
		parts = append(parts, typeCond)
	}
	for p.keyword("and") {
		c, err := p.inParens()
		if err != nil {
			return nil, false, err
		}
		parts = append(parts, c)
	}
	if len(parts) == 0 {
		if negate {
			return ir.Compare("type", ir.CmpEq, ir.String("none")), false, nil
		}
		return nil, true, nil
	}
	c := ir.And(parts...)
	if negate {
		c = ir.Not(c)
	}
	return c, false, nil
}

func (p *queryParser) nextIsParen() bool {
	return p.pos+1 < len(p.tokens) && p.tokens[p.pos+1].TokenType == css.LeftParenthesisToken
}

// condition parses "not X", "X and Y and ..." or "X or Y or ...".
func (p *queryParser) condition() (*ir.Condition, error) {
	if p.keyword("not") {
		c, err := p.inParens()
		if err != nil {
			return nil, err
		}
		return ir.Not(c), nil
	}
	first, err := p.inParens()
	if err != nil {
		return nil, err
	}
	parts := []*ir.Condition{first}
	switch {
	case p.keyword("and"):
		for {
			c, err := p.inParens()
			if err != nil {
				return nil, err
			}
			parts = append(parts, c)
			if !p.keyword("and") {
				break
			}
		}
		return ir.And(parts...), nil
	case p.keyword("or"):
		for {
			c, err := p.inParens()
			if err != nil {
				return nil, err
			}
			parts = append(parts, c)
			if !p.keyword("or") {
				break
			}
		}
		return ir.Or(parts...), nil
	}
	return first, nil
}

// inParens parses "(condition)" or "(feature...)".
func (p *queryParser) inParens() (*ir.Condition, error) {
	t, ok := p.peek()
	if !ok || t.TokenType != css.LeftParenthesisToken {
		return nil, fmt.Errorf("%w: '(' expected in query", errUnsupported)
	}
	end := p.closing()
	if end < 0 {
		return nil, fmt.Errorf("%w: unbalanced query", errUnsupported)
	}
	inner := p.tokens[p.pos+1 : end]
	p.pos = end + 1

	if len(inner) > 0 && (inner[0].TokenType == css.LeftParenthesisToken ||
		(inner[0].TokenType == css.IdentToken && strings.EqualFold(string(inner[0].Data), "not"))) {
		sub := &queryParser{tokens: inner}
		c, err := sub.condition()
		if err != nil {
			return nil, err
		}
		if !sub.done() {
			return nil, fmt.Errorf("%w: trailing tokens in query", errUnsupported)
		}
		return c, nil
	}
	return parseFeature(inner)
}

func (p *queryParser) closing() int {
	depth := 0
	for i := p.pos; i < len(p.tokens); i++ {
		switch p.tokens[i].TokenType {
		case css.LeftParenthesisToken, css.FunctionToken:
			depth++
		case css.RightParenthesisToken:
			depth--
			if depth == 0 {
				return i
			}
		}
	}
	return -1
}

// parseFeature parses "feature", "feature: value", "feature op value",
// "value op feature" and "value op feature op value".
func parseFeature(tokens []stylecss.Token) (*ir.Condition, error) {
	if len(tokens) == 1 && tokens[0].TokenType == css.IdentToken {
		// boolean context
		return ir.Compare(strings.ToLower(string(tokens[0].Data)), ir.CmpEq, ir.Bool(true)), nil
	}
	if len(tokens) >= 3 && tokens[0].TokenType == css.IdentToken && tokens[1].TokenType == css.ColonToken {
		name := strings.ToLower(string(tokens[0].Data))
		value, err := featureValue(tokens[2:])
		if err != nil {
			return nil, err
		}
		switch {
		case strings.HasPrefix(name, "min-"):
			return ir.Compare(strings.TrimPrefix(name, "min-"), ir.CmpGe, value), nil
		case strings.HasPrefix(name, "max-"):
			return ir.Compare(strings.TrimPrefix(name, "max-"), ir.CmpLe, value), nil
		}
		return ir.Compare(name, ir.CmpEq, value), nil
	}

	// range syntax
	var (
		operands  [][]stylecss.Token
		operators []ir.Comparison
		cur       []stylecss.Token
	)
	for i := 0; i < len(tokens); i++ {
		t := tokens[i]
		if t.TokenType == css.DelimToken {
			if cmp, n, ok := comparison(tokens[i:]); ok {
				operands = append(operands, cur)
				operators = append(operators, cmp)
				cur = nil
				i += n - 1
				continue
			}
		}
		cur = append(cur, t)
	}
	operands = append(operands, cur)

	switch len(operators) {
	case 1:
		return rangeCompare(operands[0], operators[0], operands[1])
	case 2:
		left, err := rangeCompare(operands[0], operators[0], operands[1])
		if err != nil {
			return nil, err
		}
		right, err := rangeCompare(operands[1], operators[1], operands[2])
		if err != nil {
			return nil, err
		}
		return ir.And(left, right), nil
	}
	return nil, fmt.Errorf("%w: media feature %q", errUnsupported, stylecss.Raw(tokens))
}

// comparison recognizes <, <=, >, >=, = made of delimiter tokens.
func comparison(tokens []stylecss.Token) (ir.Comparison, int, bool) {
	first := string(tokens[0].Data)
	eq := len(tokens) > 1 && tokens[1].TokenType == css.DelimToken && string(tokens[1].Data) == "="
	switch first {
	case "<":
		if eq {
			return ir.CmpLe, 2, true
		}
		return ir.CmpLt, 1, true
	case ">":
		if eq {
			return ir.CmpGe, 2, true
		}
		return ir.CmpGt, 1, true
	case "=":
		return ir.CmpEq, 1, true
	}
	return 0, 0, false
}

func rangeCompare(left []stylecss.Token, cmp ir.Comparison, right []stylecss.Token) (*ir.Condition, error) {
	if len(left) == 1 && left[0].TokenType == css.IdentToken {
		value, err := featureValue(right)
		if err != nil {
			return nil, err
		}
		return ir.Compare(strings.ToLower(string(left[0].Data)), cmp, value), nil
	}
	if len(right) == 1 && right[0].TokenType == css.IdentToken {
		value, err := featureValue(left)
		if err != nil {
			return nil, err
		}
		return ir.Compare(strings.ToLower(string(right[0].Data)), cmp.Invert(), value), nil
	}
	return nil, fmt.Errorf("%w: range %q", errUnsupported, stylecss.Raw(left)+" "+stylecss.Raw(right))
}

// featureValue converts media feature value: lengths to pixels, ratios and
// resolutions to numbers, identifiers to strings.
func featureValue(tokens []stylecss.Token) (ir.Descriptor, error) {
	if len(tokens) == 3 && tokens[1].TokenType == css.DelimToken && string(tokens[1].Data) == "/" {
		a, err1 := strconv.ParseFloat(string(tokens[0].Data), 64)
		b, err2 := strconv.ParseFloat(string(tokens[2].Data), 64)
		if err1 != nil || err2 != nil || b == 0 {
			return nil, fmt.Errorf("%w: ratio %q", errUnsupported, stylecss.Raw(tokens))
		}
		return ir.Number(a / b), nil
	}
	if len(tokens) != 1 {
		return nil, fmt.Errorf("%w: feature value %q", errUnsupported, stylecss.Raw(tokens))
	}
	t := tokens[0]
	switch t.TokenType {
	case css.DimensionToken:
		f, unit, err := splitNumber(string(t.Data))
		if err != nil {
			return nil, err
		}
		switch unit {
		case "dppx", "x":
			return ir.Number(f), nil
		case "dpi":
			return ir.Number(f / 96), nil
		case "dpcm":
			return ir.Number(f * 2.54 / 96), nil
		}
		return parseDimension(string(t.Data))
	case css.IdentToken:
		return ir.String(strings.ToLower(string(t.Data))), nil
	}
	return parseComponent(tokens)
}

// parseContainerPrelude parses "@container [name] condition".
func parseContainerPrelude(tokens []stylecss.Token) (*ir.ContainerQuery, error) {
	p := newQueryParser(tokens)
	q := &ir.ContainerQuery{}
	if t, ok := p.peek(); ok && t.TokenType == css.IdentToken && !strings.EqualFold(string(t.Data), "not") {
		q.Name = stylecss.Unescape(string(t.Data))
		p.pos++
	}
	if p.done() {
		if q.Name == "" {
			return nil, fmt.Errorf("%w: empty container query", errUnsupported)
		}
		return q, nil
	}
	c, err := p.condition()
	if err != nil {
		return nil, err
	}
	if !p.done() {
		return nil, fmt.Errorf("%w: trailing tokens in container query", errUnsupported)
	}
	q.Query = c
	return q, nil
}
