package compiler

import (
	"github.com/tdewolff/parse/v2/css"

	stylecss "stylo/css"
	"stylo/ir"
)

// calcParser builds calc() expression tree. Binary nodes are calc functions
// with [left, operator, right] arguments, constant number operations are
// folded.
type calcParser struct {
	items [][]stylecss.Token
	pos   int
}

func parseCalc(args []stylecss.Token) (ir.Descriptor, error) {
	p := &calcParser{items: components(args)}
	if len(p.items) == 0 {
		return nil, errUnsupported
	}
	d, err := p.expr()
	if err != nil {
		return nil, err
	}
	if p.pos != len(p.items) {
		return nil, errUnsupported
	}
	if ir.IsStatic(d) {
		return d, nil
	}
	if f, ok := d.(*ir.Func); ok && f.Kind == ir.FuncCalc {
		return f, nil
	}
	return ir.NewFunc("calc", d), nil
}

func (p *calcParser) operator(ops string) (string, bool) {
	if p.pos >= len(p.items) {
		return "", false
	}
	item := p.items[p.pos]
	if len(item) != 1 || item[0].TokenType != css.DelimToken {
		return "", false
	}
	op := string(item[0].Data)
	for _, c := range ops {
		if op == string(c) {
			p.pos++
			return op, true
		}
	}
	return "", false
}

func (p *calcParser) expr() (ir.Descriptor, error) {
	left, err := p.term()
	if err != nil {
		return nil, err
	}
	for {
		op, ok := p.operator("+-")
		if !ok {
			return left, nil
		}
		right, err := p.term()
		if err != nil {
			return nil, err
		}
		left = binary(left, op, right)
	}
}

func (p *calcParser) term() (ir.Descriptor, error) {
	left, err := p.factor()
	if err != nil {
		return nil, err
	}
	for {
		op, ok := p.operator("*/")
		if !ok {
			return left, nil
		}
		right, err := p.factor()
		if err != nil {
			return nil, err
		}
		left = binary(left, op, right)
	}
}

func (p *calcParser) factor() (ir.Descriptor, error) {
	if p.pos >= len(p.items) {
		return nil, errUnsupported
	}
	item := p.items[p.pos]
	p.pos++
	if item[0].TokenType == css.LeftParenthesisToken {
		if item[len(item)-1].TokenType != css.RightParenthesisToken {
			return nil, errUnsupported
		}
		return parseCalc(item[1 : len(item)-1])
	}
	if item[0].TokenType == css.DelimToken {
		return nil, errUnsupported
	}
	return parseComponent(item)
}

func binary(left ir.Descriptor, op string, right ir.Descriptor) ir.Descriptor {
	l, lok := left.(ir.Number)
	r, rok := right.(ir.Number)
	if lok && rok {
		switch op {
		case "+":
			return l + r
		case "-":
			return l - r
		case "*":
			return l * r
		case "/":
			if r != 0 {
				return l / r
			}
		}
	}
	return ir.NewFunc("calc", left, ir.String(op), right)
}
