package compiler

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/tdewolff/parse/v2/css"

	stylecss "stylo/css"
	"stylo/ir"
)

var errUnsupported = errors.New("unsupported value")

// transformNames maps lower case transform function names to their
// canonical spelling.
var transformNames = func() map[string]string {
	m := make(map[string]string, len(ir.TransformFunctions))
	for name := range ir.TransformFunctions {
		m[strings.ToLower(name)] = name
	}
	return m
}()

// components splits value tokens on top level whitespace. Functions and
// parenthesized blocks are kept whole.
func components(tokens []stylecss.Token) [][]stylecss.Token {
	var (
		out   [][]stylecss.Token
		cur   []stylecss.Token
		depth int
	)
	flush := func() {
		if len(cur) > 0 {
			out = append(out, cur)
			cur = nil
		}
	}
	for _, t := range tokens {
		switch t.TokenType {
		case css.WhitespaceToken, css.CommentToken:
			if depth == 0 {
				flush()
				continue
			}
		case css.FunctionToken, css.LeftParenthesisToken, css.LeftBracketToken:
			if depth == 0 {
				flush()
			}
			depth++
		case css.RightParenthesisToken, css.RightBracketToken:
			depth--
			if depth == 0 {
				cur = append(cur, t)
				flush()
				continue
			}
		case css.DelimToken, css.CommaToken:
			if depth == 0 {
				flush()
				out = append(out, []stylecss.Token{t})
				continue
			}
		}
		cur = append(cur, t)
	}
	flush()
	return out
}

// parseValue converts whitespace separated value into a descriptor, several
// components become a list.
func parseValue(tokens []stylecss.Token) (ir.Descriptor, error) {
	parts := components(stylecss.Trim(tokens))
	switch len(parts) {
	case 0:
		return nil, errUnsupported
	case 1:
		return parseComponent(parts[0])
	}
	list := make(ir.List, 0, len(parts))
	for _, part := range parts {
		d, err := parseComponent(part)
		if err != nil {
			return nil, err
		}
		list = append(list, d)
	}
	return list, nil
}

// parseComponent converts a single token or a function call.
func parseComponent(tokens []stylecss.Token) (ir.Descriptor, error) {
	t := tokens[0]
	if t.TokenType == css.FunctionToken {
		return parseFunction(tokens)
	}
	if len(tokens) != 1 {
		return nil, errUnsupported
	}
	switch t.TokenType {
	case css.NumberToken:
		f, err := strconv.ParseFloat(string(t.Data), 64)
		if err != nil {
			return nil, err
		}
		return ir.Number(f), nil
	case css.DimensionToken:
		return parseDimension(string(t.Data))
	case css.PercentageToken, css.HashToken:
		return ir.String(t.Data), nil
	case css.StringToken:
		return ir.String(stylecss.Unquote(t)), nil
	case css.IdentToken:
		word := string(t.Data)
		switch strings.ToLower(word) {
		case "currentcolor":
			return &ir.Func{Kind: ir.FuncCurrentColor, Name: "currentcolor", Deferred: true}, nil
		case "hairlinewidth":
			return ir.NewFunc("hairline"), nil
		case "inherit", "initial", "unset", "revert":
			return nil, errUnsupported
		}
		return ir.String(word), nil
	case css.DelimToken:
		if string(t.Data) == "/" {
			return ir.String("/"), nil
		}
	}
	return nil, errUnsupported
}

// splitNumber splits dimension into number and unit.
func splitNumber(s string) (float64, string, error) {
	i := 0
	if i < len(s) && (s[i] == '+' || s[i] == '-') {
		i++
	}
	for i < len(s) && (s[i] >= '0' && s[i] <= '9' || s[i] == '.') {
		i++
	}
	if i < len(s) && (s[i] == 'e' || s[i] == 'E') {
		j := i + 1
		if j < len(s) && (s[j] == '+' || s[j] == '-') {
			j++
		}
		if j < len(s) && s[j] >= '0' && s[j] <= '9' {
			for j < len(s) && s[j] >= '0' && s[j] <= '9' {
				j++
			}
			i = j
		}
	}
	f, err := strconv.ParseFloat(s[:i], 64)
	if err != nil {
		return 0, "", fmt.Errorf("bad number %q: %w", s, err)
	}
	return f, strings.ToLower(s[i:]), nil
}

// absolute units in pixels.
var pixelsPer = map[string]float64{
	"px": 1,
	"pt": 4.0 / 3.0,
	"pc": 16,
	"in": 96,
	"cm": 96 / 2.54,
	"mm": 96 / 25.4,
	"q":  96 / 101.6,
}

func parseDimension(s string) (ir.Descriptor, error) {
	f, unit, err := splitNumber(s)
	if err != nil {
		return nil, err
	}
	if k, ok := pixelsPer[unit]; ok {
		return ir.Number(f * k), nil
	}
	switch unit {
	case "em":
		return &ir.Func{Kind: ir.FuncEm, Name: "em", Args: []ir.Descriptor{ir.Number(f)}, Deferred: true}, nil
	case "rem", "vw", "vh", "vmin", "vmax":
		return ir.NewFunc(unit, ir.Number(f)), nil
	case "deg", "rad", "grad", "turn", "ms", "s":
		return ir.String(s), nil
	}
	return nil, fmt.Errorf("%w: unit %q", errUnsupported, unit)
}

func functionName(t stylecss.Token) string {
	return strings.TrimSuffix(string(t.Data), "(")
}

// parseFunction converts a function token with its arguments, the last
// token is the closing parenthesis.
func parseFunction(tokens []stylecss.Token) (ir.Descriptor, error) {
	name := functionName(tokens[0])
	lower := strings.ToLower(name)
	if last := tokens[len(tokens)-1]; last.TokenType != css.RightParenthesisToken {
		return nil, errUnsupported
	}
	args := stylecss.Trim(tokens[1 : len(tokens)-1])

	switch lower {
	case "var":
		return parseVar(args)
	case "calc":
		return parseCalc(args)
	case "hairlinewidth":
		return ir.NewFunc("hairline"), nil
	}

	parts := stylecss.Split(args, css.CommaToken)
	descs := make([]ir.Descriptor, 0, len(parts))
	static := true
	for _, part := range parts {
		if len(part) == 0 {
			if len(parts) == 1 {
				break
			}
			return nil, errUnsupported
		}
		d, err := parseValue(part)
		if err != nil {
			return nil, err
		}
		static = static && ir.IsStatic(d)
		descs = append(descs, d)
	}

	if canonical, ok := transformNames[lower]; ok {
		f := ir.NewFunc(canonical, descs...)
		for _, d := range descs {
			if s, ok := d.(ir.String); ok && strings.HasSuffix(string(s), "%") && strings.HasPrefix(canonical, "translate") {
				// percentages are relative to element size
				f.Deferred = true
			}
		}
		return f, nil
	}
	if static {
		return ir.String(stylecss.Raw(tokens)), nil
	}
	return ir.NewFunc(lower, descs...), nil
}

func parseVar(args []stylecss.Token) (ir.Descriptor, error) {
	parts := stylecss.Split(args, css.CommaToken)
	if len(parts[0]) != 1 {
		return nil, errUnsupported
	}
	name := string(parts[0][0].Data)
	if !strings.HasPrefix(name, "--") {
		return nil, errUnsupported
	}
	if len(parts) == 1 {
		return ir.Var(name), nil
	}
	// everything after the first comma is the fallback
	rest := stylecss.Trim(args[len(parts[0]):])
	rest = stylecss.Trim(rest[1:])
	if len(rest) == 0 {
		return ir.Var(name), nil
	}
	fallback, err := parseValue(rest)
	if err != nil {
		return nil, err
	}
	return ir.Var(name, fallback), nil
}
