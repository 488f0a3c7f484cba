package css

import (
	"strings"

	"github.com/tdewolff/parse/v2/css"
)

// Token is a single lexical token of stylesheet source.
type Token = css.Token

// Declaration is a single "property: value" pair.
type Declaration struct {
	Property  string  // lower case, custom properties keep their case
	Value     []Token // value tokens without surrounding whitespace and !important
	Important bool
	Line      int // line number in source for error reporting
}

// IsCustom reports whether declaration defines custom property (--name).
func (d Declaration) IsCustom() bool {
	return strings.HasPrefix(d.Property, "--")
}

// Raw returns value as CSS text.
func (d Declaration) Raw() string {
	return Raw(d.Value)
}

// Item is a single entry in a stylesheet or a block.
// Exactly one of Rule or AtRule is non-nil.
type Item struct {
	Rule   *Rule
	AtRule *AtRule
}

// Body is the content of a curly braces block: declarations and nested
// rules in source order.
type Body struct {
	Declarations []Declaration
	Items        []Item
}

// Rule is a qualified rule: selector list and its block.
type Rule struct {
	Selectors [][]Token // selector list split on top level commas
	Body      Body
	Line      int
}

// Raw returns the selector list as CSS text.
func (r *Rule) Raw() string {
	parts := make([]string, len(r.Selectors))
	for i, s := range r.Selectors {
		parts[i] = Raw(s)
	}
	return strings.Join(parts, ", ")
}

// AtRule is an @-rule with optional block.
type AtRule struct {
	Name    string // lower case without leading '@'
	Prelude []Token
	Body    *Body // nil for statement at-rules (@import url;)
	Line    int
}

// Stylesheet represents a parsed stylesheet.
type Stylesheet struct {
	Items []Item // all top-level items in source order
}

// Rules returns all top-level qualified rules.
func (s *Stylesheet) Rules() []*Rule {
	var rules []*Rule
	for _, item := range s.Items {
		if item.Rule != nil {
			rules = append(rules, item.Rule)
		}
	}
	return rules
}

// AtRules returns all top-level at-rules with the given name.
func (s *Stylesheet) AtRules(name string) []*AtRule {
	var rules []*AtRule
	for _, item := range s.Items {
		if item.AtRule != nil && item.AtRule.Name == name {
			rules = append(rules, item.AtRule)
		}
	}
	return rules
}

// RulesBySelector returns all top-level rules having selector with given text.
func (s *Stylesheet) RulesBySelector(selector string) []*Rule {
	var matches []*Rule
	for _, r := range s.Rules() {
		for _, sel := range r.Selectors {
			if Raw(sel) == selector {
				matches = append(matches, r)
				break
			}
		}
	}
	return matches
}

// Raw joins tokens into CSS text collapsing whitespace runs into a single
// space and dropping comments.
func Raw(tokens []Token) string {
	var sb strings.Builder
	pendingSpace := false
	for _, t := range tokens {
		switch t.TokenType {
		case css.WhitespaceToken:
			pendingSpace = sb.Len() > 0
			continue
		case css.CommentToken:
			continue
		}
		if pendingSpace {
			sb.WriteByte(' ')
			pendingSpace = false
		}
		sb.Write(t.Data)
	}
	return sb.String()
}

// Trim removes leading and trailing whitespace and comment tokens.
func Trim(tokens []Token) []Token {
	start, end := 0, len(tokens)
	for start < end && isBlank(tokens[start]) {
		start++
	}
	for end > start && isBlank(tokens[end-1]) {
		end--
	}
	return tokens[start:end]
}

// Split splits tokens on top level (not inside functions or brackets) tokens
// of type tt.
func Split(tokens []Token, tt css.TokenType) [][]Token {
	var (
		out   [][]Token
		depth int
		start int
	)
	for i, t := range tokens {
		switch t.TokenType {
		case css.FunctionToken, css.LeftParenthesisToken, css.LeftBracketToken:
			depth++
		case css.RightParenthesisToken, css.RightBracketToken:
			depth--
		}
		if depth == 0 && t.TokenType == tt {
			out = append(out, Trim(tokens[start:i]))
			start = i + 1
		}
	}
	return append(out, Trim(tokens[start:]))
}

func isBlank(t Token) bool {
	return t.TokenType == css.WhitespaceToken || t.TokenType == css.CommentToken
}
