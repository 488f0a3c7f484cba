package css

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"strings"

	parse "github.com/tdewolff/parse/v2"
	"github.com/tdewolff/parse/v2/css"
	"go.uber.org/zap"
)

// Parser parses stylesheets into rules, at-rules and declarations.
type Parser struct {
	log *zap.Logger
}

// NewParser creates a new stylesheet parser.
func NewParser(log *zap.Logger) *Parser {
	if log == nil {
		log = zap.NewNop()
	}
	return &Parser{log: log.Named("css-parser")}
}

// SyntaxError describes malformed stylesheet source.
type SyntaxError struct {
	Line int
	Msg  string
}

func (e *SyntaxError) Error() string {
	return fmt.Sprintf("line %d: %s", e.Line, e.Msg)
}

// tokenStream is a lexer with single token look-ahead and line tracking.
type tokenStream struct {
	lexer  *css.Lexer
	peeked *Token
	line   int
	eof    bool
}

func (ts *tokenStream) next() (Token, error) {
	if ts.peeked != nil {
		t := *ts.peeked
		ts.peeked = nil
		return t, nil
	}
	if ts.eof {
		return Token{TokenType: css.ErrorToken}, nil
	}
	tt, data := ts.lexer.Next()
	if tt == css.ErrorToken {
		ts.eof = true
		if err := ts.lexer.Err(); err != nil && !errors.Is(err, io.EOF) {
			return Token{}, &SyntaxError{Line: ts.line, Msg: err.Error()}
		}
		return Token{TokenType: css.ErrorToken}, nil
	}
	ts.line += bytes.Count(data, []byte{'\n'})
	return Token{TokenType: tt, Data: bytes.Clone(data)}, nil
}

func (ts *tokenStream) peek() (Token, error) {
	if ts.peeked == nil {
		t, err := ts.next()
		if err != nil {
			return t, err
		}
		ts.peeked = &t
	}
	return *ts.peeked, nil
}

// Parse parses stylesheet text. Malformed source (unterminated blocks,
// unbalanced braces, bad tokens) is reported as *SyntaxError.
// The optional source parameter identifies what's being parsed (for debug logging).
func (p *Parser) Parse(data []byte, source ...string) (*Stylesheet, error) {
	if len(source) > 0 && source[0] != "" {
		p.log.Debug("Parsing stylesheet", zap.String("source", source[0]), zap.Int("bytes", len(data)))
	}

	ts := &tokenStream{lexer: css.NewLexer(parse.NewInput(bytes.NewReader(data))), line: 1}
	sheet := &Stylesheet{Items: make([]Item, 0)}

	for {
		t, err := ts.peek()
		if err != nil {
			return nil, err
		}
		switch t.TokenType {
		case css.ErrorToken:
			return sheet, nil
		case css.WhitespaceToken, css.CommentToken, css.CDOToken, css.CDCToken, css.SemicolonToken:
			_, _ = ts.next()
		case css.RightBraceToken:
			return nil, &SyntaxError{Line: ts.line, Msg: "unexpected '}'"}
		case css.AtKeywordToken:
			at, err := p.parseAtRule(ts)
			if err != nil {
				return nil, err
			}
			sheet.Items = append(sheet.Items, Item{AtRule: at})
		default:
			rule, err := p.parseRule(ts)
			if err != nil {
				return nil, err
			}
			sheet.Items = append(sheet.Items, Item{Rule: rule})
		}
	}
}

// parseRule parses qualified rule: prelude up to '{' and the block.
func (p *Parser) parseRule(ts *tokenStream) (*Rule, error) {
	line := ts.line
	prelude, end, err := p.collect(ts, true)
	if err != nil {
		return nil, err
	}
	if end != css.LeftBraceToken {
		return nil, &SyntaxError{Line: line, Msg: fmt.Sprintf("rule %q has no block", Raw(prelude))}
	}
	rule := &Rule{Selectors: Split(Trim(prelude), css.CommaToken), Line: line}
	if err := p.parseBody(ts, &rule.Body, line); err != nil {
		return nil, err
	}
	return rule, nil
}

// parseAtRule parses @-rule, current token must be at-keyword.
func (p *Parser) parseAtRule(ts *tokenStream) (*AtRule, error) {
	line := ts.line
	kw, err := ts.next()
	if err != nil {
		return nil, err
	}
	at := &AtRule{Name: strings.ToLower(strings.TrimPrefix(string(kw.Data), "@")), Line: line}
	prelude, end, err := p.collect(ts, false)
	if err != nil {
		return nil, err
	}
	at.Prelude = Trim(prelude)
	switch end {
	case css.LeftBraceToken:
		at.Body = &Body{}
		if err := p.parseBody(ts, at.Body, line); err != nil {
			return nil, err
		}
	case css.RightBraceToken:
		// statement at-rule closing enclosing block without ';', leave '}' for the caller
		ts.peeked = &Token{TokenType: css.RightBraceToken, Data: []byte("}")}
	}
	return at, nil
}

// parseBody parses content of a block after '{' up to and including matching
// '}'. Declarations and nested rules may be mixed.
func (p *Parser) parseBody(ts *tokenStream, body *Body, opened int) error {
	for {
		t, err := ts.peek()
		if err != nil {
			return err
		}
		switch t.TokenType {
		case css.ErrorToken:
			return &SyntaxError{Line: opened, Msg: "unexpected end of stylesheet, block is not closed"}
		case css.WhitespaceToken, css.CommentToken, css.SemicolonToken:
			_, _ = ts.next()
			continue
		case css.RightBraceToken:
			_, _ = ts.next()
			return nil
		case css.AtKeywordToken:
			at, err := p.parseAtRule(ts)
			if err != nil {
				return err
			}
			body.Items = append(body.Items, Item{AtRule: at})
			continue
		}

		line := ts.line
		tokens, end, err := p.collect(ts, false)
		if err != nil {
			return err
		}
		switch end {
		case css.LeftBraceToken:
			// nested rule (keyframe selectors, rules inside @media)
			rule := &Rule{Selectors: Split(Trim(tokens), css.CommaToken), Line: line}
			if err := p.parseBody(ts, &rule.Body, line); err != nil {
				return err
			}
			body.Items = append(body.Items, Item{Rule: rule})
		case css.RightBraceToken:
			// last declaration without ';'
			ts.peeked = &Token{TokenType: css.RightBraceToken, Data: []byte("}")}
			fallthrough
		default:
			if decl, ok := p.makeDeclaration(tokens, line); ok {
				body.Declarations = append(body.Declarations, decl)
			}
		}
	}
}

// collect gathers tokens up to the first top level '{', ';' or '}' and
// returns the type of terminating token (consumed). When toBrace is set ';'
// does not terminate.
func (p *Parser) collect(ts *tokenStream, toBrace bool) ([]Token, css.TokenType, error) {
	var (
		tokens []Token
		depth  int
		line   = ts.line
	)
	for {
		t, err := ts.next()
		if err != nil {
			return nil, css.ErrorToken, err
		}
		switch t.TokenType {
		case css.ErrorToken:
			if depth > 0 || toBrace {
				return nil, css.ErrorToken, &SyntaxError{Line: line, Msg: "unexpected end of stylesheet"}
			}
			return tokens, css.ErrorToken, nil
		case css.FunctionToken, css.LeftParenthesisToken, css.LeftBracketToken:
			depth++
		case css.RightParenthesisToken, css.RightBracketToken:
			depth--
			if depth < 0 {
				return nil, css.ErrorToken, &SyntaxError{Line: ts.line, Msg: fmt.Sprintf("unbalanced '%s'", t.Data)}
			}
		case css.LeftBraceToken:
			if depth == 0 {
				return tokens, t.TokenType, nil
			}
		case css.RightBraceToken:
			if depth == 0 {
				if toBrace {
					return nil, css.ErrorToken, &SyntaxError{Line: ts.line, Msg: "unexpected '}'"}
				}
				return tokens, t.TokenType, nil
			}
		case css.SemicolonToken:
			if depth == 0 && !toBrace {
				return tokens, t.TokenType, nil
			}
		case css.BadStringToken, css.BadURLToken:
			return nil, css.ErrorToken, &SyntaxError{Line: ts.line, Msg: fmt.Sprintf("malformed token %q", t.Data)}
		}
		tokens = append(tokens, t)
	}
}

// makeDeclaration converts "name : value [!important]" tokens into
// declaration. Malformed declarations are dropped the way browsers do.
func (p *Parser) makeDeclaration(tokens []Token, line int) (Declaration, bool) {
	tokens = Trim(tokens)
	if len(tokens) == 0 {
		return Declaration{}, false
	}
	colon := -1
	for i, t := range tokens {
		if t.TokenType == css.ColonToken {
			colon = i
			break
		}
	}
	name := Trim(tokens[:max(colon, 0)])
	if colon < 0 || len(name) != 1 || (name[0].TokenType != css.IdentToken && name[0].TokenType != css.CustomPropertyNameToken) {
		p.log.Debug("Skipping malformed declaration", zap.String("declaration", Raw(tokens)), zap.Int("line", line))
		return Declaration{}, false
	}

	decl := Declaration{Property: string(name[0].Data), Line: line}
	if !decl.IsCustom() {
		decl.Property = strings.ToLower(decl.Property)
	}
	value := Trim(tokens[colon+1:])

	// !important
	if n := len(value); n >= 2 {
		last := value[n-1]
		if last.TokenType == css.IdentToken && strings.EqualFold(string(last.Data), "important") {
			rest := Trim(value[:n-1])
			if k := len(rest); k > 0 && rest[k-1].TokenType == css.DelimToken && string(rest[k-1].Data) == "!" {
				decl.Important = true
				value = Trim(rest[:k-1])
			}
		}
	}
	decl.Value = value
	return decl, true
}
