// Package selector turns parsed selectors into the compact records the
// compiler attaches rules to.
package selector

import (
	"regexp"
	"strings"

	"github.com/tdewolff/parse/v2/css"

	stylecss "stylo/css"
	"stylo/ir"
)

// Kind of the selector subject.
type Kind int

const (
	// Class selects elements by class name.
	Class Kind = iota
	// Root is ":root", its declarations are root variables.
	Root
	// Universal is "*", its declarations are universal variables.
	Universal
)

// Group is an ancestor class of a descendant chain. It is compiled into a
// named container which the subject rule queries.
type Group struct {
	Name       string
	Pseudo     *ir.PseudoClasses
	Attributes []ir.AttributeQuery
}

// Selector is a normalized selector.
type Selector struct {
	Kind       Kind
	ClassName  string // primary (right-most) class
	Groups     []*Group
	Pseudo     *ir.PseudoClasses
	Attributes []ir.AttributeQuery
	Media      []*ir.Condition
	Dark       bool // dark-mode class variant of :root or *
	// Specificity holds selector contribution: number of classes,
	// attributes and pseudo-classes.
	Specificity ir.Specificity
}

// Options controls normalization.
type Options struct {
	// GroupPattern restricts which ancestor classes may form groups, nil
	// accepts every class.
	GroupPattern *regexp.Regexp
	// DarkModeClass is the class which switches dark appearance, empty
	// when dark mode follows media.
	DarkModeClass string
}

// compound is a sequence of simple selectors without combinators.
type compound struct {
	classes    []string
	pseudo     ir.PseudoClasses
	attributes []ir.AttributeQuery
	media      []*ir.Condition
	root       bool
	universal  bool
	count      int
}

// Normalize converts selector tokens. It returns nil when the selector has a
// shape which cannot be represented: id selectors, pseudo-elements, child
// and sibling combinators, negations and anything unknown.
func Normalize(tokens []stylecss.Token, opts Options) *Selector {
	tokens = stylecss.Trim(tokens)
	if len(tokens) == 0 {
		return nil
	}

	var (
		chain   []*compound
		current = &compound{}
	)
	for i := 0; i < len(tokens); i++ {
		t := tokens[i]
		switch t.TokenType {
		case css.WhitespaceToken, css.CommentToken:
			if current.empty() {
				continue
			}
			chain = append(chain, current)
			current = &compound{}

		case css.DelimToken:
			switch string(t.Data) {
			case ".":
				if i+1 >= len(tokens) || tokens[i+1].TokenType != css.IdentToken {
					return nil
				}
				i++
				current.classes = append(current.classes, stylecss.Unescape(string(tokens[i].Data)))
				current.count++
			case "*":
				current.universal = true
			default:
				// '>', '+', '~' and friends
				return nil
			}

		case css.ColonToken:
			if i+1 >= len(tokens) {
				return nil
			}
			i++
			next := tokens[i]
			switch next.TokenType {
			case css.IdentToken:
				if !current.addPseudo(strings.ToLower(string(next.Data))) {
					return nil
				}
			case css.FunctionToken:
				end := closing(tokens, i)
				if end < 0 || !current.addPseudoFunction(strings.ToLower(string(next.Data)), tokens[i+1:end]) {
					return nil
				}
				i = end
			default:
				// pseudo-elements ("::before") and garbage
				return nil
			}

		case css.LeftBracketToken:
			end := closing(tokens, i)
			if end < 0 || !current.addAttribute(tokens[i+1:end]) {
				return nil
			}
			i = end

		default:
			// element names, ids
			return nil
		}
	}
	if current.empty() {
		return nil
	}
	chain = append(chain, current)

	return build(chain, opts)
}

func build(chain []*compound, opts Options) *Selector {
	s := &Selector{}
	subject := chain[len(chain)-1]
	ancestors := chain[:len(chain)-1]

	for _, c := range ancestors {
		if c.root || c.universal {
			return nil
		}
		if len(c.classes) != 1 {
			return nil
		}
		name := c.classes[0]
		if opts.DarkModeClass != "" && name == opts.DarkModeClass && c.pseudo.Empty() && len(c.attributes) == 0 {
			s.Dark = true
			continue
		}
		if opts.GroupPattern != nil && !opts.GroupPattern.MatchString(name) {
			return nil
		}
		g := &Group{Name: name, Attributes: c.attributes}
		if !c.pseudo.Empty() {
			p := c.pseudo
			g.Pseudo = &p
		}
		s.Groups = append(s.Groups, g)
		s.Media = append(s.Media, c.media...)
		s.Specificity[ir.SpecClassName] += c.count
	}

	classes := subject.classes
	if opts.DarkModeClass != "" {
		// ".dark:root" and ":root.dark"
		kept := classes[:0:0]
		for _, name := range classes {
			if name == opts.DarkModeClass && (subject.root || subject.universal) {
				s.Dark = true
				continue
			}
			kept = append(kept, name)
		}
		classes = kept
	}

	switch {
	case subject.root || subject.universal:
		if len(classes) > 0 || len(s.Groups) > 0 || !subject.pseudo.Empty() || len(subject.attributes) > 0 || len(subject.media) > 0 {
			return nil
		}
		s.Kind = Root
		if subject.universal {
			s.Kind = Universal
		}
		return s
	case len(classes) != 1:
		return nil
	}

	s.Kind = Class
	s.ClassName = classes[0]
	if !subject.pseudo.Empty() {
		p := subject.pseudo
		s.Pseudo = &p
	}
	s.Attributes = subject.attributes
	s.Media = append(s.Media, subject.media...)
	s.Specificity[ir.SpecClassName] += subject.count
	if s.Dark {
		s.Media = append(s.Media, ir.Compare("prefers-color-scheme", ir.CmpEq, ir.String("dark")))
		s.Dark = false
	}
	return s
}

func (c *compound) empty() bool {
	return len(c.classes) == 0 && c.pseudo.Empty() && len(c.attributes) == 0 &&
		len(c.media) == 0 && !c.root && !c.universal
}

func (c *compound) addPseudo(name string) bool {
	switch name {
	case "hover":
		c.pseudo.Hover = true
	case "active":
		c.pseudo.Active = true
	case "focus":
		c.pseudo.Focus = true
	case "disabled":
		c.attributes = append(c.attributes, ir.AttributeQuery{Source: ir.AttrProp, Name: "disabled", Op: ir.AttrTruthy})
	case "empty":
		c.attributes = append(c.attributes, ir.AttributeQuery{Source: ir.AttrProp, Name: "children", Op: ir.AttrEmpty})
	case "root":
		c.root = true
		return true
	default:
		return false
	}
	c.count++
	return true
}

func (c *compound) addPseudoFunction(name string, args []stylecss.Token) bool {
	args = stylecss.Trim(args)
	switch name {
	case "dir(":
		if len(args) != 1 || args[0].TokenType != css.IdentToken {
			return false
		}
		c.media = append(c.media, ir.Compare("dir", ir.CmpEq, ir.String(strings.ToLower(string(args[0].Data)))))
		c.count++
		return true
	}
	return false
}

var attrOps = map[css.TokenType]ir.AttrOp{
	css.IncludeMatchToken:   ir.AttrIncludes,
	css.DashMatchToken:      ir.AttrDashMatch,
	css.PrefixMatchToken:    ir.AttrPrefix,
	css.SuffixMatchToken:    ir.AttrSuffix,
	css.SubstringMatchToken: ir.AttrSubstring,
}

// addAttribute parses content of [...]: name, optional operator, value and
// "i" modifier.
func (c *compound) addAttribute(tokens []stylecss.Token) bool {
	var parts []stylecss.Token
	for _, t := range tokens {
		if t.TokenType != css.WhitespaceToken && t.TokenType != css.CommentToken {
			parts = append(parts, t)
		}
	}
	if len(parts) == 0 || parts[0].TokenType != css.IdentToken {
		return false
	}
	name := strings.ToLower(string(parts[0].Data))
	q := ir.AttributeQuery{Source: ir.AttrProp, Name: name, Op: ir.AttrExists}
	if rest, ok := strings.CutPrefix(name, "data-"); ok {
		q.Source, q.Name = ir.AttrData, rest
	}

	if len(parts) > 1 {
		op, ok := attrOps[parts[1].TokenType]
		if !ok {
			if parts[1].TokenType != css.DelimToken || string(parts[1].Data) != "=" {
				return false
			}
			op = ir.AttrEquals
		}
		if len(parts) < 3 {
			return false
		}
		switch v := parts[2]; v.TokenType {
		case css.StringToken:
			q.Value = stylecss.Unquote(v)
		case css.IdentToken, css.NumberToken:
			q.Value = string(v.Data)
		default:
			return false
		}
		q.Op = op
		switch len(parts) {
		case 3:
		case 4:
			if parts[3].TokenType != css.IdentToken || !strings.EqualFold(string(parts[3].Data), "i") {
				return false
			}
			q.Insensitive = true
		default:
			return false
		}
	}

	if q.Source == ir.AttrProp && q.Name == "dir" {
		if q.Op != ir.AttrEquals {
			return false
		}
		c.media = append(c.media, ir.Compare("dir", ir.CmpEq, ir.String(strings.ToLower(q.Value))))
		c.count++
		return true
	}
	c.attributes = append(c.attributes, q)
	c.count++
	return true
}

// closing returns index of the token closing the block opened at start.
func closing(tokens []stylecss.Token, start int) int {
	depth := 0
	for i := start; i < len(tokens); i++ {
		switch tokens[i].TokenType {
		case css.FunctionToken, css.LeftParenthesisToken, css.LeftBracketToken:
			depth++
		case css.RightParenthesisToken, css.RightBracketToken:
			depth--
			if depth == 0 {
				return i
			}
		}
	}
	return -1
}
