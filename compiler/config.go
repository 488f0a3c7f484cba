package compiler

import (
	"regexp"
	"strings"

	"github.com/tdewolff/parse/v2/css"
	"go.uber.org/zap"

	stylecss "stylo/css"
)

const configAtRule = "stylo"

// Flag names written to payload.
const (
	FlagDarkMode = "darkMode"
)

// configure applies every @stylo at-rule of the sheet before anything is
// compiled:
//
//	@stylo {
//		dark-mode: class dark;
//		preserve-variables: --brand, --accent;
//		group-pattern: "^group(/.+)?$";
//	}
//
// Other entries are copied into payload flags.
func (cm *compilation) configure(items []stylecss.Item) {
	for _, item := range items {
		switch {
		case item.Rule != nil:
			cm.configure(item.Rule.Body.Items)
		case item.AtRule != nil && item.AtRule.Body != nil:
			if item.AtRule.Name != configAtRule {
				cm.configure(item.AtRule.Body.Items)
				continue
			}
			for _, decl := range item.AtRule.Body.Declarations {
				cm.configEntry(decl)
			}
		}
	}
}

func (cm *compilation) configEntry(decl stylecss.Declaration) {
	switch decl.Property {
	case "dark-mode":
		parts := components(decl.Value)
		switch {
		case len(parts) == 1 && strings.EqualFold(stylecss.Raw(parts[0]), "media"):
			cm.opts.DarkModeClass = ""
			cm.flags[FlagDarkMode] = "media"
		case len(parts) == 2 && strings.EqualFold(stylecss.Raw(parts[0]), "class"):
			cm.opts.DarkModeClass = strings.TrimPrefix(stylecss.Unescape(stylecss.Raw(parts[1])), ".")
			cm.flags[FlagDarkMode] = "class " + cm.opts.DarkModeClass
		default:
			cm.log.Warn("Bad dark-mode configuration", zap.String("value", decl.Raw()), zap.Int("line", decl.Line))
		}
	case "preserve-variables":
		for _, part := range stylecss.Split(decl.Value, css.CommaToken) {
			if len(part) == 1 {
				cm.preserve[string(part[0].Data)] = true
			}
		}
	case "group-pattern":
		value := stylecss.Trim(decl.Value)
		if len(value) != 1 || value[0].TokenType != css.StringToken {
			cm.log.Warn("Bad group-pattern configuration", zap.String("value", decl.Raw()), zap.Int("line", decl.Line))
			return
		}
		re, err := regexp.Compile(stylecss.Unquote(value[0]))
		if err != nil {
			cm.log.Warn("Bad group-pattern configuration", zap.String("value", decl.Raw()), zap.Error(err))
			return
		}
		cm.opts.GroupPattern = re
	default:
		cm.flags[decl.Property] = decl.Raw()
	}
}
