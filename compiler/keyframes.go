package compiler

import (
	"strconv"
	"strings"

	"github.com/tdewolff/parse/v2/css"
	"go.uber.org/zap"

	stylecss "stylo/css"
	"stylo/ir"
	"stylo/shorthand"
)

// compileAnimation handles animation shorthand and longhands.
func compileAnimation(property string, value []stylecss.Token) (*ir.Animation, error) {
	if property == "animation" {
		return animationShorthand(value)
	}
	values, err := singles(value)
	if err != nil {
		return nil, err
	}
	switch property {
	case "animation-name":
		names, err := texts(values, shorthand.Ident)
		return &ir.Animation{Name: names}, err
	case "animation-duration":
		d, err := times(values)
		return &ir.Animation{Duration: d}, err
	case "animation-delay":
		d, err := times(values)
		return &ir.Animation{Delay: d}, err
	case "animation-iteration-count":
		counts := make([]float64, len(values))
		for i, v := range values {
			c, ok := iterationCount(v)
			if !ok {
				return nil, errUnsupported
			}
			counts[i] = c
		}
		return &ir.Animation{IterationCount: counts}, nil
	case "animation-timing-function":
		e, err := texts(values, shorthand.Easing)
		return &ir.Animation{TimingFunction: e}, err
	case "animation-direction":
		d, err := texts(values, fieldMatcher(shorthand.Animation, "direction"))
		return &ir.Animation{Direction: d}, err
	case "animation-fill-mode":
		f, err := texts(values, fieldMatcher(shorthand.Animation, "fillMode"))
		return &ir.Animation{FillMode: f}, err
	case "animation-play-state":
		p, err := texts(values, fieldMatcher(shorthand.Animation, "playState"))
		return &ir.Animation{PlayState: p}, err
	}
	return nil, errUnsupported
}

func fieldMatcher(t *shorthand.Table, name string) shorthand.Matcher {
	for _, f := range t.Fields {
		if f.Name == name {
			return f.Match
		}
	}
	return nil
}

func iterationCount(v any) (float64, bool) {
	switch x := v.(type) {
	case float64:
		return x, true
	case shorthand.Time:
		// unitless zero
		return float64(x), true
	case string:
		if strings.EqualFold(x, "infinite") {
			return Infinite, true
		}
	}
	return 0, false
}

func animationShorthand(value []stylecss.Token) (*ir.Animation, error) {
	items, err := listItems(value)
	if err != nil {
		return nil, err
	}
	a := &ir.Animation{}
	for _, item := range items {
		fields, ok := shorthand.Animation.Match(item)
		if !ok {
			return nil, errUnsupported
		}
		count, _ := iterationCount(fields["iterationCount"])
		a.Name = append(a.Name, fields["name"].(string))
		a.Duration = append(a.Duration, float64(fields["duration"].(shorthand.Time)))
		a.Delay = append(a.Delay, float64(fields["delay"].(shorthand.Time)))
		a.IterationCount = append(a.IterationCount, count)
		a.TimingFunction = append(a.TimingFunction, fields["timingFunction"].(string))
		a.Direction = append(a.Direction, fields["direction"].(string))
		a.FillMode = append(a.FillMode, fields["fillMode"].(string))
		a.PlayState = append(a.PlayState, fields["playState"].(string))
	}
	return a, nil
}

// keyframesRule compiles @keyframes into per property tracks. A later
// definition with the same name replaces earlier one.
func (cm *compilation) keyframesRule(at *stylecss.AtRule) {
	prelude := stylecss.Trim(at.Prelude)
	if at.Body == nil || len(prelude) != 1 {
		cm.log.Debug("Skipping malformed @keyframes", zap.Int("line", at.Line))
		return
	}
	var name string
	switch prelude[0].TokenType {
	case css.IdentToken:
		name = stylecss.Unescape(string(prelude[0].Data))
	case css.StringToken:
		name = stylecss.Unquote(prelude[0])
	default:
		cm.log.Debug("Skipping malformed @keyframes", zap.Int("line", at.Line))
		return
	}

	kf := &ir.Keyframes{}
	for _, item := range at.Body.Items {
		if item.Rule == nil {
			continue
		}
		frame := item.Rule
		var offsets []float64
		for _, sel := range frame.Selectors {
			off, ok := keyframeOffset(sel)
			if !ok {
				cm.log.Debug("Skipping keyframe selector", zap.String("selector", stylecss.Raw(sel)), zap.Int("line", frame.Line))
				continue
			}
			offsets = append(offsets, off)
		}

		easing := ""
		var outs []output
		for _, decl := range frame.Body.Declarations {
			if decl.Property == "animation-timing-function" {
				if v, err := singles(decl.Value); err == nil && len(v) == 1 && shorthand.Easing(v[0]) {
					easing = v[0].(string)
				}
				continue
			}
			o, err := compileProperty(decl)
			if err != nil {
				cm.reject(decl, err)
				continue
			}
			outs = append(outs, o...)
		}
		for _, off := range offsets {
			for _, o := range outs {
				if o.key != containerKey {
					kf.Add(o.key, off, o.value, easing)
				}
			}
		}
	}
	kf.Sort()

	for i, e := range cm.keyframes {
		if e.Name == name {
			cm.keyframes = append(cm.keyframes[:i], cm.keyframes[i+1:]...)
			break
		}
	}
	cm.keyframes = append(cm.keyframes, ir.KeyframesEntry{Name: name, Keyframes: kf})
}

func keyframeOffset(sel []stylecss.Token) (float64, bool) {
	if len(sel) != 1 {
		return 0, false
	}
	t := sel[0]
	switch t.TokenType {
	case css.IdentToken:
		switch strings.ToLower(string(t.Data)) {
		case "from":
			return 0, true
		case "to":
			return 1, true
		}
	case css.PercentageToken:
		f, err := strconv.ParseFloat(strings.TrimSuffix(string(t.Data), "%"), 64)
		if err == nil && f >= 0 && f <= 100 {
			return f / 100, true
		}
	}
	return 0, false
}
