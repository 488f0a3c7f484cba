package compiler

import (
	"strings"

	stylecss "stylo/css"
	"stylo/ir"
	"stylo/shorthand"
)

// compileTransition handles transition shorthand and longhands. Property
// names are converted to the keys they are written to.
func compileTransition(property string, value []stylecss.Token) (*ir.Transition, error) {
	if property != "transition" && property != "transition-property" {
		values, err := singles(value)
		if err != nil {
			return nil, err
		}
		switch property {
		case "transition-duration":
			d, err := times(values)
			return &ir.Transition{Duration: d}, err
		case "transition-delay":
			d, err := times(values)
			return &ir.Transition{Delay: d}, err
		case "transition-timing-function":
			e, err := texts(values, shorthand.Easing)
			return &ir.Transition{TimingFunction: e}, err
		}
		return nil, errUnsupported
	}

	if isNone(value) {
		return &ir.Transition{Property: []string{}}, nil
	}

	if property == "transition-property" {
		values, err := singles(value)
		if err != nil {
			return nil, err
		}
		names, err := texts(values, shorthand.Property)
		if err != nil {
			return nil, err
		}
		for i := range names {
			names[i] = transitionKey(names[i])
		}
		return &ir.Transition{Property: names}, nil
	}

	items, err := listItems(value)
	if err != nil {
		return nil, err
	}
	t := &ir.Transition{}
	for _, item := range items {
		fields, ok := shorthand.Transition.Match(item)
		if !ok {
			return nil, errUnsupported
		}
		t.Property = append(t.Property, transitionKey(fields["property"].(string)))
		t.Duration = append(t.Duration, float64(fields["duration"].(shorthand.Time)))
		t.Delay = append(t.Delay, float64(fields["delay"].(shorthand.Time)))
		t.TimingFunction = append(t.TimingFunction, fields["timingFunction"].(string))
	}
	return t, nil
}

func transitionKey(property string) string {
	property = strings.ToLower(property)
	if property == "all" {
		return property
	}
	return camel(property)
}

func isNone(value []stylecss.Token) bool {
	value = stylecss.Trim(value)
	return len(value) == 1 && strings.EqualFold(string(value[0].Data), "none")
}
