package compiler

import (
	"slices"

	"go.uber.org/zap"

	"stylo/ir"
)

// prune drops custom properties nothing refers to, unless preserved.
// Dropping a variable may leave variables it referred to unused, so passes
// repeat until nothing is dropped.
func (cm *compilation) prune() {
	for cm.pruneUnused() {
	}
}

// pruneUnused makes a single pruning pass and reports whether anything was
// dropped.
func (cm *compilation) pruneUnused() bool {
	usage := make(map[string]int)
	count := func(d ir.Descriptor) {
		ir.Walk(d, func(d ir.Descriptor) {
			if f, ok := d.(*ir.Func); ok && f.Kind == ir.FuncVar {
				if name, ok := f.Arg(0).(ir.String); ok {
					usage[string(name)]++
				}
			}
		})
	}
	countRules := func(rules []*ir.StyleRule) {
		for _, r := range rules {
			for _, d := range r.Declarations {
				for _, v := range d.Static {
					count(v)
				}
				count(d.Value)
			}
			for _, v := range r.Variables {
				count(v.Value)
			}
		}
	}
	for _, set := range cm.rules {
		countRules(set.Normal)
		countRules(set.Important)
	}
	for _, e := range cm.keyframes {
		for _, t := range e.Keyframes.Tracks {
			for _, v := range t.Values {
				count(v)
			}
		}
	}
	for _, tv := range cm.root {
		count(tv.Light)
		count(tv.Dark)
	}
	for _, tv := range cm.universe {
		count(tv.Light)
		count(tv.Dark)
	}

	dropped := false
	live := func(name string) bool {
		if usage[name] > 0 || cm.preserve[name] {
			return true
		}
		cm.log.Debug("Dropping unused variable", zap.String("name", name))
		dropped = true
		return false
	}

	for _, name := range cm.ruleOrder {
		set := cm.rules[name]
		set.Normal = slices.DeleteFunc(set.Normal, func(r *ir.StyleRule) bool {
			r.Variables = slices.DeleteFunc(r.Variables, func(v ir.Variable) bool { return !live(v.Name) })
			if len(r.Variables) == 0 {
				r.Variables = nil
			}
			return r.Empty()
		})
	}
	for name := range cm.root {
		if !live(name) {
			delete(cm.root, name)
		}
	}
	for name := range cm.universe {
		if !live(name) {
			delete(cm.universe, name)
		}
	}
	return dropped
}
