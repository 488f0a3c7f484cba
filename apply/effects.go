package apply

import (
	"maps"
	"reflect"
	"slices"

	"go.uber.org/zap"

	"stylo/ir"
	"stylo/shorthand"
)

// TransitionEffect asks the host to interpolate a style key. The style
// object keeps From until the host takes over.
type TransitionEffect struct {
	Property       string
	From           any
	To             any
	Duration       float64 // ms
	Delay          float64 // ms
	TimingFunction string
}

// Track is a resolved keyframe track.
type Track struct {
	Property string
	Offsets  []float64
	Values   []any
	Easing   []string
}

// AnimationEffect asks the host to run keyframe animation.
type AnimationEffect struct {
	Name           string
	Duration       float64 // ms
	Delay          float64 // ms
	IterationCount float64 // ir.Infinite for endless animations
	TimingFunction string
	Direction      string
	FillMode       string
	PlayState      string
	Tracks         []Track
}

// Driver runs side effects of committed renders.
type Driver interface {
	Transition(TransitionEffect)
	Animate(AnimationEffect)
}

// Defaults are values style keys transition back to when they stop being
// declared while a transition is active.
var Defaults = map[string]any{
	"opacity":         float64(1),
	"color":           "black",
	"backgroundColor": "transparent",
	"borderColor":     "black",
	"borderWidth":     float64(0),
	"borderRadius":    float64(0),
	"transform":       []any{},
	"width":           "auto",
	"height":          "auto",
	"top":             float64(0),
	"left":            float64(0),
	"right":           float64(0),
	"bottom":          float64(0),
	"margin":          float64(0),
	"padding":         float64(0),
	"fontSize":        float64(14),
	"letterSpacing":   float64(0),
	"rotate":          "0deg",
	"scale":           float64(1),
}

func pick[T any](list []T, i int, def T) T {
	if len(list) == 0 {
		return def
	}
	return list[i%len(list)]
}

// transitions compares style with values settled by previous passes. A
// transitioned key changing value, or disappearing while it has a default,
// produces an effect and keeps its previous value in style. The first
// assignment of a key is written directly.
func (a *Applier) transitions(t *ir.Transition, style map[string]any) []TransitionEffect {
	if t == nil || len(t.Property) == 0 {
		clear(a.settled)
		return nil
	}
	// shorthand names cover their longhands
	index := func(key string) int {
		for i, p := range t.Property {
			if p == "all" || shorthand.Covers(p, key) {
				return i
			}
		}
		return -1
	}

	keys := slices.Collect(maps.Keys(style))
	for k := range a.settled {
		if _, ok := style[k]; !ok {
			keys = append(keys, k)
		}
	}
	slices.Sort(keys)

	var out []TransitionEffect
	for _, k := range keys {
		i := index(k)
		if i < 0 || t.Property[i] == "none" {
			delete(a.settled, k)
			continue
		}
		prev, had := a.settled[k]
		next, has := style[k]
		if !had {
			if has {
				a.settled[k] = next
			}
			continue
		}
		if !has {
			def, ok := Defaults[k]
			if !ok {
				def, ok = Defaults[t.Property[i]]
			}
			if !ok {
				delete(a.settled, k)
				continue
			}
			next = def
		}
		if reflect.DeepEqual(prev, next) {
			if !has {
				delete(a.settled, k)
			}
			continue
		}
		out = append(out, TransitionEffect{
			Property:       k,
			From:           prev,
			To:             next,
			Duration:       pick(t.Duration, i, 0),
			Delay:          pick(t.Delay, i, 0),
			TimingFunction: pick(t.TimingFunction, i, "ease"),
		})
		style[k] = prev
		a.settled[k] = next
	}
	if len(out) > 0 {
		a.log.Debug("Transitions scheduled", zap.Int("count", len(out)))
	}
	return out
}

// attach builds effects of running animations. Animations filling backwards
// write their first frame into style, important rules still override it.
func (a *Applier) attach(anim *ir.Animation, p *pass) []AnimationEffect {
	if anim == nil {
		return nil
	}
	var out []AnimationEffect
	for i, name := range anim.Name {
		if name == "none" {
			continue
		}
		kf := a.reg.Keyframes(name).Get()
		if kf == nil {
			continue
		}
		e := AnimationEffect{
			Name:           name,
			Duration:       pick(anim.Duration, i, 0),
			Delay:          pick(anim.Delay, i, 0),
			IterationCount: pick(anim.IterationCount, i, 1),
			TimingFunction: pick(anim.TimingFunction, i, "ease"),
			Direction:      pick(anim.Direction, i, "normal"),
			FillMode:       pick(anim.FillMode, i, "none"),
			PlayState:      pick(anim.PlayState, i, "running"),
		}
		for _, t := range kf.Tracks {
			track := Track{Property: t.Property, Offsets: t.Offsets, Easing: t.Easing}
			for _, v := range t.Values {
				track.Values = append(track.Values, p.r.Resolve(v, t.Property))
			}
			e.Tracks = append(e.Tracks, track)
			if (e.FillMode == "backwards" || e.FillMode == "both") && len(track.Values) > 0 {
				p.write(ir.RelativePath(t.Property), track.Values[0])
			}
		}
		out = append(out, e)
	}
	return out
}
