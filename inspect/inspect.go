// Package inspect renders a single element against compiled stylesheets
// and shows what the runtime would produce for it. It is a troubleshooting
// tool, the same code paths run inside applications.
package inspect

import (
	"fmt"
	"io"
	"strings"

	"go.uber.org/zap"
	yaml "gopkg.in/yaml.v3"

	"stylo/apply"
	"stylo/bundle"
	"stylo/compiler"
	"stylo/element"
	"stylo/ir"
	"stylo/reactive"
	"stylo/registry"
)

// Request describes the element to render.
type Request struct {
	ClassName string
	Props     map[string]any

	Hover  bool
	Active bool
	Focus  bool
	// Layout is reported element size, zero values leave layout unknown.
	Width  float64
	Height float64
}

// Result is what rendering produced.
type Result struct {
	Payloads    []*ir.Payload
	Warnings    map[string][]string
	Props       map[string]any
	Variables   map[string]any
	Transitions []apply.TransitionEffect
	Animations  []apply.AnimationEffect
	// Passes is number of render passes, layout or interaction changes
	// requested by the first pass cause another one.
	Passes int
}

// recorder is a driver keeping effects handed over on commit.
type recorder struct {
	transitions []apply.TransitionEffect
	animations  []apply.AnimationEffect
}

func (r *recorder) Transition(t apply.TransitionEffect) { r.transitions = append(r.transitions, t) }
func (r *recorder) Animate(a apply.AnimationEffect)     { r.animations = append(r.animations, a) }

// Inspect compiles and registers sources, then renders element described by
// req until it settles.
func Inspect(log *zap.Logger, c *compiler.Compiler, reg *registry.Registry, sources []bundle.Source, req Request, opts apply.Options) (*Result, error) {
	if log == nil {
		log = zap.NewNop()
	}
	log = log.Named("inspect")

	res := &Result{Warnings: make(map[string][]string)}
	for _, src := range sources {
		compiled, err := c.Compile(src.Data, src.Origin)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", src.Origin, err)
		}
		if w := bundle.Describe(compiled.Warnings); len(w) > 0 {
			res.Warnings[src.Name] = w
		}
		reg.Register(compiled.Payload)
		res.Payloads = append(res.Payloads, compiled.Payload)
	}

	props := make(map[string]any, len(req.Props)+1)
	for k, v := range req.Props {
		props[k] = v
	}
	if len(req.ClassName) > 0 {
		props[apply.ClassNameProp] = req.ClassName
	}

	queue := reactive.NewUpdateQueue()
	el := element.New(log, reg, "inspected", queue, opts)
	defer el.Unmount()

	rec := &recorder{}
	rendered := el.Render(nil, props)
	el.Commit(rec)

	// host reacts to the first pass the same way a real one would
	if req.Width > 0 || req.Height > 0 {
		el.SetLayout(req.Width, req.Height)
	}
	el.SetHover(req.Hover)
	el.SetActive(req.Active)
	el.SetFocus(req.Focus)
	for queue.Len() > 0 {
		queue.Drain()
		rendered = el.Render(nil, props)
		el.Commit(rec)
	}

	res.Props = rendered.Props
	res.Variables = rendered.Child.Variables
	res.Transitions, res.Animations = rec.transitions, rec.animations
	res.Passes = el.Passes()
	log.Debug("Element settled", zap.Int("passes", res.Passes), zap.Int("tracked", reg.Tracked()))
	return res, nil
}

// ParseProps converts "name=value" pairs into props, values are YAML
// scalars or flow collections: "disabled=true", "size=12", "tags=[a, b]".
func ParseProps(pairs []string) (map[string]any, error) {
	props := make(map[string]any, len(pairs))
	for _, p := range pairs {
		name, value, ok := strings.Cut(p, "=")
		if !ok || len(name) == 0 {
			return nil, fmt.Errorf("malformed prop %q, expected name=value", p)
		}
		var v any
		if err := yaml.Unmarshal([]byte(value), &v); err != nil {
			return nil, fmt.Errorf("malformed prop %q value: %w", name, err)
		}
		props[name] = v
	}
	return props, nil
}

type report struct {
	Warnings    map[string][]string      `yaml:"warnings,omitempty"`
	Props       map[string]any           `yaml:"props"`
	Variables   map[string]any           `yaml:"variables,omitempty"`
	Transitions []apply.TransitionEffect `yaml:"transitions,omitempty"`
	Animations  []animation              `yaml:"animations,omitempty"`
	Passes      int                      `yaml:"passes"`
}

type animation struct {
	Name           string  `yaml:"name"`
	Duration       float64 `yaml:"duration"`
	Delay          float64 `yaml:"delay,omitempty"`
	IterationCount float64 `yaml:"iteration_count"`
	Tracks         int     `yaml:"tracks"`
}

// Write outputs result as YAML document optionally preceded by compiled
// payload trees.
func (r *Result) Write(w io.Writer, tree bool) error {
	if tree {
		for _, p := range r.Payloads {
			if _, err := io.WriteString(w, p.String()); err != nil {
				return err
			}
		}
		if _, err := io.WriteString(w, "---\n"); err != nil {
			return err
		}
	}

	out := report{
		Warnings:    r.Warnings,
		Props:       r.Props,
		Variables:   r.Variables,
		Transitions: r.Transitions,
		Passes:      r.Passes,
	}
	for _, a := range r.Animations {
		out.Animations = append(out.Animations, animation{
			Name:           a.Name,
			Duration:       a.Duration,
			Delay:          a.Delay,
			IterationCount: a.IterationCount,
			Tracks:         len(a.Tracks),
		})
	}
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(out); err != nil {
		return fmt.Errorf("unable to write inspection result: %w", err)
	}
	return enc.Close()
}
