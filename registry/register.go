package registry

import (
	"fmt"

	"go.uber.org/zap"

	"stylo/ir"
)

// Register injects compiled stylesheet. All cells are written in a single
// batch, so every affected component is notified once.
func (r *Registry) Register(p *ir.Payload) {
	if p.Empty() {
		return
	}
	changed := 0
	r.graph.Batch(func() {
		for _, e := range p.Rules {
			if r.rules.Get(e.Name).Set(e.Set) {
				changed++
			}
		}
		for _, e := range p.Keyframes {
			if r.keyframes.Get(e.Name).Set(e.Keyframes) {
				changed++
			}
		}
		for i := range p.Root {
			if r.root.Get(p.Root[i].Name).Set(&p.Root[i]) {
				changed++
			}
		}
		for i := range p.Universal {
			if r.universal.Get(p.Universal[i].Name).Set(&p.Universal[i]) {
				changed++
			}
		}
		for name, value := range p.Flags {
			if r.flags.Get(name).Set(value) {
				changed++
			}
		}
	})
	r.log.Debug("Stylesheet registered",
		zap.Int("classes", len(p.Rules)),
		zap.Int("keyframes", len(p.Keyframes)),
		zap.Int("variables", len(p.Root)+len(p.Universal)),
		zap.Int("changed", changed))
}

// RegisterJSON decodes and injects JSON payload.
func (r *Registry) RegisterJSON(data []byte) error {
	p, err := ir.DecodeJSON(data)
	if err != nil {
		return fmt.Errorf("unable to register stylesheet: %w", err)
	}
	r.Register(p)
	return nil
}

// RegisterIon decodes and injects binary Ion payload.
func (r *Registry) RegisterIon(data []byte) error {
	p, err := ir.DecodeIon(data)
	if err != nil {
		return fmt.Errorf("unable to register stylesheet: %w", err)
	}
	r.Register(p)
	return nil
}

// Reset forgets every registered stylesheet. Components which used any of
// the registered values are notified, so that they pick up stylesheets
// registered afterwards.
func (r *Registry) Reset() {
	r.graph.Batch(func() {
		r.rules.Each(func(_ string, c *ruleCell) { c.Set(nil) })
		r.keyframes.Each(func(_ string, c *keyframeCell) { c.Set(nil) })
		r.root.Each(func(_ string, c *themeCell) { c.Set(nil) })
		r.universal.Each(func(_ string, c *themeCell) { c.Set(nil) })
		r.flags.Each(func(_ string, c *flagCell) { c.Set("") })
	})
	r.rules.Clear()
	r.keyframes.Clear()
	r.root.Clear()
	r.universal.Clear()
	r.flags.Clear()
	r.log.Debug("Registry reset")
}

// Sheet is serialized payload embedded into generated registration code.
type Sheet struct {
	Source string
	Format string // json or ion
	Data   []byte
}

// RegisterSheet decodes sheet according to its format and injects it.
func (r *Registry) RegisterSheet(s Sheet) error {
	switch s.Format {
	case "json":
		return r.RegisterJSON(s.Data)
	case "ion":
		return r.RegisterIon(s.Data)
	}
	return fmt.Errorf("unable to register stylesheet %s: unknown format %q", s.Source, s.Format)
}
