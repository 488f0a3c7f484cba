// Package registry keeps the reactive cells compiled stylesheets are
// injected into and the environment cells rules are matched against.
//
// A Registry is an ordinary value: the host creates one (or uses Default)
// and hands it to every element. Name keyed families are cleared on hot
// reload by Reset, identity keyed families forget their cells once the
// owning component identity is garbage collected.
package registry

import (
	"fmt"
	"sync"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"stylo/ir"
	"stylo/reactive"
)

// Identity identifies a mounted component. Interaction and layout cells are
// keyed by identity pointer and live as long as the identity does.
type Identity struct {
	ID   uuid.UUID
	Name string
}

// NewIdentity creates unique identity, name is used for debugging only.
func NewIdentity(name string) *Identity {
	return &Identity{ID: uuid.New(), Name: name}
}

func (id *Identity) String() string {
	if id == nil {
		return "<none>"
	}
	if id.Name == "" {
		return id.ID.String()
	}
	return fmt.Sprintf("%s(%s)", id.Name, id.ID)
}

// Options are initial environment values.
type Options struct {
	Width       float64
	Height      float64
	PixelRatio  float64
	FontScale   float64
	Rem         float64
	ColorScheme string
	Dir         string
}

// DefaultOptions returns environment of a typical phone in light mode.
func DefaultOptions() Options {
	return Options{
		Width:       390,
		Height:      844,
		PixelRatio:  3,
		FontScale:   1,
		Rem:         14,
		ColorScheme: "light",
		Dir:         "ltr",
	}
}

// Env holds environment cells, the host updates them when platform values
// change.
type Env struct {
	Width       *reactive.Cell[float64]
	Height      *reactive.Cell[float64]
	PixelRatio  *reactive.Cell[float64]
	FontScale   *reactive.Cell[float64]
	Rem         *reactive.Cell[float64]
	ColorScheme *reactive.Cell[string]
	Dir         *reactive.Cell[string]
}

type (
	ruleCell     = reactive.Cell[*ir.StyleRuleSet]
	keyframeCell = reactive.Cell[*ir.Keyframes]
	themeCell    = reactive.Cell[*ir.ThemeVariable]
	flagCell     = reactive.Cell[string]
	boolCell     = reactive.Cell[bool]
	sizeCell     = reactive.Cell[float64]
)

// Registry is the set of cell families of a process (or of a test).
type Registry struct {
	log   *zap.Logger
	graph *reactive.Graph
	Env   Env

	rules     *reactive.Family[string, *ruleCell]
	keyframes *reactive.Family[string, *keyframeCell]
	root      *reactive.Family[string, *themeCell]
	universal *reactive.Family[string, *themeCell]
	flags     *reactive.Family[string, *flagCell]

	hover  *reactive.WeakFamily[Identity, *boolCell]
	active *reactive.WeakFamily[Identity, *boolCell]
	focus  *reactive.WeakFamily[Identity, *boolCell]
	width  *reactive.WeakFamily[Identity, *sizeCell]
	height *reactive.WeakFamily[Identity, *sizeCell]
}

// New creates registry with its own graph.
func New(log *zap.Logger, opts Options) *Registry {
	if log == nil {
		log = zap.NewNop()
	}
	g := reactive.New(log)
	r := &Registry{
		log:   log.Named("registry"),
		graph: g,
		Env: Env{
			Width:       reactive.NewCell(g, opts.Width, nil),
			Height:      reactive.NewCell(g, opts.Height, nil),
			PixelRatio:  reactive.NewCell(g, opts.PixelRatio, nil),
			FontScale:   reactive.NewCell(g, opts.FontScale, nil),
			Rem:         reactive.NewCell(g, opts.Rem, nil),
			ColorScheme: reactive.NewCell(g, opts.ColorScheme, nil),
			Dir:         reactive.NewCell(g, opts.Dir, nil),
		},
	}

	r.rules = reactive.NewFamily(func(string) *ruleCell {
		return reactive.NewCell[*ir.StyleRuleSet](g, nil, reactive.Deep[*ir.StyleRuleSet])
	})
	r.keyframes = reactive.NewFamily(func(string) *keyframeCell {
		return reactive.NewCell[*ir.Keyframes](g, nil, reactive.Deep[*ir.Keyframes])
	})
	newTheme := func(string) *themeCell {
		return reactive.NewCell[*ir.ThemeVariable](g, nil, reactive.Deep[*ir.ThemeVariable])
	}
	r.root = reactive.NewFamily(newTheme)
	r.universal = reactive.NewFamily(newTheme)
	r.flags = reactive.NewFamily(func(string) *flagCell {
		return reactive.NewCell(g, "", nil)
	})

	newBool := func(*Identity) *boolCell { return reactive.NewCell(g, false, nil) }
	newSize := func(*Identity) *sizeCell { return reactive.NewCell(g, 0.0, nil) }
	r.hover = reactive.NewWeakFamily(newBool)
	r.active = reactive.NewWeakFamily(newBool)
	r.focus = reactive.NewWeakFamily(newBool)
	r.width = reactive.NewWeakFamily(newSize)
	r.height = reactive.NewWeakFamily(newSize)
	return r
}

var (
	defaultOnce     sync.Once
	defaultRegistry *Registry
)

// Default returns process wide registry with default environment, created
// on first use.
func Default() *Registry {
	defaultOnce.Do(func() {
		defaultRegistry = New(nil, DefaultOptions())
	})
	return defaultRegistry
}

// Graph returns graph all cells of the registry belong to.
func (r *Registry) Graph() *reactive.Graph {
	return r.graph
}

// Log returns registry logger.
func (r *Registry) Log() *zap.Logger {
	return r.log
}

// Rules returns cell holding rule set of class name, nil when class is not
// registered.
func (r *Registry) Rules(class string) reactive.Readable[*ir.StyleRuleSet] {
	return r.rules.Get(class)
}

// Keyframes returns cell holding keyframes of animation name.
func (r *Registry) Keyframes(name string) reactive.Readable[*ir.Keyframes] {
	return r.keyframes.Get(name)
}

// Root returns cell holding :root variable.
func (r *Registry) Root(name string) reactive.Readable[*ir.ThemeVariable] {
	return r.root.Get(name)
}

// Universal returns cell holding * variable.
func (r *Registry) Universal(name string) reactive.Readable[*ir.ThemeVariable] {
	return r.universal.Get(name)
}

// Flag returns value of stylesheet feature flag, empty when not set.
func (r *Registry) Flag(name string) string {
	return r.flags.Get(name).Get()
}

// Dark reports whether dark colour scheme is active.
func (r *Registry) Dark() bool {
	return r.Env.ColorScheme.Get() == "dark"
}

// ThemeValue picks variant of theme variable for the active colour scheme,
// nil when variable is not declared.
func (r *Registry) ThemeValue(v *ir.ThemeVariable) ir.Descriptor {
	if v == nil {
		return nil
	}
	if v.Dark != nil && r.Dark() {
		return v.Dark
	}
	return v.Light
}

// Hover returns hover state cell of component.
func (r *Registry) Hover(id *Identity) *reactive.Cell[bool] {
	return r.hover.Get(id)
}

// Active returns pressed state cell of component.
func (r *Registry) Active(id *Identity) *reactive.Cell[bool] {
	return r.active.Get(id)
}

// Focus returns focus state cell of component.
func (r *Registry) Focus(id *Identity) *reactive.Cell[bool] {
	return r.focus.Get(id)
}

// Width returns layout width cell of component.
func (r *Registry) Width(id *Identity) *reactive.Cell[float64] {
	return r.width.Get(id)
}

// Height returns layout height cell of component.
func (r *Registry) Height(id *Identity) *reactive.Cell[float64] {
	return r.height.Get(id)
}

// Tracked returns number of identities with interaction or layout cells.
func (r *Registry) Tracked() int {
	return max(r.hover.Len(), r.active.Len(), r.focus.Len(), r.width.Len(), r.height.Len())
}
