package resolve

import (
	"strings"

	"stylo/ir"
)

// transform converts a transform function into entries of the transform
// list. Two argument forms expand into per axis entries, so the result is
// always a list.
func (r *Resolver) transform(f *ir.Func, property string) any {
	args := make([]any, 0, len(f.Args))
	for _, a := range f.Args {
		v := r.Resolve(a, property)
		if v == nil {
			return nil
		}
		args = append(args, v)
	}
	if len(args) == 0 {
		return nil
	}

	switch f.Name {
	case "translate":
		x := r.translate(args[0], true)
		if len(args) == 1 {
			return []any{entry("translateX", x)}
		}
		return []any{entry("translateX", x), entry("translateY", r.translate(args[1], false))}
	case "translateX":
		return []any{entry(f.Name, r.translate(args[0], true))}
	case "translateY":
		return []any{entry(f.Name, r.translate(args[0], false))}
	case "scale", "skew":
		if len(args) == 1 {
			return []any{entry(f.Name, args[0])}
		}
		return []any{entry(f.Name+"X", args[0]), entry(f.Name+"Y", args[1])}
	case "matrix":
		return []any{entry(f.Name, args)}
	}
	return []any{entry(f.Name, args[0])}
}

func entry(name string, v any) map[string]any {
	return map[string]any{name: v}
}

// translate converts percentage to pixels of the element layout size.
func (r *Resolver) translate(v any, horizontal bool) any {
	s, ok := v.(string)
	if !ok || !strings.HasSuffix(s, "%") {
		return v
	}
	q, ok := quantityOf(s)
	if !ok || r.scope.Identity == nil {
		return v
	}
	size := r.reg.Height(r.scope.Identity).Get()
	if horizontal {
		size = r.reg.Width(r.scope.Identity).Get()
	}
	return q.n * size / 100
}
