package resolve

import (
	"strconv"
	"strings"

	"stylo/ir"
)

// quantity is a number with unit, unit is empty for lengths in pixels and
// plain numbers.
type quantity struct {
	n    float64
	unit string
}

func quantityOf(v any) (quantity, bool) {
	switch x := v.(type) {
	case float64:
		return quantity{n: x}, true
	case string:
		i := len(x)
		for i > 0 && (x[i-1] == '%' || x[i-1] >= 'a' && x[i-1] <= 'z') {
			i--
		}
		if i == 0 || i == len(x) {
			return quantity{}, false
		}
		n, err := strconv.ParseFloat(x[:i], 64)
		if err != nil {
			return quantity{}, false
		}
		return quantity{n: n, unit: x[i:]}, true
	}
	return quantity{}, false
}

func (q quantity) value() any {
	if q.unit == "" {
		return q.n
	}
	return strconv.FormatFloat(q.n, 'f', -1, 64) + q.unit
}

// calc evaluates calc(left, op, right) or calc(x). Operands of addition and
// subtraction must share unit: percentages mixed with pixels cannot be
// expressed without layout and are undefined.
func (r *Resolver) calc(f *ir.Func, property string) any {
	if len(f.Args) == 1 {
		return r.Resolve(f.Args[0], property)
	}
	if len(f.Args) != 3 {
		return nil
	}
	op, ok := f.Args[1].(ir.String)
	if !ok {
		return nil
	}
	left, lok := quantityOf(r.Resolve(f.Args[0], property))
	right, rok := quantityOf(r.Resolve(f.Args[2], property))
	if !lok || !rok {
		return nil
	}
	q, ok := arithmetic(left, strings.TrimSpace(string(op)), right)
	if !ok {
		return nil
	}
	return q.value()
}

func arithmetic(l quantity, op string, r quantity) (quantity, bool) {
	switch op {
	case "+", "-":
		if l.unit != r.unit {
			return quantity{}, false
		}
		if op == "-" {
			r.n = -r.n
		}
		return quantity{n: l.n + r.n, unit: l.unit}, true
	case "*":
		switch {
		case l.unit == "":
			return quantity{n: l.n * r.n, unit: r.unit}, true
		case r.unit == "":
			return quantity{n: l.n * r.n, unit: l.unit}, true
		}
	case "/":
		if r.unit == "" && r.n != 0 {
			return quantity{n: l.n / r.n, unit: l.unit}, true
		}
	}
	return quantity{}, false
}
