package ir

// Positions in the specificity tuple.
const (
	SpecOrder = iota
	SpecClassName
	SpecImportant
	SpecInline
	SpecPseudoElement

	specLen
)

// Specificity is the fixed width tuple [order, classCount, important, inline,
// pseudoElement]. Slots missing from serialized form are zero.
type Specificity [specLen]int

// precedence lists tuple positions from the most significant to the least
// significant one: inline+important > important > inline > class count >
// source order.
var precedence = [specLen]int{SpecImportant, SpecInline, SpecPseudoElement, SpecClassName, SpecOrder}

// Compare returns -1, 0 or 1 when s has lower, equal or higher cascade
// precedence than o.
func (s Specificity) Compare(o Specificity) int {
	for _, pos := range precedence {
		switch {
		case s[pos] < o[pos]:
			return -1
		case s[pos] > o[pos]:
			return 1
		}
	}
	return 0
}

// Less reports whether s loses to o in the cascade.
func (s Specificity) Less(o Specificity) bool {
	return s.Compare(o) < 0
}

// Add returns the slot-wise sum of s and o.
func (s Specificity) Add(o Specificity) Specificity {
	var r Specificity
	for i := range s {
		r[i] = s[i] + o[i]
	}
	return r
}

func (s Specificity) plain() []any {
	n := len(s)
	for n > 0 && s[n-1] == 0 {
		n--
	}
	out := make([]any, n)
	for i := range n {
		out[i] = float64(s[i])
	}
	return out
}

func specificityFromPlain(v any) (Specificity, error) {
	var s Specificity
	list, ok := v.([]any)
	if !ok {
		return s, typeError("specificity", "list", v)
	}
	if len(list) > specLen {
		return s, errorf("specificity has %d slots, at most %d allowed", len(list), specLen)
	}
	for i, e := range list {
		if e == nil {
			continue
		}
		f, ok := e.(float64)
		if !ok {
			return s, typeError("specificity slot", "number", e)
		}
		s[i] = int(f)
	}
	return s, nil
}
