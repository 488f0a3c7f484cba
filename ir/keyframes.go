package ir

import "sort"

// Track flags.
const (
	// TrackDynamic marks tracks with values which need runtime resolution.
	TrackDynamic = 1 << iota
)

// Track is an interpolation track of a single animated property.
type Track struct {
	Property string
	Offsets  []float64
	Values   []Descriptor
	Easing   []string
	Flags    int
}

// Keyframes is the compiled form of @keyframes, one track per animated
// property.
type Keyframes struct {
	Tracks []*Track
}

// Track returns track for property or nil.
func (k *Keyframes) Track(property string) *Track {
	if k == nil {
		return nil
	}
	for _, t := range k.Tracks {
		if t.Property == property {
			return t
		}
	}
	return nil
}

// Add appends a keyframe value to property track creating track if needed.
func (k *Keyframes) Add(property string, offset float64, value Descriptor, easing string) {
	t := k.Track(property)
	if t == nil {
		t = &Track{Property: property}
		k.Tracks = append(k.Tracks, t)
	}
	t.Offsets = append(t.Offsets, offset)
	t.Values = append(t.Values, value)
	t.Easing = append(t.Easing, easing)
	if !IsStatic(value) {
		t.Flags |= TrackDynamic
	}
}

// Sort orders every track by offset, keeping declaration order for equal
// offsets.
func (k *Keyframes) Sort() {
	for _, t := range k.Tracks {
		idx := make([]int, len(t.Offsets))
		for i := range idx {
			idx[i] = i
		}
		sort.SliceStable(idx, func(a, b int) bool { return t.Offsets[idx[a]] < t.Offsets[idx[b]] })
		offsets := make([]float64, len(idx))
		values := make([]Descriptor, len(idx))
		easing := make([]string, len(idx))
		for i, j := range idx {
			offsets[i], values[i], easing[i] = t.Offsets[j], t.Values[j], t.Easing[j]
		}
		t.Offsets, t.Values, t.Easing = offsets, values, easing
	}
}

func (k *Keyframes) plain() any {
	out := make([]any, len(k.Tracks))
	for i, t := range k.Tracks {
		offsets := make([]any, len(t.Offsets))
		values := make([]any, len(t.Values))
		for j := range t.Offsets {
			offsets[j] = t.Offsets[j]
			values[j] = descriptorPlain(t.Values[j])
		}
		entry := []any{t.Property, offsets, values, float64(t.Flags)}
		if hasEasing(t.Easing) {
			easing := make([]any, len(t.Easing))
			for j, e := range t.Easing {
				easing[j] = e
			}
			entry = append(entry, easing)
		}
		out[i] = entry
	}
	return out
}

func hasEasing(easing []string) bool {
	for _, e := range easing {
		if e != "" {
			return true
		}
	}
	return false
}

func keyframesFromPlain(v any) (*Keyframes, error) {
	list, ok := v.([]any)
	if !ok {
		return nil, typeError("keyframes", "list", v)
	}
	k := &Keyframes{}
	for _, e := range list {
		entry, ok := e.([]any)
		if !ok || len(entry) < 4 {
			return nil, typeError("keyframes track", "list", e)
		}
		prop, ok := entry[0].(string)
		if !ok {
			return nil, typeError("track property", "string", entry[0])
		}
		offsets, values := listOf(entry[1]), listOf(entry[2])
		if len(offsets) != len(values) {
			return nil, errorf("track %q has %d offsets and %d values", prop, len(offsets), len(values))
		}
		t := &Track{Property: prop, Easing: make([]string, len(offsets))}
		flags, _ := entry[3].(float64)
		t.Flags = int(flags)
		for i := range offsets {
			off, ok := offsets[i].(float64)
			if !ok {
				return nil, typeError("track offset", "number", offsets[i])
			}
			val, err := descriptorFromPlain(values[i])
			if err != nil {
				return nil, err
			}
			t.Offsets = append(t.Offsets, off)
			t.Values = append(t.Values, val)
		}
		if len(entry) > 4 {
			for i, ez := range listOf(entry[4]) {
				if s, ok := ez.(string); ok && i < len(t.Easing) {
					t.Easing[i] = s
				}
			}
		}
		k.Tracks = append(k.Tracks, t)
	}
	return k, nil
}
