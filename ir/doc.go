// Package ir defines the intermediate representation produced by the
// stylesheet compiler and consumed by the runtime.
//
// The IR is plain data: every value converts to a tree of strings, numbers,
// booleans, lists and string-keyed maps (see Payload.Plain), which is what
// gets serialized as JSON or Ion. There are no functions and no cycles.
//
// # Payload layout
//
//	s   list of [className, StyleRuleSet] pairs
//	k   list of [keyframesName, Keyframes] pairs
//	vr  list of [variableName, [light, dark?]] for :root
//	vu  list of [variableName, [light, dark?]] for *
//	f   feature flags
//
// Absence of a key means "nothing of that kind", an empty payload is a valid
// no-op stylesheet.
//
// # Style functions
//
// Unresolved expressions are encoded as tagged arrays
//
//	[{}, name, args?, 1?]
//
// where the leading empty object is the marker which distinguishes a function
// from a plain descriptor list and the trailing 1 marks deferred resolution.
// In Go they are represented by *Func with a closed FuncKind used for
// dispatch.
package ir
