package config

// How dark theme variants are selected.
// ENUM(media, class)
type DarkMode int

// Specification of serialized payload format.
// ENUM(json, ion)
type PayloadFormat int

func (f PayloadFormat) Ext() string {
	switch f {
	case PayloadFormatJson:
		return ".json"
	case PayloadFormatIon:
		return ".ion"
	default:
		// this should never happen
		panic("unsupported payload format requested")
	}
}
