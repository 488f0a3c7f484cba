package ir

import (
	"bytes"
	"encoding/json"
	"fmt"
	"sort"

	"github.com/amazon-ion/ion-go/ion"
)

// EncodeJSON serializes payload. Map keys are sorted so identical payloads
// always produce identical bytes.
func EncodeJSON(p *Payload, pretty bool) ([]byte, error) {
	if pretty {
		return json.MarshalIndent(p.Plain(), "", "  ")
	}
	return json.Marshal(p.Plain())
}

// DecodeJSON parses serialized payload.
func DecodeJSON(data []byte) (*Payload, error) {
	var v any
	if err := json.Unmarshal(data, &v); err != nil {
		return nil, fmt.Errorf("unable to decode payload: %w", err)
	}
	return FromPlain(v)
}

// EncodeIon serializes payload as binary Ion.
func EncodeIon(p *Payload) ([]byte, error) {
	var buf bytes.Buffer
	w := ion.NewBinaryWriter(&buf)
	if err := writeIon(w, p.Plain()); err != nil {
		return nil, fmt.Errorf("unable to encode payload: %w", err)
	}
	if err := w.Finish(); err != nil {
		return nil, fmt.Errorf("unable to encode payload: %w", err)
	}
	return buf.Bytes(), nil
}

func writeIon(w ion.Writer, v any) error {
	switch x := v.(type) {
	case nil:
		return w.WriteNull()
	case string:
		return w.WriteString(x)
	case float64:
		return w.WriteFloat(x)
	case bool:
		return w.WriteBool(x)
	case []any:
		if err := w.BeginList(); err != nil {
			return err
		}
		for _, e := range x {
			if err := writeIon(w, e); err != nil {
				return err
			}
		}
		return w.EndList()
	case map[string]any:
		if err := w.BeginStruct(); err != nil {
			return err
		}
		keys := make([]string, 0, len(x))
		for k := range x {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		for _, k := range keys {
			if err := w.FieldName(ion.NewSymbolTokenFromString(k)); err != nil {
				return err
			}
			if err := writeIon(w, x[k]); err != nil {
				return err
			}
		}
		return w.EndStruct()
	}
	return fmt.Errorf("unsupported plain value %T", v)
}

// DecodeIon parses binary or text Ion payload.
func DecodeIon(data []byte) (*Payload, error) {
	r := ion.NewReaderBytes(data)
	if !r.Next() {
		if err := r.Err(); err != nil {
			return nil, fmt.Errorf("unable to decode payload: %w", err)
		}
		return &Payload{}, nil
	}
	v, err := readIon(r)
	if err != nil {
		return nil, fmt.Errorf("unable to decode payload: %w", err)
	}
	return FromPlain(v)
}

func readIon(r ion.Reader) (any, error) {
	if r.IsNull() {
		return nil, nil
	}
	switch r.Type() {
	case ion.BoolType:
		b, err := r.BoolValue()
		if err != nil || b == nil {
			return nil, err
		}
		return *b, nil
	case ion.IntType:
		i, err := r.Int64Value()
		if err != nil || i == nil {
			return nil, err
		}
		return float64(*i), nil
	case ion.FloatType:
		f, err := r.FloatValue()
		if err != nil || f == nil {
			return nil, err
		}
		return *f, nil
	case ion.StringType:
		s, err := r.StringValue()
		if err != nil || s == nil {
			return nil, err
		}
		return *s, nil
	case ion.ListType:
		if err := r.StepIn(); err != nil {
			return nil, err
		}
		out := []any{}
		for r.Next() {
			v, err := readIon(r)
			if err != nil {
				return nil, err
			}
			out = append(out, v)
		}
		if err := r.Err(); err != nil {
			return nil, err
		}
		return out, r.StepOut()
	case ion.StructType:
		if err := r.StepIn(); err != nil {
			return nil, err
		}
		out := map[string]any{}
		for r.Next() {
			name, err := r.FieldName()
			if err != nil {
				return nil, err
			}
			if name == nil || name.Text == nil {
				return nil, fmt.Errorf("struct field without name")
			}
			v, err := readIon(r)
			if err != nil {
				return nil, err
			}
			out[*name.Text] = v
		}
		if err := r.Err(); err != nil {
			return nil, err
		}
		return out, r.StepOut()
	}
	return nil, fmt.Errorf("unsupported ion type %v", r.Type())
}
