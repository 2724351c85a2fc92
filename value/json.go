package value

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"strings"
)

// MarshalJSON encodes the value, keeping object key order.
func (v Value) MarshalJSON() ([]byte, error) {
	var sb strings.Builder
	v.writeJSON(&sb)
	return []byte(sb.String()), nil
}

// UnmarshalJSON decodes JSON text into v, keeping object key order.
func (v *Value) UnmarshalJSON(data []byte) error {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	parsed, err := decodeValue(dec)
	if err != nil {
		return err
	}
	if _, err := dec.Token(); err != io.EOF {
		return fmt.Errorf("value: trailing data after JSON value")
	}
	*v = parsed
	return nil
}

// ParseJSON is a convenience wrapper around UnmarshalJSON.
func ParseJSON(text string) (Value, error) {
	var v Value
	if err := v.UnmarshalJSON([]byte(text)); err != nil {
		return Null(), err
	}
	return v, nil
}

func decodeValue(dec *json.Decoder) (Value, error) {
	tok, err := dec.Token()
	if err != nil {
		return Null(), fmt.Errorf("value: %w", err)
	}
	switch t := tok.(type) {
	case nil:
		return Null(), nil
	case bool:
		return Bool(t), nil
	case string:
		return String(t), nil
	case json.Number:
		n, err := t.Float64()
		if err != nil {
			return Null(), fmt.Errorf("value: number %s: %w", t, err)
		}
		return Number(n), nil
	case json.Delim:
		switch t {
		case '[':
			arr := []Value{}
			for dec.More() {
				item, err := decodeValue(dec)
				if err != nil {
					return Null(), err
				}
				arr = append(arr, item)
			}
			if _, err := dec.Token(); err != nil {
				return Null(), fmt.Errorf("value: %w", err)
			}
			return Value{kind: KindArray, arr: arr}, nil
		case '{':
			o := NewObject()
			for dec.More() {
				keyTok, err := dec.Token()
				if err != nil {
					return Null(), fmt.Errorf("value: %w", err)
				}
				key, ok := keyTok.(string)
				if !ok {
					return Null(), fmt.Errorf("value: object key %v is not a string", keyTok)
				}
				item, err := decodeValue(dec)
				if err != nil {
					return Null(), err
				}
				o.Set(key, item)
			}
			if _, err := dec.Token(); err != nil {
				return Null(), fmt.Errorf("value: %w", err)
			}
			return FromObject(o), nil
		}
	}
	return Null(), fmt.Errorf("value: unexpected token %v", tok)
}

func (v Value) writeJSON(sb *strings.Builder) {
	switch v.kind {
	case KindNull:
		sb.WriteString("null")
	case KindBool:
		if v.b {
			sb.WriteString("true")
		} else {
			sb.WriteString("false")
		}
	case KindNumber:
		sb.WriteString(formatNumber(v.n))
	case KindString:
		writeString(sb, v.s)
	case KindArray:
		sb.WriteByte('[')
		for i, item := range v.arr {
			if i > 0 {
				sb.WriteByte(',')
			}
			item.writeJSON(sb)
		}
		sb.WriteByte(']')
	case KindObject:
		sb.WriteByte('{')
		for i, m := range v.obj.members {
			if i > 0 {
				sb.WriteByte(',')
			}
			writeString(sb, m.Key)
			sb.WriteByte(':')
			m.Value.writeJSON(sb)
		}
		sb.WriteByte('}')
	}
}

func writeString(sb *strings.Builder, s string) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	// Encoding a string cannot fail.
	_ = enc.Encode(s)
	sb.Write(bytes.TrimSuffix(buf.Bytes(), []byte("\n")))
}
