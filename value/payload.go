package value

import (
	"errors"
	"fmt"
)

// ErrMalformedPayload reports a native-call payload that is not of the form
// {args: [...]}. The glue always produces that form, so seeing anything else
// means the bridge itself is broken.
var ErrMalformedPayload = errors.New("value: malformed native-call payload")

// ArgsKey is the payload property holding the ordered arguments.
const ArgsKey = "args"

// Payload wraps arguments the way the generated glue does.
func Payload(args ...Value) Value {
	o := NewObject()
	o.Set(ArgsKey, Array(args...))
	return FromObject(o)
}

// Args extracts the ordered argument list from a native-call payload.
func Args(payload Value) ([]Value, error) {
	o, ok := payload.AsObject()
	if !ok {
		return nil, fmt.Errorf("%w: got %s, want object", ErrMalformedPayload, payload.Kind())
	}
	raw, ok := o.Get(ArgsKey)
	if !ok {
		return nil, fmt.Errorf("%w: missing %q", ErrMalformedPayload, ArgsKey)
	}
	args, ok := raw.AsArray()
	if !ok {
		return nil, fmt.Errorf("%w: %q is %s, want array", ErrMalformedPayload, ArgsKey, raw.Kind())
	}
	out := make([]Value, len(args))
	copy(out, args)
	return out, nil
}
