package openapi

import (
	"bytes"

	"github.com/go-json-experiment/json/jsontext"

	"github.com/tsgonest/apitypes/internal/errors"
)

// Object is a JSON object that keeps its members in document order.
// Property order, path order and method order all matter for the generated
// output, so every mapping the generator iterates is decoded into an Object
// rather than a Go map.
type Object struct {
	keys   []string
	values map[string]jsontext.Value
}

// UnmarshalJSON decodes a JSON object token by token, recording member
// names in the order they appear. A JSON null decodes to an empty Object.
func (o *Object) UnmarshalJSON(data []byte) error {
	*o = Object{}
	dec := jsontext.NewDecoder(bytes.NewReader(data))

	if dec.PeekKind() == 'n' {
		_, err := dec.ReadToken()
		return err
	}
	tok, err := dec.ReadToken()
	if err != nil {
		return err
	}
	if tok.Kind() != '{' {
		return errors.Newf("expected a JSON object, found %s", kindName(tok.Kind()))
	}

	o.values = make(map[string]jsontext.Value)
	for dec.PeekKind() != '}' {
		name, err := dec.ReadToken()
		if err != nil {
			return err
		}
		// The token is voided by the next read.
		key := name.String()
		val, err := dec.ReadValue()
		if err != nil {
			return err
		}
		o.keys = append(o.keys, key)
		// ReadValue's result is only valid until the next read.
		o.values[key] = jsontext.Value(bytes.Clone(val))
	}
	_, err = dec.ReadToken()
	return err
}

// Len returns the number of members.
func (o *Object) Len() int {
	if o == nil {
		return 0
	}
	return len(o.keys)
}

// Keys returns the member names in document order.
func (o *Object) Keys() []string {
	if o == nil {
		return nil
	}
	return o.keys
}

// Get returns the raw value of the named member.
func (o *Object) Get(name string) (jsontext.Value, bool) {
	if o == nil {
		return nil, false
	}
	v, ok := o.values[name]
	return v, ok
}

func kindName(k jsontext.Kind) string {
	switch k {
	case 'n':
		return "null"
	case 't', 'f':
		return "a boolean"
	case '"':
		return "a string"
	case '0':
		return "a number"
	case '[':
		return "an array"
	case '{':
		return "an object"
	default:
		return "invalid JSON"
	}
}
