package remote

import (
	"bytes"
	"encoding/json"
	"errors"
)

// ErrUnrecognizedPayload is returned when a list payload is neither an array nor a known envelope.
var ErrUnrecognizedPayload = errors.New("unrecognized list payload")

// Shape tags the top-level form of a JSON payload.
type Shape int

const (
	ShapeEmpty Shape = iota
	ShapeArray
	ShapeObject
	ShapeInvalid
)

// Classify reports the top-level shape of raw. Blank input and null are ShapeEmpty.
func Classify(raw []byte) Shape {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || bytes.Equal(raw, []byte("null")) {
		return ShapeEmpty
	}
	switch raw[0] {
	case '[':
		return ShapeArray
	case '{':
		return ShapeObject
	default:
		return ShapeInvalid
	}
}

// envelopeKeys lists the wrapper fields tried after the resource-specific key.
var envelopeKeys = []string{"data", "items", "results"}

const maxEnvelopeDepth = 2

// DecodeList decodes raw into out (a pointer to a slice) from either a bare array or an
// object wrapping it under key, "data", "items" or "results". Wrappers may nest once.
// Empty input leaves out untouched.
func DecodeList(raw []byte, out any, key string) error {
	return decodeList(raw, out, key, 0)
}

func decodeList(raw []byte, out any, key string, depth int) error {
	switch Classify(raw) {
	case ShapeEmpty:
		return nil
	case ShapeArray:
		return json.Unmarshal(raw, out)
	case ShapeObject:
		if depth >= maxEnvelopeDepth {
			return ErrUnrecognizedPayload
		}
		var env map[string]json.RawMessage
		if err := json.Unmarshal(raw, &env); err != nil {
			return err
		}
		keys := envelopeKeys
		if key != "" {
			keys = append([]string{key}, envelopeKeys...)
		}
		for _, k := range keys {
			if v, ok := env[k]; ok {
				return decodeList(v, out, key, depth+1)
			}
		}
		return ErrUnrecognizedPayload
	default:
		return ErrUnrecognizedPayload
	}
}
