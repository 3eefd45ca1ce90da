package client

import (
	"bytes"
	"encoding/json"

	"github.com/pkg/errors"
)

// Envelope is the body of every API answer.
type Envelope struct {
	Success bool              `json:"success"`
	Data    json.RawMessage   `json:"data,omitempty"`
	Message string            `json:"message,omitempty"`
	Errors  map[string]string `json:"errors,omitempty"`

	// top-level fields, kept for the legacy shapes
	extra map[string]json.RawMessage
}

var errNoPayload = errors.New("response has no payload")

// shape tags where a payload was found in a response.
type shape int

const (
	shapeMissing   shape = iota
	shapeBareArray       // data: [...], or a bare array body
	shapeKeyed           // data: {key: ...}
	shapeNested          // data: {data: ...}
	shapeTopLevel        // {key: ...} next to data
	shapeData            // data: {...} itself
)

func (s shape) String() string {
	return [...]string{"missing", "bare array", "keyed", "nested", "top level", "data"}[s]
}

func firstByte(raw json.RawMessage) byte {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 {
		return 0
	}
	return raw[0]
}

func isNull(raw json.RawMessage) bool {
	return firstByte(raw) == 0 || string(bytes.TrimSpace(raw)) == "null"
}

// decodeEnvelope parses a response body. A bare array body is taken as the data.
func decodeEnvelope(body []byte) (Envelope, error) {
	var env Envelope
	switch firstByte(body) {
	case 0:
		return env, nil
	case '[':
		env.Success = true
		env.Data = json.RawMessage(body)
		return env, nil
	}

	if err := json.Unmarshal(body, &env); err != nil {
		return Envelope{}, errors.Wrap(err, "decoding envelope")
	}
	if err := json.Unmarshal(body, &env.extra); err != nil {
		return Envelope{}, errors.Wrap(err, "decoding envelope")
	}
	for _, k := range []string{"success", "data", "message", "errors"} {
		delete(env.extra, k)
	}
	return env, nil
}

func (e Envelope) dataObject() map[string]json.RawMessage {
	if firstByte(e.Data) != '{' {
		return nil
	}
	var obj map[string]json.RawMessage
	if err := json.Unmarshal(e.Data, &obj); err != nil {
		return nil
	}
	return obj
}

// locateList finds a list stored under key in any of its known shapes.
func (e Envelope) locateList(key string) (shape, json.RawMessage) {
	if firstByte(e.Data) == '[' {
		return shapeBareArray, e.Data
	}
	obj := e.dataObject()
	if raw, ok := obj[key]; ok && firstByte(raw) == '[' {
		return shapeKeyed, raw
	}
	if raw, ok := obj["data"]; ok && firstByte(raw) == '[' {
		return shapeNested, raw
	}
	if raw, ok := e.extra[key]; ok && firstByte(raw) == '[' {
		return shapeTopLevel, raw
	}
	return shapeMissing, nil
}

// locateObject finds an object stored under key, or takes the data object itself.
// A key holding anything but an object, null included, means no payload.
func (e Envelope) locateObject(key string) (shape, json.RawMessage) {
	obj := e.dataObject()
	if raw, ok := obj[key]; ok {
		if firstByte(raw) != '{' {
			return shapeMissing, nil
		}
		return shapeKeyed, raw
	}
	if raw, ok := obj["data"]; ok && firstByte(raw) == '{' {
		return shapeNested, raw
	}
	if raw, ok := e.extra[key]; ok && firstByte(raw) == '{' {
		return shapeTopLevel, raw
	}
	if obj != nil {
		return shapeData, e.Data
	}
	return shapeMissing, nil
}

// List decodes the list stored under key into v. A response without the list yields an empty one.
func (e Envelope) List(key string, v interface{}) error {
	s, raw := e.locateList(key)
	if s == shapeMissing {
		raw = json.RawMessage("[]")
	}
	return errors.Wrapf(json.Unmarshal(raw, v), "decoding %s (%s)", key, s)
}

// Object decodes the object stored under key into v.
func (e Envelope) Object(key string, v interface{}) error {
	s, raw := e.locateObject(key)
	if s == shapeMissing || isNull(raw) {
		return errors.Wrap(errNoPayload, key)
	}
	return errors.Wrapf(json.Unmarshal(raw, v), "decoding %s (%s)", key, s)
}
