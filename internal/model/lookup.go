package model

import (
	"bytes"
	"encoding/json"
	"errors"
)

// Lookup errors. Their messages are the exact strings sent to clients.
var (
	ErrModelNotPresent = errors.New("config model not present")
	ErrRecordNotFound  = errors.New("record not found")
	ErrBadInput        = errors.New("Bad input")
)

// LookupRequest is a decoded {Type, Data} lookup key. A nil field was absent
// or null in the request body.
type LookupRequest struct {
	Type *string
	Data *string

	// badData is set when Data held a non-string value. It only matters once
	// Type has resolved to a model.
	badData bool
}

// TypeName returns the requested model name, or "" when absent.
func (r LookupRequest) TypeName() string {
	if r.Type == nil {
		return ""
	}
	return *r.Type
}

// DataKey returns the requested record key, or "" when absent.
func (r LookupRequest) DataKey() string {
	if r.Data == nil {
		return ""
	}
	return *r.Data
}

// DataValid reports whether Data was a string, null or absent.
func (r LookupRequest) DataValid() bool {
	return !r.badData
}

// ParseLookup decodes a lookup request body. An empty body is an empty
// request. Malformed JSON, a non-object document, or a Type value that is
// neither a string nor null yields ErrBadInput. A mistyped Data is recorded
// on the request instead so that model resolution still takes precedence.
// Unknown keys are ignored.
func ParseLookup(body []byte) (LookupRequest, error) {
	var req LookupRequest
	body = bytes.TrimSpace(body)
	if len(body) == 0 {
		return req, nil
	}
	if body[0] != '{' {
		return req, ErrBadInput
	}
	// Keys match exactly; struct decoding would fold case.
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(body, &raw); err != nil {
		return LookupRequest{}, ErrBadInput
	}

	var ok bool
	if req.Type, ok = optionalString(raw["Type"]); !ok {
		return LookupRequest{}, ErrBadInput
	}
	req.Data, ok = optionalString(raw["Data"])
	req.badData = !ok
	return req, nil
}

// optionalString decodes a raw JSON value that must be a string or null.
func optionalString(raw json.RawMessage) (*string, bool) {
	if len(raw) == 0 || string(raw) == "null" {
		return nil, true
	}
	var s string
	if err := json.Unmarshal(raw, &s); err != nil {
		return nil, false
	}
	return &s, true
}

// NewLookupBody encodes a lookup request body with both fields set.
func NewLookupBody(typeName, data string) []byte {
	b, _ := json.Marshal(map[string]string{"Type": typeName, "Data": data})
	return b
}
