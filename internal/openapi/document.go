// Package openapi reads OpenAPI 3 documents into the model the type
// generator works on: an order-preserving view of the path table, a
// registry of named schemas and the operations that reference them.
package openapi

import (
	"bytes"
	"path"
	"strings"

	"github.com/go-json-experiment/json"
	"github.com/goccy/go-yaml"

	"github.com/tsgonest/apitypes/internal/errors"
)

// Document is a parsed OpenAPI document.
type Document struct {
	OpenAPI  string // "openapi" version field, e.g. "3.0.3"
	Title    string
	Version  string
	Paths    Object
	Registry *Registry
}

type rawDocument struct {
	OpenAPI looseString `json:"openapi"`
	Info    struct {
		Title   string      `json:"title"`
		Version looseString `json:"version"`
	} `json:"info"`
	Paths      Object `json:"paths"`
	Components *struct {
		Schemas *Object `json:"schemas"`
	} `json:"components"`
}

// Parse parses a JSON-encoded OpenAPI document and builds its schema
// registry.
func Parse(data []byte) (*Document, error) {
	var raw rawDocument
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, errors.Mark(errors.Wrap(err, "parsing OpenAPI JSON"), errors.ErrMalformedDocument)
	}

	var definitions *Object
	if raw.Components != nil {
		definitions = raw.Components.Schemas
	}
	registry, err := NewRegistry(definitions)
	if err != nil {
		return nil, err
	}

	return &Document{
		OpenAPI:  string(raw.OpenAPI),
		Title:    raw.Info.Title,
		Version:  string(raw.Info.Version),
		Paths:    raw.Paths,
		Registry: registry,
	}, nil
}

// ParseYAML converts a YAML document to JSON, keeping mapping order, and
// parses the result.
func ParseYAML(data []byte) (*Document, error) {
	converted, err := yaml.YAMLToJSON(data)
	if err != nil {
		return nil, errors.Mark(errors.Wrap(err, "parsing OpenAPI YAML"), errors.ErrMalformedDocument)
	}
	return Parse(converted)
}

// ParseSource parses data read from source, choosing the decoder from the
// source's extension. Anything not ending in .yaml or .yml is treated as JSON.
func ParseSource(source string, data []byte) (*Document, error) {
	if IsYAML(source) {
		return ParseYAML(data)
	}
	return Parse(data)
}

// looseString accepts a JSON string or number. YAML documents written as
// "version: 1.0" arrive here as numbers.
type looseString string

func (s *looseString) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) > 0 && (data[0] == '-' || (data[0] >= '0' && data[0] <= '9')) {
		*s = looseString(data)
		return nil
	}
	var str string
	if err := json.Unmarshal(data, &str); err != nil {
		return err
	}
	*s = looseString(str)
	return nil
}

// IsYAML reports whether source names a YAML document. Query strings and
// fragments of URLs are ignored.
func IsYAML(source string) bool {
	if i := strings.IndexAny(source, "?#"); i >= 0 {
		source = source[:i]
	}
	switch strings.ToLower(path.Ext(source)) {
	case ".yaml", ".yml":
		return true
	}
	return false
}
