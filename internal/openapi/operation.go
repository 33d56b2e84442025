package openapi

import (
	"regexp"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/go-json-experiment/json"
	"github.com/go-json-experiment/json/jsontext"

	"github.com/tsgonest/apitypes/internal/errors"
)

// Operation is a single path + method entry of the path table.
type Operation struct {
	Path        string // path template, e.g. "/users/{id}"
	Method      string // lower-case HTTP method
	RawID       string // operationId as written in the document
	ID          string // normalized operationId
	Summary     string
	Description string
	Deprecated  bool

	// Raw payload schemas, before reference resolution. Nil when absent.
	Request  *Schema
	Response *Schema
}

// String returns "METHOD /path".
func (op Operation) String() string {
	return strings.ToUpper(op.Method) + " " + op.Path
}

// EnvelopeProperty is the property a response envelope nests its payload under.
const EnvelopeProperty = "data"

var httpMethods = map[string]bool{
	"get":    true,
	"post":   true,
	"put":    true,
	"delete": true,
	"patch":  true,
}

type rawOperation struct {
	OperationID string `json:"operationId"`
	Summary     string `json:"summary"`
	Description string `json:"description"`
	Deprecated  bool   `json:"deprecated"`
	RequestBody *struct {
		Content map[string]rawMediaType `json:"content"`
	} `json:"requestBody"`
	Responses map[string]struct {
		Content map[string]rawMediaType `json:"content"`
	} `json:"responses"`
}

type rawMediaType struct {
	Schema jsontext.Value `json:"schema"`
}

// Operations walks the path table in document order and returns every
// get/post/put/delete/patch operation that has an operationId. Operations
// without an id are skipped.
func (d *Document) Operations() ([]Operation, error) {
	var ops []Operation
	for _, path := range d.Paths.Keys() {
		rawItem, _ := d.Paths.Get(path)
		var item Object
		if err := json.Unmarshal(rawItem, &item); err != nil {
			return nil, errors.Mark(errors.Wrapf(err, "path item %s", path), errors.ErrMalformedDocument)
		}
		for _, key := range item.Keys() {
			method := strings.ToLower(key)
			if !httpMethods[method] {
				continue
			}
			rawOp, _ := item.Get(key)
			op, err := parseOperation(path, method, rawOp)
			if err != nil {
				return nil, err
			}
			if op.RawID == "" {
				continue
			}
			ops = append(ops, op)
		}
	}
	return ops, nil
}

func parseOperation(path, method string, raw jsontext.Value) (Operation, error) {
	op := Operation{Path: path, Method: method}
	var ro rawOperation
	if err := json.Unmarshal(raw, &ro); err != nil {
		return op, errors.Mark(errors.Wrapf(err, "operation %s", op), errors.ErrMalformedDocument)
	}
	op.RawID = ro.OperationID
	op.ID = NormalizeOperationID(ro.OperationID)
	op.Summary = ro.Summary
	op.Description = ro.Description
	op.Deprecated = ro.Deprecated

	base := "#/paths/" + escapePointer(path) + "/" + method

	if ro.RequestBody != nil {
		if media, ok := ro.RequestBody.Content["application/json"]; ok && len(media.Schema) > 0 {
			s, err := ParseSchema(media.Schema, base+"/requestBody/content/application~1json/schema")
			if err != nil {
				return op, err
			}
			op.Request = s
		}
	}

	if resp, ok := ro.Responses["200"]; ok {
		for _, contentType := range []string{"*/*", "application/json"} {
			media, ok := resp.Content[contentType]
			if !ok || len(media.Schema) == 0 {
				continue
			}
			s, err := ParseSchema(media.Schema, base+"/responses/200/content/"+escapePointer(contentType)+"/schema")
			if err != nil {
				return op, err
			}
			op.Response = s
			break
		}
	}
	return op, nil
}

// Payload is a payload schema together with the reference names that were
// followed to reach it. Refs are still being expanded while the schema is
// resolved, so they take part in cycle detection.
type Payload struct {
	Schema *Schema
	Refs   []string
}

// Payloads resolves the request schema and the effective response payload.
// References are followed to the schema they name; a response object that
// exposes a "data" property is unwrapped to that property's schema.
func (op Operation) Payloads(reg *Registry) (request, response Payload, err error) {
	request.Schema, request.Refs, err = reg.FollowChain(op.Request)
	if err != nil {
		return Payload{}, Payload{}, err
	}
	response.Schema, response.Refs, err = reg.FollowChain(op.Response)
	if err != nil {
		return Payload{}, Payload{}, err
	}
	if response.Schema != nil && response.Schema.Kind == KindObject {
		if data := response.Schema.Property(EnvelopeProperty); data != nil {
			response.Schema = data
		}
	}
	return request, response, nil
}

// dedupSuffix matches the "_<digits>" suffix OpenAPI generators append to repeated ids.
var dedupSuffix = regexp.MustCompile(`_\d+$`)

// NormalizeOperationID drops a trailing "_<digits>" suffix and upper-cases
// the first character: "getUser_2" → "GetUser".
func NormalizeOperationID(raw string) string {
	id := dedupSuffix.ReplaceAllString(raw, "")
	r, size := utf8.DecodeRuneInString(id)
	if size == 0 {
		return id
	}
	return string(unicode.ToUpper(r)) + id[size:]
}
