package config

import (
	"bytes"
	_ "embed"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/santhosh-tekuri/jsonschema/v5"
)

//go:embed route_schema.json
var routeSchemaJSON []byte

const routeSchemaURL = "route_schema.json"

var routeSchema = sync.OnceValues(func() (*jsonschema.Schema, error) {
	compiler := jsonschema.NewCompiler()
	compiler.Draft = jsonschema.Draft2020
	if err := compiler.AddResource(routeSchemaURL, bytes.NewReader(routeSchemaJSON)); err != nil {
		return nil, fmt.Errorf("failed to add schema resource: %w", err)
	}
	return compiler.Compile(routeSchemaURL)
})

// SchemaError is one schema violation in a route file.
type SchemaError struct {
	// Location is a JSON pointer into the document, e.g. "/routes/0/path".
	Location string
	Message  string
}

func (e SchemaError) Error() string {
	if e.Location == "" {
		return e.Message
	}
	return e.Location + ": " + e.Message
}

// SchemaErrors collects the violations of one document.
type SchemaErrors []SchemaError

func (e SchemaErrors) Error() string {
	msgs := make([]string, len(e))
	for i, se := range e {
		msgs[i] = se.Error()
	}
	return strings.Join(msgs, "; ")
}

// RouteSchema returns the JSON Schema route files are validated against.
func RouteSchema() []byte {
	return append([]byte(nil), routeSchemaJSON...)
}

// ValidateRouteDocument validates a decoded route file. doc must hold
// JSON-compatible values (as produced by encoding/json).
func ValidateRouteDocument(doc any) error {
	schema, err := routeSchema()
	if err != nil {
		return err
	}
	err = schema.Validate(doc)
	if err == nil {
		return nil
	}
	var verr *jsonschema.ValidationError
	if !errors.As(err, &verr) {
		return err
	}
	var out SchemaErrors
	collectSchemaErrors(verr, &out)
	return out
}

func collectSchemaErrors(err *jsonschema.ValidationError, out *SchemaErrors) {
	if len(err.Causes) == 0 {
		*out = append(*out, SchemaError{Location: err.InstanceLocation, Message: err.Message})
		return
	}
	for _, cause := range err.Causes {
		collectSchemaErrors(cause, out)
	}
}

// normalizeJSON round-trips v through encoding/json so YAML-decoded values
// become the types the validator expects.
func normalizeJSON(v any) ([]byte, any, error) {
	raw, err := json.Marshal(v)
	if err != nil {
		return nil, nil, err
	}
	var doc any
	if err := json.Unmarshal(raw, &doc); err != nil {
		return nil, nil, err
	}
	return raw, doc, nil
}
