package profile

import (
	_ "embed"
	"encoding/json"
	"fmt"
	"strings"
	"sync"

	"github.com/santhosh-tekuri/jsonschema/v5"

	"github.com/jackzampolin/tabscan/internal/table"
)

//go:embed schema.json
var schemaJSON string

var compiledSchema = sync.OnceValues(func() (*jsonschema.Schema, error) {
	compiler := jsonschema.NewCompiler()
	if err := compiler.AddResource("profile.json", strings.NewReader(schemaJSON)); err != nil {
		return nil, fmt.Errorf("failed to load profile schema: %w", err)
	}
	schema, err := compiler.Compile("profile.json")
	if err != nil {
		return nil, fmt.Errorf("failed to compile profile schema: %w", err)
	}
	return schema, nil
})

// Parse extracts a Profile from a model response.
//
// The response may carry commentary or a code fence around the object, so
// only the span from the first '{' to the last '}' is decoded. A missing or
// undecodable span yields *ParseError; an object that decodes but breaks the
// schema or the header/column_count invariant yields *SchemaError.
func Parse(text string) (*Profile, error) {
	span, err := ExtractSpan(table.StripFencing(text))
	if err != nil {
		return nil, err
	}

	var doc any
	if err := json.Unmarshal([]byte(span), &doc); err != nil {
		return nil, &ParseError{Reason: "response span is not valid JSON", Err: err}
	}
	if _, ok := doc.(map[string]any); !ok {
		return nil, &ParseError{Reason: "response span is not a JSON object"}
	}

	schema, err := compiledSchema()
	if err != nil {
		return nil, err
	}
	if err := schema.Validate(doc); err != nil {
		return nil, &SchemaError{Reason: "object does not match profile schema", Err: err}
	}

	var p Profile
	if err := json.Unmarshal([]byte(span), &p); err != nil {
		return nil, &SchemaError{Reason: "object fields have unexpected types", Err: err}
	}
	if err := p.Validate(); err != nil {
		return nil, err
	}
	return &p, nil
}

// ExtractSpan returns the text between the first '{' and the last '}'
// inclusive.
func ExtractSpan(text string) (string, error) {
	start := strings.Index(text, "{")
	end := strings.LastIndex(text, "}")
	if start < 0 || end < start {
		return "", &ParseError{Reason: "no JSON object in response"}
	}
	return text[start : end+1], nil
}
