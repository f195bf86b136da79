package config

import (
	"bytes"
	_ "embed"
	"encoding/json"
	"fmt"
	"sync"

	"github.com/santhosh-tekuri/jsonschema/v5"
	"gopkg.in/yaml.v3"
)

//go:embed schema.json
var schemaJSON []byte

var compiledSchema = sync.OnceValues(func() (*jsonschema.Schema, error) {
	compiler := jsonschema.NewCompiler()
	if err := compiler.AddResource("config.schema.json", bytes.NewReader(schemaJSON)); err != nil {
		return nil, fmt.Errorf("add schema: %w", err)
	}
	return compiler.Compile("config.schema.json")
})

// validateSchema checks the raw YAML document against the embedded JSON
// schema. YAML is converted to its JSON data model first.
func validateSchema(data []byte) error {
	schema, err := compiledSchema()
	if err != nil {
		return &ConfigError{Reason: "compile schema", Err: err}
	}

	var doc any
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return &ConfigError{Reason: "failed to parse YAML", Err: err}
	}
	if doc == nil {
		return &ConfigError{Reason: "document is empty"}
	}

	b, err := json.Marshal(doc)
	if err != nil {
		return &ConfigError{Reason: "document is not representable as JSON (non-string keys?)", Err: err}
	}
	var v any
	if err := json.Unmarshal(b, &v); err != nil {
		return &ConfigError{Reason: "unmarshal document", Err: err}
	}

	if err := schema.Validate(v); err != nil {
		return &ConfigError{Reason: "document does not match schema", Err: err}
	}
	return nil
}
