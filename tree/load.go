package tree

import (
	"bytes"
	"encoding/json"
	"fmt"

	"gopkg.in/yaml.v3"
)

// FromJSON decodes a JSON document into a canonical tree. Numbers decode as
// float64.
func FromJSON(data []byte) (any, error) {
	var doc any
	dec := json.NewDecoder(bytes.NewReader(data))
	if err := dec.Decode(&doc); err != nil {
		return nil, fmt.Errorf("tree: decode json: %w", err)
	}
	return Normalize(doc)
}

// FromYAML decodes a YAML document into a canonical tree. Integers stay int,
// and mapping keys are stringified.
func FromYAML(data []byte) (any, error) {
	var doc any
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("tree: decode yaml: %w", err)
	}
	return Normalize(doc)
}
