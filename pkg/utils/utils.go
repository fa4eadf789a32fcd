// Package utils holds small helpers shared across packages.
package utils

import (
	"encoding/json"

	"github.com/invopop/jsonschema"
)

// GetSchemaFromConfig reflects a JSON schema from a config struct. Used by
// the generate command so editors can validate sweep configs.
func GetSchemaFromConfig(config any) (string, error) {
	schema := jsonschema.Reflect(config)

	data, err := json.Marshal(schema)
	if err != nil {
		return "", err
	}

	return string(data), nil
}
