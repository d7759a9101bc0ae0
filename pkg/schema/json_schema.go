// Package schema renders Go settings structs as JSON schema documents.
package schema

import (
	"encoding/json"

	"github.com/invopop/jsonschema"
)

// ToJSONSchema converts a struct to a JSON schema. Field names follow the
// yaml tags so the schema matches the settings file format.
func ToJSONSchema[T any](t T) (string, error) {
	r := new(jsonschema.Reflector)
	r.DoNotReference = true
	r.FieldNameTag = "yaml"
	schema := r.Reflect(t)

	jsonSchemaBytes, err := json.Marshal(schema)
	if err != nil {
		return "", err
	}

	return string(jsonSchemaBytes), nil
}
