package formkit

import (
	"encoding/json"
	"fmt"

	"github.com/google/jsonschema-go/jsonschema"
)

// formSpecSchema is the JSON Schema every form specification document is
// checked against before tree building when Form.ValidateSpec is enabled.
const formSpecSchema = `{
  "$schema": "https://json-schema.org/draft/2020-12/schema",
  "oneOf": [
    { "$ref": "#/$defs/elementArray" },
    {
      "type": "object",
      "properties": {
        "tabs": {
          "type": "array",
          "minItems": 1,
          "items": {
            "type": "object",
            "properties": {
              "caption": { "type": "string" },
              "album_elements": { "$ref": "#/$defs/elementArray" },
              "portrait_elements": { "$ref": "#/$defs/elementArray" }
            },
            "anyOf": [
              { "required": ["album_elements"] },
              { "required": ["portrait_elements"] }
            ]
          }
        }
      },
      "required": ["tabs"]
    },
    {
      "type": "object",
      "properties": {
        "pages": {
          "type": "array",
          "minItems": 1,
          "items": { "$ref": "#/$defs/page" }
        }
      },
      "required": ["pages"]
    }
  ],
  "$defs": {
    "page": {
      "type": "object",
      "properties": {
        "caption": { "type": "string" },
        "elements": { "$ref": "#/$defs/elementArray" }
      },
      "required": ["elements"]
    },
    "elementArray": {
      "type": "array",
      "items": { "$ref": "#/$defs/element" }
    },
    "element": {
      "type": "object",
      "properties": {
        "type": { "type": "string", "minLength": 1 },
        "attributes": { "type": "object" }
      },
      "required": ["type"]
    }
  }
}`

// ValidateFormSpec validates a raw form specification document against the
// embedded schema. A validation failure is a FormError that aborts the whole
// form render.
func ValidateFormSpec(data []byte) error {
	var schema jsonschema.Schema
	if err := json.Unmarshal([]byte(formSpecSchema), &schema); err != nil {
		return NewInternalError("failed to unmarshal form spec schema", err)
	}

	resolved, err := schema.Resolve(&jsonschema.ResolveOptions{})
	if err != nil {
		return NewInternalError("failed to resolve form spec schema", err)
	}

	var doc any
	if err := json.Unmarshal(data, &doc); err != nil {
		return NewFormParseError(fmt.Sprintf("invalid JSON document: %v", err)).WithCause(err)
	}

	if err := resolved.Validate(doc); err != nil {
		return NewFormError(ErrorTypeParse, ErrCodeFormSpecInvalid, err.Error()).WithCause(err)
	}
	return nil
}
