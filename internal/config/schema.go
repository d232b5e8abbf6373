package config

import (
	"encoding/json"

	"github.com/invopop/jsonschema"

	"github.com/sentra-lab/sentra-trading/pkg/errors"
)

// Schema returns the JSON schema describing the configuration surface,
// for editor integration and config linting.
func Schema() (string, error) {
	reflector := jsonschema.Reflector{
		RequiredFromJSONSchemaTags: false,
		ExpandedStruct:             true,
		AllowAdditionalProperties:  false,
	}

	schema := reflector.Reflect(&Config{})
	schema.Title = "sentra-trading-config"
	schema.Description = "Configuration schema for the sentra trading engine"
	schema.Version = "http://json-schema.org/draft-07/schema#"

	data, err := json.MarshalIndent(schema, "", "  ")
	if err != nil {
		return "", errors.Wrap(errors.ErrCodeInvalidConfiguration, "failed to marshal config schema", err)
	}

	return string(data), nil
}
