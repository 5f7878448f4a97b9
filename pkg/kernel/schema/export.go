package schema

import (
	"encoding/json"
	"fmt"

	"github.com/invopop/jsonschema"
)

// SchemaID is the $id of the configuration JSON Schema.
const SchemaID = "https://github.com/ormasoftchile/script-launcher/schemas/config-v1.json"

// GenerateJSONSchema produces a JSON Schema Draft 2020-12 document from the
// Config Go types. Unknown keys are tolerated so older documents that carry
// extra bookkeeping fields keep loading.
func GenerateJSONSchema() ([]byte, error) {
	r := &jsonschema.Reflector{
		AllowAdditionalProperties: true,
	}
	s := r.Reflect(&Config{})
	s.ID = SchemaID
	s.Title = "script-launcher configuration"
	s.Description = "Project metadata and the ordered list of shell steps to run"

	data, err := json.MarshalIndent(s, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("marshal config schema: %w", err)
	}
	return data, nil
}
