// Package schema defines the script-launcher configuration document and its
// loading and validation pipeline.
package schema

// DefaultConfigFile is the configuration file used when none is named.
const DefaultConfigFile = "script-launcher.json"

// ---------------------------------------------------------------------------
// Config
// ---------------------------------------------------------------------------

// Config is the top-level configuration document.
type Config struct {
	ProjectName string    `yaml:"project_name" json:"project_name" jsonschema:"title=Project name"`
	Description string    `yaml:"description"  json:"description"  jsonschema:"title=Project description"`
	Steps       []StepDef `yaml:"steps"        json:"steps"        jsonschema:"title=Ordered steps"`
}

// ---------------------------------------------------------------------------
// Step
// ---------------------------------------------------------------------------

// StepDef is one step as declared in the document. Order in Config.Steps is
// the execution order.
type StepDef struct {
	Label string `yaml:"label" json:"label" jsonschema:"minLength=1,description=Human-readable description shown for the step"`
	Cmd   string `yaml:"cmd"   json:"cmd"   jsonschema:"minLength=1,description=Command line passed to the shell"`
}
