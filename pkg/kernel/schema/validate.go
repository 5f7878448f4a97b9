package schema

import (
	"bytes"
	"errors"
	"fmt"
	"strings"
	"sync"

	sjsonschema "github.com/santhosh-tekuri/jsonschema/v6"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

// ValidationError is a single problem found in a configuration document.
type ValidationError struct {
	Path    string `json:"path"` // JSON-pointer-like location, e.g. "steps/1/cmd"
	Message string `json:"message"`
}

func (e *ValidationError) Error() string {
	if e.Path == "" {
		return e.Message
	}
	return fmt.Sprintf("%s: %s", e.Path, e.Message)
}

// ConfigError reports a configuration document that could not be parsed or
// is incomplete. It is fatal: no step runs once it is returned.
type ConfigError struct {
	Path   string             // offending file, empty when read from a stream
	Errors []*ValidationError // schema violations, if any
	Err    error              // underlying read/parse error, if any
}

func (e *ConfigError) Error() string {
	var b strings.Builder
	b.WriteString("invalid configuration")
	if e.Path != "" {
		fmt.Fprintf(&b, " in %s", e.Path)
	}
	if e.Err != nil {
		fmt.Fprintf(&b, ": %v", e.Err)
	}
	for _, ve := range e.Errors {
		fmt.Fprintf(&b, "\n  - %s", ve.Error())
	}
	return b.String()
}

func (e *ConfigError) Unwrap() error { return e.Err }

// withPath attaches a file path to a ConfigError produced by Load.
func withPath(err error, path string) error {
	var ce *ConfigError
	if errors.As(err, &ce) {
		ce.Path = path
		return ce
	}
	return &ConfigError{Path: path, Err: err}
}

var (
	compileOnce    sync.Once
	compiledSchema *sjsonschema.Schema
	compileErr     error
)

// configSchema compiles the reflected schema once per process.
func configSchema() (*sjsonschema.Schema, error) {
	compileOnce.Do(func() {
		data, err := GenerateJSONSchema()
		if err != nil {
			compileErr = err
			return
		}
		doc, err := sjsonschema.UnmarshalJSON(bytes.NewReader(data))
		if err != nil {
			compileErr = fmt.Errorf("unmarshal schema: %w", err)
			return
		}
		c := sjsonschema.NewCompiler()
		if err := c.AddResource("config-v1.json", doc); err != nil {
			compileErr = fmt.Errorf("add schema resource: %w", err)
			return
		}
		compiledSchema, compileErr = c.Compile("config-v1.json")
		if compileErr != nil {
			compileErr = fmt.Errorf("compile schema: %w", compileErr)
		}
	})
	return compiledSchema, compileErr
}

var printer = message.NewPrinter(language.English)

// ValidateDocument checks a decoded JSON value against the configuration
// schema. An empty result means the document is valid.
func ValidateDocument(doc any) []*ValidationError {
	sch, err := configSchema()
	if err != nil {
		return []*ValidationError{{Message: err.Error()}}
	}

	err = sch.Validate(doc)
	if err == nil {
		return nil
	}
	var ve *sjsonschema.ValidationError
	if !errors.As(err, &ve) {
		return []*ValidationError{{Message: err.Error()}}
	}

	var errs []*ValidationError
	for _, cause := range flattenValidationErrors(ve) {
		errs = append(errs, &ValidationError{
			Path:    strings.Join(cause.InstanceLocation, "/"),
			Message: cause.ErrorKind.LocalizedString(printer),
		})
	}
	return errs
}

// flattenValidationErrors recursively collects all leaf validation errors.
func flattenValidationErrors(ve *sjsonschema.ValidationError) []*sjsonschema.ValidationError {
	if len(ve.Causes) == 0 {
		return []*sjsonschema.ValidationError{ve}
	}
	var flat []*sjsonschema.ValidationError
	for _, cause := range ve.Causes {
		flat = append(flat, flattenValidationErrors(cause)...)
	}
	return flat
}
