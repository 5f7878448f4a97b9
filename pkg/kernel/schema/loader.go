package schema

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Format is the serialization of a configuration document.
type Format string

const (
	FormatJSON Format = "json"
	FormatYAML Format = "yaml"
)

// FormatForPath picks the document format from the file extension.
// Anything that is not .yaml or .yml is read as JSON.
func FormatForPath(path string) Format {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return FormatYAML
	default:
		return FormatJSON
	}
}

// LoadFile reads, validates and decodes a configuration file.
// Every failure is reported as a *ConfigError carrying the path.
func LoadFile(path string) (*Config, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, &ConfigError{Path: path, Err: fmt.Errorf("open config: %w", err)}
	}
	defer f.Close()

	cfg, err := Load(f, FormatForPath(path))
	if err != nil {
		return nil, withPath(err, path)
	}
	return cfg, nil
}

// Load reads a configuration document from r. The raw document is checked
// against the reflected JSON Schema before it is decoded into a Config, so a
// missing label or cmd never yields a partially loaded configuration.
func Load(r io.Reader, format Format) (*Config, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, &ConfigError{Err: fmt.Errorf("read config: %w", err)}
	}

	doc, err := decodeDocument(data, format)
	if err != nil {
		return nil, &ConfigError{Err: err}
	}

	if errs := ValidateDocument(doc); len(errs) > 0 {
		return nil, &ConfigError{Errors: errs}
	}

	// Round-trip through JSON so both formats share one decoding path.
	normalized, err := json.Marshal(doc)
	if err != nil {
		return nil, &ConfigError{Err: fmt.Errorf("normalize document: %w", err)}
	}
	var cfg Config
	if err := json.Unmarshal(normalized, &cfg); err != nil {
		return nil, &ConfigError{Err: fmt.Errorf("decode config: %w", err)}
	}
	return &cfg, nil
}

// decodeDocument parses data into a generic JSON-compatible value.
func decodeDocument(data []byte, format Format) (any, error) {
	var doc any
	switch format {
	case FormatYAML:
		if err := yaml.Unmarshal(data, &doc); err != nil {
			return nil, fmt.Errorf("parse yaml: %w", err)
		}
		return jsonCompatible(doc), nil
	default:
		dec := json.NewDecoder(bytes.NewReader(data))
		dec.UseNumber()
		if err := dec.Decode(&doc); err != nil {
			return nil, fmt.Errorf("parse json: %w", err)
		}
		if dec.More() {
			return nil, fmt.Errorf("parse json: unexpected data after document")
		}
		return doc, nil
	}
}

// jsonCompatible converts yaml.v3 output (which can contain non-string map
// keys) into values the JSON Schema validator accepts.
func jsonCompatible(v any) any {
	switch t := v.(type) {
	case map[string]any:
		for k, val := range t {
			t[k] = jsonCompatible(val)
		}
		return t
	case map[any]any:
		m := make(map[string]any, len(t))
		for k, val := range t {
			m[fmt.Sprint(k)] = jsonCompatible(val)
		}
		return m
	case []any:
		for i, val := range t {
			t[i] = jsonCompatible(val)
		}
		return t
	case int:
		return json.Number(fmt.Sprint(t))
	case int64:
		return json.Number(fmt.Sprint(t))
	case uint64:
		return json.Number(fmt.Sprint(t))
	case float64:
		return json.Number(fmt.Sprint(t))
	case time.Time:
		return t.Format(time.RFC3339Nano)
	default:
		return v
	}
}
