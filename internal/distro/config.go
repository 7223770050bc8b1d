package distro

import (
	"fmt"
	"os"
	"strings"

	"github.com/santhosh-tekuri/jsonschema/v5"
	"sigs.k8s.io/yaml"

	"github.com/open-edge-platform/sysroot-bootstrapper/internal/logger"
)

// Overrides is the shape of the optional --config file. It can add suites
// to the built-in table and repoint mirrors per architecture.
type Overrides struct {
	Mirrors map[string]string `json:"mirrors,omitempty"`
	Suites  []Suite           `json:"suites,omitempty"`
}

const overridesSchema = `{
  "$schema": "https://json-schema.org/draft/2020-12/schema",
  "type": "object",
  "additionalProperties": false,
  "properties": {
    "mirrors": {
      "type": "object",
      "additionalProperties": {"type": "string", "format": "uri"}
    },
    "suites": {
      "type": "array",
      "items": {
        "type": "object",
        "additionalProperties": false,
        "required": ["Name", "KeyringURL", "KeyringMember"],
        "properties": {
          "Name": {"type": "string", "minLength": 1},
          "KeyringURL": {"type": "string", "format": "uri"},
          "KeyringMember": {"type": "string", "minLength": 1}
        }
      }
    }
  }
}`

// LoadOverrides reads a YAML overrides file, validates it against the
// embedded schema and merges it into the suite and mirror tables.
func LoadOverrides(path string) error {
	log := logger.Logger()

	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("reading config %s: %w", path, err)
	}

	jsonData, err := yaml.YAMLToJSON(data)
	if err != nil {
		return fmt.Errorf("config %s is not valid YAML: %v", path, err)
	}

	schema, err := jsonschema.CompileString("overrides.schema.json", overridesSchema)
	if err != nil {
		return fmt.Errorf("compiling overrides schema: %w", err)
	}

	var doc interface{}
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return fmt.Errorf("config %s: %v", path, err)
	}
	if err := schema.Validate(doc); err != nil {
		return fmt.Errorf("config %s failed validation: %v", path, err)
	}

	var ov Overrides
	if err := yaml.Unmarshal(jsonData, &ov); err != nil {
		return fmt.Errorf("config %s: %v", path, err)
	}

	for arch, url := range ov.Mirrors {
		RegisterMirror(arch, strings.TrimRight(url, "/"))
		log.Debugf("mirror override: %s -> %s", arch, url)
	}
	for _, s := range ov.Suites {
		RegisterSuite(s)
		log.Debugf("suite override: %s", s.Name)
	}

	log.Infof("loaded distro overrides from %s", path)
	return nil
}
