package ingest

import (
	"bytes"
	_ "embed"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/santhosh-tekuri/jsonschema/v5"
	"gopkg.in/yaml.v3"

	"github.com/ethanolivertroy/annexa/internal/catalog"
	"github.com/ethanolivertroy/annexa/internal/model"
)

//go:embed catalog.schema.json
var catalogSchemaJSON string

//go:embed requirements.schema.json
var requirementsSchemaJSON string

var (
	catalogSchema      = mustCompile("catalog.schema.json", catalogSchemaJSON)
	requirementsSchema = mustCompile("requirements.schema.json", requirementsSchemaJSON)
)

func mustCompile(url, schema string) *jsonschema.Schema {
	c := jsonschema.NewCompiler()
	c.Draft = jsonschema.Draft2020
	if err := c.AddResource(url, strings.NewReader(schema)); err != nil {
		panic(fmt.Sprintf("add schema %s: %v", url, err))
	}
	compiled, err := c.Compile(url)
	if err != nil {
		panic(fmt.Sprintf("compile schema %s: %v", url, err))
	}
	return compiled
}

// LoadCatalog reads a JSON or YAML control catalog. The document is either an
// array of controls or an object with a "controls" array. An empty path
// returns the built-in Annex A catalog.
func LoadCatalog(path string) (*catalog.Catalog, error) {
	if path == "" {
		return catalog.Default(), nil
	}
	doc, err := readDocument(path)
	if err != nil {
		return nil, err
	}
	if obj, ok := doc.(map[string]any); ok {
		controls, found := obj["controls"]
		if !found {
			return nil, malformed(path, "/controls", "object catalogs need a controls array")
		}
		doc = controls
	}
	if err := validate(path, catalogSchema, doc); err != nil {
		return nil, err
	}

	var controls []model.Control
	if err := remarshal(doc, &controls); err != nil {
		return nil, malformed(path, "", "%v", err)
	}
	if len(controls) == 0 {
		return nil, malformed(path, "", "catalog has no controls")
	}
	c, err := catalog.New(controls)
	if err != nil {
		return nil, malformed(path, "/id", "%v", err)
	}
	return c, nil
}

// LoadRequirements reads a requirement overlay keyed by control ID and applies
// it to base. An empty path returns base unchanged.
func LoadRequirements(path string, base *catalog.Catalog) (*catalog.Catalog, error) {
	if path == "" {
		return base, nil
	}
	doc, err := readDocument(path)
	if err != nil {
		return nil, err
	}
	if err := validate(path, requirementsSchema, doc); err != nil {
		return nil, err
	}
	var reqs map[string]catalog.Requirement
	if err := remarshal(doc, &reqs); err != nil {
		return nil, malformed(path, "", "%v", err)
	}
	c, err := base.WithRequirements(reqs)
	if err != nil {
		return nil, malformed(path, "", "%v", err)
	}
	return c, nil
}

// readDocument decodes a JSON or YAML file into generic JSON values
func readDocument(path string) (any, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}

	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		var v any
		if err := yaml.Unmarshal(data, &v); err != nil {
			return nil, malformed(path, "", "invalid YAML: %v", err)
		}
		// round-trip through JSON so YAML and JSON validate identically
		data, err = json.Marshal(v)
		if err != nil {
			return nil, malformed(path, "", "%v", err)
		}
	}

	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	var doc any
	if err := dec.Decode(&doc); err != nil {
		return nil, malformed(path, "", "invalid JSON: %v", err)
	}
	return doc, nil
}

// validate reports the first leaf schema violation as a MalformedInputError
func validate(path string, schema *jsonschema.Schema, doc any) error {
	err := schema.Validate(doc)
	if err == nil {
		return nil
	}
	var ve *jsonschema.ValidationError
	if !errors.As(err, &ve) {
		return malformed(path, "", "%v", err)
	}
	for len(ve.Causes) > 0 {
		ve = ve.Causes[0]
	}
	field := ve.InstanceLocation
	if field == "" {
		field = "/"
	}
	return malformed(path, field, "%s", ve.Message)
}

func remarshal(doc any, out any) error {
	data, err := json.Marshal(doc)
	if err != nil {
		return err
	}
	return json.Unmarshal(data, out)
}
