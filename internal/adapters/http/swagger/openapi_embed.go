package swagger

import (
	_ "embed"
	"encoding/json"
	"fmt"
	"sync"

	"github.com/knadh/koanf/parsers/yaml"
)

// OpenAPI is the API description served at /openapi.yaml.
//
//go:embed openapi.yaml
var OpenAPI []byte

// Document returns OpenAPI parsed into a generic tree.
func Document() (map[string]interface{}, error) {
	doc, err := yaml.Parser().Unmarshal(OpenAPI)
	if err != nil {
		return nil, fmt.Errorf("parse openapi.yaml: %w", err)
	}
	return doc, nil
}

// openAPIJSON is the JSON rendition served at /openapi.json, built once.
var openAPIJSON = sync.OnceValues(func() ([]byte, error) { //nolint:gochecknoglobals // lazily built document
	doc, err := Document()
	if err != nil {
		return nil, err
	}
	return json.Marshal(doc)
})
