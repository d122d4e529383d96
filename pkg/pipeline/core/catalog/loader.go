package catalog

import (
	"io"

	"gopkg.in/yaml.v3"

	"github.com/tenderworks/pipeline/pkg/pipeline/support/util/exception"
	logger "github.com/tenderworks/pipeline/pkg/pipeline/support/util/logger"
)

const moduleName = "catalog"

// CatalogBytes holds the raw content of a catalog YAML document, typically
// embedded into the binary and supplied via Fx.
type CatalogBytes []byte

// Parse unmarshals a catalog YAML document and validates it.
func Parse(data []byte) (*Catalog, error) {
	var def Definition
	if err := yaml.Unmarshal(data, &def); err != nil {
		return nil, exception.NewPipelineError(moduleName, "failed to unmarshal step catalog", err, false)
	}

	cat, err := New(def)
	if err != nil {
		return nil, exception.NewPipelineError(moduleName, "step catalog validation failed", err, false)
	}

	logger.Infof("Step catalog loaded: %d steps, total weight %.1f, stop_on_error=%t",
		cat.Len(), cat.TotalWeight(), cat.Settings().StopOnError)
	return cat, nil
}

// Load reads a catalog YAML document from r and parses it.
func Load(r io.Reader) (*Catalog, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, exception.NewPipelineError(moduleName, "failed to read step catalog", err, false)
	}
	return Parse(data)
}

// NewCatalogProvider is an Fx provider that builds the Catalog from embedded bytes.
func NewCatalogProvider(data CatalogBytes) (*Catalog, error) {
	return Parse(data)
}
