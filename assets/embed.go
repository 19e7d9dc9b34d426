// Package assets bundles the demo catalog and its images into the binary.
package assets

import "embed"

// FS holds catalog.yaml and the pic/ directory.
//
//go:embed catalog.yaml pic/*.png
var FS embed.FS

// CatalogFile is the name of the built-in catalog inside FS.
const CatalogFile = "catalog.yaml"
