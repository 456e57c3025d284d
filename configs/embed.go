// Package configs embeds the default vendor mappings shipped with the binary.
package configs

import "embed"

// Vendors holds vendors/*.yaml.
//
//go:embed vendors/*.yaml
var Vendors embed.FS

// VendorsDir is the directory inside Vendors that holds the mapping files.
const VendorsDir = "vendors"
