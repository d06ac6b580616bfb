// Package data embeds the storefront dataset
package data

import _ "embed"

// Catalog is the bundled dataset: categories, products, branches, users and seed orders
//
//go:embed catalog.json
var Catalog []byte
