// Package bom turns uploaded bill-of-materials documents into the
// structures the importer reconciles.
package bom

import (
	"github.com/tansive/tansive-inventory/internal/inventorysrv/db/models"
)

type Format string

const (
	FormatCycloneDX Format = "CycloneDX"
	FormatSPDX      Format = "SPDX"
)

// Document is a parsed BOM. Components and Services are forests: child
// nodes hang off their parent's Children.
type Document struct {
	Format       Format
	SpecVersion  string
	SerialNumber string // without the urn:uuid: prefix
	Version      int

	Metadata     Metadata
	Components   []*models.Component
	Services     []*models.Service
	Dependencies []Dependency
}

// Metadata holds the document-level fields applied to the project. JSON
// typed fields hold serialized values, empty when absent.
type Metadata struct {
	Present bool

	Authors  string // JSON
	Supplier string // JSON

	// From the metadata component, the project itself.
	BomRef             string
	Author             string
	Publisher          string
	Manufacturer       string // JSON
	ComponentSupplier  string // JSON
	Classifier         string
	Purl               string
	SwidTagID          string
	ExternalReferences string // JSON
	HasComponent       bool
}

// Dependency is one entry of the document's dependency graph.
type Dependency struct {
	Ref       string
	DependsOn []string
}

// FormatLabel is the human readable format stored with the project, such
// as "CycloneDX 1.5".
func (d *Document) FormatLabel() string {
	if d.SpecVersion == "" {
		return string(d.Format)
	}
	return string(d.Format) + " " + d.SpecVersion
}
