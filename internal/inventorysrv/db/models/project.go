package models

import (
	"time"

	"github.com/tansive/tansive-inventory/internal/common/uuid"
)

// Project is the unit a BOM is uploaded against. Name, version, group and
// description are owned by the user and never written by an import.
type Project struct {
	ID                  int64     `json:"-"`
	UUID                uuid.UUID `json:"uuid"`
	Name                string    `json:"name"`
	Version             string    `json:"version,omitempty"`
	Group               string    `json:"group,omitempty"`
	Description         string    `json:"description,omitempty"`
	Author              string    `json:"author,omitempty"`
	Publisher           string    `json:"publisher,omitempty"`
	Manufacturer        string    `json:"manufacturer,omitempty"` // JSON
	Supplier            string    `json:"supplier,omitempty"`     // JSON
	Classifier          string    `json:"classifier,omitempty"`
	Purl                string    `json:"purl,omitempty"`
	SwidTagID           string    `json:"swidTagId,omitempty"`
	ExternalReferences  string    `json:"externalReferences,omitempty"` // JSON
	DirectDependencies  string    `json:"directDependencies,omitempty"` // JSON
	LastBomImport       time.Time `json:"lastBomImport,omitempty"`
	LastBomImportFormat string    `json:"lastBomImportFormat,omitempty"`

	BomRef string `json:"-"`
}

// ProjectMetadata carries the document-level authors and supplier of the
// most recent import.
type ProjectMetadata struct {
	ID        int64  `json:"-"`
	ProjectID int64  `json:"-"`
	Authors   string `json:"authors,omitempty"`  // JSON
	Supplier  string `json:"supplier,omitempty"` // JSON
}

// Bom is the audit record appended for every successful import.
type Bom struct {
	ID           int64     `json:"-"`
	UUID         uuid.UUID `json:"uuid"`
	ProjectID    int64     `json:"-"`
	Format       string    `json:"format"`
	SpecVersion  string    `json:"specVersion"`
	SerialNumber string    `json:"serialNumber,omitempty"`
	BomVersion   int       `json:"version"`
	Imported     time.Time `json:"imported"`
}

type License struct {
	ID        int64     `json:"-"`
	UUID      uuid.UUID `json:"uuid"`
	LicenseID string    `json:"licenseId,omitempty"`
	Name      string    `json:"name"`
	Custom    bool      `json:"custom"`
}
