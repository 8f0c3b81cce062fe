// Package api holds the request and response bodies exchanged between the
// inventory server and its clients.
package api

import (
	"encoding/json"
	"net/http"
	"time"
)

// RawJSON is a JSON document stored verbatim by the server.
type RawJSON = json.RawMessage

type CreateProjectReq struct {
	Name        string `json:"name" validate:"required,max=255"`
	Version     string `json:"version,omitempty" validate:"max=255"`
	Group       string `json:"group,omitempty" validate:"max=255"`
	Description string `json:"description,omitempty"`
}

func (r CreateProjectReq) RequestMethod() (string, string) {
	return http.MethodPost, "/v1/projects"
}

type CreateProjectRsp struct {
	UUID string `json:"uuid"`
}

type Project struct {
	UUID                string     `json:"uuid"`
	Name                string     `json:"name"`
	Version             string     `json:"version,omitempty"`
	Group               string     `json:"group,omitempty"`
	Description         string     `json:"description,omitempty"`
	Author              string     `json:"author,omitempty"`
	Publisher           string     `json:"publisher,omitempty"`
	Classifier          string     `json:"classifier,omitempty"`
	Purl                string     `json:"purl,omitempty"`
	SwidTagID           string     `json:"swidTagId,omitempty"`
	Manufacturer        RawJSON    `json:"manufacturer,omitempty"`
	Supplier            RawJSON    `json:"supplier,omitempty"`
	ExternalReferences  RawJSON    `json:"externalReferences,omitempty"`
	DirectDependencies  RawJSON    `json:"directDependencies,omitempty"`
	LastBomImport       *time.Time `json:"lastBomImport,omitempty"`
	LastBomImportFormat string     `json:"lastBomImportFormat,omitempty"`
}

type Component struct {
	UUID               string            `json:"uuid"`
	Group              string            `json:"group,omitempty"`
	Name               string            `json:"name"`
	Version            string            `json:"version,omitempty"`
	Classifier         string            `json:"classifier,omitempty"`
	Purl               string            `json:"purl,omitempty"`
	Cpe                string            `json:"cpe,omitempty"`
	SwidTagID          string            `json:"swidTagId,omitempty"`
	Hashes             map[string]string `json:"hashes,omitempty"`
	ResolvedLicense    string            `json:"resolvedLicense,omitempty"`
	License            string            `json:"license,omitempty"`
	LicenseURL         string            `json:"licenseUrl,omitempty"`
	Internal           bool              `json:"internal"`
	DirectDependencies RawJSON           `json:"directDependencies,omitempty"`
}

type Service struct {
	UUID                 string  `json:"uuid"`
	Group                string  `json:"group,omitempty"`
	Name                 string  `json:"name"`
	Version              string  `json:"version,omitempty"`
	Endpoints            RawJSON `json:"endpoints,omitempty"`
	Authenticated        bool    `json:"authenticated"`
	CrossesTrustBoundary bool    `json:"crossesTrustBoundary"`
	DirectDependencies   RawJSON `json:"directDependencies,omitempty"`
}

type Bom struct {
	UUID         string    `json:"uuid"`
	Format       string    `json:"format"`
	SpecVersion  string    `json:"specVersion"`
	SerialNumber string    `json:"serialNumber,omitempty"`
	Version      int       `json:"version"`
	Imported     time.Time `json:"imported"`
}

type CreateLicenseReq struct {
	LicenseID string `json:"licenseId,omitempty" validate:"required_without=Custom,max=255"`
	Name      string `json:"name" validate:"required,max=255"`
	Custom    bool   `json:"custom,omitempty"`
}

func (r CreateLicenseReq) RequestMethod() (string, string) {
	return http.MethodPost, "/v1/licenses"
}

type CreateLicenseRsp struct {
	UUID string `json:"uuid"`
}

// UploadBomReq carries a base64 encoded document. The server also accepts
// the raw document as the request body with the project in the query.
type UploadBomReq struct {
	Project string `json:"project" validate:"required,uuid"`
	Bom     string `json:"bom" validate:"required,base64"`
}

func (r UploadBomReq) RequestMethod() (string, string) {
	return http.MethodPost, "/v1/bom"
}

type UploadBomRsp struct {
	Token string `json:"token"`
}

type ImportStats struct {
	ComponentsCreated   int `json:"componentsCreated"`
	ComponentsUpdated   int `json:"componentsUpdated"`
	ComponentsUnchanged int `json:"componentsUnchanged"`
	ComponentsDeleted   int `json:"componentsDeleted"`
	ServicesCreated     int `json:"servicesCreated"`
	ServicesUpdated     int `json:"servicesUpdated"`
	ServicesUnchanged   int `json:"servicesUnchanged"`
	ServicesDeleted     int `json:"servicesDeleted"`
}

type ImportResult struct {
	Format      string      `json:"format"`
	SpecVersion string      `json:"specVersion"`
	Stats       ImportStats `json:"stats"`
	Events      int         `json:"events"`
}

type BomTokenStatusRsp struct {
	Token      string        `json:"token"`
	Project    string        `json:"project"`
	Processing bool          `json:"processing"`
	State      string        `json:"state"`
	Error      string        `json:"error,omitempty"`
	Result     *ImportResult `json:"result,omitempty"`
	Submitted  time.Time     `json:"submitted"`
	Finished   *time.Time    `json:"finished,omitempty"`
}

type HealthRsp struct {
	Status   string `json:"status"`
	Database string `json:"database"`
}
