package models

import (
	"github.com/tansive/tansive-inventory/internal/common/uuid"
)

type Hashes struct {
	MD5        string `json:"md5,omitempty"`
	SHA1       string `json:"sha1,omitempty"`
	SHA256     string `json:"sha256,omitempty"`
	SHA384     string `json:"sha384,omitempty"`
	SHA512     string `json:"sha512,omitempty"`
	SHA3_256   string `json:"sha3_256,omitempty"`
	SHA3_384   string `json:"sha3_384,omitempty"`
	SHA3_512   string `json:"sha3_512,omitempty"`
	BLAKE2b256 string `json:"blake2b_256,omitempty"`
	BLAKE2b384 string `json:"blake2b_384,omitempty"`
	BLAKE2b512 string `json:"blake2b_512,omitempty"`
	BLAKE3     string `json:"blake3,omitempty"`
}

// LicenseCandidate is a license reference taken from a document, before it
// is resolved against the license catalog.
type LicenseCandidate struct {
	ID   string
	Name string
	URL  string
}

type Component struct {
	ID                 int64     `json:"-"`
	UUID               uuid.UUID `json:"uuid"`
	ProjectID          int64     `json:"-"`
	Group              string    `json:"group,omitempty"`
	Name               string    `json:"name"`
	Version            string    `json:"version,omitempty"`
	Description        string    `json:"description,omitempty"`
	Copyright          string    `json:"copyright,omitempty"`
	Author             string    `json:"author,omitempty"`
	Publisher          string    `json:"publisher,omitempty"`
	Supplier           string    `json:"supplier,omitempty"` // JSON
	Classifier         string    `json:"classifier,omitempty"`
	Purl               string    `json:"purl,omitempty"`
	PurlCoordinates    string    `json:"purlCoordinates,omitempty"`
	Cpe                string    `json:"cpe,omitempty"`
	SwidTagID          string    `json:"swidTagId,omitempty"`
	Hashes             Hashes    `json:"hashes"`
	LicenseID          int64     `json:"-"`
	ResolvedLicense    string    `json:"resolvedLicense,omitempty"`
	License            string    `json:"license,omitempty"`
	LicenseURL         string    `json:"licenseUrl,omitempty"`
	Internal           bool      `json:"internal"`
	ExternalReferences string    `json:"externalReferences,omitempty"` // JSON
	DirectDependencies string    `json:"directDependencies,omitempty"` // JSON

	// Set while importing; not persisted.
	BomRef            string             `json:"-"`
	Children          []*Component       `json:"-"`
	LicenseCandidates []LicenseCandidate `json:"-"`
	New               bool               `json:"-"`
}

func (c *Component) GetBomRef() string                 { return c.BomRef }
func (c *Component) SetBomRef(ref string)              { c.BomRef = ref }
func (c *Component) GetChildren() []*Component         { return c.Children }
func (c *Component) SetChildren(children []*Component) { c.Children = children }

// Service is a service component: an API or backend the project talks to.
type Service struct {
	ID                   int64     `json:"-"`
	UUID                 uuid.UUID `json:"uuid"`
	ProjectID            int64     `json:"-"`
	Group                string    `json:"group,omitempty"`
	Name                 string    `json:"name"`
	Version              string    `json:"version,omitempty"`
	Description          string    `json:"description,omitempty"`
	Provider             string    `json:"provider,omitempty"`  // JSON
	Endpoints            string    `json:"endpoints,omitempty"` // JSON
	Authenticated        bool      `json:"authenticated"`
	CrossesTrustBoundary bool      `json:"crossesTrustBoundary"`
	ExternalReferences   string    `json:"externalReferences,omitempty"` // JSON
	DirectDependencies   string    `json:"directDependencies,omitempty"` // JSON

	BomRef   string     `json:"-"`
	Children []*Service `json:"-"`
	New      bool       `json:"-"`
}

func (s *Service) GetBomRef() string               { return s.BomRef }
func (s *Service) SetBomRef(ref string)            { s.BomRef = ref }
func (s *Service) GetChildren() []*Service         { return s.Children }
func (s *Service) SetChildren(children []*Service) { s.Children = children }
