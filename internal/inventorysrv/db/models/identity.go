package models

import (
	"github.com/tansive/tansive-inventory/internal/common/uuid"
)

// IdentityKind records which priority level produced an identity.
type IdentityKind int

const (
	IdentityNone IdentityKind = iota
	IdentityPurl
	IdentityCpe
	IdentitySwid
	IdentityCoordinates
)

func (k IdentityKind) String() string {
	switch k {
	case IdentityPurl:
		return "purl"
	case IdentityCpe:
		return "cpe"
	case IdentitySwid:
		return "swid"
	case IdentityCoordinates:
		return "coordinates"
	}
	return "none"
}

// ComponentIdentity is the comparable identity of a component or service.
// Only the fields of the level named by Kind are set; UUID is set once the
// identity belongs to a persisted row. Two identities are equal when all
// their fields are equal.
type ComponentIdentity struct {
	UUID      uuid.UUID    `json:"uuid"`
	Kind      IdentityKind `json:"-"`
	Purl      string       `json:"purl,omitempty"`
	Cpe       string       `json:"cpe,omitempty"`
	SwidTagID string       `json:"swidTagId,omitempty"`
	Group     string       `json:"group,omitempty"`
	Name      string       `json:"name,omitempty"`
	Version   string       `json:"version,omitempty"`
}

// WithoutUUID returns the identity as it would be derived from a document.
func (id ComponentIdentity) WithoutUUID() ComponentIdentity {
	id.UUID = uuid.Nil
	return id
}

// EntityRef is the primary key and public uuid of a persisted row.
type EntityRef struct {
	ID   int64
	UUID uuid.UUID
}
