package ingest

import (
	"github.com/tansive/tansive-inventory/internal/inventorysrv/db/models"
)

// ComponentIdentityOf derives the identity of a component from the first
// non-empty of purl, cpe, swid tag id and (group, name, version). The uuid
// is carried over, so a persisted component yields its persistent identity.
func ComponentIdentityOf(c *models.Component) models.ComponentIdentity {
	id := models.ComponentIdentity{UUID: c.UUID}
	switch {
	case c.Purl != "":
		id.Kind, id.Purl = models.IdentityPurl, c.Purl
	case c.Cpe != "":
		id.Kind, id.Cpe = models.IdentityCpe, c.Cpe
	case c.SwidTagID != "":
		id.Kind, id.SwidTagID = models.IdentitySwid, c.SwidTagID
	default:
		id.Kind = models.IdentityCoordinates
		id.Group, id.Name, id.Version = c.Group, c.Name, c.Version
	}
	return id
}

// ServiceIdentityOf identifies services by (group, name, version).
func ServiceIdentityOf(s *models.Service) models.ComponentIdentity {
	return models.ComponentIdentity{
		UUID:    s.UUID,
		Kind:    models.IdentityCoordinates,
		Group:   s.Group,
		Name:    s.Name,
		Version: s.Version,
	}
}
