package ingest

import (
	"context"

	"github.com/tansive/tansive-inventory/internal/inventorysrv/db/models"
)

// LicenseLookup reads the license catalog.
type LicenseLookup interface {
	GetLicenseByID(ctx context.Context, licenseID string) (*models.License, error)
	GetCustomLicenseByName(ctx context.Context, name string) (*models.License, error)
}

// LicenseResolver attaches catalog licenses to components. Lookups,
// including misses, are cached for the lifetime of the resolver, which is
// one import.
type LicenseResolver struct {
	lookup LicenseLookup
	byID   map[string]*models.License
	byName map[string]*models.License
}

func NewLicenseResolver(lookup LicenseLookup) *LicenseResolver {
	return &LicenseResolver{
		lookup: lookup,
		byID:   make(map[string]*models.License),
		byName: make(map[string]*models.License),
	}
}

// Resolve sets the license fields of c from its candidates. The first
// candidate found in the catalog, by license id and then by custom license
// name, wins. Without a match, the first named candidate is kept as free
// text.
func (r *LicenseResolver) Resolve(ctx context.Context, c *models.Component) error {
	for _, cand := range c.LicenseCandidates {
		if cand.ID != "" {
			l, err := r.licenseByID(ctx, cand.ID)
			if err != nil {
				return err
			}
			if l != nil {
				attachLicense(c, l, cand)
				return nil
			}
		}
		if cand.Name != "" {
			l, err := r.customLicense(ctx, cand.Name)
			if err != nil {
				return err
			}
			if l != nil {
				attachLicense(c, l, cand)
				return nil
			}
		}
	}
	for _, cand := range c.LicenseCandidates {
		if cand.Name != "" {
			c.License = cand.Name
			c.LicenseURL = cand.URL
			return nil
		}
	}
	return nil
}

func attachLicense(c *models.Component, l *models.License, cand models.LicenseCandidate) {
	c.LicenseID = l.ID
	c.ResolvedLicense = l.Name
	c.License = ""
	c.LicenseURL = cand.URL
}

func (r *LicenseResolver) licenseByID(ctx context.Context, id string) (*models.License, error) {
	if l, ok := r.byID[id]; ok {
		return l, nil
	}
	l, err := r.lookup.GetLicenseByID(ctx, id)
	if err != nil {
		return nil, err
	}
	r.byID[id] = l
	return l, nil
}

func (r *LicenseResolver) customLicense(ctx context.Context, name string) (*models.License, error) {
	if l, ok := r.byName[name]; ok {
		return l, nil
	}
	l, err := r.lookup.GetCustomLicenseByName(ctx, name)
	if err != nil {
		return nil, err
	}
	r.byName[name] = l
	return l, nil
}
