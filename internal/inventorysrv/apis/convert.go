package apis

import (
	"github.com/tansive/tansive-inventory/internal/inventorysrv/db/models"
	"github.com/tansive/tansive-inventory/internal/inventorysrv/ingest"
	"github.com/tansive/tansive-inventory/internal/inventorysrv/worker"
	"github.com/tansive/tansive-inventory/pkg/api"
)

func rawJSON(s string) api.RawJSON {
	if s == "" {
		return nil
	}
	return api.RawJSON(s)
}

func toAPIProject(p *models.Project) *api.Project {
	rsp := &api.Project{
		UUID:                p.UUID.String(),
		Name:                p.Name,
		Version:             p.Version,
		Group:               p.Group,
		Description:         p.Description,
		Author:              p.Author,
		Publisher:           p.Publisher,
		Classifier:          p.Classifier,
		Purl:                p.Purl,
		SwidTagID:           p.SwidTagID,
		Manufacturer:        rawJSON(p.Manufacturer),
		Supplier:            rawJSON(p.Supplier),
		ExternalReferences:  rawJSON(p.ExternalReferences),
		DirectDependencies:  rawJSON(p.DirectDependencies),
		LastBomImportFormat: p.LastBomImportFormat,
	}
	if !p.LastBomImport.IsZero() {
		t := p.LastBomImport
		rsp.LastBomImport = &t
	}
	return rsp
}

func toAPIComponent(c *models.Component) api.Component {
	return api.Component{
		UUID:               c.UUID.String(),
		Group:              c.Group,
		Name:               c.Name,
		Version:            c.Version,
		Classifier:         c.Classifier,
		Purl:               c.Purl,
		Cpe:                c.Cpe,
		SwidTagID:          c.SwidTagID,
		Hashes:             hashMap(c.Hashes),
		ResolvedLicense:    c.ResolvedLicense,
		License:            c.License,
		LicenseURL:         c.LicenseURL,
		Internal:           c.Internal,
		DirectDependencies: rawJSON(c.DirectDependencies),
	}
}

func toAPIService(s *models.Service) api.Service {
	return api.Service{
		UUID:                 s.UUID.String(),
		Group:                s.Group,
		Name:                 s.Name,
		Version:              s.Version,
		Endpoints:            rawJSON(s.Endpoints),
		Authenticated:        s.Authenticated,
		CrossesTrustBoundary: s.CrossesTrustBoundary,
		DirectDependencies:   rawJSON(s.DirectDependencies),
	}
}

// hashMap keys digests by their CycloneDX algorithm name.
func hashMap(h models.Hashes) map[string]string {
	all := []struct{ alg, value string }{
		{"MD5", h.MD5},
		{"SHA-1", h.SHA1},
		{"SHA-256", h.SHA256},
		{"SHA-384", h.SHA384},
		{"SHA-512", h.SHA512},
		{"SHA3-256", h.SHA3_256},
		{"SHA3-384", h.SHA3_384},
		{"SHA3-512", h.SHA3_512},
		{"BLAKE2b-256", h.BLAKE2b256},
		{"BLAKE2b-384", h.BLAKE2b384},
		{"BLAKE2b-512", h.BLAKE2b512},
		{"BLAKE3", h.BLAKE3},
	}
	var m map[string]string
	for _, d := range all {
		if d.value == "" {
			continue
		}
		if m == nil {
			m = make(map[string]string)
		}
		m[d.alg] = d.value
	}
	return m
}

func toAPIResult(res *ingest.Result) *api.ImportResult {
	if res == nil {
		return nil
	}
	return &api.ImportResult{
		Format:      string(res.Format),
		SpecVersion: res.SpecVersion,
		Stats:       api.ImportStats(res.Stats),
		Events:      res.Events,
	}
}

func toAPITokenStatus(st worker.TokenStatus) *api.BomTokenStatusRsp {
	rsp := &api.BomTokenStatusRsp{
		Token:      st.Token.String(),
		Project:    st.ProjectUUID.String(),
		Processing: st.Processing(),
		State:      string(st.State),
		Error:      st.Error,
		Result:     toAPIResult(st.Result),
		Submitted:  st.Submitted,
	}
	if !st.Finished.IsZero() {
		t := st.Finished
		rsp.Finished = &t
	}
	return rsp
}
