package bom

import (
	"context"
	"strings"

	"github.com/package-url/packageurl-go"
	"github.com/rs/zerolog/log"
	"github.com/tansive/tansive-inventory/internal/inventorysrv/db/models"
)

const serialNumberPrefix = "urn:uuid:"

func convert(ctx context.Context, cdx *cdxBOM) *Document {
	doc := &Document{
		Format:       FormatCycloneDX,
		SpecVersion:  cdx.SpecVersion,
		SerialNumber: strings.TrimPrefix(strings.TrimSpace(cdx.SerialNumber), serialNumberPrefix),
		Version:      cdx.Version,
	}
	if md := cdx.Metadata; md != nil {
		doc.Metadata.Present = true
		doc.Metadata.Authors = marshalJSON(ctx, md.Authors)
		doc.Metadata.Supplier = marshalEntity(ctx, md.Supplier)
		manufacturer := md.Manufacturer
		if manufacturer == nil {
			manufacturer = md.Manufacture
		}
		doc.Metadata.Manufacturer = marshalEntity(ctx, manufacturer)
		if c := md.Component; c != nil {
			doc.Metadata.HasComponent = true
			doc.Metadata.BomRef = trim(c.BOMRef)
			doc.Metadata.Author = trim(c.Author)
			doc.Metadata.Publisher = trim(c.Publisher)
			doc.Metadata.ComponentSupplier = marshalEntity(ctx, c.Supplier)
			doc.Metadata.Classifier = classifier(c.Type)
			doc.Metadata.Purl, _ = canonicalPurl(ctx, c.PackageURL)
			if c.SWID != nil {
				doc.Metadata.SwidTagID = trim(c.SWID.TagID)
			}
			doc.Metadata.ExternalReferences = marshalJSON(ctx, c.ExternalReferences)
			// Children of the project component are inventory of the project.
			for i := range c.Components {
				doc.Components = append(doc.Components, convertComponent(ctx, &c.Components[i]))
			}
		}
	}
	for i := range cdx.Components {
		doc.Components = append(doc.Components, convertComponent(ctx, &cdx.Components[i]))
	}
	for i := range cdx.Services {
		doc.Services = append(doc.Services, convertService(ctx, &cdx.Services[i]))
	}
	for _, d := range cdx.Dependencies {
		dep := Dependency{Ref: trim(d.Ref)}
		for _, on := range d.DependsOn {
			if on = trim(on); on != "" {
				dep.DependsOn = append(dep.DependsOn, on)
			}
		}
		doc.Dependencies = append(doc.Dependencies, dep)
	}
	return doc
}

func convertComponent(ctx context.Context, in *cdxComponent) *models.Component {
	c := &models.Component{
		BomRef:             trim(in.BOMRef),
		Group:              trim(in.Group),
		Name:               trim(in.Name),
		Version:            trim(in.Version),
		Description:        trim(in.Description),
		Copyright:          trim(in.Copyright),
		Author:             trim(in.Author),
		Publisher:          trim(in.Publisher),
		Supplier:           marshalEntity(ctx, in.Supplier),
		Classifier:         classifier(in.Type),
		Cpe:                trim(in.CPE),
		ExternalReferences: marshalJSON(ctx, in.ExternalReferences),
	}
	c.Purl, c.PurlCoordinates = canonicalPurl(ctx, in.PackageURL)
	if in.SWID != nil {
		c.SwidTagID = trim(in.SWID.TagID)
	}
	for _, h := range in.Hashes {
		setHash(&c.Hashes, h.Algorithm, strings.ToLower(trim(h.Value)))
	}
	for _, choice := range in.Licenses {
		switch {
		case choice.License != nil:
			c.LicenseCandidates = append(c.LicenseCandidates, models.LicenseCandidate{
				ID:   trim(choice.License.ID),
				Name: trim(choice.License.Name),
				URL:  trim(choice.License.URL),
			})
		case trim(choice.Expression) != "":
			c.LicenseCandidates = append(c.LicenseCandidates, models.LicenseCandidate{
				Name: trim(choice.Expression),
			})
		}
	}
	for i := range in.Components {
		c.Children = append(c.Children, convertComponent(ctx, &in.Components[i]))
	}
	return c
}

func convertService(ctx context.Context, in *cdxService) *models.Service {
	s := &models.Service{
		BomRef:             trim(in.BOMRef),
		Group:              trim(in.Group),
		Name:               trim(in.Name),
		Version:            trim(in.Version),
		Description:        trim(in.Description),
		Provider:           marshalEntity(ctx, in.Provider),
		Endpoints:          marshalJSON(ctx, in.Endpoints),
		ExternalReferences: marshalJSON(ctx, in.ExternalReferences),
	}
	if in.Authenticated != nil {
		s.Authenticated = *in.Authenticated
	}
	if in.CrossesTrustBoundary != nil {
		s.CrossesTrustBoundary = *in.CrossesTrustBoundary
	}
	for i := range in.Services {
		s.Children = append(s.Children, convertService(ctx, &in.Services[i]))
	}
	return s
}

// canonicalPurl returns the canonical form of a package URL and its
// coordinates (the purl without qualifiers and subpath). Unparseable purls
// are dropped.
func canonicalPurl(ctx context.Context, raw string) (purl, coordinates string) {
	raw = trim(raw)
	if raw == "" {
		return "", ""
	}
	p, err := packageurl.FromString(raw)
	if err != nil {
		log.Ctx(ctx).Warn().Err(err).Str("purl", raw).Msg("ignoring invalid package url")
		return "", ""
	}
	coords := packageurl.NewPackageURL(p.Type, p.Namespace, p.Name, p.Version, nil, "")
	return p.ToString(), coords.ToString()
}

func setHash(h *models.Hashes, alg, value string) {
	switch strings.ToUpper(alg) {
	case "MD5":
		h.MD5 = value
	case "SHA-1":
		h.SHA1 = value
	case "SHA-256":
		h.SHA256 = value
	case "SHA-384":
		h.SHA384 = value
	case "SHA-512":
		h.SHA512 = value
	case "SHA3-256":
		h.SHA3_256 = value
	case "SHA3-384":
		h.SHA3_384 = value
	case "SHA3-512":
		h.SHA3_512 = value
	case "BLAKE2B-256":
		h.BLAKE2b256 = value
	case "BLAKE2B-384":
		h.BLAKE2b384 = value
	case "BLAKE2B-512":
		h.BLAKE2b512 = value
	case "BLAKE3":
		h.BLAKE3 = value
	}
}

// classifier maps a CycloneDX component type to the stored classifier.
func classifier(componentType string) string {
	t := trim(componentType)
	if t == "" {
		return ""
	}
	return strings.ToUpper(strings.ReplaceAll(t, "-", "_"))
}

func marshalEntity(ctx context.Context, e *cdxOrganizationalEntity) string {
	if e == nil {
		return ""
	}
	return marshalJSON(ctx, e)
}

// marshalJSON serializes v for storage in a JSON text column. Empty slices
// serialize to the empty string.
func marshalJSON[T any](ctx context.Context, v T) string {
	data, err := json.Marshal(v)
	if err != nil {
		log.Ctx(ctx).Warn().Err(err).Msg("unable to serialize bom field")
		return ""
	}
	s := string(data)
	if s == "null" || s == "[]" || s == "{}" {
		return ""
	}
	return s
}

func trim(s string) string {
	return strings.TrimSpace(s)
}
