package bom

// CycloneDX JSON document types. Only the fields the importer uses are
// declared; everything else in the document is ignored.

type cdxBOM struct {
	BOMFormat    string          `json:"bomFormat"`
	SpecVersion  string          `json:"specVersion"`
	SerialNumber string          `json:"serialNumber,omitempty"`
	Version      int             `json:"version,omitempty"`
	Metadata     *cdxMetadata    `json:"metadata,omitempty"`
	Components   []cdxComponent  `json:"components,omitempty"`
	Services     []cdxService    `json:"services,omitempty"`
	Dependencies []cdxDependency `json:"dependencies,omitempty"`
}

type cdxMetadata struct {
	Timestamp    string                     `json:"timestamp,omitempty"`
	Authors      []cdxOrganizationalContact `json:"authors,omitempty"`
	Component    *cdxComponent              `json:"component,omitempty"`
	Manufacture  *cdxOrganizationalEntity   `json:"manufacture,omitempty"`
	Manufacturer *cdxOrganizationalEntity   `json:"manufacturer,omitempty"`
	Supplier     *cdxOrganizationalEntity   `json:"supplier,omitempty"`
}

type cdxOrganizationalContact struct {
	Name  string `json:"name,omitempty"`
	Email string `json:"email,omitempty"`
	Phone string `json:"phone,omitempty"`
}

type cdxOrganizationalEntity struct {
	Name    string                     `json:"name,omitempty"`
	URL     []string                   `json:"url,omitempty"`
	Contact []cdxOrganizationalContact `json:"contact,omitempty"`
}

type cdxComponent struct {
	BOMRef             string                   `json:"bom-ref,omitempty"`
	Type               string                   `json:"type"`
	Supplier           *cdxOrganizationalEntity `json:"supplier,omitempty"`
	Author             string                   `json:"author,omitempty"`
	Publisher          string                   `json:"publisher,omitempty"`
	Group              string                   `json:"group,omitempty"`
	Name               string                   `json:"name"`
	Version            string                   `json:"version,omitempty"`
	Description        string                   `json:"description,omitempty"`
	Hashes             []cdxHash                `json:"hashes,omitempty"`
	Licenses           []cdxLicenseChoice       `json:"licenses,omitempty"`
	Copyright          string                   `json:"copyright,omitempty"`
	CPE                string                   `json:"cpe,omitempty"`
	PackageURL         string                   `json:"purl,omitempty"`
	SWID               *cdxSWID                 `json:"swid,omitempty"`
	ExternalReferences []cdxExternalReference   `json:"externalReferences,omitempty"`
	Components         []cdxComponent           `json:"components,omitempty"`
}

type cdxHash struct {
	Algorithm string `json:"alg"`
	Value     string `json:"content"`
}

type cdxLicenseChoice struct {
	License    *cdxLicense `json:"license,omitempty"`
	Expression string      `json:"expression,omitempty"`
}

type cdxLicense struct {
	ID   string `json:"id,omitempty"`
	Name string `json:"name,omitempty"`
	URL  string `json:"url,omitempty"`
}

type cdxSWID struct {
	TagID string `json:"tagId"`
	Name  string `json:"name,omitempty"`
}

type cdxExternalReference struct {
	URL     string `json:"url"`
	Comment string `json:"comment,omitempty"`
	Type    string `json:"type"`
}

type cdxService struct {
	BOMRef               string                   `json:"bom-ref,omitempty"`
	Provider             *cdxOrganizationalEntity `json:"provider,omitempty"`
	Group                string                   `json:"group,omitempty"`
	Name                 string                   `json:"name"`
	Version              string                   `json:"version,omitempty"`
	Description          string                   `json:"description,omitempty"`
	Endpoints            []string                 `json:"endpoints,omitempty"`
	Authenticated        *bool                    `json:"authenticated,omitempty"`
	CrossesTrustBoundary *bool                    `json:"x-trust-boundary,omitempty"`
	ExternalReferences   []cdxExternalReference   `json:"externalReferences,omitempty"`
	Services             []cdxService             `json:"services,omitempty"`
}

type cdxDependency struct {
	Ref       string   `json:"ref"`
	DependsOn []string `json:"dependsOn,omitempty"`
}
