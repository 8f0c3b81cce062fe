package bom

import (
	"context"
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func readTestBom(t *testing.T, name string) []byte {
	t.Helper()
	data, err := os.ReadFile("testdata/" + name)
	require.NoError(t, err)
	return data
}

func TestDetectFormat(t *testing.T) {
	tests := []struct {
		name    string
		doc     string
		format  Format
		wantErr bool
	}{
		{"cyclonedx", `{"bomFormat":"CycloneDX","specVersion":"1.4"}`, FormatCycloneDX, false},
		{"cyclonedx json 1.1", `{"bomFormat":"CycloneDX","specVersion":"1.1"}`, FormatCycloneDX, true},
		{"spdx", `{"spdxVersion":"SPDX-2.3","SPDXID":"SPDXRef-DOCUMENT"}`, FormatSPDX, true},
		{"unknown json", `{"hello":"world"}`, "", true},
		{"array", `[1,2]`, "", true},
		{"xml", `<bom xmlns="http://cyclonedx.org/schema/bom/1.5"/>`, "", true},
		{"truncated cyclonedx", `{"bomFormat":"CycloneDX","specVersion":"1.5","components":[`, FormatCycloneDX, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			format, _, err := DetectFormat([]byte(tt.doc))
			assert.Equal(t, tt.format, format)
			if tt.wantErr {
				require.Error(t, err)
				assert.ErrorIs(t, err, ErrRejected)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestAcceptDisabled(t *testing.T) {
	p := NewParser(Options{CycloneDXEnabled: false})
	_, err := p.Accept([]byte(`{"bomFormat":"CycloneDX","specVersion":"1.5"}`))
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrFormatDisabled)
	assert.ErrorIs(t, err, ErrRejected)
}

func TestParse(t *testing.T) {
	ctx := context.Background()
	p := NewParser(Options{CycloneDXEnabled: true, ValidateSchema: true})
	doc, err := p.Parse(ctx, readTestBom(t, "bom-1.json"))
	require.NoError(t, err)

	assert.Equal(t, FormatCycloneDX, doc.Format)
	assert.Equal(t, "1.5", doc.SpecVersion)
	assert.Equal(t, "CycloneDX 1.5", doc.FormatLabel())
	assert.Equal(t, "3e671687-395b-41f5-a30f-a58921a69b79", doc.SerialNumber)
	assert.Equal(t, 1, doc.Version)

	md := doc.Metadata
	assert.True(t, md.Present)
	assert.True(t, md.HasComponent)
	assert.Equal(t, "acme-app", md.BomRef)
	assert.Equal(t, "Acme Platform Team", md.Author)
	assert.Equal(t, "APPLICATION", md.Classifier)
	assert.Equal(t, "pkg:generic/acme/acme-app@2.0.0", md.Purl)
	assert.JSONEq(t, `[{"name":"Jane Doe","email":"jane@acme.example"}]`, md.Authors)
	assert.JSONEq(t, `{"name":"Acme Inc","url":["https://acme.example"]}`, md.Supplier)

	require.Len(t, doc.Components, 2)
	a := doc.Components[0]
	assert.Equal(t, "pkg:maven/com.acme/a@1.0?classifier=sources&type=jar", a.Purl)
	assert.Equal(t, "pkg:maven/com.acme/a@1.0", a.PurlCoordinates)
	assert.Equal(t, "abcdef", a.Hashes.SHA256)
	assert.Equal(t, "LIBRARY", a.Classifier)
	require.Len(t, a.LicenseCandidates, 1)
	assert.Equal(t, "Apache-2.0", a.LicenseCandidates[0].ID)
	require.Len(t, a.Children, 1)
	assert.Equal(t, "cpe:2.3:a:acme:nested:0.1:*:*:*:*:*:*:*", a.Children[0].Cpe)

	b := doc.Components[1]
	assert.Empty(t, b.Purl, "invalid purl is dropped")
	require.Len(t, b.LicenseCandidates, 1)
	assert.Equal(t, "MIT OR Apache-2.0", b.LicenseCandidates[0].Name)

	require.Len(t, doc.Services, 1)
	assert.True(t, doc.Services[0].Authenticated)
	assert.JSONEq(t, `["https://billing.acme.example/v1"]`, doc.Services[0].Endpoints)

	require.Len(t, doc.Dependencies, 2)
	assert.Equal(t, Dependency{Ref: "acme-app", DependsOn: []string{"pkg:maven/com.acme/a@1.0", "billing-api"}}, doc.Dependencies[0])
}

func TestParseFailures(t *testing.T) {
	ctx := context.Background()
	p := NewParser(Options{CycloneDXEnabled: true, ValidateSchema: true})

	_, err := p.Parse(ctx, []byte(`{"bomFormat":"CycloneDX","specVersion":"1.5","components":[{"type":"library"}]}`))
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrSchemaViolation)
	assert.ErrorIs(t, err, ErrParse)
	assert.NotErrorIs(t, err, ErrRejected)

	_, err = p.Parse(ctx, []byte(`{"bomFormat":"CycloneDX","specVersion":"1.5","version":"one"}`))
	assert.ErrorIs(t, err, ErrParse)

	_, err = p.Parse(ctx, []byte(`{"bomFormat":"CycloneDX","specVersion":"1.5","components":[`))
	assert.ErrorIs(t, err, ErrParse)

	noSchema := NewParser(Options{CycloneDXEnabled: true})
	_, err = noSchema.Parse(ctx, []byte(`{"bomFormat":"CycloneDX","specVersion":"1.5","components":{"name":"x"}}`))
	assert.ErrorIs(t, err, ErrParse)
}
