package bom

import (
	"bytes"

	"github.com/tansive/tansive-inventory/internal/common/apperrors"
	"github.com/tidwall/gjson"
)

// cycloneDXJSONVersions are the spec versions with a JSON representation.
var cycloneDXJSONVersions = map[string]bool{
	"1.2": true,
	"1.3": true,
	"1.4": true,
	"1.5": true,
	"1.6": true,
}

// DetectFormat inspects the top level of a document without decoding it.
// Documents in no known BOM format yield ErrUnsupportedFormat. Malformed
// JSON that names CycloneDX is reported as CycloneDX and fails in Parse.
func DetectFormat(data []byte) (Format, string, apperrors.Error) {
	if !gjson.ValidBytes(data) {
		if bytes.Contains(data, []byte(`"bomFormat"`)) && bytes.Contains(data, []byte(`"CycloneDX"`)) {
			return FormatCycloneDX, "", nil
		}
		return "", "", ErrUnsupportedFormat.Msg("bom is not a JSON document")
	}
	if !gjson.ParseBytes(data).IsObject() {
		return "", "", ErrUnsupportedFormat.Msg("bom is not a JSON object")
	}
	fields := gjson.GetManyBytes(data, "bomFormat", "specVersion", "spdxVersion")
	switch {
	case fields[0].String() == string(FormatCycloneDX):
		specVersion := fields[1].String()
		if !cycloneDXJSONVersions[specVersion] {
			return FormatCycloneDX, specVersion, ErrUnsupportedFormat.Msgf("unsupported CycloneDX JSON specVersion %q", specVersion)
		}
		return FormatCycloneDX, specVersion, nil
	case fields[2].Exists():
		return FormatSPDX, fields[2].String(), ErrUnsupportedFormat.Msg("SPDX documents are not supported")
	}
	return "", "", ErrUnsupportedFormat
}
