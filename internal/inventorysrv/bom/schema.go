package bom

import (
	"bytes"
	_ "embed"
	"errors"
	"fmt"
	"sync"

	"github.com/santhosh-tekuri/jsonschema/v5"
)

//go:embed schema/cyclonedx.schema.json
var cyclonedxSchema []byte

const cyclonedxSchemaURL = "inventory://schema/cyclonedx.schema.json"

var (
	compiledSchema     *jsonschema.Schema
	compiledSchemaErr  error
	compiledSchemaOnce sync.Once
)

func cycloneDXSchema() (*jsonschema.Schema, error) {
	compiledSchemaOnce.Do(func() {
		compiler := jsonschema.NewCompiler()
		compiler.Draft = jsonschema.Draft7
		if err := compiler.AddResource(cyclonedxSchemaURL, bytes.NewReader(cyclonedxSchema)); err != nil {
			compiledSchemaErr = fmt.Errorf("failed to add schema resource: %w", err)
			return
		}
		compiledSchema, compiledSchemaErr = compiler.Compile(cyclonedxSchemaURL)
	})
	return compiledSchema, compiledSchemaErr
}

// validateSchema checks a decoded document against the envelope schema.
// The returned messages name each violation.
func validateSchema(doc any) ([]string, error) {
	schema, err := cycloneDXSchema()
	if err != nil {
		return nil, err
	}
	err = schema.Validate(doc)
	if err == nil {
		return nil, nil
	}
	var verr *jsonschema.ValidationError
	if !errors.As(err, &verr) {
		return nil, err
	}
	var msgs []string
	for _, leaf := range leaves(verr) {
		msgs = append(msgs, fmt.Sprintf("%s: %s", leaf.InstanceLocation, leaf.Message))
	}
	return msgs, nil
}

func leaves(verr *jsonschema.ValidationError) []*jsonschema.ValidationError {
	if len(verr.Causes) == 0 {
		return []*jsonschema.ValidationError{verr}
	}
	var out []*jsonschema.ValidationError
	for _, c := range verr.Causes {
		out = append(out, leaves(c)...)
	}
	return out
}
