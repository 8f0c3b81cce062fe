package bom

import (
	"context"
	"strings"

	jsoniter "github.com/json-iterator/go"
	"github.com/rs/zerolog/log"
	"github.com/tansive/tansive-inventory/internal/common/apperrors"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

type Options struct {
	CycloneDXEnabled bool
	ValidateSchema   bool
}

// Parser checks and decodes uploaded documents.
type Parser struct {
	opts Options
}

func NewParser(opts Options) *Parser {
	return &Parser{opts: opts}
}

// Accept decides whether a document will be processed at all. It returns
// an error wrapping ErrRejected for documents in an unknown or disabled
// format.
func (p *Parser) Accept(data []byte) (Format, apperrors.Error) {
	format, _, err := DetectFormat(data)
	if err != nil {
		return format, err
	}
	if format == FormatCycloneDX && !p.opts.CycloneDXEnabled {
		return format, ErrFormatDisabled.Msg("CycloneDX processing is disabled")
	}
	return format, nil
}

// Parse decodes an accepted document. Failures wrap ErrParse.
func (p *Parser) Parse(ctx context.Context, data []byte) (*Document, apperrors.Error) {
	if _, err := p.Accept(data); err != nil {
		return nil, err
	}
	if p.opts.ValidateSchema {
		var raw any
		if err := json.Unmarshal(data, &raw); err != nil {
			return nil, ErrParse.Err(err)
		}
		violations, err := validateSchema(raw)
		if err != nil {
			log.Ctx(ctx).Error().Err(err).Msg("unable to validate bom schema")
			return nil, ErrParse.Err(err)
		}
		if len(violations) > 0 {
			log.Ctx(ctx).Debug().Strs("violations", violations).Msg("bom failed schema validation")
			return nil, ErrSchemaViolation.Msg("bom failed schema validation: " + strings.Join(violations, "; "))
		}
	}

	var cdx cdxBOM
	if err := json.Unmarshal(data, &cdx); err != nil {
		return nil, ErrParse.Err(err)
	}
	return convert(ctx, &cdx), nil
}
