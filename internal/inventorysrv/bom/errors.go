package bom

import (
	"net/http"

	"github.com/tansive/tansive-inventory/internal/common/apperrors"
)

var (
	ErrInvalidDocument apperrors.Error = apperrors.New("invalid bom").SetStatusCode(http.StatusBadRequest)
	// ErrRejected covers documents that are never processed. They are
	// logged but produce no notification.
	ErrRejected          apperrors.Error = ErrInvalidDocument.New("bom rejected")
	ErrUnsupportedFormat apperrors.Error = ErrRejected.New("unrecognized bom format")
	ErrFormatDisabled    apperrors.Error = ErrRejected.New("bom format disabled")
	ErrParse             apperrors.Error = ErrInvalidDocument.New("unable to parse bom").SetExpandError(true)
	ErrSchemaViolation   apperrors.Error = ErrParse.New("bom failed schema validation")
)
