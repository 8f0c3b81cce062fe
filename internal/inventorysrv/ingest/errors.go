package ingest

import (
	"net/http"

	"github.com/tansive/tansive-inventory/internal/common/apperrors"
)

var (
	ErrIngest          apperrors.Error = apperrors.New("bom import failed").SetStatusCode(http.StatusInternalServerError)
	ErrProjectNotFound apperrors.Error = ErrIngest.New("project not found").SetStatusCode(http.StatusNotFound)
	ErrReconcile       apperrors.Error = ErrIngest.New("unable to reconcile bom").SetExpandError(true)
)
