package worker

import (
	"net/http"

	"github.com/tansive/tansive-inventory/internal/common/apperrors"
)

var (
	ErrWorker       apperrors.Error = apperrors.New("upload could not be queued").SetStatusCode(http.StatusServiceUnavailable)
	ErrQueueFull    apperrors.Error = ErrWorker.New("upload queue is full")
	ErrShuttingDown apperrors.Error = ErrWorker.New("server is shutting down")
	ErrCorruptJob   apperrors.Error = ErrWorker.New("queued upload is corrupt")
	ErrUnknownToken apperrors.Error = apperrors.New("unknown upload token").SetStatusCode(http.StatusNotFound)
)
