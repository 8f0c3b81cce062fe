package dberror

import (
	"net/http"

	"github.com/tansive/tansive-inventory/internal/common/apperrors"
)

var (
	ErrDatabase      apperrors.Error = apperrors.New("db error").SetStatusCode(http.StatusInternalServerError)
	ErrAlreadyExists apperrors.Error = ErrDatabase.New("already exists").SetStatusCode(http.StatusConflict)
	ErrNotFound      apperrors.Error = ErrDatabase.New("not found").SetStatusCode(http.StatusNotFound)
	ErrInvalidInput  apperrors.Error = ErrDatabase.New("invalid input").SetStatusCode(http.StatusBadRequest)
	ErrConnection    apperrors.Error = ErrDatabase.New("unable to connect to database").SetStatusCode(http.StatusServiceUnavailable)
	ErrTxDone        apperrors.Error = ErrDatabase.New("transaction already completed")
)
