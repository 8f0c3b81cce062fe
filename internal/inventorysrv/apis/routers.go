// Package apis implements the HTTP handlers of the inventory server.
package apis

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
	jsoniter "github.com/json-iterator/go"
	"github.com/tansive/tansive-inventory/internal/common/apperrors"
	"github.com/tansive/tansive-inventory/internal/common/httpx"
	"github.com/tansive/tansive-inventory/internal/common/uuid"
	"github.com/tansive/tansive-inventory/internal/inventorysrv/db"
	"github.com/tansive/tansive-inventory/internal/inventorysrv/worker"
	"golang.org/x/time/rate"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// Uploader queues documents for import and reports their progress.
type Uploader interface {
	Submit(ctx context.Context, projectUUID uuid.UUID, data []byte) (uuid.UUID, apperrors.Error)
	Status(token uuid.UUID) (worker.TokenStatus, apperrors.Error)
}

// Acceptor decides whether a document would be processed at all.
type Acceptor interface {
	Accept(data []byte) apperrors.Error
}

// UploadObserver counts upload requests by result.
type UploadObserver interface {
	UploadReceived(result string)
}

type nopObserver struct{}

func (nopObserver) UploadReceived(string) {}

type Options struct {
	// MaxUploadBytes bounds the decoded size of an uploaded document.
	MaxUploadBytes int64
	// UploadsPerSecond limits upload requests; zero disables the limit.
	UploadsPerSecond float64
	UploadBurst      int
	Observer         UploadObserver
}

type API struct {
	store     db.Store
	uploads   Uploader
	acceptor  Acceptor
	limiter   *rate.Limiter
	maxUpload int64
	observer  UploadObserver
	validate  *validator.Validate
}

func New(store db.Store, uploads Uploader, acceptor Acceptor, opts Options) *API {
	a := &API{
		store:     store,
		uploads:   uploads,
		acceptor:  acceptor,
		maxUpload: opts.MaxUploadBytes,
		observer:  opts.Observer,
		validate:  validator.New(),
	}
	if a.maxUpload <= 0 {
		a.maxUpload = 64 << 20
	}
	if a.observer == nil {
		a.observer = nopObserver{}
	}
	if opts.UploadsPerSecond > 0 {
		burst := opts.UploadBurst
		if burst < 1 {
			burst = 1
		}
		a.limiter = rate.NewLimiter(rate.Limit(opts.UploadsPerSecond), burst)
	}
	return a
}

func (a *API) handlers() []httpx.ResponseHandlerParam {
	return []httpx.ResponseHandlerParam{
		{
			Method:  http.MethodPost,
			Path:    "/v1/projects",
			Handler: a.createProject,
		},
		{
			Method:  http.MethodGet,
			Path:    "/v1/projects/{projectUUID}",
			Handler: a.getProject,
		},
		{
			Method:  http.MethodGet,
			Path:    "/v1/projects/{projectUUID}/components",
			Handler: a.listComponents,
		},
		{
			Method:  http.MethodGet,
			Path:    "/v1/projects/{projectUUID}/services",
			Handler: a.listServices,
		},
		{
			Method:  http.MethodGet,
			Path:    "/v1/projects/{projectUUID}/boms",
			Handler: a.listBoms,
		},
		{
			Method:  http.MethodPost,
			Path:    "/v1/licenses",
			Handler: a.createLicense,
		},
		{
			Method:  http.MethodPost,
			Path:    "/v1/bom",
			Handler: a.uploadBom,
		},
		{
			Method:  http.MethodGet,
			Path:    "/v1/bom/token/{token}",
			Handler: a.getTokenStatus,
		},
		{
			Method:  http.MethodGet,
			Path:    "/healthz",
			Handler: a.health,
		},
	}
}

// Router registers the handlers on r.
func (a *API) Router(r chi.Router) {
	for _, handler := range a.handlers() {
		r.Method(handler.Method, handler.Path, httpx.WrapHttpRsp(handler.Handler))
	}
}
