package apis

import (
	"encoding/base64"
	"io"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/klauspost/compress/gzip"
	"github.com/rs/zerolog/log"
	"github.com/tansive/tansive-inventory/internal/common/httpx"
	"github.com/tansive/tansive-inventory/internal/common/uuid"
	"github.com/tansive/tansive-inventory/pkg/api"
)

const (
	uploadAccepted  = "accepted"
	uploadRejected  = "rejected"
	uploadInvalid   = "invalid"
	uploadThrottled = "throttled"
	uploadQueueFull = "queue_full"
)

// uploadBom accepts either the raw document with ?project=<uuid> or an
// api.UploadBomReq envelope carrying it base64 encoded. Bodies sent with
// Content-Encoding: gzip are decompressed first.
func (a *API) uploadBom(r *http.Request) (*httpx.Response, error) {
	ctx := r.Context()
	if a.limiter != nil && !a.limiter.Allow() {
		a.observer.UploadReceived(uploadThrottled)
		return nil, httpx.ErrTooManyRequests()
	}
	if r.Body == nil {
		a.observer.UploadReceived(uploadInvalid)
		return nil, httpx.ErrInvalidRequest()
	}

	projectUUID, data, err := a.readUpload(r)
	if err != nil {
		a.observer.UploadReceived(uploadInvalid)
		return nil, err
	}
	if _, err := a.store.GetProject(ctx, projectUUID); err != nil {
		a.observer.UploadReceived(uploadInvalid)
		return nil, err
	}
	if err := a.acceptor.Accept(data); err != nil {
		log.Ctx(ctx).Warn().Err(err).Str("project_uuid", projectUUID.String()).Msg("bom rejected")
		a.observer.UploadReceived(uploadRejected)
		return nil, err
	}
	token, err := a.uploads.Submit(ctx, projectUUID, data)
	if err != nil {
		a.observer.UploadReceived(uploadQueueFull)
		return nil, err
	}
	a.observer.UploadReceived(uploadAccepted)
	return &httpx.Response{
		StatusCode: http.StatusAccepted,
		Location:   "/v1/bom/token/" + token.String(),
		Response:   &api.UploadBomRsp{Token: token.String()},
	}, nil
}

func (a *API) readUpload(r *http.Request) (uuid.UUID, []byte, error) {
	body := io.Reader(r.Body)
	if strings.EqualFold(r.Header.Get("Content-Encoding"), "gzip") {
		zr, err := gzip.NewReader(r.Body)
		if err != nil {
			return uuid.Nil, nil, httpx.ErrUnableToReadRequest()
		}
		defer zr.Close()
		body = zr
	}

	if project := r.URL.Query().Get("project"); project != "" {
		projectUUID, err := uuid.Parse(project)
		if err != nil {
			return uuid.Nil, nil, httpx.ErrInvalidProjectId()
		}
		data, err := readLimited(body, a.maxUpload)
		if err != nil {
			return uuid.Nil, nil, err
		}
		if len(data) == 0 {
			return uuid.Nil, nil, httpx.ErrInvalidRequest("empty bom")
		}
		return projectUUID, data, nil
	}

	// base64 grows the document by a third; leave room for the envelope.
	raw, err := readLimited(body, a.maxUpload/3*4+4096)
	if err != nil {
		return uuid.Nil, nil, err
	}
	var req api.UploadBomReq
	if err := json.Unmarshal(raw, &req); err != nil {
		return uuid.Nil, nil, httpx.ErrUnableToParseReqData()
	}
	if err := a.validate.Struct(req); err != nil {
		return uuid.Nil, nil, validationError(err)
	}
	projectUUID, err := uuid.Parse(req.Project)
	if err != nil {
		return uuid.Nil, nil, httpx.ErrInvalidProjectId()
	}
	data, err := base64.StdEncoding.DecodeString(req.Bom)
	if err != nil {
		return uuid.Nil, nil, httpx.ErrInvalidRequest("bom is not valid base64")
	}
	if int64(len(data)) > a.maxUpload {
		return uuid.Nil, nil, httpx.ErrRequestTooLarge()
	}
	return projectUUID, data, nil
}

func readLimited(r io.Reader, limit int64) ([]byte, error) {
	data, err := io.ReadAll(io.LimitReader(r, limit+1))
	if err != nil {
		return nil, httpx.ErrUnableToReadRequest()
	}
	if int64(len(data)) > limit {
		return nil, httpx.ErrRequestTooLarge()
	}
	return data, nil
}

func (a *API) getTokenStatus(r *http.Request) (*httpx.Response, error) {
	token, err := uuid.Parse(chi.URLParam(r, "token"))
	if err != nil {
		return nil, httpx.ErrInvalidUploadToken()
	}
	st, aerr := a.uploads.Status(token)
	if aerr != nil {
		return nil, aerr
	}
	return &httpx.Response{
		StatusCode: http.StatusOK,
		Response:   toAPITokenStatus(st),
	}, nil
}
