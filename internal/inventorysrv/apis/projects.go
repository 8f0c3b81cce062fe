package apis

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog/log"
	"github.com/tansive/tansive-inventory/internal/common/httpx"
	"github.com/tansive/tansive-inventory/internal/common/uuid"
	"github.com/tansive/tansive-inventory/internal/inventorysrv/db/models"
	"github.com/tansive/tansive-inventory/pkg/api"
)

func (a *API) createProject(r *http.Request) (*httpx.Response, error) {
	var req api.CreateProjectReq
	if err := httpx.GetRequestData(r, &req); err != nil {
		return nil, err
	}
	if err := a.validate.Struct(req); err != nil {
		return nil, validationError(err)
	}
	p := &models.Project{
		Name:        req.Name,
		Version:     req.Version,
		Group:       req.Group,
		Description: req.Description,
	}
	if err := a.store.CreateProject(r.Context(), p); err != nil {
		return nil, err
	}
	log.Ctx(r.Context()).Info().Str("project_uuid", p.UUID.String()).Str("name", p.Name).Msg("project created")
	return &httpx.Response{
		StatusCode: http.StatusCreated,
		Location:   "/v1/projects/" + p.UUID.String(),
		Response:   &api.CreateProjectRsp{UUID: p.UUID.String()},
	}, nil
}

func (a *API) getProject(r *http.Request) (*httpx.Response, error) {
	projectUUID, err := projectParam(r)
	if err != nil {
		return nil, err
	}
	p, err := a.store.GetProject(r.Context(), projectUUID)
	if err != nil {
		return nil, err
	}
	return &httpx.Response{
		StatusCode: http.StatusOK,
		Response:   toAPIProject(p),
	}, nil
}

func (a *API) listComponents(r *http.Request) (*httpx.Response, error) {
	projectUUID, err := projectParam(r)
	if err != nil {
		return nil, err
	}
	components, err := a.store.ListComponents(r.Context(), projectUUID)
	if err != nil {
		return nil, err
	}
	rsp := make([]api.Component, 0, len(components))
	for _, c := range components {
		rsp = append(rsp, toAPIComponent(c))
	}
	return &httpx.Response{
		StatusCode: http.StatusOK,
		Response:   rsp,
	}, nil
}

func (a *API) listServices(r *http.Request) (*httpx.Response, error) {
	projectUUID, err := projectParam(r)
	if err != nil {
		return nil, err
	}
	services, err := a.store.ListServices(r.Context(), projectUUID)
	if err != nil {
		return nil, err
	}
	rsp := make([]api.Service, 0, len(services))
	for _, s := range services {
		rsp = append(rsp, toAPIService(s))
	}
	return &httpx.Response{
		StatusCode: http.StatusOK,
		Response:   rsp,
	}, nil
}

func (a *API) listBoms(r *http.Request) (*httpx.Response, error) {
	projectUUID, err := projectParam(r)
	if err != nil {
		return nil, err
	}
	boms, err := a.store.ListBoms(r.Context(), projectUUID)
	if err != nil {
		return nil, err
	}
	rsp := make([]api.Bom, 0, len(boms))
	for _, b := range boms {
		rsp = append(rsp, api.Bom{
			UUID:         b.UUID.String(),
			Format:       b.Format,
			SpecVersion:  b.SpecVersion,
			SerialNumber: b.SerialNumber,
			Version:      b.BomVersion,
			Imported:     b.Imported,
		})
	}
	return &httpx.Response{
		StatusCode: http.StatusOK,
		Response:   rsp,
	}, nil
}

func (a *API) createLicense(r *http.Request) (*httpx.Response, error) {
	var req api.CreateLicenseReq
	if err := httpx.GetRequestData(r, &req); err != nil {
		return nil, err
	}
	if err := a.validate.Struct(req); err != nil {
		return nil, validationError(err)
	}
	l := &models.License{
		LicenseID: req.LicenseID,
		Name:      req.Name,
		Custom:    req.Custom,
	}
	if err := a.store.CreateLicense(r.Context(), l); err != nil {
		return nil, err
	}
	return &httpx.Response{
		StatusCode: http.StatusCreated,
		Response:   &api.CreateLicenseRsp{UUID: l.UUID.String()},
	}, nil
}

func (a *API) health(r *http.Request) (*httpx.Response, error) {
	if err := a.store.Ping(r.Context()); err != nil {
		log.Ctx(r.Context()).Error().Err(err).Msg("health check failed")
		return &httpx.Response{
			StatusCode: http.StatusServiceUnavailable,
			Response:   &api.HealthRsp{Status: "unavailable", Database: "down"},
		}, nil
	}
	return &httpx.Response{
		StatusCode: http.StatusOK,
		Response:   &api.HealthRsp{Status: "ok", Database: "up"},
	}, nil
}

func projectParam(r *http.Request) (uuid.UUID, error) {
	id, err := uuid.Parse(chi.URLParam(r, "projectUUID"))
	if err != nil {
		return uuid.Nil, httpx.ErrInvalidProjectId()
	}
	return id, nil
}
