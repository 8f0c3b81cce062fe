package api

import "net/http"

const ApiVersion_1_0 = "v1"

type GetVersionReq struct{}

func (r GetVersionReq) RequestMethod() (string, string) {
	return http.MethodGet, "/version"
}

type GetVersionRsp struct {
	ServerVersion string `json:"serverVersion"`
	ApiVersion    string `json:"apiVersion"`
}
