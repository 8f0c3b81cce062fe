package logtrace

import (
	"context"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

type contextKey string

const requestIdKey = contextKey("requestId")

// WithRequestId stores the request id in ctx.
func WithRequestId(ctx context.Context, requestId string) context.Context {
	return context.WithValue(ctx, requestIdKey, requestId)
}

func RequestIdFromContext(ctx context.Context) string {
	if ctx == nil {
		return ""
	}
	r, ok := ctx.Value(requestIdKey).(string)
	if !ok {
		return ""
	}
	return r
}

// IsTraceEnabled reports whether trace level logging is on.
func IsTraceEnabled() bool {
	return zerolog.GlobalLevel() <= zerolog.TraceLevel
}

// ImportFields identify one BOM import in log lines.
type ImportFields struct {
	ProjectUUID  string
	UploadToken  string
	Format       string
	SpecVersion  string
	SerialNumber string
	BomVersion   int
}

// WithImportFields returns a context whose logger carries the import fields.
// Empty fields are omitted.
func WithImportFields(ctx context.Context, f ImportFields) context.Context {
	lc := log.Ctx(ctx).With()
	lc = addStr(lc, "project_uuid", f.ProjectUUID)
	lc = addStr(lc, "bom_upload_token", f.UploadToken)
	lc = addStr(lc, "bom_format", f.Format)
	lc = addStr(lc, "bom_spec_version", f.SpecVersion)
	lc = addStr(lc, "bom_serial_number", f.SerialNumber)
	if f.BomVersion > 0 {
		lc = lc.Int("bom_version", f.BomVersion)
	}
	logger := lc.Logger()
	return logger.WithContext(ctx)
}

func addStr(lc zerolog.Context, key, val string) zerolog.Context {
	if val == "" {
		return lc
	}
	return lc.Str(key, val)
}
