package service

import (
	"context"

	"github.com/psyeval/recruitment/pkg/requestid"
	"go.uber.org/zap"
)

func logger(ctx context.Context, name string) *zap.SugaredLogger {
	l := zap.S().Named(name)
	if id := requestid.FromContext(ctx); id != "" {
		l = l.With("request_id", id)
	}
	return l
}
