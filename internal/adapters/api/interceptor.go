package api

import (
	"context"
	"time"

	"connectrpc.com/connect"

	"github.com/floroz/gavel-registry/pkg/logger"
)

// NewLoggingInterceptor logs one line per unary call
func NewLoggingInterceptor(log logger.Logger) connect.UnaryInterceptorFunc {
	return func(next connect.UnaryFunc) connect.UnaryFunc {
		return func(ctx context.Context, req connect.AnyRequest) (connect.AnyResponse, error) {
			start := time.Now()
			res, err := next(ctx, req)

			fields := []interface{}{
				"procedure", req.Spec().Procedure,
				"duration", time.Since(start),
			}
			if err == nil {
				log.Debug("rpc completed", fields...)
				return res, nil
			}

			code := connect.CodeOf(err)
			fields = append(fields, "code", code.String(), "error", err)
			switch code {
			case connect.CodeInternal, connect.CodeUnknown, connect.CodeAborted:
				log.Error("rpc failed", fields...)
			default:
				log.Info("rpc rejected", fields...)
			}
			return res, err
		}
	}
}
