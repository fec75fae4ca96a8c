package middleware

import (
	"context"
	"path"
	"time"

	"github.com/fekuna/omnipos-storefront/internal/auth"
	"github.com/fekuna/omnipos-storefront/pkg/logger"
	"github.com/fekuna/omnipos-storefront/pkg/metrics"
	"go.uber.org/zap"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

// ContextInterceptor resolves the caller identity from metadata and stores
// it on the context for handlers.
func ContextInterceptor(v *auth.Verifier) grpc.UnaryServerInterceptor {
	return func(ctx context.Context, req any, info *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (any, error) {
		id, err := v.FromMetadata(ctx)
		if err != nil {
			return nil, status.Error(codes.Unauthenticated, "invalid bearer token")
		}
		return handler(auth.WithIdentity(ctx, id), req)
	}
}

// ObservabilityInterceptor logs every call and records its status and
// latency.
func ObservabilityInterceptor(log logger.ZapLogger, m *metrics.Metrics) grpc.UnaryServerInterceptor {
	return func(ctx context.Context, req any, info *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (any, error) {
		start := time.Now()
		resp, err := handler(ctx, req)
		code := status.Code(err)
		method := path.Base(info.FullMethod)

		if m != nil {
			m.Requests.WithLabelValues("grpc", method, code.String()).Inc()
			m.LatencyMS.WithLabelValues("grpc", method).Observe(float64(time.Since(start).Milliseconds()))
		}

		fields := []zap.Field{
			zap.String("method", info.FullMethod),
			zap.String("code", code.String()),
			zap.Duration("duration", time.Since(start)),
		}
		switch code {
		case codes.OK:
			log.Debug("grpc request", fields...)
		case codes.Internal, codes.Unknown, codes.Unavailable:
			log.Error("grpc request failed", append(fields, zap.Error(err))...)
		default:
			log.Info("grpc request rejected", append(fields, zap.Error(err))...)
		}
		return resp, err
	}
}
