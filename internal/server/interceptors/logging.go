package interceptors

import (
	"context"
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"workforce-console/backend/internal/logger"
)

// LoggingUnary returns a unary server interceptor that logs every RPC with its status code
// and latency. Server-side failures log at error level, client errors at warn.
func LoggingUnary(log *zap.Logger, skipMethods map[string]bool) grpc.UnaryServerInterceptor {
	log = logger.OrNop(log).Named("grpc")
	return func(ctx context.Context, req interface{}, info *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (interface{}, error) {
		start := time.Now()
		resp, err := handler(ctx, req)
		if skipMethods[info.FullMethod] {
			return resp, err
		}
		code := status.Code(err)
		orgID, _ := GetOrgID(ctx)
		userID, _ := GetUserID(ctx)
		fields := []zap.Field{
			zap.String("method", info.FullMethod),
			zap.String("code", code.String()),
			zap.Duration("duration", time.Since(start)),
			zap.String("org_id", orgID),
			zap.String("user_id", userID),
			zap.String("client_ip", ClientIP(ctx)),
		}
		logger.WithTrace(ctx, log).Check(levelFor(code), "rpc").Write(append(fields, zap.Error(err))...)
		return resp, err
	}
}

func levelFor(code codes.Code) zapcore.Level {
	switch code {
	case codes.OK:
		return zapcore.InfoLevel
	case codes.Internal, codes.Unknown, codes.DataLoss, codes.Unavailable, codes.DeadlineExceeded:
		return zapcore.ErrorLevel
	default:
		return zapcore.WarnLevel
	}
}
