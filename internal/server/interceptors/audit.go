package interceptors

import (
	"context"
	"net"
	"strings"

	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/metadata"
	"google.golang.org/grpc/peer"
	"google.golang.org/grpc/status"

	"workforce-console/backend/internal/audit"
	auditdomain "workforce-console/backend/internal/audit/domain"
)

// AuditUnary returns a unary server interceptor that records RPCs refused with
// Unauthenticated or PermissionDenied. Accepted calls are audited by the services
// themselves. Calls without an org are recorded under audit.SentinelOrgID.
func AuditUnary(rec audit.Recorder, skipMethods map[string]bool) grpc.UnaryServerInterceptor {
	return func(ctx context.Context, req interface{}, info *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (interface{}, error) {
		resp, err := handler(ctx, req)
		if rec == nil || skipMethods[info.FullMethod] {
			return resp, err
		}
		code := status.Code(err)
		if code != codes.Unauthenticated && code != codes.PermissionDenied {
			return resp, err
		}
		orgID, _ := GetOrgID(ctx)
		if orgID == "" {
			orgID = audit.SentinelOrgID
		}
		ar := audit.ParseFullMethod(info.FullMethod)
		rec.Record(ctx, audit.Entry{
			OrgID:    orgID,
			Action:   ar.Action,
			Resource: ar.Resource,
			Outcome:  auditdomain.OutcomeRejected,
			Metadata: map[string]string{
				"full_method": info.FullMethod,
				"code":        code.String(),
				"message":     status.Convert(err).Message(),
			},
		})
		return resp, err
	}
}

// ClientIP returns the client IP from gRPC metadata (x-forwarded-for, x-real-ip) or peer, or "unknown".
func ClientIP(ctx context.Context) string {
	if md, ok := metadata.FromIncomingContext(ctx); ok {
		if vals := md.Get("x-forwarded-for"); len(vals) > 0 {
			if s := strings.TrimSpace(vals[0]); s != "" {
				if i := strings.Index(s, ","); i > 0 {
					s = strings.TrimSpace(s[:i])
				}
				return s
			}
		}
		if vals := md.Get("x-real-ip"); len(vals) > 0 {
			if s := strings.TrimSpace(vals[0]); s != "" {
				return s
			}
		}
	}
	if p, ok := peer.FromContext(ctx); ok && p.Addr != nil {
		if host, _, err := net.SplitHostPort(p.Addr.String()); err == nil {
			return host
		}
		return p.Addr.String()
	}
	return "unknown"
}
