// Package server assembles the gRPC server: interceptors, telemetry, health and RosterService.
package server

import (
	"go.opentelemetry.io/contrib/instrumentation/google.golang.org/grpc/otelgrpc"
	"go.uber.org/zap"
	"google.golang.org/grpc"
	grpchealth "google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"

	workforcev1 "workforce-console/backend/api/workforce/v1"
	"workforce-console/backend/internal/audit"
	"workforce-console/backend/internal/logger"
	rosterhandler "workforce-console/backend/internal/roster/handler"
	"workforce-console/backend/internal/server/interceptors"
)

const healthCheckMethod = "/grpc.health.v1.Health/Check"

// Deps holds the server's dependencies.
type Deps struct {
	// Roster wires RosterService.
	Roster rosterhandler.Deps
	// Verifier checks session tokens. Required.
	Verifier interceptors.SessionVerifier
	// Audit records refused RPCs. Nil disables interceptor auditing.
	Audit audit.Recorder
	Log   *zap.Logger
}

// publicMethods do not require a session token.
func publicMethods() map[string]bool {
	return map[string]bool{healthCheckMethod: true}
}

// quietMethods are neither access-logged nor audited.
func quietMethods() map[string]bool {
	return map[string]bool{healthCheckMethod: true}
}

// NewGRPCServer builds a server with the interceptor chain and registers every service.
// The returned health server starts out NOT_SERVING until a readiness probe updates it.
func NewGRPCServer(deps Deps, opts ...grpc.ServerOption) (*grpc.Server, *grpchealth.Server) {
	log := logger.OrNop(deps.Log)
	var rec audit.Recorder = audit.Nop{}
	if deps.Audit != nil {
		rec = deps.Audit
	}
	base := []grpc.ServerOption{
		grpc.StatsHandler(otelgrpc.NewServerHandler()),
		grpc.ChainUnaryInterceptor(
			interceptors.LoggingUnary(log, quietMethods()),
			interceptors.AuthUnary(deps.Verifier, publicMethods()),
			interceptors.AuditUnary(rec, quietMethods()),
		),
	}
	s := grpc.NewServer(append(base, opts...)...)
	return s, RegisterServices(s, deps)
}

// RegisterServices registers RosterService and grpc.health.v1 with s.
//
// Service → handler mapping:
//   - workforce.v1.RosterService → internal/roster/handler
//   - grpc.health.v1.Health      → google.golang.org/grpc/health, driven by internal/health
func RegisterServices(s grpc.ServiceRegistrar, deps Deps) *grpchealth.Server {
	if deps.Roster.Log == nil {
		deps.Roster.Log = deps.Log
	}
	workforcev1.RegisterRosterServiceServer(s, rosterhandler.NewServer(deps.Roster))

	hs := grpchealth.NewServer()
	hs.SetServingStatus("", healthpb.HealthCheckResponse_NOT_SERVING)
	hs.SetServingStatus(workforcev1.RosterService_ServiceName, healthpb.HealthCheckResponse_NOT_SERVING)
	healthpb.RegisterHealthServer(s, hs)
	return hs
}
