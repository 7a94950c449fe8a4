// Package health probes the server's dependencies and reports them through the standard
// grpc.health.v1 service.
package health

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"
	grpchealth "google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"

	"workforce-console/backend/internal/logger"
)

// Pinger checks connectivity (e.g. *sql.DB).
type Pinger interface {
	PingContext(ctx context.Context) error
}

// PolicyChecker checks that the policy engine answers (e.g. *engine.OPAEvaluator).
type PolicyChecker interface {
	HealthCheck(ctx context.Context) error
}

// Check is one named readiness probe.
type Check struct {
	Name  string
	Probe func(ctx context.Context) error
}

// PingCheck adapts p. A nil p yields a check that always passes.
func PingCheck(name string, p Pinger) Check {
	return Check{Name: name, Probe: func(ctx context.Context) error {
		if p == nil {
			return nil
		}
		return p.PingContext(ctx)
	}}
}

// PolicyCheck adapts p. A nil p yields a check that always passes.
func PolicyCheck(name string, p PolicyChecker) Check {
	return Check{Name: name, Probe: func(ctx context.Context) error {
		if p == nil {
			return nil
		}
		return p.HealthCheck(ctx)
	}}
}

// Checker runs readiness probes and publishes the result for a set of gRPC services.
type Checker struct {
	checks   []Check
	timeout  time.Duration
	services []string
	log      *zap.Logger
}

// NewChecker returns a Checker over checks. services are the names whose serving status
// follows the probes; "" (overall server health) is always included.
func NewChecker(checks []Check, services []string, timeout time.Duration, log *zap.Logger) *Checker {
	if timeout <= 0 {
		timeout = 2 * time.Second
	}
	return &Checker{
		checks:   checks,
		timeout:  timeout,
		services: append([]string{""}, services...),
		log:      logger.OrNop(log).Named("health"),
	}
}

// Run executes every probe and returns their failures joined.
func (c *Checker) Run(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()
	var errs []error
	for _, chk := range c.checks {
		if err := chk.Probe(ctx); err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", chk.Name, err))
		}
	}
	return errors.Join(errs...)
}

// Update runs the probes once and sets the serving status of every service on hs.
func (c *Checker) Update(ctx context.Context, hs *grpchealth.Server) healthpb.HealthCheckResponse_ServingStatus {
	st := healthpb.HealthCheckResponse_SERVING
	if err := c.Run(ctx); err != nil {
		c.log.Warn("readiness probe failed", zap.Error(err))
		st = healthpb.HealthCheckResponse_NOT_SERVING
	}
	for _, svc := range c.services {
		hs.SetServingStatus(svc, st)
	}
	return st
}

// Watch updates hs every interval until ctx is done.
func (c *Checker) Watch(ctx context.Context, hs *grpchealth.Server, interval time.Duration) {
	if interval <= 0 {
		interval = 15 * time.Second
	}
	c.Update(ctx, hs)
	t := time.NewTicker(interval)
	defer t.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-t.C:
			c.Update(ctx, hs)
		}
	}
}
