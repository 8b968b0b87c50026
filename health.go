package loom

import (
	"context"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/danpasecinic/loom/internal/errs"
)

type HealthStatus string

const (
	HealthStatusUp   HealthStatus = "up"
	HealthStatusDown HealthStatus = "down"
)

type HealthReport struct {
	Name    string
	Status  HealthStatus
	Error   error
	Latency time.Duration
}

type HealthChecker interface {
	HealthCheck(ctx context.Context) error
}

type ReadinessChecker interface {
	ReadinessCheck(ctx context.Context) error
}

// Live fails with the first component whose health check fails. Only
// singletons that are already built are checked.
func (c *Container) Live(ctx context.Context) error {
	return firstDown(c.Health(ctx))
}

func (c *Container) Ready(ctx context.Context) error {
	return firstDown(c.check(ctx, func(obj any) (func(context.Context) error, bool) {
		rc, ok := obj.(ReadinessChecker)
		if !ok {
			return nil, false
		}
		return rc.ReadinessCheck, true
	}))
}

// Health runs every health check concurrently and reports them by name.
func (c *Container) Health(ctx context.Context) []HealthReport {
	return c.check(ctx, func(obj any) (func(context.Context) error, bool) {
		hc, ok := obj.(HealthChecker)
		if !ok {
			return nil, false
		}
		return hc.HealthCheck, true
	})
}

func (c *Container) check(
	ctx context.Context,
	pick func(obj any) (func(context.Context) error, bool),
) []HealthReport {
	var reports []HealthReport
	var mu sync.Mutex
	var wg sync.WaitGroup

	for _, name := range c.internal.SingletonNames() {
		obj, ok := c.internal.Singleton(name)
		if !ok {
			continue
		}

		probe, ok := pick(obj)
		if !ok {
			continue
		}

		wg.Add(1)
		go func(name string, probe func(context.Context) error) {
			defer wg.Done()

			start := time.Now()
			err := probe(ctx)
			report := HealthReport{
				Name:    name,
				Status:  HealthStatusUp,
				Latency: time.Since(start),
			}
			if err != nil {
				report.Status = HealthStatusDown
				report.Error = err
			}

			mu.Lock()
			reports = append(reports, report)
			mu.Unlock()
		}(name, probe)
	}

	wg.Wait()
	slices.SortFunc(reports, func(a, b HealthReport) int {
		return strings.Compare(a.Name, b.Name)
	})
	return reports
}

func firstDown(reports []HealthReport) error {
	for _, r := range reports {
		if r.Status == HealthStatusDown {
			return errs.New(errs.CodeUnknown, "health check failed", r.Error).WithComponent(r.Name)
		}
	}
	return nil
}
