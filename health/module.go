// Copyright (C) 2025, Lux Industries, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package health

import (
	"context"
	"time"

	"github.com/luxfi/fieldmesh/module"
)

// ModuleCheck runs a single health check against m: unhealthy when the
// module is DEGRADED, ISOLATED, or SHUTDOWN, healthy otherwise.
func ModuleCheck(_ context.Context, m *module.Module) Check {
	start := time.Now()

	state := m.State()
	healthy := true
	switch state {
	case module.StateDegraded, module.StateIsolated, module.StateShutdown:
		healthy = false
	}

	return Check{
		Name:    "module",
		Healthy: healthy,
		Details: map[string]interface{}{
			"state":          state.String(),
			"kset_size":      len(m.KSet()),
			"active_ballots": m.ActiveBallots(),
		},
		Duration: time.Since(start),
	}
}

// ModuleReport runs ModuleCheck and wraps it in a Report.
func ModuleReport(ctx context.Context, m *module.Module) Report {
	start := time.Now()
	check := ModuleCheck(ctx, m)
	return Report{
		Healthy:  check.Healthy,
		Checks:   []Check{check},
		Duration: time.Since(start),
	}
}

var _ Checkable = (*moduleCheckable)(nil)

type moduleCheckable struct{ m *module.Module }

// NewCheckable adapts m to the Checkable interface.
func NewCheckable(m *module.Module) Checkable { return &moduleCheckable{m: m} }

func (c *moduleCheckable) Health(ctx context.Context) (interface{}, error) {
	return ModuleReport(ctx, c.m), nil
}
