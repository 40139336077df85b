// Copyright (C) 2025, Lux Industries, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

// Package health defines the health-report shapes a module arena
// exposes over whatever transport a deployment wires up (an HTTP
// handler, a log line, a ZeroMQ reply) — the shapes themselves carry
// no transport opinion.
package health

import (
	"context"
	"time"
)

// Checker runs a health check and returns an arbitrary result.
type Checker interface {
	HealthCheck(context.Context) (interface{}, error)
}

// Checkable reports its own health.
type Checkable interface {
	Health(context.Context) (interface{}, error)
}

// Report is the top-level result of running every registered check.
type Report struct {
	Healthy  bool                   `json:"healthy"`
	Checks   []Check                `json:"checks,omitempty"`
	Details  map[string]interface{} `json:"details,omitempty"`
	Duration time.Duration          `json:"duration"`
}

// Check is one named health check's result.
type Check struct {
	Name     string                 `json:"name"`
	Healthy  bool                   `json:"healthy"`
	Error    string                 `json:"error,omitempty"`
	Details  map[string]interface{} `json:"details,omitempty"`
	Duration time.Duration          `json:"duration"`
}
