// Copyright (C) 2025, Lux Industries Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package config

import "errors"

var (
	ErrInvalidK             = errors.New("k must be >= 1")
	ErrMinNeighborsTooHigh  = errors.New("min neighbors must be <= k")
	ErrMinNeighborsTooLow   = errors.New("min neighbors must be >= 1")
	ErrInvalidHeartbeat     = errors.New("heartbeat period must be > 0")
	ErrInvalidTimeoutCount  = errors.New("timeout count must be > suspect threshold")
	ErrInvalidSuspect       = errors.New("suspect threshold must be >= 1")
	ErrInvalidTau           = errors.New("decay tau must be > 0")
	ErrInvalidFieldRange    = errors.New("field min must be < field max")
	ErrInvalidMaxBallots    = errors.New("max ballots must be >= 1")
	ErrInvalidVoteTimeout   = errors.New("vote timeout must be > 0")
	ErrInvalidTaskBudget    = errors.New("task budget must be > 0")
	ErrUnknownProfile       = errors.New("unknown network profile")
)
