// Copyright (C) 2025, Lux Industries Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package module

import (
	"github.com/luxfi/fieldmesh/field"
	"github.com/luxfi/fieldmesh/wire"
)

// HAL is the abstract hardware/platform contract the tick loop
// consumes (spec §6): a monotonic microsecond clock, non-blocking
// broadcast/unicast send, non-blocking receive, a memory barrier, a
// pointer to the process-wide field region, the platform name, and
// this module's hardware-derived id. Concrete collaborators
// (hal/simhal, hal/zmqhal) implement this against an in-process bus
// or a ZeroMQ transport respectively.
type HAL interface {
	// NowUS returns the current monotonic time in microseconds since
	// an arbitrary origin, consistent across one HAL instance.
	NowUS() uint64

	// Send transmits payload to dest (or wire.BroadcastModule) tagged
	// with typ. Non-blocking: implementations queue or drop rather
	// than wait.
	Send(dest wire.ModuleID, typ wire.Type, payload []byte) error

	// Recv returns the next queued inbound message, or ok=false if
	// none is pending. Never blocks.
	Recv() (sender wire.ModuleID, typ wire.Type, payload []byte, ok bool)

	// Barrier issues a memory barrier around the shared field region,
	// matching spec §9's "fences around the payload copy" contract at
	// the HAL boundary.
	Barrier()

	// Region returns the process-wide field region this HAL instance
	// is wired to.
	Region() *field.Region

	// Platform names the concrete HAL implementation, for diagnostics.
	Platform() string

	// SelfID returns this module's hardware-derived id.
	SelfID() wire.ModuleID
}
