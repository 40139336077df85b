// Copyright (C) 2025, Lux Industries Inc. All rights reserved.
// See the file LICENSE for licensing terms.

// Package simhal is an in-process HAL implementation: every module on
// the bus shares one field.Region directly and exchanges wire
// messages through per-peer inbox queues rather than a real network.
// It stands in for cmd/consensus/simulator.go's in-process simulation
// harness, generalized from a single-round voting loop to the
// continuous per-module tick loop module.Module drives.
package simhal

import (
	"context"
	"sync"

	"golang.org/x/sync/errgroup"

	"github.com/luxfi/fieldmesh/field"
	"github.com/luxfi/fieldmesh/module"
	"github.com/luxfi/fieldmesh/wire"
)

// Bus is the shared transport and field region joining a set of
// simulated modules. The zero value is not usable; construct with
// NewBus.
type Bus struct {
	region *field.Region

	mu      sync.Mutex
	nowUS   uint64
	peers   map[wire.ModuleID]*HAL
	dropped uint64
}

// NewBus allocates an empty bus with its own field region.
func NewBus() *Bus {
	return &Bus{region: field.NewRegion(), peers: make(map[wire.ModuleID]*HAL)}
}

// Join registers a new module id on the bus and returns its HAL
// handle. Join is not safe to call concurrently with Advance.
func (b *Bus) Join(id wire.ModuleID) *HAL {
	h := &HAL{id: id, bus: b}
	b.mu.Lock()
	b.peers[id] = h
	b.mu.Unlock()
	return h
}

// Advance sets the bus-wide simulated clock, read by every joined
// HAL's NowUS. The caller drives time explicitly rather than the bus
// tracking wall-clock time, so a simulation can run arbitrarily faster
// or slower than real time.
func (b *Bus) Advance(nowUS uint64) {
	b.mu.Lock()
	b.nowUS = nowUS
	b.mu.Unlock()
}

// Dropped reports the number of sends discarded because their
// destination was never joined (spec §7: a HAL send failure is
// non-fatal, the caller just never observes delivery).
func (b *Bus) Dropped() uint64 {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.dropped
}

// Region returns the bus's shared field region.
func (b *Bus) Region() *field.Region { return b.region }

type queued struct {
	sender  wire.ModuleID
	typ     wire.Type
	payload []byte
}

// HAL is one module's handle onto a Bus.
type HAL struct {
	id  wire.ModuleID
	bus *Bus

	mu    sync.Mutex
	inbox []queued
}

func (h *HAL) NowUS() uint64 {
	h.bus.mu.Lock()
	defer h.bus.mu.Unlock()
	return h.bus.nowUS
}

// Send delivers payload to dest's inbox, or to every other joined
// peer if dest is wire.BroadcastModule. A destination that was never
// joined is silently dropped and counted, matching a real network's
// unacknowledged-broadcast semantics.
func (h *HAL) Send(dest wire.ModuleID, typ wire.Type, payload []byte) error {
	cp := append([]byte(nil), payload...)

	h.bus.mu.Lock()
	var targets []*HAL
	if dest == wire.BroadcastModule {
		for id, peer := range h.bus.peers {
			if id == h.id {
				continue
			}
			targets = append(targets, peer)
		}
	} else if peer, ok := h.bus.peers[dest]; ok {
		targets = append(targets, peer)
	} else {
		h.bus.dropped++
	}
	h.bus.mu.Unlock()

	for _, peer := range targets {
		peer.mu.Lock()
		peer.inbox = append(peer.inbox, queued{h.id, typ, cp})
		peer.mu.Unlock()
	}
	return nil
}

func (h *HAL) Recv() (wire.ModuleID, wire.Type, []byte, bool) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if len(h.inbox) == 0 {
		return 0, 0, nil, false
	}
	m := h.inbox[0]
	h.inbox = h.inbox[1:]
	return m.sender, m.typ, m.payload, true
}

// Barrier is a no-op: every field access in this package already goes
// through the seqlock-protected field.Region, which provides its own
// acquire/release ordering independent of the HAL.
func (h *HAL) Barrier() {}

func (h *HAL) Region() *field.Region { return h.bus.region }

func (h *HAL) Platform() string { return "sim" }

func (h *HAL) SelfID() wire.ModuleID { return h.id }

var _ module.HAL = (*HAL)(nil)

// Run drives every module's tick loop once per periodUS of simulated
// time until ctx is cancelled, advancing the shared bus clock before
// each round so NowUS stays consistent across all modules firing that
// round. Modules tick concurrently via errgroup, matching the
// concurrent-per-node loop cmd/consensus/simulator.go ran serially in
// its single-process round loop.
func Run(ctx context.Context, bus *Bus, mods []*module.Module, periodUS uint64) error {
	now := uint64(0)
	for {
		select {
		case <-ctx.Done():
			return nil
		default:
		}

		now += periodUS
		bus.Advance(now)

		g, _ := errgroup.WithContext(ctx)
		for _, m := range mods {
			m := m
			g.Go(func() error {
				return m.Tick(now)
			})
		}
		if err := g.Wait(); err != nil {
			return err
		}
	}
}
