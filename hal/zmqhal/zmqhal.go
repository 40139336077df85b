// Copyright (C) 2025, Lux Industries Inc. All rights reserved.
// See the file LICENSE for licensing terms.

// Package zmqhal is a ZeroMQ-backed HAL: broadcasts go out over a
// PUB socket and are received on a SUB socket subscribed to every
// peer; unicast sends (votes, addressed to a ballot's proposer) go
// over a DEALER/ROUTER pair. It is grounded on the PUB/SUB +
// ROUTER/DEALER shape of utils/networking/zmq4/transport.go,
// reimplemented directly against github.com/pebbe/zmq4 rather than
// the teacher's internal github.com/luxfi/zmq4 wrapper.
package zmqhal

import (
	"fmt"
	"sync"
	"time"

	zmq "github.com/pebbe/zmq4"

	"github.com/luxfi/fieldmesh/field"
	"github.com/luxfi/fieldmesh/module"
	"github.com/luxfi/fieldmesh/wire"
)

// Peer names where to dial to reach another module.
type Peer struct {
	ID        wire.ModuleID
	PubAddr   string // e.g. "tcp://10.0.0.2:5556"
	RouterAddr string // e.g. "tcp://10.0.0.2:6556"
}

// Config configures one module's ZeroMQ endpoints.
type Config struct {
	Self wire.ModuleID

	// PubBind is the local address this module's PUB socket binds to
	// for broadcasting (heartbeats, discovery, field, proposal,
	// inhibit, reform, shutdown messages).
	PubBind string

	// RouterBind is the local address this module's ROUTER socket
	// binds to for receiving unicast sends (votes).
	RouterBind string

	Peers []Peer
}

// HAL is a ZeroMQ transport implementation of module.HAL.
type HAL struct {
	cfg    Config
	region *field.Region
	start  time.Time

	ctx *zmq.Context
	pub *zmq.Socket
	sub *zmq.Socket
	rtr *zmq.Socket

	mu      sync.Mutex
	dealers map[wire.ModuleID]*zmq.Socket
	routes  map[wire.ModuleID]string // ROUTER identity string per peer

	recvMu sync.Mutex
	inbox  []queued
}

type queued struct {
	sender  wire.ModuleID
	typ     wire.Type
	payload []byte
}

// New creates and starts a ZeroMQ HAL bound to cfg's local endpoints,
// dialing every peer's PUB and ROUTER sockets. The returned HAL shares
// region with every other HAL on this process (normally there is
// exactly one module per process, so region is usually private, but
// sharing it costs nothing and simplifies single-process multi-module
// testing).
func New(cfg Config, region *field.Region) (*HAL, error) {
	ctx, err := zmq.NewContext()
	if err != nil {
		return nil, fmt.Errorf("zmqhal: new context: %w", err)
	}

	pub, err := ctx.NewSocket(zmq.PUB)
	if err != nil {
		return nil, fmt.Errorf("zmqhal: new pub socket: %w", err)
	}
	if err := pub.Bind(cfg.PubBind); err != nil {
		return nil, fmt.Errorf("zmqhal: bind pub %s: %w", cfg.PubBind, err)
	}

	sub, err := ctx.NewSocket(zmq.SUB)
	if err != nil {
		return nil, fmt.Errorf("zmqhal: new sub socket: %w", err)
	}
	if err := sub.SetSubscribe(""); err != nil {
		return nil, fmt.Errorf("zmqhal: subscribe: %w", err)
	}

	rtr, err := ctx.NewSocket(zmq.ROUTER)
	if err != nil {
		return nil, fmt.Errorf("zmqhal: new router socket: %w", err)
	}
	if err := rtr.SetIdentity(fmt.Sprintf("%d", cfg.Self)); err != nil {
		return nil, fmt.Errorf("zmqhal: set router identity: %w", err)
	}
	if err := rtr.Bind(cfg.RouterBind); err != nil {
		return nil, fmt.Errorf("zmqhal: bind router %s: %w", cfg.RouterBind, err)
	}

	h := &HAL{
		cfg:     cfg,
		region:  region,
		start:   time.Now(),
		ctx:     ctx,
		pub:     pub,
		sub:     sub,
		rtr:     rtr,
		dealers: make(map[wire.ModuleID]*zmq.Socket),
		routes:  make(map[wire.ModuleID]string),
	}

	for _, p := range cfg.Peers {
		if err := sub.Connect(p.PubAddr); err != nil {
			return nil, fmt.Errorf("zmqhal: connect sub to %s: %w", p.PubAddr, err)
		}

		dealer, err := ctx.NewSocket(zmq.DEALER)
		if err != nil {
			return nil, fmt.Errorf("zmqhal: new dealer socket: %w", err)
		}
		if err := dealer.SetIdentity(fmt.Sprintf("%d", cfg.Self)); err != nil {
			return nil, fmt.Errorf("zmqhal: set dealer identity: %w", err)
		}
		if err := dealer.Connect(p.RouterAddr); err != nil {
			return nil, fmt.Errorf("zmqhal: connect dealer to %s: %w", p.RouterAddr, err)
		}
		h.dealers[p.ID] = dealer
		h.routes[p.ID] = fmt.Sprintf("%d", p.ID)
	}

	return h, nil
}

func (h *HAL) NowUS() uint64 { return uint64(time.Since(h.start).Microseconds()) }

// Send broadcasts payload over PUB when dest is wire.BroadcastModule,
// otherwise routes it to dest's DEALER connection. typ is accepted for
// symmetry with module.HAL but is not used for routing: the type code
// is already the first byte of every encoded payload (spec §6).
func (h *HAL) Send(dest wire.ModuleID, typ wire.Type, payload []byte) error {
	_ = typ
	if dest == wire.BroadcastModule {
		_, err := h.pub.SendBytes(payload, 0)
		return err
	}

	h.mu.Lock()
	dealer, ok := h.dealers[dest]
	h.mu.Unlock()
	if !ok {
		return fmt.Errorf("zmqhal: no route to module %d", dest)
	}
	_, err := dealer.SendBytes(payload, 0)
	return err
}

// Recv drains whatever is immediately available on the SUB and ROUTER
// sockets into the inbox, then pops the oldest queued message. Both
// socket reads use zmq.DONTWAIT so Recv never blocks, matching the
// tick loop's non-blocking drain contract.
func (h *HAL) Recv() (wire.ModuleID, wire.Type, []byte, bool) {
	h.drainSub()
	h.drainRouter()

	h.recvMu.Lock()
	defer h.recvMu.Unlock()
	if len(h.inbox) == 0 {
		return 0, 0, nil, false
	}
	m := h.inbox[0]
	h.inbox = h.inbox[1:]
	return m.sender, m.typ, m.payload, true
}

func (h *HAL) drainSub() {
	for {
		b, err := h.sub.RecvBytes(zmq.DONTWAIT)
		if err != nil {
			return
		}
		h.enqueue(b)
	}
}

func (h *HAL) drainRouter() {
	for {
		frames, err := h.rtr.RecvMessageBytes(zmq.DONTWAIT)
		if err != nil {
			return
		}
		// ROUTER frames: [identity, payload] once the empty delimiter
		// frame DEALER sockets omit has been stripped by libzmq.
		if len(frames) < 2 {
			continue
		}
		h.enqueue(frames[len(frames)-1])
	}
}

func (h *HAL) enqueue(b []byte) {
	typ, err := wire.PeekType(b)
	if err != nil {
		return
	}
	sender, err := wire.PeekSender(b)
	if err != nil {
		return
	}
	if sender == h.cfg.Self {
		return // PUB/SUB delivers our own broadcasts back to us
	}
	h.recvMu.Lock()
	h.inbox = append(h.inbox, queued{sender, typ, b})
	h.recvMu.Unlock()
}

// Barrier issues no explicit fence: every payload this HAL exchanges
// crosses a ZeroMQ socket, which already serializes access through
// its own internal queue, and the shared field region is
// seqlock-protected independently of the HAL.
func (h *HAL) Barrier() {}

func (h *HAL) Region() *field.Region { return h.region }

func (h *HAL) Platform() string { return "zmq4" }

func (h *HAL) SelfID() wire.ModuleID { return h.cfg.Self }

// Close releases every socket and the context.
func (h *HAL) Close() error {
	h.mu.Lock()
	defer h.mu.Unlock()
	for _, d := range h.dealers {
		d.Close()
	}
	h.rtr.Close()
	h.sub.Close()
	h.pub.Close()
	return h.ctx.Term()
}

var _ module.HAL = (*HAL)(nil)
