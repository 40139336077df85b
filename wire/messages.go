// Copyright (C) 2025, Lux Industries Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package wire

import (
	"fmt"

	"github.com/luxfi/fieldmesh/errs"
)

// Type is the wire message type code (spec §6).
type Type uint8

const (
	TypeHeartbeat Type = 0x01
	TypeDiscovery Type = 0x02
	TypeField     Type = 0x03
	TypeProposal  Type = 0x04
	TypeVote      Type = 0x05
	TypeInhibit   Type = 0x06
	TypeReform    Type = 0x07
	TypeShutdown  Type = 0x08

	// AppTypeMin is the first type code reserved for opaque
	// application messages (spec §6).
	AppTypeMin Type = 0x80
)

// IsApplication reports whether t is an opaque application message,
// unrecognized and undispatched by the core.
func (t Type) IsApplication() bool { return t >= AppTypeMin }

// ModuleID is an 8-bit module identifier. 0 is invalid, 255 is
// broadcast (spec §3).
type ModuleID uint8

const (
	InvalidModule   ModuleID = 0
	BroadcastModule ModuleID = 255
)

// Heartbeat is the 8-byte periodic beacon (spec §6 type 0x01).
type Heartbeat struct {
	Sender          ModuleID
	Seq             uint8
	State           uint8
	NeighborCount   uint8
	LoadPct         uint8
	ThermalPct      uint8
	Flags           uint8
}

const heartbeatWireSize = 8

func (h Heartbeat) Encode() []byte {
	p := NewPacker(heartbeatWireSize)
	p.PackByte(byte(TypeHeartbeat))
	p.PackByte(byte(h.Sender))
	p.PackByte(h.Seq)
	p.PackByte(h.State)
	p.PackByte(h.NeighborCount)
	p.PackByte(h.LoadPct)
	p.PackByte(h.ThermalPct)
	p.PackByte(h.Flags)
	return p.Bytes
}

func DecodeHeartbeat(b []byte) (Heartbeat, error) {
	u := NewUnpacker(b)
	typ := Type(u.UnpackByte())
	h := Heartbeat{
		Sender:        ModuleID(u.UnpackByte()),
		Seq:           u.UnpackByte(),
		State:         u.UnpackByte(),
		NeighborCount: u.UnpackByte(),
		LoadPct:       u.UnpackByte(),
		ThermalPct:    u.UnpackByte(),
		Flags:         u.UnpackByte(),
	}
	if u.Err != nil {
		return Heartbeat{}, errs.Wrap(errs.InvalidArg, "wire.DecodeHeartbeat", u.Err)
	}
	if typ != TypeHeartbeat {
		return Heartbeat{}, errs.Wrap(errs.InvalidArg, "wire.DecodeHeartbeat", fmt.Errorf("type %#x != %#x", typ, TypeHeartbeat))
	}
	return h, nil
}

// Discovery is the discovery beacon (spec §6 type 0x02, <=16 B).
type Discovery struct {
	Sender        ModuleID
	PosX, PosY, PosZ int16
	NeighborCount uint8
	State         uint8
	Seq           uint16
}

func (d Discovery) Encode() []byte {
	p := NewPacker(12)
	p.PackByte(byte(TypeDiscovery))
	p.PackByte(byte(d.Sender))
	p.PackI16(d.PosX)
	p.PackI16(d.PosY)
	p.PackI16(d.PosZ)
	p.PackByte(d.NeighborCount)
	p.PackByte(d.State)
	p.PackU16(d.Seq)
	return p.Bytes
}

func DecodeDiscovery(b []byte) (Discovery, error) {
	u := NewUnpacker(b)
	typ := Type(u.UnpackByte())
	d := Discovery{
		Sender: ModuleID(u.UnpackByte()),
		PosX:   u.UnpackI16(),
		PosY:   u.UnpackI16(),
		PosZ:   u.UnpackI16(),
	}
	d.NeighborCount = u.UnpackByte()
	d.State = u.UnpackByte()
	d.Seq = u.UnpackU16()
	if u.Err != nil {
		return Discovery{}, errs.Wrap(errs.InvalidArg, "wire.DecodeDiscovery", u.Err)
	}
	if typ != TypeDiscovery {
		return Discovery{}, errs.Wrap(errs.InvalidArg, "wire.DecodeDiscovery", fmt.Errorf("type %#x != %#x", typ, TypeDiscovery))
	}
	return d, nil
}

// Proposal is the ballot proposal message (spec §6 type 0x04, <=16 B).
type Proposal struct {
	Proposer  ModuleID
	Ballot    uint16
	ProposalType uint8
	Data      uint32
	Threshold uint32 // Q16.16
}

func (p Proposal) Encode() []byte {
	pk := NewPacker(13)
	pk.PackByte(byte(TypeProposal))
	pk.PackByte(byte(p.Proposer))
	pk.PackU16(p.Ballot)
	pk.PackByte(p.ProposalType)
	pk.PackU32(p.Data)
	pk.PackU32(p.Threshold)
	return pk.Bytes
}

func DecodeProposal(b []byte) (Proposal, error) {
	u := NewUnpacker(b)
	typ := Type(u.UnpackByte())
	p := Proposal{
		Proposer:     ModuleID(u.UnpackByte()),
		Ballot:       u.UnpackU16(),
		ProposalType: u.UnpackByte(),
		Data:         u.UnpackU32(),
		Threshold:    u.UnpackU32(),
	}
	if u.Err != nil {
		return Proposal{}, errs.Wrap(errs.InvalidArg, "wire.DecodeProposal", u.Err)
	}
	if typ != TypeProposal {
		return Proposal{}, errs.Wrap(errs.InvalidArg, "wire.DecodeProposal", fmt.Errorf("type %#x != %#x", typ, TypeProposal))
	}
	return p, nil
}

// VoteKind is the ballot vote enumeration carried in a Vote message.
type VoteKind uint8

const (
	VoteYes VoteKind = iota
	VoteNo
	VoteAbstain
	VoteInhibit
)

// Vote is the ballot vote message (spec §6 type 0x05, <=12 B).
type Vote struct {
	Voter     ModuleID
	Ballot    uint16
	Vote      VoteKind
	Timestamp uint32
}

func (v Vote) Encode() []byte {
	p := NewPacker(9)
	p.PackByte(byte(TypeVote))
	p.PackByte(byte(v.Voter))
	p.PackU16(v.Ballot)
	p.PackByte(byte(v.Vote))
	p.PackU32(v.Timestamp)
	return p.Bytes
}

func DecodeVote(b []byte) (Vote, error) {
	u := NewUnpacker(b)
	typ := Type(u.UnpackByte())
	v := Vote{
		Voter:     ModuleID(u.UnpackByte()),
		Ballot:    u.UnpackU16(),
		Vote:      VoteKind(u.UnpackByte()),
		Timestamp: u.UnpackU32(),
	}
	if u.Err != nil {
		return Vote{}, errs.Wrap(errs.InvalidArg, "wire.DecodeVote", u.Err)
	}
	if typ != TypeVote {
		return Vote{}, errs.Wrap(errs.InvalidArg, "wire.DecodeVote", fmt.Errorf("type %#x != %#x", typ, TypeVote))
	}
	return v, nil
}

// Inhibit is the mutual-inhibition message (spec §6 type 0x06).
type Inhibit struct {
	Sender ModuleID
	Ballot uint16
	Proposer ModuleID // the proposer of the inhibited ballot (§9 open question: proposer+ballot pairing)
}

func (i Inhibit) Encode() []byte {
	p := NewPacker(5)
	p.PackByte(byte(TypeInhibit))
	p.PackByte(byte(i.Sender))
	p.PackU16(i.Ballot)
	p.PackByte(byte(i.Proposer))
	return p.Bytes
}

func DecodeInhibit(b []byte) (Inhibit, error) {
	u := NewUnpacker(b)
	typ := Type(u.UnpackByte())
	i := Inhibit{
		Sender: ModuleID(u.UnpackByte()),
		Ballot: u.UnpackU16(),
	}
	i.Proposer = ModuleID(u.UnpackByte())
	if u.Err != nil {
		return Inhibit{}, errs.Wrap(errs.InvalidArg, "wire.DecodeInhibit", u.Err)
	}
	if typ != TypeInhibit {
		return Inhibit{}, errs.Wrap(errs.InvalidArg, "wire.DecodeInhibit", fmt.Errorf("type %#x != %#x", typ, TypeInhibit))
	}
	return i, nil
}

// Reform is the mesh-reformation trigger (spec §6 type 0x07). It
// carries no payload beyond the type+sender byte pair.
type Reform struct {
	Sender ModuleID
}

func (r Reform) Encode() []byte {
	return []byte{byte(TypeReform), byte(r.Sender)}
}

func DecodeReform(b []byte) (Reform, error) {
	if len(b) < 2 {
		return Reform{}, errs.New(errs.InvalidArg, "wire.DecodeReform")
	}
	if Type(b[0]) != TypeReform {
		return Reform{}, errs.Wrap(errs.InvalidArg, "wire.DecodeReform", fmt.Errorf("type %#x != %#x", b[0], TypeReform))
	}
	return Reform{Sender: ModuleID(b[1])}, nil
}

// Shutdown is the graceful shutdown signal (spec §6 type 0x08).
type Shutdown struct {
	Sender ModuleID
}

func (s Shutdown) Encode() []byte {
	return []byte{byte(TypeShutdown), byte(s.Sender)}
}

func DecodeShutdown(b []byte) (Shutdown, error) {
	if len(b) < 2 {
		return Shutdown{}, errs.New(errs.InvalidArg, "wire.DecodeShutdown")
	}
	if Type(b[0]) != TypeShutdown {
		return Shutdown{}, errs.Wrap(errs.InvalidArg, "wire.DecodeShutdown", fmt.Errorf("type %#x != %#x", b[0], TypeShutdown))
	}
	return Shutdown{Sender: ModuleID(b[1])}, nil
}

// PeekType returns the message type code without validating or
// decoding the rest of the payload, used by HAL implementations
// (hal/zmqhal) to report a received message's type.
func PeekType(b []byte) (Type, error) {
	if len(b) < 1 {
		return 0, errs.New(errs.InvalidArg, "wire.PeekType")
	}
	return Type(b[0]), nil
}

// PeekSender returns the sending module's id, which is always the
// second byte of every core message type (spec §6's layouts are
// consistent on this point).
func PeekSender(b []byte) (ModuleID, error) {
	if len(b) < 2 {
		return 0, errs.New(errs.InvalidArg, "wire.PeekSender")
	}
	return ModuleID(b[1]), nil
}
