// Copyright (C) 2025, Lux Industries Inc. All rights reserved.
// See the file LICENSE for licensing terms.

// Package wire implements the packed, little-endian wire messages of
// spec §6: Heartbeat, Discovery, Field, Proposal, Vote, Inhibit,
// Reform, Shutdown. Encoders and decoders treat the wire as a byte
// stream, never a memory image, per spec §9.
package wire

import "fmt"

// Packer builds a little-endian byte stream. Once Err is set every
// further Pack* call is a no-op, so callers can chain a sequence of
// packs and check Err once at the end instead of after every field.
type Packer struct {
	Bytes []byte
	Err   error
}

// NewPacker returns a Packer with capacity hinted by size.
func NewPacker(size int) *Packer {
	return &Packer{Bytes: make([]byte, 0, size)}
}

func (p *Packer) PackByte(b byte) {
	if p.Err != nil {
		return
	}
	p.Bytes = append(p.Bytes, b)
}

func (p *Packer) PackBytes(b []byte) {
	if p.Err != nil {
		return
	}
	p.Bytes = append(p.Bytes, b...)
}

// PackU16 packs a uint16 little-endian.
func (p *Packer) PackU16(v uint16) {
	if p.Err != nil {
		return
	}
	p.Bytes = append(p.Bytes, byte(v), byte(v>>8))
}

// PackI16 packs an int16 little-endian.
func (p *Packer) PackI16(v int16) {
	p.PackU16(uint16(v))
}

// PackU32 packs a uint32 little-endian.
func (p *Packer) PackU32(v uint32) {
	if p.Err != nil {
		return
	}
	p.Bytes = append(p.Bytes, byte(v), byte(v>>8), byte(v>>16), byte(v>>24))
}

// PackI32 packs an int32 little-endian.
func (p *Packer) PackI32(v int32) {
	p.PackU32(uint32(v))
}

// Unpacker reads a little-endian byte stream produced by Packer.
// Once Err is set, every further Unpack* call returns the zero value
// and leaves the offset unchanged.
type Unpacker struct {
	Bytes  []byte
	Offset int
	Err    error
}

// NewUnpacker wraps b for reading.
func NewUnpacker(b []byte) *Unpacker {
	return &Unpacker{Bytes: b}
}

func (u *Unpacker) need(n int) bool {
	if u.Err != nil {
		return false
	}
	if u.Offset+n > len(u.Bytes) {
		u.Err = fmt.Errorf("wire: short read: need %d bytes at offset %d, have %d", n, u.Offset, len(u.Bytes))
		return false
	}
	return true
}

func (u *Unpacker) UnpackByte() byte {
	if !u.need(1) {
		return 0
	}
	b := u.Bytes[u.Offset]
	u.Offset++
	return b
}

func (u *Unpacker) UnpackBytes(n int) []byte {
	if !u.need(n) {
		return nil
	}
	b := u.Bytes[u.Offset : u.Offset+n]
	u.Offset += n
	return b
}

func (u *Unpacker) UnpackU16() uint16 {
	if !u.need(2) {
		return 0
	}
	v := uint16(u.Bytes[u.Offset]) | uint16(u.Bytes[u.Offset+1])<<8
	u.Offset += 2
	return v
}

func (u *Unpacker) UnpackI16() int16 {
	return int16(u.UnpackU16())
}

func (u *Unpacker) UnpackU32() uint32 {
	if !u.need(4) {
		return 0
	}
	v := uint32(u.Bytes[u.Offset]) | uint32(u.Bytes[u.Offset+1])<<8 |
		uint32(u.Bytes[u.Offset+2])<<16 | uint32(u.Bytes[u.Offset+3])<<24
	u.Offset += 4
	return v
}

func (u *Unpacker) UnpackI32() int32 {
	return int32(u.UnpackU32())
}

// Remaining returns the number of unread bytes.
func (u *Unpacker) Remaining() int {
	return len(u.Bytes) - u.Offset
}
