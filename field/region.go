// Copyright (C) 2025, Lux Industries Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package field

import (
	"sync/atomic"

	"github.com/luxfi/fieldmesh/errs"
	"github.com/luxfi/fieldmesh/fixedpoint"
)

// MaxModules bounds the field region's slot table, one slot per
// possible ModuleID (spec §3's id space is a single byte).
const MaxModules = 256

// maxSampleAttempts is the retrying-read bound of spec §4.2: a reader
// that races three consecutive writer updates gives up rather than
// spin indefinitely.
const maxSampleAttempts = 3

// slot holds one module's published field behind a seqlock. The
// sequence counter is even when the slot is quiescent and odd while a
// writer is publishing; readers bracket their copy with two loads of
// seq and discard the read if either the count is odd or the two
// loads disagree (spec §9: "acquire/release atomics on the sequence
// counter, fences around the payload copy, no mutex substitution").
//
// The payload fields are themselves individually atomic so that a
// racing reader/writer pair never observes a torn 32- or 64-bit word;
// the seqlock's job is purely to guarantee the *composite* of all
// fields is self-consistent, which a single atomic access per field
// cannot provide on its own.
type slot struct {
	seq atomic.Uint32

	components [NumComponents]atomic.Int32
	timestamp  atomic.Uint64
	source     atomic.Uint32
	sequence   atomic.Uint32
}

// store writes f under the seqlock. A zero-value slot has
// source==InvalidModule, so an unpublished slot reads as invalid with
// no separate occupancy flag needed (spec §3's "invalid module id"
// sentinel).
func (s *slot) store(f Field) {
	s.seq.Add(1) // now odd: publish in progress
	for i := range f.Components {
		s.components[i].Store(int32(f.Components[i]))
	}
	s.timestamp.Store(f.TimestampUS)
	s.source.Store(uint32(f.Source))
	s.sequence.Store(uint32(f.Sequence))
	s.seq.Add(1) // now even: publish complete
}

// invalidate marks the slot as not holding a live field by storing
// InvalidModule as its source, under the same seqlock discipline as a
// normal publish (spec §4.2's garbage collection pass).
func (s *slot) invalidate() {
	s.seq.Add(1)
	s.source.Store(uint32(InvalidModule))
	s.seq.Add(1)
}

// load performs a single consistent-read attempt, returning ok=false
// if a concurrent writer was observed mid-publish.
func (s *slot) load() (Field, bool) {
	before := s.seq.Load()
	if before&1 != 0 {
		return Field{}, false
	}
	var f Field
	for i := range f.Components {
		f.Components[i] = fixedpoint.Q16(s.components[i].Load())
	}
	f.TimestampUS = s.timestamp.Load()
	f.Source = ModuleID(s.source.Load())
	f.Sequence = uint8(s.sequence.Load())
	after := s.seq.Load()
	if before != after {
		return Field{}, false
	}
	return f, true
}

// Region is the process-wide shared field table of spec §4.2, indexed
// by ModuleID. A single Region is shared by every module arena in the
// process; modules on other machines never see it directly — only the
// Field wire message crosses the HAL boundary (spec §5).
type Region struct {
	slots [MaxModules]slot
}

// NewRegion allocates an empty field region.
func NewRegion() *Region {
	return &Region{}
}

// Publish writes f into the slot for f.Source. Publish is the single
// writer path for a given module id; concurrent publishes to the
// *same* slot from multiple goroutines are not supported, matching
// the spec's "one module owns one slot" ownership model (spec §4.2).
func (r *Region) Publish(f Field) {
	r.slots[f.Source].store(f)
}

// Sample performs one consistent-read attempt of the slot for id. ok
// is false if the slot has never been published or a writer was
// caught mid-publish.
func (r *Region) Sample(id ModuleID) (Field, bool) {
	s := &r.slots[id]
	f, ok := s.load()
	if !ok || f.Source == InvalidModule {
		return Field{}, false
	}
	return f, true
}

// RetryingSample retries Sample up to maxSampleAttempts times, the
// bound spec §4.2 places on a reader racing a writer before it must
// give up and report BUSY rather than spin unbounded on an embedded
// target with no fairness guarantee from the scheduler.
func (r *Region) RetryingSample(id ModuleID) (Field, error) {
	s := &r.slots[id]
	for attempt := 0; attempt < maxSampleAttempts; attempt++ {
		f, ok := s.load()
		if !ok {
			continue
		}
		if f.Source == InvalidModule {
			return Field{}, errs.New(errs.NotFound, "field.RetryingSample")
		}
		return f, nil
	}
	return Field{}, errs.New(errs.Busy, "field.RetryingSample")
}

// GC invalidates every slot whose TimestampUS is older than
// nowUS-maxAgeUS, reclaiming slots for modules that have left the mesh
// by setting their source to InvalidModule under the seqlock (spec
// §4.2's garbage collection pass, run once per tick by each module's
// tick loop when FieldMaxAgeUS is set).
func (r *Region) GC(nowUS uint64, maxAgeUS uint64) {
	for i := range r.slots {
		s := &r.slots[i]
		f, ok := s.load()
		if !ok || f.Source == InvalidModule {
			continue
		}
		if nowUS-f.TimestampUS > maxAgeUS {
			s.invalidate()
		}
	}
}
