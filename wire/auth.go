// Copyright (C) 2025, Lux Industries Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package wire

import (
	"crypto/hmac"
	"crypto/sha256"
	"crypto/subtle"
)

// TagLen is a configurable MAC tag length: 8 or 16 bytes (spec §6).
type TagLen int

const (
	Tag8  TagLen = 8
	Tag16 TagLen = 16
)

// Keyring is the pluggable MAC primitive the spec treats as a black
// box exposing key init, clear, compute, and constant-time verify
// (spec §6). The concrete algorithm is intentionally not part of the
// core's contract — swapping Keyring implementations must not touch
// any engine.
type Keyring interface {
	// Compute returns a tag of length n over (sender, typ, payload).
	Compute(sender ModuleID, typ Type, payload []byte, n TagLen) []byte
	// Verify reports whether tag authenticates (sender, typ, payload)
	// in constant time.
	Verify(sender ModuleID, typ Type, payload []byte, tag []byte) bool
	// Clear wipes any key material held by the keyring.
	Clear()
}

// hmacKeyring is the default Keyring, an HMAC-SHA256 tag truncated to
// the configured length. This is the one place in fieldmesh that
// reaches for the standard library's crypto primitives rather than a
// pack dependency: the spec's MAC contract is a symmetric,
// constant-time tag check over a handful of bytes, and none of the
// example pack's signature libraries (BLS, ringtail/PQ, circl) offer a
// symmetric MAC of this shape — they solve a different problem
// (asymmetric signing with public verification), and §1 scopes
// authentication down to exactly a pluggable tag check.
type hmacKeyring struct {
	key []byte
}

// NewHMACKeyring returns a Keyring backed by HMAC-SHA256 over key.
func NewHMACKeyring(key []byte) Keyring {
	k := make([]byte, len(key))
	copy(k, key)
	return &hmacKeyring{key: k}
}

func (h *hmacKeyring) Compute(sender ModuleID, typ Type, payload []byte, n TagLen) []byte {
	mac := hmac.New(sha256.New, h.key)
	mac.Write([]byte{byte(sender), byte(typ)})
	mac.Write(payload)
	sum := mac.Sum(nil)
	return sum[:int(n)]
}

func (h *hmacKeyring) Verify(sender ModuleID, typ Type, payload []byte, tag []byte) bool {
	want := h.Compute(sender, typ, payload, TagLen(len(tag)))
	return subtle.ConstantTimeCompare(want, tag) == 1
}

func (h *hmacKeyring) Clear() {
	for i := range h.key {
		h.key[i] = 0
	}
	h.key = nil
}

// RequiredSet tracks which message types must carry a MAC tag when a
// Keyring is attached. Vote, Proposal, and Inhibit default to required
// (spec §6's "vote, proposal, and emergency messages default to
// required"); Inhibit is treated as the emergency class here since it
// is the mutual-exclusion primitive.
type RequiredSet map[Type]bool

// DefaultRequiredSet returns the spec's default required-auth set.
func DefaultRequiredSet() RequiredSet {
	return RequiredSet{
		TypeProposal: true,
		TypeVote:     true,
		TypeInhibit:  true,
	}
}

// Authenticator appends/validates a trailing MAC tag on the wire
// types in its RequiredSet. A nil Keyring makes Authenticator a no-op
// pass-through, matching "when an auth keyring is attached" (spec §6) —
// most of the core runs with no keyring at all.
type Authenticator struct {
	Keyring  Keyring
	Required RequiredSet
	TagLen   TagLen
}

// NewAuthenticator returns an Authenticator with the default required
// set and an 8-byte tag, the minimum spec §6 allows.
func NewAuthenticator(kr Keyring) *Authenticator {
	return &Authenticator{Keyring: kr, Required: DefaultRequiredSet(), TagLen: Tag8}
}

// Seal appends a MAC tag to msg if typ is in the required set and a
// keyring is attached; otherwise it returns msg unchanged.
func (a *Authenticator) Seal(sender ModuleID, typ Type, msg []byte) []byte {
	if a == nil || a.Keyring == nil || !a.Required[typ] {
		return msg
	}
	tag := a.Keyring.Compute(sender, typ, msg, a.TagLen)
	return append(append([]byte{}, msg...), tag...)
}

// Open validates and strips a trailing MAC tag from msg if typ is in
// the required set and a keyring is attached. A verification failure
// is reported via the bool return; the core must drop such messages
// silently per spec §7.
func (a *Authenticator) Open(sender ModuleID, typ Type, msg []byte) ([]byte, bool) {
	if a == nil || a.Keyring == nil || !a.Required[typ] {
		return msg, true
	}
	n := int(a.TagLen)
	if len(msg) < n {
		return nil, false
	}
	body, tag := msg[:len(msg)-n], msg[len(msg)-n:]
	if !a.Keyring.Verify(sender, typ, body, tag) {
		return nil, false
	}
	return body, true
}
