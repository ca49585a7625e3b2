// Copyright 2026 The Buspolicy Authors
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package buspolicy

import "sync"

// Direction distinguishes a send (outbound) transmission check from a
// receive (inbound) one. The loader populates two separate
// TransmissionPolicy instances, one per Direction.
type Direction int

const (
	DirectionSend Direction = iota
	DirectionReceive
)

// NameSet is the read-only view PolicySet consumes from the name
// registry (an external collaborator not implemented by this
// package): the set of bus names a peer currently primary-owns.
// Secondary (queued) ownerships must not be included.
type NameSet interface {
	PrimaryNames() []string
}

// namesOf adapts a NameSet to the []string TransmissionPolicy expects,
// treating a nil NameSet as "the subject is the driver" (nil slice,
// which TransmissionPolicy.CheckAllowed maps to DriverName).
func namesOf(ns NameSet) []string {
	if ns == nil {
		return nil
	}
	return ns.PrimaryNames()
}

// PolicySet bundles one ConnectionPolicy, one OwnershipPolicy, and two
// TransmissionPolicy instances (Send/Receive) into the complete
// decision surface for a single bus. Ownership and Send/Receive here
// hold only the context="default", context="mandatory", and at_console
// layers (bus-wide, peer-independent); the ByUID/ByGID maps hold the
// additional layers scoped to a single user=/group= context, keyed by
// the uid or gid named in that context's attribute. A PolicySet, once
// constructed, is never mutated by queries; only the loader mutates
// it, strictly before it is published via a Manager.
type PolicySet struct {
	Connection *ConnectionPolicy
	Ownership  *OwnershipPolicy
	Send       *TransmissionPolicy
	Receive    *TransmissionPolicy

	OwnershipByUID map[uint32]*OwnershipPolicy
	OwnershipByGID map[uint32]*OwnershipPolicy
	SendByUID      map[uint32]*TransmissionPolicy
	SendByGID      map[uint32]*TransmissionPolicy
	ReceiveByUID   map[uint32]*TransmissionPolicy
	ReceiveByGID   map[uint32]*TransmissionPolicy
}

// NewPolicySet returns an empty, fully-allowing PolicySet.
func NewPolicySet() *PolicySet {
	return &PolicySet{
		Connection: NewConnectionPolicy(),
		Ownership:  NewOwnershipPolicy(),
		Send:       NewTransmissionPolicy(),
		Receive:    NewTransmissionPolicy(),

		OwnershipByUID: make(map[uint32]*OwnershipPolicy),
		OwnershipByGID: make(map[uint32]*OwnershipPolicy),
		SendByUID:      make(map[uint32]*TransmissionPolicy),
		SendByGID:      make(map[uint32]*TransmissionPolicy),
		ReceiveByUID:   make(map[uint32]*TransmissionPolicy),
		ReceiveByGID:   make(map[uint32]*TransmissionPolicy),
	}
}

// ConnectionCheck answers "may this peer connect?".
func (ps *PolicySet) ConnectionCheck(uid uint32, gids []uint32) bool {
	return ps.Connection.CheckAllowed(uid, gids)
}

// OwnershipCheck answers "may this peer own this name?".
func (ps *PolicySet) OwnershipCheck(name string) bool {
	return ps.Ownership.CheckAllowed(name)
}

// TransmissionCheck answers "may this message flow?". owned is the
// peer opposite the subject being evaluated (for a send check, the
// intended receiver; for a receive check, the sender); a nil owned
// denotes the broker itself.
func (ps *PolicySet) TransmissionCheck(owned NameSet, req TransmissionRequest, dir Direction) bool {
	policy := ps.Send
	if dir == DirectionReceive {
		policy = ps.Receive
	}
	return policy.CheckAllowed(namesOf(owned), req)
}

// PeerPolicy is the per-connection merged view of a PolicySet's
// ownership and transmission layers for one specific peer's uid and
// gids: the bus-wide default/mandatory layers folded together with
// whichever user=<uid>/group=<gid> layers match that peer. Its
// CheckAllowed-shaped methods take no identity argument because the
// identity-scoping already happened during the merge, matching the
// check_allowed(name)-only and check_allowed(subject, ...) contracts
// of OwnershipPolicy and TransmissionPolicy themselves.
//
// The original dbus-broker source (policy.c) checks rules against a
// Policy already selected for the connecting peer; the per-connection
// selection and merge step itself lives elsewhere in that codebase
// (peer/connection setup, not policy.c) and is reconstructed here as
// PolicySet.PeerPolicy.
type PeerPolicy struct {
	Ownership *OwnershipPolicy
	Send      *TransmissionPolicy
	Receive   *TransmissionPolicy
}

// OwnershipCheck answers "may this peer own this name?" using the
// merged, peer-scoped ownership layer.
func (pp *PeerPolicy) OwnershipCheck(name string) bool {
	return pp.Ownership.CheckAllowed(name)
}

// TransmissionCheck answers "may this message flow?" using the merged,
// peer-scoped transmission layer for dir.
func (pp *PeerPolicy) TransmissionCheck(owned NameSet, req TransmissionRequest, dir Direction) bool {
	policy := pp.Send
	if dir == DirectionReceive {
		policy = pp.Receive
	}
	return policy.CheckAllowed(namesOf(owned), req)
}

// PeerPolicy builds the effective ownership and transmission policies
// for a peer with the given uid and supplementary gids, by folding the
// bus-wide default/mandatory layers together with every
// user=<uid>/group=<gid> layer that matches. The result is a fresh,
// independent PeerPolicy; ps itself is never mutated.
func (ps *PolicySet) PeerPolicy(uid uint32, gids []uint32) *PeerPolicy {
	merged := &PeerPolicy{
		Ownership: NewOwnershipPolicy(),
		Send:      NewTransmissionPolicy(),
		Receive:   NewTransmissionPolicy(),
	}

	ps.Ownership.mergeInto(merged.Ownership)
	ps.Send.mergeInto(merged.Send)
	ps.Receive.mergeInto(merged.Receive)

	if o, ok := ps.OwnershipByUID[uid]; ok {
		o.mergeInto(merged.Ownership)
	}
	if s, ok := ps.SendByUID[uid]; ok {
		s.mergeInto(merged.Send)
	}
	if r, ok := ps.ReceiveByUID[uid]; ok {
		r.mergeInto(merged.Receive)
	}

	for _, gid := range gids {
		if o, ok := ps.OwnershipByGID[gid]; ok {
			o.mergeInto(merged.Ownership)
		}
		if s, ok := ps.SendByGID[gid]; ok {
			s.mergeInto(merged.Send)
		}
		if r, ok := ps.ReceiveByGID[gid]; ok {
			r.mergeInto(merged.Receive)
		}
	}

	return merged
}

// Manager holds the currently-published PolicySet behind a
// sync.RWMutex, as an RWMutex-guarded snapshot: readers take
// a brief RLock to obtain the live *PolicySet and then query it
// without holding any lock, while Swap installs a freshly loaded
// PolicySet for future readers. Old PolicySets are freed once no
// reader still holds the pointer it returned, which Go's garbage
// collector handles without any explicit epoch bookkeeping.
type Manager struct {
	mu      sync.RWMutex
	current *PolicySet
}

// NewManager returns a Manager initially publishing an empty, fully
// allowing PolicySet.
func NewManager() *Manager {
	return &Manager{current: NewPolicySet()}
}

// Current returns the currently published PolicySet. Safe to call
// concurrently with Swap.
func (m *Manager) Current() *PolicySet {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.current
}

// Swap atomically replaces the published PolicySet. Readers that
// already hold a *PolicySet from a prior Current call keep querying
// the old, immutable set; only subsequent Current calls observe ps.
func (m *Manager) Swap(ps *PolicySet) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.current = ps
}
