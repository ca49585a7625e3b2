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

// ConnectionPolicy decides whether a connecting peer, identified by a
// uid and its supplementary gids, may be admitted to the bus.
//
// A zero-value ConnectionPolicy (no entries, no wildcards) allows
// every peer, since CheckAllowed folds from Neutral.
type ConnectionPolicy struct {
	uids        map[uint32]PolicyDecision
	gids        map[uint32]PolicyDecision
	uidWildcard PolicyDecision
	gidWildcard PolicyDecision
}

// NewConnectionPolicy returns an empty, fully-allowing ConnectionPolicy.
func NewConnectionPolicy() *ConnectionPolicy {
	return &ConnectionPolicy{
		uids: make(map[uint32]PolicyDecision),
		gids: make(map[uint32]PolicyDecision),
	}
}

// AddUID inserts or updates the decision for a single uid. If an entry
// for uid already exists, the higher-priority decision is retained
// (ties favor the new one, via MergeDecision).
func (p *ConnectionPolicy) AddUID(uid uint32, deny bool, priority uint64) {
	candidate := PolicyDecision{Deny: deny, Priority: priority}
	p.uids[uid] = MergeDecision(p.uids[uid], candidate)
}

// AddGID inserts or updates the decision for a single gid, with the
// same duplicate-handling rule as AddUID.
func (p *ConnectionPolicy) AddGID(gid uint32, deny bool, priority uint64) {
	candidate := PolicyDecision{Deny: deny, Priority: priority}
	p.gids[gid] = MergeDecision(p.gids[gid], candidate)
}

// SetUIDWildcard sets the decision applied to every uid, subject to
// the same duplicate-handling rule as AddUID.
func (p *ConnectionPolicy) SetUIDWildcard(deny bool, priority uint64) {
	p.uidWildcard = MergeDecision(p.uidWildcard, PolicyDecision{Deny: deny, Priority: priority})
}

// SetGIDWildcard sets the decision applied to every gid, subject to
// the same duplicate-handling rule as AddUID.
func (p *ConnectionPolicy) SetGIDWildcard(deny bool, priority uint64) {
	p.gidWildcard = MergeDecision(p.gidWildcard, PolicyDecision{Deny: deny, Priority: priority})
}

// CheckAllowed computes whether a peer with the given uid and
// supplementary gids may connect. It starts from the higher-priority
// of the two wildcards, merges in the uid entry if present, then
// merges in every gid entry that matches one of the peer's groups.
//
// Unlike the original dbus-broker source, this checks every
// supplementary gid, not just the uid: the source's
// "XXX: check the groups too" is a documented bug, not the intended
// behavior.
func (p *ConnectionPolicy) CheckAllowed(uid uint32, gids []uint32) bool {
	decision := MergeDecision(p.uidWildcard, p.gidWildcard)

	if entry, ok := p.uids[uid]; ok {
		decision = MergeDecision(decision, entry)
	}

	for _, gid := range gids {
		if entry, ok := p.gids[gid]; ok {
			decision = MergeDecision(decision, entry)
		}
	}

	return !decision.IsDenied()
}
