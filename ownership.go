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

import "strings"

// OwnershipPolicy decides whether a peer may acquire ownership of a
// bus name, such as "org.freedesktop.systemd1".
//
// A zero-value OwnershipPolicy allows every name, since CheckAllowed
// folds from Neutral.
type OwnershipPolicy struct {
	names    map[string]PolicyDecision
	prefixes map[string]PolicyDecision
	wildcard PolicyDecision
}

// NewOwnershipPolicy returns an empty, fully-allowing OwnershipPolicy.
func NewOwnershipPolicy() *OwnershipPolicy {
	return &OwnershipPolicy{
		names:    make(map[string]PolicyDecision),
		prefixes: make(map[string]PolicyDecision),
	}
}

// AddName inserts or updates the decision for an exact bus name. If an
// entry for name already exists, the higher-priority decision is
// retained (ties favor the new one).
func (p *OwnershipPolicy) AddName(name string, deny bool, priority uint64) {
	candidate := PolicyDecision{Deny: deny, Priority: priority}
	p.names[name] = MergeDecision(p.names[name], candidate)
}

// AddPrefix inserts or updates the decision for a dotted name prefix.
// A prefix "a.b" matches names "a.b", "a.b.c", and "a.b.c.d", but
// never "a.bc". Duplicate-handling matches AddName.
func (p *OwnershipPolicy) AddPrefix(prefix string, deny bool, priority uint64) {
	candidate := PolicyDecision{Deny: deny, Priority: priority}
	p.prefixes[prefix] = MergeDecision(p.prefixes[prefix], candidate)
}

// SetWildcard sets the decision applied to every name, subject to the
// same duplicate-handling rule as AddName.
func (p *OwnershipPolicy) SetWildcard(deny bool, priority uint64) {
	p.wildcard = MergeDecision(p.wildcard, PolicyDecision{Deny: deny, Priority: priority})
}

// CheckAllowed computes whether name may be acquired. It starts from
// the wildcard decision, merges in an exact match, then merges in
// every dotted prefix of name (including name itself as its own
// prefix), then scanning left to right: "a.b.c" is checked against the
// prefix keys "a.b.c", "a", and "a.b", in that order.
func (p *OwnershipPolicy) CheckAllowed(name string) bool {
	decision := p.wildcard

	if entry, ok := p.names[name]; ok {
		decision = MergeDecision(decision, entry)
	}

	for _, candidate := range ownershipPrefixes(name) {
		if entry, ok := p.prefixes[candidate]; ok {
			decision = MergeDecision(decision, entry)
		}
	}

	return !decision.IsDenied()
}

// mergeInto folds every rule in p into dst, as if each had been
// inserted into dst directly via AddName/AddPrefix/SetWildcard. Used
// to compose the bus-wide default/mandatory layer with a peer's
// matching user=/group= layers into one effective OwnershipPolicy.
func (p *OwnershipPolicy) mergeInto(dst *OwnershipPolicy) {
	dst.SetWildcard(p.wildcard.Deny, p.wildcard.Priority)
	for name, entry := range p.names {
		dst.AddName(name, entry.Deny, entry.Priority)
	}
	for prefix, entry := range p.prefixes {
		dst.AddPrefix(prefix, entry.Deny, entry.Priority)
	}
}

// ownershipPrefixes enumerates the candidate prefix keys for name, in
// the same left-to-right order the original dbus-broker source scans
// them: name itself, then the text up to each '.' boundary.
func ownershipPrefixes(name string) []string {
	prefixes := make([]string, 0, strings.Count(name, ".")+1)
	prefixes = append(prefixes, name)
	for i := 0; i < len(name); i++ {
		if name[i] == '.' {
			prefixes = append(prefixes, name[:i])
		}
	}
	return prefixes
}
