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

// MessageType is a small enumeration of D-Bus message kinds a
// transmission rule may restrict itself to. The zero value, Any,
// matches every message type, the same way an absent field on a
// TransmissionPolicyEntry acts as a wildcard for that field.
type MessageType int

const (
	// MessageTypeAny matches every message type.
	MessageTypeAny MessageType = iota
	MessageTypeMethodCall
	MessageTypeMethodReturn
	MessageTypeSignal
	MessageTypeError
)

// DriverName is the synthetic bus name used for transmission checks
// whose subject is the broker itself rather than a connected peer.
const DriverName = "org.freedesktop.DBus"

// TransmissionPolicyEntry is a single allow/deny rule for messages,
// keyed (outside of this type) by the owner name of the peer opposite
// the subject. Every field below is optional; a nil field acts as a
// wildcard for that field.
type TransmissionPolicyEntry struct {
	Interface *string
	Member    *string
	Error     *string
	Path      *string
	// Type, if non-zero, must equal the request's type exactly.
	Type     MessageType
	Decision PolicyDecision
}

// TransmissionRequest describes the message a transmission check is
// evaluating.
type TransmissionRequest struct {
	Interface string
	Member    string
	Error     string
	Path      string
	Type      MessageType
}

func (e TransmissionPolicyEntry) matches(req TransmissionRequest) bool {
	if e.Interface != nil && *e.Interface != req.Interface {
		return false
	}
	if e.Member != nil && *e.Member != req.Member {
		return false
	}
	if e.Error != nil && *e.Error != req.Error {
		return false
	}
	if e.Path != nil && *e.Path != req.Path {
		return false
	}
	if e.Type != MessageTypeAny && e.Type != req.Type {
		return false
	}
	return true
}

// TransmissionPolicy decides whether a message matching a given
// interface, member, error name, object path, and type may flow
// to or from a peer identified by the bus name(s) it owns.
//
// A zero-value TransmissionPolicy allows every message, since
// CheckAllowed folds from Neutral.
type TransmissionPolicy struct {
	byName   map[string][]TransmissionPolicyEntry
	wildcard []TransmissionPolicyEntry
}

// NewTransmissionPolicy returns an empty, fully-allowing
// TransmissionPolicy.
func NewTransmissionPolicy() *TransmissionPolicy {
	return &TransmissionPolicy{byName: make(map[string][]TransmissionPolicyEntry)}
}

// AddEntry appends a rule. If name is non-nil the rule applies only to
// messages keyed by that bus name; otherwise it applies regardless of
// name. Entries for the same name (or the wildcard list) are
// evaluated in insertion order, but since CheckAllowed merges by
// priority, insertion order only breaks ties between same-priority
// entries.
func (p *TransmissionPolicy) AddEntry(name *string, entry TransmissionPolicyEntry) {
	if name == nil {
		p.wildcard = append(p.wildcard, entry)
		return
	}
	p.byName[*name] = append(p.byName[*name], entry)
}

// mergeInto folds every rule in p into dst, as if each had been
// inserted into dst directly via AddEntry. Used to compose the
// bus-wide default/mandatory layer with a peer's matching user=/
// group= layers into one effective TransmissionPolicy.
func (p *TransmissionPolicy) mergeInto(dst *TransmissionPolicy) {
	for name, entries := range p.byName {
		name := name
		for _, entry := range entries {
			dst.AddEntry(&name, entry)
		}
	}
	for _, entry := range p.wildcard {
		dst.AddEntry(nil, entry)
	}
}

// CheckAllowed computes whether a message matching req may flow,
// given the set of bus names currently primary-owned by the opposite
// peer (ownedNames). A nil ownedNames means the opposite party is the
// broker itself, represented by DriverName.
//
// Every entry in every relevant per-name list is folded in, followed
// by every entry in the wildcard list, by priority.
func (p *TransmissionPolicy) CheckAllowed(ownedNames []string, req TransmissionRequest) bool {
	decision := Neutral

	names := ownedNames
	if names == nil {
		names = []string{DriverName}
	}

	for _, name := range names {
		for _, entry := range p.byName[name] {
			if entry.Decision.Priority < decision.Priority {
				continue
			}
			if !entry.matches(req) {
				continue
			}
			decision = MergeDecision(decision, entry.Decision)
		}
	}

	for _, entry := range p.wildcard {
		if entry.Decision.Priority < decision.Priority {
			continue
		}
		if !entry.matches(req) {
			continue
		}
		decision = MergeDecision(decision, entry.Decision)
	}

	return !decision.IsDenied()
}
