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

package loader

import (
	"fmt"
	"log/slog"

	"github.com/hashicorp/hcl/v2"

	policy "arideha.dev/buspolicy"
	"arideha.dev/buspolicy/internal/identity"
)

func resolveUID(s string) (uint32, error) { return identity.ResolveUID(s) }
func resolveGID(s string) (uint32, error) { return identity.ResolveGID(s) }

// ownershipStore returns the OwnershipPolicy a rule declared under sel
// should be added to: the bus-wide default/mandatory/console layer, or
// a lazily-created per-uid/per-gid layer.
func ownershipStore(ps *policy.PolicySet, sel selector) *policy.OwnershipPolicy {
	switch sel.kind {
	case "user":
		if p, ok := ps.OwnershipByUID[sel.uid]; ok {
			return p
		}
		p := policy.NewOwnershipPolicy()
		ps.OwnershipByUID[sel.uid] = p
		return p
	case "group":
		if p, ok := ps.OwnershipByGID[sel.gid]; ok {
			return p
		}
		p := policy.NewOwnershipPolicy()
		ps.OwnershipByGID[sel.gid] = p
		return p
	default:
		return ps.Ownership
	}
}

func sendStore(ps *policy.PolicySet, sel selector) *policy.TransmissionPolicy {
	switch sel.kind {
	case "user":
		if p, ok := ps.SendByUID[sel.uid]; ok {
			return p
		}
		p := policy.NewTransmissionPolicy()
		ps.SendByUID[sel.uid] = p
		return p
	case "group":
		if p, ok := ps.SendByGID[sel.gid]; ok {
			return p
		}
		p := policy.NewTransmissionPolicy()
		ps.SendByGID[sel.gid] = p
		return p
	default:
		return ps.Send
	}
}

func receiveStore(ps *policy.PolicySet, sel selector) *policy.TransmissionPolicy {
	switch sel.kind {
	case "user":
		if p, ok := ps.ReceiveByUID[sel.uid]; ok {
			return p
		}
		p := policy.NewTransmissionPolicy()
		ps.ReceiveByUID[sel.uid] = p
		return p
	case "group":
		if p, ok := ps.ReceiveByGID[sel.gid]; ok {
			return p
		}
		p := policy.NewTransmissionPolicy()
		ps.ReceiveByGID[sel.gid] = p
		return p
	default:
		return ps.Receive
	}
}

// dispatchRule reads a single allow/deny rule's attributes (already
// collected forgivingly via JustAttributes) and adds the entries it
// describes to the appropriate policy store(s). Unrecognized attribute
// names are logged at Debug and otherwise ignored, so that a document
// written against a newer attribute vocabulary still loads; a
// recognized attribute with an unusable value is an InvalidDocument.
func dispatchRule(ps *policy.PolicySet, sel selector, isDeny bool, priority uint64, attrs hcl.Attributes) error {
	recognized := false

	for name, attr := range attrs {
		switch name {
		case "own", "own_prefix", "user", "group",
			"send_destination", "send_interface", "send_member", "send_error", "send_path", "send_type",
			"receive_sender", "receive_interface", "receive_member", "receive_error", "receive_path", "receive_type":
		default:
			slog.Debug("ignoring unrecognized rule attribute",
				slog.String("attribute", name),
				slog.String("file", attr.Range.Filename),
				slog.Int("line", attr.Range.Start.Line))
		}
	}

	if attr, ok := attrs["own"]; ok {
		recognized = true
		s, err := attrString(attr)
		if err != nil {
			return err
		}
		store := ownershipStore(ps, sel)
		if s == "*" {
			store.SetWildcard(isDeny, priority)
		} else {
			store.AddName(s, isDeny, priority)
		}
	}
	if attr, ok := attrs["own_prefix"]; ok {
		recognized = true
		s, err := attrString(attr)
		if err != nil {
			return err
		}
		ownershipStore(ps, sel).AddPrefix(s, isDeny, priority)
	}

	if attr, ok := attrs["user"]; ok {
		recognized = true
		s, err := attrString(attr)
		if err != nil {
			return err
		}
		uid, err := resolveUID(s)
		if err != nil {
			return invalidDocument(attr.Range, err.Error())
		}
		ps.Connection.AddUID(uid, isDeny, priority)
	}
	if attr, ok := attrs["group"]; ok {
		recognized = true
		s, err := attrString(attr)
		if err != nil {
			return err
		}
		gid, err := resolveGID(s)
		if err != nil {
			return invalidDocument(attr.Range, err.Error())
		}
		ps.Connection.AddGID(gid, isDeny, priority)
	}

	decision := policy.PolicyDecision{Deny: isDeny, Priority: priority}

	sendName, sendEntry, haveSend, err := buildTransmissionEntry(attrs, "send_destination", "send_interface", "send_member", "send_error", "send_path", "send_type")
	if err != nil {
		return err
	}
	if haveSend {
		recognized = true
		sendEntry.Decision = decision
		sendStore(ps, sel).AddEntry(sendName, sendEntry)
	}

	receiveName, receiveEntry, haveReceive, err := buildTransmissionEntry(attrs, "receive_sender", "receive_interface", "receive_member", "receive_error", "receive_path", "receive_type")
	if err != nil {
		return err
	}
	if haveReceive {
		recognized = true
		receiveEntry.Decision = decision
		receiveStore(ps, sel).AddEntry(receiveName, receiveEntry)
	}

	if !recognized {
		// A bare allow/deny with no recognized attribute is a connection
		// rule implicitly scoped by the enclosing selector, e.g. a bare
		// deny under "context = mandatory" denies every connection.
		switch sel.kind {
		case "user":
			ps.Connection.AddUID(sel.uid, isDeny, priority)
		case "group":
			ps.Connection.AddGID(sel.gid, isDeny, priority)
		default:
			ps.Connection.SetUIDWildcard(isDeny, priority)
			ps.Connection.SetGIDWildcard(isDeny, priority)
		}
	}

	return nil
}

// buildTransmissionEntry collects the name key and filter fields for
// one direction (send or receive) into a TransmissionPolicyEntry.
// keyAttr is the name-key attribute (send_destination/receive_sender,
// "*" or absent meaning the wildcard list); the rest are interface/
// member/error/path/type filters in that fixed order.
func buildTransmissionEntry(attrs hcl.Attributes, keyAttr, ifaceAttr, memberAttr, errorAttr, pathAttr, typeAttr string) (*string, policy.TransmissionPolicyEntry, bool, error) {
	var entry policy.TransmissionPolicyEntry
	var name *string
	have := false

	if attr, ok := attrs[keyAttr]; ok {
		have = true
		s, err := attrString(attr)
		if err != nil {
			return nil, entry, false, err
		}
		if s != "*" {
			name = &s
		}
	}
	if attr, ok := attrs[ifaceAttr]; ok {
		have = true
		s, err := attrString(attr)
		if err != nil {
			return nil, entry, false, err
		}
		entry.Interface = &s
	}
	if attr, ok := attrs[memberAttr]; ok {
		have = true
		s, err := attrString(attr)
		if err != nil {
			return nil, entry, false, err
		}
		entry.Member = &s
	}
	if attr, ok := attrs[errorAttr]; ok {
		have = true
		s, err := attrString(attr)
		if err != nil {
			return nil, entry, false, err
		}
		entry.Error = &s
	}
	if attr, ok := attrs[pathAttr]; ok {
		have = true
		s, err := attrString(attr)
		if err != nil {
			return nil, entry, false, err
		}
		entry.Path = &s
	}
	if attr, ok := attrs[typeAttr]; ok {
		have = true
		s, err := attrString(attr)
		if err != nil {
			return nil, entry, false, err
		}
		t, err := messageTypeFromString(s)
		if err != nil {
			return nil, entry, false, invalidDocument(attr.Range, err.Error())
		}
		entry.Type = t
	}

	return name, entry, have, nil
}

func messageTypeFromString(s string) (policy.MessageType, error) {
	switch s {
	case "", "any":
		return policy.MessageTypeAny, nil
	case "method_call":
		return policy.MessageTypeMethodCall, nil
	case "method_return":
		return policy.MessageTypeMethodReturn, nil
	case "signal":
		return policy.MessageTypeSignal, nil
	case "error":
		return policy.MessageTypeError, nil
	default:
		return policy.MessageTypeAny, fmt.Errorf("unknown message type %q", s)
	}
}
