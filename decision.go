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

// Package buspolicy implements the policy decision core of a
// D-Bus-compatible message bus broker: it answers whether a peer may
// connect, whether a peer may own a bus name, and whether a message may
// flow between two peers. The core is a pure function of a frozen
// policy set and the request parameters; it never blocks and never
// mutates shared state after a PolicySet has been published via a
// Manager (see policyset.go).
//
// Loading a policy document from disk lives in the loader subpackage;
// this package only defines the data model and the decision algorithm.
package buspolicy

// PolicyDecision is the unit of every policy answer: a boolean outcome
// paired with the priority of the rule that produced it. Higher
// Priority values dominate lower ones regardless of the order in which
// decisions are merged.
type PolicyDecision struct {
	// Deny is the outcome: false means allow.
	Deny bool
	// Priority encodes the precedence of the context the decision's
	// rule was declared in, plus its position within that context.
	// See the loader package for how a document maps to priorities.
	Priority uint64
}

// Neutral is the decision every policy store starts from: allow, at
// the lowest possible priority. A policy set with no rules at all
// therefore allows everything, per the documented default.
var Neutral = PolicyDecision{Deny: false, Priority: 0}

// MergeDecision folds candidate into current: candidate replaces
// current iff candidate.Priority is greater than or equal to
// current.Priority, i.e. a higher-priority rule always wins and a
// tie goes to the candidate. ConnectionPolicy and OwnershipPolicy use
// this single rule to resolve duplicate insertions (see connection.go,
// ownership.go), and every policy store uses it to fold the entries
// that match a query (TransmissionPolicy keeps every inserted entry and
// merges only at query time), so insert-time and query-time precedence
// can never disagree.
func MergeDecision(current, candidate PolicyDecision) PolicyDecision {
	if candidate.Priority >= current.Priority {
		return candidate
	}
	return current
}

// IsDenied reports the boolean outcome of a decision.
func (d PolicyDecision) IsDenied() bool {
	return d.Deny
}
