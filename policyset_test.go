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

package buspolicy_test

import (
	"sync"
	"testing"

	policy "arideha.dev/buspolicy"
)

// TestUserAllowOverridesDefaultWildcardDeny covers a default-tier
// deny-all-own overridden by a user-tier allow, both inserted into the
// bus-wide ownership store (per-peer scoping is covered by
// TestPeerPolicyMergesUserLayer).
func TestUserAllowOverridesDefaultWildcardDeny(t *testing.T) {
	ps := policy.NewPolicySet()
	ps.Ownership.SetWildcard(true, 1<<32|0)       // context=default tier
	ps.Ownership.AddName("com.x", false, 2<<32|1) // user=1000 tier

	if !ps.OwnershipCheck("com.x") {
		t.Fatal("user-scoped allow should win over default-scoped wildcard deny")
	}
	if ps.OwnershipCheck("com.y") {
		t.Fatal("unrelated name should fall through to the wildcard deny")
	}
}

// TestPrefixDenyMatchesDottedChildOnly covers a bare prefix deny.
func TestPrefixDenyMatchesDottedChildOnly(t *testing.T) {
	ps := policy.NewPolicySet()
	ps.Ownership.AddPrefix("com.x", true, 1)

	if ps.OwnershipCheck("com.x.y") {
		t.Fatal("com.x.y should be denied by the com.x prefix rule")
	}
	if !ps.OwnershipCheck("com.xy") {
		t.Fatal("com.xy must not match the com.x prefix rule")
	}
}

// TestMandatoryDenyDominatesUserAllow covers a mandatory deny-all
// overriding a per-user allow-all.
func TestMandatoryDenyDominatesUserAllow(t *testing.T) {
	ps := policy.NewPolicySet()
	ps.Connection.AddUID(1000, false, 2<<32|0)  // user=1000 tier, allow
	ps.Connection.SetUIDWildcard(true, 5<<32|1) // context=mandatory tier, deny-all

	if ps.ConnectionCheck(1000, nil) {
		t.Fatal("mandatory deny must dominate a per-user allow")
	}
}

// TestPeerPolicyMergesUserLayer covers the actual per-connection merge:
// the user=1000 ownership layer is kept separate from the bus-wide
// default layer until PeerPolicy merges them for a specific peer.
func TestPeerPolicyMergesUserLayer(t *testing.T) {
	ps := policy.NewPolicySet()
	ps.Ownership.SetWildcard(true, 1<<32|0) // context=default tier

	userLayer := policy.NewOwnershipPolicy()
	userLayer.AddName("com.x", false, 2<<32|1) // user=1000 tier
	ps.OwnershipByUID[1000] = userLayer

	peer1000 := ps.PeerPolicy(1000, nil)
	if !peer1000.OwnershipCheck("com.x") {
		t.Fatal("uid 1000 should be allowed to own com.x")
	}
	if peer1000.OwnershipCheck("com.y") {
		t.Fatal("uid 1000 should fall through to the default deny for an unrelated name")
	}

	otherPeer := ps.PeerPolicy(2000, nil)
	if otherPeer.OwnershipCheck("com.x") {
		t.Fatal("a peer outside the user=1000 context must not inherit its allow rule")
	}
}

func TestDirectionsAreIndependent(t *testing.T) {
	ps := policy.NewPolicySet()
	ps.Send.AddEntry(nil, policy.TransmissionPolicyEntry{
		Decision: policy.PolicyDecision{Deny: true, Priority: 1},
	})

	if ps.TransmissionCheck(nil, policy.TransmissionRequest{}, policy.DirectionSend) {
		t.Fatal("send policy should deny")
	}
	if !ps.TransmissionCheck(nil, policy.TransmissionRequest{}, policy.DirectionReceive) {
		t.Fatal("receive policy is untouched and should still allow")
	}
}

func TestManagerSwapIsAtomicForReaders(t *testing.T) {
	m := policy.NewManager()
	if !m.Current().OwnershipCheck("com.example") {
		t.Fatal("initial manager policy set should allow")
	}

	denied := policy.NewPolicySet()
	denied.Ownership.SetWildcard(true, 1)
	m.Swap(denied)

	if m.Current().OwnershipCheck("com.example") {
		t.Fatal("swapped-in policy set should deny")
	}
}

func TestManagerConcurrentReadsDuringSwap(t *testing.T) {
	m := policy.NewManager()

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_ = m.Current().OwnershipCheck("com.example")
		}()
	}
	m.Swap(policy.NewPolicySet())
	wg.Wait()
}
