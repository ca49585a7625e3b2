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

package loader_test

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	policy "arideha.dev/buspolicy"
	"arideha.dev/buspolicy/loader"
)

func TestLoadBytesEmptyDocumentAllowsEverything(t *testing.T) {
	ps, err := loader.LoadBytes(nil, "empty.hcl")
	require.NoError(t, err)
	assert.True(t, ps.ConnectionCheck(1000, nil))
	assert.True(t, ps.OwnershipCheck("com.example.Service"))
}

func TestLoadMissingFileIsNotAnError(t *testing.T) {
	ps, err := loader.Load(filepath.Join(t.TempDir(), "does-not-exist.hcl"))
	require.NoError(t, err)
	assert.True(t, ps.OwnershipCheck("com.example.Service"))
}

// TestUserAllowOverridesDefaultDeny covers a default deny-all-own
// overridden for a single user, loaded from an actual document.
func TestUserAllowOverridesDefaultDeny(t *testing.T) {
	doc := `
policy {
  context = "default"
  deny { own = "*" }
}

policy {
  user = "1000"
  allow { own = "com.x" }
}
`
	ps, err := loader.LoadBytes([]byte(doc), "user-allow.hcl")
	require.NoError(t, err)

	peer := ps.PeerPolicy(1000, nil)
	assert.True(t, peer.OwnershipCheck("com.x"), "uid 1000 should own com.x")
	assert.False(t, peer.OwnershipCheck("com.y"), "unrelated name falls through to default deny")

	other := ps.PeerPolicy(2000, nil)
	assert.False(t, other.OwnershipCheck("com.x"), "uid 2000 must not inherit uid 1000's allow")
}

// TestMandatoryTransmissionDenyOverridesDefaultAllow covers a mandatory
// transmission deny overriding a default allow.
func TestMandatoryTransmissionDenyOverridesDefaultAllow(t *testing.T) {
	doc := `
policy {
  context = "default"
  allow { send_interface = "*" }
}

policy {
  context = "mandatory"
  deny { send_interface = "org.secret" }
}
`
	ps, err := loader.LoadBytes([]byte(doc), "mandatory-deny.hcl")
	require.NoError(t, err)

	allowed := ps.TransmissionCheck(nil, policy.TransmissionRequest{Interface: "org.secret", Member: "X"}, policy.DirectionSend)
	assert.False(t, allowed, "mandatory deny on org.secret should dominate the default allow")
}

// TestPrefixDenyMatchesDottedChildOnly covers a bare prefix deny.
func TestPrefixDenyMatchesDottedChildOnly(t *testing.T) {
	doc := `
policy {
  deny { own_prefix = "com.x" }
}
`
	ps, err := loader.LoadBytes([]byte(doc), "prefix-deny.hcl")
	require.NoError(t, err)

	assert.False(t, ps.OwnershipCheck("com.x.y"))
	assert.True(t, ps.OwnershipCheck("com.xy"))
}

// TestMandatoryDenyDominatesUserAllow covers a mandatory deny-all
// overriding a per-user allow-all, using bare (empty-attribute) rules.
func TestMandatoryDenyDominatesUserAllow(t *testing.T) {
	doc := `
policy {
  user = "1000"
  allow {}
}

policy {
  context = "mandatory"
  deny {}
}
`
	ps, err := loader.LoadBytes([]byte(doc), "mandatory-vs-user.hcl")
	require.NoError(t, err)

	assert.False(t, ps.ConnectionCheck(1000, nil), "mandatory deny must dominate a per-user allow")
}

func TestLoadUnknownTopLevelBlockIsInvalidDocument(t *testing.T) {
	doc := `
not_a_policy {
  allow { own = "*" }
}
`
	_, err := loader.LoadBytes([]byte(doc), "bad.hcl")
	require.Error(t, err)
	assert.Equal(t, policy.KindInvalidDocument, policy.GetKind(err))
}

func TestLoadUnknownRuleAttributeIsForgiving(t *testing.T) {
	doc := `
policy {
  allow {
    own          = "com.example.Service"
    future_field = "whatever"
  }
}
`
	ps, err := loader.LoadBytes([]byte(doc), "forgiving.hcl")
	require.NoError(t, err)
	assert.True(t, ps.OwnershipCheck("com.example.Service"))
}

func TestLoadInvalidMessageTypeIsInvalidDocument(t *testing.T) {
	doc := `
policy {
  deny { send_type = "not_a_real_type" }
}
`
	_, err := loader.LoadBytes([]byte(doc), "badtype.hcl")
	require.Error(t, err)
	assert.Equal(t, policy.KindInvalidDocument, policy.GetKind(err))
}

func TestLoadSendReceiveDirectionsAreIndependent(t *testing.T) {
	doc := `
policy {
  deny { send_member = "Ping" }
}
`
	ps, err := loader.LoadBytes([]byte(doc), "directions.hcl")
	require.NoError(t, err)

	req := policy.TransmissionRequest{Member: "Ping"}
	assert.False(t, ps.TransmissionCheck(nil, req, policy.DirectionSend))
	assert.True(t, ps.TransmissionCheck(nil, req, policy.DirectionReceive))
}

func TestLoadMultipleSelectorAttributesIsInvalidDocument(t *testing.T) {
	doc := `
policy {
  context = "default"
  user    = "1000"
  allow { own = "*" }
}
`
	_, err := loader.LoadBytes([]byte(doc), "multi-selector.hcl")
	require.Error(t, err)
}
