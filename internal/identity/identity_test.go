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

package identity_test

import (
	"testing"

	"arideha.dev/buspolicy/internal/identity"
	"github.com/stretchr/testify/require"
)

func TestResolveUIDNumeric(t *testing.T) {
	uid, err := identity.ResolveUID("1000")
	require.NoError(t, err)
	require.Equal(t, uint32(1000), uid)
}

func TestResolveGIDNumeric(t *testing.T) {
	gid, err := identity.ResolveGID("100")
	require.NoError(t, err)
	require.Equal(t, uint32(100), gid)
}

func TestResolveUIDUnknownName(t *testing.T) {
	_, err := identity.ResolveUID("definitely-not-a-real-user-xyz")
	require.Error(t, err)
}

func TestResolveGIDUnknownName(t *testing.T) {
	_, err := identity.ResolveGID("definitely-not-a-real-group-xyz")
	require.Error(t, err)
}
