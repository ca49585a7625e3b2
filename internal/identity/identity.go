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

// Package identity resolves the user=/group= attribute values a
// policy document may carry (either already numeric, or a username/
// group name) into the numeric uid/gid the policy core operates on.
package identity

import (
	"fmt"
	"os/user"
	"strconv"
)

// ResolveUID parses s as a uid, falling back to a username lookup via
// the standard library's os/user package.
func ResolveUID(s string) (uint32, error) {
	if n, err := strconv.ParseUint(s, 10, 32); err == nil {
		return uint32(n), nil
	}

	u, err := user.Lookup(s)
	if err != nil {
		return 0, fmt.Errorf("resolve user %q: %w", s, err)
	}
	n, err := strconv.ParseUint(u.Uid, 10, 32)
	if err != nil {
		return 0, fmt.Errorf("resolve user %q: uid %q is not numeric: %w", s, u.Uid, err)
	}
	return uint32(n), nil
}

// ResolveGID parses s as a gid, falling back to a group name lookup
// via the standard library's os/user package.
func ResolveGID(s string) (uint32, error) {
	if n, err := strconv.ParseUint(s, 10, 32); err == nil {
		return uint32(n), nil
	}

	g, err := user.LookupGroup(s)
	if err != nil {
		return 0, fmt.Errorf("resolve group %q: %w", s, err)
	}
	n, err := strconv.ParseUint(g.Gid, 10, 32)
	if err != nil {
		return 0, fmt.Errorf("resolve group %q: gid %q is not numeric: %w", s, g.Gid, err)
	}
	return uint32(n), nil
}
