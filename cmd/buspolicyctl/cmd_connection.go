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

package main

import (
	"fmt"
	"log/slog"
	"strconv"

	"github.com/spf13/cobra"

	"arideha.dev/buspolicy/loader"
)

func connectionCommand() *cobra.Command {
	var document string
	var uid uint32
	var gidStrs []string

	cmd := &cobra.Command{
		Use:   "connection",
		Short: "Check whether a peer may connect",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			gids, err := parseGIDs(gidStrs)
			if err != nil {
				return err
			}

			ps, err := loader.Load(document)
			if err != nil {
				return err
			}

			slog.Debug("loaded policy document", slog.String("path", document))

			if ps.ConnectionCheck(uid, gids) {
				fmt.Fprintln(cmd.OutOrStdout(), "allowed")
			} else {
				fmt.Fprintln(cmd.OutOrStdout(), "denied")
			}
			return nil
		},
	}

	cmd.Flags().StringVarP(&document, "document", "d", "", "path to the policy document")
	cmd.Flags().Uint32Var(&uid, "uid", 0, "connecting peer's uid")
	cmd.Flags().StringSliceVar(&gidStrs, "gid", nil, "connecting peer's supplementary gid (repeatable)")
	cmd.MarkFlagRequired("document")

	return cmd
}

func parseGIDs(ss []string) ([]uint32, error) {
	gids := make([]uint32, 0, len(ss))
	for _, s := range ss {
		n, err := strconv.ParseUint(s, 10, 32)
		if err != nil {
			return nil, fmt.Errorf("invalid gid %q: %w", s, err)
		}
		gids = append(gids, uint32(n))
	}
	return gids, nil
}
