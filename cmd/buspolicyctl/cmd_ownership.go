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

	"github.com/spf13/cobra"

	"arideha.dev/buspolicy/loader"
)

func ownershipCommand() *cobra.Command {
	var document string
	var name string
	var uid uint32
	var gidStrs []string
	var scoped bool

	cmd := &cobra.Command{
		Use:   "ownership",
		Short: "Check whether a peer may own a bus name",
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

			allowed := ps.OwnershipCheck(name)
			if scoped {
				allowed = ps.PeerPolicy(uid, gids).OwnershipCheck(name)
			}

			if allowed {
				fmt.Fprintln(cmd.OutOrStdout(), "allowed")
			} else {
				fmt.Fprintln(cmd.OutOrStdout(), "denied")
			}
			return nil
		},
	}

	cmd.Flags().StringVarP(&document, "document", "d", "", "path to the policy document")
	cmd.Flags().StringVarP(&name, "name", "n", "", "bus name to check")
	cmd.Flags().BoolVar(&scoped, "scoped", false, "merge the uid/gid-scoped layers for --uid/--gid before checking")
	cmd.Flags().Uint32Var(&uid, "uid", 0, "peer uid, used only with --scoped")
	cmd.Flags().StringSliceVar(&gidStrs, "gid", nil, "peer supplementary gid (repeatable), used only with --scoped")
	cmd.MarkFlagRequired("document")
	cmd.MarkFlagRequired("name")

	return cmd
}
