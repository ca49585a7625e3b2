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

	policy "arideha.dev/buspolicy"
	"arideha.dev/buspolicy/loader"
)

// ownedNames adapts a flag-supplied list of bus names to
// policy.NameSet. A nil/empty list represents the broker itself.
type ownedNames []string

func (o ownedNames) PrimaryNames() []string { return o }

func transmissionCommand() *cobra.Command {
	var document string
	var direction string
	var iface, member, errName, path, msgType string
	var owned []string

	cmd := &cobra.Command{
		Use:   "transmission",
		Short: "Check whether a message may flow",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			var dir policy.Direction
			switch direction {
			case "send":
				dir = policy.DirectionSend
			case "receive":
				dir = policy.DirectionReceive
			default:
				return fmt.Errorf("--direction must be \"send\" or \"receive\", got %q", direction)
			}

			typ, err := parseMessageType(msgType)
			if err != nil {
				return err
			}

			ps, err := loader.Load(document)
			if err != nil {
				return err
			}

			slog.Debug("loaded policy document", slog.String("path", document))

			req := policy.TransmissionRequest{
				Interface: iface,
				Member:    member,
				Error:     errName,
				Path:      path,
				Type:      typ,
			}

			var subject policy.NameSet
			if len(owned) > 0 {
				subject = ownedNames(owned)
			}

			if ps.TransmissionCheck(subject, req, dir) {
				fmt.Fprintln(cmd.OutOrStdout(), "allowed")
			} else {
				fmt.Fprintln(cmd.OutOrStdout(), "denied")
			}
			return nil
		},
	}

	cmd.Flags().StringVarP(&document, "document", "d", "", "path to the policy document")
	cmd.Flags().StringVar(&direction, "direction", "send", `"send" or "receive"`)
	cmd.Flags().StringVar(&iface, "interface", "", "message interface")
	cmd.Flags().StringVar(&member, "member", "", "message member")
	cmd.Flags().StringVar(&errName, "error", "", "message error name")
	cmd.Flags().StringVar(&path, "path", "", "message object path")
	cmd.Flags().StringVar(&msgType, "type", "any", "method_call, method_return, signal, error, or any")
	cmd.Flags().StringSliceVar(&owned, "owned", nil, "bus name the opposite peer primary-owns (repeatable); omit for the driver")
	cmd.MarkFlagRequired("document")

	return cmd
}

func parseMessageType(s string) (policy.MessageType, error) {
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
