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

// Package loader reads a bus policy document written in HCL2 and builds
// the *buspolicy.PolicySet it describes.
//
// The document is a sequence of top-level "policy" blocks, each
// selecting a context via at most one of the context/user/group/
// at_console attributes, and containing a flat sequence of "allow"/
// "deny" rule blocks. For example:
//
//	policy {
//	  context = "default"
//	  deny { own = "*" }
//	}
//
//	policy {
//	  user = "1000"
//	  allow { own = "com.example.Service" }
//	}
package loader

import (
	"errors"
	"fmt"
	"os"

	"github.com/hashicorp/hcl/v2"
	"github.com/hashicorp/hcl/v2/hclparse"
	"github.com/zclconf/go-cty/cty"
	"github.com/zclconf/go-cty/cty/convert"

	policy "arideha.dev/buspolicy"
)

// Context tiers, highest wins: a mandatory rule always dominates a
// console, group, or user rule, which in turn dominate the bus-wide
// default.
const (
	tierDefault   uint64 = 1
	tierUser      uint64 = 2
	tierGroup     uint64 = 3
	tierConsole   uint64 = 4
	tierMandatory uint64 = 5
)

var rootSchema = &hcl.BodySchema{
	Blocks: []hcl.BlockHeaderSchema{{Type: "policy"}},
}

var policySchema = &hcl.BodySchema{
	Attributes: []hcl.AttributeSchema{
		{Name: "context"},
		{Name: "user"},
		{Name: "group"},
		{Name: "at_console"},
	},
	Blocks: []hcl.BlockHeaderSchema{
		{Type: "allow"},
		{Type: "deny"},
	},
}

// selector identifies the context a policy block was declared in.
type selector struct {
	kind string // "default", "mandatory", "user", "group", "console"
	uid  uint32
	gid  uint32
}

func (s selector) tier() uint64 {
	switch s.kind {
	case "mandatory":
		return tierMandatory
	case "user":
		return tierUser
	case "group":
		return tierGroup
	case "console":
		return tierConsole
	default:
		return tierDefault
	}
}

// Load reads and parses the policy document at path. A missing file is
// not an error: Load returns an empty, fully-allowing PolicySet.
func Load(path string) (*policy.PolicySet, error) {
	src, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return policy.NewPolicySet(), nil
	}
	if err != nil {
		return nil, policy.Wrap(err, policy.KindIOError, "read policy document")
	}
	return LoadBytes(src, path)
}

// LoadBytes parses src (with filename used only for diagnostics) and
// builds the PolicySet it describes.
func LoadBytes(src []byte, filename string) (*policy.PolicySet, error) {
	parser := hclparse.NewParser()
	file, diags := parser.ParseHCL(src, filename)
	if diags.HasErrors() {
		return nil, diagnosticError(diags)
	}

	content, diags := file.Body.Content(rootSchema)
	if diags.HasErrors() {
		return nil, diagnosticError(diags)
	}

	ps := policy.NewPolicySet()
	counter := uint64(0)

	for _, block := range content.Blocks {
		if err := loadPolicyBlock(ps, block, &counter); err != nil {
			return nil, err
		}
	}

	return ps, nil
}

func loadPolicyBlock(ps *policy.PolicySet, block *hcl.Block, counter *uint64) error {
	content, diags := block.Body.Content(policySchema)
	if diags.HasErrors() {
		return diagnosticError(diags)
	}

	sel, err := resolveSelector(content.Attributes)
	if err != nil {
		return err
	}

	for _, rule := range content.Blocks {
		isDeny := rule.Type == "deny"

		attrs, diags := rule.Body.JustAttributes()
		if diags.HasErrors() {
			return diagnosticError(diags)
		}

		priority := sel.tier()<<32 | *counter
		*counter++

		if err := dispatchRule(ps, sel, isDeny, priority, attrs); err != nil {
			return err
		}
	}

	return nil
}

// resolveSelector reads the at-most-one selector attribute off a
// policy block. No attribute at all means context=default.
func resolveSelector(attrs hcl.Attributes) (selector, error) {
	present := 0
	var sel selector
	var rng hcl.Range

	if attr, ok := attrs["context"]; ok {
		present++
		rng = attr.Range
		s, err := attrString(attr)
		if err != nil {
			return selector{}, err
		}
		switch s {
		case "default":
			sel = selector{kind: "default"}
		case "mandatory":
			sel = selector{kind: "mandatory"}
		default:
			return selector{}, invalidDocument(attr.Range, fmt.Sprintf("unknown context %q", s))
		}
	}
	if attr, ok := attrs["user"]; ok {
		present++
		rng = attr.Range
		s, err := attrString(attr)
		if err != nil {
			return selector{}, err
		}
		uid, err := resolveUID(s)
		if err != nil {
			return selector{}, invalidDocument(attr.Range, err.Error())
		}
		sel = selector{kind: "user", uid: uid}
	}
	if attr, ok := attrs["group"]; ok {
		present++
		rng = attr.Range
		s, err := attrString(attr)
		if err != nil {
			return selector{}, err
		}
		gid, err := resolveGID(s)
		if err != nil {
			return selector{}, invalidDocument(attr.Range, err.Error())
		}
		sel = selector{kind: "group", gid: gid}
	}
	if attr, ok := attrs["at_console"]; ok {
		present++
		rng = attr.Range
		sel = selector{kind: "console"}
	}

	if present > 1 {
		return selector{}, invalidDocument(rng, "policy block may carry at most one of context/user/group/at_console")
	}
	if present == 0 {
		sel = selector{kind: "default"}
	}
	return sel, nil
}

// attrString evaluates attr and coerces it to a string, accepting both
// quoted strings and bare number or boolean literals.
func attrString(attr *hcl.Attribute) (string, error) {
	val, diags := attr.Expr.Value(nil)
	if diags.HasErrors() {
		return "", diagnosticError(diags)
	}
	val, err := convert.Convert(val, cty.String)
	if err != nil {
		return "", invalidDocument(attr.Range, fmt.Sprintf("attribute %q: %v", attr.Name, err))
	}
	return val.AsString(), nil
}

func invalidDocument(rng hcl.Range, detail string) error {
	err := policy.Errorf(policy.KindInvalidDocument, "%s: %s", rng.Filename, detail)
	err = policy.WithAttr(err, "file", rng.Filename)
	err = policy.WithAttr(err, "line", rng.Start.Line)
	return err
}

func diagnosticError(diags hcl.Diagnostics) error {
	first := diags[0]
	detail := first.Summary
	if first.Detail != "" {
		detail = fmt.Sprintf("%s: %s", first.Summary, first.Detail)
	}
	if first.Subject != nil {
		return invalidDocument(*first.Subject, detail)
	}
	return policy.Errorf(policy.KindInvalidDocument, "%s", detail)
}
