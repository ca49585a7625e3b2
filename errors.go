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

package buspolicy

import (
	"errors"
	"fmt"
)

// Kind categorizes an Error. Query methods (ConnectionCheck,
// OwnershipCheck, TransmissionCheck) never return an Error: a denial
// is a normal bool result, not an exceptional condition. Kind exists
// for the loader, which can fail for the remaining three reasons.
type Kind int

const (
	KindUnknown Kind = iota
	// KindAccessDenied is exposed for callers that want to translate a
	// denied query into an error of their own, but buspolicy itself
	// never constructs one: see ConnectionCheck/OwnershipCheck/
	// TransmissionCheck.
	KindAccessDenied
	// KindInvalidDocument means a policy document failed structural
	// parsing. Errors of this kind carry "file" and "line" attributes.
	KindInvalidDocument
	// KindIOError means a policy document could not be read, for a
	// reason other than not existing (a missing file is not an error).
	KindIOError
	// KindOutOfMemory means the loader aborted due to an allocation
	// failure; the resulting policy set is left empty.
	KindOutOfMemory
)

func (k Kind) String() string {
	switch k {
	case KindAccessDenied:
		return "access_denied"
	case KindInvalidDocument:
		return "invalid_document"
	case KindIOError:
		return "io_error"
	case KindOutOfMemory:
		return "out_of_memory"
	default:
		return "unknown"
	}
}

// Error is a structured error carrying a Kind and optional attributes
// (e.g. "file"/"line" for KindInvalidDocument).
type Error struct {
	Kind       Kind
	Message    string
	Underlying error
	Attributes map[string]any
}

func (e *Error) Error() string {
	if e.Underlying != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Underlying)
	}
	return e.Message
}

func (e *Error) Unwrap() error {
	return e.Underlying
}

// New creates an Error of the given kind.
func New(kind Kind, msg string) error {
	return &Error{Kind: kind, Message: msg}
}

// Errorf creates an Error of the given kind with a formatted message.
func Errorf(kind Kind, format string, args ...any) error {
	return &Error{Kind: kind, Message: fmt.Sprintf(format, args...)}
}

// Wrap wraps err as an Error of the given kind. Returns nil if err is
// nil.
func Wrap(err error, kind Kind, msg string) error {
	if err == nil {
		return nil
	}
	return &Error{Kind: kind, Message: msg, Underlying: err}
}

// Wrapf wraps err as an Error of the given kind with a formatted
// message. Returns nil if err is nil.
func Wrapf(err error, kind Kind, format string, args ...any) error {
	if err == nil {
		return nil
	}
	return &Error{Kind: kind, Message: fmt.Sprintf(format, args...), Underlying: err}
}

// WithAttr attaches an attribute to err, wrapping it as KindUnknown
// first if it is not already an *Error.
func WithAttr(err error, key string, val any) error {
	if err == nil {
		return nil
	}

	var e *Error
	if !errors.As(err, &e) {
		e = &Error{Kind: KindUnknown, Message: err.Error(), Underlying: err}
	}
	if e.Attributes == nil {
		e.Attributes = make(map[string]any)
	}
	e.Attributes[key] = val
	return e
}

// GetKind returns err's Kind, or KindUnknown if err is not (or does
// not wrap) an *Error.
func GetKind(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindUnknown
}
