// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package ranker

import (
	"errors"
	"fmt"
	"net/http"
)

// Kind classifies an engine error for clients. Handlers translate a
// Kind to an HTTP status and a JSON body {error, message}.
type Kind string

const (
	// KindInvalidArgument covers malformed input: a short list id, a
	// winner that is neither task, empty content.
	KindInvalidArgument Kind = "invalid_argument"

	// KindNotFound is reserved for list-scoped lookups of things that
	// must exist. Deleting an absent task is NOT this; deletion is
	// idempotent.
	KindNotFound Kind = "not_found"

	// KindUnavailable means the persistence adapter refused a write.
	// The mutation did not take effect; clients may retry with backoff.
	KindUnavailable Kind = "unavailable"

	// KindInternal is a bug or invariant violation. The offending
	// operation fails; the process keeps running.
	KindInternal Kind = "internal"
)

// HTTPStatus maps a Kind to its response status.
func (k Kind) HTTPStatus() int {
	switch k {
	case KindInvalidArgument:
		return http.StatusBadRequest
	case KindNotFound:
		return http.StatusNotFound
	case KindUnavailable:
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

// Error is a classified engine error.
type Error struct {
	Kind    Kind
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

func (e *Error) Unwrap() error { return e.Err }

// invalidArgf builds a KindInvalidArgument error.
func invalidArgf(format string, args ...any) *Error {
	return &Error{Kind: KindInvalidArgument, Message: fmt.Sprintf(format, args...)}
}

// unavailable wraps a persistence failure.
func unavailable(op string, err error) *Error {
	return &Error{Kind: KindUnavailable, Message: fmt.Sprintf("persistence rejected %s", op), Err: err}
}

// KindOf extracts the Kind from an error chain, defaulting to
// KindInternal for unclassified errors.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindInternal
}
