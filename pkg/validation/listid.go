// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package validation provides input validation for user-provided
// identifiers and task content.
//
// A list id is a bearer capability: possession authorises access to
// the list. The only format constraint is a minimum length, which
// keeps trivially guessable ids out; everything else about the string
// is opaque to the engine.
package validation

import (
	"fmt"
	"unicode/utf8"
)

// MinListIDLength is the minimum accepted list id length, in bytes.
const MinListIDLength = 8

// MaxContentBytes bounds a single task's content. Tasks are one-line
// markdown items; this is far above any realistic line.
const MaxContentBytes = 64 * 1024

// ValidateListID checks a list id. Returns an error if the id is
// shorter than MinListIDLength bytes. No other constraint: the id is
// an opaque capability.
//
// Example:
//
//	if err := validation.ValidateListID(req.ListID); err != nil {
//	    return err
//	}
func ValidateListID(id string) error {
	if len(id) < MinListIDLength {
		return fmt.Errorf("list id must be at least %d characters", MinListIDLength)
	}
	return nil
}

// ValidateContent checks task content: non-empty, valid UTF-8, and
// bounded. Content is otherwise preserved exactly — no trimming, no
// case folding — because the content IS the task's identity and the
// editor round-trips it.
func ValidateContent(content string) error {
	if content == "" {
		return fmt.Errorf("task content must not be empty")
	}
	if len(content) > MaxContentBytes {
		return fmt.Errorf("task content exceeds %d bytes", MaxContentBytes)
	}
	if !utf8.ValidString(content) {
		return fmt.Errorf("task content must be valid UTF-8")
	}
	return nil
}
