// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package validation

import (
	"strings"
	"testing"
)

func TestValidateListID(t *testing.T) {
	valid := []string{
		"abcdefgh",
		"12345678",
		"d2719f0e-8a4b-4c51-9f0f-0d8f6f2a7b11",
		"!!!!!!!!",
		"日本語のリスト",
	}
	for _, id := range valid {
		if err := ValidateListID(id); err != nil {
			t.Errorf("ValidateListID(%q) = %v, want nil", id, err)
		}
	}

	invalid := []string{"", "a", "1234567"}
	for _, id := range invalid {
		if err := ValidateListID(id); err == nil {
			t.Errorf("ValidateListID(%q) = nil, want error", id)
		}
	}
}

func TestValidateContent(t *testing.T) {
	if err := ValidateContent("- [ ] fix the build"); err != nil {
		t.Errorf("unexpected error: %v", err)
	}
	// Leading/trailing whitespace is preserved identity, not an error.
	if err := ValidateContent("  padded  "); err != nil {
		t.Errorf("unexpected error: %v", err)
	}

	if err := ValidateContent(""); err == nil {
		t.Error("empty content must be rejected")
	}
	if err := ValidateContent(string([]byte{0xff, 0xfe})); err == nil {
		t.Error("invalid UTF-8 must be rejected")
	}
	if err := ValidateContent(strings.Repeat("x", MaxContentBytes+1)); err == nil {
		t.Error("oversized content must be rejected")
	}
}
