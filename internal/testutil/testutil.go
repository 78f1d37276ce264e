// Package testutil provides shared test utilities and fixtures.
//
// This package centralises common test helpers to reduce code duplication
// across test files and improve test maintainability.
package testutil

import (
	"strings"
	"testing"

	"github.com/guillaume10/mujoco/internal/fsutil"
)

// AssertNoError fails the test if err is not nil.
func AssertNoError(t *testing.T, err error) {
	t.Helper()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

// AssertError fails the test if err is nil.
func AssertError(t *testing.T, err error) {
	t.Helper()
	if err == nil {
		t.Fatal("expected error, got nil")
	}
}

// AssertContains fails the test if s does not contain substr. It is the
// workhorse assertion for inspecting serialized scene text.
func AssertContains(t *testing.T, s, substr string) {
	t.Helper()
	if !strings.Contains(s, substr) {
		t.Errorf("missing %q in:\n%s", substr, s)
	}
}

// AssertNotContains fails the test if s contains substr.
func AssertNotContains(t *testing.T, s, substr string) {
	t.Helper()
	if strings.Contains(s, substr) {
		t.Errorf("unexpected %q in:\n%s", substr, s)
	}
}

// AssertFileExists fails the test if path is absent from the filesystem.
func AssertFileExists(t *testing.T, fs fsutil.FileSystem, path string) {
	t.Helper()
	if !fs.Exists(path) {
		t.Errorf("expected file %s to exist", path)
	}
}
