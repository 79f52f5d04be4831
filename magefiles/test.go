//go:build mage

// Copyright (c) 2026 Petar Djukic. All rights reserved.
// SPDX-License-Identifier: MIT

package main

import (
	"os"
	"path/filepath"

	"github.com/magefile/mage/sh"
)

// Test runs all tests.
func Test() error {
	return sh.RunV(binGo, "test", "./...")
}

// TestRace runs all tests with the race detector.
func TestRace() error {
	return sh.RunV(binGo, "test", "-race", "./...")
}

// Cover writes a coverage profile and prints the per-function summary.
func Cover() error {
	if err := os.MkdirAll(binaryDir, 0o755); err != nil {
		return err
	}
	profile := filepath.Join(binaryDir, "cover.out")
	if err := sh.RunV(binGo, "test", "-coverprofile="+profile, "./..."); err != nil {
		return err
	}
	return sh.RunV(binGo, "tool", "cover", "-func="+profile)
}
