// Copyright (c) 2026 Petar Djukic. All rights reserved.
// SPDX-License-Identifier: MIT

//go:build mage

// Build targets for shelf.
//
//	mage build        compile every package
//	mage test:all     run the full test suite
//	mage test:unit    run the in-memory tests
//	mage lint         vet and golangci-lint
//	mage stats        line and package counts
package main

import (
	"github.com/magefile/mage/mg"
	"github.com/magefile/mage/sh"
)

const binGo = "go"

// Build compiles every package.
func Build() error {
	return sh.RunV(binGo, "build", "./...")
}

// Vet runs go vet after a successful build.
func Vet() error {
	mg.Deps(Build)
	return sh.RunV(binGo, "vet", "./...")
}

// Tidy prunes and verifies go.mod.
func Tidy() error {
	if err := sh.RunV(binGo, "mod", "tidy"); err != nil {
		return err
	}
	return sh.RunV(binGo, "mod", "verify")
}

// Clean removes build and coverage artifacts.
func Clean() error {
	if err := sh.Rm(coverProfile); err != nil {
		return err
	}
	return sh.RunV(binGo, "clean", "./...")
}

const binLint = "golangci-lint"

// Lint runs golangci-lint once vet passes.
func Lint() error {
	mg.Deps(Vet)
	return sh.RunV(binLint, "run", "--timeout", "5m", "./...")
}
