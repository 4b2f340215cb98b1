// SPDX-License-Identifier: MPL-2.0

// Package testutil provides helpers shared by package tests: file tree
// fixtures, server cleanup and a log sink safe for concurrent writers.
package testutil
