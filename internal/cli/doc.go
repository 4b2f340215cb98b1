// SPDX-License-Identifier: MPL-2.0

// Package cli holds what the launcher and compiler commands share: styles,
// exit codes carried through cobra, version reporting and error rendering.
package cli
