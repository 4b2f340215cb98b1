// SPDX-License-Identifier: MPL-2.0

// Package launch turns the launcher's positional arguments into a typed
// LaunchConfig and derives the set of resource roots the server exposes.
package launch
