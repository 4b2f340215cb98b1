// SPDX-License-Identifier: MPL-2.0

// Package webapp assembles the execution environment for a web application
// served from unpacked build output.
//
// A Context is created without touching the filesystem. Configure then runs
// an ordered list of stages over it: descriptor parsing, WEB-INF scanning,
// environment bindings, META-INF and fragment merging, class scanning and the
// vendor overlay. The order is fixed; later stages rely on what earlier ones
// recorded.
package webapp
