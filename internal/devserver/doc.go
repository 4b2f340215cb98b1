// SPDX-License-Identifier: MPL-2.0

// Package devserver runs the development HTTP server on top of the serverbase
// lifecycle core.
//
// A Server is single-use. Start runs the application's configuration pipeline
// after the starting transition, binds the listening socket and serves until
// Stop is called or the context given to Start is cancelled. Join blocks until
// the server reaches a terminal state.
package devserver
