// SPDX-License-Identifier: MPL-2.0

// Package lifecycle reports server lifecycle transitions to a supervising
// parent process.
//
// The parent greps the child's log stream for the fixed tokens declared here
// ("Jetty starting", "Jetty started", "Jetty error", "Jetty stopping",
// "Jetty stopped"). They are a wire contract and never change. A Reporter
// writes one token line per transition; Install attaches it to a server core
// through whichever registration mechanism the core was built with.
package lifecycle
