// SPDX-License-Identifier: MPL-2.0

// Command launcher runs a web application's static resources and lifecycle
// in a development server, reporting its state with lifecycle tokens.
//
//	launcher [--config FILE] <port> <webAppDir> <classDirs> <resourcesDir> [logLevel]
package main

import (
	"context"
	"os"
)

func main() {
	os.Exit(int(execute(context.Background())))
}
