// SPDX-License-Identifier: MPL-2.0

// Command compiler compiles a theme stylesheet with Dart Sass.
//
//	compiler [--config FILE] [--watch] <input> <output> <unpackedThemes>
package main

import (
	"context"
	"os"
)

func main() {
	os.Exit(int(execute(context.Background())))
}
