// SPDX-License-Identifier: MPL-2.0

//go:build windows

package sass

import "os"

// writeFile overwrites path in place; renameio does not support Windows.
func writeFile(path string, data []byte) error {
	return os.WriteFile(path, data, 0o644)
}
