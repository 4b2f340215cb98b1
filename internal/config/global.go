// SPDX-License-Identifier: MPL-2.0

package config

import "sync/atomic"

// dirOverride replaces the platform config directory when non-empty.
// Tests use it because os.UserHomeDir() ignores HOME on some platforms.
var dirOverride atomic.Pointer[string]

// Reset clears the config directory override.
func Reset() {
	dirOverride.Store(nil)
}

// SetConfigDirOverride makes ConfigDir return dir until Reset is called.
func SetConfigDirOverride(dir string) {
	dirOverride.Store(&dir)
}

func configDirOverride() string {
	if p := dirOverride.Load(); p != nil {
		return *p
	}
	return ""
}
