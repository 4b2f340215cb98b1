// SPDX-License-Identifier: MPL-2.0

// Package config handles devlaunch configuration using Viper with CUE as the file format.
//
// Configuration is looked up in this order: an explicit --config file, then
// config.cue in the platform config directory (~/.config/devlaunch on Linux,
// ~/Library/Application Support/devlaunch on macOS, %APPDATA%\devlaunch on
// Windows), then devlaunch.cue in the working directory. A missing file means
// built-in defaults. Every key can be overridden from the environment with the
// DEVLAUNCH_ prefix, e.g. DEVLAUNCH_SERVER_SHUTDOWN_TIMEOUT=5s.
//
// Files are validated against the embedded config_schema.cue before they reach
// Viper, so unknown keys and mistyped values fail with a CUE path.
package config
