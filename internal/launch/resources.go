// SPDX-License-Identifier: MPL-2.0

package launch

import (
	"github.com/charmbracelet/log"

	"github.com/devsoap/devlaunch/pkg/types"
)

// ResourceRootSet is the set of directories derived from a LaunchConfig.
// WebRoot is empty when the web application directory does not exist.
// Classpath holds the class directories followed by the resources directory,
// unchanged and in input order, whether or not they exist.
type ResourceRootSet struct {
	WebRoot   types.FilesystemPath
	Classpath []types.FilesystemPath
}

// HasWebRoot reports whether a static web root is present.
func (s ResourceRootSet) HasWebRoot() bool { return s.WebRoot != "" }

// Roots returns the web root (if present) followed by the classpath entries.
func (s ResourceRootSet) Roots() []types.FilesystemPath {
	roots := make([]types.FilesystemPath, 0, len(s.Classpath)+1)
	if s.HasWebRoot() {
		roots = append(roots, s.WebRoot)
	}
	return append(roots, s.Classpath...)
}

// ResolveResources derives the ResourceRootSet for cfg. Only the web
// application directory is checked; a missing one is omitted and logged at
// debug level. logger may be nil.
func ResolveResources(cfg LaunchConfig, logger *log.Logger) ResourceRootSet {
	set := ResourceRootSet{
		Classpath: append(cfg.ClassDirs(), cfg.ResourcesDir()),
	}

	ok, err := cfg.WebAppDir().IsDir()
	switch {
	case ok:
		set.WebRoot = cfg.WebAppDir()
	case logger == nil:
	case err != nil:
		logger.Debug("web application directory unreadable, serving without static root",
			"dir", cfg.WebAppDir(), "err", err)
	default:
		logger.Debug("web application directory not found, serving without static root",
			"dir", cfg.WebAppDir())
	}
	return set
}
