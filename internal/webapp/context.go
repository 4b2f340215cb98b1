// SPDX-License-Identifier: MPL-2.0

package webapp

import (
	"context"
	"fmt"
	"io"
	"regexp"
	"strings"
	"sync/atomic"

	"github.com/charmbracelet/log"

	"github.com/devsoap/devlaunch/internal/launch"
	"github.com/devsoap/devlaunch/pkg/types"
)

const (
	// RootContextPath is the fixed context path of the served application.
	RootContextPath = "/"

	// ExtraClasspathSeparator joins the extra classpath entries.
	ExtraClasspathSeparator = ";"

	// ContainerIncludeJarPatternAttr is the attribute holding the pattern of
	// classpath locations considered by class scanning.
	ContainerIncludeJarPatternAttr = "org.eclipse.jetty.server.webapp.ContainerIncludeJarPattern"

	// DefaultContainerIncludePattern matches unpacked Gradle class output.
	DefaultContainerIncludePattern = ".*/build/classes/.*"
)

// defaultWelcomeFiles apply when no descriptor declares any.
var defaultWelcomeFiles = []string{"index.html", "index.htm"}

type (
	// Options tunes a Context. The zero value uses the default stages and
	// include pattern with directory listings disabled.
	Options struct {
		ContainerIncludePattern string
		DirAllowed              bool
		Stages                  []Stage
		Logger                  *log.Logger
	}

	// EnvEntry is a bound environment entry.
	EnvEntry struct {
		Name     string
		Type     string
		Value    string
		Override bool
		// Source names the file that declared the entry.
		Source string
	}

	// Context is the execution environment of the served application.
	// Exported fields are populated by NewContext and Configure and must be
	// treated as read-only once Configure has returned.
	Context struct {
		ContextPath          string
		BaseResource         types.FilesystemPath
		ResourceRoots        []types.FilesystemPath
		ParentLoaderPriority bool
		DirAllowed           bool

		// ExtraClasspath is the joined extra classpath string; its entries are
		// kept in ExtraClasspathEntries in input order.
		ExtraClasspath        string
		ExtraClasspathEntries []types.FilesystemPath
		// Classpath is ExtraClasspathEntries followed by WEB-INF/classes and
		// WEB-INF/lib jars.
		Classpath []types.FilesystemPath

		Attributes     map[string]string
		DisplayName    string
		WelcomeFiles   []string
		MIMETypes      map[string]string
		ErrorPages     map[int]string
		EnvEntries     map[string]EnvEntry
		Fragments      []string
		ScannedClasses []string

		stages     []Stage
		logger     *log.Logger
		configured atomic.Bool

		// Carried between stages.
		descriptorEnv  []EnvEntry
		fragmentQueue  []types.FilesystemPath
		includePattern *regexp.Regexp
	}
)

// NewContext binds roots and the stage list into a Context without touching
// the filesystem.
func NewContext(roots launch.ResourceRootSet, opts Options) *Context {
	pattern := opts.ContainerIncludePattern
	if pattern == "" {
		pattern = DefaultContainerIncludePattern
	}
	stages := opts.Stages
	if stages == nil {
		stages = DefaultStages()
	}
	logger := opts.Logger
	if logger == nil {
		logger = log.New(io.Discard)
	}

	c := &Context{
		ContextPath:          RootContextPath,
		BaseResource:         roots.WebRoot,
		ParentLoaderPriority: true,
		DirAllowed:           opts.DirAllowed,
		Attributes:           map[string]string{ContainerIncludeJarPatternAttr: pattern},
		MIMETypes:            make(map[string]string),
		ErrorPages:           make(map[int]string),
		EnvEntries:           make(map[string]EnvEntry),
		stages:               stages,
		logger:               logger,
	}
	if roots.HasWebRoot() {
		c.ResourceRoots = []types.FilesystemPath{roots.WebRoot}
	}
	c.setExtraClasspath(roots.Classpath)
	return c
}

// Build creates a Context and configures it.
func Build(ctx context.Context, roots launch.ResourceRootSet, opts Options) (*Context, error) {
	c := NewContext(roots, opts)
	if err := c.Configure(ctx); err != nil {
		return nil, err
	}
	return c, nil
}

// JoinExtraClasspath joins entries with ExtraClasspathSeparator.
func JoinExtraClasspath(entries []types.FilesystemPath) string {
	parts := make([]string, len(entries))
	for i, e := range entries {
		parts[i] = string(e)
	}
	return strings.Join(parts, ExtraClasspathSeparator)
}

func (c *Context) setExtraClasspath(entries []types.FilesystemPath) {
	c.ExtraClasspathEntries = append([]types.FilesystemPath(nil), entries...)
	c.ExtraClasspath = JoinExtraClasspath(entries)
	c.Classpath = append([]types.FilesystemPath(nil), entries...)
}

// StageNames returns the names of the bound stages in execution order.
func (c *Context) StageNames() []StageName {
	names := make([]StageName, len(c.stages))
	for i, s := range c.stages {
		names[i] = s.Name()
	}
	return names
}

// Configure runs the bound stages in order. The first failing stage stops the
// pipeline and is returned as a *StageError. Configure may run only once.
func (c *Context) Configure(ctx context.Context) error {
	if !c.configured.CompareAndSwap(false, true) {
		return ErrAlreadyConfigured
	}
	if err := ValidateOrder(c.stages); err != nil {
		return err
	}

	for _, s := range c.stages {
		if err := ctx.Err(); err != nil {
			return fmt.Errorf("configuring web application: %w", err)
		}
		c.logger.Debug("configuring", "stage", s.Name())
		if err := s.Configure(c); err != nil {
			return &StageError{Stage: s.Name(), Err: err}
		}
	}

	if len(c.WelcomeFiles) == 0 {
		c.WelcomeFiles = append([]string(nil), defaultWelcomeFiles...)
	}
	c.logger.Debug("web application configured",
		"base", c.BaseResource, "roots", len(c.ResourceRoots), "classes", len(c.ScannedClasses))
	return nil
}

// webInf returns the path of name under WEB-INF, or "" without a base resource.
func (c *Context) webInf(name ...string) types.FilesystemPath {
	if c.BaseResource == "" {
		return ""
	}
	return c.BaseResource.Join(append([]string{"WEB-INF"}, name...)...)
}
