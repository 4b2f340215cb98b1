// SPDX-License-Identifier: MPL-2.0

package devserver

import (
	"context"
	"net/http"
	"slices"

	"github.com/charmbracelet/log"

	"github.com/devsoap/devlaunch/internal/webapp"
)

var (
	_ Application = (*WebApp)(nil)
	_ Describer   = (*WebApp)(nil)
)

type (
	// WebApp serves a web application context. Prepare runs the context's
	// configuration pipeline, so configuration failures surface as a failed
	// start.
	WebApp struct {
		ctx    *webapp.Context
		logger *log.Logger
	}

	// WebAppDescription is the introspection view of a configured context.
	WebAppDescription struct {
		ContextPath          string            `json:"contextPath"`
		DisplayName          string            `json:"displayName,omitempty"`
		BaseResource         string            `json:"baseResource,omitempty"`
		ResourceRoots        []string          `json:"resourceRoots"`
		ExtraClasspath       string            `json:"extraClasspath"`
		ParentLoaderPriority bool              `json:"parentLoaderPriority"`
		DirAllowed           bool              `json:"dirAllowed"`
		Stages               []string          `json:"stages"`
		WelcomeFiles         []string          `json:"welcomeFiles"`
		Attributes           map[string]string `json:"attributes"`
		EnvEntries           []string          `json:"envEntries"`
		Fragments            []string          `json:"fragments"`
		ScannedClasses       int               `json:"scannedClasses"`
	}
)

// NewWebApp wraps an unconfigured context.
func NewWebApp(c *webapp.Context, logger *log.Logger) *WebApp {
	return &WebApp{ctx: c, logger: logger}
}

// Prepare implements Application.
func (a *WebApp) Prepare(ctx context.Context) (http.Handler, error) {
	if err := a.ctx.Configure(ctx); err != nil {
		return nil, err
	}
	return NewStaticHandler(a.ctx, a.logger), nil
}

// Describe implements Describer.
func (a *WebApp) Describe() any {
	c := a.ctx
	d := WebAppDescription{
		ContextPath:          c.ContextPath,
		DisplayName:          c.DisplayName,
		BaseResource:         c.BaseResource.String(),
		ExtraClasspath:       c.ExtraClasspath,
		ParentLoaderPriority: c.ParentLoaderPriority,
		DirAllowed:           c.DirAllowed,
		WelcomeFiles:         slices.Clone(c.WelcomeFiles),
		Attributes:           c.Attributes,
		Fragments:            slices.Clone(c.Fragments),
		ScannedClasses:       len(c.ScannedClasses),
	}
	for _, r := range c.ResourceRoots {
		d.ResourceRoots = append(d.ResourceRoots, r.String())
	}
	for _, s := range c.StageNames() {
		d.Stages = append(d.Stages, s.String())
	}
	for name := range c.EnvEntries {
		d.EnvEntries = append(d.EnvEntries, name)
	}
	slices.Sort(d.EnvEntries)
	return d
}
