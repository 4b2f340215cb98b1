// SPDX-License-Identifier: MPL-2.0

package webapp

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"regexp"
	"slices"
	"strings"

	"github.com/devsoap/devlaunch/pkg/types"
)

const (
	sourceWebXML    = "web.xml"
	sourceJettyEnv  = "jetty-env.xml"
	classFileSuffix = ".class"
)

// jettyWebFiles are the vendor overlay file names, in lookup order.
var jettyWebFiles = []string{"jetty-web.xml", "web-jetty.xml"}

func configureWebXML(c *Context) error {
	path := c.webInf("web.xml")
	d, err := loadDescriptor(path)
	if err != nil {
		return err
	}
	if d == nil {
		c.logger.Debug("no web.xml", "path", path)
		return nil
	}

	c.DisplayName = d.DisplayName
	c.WelcomeFiles = slices.Clone(d.WelcomeFiles)
	for _, m := range d.MIMEMappings {
		if m.Extension != "" && m.MIMEType != "" {
			c.MIMETypes[m.Extension] = m.MIMEType
		}
	}
	pages, err := d.statusErrorPages()
	if err != nil {
		return &DescriptorError{Path: path, Err: err}
	}
	for code, loc := range pages {
		c.ErrorPages[code] = loc
	}
	if c.descriptorEnv, err = d.envEntries(sourceWebXML); err != nil {
		return &DescriptorError{Path: path, Err: err}
	}
	return nil
}

func configureWebInf(c *Context) error {
	if c.BaseResource == "" {
		return nil
	}

	classes := c.webInf("classes")
	if ok, err := classes.IsDir(); err != nil {
		return fmt.Errorf("reading %s: %w", classes, err)
	} else if ok {
		c.Classpath = append(c.Classpath, classes)
	}

	lib := c.webInf("lib")
	entries, err := os.ReadDir(string(lib))
	if errors.Is(err, fs.ErrNotExist) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("reading %s: %w", lib, err)
	}
	for _, e := range entries {
		if !e.IsDir() && strings.EqualFold(filepath.Ext(e.Name()), ".jar") {
			c.Classpath = append(c.Classpath, lib.Join(e.Name()))
		}
	}
	return nil
}

func configurePlus(c *Context) error {
	for _, e := range c.descriptorEnv {
		if _, dup := c.EnvEntries[e.Name]; dup {
			return fmt.Errorf("env-entry %q declared twice", e.Name)
		}
		c.EnvEntries[e.Name] = e
	}
	return nil
}

func configureMetaInf(c *Context) error {
	for _, dir := range c.classpathDirs() {
		if ok, err := dir.IsDir(); err != nil {
			return fmt.Errorf("reading %s: %w", dir, err)
		} else if !ok {
			continue
		}

		resources := dir.Join("META-INF", "resources")
		ok, err := resources.IsDir()
		if err != nil {
			return fmt.Errorf("reading %s: %w", resources, err)
		}
		if ok {
			c.ResourceRoots = append(c.ResourceRoots, resources)
		}

		fragment := dir.Join("META-INF", "web-fragment.xml")
		if _, err := os.Stat(string(fragment)); err == nil {
			c.fragmentQueue = append(c.fragmentQueue, fragment)
		} else if !errors.Is(err, fs.ErrNotExist) {
			return fmt.Errorf("reading %s: %w", fragment, err)
		}
	}
	return nil
}

func configureFragments(c *Context) error {
	mainHasWelcome := len(c.WelcomeFiles) > 0
	for _, path := range c.fragmentQueue {
		d, err := loadDescriptor(path)
		if err != nil {
			return err
		}
		if d == nil {
			continue
		}
		name := d.Name
		if name == "" {
			name = path.Dir().Dir().String()
		}
		c.Fragments = append(c.Fragments, name)

		if !mainHasWelcome {
			for _, w := range d.WelcomeFiles {
				if !slices.Contains(c.WelcomeFiles, w) {
					c.WelcomeFiles = append(c.WelcomeFiles, w)
				}
			}
		}
		for _, m := range d.MIMEMappings {
			if _, ok := c.MIMETypes[m.Extension]; !ok && m.Extension != "" && m.MIMEType != "" {
				c.MIMETypes[m.Extension] = m.MIMEType
			}
		}
		pages, err := d.statusErrorPages()
		if err != nil {
			return &DescriptorError{Path: path, Err: err}
		}
		for code, loc := range pages {
			if _, ok := c.ErrorPages[code]; !ok {
				c.ErrorPages[code] = loc
			}
		}
		entries, err := d.envEntries(path.String())
		if err != nil {
			return &DescriptorError{Path: path, Err: err}
		}
		for _, e := range entries {
			if _, ok := c.EnvEntries[e.Name]; !ok {
				c.EnvEntries[e.Name] = e
			}
		}
	}
	return nil
}

func configureEnv(c *Context) error {
	path := c.webInf(sourceJettyEnv)
	doc, err := loadConfigureDoc(path)
	if err != nil || doc == nil {
		return err
	}

	for _, n := range doc.News {
		if n.Class != envEntryClass {
			c.logger.Warn("ignoring unsupported object", "file", path, "class", n.Class)
			continue
		}
		e, err := envEntryFromArgs(n.Args)
		if err != nil {
			return &DescriptorError{Path: path, Err: err}
		}
		if existing, ok := c.EnvEntries[e.Name]; ok && !e.Override && existing.Source != sourceJettyEnv {
			c.logger.Debug("env entry kept from descriptor", "name", e.Name)
			continue
		}
		c.EnvEntries[e.Name] = e
	}
	return nil
}

// envEntryFromArgs accepts the EnvEntry argument forms
// (name, value), (name, value, override) and (scope, name, value, override).
func envEntryFromArgs(args []xmlArg) (EnvEntry, error) {
	e := EnvEntry{Source: sourceJettyEnv}
	switch len(args) {
	case 2:
		e.Name, e.Type, e.Value = args[0].text(), args[1].Type, args[1].text()
	case 3:
		e.Name, e.Type, e.Value = args[0].text(), args[1].Type, args[1].text()
		e.Override = parseXMLBool(args[2].Value)
	case 4:
		e.Name, e.Type, e.Value = args[1].text(), args[2].Type, args[2].text()
		e.Override = parseXMLBool(args[3].Value)
	default:
		return EnvEntry{}, fmt.Errorf("EnvEntry expects 2 to 4 arguments, got %d", len(args))
	}
	if e.Name == "" {
		return EnvEntry{}, errors.New("EnvEntry without a name")
	}
	return e, nil
}

func configureAnnotations(c *Context) error {
	pattern, err := regexp.Compile(c.Attributes[ContainerIncludeJarPatternAttr])
	if err != nil {
		return fmt.Errorf("invalid %s: %w", ContainerIncludeJarPatternAttr, err)
	}
	c.includePattern = pattern

	seen := make(map[string]bool)
	webInfClasses := c.webInf("classes")
	for _, dir := range c.classpathDirs() {
		if dir != webInfClasses && !c.matchesIncludePattern(dir) {
			continue
		}
		if err := c.scanClasses(dir, seen); err != nil {
			return err
		}
	}
	return nil
}

// matchesIncludePattern matches the absolute, slash-separated form of dir with
// a trailing slash, the shape of a directory URI.
func (c *Context) matchesIncludePattern(dir types.FilesystemPath) bool {
	abs, err := filepath.Abs(string(dir))
	if err != nil {
		abs = string(dir)
	}
	return c.includePattern.MatchString(filepath.ToSlash(abs) + "/")
}

func (c *Context) scanClasses(root types.FilesystemPath, seen map[string]bool) error {
	err := filepath.WalkDir(string(root), func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() || !strings.HasSuffix(d.Name(), classFileSuffix) {
			return nil
		}
		rel, err := filepath.Rel(string(root), path)
		if err != nil {
			return err
		}
		name := strings.ReplaceAll(filepath.ToSlash(strings.TrimSuffix(rel, classFileSuffix)), "/", ".")
		if !seen[name] {
			seen[name] = true
			c.ScannedClasses = append(c.ScannedClasses, name)
		}
		return nil
	})
	if errors.Is(err, fs.ErrNotExist) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("scanning %s: %w", root, err)
	}
	return nil
}

func configureJettyWeb(c *Context) error {
	var (
		path types.FilesystemPath
		doc  *configureDoc
	)
	for _, name := range jettyWebFiles {
		path = c.webInf(name)
		d, err := loadConfigureDoc(path)
		if err != nil {
			return err
		}
		if d != nil {
			doc = d
			break
		}
	}
	if doc == nil {
		return nil
	}

	for _, s := range doc.Sets {
		value := strings.TrimSpace(s.Value)
		switch s.Name {
		case "displayName":
			c.DisplayName = value
		case "parentLoaderPriority":
			c.ParentLoaderPriority = parseXMLBool(value)
		case "dirAllowed":
			c.DirAllowed = parseXMLBool(value)
		default:
			c.logger.Warn("ignoring unsupported setter", "file", path, "name", s.Name)
		}
	}
	for _, call := range doc.Calls {
		if call.Name != "setAttribute" || len(call.Args) != 2 {
			c.logger.Warn("ignoring unsupported call", "file", path, "name", call.Name)
			continue
		}
		c.Attributes[call.Args[0].text()] = call.Args[1].text()
	}
	return nil
}

// classpathDirs returns the non-empty, non-jar classpath entries.
func (c *Context) classpathDirs() []types.FilesystemPath {
	dirs := make([]types.FilesystemPath, 0, len(c.Classpath))
	for _, p := range c.Classpath {
		if strings.TrimSpace(string(p)) == "" || strings.EqualFold(filepath.Ext(string(p)), ".jar") {
			continue
		}
		dirs = append(dirs, p)
	}
	return dirs
}
