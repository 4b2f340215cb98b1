// SPDX-License-Identifier: MPL-2.0

package webapp

import (
	"encoding/xml"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"strings"

	"github.com/devsoap/devlaunch/pkg/types"
)

type (
	// Descriptor is the subset of web.xml and web-fragment.xml the dev
	// server understands. Element names match regardless of namespace.
	Descriptor struct {
		XMLName      xml.Name
		Name         string            `xml:"name"`
		DisplayName  string            `xml:"display-name"`
		WelcomeFiles []string          `xml:"welcome-file-list>welcome-file"`
		MIMEMappings []MIMEMapping     `xml:"mime-mapping"`
		ErrorPages   []ErrorPage       `xml:"error-page"`
		EnvEntries   []DescriptorEntry `xml:"env-entry"`
	}

	// MIMEMapping maps a file extension to a content type.
	MIMEMapping struct {
		Extension string `xml:"extension"`
		MIMEType  string `xml:"mime-type"`
	}

	// ErrorPage maps an HTTP status or exception type to a location.
	ErrorPage struct {
		ErrorCode     string `xml:"error-code"`
		ExceptionType string `xml:"exception-type"`
		Location      string `xml:"location"`
	}

	// DescriptorEntry is an env-entry element.
	DescriptorEntry struct {
		Name  string `xml:"env-entry-name"`
		Type  string `xml:"env-entry-type"`
		Value string `xml:"env-entry-value"`
	}

	// DescriptorError reports a descriptor that cannot be read or parsed.
	DescriptorError struct {
		Path types.FilesystemPath
		Err  error
	}
)

// Error implements the error interface.
func (e *DescriptorError) Error() string {
	return fmt.Sprintf("descriptor %s: %v", e.Path, e.Err)
}

// Unwrap returns the underlying read or parse error.
func (e *DescriptorError) Unwrap() error { return e.Err }

// loadDescriptor reads and parses a descriptor. A missing file yields (nil, nil).
func loadDescriptor(path types.FilesystemPath) (*Descriptor, error) {
	data, err := readOptional(path)
	if data == nil || err != nil {
		return nil, err
	}

	var d Descriptor
	if err := xml.Unmarshal(data, &d); err != nil {
		return nil, &DescriptorError{Path: path, Err: err}
	}
	switch d.XMLName.Local {
	case "web-app", "web-fragment":
	default:
		return nil, &DescriptorError{Path: path, Err: fmt.Errorf("unexpected root element <%s>", d.XMLName.Local)}
	}
	d.normalize()
	return &d, nil
}

// readOptional returns nil data for a missing path and an error for any other
// read failure.
func readOptional(path types.FilesystemPath) ([]byte, error) {
	if path == "" {
		return nil, nil
	}
	data, err := os.ReadFile(string(path))
	if errors.Is(err, fs.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, &DescriptorError{Path: path, Err: err}
	}
	return data, nil
}

func (d *Descriptor) normalize() {
	d.Name = strings.TrimSpace(d.Name)
	d.DisplayName = strings.TrimSpace(d.DisplayName)
	for i := range d.WelcomeFiles {
		d.WelcomeFiles[i] = strings.TrimSpace(d.WelcomeFiles[i])
	}
	for i := range d.MIMEMappings {
		m := &d.MIMEMappings[i]
		m.Extension = strings.ToLower(strings.TrimPrefix(strings.TrimSpace(m.Extension), "."))
		m.MIMEType = strings.TrimSpace(m.MIMEType)
	}
	for i := range d.ErrorPages {
		p := &d.ErrorPages[i]
		p.ErrorCode = strings.TrimSpace(p.ErrorCode)
		p.ExceptionType = strings.TrimSpace(p.ExceptionType)
		p.Location = strings.TrimSpace(p.Location)
	}
	for i := range d.EnvEntries {
		e := &d.EnvEntries[i]
		e.Name = strings.TrimSpace(e.Name)
		e.Type = strings.TrimSpace(e.Type)
		e.Value = strings.TrimSpace(e.Value)
	}
}

// statusErrorPages returns the error pages keyed by HTTP status. Exception
// mappings have no meaning for static content and are skipped.
func (d *Descriptor) statusErrorPages() (map[int]string, error) {
	pages := make(map[int]string, len(d.ErrorPages))
	for _, p := range d.ErrorPages {
		if p.ErrorCode == "" {
			continue
		}
		code, err := strconv.Atoi(p.ErrorCode)
		if err != nil || code < 400 || code > 599 {
			return nil, fmt.Errorf("error-page: invalid error-code %q", p.ErrorCode)
		}
		if !strings.HasPrefix(p.Location, "/") {
			return nil, fmt.Errorf("error-page %d: location %q must start with /", code, p.Location)
		}
		pages[code] = p.Location
	}
	return pages, nil
}

func (d *Descriptor) envEntries(source string) ([]EnvEntry, error) {
	entries := make([]EnvEntry, 0, len(d.EnvEntries))
	for _, e := range d.EnvEntries {
		if e.Name == "" {
			return nil, errors.New("env-entry without env-entry-name")
		}
		entries = append(entries, EnvEntry{Name: e.Name, Type: e.Type, Value: e.Value, Source: source})
	}
	return entries, nil
}
