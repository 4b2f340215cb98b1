// SPDX-License-Identifier: MPL-2.0

package webapp

import (
	"encoding/xml"
	"strings"

	"github.com/devsoap/devlaunch/pkg/types"
)

// envEntryClass is the class name of an environment binding in jetty-env.xml.
const envEntryClass = "org.eclipse.jetty.plus.jndi.EnvEntry"

type (
	// configureDoc is the subset of the Jetty XML configuration format used by
	// jetty-env.xml and jetty-web.xml.
	configureDoc struct {
		XMLName xml.Name  `xml:"Configure"`
		Class   string    `xml:"class,attr"`
		Sets    []xmlSet  `xml:"Set"`
		Calls   []xmlCall `xml:"Call"`
		News    []xmlNew  `xml:"New"`
	}

	xmlSet struct {
		Name  string `xml:"name,attr"`
		Value string `xml:",chardata"`
	}

	xmlCall struct {
		Name string   `xml:"name,attr"`
		Args []xmlArg `xml:"Arg"`
	}

	xmlNew struct {
		ID    string   `xml:"id,attr"`
		Class string   `xml:"class,attr"`
		Args  []xmlArg `xml:"Arg"`
	}

	xmlArg struct {
		Type  string `xml:"type,attr"`
		Value string `xml:",chardata"`
	}
)

// loadConfigureDoc reads a Jetty XML file. A missing file yields (nil, nil).
func loadConfigureDoc(path types.FilesystemPath) (*configureDoc, error) {
	data, err := readOptional(path)
	if data == nil || err != nil {
		return nil, err
	}
	var doc configureDoc
	if err := xml.Unmarshal(data, &doc); err != nil {
		return nil, &DescriptorError{Path: path, Err: err}
	}
	return &doc, nil
}

func (a xmlArg) text() string { return strings.TrimSpace(a.Value) }

func parseXMLBool(s string) bool {
	return strings.EqualFold(strings.TrimSpace(s), "true")
}
