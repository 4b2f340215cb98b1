// SPDX-License-Identifier: MPL-2.0

package sass

import (
	"errors"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/devsoap/devlaunch/pkg/types"
)

// SourceMapExt is appended to the output path to name the source map.
const SourceMapExt = ".map"

// ErrInvalidRequest is the sentinel wrapped by request validation errors.
var ErrInvalidRequest = errors.New("invalid compile request")

// Request names the files of one compilation.
type Request struct {
	// Input is the stylesheet as named by the build, inside its theme directory.
	Input types.FilesystemPath
	// Output is the CSS file to write.
	Output types.FilesystemPath
	// UnpackedThemes is the root the themes were unpacked into.
	UnpackedThemes types.FilesystemPath
}

// NewRequest builds a Request from command line arguments.
func NewRequest(input, output, unpackedThemes string) (Request, error) {
	r := Request{
		Input:          types.FilesystemPath(input),
		Output:         types.FilesystemPath(output),
		UnpackedThemes: types.FilesystemPath(unpackedThemes),
	}
	if err := r.Validate(); err != nil {
		return Request{}, err
	}
	return r, nil
}

// Validate checks that every path is set.
func (r Request) Validate() error {
	var errs []error
	if err := r.Input.Validate("input"); err != nil {
		errs = append(errs, err)
	}
	if err := r.Output.Validate("output"); err != nil {
		errs = append(errs, err)
	}
	if err := r.UnpackedThemes.Validate("unpackedThemes"); err != nil {
		errs = append(errs, err)
	}
	if len(errs) > 0 {
		return fmt.Errorf("%w: %w", ErrInvalidRequest, errors.Join(errs...))
	}
	return nil
}

// ResolveInput returns the stylesheet actually compiled:
// <UnpackedThemes>/<parent directory name of Input>/<file name of Input>.
func (r Request) ResolveInput() types.FilesystemPath {
	theme := r.Input.Dir().Base()
	return r.UnpackedThemes.Join(theme, r.Input.Base())
}

// ThemeDir is the unpacked directory of the input's theme. Watch mode
// observes it, and it is the first import path.
func (r Request) ThemeDir() types.FilesystemPath {
	return r.ResolveInput().Dir()
}

// SourceMap is the path of the source map written next to the CSS.
func (r Request) SourceMap() types.FilesystemPath {
	return types.FilesystemPath(string(r.Output) + SourceMapExt)
}

// isIndented reports whether the file uses the indented syntax.
func isIndented(p types.FilesystemPath) bool {
	return strings.EqualFold(filepath.Ext(string(p)), ".sass")
}
