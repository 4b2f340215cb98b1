// SPDX-License-Identifier: MPL-2.0

package devserver

import (
	"errors"
	"fmt"
	"html"
	"io/fs"
	"net/http"
	"net/url"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/charmbracelet/log"

	"github.com/devsoap/devlaunch/internal/webapp"
	"github.com/devsoap/devlaunch/pkg/types"
)

// protectedDirs are never served, whatever the resource root.
var protectedDirs = []string{"WEB-INF", "META-INF"}

type staticHandler struct {
	roots        []types.FilesystemPath
	welcomeFiles []string
	mimeTypes    map[string]string
	errorPages   map[int]string
	dirAllowed   bool
	logger       *log.Logger
}

// NewStaticHandler serves the resource roots of a configured context.
// Roots are searched in order and the first hit wins.
func NewStaticHandler(c *webapp.Context, logger *log.Logger) http.Handler {
	return &staticHandler{
		roots:        c.ResourceRoots,
		welcomeFiles: c.WelcomeFiles,
		mimeTypes:    c.MIMETypes,
		errorPages:   c.ErrorPages,
		dirAllowed:   c.DirAllowed,
		logger:       logger,
	}
}

func (h *staticHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet && r.Method != http.MethodHead {
		w.Header().Set("Allow", "GET, HEAD")
		http.Error(w, http.StatusText(http.StatusMethodNotAllowed), http.StatusMethodNotAllowed)
		return
	}

	urlPath := r.URL.Path
	if !strings.HasPrefix(urlPath, "/") {
		urlPath = "/" + urlPath
	}
	clean := path.Clean(urlPath)
	if isProtected(clean) {
		h.sendError(w, r, http.StatusNotFound)
		return
	}

	file, info, ok := h.lookup(clean)
	if !ok {
		h.sendError(w, r, http.StatusNotFound)
		return
	}
	if !info.IsDir() {
		h.serveFile(w, r, file, http.StatusOK)
		return
	}

	if !strings.HasSuffix(urlPath, "/") {
		target := url.URL{Path: clean + "/", RawQuery: r.URL.RawQuery}
		http.Redirect(w, r, target.String(), http.StatusFound)
		return
	}

	for _, welcome := range h.welcomeFiles {
		if f, fi, ok := h.lookup(path.Join(clean, welcome)); ok && !fi.IsDir() {
			h.serveFile(w, r, f, http.StatusOK)
			return
		}
	}

	if !h.dirAllowed {
		h.sendError(w, r, http.StatusForbidden)
		return
	}
	h.listDirectory(w, r, file, clean)
}

// lookup returns the first resource root entry for the slash-separated path.
func (h *staticHandler) lookup(urlPath string) (string, fs.FileInfo, bool) {
	rel := filepath.FromSlash(strings.TrimPrefix(urlPath, "/"))
	for _, root := range h.roots {
		full := filepath.Join(string(root), rel)
		info, err := os.Stat(full)
		if err == nil {
			return full, info, true
		}
		if !errors.Is(err, fs.ErrNotExist) {
			h.logger.Debug("resource lookup failed", "path", full, "err", err)
		}
	}
	return "", nil, false
}

func (h *staticHandler) serveFile(w http.ResponseWriter, r *http.Request, name string, status int) {
	f, err := os.Open(name)
	if err != nil {
		h.logger.Warn("opening resource", "path", name, "err", err)
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	ext := strings.ToLower(strings.TrimPrefix(filepath.Ext(name), "."))
	if ct, ok := h.mimeTypes[ext]; ok {
		w.Header().Set("Content-Type", ct)
	}

	if status != http.StatusOK {
		// Error pages keep their status; range and conditional handling do not apply.
		if w.Header().Get("Content-Type") == "" {
			w.Header().Set("Content-Type", "text/html; charset=utf-8")
		}
		w.WriteHeader(status)
		if r.Method != http.MethodHead {
			_, _ = f.WriteTo(w)
		}
		return
	}
	http.ServeContent(w, r, info.Name(), info.ModTime(), f)
}

// sendError writes status, using the descriptor error page when one exists.
func (h *staticHandler) sendError(w http.ResponseWriter, r *http.Request, status int) {
	if loc, ok := h.errorPages[status]; ok {
		if f, fi, found := h.lookup(path.Clean(loc)); found && !fi.IsDir() {
			h.serveFile(w, r, f, status)
			return
		}
		h.logger.Debug("error page not found", "status", status, "location", loc)
	}
	http.Error(w, http.StatusText(status), status)
}

func (h *staticHandler) listDirectory(w http.ResponseWriter, r *http.Request, dir, urlPath string) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		h.logger.Warn("listing directory", "path", dir, "err", err)
		h.sendError(w, r, http.StatusForbidden)
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if r.Method == http.MethodHead {
		return
	}

	title := html.EscapeString(urlPath)
	var b strings.Builder
	fmt.Fprintf(&b, "<!DOCTYPE html>\n<html><head><title>Directory: %s</title></head><body>\n", title)
	fmt.Fprintf(&b, "<h1>Directory: %s</h1>\n<ul>\n", title)
	if urlPath != "/" {
		b.WriteString("<li><a href=\"../\">../</a></li>\n")
	}
	for _, e := range entries {
		name := e.Name()
		if urlPath == "/" && isProtected("/"+name) {
			continue
		}
		if e.IsDir() {
			name += "/"
		}
		href := (&url.URL{Path: name}).String()
		fmt.Fprintf(&b, "<li><a href=\"%s\">%s</a></li>\n", html.EscapeString(href), html.EscapeString(name))
	}
	b.WriteString("</ul>\n</body></html>\n")
	_, _ = w.Write([]byte(b.String()))
}

// isProtected reports whether the first segment of a clean URL path names a
// protected directory.
func isProtected(clean string) bool {
	first, _, _ := strings.Cut(strings.TrimPrefix(clean, "/"), "/")
	for _, d := range protectedDirs {
		if strings.EqualFold(first, d) {
			return true
		}
	}
	return false
}
