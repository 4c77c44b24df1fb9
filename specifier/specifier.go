/*
Copyright 2026 Benny Powers. All rights reserved.
Use of this source code is governed by the GPLv3
license that can be found in the LICENSE file.
*/

// Package specifier parses module requests.
//
// A request is what a source file writes in an import: "./util.js",
// "/abs/entry.js", "lodash/fp?raw#top", "npm:@scope/pkg@1.2.3/file.js" or
// "jsr:@std/path". Parsing splits off the query and fragment, classifies the
// request and, for module requests, separates the package name from the
// subpath inside it.
package specifier

import (
	"errors"
	"fmt"
	"regexp"
	"strings"
)

// Kind indicates how a request is located.
type Kind int

const (
	// KindRelative is a path relative to the issuing directory ("./x", "../x", ".", "..").
	KindRelative Kind = iota
	// KindAbsolute is an absolute filesystem path.
	KindAbsolute
	// KindModule is a bare package request searched in module directories.
	KindModule
)

func (k Kind) String() string {
	switch k {
	case KindRelative:
		return "relative"
	case KindAbsolute:
		return "absolute"
	case KindModule:
		return "module"
	default:
		return fmt.Sprintf("Kind(%d)", int(k))
	}
}

// Registry names the package registry prefix a module request carried.
type Registry string

const (
	RegistryNone Registry = ""
	RegistryNPM  Registry = "npm"
	RegistryJSR  Registry = "jsr"
)

// Specifier represents a parsed request.
type Specifier struct {
	// Kind is how the request is located.
	Kind Kind

	// Path is the request without query and fragment. For module requests
	// from a registry prefix it is the node_modules form, e.g. "@jsr/std__path/mod.ts".
	Path string

	// Package is the package name for module requests (e.g. "@scope/pkg" or "pkg").
	Package string

	// Version is the version pinned by an npm: or jsr: request, if any.
	Version string

	// Subpath is the path within the package, without a leading slash.
	Subpath string

	// Query is the query string including its leading "?", or "".
	Query string

	// Fragment is the fragment including its leading "#", or "".
	Fragment string

	// Directory is set when the request ends in a slash and must name a directory.
	Directory bool

	// Registry is the registry prefix the request carried.
	Registry Registry

	// Raw is the original request string.
	Raw string
}

var (
	// ErrEmpty is returned for an empty request.
	ErrEmpty = errors.New("empty request")

	// ErrInvalidPackage is returned for a registry request whose package name is malformed.
	ErrInvalidPackage = errors.New("invalid package name")
)

var (
	// registryPattern matches npm:@scope/pkg@ver/path, npm:pkg/path, or bare jsr:@scope/pkg
	registryPattern = regexp.MustCompile(`^(npm|jsr):(@[^/@]+/[^/@]+|[^/@]+)(?:@([^/]+))?(/.*)?$`)

	// windowsAbsPattern matches drive-letter paths such as C:\src or C:/src.
	windowsAbsPattern = regexp.MustCompile(`^[A-Za-z]:[\\/]`)
)

// Parse parses a request string into a Specifier.
func Parse(request string) (*Specifier, error) {
	if request == "" {
		return nil, ErrEmpty
	}

	path, query, fragment := SplitQuery(request)
	spec := &Specifier{
		Raw:      request,
		Path:     path,
		Query:    query,
		Fragment: fragment,
	}

	if m := registryPattern.FindStringSubmatch(path); m != nil {
		return parseRegistry(spec, Registry(m[1]), m[2], m[3], m[4])
	}
	if strings.HasPrefix(path, "npm:") || strings.HasPrefix(path, "jsr:") {
		return nil, fmt.Errorf("%w: %s", ErrInvalidPackage, request)
	}

	spec.Directory = strings.HasSuffix(path, "/") && len(path) > 1
	switch {
	case path == "." || path == ".." || strings.HasPrefix(path, "./") || strings.HasPrefix(path, "../"):
		spec.Kind = KindRelative
	case strings.HasPrefix(path, "/") || windowsAbsPattern.MatchString(path):
		spec.Kind = KindAbsolute
	default:
		spec.Kind = KindModule
		spec.Package, spec.Subpath = SplitPackage(path)
	}
	return spec, nil
}

func parseRegistry(spec *Specifier, registry Registry, pkg, version, file string) (*Specifier, error) {
	spec.Kind = KindModule
	spec.Registry = registry
	spec.Version = version
	spec.Subpath = strings.TrimPrefix(file, "/")
	spec.Directory = strings.HasSuffix(file, "/") && len(file) > 1

	spec.Package = pkg
	if registry == RegistryJSR {
		compat, ok := jsrToNPMCompatPackage(pkg)
		if !ok {
			// JSR requires scoped packages (@scope/name).
			return nil, fmt.Errorf("%w: jsr packages must be scoped: %s", ErrInvalidPackage, spec.Raw)
		}
		spec.Package = compat
	}

	spec.Path = spec.Package
	if spec.Subpath != "" {
		spec.Path += "/" + spec.Subpath
	}
	return spec, nil
}

// SplitQuery separates the query and fragment from a request. A leading "#"
// belongs to the path, so package-internal imports like "#internal" survive.
// A NUL byte before "#" or "?" escapes it into the path.
func SplitQuery(request string) (path, query, fragment string) {
	var b strings.Builder
	for i := 0; i < len(request); i++ {
		c := request[i]
		switch {
		case c == 0 && i+1 < len(request) && (request[i+1] == '#' || request[i+1] == '?'):
			b.WriteByte(request[i+1])
			i++
		case c == '?' || (c == '#' && i > 0):
			rest := request[i:]
			if c == '#' {
				return b.String(), "", rest
			}
			if hash := strings.IndexByte(rest, '#'); hash >= 0 {
				return b.String(), rest[:hash], rest[hash:]
			}
			return b.String(), rest, ""
		default:
			b.WriteByte(c)
		}
	}
	return b.String(), "", ""
}

// SplitPackage splits a module path into its package name and the subpath
// inside the package. Scoped names keep both segments.
func SplitPackage(path string) (pkg, subpath string) {
	segments := 1
	if strings.HasPrefix(path, "@") {
		segments = 2
	}
	parts := strings.SplitN(path, "/", segments+1)
	if len(parts) <= segments {
		return strings.TrimSuffix(path, "/"), ""
	}
	return strings.Join(parts[:segments], "/"), parts[segments]
}

// IsRelative reports whether this is a relative request.
func (s *Specifier) IsRelative() bool {
	return s.Kind == KindRelative
}

// IsAbsolute reports whether this is an absolute path request.
func (s *Specifier) IsAbsolute() bool {
	return s.Kind == KindAbsolute
}

// IsModule reports whether this is a module request.
func (s *Specifier) IsModule() bool {
	return s.Kind == KindModule
}

// Suffix returns the query followed by the fragment.
func (s *Specifier) Suffix() string {
	return s.Query + s.Fragment
}
