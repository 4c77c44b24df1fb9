/*
Copyright 2026 Benny Powers. All rights reserved.
Use of this source code is governed by the GPLv3
license that can be found in the LICENSE file.
*/

package engine

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrConfiguration matches any *ConfigurationError via errors.Is.
	ErrConfiguration = errors.New("invalid resolver configuration")

	// ErrResolution matches any *ResolutionError via errors.Is.
	ErrResolution = errors.New("module not found")
)

// ConfigurationError reports a resolver request the engine cannot honour,
// such as an unknown resolver type.
type ConfigurationError struct {
	Type   string
	Detail string
}

func (e *ConfigurationError) Error() string {
	if e.Detail != "" {
		return fmt.Sprintf("invalid resolver type '%s' specified: %s", e.Type, e.Detail)
	}
	return fmt.Sprintf("invalid resolver type '%s' specified", e.Type)
}

// Is lets errors.Is(err, ErrConfiguration) match every ConfigurationError.
func (e *ConfigurationError) Is(target error) bool {
	return target == ErrConfiguration
}

// ResolutionError reports that a request could not be located.
type ResolutionError struct {
	Request            string
	Context            string
	DependencyCategory string
	Reason             string
	Err                error
}

func (e *ResolutionError) Error() string {
	var b strings.Builder
	fmt.Fprintf(&b, "can't resolve '%s' in '%s'", e.Request, e.Context)
	if e.DependencyCategory != "" {
		fmt.Fprintf(&b, " (dependency category %q)", e.DependencyCategory)
	}
	if e.Reason != "" {
		b.WriteString(": ")
		b.WriteString(e.Reason)
	}
	if e.Err != nil {
		fmt.Fprintf(&b, ": %v", e.Err)
	}
	return b.String()
}

func (e *ResolutionError) Unwrap() error {
	return e.Err
}

// Is lets errors.Is(err, ErrResolution) match every ResolutionError.
func (e *ResolutionError) Is(target error) bool {
	return target == ErrResolution
}
