// SPDX-License-Identifier: MPL-2.0

package cueutil

import (
	"errors"
	"fmt"
	"strings"

	cueerrors "cuelang.org/go/cue/errors"
)

// ErrInvalidDocument is the sentinel wrapped by every validation failure.
var ErrInvalidDocument = errors.New("invalid CUE document")

// DocumentError lists the problems found in one document.
type DocumentError struct {
	File     string
	Problems []string
}

// Error implements the error interface.
func (e *DocumentError) Error() string {
	if len(e.Problems) == 1 {
		return fmt.Sprintf("%s: %s", e.File, e.Problems[0])
	}
	return fmt.Sprintf("%s: validation failed:\n  %s", e.File, strings.Join(e.Problems, "\n  "))
}

// Unwrap returns ErrInvalidDocument for errors.Is() compatibility.
func (e *DocumentError) Unwrap() error { return ErrInvalidDocument }

// FormatError converts a CUE error into a DocumentError whose problems are
// prefixed with their JSON path.
func FormatError(err error, file string) error {
	if err == nil {
		return nil
	}
	list := cueerrors.Errors(err)
	if len(list) == 0 {
		return &DocumentError{File: file, Problems: []string{err.Error()}}
	}

	problems := make([]string, 0, len(list))
	for _, e := range list {
		path := formatPath(cueerrors.Path(e))
		msg := e.Error()
		if path != "" {
			msg = strings.TrimSpace(strings.TrimPrefix(strings.TrimPrefix(msg, path), ":"))
			msg = path + ": " + msg
		}
		problems = append(problems, msg)
	}
	return &DocumentError{File: file, Problems: problems}
}

// formatPath renders ["realms", "0", "load"] as realms[0].load.
func formatPath(path []string) string {
	var b strings.Builder
	for i, part := range path {
		if i > 0 && isIndex(part) {
			b.WriteString("[" + part + "]")
			continue
		}
		if i > 0 {
			b.WriteByte('.')
		}
		b.WriteString(part)
	}
	return b.String()
}

func isIndex(s string) bool {
	if s == "" {
		return false
	}
	for _, c := range s {
		if c < '0' || c > '9' {
			return false
		}
	}
	return true
}
