// SPDX-License-Identifier: MPL-2.0

package issue

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrArgumentParse is the sentinel wrapped by ArgumentParseError.
	ErrArgumentParse = errors.New("unable to parse command line options")
	// ErrFileNotFound is the sentinel wrapped by FileNotFoundError.
	ErrFileNotFound = errors.New("file not found")
	// ErrValidation is the sentinel wrapped by ValidationError.
	ErrValidation = errors.New("invalid execution request")
	// ErrRealmSetup is the sentinel wrapped by RealmSetupError.
	ErrRealmSetup = errors.New("realm setup failed")
	// ErrEngineHomeNotFound reports a build engine home that is not a
	// directory.
	ErrEngineHomeNotFound = errors.New("no such directory exists")
	// ErrRuntimeUnsupported reports a hosting runtime below the configured
	// minimum.
	ErrRuntimeUnsupported = errors.New("hosting runtime version is not supported")
	// ErrTransportConnect reports a failure to reach the orchestrator.
	ErrTransportConnect = errors.New("failed to connect to the orchestrator")
	// ErrConfigLoad reports an unreadable or invalid configuration file.
	ErrConfigLoad = errors.New("failed to load configuration")
)

type (
	// ArgumentParseError reports a malformed command line, flag value or
	// endpoint token.
	ArgumentParseError struct {
		// Token is the offending argument, when one can be singled out.
		Token string
		Cause error
	}

	// FileNotFoundError reports an explicitly named file that does not exist
	// or is not a regular file.
	FileNotFoundError struct {
		// Kind names the role of the file (e.g., "user settings").
		Kind string
		Path string
	}

	// ValidationError reports an execution request that violates its
	// invariants.
	ValidationError struct {
		Problems []string
	}

	// RealmSetupError reports a failure while building the realm tree or
	// resolving a component from it.
	RealmSetupError struct {
		Realm string
		// Op is the failed step, e.g. "lookup engine" or "load realm config".
		Op    string
		Cause error
	}
)

// Error implements the error interface.
func (e *ArgumentParseError) Error() string {
	switch {
	case e.Cause != nil && e.Token != "":
		return fmt.Sprintf("%s: %q: %v", ErrArgumentParse, e.Token, e.Cause)
	case e.Cause != nil:
		return fmt.Sprintf("%s: %v", ErrArgumentParse, e.Cause)
	case e.Token != "":
		return fmt.Sprintf("%s: %q", ErrArgumentParse, e.Token)
	default:
		return ErrArgumentParse.Error()
	}
}

// Unwrap exposes both the sentinel and the cause.
func (e *ArgumentParseError) Unwrap() []error {
	if e.Cause == nil {
		return []error{ErrArgumentParse}
	}
	return []error{ErrArgumentParse, e.Cause}
}

// Error implements the error interface.
func (e *FileNotFoundError) Error() string {
	return fmt.Sprintf("the specified %s file does not exist: %s", e.Kind, e.Path)
}

// Unwrap returns ErrFileNotFound for errors.Is() compatibility.
func (e *FileNotFoundError) Unwrap() error { return ErrFileNotFound }

// Error implements the error interface.
func (e *ValidationError) Error() string {
	if len(e.Problems) == 0 {
		return ErrValidation.Error()
	}
	return fmt.Sprintf("%s: %s", ErrValidation, strings.Join(e.Problems, "; "))
}

// Unwrap returns ErrValidation for errors.Is() compatibility.
func (e *ValidationError) Unwrap() error { return ErrValidation }

// Error implements the error interface.
func (e *RealmSetupError) Error() string {
	msg := fmt.Sprintf("%s: %s", ErrRealmSetup, e.Op)
	if e.Realm != "" {
		msg += " in realm " + e.Realm
	}
	if e.Cause != nil {
		msg += ": " + e.Cause.Error()
	}
	return msg
}

// Unwrap exposes both the sentinel and the cause.
func (e *RealmSetupError) Unwrap() []error {
	if e.Cause == nil {
		return []error{ErrRealmSetup}
	}
	return []error{ErrRealmSetup, e.Cause}
}
