// SPDX-License-Identifier: MPL-2.0

package request

import (
	"errors"
	"fmt"
)

const (
	FailFast  FailureBehavior = "FAIL_FAST"
	FailAtEnd FailureBehavior = "FAIL_AT_END"
	FailNever FailureBehavior = "FAIL_NEVER"

	ChecksumUnset ChecksumPolicy = ""
	ChecksumWarn  ChecksumPolicy = "warn"
	ChecksumFail  ChecksumPolicy = "fail"

	MakeNone       MakeBehavior = ""
	MakeUpstream   MakeBehavior = "make-upstream"
	MakeDownstream MakeBehavior = "make-downstream"
	MakeBoth       MakeBehavior = "make-both"

	LevelDebug LogLevel = "DEBUG"
	LevelInfo  LogLevel = "INFO"
	LevelError LogLevel = "ERROR"

	// BuilderSingleThreaded is the engine's default builder.
	BuilderSingleThreaded = "singlethreaded"
	// BuilderMultiThreaded is selected when the degree of concurrency exceeds one.
	BuilderMultiThreaded = "multithreaded"
)

var (
	// ErrInvalidFailureBehavior is the sentinel for unknown failure modes.
	ErrInvalidFailureBehavior = errors.New("invalid failure behavior")
	// ErrInvalidChecksumPolicy is the sentinel for unknown checksum policies.
	ErrInvalidChecksumPolicy = errors.New("invalid checksum policy")
	// ErrInvalidMakeBehavior is the sentinel for unknown make behaviors.
	ErrInvalidMakeBehavior = errors.New("invalid make behavior")
)

type (
	// FailureBehavior selects how the reactor reacts to a failing module.
	FailureBehavior string

	// ChecksumPolicy is the global artifact checksum policy.
	ChecksumPolicy string

	// MakeBehavior selects which related modules are added to a partial build.
	MakeBehavior string

	// LogLevel is the engine logging threshold.
	LogLevel string

	// Mirror is a repository mirror from the settings files.
	Mirror struct {
		ID       string
		Name     string
		URL      string
		MirrorOf string
		Layout   string
	}

	// Server holds repository credentials from the settings files.
	Server struct {
		ID                   string
		Username             string
		Password             string
		PrivateKey           string
		Passphrase           string
		FilePermissions      string
		DirectoryPermissions string
	}

	// Toolchain is a toolchain model entry; Provides holds the requirement
	// keys (version, vendor, ...) matched by toolchain-aware plugins.
	Toolchain struct {
		Type          string
		Provides      map[string]string
		Configuration map[string]string
	}
)

// Validate returns an error wrapping ErrInvalidFailureBehavior for unknown values.
func (f FailureBehavior) Validate() error {
	switch f {
	case FailFast, FailAtEnd, FailNever:
		return nil
	default:
		return fmt.Errorf("%w: %q", ErrInvalidFailureBehavior, string(f))
	}
}

// Validate returns an error wrapping ErrInvalidChecksumPolicy for unknown
// values. The unset policy is valid and means warn.
func (c ChecksumPolicy) Validate() error {
	switch c {
	case ChecksumUnset, ChecksumWarn, ChecksumFail:
		return nil
	default:
		return fmt.Errorf("%w: %q", ErrInvalidChecksumPolicy, string(c))
	}
}

// Validate returns an error wrapping ErrInvalidMakeBehavior for unknown values.
func (m MakeBehavior) Validate() error {
	switch m {
	case MakeNone, MakeUpstream, MakeDownstream, MakeBoth:
		return nil
	default:
		return fmt.Errorf("%w: %q", ErrInvalidMakeBehavior, string(m))
	}
}

// DeriveMakeBehavior maps the -am/-amd switches onto a MakeBehavior.
func DeriveMakeBehavior(alsoMake, alsoMakeDependents bool) MakeBehavior {
	switch {
	case alsoMake && alsoMakeDependents:
		return MakeBoth
	case alsoMake:
		return MakeUpstream
	case alsoMakeDependents:
		return MakeDownstream
	default:
		return MakeNone
	}
}
