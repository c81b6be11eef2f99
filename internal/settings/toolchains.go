// SPDX-License-Identifier: MPL-2.0

package settings

import (
	"context"
	"errors"
	"maps"

	"github.com/invowk/m3bridge/internal/request"
)

type (
	// ToolchainsRequest names the toolchains files to read. Empty paths are
	// skipped.
	ToolchainsRequest struct {
		UserFile   string
		GlobalFile string
	}

	// ToolchainsResult is the effective toolchain list, user entries first.
	ToolchainsResult struct {
		Effective []request.Toolchain
		Problems  []Problem
	}

	// ToolchainsBuilder produces effective toolchains.
	ToolchainsBuilder interface {
		Build(ctx context.Context, req *ToolchainsRequest) (*ToolchainsResult, error)
	}

	// XMLToolchainsBuilder reads toolchains.xml files from disk.
	XMLToolchainsBuilder struct{}
)

// Build implements ToolchainsBuilder.
func (XMLToolchainsBuilder) Build(ctx context.Context, req *ToolchainsRequest) (*ToolchainsResult, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	res := &ToolchainsResult{}
	for _, path := range []string{req.UserFile, req.GlobalFile} {
		tcs := readInterpolated[Toolchains](path, nil, &res.Problems)
		if tcs == nil {
			continue
		}
		for _, tc := range tcs.Toolchains {
			res.Effective = append(res.Effective, request.Toolchain{
				Type:          tc.Type,
				Provides:      maps.Clone(map[string]string(tc.Provides)),
				Configuration: maps.Clone(map[string]string(tc.Configuration)),
			})
		}
	}
	return res, nil
}

// PopulateToolchains groups toolchains by type on req.
func PopulateToolchains(req *request.Request, toolchains []request.Toolchain) error {
	var errs []error
	for _, tc := range toolchains {
		errs = append(errs, req.AddToolchain(tc))
	}
	return errors.Join(errs...)
}
