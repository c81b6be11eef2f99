// SPDX-License-Identifier: MPL-2.0

package cueutil

import (
	"fmt"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"
)

// Decode compiles schema, unifies data with the definition at schemaPath
// (e.g. "#RealmConfig") and decodes the result into a new T.
func Decode[T any](schema, data []byte, schemaPath string, opts ...Option) (*T, error) {
	options := defaultOptions()
	for _, opt := range opts {
		opt(&options)
	}
	filename := options.filename

	if int64(len(data)) > options.maxFileSize {
		return nil, fmt.Errorf("%s: file size %d bytes exceeds maximum %d bytes", filename, len(data), options.maxFileSize)
	}

	ctx := cuecontext.New()

	schemaValue := ctx.CompileBytes(schema)
	if schemaValue.Err() != nil {
		return nil, fmt.Errorf("internal error: failed to compile schema: %w", schemaValue.Err())
	}
	def := schemaValue.LookupPath(cue.ParsePath(schemaPath))
	if def.Err() != nil {
		return nil, fmt.Errorf("internal error: schema definition %s not found: %w", schemaPath, def.Err())
	}

	userValue := ctx.CompileBytes(data, cue.Filename(filename))
	if userValue.Err() != nil {
		return nil, FormatError(userValue.Err(), filename)
	}

	unified := def.Unify(userValue)
	if err := unified.Validate(cue.Concrete(options.concrete)); err != nil {
		return nil, FormatError(err, filename)
	}

	var out T
	if err := unified.Decode(&out); err != nil {
		return nil, FormatError(err, filename)
	}
	return &out, nil
}
