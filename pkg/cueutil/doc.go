// SPDX-License-Identifier: MPL-2.0

// Package cueutil validates and decodes CUE documents against an embedded
// schema definition.
//
//	//go:embed config_schema.cue
//	var schemaSrc string
//
//	schema, err := cueutil.CompileSchema(schemaSrc, "#Config")
//	...
//	values, err := cueutil.Decode[map[string]any](schema, data,
//	    cueutil.WithFilename("structkit.cue"),
//	    cueutil.WithConcrete(false),
//	)
//
// Errors are rewritten to "<file>: <field.path>: <message>" so users can find
// the offending field without knowing CUE.
package cueutil
