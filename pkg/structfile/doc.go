// SPDX-License-Identifier: MPL-2.0

// Package structfile parses and formats structure files.
//
// A structure file describes a directory layout with indentation:
//
//	src/                    # sources
//	  index.ts @stub:entry
//	  schema/ @include:*.ts @exclude:*.test.ts
//	    index.ts
//
// Lines ending in "/" declare directories, every other entry line declares a file.
// Full-line comments start with "#" or "//"; inline comments start at a
// whitespace-preceded marker and are preserved verbatim by the formatter.
//
// # Policies
//
// Parsing runs under one of two policies that share the same rules:
//
//   - PolicyCollect never fails. Every anomaly becomes a Diagnostic and the tree is
//     repaired (skipped levels collapse to one level, entries indented under a file
//     become siblings of that file).
//   - PolicyFailFast stops at the first diagnostic whose severity is error and returns
//     a *ParseError naming the file and the 1-based line.
//
// The package performs no I/O and keeps no state between calls, so Parse and Format
// are safe for concurrent use.
package structfile
