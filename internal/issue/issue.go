// SPDX-License-Identifier: MPL-2.0

package issue

import (
	"strings"

	"github.com/charmbracelet/glamour"
	"golang.org/x/exp/slices"

	"github.com/structkit/structkit/pkg/structfile"
)

const (
	StructureNotFoundId Id = "structure-not-found"
	ConfigLoadFailedId  Id = "config-load-failed"
	ApplyConflictId     Id = "apply-conflict"
	PathEscapeId        Id = "path-escape"
	StubNotFoundId      Id = "stub-not-found"
	HookFailedId        Id = "hook-failed"
)

type (
	// Id names a catalog entry. Diagnostic entries reuse the diagnostic code.
	Id string

	MarkdownMsg string

	HttpLink string

	Issue struct {
		id       Id          // ID used to lookup the issue
		mdMsg    MarkdownMsg // Markdown text that will be rendered
		extLinks []HttpLink  // external links that might be useful for the user
	}
)

// DiagnosticId returns the catalog id documenting a diagnostic code.
func DiagnosticId(code structfile.Code) Id {
	return Id(code)
}

func (i *Issue) Id() Id {
	return i.id
}

func (i *Issue) MarkdownMsg() MarkdownMsg {
	return i.mdMsg
}

func (i *Issue) ExtLinks() []HttpLink {
	return slices.Clone(i.extLinks)
}

// Render renders the entry as terminal Markdown using a glamour style name
// ("dark", "light", "notty", "auto") or a JSON style path.
func (i *Issue) Render(stylePath string) (string, error) {
	var md strings.Builder
	md.WriteString(string(i.mdMsg))
	if len(i.extLinks) > 0 {
		md.WriteString("\n\n## See also\n")
		for _, link := range i.extLinks {
			md.WriteString("- <" + string(link) + ">\n")
		}
	}
	return render(md.String(), stylePath)
}

var (
	render = glamour.Render

	indentTabsIssue = &Issue{
		id: DiagnosticId(structfile.CodeIndentTabs),
		mdMsg: `
# Tabs in indentation

An entry line is indented with tab characters. Each tab counts as one full
indent step, so the structure still parses, but editors disagree on tab width.

## Things you can try:
- Reformat the file, which rewrites indentation with spaces:
~~~
$ structkit fmt --write structure.txt
~~~`,
	}

	indentSkipLevelIssue = &Issue{
		id: DiagnosticId(structfile.CodeIndentSkipLevel),
		mdMsg: `
# Indentation skips a level

The line is indented more than one step deeper than the previous entry. It is
treated as one level deeper.

~~~
src/
        index.ts   # 8 spaces, read as depth 1
~~~

## Things you can try:
- Indent children by exactly one step (parse.indent_step, default 2)
- Run ` + "`structkit fmt --write`" + ` to normalize indentation`,
	}

	indentMisalignedIssue = &Issue{
		id: DiagnosticId(structfile.CodeIndentMisaligned),
		mdMsg: `
# Misaligned dedent

The line dedents by an amount that is not a multiple of the indent step. The
depth is rounded to the nearest level.

## Things you can try:
- Align the line with the entry it should be a sibling of
- Check parse.indent_step matches the file`,
	}

	childOfFileLooseIssue = &Issue{
		id: DiagnosticId(structfile.CodeChildOfFileLoose),
		mdMsg: `
# Entry indented under a file

Only directories can have children. The entry was attached as a sibling of the
file above it.

~~~
app/
  main.go
    helper.go   # becomes a sibling of main.go
~~~

## Things you can try:
- Add a trailing / if the parent was meant to be a directory
- Dedent the entry`,
	}

	childOfFileIssue = &Issue{
		id: DiagnosticId(structfile.CodeChildOfFile),
		mdMsg: `
# Entry indented under a file

Only directories can have children. In strict mode (used by ` + "`structkit apply`" + `)
this stops parsing.

## Things you can try:
- Add a trailing / if the parent was meant to be a directory
- Dedent the entry
- Run ` + "`structkit check`" + ` to list every problem at once`,
	}

	pathColonIssue = &Issue{
		id: DiagnosticId(structfile.CodePathColon),
		mdMsg: `
# Colon in path

The ':' character is reserved for annotations such as @stub:name and cannot
appear in a path.

## Things you can try:
- Separate annotations from the path with a space:
~~~
main.go @stub:go-main
~~~`,
	}

	missingParentIssue = &Issue{
		id: DiagnosticId(structfile.CodeMissingParent),
		mdMsg: `
# Missing parent directory

The entry is indented but no directory is open at the level above it. It was
attached at the root.

## Things you can try:
- Declare the parent directory on the line before
- Dedent the entry to the root`,
	}

	unknownAnnotationIssue = &Issue{
		id: DiagnosticId(structfile.CodeUnknownAnnotation),
		mdMsg: `
# Unknown annotation

A token after the path is not one of the supported annotations. It is kept
verbatim and otherwise ignored.

## Supported annotations:
- @stub:<name> selects the stub file used as initial content
- @include:<glob,glob> limits which descendants inherit a directory's stub
- @exclude:<glob,glob> removes descendants from stub inheritance`,
		extLinks: []HttpLink{"https://github.com/bmatcuk/doublestar#patterns"},
	}

	structureNotFoundIssue = &Issue{
		id: StructureNotFoundId,
		mdMsg: `
# Structure file not found!

No structure file was given and the configured default does not exist.

## Things you can try:
- Pass the file explicitly:
~~~
$ structkit check path/to/structure.txt
~~~

- Or set the default in structkit.cue:
~~~cue
structure_file: "layout/structure.txt"
~~~`,
	}

	configLoadFailedIssue = &Issue{
		id: ConfigLoadFailedId,
		mdMsg: `
# Failed to load configuration!

The configuration file has invalid CUE syntax or does not match the schema.

## Things you can try:
- Print the location that was used:
~~~
$ structkit config path
~~~

- Write a fresh file with every default:
~~~
$ structkit config init
~~~`,
		extLinks: []HttpLink{"https://cuelang.org/docs/"},
	}

	applyConflictIssue = &Issue{
		id: ApplyConflictId,
		mdMsg: `
# Path conflict

The structure declares a directory where a file already exists, or a file where
a directory exists. Nothing is overwritten.

## Things you can try:
- Move or remove the existing path
- Preview the run first:
~~~
$ structkit apply --dry-run
~~~`,
	}

	pathEscapeIssue = &Issue{
		id: PathEscapeId,
		mdMsg: `
# Path escapes the destination

A declared path is absolute or uses '..' to leave the output directory. Such
entries are never written.

## Things you can try:
- Use relative paths without '..' segments`,
	}

	stubNotFoundIssue = &Issue{
		id: StubNotFoundId,
		mdMsg: `
# Stub not found

A file references a stub that does not exist in the stubs directory. Stubs are
looked up as <stubs_dir>/<name> and then <stubs_dir>/<name>.stub.

## Things you can try:
- Check apply.stubs_dir in your configuration
- Create the stub file`,
	}

	hookFailedIssue = &Issue{
		id: HookFailedId,
		mdMsg: `
# Hook failed

A pre_apply or post_apply hook exited with a non-zero status. A failing
pre_apply hook stops the apply before any file is written.

Hooks run in a built-in POSIX shell with these variables:
- STRUCTKIT_ROOT: the destination directory
- STRUCTKIT_PHASE: pre_apply or post_apply
- STRUCTKIT_CREATED: paths created by this run, one per line

## Things you can try:
- Run with --verbose to see the failing script
- Skip hooks once with --no-hooks`,
		extLinks: []HttpLink{"https://github.com/mvdan/sh"},
	}

	catalog = []*Issue{
		indentTabsIssue,
		indentSkipLevelIssue,
		indentMisalignedIssue,
		childOfFileLooseIssue,
		childOfFileIssue,
		pathColonIssue,
		missingParentIssue,
		unknownAnnotationIssue,
		structureNotFoundIssue,
		configLoadFailedIssue,
		applyConflictIssue,
		pathEscapeIssue,
		stubNotFoundIssue,
		hookFailedIssue,
	}
)

// Values returns every catalog entry in documentation order.
func Values() []*Issue {
	return slices.Clone(catalog)
}

// Get returns the entry for id, or nil.
func Get(id Id) *Issue {
	i := slices.IndexFunc(catalog, func(is *Issue) bool { return is.id == id })
	if i < 0 {
		return nil
	}
	return catalog[i]
}
