// SPDX-License-Identifier: MPL-2.0

package structfile

import "testing"

func TestClassifyLines(t *testing.T) {
	t.Parallel()

	src := "src/\r\n  index.ts\n\n# note\n\t// also a note\n\tlib/   \nlast"
	lines := classifyLines(src, 2)

	want := []struct {
		kind   LineKind
		width  int
		tabs   int
		term   string
		text   string
		number int
	}{
		{LineEntry, 0, 0, "\r\n", "src/", 1},
		{LineEntry, 2, 0, "\n", "index.ts", 2},
		{LineBlank, 0, 0, "\n", "", 3},
		{LineComment, 0, 0, "\n", "# note", 4},
		{LineComment, 2, 1, "\n", "// also a note", 5},
		{LineEntry, 2, 1, "\n", "lib/", 6},
		{LineEntry, 0, 0, "", "last", 7},
	}

	if len(lines) != len(want) {
		t.Fatalf("classifyLines() returned %d lines, want %d", len(lines), len(want))
	}
	for i, w := range want {
		got := lines[i]
		if got.Kind != w.kind || got.IndentWidth != w.width || got.Tabs != w.tabs ||
			got.Terminator != w.term || got.Content != w.text || got.Number != w.number || got.Index != i {
			t.Errorf("line %d = %+v, want kind=%s width=%d tabs=%d term=%q content=%q", i+1, got, w.kind, w.width, w.tabs, w.term, w.text)
		}
	}
}

func TestClassifyLines_TrailingNewline(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		src  string
		want int
	}{
		{name: "empty input", src: "", want: 0},
		{name: "single newline", src: "\n", want: 1},
		{name: "terminated", src: "a\nb\n", want: 2},
		{name: "unterminated", src: "a\nb", want: 2},
		{name: "trailing blank line", src: "a\n\n", want: 2},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			if got := len(classifyLines(tt.src, 2)); got != tt.want {
				t.Errorf("len(classifyLines(%q)) = %d, want %d", tt.src, got, tt.want)
			}
		})
	}
}

func TestClassifyLines_RawPreserved(t *testing.T) {
	t.Parallel()

	lines := classifyLines("  a.txt  # c  \r\n", 4)
	if len(lines) != 1 {
		t.Fatalf("got %d lines, want 1", len(lines))
	}
	if lines[0].Raw != "  a.txt  # c  " {
		t.Errorf("Raw = %q", lines[0].Raw)
	}
	if lines[0].Content != "a.txt  # c" {
		t.Errorf("Content = %q", lines[0].Content)
	}
}

func TestLineKind_String(t *testing.T) {
	t.Parallel()

	for kind, want := range map[LineKind]string{LineBlank: "blank", LineComment: "comment", LineEntry: "entry", LineKind(9): "unknown"} {
		if got := kind.String(); got != want {
			t.Errorf("LineKind(%d).String() = %q, want %q", int(kind), got, want)
		}
	}
}
