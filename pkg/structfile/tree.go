// SPDX-License-Identifier: MPL-2.0

package structfile

import "weak"

// builder attaches parsed entries to a growing tree. stack holds the open
// directories indexed by depth; files are never pushed.
type builder struct {
	policy Policy
	roots  []*Node
	stack  []*Node
}

// attach adds e at depth and returns the new node. Nodes are appended only;
// an attached node is never moved again.
func (b *builder) attach(e entry, depth, line int, c *collector) *Node {
	if depth < len(b.stack) {
		b.stack = b.stack[:depth]
	}

	var parent *Node
	if depth > 0 {
		switch {
		case depth-1 >= len(b.stack):
			c.report(line, CodeMissingParent, "no open directory at depth %d; entry attached at the root", depth-1)
			depth = 0
		case !b.stack[depth-1].IsDir():
			// Unreachable from Parse, which pushes directories only and
			// demotes children of files in the depth resolver.
			candidate := b.stack[depth-1]
			if b.policy == PolicyFailFast {
				c.report(line, CodeChildOfFile, "entry is indented under file %q, which cannot have children", candidate.Path)
				depth = 0
				break
			}
			c.report(line, CodeChildOfFileLoose, "entry is indented under file %q; attached as its sibling", candidate.Path)
			depth = candidate.Depth
			b.stack = b.stack[:depth]
			parent = candidate.Parent()
		default:
			parent = b.stack[depth-1]
		}
	}

	node := &Node{
		Kind:    KindFile,
		Name:    e.name,
		Depth:   depth,
		Line:    line,
		Stub:    e.stub,
		Include: e.include,
		Exclude: e.exclude,
	}
	if e.dir {
		node.Kind = KindDir
	}

	if parent != nil {
		node.parent = weak.Make(parent)
		node.Path = joinPath(parent.Path, node.Name, e.dir)
		parent.Children = append(parent.Children, node)
	} else {
		node.Path = joinPath("", node.Name, e.dir)
		b.roots = append(b.roots, node)
	}

	if node.IsDir() {
		b.stack = append(b.stack[:node.Depth], node)
	}
	return node
}
