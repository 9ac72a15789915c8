// SPDX-License-Identifier: MPL-2.0

package structfile

import (
	"strings"
	"weak"
)

const (
	// KindDir is a directory node.
	KindDir NodeKind = iota
	// KindFile is a file node.
	KindFile
)

type (
	// NodeKind tells directories from files.
	NodeKind int

	// Node is one declared directory or file. Only directories have children.
	//
	// The tree owns its nodes top-down through Children. The parent link is a weak
	// pointer used for path and ancestor queries only.
	Node struct {
		Kind  NodeKind
		Name  string
		Depth int
		// Line is the 1-based source line that declared the node.
		Line int
		// Path is the forward-slash path from the root, with a trailing slash for directories.
		Path string
		// Stub, Include and Exclude are the annotations declared on this line only.
		Stub     string
		Include  []string
		Exclude  []string
		Children []*Node

		parent weak.Pointer[Node]
	}

	// FlatNode pairs a node with its nesting level in the tree.
	FlatNode struct {
		Node  *Node
		Level int
	}
)

// String returns "dir" or "file".
func (k NodeKind) String() string {
	if k == KindDir {
		return "dir"
	}
	return "file"
}

// MarshalText encodes the kind by name.
func (k NodeKind) MarshalText() ([]byte, error) {
	return []byte(k.String()), nil
}

// IsDir reports whether n is a directory.
func (n *Node) IsDir() bool { return n.Kind == KindDir }

// Parent returns the enclosing directory, or nil for a root node.
func (n *Node) Parent() *Node { return n.parent.Value() }

// Ancestors returns the enclosing directories from the nearest to the root.
func (n *Node) Ancestors() []*Node {
	var out []*Node
	for p := n.Parent(); p != nil; p = p.Parent() {
		out = append(out, p)
	}
	return out
}

// Walk visits n and its descendants depth-first in source order. Returning false
// from fn skips the children of the visited node.
func (n *Node) Walk(fn func(node *Node, level int) bool) {
	n.walk(0, fn)
}

func (n *Node) walk(level int, fn func(*Node, int) bool) {
	if !fn(n, level) {
		return
	}
	for _, child := range n.Children {
		child.walk(level+1, fn)
	}
}

// joinPath builds a node path from its parent's path and its own segment.
func joinPath(parentPath, name string, dir bool) string {
	p := name
	if parentPath != "" {
		p = strings.TrimSuffix(parentPath, "/") + "/" + name
	}
	if dir {
		p += "/"
	}
	return p
}
