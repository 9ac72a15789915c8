// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss/tree"
	"github.com/spf13/cobra"

	"github.com/structkit/structkit/internal/plan"
	"github.com/structkit/structkit/pkg/structfile"
	"github.com/structkit/structkit/pkg/types"
)

func newTreeCommand(app *App) *cobra.Command {
	var paths bool

	cmd := &cobra.Command{
		Use:   "tree [file]",
		Short: "Show the tree a structure file declares",
		Long: `Parse a structure file and print the resulting tree with each entry's own
annotations. With --paths, print one path per line with the stub every file
will be created from, including stubs inherited from enclosing directories.

The tree is built with recovery, so problems reported by 'structkit check'
show up here the way they were repaired.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := app.loadConfig(cmd.Context())
			if err != nil {
				return app.fail(cmd, types.ExitUsage, err)
			}
			sf, err := app.readStructure(cfg, args)
			if err != nil {
				return app.fail(cmd, types.ExitUsage, err)
			}
			res, err := app.Parser.Parse(sf.Src, parseOptions(cfg, sf.Path, structfile.PolicyCollect)...)
			if err != nil {
				return app.fail(cmd, types.ExitUsage, err)
			}

			if !paths {
				fmt.Fprintln(app.stdout, renderTree(sf.Path, res.Roots))
				return nil
			}

			p, err := plan.Build(res)
			if err != nil {
				return app.fail(cmd, types.ExitFindings, err)
			}
			for _, e := range p.Entries {
				fmt.Fprintln(app.stdout, planLine(e))
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&paths, "paths", false, "print resolved paths and effective stubs")

	return cmd
}

// renderTree draws the parsed nodes below a root labeled with the file name.
func renderTree(file string, roots []*structfile.Node) string {
	t := tree.Root(TitleStyle.Render(file)).
		EnumeratorStyle(SubtitleStyle)
	for _, n := range roots {
		t.Child(treeNode(n))
	}
	return t.String()
}

func treeNode(n *structfile.Node) any {
	label := nodeLabel(n)
	if !n.IsDir() || len(n.Children) == 0 {
		return label
	}
	sub := tree.Root(label)
	for _, c := range n.Children {
		sub.Child(treeNode(c))
	}
	return sub
}

func nodeLabel(n *structfile.Node) string {
	name := n.Name
	if n.IsDir() {
		name = CmdStyle.Render(name + "/")
	}

	var ann []string
	if n.Stub != "" {
		ann = append(ann, "@stub:"+n.Stub)
	}
	if len(n.Include) > 0 {
		ann = append(ann, "@include:"+strings.Join(n.Include, ","))
	}
	if len(n.Exclude) > 0 {
		ann = append(ann, "@exclude:"+strings.Join(n.Exclude, ","))
	}
	if len(ann) == 0 {
		return name
	}
	return name + " " + VerboseStyle.Render(strings.Join(ann, " "))
}

func planLine(e plan.Entry) string {
	if e.Dir {
		return e.Path + "/"
	}
	switch {
	case e.Stub == "":
		return e.Path
	case e.StubFrom != "":
		return e.Path + "  " + VerboseStyle.Render("stub "+e.Stub+" from "+e.StubFrom)
	default:
		return e.Path + "  " + VerboseStyle.Render("stub "+e.Stub)
	}
}
