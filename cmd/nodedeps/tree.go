package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"nodedeps/internal/graph"
	"nodedeps/internal/render"
)

func newTreeCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "tree <path...>",
		Short: "Print the dependency tree rooted at each path",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runTree(os.Stdout, args)
		},
	}
	return cmd
}

func runTree(w io.Writer, paths []string) error {
	d := newDispatcher()
	for i, p := range paths {
		resolved, err := d.Resolve(p)
		if err != nil {
			return err
		}

		if flags.json {
			if err := printResolvedJSON(w, resolved.Node, resolved.Warnings); err != nil {
				return err
			}
			for _, member := range resolved.WorkspaceMembers {
				if err := printResolvedJSON(w, member, nil); err != nil {
					return err
				}
			}
			continue
		}

		if resolved.IsWorkspaceRoot {
			fmt.Fprintln(w, "[WORKSPACE ROOT]")
		}
		printResolvedTree(w, resolved.Node)

		for _, member := range resolved.WorkspaceMembers {
			fmt.Fprintln(w, "[WORKSPACE MEMBER]")
			printResolvedTree(w, member)
		}

		if i != len(paths)-1 {
			fmt.Fprintln(w)
		}
	}
	return nil
}

func printResolvedTree(w io.Writer, node *graph.Node) {
	node.Resolver().RefreshVisited()
	printNodeView(w, render.NewResolvedRoot(node), "", true)
}

func printResolvedJSON(w io.Writer, node *graph.Node, warnings []string) error {
	node.Resolver().RefreshVisited()
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(render.ToJSON(node, warnings))
}

// printNodeView walks a render.NodeView, printing box-drawing tree prefixes
// in the classic `tree`(1) style: each depth carries a running prefix of
// "│   "/"    " continuation markers, and the final child at a depth uses
// "└── " instead of "├── ".
func printNodeView(w io.Writer, v render.NodeView, prefix string, isRoot bool) {
	if isRoot {
		fmt.Fprintln(w, v.Label())
	}

	children := v.Children()
	for i, c := range children {
		last := i == len(children)-1
		connector := "├── "
		nextPrefix := prefix + "│   "
		if last {
			connector = "└── "
			nextPrefix = prefix + "    "
		}

		if c.Separator {
			fmt.Fprintln(w, prefix+connector+c.Label)
			continue
		}

		fmt.Fprintln(w, prefix+connector+c.View.Label())
		printNodeView(w, c.View, nextPrefix, false)
	}
}
