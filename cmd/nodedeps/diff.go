package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"nodedeps/internal/diffgraph"
	"nodedeps/internal/render"
)

func newDiffCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "diff <left> <right>",
		Short: "Print the diff between two resolved dependency trees",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runDiff(os.Stdout, args[0], args[1])
		},
	}
	return cmd
}

func runDiff(w io.Writer, leftPath, rightPath string) error {
	d := newDispatcher()

	left, err := d.Resolve(leftPath)
	if err != nil {
		return err
	}
	right, err := d.Resolve(rightPath)
	if err != nil {
		return err
	}

	differ := diffgraph.New(left.Resolver, right.Resolver)
	diffNode := differ.Diff(left.Node, right.Node)

	if flags.json {
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(render.DiffToJSON(differ, diffNode))
	}

	view := render.NewDiffRoot(differ, diffNode)
	if view == nil {
		fmt.Fprintln(w, "no differences")
		return nil
	}
	printNodeView(w, view, "", true)
	return nil
}
