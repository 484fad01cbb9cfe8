package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"nodedeps/internal/render"
)

func newWhyCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "why <path> <package>",
		Short: "Print every dependency path from <path>'s root to <package>",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runWhy(os.Stdout, args[0], args[1])
		},
	}
	return cmd
}

func runWhy(w io.Writer, path, target string) error {
	d := newDispatcher()
	resolved, err := d.Resolve(path)
	if err != nil {
		return err
	}

	resolved.Node.Resolver().RefreshVisited()
	paths := render.Why(render.NewResolvedRoot(resolved.Node), target)

	if flags.json {
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(paths)
	}

	if len(paths) == 0 {
		fmt.Fprintf(w, "%s is not reachable from %s\n", target, path)
		return nil
	}
	for _, p := range paths {
		fmt.Fprintln(w, strings.Join(p, " -> "))
	}
	return nil
}
