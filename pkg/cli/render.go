package cli

import (
	"fmt"
	"io"

	"github.com/beam-cloud/s3meta/pkg/types"
)

// RenderTree writes node as an indented tree. Directories get a trailing
// slash; the root is rendered as the bucket name.
func RenderTree(w io.Writer, bucket string, node *types.MetadataNode) {
	fmt.Fprintln(w, BucketStyle.Render(bucket))
	renderChildren(w, node, "")
}

func renderChildren(w io.Writer, node *types.MetadataNode, prefix string) {
	for i, child := range node.Children {
		last := i == len(node.Children)-1
		branch, next := "├── ", "│   "
		if last {
			branch, next = "└── ", "    "
		}

		name := child.Name
		if child.IsDir() {
			name = DirStyle.Render(name + "/")
		}
		fmt.Fprintf(w, "%s%s%s\n", prefix, DimStyle.Render(branch), name)

		if child.IsDir() {
			renderChildren(w, child, prefix+next)
		}
	}
}

// treeSummary reports the file and directory counts under node.
func treeSummary(node *types.MetadataNode) string {
	var files, dirs int
	node.Walk(func(path string, n *types.MetadataNode) {
		if n == node {
			return
		}
		if n.IsFile {
			files++
		} else {
			dirs++
		}
	})
	return fmt.Sprintf("%d %s, %d %s", dirs, plural("directory", "directories", dirs), files, plural("file", "files", files))
}

func plural(one, many string, n int) string {
	if n == 1 {
		return one
	}
	return many
}
