package bundle

import (
	"sort"
	"strings"
)

type treeNode struct {
	name     string
	children map[string]*treeNode
}

// RenderTree draws the bundled slash paths as an indented tree under rootName.
// Directories come first, then files, each group sorted case-insensitively.
func RenderTree(rootName string, paths []string) string {
	root := &treeNode{name: rootName, children: map[string]*treeNode{}}
	for _, p := range paths {
		node := root
		for _, part := range strings.Split(strings.Trim(p, "/"), "/") {
			if part == "" || part == "." {
				continue
			}
			child, ok := node.children[part]
			if !ok {
				child = &treeNode{name: part}
				node.children[part] = child
			}
			if child.children == nil {
				child.children = map[string]*treeNode{}
			}
			node = child
		}
	}

	var treeBuilder strings.Builder
	treeBuilder.WriteString(rootName + "/\n")
	renderChildren(&treeBuilder, root, "")
	return treeBuilder.String()
}

func renderChildren(sb *strings.Builder, node *treeNode, prefix string) {
	children := make([]*treeNode, 0, len(node.children))
	for _, c := range node.children {
		children = append(children, c)
	}
	sort.Slice(children, func(i, j int) bool {
		if children[i].isDir() != children[j].isDir() {
			return children[i].isDir()
		}
		return strings.ToLower(children[i].name) < strings.ToLower(children[j].name)
	})

	for i, c := range children {
		connector := "├── "
		extension := "│   "
		if i == len(children)-1 {
			connector = "└── "
			extension = "    "
		}
		if c.isDir() {
			sb.WriteString(prefix + connector + c.name + "/\n")
			renderChildren(sb, c, prefix+extension)
			continue
		}
		sb.WriteString(prefix + connector + c.name + "\n")
	}
}

func (n *treeNode) isDir() bool {
	return len(n.children) > 0
}
