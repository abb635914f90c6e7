package workspace

import (
	"sort"
	"strings"
)

// Node is an entry of the file tree.
type Node struct {
	Name     string  `json:"name"`
	Path     string  `json:"path"`
	IsDir    bool    `json:"isDir"`
	Children []*Node `json:"children,omitempty"`
}

// Tree returns the file set as a directory tree: folders before files, each group
// in alphabetical order.
func (w *Workspace) Tree() []*Node {
	root := &Node{IsDir: true}
	for path := range w.Files {
		insert(root, path)
	}
	sortNodes(root.Children)
	return root.Children
}

func insert(root *Node, path string) {
	parts := strings.Split(path, "/")
	current := root
	for i, part := range parts {
		if part == "" {
			continue
		}
		isLast := i == len(parts)-1
		child := find(current, part, !isLast)
		if child == nil {
			child = &Node{
				Name:  part,
				Path:  strings.Join(parts[:i+1], "/"),
				IsDir: !isLast,
			}
			current.Children = append(current.Children, child)
		}
		current = child
	}
}

func find(n *Node, name string, dir bool) *Node {
	for _, c := range n.Children {
		if c.Name == name && c.IsDir == dir {
			return c
		}
	}
	return nil
}

func sortNodes(nodes []*Node) {
	sort.Slice(nodes, func(i, j int) bool {
		if nodes[i].IsDir != nodes[j].IsDir {
			return nodes[i].IsDir
		}
		return nodes[i].Name < nodes[j].Name
	})
	for _, n := range nodes {
		sortNodes(n.Children)
	}
}

// Print renders the tree with two-space indentation, one entry per line.
func Print(nodes []*Node) string {
	var b strings.Builder
	var walk func(nodes []*Node, depth int)
	walk = func(nodes []*Node, depth int) {
		for _, n := range nodes {
			b.WriteString(strings.Repeat("  ", depth))
			b.WriteString(n.Name)
			if n.IsDir {
				b.WriteString("/")
			}
			b.WriteString("\n")
			walk(n.Children, depth+1)
		}
	}
	walk(nodes, 0)
	return b.String()
}
