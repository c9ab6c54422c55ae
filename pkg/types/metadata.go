package types

// MetadataNode is one segment of an object key. Directory nodes carry children,
// file nodes carry the originating bucket and full key.
type MetadataNode struct {
	Name     string          `json:"name" yaml:"name"`
	IsFile   bool            `json:"is_file" yaml:"is_file"`
	Bucket   string          `json:"bucket,omitempty" yaml:"bucket,omitempty"`
	FilePath string          `json:"file_path,omitempty" yaml:"file_path,omitempty"`
	Children []*MetadataNode `json:"children" yaml:"children,omitempty"`

	index map[string]*MetadataNode
}

// NewDirNode creates a directory node with no children.
func NewDirNode(name string) *MetadataNode {
	return &MetadataNode{Name: name, Children: []*MetadataNode{}}
}

// NewFileNode creates a leaf node for a complete object key.
func NewFileNode(name, bucket, filePath string) *MetadataNode {
	return &MetadataNode{
		Name:     name,
		IsFile:   true,
		Bucket:   bucket,
		FilePath: filePath,
		Children: []*MetadataNode{},
	}
}

// Child returns the direct child with the given name.
func (n *MetadataNode) Child(name string) *MetadataNode {
	if n.index != nil {
		return n.index[name]
	}
	for _, c := range n.Children {
		if c.Name == name {
			return c
		}
	}
	return nil
}

// AddChild appends child and returns it. Callers must check Child first;
// names are unique within a parent.
func (n *MetadataNode) AddChild(child *MetadataNode) *MetadataNode {
	if n.index == nil {
		n.index = make(map[string]*MetadataNode, len(n.Children)+1)
		for _, c := range n.Children {
			n.index[c.Name] = c
		}
	}
	n.Children = append(n.Children, child)
	n.index[child.Name] = child
	return child
}

// IsDir reports whether n is a directory node.
func (n *MetadataNode) IsDir() bool {
	return !n.IsFile
}

// Walk visits n and every descendant depth-first. fn receives the slash-joined
// path relative to n ("" for n itself).
func (n *MetadataNode) Walk(fn func(path string, node *MetadataNode)) {
	n.walk("", fn)
}

func (n *MetadataNode) walk(prefix string, fn func(string, *MetadataNode)) {
	fn(prefix, n)
	for _, c := range n.Children {
		p := c.Name
		if prefix != "" {
			p = prefix + "/" + c.Name
		}
		c.walk(p, fn)
	}
}

// FileCount returns the number of file leaves under n.
func (n *MetadataNode) FileCount() int {
	count := 0
	n.Walk(func(_ string, node *MetadataNode) {
		if node.IsFile {
			count++
		}
	})
	return count
}
