package ingest

// Node is a tree-shaped BOM entity: a component or a service.
type Node[T any] interface {
	GetBomRef() string
	SetBomRef(string)
	GetChildren() []T
	SetChildren([]T)
}

// Flatten returns every node of the forest depth-first, each parent before
// its children, with sibling order kept. Child links are cleared on the
// returned nodes.
func Flatten[T Node[T]](roots []T) []T {
	var out []T
	var walk func(nodes []T)
	walk = func(nodes []T) {
		for _, n := range nodes {
			children := n.GetChildren()
			n.SetChildren(nil)
			out = append(out, n)
			walk(children)
		}
	}
	walk(roots)
	return out
}
