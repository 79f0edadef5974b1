package bstree

// Node holds one element of a Tree. The left and right children are owned by
// the node; parent is an observational back-reference and nil for the root.
type Node[E Ordered[E]] struct {
	element E
	left    *Node[E]
	right   *Node[E]
	parent  *Node[E]
}

// NewNode creates an unattached node holding element.
func NewNode[E Ordered[E]](element E, parent *Node[E]) *Node[E] {
	return &Node[E]{element: element, parent: parent}
}

func (n *Node[E]) Element() E {
	return n.element
}

func (n *Node[E]) SetElement(element E) {
	n.element = element
}

func (n *Node[E]) Left() *Node[E] {
	return n.left
}

func (n *Node[E]) SetLeft(left *Node[E]) {
	n.left = left
}

func (n *Node[E]) Right() *Node[E] {
	return n.right
}

func (n *Node[E]) SetRight(right *Node[E]) {
	n.right = right
}

// Parent returns the node's parent, or nil for the root.
func (n *Node[E]) Parent() *Node[E] {
	return n.parent
}

func (n *Node[E]) SetParent(parent *Node[E]) {
	n.parent = parent
}
