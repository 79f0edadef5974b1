package bstree

// Iterator yields the elements of a tree one at a time. Iterators are single
// pass. The tree must not be structurally modified while an iterator is in
// use; the result of doing so is unspecified.
type Iterator[E any] interface {
	HasNext() bool
	Next() (E, error)
}

type stack[E Ordered[E]] []*Node[E]

func (s *stack[E]) push(n *Node[E]) {
	*s = append(*s, n)
}

func (s *stack[E]) pop() *Node[E] {
	old := *s
	n := old[len(old)-1]
	old[len(old)-1] = nil
	*s = old[:len(old)-1]
	return n
}

func (s stack[E]) peek() *Node[E] {
	return s[len(s)-1]
}

// InOrder returns an iterator over the elements in ascending order.
func (t *Tree[E]) InOrder() Iterator[E] {
	it := &inOrderIterator[E]{}
	it.pushLeft(t.root)
	return it
}

// PreOrder returns an iterator visiting each node before its subtrees, left
// subtree first.
func (t *Tree[E]) PreOrder() Iterator[E] {
	it := &preOrderIterator[E]{}
	if t.root != nil {
		it.stack.push(t.root)
	}
	return it
}

// PostOrder returns an iterator visiting both subtrees of a node before the
// node itself.
func (t *Tree[E]) PostOrder() Iterator[E] {
	it := &postOrderIterator[E]{}
	if t.root != nil {
		it.stack.push(t.root)
	}
	return it
}

type inOrderIterator[E Ordered[E]] struct {
	stack stack[E]
}

func (it *inOrderIterator[E]) pushLeft(n *Node[E]) {
	for n != nil {
		it.stack.push(n)
		n = n.left
	}
}

func (it *inOrderIterator[E]) HasNext() bool {
	return len(it.stack) > 0
}

func (it *inOrderIterator[E]) Next() (E, error) {
	if !it.HasNext() {
		var zero E
		return zero, ErrNoSuchElement
	}
	n := it.stack.pop()
	it.pushLeft(n.right)
	return n.element, nil
}

type preOrderIterator[E Ordered[E]] struct {
	stack stack[E]
}

func (it *preOrderIterator[E]) HasNext() bool {
	return len(it.stack) > 0
}

func (it *preOrderIterator[E]) Next() (E, error) {
	if !it.HasNext() {
		var zero E
		return zero, ErrNoSuchElement
	}
	n := it.stack.pop()
	if n.right != nil {
		it.stack.push(n.right)
	}
	if n.left != nil {
		it.stack.push(n.left)
	}
	return n.element, nil
}

type postOrderIterator[E Ordered[E]] struct {
	stack stack[E]
	last  *Node[E]
}

func (it *postOrderIterator[E]) HasNext() bool {
	return len(it.stack) > 0
}

func (it *postOrderIterator[E]) Next() (E, error) {
	if !it.HasNext() {
		var zero E
		return zero, ErrNoSuchElement
	}
	for {
		top := it.stack.peek()
		switch {
		case it.last == nil || (it.last != top.left && it.last != top.right):
			// first visit, coming down from the parent
			if top.left != nil {
				it.stack.push(top.left)
				continue
			}
			if top.right != nil {
				it.stack.push(top.right)
				continue
			}
		case it.last == top.left && top.right != nil:
			it.stack.push(top.right)
			continue
		}
		it.last = it.stack.pop()
		return it.last.element, nil
	}
}
