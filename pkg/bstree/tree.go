// Package bstree provides an unbalanced generic binary search tree with
// explicit-stack in-order, pre-order and post-order iterators.
//
// Elements are ordered by their own Compare method. The tree never stores two
// elements that compare equal and performs no rebalancing, so heavily skewed
// insertion sequences produce a tree whose height equals its size.
//
// A Tree is not safe for concurrent use.
package bstree

import (
	"iter"
	"reflect"

	apperrors "github.com/Adithya-Monish-Kumar-K/wordtracker/pkg/errors"
)

var (
	// ErrEmptyTree is returned by Root on a tree without elements.
	ErrEmptyTree = apperrors.ErrEmptyTree

	// ErrInvalidInput is returned by Insert for a nil element.
	ErrInvalidInput = apperrors.ErrInvalidInput

	// ErrNoSuchElement is returned by Next on an exhausted iterator.
	ErrNoSuchElement = apperrors.ErrNoSuchElement
)

// Ordered is the constraint for tree elements. Compare returns a negative
// number when the receiver orders before other, zero when they are equal and
// a positive number otherwise. It must define a total order.
type Ordered[E any] interface {
	Compare(other E) int
}

// Tree is a binary search tree of elements of type E.
type Tree[E Ordered[E]] struct {
	root *Node[E]
	size int
}

// New returns an empty tree.
func New[E Ordered[E]]() *Tree[E] {
	return &Tree[E]{}
}

// Root returns the root node, or ErrEmptyTree.
func (t *Tree[E]) Root() (*Node[E], error) {
	if t.size == 0 || t.root == nil {
		return nil, ErrEmptyTree
	}
	return t.root, nil
}

// Height returns -1 for an empty tree and 0 for a single node. It walks the
// whole tree on every call.
func (t *Tree[E]) Height() int {
	return height(t.root)
}

func height[E Ordered[E]](n *Node[E]) int {
	if n == nil {
		return -1
	}
	return max(height(n.left), height(n.right)) + 1
}

func (t *Tree[E]) Size() int {
	return t.size
}

func (t *Tree[E]) IsEmpty() bool {
	return t.size == 0
}

// Clear drops every element.
func (t *Tree[E]) Clear() {
	t.root = nil
	t.size = 0
}

// Contains reports whether an element equal to e is stored in the tree.
func (t *Tree[E]) Contains(e E) bool {
	_, ok := t.Search(e)
	return ok
}

// Search returns the node whose element compares equal to e.
func (t *Tree[E]) Search(e E) (*Node[E], bool) {
	if t.root == nil || isNil(e) {
		return nil, false
	}
	n := search(t.root, e)
	return n, n != nil
}

func search[E Ordered[E]](n *Node[E], e E) *Node[E] {
	if n == nil {
		return nil
	}
	c := e.Compare(n.element)
	switch {
	case c < 0:
		return search(n.left, e)
	case c > 0:
		return search(n.right, e)
	default:
		return n
	}
}

// Insert adds e to the tree. It returns false without modifying the tree
// when an equal element is already present; the stored element is kept.
func (t *Tree[E]) Insert(e E) (bool, error) {
	if isNil(e) {
		return false, ErrInvalidInput
	}
	if t.Contains(e) {
		return false, nil
	}
	t.root = insert(t.root, nil, e)
	t.size++
	return true, nil
}

func insert[E Ordered[E]](n, parent *Node[E], e E) *Node[E] {
	if n == nil {
		return NewNode(e, parent)
	}
	if e.Compare(n.element) < 0 {
		n.left = insert(n.left, n, e)
	} else {
		n.right = insert(n.right, n, e)
	}
	return n
}

// All returns the elements in ascending order.
func (t *Tree[E]) All() iter.Seq[E] {
	return func(yield func(E) bool) {
		it := t.InOrder()
		for it.HasNext() {
			e, _ := it.Next()
			if !yield(e) {
				return
			}
		}
	}
}

// isNil reports whether e is a nil interface or a nil value of a nilable
// kind.
func isNil[E any](e E) bool {
	v := reflect.ValueOf(e)
	if !v.IsValid() {
		return true
	}
	switch v.Kind() {
	case reflect.Pointer, reflect.Interface, reflect.Map, reflect.Slice, reflect.Func, reflect.Chan:
		return v.IsNil()
	}
	return false
}
