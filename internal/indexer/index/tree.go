package index

import "github.com/Adithya-Monish-Kumar-K/wordtracker/pkg/bstree"

// Tree is the ordered tree of word records.
type Tree = bstree.Tree[*Record]

// NewTree returns an empty word tree.
func NewTree() *Tree {
	return bstree.New[*Record]()
}
