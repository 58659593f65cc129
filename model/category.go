package model

import (
	"fmt"
	"sync/atomic"

	"golang.org/x/text/cases"
)

// RootCategoryName is the name of the implicit tree root.
const RootCategoryName = "All Series"

// MaxCategoryDepth caps the category tree: root, group, subgroup.
const MaxCategoryDepth = 3

var folder = cases.Fold()

// FoldEqual compares two category names case-insensitively.
func FoldEqual(a, b string) bool {
	return folder.String(a) == folder.String(b)
}

// Category is one node of the library's category tree. The parent
// reference is navigational only; a node is owned by its parent's child
// list. Occurrences is display state recomputed by the library and never
// persisted; it is atomic because recounts run from loader goroutines
// while the view reads it.
type Category struct {
	Name  string
	Color string

	parent      *Category
	children    []*Category
	occurrences atomic.Int64
}

// NewRootCategory returns the implicit "All Series" root.
func NewRootCategory() *Category {
	return &Category{Name: RootCategoryName}
}

// NewCategory creates a detached category node.
func NewCategory(name, color string) *Category {
	return &Category{Name: name, Color: color}
}

// Parent returns the parent node, nil for the root.
func (c *Category) Parent() *Category { return c.parent }

// Children returns the ordered child list.
func (c *Category) Children() []*Category { return c.children }

// Occurrences returns the series count from the last recompute.
func (c *Category) Occurrences() int { return int(c.occurrences.Load()) }

// Depth returns the node's depth, 0 for the root.
func (c *Category) Depth() int {
	depth := 0
	for p := c.parent; p != nil; p = p.parent {
		depth++
	}
	return depth
}

// Equals compares categories by case-insensitive name.
func (c *Category) Equals(other *Category) bool {
	return other != nil && FoldEqual(c.Name, other.Name)
}

// AddChild appends child under c. It fails when the tree would exceed
// MaxCategoryDepth or when the name collides, case-insensitively, with a
// sibling or an ancestor.
func (c *Category) AddChild(child *Category) error {
	if c.Depth()+2 > MaxCategoryDepth {
		return fmt.Errorf("category %q would exceed max depth %d", child.Name, MaxCategoryDepth)
	}
	for _, sibling := range c.children {
		if sibling.Equals(child) {
			return fmt.Errorf("category %q already exists under %q", child.Name, c.Name)
		}
	}
	for p := c; p != nil; p = p.parent {
		if p.Equals(child) {
			return fmt.Errorf("category %q shadows ancestor %q", child.Name, p.Name)
		}
	}
	child.parent = c
	c.children = append(c.children, child)
	return nil
}

// RemoveChild detaches child (matched case-insensitively) and its subtree.
func (c *Category) RemoveChild(name string) bool {
	for i, child := range c.children {
		if FoldEqual(child.Name, name) {
			child.parent = nil
			c.children = append(c.children[:i], c.children[i+1:]...)
			return true
		}
	}
	return false
}

// RecursiveFindSubcategory finds a node by case-insensitive name in the
// subtree rooted at c, including c itself. Children are searched in order
// and the first match wins.
func (c *Category) RecursiveFindSubcategory(name string) *Category {
	if FoldEqual(c.Name, name) {
		return c
	}
	for _, child := range c.children {
		if found := child.RecursiveFindSubcategory(name); found != nil {
			return found
		}
	}
	return nil
}

// matches reports whether a series tagged with the given category names
// belongs under this node: a direct match or a match on any descendant.
func (c *Category) matches(series *Series) bool {
	if series.HasCategory(c.Name) {
		return true
	}
	for _, child := range c.children {
		if child.matches(series) {
			return true
		}
	}
	return false
}
