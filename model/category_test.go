package model

import (
	"testing"
)

func TestAddChildDepthLimit(t *testing.T) {
	root := NewRootCategory()
	group := NewCategory("Action", "")
	sub := NewCategory("Shounen", "")
	deep := NewCategory("Too Deep", "")

	if err := root.AddChild(group); err != nil {
		t.Fatalf("failed to add group: %v", err)
	}
	if err := group.AddChild(sub); err != nil {
		t.Fatalf("failed to add subgroup: %v", err)
	}
	if err := sub.AddChild(deep); err == nil {
		t.Fatalf("depth limit should reject a fourth level")
	}
	if sub.Depth() != 2 {
		t.Fatalf("expected depth 2, got %d", sub.Depth())
	}
}

func TestAddChildCollisions(t *testing.T) {
	root := NewRootCategory()
	if err := root.AddChild(NewCategory("Action", "")); err != nil {
		t.Fatalf("failed to add category: %v", err)
	}

	// Case-insensitive sibling collision.
	if err := root.AddChild(NewCategory("ACTION", "")); err == nil {
		t.Fatalf("sibling collision should be rejected")
	}

	// Ancestor shadowing.
	group := root.Children()[0]
	if err := group.AddChild(NewCategory("action", "")); err == nil {
		t.Fatalf("ancestor shadowing should be rejected")
	}
}

func TestRemoveChild(t *testing.T) {
	root := NewRootCategory()
	if err := root.AddChild(NewCategory("Action", "")); err != nil {
		t.Fatalf("failed to add category: %v", err)
	}
	if !root.RemoveChild("action") {
		t.Fatalf("case-insensitive removal should succeed")
	}
	if root.RemoveChild("action") {
		t.Fatalf("second removal should report not found")
	}
	if len(root.Children()) != 0 {
		t.Fatalf("expected empty child list")
	}
}

func TestRecursiveFindSubcategory(t *testing.T) {
	root := NewRootCategory()
	action := NewCategory("Action", "")
	drama := NewCategory("Drama", "")
	shounen := NewCategory("Shounen", "")
	if err := root.AddChild(action); err != nil {
		t.Fatalf("failed to add category: %v", err)
	}
	if err := root.AddChild(drama); err != nil {
		t.Fatalf("failed to add category: %v", err)
	}
	if err := action.AddChild(shounen); err != nil {
		t.Fatalf("failed to add category: %v", err)
	}

	if found := root.RecursiveFindSubcategory("SHOUNEN"); found != shounen {
		t.Fatalf("expected to find nested subcategory")
	}
	if found := root.RecursiveFindSubcategory(RootCategoryName); found != root {
		t.Fatalf("the root should match itself")
	}
	if found := root.RecursiveFindSubcategory("missing"); found != nil {
		t.Fatalf("unexpected match for unknown name")
	}
}
