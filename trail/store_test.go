package trail

import (
	"testing"

	"github.com/teranos/wander/errors"
)

func TestStoreRootCreation(t *testing.T) {
	s := NewStore()

	root, err := s.AddNode("ref-1", "Golden Gate Bridge", "bridge.png", Vec2{}, NoNode)
	if err != nil {
		t.Fatalf("AddNode root failed: %v", err)
	}

	if root.ID != 0 {
		t.Errorf("root ID = %d, want 0", root.ID)
	}
	if root.Depth != 0 {
		t.Errorf("root depth = %d, want 0", root.Depth)
	}
	if root.Parent != NoNode {
		t.Errorf("root parent = %d, want NoNode", root.Parent)
	}
	if !root.Resting {
		t.Error("root should be resting from birth")
	}
	if root.Radius != DefaultRadius {
		t.Errorf("root radius = %f, want %f", root.Radius, DefaultRadius)
	}
	if root.Instance == "" {
		t.Error("root should carry an instance id")
	}
	if s.Root() != root {
		t.Error("Root() should return the first node")
	}
	if s.NodeCount() != 1 {
		t.Errorf("NodeCount = %d, want 1", s.NodeCount())
	}
}

func TestStoreSingleRootInvariant(t *testing.T) {
	s := NewStore()
	if _, err := s.AddNode("", "first", "", Vec2{}, NoNode); err != nil {
		t.Fatalf("AddNode root failed: %v", err)
	}

	_, err := s.AddNode("", "second root", "", Vec2{}, NoNode)
	if err == nil {
		t.Fatal("expected error adding a second root")
	}
	if !errors.Is(err, errors.ErrConflict) {
		t.Errorf("expected conflict error, got: %v", err)
	}
}

func TestStoreGlobalTitleDedup(t *testing.T) {
	s := NewStore()
	if _, err := s.AddNode("", "Alcatraz", "", Vec2{}, NoNode); err != nil {
		t.Fatalf("AddNode root failed: %v", err)
	}

	_, err := s.AddNode("other-ref", "Alcatraz", "other.png", Vec2{X: 10}, 0)
	if err == nil {
		t.Fatal("expected error adding a duplicate title")
	}
	if !errors.Is(err, errors.ErrConflict) {
		t.Errorf("expected conflict error, got: %v", err)
	}
	if s.NodeCount() != 1 {
		t.Errorf("NodeCount = %d after rejected add, want 1", s.NodeCount())
	}
}

func TestStoreEmptyTitleRejected(t *testing.T) {
	s := NewStore()
	_, err := s.AddNode("", "", "", Vec2{}, NoNode)
	if err == nil {
		t.Fatal("expected error for empty title")
	}
	if !errors.IsInvalidRequestError(err) {
		t.Errorf("expected invalid-request error, got: %v", err)
	}
}

func TestStoreDepthFollowsParent(t *testing.T) {
	s := NewStore()
	a, _ := s.AddNode("", "a", "", Vec2{}, NoNode)
	b, err := s.AddNode("", "b", "", Vec2{Y: 100}, a.ID)
	if err != nil {
		t.Fatalf("AddNode b failed: %v", err)
	}
	c, err := s.AddNode("", "c", "", Vec2{Y: 200}, b.ID)
	if err != nil {
		t.Fatalf("AddNode c failed: %v", err)
	}

	for _, n := range s.Nodes() {
		if n.Parent == NoNode {
			if n.Depth != 0 {
				t.Errorf("root depth = %d, want 0", n.Depth)
			}
			continue
		}
		parent := s.Node(n.Parent)
		if n.Depth != parent.Depth+1 {
			t.Errorf("node %q depth = %d, want parent depth + 1 = %d", n.Title, n.Depth, parent.Depth+1)
		}
	}

	if len(a.Children) != 1 || a.Children[0] != b.ID {
		t.Errorf("a.Children = %v, want [%d]", a.Children, b.ID)
	}
	if len(b.Children) != 1 || b.Children[0] != c.ID {
		t.Errorf("b.Children = %v, want [%d]", b.Children, c.ID)
	}
}

func TestStoreChildNeedsValidParent(t *testing.T) {
	s := NewStore()
	if _, err := s.AddNode("", "root", "", Vec2{}, NoNode); err != nil {
		t.Fatalf("AddNode root failed: %v", err)
	}

	_, err := s.AddNode("", "orphan", "", Vec2{}, NodeID(42))
	if err == nil {
		t.Fatal("expected error for out-of-range parent")
	}
	if !errors.IsInvalidRequestError(err) {
		t.Errorf("expected invalid-request error, got: %v", err)
	}
}

func TestStoreAddLinkValidation(t *testing.T) {
	s := NewStore()
	a, _ := s.AddNode("", "a", "", Vec2{}, NoNode)
	b, _ := s.AddNode("", "b", "", Vec2{}, a.ID)

	if _, err := s.AddLink(a.ID, b.ID, nil); err != nil {
		t.Errorf("AddLink valid pair failed: %v", err)
	}
	if _, err := s.AddLink(a.ID, NodeID(99), nil); err == nil {
		t.Error("expected error for out-of-range target")
	}
	if _, err := s.AddLink(NodeID(-2), b.ID, nil); err == nil {
		t.Error("expected error for out-of-range source")
	}
	if _, err := s.AddLink(a.ID, a.ID, nil); err == nil {
		t.Error("expected error for self link")
	}
	if s.LinkCount() != 1 {
		t.Errorf("LinkCount = %d, want 1", s.LinkCount())
	}
}

func TestStoreFindByRef(t *testing.T) {
	s := NewStore()
	a, _ := s.AddNode("ref-a", "a", "", Vec2{}, NoNode)
	s.AddNode("", "b", "", Vec2{}, a.ID)

	if got, ok := s.FindByRef("ref-a"); !ok || got != a {
		t.Errorf("FindByRef(ref-a) = %v, %v; want node a", got, ok)
	}
	if _, ok := s.FindByRef(""); ok {
		t.Error("FindByRef of empty ref should miss")
	}
	if _, ok := s.FindByRef("unknown"); ok {
		t.Error("FindByRef of unknown ref should miss")
	}
}

func TestStoreMaxDepth(t *testing.T) {
	s := NewStore()
	if s.MaxDepth() != 0 {
		t.Errorf("empty store MaxDepth = %d, want 0", s.MaxDepth())
	}

	a, _ := s.AddNode("", "a", "", Vec2{}, NoNode)
	b, _ := s.AddNode("", "b", "", Vec2{}, a.ID)
	c, _ := s.AddNode("", "c", "", Vec2{}, b.ID)
	s.AddNode("", "d", "", Vec2{}, c.ID)
	// A sibling at depth 1 should not raise the max
	s.AddNode("", "e", "", Vec2{}, a.ID)

	if s.MaxDepth() != 3 {
		t.Errorf("MaxDepth = %d, want 3", s.MaxDepth())
	}
}

func TestStoreInstanceIDsDiffer(t *testing.T) {
	s := NewStore()
	a, _ := s.AddNode("", "a", "", Vec2{}, NoNode)
	b, _ := s.AddNode("", "b", "", Vec2{}, a.ID)

	if a.Instance == b.Instance {
		t.Errorf("instance ids should differ, both = %s", a.Instance)
	}
}
