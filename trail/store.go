package trail

import (
	"github.com/teranos/wander/errors"
)

// Store is the append-only, insertion-ordered node/link arena for one
// session. It owns node lifetime exclusively; nothing is deleted until the
// whole store is discarded. The engine goroutine is the only writer, so the
// store carries no locking.
type Store struct {
	nodes   []*Node
	links   []*Link
	byTitle map[string]NodeID
	byRef   map[string]NodeID
}

// NewStore returns an empty trail store.
func NewStore() *Store {
	return &Store{
		byTitle: make(map[string]NodeID),
		byRef:   make(map[string]NodeID),
	}
}

// AddNode appends a node to the arena and registers it under its parent.
// The first node must be the root (parent == NoNode); every later node needs
// a valid parent handle. Titles are globally unique across the whole trail.
func (s *Store) AddNode(ref, title, image string, pos Vec2, parent NodeID) (*Node, error) {
	if title == "" {
		return nil, errors.NewInvalidRequestError("node title must not be empty")
	}
	if existing, ok := s.byTitle[title]; ok {
		return nil, errors.Wrapf(errors.ErrConflict, "title %q already in trail as node %d", title, existing)
	}

	if parent == NoNode {
		if len(s.nodes) > 0 {
			return nil, errors.Wrap(errors.ErrConflict, "trail already has a root")
		}
	} else {
		if int(parent) < 0 || int(parent) >= len(s.nodes) {
			return nil, errors.NewInvalidRequestError("parent handle %d out of range", parent)
		}
	}

	node := &Node{
		ID:       NodeID(len(s.nodes)),
		Ref:      ref,
		Title:    title,
		Image:    image,
		Pos:      pos,
		Radius:   DefaultRadius,
		Parent:   parent,
		Instance: newInstanceID(),
	}

	if parent == NoNode {
		// The root never integrates, so it counts as resting from birth;
		// links off the root could otherwise never capture their angle.
		node.Resting = true
	} else {
		p := s.nodes[parent]
		node.Depth = p.Depth + 1
		p.Children = append(p.Children, node.ID)
	}

	s.nodes = append(s.nodes, node)
	s.byTitle[title] = node.ID
	if ref != "" {
		if _, taken := s.byRef[ref]; !taken {
			s.byRef[ref] = node.ID
		}
	}

	return node, nil
}

// AddLink appends an edge between two nodes already in the arena.
func (s *Store) AddLink(source, target NodeID, score *float64) (*Link, error) {
	if int(source) < 0 || int(source) >= len(s.nodes) {
		return nil, errors.NewInvalidRequestError("link source handle %d out of range", source)
	}
	if int(target) < 0 || int(target) >= len(s.nodes) {
		return nil, errors.NewInvalidRequestError("link target handle %d out of range", target)
	}
	if source == target {
		return nil, errors.NewInvalidRequestError("link cannot join node %d to itself", source)
	}

	link := &Link{Source: source, Target: target, Score: score}
	s.links = append(s.links, link)
	return link, nil
}

// Node returns the node for a handle, or nil when out of range.
func (s *Store) Node(id NodeID) *Node {
	if int(id) < 0 || int(id) >= len(s.nodes) {
		return nil
	}
	return s.nodes[id]
}

// Root returns the tree root, or nil for an empty store.
func (s *Store) Root() *Node {
	if len(s.nodes) == 0 {
		return nil
	}
	return s.nodes[0]
}

// FindByTitle looks a node up by its dedup key.
func (s *Store) FindByTitle(title string) (*Node, bool) {
	id, ok := s.byTitle[title]
	if !ok {
		return nil, false
	}
	return s.nodes[id], true
}

// FindByRef looks a node up by its external record id. When several nodes
// carried the same ref the first one registered wins.
func (s *Store) FindByRef(ref string) (*Node, bool) {
	if ref == "" {
		return nil, false
	}
	id, ok := s.byRef[ref]
	if !ok {
		return nil, false
	}
	return s.nodes[id], true
}

// Nodes returns the arena in insertion order. Callers mutate physics state
// (position, velocity, resting) in place; structural fields belong to the
// store.
func (s *Store) Nodes() []*Node {
	return s.nodes
}

// Links returns the edges in insertion order.
func (s *Store) Links() []*Link {
	return s.links
}

// NodeCount returns the number of nodes in the arena.
func (s *Store) NodeCount() int {
	return len(s.nodes)
}

// LinkCount returns the number of edges in the arena.
func (s *Store) LinkCount() int {
	return len(s.links)
}

// MaxDepth returns the deepest node's depth, 0 for an empty store.
func (s *Store) MaxDepth() int {
	max := 0
	for _, n := range s.nodes {
		if n.Depth > max {
			max = n.Depth
		}
	}
	return max
}
