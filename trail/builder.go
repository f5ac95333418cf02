package trail

import (
	"go.uber.org/zap"

	"github.com/teranos/wander/errors"
	"github.com/teranos/wander/logger"
)

// Builder grows the trail from visit history and neighbor data. It is the
// only creator of nodes and links; the physics engine merely moves what the
// builder made.
type Builder struct {
	store     *Store
	verbosity int
	log       *zap.SugaredLogger
}

// NewBuilder creates a builder over a store.
func NewBuilder(store *Store, verbosity int, log *zap.SugaredLogger) *Builder {
	return &Builder{
		store:     store,
		verbosity: verbosity,
		log:       log.Named("trail.builder"),
	}
}

// Grow applies one round of visit/neighbor input to the store and returns
// the handles of the nodes it created, in creation order.
//
// The first visit seeds the root when the store is empty. Every visit in the
// history gets a node, chained under the node of the preceding visit; titles
// already in the trail are revisits and create nothing. The neighbor list of
// the target visit (the one matching the active title, else the last) is
// filtered against the whole store and attached under the active node (root
// when the active title matches nothing), laid out symmetrically around the
// parent at the fixed vertical offset.
//
// Identical repeated inputs are idempotent: the global title dedup drops
// everything the previous call created.
func (b *Builder) Grow(visits []Visit, similar SimilarityMap, activeTitle string) ([]NodeID, error) {
	if err := ValidateVisits(visits); err != nil {
		return nil, errors.Wrap(err, "rejecting visit history")
	}
	if err := ValidateSimilarityMap(similar); err != nil {
		return nil, errors.Wrap(err, "rejecting similarity map")
	}

	if len(visits) == 0 {
		return nil, nil
	}

	var created []NodeID

	// Seed the root from the first visit
	if b.store.NodeCount() == 0 {
		root, err := b.store.AddNode(visits[0].Ref, visits[0].Title, visits[0].Image, Vec2{}, NoNode)
		if err != nil {
			return created, errors.Wrap(err, "seeding root")
		}
		created = append(created, root.ID)
		if logger.ShouldOutput(b.verbosity, logger.OutputTrailGrowth) {
			b.log.Infow("trail rooted", "title", root.Title, "node_id", int(root.ID))
		}
	}

	// Chain each unseen visit under the node of the preceding visit
	var prev *Node
	for _, v := range visits {
		node, ok := b.store.FindByTitle(v.Title)
		if !ok {
			parent := b.store.Root()
			if prev != nil {
				parent = prev
			}
			pos := Vec2{X: parent.Pos.X, Y: parent.Pos.Y + ChildVerticalOffset}
			var err error
			node, err = b.store.AddNode(v.Ref, v.Title, v.Image, pos, parent.ID)
			if err != nil {
				return created, errors.Wrapf(err, "chaining visit %q", v.Title)
			}
			if _, err := b.store.AddLink(parent.ID, node.ID, nil); err != nil {
				return created, errors.Wrapf(err, "linking visit %q", v.Title)
			}
			created = append(created, node.ID)
		}
		prev = node
	}

	// Attachment point: the active node when it exists, else the root
	parent := b.store.Root()
	if activeTitle != "" {
		if n, ok := b.store.FindByTitle(activeTitle); ok {
			parent = n
		}
	}

	// Target visit supplies the neighbor list
	target := visits[len(visits)-1]
	if activeTitle != "" {
		for _, v := range visits {
			if v.Title == activeTitle {
				target = v
				break
			}
		}
	}

	if target.Ref == "" {
		return created, nil
	}
	neighbors, ok := similar[target.Ref]
	if !ok {
		return created, nil
	}

	// Filter: global title dedup, no parent self-reference, no repeats
	// within the incoming batch
	fresh := make([]Neighbor, 0, len(neighbors))
	seen := make(map[string]struct{}, len(neighbors))
	for _, n := range neighbors {
		if _, exists := b.store.FindByTitle(n.Title); exists {
			continue
		}
		if n.Title == parent.Title {
			continue
		}
		if _, dup := seen[n.Title]; dup {
			continue
		}
		seen[n.Title] = struct{}{}
		fresh = append(fresh, n)
	}

	// Lay the K survivors out symmetrically around the parent
	k := len(fresh)
	for i, n := range fresh {
		offset := (float64(i) - float64(k-1)/2) * SiblingSpread
		pos := Vec2{X: parent.Pos.X + offset, Y: parent.Pos.Y + ChildVerticalOffset}
		child, err := b.store.AddNode(n.Ref, n.Title, n.Image, pos, parent.ID)
		if err != nil {
			return created, errors.Wrapf(err, "attaching neighbor %q", n.Title)
		}
		if _, err := b.store.AddLink(parent.ID, child.ID, n.Score); err != nil {
			return created, errors.Wrapf(err, "linking neighbor %q", n.Title)
		}
		created = append(created, child.ID)
	}

	if len(created) > 0 && logger.ShouldOutput(b.verbosity, logger.OutputTrailGrowth) {
		b.log.Infow("trail grew",
			"visits", len(visits),
			"nodes", b.store.NodeCount(),
			"links", b.store.LinkCount(),
		)
	}

	return created, nil
}
