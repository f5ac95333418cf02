package trail

const (
	// DefaultRadius is the drawn extent of a node, consumed by collision resolution
	DefaultRadius = 24.0

	// SiblingSpread is the horizontal spacing between fresh siblings
	SiblingSpread = 120.0

	// ChildVerticalOffset is how far below its parent a new child spawns
	ChildVerticalOffset = 110.0
)
