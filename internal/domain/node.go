package domain

// NodeKind represents the type of a tree node
type NodeKind int

const (
	// KindContainer is the remote counterpart of a local directory
	KindContainer NodeKind = iota

	// KindDocument is the remote counterpart of a local document file
	KindDocument
)

// String returns the string representation of the kind
func (k NodeKind) String() string {
	switch k {
	case KindContainer:
		return "container"
	case KindDocument:
		return "document"
	default:
		return "unknown"
	}
}

// NodeState tracks a node's progress through the sync engine
type NodeState int

const (
	// StatePending means the node has not been processed yet
	StatePending NodeState = iota

	// StateResolving means a remote lookup is in flight for the node
	StateResolving

	// StateEnsured means the node's remote page exists and its ID is known
	StateEnsured

	// StateLinked means the container's body has been rewritten with child links
	// Only container nodes reach this state
	StateLinked
)

// String returns the string representation of the state
func (s NodeState) String() string {
	switch s {
	case StatePending:
		return "pending"
	case StateResolving:
		return "resolving"
	case StateEnsured:
		return "ensured"
	case StateLinked:
		return "linked"
	default:
		return "unknown"
	}
}

// TreeNode represents one filesystem entry under the sync root.
// Nodes are created once by the walker and never mutated afterwards,
// except that the engine records RemoteID and advances State.
type TreeNode struct {
	// Kind indicates container (directory) or document (file)
	Kind NodeKind

	// Path is the absolute local path, unique per node
	Path string

	// Title is the display name; for documents the permission tag is
	// already stripped
	Title string

	// ParentPath is the path of the enclosing directory, empty for the root
	ParentPath string

	// RemoteID is set once the remote page is created or found
	RemoteID string

	// ChildPaths lists immediate children in walk order (containers only)
	ChildPaths []string

	// Permission is the resolved access level (documents only)
	Permission Permission

	// State is owned by the sync engine
	State NodeState
}

// IsRoot returns true for the walk root node
func (n *TreeNode) IsRoot() bool {
	return n.ParentPath == ""
}
