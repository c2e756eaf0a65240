package graph

import "errors"

// ErrCycleDetected is returned by Sort when the graph contains a cycle,
// making a total topological order impossible.
var ErrCycleDetected = errors.New("cycle detected")

// ErrUnconnectedNode is returned by Sort when the graph has more than one
// root (a node with no incoming edge): every legal document graph has
// exactly one root, the CREATE operation.
var ErrUnconnectedNode = errors.New("unconnected node")
