package algorithms

import "errors"

var (
	// ErrEmptyGraph is returned when metrics are requested over a network with no nodes.
	ErrEmptyGraph = errors.New("network has no nodes")
	// ErrInvalidRequest marks a malformed analysis request.
	ErrInvalidRequest = errors.New("invalid analysis request")
	// ErrNotFound is returned in strict mode when a disruption target is absent.
	ErrNotFound = errors.New("not found")
)
