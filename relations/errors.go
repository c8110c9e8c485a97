package relations

import "errors"

var (
	// ErrCircularDependency indicates the requested edge would let an
	// instance reach itself.
	ErrCircularDependency = errors.New("relations: circular dependency")

	// ErrUnauthorized indicates the caller is neither party to the edge, or
	// is not the factory for an initial relation.
	ErrUnauthorized = errors.New("relations: unauthorized caller")

	// ErrNotFresh indicates an initial relation was requested for an
	// instance that already holds claims on other instances.
	ErrNotFresh = errors.New("relations: instance already has relations")

	// ErrZeroAddress indicates a zero address was given for a node.
	ErrZeroAddress = errors.New("relations: zero address")

	// ErrCorruptEdge indicates a stored edge key has the wrong length.
	ErrCorruptEdge = errors.New("relations: corrupt edge record")
)
