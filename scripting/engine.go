package scripting

import (
	"context"
)

// Engine represents a scripting engine (e.g., JavaScript).
type Engine interface {
	// Execute runs a script and returns its completion value exported to Go.
	Execute(ctx context.Context, script string) (interface{}, error)

	// RegisterGeometry exposes points, extents and transforms to scripts.
	RegisterGeometry(host Host) error
}

// Host receives output produced by scripts.
type Host interface {
	// Print is called for print(...) and console.log(...).
	Print(message string)
}

// HostFunc adapts a function to Host.
type HostFunc func(message string)

func (f HostFunc) Print(message string) { f(message) }
