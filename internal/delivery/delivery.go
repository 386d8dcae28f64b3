// Package delivery holds the long-running entry points of a process.
package delivery

import "context"

// Delivery is a component that serves until it fails or the process stops.
type Delivery interface {
	Serve(ctx context.Context) error
}
