package plot

import "github.com/google/uuid"

// Key uniquely identifies a plot for the lifetime of a session. Keys are
// random UUIDs rather than metric+timestamp strings, so two plots created in
// the same instant never collide.
type Key string

// NewKey returns a fresh plot key.
func NewKey() Key {
	return Key(uuid.New().String())
}
