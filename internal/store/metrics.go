// internal/store/metrics.go
package store

import "github.com/tamzrod/cyclic-store/internal/layout"

// Metrics is a snapshot of the store position.
type Metrics struct {
	SlotCount   uint32
	WriteCount  uint32 // successful writes since the last format
	CurrentSlot uint32 // slot receiving the next write
}

// Metrics returns cached state. It performs no device IO.
func (s *Store) Metrics() (Metrics, error) {
	if !s.initialized {
		return Metrics{}, ErrNotInitialized
	}
	return Metrics{
		SlotCount:   s.layout.SlotCount,
		WriteCount:  s.writeCount,
		CurrentSlot: s.currentSlot,
	}, nil
}

// Layout exposes the planned geometry for diagnostics.
// ok is false until an Initialize call got past planning.
func (s *Store) Layout() (l layout.Layout, ok bool) {
	return s.layout, s.planned
}
