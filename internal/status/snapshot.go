// internal/status/snapshot.go
package status

import (
	"errors"

	"github.com/tamzrod/cyclic-store/internal/store"
)

// Snapshot represents exactly what the writer is allowed to deliver.
// It contains no logic and no memory of the past beyond current state.
type Snapshot struct {
	Health        uint16
	LastErrorCode uint16
	SlotCount     uint32
	WriteCount    uint32
	CurrentSlot   uint32
}

// FromMetrics builds a healthy snapshot from store metrics.
func FromMetrics(m store.Metrics) Snapshot {
	return Snapshot{
		Health:      HealthOK,
		SlotCount:   m.SlotCount,
		WriteCount:  m.WriteCount,
		CurrentSlot: m.CurrentSlot,
	}
}

// ErrorCode maps a store error onto a status error code.
func ErrorCode(err error) uint16 {
	switch {
	case err == nil:
		return CodeNone
	case errors.Is(err, store.ErrConfiguration):
		return CodeConfiguration
	case errors.Is(err, store.ErrDevice):
		return CodeDevice
	case errors.Is(err, store.ErrNotInitialized):
		return CodeNotInitialized
	case errors.Is(err, store.ErrRecordSize):
		return CodeRecordSize
	default:
		return CodeGeneric
	}
}
