// internal/layout/layout.go
package layout

import (
	"errors"
	"fmt"
)

// HeaderSize is the size of the sequence tag at the start of every slot.
const HeaderSize = 4

// Sentinel is the header value of a slot that was never written
// (all bits erased). It is never issued as a sequence tag.
const Sentinel uint32 = 0xFFFFFFFF

var (
	// ErrInvalid reports geometry that cannot be planned at all.
	ErrInvalid = errors.New("layout: invalid geometry")

	// ErrTooLarge reports that not even one slot fits the reserved region.
	ErrTooLarge = errors.New("layout: configuration too large")
)

// Layout is the derived slot geometry of a store.
// It is immutable once planned and safe to expose for diagnostics.
type Layout struct {
	PageSize      uint32
	ReservedPages uint32
	RecordSize    uint32

	SlotSize  uint32 // header + record, rounded up to a page multiple
	SlotCount uint32 // slots that fit the reserved region
}

// Plan derives slot size and slot count.
// No IO. No side effects.
func Plan(pageSize, reservedPages, recordSize uint32) (Layout, error) {
	if pageSize == 0 {
		return Layout{}, fmt.Errorf("%w: page size must be > 0", ErrInvalid)
	}

	raw := uint64(HeaderSize) + uint64(recordSize)
	slotSize := (raw + uint64(pageSize) - 1) / uint64(pageSize) * uint64(pageSize)
	region := uint64(reservedPages) * uint64(pageSize)

	if slotSize > region {
		return Layout{}, fmt.Errorf(
			"%w: slot size %d exceeds reserved region %d (page=%d pages=%d record=%d)",
			ErrTooLarge, slotSize, region, pageSize, reservedPages, recordSize,
		)
	}

	// region fits in 64 bits; slotCount is bounded by reservedPages.
	count := region / slotSize

	return Layout{
		PageSize:      pageSize,
		ReservedPages: reservedPages,
		RecordSize:    recordSize,
		SlotSize:      uint32(slotSize),
		SlotCount:     uint32(count),
	}, nil
}

// RegionSize is the number of bytes reserved for the store.
func (l Layout) RegionSize() uint64 {
	return uint64(l.ReservedPages) * uint64(l.PageSize)
}

// SlotAddress returns the first byte of slot i relative to base.
func (l Layout) SlotAddress(base uint32, i uint32) uint32 {
	return base + i*l.SlotSize
}
