// internal/store/write.go
package store

import (
	"encoding/binary"
	"fmt"

	"github.com/tamzrod/cyclic-store/internal/layout"
)

// Write stores record in the current slot under the next sequence tag and
// advances to the following slot, wrapping after the last one.
//
// Header and payload go to the device as one logical write that never
// leaves the slot. On failure the position and count are unchanged; the
// slot content is undefined until it is written again.
func (s *Store) Write(record []byte) error {
	if !s.initialized {
		return ErrNotInitialized
	}
	if uint32(len(record)) != s.recordSize {
		return fmt.Errorf("%w: got %d want %d", ErrRecordSize, len(record), s.recordSize)
	}

	seq := s.writeCount + 1
	if seq == layout.Sentinel {
		return ErrSequenceExhausted
	}

	buf := make([]byte, layout.HeaderSize+len(record))
	binary.LittleEndian.PutUint32(buf[:layout.HeaderSize], seq)
	copy(buf[layout.HeaderSize:], record)

	slot := s.currentSlot
	if err := s.dev.Write(s.layout.SlotAddress(s.base, slot), buf); err != nil {
		return fmt.Errorf("%w: write slot %d seq %d: %w", ErrDevice, slot, seq, err)
	}

	s.writeCount = seq
	s.lastSlot = slot
	s.currentSlot = (slot + 1) % s.layout.SlotCount
	return nil
}

// Latest reads back the payload of the most recently written record.
func (s *Store) Latest() ([]byte, error) {
	if !s.initialized {
		return nil, ErrNotInitialized
	}
	if s.writeCount == 0 {
		return nil, ErrEmpty
	}

	addr := s.layout.SlotAddress(s.base, s.lastSlot) + layout.HeaderSize
	b, err := s.dev.Read(addr, s.recordSize)
	if err != nil {
		return nil, fmt.Errorf("%w: read slot %d: %w", ErrDevice, s.lastSlot, err)
	}
	return b, nil
}
