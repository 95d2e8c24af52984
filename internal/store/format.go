// internal/store/format.go
package store

import (
	"encoding/binary"
	"errors"
	"fmt"

	"github.com/tamzrod/cyclic-store/internal/layout"
)

// Format erases every slot header back to the sentinel, one 4-byte write
// per slot. Payload bytes are left as they are.
//
// Every slot is attempted even after a failure. The position is reset to
// slot 0 with a count of 0; the store is usable afterwards only when all
// header writes succeeded, otherwise Initialize must run again.
//
// Format needs a planned layout, i.e. a previous Initialize call that got
// past planning, even if its recovery failed.
func (s *Store) Format() error {
	if !s.planned {
		return ErrNotInitialized
	}

	hdr := make([]byte, layout.HeaderSize)
	binary.LittleEndian.PutUint32(hdr, layout.Sentinel)

	var errs []error
	for i := uint32(0); i < s.layout.SlotCount; i++ {
		if err := s.dev.Write(s.layout.SlotAddress(s.base, i), hdr); err != nil {
			errs = append(errs, fmt.Errorf("slot %d: %w", i, err))
		}
	}

	s.currentSlot, s.lastSlot, s.writeCount = 0, 0, 0

	if len(errs) > 0 {
		s.initialized = false
		return fmt.Errorf("%w: format: %w", ErrDevice, errors.Join(errs...))
	}
	s.initialized = true
	return nil
}
