// internal/store/store.go
package store

import (
	"errors"
	"fmt"

	"github.com/tamzrod/cyclic-store/internal/device"
	"github.com/tamzrod/cyclic-store/internal/layout"
)

var (
	// ErrConfiguration is permanent: the caller must reconfigure.
	ErrConfiguration = errors.New("store: configuration error")

	// ErrDevice wraps a failed device transaction. It may be transient.
	ErrDevice = errors.New("store: device error")

	// ErrNotInitialized is returned before a successful Initialize.
	ErrNotInitialized = errors.New("store: not initialized")

	// ErrRecordSize is returned when a record has the wrong length.
	ErrRecordSize = errors.New("store: record size mismatch")

	// ErrEmpty is returned by Latest when nothing was written since format.
	ErrEmpty = errors.New("store: no record written")

	// ErrSequenceExhausted is returned when the next tag would be the sentinel.
	ErrSequenceExhausted = errors.New("store: sequence exhausted")
)

// Store keeps fixed-size records in a circular run of slots on a device.
//
// A Store borrows its device for its whole lifetime and holds no locks:
// it must be driven from a single goroutine.
type Store struct {
	recordSize uint32
	base       uint32

	dev     device.Port
	layout  layout.Layout
	planned bool

	initialized bool
	currentSlot uint32 // slot receiving the next write
	lastSlot    uint32 // slot holding the writeCount tag
	writeCount  uint32
}

// Option configures a Store.
type Option func(*Store)

// WithBaseAddress places the reserved region at addr instead of 0.
func WithBaseAddress(addr uint32) Option {
	return func(s *Store) { s.base = addr }
}

// New creates an uninitialized store for records of recordSize bytes.
func New(recordSize int, opts ...Option) (*Store, error) {
	if recordSize < 0 || uint64(recordSize) > uint64(^uint32(0))-layout.HeaderSize {
		return nil, fmt.Errorf("%w: record size %d", ErrConfiguration, recordSize)
	}
	s := &Store{recordSize: uint32(recordSize)}
	for _, o := range opts {
		o(s)
	}
	return s, nil
}

// RecordSize is the payload size of every record.
func (s *Store) RecordSize() int { return int(s.recordSize) }

// Initialize plans the slot layout over reservedPages pages of pageSize
// bytes and recovers the write position from the slot headers.
// pageSize 0 selects the device page size.
//
// Any previous state is discarded first, so a failed call leaves the
// store uninitialized.
func (s *Store) Initialize(dev device.Port, pageSize, reservedPages uint32) error {
	s.dev = nil
	s.planned = false
	s.initialized = false
	s.currentSlot, s.lastSlot, s.writeCount = 0, 0, 0

	if dev == nil {
		return fmt.Errorf("%w: device required", ErrConfiguration)
	}
	if pageSize == 0 {
		pageSize = dev.PageSize()
	}

	l, err := layout.Plan(pageSize, reservedPages, s.recordSize)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrConfiguration, err)
	}
	if uint64(s.base)+l.RegionSize() > uint64(dev.Capacity()) {
		return fmt.Errorf(
			"%w: region of %d bytes at %d exceeds device capacity %d",
			ErrConfiguration, l.RegionSize(), s.base, dev.Capacity(),
		)
	}

	s.dev = dev
	s.layout = l
	s.planned = true

	pos, err := newScanner(dev, l, s.base).scan()
	if err != nil {
		return fmt.Errorf("%w: recover: %w", ErrDevice, err)
	}

	s.currentSlot = pos.next
	s.lastSlot = pos.last
	s.writeCount = pos.count
	s.initialized = true
	return nil
}

// Initialized reports whether the last Initialize (or Format) succeeded.
func (s *Store) Initialized() bool { return s.initialized }
