// internal/store/typed.go
package store

import (
	"encoding/binary"
	"fmt"

	"github.com/tamzrod/cyclic-store/internal/device"
)

// Typed stores values of a fixed-size type T, encoded little-endian with
// encoding/binary. T must have a fixed binary size (no slices, maps or strings).
type Typed[T any] struct {
	s *Store
}

// NewTyped creates a store whose record size is binary.Size(T).
func NewTyped[T any](opts ...Option) (*Typed[T], error) {
	var zero T
	n := binary.Size(zero)
	if n < 0 {
		return nil, fmt.Errorf("%w: %T has no fixed binary size", ErrConfiguration, zero)
	}
	s, err := New(n, opts...)
	if err != nil {
		return nil, err
	}
	return &Typed[T]{s: s}, nil
}

// Store returns the underlying byte store.
func (t *Typed[T]) Store() *Store { return t.s }

func (t *Typed[T]) Initialize(dev device.Port, pageSize, reservedPages uint32) error {
	return t.s.Initialize(dev, pageSize, reservedPages)
}

func (t *Typed[T]) Write(v T) error {
	b, err := binary.Append(nil, binary.LittleEndian, v)
	if err != nil {
		return fmt.Errorf("%w: encode %T: %w", ErrRecordSize, v, err)
	}
	return t.s.Write(b)
}

func (t *Typed[T]) Latest() (T, error) {
	var v T
	b, err := t.s.Latest()
	if err != nil {
		return v, err
	}
	if _, err := binary.Decode(b, binary.LittleEndian, &v); err != nil {
		return v, fmt.Errorf("%w: decode %T: %w", ErrRecordSize, v, err)
	}
	return v, nil
}

func (t *Typed[T]) Format() error { return t.s.Format() }

func (t *Typed[T]) Metrics() (Metrics, error) { return t.s.Metrics() }
