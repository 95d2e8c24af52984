// internal/device/port.go
package device

import (
	"errors"
	"fmt"
)

// Port is the byte-addressable persistent memory the store runs on.
//
// Read and Write are blocking. A Write may be split by the implementation
// into several page-aligned physical transactions; callers never rely on
// more atomicity than one physical page gives.
type Port interface {
	Capacity() uint32
	PageSize() uint32
	Read(addr, n uint32) ([]byte, error)
	Write(addr uint32, data []byte) error
}

// ErrOutOfRange reports an access beyond the device capacity.
var ErrOutOfRange = errors.New("device: address out of range")

// CheckRange validates that [addr, addr+n) lies inside capacity.
func CheckRange(capacity, addr, n uint32) error {
	if uint64(addr)+uint64(n) > uint64(capacity) {
		return fmt.Errorf("%w: addr=%d len=%d capacity=%d", ErrOutOfRange, addr, n, capacity)
	}
	return nil
}

// Chunk is one physical transaction of a split transfer.
type Chunk struct {
	Addr   uint32
	Offset int // offset into the logical buffer
	Len    int
}

// Pages splits a transfer of n bytes at addr so that no chunk crosses a
// page boundary. pageSize 0 means no splitting.
func Pages(addr uint32, n int, pageSize uint32) []Chunk {
	if n <= 0 {
		return nil
	}
	if pageSize == 0 {
		return []Chunk{{Addr: addr, Offset: 0, Len: n}}
	}

	var out []Chunk
	off := 0
	for off < n {
		a := addr + uint32(off)
		room := int(pageSize - a%pageSize)
		l := n - off
		if l > room {
			l = room
		}
		out = append(out, Chunk{Addr: a, Offset: off, Len: l})
		off += l
	}
	return out
}
