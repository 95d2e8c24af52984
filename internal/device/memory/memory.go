// internal/device/memory/memory.go
package memory

import (
	"errors"
	"fmt"

	"github.com/tamzrod/cyclic-store/internal/device"
)

// Erased is the value of every byte of a blank device.
const Erased byte = 0xFF

// ErrInjected is returned by operations failed on purpose.
var ErrInjected = errors.New("memory device: injected failure")

// Transaction is one physical bus write: address bytes then data bytes.
type Transaction struct {
	Addr  uint32
	Bytes []byte
}

// Device emulates a page-write constrained serial EEPROM in memory.
// Not safe for concurrent use.
type Device struct {
	mem       []byte
	pageSize  uint32
	addrWidth int

	reads    int
	writes   int
	busBytes int
	trace    []Transaction

	failReads  int
	failWrites int
	tearAfter  int // -1 = no tear armed
}

// Option configures a Device.
type Option func(*Device)

// WithAddressWidth sets the number of address bytes sent per transaction (1 or 2).
func WithAddressWidth(n int) Option {
	return func(d *Device) { d.addrWidth = n }
}

// New creates an erased device.
func New(capacity, pageSize uint32, opts ...Option) (*Device, error) {
	if capacity == 0 {
		return nil, errors.New("memory device: capacity must be > 0")
	}
	if pageSize == 0 || capacity%pageSize != 0 {
		return nil, fmt.Errorf("memory device: page size %d does not divide capacity %d", pageSize, capacity)
	}

	d := &Device{
		mem:       make([]byte, capacity),
		pageSize:  pageSize,
		addrWidth: 2,
		tearAfter: -1,
	}
	for _, o := range opts {
		o(d)
	}
	if d.addrWidth != 1 && d.addrWidth != 2 {
		return nil, fmt.Errorf("memory device: address width %d not supported", d.addrWidth)
	}

	for i := range d.mem {
		d.mem[i] = Erased
	}
	return d, nil
}

// FromImage creates a device preloaded with a copy of img.
func FromImage(img []byte, pageSize uint32, opts ...Option) (*Device, error) {
	d, err := New(uint32(len(img)), pageSize, opts...)
	if err != nil {
		return nil, err
	}
	copy(d.mem, img)
	return d, nil
}

// ---- device.Port ----

func (d *Device) Capacity() uint32 { return uint32(len(d.mem)) }

func (d *Device) PageSize() uint32 { return d.pageSize }

func (d *Device) Read(addr, n uint32) ([]byte, error) {
	if err := device.CheckRange(d.Capacity(), addr, n); err != nil {
		return nil, err
	}
	d.reads++
	if d.failReads > 0 {
		d.failReads--
		return nil, fmt.Errorf("%w: read addr=%d", ErrInjected, addr)
	}

	out := make([]byte, n)
	copy(out, d.mem[addr:addr+n])
	return out, nil
}

// Write splits data into page transactions, as the bus would.
func (d *Device) Write(addr uint32, data []byte) error {
	if err := device.CheckRange(d.Capacity(), addr, uint32(len(data))); err != nil {
		return err
	}
	d.writes++
	if d.failWrites > 0 {
		d.failWrites--
		return fmt.Errorf("%w: write addr=%d", ErrInjected, addr)
	}

	budget := d.tearAfter
	d.tearAfter = -1

	for _, c := range device.Pages(addr, len(data), d.pageSize) {
		chunk := data[c.Offset : c.Offset+c.Len]
		if budget >= 0 && budget < len(chunk) {
			d.commit(c.Addr, chunk[:budget])
			return fmt.Errorf("%w: write torn at addr=%d", ErrInjected, c.Addr+uint32(budget))
		}
		d.commit(c.Addr, chunk)
		if budget >= 0 {
			budget -= len(chunk)
		}
	}
	return nil
}

func (d *Device) commit(addr uint32, chunk []byte) {
	tx := Transaction{Addr: addr, Bytes: make([]byte, 0, d.addrWidth+len(chunk))}
	if d.addrWidth == 2 {
		tx.Bytes = append(tx.Bytes, byte(addr>>8))
	}
	tx.Bytes = append(tx.Bytes, byte(addr))
	tx.Bytes = append(tx.Bytes, chunk...)

	copy(d.mem[addr:], chunk)
	d.trace = append(d.trace, tx)
	d.busBytes += len(tx.Bytes)
}

// ---- fault injection ----

// FailReads makes the next n reads fail.
func (d *Device) FailReads(n int) { d.failReads = n }

// FailWrites makes the next n writes fail without touching memory.
func (d *Device) FailWrites(n int) { d.failWrites = n }

// TearNextWrite lets only the first n bytes of the next write land.
func (d *Device) TearNextWrite(n int) { d.tearAfter = n }

// ---- inspection ----

// Reads is the number of logical reads issued.
func (d *Device) Reads() int { return d.reads }

// Writes is the number of logical writes issued.
func (d *Device) Writes() int { return d.writes }

// BusBytes is the total number of bytes sent in write transactions.
func (d *Device) BusBytes() int { return d.busBytes }

// Trace returns the physical write transactions since the last reset.
func (d *Device) Trace() []Transaction { return d.trace }

// ResetCounters clears counters and the trace. Memory is kept.
func (d *Device) ResetCounters() {
	d.reads, d.writes, d.busBytes = 0, 0, 0
	d.trace = nil
}

// Image returns a copy of the device contents.
func (d *Device) Image() []byte {
	out := make([]byte, len(d.mem))
	copy(out, d.mem)
	return out
}

// Poke overwrites memory directly, bypassing counters and the trace.
func (d *Device) Poke(addr uint32, data []byte) {
	copy(d.mem[addr:], data)
}
