// internal/device/modbus/client.go
package modbus

import (
	"errors"
	"fmt"
	"time"

	"github.com/goburrow/modbus"

	"github.com/tamzrod/cyclic-store/internal/device"
)

// Modbus PDU limits for FC3 / FC16.
const (
	maxReadRegisters  = 125
	maxWriteRegisters = 123
)

// Client is the subset of modbus.Client the port needs.
type Client interface {
	ReadHoldingRegisters(address, quantity uint16) ([]byte, error)
	WriteMultipleRegisters(address, quantity uint16, value []byte) ([]byte, error)
}

// Config maps a byte space onto holding registers.
type Config struct {
	Endpoint     string
	UnitID       uint8
	Timeout      time.Duration
	RegisterBase uint16
	Capacity     uint32 // bytes
	PageSize     uint32 // bytes
}

// Port is a device.Port stored in a block of holding registers.
// Each register holds two bytes in Modbus (big-endian) order.
type Port struct {
	cfg    Config
	client Client
	close  func() error
}

// Dial connects to cfg.Endpoint over Modbus TCP.
func Dial(cfg Config) (*Port, error) {
	if cfg.Endpoint == "" {
		return nil, errors.New("modbus device: endpoint required")
	}

	h := modbus.NewTCPClientHandler(cfg.Endpoint)
	h.Timeout = cfg.Timeout
	h.SlaveId = cfg.UnitID

	if err := h.Connect(); err != nil {
		return nil, fmt.Errorf("modbus device: connect %s: %w", cfg.Endpoint, err)
	}

	p, err := New(cfg, modbus.NewClient(h))
	if err != nil {
		h.Close()
		return nil, err
	}
	p.close = h.Close
	return p, nil
}

// New wraps an existing client.
func New(cfg Config, client Client) (*Port, error) {
	if client == nil {
		return nil, errors.New("modbus device: client required")
	}
	if cfg.Capacity == 0 || cfg.PageSize == 0 {
		return nil, errors.New("modbus device: capacity and page size must be > 0")
	}
	regs := (uint64(cfg.Capacity) + 1) / 2
	if uint64(cfg.RegisterBase)+regs > 0x10000 {
		return nil, fmt.Errorf(
			"modbus device: %d bytes at register %d exceed the register space",
			cfg.Capacity, cfg.RegisterBase,
		)
	}
	return &Port{cfg: cfg, client: client}, nil
}

// Close closes the TCP connection, if Dial opened one.
func (p *Port) Close() error {
	if p == nil || p.close == nil {
		return nil
	}
	return p.close()
}

// ---- device.Port ----

func (p *Port) Capacity() uint32 { return p.cfg.Capacity }

func (p *Port) PageSize() uint32 { return p.cfg.PageSize }

func (p *Port) Read(addr, n uint32) ([]byte, error) {
	if err := device.CheckRange(p.cfg.Capacity, addr, n); err != nil {
		return nil, err
	}
	if n == 0 {
		return []byte{}, nil
	}

	first := addr / 2
	last := (addr + n - 1) / 2

	raw, err := p.readRegisters(first, last-first+1)
	if err != nil {
		return nil, err
	}

	off := addr % 2
	out := make([]byte, n)
	copy(out, raw[off:off+n])
	return out, nil
}

func (p *Port) Write(addr uint32, data []byte) error {
	if err := device.CheckRange(p.cfg.Capacity, addr, uint32(len(data))); err != nil {
		return err
	}

	for _, c := range device.Pages(addr, len(data), p.cfg.PageSize) {
		if err := p.writeChunk(c.Addr, data[c.Offset:c.Offset+c.Len]); err != nil {
			return err
		}
	}
	return nil
}

// ---- internal helpers ----

// writeChunk writes bytes that may start or end mid-register.
// Edge registers are read back first so their other byte survives.
func (p *Port) writeChunk(addr uint32, data []byte) error {
	end := addr + uint32(len(data)) // exclusive
	first := addr / 2
	last := (end - 1) / 2
	qty := last - first + 1

	buf := make([]byte, qty*2)

	if addr%2 != 0 {
		edge, err := p.readRegisters(first, 1)
		if err != nil {
			return err
		}
		copy(buf[0:2], edge)
	}
	if end%2 != 0 && (last != first || addr%2 == 0) {
		edge, err := p.readRegisters(last, 1)
		if err != nil {
			return err
		}
		copy(buf[len(buf)-2:], edge)
	}

	copy(buf[addr%2:], data)

	for off := uint32(0); off < qty; off += maxWriteRegisters {
		n := qty - off
		if n > maxWriteRegisters {
			n = maxWriteRegisters
		}
		reg := p.cfg.RegisterBase + uint16(first+off)
		if _, err := p.client.WriteMultipleRegisters(reg, uint16(n), buf[off*2:(off+n)*2]); err != nil {
			return fmt.Errorf("modbus device: write register=%d qty=%d: %w", reg, n, err)
		}
	}
	return nil
}

func (p *Port) readRegisters(first, qty uint32) ([]byte, error) {
	out := make([]byte, 0, qty*2)

	for off := uint32(0); off < qty; off += maxReadRegisters {
		n := qty - off
		if n > maxReadRegisters {
			n = maxReadRegisters
		}
		reg := p.cfg.RegisterBase + uint16(first+off)
		raw, err := p.client.ReadHoldingRegisters(reg, uint16(n))
		if err != nil {
			return nil, fmt.Errorf("modbus device: read register=%d qty=%d: %w", reg, n, err)
		}
		if len(raw) != int(n)*2 {
			return nil, fmt.Errorf("modbus device: short read at register=%d: got %d bytes want %d", reg, len(raw), n*2)
		}
		out = append(out, raw...)
	}
	return out, nil
}
