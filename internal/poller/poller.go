// internal/poller/poller.go
package poller

import (
	"errors"
	"fmt"
	"io"
	"time"
)

// Client abstracts Modbus operations needed by the poller.
// The poller depends on geometry only.
type Client interface {
	ReadCoils(addr, qty uint16) ([]bool, error)              // FC 1
	ReadDiscreteInputs(addr, qty uint16) ([]bool, error)     // FC 2
	ReadHoldingRegisters(addr, qty uint16) ([]uint16, error) // FC 3
	ReadInputRegisters(addr, qty uint16) ([]uint16, error)   // FC 4
}

// Factory dials a fresh client. One attempt per call.
type Factory func() (Client, error)

// Config is the minimal runtime config the poller needs.
type Config struct {
	Source   string
	Interval time.Duration
	Reads    []ReadBlock
}

// Poller is a dumb, clock-driven reader.
type Poller struct {
	cfg     Config
	client  Client
	factory Factory
}

// New creates a poller with immutable config.
// factory may be nil, in which case a failed client is never replaced.
func New(cfg Config, client Client, factory Factory) (*Poller, error) {
	if cfg.Source == "" {
		return nil, errors.New("poller: source required")
	}
	if cfg.Interval <= 0 {
		return nil, errors.New("poller: interval must be > 0")
	}
	if len(cfg.Reads) == 0 {
		return nil, errors.New("poller: at least one read block required")
	}
	if client == nil && factory == nil {
		return nil, errors.New("poller: client or factory required")
	}
	return &Poller{cfg: cfg, client: client, factory: factory}, nil
}

// PollOnce performs exactly one poll cycle.
// All-or-nothing: any failure aborts the cycle.
func (p *Poller) PollOnce() PollResult {
	res := PollResult{
		Source: p.cfg.Source,
		At:     time.Now(),
	}

	if p.client == nil {
		c, err := p.factory()
		if err != nil {
			res.Err = fmt.Errorf("poller: reconnect: %w", err)
			return res
		}
		p.client = c
	}

	blocks := make([]BlockResult, 0, len(p.cfg.Reads))

	for _, rb := range p.cfg.Reads {
		br, err := p.read(rb)
		if err != nil {
			p.discard()
			res.Err = err
			return res
		}
		blocks = append(blocks, br)
	}

	// Commit only if all reads succeeded
	res.Blocks = blocks
	return res
}

func (p *Poller) read(rb ReadBlock) (BlockResult, error) {
	br := BlockResult{FC: rb.FC, Address: rb.Address, Quantity: rb.Quantity}
	var err error

	switch rb.FC {
	case 1:
		br.Bits, err = p.client.ReadCoils(rb.Address, rb.Quantity)
	case 2:
		br.Bits, err = p.client.ReadDiscreteInputs(rb.Address, rb.Quantity)
	case 3:
		br.Registers, err = p.client.ReadHoldingRegisters(rb.Address, rb.Quantity)
	case 4:
		br.Registers, err = p.client.ReadInputRegisters(rb.Address, rb.Quantity)
	default:
		return br, fmt.Errorf("poller: unsupported function code %d", rb.FC)
	}
	return br, err
}

// discard drops the current client so the factory dials a new one on the
// next tick.
func (p *Poller) discard() {
	if p.factory == nil {
		return
	}
	if c, ok := p.client.(io.Closer); ok {
		_ = c.Close()
	}
	p.client = nil
}

// Close releases the current client, if any.
func (p *Poller) Close() error {
	if c, ok := p.client.(io.Closer); ok {
		p.client = nil
		return c.Close()
	}
	return nil
}
