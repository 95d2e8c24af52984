// internal/poller/builder.go
package poller

import (
	"time"

	cfg "github.com/tamzrod/cyclic-store/internal/config"
	pmodbus "github.com/tamzrod/cyclic-store/internal/poller/modbus"
)

// Build constructs a Poller from the recorder config and wires the Modbus
// client lifecycle.
// Connection is reused while healthy.
// On transport death, Poller discards the client and uses factory on a future tick.
func Build(r cfg.RecorderConfig) (*Poller, func() error, error) {
	// client factory: ONE attempt per call
	factory := func() (Client, error) {
		return pmodbus.New(pmodbus.Config{
			Endpoint: r.Endpoint,
			UnitID:   r.UnitID,
			Timeout:  time.Duration(r.TimeoutMs) * time.Millisecond,
		})
	}

	// initial client (fail fast at startup)
	client, err := factory()
	if err != nil {
		return nil, nil, err
	}

	p, err := New(
		Config{
			Source:   r.Endpoint,
			Interval: time.Duration(r.IntervalMs) * time.Millisecond,
			Reads:    ReadBlocks(r.Reads),
		},
		client,
		factory,
	)
	if err != nil {
		return nil, nil, err
	}

	return p, p.Close, nil
}

// ReadBlocks converts configured reads into poller geometry.
func ReadBlocks(reads []cfg.ReadConfig) []ReadBlock {
	out := make([]ReadBlock, 0, len(reads))
	for _, r := range reads {
		out = append(out, ReadBlock{
			FC:       r.FC,
			Address:  r.Address,
			Quantity: r.Quantity,
		})
	}
	return out
}
