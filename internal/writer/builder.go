// internal/writer/builder.go
package writer

import (
	"time"

	cfg "github.com/tamzrod/cyclic-store/internal/config"
	wmodbus "github.com/tamzrod/cyclic-store/internal/writer/modbus"
)

// BuildStatusPlan converts the status section into a StatusPlan.
// Returns false when status publishing is disabled.
func BuildStatusPlan(c *cfg.Config) (StatusPlan, bool) {
	if c.Status == nil {
		return StatusPlan{}, false
	}
	return StatusPlan{
		Endpoint:  c.Status.Endpoint,
		UnitID:    c.Status.UnitID,
		BaseSlot:  c.Status.BaseSlot,
		StoreName: c.Store.Name,
	}, true
}

// BuildStatusWriter dials the status endpoint and wires a writer to it.
// The returned closer releases the connection.
func BuildStatusWriter(c *cfg.Config) (StatusWriter, func() error, error) {
	plan, ok := BuildStatusPlan(c)
	if !ok {
		return nil, func() error { return nil }, nil
	}

	cli, err := wmodbus.NewEndpointClient(wmodbus.Config{
		Endpoint: plan.Endpoint,
		Timeout:  time.Duration(c.Status.TimeoutMs) * time.Millisecond,
	})
	if err != nil {
		return nil, nil, err
	}

	sw, err := NewStoreStatusWriter(plan, cli)
	if err != nil {
		_ = cli.Close()
		return nil, nil, err
	}
	return sw, cli.Close, nil
}
