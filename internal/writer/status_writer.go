// internal/writer/status_writer.go
package writer

import (
	"errors"
	"fmt"

	"github.com/tamzrod/cyclic-store/internal/status"
)

// StatusWriter is the delivery-only contract for store status.
// It receives a snapshot and writes it verbatim.
type StatusWriter interface {
	WriteStatus(s status.Snapshot) error
}

// storeStatusWriter delivers one store status block.
type storeStatusWriter struct {
	plan StatusPlan
	cli  endpointClient

	needFull bool
	last     []uint16
}

// NewStoreStatusWriter builds a status writer for plan using cli.
func NewStoreStatusWriter(plan StatusPlan, cli endpointClient) (*storeStatusWriter, error) {
	if cli == nil {
		return nil, fmt.Errorf("status writer: missing client for endpoint %s", plan.Endpoint)
	}
	if int(plan.BaseSlot)*status.SlotsPerStore+status.SlotsPerStore > 0x10000 {
		return nil, fmt.Errorf("status writer: base slot %d exceeds register space", plan.BaseSlot)
	}

	return &storeStatusWriter{
		plan:     plan,
		cli:      cli,
		needFull: true, // full re-assert on first successful write
	}, nil
}

// WriteStatus delivers a status snapshot into status memory.
// On any write failure, the next successful call will re-assert the full block.
func (sw *storeStatusWriter) WriteStatus(s status.Snapshot) error {
	if sw == nil {
		return errors.New("status writer: disabled")
	}

	regs := status.Encode(s, sw.plan.StoreName)
	base := sw.baseAddr()

	// ------------------------------------------------------------
	// Full block write (identity re-assert)
	// ------------------------------------------------------------
	if sw.needFull {
		if err := sw.cli.WriteRegisters(sw.plan.UnitID, base, regs); err != nil {
			return fmt.Errorf("status writer: full block write failed: %w", err)
		}
		sw.needFull = false
		sw.last = regs
		return nil
	}

	// ------------------------------------------------------------
	// Incremental: one write per run of changed registers
	// ------------------------------------------------------------
	var errs []error
	for start := 0; start < len(regs); {
		if regs[start] == sw.last[start] {
			start++
			continue
		}
		end := start
		for end < len(regs) && regs[end] != sw.last[end] {
			end++
		}

		run := regs[start:end]
		if err := sw.cli.WriteRegisters(sw.plan.UnitID, base+uint16(start), run); err != nil {
			errs = append(errs, fmt.Errorf("slots %d-%d: %w", start, end-1, err))
		} else {
			copy(sw.last[start:end], run)
		}
		start = end
	}

	if len(errs) > 0 {
		// any partial failure introduces doubt, re-assert on next success
		sw.needFull = true
		return fmt.Errorf("status writer: %w", errors.Join(errs...))
	}

	return nil
}

func (sw *storeStatusWriter) baseAddr() uint16 {
	// Each store owns a fixed SlotsPerStore block.
	return sw.plan.BaseSlot * status.SlotsPerStore
}
