// internal/writer/status_writer_test.go
package writer

import (
	"errors"
	"testing"

	"github.com/tamzrod/cyclic-store/internal/config"
	"github.com/tamzrod/cyclic-store/internal/status"
)

type regWrite struct {
	unitID uint8
	addr   uint16
	regs   []uint16
}

type fakeEndpointClient struct {
	writes []regWrite
	fail   bool
}

func (f *fakeEndpointClient) WriteRegisters(unitID uint8, addr uint16, regs []uint16) error {
	if f.fail {
		return errors.New("boom")
	}
	cp := append([]uint16(nil), regs...)
	f.writes = append(f.writes, regWrite{unitID: unitID, addr: addr, regs: cp})
	return nil
}

func (f *fakeEndpointClient) last() regWrite {
	return f.writes[len(f.writes)-1]
}

func newWriter(t *testing.T, cli *fakeEndpointClient) *storeStatusWriter {
	t.Helper()
	sw, err := NewStoreStatusWriter(StatusPlan{
		Endpoint:  "status-endpoint",
		UnitID:    3,
		BaseSlot:  2,
		StoreName: "LOG-01",
	}, cli)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	return sw
}

func TestStatusWriter_FirstWriteIsFullBlock(t *testing.T) {
	cli := &fakeEndpointClient{}
	sw := newWriter(t, cli)

	if err := sw.WriteStatus(status.Snapshot{Health: status.HealthOK, SlotCount: 4}); err != nil {
		t.Fatalf("write failed: %v", err)
	}

	w := cli.last()
	if w.unitID != 3 || w.addr != 2*status.SlotsPerStore {
		t.Fatalf("unexpected target: unit=%d addr=%d", w.unitID, w.addr)
	}
	if len(w.regs) != status.SlotsPerStore {
		t.Fatalf("expected full block, got %d regs", len(w.regs))
	}
	if w.regs[status.SlotNameStart] != uint16('L')<<8|uint16('O') {
		t.Fatalf("store name not written: %#x", w.regs[status.SlotNameStart])
	}
}

func TestStatusWriter_IncrementalWritesChangedRuns(t *testing.T) {
	cli := &fakeEndpointClient{}
	sw := newWriter(t, cli)

	s := status.Snapshot{Health: status.HealthOK, SlotCount: 4, WriteCount: 1, CurrentSlot: 1}
	if err := sw.WriteStatus(s); err != nil {
		t.Fatalf("write failed: %v", err)
	}

	s.WriteCount = 2
	s.CurrentSlot = 2
	if err := sw.WriteStatus(s); err != nil {
		t.Fatalf("incremental write failed: %v", err)
	}

	if len(cli.writes) != 2 {
		t.Fatalf("expected one incremental write, got %d writes", len(cli.writes)-1)
	}
	w := cli.last()
	if w.addr != 2*status.SlotsPerStore+status.SlotWriteCountLo {
		t.Fatalf("unexpected incremental addr: %d", w.addr)
	}
	if len(w.regs) != 2 || w.regs[0] != 2 || w.regs[1] != 2 {
		t.Fatalf("unexpected incremental regs: %v", w.regs)
	}
}

func TestStatusWriter_UnchangedSnapshotWritesNothing(t *testing.T) {
	cli := &fakeEndpointClient{}
	sw := newWriter(t, cli)

	s := status.Snapshot{Health: status.HealthOK}
	_ = sw.WriteStatus(s)
	_ = sw.WriteStatus(s)

	if len(cli.writes) != 1 {
		t.Fatalf("expected 1 write, got %d", len(cli.writes))
	}
}

func TestStatusWriter_FailureForcesFullBlock(t *testing.T) {
	cli := &fakeEndpointClient{}
	sw := newWriter(t, cli)

	_ = sw.WriteStatus(status.Snapshot{Health: status.HealthOK})

	cli.fail = true
	if err := sw.WriteStatus(status.Snapshot{Health: status.HealthError, LastErrorCode: status.CodeDevice}); err == nil {
		t.Fatalf("expected error, got nil")
	}

	cli.fail = false
	if err := sw.WriteStatus(status.Snapshot{Health: status.HealthOK}); err != nil {
		t.Fatalf("recovery write failed: %v", err)
	}
	if len(cli.last().regs) != status.SlotsPerStore {
		t.Fatalf("expected full re-assert after failure, got %d regs", len(cli.last().regs))
	}
}

func TestNewStoreStatusWriter_Rejects(t *testing.T) {
	if _, err := NewStoreStatusWriter(StatusPlan{}, nil); err == nil {
		t.Fatalf("expected missing client error, got nil")
	}
	if _, err := NewStoreStatusWriter(StatusPlan{BaseSlot: 3277}, &fakeEndpointClient{}); err == nil {
		t.Fatalf("expected register space error, got nil")
	}
}

func TestBuildStatusPlan(t *testing.T) {
	c := &config.Config{Store: config.StoreConfig{Name: "boiler"}}
	if _, ok := BuildStatusPlan(c); ok {
		t.Fatalf("status should be disabled")
	}

	c.Status = &config.StatusConfig{Endpoint: "10.0.0.1:502", UnitID: 4, BaseSlot: 1}
	plan, ok := BuildStatusPlan(c)
	if !ok || plan.StoreName != "boiler" || plan.UnitID != 4 || plan.BaseSlot != 1 {
		t.Fatalf("unexpected plan: %+v ok=%v", plan, ok)
	}
}
