// internal/config/validate.go
package config

import (
	"errors"
	"fmt"

	"github.com/tamzrod/cyclic-store/internal/layout"
	"github.com/tamzrod/cyclic-store/internal/status"
)

// Modbus request limits per function code.
const (
	maxReadBits      = 2000
	maxReadRegisters = 125
)

// EncodedSize is the number of record bytes one read block occupies:
// two bytes per register, bits packed eight per byte.
func (r ReadConfig) EncodedSize() int {
	switch r.FC {
	case 1, 2:
		return (int(r.Quantity) + 7) / 8
	default:
		return int(r.Quantity) * 2
	}
}

// SampleSize is the record size needed to hold one sample of all reads.
func (r *RecorderConfig) SampleSize() int {
	n := 0
	for _, rd := range r.Reads {
		n += rd.EncodedSize()
	}
	return n
}

// Validate checks configuration correctness.
// It performs declarative validation only.
// It MUST NOT mutate configuration.
func Validate(cfg *Config) error {
	if cfg == nil {
		return errors.New("config: nil config")
	}

	// ------------------------------------------------------------
	// STORE
	// ------------------------------------------------------------

	s := cfg.Store

	for i := 0; i < len(s.Name); i++ {
		if s.Name[i] > 0x7F {
			return errors.New("store: name must contain ASCII characters only")
		}
	}
	if s.RecordSize < 0 {
		return fmt.Errorf("store: record_size must be >= 0, got %d", s.RecordSize)
	}
	if s.ReservedPages == 0 {
		return errors.New("store: reserved_pages must be > 0")
	}

	// ------------------------------------------------------------
	// DEVICE
	// ------------------------------------------------------------

	d := cfg.Device

	if d.Capacity == 0 {
		return errors.New("device: capacity must be > 0")
	}
	if d.PageSize == 0 {
		return errors.New("device: page_size must be > 0")
	}

	switch d.Kind {
	case DeviceMemory:
		if d.Capacity%d.PageSize != 0 {
			return fmt.Errorf("device: page_size %d does not divide capacity %d", d.PageSize, d.Capacity)
		}
		if d.AddressWidth != 0 && d.AddressWidth != 1 && d.AddressWidth != 2 {
			return fmt.Errorf("device: address_width must be 1 or 2, got %d", d.AddressWidth)
		}
	case DeviceFile:
		if d.Path == "" {
			return fmt.Errorf("device: path is required for kind %q", d.Kind)
		}
	case DeviceModbus:
		if d.Endpoint == "" {
			return fmt.Errorf("device: endpoint is required for kind %q", d.Kind)
		}
		regs := (uint64(d.Capacity) + 1) / 2
		if uint64(d.RegisterBase)+regs > 0x10000 {
			return fmt.Errorf(
				"device: capacity %d at register_base %d exceeds the register space",
				d.Capacity, d.RegisterBase,
			)
		}
	default:
		return fmt.Errorf("device: unknown kind %q", d.Kind)
	}

	// ------------------------------------------------------------
	// LAYOUT (slot must fit, region must fit the device)
	// ------------------------------------------------------------

	pageSize := s.PageSize
	if pageSize == 0 {
		pageSize = d.PageSize
	}

	l, err := layout.Plan(pageSize, s.ReservedPages, uint32(s.RecordSize))
	if err != nil {
		return fmt.Errorf("store: %w", err)
	}
	if uint64(s.BaseAddress)+l.RegionSize() > uint64(d.Capacity) {
		return fmt.Errorf(
			"store: region of %d bytes at base_address %d exceeds device capacity %d",
			l.RegionSize(), s.BaseAddress, d.Capacity,
		)
	}

	// ------------------------------------------------------------
	// STATUS (OPT-IN)
	// ------------------------------------------------------------

	if st := cfg.Status; st != nil {
		if st.Endpoint == "" {
			return errors.New("status: endpoint is required")
		}
		// the whole block must sit inside the 16-bit register space
		if int(st.BaseSlot)*status.SlotsPerStore+status.SlotsPerStore > 0x10000 {
			return fmt.Errorf("status: base_slot %d exceeds register space", st.BaseSlot)
		}
	}

	// ------------------------------------------------------------
	// RECORDER (OPT-IN)
	// ------------------------------------------------------------

	if cfg.Recorder != nil {
		if err := validateRecorder(cfg.Recorder, s.RecordSize); err != nil {
			return err
		}
	}

	return nil
}

func validateRecorder(r *RecorderConfig, recordSize int) error {
	type span struct {
		start uint32
		end   uint32
	}

	if r.Endpoint == "" {
		return errors.New("recorder: endpoint is required")
	}
	if len(r.Reads) == 0 {
		return errors.New("recorder: at least one read is required")
	}

	// key = fc
	spans := make(map[uint8][]span)

	for i, rd := range r.Reads {
		if rd.Quantity == 0 {
			return fmt.Errorf("recorder: read %d: quantity must be > 0", i)
		}

		switch rd.FC {
		case 1, 2:
			if rd.Quantity > maxReadBits {
				return fmt.Errorf("recorder: read %d: fc=%d quantity %d exceeds %d", i, rd.FC, rd.Quantity, maxReadBits)
			}
		case 3, 4:
			if rd.Quantity > maxReadRegisters {
				return fmt.Errorf("recorder: read %d: fc=%d quantity %d exceeds %d", i, rd.FC, rd.Quantity, maxReadRegisters)
			}
		default:
			return fmt.Errorf("recorder: read %d: unsupported fc %d", i, rd.FC)
		}

		start := uint32(rd.Address)
		end := start + uint32(rd.Quantity) - 1
		if end > 0xFFFF {
			return fmt.Errorf("recorder: read %d: range %d-%d exceeds the address space", i, start, end)
		}

		for _, sp := range spans[rd.FC] {
			// overlap check (inclusive)
			if !(end < sp.start || start > sp.end) {
				return fmt.Errorf(
					"recorder: read overlap: fc=%d range=%d-%d overlaps range=%d-%d",
					rd.FC, start, end, sp.start, sp.end,
				)
			}
		}
		spans[rd.FC] = append(spans[rd.FC], span{start: start, end: end})
	}

	if need := r.SampleSize(); need > recordSize {
		return fmt.Errorf("recorder: sample needs %d bytes but record_size is %d", need, recordSize)
	}
	return nil
}
