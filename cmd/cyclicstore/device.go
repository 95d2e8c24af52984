// cmd/cyclicstore/device.go
package main

import (
	"fmt"
	"time"

	"github.com/tamzrod/cyclic-store/internal/config"
	"github.com/tamzrod/cyclic-store/internal/device"
	"github.com/tamzrod/cyclic-store/internal/device/file"
	"github.com/tamzrod/cyclic-store/internal/device/memory"
	dmodbus "github.com/tamzrod/cyclic-store/internal/device/modbus"
	"github.com/tamzrod/cyclic-store/internal/store"
)

// openDevice builds the configured device port.
// The returned closer releases it.
func openDevice(d config.DeviceConfig) (device.Port, func() error, error) {
	noop := func() error { return nil }

	switch d.Kind {
	case config.DeviceMemory:
		dev, err := memory.New(d.Capacity, d.PageSize, memory.WithAddressWidth(d.AddressWidth))
		if err != nil {
			return nil, nil, err
		}
		return dev, noop, nil

	case config.DeviceFile:
		dev, err := file.Open(file.Config{
			Path:     d.Path,
			Capacity: d.Capacity,
			PageSize: d.PageSize,
			UseMmap:  d.Mmap,
			Sync:     d.Sync,
		})
		if err != nil {
			return nil, nil, err
		}
		return dev, dev.Close, nil

	case config.DeviceModbus:
		dev, err := dmodbus.Dial(dmodbus.Config{
			Endpoint:     d.Endpoint,
			UnitID:       d.UnitID,
			Timeout:      time.Duration(d.TimeoutMs) * time.Millisecond,
			RegisterBase: d.RegisterBase,
			Capacity:     d.Capacity,
			PageSize:     d.PageSize,
		})
		if err != nil {
			return nil, nil, err
		}
		return dev, dev.Close, nil

	default:
		return nil, nil, fmt.Errorf("unknown device kind %q", d.Kind)
	}
}

// openStore opens the device and initializes the store on it.
func openStore(cfg *config.Config) (*store.Store, func() error, error) {
	dev, closeDev, err := openDevice(cfg.Device)
	if err != nil {
		return nil, nil, err
	}

	st, err := store.New(cfg.Store.RecordSize, store.WithBaseAddress(cfg.Store.BaseAddress))
	if err != nil {
		_ = closeDev()
		return nil, nil, err
	}

	// A failed initialize still hands back the store so that format can
	// run on a device with an unreadable history.
	if err := st.Initialize(dev, cfg.Store.PageSize, cfg.Store.ReservedPages); err != nil {
		return st, closeDev, err
	}
	return st, closeDev, nil
}
