// internal/device/file/file.go
package file

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"golang.org/x/sys/unix"

	"github.com/tamzrod/cyclic-store/internal/device"
)

// erased is the fill byte of a fresh image.
const erased byte = 0xFF

// Config describes the image file.
type Config struct {
	Path     string
	Capacity uint32
	PageSize uint32
	UseMmap  bool // map the image instead of ReadAt/WriteAt
	Sync     bool // fsync / msync after every write
}

// Device is a device.Port backed by an image file.
type Device struct {
	file *os.File
	mmap []byte // nil when mmap is disabled
	cfg  Config
}

// Open opens or creates the image at cfg.Path.
// A new image is filled with erased bytes. An existing image must match
// the configured capacity exactly.
func Open(cfg Config) (*Device, error) {
	if cfg.Path == "" {
		return nil, errors.New("file device: path required")
	}
	if cfg.Capacity == 0 {
		return nil, errors.New("file device: capacity must be > 0")
	}
	if cfg.PageSize == 0 {
		return nil, errors.New("file device: page size must be > 0")
	}

	if err := os.MkdirAll(filepath.Dir(cfg.Path), 0o755); err != nil {
		return nil, fmt.Errorf("file device: create directory: %w", err)
	}

	f, err := os.OpenFile(cfg.Path, os.O_RDWR|os.O_CREATE, 0o666)
	if err != nil {
		return nil, fmt.Errorf("file device: open image: %w", err)
	}

	st, err := f.Stat()
	if err != nil {
		f.Close()
		return nil, fmt.Errorf("file device: stat image: %w", err)
	}

	switch st.Size() {
	case 0:
		if err := fillErased(f, cfg.Capacity); err != nil {
			f.Close()
			return nil, err
		}
	case int64(cfg.Capacity):
	default:
		f.Close()
		return nil, fmt.Errorf("file device: image size %d does not match capacity %d", st.Size(), cfg.Capacity)
	}

	d := &Device{file: f, cfg: cfg}

	if cfg.UseMmap {
		m, err := unix.Mmap(int(f.Fd()), 0, int(cfg.Capacity), unix.PROT_READ|unix.PROT_WRITE, unix.MAP_SHARED)
		if err != nil {
			f.Close()
			return nil, fmt.Errorf("file device: mmap image: %w", err)
		}
		d.mmap = m
	}

	return d, nil
}

func fillErased(f *os.File, capacity uint32) error {
	buf := make([]byte, capacity)
	for i := range buf {
		buf[i] = erased
	}
	if _, err := f.WriteAt(buf, 0); err != nil {
		return fmt.Errorf("file device: initialise image: %w", err)
	}
	if err := f.Sync(); err != nil {
		return fmt.Errorf("file device: sync image: %w", err)
	}
	return nil
}

// ---- device.Port ----

func (d *Device) Capacity() uint32 { return d.cfg.Capacity }

func (d *Device) PageSize() uint32 { return d.cfg.PageSize }

func (d *Device) Read(addr, n uint32) ([]byte, error) {
	if err := device.CheckRange(d.cfg.Capacity, addr, n); err != nil {
		return nil, err
	}

	out := make([]byte, n)
	if d.mmap != nil {
		copy(out, d.mmap[addr:addr+n])
		return out, nil
	}
	if _, err := d.file.ReadAt(out, int64(addr)); err != nil {
		return nil, fmt.Errorf("file device: read addr=%d: %w", addr, err)
	}
	return out, nil
}

func (d *Device) Write(addr uint32, data []byte) error {
	if err := device.CheckRange(d.cfg.Capacity, addr, uint32(len(data))); err != nil {
		return err
	}

	if d.mmap != nil {
		copy(d.mmap[addr:], data)
		if d.cfg.Sync {
			if err := unix.Msync(d.mmap, unix.MS_SYNC); err != nil {
				return fmt.Errorf("file device: msync: %w", err)
			}
		}
		return nil
	}

	if _, err := d.file.WriteAt(data, int64(addr)); err != nil {
		return fmt.Errorf("file device: write addr=%d: %w", addr, err)
	}
	if d.cfg.Sync {
		if err := d.file.Sync(); err != nil {
			return fmt.Errorf("file device: sync: %w", err)
		}
	}
	return nil
}

// Flush forces the image to stable storage.
func (d *Device) Flush() error {
	if d.mmap != nil {
		if err := unix.Msync(d.mmap, unix.MS_SYNC); err != nil {
			return fmt.Errorf("file device: msync: %w", err)
		}
		return nil
	}
	if err := d.file.Sync(); err != nil {
		return fmt.Errorf("file device: sync: %w", err)
	}
	return nil
}

// Close unmaps and closes the image. The first error wins.
func (d *Device) Close() error {
	var firstErr error
	if d.mmap != nil {
		if err := unix.Munmap(d.mmap); err != nil {
			firstErr = fmt.Errorf("file device: munmap: %w", err)
		}
		d.mmap = nil
	}
	if err := d.file.Close(); err != nil && firstErr == nil {
		firstErr = fmt.Errorf("file device: close: %w", err)
	}
	return firstErr
}
