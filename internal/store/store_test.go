package store

import (
	"bytes"
	"encoding/binary"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tamzrod/cyclic-store/internal/device/memory"
	"github.com/tamzrod/cyclic-store/internal/layout"
)

const (
	testCapacity = 4096
	testPage     = 32
)

type testData struct {
	Padding uint8
}

func newDevice(t *testing.T) *memory.Device {
	t.Helper()
	d, err := memory.New(testCapacity, testPage)
	require.NoError(t, err)
	return d
}

func newStore(t *testing.T, recordSize int, opts ...Option) *Store {
	t.Helper()
	s, err := New(recordSize, opts...)
	require.NoError(t, err)
	return s
}

func record(size int, b byte) []byte {
	return bytes.Repeat([]byte{b}, size)
}

func tagBytes(tag uint32) []byte {
	b := make([]byte, 4)
	binary.LittleEndian.PutUint32(b, tag)
	return b
}

// ---- initialize ----

func TestInitialize_DerivesLayout(t *testing.T) {
	cases := []struct {
		record    int
		slotSize  uint32
		slotCount uint32
	}{
		{1, 32, 4},
		{40, 64, 2},
		{28, 32, 4},
	}

	for _, tc := range cases {
		s := newStore(t, tc.record)
		require.NoError(t, s.Initialize(newDevice(t), testPage, 4))

		l, ok := s.Layout()
		require.True(t, ok)
		assert.Equal(t, tc.slotSize, l.SlotSize)
		assert.Equal(t, tc.slotCount, l.SlotCount)

		m, err := s.Metrics()
		require.NoError(t, err)
		assert.Equal(t, tc.slotCount, m.SlotCount)
		assert.Equal(t, uint32(0), m.WriteCount)
	}
}

func TestInitialize_ConfigurationTooLarge(t *testing.T) {
	dev := newDevice(t)
	s := newStore(t, 400)

	err := s.Initialize(dev, testPage, 4)
	require.ErrorIs(t, err, ErrConfiguration)
	require.ErrorIs(t, err, layout.ErrTooLarge)
	assert.False(t, s.Initialized())
	assert.Equal(t, 0, dev.Reads())
	assert.Equal(t, 0, dev.Writes())

	_, err = s.Metrics()
	require.ErrorIs(t, err, ErrNotInitialized)
	require.ErrorIs(t, s.Write(record(400, 1)), ErrNotInitialized)
	require.ErrorIs(t, s.Format(), ErrNotInitialized)
}

func TestInitialize_RegionBeyondCapacity(t *testing.T) {
	s := newStore(t, 1, WithBaseAddress(4096-64))
	err := s.Initialize(newDevice(t), testPage, 4)
	require.ErrorIs(t, err, ErrConfiguration)
}

func TestInitialize_NilDevice(t *testing.T) {
	s := newStore(t, 1)
	require.ErrorIs(t, s.Initialize(nil, testPage, 4), ErrConfiguration)
}

func TestInitialize_DefaultsToDevicePageSize(t *testing.T) {
	s := newStore(t, 1)
	require.NoError(t, s.Initialize(newDevice(t), 0, 4))

	l, _ := s.Layout()
	assert.Equal(t, uint32(testPage), l.PageSize)
	assert.Equal(t, uint32(4), l.SlotCount)
}

func TestInitialize_ErasedDeviceOneRead(t *testing.T) {
	dev := newDevice(t)
	s := newStore(t, 1)

	require.NoError(t, s.Initialize(dev, testPage, 4))
	assert.Equal(t, 1, dev.Reads())
	assert.Equal(t, 0, dev.Writes(), "initialize must not write")
	assert.Empty(t, dev.Trace())

	m, err := s.Metrics()
	require.NoError(t, err)
	assert.Equal(t, Metrics{SlotCount: 4, WriteCount: 0, CurrentSlot: 0}, m)
}

func TestInitialize_ReadFailure(t *testing.T) {
	dev := newDevice(t)
	dev.FailReads(1)
	s := newStore(t, 1)

	err := s.Initialize(dev, testPage, 4)
	require.ErrorIs(t, err, ErrDevice)
	require.ErrorIs(t, err, memory.ErrInjected)
	assert.False(t, s.Initialized())

	_, err = s.Metrics()
	require.ErrorIs(t, err, ErrNotInitialized)

	// the layout was planned, so format can still bring the store up
	require.NoError(t, s.Format())
	assert.True(t, s.Initialized())
}

func TestInitialize_FailureDiscardsPreviousState(t *testing.T) {
	dev := newDevice(t)
	s := newStore(t, 1)
	require.NoError(t, s.Initialize(dev, testPage, 4))
	require.NoError(t, s.Write(record(1, 1)))

	require.Error(t, s.Initialize(dev, testPage, 0))
	_, err := s.Metrics()
	require.ErrorIs(t, err, ErrNotInitialized)
}

// ---- format ----

func TestFormat_WritesOneHeaderPerSlot(t *testing.T) {
	dev := newDevice(t)
	s := newStore(t, 1)
	require.NoError(t, s.Initialize(dev, testPage, 4))
	dev.ResetCounters()

	require.NoError(t, s.Format())

	tr := dev.Trace()
	require.Len(t, tr, 4)
	for i, addr := range []uint32{0, 32, 64, 96} {
		assert.Equal(t, addr, tr[i].Addr)
		assert.Equal(t, []byte{0x00, byte(addr), 0xFF, 0xFF, 0xFF, 0xFF}, tr[i].Bytes)
	}
	assert.Equal(t, 24, dev.BusBytes())
}

func TestFormat_LeavesPayloadAndResetsState(t *testing.T) {
	dev := newDevice(t)
	s := newStore(t, 8)
	require.NoError(t, s.Initialize(dev, testPage, 4))
	for i := 0; i < 6; i++ {
		require.NoError(t, s.Write(record(8, byte(i))))
	}

	require.NoError(t, s.Format())

	m, err := s.Metrics()
	require.NoError(t, err)
	assert.Equal(t, Metrics{SlotCount: 4, WriteCount: 0, CurrentSlot: 0}, m)

	img := dev.Image()
	assert.Equal(t, tagBytes(layout.Sentinel), img[0:4])
	assert.Equal(t, record(8, 4), img[4:12], "payload area untouched")

	fresh := newStore(t, 8)
	require.NoError(t, fresh.Initialize(dev, testPage, 4))
	m, err = fresh.Metrics()
	require.NoError(t, err)
	assert.Equal(t, uint32(0), m.WriteCount)
}

func TestFormat_BestEffortOnFailure(t *testing.T) {
	dev := newDevice(t)
	s := newStore(t, 1)
	require.NoError(t, s.Initialize(dev, testPage, 4))
	require.NoError(t, s.Write(record(1, 1)))
	dev.ResetCounters()
	dev.FailWrites(1)

	err := s.Format()
	require.ErrorIs(t, err, ErrDevice)
	assert.Equal(t, 4, dev.Writes(), "every slot attempted")
	assert.False(t, s.Initialized())
}

// ---- write ----

func TestWrite_CountsAcrossWraparound(t *testing.T) {
	dev := newDevice(t)
	s := newStore(t, 1)
	require.NoError(t, s.Initialize(dev, testPage, 4))

	for n := 1; n <= 13; n++ {
		require.NoError(t, s.Write(record(1, byte(n))))
		m, err := s.Metrics()
		require.NoError(t, err)
		assert.Equal(t, uint32(n), m.WriteCount)
		assert.Equal(t, uint32(n%4), m.CurrentSlot)
	}
}

func TestWrite_WrapOverwritesOldest(t *testing.T) {
	dev := newDevice(t)
	s := newStore(t, 1)
	require.NoError(t, s.Initialize(dev, testPage, 4))

	for i := 1; i <= 4; i++ {
		require.NoError(t, s.Write(record(1, byte(i))))
	}
	dev.ResetCounters()

	require.NoError(t, s.Write(record(1, 0x55)))

	tr := dev.Trace()
	require.Len(t, tr, 1)
	assert.Equal(t, uint32(0), tr[0].Addr)
	assert.Equal(t, []byte{0x00, 0x00, 0x05, 0x00, 0x00, 0x00, 0x55}, tr[0].Bytes)
}

func TestWrite_SlotOnMultiplePages(t *testing.T) {
	dev := newDevice(t)
	s := newStore(t, 40)
	require.NoError(t, s.Initialize(dev, testPage, 4))
	require.NoError(t, s.Write(record(40, 0xAA)))
	require.NoError(t, s.Write(record(40, 0xBB)))

	// two logical writes, each split into two page transactions
	assert.Equal(t, 2, dev.Writes())
	tr := dev.Trace()
	require.Len(t, tr, 4)
	assert.Equal(t, []uint32{0, 32, 64, 96}, []uint32{tr[0].Addr, tr[1].Addr, tr[2].Addr, tr[3].Addr})

	img := dev.Image()
	assert.Equal(t, tagBytes(2), img[64:68])
	assert.Equal(t, record(40, 0xBB), img[68:108])
}

func TestWrite_FailureLeavesStateUnchanged(t *testing.T) {
	dev := newDevice(t)
	s := newStore(t, 1)
	require.NoError(t, s.Initialize(dev, testPage, 4))
	require.NoError(t, s.Write(record(1, 1)))

	dev.FailWrites(1)
	err := s.Write(record(1, 2))
	require.ErrorIs(t, err, ErrDevice)

	m, err := s.Metrics()
	require.NoError(t, err)
	assert.Equal(t, Metrics{SlotCount: 4, WriteCount: 1, CurrentSlot: 1}, m)

	require.NoError(t, s.Write(record(1, 2)))
	assert.Equal(t, tagBytes(2), dev.Image()[32:36])
}

func TestWrite_RecordSizeMismatch(t *testing.T) {
	s := newStore(t, 4)
	require.NoError(t, s.Initialize(newDevice(t), testPage, 4))
	require.ErrorIs(t, s.Write([]byte{1, 2, 3}), ErrRecordSize)
}

func TestWrite_SequenceExhausted(t *testing.T) {
	dev := newDevice(t)
	dev.Poke(0, tagBytes(layout.Sentinel-1))
	s := newStore(t, 1)
	require.NoError(t, s.Initialize(dev, testPage, 1))

	require.ErrorIs(t, s.Write(record(1, 0)), ErrSequenceExhausted)
}

func TestWrite_BaseAddress(t *testing.T) {
	dev := newDevice(t)
	s := newStore(t, 1, WithBaseAddress(0x200))
	require.NoError(t, s.Initialize(dev, testPage, 4))
	dev.ResetCounters()

	require.NoError(t, s.Write(record(1, 9)))
	assert.Equal(t, uint32(0x200), dev.Trace()[0].Addr)
}

// ---- latest ----

func TestLatest(t *testing.T) {
	dev := newDevice(t)
	s := newStore(t, 3)
	require.NoError(t, s.Initialize(dev, testPage, 4))

	_, err := s.Latest()
	require.ErrorIs(t, err, ErrEmpty)

	for i := 1; i <= 6; i++ {
		require.NoError(t, s.Write(record(3, byte(i))))
		got, err := s.Latest()
		require.NoError(t, err)
		assert.Equal(t, record(3, byte(i)), got)
	}

	fresh := newStore(t, 3)
	require.NoError(t, fresh.Initialize(dev, testPage, 4))
	got, err := fresh.Latest()
	require.NoError(t, err)
	assert.Equal(t, record(3, 6), got)
}

// ---- metrics ----

func TestMetrics_IdempotentWithoutIO(t *testing.T) {
	dev := newDevice(t)
	s := newStore(t, 1)
	require.NoError(t, s.Initialize(dev, testPage, 4))
	require.NoError(t, s.Write(record(1, 1)))
	dev.ResetCounters()

	first, err := s.Metrics()
	require.NoError(t, err)
	for i := 0; i < 5; i++ {
		m, err := s.Metrics()
		require.NoError(t, err)
		assert.Equal(t, first, m)
	}
	assert.Equal(t, 0, dev.Reads())
	assert.Equal(t, 0, dev.Writes())
}

func TestMetrics_NeverInitialized(t *testing.T) {
	s := newStore(t, 1)
	_, err := s.Metrics()
	require.ErrorIs(t, err, ErrNotInitialized)

	_, err = s.Latest()
	require.ErrorIs(t, err, ErrNotInitialized)
}

func TestNew_RejectsNegativeRecordSize(t *testing.T) {
	_, err := New(-1)
	require.ErrorIs(t, err, ErrConfiguration)
}
