// internal/recorder/encode_test.go
package recorder

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tamzrod/cyclic-store/internal/poller"
)

func TestEncode_PacksInConfiguredOrder(t *testing.T) {
	res := poller.PollResult{Blocks: []poller.BlockResult{
		{FC: 3, Quantity: 2, Registers: []uint16{0x1234, 0xABCD}},
		{FC: 1, Quantity: 10, Bits: []bool{true, false, false, false, false, false, false, true, false, true}},
		{FC: 4, Quantity: 1, Registers: []uint16{0x00FF}},
	}}

	rec, err := Encode(res, 12)
	require.NoError(t, err)
	assert.Equal(t, []byte{
		0x12, 0x34, 0xAB, 0xCD, // holding
		0x81, 0x02, // coils
		0x00, 0xFF, // input
		0, 0, 0, 0, // padding
	}, rec)
}

func TestEncode_RejectsOversizedSample(t *testing.T) {
	res := poller.PollResult{Blocks: []poller.BlockResult{
		{FC: 3, Quantity: 3, Registers: make([]uint16, 3)},
	}}
	_, err := Encode(res, 5)
	require.Error(t, err)
}

func TestEncode_RejectsFailedSample(t *testing.T) {
	_, err := Encode(poller.PollResult{Err: errors.New("timeout")}, 4)
	require.Error(t, err)
}

func TestBlockSize(t *testing.T) {
	assert.Equal(t, 1, BlockSize(poller.BlockResult{FC: 2, Quantity: 8}))
	assert.Equal(t, 2, BlockSize(poller.BlockResult{FC: 1, Quantity: 9}))
	assert.Equal(t, 6, BlockSize(poller.BlockResult{FC: 4, Quantity: 3}))
}
