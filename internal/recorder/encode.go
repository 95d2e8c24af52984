// internal/recorder/encode.go
package recorder

import (
	"fmt"

	"github.com/tamzrod/cyclic-store/internal/poller"
)

// BlockSize is the number of record bytes one block occupies.
func BlockSize(b poller.BlockResult) int {
	switch b.FC {
	case 1, 2:
		return (int(b.Quantity) + 7) / 8
	default:
		return 2 * int(b.Quantity)
	}
}

// Encode packs the blocks of a successful sample into one record of
// recordSize bytes, in configured order.
// Registers are big-endian, bits are packed LSB-first per block, and the
// tail is zero padded.
func Encode(res poller.PollResult, recordSize int) ([]byte, error) {
	if res.Err != nil {
		return nil, fmt.Errorf("recorder: cannot encode failed sample: %w", res.Err)
	}

	out := make([]byte, recordSize)
	off := 0

	for _, b := range res.Blocks {
		n := BlockSize(b)
		if off+n > recordSize {
			return nil, fmt.Errorf("recorder: sample needs more than %d bytes", recordSize)
		}
		dst := out[off : off+n]

		switch b.FC {
		case 1, 2:
			for i, v := range b.Bits {
				if v && i < int(b.Quantity) {
					dst[i/8] |= 1 << (i % 8)
				}
			}
		case 3, 4:
			for i, r := range b.Registers {
				if i >= int(b.Quantity) {
					break
				}
				dst[2*i] = byte(r >> 8)
				dst[2*i+1] = byte(r)
			}
		default:
			return nil, fmt.Errorf("recorder: unsupported function code %d", b.FC)
		}

		off += n
	}

	return out, nil
}
