// internal/store/recover.go
package store

import (
	"encoding/binary"

	"github.com/tamzrod/cyclic-store/internal/device"
	"github.com/tamzrod/cyclic-store/internal/layout"
)

// Tag 0 is never issued.
const unusedTag uint32 = 0

// position is the outcome of a scan.
type position struct {
	next  uint32 // slot receiving the next write
	last  uint32 // slot holding count
	count uint32 // highest recovered tag
}

// scanner locates the newest slot with O(log n) header reads.
// Each header is read at most once per scan.
//
// Writes go strictly round-robin from slot 0, so the tags are either a
// filled prefix 1..k followed by erased slots, or a fully filled rotation
// of an increasing run spanning fewer than n values.
//
// A header torn by power loss mixes new and erased bytes. It is told apart
// by distance: a live tag lies within n of the reference tag of the scan
// (0 for a prefix, slot 0's tag for a ring). Torn headers count as written
// in the boundary search and as older than slot 0 in the pivot search, and
// never supply the recovered count.
type scanner struct {
	dev  device.Port
	l    layout.Layout
	base uint32
	ref  uint32
	tags map[uint32]uint32
}

func newScanner(dev device.Port, l layout.Layout, base uint32) *scanner {
	return &scanner{dev: dev, l: l, base: base, tags: make(map[uint32]uint32)}
}

func (sc *scanner) tag(i uint32) (uint32, error) {
	if t, ok := sc.tags[i]; ok {
		return t, nil
	}
	b, err := sc.dev.Read(sc.l.SlotAddress(sc.base, i), layout.HeaderSize)
	if err != nil {
		return 0, err
	}
	t := binary.LittleEndian.Uint32(b)
	sc.tags[i] = t
	return t, nil
}

// near reports whether t is a live tag relative to ref.
func (sc *scanner) near(t, ref uint32) bool {
	if t == unusedTag || t == layout.Sentinel {
		return false
	}
	d := int64(t) - int64(ref)
	if d < 0 {
		d = -d
	}
	return d < int64(sc.l.SlotCount)
}

func (sc *scanner) scan() (position, error) {
	n := sc.l.SlotCount

	t0, err := sc.tag(0)
	if err != nil {
		return position{}, err
	}
	if t0 == layout.Sentinel {
		return position{}, nil
	}

	if n == 1 {
		if t0 == unusedTag {
			return position{}, nil
		}
		return position{next: 0, last: 0, count: t0}, nil
	}

	tl, err := sc.tag(n - 1)
	if err != nil {
		return position{}, err
	}

	// ---- filled prefix ----
	if tl == layout.Sentinel {
		sc.ref = 0
		k, err := sc.boundary(n)
		if err != nil {
			return position{}, err
		}
		return sc.settle(k - 1)
	}

	// ---- full ring ----
	sc.ref = t0
	if !sc.near(t0, tl) {
		torn0, err := sc.slotZeroTorn(n, t0, tl)
		if err != nil {
			return position{}, err
		}
		if torn0 {
			// slot 0 was being rewritten: the ring wrapped at n-1.
			sc.ref = tl
			return sc.settle(n - 1)
		}
	}

	p, err := sc.pivot(n, t0, tl)
	if err != nil {
		return position{}, err
	}
	return sc.settle(p)
}

// slotZeroTorn decides which of slot 0 and slot n-1 holds a torn header
// when the two disagree, using slot 1 as a witness.
func (sc *scanner) slotZeroTorn(n, t0, tl uint32) (bool, error) {
	if n == 2 {
		return t0 == unusedTag || t0 > tl, nil
	}
	t1, err := sc.tag(1)
	if err != nil {
		return false, err
	}
	return sc.near(t1, tl) && !sc.near(t1, t0), nil
}

// boundary finds the first erased slot k given slot 0 written and slot n-1
// erased.
func (sc *scanner) boundary(n uint32) (uint32, error) {
	lo, hi := uint32(0), n-1
	for hi-lo > 1 {
		mid := lo + (hi-lo)/2
		t, err := sc.tag(mid)
		if err != nil {
			return 0, err
		}
		if t == layout.Sentinel {
			hi = mid
		} else {
			lo = mid
		}
	}
	return hi, nil
}

// pivot finds p with tag(p) > tag(p+1 mod n) in a fully written ring.
func (sc *scanner) pivot(n, t0, tl uint32) (uint32, error) {
	above := func(t uint32) bool {
		return sc.near(t, t0) && t > t0
	}
	if above(tl) {
		return n - 1, nil
	}

	lo, hi := uint32(0), n-1
	for hi-lo > 1 {
		mid := lo + (hi-lo)/2
		t, err := sc.tag(mid)
		if err != nil {
			return 0, err
		}
		if above(t) {
			lo = mid
		} else {
			hi = mid
		}
	}
	return lo, nil
}

// settle takes the count from slot last, or from its nearest live lower
// neighbour when last is torn. The next write goes right after the slot
// that supplied the count, so a torn slot is the next one rewritten.
func (sc *scanner) settle(last uint32) (position, error) {
	n := sc.l.SlotCount
	for i := int64(last); i >= 0; i-- {
		t, err := sc.tag(uint32(i))
		if err != nil {
			return position{}, err
		}
		if sc.near(t, sc.ref) {
			return position{next: (uint32(i) + 1) % n, last: uint32(i), count: t}, nil
		}
	}
	return position{}, nil
}
