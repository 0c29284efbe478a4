// Package asnmap answers "which AS originates this address" from the
// combined range table written by asnranges.
package asnmap

import (
	"errors"
	"fmt"
	"net/netip"
	"slices"
	"sort"

	"go4.org/netipx"
)

// NoASN is returned for addresses outside every known range.
const NoASN uint32 = 0

var (
	ErrInvalidRange = errors.New("invalid range")
	ErrNoASN        = errors.New("range has no ASN")
	ErrOverlap      = errors.New("range overlaps an existing range")
)

type entry struct {
	r   netipx.IPRange
	asn uint32
}

// Map holds non-overlapping inclusive ranges ordered by their upper bound,
// so the first range ending at or after an address is the only candidate
// that can contain it.
type Map struct {
	entries []entry
}

// Canonical puts addr in the form used by the range table: IPv4 addresses
// become IPv4-compatible IPv6 addresses (::a.b.c.d) and zones are dropped.
// IPv4-mapped addresses (::ffff:a.b.c.d) are left alone.
func Canonical(addr netip.Addr) netip.Addr {
	if addr.Is4() {
		var b [16]byte
		v4 := addr.As4()
		copy(b[12:], v4[:])
		return netip.AddrFrom16(b)
	}
	return addr.WithZone("")
}

// search returns the index of the first range whose upper bound is >= addr.
func (m *Map) search(addr netip.Addr) int {
	return sort.Search(len(m.entries), func(i int) bool {
		return !m.entries[i].r.To().Less(addr)
	})
}

// Add maps [from, to] to asn.
func (m *Map) Add(from, to netip.Addr, asn uint32) error {
	from, to = Canonical(from), Canonical(to)
	r := netipx.IPRangeFrom(from, to)
	if !r.IsValid() {
		return fmt.Errorf("%w: %s-%s", ErrInvalidRange, from, to)
	}
	if asn == NoASN {
		return fmt.Errorf("%w: %s", ErrNoASN, r)
	}

	i := m.search(to)
	if i < len(m.entries) && !to.Less(m.entries[i].r.From()) {
		return fmt.Errorf("%w: %s and %s", ErrOverlap, r, m.entries[i].r)
	}
	if i > 0 && !m.entries[i-1].r.To().Less(from) {
		return fmt.Errorf("%w: %s and %s", ErrOverlap, r, m.entries[i-1].r)
	}
	m.entries = slices.Insert(m.entries, i, entry{r: r, asn: asn})
	return nil
}

// ASN returns the AS number originating addr, or NoASN.
func (m *Map) ASN(addr netip.Addr) uint32 {
	addr = Canonical(addr)
	i := m.search(addr)
	if i < len(m.entries) && m.entries[i].r.Contains(addr) {
		return m.entries[i].asn
	}
	return NoASN
}

// Len is the number of ranges in m.
func (m *Map) Len() int {
	return len(m.entries)
}

// Clear removes every range.
func (m *Map) Clear() {
	m.entries = m.entries[:0]
}
