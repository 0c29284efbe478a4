package ranges

import (
	"net/netip"

	"lukechampine.com/uint128"
)

// NumberOfIPsInRange returns how many addresses lie in the inclusive range
// [from, to]. IPv4 addresses are counted in their 16 byte form. A reversed
// range counts as empty and the full IPv6 space saturates at uint128.Max.
func NumberOfIPsInRange(from, to netip.Addr) uint128.Uint128 {
	fromBytes, toBytes := from.As16(), to.As16()
	fromIP := uint128.FromBytesBE(fromBytes[:])
	toIP := uint128.FromBytesBE(toBytes[:])
	if toIP.Cmp(fromIP) < 0 {
		return uint128.Zero
	}
	diff := toIP.Sub(fromIP)
	if diff.Equals(uint128.Max) {
		return uint128.Max
	}
	return diff.Add64(1)
}

func addSaturating(a, b uint128.Uint128) uint128.Uint128 {
	if uint128.Max.Sub(a).Cmp(b) < 0 {
		return uint128.Max
	}
	return a.Add(b)
}

// count adds an emitted record to s.
func (s *Stats) count(r Record) {
	s.Emitted++
	from, err := netip.ParseAddr(r.Low)
	if err != nil {
		s.Uncounted++
		return
	}
	to, err := netip.ParseAddr(r.High)
	if err != nil {
		s.Uncounted++
		return
	}
	s.Addresses = addSaturating(s.Addresses, NumberOfIPsInRange(from, to))
}
