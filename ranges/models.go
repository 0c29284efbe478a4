package ranges

import (
	"strconv"

	"lukechampine.com/uint128"
)

// Record is one normalized range: both bounds are IPv6 literals, even for
// ranges that came from the IPv4 table.
type Record struct {
	Low  string
	High string
	ASN  uint32
}

// AppendTo appends the output line for r, newline included.
func (r Record) AppendTo(b []byte) []byte {
	b = append(b, r.Low...)
	b = append(b, ',')
	b = append(b, r.High...)
	b = append(b, ',')
	b = strconv.AppendUint(b, uint64(r.ASN), 10)
	return append(b, '\n')
}

func (r Record) String() string {
	b := r.AppendTo(nil)
	return string(b[:len(b)-1])
}

// Table describes one source table: its name in logs and errors and how a
// row of it becomes a Record.
type Table struct {
	Name      string
	Transform func(row []string) (Record, error)
}

var (
	V4Table = Table{Name: "ipv4", Transform: FromV4Row}
	V6Table = Table{Name: "ipv6", Transform: FromV6Row}
)

// Stats summarizes what was emitted for one table.
type Stats struct {
	Table   string
	Rows    uint64
	Emitted uint64
	Skipped uint64
	// Addresses covered by the emitted ranges. Ranges whose bounds are not
	// parseable addresses are counted in Uncounted instead.
	Addresses uint128.Uint128
	Uncounted uint64
}

// Report is the outcome of one run, IPv4 table first.
type Report struct {
	V4 Stats
	V6 Stats
}

// Emitted is the number of lines written for both tables.
func (r Report) Emitted() uint64 {
	return r.V4.Emitted + r.V6.Emitted
}
