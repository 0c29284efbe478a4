package asnmap

import (
	"net/netip"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func mustAdd(t *testing.T, m *Map, from, to string, asn uint32) {
	t.Helper()
	require.NoError(t, m.Add(netip.MustParseAddr(from), netip.MustParseAddr(to), asn))
}

func TestMapLookup(t *testing.T) {
	var m Map
	mustAdd(t, &m, "::0a00:0000", "::0a00:01ff", 15169)
	mustAdd(t, &m, "::0100:0000", "::0100:00ff", 13335)
	mustAdd(t, &m, "2001:db8::1", "2001:db8::ffff", 64512)
	require.Equal(t, 3, m.Len())

	tests := []struct {
		name     string
		addr     string
		expected uint32
	}{
		{"ipv4 lower bound", "10.0.0.0", 15169},
		{"ipv4 upper bound", "10.0.1.255", 15169},
		{"ipv4 inside", "10.0.0.42", 15169},
		{"ipv4 after range", "10.0.2.0", NoASN},
		{"ipv4 compatible form", "::a00:1", 15169},
		{"other ipv4 range", "1.0.0.1", 13335},
		{"gap", "5.5.5.5", NoASN},
		{"ipv6 lower bound", "2001:db8::1", 64512},
		{"ipv6 upper bound", "2001:db8::ffff", 64512},
		{"ipv6 below range", "2001:db8::", NoASN},
		{"ipv6 above everything", "2001:db9::", NoASN},
		{"zoned", "2001:db8::2%eth0", 64512},
		{"ipv4 mapped is not ipv4 compatible", "::ffff:10.0.0.1", NoASN},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, m.ASN(netip.MustParseAddr(tt.addr)))
		})
	}
}

func TestMapAddRejects(t *testing.T) {
	var m Map
	mustAdd(t, &m, "2001:db8::100", "2001:db8::1ff", 1)

	tests := []struct {
		name string
		from string
		to   string
		asn  uint32
		err  error
	}{
		{"reversed", "2001:db8::2", "2001:db8::1", 2, ErrInvalidRange},
		{"zero asn", "2001:db8::1", "2001:db8::2", NoASN, ErrNoASN},
		{"overlaps start", "2001:db8::", "2001:db8::100", 2, ErrOverlap},
		{"overlaps end", "2001:db8::1ff", "2001:db8::2ff", 2, ErrOverlap},
		{"contains", "2001:db8::", "2001:db8::ffff", 2, ErrOverlap},
		{"inside", "2001:db8::150", "2001:db8::160", 2, ErrOverlap},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := m.Add(netip.MustParseAddr(tt.from), netip.MustParseAddr(tt.to), tt.asn)
			assert.ErrorIs(t, err, tt.err)
		})
	}
	assert.Equal(t, 1, m.Len())

	mustAdd(t, &m, "2001:db8::200", "2001:db8::2ff", 2)
	mustAdd(t, &m, "2001:db8::", "2001:db8::ff", 3)
	assert.Equal(t, uint32(3), m.ASN(netip.MustParseAddr("2001:db8::ff")))
	assert.Equal(t, uint32(1), m.ASN(netip.MustParseAddr("2001:db8::100")))
	assert.Equal(t, uint32(2), m.ASN(netip.MustParseAddr("2001:db8::200")))

	m.Clear()
	assert.Equal(t, 0, m.Len())
	assert.Equal(t, NoASN, m.ASN(netip.MustParseAddr("2001:db8::100")))
}

func TestLoad(t *testing.T) {
	data := "::0a00:0000,::0a00:01ff,15169\n" +
		"\n" +
		"2001:db8::1,2001:db8::ffff,64512\n"

	var m Map
	require.NoError(t, m.Load(strings.NewReader(data), nil))
	assert.Equal(t, 2, m.Len())
	assert.Equal(t, uint32(15169), m.ASN(netip.MustParseAddr("10.0.1.1")))
	assert.Equal(t, uint32(64512), m.ASN(netip.MustParseAddr("2001:db8::abcd")))
}

func TestLoadErrors(t *testing.T) {
	tests := []struct {
		name string
		data string
		msg  string
	}{
		{"missing column", "::1,::2\n", "line 1: expected 3 values, got 2"},
		{"bad address", "::1,::2,1\nnope,::4,2\n", "line 2:"},
		{"bad asn", "::1,::2,AS1\n", "line 1:"},
		{"overlap", "::1,::5,1\n::3,::9,2\n", "line 2: range overlaps"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var m Map
			err := m.Load(strings.NewReader(tt.data), nil)
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.msg)
		})
	}
}
