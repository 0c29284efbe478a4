package ranges

import (
	"fmt"
	"strconv"
	"strings"
)

// V4ToV6 renders an IPv4 address, given as its 32-bit integer value, in the
// IPv4-compatible IPv6 form "::hhhh:hhhh". Both groups are always four
// lowercase hex digits, so 167837953 (10.1.1.1) becomes "::0a01:0101".
func V4ToV6(v uint32) string {
	return fmt.Sprintf("::%04x:%04x", v>>16, v&0xffff)
}

// ParseASN extracts the number from a cell such as "AS15169 Google LLC".
// Only the first space-delimited token is looked at; its two-character "AS"
// prefix (any case) is dropped and the rest must be a decimal 32-bit integer.
func ParseASN(cell string) (uint32, error) {
	token, _, _ := strings.Cut(cell, " ")
	if len(token) < 3 || !strings.EqualFold(token[:2], "AS") {
		return 0, &ParseError{Cell: cell, Err: ErrMalformedASN}
	}
	asn, err := strconv.ParseUint(token[2:], 10, 32)
	if err != nil {
		return 0, &ParseError{Cell: cell, Err: err}
	}
	return uint32(asn), nil
}

func parseV4Int(cell string) (uint32, error) {
	v, err := strconv.ParseUint(cell, 10, 32)
	if err != nil {
		return 0, &ParseError{Cell: cell, Err: err}
	}
	return uint32(v), nil
}

// FromV4Row normalizes a row of the IPv4 table:
// [low as integer, high as integer, "AS<n> <name>", ...].
func FromV4Row(row []string) (Record, error) {
	if len(row) < 3 {
		return Record{}, &ParseError{Cell: strings.Join(row, ","), Err: ErrMissingColumn}
	}
	low, err := parseV4Int(row[0])
	if err != nil {
		return Record{}, err
	}
	high, err := parseV4Int(row[1])
	if err != nil {
		return Record{}, err
	}
	asn, err := ParseASN(row[2])
	if err != nil {
		return Record{}, err
	}
	return Record{Low: V4ToV6(low), High: V4ToV6(high), ASN: asn}, nil
}

// FromV6Row normalizes a row of the IPv6 table:
// ["AS<n> <name>", low literal, high literal, ...].
// The address literals are passed through untouched.
func FromV6Row(row []string) (Record, error) {
	if len(row) < 3 {
		return Record{}, &ParseError{Cell: strings.Join(row, ","), Err: ErrMissingColumn}
	}
	asn, err := ParseASN(row[0])
	if err != nil {
		return Record{}, err
	}
	return Record{Low: row[1], High: row[2], ASN: asn}, nil
}
