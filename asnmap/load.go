package asnmap

import (
	"bufio"
	"fmt"
	"io"
	"net/netip"
	"strconv"
	"strings"

	"go.uber.org/zap"
)

// Load reads "<low>,<high>,<asn>" lines, the format asnranges emits, into m.
// Blank lines are ignored.
func (m *Map) Load(r io.Reader, logger *zap.Logger) error {
	scanner := bufio.NewScanner(r)
	lines := 0
	for scanner.Scan() {
		lines++
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		parts := strings.Split(line, ",")
		if len(parts) < 3 {
			return fmt.Errorf("line %d: expected 3 values, got %d", lines, len(parts))
		}
		from, err := netip.ParseAddr(parts[0])
		if err != nil {
			return fmt.Errorf("line %d: %w", lines, err)
		}
		to, err := netip.ParseAddr(parts[1])
		if err != nil {
			return fmt.Errorf("line %d: %w", lines, err)
		}
		asn, err := strconv.ParseUint(parts[2], 10, 32)
		if err != nil {
			return fmt.Errorf("line %d: %w", lines, err)
		}
		if err := m.Add(from, to, uint32(asn)); err != nil {
			return fmt.Errorf("line %d: %w", lines, err)
		}
	}
	if err := scanner.Err(); err != nil {
		return err
	}
	if logger != nil {
		logger.Info("Read entries from ASN CSV", zap.Int("lines", lines), zap.Int("ranges", m.Len()))
	}
	return nil
}
