package ranges

import (
	"context"
	"errors"
	"fmt"
	"io"

	"go.uber.org/zap"
)

// MalformedPolicy decides what happens to a row that fails to parse.
type MalformedPolicy string

const (
	// PolicyFail aborts the run on the first malformed row.
	PolicyFail MalformedPolicy = "fail"
	// PolicySkip logs the row, counts it as skipped and carries on.
	PolicySkip MalformedPolicy = "skip"
)

// RowReader yields the rows of one table; io.EOF marks its end.
// *csv.Reader satisfies it.
type RowReader interface {
	Read() ([]string, error)
}

// Opener turns a table location into a row stream.
type Opener interface {
	Open(ctx context.Context, location string) (RowReader, error)
}

type OpenerFunc func(ctx context.Context, location string) (RowReader, error)

func (f OpenerFunc) Open(ctx context.Context, location string) (RowReader, error) {
	return f(ctx, location)
}

type Options struct {
	V4Source string
	V6Source string
	Policy   MalformedPolicy
	Logger   *zap.Logger
}

// Builder fetches the IPv4 and IPv6 range tables and writes them out as one
// combined stream of normalized records, IPv4 table first.
type Builder struct {
	opener  Opener
	options Options
	logger  *zap.Logger
}

func NewBuilder(opener Opener, options Options) *Builder {
	if options.Policy == "" {
		options.Policy = PolicyFail
	}
	logger := options.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Builder{opener: opener, options: options, logger: logger}
}

// Run fetches both tables, then transforms and writes them to out.
// Both tables are fetched before anything is written, so a fetch failure
// produces no output at all.
func (b *Builder) Run(ctx context.Context, out io.Writer) (Report, error) {
	v4, err := b.opener.Open(ctx, b.options.V4Source)
	if err != nil {
		return Report{}, err
	}
	v6, err := b.opener.Open(ctx, b.options.V6Source)
	if err != nil {
		if closer, ok := v4.(io.Closer); ok {
			closer.Close()
		}
		return Report{}, err
	}
	return b.Emit(ctx, out, v4, v6)
}

// Emit writes the records of v4 followed by those of v6. Whatever was
// transformed before an error or cancellation of ctx is still flushed to out.
func (b *Builder) Emit(ctx context.Context, out io.Writer, v4, v6 RowReader) (Report, error) {
	w := newLineWriter(out)
	report := Report{V4: Stats{Table: V4Table.Name}, V6: Stats{Table: V6Table.Name}}

	b.logger.Info("Starting preprocessing data", zap.String("policy", string(b.options.Policy)))
	err := b.emitTable(ctx, w, V4Table, v4, &report.V4)
	if err == nil {
		err = b.emitTable(ctx, w, V6Table, v6, &report.V6)
	}
	if flushErr := w.Flush(); err == nil && flushErr != nil {
		err = fmt.Errorf("write output: %w", flushErr)
	}
	if err != nil {
		return report, err
	}

	b.logger.Info("Done preprocessing data",
		zap.Uint64("ipv4_records", report.V4.Emitted),
		zap.Uint64("ipv6_records", report.V6.Emitted),
		zap.Uint64("skipped", report.V4.Skipped+report.V6.Skipped),
		zap.Stringer("ipv4_addresses", report.V4.Addresses),
		zap.Stringer("ipv6_addresses", report.V6.Addresses),
		zap.Uint64("uncounted", report.V4.Uncounted+report.V6.Uncounted),
	)
	return report, nil
}

func (b *Builder) emitTable(ctx context.Context, w *lineWriter, table Table, rows RowReader, stats *Stats) error {
	for {
		if err := ctx.Err(); err != nil {
			return err
		}
		row, err := rows.Read()
		if errors.Is(err, io.EOF) {
			return nil
		}
		if err != nil {
			return err
		}
		stats.Rows++

		record, err := table.Transform(row)
		if err != nil {
			var parseErr *ParseError
			if errors.As(err, &parseErr) {
				parseErr.Table = table.Name
				parseErr.Row = stats.Rows
				if b.options.Policy == PolicySkip {
					stats.Skipped++
					b.logger.Warn("Skipping malformed row",
						zap.String("table", table.Name),
						zap.Uint64("row", stats.Rows),
						zap.Error(parseErr.Err),
						zap.String("cell", parseErr.Cell),
					)
					continue
				}
			}
			return err
		}

		if err := w.WriteRecord(record); err != nil {
			return fmt.Errorf("write output: %w", err)
		}
		stats.count(record)
	}
}
