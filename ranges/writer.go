package ranges

import "io"

const flushThreshold = 64 * 1024

// lineWriter batches records but only ever hands whole lines to w, so an
// interrupted run leaves a truncated yet line-wise valid output.
type lineWriter struct {
	w   io.Writer
	buf []byte
}

func newLineWriter(w io.Writer) *lineWriter {
	return &lineWriter{w: w, buf: make([]byte, 0, flushThreshold+256)}
}

func (lw *lineWriter) WriteRecord(r Record) error {
	lw.buf = r.AppendTo(lw.buf)
	if len(lw.buf) >= flushThreshold {
		return lw.Flush()
	}
	return nil
}

func (lw *lineWriter) Flush() error {
	if len(lw.buf) == 0 {
		return nil
	}
	_, err := lw.w.Write(lw.buf)
	lw.buf = lw.buf[:0]
	return err
}
