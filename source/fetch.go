// Package source downloads the zipped range tables and exposes the CSV file
// inside each archive as a stream of rows.
package source

import (
	"bytes"
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/cavaliergopher/grab/v3"
	"github.com/klauspost/compress/zip"
	"go.uber.org/zap"
)

var ErrEmptyArchive = errors.New("archive contains no file")

// FetchError reports a table that could not be downloaded or decoded.
type FetchError struct {
	Location string
	Err      error
}

func (e *FetchError) Error() string {
	return fmt.Sprintf("fetch %s: %v", e.Location, e.Err)
}

func (e *FetchError) Unwrap() error {
	return e.Err
}

type Options struct {
	// Timeout bounds each download; zero leaves it to the transport.
	Timeout   time.Duration
	UserAgent string
	Logger    *zap.Logger
}

// Fetcher retrieves range table archives. Remote locations are downloaded
// into memory, anything else is read from the local filesystem.
type Fetcher struct {
	client *grab.Client
	logger *zap.Logger
}

func NewFetcher(options Options) *Fetcher {
	client := grab.NewClient()
	client.HTTPClient = &http.Client{
		Timeout:   options.Timeout,
		Transport: http.DefaultTransport.(*http.Transport).Clone(),
	}
	if options.UserAgent != "" {
		client.UserAgent = options.UserAgent
	}
	logger := options.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Fetcher{client: client, logger: logger}
}

// Fetch downloads the archive at location and returns the rows of its file.
func (f *Fetcher) Fetch(ctx context.Context, location string) (*Rows, error) {
	data, err := f.download(ctx, location)
	if err != nil {
		return nil, &FetchError{Location: location, Err: err}
	}
	rows, err := Decode(location, data)
	if err != nil {
		return nil, err
	}
	f.logger.Info("Opened archive entry",
		zap.String("location", location),
		zap.String("entry", rows.Entry()),
	)
	return rows, nil
}

func (f *Fetcher) download(ctx context.Context, location string) ([]byte, error) {
	if !isRemote(location) {
		f.logger.Info("Reading local archive", zap.String("path", location))
		return os.ReadFile(location)
	}

	f.logger.Info("Started downloading", zap.String("url", location))
	req, err := grab.NewRequest("", location)
	if err != nil {
		return nil, err
	}
	req = req.WithContext(ctx)
	req.NoStore = true

	resp := f.client.Do(req)
	if err := resp.Err(); err != nil {
		return nil, err
	}
	data, err := resp.Bytes()
	if err != nil {
		return nil, err
	}
	f.logger.Info("Finished downloading",
		zap.String("url", location),
		zap.Int("bytes", len(data)),
		zap.Duration("duration", resp.Duration()),
	)
	return data, nil
}

func isRemote(location string) bool {
	return strings.HasPrefix(location, "http://") || strings.HasPrefix(location, "https://")
}

// Decode opens data as a zip archive and returns the rows of its first file.
// location only labels errors.
func Decode(location string, data []byte) (*Rows, error) {
	archive, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return nil, &FetchError{Location: location, Err: err}
	}
	for _, file := range archive.File {
		if file.FileInfo().IsDir() {
			continue
		}
		entry, err := file.Open()
		if err != nil {
			return nil, &FetchError{Location: location, Err: fmt.Errorf("open %s: %w", file.Name, err)}
		}
		return newRows(location, file.Name, entry), nil
	}
	return nil, &FetchError{Location: location, Err: ErrEmptyArchive}
}

// Rows reads comma separated rows from an archive entry. Rows may have any
// number of cells.
type Rows struct {
	location string
	entry    string
	reader   *csv.Reader
	closer   io.Closer
}

func newRows(location, entry string, rc io.ReadCloser) *Rows {
	reader := csv.NewReader(rc)
	reader.FieldsPerRecord = -1
	reader.LazyQuotes = true
	reader.ReuseRecord = true
	return &Rows{location: location, entry: entry, reader: reader, closer: rc}
}

// Entry is the name of the file inside the archive.
func (r *Rows) Entry() string {
	return r.entry
}

// Read returns the next row, or io.EOF once the file is exhausted. The
// returned slice is reused by the next call.
func (r *Rows) Read() ([]string, error) {
	row, err := r.reader.Read()
	if err == io.EOF {
		r.Close()
		return nil, io.EOF
	}
	if err != nil {
		return nil, &FetchError{Location: r.location, Err: fmt.Errorf("read %s: %w", r.entry, err)}
	}
	return row, nil
}

func (r *Rows) Close() error {
	if r.closer == nil {
		return nil
	}
	err := r.closer.Close()
	r.closer = nil
	return err
}
