// Package archive yields the named ROI buffers stored in a zip archive, a
// directory or a single .roi file, ready to be fed to roi.DecodeAll.
package archive

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"iter"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/klauspost/compress/zip"

	"github.com/ssargent/roiread/pkg/roi"
)

// DefaultMaxEntrySize bounds how much of a single entry is read.
const DefaultMaxEntrySize = 64 << 20

// ErrEntryTooLarge is reported for entries above the configured size limit.
var ErrEntryTooLarge = errors.New("entry too large")

var zipMagic = []byte("PK\x03\x04")

// Source yields ROI entries. Read errors for individual entries are yielded
// alongside the entry name; only opening the source itself can fail as a
// whole.
type Source interface {
	Entries() iter.Seq2[roi.Entry, error]
	Close() error
}

// Option configures a Source.
type Option func(*settings)

type settings struct {
	maxEntrySize int64
}

// WithMaxEntrySize overrides DefaultMaxEntrySize. Values below 1 are ignored.
func WithMaxEntrySize(n int64) Option {
	return func(s *settings) {
		if n > 0 {
			s.maxEntrySize = n
		}
	}
}

func newSettings(opts []Option) settings {
	s := settings{maxEntrySize: DefaultMaxEntrySize}
	for _, opt := range opts {
		opt(&s)
	}
	return s
}

// Open picks a source for path: a directory yields its .roi files, a file
// starting with the zip signature yields the archive entries, anything else
// is treated as a single ROI record.
func Open(path string, opts ...Option) (Source, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open %s: %w", path, err)
	}
	if info.IsDir() {
		return &dirSource{dir: path, settings: newSettings(opts)}, nil
	}

	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open %s: %w", path, err)
	}
	head := make([]byte, len(zipMagic))
	n, _ := io.ReadFull(f, head)
	if n == len(zipMagic) && bytes.Equal(head, zipMagic) {
		zs, err := newZipSource(f, info.Size(), opts)
		if err != nil {
			f.Close()
			return nil, fmt.Errorf("failed to read zip %s: %w", path, err)
		}
		zs.closer = f
		return zs, nil
	}
	f.Close()
	return &fileSource{path: path, settings: newSettings(opts)}, nil
}

// FromBytes wraps an in-memory upload, detecting zip archives by signature.
// Non-zip data is a single entry called name.
func FromBytes(name string, data []byte, opts ...Option) (Source, error) {
	if bytes.HasPrefix(data, zipMagic) {
		zs, err := newZipSource(bytes.NewReader(data), int64(len(data)), opts)
		if err != nil {
			return nil, fmt.Errorf("failed to read zip %s: %w", name, err)
		}
		return zs, nil
	}
	return &memSource{entry: roi.Entry{Name: name, Data: data}}, nil
}

// zipSource yields the files of a zip archive in directory order.
type zipSource struct {
	zr       *zip.Reader
	closer   io.Closer
	settings settings
}

func newZipSource(r io.ReaderAt, size int64, opts []Option) (*zipSource, error) {
	zr, err := zip.NewReader(r, size)
	if err != nil {
		return nil, err
	}
	return &zipSource{zr: zr, settings: newSettings(opts)}, nil
}

func (s *zipSource) Entries() iter.Seq2[roi.Entry, error] {
	return func(yield func(roi.Entry, error) bool) {
		for _, f := range s.zr.File {
			if f.FileInfo().IsDir() {
				continue
			}
			data, err := s.read(f)
			if !yield(roi.Entry{Name: f.Name, Data: data}, err) {
				return
			}
		}
	}
}

func (s *zipSource) read(f *zip.File) ([]byte, error) {
	if f.UncompressedSize64 > uint64(s.settings.maxEntrySize) {
		return nil, fmt.Errorf("%w: %d bytes", ErrEntryTooLarge, f.UncompressedSize64)
	}
	rc, err := f.Open()
	if err != nil {
		return nil, err
	}
	defer rc.Close()
	return readLimited(rc, s.settings.maxEntrySize)
}

func (s *zipSource) Close() error {
	if s.closer != nil {
		return s.closer.Close()
	}
	return nil
}

// dirSource yields the .roi files of a directory sorted by name.
type dirSource struct {
	dir      string
	settings settings
}

func (s *dirSource) Entries() iter.Seq2[roi.Entry, error] {
	return func(yield func(roi.Entry, error) bool) {
		entries, err := os.ReadDir(s.dir)
		if err != nil {
			yield(roi.Entry{Name: s.dir}, err)
			return
		}
		var names []string
		for _, e := range entries {
			if !e.IsDir() && strings.EqualFold(filepath.Ext(e.Name()), ".roi") {
				names = append(names, e.Name())
			}
		}
		sort.Strings(names)
		for _, name := range names {
			data, err := readFile(filepath.Join(s.dir, name), s.settings.maxEntrySize)
			if !yield(roi.Entry{Name: name, Data: data}, err) {
				return
			}
		}
	}
}

func (s *dirSource) Close() error { return nil }

// fileSource yields a single file.
type fileSource struct {
	path     string
	settings settings
}

func (s *fileSource) Entries() iter.Seq2[roi.Entry, error] {
	return func(yield func(roi.Entry, error) bool) {
		data, err := readFile(s.path, s.settings.maxEntrySize)
		yield(roi.Entry{Name: filepath.Base(s.path), Data: data}, err)
	}
}

func (s *fileSource) Close() error { return nil }

type memSource struct {
	entry roi.Entry
}

func (s *memSource) Entries() iter.Seq2[roi.Entry, error] {
	return func(yield func(roi.Entry, error) bool) {
		yield(s.entry, nil)
	}
}

func (s *memSource) Close() error { return nil }

func readFile(path string, limit int64) ([]byte, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return readLimited(f, limit)
}

func readLimited(r io.Reader, limit int64) ([]byte, error) {
	data, err := io.ReadAll(io.LimitReader(r, limit+1))
	if err != nil {
		return nil, err
	}
	if int64(len(data)) > limit {
		return nil, fmt.Errorf("%w: more than %d bytes", ErrEntryTooLarge, limit)
	}
	return data, nil
}
