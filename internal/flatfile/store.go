package flatfile

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/afero"
)

var ErrFileNotFound = errors.New("export file not found")

// Store keeps one file per format inside a single directory
type Store struct {
	fs  afero.Fs
	dir string
}

// NewStore returns a Store rooted at dir, creating the directory if needed
func NewStore(fs afero.Fs, dir string) (*Store, error) {
	if err := fs.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create data directory: %w", err)
	}
	return &Store{fs: fs, dir: dir}, nil
}

// Path returns the file location for a format
func (s *Store) Path(format Format) string {
	return filepath.Join(s.dir, format.Filename())
}

// Save replaces the file for format with records. The file is written
// next to its destination and renamed so readers never see a partial file.
func (s *Store) Save(format Format, records []Record) error {
	var buf bytes.Buffer
	if err := Encode(&buf, format, records); err != nil {
		return fmt.Errorf("failed to encode %s: %w", format, err)
	}

	tmp, err := afero.TempFile(s.fs, s.dir, format.Filename()+".*.tmp")
	if err != nil {
		return fmt.Errorf("failed to create temp file: %w", err)
	}
	tmpName := tmp.Name()

	if _, err := tmp.Write(buf.Bytes()); err != nil {
		tmp.Close()
		s.fs.Remove(tmpName)
		return fmt.Errorf("failed to write %s: %w", format, err)
	}
	if err := tmp.Close(); err != nil {
		s.fs.Remove(tmpName)
		return fmt.Errorf("failed to close %s: %w", format, err)
	}
	if err := s.fs.Rename(tmpName, s.Path(format)); err != nil {
		s.fs.Remove(tmpName)
		return fmt.Errorf("failed to replace %s: %w", format, err)
	}

	return nil
}

// Load decodes the file for format. A missing file is an empty list.
func (s *Store) Load(format Format) ([]Record, error) {
	f, err := s.fs.Open(s.Path(format))
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return []Record{}, nil
		}
		return nil, fmt.Errorf("failed to open %s: %w", format, err)
	}
	defer f.Close()

	records, err := Decode(f, format)
	if err != nil {
		return nil, fmt.Errorf("failed to decode %s: %w", format, err)
	}
	return records, nil
}

// Raw returns the file content unparsed
func (s *Store) Raw(format Format) (string, error) {
	data, err := afero.ReadFile(s.fs, s.Path(format))
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return "", ErrFileNotFound
		}
		return "", fmt.Errorf("failed to read %s: %w", format, err)
	}
	return string(data), nil
}
