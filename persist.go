package bloomr

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
)

// ErrIO is returned when a filter file cannot be created, written, opened
// or read. Decoding failures are reported as ErrInvalidData instead.
var ErrIO = errors.New("bloomr: i/o failure")

// Save writes the serialized filter to path, creating or truncating it.
// A failed Save may leave a partially written file behind; use SaveAtomic
// when that matters.
func (f *Filter) Save(path string) error {
	buf, err := f.MarshalBinary()
	if err != nil {
		return err
	}
	if err := os.WriteFile(path, buf, 0o644); err != nil {
		return fmt.Errorf("%w: save %s: %w", ErrIO, path, err)
	}
	return nil
}

// SaveAtomic writes the serialized filter to a temporary file next to path
// and renames it into place, so readers see either the old or the new
// filter and never a torn write.
func (f *Filter) SaveAtomic(path string) (err error) {
	buf, err := f.MarshalBinary()
	if err != nil {
		return err
	}

	tmp, err := os.CreateTemp(filepath.Dir(path), "."+filepath.Base(path)+".tmp-*")
	if err != nil {
		return fmt.Errorf("%w: save %s: %w", ErrIO, path, err)
	}
	defer func() {
		if err != nil {
			tmp.Close()
			os.Remove(tmp.Name())
		}
	}()

	if _, err = tmp.Write(buf); err != nil {
		return fmt.Errorf("%w: save %s: %w", ErrIO, path, err)
	}
	if err = tmp.Sync(); err != nil {
		return fmt.Errorf("%w: save %s: %w", ErrIO, path, err)
	}
	if err = tmp.Close(); err != nil {
		return fmt.Errorf("%w: save %s: %w", ErrIO, path, err)
	}
	if err = os.Chmod(tmp.Name(), 0o644); err != nil {
		return fmt.Errorf("%w: save %s: %w", ErrIO, path, err)
	}
	if err = os.Rename(tmp.Name(), path); err != nil {
		return fmt.Errorf("%w: save %s: %w", ErrIO, path, err)
	}
	return nil
}

// Load reads a filter previously written by Save or SaveAtomic.
func Load(path string) (*Filter, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("%w: load %s: %w", ErrIO, path, err)
	}
	f, err := UnmarshalBinary(data)
	if err != nil {
		return nil, fmt.Errorf("load %s: %w", path, err)
	}
	return f, nil
}
