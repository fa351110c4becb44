package module

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/vmihailenco/msgpack/v5"
)

// Encode writes u as a msgpack container.
func (u *Unit) Encode(w io.Writer) error {
	enc := msgpack.NewEncoder(w)
	enc.UseCompactInts(true)
	return enc.Encode(u)
}

// Decode reads a unit written by Encode. Any decoding problem, including a
// truncated stream, is reported as ErrCorruptUnit.
func Decode(r io.Reader) (*Unit, error) {
	var u Unit
	dec := msgpack.NewDecoder(r)
	if err := dec.Decode(&u); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrCorruptUnit, err)
	}
	if u.Magic != Magic {
		return nil, fmt.Errorf("%w: bad magic %q", ErrCorruptUnit, u.Magic)
	}
	if u.Schema != Schema {
		return nil, fmt.Errorf("%w: schema %d, want %d", ErrCorruptUnit, u.Schema, Schema)
	}
	if err := u.Validate(); err != nil {
		return nil, err
	}
	return &u, nil
}

// FileName is the persisted file name of a unit.
func FileName(name string) string {
	return name + Ext
}

// Save writes u into dir. The file is written to a temporary name first and
// renamed into place, so readers see either the old or the new unit.
func Save(dir string, u *Unit) (err error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return err
	}
	f, err := os.CreateTemp(dir, "tmp-*")
	if err != nil {
		return err
	}
	defer func() {
		if err != nil {
			_ = f.Close()
			_ = os.Remove(f.Name())
		}
	}()
	bw := bufio.NewWriter(f)
	if err = u.Encode(bw); err != nil {
		return err
	}
	if err = bw.Flush(); err != nil {
		return err
	}
	if err = f.Close(); err != nil {
		return err
	}
	return os.Rename(f.Name(), filepath.Join(dir, FileName(u.Name)))
}

// Load reads the unit name from dir. A missing file reports ok=false.
func Load(dir, name string) (u *Unit, ok bool, err error) {
	return LoadFile(filepath.Join(dir, FileName(name)))
}

// LoadFile reads one persisted unit.
func LoadFile(path string) (u *Unit, ok bool, err error) {
	f, err := os.Open(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, false, nil
		}
		return nil, false, err
	}
	defer func() {
		if closeErr := f.Close(); closeErr != nil && err == nil {
			err = closeErr
		}
	}()
	u, err = Decode(bufio.NewReader(f))
	if err != nil {
		return nil, true, fmt.Errorf("%s: %w", path, err)
	}
	return u, true, nil
}
