package storage

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
)

// ErrCorruptStore marks a backing file that exists but cannot be parsed.
// Corrupt stores are never silently repaired: the error propagates to the
// caller and surfaces as a server error.
var ErrCorruptStore = errors.New("corrupt store")

// ReadJSONFile reads and decodes a JSON file into v. A missing file returns
// os.ErrNotExist; an unparsable file returns ErrCorruptStore wrapped with the
// path and decode error.
func ReadJSONFile(path string, v any) error {
	raw, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	if err := json.Unmarshal(raw, v); err != nil {
		return fmt.Errorf("%w: %s: %v", ErrCorruptStore, filepath.Base(path), err)
	}
	return nil
}

// WriteJSONFile encodes v and replaces path atomically: the payload is
// written to a temp file in the same directory and renamed over the target,
// so concurrent readers never observe a partial write. The parent directory
// is created if absent.
func WriteJSONFile(path string, v any) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	raw, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	tmp, err := os.CreateTemp(filepath.Dir(path), "."+filepath.Base(path)+".tmp-*")
	if err != nil {
		return err
	}
	tmpName := tmp.Name()
	if _, err := tmp.Write(raw); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return err
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return err
	}
	if err := os.Rename(tmpName, path); err != nil {
		os.Remove(tmpName)
		return err
	}
	return nil
}
