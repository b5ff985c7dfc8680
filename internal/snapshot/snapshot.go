// Package snapshot persists landmark catalogs produced by the offline
// builder and loaded by the server at startup.
package snapshot

import (
	"bufio"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"chronoscope-go/internal/landmark"
)

// Load reads a snapshot written by either encoder. A missing file is
// reported with an error satisfying errors.Is(err, fs.ErrNotExist).
func Load(path string) (*landmark.Catalog, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open snapshot: %w", err)
	}
	defer file.Close()

	reader := bufio.NewReader(file)
	encoder := Sniff(reader)

	catalog, err := encoder.Decode(reader)
	if err != nil {
		return nil, err
	}

	slog.Info("Loaded landmark snapshot", "path", path, "format", encoder.Name(),
		"entries", catalog.Len(), "dim", catalog.Dim())
	return catalog, nil
}

// Save writes the catalog next to path and renames it into place so readers
// never observe a partial snapshot
func Save(path string, catalog *landmark.Catalog, encoder Encoder) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create snapshot dir: %w", err)
	}

	tmp, err := os.CreateTemp(dir, filepath.Base(path)+".tmp-*")
	if err != nil {
		return fmt.Errorf("failed to create temp snapshot: %w", err)
	}
	tmpName := tmp.Name()
	defer os.Remove(tmpName)

	writer := bufio.NewWriter(tmp)
	if err := encoder.Encode(writer, catalog); err != nil {
		tmp.Close()
		return fmt.Errorf("failed to encode snapshot: %w", err)
	}
	if err := writer.Flush(); err != nil {
		tmp.Close()
		return fmt.Errorf("failed to flush snapshot: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		return fmt.Errorf("failed to sync snapshot: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return err
	}

	if err := os.Rename(tmpName, path); err != nil {
		return fmt.Errorf("failed to move snapshot into place: %w", err)
	}

	slog.Info("Saved landmark snapshot", "path", path, "format", encoder.Name(),
		"entries", catalog.Len(), "dim", catalog.Dim())
	return nil
}
