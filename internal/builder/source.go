package builder

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"
)

var imageExtensions = map[string]bool{
	".jpg": true, ".jpeg": true, ".png": true, ".gif": true, ".webp": true,
}

// ReadManifest parses "path,landmark" rows. A first row of exactly
// "path,landmark" is treated as a header. Relative paths are resolved
// against baseDir.
func ReadManifest(r io.Reader, baseDir string) ([]Item, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = 2
	reader.TrimLeadingSpace = true
	reader.Comment = '#'

	var items []Item
	for line := 1; ; line++ {
		record, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("manifest: %w", err)
		}

		path, name := strings.TrimSpace(record[0]), strings.TrimSpace(record[1])
		if line == 1 && strings.EqualFold(path, "path") && strings.EqualFold(name, "landmark") {
			continue
		}
		if path == "" || name == "" {
			return nil, fmt.Errorf("manifest: empty field on record %d", line)
		}
		if !filepath.IsAbs(path) {
			path = filepath.Join(baseDir, path)
		}
		items = append(items, Item{Path: path, Landmark: name})
	}
	return items, nil
}

// ReadManifestFile opens a manifest and resolves paths relative to it
func ReadManifestFile(path string) ([]Item, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer file.Close()
	return ReadManifest(file, filepath.Dir(path))
}

// ScanDir collects root/<Landmark Name>/<image> files, sorted by landmark
// then file name so repeated builds produce the same catalog order
func ScanDir(root string) ([]Item, error) {
	landmarks, err := os.ReadDir(root)
	if err != nil {
		return nil, err
	}

	var items []Item
	for _, dir := range landmarks {
		if !dir.IsDir() {
			continue
		}
		files, err := os.ReadDir(filepath.Join(root, dir.Name()))
		if err != nil {
			return nil, err
		}
		for _, f := range files {
			if f.IsDir() || !imageExtensions[strings.ToLower(filepath.Ext(f.Name()))] {
				continue
			}
			items = append(items, Item{
				Path:     filepath.Join(root, dir.Name(), f.Name()),
				Landmark: dir.Name(),
			})
		}
	}

	sort.SliceStable(items, func(i, j int) bool {
		if items[i].Landmark != items[j].Landmark {
			return items[i].Landmark < items[j].Landmark
		}
		return items[i].Path < items[j].Path
	})
	return items, nil
}
