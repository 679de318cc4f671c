package status

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// ScanAddons lists files in dir whose name ends in ext, in filename order.
// Symlinks are followed; subdirectories and entries that cannot be stat'ed
// are skipped. An empty directory yields an empty, non-nil slice.
func ScanAddons(dir, ext string) ([]Addon, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("reading addon dir: %w", err)
	}

	addons := make([]Addon, 0, len(entries))
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), ext) {
			continue
		}
		info, err := os.Stat(filepath.Join(dir, entry.Name()))
		if err != nil || !info.Mode().IsRegular() {
			continue
		}
		addons = append(addons, Addon{
			Name: strings.TrimSuffix(entry.Name(), ext),
			Size: FormatBytes(info.Size()),
		})
	}
	return addons, nil
}
