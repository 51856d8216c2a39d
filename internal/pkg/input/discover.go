//go:build linux

package input

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

const inputDir = "/dev/input"

// ListDevicePaths returns the event* character device nodes currently
// present under /dev/input, for populating the pool at startup.
func ListDevicePaths() ([]string, error) {
	entries, err := os.ReadDir(inputDir)
	if err != nil {
		return nil, fmt.Errorf("cannot list \"%s\": %w", inputDir, err)
	}

	var paths []string
	for _, entry := range entries {
		if !strings.HasPrefix(entry.Name(), "event") {
			continue
		}
		info, err := entry.Info()
		if err != nil {
			continue
		}
		if info.Mode()&os.ModeCharDevice == 0 {
			continue
		}
		paths = append(paths, filepath.Join(inputDir, entry.Name()))
	}
	return paths, nil
}
