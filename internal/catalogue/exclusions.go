package catalogue

import (
	"fmt"
	"os"
	"strings"
)

// LoadExclusions reads a newline-delimited file of dataset identifiers to
// suppress from discovery output. Blank lines are ignored.
func LoadExclusions(path string) (map[string]struct{}, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read exclusion list %s: %w", path, err)
	}
	excluded := map[string]struct{}{}
	for _, line := range strings.Split(string(data), "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		excluded[line] = struct{}{}
	}
	return excluded, nil
}
