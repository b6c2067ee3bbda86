// Package discovery decides which changed files in a commit diff are worth
// examining. Ignore patterns come from a plain-text ignore file and from the
// project config, and are applied by a PathFilter.
package discovery

import (
	"bufio"
	"os"
	"strings"
	"unicode"
)

// DefaultIgnoreFile is the ignore file read from the working directory when
// no other path is configured.
const DefaultIgnoreFile = ".fileignore"

// LoadIgnoreFile reads one glob pattern per line from path. Blank lines and
// lines starting with "#" are skipped and trailing whitespace is stripped.
// A missing file is not an error and yields no patterns.
func LoadIgnoreFile(path string) ([]string, error) {
	f, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, err
	}
	defer f.Close() //nolint:errcheck // best-effort close on read-only file

	var patterns []string
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		line := strings.TrimRightFunc(scanner.Text(), unicode.IsSpace)
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		patterns = append(patterns, line)
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}

	return patterns, nil
}
