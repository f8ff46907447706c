package entities

import (
	"bufio"
	"fmt"
	"io"
	"strings"
)

// ReadRepositoryList parses one repository URL per line, ignoring blank lines
// and lines starting with '#'. Entries are canonicalized and duplicates are
// dropped, keeping the first occurrence.
func ReadRepositoryList(r io.Reader) ([]string, error) {
	var urls []string
	seen := make(map[string]bool)

	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		canonical := CanonicalURL(line)
		if seen[canonical] {
			continue
		}
		seen[canonical] = true
		urls = append(urls, canonical)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("%w: failed to read repository list: %w", ErrIO, err)
	}

	return urls, nil
}
