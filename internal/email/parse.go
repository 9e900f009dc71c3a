package email

import (
	"bufio"
	"fmt"
	"io"
)

// ParseBatch reads a newline-delimited upload and returns the normalized
// valid addresses in encounter order plus the count of dropped lines
// (blank or malformed). Repeated identical addresses are kept: counters
// are per line, not per distinct identity.
func ParseBatch(r io.Reader) (valid []string, invalid int, err error) {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 64*1024), 1024*1024)

	for scanner.Scan() {
		normalized := Normalize(scanner.Text())
		if !IsValid(normalized) {
			invalid++
			continue
		}
		valid = append(valid, normalized)
	}
	if err := scanner.Err(); err != nil {
		return nil, 0, fmt.Errorf("failed to read upload: %w", err)
	}
	return valid, invalid, nil
}
