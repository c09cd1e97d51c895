package cmd

import (
	"bufio"
	"encoding/hex"
	"fmt"
	"os"
	"strings"
)

// readBlobFile reads one hex encoded blob per line. Empty lines and lines
// starting with # are skipped.
func readBlobFile(path string) ([][]byte, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("could not open blob file: %w", err)
	}
	defer file.Close()

	var blobs [][]byte
	scanner := bufio.NewScanner(file)
	line := 0
	for scanner.Scan() {
		line++
		text := strings.TrimSpace(scanner.Text())
		if text == "" || strings.HasPrefix(text, "#") {
			continue
		}
		blob, err := hex.DecodeString(text)
		if err != nil {
			return nil, fmt.Errorf("invalid blob on line %d of %s: %w", line, path, err)
		}
		blobs = append(blobs, blob)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("could not read blob file: %w", err)
	}
	return blobs, nil
}
