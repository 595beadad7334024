// Package wordlist loads candidate paths for a scan.
package wordlist

import (
	"bufio"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"golang.org/x/crypto/sha3"
)

// ErrWordListNotFound is returned when the word list file does not exist.
var ErrWordListNotFound = errors.New("word list not found")

// maxLineSize bounds a single word list line.
const maxLineSize = 1024 * 1024

// Load reads the word list at path.
func Load(path string) ([]string, error) {
	f, err := os.Open(path) //nolint:gosec // User-provided word list path is intentional
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%w: %s", ErrWordListNotFound, path)
		}
		return nil, fmt.Errorf("failed to open word list: %w", err)
	}
	defer f.Close()

	paths, err := Read(f)
	if err != nil {
		return nil, fmt.Errorf("failed to read word list %s: %w", path, err)
	}
	return paths, nil
}

// Read returns the non-blank lines of r with surrounding whitespace trimmed,
// in input order. Repeated lines are kept; each one is probed separately.
func Read(r io.Reader) ([]string, error) {
	paths := make([]string, 0)

	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), maxLineSize)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		paths = append(paths, line)
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}

	return paths, nil
}

// Fingerprint returns a SHA3-256 hex digest identifying an ordered path list.
// Two runs with the same fingerprint probed the same candidates.
func Fingerprint(paths []string) string {
	h := sha3.New256()
	for _, p := range paths {
		_, _ = io.WriteString(h, p)
		_, _ = h.Write([]byte{'\n'})
	}
	return hex.EncodeToString(h.Sum(nil))
}
