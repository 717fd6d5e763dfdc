// Package wordsource loads candidate words from a newline-delimited file.
package wordsource

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"strings"
)

// File reads one word per line.
type File struct {
	path string
}

// NewFile returns a WordSource reading path.
func NewFile(path string) *File {
	return &File{path: path}
}

// Path returns the file the source reads.
func (f *File) Path() string {
	return f.path
}

// LoadAll returns every line of the file with line endings removed. Lines are
// not trimmed or filtered here.
func (f *File) LoadAll(ctx context.Context) ([]string, error) {
	fh, err := os.Open(f.path)
	if err != nil {
		return nil, fmt.Errorf("open word list: %w", err)
	}
	defer fh.Close()

	var lines []string
	scanner := bufio.NewScanner(fh)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for scanner.Scan() {
		if err := ctx.Err(); err != nil {
			return nil, fmt.Errorf("load word list: %w", err)
		}
		lines = append(lines, strings.TrimSuffix(scanner.Text(), "\r"))
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("read word list: %w", err)
	}
	return lines, nil
}
