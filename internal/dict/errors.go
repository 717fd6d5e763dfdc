package dict

import (
	"errors"
	"fmt"
)

// ErrEmptyExtraction marks a page that yielded no pronunciation fields.
var ErrEmptyExtraction = errors.New("no pronunciation fields extracted")

// StorageError wraps a persistence failure for a single word.
type StorageError struct {
	Op   string
	Word Word
	Err  error
}

func (e *StorageError) Error() string {
	if e.Word == "" {
		return fmt.Sprintf("storage %s: %v", e.Op, e.Err)
	}
	return fmt.Sprintf("storage %s %q: %v", e.Op, e.Word, e.Err)
}

func (e *StorageError) Unwrap() error {
	return e.Err
}
