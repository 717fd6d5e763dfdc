// Package storage holds what the blob store backends share.
package storage

import "errors"

// ErrInvalidPath marks an object path no backend will ever accept, such as
// an empty path or one escaping the store root. Retrying cannot help.
var ErrInvalidPath = errors.New("invalid object path")
