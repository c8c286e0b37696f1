// Package common contains definitions of fundamental types and functions used
// across multiple file system implementations.
package common

import (
	"io"
)

//go:generate mockgen -source=types.go -destination=source_mock.go -package common

// Source is the storage a volume is read from: anything that supports
// positioned reads and knows its own size. [bytes.Reader], [io.SectionReader],
// and the sources returned by [NewFileSource] and [NewSeekerSource] all
// satisfy it.
//
// Implementations must be safe for concurrent ReadAt calls. Nothing in this
// module ever relies on a stream position.
type Source interface {
	io.ReaderAt
	// Size returns the total number of bytes available from the source.
	Size() int64
}
