package common

import (
	"bytes"
	"fmt"
	"io"
	"os"
	"sync"

	"github.com/dargueta/fat12fs/errors"
)

// NewBytesSource wraps an in-memory image.
func NewBytesSource(image []byte) Source {
	return bytes.NewReader(image)
}

type fileSource struct {
	*os.File
	size int64
}

func (f fileSource) Size() int64 {
	return f.size
}

// NewFileSource wraps an open file. The size is captured once; the image is
// expected not to change while it's in use.
func NewFileSource(file *os.File) (Source, error) {
	info, err := file.Stat()
	if err != nil {
		return nil, errors.ErrIOFailed.Wrap(err)
	}
	if info.IsDir() {
		return nil, errors.ErrIsADirectory.WithMessage(file.Name())
	}
	return fileSource{File: file, size: info.Size()}, nil
}

// seekerSource adapts a stream that only supports Seek+Read. Each ReadAt does
// its seek and read under a lock, so callers see positioned-read semantics even
// though the underlying stream has a cursor.
type seekerSource struct {
	lock   sync.Mutex
	stream io.ReadSeeker
	size   int64
}

// NewSeekerSource adapts an [io.ReadSeeker] into a [Source]. If the stream
// already implements [io.ReaderAt] prefer passing it through
// [io.NewSectionReader] instead.
func NewSeekerSource(stream io.ReadSeeker) (Source, error) {
	size, err := stream.Seek(0, io.SeekEnd)
	if err != nil {
		return nil, errors.ErrIOFailed.Wrap(err)
	}
	return &seekerSource{stream: stream, size: size}, nil
}

func (s *seekerSource) Size() int64 {
	return s.size
}

func (s *seekerSource) ReadAt(buffer []byte, offset int64) (int, error) {
	if offset < 0 {
		return 0, errors.ErrInvalidArgument.WithMessage(
			fmt.Sprintf("negative read offset %d", offset))
	}
	if offset >= s.size {
		return 0, io.EOF
	}

	s.lock.Lock()
	defer s.lock.Unlock()

	_, err := s.stream.Seek(offset, io.SeekStart)
	if err != nil {
		return 0, err
	}

	nRead, err := io.ReadFull(s.stream, buffer)
	if err == io.ErrUnexpectedEOF {
		err = io.EOF
	}
	return nRead, err
}
