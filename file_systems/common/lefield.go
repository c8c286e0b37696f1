package common

import (
	"fmt"

	"github.com/dargueta/fat12fs/errors"
)

// ReadUnsignedLE returns the unsigned integer stored least-significant byte
// first in buffer[offset:offset+width]. `width` must be 1, 2, or 4.
//
// Reading past either end of the buffer fails with [errors.ErrOutOfRange]
// rather than panicking.
func ReadUnsignedLE(buffer []byte, offset, width int) (uint32, error) {
	switch width {
	case 1, 2, 4:
	default:
		return 0, errors.ErrInvalidArgument.WithMessage(
			fmt.Sprintf("field width must be 1, 2, or 4 bytes, got %d", width))
	}

	if offset < 0 || offset > len(buffer)-width {
		return 0, errors.ErrOutOfRange.WithMessage(
			fmt.Sprintf(
				"can't read %d bytes at offset %d from a %d-byte buffer",
				width,
				offset,
				len(buffer),
			),
		)
	}

	value := uint32(0)
	for i := width - 1; i >= 0; i-- {
		value = (value << 8) | uint32(buffer[offset+i])
	}
	return value, nil
}
