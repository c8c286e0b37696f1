package compression

import (
	"bufio"
	"bytes"
	"fmt"
	"io"
)

// byteRun is a single run of one byte value.
type byteRun struct {
	value byte
	// length is the number of times the byte occurs in the run, always at
	// least 1 for a valid run.
	length int
}

// nextRun reads the longest run of identical bytes at the start of `rd`. It
// returns io.EOF only if no bytes were left at all.
func nextRun(rd *bufio.Reader) (byteRun, error) {
	firstByte, err := rd.ReadByte()
	if err != nil {
		return byteRun{}, err
	}

	run := byteRun{value: firstByte, length: 1}
	for {
		currentByte, err := rd.ReadByte()
		if err == io.EOF {
			return run, nil
		} else if err != nil {
			return byteRun{}, err
		}
		if currentByte != firstByte {
			err = rd.UnreadByte()
			return run, err
		}
		run.length++
	}
}

// CompressRLE8 reads bytes from the input and writes compressed data to the
// output until the input is exhausted. The return value is the number of bytes
// written, only valid if no error occurred.
func CompressRLE8(input io.Reader, output io.Writer) (int64, error) {
	source := bufio.NewReader(input)
	totalBytesWritten := int64(0)

	write := func(chunk []byte) error {
		n, err := output.Write(chunk)
		totalBytesWritten += int64(n)
		return err
	}

	for {
		run, err := nextRun(source)
		if err == io.EOF {
			return totalBytesWritten, nil
		} else if err != nil {
			return totalBytesWritten, err
		}

		for run.length >= 2 {
			extra := run.length - 2
			if extra > 255 {
				extra = 255
			}
			err = write([]byte{run.value, run.value, byte(extra)})
			if err != nil {
				return totalBytesWritten, err
			}
			run.length -= extra + 2
		}

		if run.length == 1 {
			err = write([]byte{run.value})
			if err != nil {
				return totalBytesWritten, err
			}
		}
	}
}

// DecompressRLE8 expands RLE8 data from `input` into `output` and returns the
// number of bytes written.
func DecompressRLE8(input io.Reader, output io.Writer) (int64, error) {
	source := bufio.NewReader(input)
	previous := -1
	totalBytesWritten := int64(0)

	for {
		currentByte, err := source.ReadByte()
		if err == io.EOF {
			return totalBytesWritten, nil
		} else if err != nil {
			return totalBytesWritten, fmt.Errorf("error reading input: %w", err)
		}

		var chunk []byte
		if int(currentByte) == previous {
			extra, err := source.ReadByte()
			if err != nil {
				if err == io.EOF {
					err = fmt.Errorf(
						"%w: missing repeat count after two %02x bytes",
						io.ErrUnexpectedEOF,
						currentByte)
				}
				return totalBytesWritten, err
			}

			// The first of the pair was already written on the last pass.
			chunk = bytes.Repeat([]byte{currentByte}, int(extra)+1)
			// A run of 258+ bytes starts a fresh pair, so the next byte
			// can't be treated as a continuation of this one.
			previous = -1
		} else {
			previous = int(currentByte)
			chunk = []byte{currentByte}
		}

		n, err := output.Write(chunk)
		totalBytesWritten += int64(n)
		if err != nil {
			return totalBytesWritten, fmt.Errorf("failed to write to output: %w", err)
		}
	}
}
