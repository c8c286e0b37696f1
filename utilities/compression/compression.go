package compression

import (
	"bufio"
	"bytes"
	"fmt"
	"io"

	"github.com/klauspost/compress/gzip"
	"github.com/klauspost/compress/zstd"
	"github.com/ulikunitz/xz"
)

// Format identifies how an image is compressed.
type Format int

const (
	// FormatRaw is an uncompressed image.
	FormatRaw Format = iota
	FormatGzip
	FormatZstd
	FormatXZ
)

func (f Format) String() string {
	switch f {
	case FormatRaw:
		return "raw"
	case FormatGzip:
		return "gzip"
	case FormatZstd:
		return "zstd"
	case FormatXZ:
		return "xz"
	default:
		return fmt.Sprintf("Format(%d)", int(f))
	}
}

var (
	gzipMagic = []byte{0x1F, 0x8B}
	zstdMagic = []byte{0x28, 0xB5, 0x2F, 0xFD}
	xzMagic   = []byte{0xFD, '7', 'z', 'X', 'Z', 0x00}
)

// magicLength is the most bytes DetectFormat needs to see.
const magicLength = 6

// DetectFormat identifies the compression format from the first few bytes of
// a stream. Anything unrecognized is assumed to be a raw image.
func DetectFormat(header []byte) Format {
	switch {
	case bytes.HasPrefix(header, gzipMagic):
		return FormatGzip
	case bytes.HasPrefix(header, zstdMagic):
		return FormatZstd
	case bytes.HasPrefix(header, xzMagic):
		return FormatXZ
	default:
		return FormatRaw
	}
}

// Decompress detects the compression format of `input` and returns a reader
// for the decompressed data. Raw input is passed through unchanged.
func Decompress(input io.Reader) (io.ReadCloser, Format, error) {
	buffered := bufio.NewReader(input)
	header, err := buffered.Peek(magicLength)
	if err != nil && err != io.EOF {
		return nil, FormatRaw, err
	}

	format := DetectFormat(header)
	switch format {
	case FormatGzip:
		reader, err := gzip.NewReader(buffered)
		return reader, format, err
	case FormatZstd:
		decoder, err := zstd.NewReader(buffered)
		if err != nil {
			return nil, format, err
		}
		return decoder.IOReadCloser(), format, nil
	case FormatXZ:
		reader, err := xz.NewReader(buffered)
		return io.NopCloser(reader), format, err
	default:
		return io.NopCloser(buffered), format, nil
	}
}

// DecompressToBytes decompresses an entire stream into memory.
func DecompressToBytes(input io.Reader) ([]byte, error) {
	reader, _, err := Decompress(input)
	if err != nil {
		return nil, err
	}
	defer reader.Close()
	return io.ReadAll(reader)
}

type nopWriteCloser struct {
	io.Writer
}

func (nopWriteCloser) Close() error { return nil }

// newCompressor wraps `output` in a compressor for `format`. Closing it
// flushes the compressed stream but leaves `output` open.
func newCompressor(format Format, output io.Writer) (io.WriteCloser, error) {
	switch format {
	case FormatRaw:
		return nopWriteCloser{output}, nil
	case FormatGzip:
		// The disk images aren't that huge so we won't notice much of a
		// speed difference between the default and highest levels.
		return gzip.NewWriterLevel(output, gzip.BestCompression)
	case FormatZstd:
		return zstd.NewWriter(
			output,
			zstd.WithEncoderLevel(zstd.SpeedBestCompression),
			// Without this an empty image compresses to nothing at all, which
			// would then be detected as a raw image.
			zstd.WithZeroFrames(true),
		)
	case FormatXZ:
		return xz.NewWriter(output)
	default:
		return nil, fmt.Errorf("unsupported compression format %s", format)
	}
}

// Compress writes `input` to `output` compressed with `format`.
func Compress(format Format, input io.Reader, output io.Writer) (int64, error) {
	compressor, err := newCompressor(format, output)
	if err != nil {
		return 0, err
	}

	n, err := io.Copy(compressor, input)
	if err != nil {
		compressor.Close()
		return n, err
	}
	return n, compressor.Close()
}

// CompressImage compresses a disk image using RLE8 and gzip, the format of
// ".img.rle.gz" files.
//
// The returned int64 gives the number of uncompressed RLE8 bytes produced. If
// an error occurred, the value is undefined and should not be used.
func CompressImage(input io.Reader, output io.Writer) (int64, error) {
	compressor, err := newCompressor(FormatGzip, output)
	if err != nil {
		return 0, err
	}

	n, err := CompressRLE8(input, compressor)
	if err != nil {
		compressor.Close()
		return n, err
	}
	return n, compressor.Close()
}

// DecompressImage takes a gzipped, RLE8-encoded disk image and decompresses it
// to the original raw bytes.
//
// The returned int64 gives the number of bytes written to the output (i.e. the
// decompressed size of the image). If an error occurred, the value is undefined
// and should not be used.
func DecompressImage(input io.Reader, output io.Writer) (int64, error) {
	reader, _, err := Decompress(input)
	if err != nil {
		return 0, err
	}
	defer reader.Close()
	return DecompressRLE8(reader, output)
}
