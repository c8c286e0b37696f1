package compression

import (
	"bytes"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/dargueta/fat12fs/errors"
	"github.com/dargueta/fat12fs/file_systems/common"
)

// Image is a disk image opened by [OpenImage]. It implements [common.Source]
// and [io.Closer].
type Image struct {
	common.Source
	file   *os.File
	format Format
	rle    bool
}

// Format returns the compression format the image was stored in.
func (img *Image) Format() Format {
	return img.format
}

// RunLengthEncoded reports whether the image was RLE8-encoded.
func (img *Image) RunLengthEncoded() bool {
	return img.rle
}

// Close releases the underlying file, if any.
func (img *Image) Close() error {
	if img.file == nil {
		return nil
	}
	err := img.file.Close()
	img.file = nil
	return err
}

// compressionSuffixes are stripped from a file name before checking for ".rle".
var compressionSuffixes = []string{".gz", ".zst", ".zstd", ".xz"}

func isRunLengthEncoded(path string) bool {
	name := strings.ToLower(filepath.Base(path))
	for _, suffix := range compressionSuffixes {
		if strings.HasSuffix(name, suffix) {
			name = strings.TrimSuffix(name, suffix)
			break
		}
	}
	return strings.HasSuffix(name, ".rle")
}

// OpenImage opens a disk image file. Compressed and run-length encoded images
// are expanded into memory; raw images are read from the file on demand.
func OpenImage(path string) (*Image, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, errors.FromHostError(err)
	}

	header := make([]byte, magicLength)
	n, err := file.ReadAt(header, 0)
	if err != nil && err != io.EOF {
		file.Close()
		return nil, errors.ErrIOFailed.Wrap(err)
	}

	format := DetectFormat(header[:n])
	rle := isRunLengthEncoded(path)

	if format == FormatRaw && !rle {
		source, err := common.NewFileSource(file)
		if err != nil {
			file.Close()
			return nil, err
		}
		return &Image{Source: source, file: file, format: format}, nil
	}

	defer file.Close()

	var data []byte
	if rle {
		var expanded bytes.Buffer
		_, err = DecompressImage(file, &expanded)
		data = expanded.Bytes()
	} else {
		data, err = DecompressToBytes(file)
	}
	if err != nil {
		return nil, errors.ErrInvalidFormat.Wrap(err)
	}

	return &Image{
		Source: common.NewBytesSource(data),
		format: format,
		rle:    rle,
	}, nil
}
