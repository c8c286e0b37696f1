// Package testing has helpers for building and loading FAT12 images in tests.
package testing

import (
	"bytes"
	"crypto/rand"
	"encoding/binary"
	"io"
	"strings"
	"testing"
	"time"

	"github.com/dargueta/fat12fs/utilities/compression"
	"github.com/noxer/bytewriter"
	"github.com/stretchr/testify/require"
	"github.com/xaionaro-go/bytesextra"
)

// LoadDiskImage takes a compressed disk image and returns a stream to access the
// uncompressed data.
//
//   - Writes to the stream do not affect `compressedImageBytes`.
//   - While the stream can be written to, its size is fixed to `expectedSize`.
//     Attempting to write past the end of this buffer will trigger an error.
func LoadDiskImage(
	t testing.TB, compressedImageBytes []byte, expectedSize int,
) io.ReadWriteSeeker {
	require.Greater(t, len(compressedImageBytes), 0, "compressed image is empty")

	imageBytes, err := compression.DecompressToBytes(bytes.NewReader(compressedImageBytes))
	require.NoError(t, err)
	require.Equal(t, expectedSize, len(imageBytes), "uncompressed image is wrong size")
	return bytesextra.NewReadWriteSeeker(imageBytes)
}

// RandomBytes returns `size` random bytes. It is guaranteed to either return a
// valid slice or fail the test and abort.
func RandomBytes(t testing.TB, size int) []byte {
	data := make([]byte, size)
	_, err := rand.Read(data)
	require.NoErrorf(t, err, "failed to generate %d random bytes", size)
	return data
}

func padRight(text string, width int) string {
	if len(text) >= width {
		return text[:width]
	}
	return text + strings.Repeat(" ", width-len(text))
}

// EncodeDate packs a date the way FAT stores it.
func EncodeDate(ts time.Time) uint16 {
	return uint16(ts.Year()-1980)<<9 | uint16(ts.Month())<<5 | uint16(ts.Day())
}

// EncodeTime packs a time of day the way FAT stores it, rounding seconds down
// to an even number.
func EncodeTime(ts time.Time) uint16 {
	return uint16(ts.Hour())<<11 | uint16(ts.Minute())<<5 | uint16(ts.Second()/2)
}

// RawDirentBytes builds a 32-byte directory entry. `name` is split at the last
// dot into base name and extension, except for "." and ".." and volume labels,
// which are stored as is.
func RawDirentBytes(
	name string, attributes uint8, firstCluster uint16, size uint32, modified time.Time,
) []byte {
	var shortName string
	switch {
	case name == "." || name == "..":
		shortName = padRight(name, 11)
	case attributes&0x08 != 0:
		shortName = padRight(strings.ToUpper(name), 11)
	default:
		base, ext := strings.ToUpper(name), ""
		if dot := strings.LastIndexByte(base, '.'); dot > 0 {
			base, ext = base[:dot], base[dot+1:]
		}
		shortName = padRight(base, 8) + padRight(ext, 3)
	}

	type rawDirent struct {
		Name             [11]byte
		Attributes       uint8
		NTReserved       uint8
		CreatedTenths    uint8
		CreatedTime      uint16
		CreatedDate      uint16
		LastAccessedDate uint16
		FirstClusterHigh uint16
		LastModifiedTime uint16
		LastModifiedDate uint16
		FirstCluster     uint16
		Size             uint32
	}

	entry := rawDirent{
		Attributes:       attributes,
		CreatedTime:      EncodeTime(modified),
		CreatedDate:      EncodeDate(modified),
		LastAccessedDate: EncodeDate(modified),
		LastModifiedTime: EncodeTime(modified),
		LastModifiedDate: EncodeDate(modified),
		FirstCluster:     firstCluster,
		Size:             size,
	}
	copy(entry.Name[:], shortName)

	output := make([]byte, 32)
	err := binary.Write(bytewriter.New(output), binary.LittleEndian, &entry)
	if err != nil {
		// Can only happen if the struct above stops being 32 bytes.
		panic(err)
	}
	return output
}

// SetFATEntry stores a 12-bit value for `cluster` in a packed FAT buffer.
func SetFATEntry(table []byte, cluster uint16, value uint16) {
	offset := int(cluster/2) * 3
	value &= 0xFFF
	if cluster%2 == 0 {
		table[offset] = byte(value)
		table[offset+1] = (table[offset+1] & 0xF0) | byte(value>>8)
	} else {
		table[offset+1] = (table[offset+1] & 0x0F) | byte(value<<4)
		table[offset+2] = byte(value >> 4)
	}
}

// PatchFATEntry changes the FAT entry for `cluster` in every copy of the FAT
// in a built image.
func PatchFATEntry(image []byte, geometry Geometry, cluster uint16, value uint16) {
	fatSize := int(geometry.SectorsPerFAT) * int(geometry.BytesPerSector)
	for copyIndex := 0; copyIndex < int(geometry.FATCopies); copyIndex++ {
		offset := (int(geometry.FATStart()) + copyIndex*int(geometry.SectorsPerFAT)) *
			int(geometry.BytesPerSector)
		SetFATEntry(image[offset:offset+fatSize], cluster, value)
	}
}
