package fat12

import (
	"io/fs"
	"strings"
	"time"

	"github.com/dargueta/fat12fs/errors"
	"github.com/dargueta/fat12fs/file_systems/common"
	"golang.org/x/text/encoding/charmap"
)

// RawDirent is the on-disk representation of a directory entry, broken down into its
// constituent fields.
type RawDirent struct {
	Name              [8]byte
	Extension         [3]byte
	AttributeFlags    uint8
	NTReserved        uint8
	CreatedTimeTenths uint8
	CreatedTime       uint16
	CreatedDate       uint16
	LastAccessedDate  uint16
	FirstClusterHigh  uint16
	LastModifiedTime  uint16
	LastModifiedDate  uint16
	FirstCluster      uint16
	FileSize          uint32
}

// DirentStatus says how a directory scan should treat a raw entry.
type DirentStatus int

const (
	// DirentValid is an entry in use.
	DirentValid DirentStatus = iota
	// DirentDeleted is a deleted entry that must be skipped.
	DirentDeleted
	// DirentEnd marks the end of the directory. It and every entry after it
	// are unused.
	DirentEnd
)

const (
	markerEndOfDirectory = 0x00
	markerDeleted        = 0xE5
	// markerEscapedE5 stands in for a name that really does begin with 0xE5.
	markerEscapedE5 = 0x05
)

// ClassifyRawDirent looks at the first byte of a raw directory entry. Empty
// input is treated as the end of the directory.
func ClassifyRawDirent(data []byte) DirentStatus {
	if len(data) == 0 {
		return DirentEnd
	}
	switch data[0] {
	case markerEndOfDirectory:
		return DirentEnd
	case markerDeleted:
		return DirentDeleted
	default:
		return DirentValid
	}
}

// NewRawDirentFromBytes splits 32 bytes into the fields of a directory entry.
func NewRawDirentFromBytes(data []byte) (RawDirent, error) {
	if len(data) < DirentSize {
		return RawDirent{}, errors.ErrOutOfRange.WithMessage(
			"directory entry must be 32 bytes")
	}

	read := func(offset, width int) uint32 {
		// The length check above guarantees every read is in bounds.
		value, _ := common.ReadUnsignedLE(data, offset, width)
		return value
	}

	dirent := RawDirent{
		AttributeFlags:    data[11],
		NTReserved:        data[12],
		CreatedTimeTenths: data[13],
		CreatedTime:       uint16(read(14, 2)),
		CreatedDate:       uint16(read(16, 2)),
		LastAccessedDate:  uint16(read(18, 2)),
		FirstClusterHigh:  uint16(read(20, 2)),
		LastModifiedTime:  uint16(read(22, 2)),
		LastModifiedDate:  uint16(read(24, 2)),
		FirstCluster:      uint16(read(26, 2)),
		FileSize:          read(28, 4),
	}
	copy(dirent.Name[:], data[:8])
	copy(dirent.Extension[:], data[8:11])
	return dirent, nil
}

// IsLongNameFragment reports whether this is a piece of a VFAT long file name
// rather than a real entry.
func (r *RawDirent) IsLongNameFragment() bool {
	return r.AttributeFlags&AttrLongName == AttrLongName
}

// IsVolumeLabel reports whether this entry holds the volume label.
func (r *RawDirent) IsVolumeLabel() bool {
	return !r.IsLongNameFragment() && r.AttributeFlags&AttrVolumeLabel != 0
}

// Dirent is a directory entry in a form that's convenient to work with. All
// timestamps are in UTC, as FAT doesn't record a time zone.
type Dirent struct {
	Name       string
	Attributes uint8
	// IsDir comes from the directory attribute bit only. A zero-length
	// regular file is perfectly legal.
	IsDir bool
	Size  uint32
	// FirstCluster is 0 for empty files and for the root directory, which
	// lives in its own fixed region instead of the data region.
	FirstCluster ClusterID
	Created      time.Time
	Modified     time.Time
	// Accessed only has a date; the time of day is always midnight.
	Accessed time.Time
}

// rootTimestamp is what the synthesized root entry reports for all of its
// timestamps, as there's no directory entry to take them from.
var rootTimestamp = time.Unix(0, 0).UTC()

// RootDirent returns the synthesized entry for the root directory.
func RootDirent() Dirent {
	return Dirent{
		Name:       "/",
		Attributes: AttrDirectory,
		IsDir:      true,
		Created:    rootTimestamp,
		Modified:   rootTimestamp,
		Accessed:   rootTimestamp,
	}
}

// IsRoot reports whether the entry refers to the root directory. This is also
// true for ".." entries in first-level subdirectories.
func (d Dirent) IsRoot() bool {
	return d.IsDir && d.FirstCluster == 0
}

// IsReadOnly reports whether the read-only attribute is set.
func (d Dirent) IsReadOnly() bool { return d.Attributes&AttrReadOnly != 0 }

// IsHidden reports whether the hidden attribute is set.
func (d Dirent) IsHidden() bool { return d.Attributes&AttrHidden != 0 }

// IsSystem reports whether the system attribute is set.
func (d Dirent) IsSystem() bool { return d.Attributes&AttrSystem != 0 }

// Mode converts the attributes into file mode bits. FAT has no notion of
// ownership or execute permission and this driver never writes, so every file
// is readable by everyone and writable by no one.
func (d Dirent) Mode() fs.FileMode {
	if d.IsDir {
		return fs.ModeDir | 0o555
	}
	return 0o444
}

// DecodeDirent decodes a 32-byte directory entry. It doesn't check whether the
// entry is in use; see [ClassifyRawDirent].
func DecodeDirent(data []byte) (Dirent, error) {
	raw, err := NewRawDirentFromBytes(data)
	if err != nil {
		return Dirent{}, err
	}
	return raw.Decode(), nil
}

// Decode converts the raw fields into a [Dirent].
func (r *RawDirent) Decode() Dirent {
	created := TimestampFromParts(r.CreatedDate, r.CreatedTime)
	if !created.IsZero() && r.CreatedTimeTenths < 200 {
		created = created.Add(time.Duration(r.CreatedTimeTenths) * 10 * time.Millisecond)
	}

	return Dirent{
		Name:         r.ShortName(),
		Attributes:   r.AttributeFlags,
		IsDir:        r.AttributeFlags&AttrDirectory != 0,
		Size:         r.FileSize,
		FirstCluster: ClusterID(r.FirstCluster),
		Created:      created,
		Modified:     TimestampFromParts(r.LastModifiedDate, r.LastModifiedTime),
		Accessed:     DateFromInt(r.LastAccessedDate),
	}
}

// ShortName joins the base name and extension with a dot, dropping the space
// padding. The dot is omitted if there's no extension.
func (r *RawDirent) ShortName() string {
	base := r.Name
	if base[0] == markerEscapedE5 {
		base[0] = markerDeleted
	}

	trimmedName := decodeOEMText(base[:])
	trimmedExt := decodeOEMText(r.Extension[:])
	if trimmedExt == "" {
		return trimmedName
	}
	return trimmedName + "." + trimmedExt
}

// decodeOEMText converts space-padded code page 437 text to a Go string.
func decodeOEMText(data []byte) string {
	var builder strings.Builder
	builder.Grow(len(data))

	end := len(data)
	for end > 0 && data[end-1] == ' ' {
		end--
	}
	for _, b := range data[:end] {
		builder.WriteRune(charmap.CodePage437.DecodeByte(b))
	}
	return builder.String()
}

// DateFromInt converts the FAT on-disk representation of a date into a
// [time.Time] at midnight UTC. Dates that don't exist on the calendar (day or
// month 0, month 13, February 30) give the zero time so callers can use
// [time.Time.IsZero].
func DateFromInt(value uint16) time.Time {
	day := int(value & 0x1F)
	month := time.Month((value >> 5) & 0x0F)
	// FAT counts years from 1980, not from 1900 or 1970.
	year := 1980 + int(value>>9)

	if day == 0 || month < time.January || month > time.December {
		return time.Time{}
	}

	date := time.Date(year, month, day, 0, 0, 0, 0, time.UTC)
	// time.Date normalizes overflowing days into the next month.
	if date.Day() != day {
		return time.Time{}
	}
	return date
}

// TimestampFromParts combines FAT date and time fields. Time fields have a
// two-second resolution. If either part is out of range the zero time is
// returned.
func TimestampFromParts(datePart uint16, timePart uint16) time.Time {
	date := DateFromInt(datePart)
	if date.IsZero() {
		return date
	}

	seconds := int(timePart&0x1F) * 2
	minutes := int((timePart >> 5) & 0x3F)
	hours := int(timePart >> 11)
	if hours > 23 || minutes > 59 || seconds > 59 {
		return time.Time{}
	}

	return time.Date(
		date.Year(), date.Month(), date.Day(), hours, minutes, seconds, 0, time.UTC)
}
