package fat12

import (
	"fmt"
	"strings"

	"github.com/dargueta/fat12fs/errors"
	"github.com/dargueta/fat12fs/file_systems/common"
)

// BootSector holds the BIOS Parameter Block of a volume together with the
// region boundaries derived from it. All sector numbers are relative to the
// start of the volume, not the start of the physical disk; HiddenSectors is
// informational only.
type BootSector struct {
	OEMName           string
	BytesPerSector    uint16
	SectorsPerCluster uint8
	ReservedSectors   uint16
	FATCopies         uint8
	RootEntryCount    uint16
	// TotalSectors comes from the 16-bit field if it's nonzero, otherwise the
	// 32-bit one. If both are zero, [Open] fills it in from the source's size.
	TotalSectors    uint32
	Media           uint8
	SectorsPerFAT   uint16
	SectorsPerTrack uint16
	Heads           uint16
	HiddenSectors   uint32

	// HasExtendedBPB is true if the extended boot signature (0x29) is present,
	// in which case VolumeID, VolumeLabel, and FileSystemType are meaningful.
	HasExtendedBPB bool
	VolumeID       uint32
	VolumeLabel    string
	FileSystemType string
	// HasSignature is true if the sector ends in 55 AA.
	HasSignature bool

	FATRegionStart     SectorID
	RootDirRegionStart SectorID
	RootDirSectors     uint32
	DataRegionStart    SectorID
	BytesPerCluster    uint32
	// TotalClusters is the number of data clusters, i.e. excluding the two
	// reserved FAT entries. [Open] lowers it to what the image and the FAT can
	// actually hold if the boot sector claims more.
	TotalClusters uint32
}

type bpbField struct {
	name   string
	offset int
	width  int
}

var (
	fieldBytesPerSector    = bpbField{"bytes per sector", 11, 2}
	fieldSectorsPerCluster = bpbField{"sectors per cluster", 13, 1}
	fieldReservedSectors   = bpbField{"reserved sectors", 14, 2}
	fieldFATCopies         = bpbField{"FAT copies", 16, 1}
	fieldRootEntryCount    = bpbField{"root directory entries", 17, 2}
	fieldTotalSectors16    = bpbField{"total sectors (16-bit)", 19, 2}
	fieldMedia             = bpbField{"media descriptor", 21, 1}
	fieldSectorsPerFAT     = bpbField{"sectors per FAT", 22, 2}
	fieldSectorsPerTrack   = bpbField{"sectors per track", 24, 2}
	fieldHeads             = bpbField{"heads", 26, 2}
	fieldHiddenSectors     = bpbField{"hidden sectors", 28, 4}
	fieldTotalSectors32    = bpbField{"total sectors (32-bit)", 32, 4}
	fieldExtendedSignature = bpbField{"extended boot signature", 38, 1}
	fieldVolumeID          = bpbField{"volume ID", 39, 4}
	fieldBootSignature     = bpbField{"boot sector signature", 510, 2}
)

const (
	extendedBootSignature = 0x29
	bootSectorSignature   = 0xAA55
)

// bpbReader reads fields in sequence and remembers the first failure, so that
// parsing reads as a flat list of assignments.
type bpbReader struct {
	data []byte
	err  error
}

func (r *bpbReader) read(field bpbField) uint32 {
	if r.err != nil {
		return 0
	}
	value, err := common.ReadUnsignedLE(r.data, field.offset, field.width)
	if err != nil {
		r.err = errors.ErrInvalidFormat.WithMessage(
			fmt.Sprintf("can't read %s: %s", field.name, err.Error()))
	}
	return value
}

func (r *bpbReader) text(offset, length int) string {
	if r.err != nil {
		return ""
	}
	if offset+length > len(r.data) {
		r.err = errors.ErrInvalidFormat.WithMessage(
			fmt.Sprintf("text field at offset %d runs off the end of the boot sector", offset))
		return ""
	}
	return strings.TrimRight(string(r.data[offset:offset+length]), " \x00")
}

// NewBootSectorFromBytes parses the first [BootSectorSize] bytes of a volume.
// It only rejects values that would make the derived geometry meaningless
// (zero sector size, zero cluster size, no FATs). Stricter checks are done by
// [BootSector.Validate].
func NewBootSectorFromBytes(data []byte) (*BootSector, error) {
	if len(data) < BootSectorSize {
		return nil, errors.ErrInvalidFormat.WithMessage(
			fmt.Sprintf(
				"boot sector must be at least %d bytes, got %d", BootSectorSize, len(data)))
	}

	reader := bpbReader{data: data}
	bs := BootSector{
		OEMName:           reader.text(3, 8),
		BytesPerSector:    uint16(reader.read(fieldBytesPerSector)),
		SectorsPerCluster: uint8(reader.read(fieldSectorsPerCluster)),
		ReservedSectors:   uint16(reader.read(fieldReservedSectors)),
		FATCopies:         uint8(reader.read(fieldFATCopies)),
		RootEntryCount:    uint16(reader.read(fieldRootEntryCount)),
		TotalSectors:      reader.read(fieldTotalSectors16),
		Media:             uint8(reader.read(fieldMedia)),
		SectorsPerFAT:     uint16(reader.read(fieldSectorsPerFAT)),
		SectorsPerTrack:   uint16(reader.read(fieldSectorsPerTrack)),
		Heads:             uint16(reader.read(fieldHeads)),
		HiddenSectors:     reader.read(fieldHiddenSectors),
	}
	if bs.TotalSectors == 0 {
		bs.TotalSectors = reader.read(fieldTotalSectors32)
	}

	bs.HasExtendedBPB = reader.read(fieldExtendedSignature) == extendedBootSignature
	if bs.HasExtendedBPB {
		bs.VolumeID = reader.read(fieldVolumeID)
		bs.VolumeLabel = reader.text(43, 11)
		bs.FileSystemType = reader.text(54, 8)
	}
	bs.HasSignature = reader.read(fieldBootSignature) == bootSectorSignature

	if reader.err != nil {
		return nil, reader.err
	}

	if bs.BytesPerSector == 0 {
		return nil, errors.ErrInvalidFormat.WithMessage("sector size is 0")
	}
	if bs.SectorsPerCluster == 0 {
		return nil, errors.ErrInvalidFormat.WithMessage("sectors per cluster is 0")
	}
	if bs.FATCopies == 0 {
		return nil, errors.ErrInvalidFormat.WithMessage("volume has no FATs")
	}
	if bs.SectorsPerFAT == 0 {
		return nil, errors.ErrInvalidFormat.WithMessage("sectors per FAT is 0")
	}

	bs.computeGeometry()
	return &bs, nil
}

// computeGeometry fills in the derived fields. Each one depends only on raw
// fields or on derived fields computed before it.
func (bs *BootSector) computeGeometry() {
	bytesPerSector := uint32(bs.BytesPerSector)

	bs.FATRegionStart = SectorID(bs.ReservedSectors)
	bs.RootDirRegionStart = bs.FATRegionStart +
		SectorID(uint32(bs.SectorsPerFAT)*uint32(bs.FATCopies))
	bs.RootDirSectors = (uint32(bs.RootEntryCount)*DirentSize + bytesPerSector - 1) /
		bytesPerSector
	bs.DataRegionStart = bs.RootDirRegionStart + SectorID(bs.RootDirSectors)
	bs.BytesPerCluster = bytesPerSector * uint32(bs.SectorsPerCluster)

	if bs.TotalSectors > uint32(bs.DataRegionStart) {
		bs.TotalClusters = (bs.TotalSectors - uint32(bs.DataRegionStart)) /
			uint32(bs.SectorsPerCluster)
	} else {
		bs.TotalClusters = 0
	}
}

// setTotalSectors overrides the sector count for volumes that don't record it.
func (bs *BootSector) setTotalSectors(totalSectors uint32) {
	bs.TotalSectors = totalSectors
	bs.computeGeometry()
}

// limitClusters caps TotalClusters at what can actually exist: clusters that fit
// between the data region and the end of a source `sourceSectors` long, that
// have an entry in the FAT, and whose numbers fit in 12 bits. It returns the
// count the boot sector claimed.
func (bs *BootSector) limitClusters(sourceSectors int64) uint32 {
	claimed := bs.TotalClusters

	limit := uint32(LastDataCluster - FirstDataCluster + 1)
	capacity := bs.FATEntryCapacity()
	if capacity < 2 {
		limit = 0
	} else if capacity-2 < limit {
		limit = capacity - 2
	}

	if sourceSectors > int64(bs.DataRegionStart) {
		fit := (sourceSectors - int64(bs.DataRegionStart)) / int64(bs.SectorsPerCluster)
		if fit < int64(limit) {
			limit = uint32(fit)
		}
	} else {
		limit = 0
	}

	if bs.TotalClusters > limit {
		bs.TotalClusters = limit
	}
	return claimed
}

// MaxCluster returns the number of the last data cluster on the volume.
func (bs *BootSector) MaxCluster() ClusterID {
	return FirstDataCluster + ClusterID(bs.TotalClusters) - 1
}

// ClusterToSector returns the first sector of a data cluster. It does no range
// checking.
func (bs *BootSector) ClusterToSector(cluster ClusterID) SectorID {
	return bs.DataRegionStart +
		SectorID(uint32(cluster-FirstDataCluster)*uint32(bs.SectorsPerCluster))
}

// FATEntryCapacity returns how many 12-bit entries fit in one copy of the FAT,
// including the two reserved ones.
func (bs *BootSector) FATEntryCapacity() uint32 {
	return uint32(bs.SectorsPerFAT) * uint32(bs.BytesPerSector) * 2 / 3
}

// Validate performs the checks a careful formatter would never violate. Plenty
// of images in the wild break at least one of these, which is why [Open] only
// runs them in strict mode.
func (bs *BootSector) Validate() error {
	switch bs.BytesPerSector {
	case 512, 1024, 2048, 4096:
	default:
		return errors.ErrInvalidFormat.WithMessage(
			fmt.Sprintf(
				"BytesPerSector must be 512, 1024, 2048, or 4096, got %d",
				bs.BytesPerSector))
	}

	if bs.SectorsPerCluster&(bs.SectorsPerCluster-1) != 0 {
		return errors.ErrInvalidFormat.WithMessage(
			fmt.Sprintf(
				"SectorsPerCluster must be a power of 2 in 1-128, got %d",
				bs.SectorsPerCluster))
	}

	if bs.BytesPerCluster > 32768 {
		return errors.ErrInvalidFormat.WithMessage(
			fmt.Sprintf(
				"BytesPerCluster cannot exceed 32,768 but got %d", bs.BytesPerCluster))
	}

	if bs.TotalClusters == 0 {
		return errors.ErrInvalidFormat.WithMessage("volume has no data clusters")
	}
	if bs.TotalClusters >= MaxFAT12Clusters {
		return errors.ErrWrongMediumType.WithMessage(
			fmt.Sprintf(
				"%d clusters is too many for FAT12; this is FAT16 or FAT32",
				bs.TotalClusters))
	}

	if bs.FATEntryCapacity() < bs.TotalClusters+2 {
		return errors.ErrInvalidFormat.WithMessage(
			fmt.Sprintf(
				"FAT has room for %d entries but the volume has %d clusters",
				bs.FATEntryCapacity(),
				bs.TotalClusters))
	}

	if !bs.HasSignature {
		return errors.ErrInvalidFormat.WithMessage("boot sector signature 55 AA is missing")
	}
	return nil
}
