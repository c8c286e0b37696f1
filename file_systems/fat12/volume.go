package fat12

import (
	"fmt"
	"io"
	"sync/atomic"

	"github.com/dargueta/fat12fs/errors"
	"github.com/dargueta/fat12fs/file_systems/common"
	"github.com/dargueta/fat12fs/logging"
)

// Options controls how a volume is opened and searched. The zero value is the
// lenient default.
type Options struct {
	// Strict runs [BootSector.Validate] and refuses volumes whose recorded size
	// is larger than the source.
	Strict bool
	// MaxChainLength caps the number of clusters a single chain walk will
	// visit. Zero means the number of data clusters on the volume, which no
	// valid chain can exceed.
	MaxChainLength uint32
	// CaseSensitive disables ASCII case folding when matching path components.
	CaseSensitive bool
}

// Volume is an open FAT12 volume. It's immutable after [Open] returns and safe
// for concurrent use.
type Volume struct {
	source  common.Source
	boot    BootSector
	options Options
	table   Table
	rootDir []byte
	closed  atomic.Bool
}

// Open reads the boot sector, the first FAT, and the root directory from
// `source` using the default options.
func Open(source common.Source) (*Volume, error) {
	return OpenWithOptions(source, Options{})
}

// OpenWithOptions is [Open] with explicit options.
func OpenWithOptions(source common.Source, options Options) (*Volume, error) {
	log := logging.Logger()

	sourceSize := source.Size()
	if sourceSize < BootSectorSize {
		return nil, errors.ErrInvalidFormat.WithMessage(
			fmt.Sprintf(
				"image is %d bytes, too small to hold a %d-byte boot sector",
				sourceSize,
				BootSectorSize))
	}

	rawBootSector := make([]byte, BootSectorSize)
	err := readFullAt(source, rawBootSector, 0)
	if err != nil {
		return nil, err
	}

	boot, err := NewBootSectorFromBytes(rawBootSector)
	if err != nil {
		return nil, err
	}

	sourceSectors := sourceSize / int64(boot.BytesPerSector)
	if boot.TotalSectors == 0 {
		log.Debugw(
			"boot sector doesn't record a sector count, using image size",
			"sectors", sourceSectors)
		boot.setTotalSectors(uint32(sourceSectors))
	}

	if int64(boot.DataRegionStart) > sourceSectors {
		return nil, errors.ErrInvalidFormat.WithMessage(
			fmt.Sprintf(
				"data region starts at sector %d but the image only has %d sectors",
				boot.DataRegionStart,
				sourceSectors))
	}
	if int64(boot.TotalSectors) > sourceSectors {
		if options.Strict {
			return nil, errors.ErrInvalidFormat.WithMessage(
				fmt.Sprintf(
					"boot sector claims %d sectors but the image only has %d",
					boot.TotalSectors,
					sourceSectors))
		}
		log.Warnw(
			"image is shorter than the volume it contains; trailing clusters will be unreadable",
			"volumeSectors", boot.TotalSectors,
			"imageSectors", sourceSectors)
	}

	if options.Strict {
		err = boot.Validate()
		if err != nil {
			return nil, err
		}
	}

	claimedClusters := boot.limitClusters(sourceSectors)
	if claimedClusters != boot.TotalClusters {
		log.Warnw(
			"boot sector claims more clusters than the volume can hold",
			"claimed", claimedClusters,
			"usable", boot.TotalClusters)
	}

	volume := &Volume{
		source:  source,
		boot:    *boot,
		options: options,
	}

	fatData, err := volume.ReadSectors(boot.FATRegionStart, uint32(boot.SectorsPerFAT))
	if err != nil {
		return nil, err
	}
	volume.table = Table(fatData)

	volume.rootDir, err = volume.ReadSectors(boot.RootDirRegionStart, boot.RootDirSectors)
	if err != nil {
		return nil, err
	}

	log.Debugw(
		"opened FAT12 volume",
		"bytesPerSector", boot.BytesPerSector,
		"sectorsPerCluster", boot.SectorsPerCluster,
		"fatCopies", boot.FATCopies,
		"sectorsPerFAT", boot.SectorsPerFAT,
		"rootEntries", boot.RootEntryCount,
		"fatStart", boot.FATRegionStart,
		"rootDirStart", boot.RootDirRegionStart,
		"dataStart", boot.DataRegionStart,
		"clusters", boot.TotalClusters,
	)
	return volume, nil
}

// Close releases the volume. If the source is an [io.Closer] it's closed too.
// Using the volume after closing it fails with [errors.ErrBadFileDescriptor].
func (v *Volume) Close() error {
	if v.closed.Swap(true) {
		return errors.ErrBadFileDescriptor.WithMessage("volume is already closed")
	}
	if closer, ok := v.source.(io.Closer); ok {
		err := closer.Close()
		if err != nil {
			return errors.ErrIOFailed.Wrap(err)
		}
	}
	return nil
}

func (v *Volume) checkOpen() error {
	if v.closed.Load() {
		return errors.ErrBadFileDescriptor.WithMessage("volume is closed")
	}
	return nil
}

// BootSector returns a copy of the volume's parsed boot sector.
func (v *Volume) BootSector() BootSector {
	return v.boot
}

// Options returns the options the volume was opened with.
func (v *Volume) Options() Options {
	return v.options
}

// Table returns the in-memory copy of the first FAT. Callers must not modify
// it.
func (v *Volume) Table() Table {
	return v.table
}

// readFullAt fills `buffer` from `offset` or fails with an I/O error. A
// ReaderAt is allowed to return io.EOF along with a full read at the end of
// the source, so that isn't treated as a failure.
func readFullAt(source io.ReaderAt, buffer []byte, offset int64) error {
	bytesRead, err := source.ReadAt(buffer, offset)
	if bytesRead == len(buffer) {
		return nil
	}

	drvErr := errors.ErrIOFailed.WithMessage(
		fmt.Sprintf(
			"short read at offset %d: wanted %d bytes, got %d",
			offset,
			len(buffer),
			bytesRead))
	return drvErr.Wrap(err)
}

// ReadSectors returns exactly `count` sectors starting at `first`. A count of 0
// returns an empty slice and no error.
func (v *Volume) ReadSectors(first SectorID, count uint32) ([]byte, error) {
	err := v.checkOpen()
	if err != nil {
		return nil, err
	}
	if count == 0 {
		return []byte{}, nil
	}

	sectorSize := int64(v.boot.BytesPerSector)
	start := int64(first) * sectorSize
	length := int64(count) * sectorSize
	if start+length > v.source.Size() {
		return nil, errors.ErrOutOfRange.WithMessage(
			fmt.Sprintf(
				"sectors [%d, %d) extend past the end of a %d-byte image",
				first,
				int64(first)+int64(count),
				v.source.Size()))
	}

	buffer := make([]byte, length)
	err = readFullAt(v.source, buffer, start)
	if err != nil {
		return nil, err
	}
	return buffer, nil
}

// ReadCluster returns the contents of one data cluster.
func (v *Volume) ReadCluster(cluster ClusterID) ([]byte, error) {
	if cluster < FirstDataCluster || cluster > v.boot.MaxCluster() {
		return nil, errors.ErrOutOfRange.WithMessage(
			fmt.Sprintf(
				"cluster %d isn't in the data region (valid: %d-%d)",
				cluster,
				FirstDataCluster,
				v.boot.MaxCluster()))
	}
	return v.ReadSectors(
		v.boot.ClusterToSector(cluster), uint32(v.boot.SectorsPerCluster))
}

// NextCluster looks up the FAT entry for `cluster`.
func (v *Volume) NextCluster(cluster ClusterID) (ChainLink, error) {
	return v.table.NextCluster(cluster)
}
