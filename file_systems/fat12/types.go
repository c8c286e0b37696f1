package fat12

// SectorID is the zero-based index of a sector on a volume.
type SectorID uint32

// ClusterID is the number of a data cluster. The first data cluster is 2;
// clusters 0 and 1 exist only as reserved FAT entries.
type ClusterID uint32

const (
	// BootSectorSize is the number of bytes read from the start of a source
	// to parse the boot sector, regardless of the volume's sector size.
	BootSectorSize = 512

	// DirentSize is the size of a single raw directory entry, in bytes.
	DirentSize = 32

	// FirstDataCluster is the number of the cluster that begins the data
	// region.
	FirstDataCluster ClusterID = 2

	// LastDataCluster is the highest cluster number a 12-bit FAT entry can
	// point to. 0xFF7 marks a bad cluster and everything above ends a chain.
	LastDataCluster ClusterID = 0xFF6

	// MaxFAT12Clusters is one more than the largest number of data clusters a
	// FAT12 volume can have. Anything at or above this is FAT16 or FAT32,
	// because the FAT type is determined by cluster count alone.
	MaxFAT12Clusters = 4085
)

// Attribute flags found in byte 11 of a directory entry.
const (
	// AttrReadOnly marks a directory entry as read-only.
	AttrReadOnly = 0x01
	// AttrHidden marks an entry that wouldn't show up in normal listings.
	AttrHidden = 0x02
	// AttrSystem marks an entry as belonging to the operating system.
	AttrSystem = 0x04
	// AttrVolumeLabel marks the entry holding the volume label. It only has
	// meaning in the root directory.
	AttrVolumeLabel = 0x08
	// AttrDirectory marks a directory entry as being a directory.
	AttrDirectory = 0x10
	// AttrArchived is set by DOS whenever an entry is created or modified.
	AttrArchived = 0x20

	// AttrLongName is the combination of attributes VFAT uses to mark long
	// file name fragments. Old implementations skip these because no real
	// short entry would ever have the volume label bit set alongside the
	// others.
	AttrLongName = AttrReadOnly | AttrHidden | AttrSystem | AttrVolumeLabel
)
